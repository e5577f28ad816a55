package blockstore

import (
	"github.com/annel0/voxel-storage/internal/logging"
	"github.com/annel0/voxel-storage/internal/world/block"
)

func logger() *logging.Logger {
	return logging.GetComponentLogger("blockstore")
}

var uniformAir = &uniformRepr{b: block.Air()}

// Storage - содержимое одного чанка. Нулевое значение эквивалентно Empty().
type Storage struct {
	r repr
}

// Empty создаёт хранилище, заполненное воздухом
func Empty() *Storage {
	return NewUniform(block.Air())
}

// NewUniform создаёт хранилище, заполненное одним блоком
func NewUniform(b block.Block) *Storage {
	return &Storage{r: &uniformRepr{b: b}}
}

// NewRLE создаёт холодное хранилище из палитры и серий "как есть", без проверок.
// Используется декодерами; корректность проверяет FromRLE.
func NewRLE(pal []block.Block, runs []Run) *Storage {
	r := &rleRepr{pal: palette{entries: append([]block.Block(nil), pal...)}, runs: append([]Run(nil), runs...)}
	if len(pal) > paletteLookupThreshold {
		r.pal.lookup = make(map[block.Block]uint16, len(pal))
		for i, b := range pal {
			if _, dup := r.pal.lookup[b]; !dup {
				r.pal.lookup[b] = uint16(i)
			}
		}
	}
	return &Storage{r: r}
}

func (s *Storage) repr() repr {
	if s.r == nil {
		return uniformAir
	}
	return s.r
}

// Kind возвращает активное представление
func (s *Storage) Kind() Kind {
	return s.repr().kind()
}

// Get возвращает блок по линейному индексу
func (s *Storage) Get(i int) (block.Block, error) {
	if err := checkIndex(i); err != nil {
		return block.Block{}, err
	}
	return s.repr().get(i), nil
}

// GetAt возвращает блок по локальным координатам
func (s *Storage) GetAt(x, y, z int) (block.Block, error) {
	if !InBounds(x, y, z) {
		return block.Block{}, wrapf(ErrIndexOutOfBounds, "(%d,%d,%d)", x, y, z)
	}
	return s.repr().get(Index(x, y, z)), nil
}

// Set записывает блок, при необходимости повышая представление.
// Запись в Uniform того же блока ничего не меняет.
// Запись в RLE сначала материализует живое представление.
func (s *Storage) Set(i int, b block.Block) error {
	if err := checkIndex(i); err != nil {
		return err
	}
	before := s.repr()
	s.r = setCell(before, i, b)
	if s.r.kind() != before.kind() {
		logger().Trace("blockstore: %s -> %s", before.kind(), s.r.kind())
	}
	return nil
}

// SetAt записывает блок по локальным координатам
func (s *Storage) SetAt(x, y, z int, b block.Block) error {
	if !InBounds(x, y, z) {
		return wrapf(ErrIndexOutOfBounds, "(%d,%d,%d)", x, y, z)
	}
	return s.Set(Index(x, y, z), b)
}

// Fill заполняет всё хранилище одним блоком
func (s *Storage) Fill(b block.Block) {
	s.r = &uniformRepr{b: b}
}

// Optimize пересчитывает реально используемые блоки и переходит на
// наименьшее подходящее представление. Стоимость O(Volume): вызывающий
// код сам ограничивает частоту вызовов.
func (s *Storage) Optimize() bool {
	before := s.repr()
	next, changed := optimize(before)
	if changed {
		logger().Debug("blockstore: optimize %s -> %s (%d -> %d bytes)",
			before.kind(), next.kind(), before.memoryUsage(), next.memoryUsage())
		s.r = next
	}
	return changed
}

// Palette возвращает различные блоки представления (порядок не важен).
// Для палитровых уровней может содержать неиспользуемые записи до Optimize.
func (s *Storage) Palette() []block.Block {
	return distinct(s.repr())
}

// DistinctCount возвращает число реально используемых различных блоков
func (s *Storage) DistinctCount() int {
	r := s.repr()
	if z, ok := r.(*zigzagRepr); ok {
		seen := make(map[block.Block]struct{})
		for _, b := range z.cells {
			seen[b] = struct{}{}
		}
		return len(seen)
	}
	return countUsed(r)
}

// MemoryUsage возвращает примерный размер в байтах и имя представления.
// Для RLE: 4 байта на запись палитры плюс 2 байта на серию (3 при палитре больше 256).
// Это же число сравнивает ToRLE при решении о конвертации.
func (s *Storage) MemoryUsage() (int, Kind) {
	r := s.repr()
	return r.memoryUsage(), r.kind()
}

// ToRLE строит холодное run-length представление. Возвращает false, если
// результат не меньше 90% текущего размера (по MemoryUsage).
// Исключение из этого правила: Uniform конвертируется всегда, хотя 128 серий
// по 256 ячеек (260 байт для воздуха) больше 4 байт исходного блока.
// Spans такого результата даёт один интервал на весь объём.
// Для хранилища, уже находящегося в RLE, возвращает false.
func (s *Storage) ToRLE() (*Storage, bool) {
	r := s.repr()
	if r.kind() == KindRLE {
		return nil, false
	}

	rle := toRLE(r)
	size, src := rle.memoryUsage(), r.memoryUsage()
	if r.kind() != KindUniform && !rleWorthIt(size, src) {
		logger().Debug("blockstore: RLE отклонено: %d байт против %d (%s)", size, src, r.kind())
		return nil, false
	}
	return &Storage{r: rle}, true
}

// FromRLE разворачивает холодное представление в живое.
// Ошибка, если серии не покрывают ровно Volume ячеек или ссылаются за палитру.
func (s *Storage) FromRLE() (*Storage, error) {
	rle, ok := s.repr().(*rleRepr)
	if !ok {
		return nil, wrapf(ErrNotRLE, "kind %s", s.Kind())
	}
	if err := rle.validate(); err != nil {
		return nil, err
	}
	return &Storage{r: materialize(rle)}, nil
}

// Runs возвращает копию серий для RLE-хранилища, иначе nil
func (s *Storage) Runs() []Run {
	if rle, ok := s.repr().(*rleRepr); ok {
		return append([]Run(nil), rle.runs...)
	}
	return nil
}

// Spans возвращает серии с одинаковым индексом, склеенные в логические промежутки
func (s *Storage) Spans() []Span {
	if rle, ok := s.repr().(*rleRepr); ok {
		return rle.spans()
	}
	return nil
}

// ForEach обходит ячейки в порядке индексов; fn возвращает false для остановки
func (s *Storage) ForEach(fn func(i int, b block.Block) bool) {
	r := s.repr()
	if rle, ok := r.(*rleRepr); ok {
		// Линейный поиск на каждую ячейку слишком дорог
		for i, b := range rle.expand() {
			if !fn(i, b) {
				return
			}
		}
		return
	}
	for i := 0; i < Volume; i++ {
		if !fn(i, r.get(i)) {
			return
		}
	}
}

// Cells возвращает плотную копию всех ячеек
func (s *Storage) Cells() []block.Block {
	return expandCells(s.repr())
}

// Clone возвращает независимую копию
func (s *Storage) Clone() *Storage {
	return &Storage{r: s.repr().clone()}
}

// Uniform возвращает блок и true, если хранилище однородно
func (s *Storage) Uniform() (block.Block, bool) {
	if u, ok := s.repr().(*uniformRepr); ok {
		return u.b, true
	}
	return block.Block{}, false
}
