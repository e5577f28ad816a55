package blockstore

import "github.com/annel0/voxel-storage/internal/world/block"

// MaxRunLength - максимальная длина одной серии (длина-1 хранится в байте)
const MaxRunLength = 256

// Порог принятия RLE: результат должен быть меньше 90% исходного размера
const (
	rleAcceptNumerator   = 9
	rleAcceptDenominator = 10
)

// Run - серия одинаковых ячеек: индекс палитры и длина минус один
type Run struct {
	Index          uint16
	LengthMinusOne uint8
}

// Len возвращает длину серии (1..256)
func (r Run) Len() int {
	return int(r.LengthMinusOne) + 1
}

// Span - логический промежуток одного блока, склеенный из соседних серий
type Span struct {
	Index  uint16
	Start  int
	Length int
}

// rleRepr - холодное представление; только чтение, Set сначала материализует
type rleRepr struct {
	pal  palette
	runs []Run
}

func (r *rleRepr) kind() Kind { return KindRLE }

// get ищет серию линейным проходом. Индекс вне покрытия серий означает
// повреждённое состояние: возвращаем воздух и пишем предупреждение.
func (r *rleRepr) get(i int) block.Block {
	pos := 0
	for _, run := range r.runs {
		pos += run.Len()
		if i < pos {
			b, ok := r.pal.at(run.Index)
			if !ok {
				logger().Warn("RLE: индекс палитры %d вне палитры из %d элементов (ячейка %d)", run.Index, r.pal.len(), i)
			}
			return b
		}
	}
	logger().Warn("RLE: ячейка %d не покрыта сериями (покрыто %d из %d)", i, pos, Volume)
	return block.Air()
}

func (r *rleRepr) memoryUsage() int {
	return rleMemoryUsage(r.pal.len(), len(r.runs))
}

func (r *rleRepr) clone() repr {
	return &rleRepr{pal: r.pal.clone(), runs: append([]Run(nil), r.runs...)}
}

// coverage возвращает суммарную длину серий
func (r *rleRepr) coverage() int {
	total := 0
	for _, run := range r.runs {
		total += run.Len()
	}
	return total
}

// validate проверяет покрытие объёма и индексы палитры
func (r *rleRepr) validate() error {
	if total := r.coverage(); total != Volume {
		return wrapf(ErrVolumeMismatch, "covered %d of %d cells", total, Volume)
	}
	for n, run := range r.runs {
		if int(run.Index) >= r.pal.len() {
			return wrapf(ErrPaletteIndex, "run %d refers to %d, palette has %d entries", n, run.Index, r.pal.len())
		}
	}
	return nil
}

// expand разворачивает серии в плотный массив; непокрытые ячейки – воздух
func (r *rleRepr) expand() []block.Block {
	cells := make([]block.Block, Volume)
	pos := 0
	for _, run := range r.runs {
		b, _ := r.pal.at(run.Index)
		for n := run.Len(); n > 0 && pos < Volume; n-- {
			cells[pos] = b
			pos++
		}
		if pos >= Volume {
			break
		}
	}
	for ; pos < Volume; pos++ {
		cells[pos] = block.Air()
	}
	return cells
}

// spans склеивает соседние серии с одинаковым индексом
func (r *rleRepr) spans() []Span {
	var out []Span
	pos := 0
	for _, run := range r.runs {
		if n := len(out); n > 0 && out[n-1].Index == run.Index {
			out[n-1].Length += run.Len()
		} else {
			out = append(out, Span{Index: run.Index, Start: pos, Length: run.Len()})
		}
		pos += run.Len()
	}
	return out
}

// runBytes - байт на серию: индекс (1 или 2 байта) + длина-1
func runBytes(paletteLen int) int {
	if paletteLen <= SparseCapacity {
		return 2
	}
	return 3
}

func rleMemoryUsage(paletteLen, runCount int) int {
	return paletteLen*block.Size + runCount*runBytes(paletteLen)
}

// rleWorthIt - RLE должно быть хотя бы на 10% меньше исходного представления
func rleWorthIt(rleSize, sourceSize int) bool {
	return rleSize*rleAcceptDenominator < sourceSize*rleAcceptNumerator
}
