package world

import (
	"fmt"

	"github.com/annel0/voxel-storage/internal/metrics"
	"github.com/annel0/voxel-storage/internal/vec"
	"github.com/annel0/voxel-storage/internal/world/block"
	"github.com/annel0/voxel-storage/internal/world/blockstore"
)

// ChunkSize - длина ребра чанка в блоках
const ChunkSize = blockstore.Size

// DefaultOptimizeEvery - по умолчанию Optimize вызывается на каждой сотой записи
const DefaultOptimizeEvery = 100

// Chunk владеет хранилищем блоков одного участка мира 32x32x32.
// Chunk не синхронизирован: конкурентный доступ идёт через ChunkArena.
type Chunk struct {
	Coords vec.Vec3 // Координаты чанка в мире (в чанках)

	// Mesh - непрозрачный дескриптор меша, которым владеет рендер
	Mesh any

	storage       *blockstore.Storage
	dirty         bool
	generated     bool
	edits         int // Счетчик записей, по нему амортизируется Optimize
	optimizeEvery int
	metrics       *metrics.Metrics
}

// ChunkOption настраивает создаваемый чанк
type ChunkOption func(*Chunk)

// WithOptimizeEvery задаёт период вызова Optimize (в записях); n < 1 игнорируется
func WithOptimizeEvery(n int) ChunkOption {
	return func(c *Chunk) {
		if n >= 1 {
			c.optimizeEvery = n
		}
	}
}

// WithMetrics подключает Prometheus-метрики
func WithMetrics(m *metrics.Metrics) ChunkOption {
	return func(c *Chunk) {
		c.metrics = m
	}
}

// NewChunk создаёт чанк, заполненный воздухом
func NewChunk(coords vec.Vec3, opts ...ChunkOption) *Chunk {
	return NewChunkFromStorage(coords, blockstore.Empty(), opts...)
}

// NewFilledChunk создаёт чанк, заполненный одним блоком
func NewFilledChunk(coords vec.Vec3, b block.Block, opts ...ChunkOption) *Chunk {
	return NewChunkFromStorage(coords, blockstore.NewUniform(b), opts...)
}

// NewChunkFromStorage создаёт чанк поверх готового хранилища (например, загруженного)
func NewChunkFromStorage(coords vec.Vec3, s *blockstore.Storage, opts ...ChunkOption) *Chunk {
	if s == nil {
		s = blockstore.Empty()
	}
	c := &Chunk{
		Coords:        coords,
		storage:       s,
		optimizeEvery: DefaultOptimizeEvery,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetBlock возвращает блок по линейному индексу
func (c *Chunk) GetBlock(i int) (block.Block, error) {
	return c.storage.Get(i)
}

// GetBlockAt возвращает блок по локальным координатам
func (c *Chunk) GetBlockAt(x, y, z int) (block.Block, error) {
	return c.storage.GetAt(x, y, z)
}

// SetBlock записывает блок и помечает чанк изменённым.
// Каждая optimizeEvery-я запись в этот чанк вызывает Optimize.
func (c *Chunk) SetBlock(i int, b block.Block) error {
	before := c.storage.Kind()
	if err := c.storage.Set(i, b); err != nil {
		return err
	}
	c.dirty = true
	c.edits++
	c.metrics.Transition(before.String(), c.storage.Kind().String())

	if c.edits%c.optimizeEvery == 0 {
		c.Optimize()
	}
	return nil
}

// SetBlockAt записывает блок по локальным координатам
func (c *Chunk) SetBlockAt(x, y, z int, b block.Block) error {
	if !blockstore.InBounds(x, y, z) {
		return fmt.Errorf("%w: (%d,%d,%d)", blockstore.ErrIndexOutOfBounds, x, y, z)
	}
	return c.SetBlock(blockstore.Index(x, y, z), b)
}

// Optimize сжимает хранилище до наименьшего подходящего представления
func (c *Chunk) Optimize() bool {
	before := c.storage.Kind()
	changed := c.storage.Optimize()
	c.metrics.OptimizeRun(changed)
	c.metrics.Transition(before.String(), c.storage.Kind().String())
	return changed
}

// Compress переводит хранилище в холодное RLE, если это выгодно.
// Содержимое не меняется, поэтому флаг dirty не трогается.
func (c *Chunk) Compress() bool {
	if c.storage.Kind() == blockstore.KindRLE {
		return false
	}
	cold, ok := c.storage.ToRLE()
	c.metrics.RLEAttempt(ok)
	if !ok {
		return false
	}
	c.metrics.Transition(c.storage.Kind().String(), cold.Kind().String())
	c.storage = cold
	return true
}

// IsEmpty - все ячейки пусты. O(1) для Uniform, иначе полный обход.
func (c *Chunk) IsEmpty() bool {
	if b, ok := c.storage.Uniform(); ok {
		return b.IsEmpty()
	}
	empty := true
	c.storage.ForEach(func(_ int, b block.Block) bool {
		empty = b.IsEmpty()
		return empty
	})
	return empty
}

// IsFull - ни одна ячейка не пуста. O(1) для Uniform, иначе полный обход.
func (c *Chunk) IsFull() bool {
	if b, ok := c.storage.Uniform(); ok {
		return !b.IsEmpty()
	}
	full := true
	c.storage.ForEach(func(_ int, b block.Block) bool {
		full = !b.IsEmpty()
		return full
	})
	return full
}

// IsDirty возвращает true, если чанк изменён после последнего сохранения
func (c *Chunk) IsDirty() bool {
	return c.dirty
}

// MarkDirty помечает чанк для сохранения
func (c *Chunk) MarkDirty() {
	c.dirty = true
}

// ClearDirty снимает флаг изменений (после сохранения)
func (c *Chunk) ClearDirty() {
	c.dirty = false
}

// MarkGenerated отмечает завершение генерации
func (c *Chunk) MarkGenerated() {
	c.generated = true
}

// IsGenerated возвращает true, если генерация чанка завершена
func (c *Chunk) IsGenerated() bool {
	return c.generated
}

// Edits возвращает число записей в чанк с момента создания
func (c *Chunk) Edits() int {
	return c.edits
}

// Kind возвращает текущее представление хранилища
func (c *Chunk) Kind() blockstore.Kind {
	return c.storage.Kind()
}

// Storage возвращает хранилище чанка. Указатель действителен только
// под блокировкой владельца.
func (c *Chunk) Storage() *blockstore.Storage {
	return c.storage
}

// ReplaceStorage заменяет содержимое целиком и помечает чанк изменённым
func (c *Chunk) ReplaceStorage(s *blockstore.Storage) {
	if s == nil {
		s = blockstore.Empty()
	}
	c.storage = s
	c.dirty = true
}

// Clone возвращает независимую копию без меша
func (c *Chunk) Clone() *Chunk {
	out := *c
	out.storage = c.storage.Clone()
	out.Mesh = nil
	return &out
}
