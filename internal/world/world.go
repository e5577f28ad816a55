package world

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/annel0/voxel-storage/internal/vec"
	"github.com/annel0/voxel-storage/internal/world/block"
)

// ErrChunkNotLoaded - чанка с такими координатами нет в арене
var ErrChunkNotLoaded = errors.New("world: chunk not loaded")

// ChunkArena владеет загруженными чанками. Все обращения к чанку идут
// под блокировкой арены: запись через Update, чтение через View.
// Снаружи арены чанки доступны только копиями.
type ChunkArena struct {
	mu     sync.RWMutex
	chunks map[vec.Vec3]*Chunk
	opts   []ChunkOption // применяются к чанкам, созданным ареной
}

// NewChunkArena создаёт пустую арену
func NewChunkArena(opts ...ChunkOption) *ChunkArena {
	return &ChunkArena{
		chunks: make(map[vec.Vec3]*Chunk),
		opts:   opts,
	}
}

// ChunkOptions возвращает опции, с которыми арена создаёт чанки
func (a *ChunkArena) ChunkOptions() []ChunkOption {
	return append([]ChunkOption(nil), a.opts...)
}

// Len возвращает число загруженных чанков
func (a *ChunkArena) Len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.chunks)
}

// Has проверяет, загружен ли чанк
func (a *ChunkArena) Has(coord vec.Vec3) bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	_, ok := a.chunks[coord]
	return ok
}

// Get возвращает копию чанка
func (a *ChunkArena) Get(coord vec.Vec3) (*Chunk, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	c, ok := a.chunks[coord]
	if !ok {
		return nil, false
	}
	return c.Clone(), true
}

// GetOrCreate гарантирует наличие чанка; true, если он был создан
func (a *ChunkArena) GetOrCreate(coord vec.Vec3) bool {
	created, _ := a.LoadOrStore(coord, func() (*Chunk, error) {
		return NewChunk(coord, a.opts...), nil
	})
	return created
}

// LoadOrStore добавляет чанк, построенный create, если его ещё нет.
// create вызывается без блокировки и может выполнять ввод-вывод;
// если другой вызов успел добавить чанк раньше, результат create отбрасывается.
func (a *ChunkArena) LoadOrStore(coord vec.Vec3, create func() (*Chunk, error)) (bool, error) {
	a.mu.RLock()
	_, exists := a.chunks[coord]
	a.mu.RUnlock()
	if exists {
		return false, nil
	}

	c, err := create()
	if err != nil {
		return false, fmt.Errorf("chunk %v: %w", coord, err)
	}
	c.Coords = coord

	a.mu.Lock()
	defer a.mu.Unlock()
	// Проверяем еще раз под блокировкой записи
	if _, exists := a.chunks[coord]; exists {
		return false, nil
	}
	a.chunks[coord] = c
	return true, nil
}

// Insert добавляет или заменяет чанк
func (a *ChunkArena) Insert(c *Chunk) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.chunks[c.Coords] = c
}

// Remove выгружает чанк и возвращает его
func (a *ChunkArena) Remove(coord vec.Vec3) (*Chunk, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	c, ok := a.chunks[coord]
	if ok {
		delete(a.chunks, coord)
	}
	return c, ok
}

// EvictClean выгружает чанк, только если он не изменён локально.
// Возвращает true, если чанк был выгружен.
func (a *ChunkArena) EvictClean(coord vec.Vec3) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	c, ok := a.chunks[coord]
	if !ok || c.IsDirty() {
		return false
	}
	delete(a.chunks, coord)
	return true
}

// Keys возвращает координаты загруженных чанков в порядке Vec3.Less
func (a *ChunkArena) Keys() []vec.Vec3 {
	a.mu.RLock()
	keys := make([]vec.Vec3, 0, len(a.chunks))
	for k := range a.chunks {
		keys = append(keys, k)
	}
	a.mu.RUnlock()

	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })
	return keys
}

// DirtyKeys возвращает отсортированные координаты изменённых чанков
func (a *ChunkArena) DirtyKeys() []vec.Vec3 {
	a.mu.RLock()
	var keys []vec.Vec3
	for k, c := range a.chunks {
		if c.IsDirty() {
			keys = append(keys, k)
		}
	}
	a.mu.RUnlock()

	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })
	return keys
}

// View вызывает fn под блокировкой чтения. fn не должна менять чанк
// и сохранять указатель. Возвращает false, если чанка нет.
func (a *ChunkArena) View(coord vec.Vec3, fn func(c *Chunk)) bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	c, ok := a.chunks[coord]
	if !ok {
		return false
	}
	fn(c)
	return true
}

// Update вызывает fn под блокировкой записи
func (a *ChunkArena) Update(coord vec.Vec3, fn func(c *Chunk) error) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	c, ok := a.chunks[coord]
	if !ok {
		return fmt.Errorf("%w: %v", ErrChunkNotLoaded, coord)
	}
	return fn(c)
}

// Neighbors возвращает копии шести соседей по граням в порядке vec.Face6;
// отсутствующие соседи – nil
func (a *ChunkArena) Neighbors(coord vec.Vec3) [6]*Chunk {
	var out [6]*Chunk
	a.mu.RLock()
	defer a.mu.RUnlock()
	for i, d := range vec.Face6 {
		if c, ok := a.chunks[coord.Add(d)]; ok {
			out[i] = c.Clone()
		}
	}
	return out
}

// SetBlock записывает блок по мировым координатам, создавая чанк при необходимости
func (a *ChunkArena) SetBlock(pos vec.Vec3, b block.Block) error {
	coord := pos.ToChunkCoords(ChunkSize)
	local := pos.LocalInChunk(ChunkSize)

	a.GetOrCreate(coord)
	return a.Update(coord, func(c *Chunk) error {
		return c.SetBlockAt(local.X, local.Y, local.Z, b)
	})
}

// GetBlock читает блок по мировым координатам. Незагруженные чанки читаются как воздух.
func (a *ChunkArena) GetBlock(pos vec.Vec3) (block.Block, error) {
	coord := pos.ToChunkCoords(ChunkSize)
	local := pos.LocalInChunk(ChunkSize)

	b := block.Air()
	var err error
	a.View(coord, func(c *Chunk) {
		b, err = c.GetBlockAt(local.X, local.Y, local.Z)
	})
	return b, err
}

// KindCounts возвращает число чанков по представлениям хранилища
func (a *ChunkArena) KindCounts() map[string]int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	counts := make(map[string]int)
	for _, c := range a.chunks {
		counts[c.Kind().String()]++
	}
	return counts
}

// CompressIdle переводит в RLE все чистые чанки; возвращает число сжатых
func (a *ChunkArena) CompressIdle() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	n := 0
	for _, c := range a.chunks {
		if !c.IsDirty() && c.Compress() {
			n++
		}
	}
	return n
}

// MemoryUsage возвращает суммарный примерный размер хранилищ
func (a *ChunkArena) MemoryUsage() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	total := 0
	for _, c := range a.chunks {
		n, _ := c.Storage().MemoryUsage()
		total += n
	}
	return total
}
