package storage

import (
	"context"
	"sync"

	"github.com/annel0/voxel-storage/internal/vec"
)

// MemoryChunkRepo реализует ChunkRepo в памяти.
// Используется для тестов и локальной разработки без диска.
// ВНИМАНИЕ: Данные теряются при перезапуске сервера!
type MemoryChunkRepo struct {
	mu     sync.RWMutex
	data   map[vec.Vec3][]byte
	closed bool
}

// NewMemoryChunkRepo создает новый репозиторий чанков в памяти
func NewMemoryChunkRepo() *MemoryChunkRepo {
	return &MemoryChunkRepo{
		data: make(map[vec.Vec3][]byte),
	}
}

func (r *MemoryChunkRepo) Save(ctx context.Context, coord vec.Vec3, data []byte) error {
	if err := checkCtx(ctx); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrClosed
	}
	r.data[coord] = append([]byte(nil), data...)
	return nil
}

func (r *MemoryChunkRepo) Load(ctx context.Context, coord vec.Vec3) ([]byte, bool, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, false, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return nil, false, ErrClosed
	}
	data, ok := r.data[coord]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), data...), true, nil
}

func (r *MemoryChunkRepo) Delete(ctx context.Context, coord vec.Vec3) error {
	if err := checkCtx(ctx); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrClosed
	}
	delete(r.data, coord)
	return nil
}

func (r *MemoryChunkRepo) Keys(ctx context.Context) ([]vec.Vec3, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return nil, ErrClosed
	}
	keys := make([]vec.Vec3, 0, len(r.data))
	for k := range r.data {
		keys = append(keys, k)
	}
	return keys, nil
}

func (r *MemoryChunkRepo) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}
