package storage

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/annel0/voxel-storage/internal/vec"
)

// ChunkRepo определяет интерфейс для сохранения сериализованных чанков.
// Значение - непрозрачные байты (см. Codec), ключ - координаты чанка.
type ChunkRepo interface {
	// Save сохраняет или перезаписывает чанк.
	Save(ctx context.Context, coord vec.Vec3, data []byte) error

	// Load загружает чанк. bool == false, если чанк ещё не сохранялся.
	Load(ctx context.Context, coord vec.Vec3) ([]byte, bool, error)

	// Delete удаляет чанк; удаление отсутствующего чанка не ошибка.
	Delete(ctx context.Context, coord vec.Vec3) error

	// Keys возвращает координаты всех сохранённых чанков.
	Keys(ctx context.Context) ([]vec.Vec3, error)

	// Close освобождает ресурсы хранилища.
	Close() error
}

// Ошибки хранилища
var (
	ErrClosed = errors.New("storage: repository closed")
	ErrBadKey = errors.New("storage: malformed chunk key")

	ErrCorruptChunk = errors.New("storage: corrupt chunk data")
)

const keyPrefix = "chunk:"

// ChunkKey возвращает ключ вида chunk:x:y:z
func ChunkKey(coord vec.Vec3) string {
	return fmt.Sprintf("%s%d:%d:%d", keyPrefix, coord.X, coord.Y, coord.Z)
}

// ParseChunkKey разбирает ключ, построенный ChunkKey
func ParseChunkKey(key string) (vec.Vec3, error) {
	rest, ok := strings.CutPrefix(key, keyPrefix)
	if !ok {
		return vec.Vec3{}, fmt.Errorf("%w: %q", ErrBadKey, key)
	}
	parts := strings.Split(rest, ":")
	if len(parts) != 3 {
		return vec.Vec3{}, fmt.Errorf("%w: %q", ErrBadKey, key)
	}

	var xyz [3]int
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return vec.Vec3{}, fmt.Errorf("%w: %q: %v", ErrBadKey, key, err)
		}
		xyz[i] = n
	}
	return vec.Vec3{X: xyz[0], Y: xyz[1], Z: xyz[2]}, nil
}

func checkCtx(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}
