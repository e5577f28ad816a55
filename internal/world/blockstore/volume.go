// Package blockstore хранит содержимое чанка 32x32x32 в самом дешёвом
// представлении, которое вмещает текущее разнообразие блоков, и
// прозрачно переключается между представлениями при изменениях.
//
// Линейный индекс ячейки: idx = x | y<<5 | z<<10 (x меняется быстрее всего,
// затем y, затем z). Все представления используют один и тот же порядок.
//
// Хранилище не потокобезопасно: доступ к одному экземпляру должен
// сериализовать вызывающий код (см. world.ChunkArena).
package blockstore

import (
	"errors"
	"fmt"
)

const (
	// Size - длина ребра чанка
	Size = 32
	// Volume - число ячеек в чанке
	Volume = Size * Size * Size

	shiftY = 5  // 32 = 2^5
	shiftZ = 10 // 32*32 = 2^10
	mask5  = Size - 1
)

// Ошибки хранилища
var (
	ErrIndexOutOfBounds = errors.New("blockstore: index out of bounds")
	ErrVolumeMismatch   = errors.New("blockstore: run lengths do not cover volume")
	ErrPaletteIndex     = errors.New("blockstore: palette index out of range")
	ErrNotRLE           = errors.New("blockstore: storage is not run-length encoded")
)

// Index возвращает линейный индекс для локальных координат (0..31)
func Index(x, y, z int) int {
	return x | y<<shiftY | z<<shiftZ
}

// Coords раскладывает линейный индекс на локальные координаты
func Coords(i int) (x, y, z int) {
	return i & mask5, (i >> shiftY) & mask5, (i >> shiftZ) & mask5
}

// InBounds проверяет локальные координаты
func InBounds(x, y, z int) bool {
	return x >= 0 && x < Size && y >= 0 && y < Size && z >= 0 && z < Size
}

func checkIndex(i int) error {
	if i < 0 || i >= Volume {
		return fmt.Errorf("%w: %d not in [0, %d)", ErrIndexOutOfBounds, i, Volume)
	}
	return nil
}

func wrapf(err error, format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", err, fmt.Sprintf(format, args...))
}
