package block

import (
	"errors"
	"fmt"
)

// Axis - одно из шести направлений вдоль координатных осей
type Axis uint8

const (
	AxisPosX Axis = iota // +X
	AxisNegX             // -X
	AxisPosY             // +Y
	AxisNegY             // -Y
	AxisPosZ             // +Z
	AxisNegZ             // -Z

	axisCount = 6
)

var axisNames = [axisCount]string{"+X", "-X", "+Y", "-Y", "+Z", "-Z"}

var axisVectors = [axisCount][3]int{
	{1, 0, 0}, {-1, 0, 0},
	{0, 1, 0}, {0, -1, 0},
	{0, 0, 1}, {0, 0, -1},
}

// Ошибки построения ориентации
var (
	ErrInvalidAxis  = errors.New("block: invalid axis")
	ErrParallelAxes = errors.New("block: rotation axes are parallel")
)

// Valid проверяет, что ось лежит в диапазоне ±X/±Y/±Z
func (a Axis) Valid() bool {
	return a < axisCount
}

// String возвращает имя оси
func (a Axis) String() string {
	if !a.Valid() {
		return fmt.Sprintf("Axis(%d)", uint8(a))
	}
	return axisNames[a]
}

// Opposite возвращает противоположное направление
func (a Axis) Opposite() Axis {
	return a ^ 1
}

// parallel - оси совпадают или противоположны
func (a Axis) parallel(b Axis) bool {
	return a>>1 == b>>1
}

func axisFromVector(v [3]int) Axis {
	for i, av := range axisVectors {
		if av == v {
			return Axis(i)
		}
	}
	// Поворот единичного вектора вокруг координатной оси всегда
	// даёт координатную ось, сюда попасть нельзя.
	return AxisPosY
}

// rotateAxis поворачивает направление a вокруг оси r на 90° (правило правой руки):
// v' = r × v + r(r·v)
func rotateAxis(a, r Axis) Axis {
	v := axisVectors[a]
	k := axisVectors[r]
	dot := k[0]*v[0] + k[1]*v[1] + k[2]*v[2]
	out := [3]int{
		k[1]*v[2] - k[2]*v[1] + k[0]*dot,
		k[2]*v[0] - k[0]*v[2] + k[1]*dot,
		k[0]*v[1] - k[1]*v[0] + k[2]*dot,
	}
	return axisFromVector(out)
}

// Rotation упаковывает две непараллельные оси: primary в битах 0-2, secondary в битах 3-5.
type Rotation uint8

const (
	rotationAxisBits = 3
	rotationAxisMask = 1<<rotationAxisBits - 1
)

// DefaultRotation - primary +Y, secondary +Z
var DefaultRotation = mustRotation(AxisPosY, AxisPosZ)

// NewRotation собирает ориентацию из двух осей
func NewRotation(primary, secondary Axis) (Rotation, error) {
	if !primary.Valid() || !secondary.Valid() {
		return 0, fmt.Errorf("%w: primary=%d secondary=%d", ErrInvalidAxis, primary, secondary)
	}
	if primary.parallel(secondary) {
		return 0, fmt.Errorf("%w: %s/%s", ErrParallelAxes, primary, secondary)
	}
	return Rotation(primary) | Rotation(secondary)<<rotationAxisBits, nil
}

func mustRotation(primary, secondary Axis) Rotation {
	r, err := NewRotation(primary, secondary)
	if err != nil {
		panic(err)
	}
	return r
}

// AllRotations возвращает все 24 допустимые ориентации
func AllRotations() []Rotation {
	out := make([]Rotation, 0, 24)
	for p := Axis(0); p < axisCount; p++ {
		for s := Axis(0); s < axisCount; s++ {
			if r, err := NewRotation(p, s); err == nil {
				out = append(out, r)
			}
		}
	}
	return out
}

// Primary возвращает основную ось
func (r Rotation) Primary() Axis {
	return Axis(r & rotationAxisMask)
}

// Secondary возвращает вторичную ось
func (r Rotation) Secondary() Axis {
	return Axis(r>>rotationAxisBits&rotationAxisMask)
}

// Valid проверяет, что обе оси корректны и не параллельны
func (r Rotation) Valid() bool {
	if r>>(2*rotationAxisBits) != 0 {
		return false
	}
	p, s := r.Primary(), r.Secondary()
	return p.Valid() && s.Valid() && !p.parallel(s)
}

// Rotate поворачивает обе оси на steps четвертей вокруг axis.
// Некорректная ориентация или ось возвращаются без изменений.
func (r Rotation) Rotate(axis Axis, steps int) Rotation {
	if !r.Valid() || !axis.Valid() {
		return r
	}
	steps %= 4
	if steps < 0 {
		steps += 4
	}
	p, s := r.Primary(), r.Secondary()
	for i := 0; i < steps; i++ {
		p = rotateAxis(p, axis)
		s = rotateAxis(s, axis)
	}
	return Rotation(p) | Rotation(s)<<rotationAxisBits
}

func (r Rotation) String() string {
	return fmt.Sprintf("[%s,%s]", r.Primary(), r.Secondary())
}
