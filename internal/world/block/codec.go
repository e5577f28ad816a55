package block

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// Shape - дискриминант бинарной записи блока (байт 0)
type Shape uint8

const (
	ShapeEmpty    Shape = 0 // Воздух с ориентацией по умолчанию; материал обязан быть воздухом
	ShapeSimple   Shape = 1 // Материал + байт ориентации
	ShapeMarching Shape = 2 // Материал + 4 байта плотности (LE)
)

// Минимальные длины записи для каждого дискриминанта
const (
	headerLen          = 3 // shape + material(u16 LE)
	EncodedEmptyLen    = headerLen
	EncodedSimpleLen   = headerLen + 1
	EncodedMarchingLen = headerLen + 4
)

// Ошибки декодирования
var (
	ErrShortBuffer     = errors.New("block: buffer too short")
	ErrUnknownShape    = errors.New("block: unknown shape discriminant")
	ErrInvalidRotation = errors.New("block: invalid rotation")
	ErrEmptyNotAir     = errors.New("block: empty shape with non-air material")
)

// Record - бинарная запись блока вместе с дискриминантом формы.
// Density используется только для ShapeMarching.
type Record struct {
	Shape   Shape
	Block   Block
	Density uint32
}

// RecordFor возвращает каноническую запись для блока
func RecordFor(b Block) Record {
	if b.IsEmpty() && b.Rotation == DefaultRotation {
		return Record{Shape: ShapeEmpty, Block: b}
	}
	return Record{Shape: ShapeSimple, Block: b}
}

// Len возвращает длину закодированной записи
func (r Record) Len() int {
	switch r.Shape {
	case ShapeEmpty:
		return EncodedEmptyLen
	case ShapeSimple:
		return EncodedSimpleLen
	case ShapeMarching:
		return EncodedMarchingLen
	default:
		return 0
	}
}

// AppendBinary дописывает запись в dst
func (r Record) AppendBinary(dst []byte) ([]byte, error) {
	switch r.Shape {
	case ShapeEmpty, ShapeSimple, ShapeMarching:
	default:
		return dst, fmt.Errorf("%w: %d", ErrUnknownShape, r.Shape)
	}

	dst = append(dst, byte(r.Shape))
	dst = binary.LittleEndian.AppendUint16(dst, uint16(r.Block.Material))
	switch r.Shape {
	case ShapeSimple:
		dst = append(dst, byte(r.Block.Rotation))
	case ShapeMarching:
		dst = binary.LittleEndian.AppendUint32(dst, r.Density)
	}
	return dst, nil
}

// MarshalBinary реализует encoding.BinaryMarshaler
func (r Record) MarshalBinary() ([]byte, error) {
	return r.AppendBinary(make([]byte, 0, EncodedMarchingLen))
}

// UnmarshalBinary реализует encoding.BinaryUnmarshaler.
// Лишние байты после записи считаются ошибкой.
func (r *Record) UnmarshalBinary(data []byte) error {
	rec, n, err := DecodeRecord(data)
	if err != nil {
		return err
	}
	if n != len(data) {
		return fmt.Errorf("block: %d trailing bytes after record", len(data)-n)
	}
	*r = rec
	return nil
}

// DecodeRecord читает одну запись из начала data и возвращает число прочитанных байт.
// Длина буфера проверяется до индексации.
func DecodeRecord(data []byte) (Record, int, error) {
	if len(data) < 1 {
		return Record{}, 0, fmt.Errorf("%w: empty input", ErrShortBuffer)
	}

	rec := Record{Shape: Shape(data[0])}
	need := rec.Len()
	if need == 0 {
		return Record{}, 0, fmt.Errorf("%w: %d", ErrUnknownShape, data[0])
	}
	if len(data) < need {
		return Record{}, 0, fmt.Errorf("%w: shape %d needs %d bytes, got %d", ErrShortBuffer, rec.Shape, need, len(data))
	}

	rec.Block = New(MaterialID(binary.LittleEndian.Uint16(data[1:3])))
	switch rec.Shape {
	case ShapeEmpty:
		if !rec.Block.IsEmpty() {
			return Record{}, 0, fmt.Errorf("%w: material %d", ErrEmptyNotAir, rec.Block.Material)
		}
	case ShapeSimple:
		rec.Block.Rotation = Rotation(data[3])
		if !rec.Block.Rotation.Valid() {
			return Record{}, 0, fmt.Errorf("%w: 0x%02x", ErrInvalidRotation, data[3])
		}
	case ShapeMarching:
		rec.Density = binary.LittleEndian.Uint32(data[3:7])
	}
	return rec, need, nil
}

// AppendBlock дописывает каноническую запись блока в dst
func AppendBlock(dst []byte, b Block) []byte {
	// Каноническая запись всегда имеет известную форму, ошибки быть не может
	out, _ := RecordFor(b).AppendBinary(dst)
	return out
}

// EncodeBlock кодирует блок в новый буфер
func EncodeBlock(b Block) []byte {
	return AppendBlock(nil, b)
}

// DecodeBlock читает блок из начала data
func DecodeBlock(data []byte) (Block, int, error) {
	rec, n, err := DecodeRecord(data)
	if err != nil {
		return Block{}, 0, err
	}
	return rec.Block, n, nil
}
