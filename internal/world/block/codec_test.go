package block

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeBlockLayout(t *testing.T) {
	b := New(0x0102).Rotate(AxisPosX, 1)
	data := EncodeBlock(b)

	require.Len(t, data, EncodedSimpleLen)
	assert.Equal(t, byte(ShapeSimple), data[0])
	assert.Equal(t, byte(0x02), data[1], "Материал хранится в little-endian")
	assert.Equal(t, byte(0x01), data[2])
	assert.Equal(t, byte(b.Rotation), data[3])
}

func TestEncodeAirUsesEmptyShape(t *testing.T) {
	data := EncodeBlock(Air())
	require.Len(t, data, EncodedEmptyLen)
	assert.Equal(t, byte(ShapeEmpty), data[0])

	got, n, err := DecodeBlock(data)
	require.NoError(t, err)
	assert.Equal(t, EncodedEmptyLen, n)
	assert.Equal(t, Air(), got)
}

func TestBlockCodecRoundTrip(t *testing.T) {
	blocks := []Block{Air(), New(StoneMaterialID), New(65535), Air().Rotate(AxisPosZ, 1)}
	for _, r := range AllRotations() {
		blocks = append(blocks, New(IronOreMaterialID).WithRotation(r))
	}

	var buf []byte
	for _, b := range blocks {
		buf = AppendBlock(buf, b)
	}

	for i, want := range blocks {
		got, n, err := DecodeBlock(buf)
		require.NoError(t, err, "Запись %d", i)
		assert.Equal(t, want, got, "Запись %d", i)
		buf = buf[n:]
	}
	assert.Empty(t, buf)
}

func TestMarchingRecordRoundTrip(t *testing.T) {
	rec := Record{Shape: ShapeMarching, Block: New(DirtMaterialID), Density: 0xDEADBEEF}
	data, err := rec.MarshalBinary()
	require.NoError(t, err)
	require.Len(t, data, EncodedMarchingLen)
	assert.Equal(t, []byte{0xEF, 0xBE, 0xAD, 0xDE}, data[3:7])

	var got Record
	require.NoError(t, got.UnmarshalBinary(data))
	assert.Equal(t, rec, got)
}

func TestDecodeRejectsTruncatedInput(t *testing.T) {
	cases := map[string][]byte{
		"empty":          {},
		"empty shape":    {byte(ShapeEmpty), 0x01},
		"simple shape":   {byte(ShapeSimple), 0x02, 0x00},
		"marching shape": {byte(ShapeMarching), 0x02, 0x00, 0x01, 0x02, 0x03},
	}
	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			_, _, err := DecodeBlock(data)
			assert.True(t, errors.Is(err, ErrShortBuffer), "Ожидалась ErrShortBuffer, получено %v", err)
		})
	}
}

func TestDecodeRejectsUnknownShape(t *testing.T) {
	_, _, err := DecodeBlock([]byte{9, 0, 0, 0, 0, 0, 0, 0})
	assert.True(t, errors.Is(err, ErrUnknownShape))

	_, err = Record{Shape: 42}.MarshalBinary()
	assert.True(t, errors.Is(err, ErrUnknownShape))
}

func TestUnmarshalRejectsTrailingBytes(t *testing.T) {
	data := append(EncodeBlock(New(StoneMaterialID)), 0xFF)
	var rec Record
	assert.Error(t, rec.UnmarshalBinary(data))
}

func TestDecodeRejectsInvalidRotation(t *testing.T) {
	for _, rot := range []byte{0xFF, 0x3F, byte(AxisPosY) | byte(AxisNegY)<<3} {
		_, _, err := DecodeBlock([]byte{byte(ShapeSimple), byte(SandMaterialID), 0x00, rot})
		assert.ErrorIs(t, err, ErrInvalidRotation, "ориентация 0x%02x", rot)
	}

	// Все допустимые ориентации декодируются
	for _, r := range AllRotations() {
		_, _, err := DecodeBlock([]byte{byte(ShapeSimple), byte(SandMaterialID), 0x00, byte(r)})
		assert.NoError(t, err, "ориентация %s", r)
	}
}

func TestDecodeEmptyShapeRequiresAir(t *testing.T) {
	_, _, err := DecodeBlock([]byte{byte(ShapeEmpty), byte(StoneMaterialID), 0x00})
	assert.ErrorIs(t, err, ErrEmptyNotAir)

	got, _, err := DecodeBlock([]byte{byte(ShapeEmpty), byte(AirMaterialID), 0x00})
	require.NoError(t, err)
	assert.Equal(t, Air(), got)
}
