package blockstore

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/voxel-storage/internal/world/block"
)

func roundTrip(t *testing.T, s *Storage) *Storage {
	t.Helper()
	data, err := Encode(s)
	require.NoError(t, err)
	out, err := Decode(data)
	require.NoError(t, err)
	assertCells(t, out, s.Cells())
	return out
}

func TestCodecUniform(t *testing.T) {
	out := roundTrip(t, NewUniform(stone))
	assert.Equal(t, KindUniform, out.Kind())

	data, err := Encode(Empty())
	require.NoError(t, err)
	assert.Equal(t, []byte{codecVersion, byte(KindUniform), byte(block.ShapeEmpty), 0x01, 0x00}, data)
}

func TestCodecPrefersRLE(t *testing.T) {
	s := Empty()
	for i := 0; i < 1000; i++ {
		mustSet(t, s, i, dirt)
	}
	out := roundTrip(t, s)
	assert.Equal(t, KindRLE, out.Kind(), "сжимаемое содержимое пишется сериями")
}

func TestCodecPalettedAndZigzag(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	cases := []struct {
		distinct int
		kind     Kind
	}{
		{3, KindCompact},
		{100, KindSparse},
		{1000, KindGiant},
		{6000, KindZigzag},
	}
	for _, tc := range cases {
		s := Empty()
		for i := 0; i < Volume; i++ {
			mustSet(t, s, i, mat(rng.Intn(tc.distinct)))
		}
		s.Optimize()
		require.Equal(t, tc.kind, s.Kind())

		out := roundTrip(t, s)
		assert.Equal(t, tc.kind, out.Kind(), "шумное содержимое остаётся в живом представлении")
	}
}

func TestDecodeRejectsCorruptInput(t *testing.T) {
	s := Empty()
	for i := 0; i < Volume; i += 3 {
		mustSet(t, s, i, sand)
	}
	data, err := Encode(s)
	require.NoError(t, err)

	for _, n := range []int{0, 1, 2, 5, len(data) / 2, len(data) - 1} {
		_, err := Decode(data[:n])
		assert.ErrorIs(t, err, ErrCorrupt, "обрезано до %d байт", n)
	}

	_, err = Decode(append(append([]byte(nil), data...), 0))
	assert.ErrorIs(t, err, ErrCorrupt, "лишний байт в конце")

	bad := append([]byte(nil), data...)
	bad[0] = 99
	_, err = Decode(bad)
	assert.ErrorIs(t, err, ErrCodecVersion)

	bad[0], bad[1] = codecVersion, 42
	_, err = Decode(bad)
	assert.ErrorIs(t, err, ErrCorrupt)

	// Compact с палитрой из двух блоков, но все индексы равны 15
	compact := []byte{codecVersion, byte(KindCompact), 2}
	compact = block.AppendBlock(compact, stone)
	compact = block.AppendBlock(compact, dirt)
	for i := 0; i < Volume/2; i++ {
		compact = append(compact, 0xFF)
	}
	_, err = Decode(compact)
	assert.ErrorIs(t, err, ErrCorrupt, "индекс за пределами палитры")

	// Тот же заголовок с корректными индексами принимается
	for i := len(compact) - Volume/2; i < len(compact); i++ {
		compact[i] = 0x10
	}
	out, err := Decode(compact)
	require.NoError(t, err)
	assert.Equal(t, KindCompact, out.Kind())
	assert.Equal(t, stone, mustGet(t, out, 0))
	assert.Equal(t, dirt, mustGet(t, out, 1))
}

func TestDecodeRejectsShortRuns(t *testing.T) {
	data, err := Encode(NewRLE([]block.Block{stone}, []Run{{Index: 0, LengthMinusOne: 255}}))
	require.NoError(t, err)

	_, err = Decode(data)
	assert.ErrorIs(t, err, ErrVolumeMismatch)
}
