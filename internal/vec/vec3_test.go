package vec

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChunkCoordsFloor(t *testing.T) {
	cases := []struct {
		world, chunk, local Vec3
	}{
		{Vec3{0, 0, 0}, Vec3{0, 0, 0}, Vec3{0, 0, 0}},
		{Vec3{31, 32, 33}, Vec3{0, 1, 1}, Vec3{31, 0, 1}},
		{Vec3{-1, -32, -33}, Vec3{-1, -1, -2}, Vec3{31, 0, 31}},
	}
	for _, c := range cases {
		assert.Equal(t, c.chunk, c.world.ToChunkCoords(32), "чанк для %v", c.world)
		assert.Equal(t, c.local, c.world.LocalInChunk(32), "локальные для %v", c.world)
	}
}

func TestVec3Ops(t *testing.T) {
	a := Vec3{1, 2, 3}
	assert.Equal(t, Vec3{2, 4, 6}, a.Add(a))
	assert.Equal(t, Vec3{-1, -2, -3}, a.Mul(-1))
	assert.InDelta(t, 5.0, Vec3{}.DistanceTo(Vec3{3, 4, 0}), 1e-9)
	assert.True(t, Vec3{5, 5, 0}.Less(Vec3{0, 0, 1}))
	assert.Equal(t, "(1,2,3)", a.String())
}
