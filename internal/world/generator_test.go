package world

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/voxel-storage/internal/vec"
	"github.com/annel0/voxel-storage/internal/world/block"
	"github.com/annel0/voxel-storage/internal/world/blockstore"
)

func TestGeneratorDeterministic(t *testing.T) {
	a := NewWorldGenerator(99).GenerateChunk(vec.Vec3{X: 3, Z: -2})
	b := NewWorldGenerator(99).GenerateChunk(vec.Vec3{X: 3, Z: -2})

	assert.Equal(t, a.Storage().Cells(), b.Storage().Cells(), "один сид – одинаковый чанк")
	assert.True(t, a.IsGenerated())
	assert.False(t, a.IsDirty(), "сгенерированный чанк можно пересоздать, сохранять не нужно")
}

func TestGeneratorSkyAndBedrockChunks(t *testing.T) {
	g := NewWorldGenerator(1)

	sky := g.GenerateChunk(vec.Vec3{Y: 10})
	assert.True(t, sky.IsEmpty())
	assert.Equal(t, blockstore.KindUniform, sky.Kind())

	deep := g.GenerateChunk(vec.Vec3{Y: -10})
	assert.True(t, deep.IsFull())
	assert.NotEqual(t, blockstore.KindZigzag, deep.Kind())
}

func TestGeneratorSurfaceColumn(t *testing.T) {
	g := NewWorldGenerator(5)
	c := g.GenerateChunk(vec.Vec3{})

	for _, col := range [][2]int{{0, 0}, {7, 19}, {31, 31}} {
		x, z := col[0], col[1]
		h := g.SurfaceHeight(x, z)
		if h < 0 || h >= ChunkSize-6 {
			continue
		}
		surface, err := c.GetBlockAt(x, h, z)
		require.NoError(t, err)
		assert.False(t, surface.IsEmpty(), "колонка (%d,%d): поверхность на высоте %d", x, z, h)

		if h > 0 {
			below, err := c.GetBlockAt(x, h-1, z)
			require.NoError(t, err)
			assert.False(t, below.IsEmpty())
		}

		above, err := c.GetBlockAt(x, h+6, z)
		require.NoError(t, err)
		assert.Contains(t, []block.MaterialID{block.AirMaterialID, block.LeavesMaterialID}, above.Material)
	}
}
