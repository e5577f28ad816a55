package world

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/voxel-storage/internal/metrics"
	"github.com/annel0/voxel-storage/internal/vec"
	"github.com/annel0/voxel-storage/internal/world/block"
	"github.com/annel0/voxel-storage/internal/world/blockstore"
)

var (
	stone = block.New(block.StoneMaterialID)
	dirt  = block.New(block.DirtMaterialID)
)

func TestChunkCreateAndGetBlock(t *testing.T) {
	c := NewChunk(vec.Vec3{X: 5, Y: -1, Z: 10})
	assert.Equal(t, vec.Vec3{X: 5, Y: -1, Z: 10}, c.Coords)
	assert.True(t, c.IsEmpty())
	assert.False(t, c.IsFull())
	assert.False(t, c.IsDirty(), "новый чанк не требует сохранения")

	b, err := c.GetBlockAt(3, 4, 5)
	require.NoError(t, err)
	assert.Equal(t, block.Air(), b)

	require.NoError(t, c.SetBlockAt(3, 4, 5, stone))
	b, err = c.GetBlockAt(3, 4, 5)
	require.NoError(t, err)
	assert.Equal(t, stone, b)
	assert.True(t, c.IsDirty())
	assert.False(t, c.IsEmpty())
	assert.Equal(t, 1, c.Edits())

	assert.ErrorIs(t, c.SetBlockAt(32, 0, 0, stone), blockstore.ErrIndexOutOfBounds)
	assert.Equal(t, 1, c.Edits(), "ошибочная запись не учитывается")
}

func TestChunkFullAndEmpty(t *testing.T) {
	c := NewFilledChunk(vec.Vec3{}, stone)
	assert.True(t, c.IsFull())
	assert.False(t, c.IsEmpty())

	require.NoError(t, c.SetBlock(0, block.Air()))
	assert.False(t, c.IsFull())
	assert.False(t, c.IsEmpty())

	require.NoError(t, c.SetBlock(0, dirt))
	assert.True(t, c.IsFull(), "Compact без воздуха тоже полный")
}

func TestChunkOptimizesEveryNthEdit(t *testing.T) {
	c := NewChunk(vec.Vec3{}, WithOptimizeEvery(10))

	// 9 новых материалов, Optimize ещё не вызывался
	for n := 0; n < 9; n++ {
		require.NoError(t, c.SetBlock(n, block.New(block.MaterialID(1000+n))))
	}
	for n := 0; n < 9; n++ {
		require.NoError(t, c.SetBlock(n, block.Air()))
	}
	// 18 записей: Optimize был вызван на 10-й, но материалы ещё использовались
	assert.Equal(t, blockstore.KindCompact, c.Kind())

	require.NoError(t, c.SetBlock(100, block.Air()))
	require.NoError(t, c.SetBlock(101, block.Air()))
	// 20-я запись вызывает Optimize: в чанке остался только воздух
	assert.Equal(t, blockstore.KindUniform, c.Kind())
	assert.Equal(t, 20, c.Edits())
}

func TestChunkEditCountersAreIndependent(t *testing.T) {
	a := NewChunk(vec.Vec3{}, WithOptimizeEvery(2))
	b := NewChunk(vec.Vec3{X: 1}, WithOptimizeEvery(2))

	require.NoError(t, a.SetBlock(0, stone))
	require.NoError(t, b.SetBlock(0, stone))
	require.NoError(t, b.SetBlock(0, block.Air()))
	// У b вторая запись вызвала Optimize, у a была только одна запись
	assert.Equal(t, blockstore.KindUniform, b.Kind())
	assert.Equal(t, blockstore.KindCompact, a.Kind())

	require.NoError(t, a.SetBlock(0, block.Air()))
	assert.Equal(t, blockstore.KindUniform, a.Kind())
}

func TestChunkCompress(t *testing.T) {
	m := metrics.New()
	c := NewChunk(vec.Vec3{}, WithMetrics(m))
	for i := 0; i < 500; i++ {
		require.NoError(t, c.SetBlock(i, dirt))
	}
	c.ClearDirty()

	assert.True(t, c.Compress())
	assert.Equal(t, blockstore.KindRLE, c.Kind())
	assert.False(t, c.IsDirty(), "сжатие не меняет содержимое")
	assert.False(t, c.Compress(), "уже сжат")

	b, err := c.GetBlock(499)
	require.NoError(t, err)
	assert.Equal(t, dirt, b)

	// Запись в холодный чанк возвращает живое представление
	require.NoError(t, c.SetBlock(600, stone))
	assert.Equal(t, blockstore.KindCompact, c.Kind())

	series, err := testutil.GatherAndCount(m.Registry(), "voxel_rle_attempts_total")
	require.NoError(t, err)
	assert.Equal(t, 1, series, "учтена только одна попытка")
}

func TestChunkReplaceStorageAndClone(t *testing.T) {
	c := NewChunk(vec.Vec3{})
	c.ReplaceStorage(blockstore.NewUniform(stone))
	assert.True(t, c.IsDirty())
	assert.True(t, c.IsFull())

	c.MarkGenerated()
	c.Mesh = "mesh"
	cp := c.Clone()
	require.NoError(t, cp.SetBlock(0, dirt))

	b, err := c.GetBlock(0)
	require.NoError(t, err)
	assert.Equal(t, stone, b, "копия независима")
	assert.True(t, cp.IsGenerated())
	assert.Nil(t, cp.Mesh)

	c.ReplaceStorage(nil)
	assert.True(t, c.IsEmpty())
}
