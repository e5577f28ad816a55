package storage

import (
	"context"
	"os"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/voxel-storage/internal/vec"
)

// testRepoContract проверяет общее поведение любой реализации ChunkRepo
func testRepoContract(t *testing.T, repo ChunkRepo) {
	ctx := context.Background()
	a, b := vec.Vec3{X: 1, Y: -2, Z: 3}, vec.Vec3{X: -7}

	t.Run("Load Missing", func(t *testing.T) {
		data, found, err := repo.Load(ctx, a)
		require.NoError(t, err)
		assert.False(t, found)
		assert.Nil(t, data)
	})

	t.Run("Save and Load", func(t *testing.T) {
		require.NoError(t, repo.Save(ctx, a, []byte("первый")))
		require.NoError(t, repo.Save(ctx, b, []byte{0, 1, 2}))

		data, found, err := repo.Load(ctx, a)
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, []byte("первый"), data)
	})

	t.Run("Overwrite", func(t *testing.T) {
		require.NoError(t, repo.Save(ctx, a, []byte("второй")))
		data, _, err := repo.Load(ctx, a)
		require.NoError(t, err)
		assert.Equal(t, []byte("второй"), data)
	})

	t.Run("Keys", func(t *testing.T) {
		keys, err := repo.Keys(ctx)
		require.NoError(t, err)
		sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })
		assert.Equal(t, []vec.Vec3{b, a}, keys)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, repo.Delete(ctx, a))
		require.NoError(t, repo.Delete(ctx, a), "повторное удаление не ошибка")
		_, found, err := repo.Load(ctx, a)
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("Cancelled Context", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		assert.ErrorIs(t, repo.Save(cctx, a, []byte("x")), context.Canceled)
	})
}

func TestChunkKey(t *testing.T) {
	coord := vec.Vec3{X: -1, Y: 20, Z: 300}
	key := ChunkKey(coord)
	assert.Equal(t, "chunk:-1:20:300", key)

	back, err := ParseChunkKey(key)
	require.NoError(t, err)
	assert.Equal(t, coord, back)

	for _, bad := range []string{"", "chunk:1:2", "pos:1:2:3", "chunk:1:x:3"} {
		_, err := ParseChunkKey(bad)
		assert.ErrorIs(t, err, ErrBadKey, bad)
	}
}

func TestMemoryChunkRepo(t *testing.T) {
	repo := NewMemoryChunkRepo()
	testRepoContract(t, repo)

	require.NoError(t, repo.Close())
	_, _, err := repo.Load(context.Background(), vec.Vec3{})
	assert.ErrorIs(t, err, ErrClosed)
}

func TestMemoryChunkRepoCopiesValues(t *testing.T) {
	repo := NewMemoryChunkRepo()
	ctx := context.Background()
	data := []byte{1, 2, 3}
	require.NoError(t, repo.Save(ctx, vec.Vec3{}, data))
	data[0] = 9

	got, _, err := repo.Load(ctx, vec.Vec3{})
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, got)
}

func TestBadgerChunkRepo(t *testing.T) {
	dir := t.TempDir()
	repo, err := NewBadgerChunkRepo(dir)
	require.NoError(t, err)
	testRepoContract(t, repo)
	require.NoError(t, repo.Close())
	require.NoError(t, repo.Close(), "повторное закрытие безопасно")

	// Данные переживают переоткрытие
	repo, err = NewBadgerChunkRepo(dir)
	require.NoError(t, err)
	defer repo.Close()

	data, found, err := repo.Load(context.Background(), vec.Vec3{X: -7})
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, []byte{0, 1, 2}, data)
}

func redisURL() string {
	if url := os.Getenv("VOXEL_TEST_REDIS"); url != "" {
		return url
	}
	return "redis://localhost:6379/15"
}

func TestCachedChunkRepo(t *testing.T) {
	ctx := context.Background()
	client, err := NewRedisClient(ctx, redisURL())
	if err != nil {
		t.Skipf("Redis недоступен: %v", err)
	}

	backing := NewMemoryChunkRepo()
	repo := NewCachedChunkRepo(client, backing, time.Minute)
	repo.keyPrefix = "voxel-test-" + t.Name() + ":"
	defer repo.Close()

	testRepoContract(t, repo)

	coord := vec.Vec3{Y: 5}
	require.NoError(t, backing.Save(ctx, coord, []byte("холодный")))

	before := repo.Stats()
	data, found, err := repo.Load(ctx, coord)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, []byte("холодный"), data)
	assert.Equal(t, before.Misses+1, repo.Stats().Misses, "первое чтение – промах")

	data, _, err = repo.Load(ctx, coord)
	require.NoError(t, err)
	assert.Equal(t, []byte("холодный"), data)
	assert.Equal(t, before.Hits+1, repo.Stats().Hits, "второе чтение из кеша")

	require.NoError(t, repo.Delete(ctx, coord))
}
