package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "voxel.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 100, cfg.Chunk.OptimizeEvery)
	assert.Equal(t, "badger", cfg.Storage.Backend)
}

func TestLoadMergesOverDefaults(t *testing.T) {
	t.Setenv("VOXEL_DATA_DIR", "")
	t.Setenv("VOXEL_METRICS_ADDR", "")
	path := writeConfig(t, `
chunk:
  optimize_every: 10
storage:
  backend: memory
cache:
  enabled: true
  ttl: 30s
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 10, cfg.Chunk.OptimizeEvery)
	assert.Equal(t, "memory", cfg.Storage.Backend)
	assert.Equal(t, 30*time.Second, cfg.Cache.TTL)
	assert.Equal(t, "redis://localhost:6379/0", cfg.Cache.URL, "не указанное в файле берётся из дефолтов")
	assert.Equal(t, 2, cfg.Storage.CompressionLevel)
	assert.False(t, cfg.Tracing.Enabled)
	assert.Equal(t, 1.0, cfg.Tracing.SampleRatio)
	assert.Equal(t, 5*time.Second, cfg.Tracing.BatchTimeout)
	assert.Equal(t, "voxel.chunks.saved", cfg.Events.Subject)
}

func TestLoadEnvOverrides(t *testing.T) {
	path := writeConfig(t, "storage:\n  data_dir: /from/file\n")
	t.Setenv("VOXEL_CONFIG", path)
	t.Setenv("VOXEL_DATA_DIR", "/from/env")
	t.Setenv("VOXEL_METRICS_ADDR", ":9000")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "/from/env", cfg.Storage.DataDir)
	assert.Equal(t, ":9000", cfg.Metrics.Addr)
}

func TestLoadWithoutFileReturnsDefaults(t *testing.T) {
	t.Setenv("VOXEL_CONFIG", "")
	t.Setenv("VOXEL_DATA_DIR", "")
	t.Setenv("VOXEL_METRICS_ADDR", "")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadRejectsInvalid(t *testing.T) {
	t.Setenv("VOXEL_DATA_DIR", "")
	_, err := Load(writeConfig(t, "storage:\n  backend: floppy\n"))
	assert.ErrorIs(t, err, ErrInvalidBackend)

	_, err = Load(writeConfig(t, "chunk:\n  optimize_every: 0\n"))
	assert.ErrorIs(t, err, ErrInvalidValue)

	_, err = Load(writeConfig(t, "events:\n  enabled: true\n  subject: \"\"\n"))
	assert.ErrorIs(t, err, ErrInvalidValue, "включённые события без subject")

	_, err = Load(writeConfig(t, "tracing:\n  sample_ratio: 1.5\n"))
	assert.ErrorIs(t, err, ErrInvalidValue, "доля сэмплирования больше 1")

	_, err = Load(writeConfig(t, "chunk: [\n"))
	assert.Error(t, err)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
