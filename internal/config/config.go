package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config корневая структура конфигурации приложения
type Config struct {
	Chunk     ChunkConfig     `yaml:"chunk"`
	Storage   StorageConfig   `yaml:"storage"`
	Cache     CacheConfig     `yaml:"cache"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Logging   LoggingConfig   `yaml:"logging"`
	Generator GeneratorConfig `yaml:"generator"`
	Tracing   TracingConfig   `yaml:"tracing"`
	Events    EventsConfig    `yaml:"events"`
}

type ChunkConfig struct {
	// Каждая N-я запись в чанк вызывает Optimize
	OptimizeEvery int `yaml:"optimize_every"`
}

type StorageConfig struct {
	Backend          string `yaml:"backend"` // memory | badger
	DataDir          string `yaml:"data_dir"`
	CompressionLevel int    `yaml:"compression_level"` // 1..4, см. zstd.EncoderLevel
}

type CacheConfig struct {
	Enabled bool          `yaml:"enabled"`
	URL     string        `yaml:"url"`
	TTL     time.Duration `yaml:"ttl"`
}

type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

type LoggingConfig struct {
	Level     string `yaml:"level"`
	FileLevel string `yaml:"file_level"`
	Dir       string `yaml:"dir"`
}

type GeneratorConfig struct {
	Seed        int64   `yaml:"seed"`
	Radius      int     `yaml:"radius"`       // радиус предгенерации в чанках
	HeightScale float64 `yaml:"height_scale"` // амплитуда рельефа в блоках
	NoiseScale  float64 `yaml:"noise_scale"`  // масштаб координат шума
	SeaLevel    int     `yaml:"sea_level"`
}

type TracingConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Endpoint    string `yaml:"endpoint"` // OTLP HTTP, host:port
	ServiceName string `yaml:"service_name"`
	// SampleRatio - доля трассируемых операций, 0..1
	SampleRatio  float64       `yaml:"sample_ratio"`
	BatchTimeout time.Duration `yaml:"batch_timeout"`
}

// EventsConfig - уведомления о сохранённых чанках через NATS
type EventsConfig struct {
	Enabled bool   `yaml:"enabled"`
	NATSURL string `yaml:"nats_url"`
	Subject string `yaml:"subject"`
}

// Ошибки валидации
var (
	ErrInvalidBackend = errors.New("config: unknown storage backend")
	ErrInvalidValue   = errors.New("config: invalid value")
)

// Default возвращает полностью заполненную конфигурацию по умолчанию
func Default() *Config {
	return &Config{
		Chunk: ChunkConfig{OptimizeEvery: 100},
		Storage: StorageConfig{
			Backend:          "badger",
			DataDir:          "data/chunks",
			CompressionLevel: 2,
		},
		Cache: CacheConfig{
			Enabled: false,
			URL:     "redis://localhost:6379/0",
			TTL:     10 * time.Minute,
		},
		Metrics: MetricsConfig{Addr: ":2112"},
		Logging: LoggingConfig{Level: "INFO", FileLevel: "DEBUG"},
		Generator: GeneratorConfig{
			Seed:        42,
			Radius:      2,
			HeightScale: 24,
			NoiseScale:  0.01,
			SeaLevel:    0,
		},
		Tracing: TracingConfig{
			Endpoint:     "localhost:4318",
			ServiceName:  "voxel-storage",
			SampleRatio:  1,
			BatchTimeout: 5 * time.Second,
		},
		Events: EventsConfig{
			NATSURL: "nats://127.0.0.1:4222",
			Subject: "voxel.chunks.saved",
		},
	}
}

// Load читает YAML файл поверх значений по умолчанию.
// Если path == "", берётся ENV VOXEL_CONFIG; если и он пуст, возвращаются дефолты.
// VOXEL_DATA_DIR и VOXEL_METRICS_ADDR переопределяют значения из файла.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv("VOXEL_CONFIG")
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("чтение конфигурации %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("разбор конфигурации %s: %w", path, err)
		}
	}

	if v := os.Getenv("VOXEL_DATA_DIR"); v != "" {
		cfg.Storage.DataDir = v
	}
	if v := os.Getenv("VOXEL_METRICS_ADDR"); v != "" {
		cfg.Metrics.Addr = v
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate проверяет согласованность значений
func (c *Config) Validate() error {
	if c.Chunk.OptimizeEvery < 1 {
		return fmt.Errorf("%w: chunk.optimize_every = %d", ErrInvalidValue, c.Chunk.OptimizeEvery)
	}
	switch c.Storage.Backend {
	case "memory":
	case "badger":
		if c.Storage.DataDir == "" {
			return fmt.Errorf("%w: storage.data_dir is empty", ErrInvalidValue)
		}
	default:
		return fmt.Errorf("%w: %q", ErrInvalidBackend, c.Storage.Backend)
	}
	if c.Storage.CompressionLevel < 1 || c.Storage.CompressionLevel > 4 {
		return fmt.Errorf("%w: storage.compression_level = %d", ErrInvalidValue, c.Storage.CompressionLevel)
	}
	if c.Cache.Enabled && c.Cache.URL == "" {
		return fmt.Errorf("%w: cache.url is empty", ErrInvalidValue)
	}
	if c.Events.Enabled && (c.Events.NATSURL == "" || c.Events.Subject == "") {
		return fmt.Errorf("%w: events.nats_url and events.subject are required", ErrInvalidValue)
	}
	if c.Tracing.SampleRatio < 0 || c.Tracing.SampleRatio > 1 {
		return fmt.Errorf("%w: tracing.sample_ratio = %g", ErrInvalidValue, c.Tracing.SampleRatio)
	}
	if c.Tracing.BatchTimeout < 0 {
		return fmt.Errorf("%w: tracing.batch_timeout = %s", ErrInvalidValue, c.Tracing.BatchTimeout)
	}
	if c.Generator.Radius < 0 {
		return fmt.Errorf("%w: generator.radius = %d", ErrInvalidValue, c.Generator.Radius)
	}
	return nil
}
