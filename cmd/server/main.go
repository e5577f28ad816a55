package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"github.com/annel0/voxel-storage/internal/config"
	"github.com/annel0/voxel-storage/internal/logging"
	"github.com/annel0/voxel-storage/internal/metrics"
	"github.com/annel0/voxel-storage/internal/observability"
	"github.com/annel0/voxel-storage/internal/storage"
	"github.com/annel0/voxel-storage/internal/vec"
	"github.com/annel0/voxel-storage/internal/world"
)

const (
	saveInterval     = 30 * time.Second
	compressInterval = 2 * time.Minute
)

func main() {
	configPath := flag.String("config", "", "путь к YAML конфигурации (по умолчанию $VOXEL_CONFIG)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("❌ Ошибка загрузки конфигурации: %v", err)
	}

	consoleLevel, err := logging.ParseLevel(cfg.Logging.Level)
	if err != nil {
		log.Fatalf("❌ %v", err)
	}
	fileLevel, err := logging.ParseLevel(cfg.Logging.FileLevel)
	if err != nil {
		log.Fatalf("❌ %v", err)
	}
	logging.Configure(logging.Options{Dir: cfg.Logging.Dir, ConsoleLevel: consoleLevel, FileLevel: fileLevel})

	if err := logging.InitDefaultLogger("server"); err != nil {
		log.Fatalf("❌ Ошибка инициализации логирования: %v", err)
	}
	defer logging.CloseDefaultLogger()
	defer logging.GetLoggerManager().CloseAll()

	logging.Info("🧱 Запуск сервера хранилища чанков (backend=%s)", cfg.Storage.Backend)
	if err := run(cfg); err != nil {
		logging.Error("❌ %v", err)
		os.Exit(1)
	}
}

// run поднимает хранилище и арену и работает до SIGINT/SIGTERM
func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	nodeID := uuid.NewString()

	if cfg.Tracing.Enabled {
		tracing, err := observability.StartTracing(ctx, observability.TracingOptions{
			ServiceName:  cfg.Tracing.ServiceName,
			Endpoint:     cfg.Tracing.Endpoint,
			NodeID:       nodeID,
			SampleRatio:  cfg.Tracing.SampleRatio,
			BatchTimeout: cfg.Tracing.BatchTimeout,
		})
		if err != nil {
			logging.Warn("⚠️ OpenTelemetry не инициализирован: %v", err)
		}
		defer func() {
			if err := tracing.Shutdown(context.Background()); err != nil {
				logging.Error("Ошибка остановки OpenTelemetry: %v", err)
			}
		}()
	}

	m := metrics.New()
	go func() {
		if err := m.Serve(ctx, cfg.Metrics.Addr); err != nil {
			logging.Error("❌ Ошибка сервера метрик: %v", err)
		}
	}()

	ws, err := openWorldStorage(ctx, cfg, m)
	if err != nil {
		return fmt.Errorf("открытие хранилища: %w", err)
	}
	defer func() {
		if err := ws.Close(); err != nil {
			logging.Error("Ошибка закрытия хранилища: %v", err)
		}
	}()

	arena := world.NewChunkArena(
		world.WithOptimizeEvery(cfg.Chunk.OptimizeEvery),
		world.WithMetrics(m),
	)

	if cfg.Events.Enabled {
		if err := subscribeEvents(ctx, cfg, nodeID, ws, arena); err != nil {
			return fmt.Errorf("подписка на события чанков: %w", err)
		}
	}

	gen := world.NewWorldGenerator(cfg.Generator.Seed)
	gen.HeightScale = cfg.Generator.HeightScale
	gen.NoiseScale = cfg.Generator.NoiseScale
	gen.SeaLevel = cfg.Generator.SeaLevel

	if err := pregenerate(ctx, ws, arena, gen, cfg.Generator.Radius); err != nil {
		return fmt.Errorf("предгенерация: %w", err)
	}
	m.SetChunkKinds(arena.KindCounts())

	saveTicker := time.NewTicker(saveInterval)
	defer saveTicker.Stop()
	compressTicker := time.NewTicker(compressInterval)
	defer compressTicker.Stop()

	logging.Info("✅ Сервер запущен: %d чанков, метрики на %s", arena.Len(), cfg.Metrics.Addr)

	for {
		select {
		case <-ctx.Done():
			logging.Info("📡 Получен сигнал завершения, сохраняем мир...")
			// Контекст сигнала уже отменён, сохраняем с отдельным таймаутом
			saveCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			n, err := ws.SaveDirty(saveCtx, arena)
			cancel()
			logging.Info("👋 Сервер остановлен, сохранено %d чанков", n)
			return err

		case <-saveTicker.C:
			if _, err := ws.SaveDirty(ctx, arena); err != nil {
				logging.Error("Ошибка периодического сохранения: %v", err)
			}

		case <-compressTicker.C:
			n := arena.CompressIdle()
			m.SetChunkKinds(arena.KindCounts())
			logStats(arena, n)
		}
	}
}

// openWorldStorage собирает репозиторий по конфигурации: badger или память,
// при включённом кеше поверх него Redis
func openWorldStorage(ctx context.Context, cfg *config.Config, m *metrics.Metrics) (*storage.WorldStorage, error) {
	var repo storage.ChunkRepo
	switch cfg.Storage.Backend {
	case "memory":
		logging.Warn("⚠️ Используется хранилище в памяти: данные теряются при перезапуске")
		repo = storage.NewMemoryChunkRepo()
	default:
		badgerRepo, err := storage.NewBadgerChunkRepo(cfg.Storage.DataDir)
		if err != nil {
			return nil, err
		}
		repo = badgerRepo
	}

	if cfg.Cache.Enabled {
		client, err := storage.NewRedisClient(ctx, cfg.Cache.URL)
		if err != nil {
			logging.Warn("⚠️ Redis недоступен, кеш чанков отключён: %v", err)
		} else {
			repo = storage.NewCachedChunkRepo(client, repo, cfg.Cache.TTL)
		}
	}

	codec, err := storage.NewCodec(cfg.Storage.CompressionLevel)
	if err != nil {
		repo.Close()
		return nil, err
	}
	return storage.NewWorldStorage(repo, codec, cfg.Storage.Backend, m), nil
}

// pregenerate загружает или генерирует куб чанков радиуса r вокруг начала координат
func pregenerate(ctx context.Context, ws *storage.WorldStorage, arena *world.ChunkArena, gen *world.WorldGenerator, r int) error {
	start := time.Now()
	for z := -r; z <= r; z++ {
		for y := -r; y <= r; y++ {
			for x := -r; x <= r; x++ {
				if err := ws.LoadOrGenerate(ctx, arena, gen, vec.Vec3{X: x, Y: y, Z: z}); err != nil {
					return err
				}
			}
		}
	}
	logging.Info("🌍 Подготовлено %d чанков за %s", arena.Len(), time.Since(start))
	return nil
}

// subscribeEvents публикует сохранения этого узла и выгружает локальные
// чистые копии чанков, сохранённых другими узлами
func subscribeEvents(ctx context.Context, cfg *config.Config, nodeID string, ws *storage.WorldStorage, arena *world.ChunkArena) error {
	notifier, err := storage.NewNATSNotifier(cfg.Events.NATSURL, cfg.Events.Subject, nodeID)
	if err != nil {
		return err
	}
	ws.SetNotifier(notifier)
	return notifier.Subscribe(ctx, func(coord vec.Vec3) {
		if arena.EvictClean(coord) {
			logging.Debug("чанк %v обновлён другим узлом, локальная копия выгружена", coord)
		}
	})
}

func logStats(arena *world.ChunkArena, compressed int) {
	stats, err := observability.ReadProcessStats()
	if err != nil {
		logging.Debug("статистика процесса недоступна: %v", err)
	}
	logging.Info("📊 Чанков %d (сжато в RLE %d), хранилища %s, RSS %s, heap %s, CPU %.1f%%, uptime %s",
		arena.Len(), compressed,
		humanize.Bytes(uint64(arena.MemoryUsage())),
		humanize.Bytes(stats.RSS), humanize.Bytes(stats.HeapAlloc),
		stats.CPUPercent, stats.Uptime.Round(time.Second))
}
