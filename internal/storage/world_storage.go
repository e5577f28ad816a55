package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/annel0/voxel-storage/internal/logging"
	"github.com/annel0/voxel-storage/internal/metrics"
	"github.com/annel0/voxel-storage/internal/observability"
	"github.com/annel0/voxel-storage/internal/vec"
	"github.com/annel0/voxel-storage/internal/world"
)

// WorldStorage связывает арену чанков с ChunkRepo: сохраняет изменённые
// чанки и загружает (или генерирует) отсутствующие.
type WorldStorage struct {
	repo     ChunkRepo
	codec    *Codec
	backend  string
	metrics  *metrics.Metrics
	notifier ChunkNotifier
	tracer   trace.Tracer
	log      *logging.Logger
}

// NewWorldStorage создаёт хранилище мира. backend используется как метка метрик.
func NewWorldStorage(repo ChunkRepo, codec *Codec, backend string, m *metrics.Metrics) *WorldStorage {
	return &WorldStorage{
		repo:    repo,
		codec:   codec,
		backend: backend,
		metrics: m,
		tracer:  otel.Tracer("github.com/annel0/voxel-storage/internal/storage"),
		log:     logging.GetComponentLogger("storage"),
	}
}

// SetNotifier подключает уведомления о сохранённых чанках; владельцем становится WorldStorage
func (ws *WorldStorage) SetNotifier(n ChunkNotifier) {
	ws.notifier = n
}

// Repo возвращает нижележащий репозиторий
func (ws *WorldStorage) Repo() ChunkRepo {
	return ws.repo
}

// SaveChunk сохраняет чанк, если он изменён. Возвращает true, если запись была.
// Флаг dirty снимается до записи и восстанавливается при ошибке.
func (ws *WorldStorage) SaveChunk(ctx context.Context, arena *world.ChunkArena, coord vec.Vec3) (bool, error) {
	var (
		data []byte
		kind string
	)
	err := arena.Update(coord, func(c *world.Chunk) error {
		if !c.IsDirty() {
			return nil
		}
		encoded, rawSize, err := ws.codec.Encode(c.Storage())
		if err != nil {
			return err
		}
		ws.metrics.EncodedSize(rawSize)
		data = encoded
		kind = c.Kind().String()
		c.ClearDirty()
		return nil
	})
	if err != nil || data == nil {
		return false, err
	}

	err = ws.repo.Save(ctx, coord, data)
	ws.metrics.RepoOp(ws.backend, "save", err)
	if err != nil {
		// Чанк мог быть выгружен между Update и Save; тогда изменения потеряны
		if uerr := arena.Update(coord, func(c *world.Chunk) error { c.MarkDirty(); return nil }); uerr != nil {
			ws.log.Error("чанк %v выгружен до повторного сохранения: %v", coord, uerr)
		}
		return false, fmt.Errorf("сохранение чанка %v: %w", coord, err)
	}

	if ws.notifier != nil {
		if err := ws.notifier.ChunkSaved(ctx, coord, kind); err != nil {
			ws.log.Warn("уведомление о чанке %v: %v", coord, err)
		}
	}
	return true, nil
}

// SaveDirty сохраняет все изменённые чанки арены
func (ws *WorldStorage) SaveDirty(ctx context.Context, arena *world.ChunkArena) (int, error) {
	ctx, span := ws.tracer.Start(ctx, "storage.SaveDirty")
	defer span.End()

	start := time.Now()
	dirty := arena.DirtyKeys()
	span.SetAttributes(attribute.Int("chunks.dirty", len(dirty)))

	saved := 0
	var errs []error
	for _, coord := range dirty {
		if err := checkCtx(ctx); err != nil {
			errs = append(errs, err)
			break
		}
		ok, err := ws.SaveChunk(ctx, arena, coord)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if ok {
			saved++
		}
	}
	span.SetAttributes(attribute.Int("chunks.saved", saved))
	if saved > 0 {
		ws.log.Debug("[%s] сохранено %d чанков за %s", observability.OperationID(ctx), saved, time.Since(start))
	}
	err := errors.Join(errs...)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "save failed")
	}
	return saved, err
}

// LoadChunk загружает чанк из репозитория. bool == false, если чанка нет.
func (ws *WorldStorage) LoadChunk(ctx context.Context, coord vec.Vec3, opts ...world.ChunkOption) (*world.Chunk, bool, error) {
	data, found, err := ws.repo.Load(ctx, coord)
	ws.metrics.RepoOp(ws.backend, "load", err)
	if err != nil {
		return nil, false, fmt.Errorf("загрузка чанка %v: %w", coord, err)
	}
	if !found {
		return nil, false, nil
	}

	s, err := ws.codec.Decode(data)
	if err != nil {
		return nil, false, fmt.Errorf("%w: чанк %v: %w", ErrCorruptChunk, coord, err)
	}
	c := world.NewChunkFromStorage(coord, s, opts...)
	c.MarkGenerated()
	return c, true, nil
}

// LoadOrGenerate помещает чанк в арену: из репозитория, иначе из генератора.
// Повреждённые данные заменяются сгенерированным чанком с предупреждением.
func (ws *WorldStorage) LoadOrGenerate(ctx context.Context, arena *world.ChunkArena, gen *world.WorldGenerator, coord vec.Vec3) error {
	ctx, span := ws.tracer.Start(ctx, "storage.LoadOrGenerate",
		trace.WithAttributes(attribute.String("chunk.key", ChunkKey(coord))))
	defer span.End()

	opts := arena.ChunkOptions()
	source := "loaded"
	created, err := arena.LoadOrStore(coord, func() (*world.Chunk, error) {
		c, found, err := ws.LoadChunk(ctx, coord, opts...)
		switch {
		case errors.Is(err, ErrCorruptChunk):
			ws.log.Warn("[%s] чанк %v повреждён, генерируем заново: %v", observability.OperationID(ctx), coord, err)
			span.RecordError(err)
		case err != nil:
			return nil, err
		case found:
			return c, nil
		}
		source = "generated"
		if gen == nil {
			return world.NewChunk(coord, opts...), nil
		}
		return gen.GenerateChunk(coord, opts...), nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "load failed")
		return err
	}
	if !created {
		source = "resident"
	}
	span.SetAttributes(attribute.String("chunk.source", source))
	return nil
}

// Unload сохраняет чанк (если изменён) и выгружает его из арены
func (ws *WorldStorage) Unload(ctx context.Context, arena *world.ChunkArena, coord vec.Vec3) error {
	if _, err := ws.SaveChunk(ctx, arena, coord); err != nil {
		return err
	}
	arena.Remove(coord)
	return nil
}

// Delete удаляет чанк из репозитория
func (ws *WorldStorage) Delete(ctx context.Context, coord vec.Vec3) error {
	err := ws.repo.Delete(ctx, coord)
	ws.metrics.RepoOp(ws.backend, "delete", err)
	return err
}

// Close закрывает уведомления, репозиторий и кодек
func (ws *WorldStorage) Close() error {
	var errs []error
	if ws.notifier != nil {
		errs = append(errs, ws.notifier.Close())
	}
	errs = append(errs, ws.repo.Close())
	ws.codec.Close()
	return errors.Join(errs...)
}
