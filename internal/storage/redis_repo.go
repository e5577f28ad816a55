package storage

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/annel0/voxel-storage/internal/logging"
	"github.com/annel0/voxel-storage/internal/vec"
)

// CachedChunkRepo - горячий кеш в Redis поверх постоянного ChunkRepo.
// Запись идёт сначала в постоянное хранилище, затем в кеш (write-through);
// чтение при промахе загружает значение из постоянного хранилища (read-through).
// Ошибки Redis не роняют операции: кеш только ускоряет доступ.
type CachedChunkRepo struct {
	client    *redis.Client
	backing   ChunkRepo
	ttl       time.Duration
	keyPrefix string

	hits   int64
	misses int64
}

// CacheStats - статистика попаданий
type CacheStats struct {
	Hits   int64
	Misses int64
}

// NewRedisClient разбирает URL вида redis://host:port/db и проверяет соединение
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("разбор redis url: %w", err)
	}
	opts.ReadTimeout = 5 * time.Second
	opts.WriteTimeout = 5 * time.Second

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

// NewCachedChunkRepo оборачивает backing кешем. Владельцем client становится репозиторий.
func NewCachedChunkRepo(client *redis.Client, backing ChunkRepo, ttl time.Duration) *CachedChunkRepo {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	logging.GetComponentLogger("storage").Info("🔴 Redis cache для чанков: %s (ttl %s)", client.Options().Addr, ttl)
	return &CachedChunkRepo{
		client:    client,
		backing:   backing,
		ttl:       ttl,
		keyPrefix: "voxel:",
	}
}

func (r *CachedChunkRepo) cacheKey(coord vec.Vec3) string {
	return r.keyPrefix + ChunkKey(coord)
}

func (r *CachedChunkRepo) Save(ctx context.Context, coord vec.Vec3, data []byte) error {
	if err := r.backing.Save(ctx, coord, data); err != nil {
		return err
	}
	if err := r.client.Set(ctx, r.cacheKey(coord), data, r.ttl).Err(); err != nil {
		// Не оставляем в кеше устаревшее значение
		r.client.Del(ctx, r.cacheKey(coord))
		logging.GetComponentLogger("storage").Warn("Redis SET %v: %v", coord, err)
	}
	return nil
}

func (r *CachedChunkRepo) Load(ctx context.Context, coord vec.Vec3) ([]byte, bool, error) {
	val, err := r.client.Get(ctx, r.cacheKey(coord)).Bytes()
	if err == nil {
		atomic.AddInt64(&r.hits, 1)
		return val, true, nil
	}
	atomic.AddInt64(&r.misses, 1)
	if !errors.Is(err, redis.Nil) {
		logging.GetComponentLogger("storage").Warn("Redis GET %v: %v", coord, err)
	}

	data, found, err := r.backing.Load(ctx, coord)
	if err != nil || !found {
		return data, found, err
	}
	if err := r.client.Set(ctx, r.cacheKey(coord), data, r.ttl).Err(); err != nil {
		logging.GetComponentLogger("storage").Warn("Redis SET %v: %v", coord, err)
	}
	return data, true, nil
}

func (r *CachedChunkRepo) Delete(ctx context.Context, coord vec.Vec3) error {
	if err := r.backing.Delete(ctx, coord); err != nil {
		return err
	}
	if err := r.client.Del(ctx, r.cacheKey(coord)).Err(); err != nil {
		logging.GetComponentLogger("storage").Warn("Redis DEL %v: %v", coord, err)
	}
	return nil
}

func (r *CachedChunkRepo) Keys(ctx context.Context) ([]vec.Vec3, error) {
	return r.backing.Keys(ctx)
}

// Stats возвращает статистику попаданий в кеш
func (r *CachedChunkRepo) Stats() CacheStats {
	return CacheStats{
		Hits:   atomic.LoadInt64(&r.hits),
		Misses: atomic.LoadInt64(&r.misses),
	}
}

// Close закрывает клиент Redis и постоянное хранилище
func (r *CachedChunkRepo) Close() error {
	cerr := r.client.Close()
	if err := r.backing.Close(); err != nil {
		return err
	}
	return cerr
}
