package storage

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/dgraph-io/badger/v3"

	"github.com/annel0/voxel-storage/internal/logging"
	"github.com/annel0/voxel-storage/internal/vec"
)

// BadgerChunkRepo хранит чанки в BadgerDB
type BadgerChunkRepo struct {
	db      *badger.DB
	dbPath  string
	mutex   sync.RWMutex
	isReady bool
}

// NewBadgerChunkRepo открывает (или создаёт) базу в dataPath/chunks
func NewBadgerChunkRepo(dataPath string) (*BadgerChunkRepo, error) {
	dbPath := filepath.Join(dataPath, "chunks")
	opts := badger.DefaultOptions(dbPath)
	opts.Logger = nil // Отключаем логирование BadgerDB

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("не удалось открыть BadgerDB: %w", err)
	}

	logging.GetComponentLogger("storage").Info("BadgerDB открыта: %s", dbPath)
	return &BadgerChunkRepo{
		db:      db,
		dbPath:  dbPath,
		isReady: true,
	}, nil
}

// Path возвращает каталог базы
func (r *BadgerChunkRepo) Path() string {
	return r.dbPath
}

func (r *BadgerChunkRepo) Save(ctx context.Context, coord vec.Vec3, data []byte) error {
	if err := checkCtx(ctx); err != nil {
		return err
	}
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	if !r.isReady {
		return ErrClosed
	}

	err := r.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(ChunkKey(coord)), data)
	})
	if err != nil {
		return fmt.Errorf("ошибка сохранения в BadgerDB: %w", err)
	}
	return nil
}

func (r *BadgerChunkRepo) Load(ctx context.Context, coord vec.Vec3) ([]byte, bool, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, false, err
	}
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	if !r.isReady {
		return nil, false, ErrClosed
	}

	var data []byte
	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(ChunkKey(coord)))
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("ошибка чтения из BadgerDB: %w", err)
	}
	return data, true, nil
}

func (r *BadgerChunkRepo) Delete(ctx context.Context, coord vec.Vec3) error {
	if err := checkCtx(ctx); err != nil {
		return err
	}
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	if !r.isReady {
		return ErrClosed
	}

	err := r.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(ChunkKey(coord)))
	})
	if err != nil {
		return fmt.Errorf("ошибка удаления из BadgerDB: %w", err)
	}
	return nil
}

func (r *BadgerChunkRepo) Keys(ctx context.Context) ([]vec.Vec3, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	if !r.isReady {
		return nil, ErrClosed
	}

	var keys []vec.Vec3
	err := r.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(keyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			if err := checkCtx(ctx); err != nil {
				return err
			}
			coord, err := ParseChunkKey(string(it.Item().Key()))
			if err != nil {
				return err
			}
			keys = append(keys, coord)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("ошибка обхода BadgerDB: %w", err)
	}
	return keys, nil
}

// Close закрывает базу
func (r *BadgerChunkRepo) Close() error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if !r.isReady {
		return nil
	}

	r.isReady = false
	return r.db.Close()
}
