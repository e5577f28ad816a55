package storage

import (
	"fmt"

	"github.com/klauspost/compress/zstd"

	"github.com/annel0/voxel-storage/internal/world/blockstore"
)

// Codec превращает хранилище чанка в байты для ChunkRepo:
// blockstore.Encode, затем zstd. Безопасен для конкурентного использования.
type Codec struct {
	compressor   *zstd.Encoder
	decompressor *zstd.Decoder
}

// NewCodec создаёт кодек; level 1..4 соответствует zstd.EncoderLevel
// (SpeedFastest..SpeedBestCompression)
func NewCodec(level int) (*Codec, error) {
	encLevel := zstd.EncoderLevel(level)
	if encLevel < zstd.SpeedFastest || encLevel > zstd.SpeedBestCompression {
		encLevel = zstd.SpeedDefault
	}

	compressor, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(encLevel))
	if err != nil {
		return nil, fmt.Errorf("создание zstd encoder: %w", err)
	}
	decompressor, err := zstd.NewReader(nil)
	if err != nil {
		compressor.Close()
		return nil, fmt.Errorf("создание zstd decoder: %w", err)
	}
	return &Codec{compressor: compressor, decompressor: decompressor}, nil
}

// Encode сериализует и сжимает хранилище; второй результат - размер до сжатия
func (c *Codec) Encode(s *blockstore.Storage) ([]byte, int, error) {
	raw, err := blockstore.Encode(s)
	if err != nil {
		return nil, 0, err
	}
	return c.compressor.EncodeAll(raw, make([]byte, 0, len(raw)/4)), len(raw), nil
}

// Decode распаковывает и восстанавливает хранилище
func (c *Codec) Decode(data []byte) (*blockstore.Storage, error) {
	raw, err := c.decompressor.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("zstd: %w", err)
	}
	return blockstore.Decode(raw)
}

// Close освобождает ресурсы zstd
func (c *Codec) Close() {
	c.compressor.Close()
	c.decompressor.Close()
}
