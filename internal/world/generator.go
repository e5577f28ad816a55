package world

import (
	"math"
	"math/rand"

	"github.com/annel0/voxel-storage/internal/util"
	"github.com/annel0/voxel-storage/internal/vec"
	"github.com/annel0/voxel-storage/internal/world/block"
	"github.com/annel0/voxel-storage/internal/world/blockstore"
)

// BiomeType представляет тип биома
type BiomeType int

const (
	BiomePlains BiomeType = iota
	BiomeDesert
	BiomeForest
	BiomeMountains
	BiomeTundra
)

// Пороговые значения шума биомов
const (
	desertMax   = 0.35 // Ниже - пустыня
	forestMin   = 0.60 // Выше - лес
	mountainMin = 0.75 // Высота выше - горы
	tundraMin   = 0.85 // Высота выше - снег
)

const (
	soilDepth  = 3     // Толщина слоя почвы под поверхностью
	oreChance  = 0.015 // Шанс руды в камне
	treeChance = 0.02  // Шанс дерева в лесу на колонку
)

// WorldGenerator генерирует рельеф по шуму Перлина.
// Результат детерминирован для (сид, координаты чанка).
type WorldGenerator struct {
	Seed        int64   // Сид для генерации шума
	NoiseScale  float64 // Масштаб основного шума (высота)
	BiomeScale  float64 // Масштаб шума биомов
	HeightScale float64 // Амплитуда рельефа в блоках
	SeaLevel    int     // Уровень воды в мировых координатах

	height *util.Noise
	biome  *util.Noise
}

// NewWorldGenerator создаёт новый генератор мира
func NewWorldGenerator(seed int64) *WorldGenerator {
	return &WorldGenerator{
		Seed:        seed,
		NoiseScale:  0.01,
		BiomeScale:  0.004,
		HeightScale: 24,
		SeaLevel:    0,
		height:      util.NewNoise(seed),
		biome:       util.NewNoise(seed + 42),
	}
}

// SurfaceHeight возвращает мировую высоту поверхности колонки (wx, wz)
func (wg *WorldGenerator) SurfaceHeight(wx, wz int) int {
	h := wg.height.Noise2D(float64(wx)*wg.NoiseScale, float64(wz)*wg.NoiseScale)
	return wg.SeaLevel + int(math.Round((h-0.5)*2*wg.HeightScale))
}

// BiomeAt определяет биом колонки по шуму биомов и высоте
func (wg *WorldGenerator) BiomeAt(wx, wz int) BiomeType {
	h := wg.height.Noise2D(float64(wx)*wg.NoiseScale, float64(wz)*wg.NoiseScale)
	switch {
	case h > tundraMin:
		return BiomeTundra
	case h > mountainMin:
		return BiomeMountains
	}

	v := wg.biome.Noise2D(float64(wx)*wg.BiomeScale, float64(wz)*wg.BiomeScale)
	switch {
	case v < desertMax:
		return BiomeDesert
	case v > forestMin:
		return BiomeForest
	}
	return BiomePlains
}

// GenerateChunk генерирует чанк по его координатам
func (wg *WorldGenerator) GenerateChunk(coords vec.Vec3, opts ...ChunkOption) *Chunk {
	baseX, baseY, baseZ := coords.X*ChunkSize, coords.Y*ChunkSize, coords.Z*ChunkSize

	// Чанк целиком выше рельефа и воды или целиком в камне строится сразу в Uniform
	minH, maxH := wg.heightRange(baseX, baseZ)
	top := baseY + ChunkSize - 1
	if baseY > maxH && baseY > wg.SeaLevel {
		c := NewChunk(coords, opts...)
		c.MarkGenerated()
		return c
	}

	// Для каждого чанка создаем уникальный сид на основе глобального сида и координат
	chunkSeed := wg.Seed ^ int64(coords.X)*73856093 ^ int64(coords.Y)*19349663 ^ int64(coords.Z)*83492791
	rng := rand.New(rand.NewSource(chunkSeed))

	storage := blockstore.Empty()
	if top < minH-soilDepth {
		storage.Fill(block.New(block.StoneMaterialID))
	}

	for z := 0; z < ChunkSize; z++ {
		for x := 0; x < ChunkSize; x++ {
			wx, wz := baseX+x, baseZ+z
			surface := wg.SurfaceHeight(wx, wz)
			biome := wg.BiomeAt(wx, wz)
			for y := 0; y < ChunkSize; y++ {
				b, ok := wg.blockAt(baseY+y, surface, biome, rng)
				if !ok {
					continue
				}
				// Ошибок нет: координаты локальные
				_ = storage.Set(blockstore.Index(x, y, z), b)
			}
			if biome == BiomeForest && surface >= wg.SeaLevel && rng.Float64() < treeChance {
				wg.placeTree(storage, x, surface-baseY+1, z, rng)
			}
		}
	}
	storage.Optimize()

	c := NewChunkFromStorage(coords, storage, opts...)
	c.MarkGenerated()
	return c
}

// heightRange возвращает минимум и максимум высоты поверхности в колонках чанка
func (wg *WorldGenerator) heightRange(baseX, baseZ int) (int, int) {
	minH, maxH := math.MaxInt, math.MinInt
	for z := 0; z < ChunkSize; z++ {
		for x := 0; x < ChunkSize; x++ {
			h := wg.SurfaceHeight(baseX+x, baseZ+z)
			minH = min(minH, h)
			maxH = max(maxH, h)
		}
	}
	return minH, maxH
}

// blockAt выбирает блок для мировой высоты wy; false, если ячейка остаётся воздухом
func (wg *WorldGenerator) blockAt(wy, surface int, biome BiomeType, rng *rand.Rand) (block.Block, bool) {
	switch {
	case wy > surface:
		if wy <= wg.SeaLevel {
			return block.New(block.WaterMaterialID), true
		}
		return block.Block{}, false

	case wy == surface:
		return block.New(wg.surfaceMaterial(biome, surface)), true

	case wy > surface-soilDepth:
		if biome == BiomeDesert {
			return block.New(block.SandMaterialID), true
		}
		if biome == BiomeMountains || biome == BiomeTundra {
			return block.New(block.GravelMaterialID), true
		}
		return block.New(block.DirtMaterialID), true
	}

	if rng.Float64() < oreChance {
		if rng.Intn(3) == 0 {
			return block.New(block.IronOreMaterialID), true
		}
		return block.New(block.CoalOreMaterialID), true
	}
	return block.New(block.StoneMaterialID), true
}

// surfaceMaterial возвращает блок поверхности для указанного биома
func (wg *WorldGenerator) surfaceMaterial(biome BiomeType, surface int) block.MaterialID {
	if surface < wg.SeaLevel {
		return block.SandMaterialID
	}
	switch biome {
	case BiomeDesert:
		return block.SandMaterialID
	case BiomeMountains:
		return block.StoneMaterialID
	case BiomeTundra:
		return block.SnowMaterialID
	default:
		return block.GrassMaterialID
	}
}

// placeTree ставит ствол и крону внутри чанка; выходящие за границы части отбрасываются
func (wg *WorldGenerator) placeTree(s *blockstore.Storage, x, y, z int, rng *rand.Rand) {
	trunk := 3 + rng.Intn(3) // Высота дерева 3-5 блоков
	logBlock := block.New(block.LogMaterialID)
	leaves := block.New(block.LeavesMaterialID)

	for dy := 0; dy < trunk; dy++ {
		_ = s.SetAt(x, y+dy, z, logBlock)
	}
	crown := y + trunk
	for dz := -1; dz <= 1; dz++ {
		for dx := -1; dx <= 1; dx++ {
			for dy := -1; dy <= 0; dy++ {
				if dx == 0 && dz == 0 && dy < 0 {
					continue
				}
				_ = s.SetAt(x+dx, crown+dy, z+dz, leaves)
			}
		}
	}
}
