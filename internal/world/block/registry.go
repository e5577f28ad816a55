package block

import (
	"fmt"
	"sync"
)

// MaterialID представляет идентификатор материала
type MaterialID uint16

// Константы ID материалов
const (
	// Зарезервированные идентификаторы
	InvalidMaterialID MaterialID = 0 // Некорректный/неинициализированный материал
	AirMaterialID     MaterialID = 1 // Воздух, не рендерится

	// Базовые материалы ландшафта
	StoneMaterialID   MaterialID = 2
	DirtMaterialID    MaterialID = 3
	GrassMaterialID   MaterialID = 4
	SandMaterialID    MaterialID = 5
	WaterMaterialID   MaterialID = 6
	GravelMaterialID  MaterialID = 7
	SnowMaterialID    MaterialID = 8
	BedrockMaterialID MaterialID = 9

	// Растительность (начиная с 100)
	LogMaterialID    MaterialID = 100
	LeavesMaterialID MaterialID = 101

	// Руды (начиная с 200)
	CoalOreMaterialID MaterialID = 200
	IronOreMaterialID MaterialID = 201
)

var (
	registryMu sync.RWMutex
	registry   = map[MaterialID]string{
		InvalidMaterialID: "invalid",
		AirMaterialID:     "air",
		StoneMaterialID:   "stone",
		DirtMaterialID:    "dirt",
		GrassMaterialID:   "grass",
		SandMaterialID:    "sand",
		WaterMaterialID:   "water",
		GravelMaterialID:  "gravel",
		SnowMaterialID:    "snow",
		BedrockMaterialID: "bedrock",
		LogMaterialID:     "log",
		LeavesMaterialID:  "leaves",
		CoalOreMaterialID: "coal_ore",
		IronOreMaterialID: "iron_ore",
	}
)

// RegisterMaterial добавляет имя материала в каталог.
// Зарезервированные идентификаторы переопределять нельзя.
func RegisterMaterial(id MaterialID, name string) error {
	if id == InvalidMaterialID || id == AirMaterialID {
		return fmt.Errorf("block: material id %d is reserved", id)
	}
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[id] = name
	return nil
}

// MaterialName возвращает имя материала или "material_<id>" для неизвестных
func MaterialName(id MaterialID) string {
	registryMu.RLock()
	name, ok := registry[id]
	registryMu.RUnlock()
	if !ok {
		return fmt.Sprintf("material_%d", id)
	}
	return name
}

// IsKnownMaterial проверяет наличие материала в каталоге
func IsKnownMaterial(id MaterialID) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := registry[id]
	return ok
}
