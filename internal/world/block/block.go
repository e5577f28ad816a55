package block

import "fmt"

// Size - размер Block в памяти (material + rotation с выравниванием).
// Используется только для оценки памяти представлений хранилища.
const Size = 4

// Block представляет содержимое одной ячейки чанка.
// Это значение: сравнимо через == и используется как ключ палитры,
// поэтому создавайте блоки только через New/Air, а не литералом.
type Block struct {
	Material MaterialID // Идентификатор материала
	Rotation Rotation   // Ориентация (primary/secondary оси)
}

// Air возвращает канонический пустой блок
func Air() Block {
	return Block{Material: AirMaterialID, Rotation: DefaultRotation}
}

// Default аналогичен Air – блок по умолчанию для незаполненных ячеек
func Default() Block {
	return Air()
}

// New создаёт блок указанного материала с ориентацией по умолчанию
func New(material MaterialID) Block {
	return Block{Material: material, Rotation: DefaultRotation}
}

// WithRotation возвращает копию блока с заданной ориентацией
func (b Block) WithRotation(r Rotation) Block {
	b.Rotation = r
	return b
}

// IsEmpty возвращает true, если блок – воздух.
// Пустота привязана к material == AirMaterialID, отдельного флага нет.
func (b Block) IsEmpty() bool {
	return b.Material == AirMaterialID
}

// Rotate поворачивает блок на steps четвертей оборота вокруг оси axis.
// steps берётся по модулю 4, отрицательные значения поворачивают в обратную сторону.
func (b Block) Rotate(axis Axis, steps int) Block {
	steps %= 4
	if steps < 0 {
		steps += 4
	}
	if steps == 0 {
		return b
	}
	b.Rotation = b.Rotation.Rotate(axis, steps)
	return b
}

// String возвращает отладочное представление блока
func (b Block) String() string {
	return fmt.Sprintf("%s(%d)%s", MaterialName(b.Material), b.Material, b.Rotation)
}
