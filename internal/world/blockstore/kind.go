package blockstore

// Kind - активное представление хранилища
type Kind uint8

const (
	KindUniform Kind = iota // Все ячейки одинаковы
	KindCompact             // Палитра <= 16, 4 бита на ячейку
	KindSparse              // Палитра <= 256, 8 бит на ячейку
	KindGiant               // Палитра <= 4096, 12 бит на ячейку
	KindZigzag              // Без палитры, блок на ячейку
	KindRLE                 // Холодное представление: серии (индекс, длина-1)
)

// Ёмкость палитры для каждого уровня
const (
	UniformCapacity = 1
	CompactCapacity = 16
	SparseCapacity  = 256
	GiantCapacity   = 4096
)

var kindNames = [...]string{
	KindUniform: "Uniform",
	KindCompact: "Compact",
	KindSparse:  "Sparse",
	KindGiant:   "Giant",
	KindZigzag:  "Zigzag",
	KindRLE:     "Rle",
}

// String возвращает имя представления
func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "Unknown"
}

// Paletted - представление с палитрой и упакованными индексами
func (k Kind) Paletted() bool {
	return k == KindCompact || k == KindSparse || k == KindGiant
}

// Capacity возвращает ёмкость палитры уровня; 0 – без ограничения
func (k Kind) Capacity() int {
	switch k {
	case KindUniform:
		return UniformCapacity
	case KindCompact:
		return CompactCapacity
	case KindSparse:
		return SparseCapacity
	case KindGiant:
		return GiantCapacity
	default:
		return 0
	}
}

// kindForCount выбирает наименьший уровень, вмещающий count различных блоков
func kindForCount(count int) Kind {
	switch {
	case count <= UniformCapacity:
		return KindUniform
	case count <= CompactCapacity:
		return KindCompact
	case count <= SparseCapacity:
		return KindSparse
	case count <= GiantCapacity:
		return KindGiant
	default:
		return KindZigzag
	}
}

// indexBits возвращает ширину индекса для палитровых уровней
func (k Kind) indexBits() int {
	switch k {
	case KindCompact:
		return 4
	case KindSparse:
		return 8
	case KindGiant:
		return 12
	default:
		return 0
	}
}
