package blockstore

import "github.com/annel0/voxel-storage/internal/world/block"

// repr - закрытый набор представлений хранилища.
// Реализации существуют только внутри пакета; переходы между ними
// описаны свободными функциями в transition.go.
type repr interface {
	kind() Kind
	get(i int) block.Block
	memoryUsage() int
	clone() repr
}

// uniformRepr - все ячейки одинаковы
type uniformRepr struct {
	b block.Block
}

func (u *uniformRepr) kind() Kind { return KindUniform }
func (u *uniformRepr) get(int) block.Block { return u.b }
func (u *uniformRepr) memoryUsage() int { return block.Size }
func (u *uniformRepr) clone() repr { return &uniformRepr{b: u.b} }

// palettedRepr - палитра и упакованные индексы (Compact/Sparse/Giant)
type palettedRepr struct {
	k    Kind
	bits int
	pal  palette
	data []byte
}

// newPaletted создаёт представление уровня k; все ячейки указывают на индекс 0
func newPaletted(k Kind, pal palette) *palettedRepr {
	bits := k.indexBits()
	return &palettedRepr{
		k:    k,
		bits: bits,
		pal:  pal,
		data: make([]byte, packedLen(bits)),
	}
}

func (p *palettedRepr) kind() Kind { return p.k }

func (p *palettedRepr) index(i int) uint16 {
	return getPacked(p.data, p.bits, i)
}

func (p *palettedRepr) setIndex(i int, idx uint16) {
	putPacked(p.data, p.bits, i, idx)
}

func (p *palettedRepr) get(i int) block.Block {
	b, _ := p.pal.at(p.index(i))
	return b
}

func (p *palettedRepr) memoryUsage() int {
	return p.pal.memoryUsage() + len(p.data)
}

func (p *palettedRepr) clone() repr {
	return &palettedRepr{
		k:    p.k,
		bits: p.bits,
		pal:  p.pal.clone(),
		data: append([]byte(nil), p.data...),
	}
}

// zigzagRepr - прямое хранение без палитры
type zigzagRepr struct {
	cells []block.Block
}

func newZigzag() *zigzagRepr {
	return &zigzagRepr{cells: make([]block.Block, Volume)}
}

func (z *zigzagRepr) kind() Kind { return KindZigzag }
func (z *zigzagRepr) get(i int) block.Block { return z.cells[i] }
func (z *zigzagRepr) memoryUsage() int { return Volume * block.Size }
func (z *zigzagRepr) clone() repr {
	return &zigzagRepr{cells: append([]block.Block(nil), z.cells...)}
}
