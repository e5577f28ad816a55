package blockstore

import "github.com/annel0/voxel-storage/internal/world/block"

// paletteLookupThreshold - до этого размера поиск по палитре линейный,
// после него строится карта Block -> индекс.
const paletteLookupThreshold = CompactCapacity

// palette хранит каждый различный блок ровно один раз
type palette struct {
	entries []block.Block
	lookup  map[block.Block]uint16
}

func newPalette(entries ...block.Block) palette {
	p := palette{entries: make([]block.Block, 0, len(entries)+1)}
	for _, b := range entries {
		p.add(b)
	}
	return p
}

func (p *palette) len() int {
	return len(p.entries)
}

// indexOf ищет блок в палитре
func (p *palette) indexOf(b block.Block) (uint16, bool) {
	if p.lookup != nil {
		idx, ok := p.lookup[b]
		return idx, ok
	}
	for i, e := range p.entries {
		if e == b {
			return uint16(i), true
		}
	}
	return 0, false
}

// add добавляет блок (или возвращает существующий индекс)
func (p *palette) add(b block.Block) uint16 {
	if idx, ok := p.indexOf(b); ok {
		return idx
	}
	idx := uint16(len(p.entries))
	p.entries = append(p.entries, b)
	if p.lookup != nil {
		p.lookup[b] = idx
	} else if len(p.entries) > paletteLookupThreshold {
		p.lookup = make(map[block.Block]uint16, len(p.entries)*2)
		for i, e := range p.entries {
			p.lookup[e] = uint16(i)
		}
	}
	return idx
}

// at возвращает блок по индексу; выход за палитру даёт воздух
func (p *palette) at(idx uint16) (block.Block, bool) {
	if int(idx) >= len(p.entries) {
		return block.Air(), false
	}
	return p.entries[idx], true
}

func (p *palette) clone() palette {
	out := palette{entries: append([]block.Block(nil), p.entries...)}
	if p.lookup != nil {
		out.lookup = make(map[block.Block]uint16, len(p.lookup))
		for k, v := range p.lookup {
			out.lookup[k] = v
		}
	}
	return out
}

func (p *palette) blocks() []block.Block {
	return append([]block.Block(nil), p.entries...)
}

func (p *palette) memoryUsage() int {
	return len(p.entries) * block.Size
}
