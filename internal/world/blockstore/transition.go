package blockstore

import "github.com/annel0/voxel-storage/internal/world/block"

// Переходы между представлениями. Все функции принимают и возвращают repr;
// вызывающий код заменяет активное представление результатом.

// setCell записывает блок и при необходимости повышает представление.
// Ошибок не бывает: Zigzag вмещает любое содержимое.
func setCell(r repr, i int, b block.Block) repr {
	switch cur := r.(type) {
	case *uniformRepr:
		if cur.b == b {
			return cur
		}
		// Все индексы нулевые, то есть указывают на прежний блок
		p := newPaletted(KindCompact, newPalette(cur.b, b))
		p.setIndex(i, 1)
		return p

	case *palettedRepr:
		if idx, ok := cur.pal.indexOf(b); ok {
			cur.setIndex(i, idx)
			return cur
		}
		if cur.pal.len() < cur.k.Capacity() {
			cur.setIndex(i, cur.pal.add(b))
			return cur
		}
		return setCell(promote(cur), i, b)

	case *zigzagRepr:
		cur.cells[i] = b
		return cur

	case *rleRepr:
		return setCell(materialize(cur), i, b)
	}
	return r
}

// promote переносит содержимое на следующий уровень ёмкости
func promote(p *palettedRepr) repr {
	if p.k == KindGiant {
		z := newZigzag()
		for i := 0; i < Volume; i++ {
			z.cells[i] = p.get(i)
		}
		return z
	}

	next := newPaletted(p.k+1, p.pal)
	for i := 0; i < Volume; i++ {
		next.setIndex(i, p.index(i))
	}
	return next
}

// materialize переводит холодное RLE в живое представление
func materialize(r *rleRepr) repr {
	cells := r.expand()
	return build(func(i int) block.Block { return cells[i] })
}

// build строит наименьшее представление для заданного содержимого.
// Палитра упорядочена по первому появлению блока.
func build(get func(i int) block.Block) repr {
	pal := newPalette()
	idx := make([]uint16, Volume)
	for i := 0; i < Volume; i++ {
		idx[i] = pal.add(get(i))
		if pal.len() > GiantCapacity {
			z := newZigzag()
			for j := 0; j < Volume; j++ {
				z.cells[j] = get(j)
			}
			return z
		}
	}

	k := kindForCount(pal.len())
	if k == KindUniform {
		return &uniformRepr{b: pal.entries[0]}
	}

	p := newPaletted(k, pal)
	for i, v := range idx {
		p.setIndex(i, v)
	}
	return p
}

// countUsed возвращает число различных блоков, реально присутствующих в ячейках.
// Для Zigzag счёт останавливается, как только превышена ёмкость Giant.
func countUsed(r repr) int {
	switch cur := r.(type) {
	case *uniformRepr:
		return 1

	case *palettedRepr:
		used := make([]bool, cur.pal.len())
		count := 0
		for i := 0; i < Volume; i++ {
			idx := cur.index(i)
			if int(idx) < len(used) && !used[idx] {
				used[idx] = true
				count++
			}
		}
		return count

	case *zigzagRepr:
		seen := make(map[block.Block]struct{}, CompactCapacity)
		for _, b := range cur.cells {
			seen[b] = struct{}{}
			if len(seen) > GiantCapacity {
				break
			}
		}
		return len(seen)

	case *rleRepr:
		used := make(map[uint16]struct{})
		for _, run := range cur.runs {
			used[run.Index] = struct{}{}
		}
		return len(used)
	}
	return 0
}

// optimize сжимает представление, если реально используемых блоков меньше,
// чем требует текущий уровень, либо в палитре остались неиспользуемые записи.
// RLE и Uniform не меняются. Возвращает true, если представление заменено.
func optimize(r repr) (repr, bool) {
	switch cur := r.(type) {
	case *palettedRepr:
		used := countUsed(cur)
		if used == cur.pal.len() && kindForCount(used) == cur.k {
			return cur, false
		}
		return build(cur.get), true

	case *zigzagRepr:
		if countUsed(cur) > GiantCapacity {
			return cur, false
		}
		return build(cur.get), true
	}
	return r, false
}

// toRLE строит серии в линейном порядке индексов. Серии режутся на MaxRunLength.
func toRLE(r repr) *rleRepr {
	out := &rleRepr{pal: newPalette()}
	for i := 0; i < Volume; i++ {
		idx := out.pal.add(r.get(i))
		if n := len(out.runs); n > 0 {
			last := &out.runs[n-1]
			if last.Index == idx && last.Len() < MaxRunLength {
				last.LengthMinusOne++
				continue
			}
		}
		out.runs = append(out.runs, Run{Index: idx})
	}
	return out
}

// expandCells возвращает плотную копию содержимого
func expandCells(r repr) []block.Block {
	if cur, ok := r.(*rleRepr); ok {
		return cur.expand()
	}
	cells := make([]block.Block, Volume)
	for i := range cells {
		cells[i] = r.get(i)
	}
	return cells
}

// distinct возвращает различные блоки в порядке первого появления
func distinct(r repr) []block.Block {
	switch cur := r.(type) {
	case *uniformRepr:
		return []block.Block{cur.b}
	case *palettedRepr:
		return cur.pal.blocks()
	case *rleRepr:
		return cur.pal.blocks()
	}
	pal := newPalette()
	for i := 0; i < Volume; i++ {
		pal.add(r.get(i))
	}
	return pal.blocks()
}
