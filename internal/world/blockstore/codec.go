package blockstore

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/annel0/voxel-storage/internal/world/block"
)

// Формат сериализации хранилища:
//
//	byte 0       версия (codecVersion)
//	byte 1       Kind
//	Uniform      запись блока
//	Compact..    uvarint длина палитры, записи палитры, упакованные индексы
//	Zigzag       Volume записей блока
//	Rle          uvarint длина палитры, записи палитры, uvarint число серий,
//	             на серию: индекс uint16 LE и байт длины-1
const codecVersion = 1

var (
	ErrCodecVersion = errors.New("blockstore: unsupported encoding version")
	ErrCorrupt      = errors.New("blockstore: corrupt encoding")
)

// Encode сериализует хранилище. Если холодная форма принимается ToRLE,
// пишется она; иначе пишется текущее представление.
func Encode(s *Storage) ([]byte, error) {
	r := s.repr()
	if r.kind() != KindUniform && r.kind() != KindRLE {
		if cold, ok := s.ToRLE(); ok {
			r = cold.repr()
		}
	}

	out := []byte{codecVersion, byte(r.kind())}
	switch cur := r.(type) {
	case *uniformRepr:
		out = block.AppendBlock(out, cur.b)

	case *palettedRepr:
		out = appendPalette(out, &cur.pal)
		out = append(out, cur.data...)

	case *zigzagRepr:
		for _, b := range cur.cells {
			out = block.AppendBlock(out, b)
		}

	case *rleRepr:
		out = appendPalette(out, &cur.pal)
		out = binary.AppendUvarint(out, uint64(len(cur.runs)))
		for _, run := range cur.runs {
			out = binary.LittleEndian.AppendUint16(out, run.Index)
			out = append(out, run.LengthMinusOne)
		}
	}
	return out, nil
}

func appendPalette(out []byte, p *palette) []byte {
	out = binary.AppendUvarint(out, uint64(p.len()))
	for _, b := range p.entries {
		out = block.AppendBlock(out, b)
	}
	return out
}

// Decode восстанавливает хранилище в том представлении, в котором оно
// было записано. Серии RLE проверяются на покрытие объёма.
func Decode(data []byte) (*Storage, error) {
	if len(data) < 2 {
		return nil, wrapf(ErrCorrupt, "header: %d bytes", len(data))
	}
	if data[0] != codecVersion {
		return nil, wrapf(ErrCodecVersion, "version %d", data[0])
	}
	k := Kind(data[1])
	d := decoder{data: data[2:]}

	var r repr
	switch {
	case k == KindUniform:
		r = &uniformRepr{b: d.block()}

	case k.Paletted():
		pal := d.palette(k.Capacity())
		p := newPaletted(k, pal)
		copy(p.data, d.bytes(len(p.data)))
		if d.err == nil && pal.len() == 0 {
			d.fail("empty palette for %s", k)
		}
		for i := 0; i < Volume && d.err == nil; i++ {
			if idx := p.index(i); int(idx) >= pal.len() {
				d.fail("index %d at cell %d past palette of %d", idx, i, pal.len())
			}
		}
		r = p

	case k == KindZigzag:
		z := newZigzag()
		for i := range z.cells {
			z.cells[i] = d.block()
			if d.err != nil {
				break
			}
		}
		r = z

	case k == KindRLE:
		pal := d.palette(0)
		n := d.uvarint()
		if d.err == nil && n > Volume {
			d.fail("%d runs", n)
		}
		rle := &rleRepr{pal: pal}
		if d.err == nil {
			rle.runs = make([]Run, 0, n)
		}
		for i := uint64(0); i < n && d.err == nil; i++ {
			raw := d.bytes(3)
			if d.err != nil {
				break
			}
			rle.runs = append(rle.runs, Run{Index: binary.LittleEndian.Uint16(raw), LengthMinusOne: raw[2]})
		}
		if d.err == nil {
			if err := rle.validate(); err != nil {
				return nil, err
			}
		}
		r = rle

	default:
		return nil, wrapf(ErrCorrupt, "unknown kind %d", k)
	}

	if d.err != nil {
		return nil, d.err
	}
	if len(d.data) != 0 {
		return nil, wrapf(ErrCorrupt, "%d trailing bytes", len(d.data))
	}
	return &Storage{r: r}, nil
}

// decoder запоминает первую ошибку; после неё все чтения возвращают нули
type decoder struct {
	data []byte
	err  error
}

func (d *decoder) fail(format string, args ...interface{}) {
	if d.err == nil {
		d.err = wrapf(ErrCorrupt, format, args...)
	}
}

func (d *decoder) bytes(n int) []byte {
	if d.err != nil {
		return nil
	}
	if len(d.data) < n {
		d.fail("need %d bytes, have %d", n, len(d.data))
		return nil
	}
	out := d.data[:n]
	d.data = d.data[n:]
	return out
}

func (d *decoder) uvarint() uint64 {
	if d.err != nil {
		return 0
	}
	v, n := binary.Uvarint(d.data)
	if n <= 0 {
		d.fail("bad uvarint")
		return 0
	}
	d.data = d.data[n:]
	return v
}

func (d *decoder) block() block.Block {
	if d.err != nil {
		return block.Block{}
	}
	b, n, err := block.DecodeBlock(d.data)
	if err != nil {
		d.err = fmt.Errorf("%w: %w", ErrCorrupt, err)
		return block.Block{}
	}
	d.data = d.data[n:]
	return b
}

// palette читает палитру; limit > 0 ограничивает её размер
func (d *decoder) palette(limit int) palette {
	n := d.uvarint()
	if d.err == nil && limit > 0 && n > uint64(limit) {
		d.fail("palette of %d entries exceeds %d", n, limit)
	}
	if d.err == nil && n > Volume {
		d.fail("palette of %d entries", n)
	}
	pal := newPalette()
	for i := uint64(0); i < n && d.err == nil; i++ {
		b := d.block()
		if d.err != nil {
			break
		}
		if int(pal.add(b)) != int(i) {
			d.fail("duplicate palette entry %d", i)
		}
	}
	return pal
}
