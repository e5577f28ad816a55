package blockstore

// Упаковка индексов палитры.
//
//	4 бита:  байт i/2, чётный i – младший полубайт, нечётный – старший.
//	8 бит:   байт i.
//	12 бит:  непрерывный поток бит (LSB first), окно 2 байта при смещении <= 4,
//	         иначе 3 байта.

func packedLen(bits int) int {
	return Volume * bits / 8
}

func getPacked(data []byte, bits, i int) uint16 {
	switch bits {
	case 4:
		v := data[i>>1]
		if i&1 == 1 {
			return uint16(v >> 4)
		}
		return uint16(v & 0x0F)
	case 8:
		return uint16(data[i])
	default:
		return get12(data, i)
	}
}

func putPacked(data []byte, bits, i int, v uint16) {
	switch bits {
	case 4:
		b := &data[i>>1]
		if i&1 == 1 {
			*b = *b&0x0F | byte(v&0x0F)<<4
		} else {
			*b = *b&0xF0 | byte(v&0x0F)
		}
	case 8:
		data[i] = byte(v)
	default:
		put12(data, i, v)
	}
}

const mask12 = 0x0FFF

func get12(data []byte, i int) uint16 {
	bit := i * 12
	off := bit >> 3
	shift := uint(bit & 7)

	word := uint32(data[off]) | uint32(data[off+1])<<8
	if shift > 4 {
		word |= uint32(data[off+2]) << 16
	}
	return uint16(word >> shift & mask12)
}

func put12(data []byte, i int, v uint16) {
	bit := i * 12
	off := bit >> 3
	shift := uint(bit & 7)

	word := uint32(data[off]) | uint32(data[off+1])<<8
	wide := shift > 4
	if wide {
		word |= uint32(data[off+2]) << 16
	}

	word &^= mask12 << shift
	word |= uint32(v&mask12) << shift

	data[off] = byte(word)
	data[off+1] = byte(word >> 8)
	if wide {
		data[off+2] = byte(word >> 16)
	}
}
