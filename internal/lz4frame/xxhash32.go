package lz4frame

import "encoding/binary"

// xxhash32 is the checksum the LZ4 frame format uses to protect its frame
// descriptor (and, if the content checksum flag were set, the whole
// decompressed stream). We only ever hash the two-byte FLG/BD pair, so
// this need not be fast, just correct; pierrec/lz4/v4 keeps an equivalent
// implementation internal to its own module, unreachable from here.
const (
	prime32_1 = 2654435761
	prime32_2 = 2246822519
	prime32_3 = 3266489917
	prime32_4 = 668265263
	prime32_5 = 374761393
)

func xxhash32(seed uint32, input []byte) uint32 {
	n := len(input)
	var h uint32
	i := 0

	if n >= 16 {
		v1 := seed + prime32_1 + prime32_2
		v2 := seed + prime32_2
		v3 := seed
		v4 := seed - prime32_1
		for ; i+16 <= n; i += 16 {
			v1 = xxround(v1, binary.LittleEndian.Uint32(input[i:]))
			v2 = xxround(v2, binary.LittleEndian.Uint32(input[i+4:]))
			v3 = xxround(v3, binary.LittleEndian.Uint32(input[i+8:]))
			v4 = xxround(v4, binary.LittleEndian.Uint32(input[i+12:]))
		}
		h = rotl32(v1, 1) + rotl32(v2, 7) + rotl32(v3, 12) + rotl32(v4, 18)
	} else {
		h = seed + prime32_5
	}

	h += uint32(n)

	for ; i+4 <= n; i += 4 {
		h += binary.LittleEndian.Uint32(input[i:]) * prime32_3
		h = rotl32(h, 17) * prime32_4
	}
	for ; i < n; i++ {
		h += uint32(input[i]) * prime32_5
		h = rotl32(h, 11) * prime32_1
	}

	h ^= h >> 15
	h *= prime32_2
	h ^= h >> 13
	h *= prime32_3
	h ^= h >> 16
	return h
}

func xxround(acc, input uint32) uint32 {
	acc += input * prime32_2
	acc = rotl32(acc, 13)
	acc *= prime32_1
	return acc
}

func rotl32(x uint32, r uint) uint32 {
	return (x << r) | (x >> (32 - r))
}
