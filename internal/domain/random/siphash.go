package random

import (
	"encoding/binary"
	"math/bits"
)

// HashString hashes a seed string with SipHash-1-3 under a zero key. The
// string bytes are followed by a single 0xFF terminator.
func HashString(s string) uint64 {
	h := sip13{
		v0: 0x736f6d6570736575,
		v1: 0x646f72616e646f6d,
		v2: 0x6c7967656e657261,
		v3: 0x7465646279746573,
	}
	msg := make([]byte, 0, len(s)+1)
	msg = append(msg, s...)
	msg = append(msg, 0xff)

	n := len(msg)
	full := n - n%8
	for i := 0; i < full; i += 8 {
		h.compress(binary.LittleEndian.Uint64(msg[i:]))
	}
	var tail [8]byte
	copy(tail[:], msg[full:])
	b := uint64(n&0xff)<<56 | binary.LittleEndian.Uint64(tail[:])
	h.compress(b)

	h.v2 ^= 0xff
	h.round()
	h.round()
	h.round()
	return h.v0 ^ h.v1 ^ h.v2 ^ h.v3
}

type sip13 struct {
	v0, v1, v2, v3 uint64
}

func (h *sip13) compress(m uint64) {
	h.v3 ^= m
	h.round()
	h.v0 ^= m
}

func (h *sip13) round() {
	h.v0 += h.v1
	h.v1 = bits.RotateLeft64(h.v1, 13)
	h.v1 ^= h.v0
	h.v0 = bits.RotateLeft64(h.v0, 32)
	h.v2 += h.v3
	h.v3 = bits.RotateLeft64(h.v3, 16)
	h.v3 ^= h.v2
	h.v0 += h.v3
	h.v3 = bits.RotateLeft64(h.v3, 21)
	h.v3 ^= h.v0
	h.v2 += h.v1
	h.v1 = bits.RotateLeft64(h.v1, 17)
	h.v1 ^= h.v2
	h.v2 = bits.RotateLeft64(h.v2, 32)
}
