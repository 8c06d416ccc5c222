package random

import (
	"encoding/binary"
	"math/bits"
)

const (
	chachaRounds = 12
	blockWords   = 16
	bufBlocks    = 4
	bufWords     = blockWords * bufBlocks
)

// chacha is a ChaCha keystream with a 64-bit block counter and a zero
// stream id, consumed as little-endian 32-bit words.
type chacha struct {
	key     [8]uint32
	counter uint64
	rounds  int
}

func newChacha(seed [32]byte, rounds int) chacha {
	var c chacha
	for i := range c.key {
		c.key[i] = binary.LittleEndian.Uint32(seed[i*4:])
	}
	c.rounds = rounds
	return c
}

func (c *chacha) block(out []uint32) {
	in := [blockWords]uint32{
		0x61707865, 0x3320646e, 0x79622d32, 0x6b206574,
		c.key[0], c.key[1], c.key[2], c.key[3],
		c.key[4], c.key[5], c.key[6], c.key[7],
		uint32(c.counter), uint32(c.counter >> 32), 0, 0,
	}
	x := in
	for i := 0; i < c.rounds; i += 2 {
		quarter(&x, 0, 4, 8, 12)
		quarter(&x, 1, 5, 9, 13)
		quarter(&x, 2, 6, 10, 14)
		quarter(&x, 3, 7, 11, 15)
		quarter(&x, 0, 5, 10, 15)
		quarter(&x, 1, 6, 11, 12)
		quarter(&x, 2, 7, 8, 13)
		quarter(&x, 3, 4, 9, 14)
	}
	for i := range x {
		out[i] = x[i] + in[i]
	}
	c.counter++
}

func quarter(x *[blockWords]uint32, a, b, c, d int) {
	x[a] += x[b]
	x[d] = bits.RotateLeft32(x[d]^x[a], 16)
	x[c] += x[d]
	x[b] = bits.RotateLeft32(x[b]^x[c], 12)
	x[a] += x[b]
	x[d] = bits.RotateLeft32(x[d]^x[a], 8)
	x[c] += x[d]
	x[b] = bits.RotateLeft32(x[b]^x[c], 7)
}

// pcgSeed expands a u64 into a 32-byte seed with PCG32 steps, four bytes
// per step.
func pcgSeed(state uint64) [32]byte {
	const (
		mul = 6364136223846793005
		inc = 11634580027462260723
	)
	var seed [32]byte
	for i := 0; i < len(seed); i += 4 {
		state = state*mul + inc
		xorshifted := uint32(((state >> 18) ^ state) >> 27)
		rot := int(state >> 59)
		binary.LittleEndian.PutUint32(seed[i:], bits.RotateLeft32(xorshifted, -rot))
	}
	return seed
}
