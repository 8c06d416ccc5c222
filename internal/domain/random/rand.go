// Package random provides the seeded generator every picker and sorter
// draws from. Output depends only on the seed, so arrangements are
// reproducible across runs and platforms.
package random

import (
	"fmt"
	"math"
	"math/bits"
)

// DefaultSeed is used when a compilation carries no seed string.
const DefaultSeed uint64 = 123456789

// Rand is a ChaCha12 generator buffering four blocks at a time. It is not
// safe for concurrent use.
type Rand struct {
	core chacha
	buf  [bufWords]uint32
	idx  int
}

// New returns a generator seeded from a 64-bit value.
func New(seed uint64) *Rand {
	r := &Rand{core: newChacha(pcgSeed(seed), chachaRounds)}
	r.idx = bufWords
	return r
}

// Seeded returns a generator for an optional seed string. A nil seed uses
// DefaultSeed; any string, including the empty one, is hashed.
func Seeded(seed *string) *Rand {
	if seed == nil {
		return New(DefaultSeed)
	}
	return New(HashString(*seed))
}

func (r *Rand) refill() {
	for b := 0; b < bufBlocks; b++ {
		r.core.block(r.buf[b*blockWords : (b+1)*blockWords])
	}
	r.idx = 0
}

// Uint32 returns the next word of the stream.
func (r *Rand) Uint32() uint32 {
	if r.idx >= bufWords {
		r.refill()
	}
	v := r.buf[r.idx]
	r.idx++
	return v
}

// Uint64 returns the next two words, low word first. A read that
// straddles the buffer end takes its high word from the next refill.
func (r *Rand) Uint64() uint64 {
	switch {
	case r.idx < bufWords-1:
		v := uint64(r.buf[r.idx+1])<<32 | uint64(r.buf[r.idx])
		r.idx += 2
		return v
	case r.idx >= bufWords:
		r.refill()
		r.idx = 2
		return uint64(r.buf[1])<<32 | uint64(r.buf[0])
	default:
		lo := r.buf[bufWords-1]
		r.refill()
		r.idx = 1
		return uint64(r.buf[0])<<32 | uint64(lo)
	}
}

// IntN returns a uniform index in [0, n). n must be positive.
func (r *Rand) IntN(n int) int {
	if n <= 0 {
		panic(fmt.Sprintf("random: IntN called with n = %d", n))
	}
	if uint64(n) <= math.MaxUint32 {
		return int(r.uint32Below(uint32(n)))
	}
	return int(r.uint64Below(uint64(n)))
}

// Range returns a uniform integer in the half-open range [lo, hi).
func (r *Rand) Range(lo, hi int) int {
	if lo >= hi {
		panic(fmt.Sprintf("random: empty range [%d, %d)", lo, hi))
	}
	return lo + int(r.uint64Below(uint64(hi-lo)))
}

// Float64 returns a uniform float in [0, 1) built from the top 53 bits of
// one Uint64.
func (r *Rand) Float64() float64 {
	return float64(r.Uint64()>>11) * (1.0 / (1 << 53))
}

// Shuffle permutes n elements, walking from the back.
func (r *Rand) Shuffle(n int, swap func(i, j int)) {
	for i := n - 1; i > 0; i-- {
		swap(i, r.IntN(i+1))
	}
}

// uint32Below samples [0, n) by widening multiply with a rejection zone
// aligned to the leading zeros of n.
func (r *Rand) uint32Below(n uint32) uint32 {
	zone := (n << bits.LeadingZeros32(n)) - 1
	for {
		hi, lo := bits.Mul32(r.Uint32(), n)
		if lo <= zone {
			return hi
		}
	}
}

func (r *Rand) uint64Below(n uint64) uint64 {
	zone := (n << bits.LeadingZeros64(n)) - 1
	for {
		hi, lo := bits.Mul64(r.Uint64(), n)
		if lo <= zone {
			return hi
		}
	}
}
