package flourish

import (
	"encoding/binary"
	"hash/fnv"
	"math/rand/v2"
)

// Stream selectors for the two PCG generators combined by SeededRand.
const (
	rngStreamHigh = 666
	rngStreamLow  = 123
)

// pcgPair joins the upper 32 bits of two independently sequenced PCG
// generators into one 64-bit output.
type pcgPair struct {
	hi, lo *rand.PCG
}

func (p *pcgPair) Uint64() uint64 {
	return (p.hi.Uint64()>>32)<<32 | p.lo.Uint64()>>32
}

// SeededRand is a deterministic generator. Two instances built from the same
// seed yield identical sequences on every platform and every run, which keeps
// particle layouts reproducible between frames and in snapshots.
type SeededRand struct {
	*rand.Rand
}

// NewSeededRand returns a generator for the given seed.
func NewSeededRand(seed uint64) *SeededRand {
	src := &pcgPair{
		hi: rand.NewPCG(seed, rngStreamHigh),
		lo: rand.NewPCG(seed, rngStreamLow),
	}
	return &SeededRand{Rand: rand.New(src)}
}

// Range returns a value in [lo, hi).
func (r *SeededRand) Range(lo, hi float64) float64 {
	if lo == hi {
		return lo
	}
	return lo + r.Float64()*(hi-lo)
}

// Sign returns -1 or 1 with equal probability.
func (r *SeededRand) Sign() float64 {
	if r.IntN(2) == 0 {
		return -1
	}
	return 1
}

// SeedFor derives a stable seed from identity components such as a node ID,
// an effect slot, and a particle spawn index.
func SeedFor(parts ...uint64) uint64 {
	h := fnv.New64a()
	var buf [8]byte
	for _, p := range parts {
		binary.LittleEndian.PutUint64(buf[:], p)
		_, _ = h.Write(buf[:])
	}
	return h.Sum64()
}
