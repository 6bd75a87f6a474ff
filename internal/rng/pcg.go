package rng

import (
	"fmt"
	"hash/fnv"
	"math"
	"math/rand/v2"
)

// pcgSource is the fast default Source, backed by the standard library's
// PCG generator.
type pcgSource struct {
	r *rand.Rand
}

// NewPCG returns a fast Source seeded from a single word. The two PCG state
// words are derived by salting the seed through FNV-1a.
func NewPCG(seed uint64) Source {
	// Non-cryptographic PRNG is intentional for deterministic generation.
	// #nosec G404
	return &pcgSource{r: rand.New(rand.NewPCG(seedWord(seed, "a"), seedWord(seed, "b")))}
}

func seedWord(seed uint64, salt string) uint64 {
	h := fnv.New64a()
	_, _ = fmt.Fprintf(h, "%d:%s", seed, salt)
	return h.Sum64()
}

func (p *pcgSource) NextInt() int32 {
	return p.r.Int32N(math.MaxInt32)
}

func (p *pcgSource) NextIntMax(max int32) int32 {
	if max <= 0 {
		return 0
	}
	return p.r.Int32N(max)
}

func (p *pcgSource) NextIntRange(min, max int32) int32 {
	if min >= max {
		return min
	}
	return min + int32(p.r.Int64N(int64(max)-int64(min)))
}

func (p *pcgSource) NextFloat() float64 {
	return p.r.Float64()
}

func (p *pcgSource) NextBytes(buf []byte) {
	for i := range buf {
		buf[i] = byte(p.r.Uint32())
	}
}
