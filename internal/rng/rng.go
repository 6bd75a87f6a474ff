// Package rng provides the deterministic random sources used by the engine.
//
// Two implementations exist: a fast PCG-backed source for everyday runs and
// a legacy source that reproduces the .NET System.Random sequence bit for
// bit, used to replay grids recorded by tools built on that generator. The
// two produce different streams, so a run is only reproducible against the
// source kind it was recorded with.
package rng

import "encoding/binary"

// Source is the random interface consumed by the engine. The method set
// mirrors the classic System.Random surface: Next, Next(max),
// Next(min, max), NextDouble and NextBytes.
type Source interface {
	// NextInt returns a non-negative integer in [0, 1<<31-1).
	NextInt() int32

	// NextIntMax returns an integer in [0, max), or 0 when max <= 0.
	NextIntMax(max int32) int32

	// NextIntRange returns an integer in [min, max), or min when min >= max.
	NextIntRange(min, max int32) int32

	// NextFloat returns a float64 in [0.0, 1.0).
	NextFloat() float64

	// NextBytes fills buf with random bytes.
	NextBytes(buf []byte)
}

// IntN returns an index in [0, n) computed as int(NextFloat()*n), or 0 when
// n <= 0. The truncated-multiply form is the one recorded runs were drawn
// with, so it is part of the reproducibility contract.
func IntN(s Source, n int) int {
	if n <= 0 {
		return 0
	}
	return int(s.NextFloat() * float64(n))
}

// Bool returns true with probability one half.
func Bool(s Source) bool {
	return s.NextFloat() < 0.5
}

// Uint64 assembles a 64-bit value from eight little-endian random bytes.
// Used for seeding sub-sources.
func Uint64(s Source) uint64 {
	var b [8]byte
	s.NextBytes(b[:])
	return binary.LittleEndian.Uint64(b[:])
}

// ShuffleInto fills dst with a uniform random permutation of [0, len(dst)).
// Position i draws j = IntN(s, i+1), moves dst[j] up to i and writes i at j
// (the inside-out Fisher-Yates variant). The ascending draw order is fixed:
// reversing it yields a different, incompatible stream.
func ShuffleInto(dst []int, s Source) {
	for i := range dst {
		j := IntN(s, i+1)
		dst[i] = dst[j]
		dst[j] = i
	}
}

// ShuffleIndices returns a fresh random permutation of [0, n).
func ShuffleIndices(n int, s Source) []int {
	dst := make([]int, n)
	ShuffleInto(dst, s)
	return dst
}
