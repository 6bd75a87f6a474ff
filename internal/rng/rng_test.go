package rng

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedSource replays a fixed list of doubles and deterministic bytes.
type scriptedSource struct {
	floats []float64
	i      int
}

func (s *scriptedSource) NextInt() int32                    { return 0 }
func (s *scriptedSource) NextIntMax(max int32) int32        { return 0 }
func (s *scriptedSource) NextIntRange(min, max int32) int32 { return min }

func (s *scriptedSource) NextFloat() float64 {
	v := s.floats[s.i%len(s.floats)]
	s.i++
	return v
}

func (s *scriptedSource) NextBytes(buf []byte) {
	for i := range buf {
		buf[i] = byte(i + 1)
	}
}

func TestIntN(t *testing.T) {
	t.Run("zero and negative sizes yield zero without a draw", func(t *testing.T) {
		s := &scriptedSource{floats: []float64{0.5}}
		assert.Equal(t, 0, IntN(s, 0))
		assert.Equal(t, 0, IntN(s, -3))
		assert.Equal(t, 0, s.i, "no float should have been consumed")
	})

	t.Run("uses the truncated multiply construction", func(t *testing.T) {
		s := &scriptedSource{floats: []float64{0.0, 0.5, 0.9999999999999999}}
		assert.Equal(t, 0, IntN(s, 5))
		assert.Equal(t, 2, IntN(s, 5))
		assert.Equal(t, 4, IntN(s, 5), "the largest double below 1 must stay in range")
	})
}

func TestBool(t *testing.T) {
	s := &scriptedSource{floats: []float64{0.25, 0.75, 0.5}}
	assert.True(t, Bool(s))
	assert.False(t, Bool(s))
	assert.False(t, Bool(s), "exactly one half is false")
}

func TestUint64(t *testing.T) {
	s := &scriptedSource{floats: []float64{0}}
	// Bytes 01..08 little-endian.
	assert.Equal(t, uint64(0x0807060504030201), Uint64(s))
}

func TestShuffleInto(t *testing.T) {
	t.Run("all-zero draws pin the inside-out order", func(t *testing.T) {
		s := &scriptedSource{floats: []float64{0.0}}
		dst := make([]int, 4)
		ShuffleInto(dst, s)
		// i=1 moves 0 up, i=2 moves 1 up, i=3 moves 2 up; slot 0 holds the
		// latest index. A reversed walk would produce [0 1 2 3] here.
		assert.Equal(t, []int{3, 0, 1, 2}, dst)
	})

	t.Run("maximal draws produce the identity", func(t *testing.T) {
		s := &scriptedSource{floats: []float64{0.9999999999999999}}
		dst := make([]int, 5)
		ShuffleInto(dst, s)
		assert.Equal(t, []int{0, 1, 2, 3, 4}, dst)
	})
}

func TestShuffleIndices(t *testing.T) {
	t.Run("result is a permutation", func(t *testing.T) {
		s := NewPCG(7)
		perm := ShuffleIndices(100, s)
		require.Len(t, perm, 100)

		sorted := append([]int(nil), perm...)
		sort.Ints(sorted)
		for i, v := range sorted {
			require.Equal(t, i, v, "every index must occur exactly once")
		}
	})

	t.Run("empty permutation", func(t *testing.T) {
		s := NewPCG(7)
		assert.Empty(t, ShuffleIndices(0, s))
	})
}

func TestNewPCG(t *testing.T) {
	t.Run("is deterministic per seed", func(t *testing.T) {
		a := NewPCG(123)
		b := NewPCG(123)
		for i := 0; i < 100; i++ {
			require.Equal(t, a.NextInt(), b.NextInt())
		}
	})

	t.Run("different seeds diverge", func(t *testing.T) {
		a := NewPCG(1)
		b := NewPCG(2)
		same := true
		for i := 0; i < 10; i++ {
			if a.NextInt() != b.NextInt() {
				same = false
			}
		}
		assert.False(t, same)
	})

	t.Run("respects bounds", func(t *testing.T) {
		s := NewPCG(42)
		for i := 0; i < 200; i++ {
			v := s.NextIntMax(10)
			assert.GreaterOrEqual(t, v, int32(0))
			assert.Less(t, v, int32(10))

			r := s.NextIntRange(5, 15)
			assert.GreaterOrEqual(t, r, int32(5))
			assert.Less(t, r, int32(15))

			f := s.NextFloat()
			assert.GreaterOrEqual(t, f, 0.0)
			assert.Less(t, f, 1.0)
		}
	})

	t.Run("degenerate arguments", func(t *testing.T) {
		s := NewPCG(42)
		assert.Equal(t, int32(0), s.NextIntMax(0))
		assert.Equal(t, int32(0), s.NextIntMax(-5))
		assert.Equal(t, int32(9), s.NextIntRange(9, 9))
		assert.Equal(t, int32(9), s.NextIntRange(9, 3))
	})
}
