package grid

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewGrid(t *testing.T) {
	t.Run("builds value and wave tables", func(t *testing.T) {
		g, err := NewGrid(4, 3, 2, "BRGW")
		require.NoError(t, err)

		assert.Equal(t, 24, g.Len())
		assert.Equal(t, byte(4), g.C)
		assert.False(t, g.Is2D())

		assert.Equal(t, byte(0), g.Values['B'])
		assert.Equal(t, byte(3), g.Values['W'])
		assert.Equal(t, uint32(0b0001), g.Waves['B'])
		assert.Equal(t, uint32(0b1000), g.Waves['W'])
		assert.Equal(t, uint32(0b1111), g.Waves['*'], "wildcard covers the whole alphabet")

		for _, v := range g.State {
			require.Equal(t, byte(0), v)
		}
	})

	t.Run("rejects bad alphabets", func(t *testing.T) {
		_, err := NewGrid(4, 4, 1, "")
		assert.ErrorContains(t, err, "alphabet is empty")

		_, err = NewGrid(4, 4, 1, "BWB")
		assert.ErrorContains(t, err, "duplicate symbol")

		_, err = NewGrid(4, 4, 1, "B*W")
		assert.ErrorContains(t, err, "wildcard")

		big := make([]rune, MaxSymbols+1)
		for i := range big {
			big[i] = rune('a' + i)
		}
		_, err = NewGrid(4, 4, 1, string(big))
		assert.ErrorContains(t, err, "at most")
	})

	t.Run("rejects bad dimensions", func(t *testing.T) {
		_, err := NewGrid(0, 4, 1, "BW")
		assert.ErrorContains(t, err, "must be positive")
	})
}

func TestGridIndex(t *testing.T) {
	g, err := NewGrid(3, 3, 2, "BW")
	require.NoError(t, err)

	assert.Equal(t, 0, g.Index(0, 0, 0))
	assert.Equal(t, 1, g.Index(1, 0, 0))
	assert.Equal(t, 3, g.Index(0, 1, 0))
	assert.Equal(t, 9, g.Index(0, 0, 1))
}

func TestGridWave(t *testing.T) {
	g, err := NewGrid(4, 4, 1, "BW")
	require.NoError(t, err)

	assert.Equal(t, uint32(0b01), g.Wave("B"))
	assert.Equal(t, uint32(0b10), g.Wave("W"))
	assert.Equal(t, uint32(0b11), g.Wave("BW"))
	assert.Equal(t, uint32(0b11), g.Wave("WB"), "order independent")
	assert.Equal(t, uint32(0b01), g.Wave("BX"), "unknown symbols contribute nothing")
	assert.Equal(t, uint32(0b11), g.Wave("*"))
}

func TestGridUnion(t *testing.T) {
	t.Run("registers a combined wave", func(t *testing.T) {
		g, err := NewGrid(4, 4, 1, "BRW")
		require.NoError(t, err)

		require.NoError(t, g.Union('?', "BR"))
		assert.Equal(t, uint32(0b011), g.Waves['?'])
		assert.Equal(t, uint32(0b011), g.Wave("?"))
	})

	t.Run("rejects redefinitions and unknown members", func(t *testing.T) {
		g, err := NewGrid(4, 4, 1, "BRW")
		require.NoError(t, err)

		assert.ErrorContains(t, g.Union('B', "RW"), "already defined")

		err = g.Union('?', "BX")
		var unknown *UnknownSymbolError
		require.ErrorAs(t, err, &unknown)
		assert.Equal(t, 'X', unknown.Symbol)
	})
}

func TestGridClear(t *testing.T) {
	g, err := NewGrid(3, 3, 1, "BW")
	require.NoError(t, err)

	g.State[4] = 1
	g.Mask[4] = true
	g.Clear()

	for i := range g.State {
		require.Equal(t, byte(0), g.State[i])
		require.False(t, g.Mask[i])
	}
}

func TestGridMatches(t *testing.T) {
	t.Run("single cell", func(t *testing.T) {
		g, err := NewGrid(3, 1, 1, "BW")
		require.NoError(t, err)
		r, err := ParseRule("B", "W", g)
		require.NoError(t, err)

		assert.True(t, g.Matches(r, 0, 0, 0))
		g.State[0] = 1
		assert.False(t, g.Matches(r, 0, 0, 0))
		assert.True(t, g.Matches(r, 1, 0, 0))
	})

	t.Run("agrees with a direct per-cell wave check", func(t *testing.T) {
		g, err := NewGrid(5, 4, 1, "BRW")
		require.NoError(t, err)
		// Checkerboard-ish state.
		for i := range g.State {
			g.State[i] = byte(i % 3)
		}

		r, err := ParseRule("RB/W*", "**/**", g)
		require.NoError(t, err)

		// Pattern cells in x + y*2 order.
		pattern := []rune{'R', 'B', 'W', '*'}
		for y := 0; y+r.IMY <= g.MY; y++ {
			for x := 0; x+r.IMX <= g.MX; x++ {
				want := true
				for dy := 0; dy < r.IMY && want; dy++ {
					for dx := 0; dx < r.IMX && want; dx++ {
						wave := g.Waves[pattern[dx+dy*r.IMX]]
						value := g.State[g.Index(x+dx, y+dy, 0)]
						if wave&(1<<value) == 0 {
							want = false
						}
					}
				}
				require.Equal(t, want, g.Matches(r, x, y, 0), "position (%d,%d)", x, y)
			}
		}
	})
}

func TestGridApply(t *testing.T) {
	g, err := NewGrid(4, 1, 1, "BRW")
	require.NoError(t, err)
	r, err := ParseRule("BB", "W*", g)
	require.NoError(t, err)

	g.State[1] = 0
	g.Apply(r, 0, 0, 0)

	assert.Equal(t, byte(2), g.State[0], "first cell rewritten to W")
	assert.Equal(t, byte(0), g.State[1], "kept cell untouched")
}
