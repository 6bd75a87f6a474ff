package grid

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustGrid(t *testing.T, mx, my, mz int, symbols string) *Grid {
	t.Helper()
	g, err := NewGrid(mx, my, mz, symbols)
	require.NoError(t, err)
	return g
}

func TestParsePattern(t *testing.T) {
	t.Run("one dimensional", func(t *testing.T) {
		chars, mx, my, mz, err := parsePattern("BW")
		require.NoError(t, err)
		assert.Equal(t, []rune{'B', 'W'}, chars)
		assert.Equal(t, [3]int{2, 1, 1}, [3]int{mx, my, mz})
	})

	t.Run("rows fill y", func(t *testing.T) {
		chars, mx, my, mz, err := parsePattern("RB/WW")
		require.NoError(t, err)
		assert.Equal(t, [3]int{2, 2, 1}, [3]int{mx, my, mz})
		assert.Equal(t, []rune{'R', 'B', 'W', 'W'}, chars)
	})

	t.Run("depth layers are stored reversed", func(t *testing.T) {
		chars, mx, my, mz, err := parsePattern("AB CD")
		require.NoError(t, err)
		assert.Equal(t, [3]int{2, 1, 2}, [3]int{mx, my, mz})
		// The last layer in the string is z = 0.
		assert.Equal(t, []rune{'C', 'D', 'A', 'B'}, chars)
	})

	t.Run("rejects empty and ragged patterns", func(t *testing.T) {
		_, _, _, _, err := parsePattern("")
		assert.ErrorIs(t, err, ErrEmptyPattern)

		_, _, _, _, err = parsePattern("AB/C")
		assert.ErrorIs(t, err, ErrRaggedPattern)

		_, _, _, _, err = parsePattern("AB C")
		assert.ErrorIs(t, err, ErrRaggedPattern)

		_, _, _, _, err = parsePattern("AB/CD EF")
		assert.ErrorIs(t, err, ErrRaggedPattern)
	})
}

func TestParseRule(t *testing.T) {
	t.Run("single cell", func(t *testing.T) {
		g := mustGrid(t, 5, 5, 1, "BW")
		r, err := ParseRule("B", "W", g)
		require.NoError(t, err)

		assert.Equal(t, []uint32{0b01}, r.Input)
		assert.Equal(t, []byte{1}, r.Output)
		assert.Equal(t, 1.0, r.P)
	})

	t.Run("wildcard input matches everything", func(t *testing.T) {
		g := mustGrid(t, 5, 5, 1, "BW")
		r, err := ParseRule("*", "W", g)
		require.NoError(t, err)
		assert.Equal(t, uint32(0b11), r.Input[0])
		assert.Equal(t, byte(AnyValue), r.BInput[0])
	})

	t.Run("wildcard output keeps the cell", func(t *testing.T) {
		g := mustGrid(t, 5, 5, 1, "BW")
		r, err := ParseRule("BW", "W*", g)
		require.NoError(t, err)
		assert.Equal(t, byte(1), r.Output[0])
		assert.Equal(t, AnyValue, r.Output[1])
	})

	t.Run("union symbols resolve through the wave table", func(t *testing.T) {
		g := mustGrid(t, 5, 5, 1, "BRW")
		require.NoError(t, g.Union('?', "BR"))

		r, err := ParseRule("?", "W", g)
		require.NoError(t, err)
		assert.Equal(t, uint32(0b011), r.Input[0])
		// The compact form keeps the lowest accepted symbol.
		assert.Equal(t, byte(0), r.BInput[0])
	})

	t.Run("errors", func(t *testing.T) {
		g := mustGrid(t, 5, 5, 1, "BW")

		_, err := ParseRule("X", "W", g)
		var unknown *UnknownSymbolError
		require.ErrorAs(t, err, &unknown)
		assert.Equal(t, 'X', unknown.Symbol)

		_, err = ParseRule("B", "X", g)
		assert.ErrorAs(t, err, &unknown)

		_, err = ParseRule("BW", "W", g)
		assert.ErrorIs(t, err, ErrDimensionMismatch)

		_, err = ParseRule("", "W", g)
		assert.ErrorIs(t, err, ErrEmptyPattern)
	})
}

func TestRuleShiftTables(t *testing.T) {
	g := mustGrid(t, 5, 5, 1, "BRW")

	t.Run("input shifts per accepted symbol", func(t *testing.T) {
		r, err := ParseRule("BR", "WW", g)
		require.NoError(t, err)

		assert.Equal(t, []Offset{{0, 0, 0}}, r.IShifts[0])
		assert.Equal(t, []Offset{{1, 0, 0}}, r.IShifts[1])
		assert.Empty(t, r.IShifts[2])
	})

	t.Run("wildcard input lands in every symbol's list", func(t *testing.T) {
		r, err := ParseRule("*", "W", g)
		require.NoError(t, err)
		for v := 0; v < int(g.C); v++ {
			assert.Equal(t, []Offset{{0, 0, 0}}, r.IShifts[v])
		}
	})

	t.Run("output shifts follow written symbols", func(t *testing.T) {
		r, err := ParseRule("BB", "WR", g)
		require.NoError(t, err)

		require.NotNil(t, r.OShifts)
		assert.Empty(t, r.OShifts[0])
		assert.Equal(t, []Offset{{1, 0, 0}}, r.OShifts[1])
		assert.Equal(t, []Offset{{0, 0, 0}}, r.OShifts[2])
	})

	t.Run("kept output cells land in every symbol's list", func(t *testing.T) {
		r, err := ParseRule("BB", "W*", g)
		require.NoError(t, err)
		for v := 0; v < int(g.C); v++ {
			assert.Contains(t, r.OShifts[v], Offset{1, 0, 0})
		}
	})

	t.Run("absent when footprints differ", func(t *testing.T) {
		r := NewRule([]uint32{1, 1}, 2, 1, 1, []byte{1}, 1, 1, 1, g.C, 1.0)
		assert.Nil(t, r.OShifts)
	})
}

func TestRuleZRotated(t *testing.T) {
	g := mustGrid(t, 5, 5, 1, "ABCD")
	r, err := ParseRule("AB", "CD", g)
	require.NoError(t, err)

	rot := r.ZRotated()
	assert.Equal(t, [2]int{1, 2}, [2]int{rot.IMX, rot.IMY})
	// The cell at x=1 moves to y=0.
	assert.Equal(t, r.Input[1], rot.Input[0])
	assert.Equal(t, r.Input[0], rot.Input[1])

	// Four quarter turns come back to the start.
	full := rot.ZRotated().ZRotated().ZRotated()
	assert.True(t, r.Same(full))
}

func TestRuleReflected(t *testing.T) {
	g := mustGrid(t, 5, 5, 1, "ABCD")
	r, err := ParseRule("AB", "CD", g)
	require.NoError(t, err)

	ref := r.Reflected()
	assert.Equal(t, [2]int{2, 1}, [2]int{ref.IMX, ref.IMY})
	assert.Equal(t, r.Input[1], ref.Input[0])
	assert.Equal(t, r.Input[0], ref.Input[1])
	assert.True(t, r.Same(ref.Reflected()), "reflection is an involution")
}

func TestRuleYRotated(t *testing.T) {
	g := mustGrid(t, 5, 5, 5, "ABCD")

	r, err := ParseRule("ABC", "CBA", g)
	require.NoError(t, err)
	require.Equal(t, [3]int{3, 1, 1}, [3]int{r.IMX, r.IMY, r.IMZ})

	rot := r.YRotated()
	assert.Equal(t, [3]int{1, 1, 3}, [3]int{rot.IMX, rot.IMY, rot.IMZ})

	// (x, y, z) -> (z, y, IMX-1-x): the cell at x=0 moves to z=2.
	assert.Equal(t, r.Input[0], rot.Input[2])
	assert.Equal(t, r.Input[2], rot.Input[0])
}

func TestRuleSame(t *testing.T) {
	g := mustGrid(t, 5, 5, 1, "BW")
	r1, err := ParseRule("BW", "WB", g)
	require.NoError(t, err)
	r2, err := ParseRule("BW", "WB", g)
	require.NoError(t, err)
	r3, err := ParseRule("WB", "BW", g)
	require.NoError(t, err)

	assert.True(t, r1.Same(r2))
	assert.False(t, r1.Same(r3))
}

func TestRuleString(t *testing.T) {
	g := mustGrid(t, 5, 5, 1, "BW")
	r, err := ParseRule("BW", "WB", g)
	require.NoError(t, err)
	assert.Equal(t, "[2x1x1 -> 2x1x1] p=1", r.String())
}
