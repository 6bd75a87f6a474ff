package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/morphgrid/internal/grid"
)

func mustGrid(t *testing.T, mx, my, mz int, symbols string) *grid.Grid {
	t.Helper()
	g, err := grid.NewGrid(mx, my, mz, symbols)
	require.NoError(t, err)
	return g
}

func mustRule(t *testing.T, g *grid.Grid, input, output string) *grid.Rule {
	t.Helper()
	r, err := grid.ParseRule(input, output, g)
	require.NoError(t, err)
	return r
}

func TestFieldComputeDistances(t *testing.T) {
	g := mustGrid(t, 5, 5, 1, "BW")
	g.State[2+2*5] = 1 // single W target in the center

	f := &Field{Substrate: 1, Zero: 2}
	potential := make([]int, 25)
	require.True(t, f.Compute(potential, g))

	assert.Equal(t, 0, potential[2+2*5], "target cell")
	assert.Equal(t, 1, potential[1+2*5])
	assert.Equal(t, 1, potential[3+2*5])
	assert.Equal(t, 1, potential[2+1*5])
	assert.Equal(t, 1, potential[2+3*5])
	assert.Equal(t, 4, potential[0], "corner sits at manhattan distance 4")
	assert.Equal(t, 4, potential[4+4*5])
}

func TestFieldComputeRoutesAroundWalls(t *testing.T) {
	g := mustGrid(t, 5, 5, 1, "BWX")
	g.State[4+2*5] = 1 // target on the right edge
	for y := 0; y < 5; y++ {
		if y != 2 {
			g.State[2+y*5] = 2 // wall column with a gap at y=2
		}
	}

	f := &Field{Substrate: 1, Zero: 2}
	potential := make([]int, 25)
	require.True(t, f.Compute(potential, g))

	assert.Equal(t, 0, potential[4+2*5])
	assert.Equal(t, 4, potential[0+2*5], "straight through the gap")
	assert.Equal(t, -1, potential[2+0*5], "wall cells stay unreachable")
	assert.Equal(t, -1, potential[2+1*5])
}

func TestFieldComputeNoTargets(t *testing.T) {
	g := mustGrid(t, 5, 5, 1, "BW")

	f := &Field{Substrate: 1, Zero: 2}
	potential := make([]int, 25)
	assert.False(t, f.Compute(potential, g), "no W cell anywhere")
}

func TestDeltaPointwise(t *testing.T) {
	t.Run("unreachable written value disqualifies the match", func(t *testing.T) {
		g := mustGrid(t, 5, 5, 1, "BW")
		rule := mustRule(t, g, "B", "W")

		potentials := [][]int{make([]int, 25), make([]int, 25)}
		for i := range potentials[1] {
			potentials[1][i] = -1
		}
		potentials[1][2+2*5] = 0

		_, ok := deltaPointwise(g.State, rule, 0, 0, 0, nil, potentials, 5, 5)
		assert.False(t, ok)

		delta, ok := deltaPointwise(g.State, rule, 2, 2, 0, nil, potentials, 5, 5)
		require.True(t, ok)
		assert.Equal(t, 0, delta)
	})

	t.Run("sums written minus replaced potential", func(t *testing.T) {
		g := mustGrid(t, 2, 1, 1, "BW")
		rule := mustRule(t, g, "B", "W")

		potentials := [][]int{{3, 3}, {1, 1}}
		delta, ok := deltaPointwise(g.State, rule, 0, 0, 0, nil, potentials, 2, 1)
		require.True(t, ok)
		assert.Equal(t, -2, delta)
	})

	t.Run("inversed fields flip their contribution", func(t *testing.T) {
		g := mustGrid(t, 2, 1, 1, "BW")
		rule := mustRule(t, g, "B", "W")
		potentials := [][]int{{3, 3}, {1, 1}}

		fields := []*Field{{Inversed: true}, nil}
		delta, ok := deltaPointwise(g.State, rule, 0, 0, 0, fields, potentials, 2, 1)
		require.True(t, ok)
		assert.Equal(t, 4, delta, "-2 plus twice the replaced potential")

		fields = []*Field{{Inversed: true}, {Inversed: true}}
		delta, ok = deltaPointwise(g.State, rule, 0, 0, 0, fields, potentials, 2, 1)
		require.True(t, ok)
		assert.Equal(t, 2, delta)
	})

	t.Run("cells the input already admits are not scored", func(t *testing.T) {
		g := mustGrid(t, 2, 1, 1, "BW")
		rule := mustRule(t, g, "*", "W")

		potentials := [][]int{{3, 3}, {-1, -1}}
		delta, ok := deltaPointwise(g.State, rule, 0, 0, 0, nil, potentials, 2, 1)
		require.True(t, ok)
		assert.Equal(t, 0, delta)
	})
}
