package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/morphgrid/internal/grid"
	"github.com/vk/morphgrid/internal/rng"
)

func TestRuleNodeIncrementalScan(t *testing.T) {
	g := mustGrid(t, 3, 1, 1, "BW")
	for i := range g.State {
		g.State[i] = 1
	}
	node := NewOneNode([]*grid.Rule{mustRule(t, g, "B", "W")}, g.Len())
	ctx := NewExecutionContext(g, rng.NewPCG(1))

	require.False(t, node.Go(ctx), "nothing matches an all-white grid")

	g.State[1] = 0
	ctx.RecordChange(1, 0, 0)
	ctx.NextTurn()

	require.True(t, node.Go(ctx), "the rescan picks up the externally changed cell")
	assert.Equal(t, []byte{1, 1, 1}, g.State)
}

func TestRuleNodeMatchDeduplication(t *testing.T) {
	g := mustGrid(t, 3, 1, 1, "BW")
	for i := range g.State {
		g.State[i] = 1
	}
	node := NewOneNode([]*grid.Rule{mustRule(t, g, "B", "W")}, g.Len())
	ctx := NewExecutionContext(g, rng.NewPCG(1))

	require.False(t, node.Go(ctx))

	g.State[1] = 0
	ctx.RecordChange(1, 0, 0)
	ctx.RecordChange(1, 0, 0)
	ctx.NextTurn()

	require.True(t, node.computeMatches(ctx, false))
	assert.Equal(t, 1, node.matchCount, "repeated change entries queue the origin once")
}

func TestRuleNodeStepsGate(t *testing.T) {
	g := mustGrid(t, 5, 1, 1, "BW")
	node := NewOneNode([]*grid.Rule{mustRule(t, g, "B", "W")}, g.Len())
	node.SetSteps(2)
	ctx := NewExecutionContext(g, rng.NewPCG(1))

	require.True(t, node.Go(ctx))
	ctx.NextTurn()
	require.True(t, node.Go(ctx))
	ctx.NextTurn()
	require.False(t, node.Go(ctx), "the step cap stops the node")
	assert.Equal(t, 2, countValue(g, 1))
}

func TestRuleNodeResetRescansFromScratch(t *testing.T) {
	g := mustGrid(t, 2, 1, 1, "BW")
	node := NewOneNode([]*grid.Rule{mustRule(t, g, "B", "W")}, g.Len())
	ctx := NewExecutionContext(g, rng.NewPCG(1))

	for node.Go(ctx) {
		ctx.NextTurn()
	}
	assert.Equal(t, []byte{1, 1}, g.State)

	g.Clear()
	node.Reset()
	require.True(t, node.Go(ctx), "reset forgets the exhausted arena")
}

func TestRuleNodeBoundsCoverOutputFootprint(t *testing.T) {
	g := mustGrid(t, 3, 1, 1, "BW")
	// A one-cell input with a two-cell output: the rightmost column cannot
	// host the wider footprint.
	rule := grid.NewRule([]uint32{1}, 1, 1, 1, []byte{1, 1}, 2, 1, 1, g.C, 1.0)
	node := NewOneNode([]*grid.Rule{rule}, g.Len())
	ctx := NewExecutionContext(g, rng.NewPCG(1))

	require.True(t, node.computeMatches(ctx, false))
	assert.Equal(t, 2, node.matchCount)
}

func TestRuleNodeStructure(t *testing.T) {
	g := mustGrid(t, 3, 1, 1, "BW")
	node := NewOneNode([]*grid.Rule{mustRule(t, g, "B", "W")}, g.Len())
	node.SetSteps(4)

	s := node.Structure()
	assert.Equal(t, "one", s.Type)
	assert.Equal(t, []string{"[1x1x1 -> 1x1x1] p=1"}, s.Rules)
	assert.Equal(t, 4, s.Config["steps"])
}
