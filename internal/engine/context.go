package engine

import (
	"log/slog"

	"github.com/vk/morphgrid/internal/grid"
	"github.com/vk/morphgrid/internal/rng"
)

// Change records one rewritten cell position.
type Change struct {
	X, Y, Z int
}

// ExecutionContext carries the mutable run state shared by every node during
// a turn: the grid, the random source, and the change journal.
//
// Changes holds every cell written since the run started, in write order.
// First[t] is the offset in Changes where turn t begins, so a node that last
// scanned the grid on turn t catches up by re-examining Changes[First[t]:].
type ExecutionContext struct {
	Grid   *grid.Grid
	Random rng.Source
	Logger *slog.Logger

	Changes []Change
	First   []int
	Counter int
}

// NewExecutionContext returns a context for turn zero.
func NewExecutionContext(g *grid.Grid, src rng.Source) *ExecutionContext {
	return &ExecutionContext{Grid: g, Random: src, First: []int{0}}
}

// RecordChange appends a cell write to the journal.
func (c *ExecutionContext) RecordChange(x, y, z int) {
	c.Changes = append(c.Changes, Change{X: x, Y: y, Z: z})
}

// NextTurn closes the current turn, recording where its changes end.
func (c *ExecutionContext) NextTurn() {
	c.Counter++
	c.First = append(c.First, len(c.Changes))
}

func (c *ExecutionContext) log() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}
