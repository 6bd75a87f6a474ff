package engine

import (
	"context"

	"github.com/vk/morphgrid/internal/ctxlog"
	"github.com/vk/morphgrid/internal/grid"
	"github.com/vk/morphgrid/internal/rng"
)

// Interpreter drives a node tree over a grid, one root invocation per step,
// until the root reports exhaustion or a step limit is reached. The change
// journal and turn table live for the whole run so rule nodes can rescan
// incrementally.
type Interpreter struct {
	root   Node
	grid   *grid.Grid
	origin bool

	ectx    *ExecutionContext
	running bool
}

// New returns an interpreter over the given tree and grid. The grid keeps
// whatever state it currently holds until Reset or Run wipes it.
func New(root Node, g *grid.Grid) *Interpreter {
	return &Interpreter{root: root, grid: g}
}

// NewWithOrigin is New with a single seed cell of value 1 placed in the
// grid center on every reset.
func NewWithOrigin(root Node, g *grid.Grid) *Interpreter {
	return &Interpreter{root: root, grid: g, origin: true}
}

// Reset wipes the grid and all bookkeeping and installs a fresh random
// source for the given seed.
func (ip *Interpreter) Reset(seed uint64) {
	ip.ResetWithSource(rng.NewPCG(seed))
}

// ResetWithSource is Reset with a caller-supplied random source, which is
// how runs reproduce reference output from the legacy generator.
func (ip *Interpreter) ResetWithSource(src rng.Source) {
	ip.grid.Clear()
	if ip.origin {
		ip.grid.State[ip.grid.Index(ip.grid.MX/2, ip.grid.MY/2, ip.grid.MZ/2)] = 1
	}
	ip.root.Reset()
	ip.ectx = NewExecutionContext(ip.grid, src)
	ip.running = true
}

// Step executes one turn. The turn counter and change journal advance even
// when the root fails, so the final failing turn is still accounted for.
func (ip *Interpreter) Step(ctx context.Context) bool {
	if !ip.running {
		return false
	}
	ip.ectx.Logger = ctxlog.FromContext(ctx)
	ok := ip.root.Go(ip.ectx)
	ip.ectx.NextTurn()
	if !ok {
		ip.running = false
	}
	return ok
}

// Run resets with the seed and steps until the tree exhausts itself or the
// step limit is hit; steps <= 0 means unlimited. It returns the number of
// turns taken and the context error if the run was cancelled mid-flight.
func (ip *Interpreter) Run(ctx context.Context, seed uint64, steps int) (int, error) {
	ip.Reset(seed)
	for ip.running && (steps <= 0 || ip.Counter() < steps) {
		if err := ctx.Err(); err != nil {
			return ip.Counter(), err
		}
		ip.Step(ctx)
	}
	return ip.Counter(), nil
}

// Grid returns the grid the interpreter mutates in place.
func (ip *Interpreter) Grid() *grid.Grid { return ip.grid }

// Running reports whether the tree can still make progress. It is true
// after a reset and turns false once a step fails.
func (ip *Interpreter) Running() bool { return ip.running }

// Counter returns the number of turns taken since the last reset,
// including the final failing one.
func (ip *Interpreter) Counter() int {
	if ip.ectx == nil {
		return 0
	}
	return ip.ectx.Counter
}

// Changes returns the full change journal for the current run.
func (ip *Interpreter) Changes() []Change {
	if ip.ectx == nil {
		return nil
	}
	return ip.ectx.Changes
}

// First returns the per-turn offsets into Changes.
func (ip *Interpreter) First() []int {
	if ip.ectx == nil {
		return nil
	}
	return ip.ectx.First
}

// TurnChanges returns the cells rewritten during turn t, with turns
// numbered from zero.
func (ip *Interpreter) TurnChanges(t int) []Change {
	if ip.ectx == nil || t < 0 || t >= ip.ectx.Counter {
		return nil
	}
	return ip.ectx.Changes[ip.ectx.First[t]:ip.ectx.First[t+1]]
}

// LastStepChanges returns the cells rewritten during the most recent turn.
func (ip *Interpreter) LastStepChanges() []Change {
	if ip.ectx == nil {
		return nil
	}
	return ip.TurnChanges(ip.ectx.Counter - 1)
}
