package engine

import (
	"github.com/vk/morphgrid/internal/grid"
)

// match is one place where a rule can currently be applied: the rule index
// and the grid coordinates of the match origin.
type match struct {
	r       int
	x, y, z int
}

// ruleNode is the match-tracking core shared by OneNode, AllNode and
// ParallelNode: the rule set, an arena of live matches and per-rule masks
// that keep the arena free of duplicates across incremental rescans. It also
// carries the optional goal machinery (fields, observations, trajectory
// search) that biases or replaces random match selection.
type ruleNode struct {
	rules   []*grid.Rule
	gridLen int

	counter int
	// steps caps how many turns the node may act; zero means unlimited.
	steps int

	matches    []match
	matchCount int
	// lastMatchedTurn is the turn the arena was last brought up to date,
	// -1 before the first scan.
	lastMatchedTurn int
	matchMask       [][]bool
	// last[r] reports whether rule r fired during the most recent turn.
	last []bool

	potentials  [][]int
	fields      []*Field
	temperature float64

	observations   []*Observation
	future         []uint32
	futureComputed bool

	search           bool
	limit            int
	depthCoefficient float64
	// trajectory is the precomputed state sequence found by search; nil
	// means no search ran or it found nothing.
	trajectory [][]byte
}

func newRuleNode(rules []*grid.Rule, gridLen int) ruleNode {
	mask := make([][]bool, len(rules))
	for r := range mask {
		mask[r] = make([]bool, gridLen)
	}
	return ruleNode{
		rules:           rules,
		gridLen:         gridLen,
		lastMatchedTurn: -1,
		matchMask:       mask,
		last:            make([]bool, len(rules)),
		limit:           -1,
	}
}

// SetSteps caps how many turns the node may act; zero means unlimited.
func (n *ruleNode) SetSteps(steps int) { n.steps = steps }

// SetFields installs distance fields, indexed by cell value, together with
// the temperature that controls how greedily matches follow them.
func (n *ruleNode) SetFields(fields []*Field, temperature float64) {
	n.fields = fields
	n.temperature = temperature
	n.potentials = makePotentials(len(fields), n.gridLen)
}

// SetObservations installs goal observations, indexed by cell value.
func (n *ruleNode) SetObservations(observations []*Observation) {
	n.observations = observations
	n.future = make([]uint32, n.gridLen)
}

// SetSearch switches the node from potential-guided matching to trajectory
// search with the given board limit (negative for unlimited) and depth
// weighting.
func (n *ruleNode) SetSearch(limit int, depthCoefficient float64) {
	n.search = true
	n.limit = limit
	n.depthCoefficient = depthCoefficient
}

func makePotentials(colors, gridLen int) [][]int {
	p := make([][]int, colors)
	for c := range p {
		p[c] = make([]int, gridLen)
	}
	return p
}

// resetData rewinds the node without clearing the match mask; OneNode and
// AllNode clear the mask themselves because ParallelNode never populates it.
func (n *ruleNode) resetData() {
	n.lastMatchedTurn = -1
	n.counter = 0
	n.futureComputed = false
	n.trajectory = nil
	for r := range n.last {
		n.last[r] = false
	}
}

func (n *ruleNode) clearMatchMask() {
	for _, mask := range n.matchMask {
		for i := range mask {
			mask[i] = false
		}
	}
	n.matchCount = 0
}

// pushMatch appends to the arena, reusing slots freed by earlier turns.
func (n *ruleNode) pushMatch(m match) {
	if n.matchCount < len(n.matches) {
		n.matches[n.matchCount] = m
	} else {
		n.matches = append(n.matches, m)
	}
	n.matchCount++
}

// fitsBounds keeps the larger of the rule's input and output footprints
// inside the grid.
func fitsBounds(rule *grid.Rule, x, y, z, mx, my, mz int) bool {
	return x >= 0 && y >= 0 && z >= 0 &&
		x+max(rule.IMX, rule.OMX) <= mx &&
		y+max(rule.IMY, rule.OMY) <= my &&
		z+max(rule.IMZ, rule.OMZ) <= mz
}

// scanAllMatches rebuilds the arena from scratch. Each rule walks the grid
// with a stride of its own input size and probes every shifted origin that
// could cover the visited cell.
func (n *ruleNode) scanAllMatches(ctx *ExecutionContext) {
	n.matchCount = 0
	g := ctx.Grid

	for r, rule := range n.rules {
		mask := n.matchMask[r]
		for z := rule.IMZ - 1; z < g.MZ; z += rule.IMZ {
			for y := rule.IMY - 1; y < g.MY; y += rule.IMY {
				for x := rule.IMX - 1; x < g.MX; x += rule.IMX {
					value := g.State[g.Index(x, y, z)]
					if int(value) >= len(rule.IShifts) {
						continue
					}
					for _, shift := range rule.IShifts[value] {
						sx := x - shift.X
						sy := y - shift.Y
						sz := z - shift.Z
						if !fitsBounds(rule, sx, sy, sz, g.MX, g.MY, g.MZ) {
							continue
						}
						if g.Matches(rule, sx, sy, sz) {
							// The strided walk visits each origin at most
							// once per rule, so the mask needs no check
							// before setting.
							mask[g.Index(sx, sy, sz)] = true
							n.pushMatch(match{r: r, x: sx, y: sy, z: sz})
						}
					}
				}
			}
		}
	}
}

// scanIncrementalMatches extends the arena with matches created by the cells
// changed since this node last ran.
func (n *ruleNode) scanIncrementalMatches(ctx *ExecutionContext) {
	g := ctx.Grid
	start := 0
	if n.lastMatchedTurn < len(ctx.First) {
		start = ctx.First[n.lastMatchedTurn]
	}

	for _, change := range ctx.Changes[start:] {
		value := g.State[g.Index(change.X, change.Y, change.Z)]
		for r, rule := range n.rules {
			if int(value) >= len(rule.IShifts) {
				continue
			}
			mask := n.matchMask[r]
			for _, shift := range rule.IShifts[value] {
				sx := change.X - shift.X
				sy := change.Y - shift.Y
				sz := change.Z - shift.Z
				if !fitsBounds(rule, sx, sy, sz, g.MX, g.MY, g.MZ) {
					continue
				}
				si := g.Index(sx, sy, sz)
				if !mask[si] && g.Matches(rule, sx, sy, sz) {
					mask[si] = true
					n.pushMatch(match{r: r, x: sx, y: sy, z: sz})
				}
			}
		}
	}
}

// computeMatches brings the arena up to date for the current turn. It
// reports false when the node cannot act at all: its step cap is reached,
// its observations cannot be established, or an essential field has no
// targets.
func (n *ruleNode) computeMatches(ctx *ExecutionContext, all bool) bool {
	for r := range n.last {
		n.last[r] = false
	}

	if n.steps > 0 && n.counter >= n.steps {
		return false
	}

	g := ctx.Grid

	if n.observations != nil && !n.futureComputed {
		if !computeFutureSetPresent(n.future, g.State, n.observations) {
			return false
		}
		n.futureComputed = true

		if n.search {
			n.trajectory = nil
			tries := 1
			if n.limit >= 0 {
				tries = 20
			}
			for k := 0; k < tries && n.trajectory == nil; k++ {
				seed := ctx.Random.NextInt()
				n.trajectory = runSearch(g.State, n.future, n.rules,
					g.MX, g.MY, g.MZ, int(g.C), all,
					n.limit, n.depthCoefficient, seed, ctx.log())
			}
			if n.trajectory == nil {
				ctx.log().Warn("Search found no trajectory, falling back to live matching.",
					"tries", tries)
			}
		} else {
			if n.potentials == nil {
				n.potentials = makePotentials(len(n.observations), n.gridLen)
			}
			computeBackwardPotentials(n.potentials, n.future, g.MX, g.MY, g.MZ, n.rules)
		}
	}

	if n.lastMatchedTurn >= 0 {
		n.scanIncrementalMatches(ctx)
	} else {
		n.scanAllMatches(ctx)
	}

	if n.fields != nil && n.potentials != nil {
		anySuccess := false
		anyComputation := false
		for c, field := range n.fields {
			if field == nil {
				continue
			}
			if n.counter == 0 || field.Recompute {
				anyComputation = true
				if field.Compute(n.potentials[c], g) {
					anySuccess = true
				} else if field.Essential {
					return false
				}
			}
		}
		if anyComputation && !anySuccess {
			return false
		}
	}

	return true
}

func (n *ruleNode) ruleStrings() []string {
	strs := make([]string, len(n.rules))
	for i, rule := range n.rules {
		strs[i] = rule.String()
	}
	return strs
}

func (n *ruleNode) structureConfig() map[string]any {
	cfg := make(map[string]any)
	if n.steps > 0 {
		cfg["steps"] = n.steps
	}
	if n.fields != nil {
		cfg["temperature"] = n.temperature
	}
	if n.observations != nil {
		cfg["observe"] = true
	}
	if n.search {
		cfg["search"] = true
	}
	if len(cfg) == 0 {
		return nil
	}
	return cfg
}
