package engine

import (
	"math"

	"github.com/vk/morphgrid/internal/grid"
	"github.com/vk/morphgrid/internal/rng"
)

// OneNode applies a single match of one of its rules per turn. Without
// heuristics the match is drawn uniformly; with fields or observations the
// draw is biased toward matches that lower the potential of the goal.
type OneNode struct {
	ruleNode
}

func NewOneNode(rules []*grid.Rule, gridLen int) *OneNode {
	return &OneNode{ruleNode: newRuleNode(rules, gridLen)}
}

func (n *OneNode) IsBranch() bool { return false }

func (n *OneNode) Reset() {
	n.resetData()
	n.clearMatchMask()
}

func (n *OneNode) Structure() NodeStructure {
	return NodeStructure{Type: "one", Rules: n.ruleStrings(), Config: n.structureConfig()}
}

func (n *OneNode) Go(ctx *ExecutionContext) bool {
	if !n.computeMatches(ctx, false) {
		return false
	}
	n.lastMatchedTurn = ctx.Counter

	if n.trajectory != nil {
		if n.counter >= len(n.trajectory) {
			return false
		}
		// Replay bypasses the change journal; downstream nodes rescan from
		// scratch because their own lastMatchedTurn predates the jump.
		copy(ctx.Grid.State, n.trajectory[n.counter])
		n.counter++
		return true
	}

	m, ok := n.randomMatch(ctx)
	if !ok {
		return false
	}
	applyMatch(ctx, n.rules[m.r], m.x, m.y, m.z)
	n.last[m.r] = true
	n.counter++
	return true
}

// randomMatch picks the match to apply this turn. Stale entries, left behind
// by other nodes rewriting the grid, are dropped as they are encountered.
func (n *OneNode) randomMatch(ctx *ExecutionContext) (match, bool) {
	if n.potentials != nil {
		return n.heuristicMatch(ctx)
	}

	g := ctx.Grid
	for n.matchCount > 0 {
		idx := rng.IntN(ctx.Random, n.matchCount)
		m := n.matches[idx]
		n.matches[idx] = n.matches[n.matchCount-1]
		n.matchCount--
		n.matchMask[m.r][g.Index(m.x, m.y, m.z)] = false
		if g.Matches(n.rules[m.r], m.x, m.y, m.z) {
			return m, true
		}
	}
	return match{}, false
}

// heuristicMatch scores every live match with its pointwise potential delta
// and keeps the best one. The winner stays in the match list and mask; only
// stale entries are removed.
func (n *OneNode) heuristicMatch(ctx *ExecutionContext) (match, bool) {
	g := ctx.Grid

	if n.observations != nil && goalReached(g.State, n.future) {
		n.futureComputed = false
		return match{}, false
	}

	maxKey := -1000.0
	argmax := -1
	firstHeuristic := 0.0
	firstScored := false

	for k := 0; k < n.matchCount; {
		m := n.matches[k]
		if !g.Matches(n.rules[m.r], m.x, m.y, m.z) {
			n.matchMask[m.r][g.Index(m.x, m.y, m.z)] = false
			n.matches[k] = n.matches[n.matchCount-1]
			n.matchCount--
			continue
		}

		heuristic, reachable := deltaPointwise(g.State, n.rules[m.r], m.x, m.y, m.z,
			n.fields, n.potentials, g.MX, g.MY)
		if reachable {
			h := float64(heuristic)
			if !firstScored {
				firstHeuristic = h
				firstScored = true
			}
			u := ctx.Random.NextFloat()
			var key float64
			if n.temperature > 0 {
				key = math.Pow(u, math.Exp((h-firstHeuristic)/n.temperature))
			} else {
				key = -h + 0.001*u
			}
			if key > maxKey {
				maxKey = key
				argmax = k
			}
		}
		k++
	}

	if argmax < 0 {
		return match{}, false
	}
	return n.matches[argmax], true
}

// applyMatch writes the rule output at the match origin, recording every
// cell whose value actually changed.
func applyMatch(ctx *ExecutionContext, rule *grid.Rule, x, y, z int) {
	g := ctx.Grid
	for dz := 0; dz < rule.OMZ; dz++ {
		for dy := 0; dy < rule.OMY; dy++ {
			for dx := 0; dx < rule.OMX; dx++ {
				value := rule.Output[dx+dy*rule.OMX+dz*rule.OMX*rule.OMY]
				if value == grid.AnyValue {
					continue
				}
				sx, sy, sz := x+dx, y+dy, z+dz
				si := g.Index(sx, sy, sz)
				if g.State[si] != value {
					g.State[si] = value
					ctx.RecordChange(sx, sy, sz)
				}
			}
		}
	}
}
