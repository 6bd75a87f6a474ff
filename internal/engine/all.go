package engine

import (
	"math"
	"sort"

	"github.com/vk/morphgrid/internal/grid"
	"github.com/vk/morphgrid/internal/rng"
)

// AllNode applies every match it can fit in a single turn. Matches are
// visited in shuffled or heuristic order and each one claims its output
// cells in the grid mask, so overlapping matches later in the order are
// skipped whole.
type AllNode struct {
	ruleNode
}

func NewAllNode(rules []*grid.Rule, gridLen int) *AllNode {
	return &AllNode{ruleNode: newRuleNode(rules, gridLen)}
}

func (n *AllNode) IsBranch() bool { return false }

func (n *AllNode) Reset() {
	n.resetData()
	n.clearMatchMask()
}

func (n *AllNode) Structure() NodeStructure {
	return NodeStructure{Type: "all", Rules: n.ruleStrings(), Config: n.structureConfig()}
}

func (n *AllNode) Go(ctx *ExecutionContext) bool {
	if !n.computeMatches(ctx, true) {
		return false
	}
	n.lastMatchedTurn = ctx.Counter

	if n.matchCount == 0 {
		return false
	}

	g := ctx.Grid
	var ordered []int
	if n.potentials != nil {
		ordered = n.heuristicOrder(ctx)
	} else {
		ordered = rng.ShuffleIndices(n.matchCount, ctx.Random)
	}

	changesStart := len(ctx.Changes)
	for _, k := range ordered {
		m := n.matches[k]
		n.matchMask[m.r][g.Index(m.x, m.y, m.z)] = false
		n.fit(ctx, m)
	}

	for _, change := range ctx.Changes[changesStart:] {
		g.Mask[g.Index(change.X, change.Y, change.Z)] = false
	}

	n.counter++
	n.matchCount = 0
	return len(ctx.Changes) > changesStart
}

// heuristicOrder ranks the live matches by the same key OneNode uses and
// returns their indices best first. Matches whose outputs are unreachable
// under the potentials are left out entirely.
func (n *AllNode) heuristicOrder(ctx *ExecutionContext) []int {
	g := ctx.Grid

	type scored struct {
		index int
		key   float64
	}
	list := make([]scored, 0, n.matchCount)

	firstHeuristic := 0.0
	firstScored := false

	for k := 0; k < n.matchCount; k++ {
		m := n.matches[k]
		heuristic, reachable := deltaPointwise(g.State, n.rules[m.r], m.x, m.y, m.z,
			n.fields, n.potentials, g.MX, g.MY)
		if !reachable {
			continue
		}
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
		list = append(list, scored{index: k, key: key})
	}

	sort.SliceStable(list, func(i, j int) bool { return list[i].key > list[j].key })

	ordered := make([]int, len(list))
	for i, s := range list {
		ordered[i] = s.index
	}
	return ordered
}

// fit applies the match unless any of its output cells is already claimed
// this turn. A blocked match is skipped whole, never partially applied.
func (n *AllNode) fit(ctx *ExecutionContext, m match) {
	g := ctx.Grid
	rule := n.rules[m.r]

	for dz := 0; dz < rule.OMZ; dz++ {
		for dy := 0; dy < rule.OMY; dy++ {
			for dx := 0; dx < rule.OMX; dx++ {
				value := rule.Output[dx+dy*rule.OMX+dz*rule.OMX*rule.OMY]
				if value == grid.AnyValue {
					continue
				}
				if g.Mask[g.Index(m.x+dx, m.y+dy, m.z+dz)] {
					return
				}
			}
		}
	}

	n.last[m.r] = true
	for dz := 0; dz < rule.OMZ; dz++ {
		for dy := 0; dy < rule.OMY; dy++ {
			for dx := 0; dx < rule.OMX; dx++ {
				value := rule.Output[dx+dy*rule.OMX+dz*rule.OMX*rule.OMY]
				if value == grid.AnyValue {
					continue
				}
				sx, sy, sz := m.x+dx, m.y+dy, m.z+dz
				si := g.Index(sx, sy, sz)
				g.Mask[si] = true
				g.State[si] = value
				ctx.RecordChange(sx, sy, sz)
			}
		}
	}
}
