package engine

import (
	"github.com/vk/morphgrid/internal/grid"
)

// ParallelNode applies every match simultaneously. All matches read the
// state as it was when the turn began; writes land in a separate buffer
// that is committed once the scan finishes, so overlapping matches never
// observe each other's output.
type ParallelNode struct {
	ruleNode
	newstate []byte
}

func NewParallelNode(rules []*grid.Rule, gridLen int) *ParallelNode {
	return &ParallelNode{
		ruleNode: newRuleNode(rules, gridLen),
		newstate: make([]byte, gridLen),
	}
}

func (n *ParallelNode) IsBranch() bool { return false }

func (n *ParallelNode) Reset() { n.resetData() }

func (n *ParallelNode) Structure() NodeStructure {
	return NodeStructure{Type: "prl", Rules: n.ruleStrings(), Config: n.structureConfig()}
}

func (n *ParallelNode) Go(ctx *ExecutionContext) bool {
	for r := range n.last {
		n.last[r] = false
	}
	if n.steps > 0 && n.counter >= n.steps {
		return false
	}

	g := ctx.Grid
	changesStart := len(ctx.Changes)
	n.matchCount = 0

	for r, rule := range n.rules {
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
						if g.Matches(rule, sx, sy, sz) && n.applyBuffered(ctx, r, sx, sy, sz) {
							n.matchCount++
						}
					}
				}
			}
		}
	}

	for _, change := range ctx.Changes[changesStart:] {
		i := g.Index(change.X, change.Y, change.Z)
		g.State[i] = n.newstate[i]
	}

	n.counter++
	return n.matchCount > 0
}

// applyBuffered stages one match's output in the turn buffer and reports
// whether anything differed from the current state. The probability draw
// happens before anything else so the random stream advances identically
// whether or not the rule fires.
func (n *ParallelNode) applyBuffered(ctx *ExecutionContext, r, x, y, z int) bool {
	rule := n.rules[r]
	if ctx.Random.NextFloat() > rule.P {
		return false
	}
	n.last[r] = true

	g := ctx.Grid
	changed := false
	for dz := 0; dz < rule.OMZ; dz++ {
		for dy := 0; dy < rule.OMY; dy++ {
			for dx := 0; dx < rule.OMX; dx++ {
				value := rule.Output[dx+dy*rule.OMX+dz*rule.OMX*rule.OMY]
				if value == grid.AnyValue {
					continue
				}
				sx, sy, sz := x+dx, y+dy, z+dz
				si := g.Index(sx, sy, sz)
				if value != g.State[si] {
					n.newstate[si] = value
					ctx.RecordChange(sx, sy, sz)
					changed = true
				}
			}
		}
	}
	return changed
}
