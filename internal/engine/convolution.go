package engine

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/vk/morphgrid/internal/grid"
	"github.com/vk/morphgrid/internal/rng"
)

// ConvolutionRule rewrites cells of one value into another when the
// kernel-weighted count of the listed neighbor values falls inside the
// allowed sums. A nil Sums table makes the rule unconditional.
type ConvolutionRule struct {
	Input  byte
	Output byte
	Values []byte
	Sums   []bool
	P      float64
}

// ParseSumIntervals parses a neighbor-count constraint like "2,5..8" into
// a 28-entry allowed-sum table, inclusive on both range ends.
func ParseSumIntervals(s string) ([]bool, error) {
	sums := make([]bool, 28)
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		lo, hi, isRange := strings.Cut(part, "..")
		if !isRange {
			hi = lo
		}
		minSum, err := strconv.Atoi(strings.TrimSpace(lo))
		if err != nil {
			return nil, fmt.Errorf("invalid neighbor sum %q: %w", part, err)
		}
		maxSum, err := strconv.Atoi(strings.TrimSpace(hi))
		if err != nil {
			return nil, fmt.Errorf("invalid neighbor sum %q: %w", part, err)
		}
		for i := max(minSum, 0); i <= maxSum && i < len(sums); i++ {
			sums[i] = true
		}
	}
	return sums, nil
}

var kernels2D = map[string][]int{
	"VonNeumann": {0, 1, 0, 1, 0, 1, 0, 1, 0},
	"Moore":      {1, 1, 1, 1, 0, 1, 1, 1, 1},
}

var kernels3D = map[string][]int{
	"VonNeumann": {
		0, 0, 0, 0, 1, 0, 0, 0, 0,
		0, 1, 0, 1, 0, 1, 0, 1, 0,
		0, 0, 0, 0, 1, 0, 0, 0, 0,
	},
	"NoCorners": {
		0, 1, 0, 1, 1, 1, 0, 1, 0,
		1, 1, 1, 1, 0, 1, 1, 1, 1,
		0, 1, 0, 1, 1, 1, 0, 1, 0,
	},
}

// ConvolutionNode steps the grid like a cellular automaton: every turn it
// counts each cell's neighbors under a fixed kernel, then rewrites cells
// through the first rule whose constraints hold. Writes happen in place and
// bypass the change journal, so downstream rule nodes rescan in full.
type ConvolutionNode struct {
	rules    []*ConvolutionRule
	kernel   []int
	periodic bool
	counter  int
	steps    int
	// sumfield[cell][value] is the kernel-weighted neighbor count,
	// refreshed at the start of each turn.
	sumfield [][]int
}

// NewConvolutionNode selects the kernel named by neighborhood for the
// grid's dimensionality: VonNeumann or Moore in 2D, VonNeumann or
// NoCorners in 3D.
func NewConvolutionNode(rules []*ConvolutionRule, neighborhood string, periodic bool, g *grid.Grid) (*ConvolutionNode, error) {
	kernels := kernels3D
	if g.Is2D() {
		kernels = kernels2D
	}
	kernel, ok := kernels[neighborhood]
	if !ok {
		return nil, fmt.Errorf("unknown convolution neighborhood %q", neighborhood)
	}

	sumfield := make([][]int, g.Len())
	for i := range sumfield {
		sumfield[i] = make([]int, g.C)
	}
	return &ConvolutionNode{rules: rules, kernel: kernel, periodic: periodic, sumfield: sumfield}, nil
}

// SetSteps caps how many turns the node may act; zero means unlimited.
func (n *ConvolutionNode) SetSteps(steps int) { n.steps = steps }

func (n *ConvolutionNode) IsBranch() bool { return false }

func (n *ConvolutionNode) Reset() {
	n.counter = 0
	for i := range n.sumfield {
		for c := range n.sumfield[i] {
			n.sumfield[i][c] = 0
		}
	}
}

func (n *ConvolutionNode) Structure() NodeStructure {
	return NodeStructure{Type: "convolution", Config: map[string]any{
		"rules":    len(n.rules),
		"periodic": n.periodic,
	}}
}

func (n *ConvolutionNode) Go(ctx *ExecutionContext) bool {
	if n.steps > 0 && n.counter >= n.steps {
		return false
	}

	n.computeSumfield(ctx.Grid)

	changed := false
	for i := range n.sumfield {
		input := ctx.Grid.State[i]
		for _, rule := range n.rules {
			if input != rule.Input || rule.Output == input {
				continue
			}
			if n.ruleFires(rule, i, ctx.Random) {
				ctx.Grid.State[i] = rule.Output
				changed = true
				break
			}
		}
	}

	n.counter++
	return changed
}

// ruleFires draws the probability gate first so the random stream advances
// per candidate cell, then checks the neighbor-sum constraint.
func (n *ConvolutionNode) ruleFires(rule *ConvolutionRule, i int, random rng.Source) bool {
	if rule.P < 1.0 && random.NextFloat() >= rule.P {
		return false
	}
	if rule.Sums != nil {
		total := 0
		for _, v := range rule.Values {
			total += n.sumfield[i][v]
		}
		if total >= len(rule.Sums) || !rule.Sums[total] {
			return false
		}
	}
	return true
}

func (n *ConvolutionNode) computeSumfield(g *grid.Grid) {
	for i := range n.sumfield {
		for c := range n.sumfield[i] {
			n.sumfield[i][c] = 0
		}
	}

	if g.Is2D() {
		for y := 0; y < g.MY; y++ {
			for x := 0; x < g.MX; x++ {
				sums := n.sumfield[x+y*g.MX]
				for dy := -1; dy <= 1; dy++ {
					for dx := -1; dx <= 1; dx++ {
						weight := n.kernel[dx+1+(dy+1)*3]
						if weight == 0 {
							continue
						}
						sx, sy, ok := n.wrap2D(x+dx, y+dy, g.MX, g.MY)
						if !ok {
							continue
						}
						sums[g.State[sx+sy*g.MX]] += weight
					}
				}
			}
		}
		return
	}

	for z := 0; z < g.MZ; z++ {
		for y := 0; y < g.MY; y++ {
			for x := 0; x < g.MX; x++ {
				sums := n.sumfield[g.Index(x, y, z)]
				for dz := -1; dz <= 1; dz++ {
					for dy := -1; dy <= 1; dy++ {
						for dx := -1; dx <= 1; dx++ {
							weight := n.kernel[dx+1+(dy+1)*3+(dz+1)*9]
							if weight == 0 {
								continue
							}
							sx, ok1 := wrapAxis(x+dx, g.MX, n.periodic)
							sy, ok2 := wrapAxis(y+dy, g.MY, n.periodic)
							sz, ok3 := wrapAxis(z+dz, g.MZ, n.periodic)
							if !ok1 || !ok2 || !ok3 {
								continue
							}
							sums[g.State[g.Index(sx, sy, sz)]] += weight
						}
					}
				}
			}
		}
	}
}

func (n *ConvolutionNode) wrap2D(sx, sy, mx, my int) (int, int, bool) {
	sx, ok1 := wrapAxis(sx, mx, n.periodic)
	sy, ok2 := wrapAxis(sy, my, n.periodic)
	return sx, sy, ok1 && ok2
}

// wrapAxis folds a coordinate one step over the boundary when periodic,
// which is all a radius-1 kernel can require.
func wrapAxis(v, m int, periodic bool) (int, bool) {
	if v >= 0 && v < m {
		return v, true
	}
	if !periodic {
		return 0, false
	}
	if v < 0 {
		return v + m, true
	}
	return v - m, true
}
