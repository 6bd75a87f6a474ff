package engine

import (
	"github.com/vk/morphgrid/internal/grid"
)

// Field scores grid cells by breadth-first distance from target cells,
// walking through substrate cells only. Rule nodes use the scores to steer
// match selection toward or away from the targets.
type Field struct {
	// Recompute requests a fresh distance pass every turn instead of only
	// on the node's first turn.
	Recompute bool
	// Inversed flips the preference, steering away from the targets.
	Inversed bool
	// Essential makes a failed distance pass abort the whole node.
	Essential bool
	// Substrate is the wave of values distance may propagate through.
	Substrate uint32
	// Zero is the wave of zero-distance target values.
	Zero uint32
}

// Compute fills potential with the distance of every cell from the nearest
// target. Unreachable cells are left at -1. It reports false when the grid
// holds no target cell at all.
func (f *Field) Compute(potential []int, g *grid.Grid) bool {
	type cell struct{ t, x, y, z int }
	var front []cell

	ix, iy, iz := 0, 0, 0
	for i := range g.State {
		potential[i] = -1
		if f.Zero&(1<<g.State[i]) != 0 {
			potential[i] = 0
			front = append(front, cell{0, ix, iy, iz})
		}
		ix++
		if ix == g.MX {
			ix = 0
			iy++
			if iy == g.MY {
				iy = 0
				iz++
			}
		}
	}
	if len(front) == 0 {
		return false
	}

	for head := 0; head < len(front); head++ {
		c := front[head]
		for _, nb := range orthogonalNeighbors(c.x, c.y, c.z, g.MX, g.MY, g.MZ) {
			i := nb.x + nb.y*g.MX + nb.z*g.MX*g.MY
			if potential[i] == -1 && f.Substrate&(1<<g.State[i]) != 0 {
				potential[i] = c.t + 1
				front = append(front, cell{c.t + 1, nb.x, nb.y, nb.z})
			}
		}
	}
	return true
}

type point struct{ x, y, z int }

func orthogonalNeighbors(x, y, z, mx, my, mz int) []point {
	out := make([]point, 0, 6)
	if x > 0 {
		out = append(out, point{x - 1, y, z})
	}
	if x < mx-1 {
		out = append(out, point{x + 1, y, z})
	}
	if y > 0 {
		out = append(out, point{x, y - 1, z})
	}
	if y < my-1 {
		out = append(out, point{x, y + 1, z})
	}
	if z > 0 {
		out = append(out, point{x, y, z - 1})
	}
	if z < mz-1 {
		out = append(out, point{x, y, z + 1})
	}
	return out
}

// deltaPointwise sums, over every cell the rule would rewrite at (x, y, z),
// the potential of the written value minus the potential of the value it
// replaces. It reports ok=false when some written value has no potential at
// its cell, which disqualifies the match entirely.
//
// Cells whose input wave already admits the output value are not counted:
// rewriting them does not move the state toward anything.
func deltaPointwise(state []byte, rule *grid.Rule, x, y, z int, fields []*Field, potentials [][]int, mx, my int) (int, bool) {
	sum := 0
	dx, dy, dz := 0, 0, 0
	for di := range rule.Input {
		newValue := rule.Output[di]
		if newValue != grid.AnyValue && rule.Input[di]&(1<<newValue) == 0 {
			i := (x + dx) + (y+dy)*mx + (z+dz)*mx*my

			newPotential := potentials[newValue][i]
			if newPotential == -1 {
				return 0, false
			}

			oldValue := state[i]
			oldPotential := potentials[oldValue][i]
			sum += newPotential - oldPotential

			if fields != nil {
				if of := fields[oldValue]; of != nil && of.Inversed {
					sum += 2 * oldPotential
				}
				if nf := fields[newValue]; nf != nil && nf.Inversed {
					sum -= 2 * newPotential
				}
			}
		}

		dx++
		if dx == rule.IMX {
			dx = 0
			dy++
			if dy == rule.IMY {
				dy = 0
				dz++
			}
		}
	}
	return sum, true
}
