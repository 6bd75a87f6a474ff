package engine

import (
	"github.com/vk/morphgrid/internal/grid"
)

// Observation constrains what cells currently holding one value must have
// become by the time a node finishes. Rule nodes turn a set of observations
// into a per-cell future wave and steer rule application toward it.
type Observation struct {
	// From is the value the constrained cells take on right now.
	From byte
	// To is the wave of values such a cell must end up holding.
	To uint32
}

// NewObservation resolves the symbols against the grid alphabet. The to
// string may name several symbols, all of which satisfy the observation.
func NewObservation(from rune, to string, g *grid.Grid) (*Observation, error) {
	value, ok := g.Values[from]
	if !ok {
		return nil, &grid.UnknownSymbolError{Symbol: from}
	}
	return &Observation{From: value, To: g.Wave(to)}, nil
}

// computeFutureSetPresent fills future with the goal wave of every cell and
// rewrites observed cells back to their present value. It reports false when
// some observation's value never occurs on the grid, which makes the goal
// unreachable from the start; on failure future and state are untouched.
func computeFutureSetPresent(future []uint32, state []byte, observations []*Observation) bool {
	seen := make([]bool, len(observations))
	for k, obs := range observations {
		if obs == nil {
			seen[k] = true
		}
	}
	for _, value := range state {
		if int(value) < len(seen) {
			seen[value] = true
		}
	}
	for _, ok := range seen {
		if !ok {
			return false
		}
	}

	for i := range state {
		value := state[i]
		if int(value) < len(observations) {
			if obs := observations[value]; obs != nil {
				future[i] = obs.To
				state[i] = obs.From
				continue
			}
		}
		future[i] = 1 << value
	}
	return true
}

// goalReached reports whether every cell's present value is admitted by its
// future wave.
func goalReached(present []byte, future []uint32) bool {
	for i := range present {
		if (1<<present[i])&future[i] == 0 {
			return false
		}
	}
	return true
}

// computeForwardPotentials estimates, per value and cell, how many rule
// applications it takes to produce that value there starting from state.
func computeForwardPotentials(potentials [][]int, state []byte, mx, my, mz int, rules []*grid.Rule) {
	for _, p := range potentials {
		for i := range p {
			p[i] = -1
		}
	}
	for i, value := range state {
		if int(value) < len(potentials) {
			potentials[value][i] = 0
		}
	}
	propagatePotentials(potentials, mx, my, mz, rules, false)
}

// computeBackwardPotentials estimates, per value and cell, how many rule
// applications separate that value from one the future wave admits.
func computeBackwardPotentials(potentials [][]int, future []uint32, mx, my, mz int, rules []*grid.Rule) {
	for c := range potentials {
		for i := range future {
			if future[i]&(1<<c) != 0 {
				potentials[c][i] = 0
			} else {
				potentials[c][i] = -1
			}
		}
	}
	propagatePotentials(potentials, mx, my, mz, rules, true)
}

type colorPoint struct {
	c       byte
	x, y, z int
}

// propagatePotentials relaxes potentials breadth-first through the rules.
// Forward propagation steps from a rule's input side to its output side;
// backward propagation runs the rules in reverse.
func propagatePotentials(potentials [][]int, mx, my, mz int, rules []*grid.Rule, backwards bool) {
	var queue []colorPoint
	for c, potential := range potentials {
		for i, t := range potential {
			if t == 0 {
				queue = append(queue, colorPoint{
					c: byte(c),
					x: i % mx,
					y: (i % (mx * my)) / mx,
					z: i / (mx * my),
				})
			}
		}
	}

	matchMask := make([][]bool, len(rules))
	for r := range matchMask {
		matchMask[r] = make([]bool, mx*my*mz)
	}

	for head := 0; head < len(queue); head++ {
		p := queue[head]
		i := p.x + p.y*mx + p.z*mx*my
		t := potentials[p.c][i]

		for r, rule := range rules {
			shifts := rule.IShifts
			if backwards {
				shifts = rule.OShifts
			}
			if shifts == nil || int(p.c) >= len(shifts) {
				continue
			}

			for _, shift := range shifts[p.c] {
				sx := p.x - shift.X
				sy := p.y - shift.Y
				sz := p.z - shift.Z
				if sx < 0 || sy < 0 || sz < 0 ||
					sx+rule.IMX > mx || sy+rule.IMY > my || sz+rule.IMZ > mz {
					continue
				}

				si := sx + sy*mx + sz*mx*my
				if !matchMask[r][si] && potentialMatches(rule, sx, sy, sz, potentials, t, mx, my, backwards) {
					matchMask[r][si] = true
					spreadPotential(rule, sx, sy, sz, potentials, t, mx, my, &queue, backwards)
				}
			}
		}
	}
}

// potentialMatches reports whether every cell the rule's source side pins
// down is already reachable within t steps.
func potentialMatches(rule *grid.Rule, x, y, z int, potentials [][]int, t, mx, my int, backwards bool) bool {
	side := rule.BInput
	if backwards {
		side = rule.Output
	}

	dx, dy, dz := 0, 0, 0
	for di := range side {
		if value := side[di]; value != grid.AnyValue {
			idx := (x + dx) + (y+dy)*mx + (z+dz)*mx*my
			current := potentials[value][idx]
			if current > t || current == -1 {
				return false
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
	return true
}

// spreadPotential marks every cell the rule's target side produces as
// reachable in t+1 steps and queues it for further propagation.
func spreadPotential(rule *grid.Rule, x, y, z int, potentials [][]int, t, mx, my int, queue *[]colorPoint, backwards bool) {
	side := rule.Output
	if backwards {
		side = rule.BInput
	}

	for dz := 0; dz < rule.IMZ; dz++ {
		for dy := 0; dy < rule.IMY; dy++ {
			for dx := 0; dx < rule.IMX; dx++ {
				di := dx + dy*rule.IMX + dz*rule.IMX*rule.IMY
				o := side[di]
				idi := (x + dx) + (y+dy)*mx + (z+dz)*mx*my

				if o != grid.AnyValue && potentials[o][idi] == -1 {
					potentials[o][idi] = t + 1
					*queue = append(*queue, colorPoint{c: o, x: x + dx, y: y + dy, z: z + dz})
				}
			}
		}
	}
}

// forwardPointwise sums, per cell, the cheapest potential among the values
// the future wave admits. It returns -1 when some cell can reach none.
func forwardPointwise(potentials [][]int, future []uint32) int {
	sum := 0
	for i := range future {
		f := future[i]
		min := 1000
		argmin := -1

		for c := range potentials {
			potential := potentials[c][i]
			if f&1 == 1 && potential >= 0 && potential < min {
				min = potential
				argmin = c
			}
			f >>= 1
		}

		if argmin < 0 {
			return -1
		}
		sum += min
	}
	return sum
}

// backwardPointwise sums the potential of every cell's present value,
// returning -1 when some value is unreachable.
func backwardPointwise(potentials [][]int, present []byte) int {
	sum := 0
	for i := range present {
		value := present[i]
		if int(value) >= len(potentials) {
			return -1
		}
		potential := potentials[value][i]
		if potential < 0 {
			return -1
		}
		sum += potential
	}
	return sum
}
