package engine

import (
	"container/heap"
	"log/slog"
	"slices"

	"github.com/vk/morphgrid/internal/grid"
	"github.com/vk/morphgrid/internal/rng"
)

// board is one explored state in trajectory search.
type board struct {
	state            []byte
	parentIndex      int // index into the database, -1 for the root
	depth            int
	backwardEstimate int
	forwardEstimate  int
}

// rank orders the frontier. A negative depthCoefficient turns the search
// depth-first; otherwise the rank is the classic estimate sum with depth
// weighted in. The tiny random term breaks ties between equal boards.
func (b *board) rank(src rng.Source, depthCoefficient float64) float64 {
	var result float64
	if depthCoefficient < 0 {
		result = 1000 - float64(b.depth)
	} else {
		result = float64(b.forwardEstimate+b.backwardEstimate) + 2*depthCoefficient*float64(b.depth)
	}
	return result + 0.0001*src.NextFloat()
}

// trajectoryTo collects the states leading to index, root excluded, in
// forward order.
func trajectoryTo(index int, database []*board) [][]byte {
	var reversed [][]byte
	for cur := database[index]; cur.parentIndex >= 0; cur = database[cur.parentIndex] {
		reversed = append(reversed, cur.state)
	}

	out := make([][]byte, len(reversed))
	for i, state := range reversed {
		out[len(reversed)-1-i] = state
	}
	return out
}

type frontierItem struct {
	index    int
	priority float64
}

// frontierQueue is a min-heap over board ranks.
type frontierQueue []frontierItem

func (q frontierQueue) Len() int           { return len(q) }
func (q frontierQueue) Less(i, j int) bool { return q[i].priority < q[j].priority }
func (q frontierQueue) Swap(i, j int)      { q[i], q[j] = q[j], q[i] }

func (q *frontierQueue) Push(x any) { *q = append(*q, x.(frontierItem)) }

func (q *frontierQueue) Pop() any {
	old := *q
	n := len(old)
	it := old[n-1]
	*q = old[:n-1]
	return it
}

// runSearch looks for a rewrite trajectory from present to a state the
// future waves admit, expanding the cheapest boards first. It returns nil
// when no trajectory exists within the limit; a non-nil empty trajectory
// means present already satisfies future. Search operates on single-layer
// grids only, matching the planners it feeds.
func runSearch(present []byte, future []uint32, rules []*grid.Rule, mx, my, mz, colors int, all bool, limit int, depthCoefficient float64, seed int32, logger *slog.Logger) [][]byte {
	gridSize := mx * my * mz

	bpotentials := make([][]int, colors)
	fpotentials := make([][]int, colors)
	for c := 0; c < colors; c++ {
		bpotentials[c] = make([]int, gridSize)
		fpotentials[c] = make([]int, gridSize)
	}

	computeBackwardPotentials(bpotentials, future, mx, my, mz, rules)
	rootBackwardEstimate := backwardPointwise(bpotentials, present)

	computeForwardPotentials(fpotentials, present, mx, my, mz, rules)
	rootForwardEstimate := forwardPointwise(fpotentials, future)

	if rootBackwardEstimate < 0 || rootForwardEstimate < 0 {
		return nil
	}
	if rootBackwardEstimate == 0 {
		return [][]byte{}
	}

	root := &board{
		state:            slices.Clone(present),
		parentIndex:      -1,
		backwardEstimate: rootBackwardEstimate,
		forwardEstimate:  rootForwardEstimate,
	}

	database := []*board{root}
	visited := map[string]int{string(present): 0}

	random := rng.NewLegacy(seed)
	frontier := &frontierQueue{{index: 0, priority: root.rank(random, depthCoefficient)}}
	heap.Init(frontier)

	record := rootBackwardEstimate + rootForwardEstimate

	for frontier.Len() > 0 && (limit < 0 || len(database) < limit) {
		parentIndex := heap.Pop(frontier).(frontierItem).index
		parentBoard := database[parentIndex]
		parentDepth := parentBoard.depth
		parentState := parentBoard.state

		var children [][]byte
		if all {
			children = allChildStates(parentState, mx, my, rules)
		} else {
			children = oneChildStates(parentState, mx, my, rules)
		}

		for _, childState := range children {
			key := string(childState)

			if childIndex, ok := visited[key]; ok {
				old := database[childIndex]
				if parentDepth+1 < old.depth {
					old.depth = parentDepth + 1
					old.parentIndex = parentIndex

					if old.backwardEstimate >= 0 && old.forwardEstimate >= 0 {
						heap.Push(frontier, frontierItem{
							index:    childIndex,
							priority: old.rank(random, depthCoefficient),
						})
					}
				}
				continue
			}

			childBackwardEstimate := backwardPointwise(bpotentials, childState)

			computeForwardPotentials(fpotentials, childState, mx, my, mz, rules)
			childForwardEstimate := forwardPointwise(fpotentials, future)

			if childBackwardEstimate < 0 || childForwardEstimate < 0 {
				continue
			}

			childBoard := &board{
				state:            childState,
				parentIndex:      parentIndex,
				depth:            parentDepth + 1,
				backwardEstimate: childBackwardEstimate,
				forwardEstimate:  childForwardEstimate,
			}

			database = append(database, childBoard)
			childIndex := len(database) - 1
			visited[key] = childIndex

			if childForwardEstimate == 0 {
				return trajectoryTo(childIndex, database)
			}

			if limit < 0 && childBackwardEstimate+childForwardEstimate <= record {
				record = childBackwardEstimate + childForwardEstimate
				logger.Debug("Search reached a new best estimate.",
					"estimate", record, "depth", childBoard.depth, "explored", len(database))
			}

			heap.Push(frontier, frontierItem{
				index:    childIndex,
				priority: childBoard.rank(random, depthCoefficient),
			})
		}
	}

	return nil
}

// oneChildStates yields every state reachable by applying one rule at one
// position.
func oneChildStates(state []byte, mx, my int, rules []*grid.Rule) [][]byte {
	var result [][]byte
	for _, rule := range rules {
		for y := 0; y < my; y++ {
			for x := 0; x < mx; x++ {
				if matchesAt(rule, x, y, state, mx, my) {
					child := slices.Clone(state)
					applyAt(rule, x, y, child, mx)
					result = append(result, child)
				}
			}
		}
	}
	return result
}

// allChildStates yields every state reachable by applying a maximal set of
// non-overlapping matches at once. It enumerates the sets by repeatedly
// picking the most contested cell and branching on which match claims it.
func allChildStates(state []byte, mx, my int, rules []*grid.Rule) [][]byte {
	type tile struct{ r, i int }

	var list []tile
	amounts := make([]int, len(state))
	for i := range state {
		x, y := i%mx, i/mx
		for r, rule := range rules {
			if matchesAt(rule, x, y, state, mx, my) {
				list = append(list, tile{r, i})
				for dy := 0; dy < rule.IMY; dy++ {
					for dx := 0; dx < rule.IMX; dx++ {
						amounts[x+dx+(y+dy)*mx]++
					}
				}
			}
		}
	}
	if len(list) == 0 {
		return nil
	}

	mask := make([]bool, len(list))
	for i := range mask {
		mask[i] = true
	}

	var children [][]byte
	var solution []tile

	hide := func(l int, unhide bool) {
		mask[l] = unhide
		t := list[l]
		rule := rules[t.r]
		x, y := t.i%mx, t.i/mx
		incr := -1
		if unhide {
			incr = 1
		}
		for dy := 0; dy < rule.IMY; dy++ {
			for dx := 0; dx < rule.IMX; dx++ {
				amounts[x+dx+(y+dy)*mx] += incr
			}
		}
	}

	var enumerate func()
	enumerate = func() {
		maxIdx, maxVal := -1, 0
		for i, amt := range amounts {
			if amt > maxVal {
				maxVal = amt
				maxIdx = i
			}
		}

		if maxIdx < 0 {
			child := slices.Clone(state)
			for _, s := range solution {
				applyAt(rules[s.r], s.i%mx, s.i/mx, child, mx)
			}
			children = append(children, child)
			return
		}

		maxX, maxY := maxIdx%mx, maxIdx/mx
		var cover []int
		for l, t := range list {
			if mask[l] && insideTile(maxX, maxY, rules[t.r], t.i%mx, t.i/mx) {
				cover = append(cover, l)
			}
		}

		for _, l := range cover {
			t := list[l]
			solution = append(solution, t)

			rule := rules[t.r]
			x, y := t.i%mx, t.i/mx
			var intersecting []int
			for l1, t1 := range list {
				if mask[l1] && tilesOverlap(rule, x, y, rules[t1.r], t1.i%mx, t1.i/mx) {
					intersecting = append(intersecting, l1)
				}
			}

			for _, l1 := range intersecting {
				hide(l1, false)
			}
			enumerate()
			for _, l1 := range intersecting {
				hide(l1, true)
			}

			solution = solution[:len(solution)-1]
		}
	}

	enumerate()
	return children
}

func insideTile(px, py int, rule *grid.Rule, x, y int) bool {
	return x <= px && px < x+rule.IMX && y <= py && py < y+rule.IMY
}

func tilesOverlap(rule0 *grid.Rule, x0, y0 int, rule1 *grid.Rule, x1, y1 int) bool {
	for dy := 0; dy < rule0.IMY; dy++ {
		for dx := 0; dx < rule0.IMX; dx++ {
			if insideTile(x0+dx, y0+dy, rule1, x1, y1) {
				return true
			}
		}
	}
	return false
}

// matchesAt checks a rule's input wave against raw state, without a grid.
func matchesAt(rule *grid.Rule, x, y int, state []byte, mx, my int) bool {
	if x+rule.IMX > mx || y+rule.IMY > my {
		return false
	}

	dx, dy := 0, 0
	for di := range rule.Input {
		value := state[x+dx+(y+dy)*mx]
		if rule.Input[di]&(1<<value) == 0 {
			return false
		}
		dx++
		if dx == rule.IMX {
			dx = 0
			dy++
		}
	}
	return true
}

// applyAt writes a rule's output into raw state.
func applyAt(rule *grid.Rule, x, y int, state []byte, mx int) {
	for dz := 0; dz < rule.OMZ; dz++ {
		for dy := 0; dy < rule.OMY; dy++ {
			for dx := 0; dx < rule.OMX; dx++ {
				newValue := rule.Output[dx+dy*rule.OMX+dz*rule.OMX*rule.OMY]
				if newValue != grid.AnyValue {
					state[x+dx+(y+dy)*mx] = newValue
				}
			}
		}
	}
}
