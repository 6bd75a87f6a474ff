package engine

import (
	"math"

	"github.com/vk/morphgrid/internal/rng"
)

// PathNode connects start cells to finish cells through substrate cells,
// writing its value along one traced path per invocation. Distances are
// built by BFS from every finish cell; a pen then walks downhill from a
// chosen start until it reaches distance zero.
type PathNode struct {
	Start     uint32
	Finish    uint32
	Substrate uint32
	Value     byte

	// Inertia prefers continuing in the pen's current direction, Longest
	// picks the farthest start instead of the nearest, Edges and Vertices
	// admit diagonal steps.
	Inertia  bool
	Longest  bool
	Edges    bool
	Vertices bool
}

func NewPathNode(start, finish, substrate uint32, value byte) *PathNode {
	return &PathNode{Start: start, Finish: finish, Substrate: substrate, Value: value}
}

func (n *PathNode) IsBranch() bool { return false }

func (n *PathNode) Reset() {}

func (n *PathNode) Structure() NodeStructure {
	return NodeStructure{Type: "path", Config: map[string]any{
		"start":     n.Start,
		"finish":    n.Finish,
		"substrate": n.Substrate,
		"value":     n.Value,
		"inertia":   n.Inertia,
		"longest":   n.Longest,
	}}
}

func (n *PathNode) Go(ctx *ExecutionContext) bool {
	g := ctx.Grid

	generations := make([]int, g.Len())
	for i := range generations {
		generations[i] = -1
	}

	type queued struct {
		t       int
		x, y, z int
	}
	var frontier []queued
	var starts []point

	for z := 0; z < g.MZ; z++ {
		for y := 0; y < g.MY; y++ {
			for x := 0; x < g.MX; x++ {
				i := g.Index(x, y, z)
				wave := uint32(1) << g.State[i]
				if n.Start&wave != 0 {
					starts = append(starts, point{x, y, z})
				}
				if n.Finish&wave != 0 {
					generations[i] = 0
					frontier = append(frontier, queued{0, x, y, z})
				}
			}
		}
	}

	if len(starts) == 0 || len(frontier) == 0 {
		return false
	}

	// Flood outward from the finish cells. Start cells receive a distance
	// but are not expanded, so a path never tunnels through another start.
	for head := 0; head < len(frontier); head++ {
		cell := frontier[head]
		for _, d := range pathDirections(cell.x, cell.y, cell.z, g.MX, g.MY, g.MZ, n.Edges, n.Vertices) {
			nx, ny, nz := cell.x+d.x, cell.y+d.y, cell.z+d.z
			i := g.Index(nx, ny, nz)
			wave := uint32(1) << g.State[i]
			if generations[i] == -1 && (n.Substrate&wave != 0 || n.Start&wave != 0) {
				if n.Substrate&wave != 0 {
					frontier = append(frontier, queued{cell.t + 1, nx, ny, nz})
				}
				generations[i] = cell.t + 1
			}
		}
	}

	anyReachable := false
	for _, s := range starts {
		if generations[g.Index(s.x, s.y, s.z)] > 0 {
			anyReachable = true
			break
		}
	}
	if !anyReachable {
		return false
	}

	local := rng.NewLegacy(ctx.Random.NextInt())

	minGen := float64(g.Len())
	maxGen := -2.0
	var argmin, argmax point

	for _, s := range starts {
		gen := generations[g.Index(s.x, s.y, s.z)]
		if gen == -1 {
			continue
		}
		noise := 0.1 * local.NextFloat()
		if float64(gen)+noise < minGen {
			minGen = float64(gen) + noise
			argmin = s
		}
		if float64(gen)+noise > maxGen {
			maxGen = float64(gen) + noise
			argmax = s
		}
	}

	pen := argmin
	if n.Longest {
		pen = argmax
	}

	dir := findPathDirection(pen, point{}, generations, g.MX, g.MY, g.MZ, n.Inertia, n.Edges, n.Vertices, local)
	pen = point{pen.x + dir.x, pen.y + dir.y, pen.z + dir.z}

	for generations[g.Index(pen.x, pen.y, pen.z)] != 0 {
		g.State[g.Index(pen.x, pen.y, pen.z)] = n.Value
		ctx.RecordChange(pen.x, pen.y, pen.z)
		dir = findPathDirection(pen, dir, generations, g.MX, g.MY, g.MZ, n.Inertia, n.Edges, n.Vertices, local)
		pen = point{pen.x + dir.x, pen.y + dir.y, pen.z + dir.z}
	}
	return true
}

// pathDirections lists the moves available from a position, honoring grid
// bounds. Cardinal moves come first, then face diagonals when edges is set,
// then corner diagonals when vertices is set (3D only).
func pathDirections(x, y, z, mx, my, mz int, edges, vertices bool) []point {
	var result []point
	push := func(dx, dy, dz int) {
		nx, ny, nz := x+dx, y+dy, z+dz
		if nx >= 0 && nx < mx && ny >= 0 && ny < my && nz >= 0 && nz < mz {
			result = append(result, point{dx, dy, dz})
		}
	}

	push(-1, 0, 0)
	push(1, 0, 0)
	push(0, -1, 0)
	push(0, 1, 0)

	if mz == 1 {
		if edges {
			push(-1, -1, 0)
			push(-1, 1, 0)
			push(1, -1, 0)
			push(1, 1, 0)
		}
		return result
	}

	push(0, 0, -1)
	push(0, 0, 1)

	if edges {
		push(-1, -1, 0)
		push(-1, 1, 0)
		push(1, -1, 0)
		push(1, 1, 0)
		push(-1, 0, -1)
		push(-1, 0, 1)
		push(1, 0, -1)
		push(1, 0, 1)
		push(0, -1, -1)
		push(0, -1, 1)
		push(0, 1, -1)
		push(0, 1, 1)
	}
	if vertices {
		push(-1, -1, -1)
		push(-1, -1, 1)
		push(-1, 1, -1)
		push(-1, 1, 1)
		push(1, -1, -1)
		push(1, -1, 1)
		push(1, 1, -1)
		push(1, 1, 1)
	}
	return result
}

// findPathDirection picks the next downhill step for the pen: a neighbor
// whose distance is exactly one less than the pen's own.
func findPathDirection(pen, dir point, generations []int, mx, my, mz int, inertia, edges, vertices bool, random rng.Source) point {
	gen := generations[pen.x+pen.y*mx+pen.z*mx*my]

	downhill := func(d point) bool {
		nx, ny, nz := pen.x+d.x, pen.y+d.y, pen.z+d.z
		return nx >= 0 && nx < mx && ny >= 0 && ny < my && nz >= 0 && nz < mz &&
			generations[nx+ny*mx+nz*mx*my] == gen-1
	}

	if !edges && !vertices {
		if inertia && (dir.x != 0 || dir.y != 0 || dir.z != 0) && downhill(dir) {
			return dir
		}

		var candidates []point
		for _, d := range []point{{-1, 0, 0}, {1, 0, 0}, {0, -1, 0}, {0, 1, 0}, {0, 0, -1}, {0, 0, 1}} {
			if downhill(d) {
				candidates = append(candidates, d)
			}
		}
		if len(candidates) == 0 {
			return point{}
		}
		return candidates[random.NextIntMax(int32(len(candidates)))]
	}

	var candidates []point
	for _, d := range pathDirections(pen.x, pen.y, pen.z, mx, my, mz, edges, vertices) {
		if downhill(d) {
			candidates = append(candidates, d)
		}
	}
	if len(candidates) == 0 {
		return point{}
	}

	if inertia && (dir.x != 0 || dir.y != 0 || dir.z != 0) {
		maxScalar := -4.0
		result := candidates[0]
		dirLen := math.Sqrt(float64(dir.x*dir.x + dir.y*dir.y + dir.z*dir.z))
		for _, c := range candidates {
			noise := 0.1 * random.NextFloat()
			dot := float64(c.x*dir.x + c.y*dir.y + c.z*dir.z)
			cLen := math.Sqrt(float64(c.x*c.x + c.y*c.y + c.z*c.z))
			if cos := dot / (cLen * dirLen); cos+noise > maxScalar {
				maxScalar = cos + noise
				result = c
			}
		}
		return result
	}
	return candidates[random.NextIntMax(int32(len(candidates)))]
}
