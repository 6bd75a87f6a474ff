package testutil

import (
	"github.com/vk/morphgrid/internal/grid"
)

// CountSymbols tallies how many cells hold each alphabet symbol.
func CountSymbols(g *grid.Grid) map[rune]int {
	counts := make(map[rune]int, g.C)
	for _, v := range g.State {
		counts[g.Characters[v]]++
	}
	return counts
}

// ConnectedBy reports whether any cell holding from reaches a cell holding
// to through orthogonal moves over cells holding symbols in via. The from
// and to cells themselves count as traversable.
func ConnectedBy(g *grid.Grid, from, to rune, via string) bool {
	traversable := make(map[byte]bool, len(via)+2)
	for _, r := range via {
		traversable[g.Values[r]] = true
	}
	fromValue := g.Values[from]
	toValue := g.Values[to]
	traversable[fromValue] = true
	traversable[toValue] = true

	visited := make([]bool, g.Len())
	var queue []int
	for i, v := range g.State {
		if v == fromValue {
			visited[i] = true
			queue = append(queue, i)
		}
	}

	deltas := [][3]int{{-1, 0, 0}, {1, 0, 0}, {0, -1, 0}, {0, 1, 0}, {0, 0, -1}, {0, 0, 1}}
	for head := 0; head < len(queue); head++ {
		i := queue[head]
		if g.State[i] == toValue {
			return true
		}
		x := i % g.MX
		y := (i / g.MX) % g.MY
		z := i / (g.MX * g.MY)
		for _, d := range deltas {
			nx, ny, nz := x+d[0], y+d[1], z+d[2]
			if nx < 0 || nx >= g.MX || ny < 0 || ny >= g.MY || nz < 0 || nz >= g.MZ {
				continue
			}
			j := g.Index(nx, ny, nz)
			if !visited[j] && traversable[g.State[j]] {
				visited[j] = true
				queue = append(queue, j)
			}
		}
	}
	return false
}
