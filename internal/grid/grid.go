// Package grid holds the cell storage and rewrite-rule data model: symbol
// alphabets with wave bitmasks, flat grid state, pattern parsing, and the
// rotation/reflection transforms used for symmetry expansion.
//
// Cells are stored in x + y*MX + z*MX*MY order. Every stored value is an
// index below the alphabet size, and every wave bitmask has exactly the bits
// of the symbols it stands for.
package grid

import (
	"errors"
	"fmt"
)

// Wave bitmasks are uint32, which caps the alphabet.
const MaxSymbols = 32

// Grid is the mutable cell store shared by one interpreter run. Mask is a
// transient claim array used only inside a single apply-all turn.
type Grid struct {
	State []byte
	Mask  []bool

	MX, MY, MZ int

	// C is the alphabet size. Values maps a symbol to its byte index,
	// Waves to its bitmask; Waves additionally holds the '*' wildcard and
	// any union symbols registered later.
	C          byte
	Characters []rune
	Values     map[rune]byte
	Waves      map[rune]uint32
}

// NewGrid builds a zeroed grid over the given symbol alphabet. Symbol order
// fixes the value indices: the first symbol is value 0.
func NewGrid(mx, my, mz int, symbols string) (*Grid, error) {
	if mx <= 0 || my <= 0 || mz <= 0 {
		return nil, fmt.Errorf("grid dimensions must be positive, got %dx%dx%d", mx, my, mz)
	}
	runes := []rune(symbols)
	if len(runes) == 0 {
		return nil, errors.New("grid alphabet is empty")
	}
	if len(runes) > MaxSymbols {
		return nil, fmt.Errorf("grid alphabet has %d symbols, at most %d are supported", len(runes), MaxSymbols)
	}

	g := &Grid{
		State:      make([]byte, mx*my*mz),
		Mask:       make([]bool, mx*my*mz),
		MX:         mx,
		MY:         my,
		MZ:         mz,
		C:          byte(len(runes)),
		Characters: runes,
		Values:     make(map[rune]byte, len(runes)),
		Waves:      make(map[rune]uint32, len(runes)+1),
	}
	for i, ch := range runes {
		if ch == '*' {
			return nil, errors.New("grid alphabet cannot contain the reserved wildcard '*'")
		}
		if _, ok := g.Values[ch]; ok {
			return nil, fmt.Errorf("duplicate symbol %q in grid alphabet", ch)
		}
		g.Values[ch] = byte(i)
		g.Waves[ch] = 1 << i
	}
	g.Waves['*'] = 1<<len(runes) - 1
	return g, nil
}

// Len returns the cell count.
func (g *Grid) Len() int { return len(g.State) }

// Is2D reports whether the grid has a single depth layer.
func (g *Grid) Is2D() bool { return g.MZ == 1 }

// Index returns the flat index of (x, y, z). Callers stay in bounds.
func (g *Grid) Index(x, y, z int) int {
	return x + y*g.MX + z*g.MX*g.MY
}

// Clear zeroes the state and drops all mask claims.
func (g *Grid) Clear() {
	for i := range g.State {
		g.State[i] = 0
	}
	for i := range g.Mask {
		g.Mask[i] = false
	}
}

// Wave combines the bitmasks of the given symbols. Symbols without a wave
// entry contribute nothing.
func (g *Grid) Wave(symbols string) uint32 {
	var sum uint32
	for _, ch := range symbols {
		if w, ok := g.Waves[ch]; ok {
			sum |= w
		}
	}
	return sum
}

// Union registers symbol as shorthand for the combined wave of symbols.
// Every referenced symbol must already have a wave, and the union symbol
// must be fresh.
func (g *Grid) Union(symbol rune, symbols string) error {
	if _, ok := g.Waves[symbol]; ok {
		return fmt.Errorf("union symbol %q is already defined", symbol)
	}
	var sum uint32
	for _, ch := range symbols {
		w, ok := g.Waves[ch]
		if !ok {
			return &UnknownSymbolError{Symbol: ch}
		}
		sum |= w
	}
	g.Waves[symbol] = sum
	return nil
}

// Matches reports whether the rule's input pattern holds with its origin at
// (x, y, z). The caller guarantees the footprint lies in bounds.
func (g *Grid) Matches(r *Rule, x, y, z int) bool {
	dx, dy, dz := 0, 0, 0
	for di := 0; di < len(r.Input); di++ {
		value := g.State[x+dx+(y+dy)*g.MX+(z+dz)*g.MX*g.MY]
		if r.Input[di]&(1<<value) == 0 {
			return false
		}
		dx++
		if dx == r.IMX {
			dx = 0
			dy++
			if dy == r.IMY {
				dy = 0
				dz++
			}
		}
	}
	return true
}

// Apply writes the rule's output with its origin at (x, y, z), skipping
// AnyValue cells. Change recording is the caller's concern.
func (g *Grid) Apply(r *Rule, x, y, z int) {
	for dz := 0; dz < r.OMZ; dz++ {
		for dy := 0; dy < r.OMY; dy++ {
			for dx := 0; dx < r.OMX; dx++ {
				v := r.Output[dx+dy*r.OMX+dz*r.OMX*r.OMY]
				if v != AnyValue {
					g.State[g.Index(x+dx, y+dy, z+dz)] = v
				}
			}
		}
	}
}
