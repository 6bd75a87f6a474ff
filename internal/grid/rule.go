package grid

import (
	"errors"
	"fmt"
	"math/bits"
	"strings"
)

// AnyValue marks an output cell that must not be written, and a compact
// input cell that carries no single symbol (a wildcard or union wave).
const AnyValue byte = 0xff

// Pattern parsing errors.
var (
	ErrEmptyPattern      = errors.New("empty pattern")
	ErrRaggedPattern     = errors.New("non-rectangular pattern")
	ErrDimensionMismatch = errors.New("input and output dimensions differ")
)

// UnknownSymbolError reports a symbol missing from the grid alphabet.
type UnknownSymbolError struct {
	Symbol rune
}

func (e *UnknownSymbolError) Error() string {
	return fmt.Sprintf("unknown symbol %q", e.Symbol)
}

// Offset is a relative cell position inside a rule footprint.
type Offset struct {
	X, Y, Z int
}

// Rule is one immutable rewrite rule. Input cells are wave bitmasks, so a
// single cell may accept several symbols; output cells are byte values with
// AnyValue meaning "leave the cell alone".
//
// IShifts[v] lists the offsets inside the input footprint whose wave accepts
// symbol v; incremental scanning walks it backwards from a changed cell to
// candidate origins. OShifts is the same table over the output pattern and
// is only populated when input and output dimensions coincide.
type Rule struct {
	Input  []uint32
	Output []byte

	// BInput is the input reduced to one byte per cell: the lowest
	// accepted symbol, or AnyValue for a full wildcard. Potential
	// propagation reads this instead of the wave form.
	BInput []byte

	IMX, IMY, IMZ int
	OMX, OMY, OMZ int

	P float64
	C byte

	IShifts [][]Offset
	OShifts [][]Offset
}

// NewRule assembles a rule from raw pattern arrays, deriving the compact
// input and both shift tables. c is the alphabet size and p the application
// probability.
func NewRule(input []uint32, imx, imy, imz int, output []byte, omx, omy, omz int, c byte, p float64) *Rule {
	wildcard := uint32(1)<<c - 1
	binput := make([]byte, len(input))
	for i, w := range input {
		if w == wildcard {
			binput[i] = AnyValue
		} else {
			binput[i] = byte(bits.TrailingZeros32(w))
		}
	}

	ishifts := make([][]Offset, c)
	for z := 0; z < imz; z++ {
		for y := 0; y < imy; y++ {
			for x := 0; x < imx; x++ {
				w := input[x+y*imx+z*imx*imy]
				for v := 0; v < int(c); v++ {
					if w&1 == 1 {
						ishifts[v] = append(ishifts[v], Offset{x, y, z})
					}
					w >>= 1
				}
			}
		}
	}

	var oshifts [][]Offset
	if omx == imx && omy == imy && omz == imz {
		oshifts = make([][]Offset, c)
		for z := 0; z < omz; z++ {
			for y := 0; y < omy; y++ {
				for x := 0; x < omx; x++ {
					o := output[x+y*omx+z*omx*omy]
					if o != AnyValue {
						if int(o) < len(oshifts) {
							oshifts[o] = append(oshifts[o], Offset{x, y, z})
						}
					} else {
						// A kept cell may end up holding anything.
						for v := 0; v < int(c); v++ {
							oshifts[v] = append(oshifts[v], Offset{x, y, z})
						}
					}
				}
			}
		}
	}

	return &Rule{
		Input:  input,
		Output: output,
		BInput: binput,
		IMX:    imx, IMY: imy, IMZ: imz,
		OMX: omx, OMY: omy, OMZ: omz,
		P:       p,
		C:       c,
		IShifts: ishifts,
		OShifts: oshifts,
	}
}

// ParseRule builds a rule from input/output pattern strings against the
// grid's alphabet. Patterns use '/' between rows and ' ' between depth
// layers; '*' in the input matches any symbol and in the output keeps the
// cell. Both patterns must have identical dimensions.
func ParseRule(inputStr, outputStr string, g *Grid) (*Rule, error) {
	inChars, imx, imy, imz, err := parsePattern(inputStr)
	if err != nil {
		return nil, fmt.Errorf("input pattern %q: %w", inputStr, err)
	}
	outChars, omx, omy, omz, err := parsePattern(outputStr)
	if err != nil {
		return nil, fmt.Errorf("output pattern %q: %w", outputStr, err)
	}
	if imx != omx || imy != omy || imz != omz {
		return nil, ErrDimensionMismatch
	}

	input := make([]uint32, len(inChars))
	for i, ch := range inChars {
		w, ok := g.Waves[ch]
		if !ok {
			return nil, &UnknownSymbolError{Symbol: ch}
		}
		input[i] = w
	}

	output := make([]byte, len(outChars))
	for i, ch := range outChars {
		if ch == '*' {
			output[i] = AnyValue
			continue
		}
		v, ok := g.Values[ch]
		if !ok {
			return nil, &UnknownSymbolError{Symbol: ch}
		}
		output[i] = v
	}

	return NewRule(input, imx, imy, imz, output, omx, omy, omz, g.C, 1.0), nil
}

// parsePattern splits a pattern string into symbols in x + y*mx + z*mx*my
// order. Depth layers appear front-to-back in the string but are stored
// reversed, so the last layer lands at z = 0.
func parsePattern(s string) ([]rune, int, int, int, error) {
	if s == "" {
		return nil, 0, 0, 0, ErrEmptyPattern
	}

	layers := strings.Split(s, " ")
	mz := len(layers)

	firstRows := strings.Split(layers[0], "/")
	my := len(firstRows)
	mx := len([]rune(firstRows[0]))
	if mx == 0 {
		return nil, 0, 0, 0, ErrEmptyPattern
	}

	result := make([]rune, mx*my*mz)
	for z := 0; z < mz; z++ {
		rows := strings.Split(layers[mz-1-z], "/")
		if len(rows) != my {
			return nil, 0, 0, 0, ErrRaggedPattern
		}
		for y, row := range rows {
			cells := []rune(row)
			if len(cells) != mx {
				return nil, 0, 0, 0, ErrRaggedPattern
			}
			for x, ch := range cells {
				result[x+y*mx+z*mx*my] = ch
			}
		}
	}
	return result, mx, my, mz, nil
}

// ZRotated returns the rule rotated a quarter turn counter-clockwise in the
// XY plane. Width and height swap.
func (r *Rule) ZRotated() *Rule {
	newInput := make([]uint32, len(r.Input))
	newOutput := make([]byte, len(r.Output))
	nimx, nimy := r.IMY, r.IMX
	nomx, nomy := r.OMY, r.OMX

	for z := 0; z < r.IMZ; z++ {
		for y := 0; y < nimy; y++ {
			for x := 0; x < nimx; x++ {
				newInput[x+y*nimx+z*nimx*nimy] = r.Input[(r.IMX-1-y)+x*r.IMX+z*r.IMX*r.IMY]
			}
		}
	}
	for z := 0; z < r.OMZ; z++ {
		for y := 0; y < nomy; y++ {
			for x := 0; x < nomx; x++ {
				newOutput[x+y*nomx+z*nomx*nomy] = r.Output[(r.OMX-1-y)+x*r.OMX+z*r.OMX*r.OMY]
			}
		}
	}
	return NewRule(newInput, nimx, nimy, r.IMZ, newOutput, nomx, nomy, r.OMZ, r.C, r.P)
}

// YRotated returns the rule rotated a quarter turn in the XZ plane. Width
// and depth swap.
func (r *Rule) YRotated() *Rule {
	newInput := make([]uint32, len(r.Input))
	newOutput := make([]byte, len(r.Output))
	nimx, nimy, nimz := r.IMZ, r.IMY, r.IMX
	nomx, nomy, nomz := r.OMZ, r.OMY, r.OMX

	for z := 0; z < nimz; z++ {
		for y := 0; y < nimy; y++ {
			for x := 0; x < nimx; x++ {
				newInput[x+y*nimx+z*nimx*nimy] = r.Input[(r.IMX-1-z)+y*r.IMX+x*r.IMX*r.IMY]
			}
		}
	}
	for z := 0; z < nomz; z++ {
		for y := 0; y < nomy; y++ {
			for x := 0; x < nomx; x++ {
				newOutput[x+y*nomx+z*nomx*nomy] = r.Output[(r.OMX-1-z)+y*r.OMX+x*r.OMX*r.OMY]
			}
		}
	}
	return NewRule(newInput, nimx, nimy, nimz, newOutput, nomx, nomy, nomz, r.C, r.P)
}

// Reflected returns the rule mirrored along the X axis.
func (r *Rule) Reflected() *Rule {
	newInput := make([]uint32, len(r.Input))
	newOutput := make([]byte, len(r.Output))

	for z := 0; z < r.IMZ; z++ {
		for y := 0; y < r.IMY; y++ {
			for x := 0; x < r.IMX; x++ {
				newInput[x+y*r.IMX+z*r.IMX*r.IMY] = r.Input[(r.IMX-1-x)+y*r.IMX+z*r.IMX*r.IMY]
			}
		}
	}
	for z := 0; z < r.OMZ; z++ {
		for y := 0; y < r.OMY; y++ {
			for x := 0; x < r.OMX; x++ {
				newOutput[x+y*r.OMX+z*r.OMX*r.OMY] = r.Output[(r.OMX-1-x)+y*r.OMX+z*r.OMX*r.OMY]
			}
		}
	}
	return NewRule(newInput, r.IMX, r.IMY, r.IMZ, newOutput, r.OMX, r.OMY, r.OMZ, r.C, r.P)
}

// Same reports whether two rules have identical dimensions and patterns.
func (r *Rule) Same(other *Rule) bool {
	if r.IMX != other.IMX || r.IMY != other.IMY || r.IMZ != other.IMZ ||
		r.OMX != other.OMX || r.OMY != other.OMY || r.OMZ != other.OMZ {
		return false
	}
	for i := range r.Input {
		if r.Input[i] != other.Input[i] {
			return false
		}
	}
	for i := range r.Output {
		if r.Output[i] != other.Output[i] {
			return false
		}
	}
	return true
}

// String describes the rule by its footprint and weight.
func (r *Rule) String() string {
	return fmt.Sprintf("[%dx%dx%d -> %dx%dx%d] p=%g", r.IMX, r.IMY, r.IMZ, r.OMX, r.OMY, r.OMZ, r.P)
}
