package grid

import "fmt"

// SymmetryAll is the default subgroup: every rotation and reflection.
const SymmetryAll = "(xy)"

// squareSubgroups maps subgroup notation to an inclusion mask over the D4
// variant chain [e, b, a, ba, a2, ba2, a3, ba3], where a is a quarter turn
// and b the X reflection.
var squareSubgroups = map[string][8]bool{
	"()":     {true, false, false, false, false, false, false, false},
	"(x)":    {true, true, false, false, false, false, false, false},
	"(y)":    {true, false, false, false, false, true, false, false},
	"(x)(y)": {true, true, false, false, true, true, false, false},
	"(xy+)":  {true, false, true, false, true, false, true, false},
	"(xy)":   {true, true, true, true, true, true, true, true},
}

// ValidSubgroup reports whether subgroup names a known square subgroup.
func ValidSubgroup(subgroup string) bool {
	_, ok := squareSubgroups[subgroup]
	return ok
}

// Symmetries expands a rule into its unique variants under the named square
// subgroup. Between one and eight rules come back depending on how
// symmetric the pattern itself is.
func Symmetries(r *Rule, subgroup string) ([]*Rule, error) {
	mask, ok := squareSubgroups[subgroup]
	if !ok {
		return nil, fmt.Errorf("unknown symmetry subgroup %q", subgroup)
	}
	return SymmetriesMask(r, mask), nil
}

// SymmetriesMask expands a rule with an explicit inclusion mask over the D4
// variant chain, dropping duplicates.
func SymmetriesMask(r *Rule, mask [8]bool) []*Rule {
	r0 := r
	r1 := r0.Reflected()
	r2 := r0.ZRotated()
	r3 := r2.Reflected()
	r4 := r2.ZRotated()
	r5 := r4.Reflected()
	r6 := r4.ZRotated()
	r7 := r6.Reflected()
	chain := [8]*Rule{r0, r1, r2, r3, r4, r5, r6, r7}

	var variants []*Rule
	for i, variant := range chain {
		if !mask[i] {
			continue
		}
		dup := false
		for _, kept := range variants {
			if kept.Same(variant) {
				dup = true
				break
			}
		}
		if !dup {
			variants = append(variants, variant)
		}
	}
	return variants
}
