package modelhcl

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/vk/morphgrid/internal/engine"
	"github.com/vk/morphgrid/internal/grid"
)

// identitySymmetry is the only subgroup available on 3D grids.
const identitySymmetry = "()"

// validateSymmetry checks a symmetry attribute against the grid
// dimensionality.
func validateSymmetry(subgroup string, g *grid.Grid, rng hcl.Range) hcl.Diagnostics {
	if g.Is2D() {
		if grid.ValidSubgroup(subgroup) {
			return nil
		}
		return hcl.Diagnostics{{
			Severity: hcl.DiagError,
			Summary:  "Unknown symmetry",
			Detail:   fmt.Sprintf("The subgroup %q is not recognized; valid subgroups are (), (x), (y), (x)(y), (xy+), and (xy).", subgroup),
			Subject:  &rng,
		}}
	}
	if subgroup == identitySymmetry {
		return nil
	}
	return hcl.Diagnostics{{
		Severity: hcl.DiagError,
		Summary:  "Unknown symmetry",
		Detail:   "3D models support only the identity subgroup \"()\".",
		Subject:  &rng,
	}}
}

// expandRule parses an in/out pair and expands it into its symmetry variants.
func expandRule(in, out string, p float64, symmetry string, g *grid.Grid, rng hcl.Range) ([]*grid.Rule, hcl.Diagnostics) {
	r, err := grid.ParseRule(in, out, g)
	if err != nil {
		return nil, hcl.Diagnostics{{
			Severity: hcl.DiagError,
			Summary:  "Invalid rule",
			Detail:   fmt.Sprintf("Cannot parse %q -> %q: %s.", in, out, err),
			Subject:  &rng,
		}}
	}
	r.P = p
	if !g.Is2D() {
		return []*grid.Rule{r}, nil
	}
	variants, err := grid.Symmetries(r, symmetry)
	if err != nil {
		// Symmetry attributes are validated before expansion.
		return nil, hcl.Diagnostics{{
			Severity: hcl.DiagError,
			Summary:  "Unknown symmetry",
			Detail:   fmt.Sprintf("Cannot expand the rule: %s.", err),
			Subject:  &rng,
		}}
	}
	return variants, nil
}

// decodeField builds a potential field and returns the symbol value it is
// keyed on.
func decodeField(block *hcl.Block, g *grid.Grid) (*engine.Field, byte, hcl.Diagnostics) {
	value, diags := symbolValue(block.Labels[0], block.LabelRanges[0], g)

	var cfg fieldConfig
	diags = append(diags, gohcl.DecodeBody(block.Body, nil, &cfg)...)
	if diags.HasErrors() {
		return nil, 0, diags
	}

	substrate, d := waveFor(cfg.On, g, block.DefRange)
	diags = append(diags, d...)

	field := &engine.Field{
		Substrate: substrate,
		Recompute: cfg.Recompute,
		Essential: cfg.Essential,
	}
	switch {
	case cfg.From != nil && cfg.To != nil:
		diags = append(diags, &hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "Conflicting field targets",
			Detail:   "The from and to attributes are mutually exclusive.",
			Subject:  &block.DefRange,
		})
	case cfg.From != nil:
		zero, d := waveFor(*cfg.From, g, block.DefRange)
		diags = append(diags, d...)
		field.Zero = zero
		field.Inversed = true
	case cfg.To != nil:
		zero, d := waveFor(*cfg.To, g, block.DefRange)
		diags = append(diags, d...)
		field.Zero = zero
	default:
		diags = append(diags, &hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "Missing field target",
			Detail:   "A \"field\" block needs a to attribute (attract) or a from attribute (repel).",
			Subject:  &block.DefRange,
		})
	}
	if diags.HasErrors() {
		return nil, 0, diags
	}
	return field, value, diags
}

// decodeObserve builds an observation and returns the symbol value it is
// keyed on.
func decodeObserve(block *hcl.Block, g *grid.Grid) (*engine.Observation, byte, hcl.Diagnostics) {
	value, diags := symbolValue(block.Labels[0], block.LabelRanges[0], g)

	var cfg observeConfig
	diags = append(diags, gohcl.DecodeBody(block.Body, nil, &cfg)...)
	if diags.HasErrors() {
		return nil, 0, diags
	}

	// The observed symbol doubles as the default replacement.
	from := []rune(block.Labels[0])[0]
	if cfg.From != nil {
		runes := []rune(*cfg.From)
		if len(runes) != 1 {
			diags = append(diags, &hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Invalid \"from\" value",
				Detail:   "The from attribute takes a single grid symbol.",
				Subject:  &block.DefRange,
			})
		} else {
			from = runes[0]
		}
	}
	diags = append(diags, checkSymbols(cfg.To, g, block.DefRange)...)
	if diags.HasErrors() {
		return nil, 0, diags
	}

	obs, err := engine.NewObservation(from, cfg.To, g)
	if err != nil {
		diags = append(diags, &hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "Invalid observation",
			Detail:   fmt.Sprintf("Cannot observe %q: %s.", block.Labels[0], err),
			Subject:  &block.DefRange,
		})
		return nil, 0, diags
	}
	return obs, value, diags
}

// decodeConvolutionRule builds one convolution rule.
func decodeConvolutionRule(block *hcl.Block, g *grid.Grid) (*engine.ConvolutionRule, hcl.Diagnostics) {
	var cfg convolutionRuleConfig
	diags := gohcl.DecodeBody(block.Body, nil, &cfg)
	if diags.HasErrors() {
		return nil, diags
	}

	input, d := symbolValue(cfg.In, block.DefRange, g)
	diags = append(diags, d...)
	output, d := symbolValue(cfg.Out, block.DefRange, g)
	diags = append(diags, d...)

	rule := &engine.ConvolutionRule{Input: input, Output: output, P: probability(cfg.P)}
	switch {
	case cfg.Values != nil && cfg.Sum != nil:
		// Unions are not counted by the convolution kernel, so each value
		// must name a plain grid symbol.
		for _, c := range *cfg.Values {
			v, ok := g.Values[c]
			if !ok {
				diags = append(diags, &hcl.Diagnostic{
					Severity: hcl.DiagError,
					Summary:  "Unknown symbol",
					Detail:   fmt.Sprintf("The symbol %q is not in the grid alphabet.", c),
					Subject:  &block.DefRange,
				})
				continue
			}
			rule.Values = append(rule.Values, v)
		}
		sums, err := engine.ParseSumIntervals(*cfg.Sum)
		if err != nil {
			diags = append(diags, &hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Invalid \"sum\" value",
				Detail:   fmt.Sprintf("Cannot parse the sum intervals: %s.", err),
				Subject:  &block.DefRange,
			})
		}
		rule.Sums = sums
	case cfg.Values != nil || cfg.Sum != nil:
		diags = append(diags, &hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "Incomplete sum constraint",
			Detail:   "The values and sum attributes must be set together.",
			Subject:  &block.DefRange,
		})
	}
	if diags.HasErrors() {
		return nil, diags
	}
	return rule, diags
}

// probability resolves an optional p attribute, defaulting to 1.
func probability(p *float64) float64 {
	if p == nil {
		return 1.0
	}
	return *p
}

// symbolValue resolves a single-symbol string to its grid value.
func symbolValue(label string, rng hcl.Range, g *grid.Grid) (byte, hcl.Diagnostics) {
	runes := []rune(label)
	if len(runes) != 1 {
		return 0, hcl.Diagnostics{{
			Severity: hcl.DiagError,
			Summary:  "Invalid symbol label",
			Detail:   fmt.Sprintf("The label %q must be a single grid symbol.", label),
			Subject:  &rng,
		}}
	}
	value, ok := g.Values[runes[0]]
	if !ok {
		return 0, hcl.Diagnostics{{
			Severity: hcl.DiagError,
			Summary:  "Unknown symbol",
			Detail:   fmt.Sprintf("The symbol %q is not in the grid alphabet.", runes[0]),
			Subject:  &rng,
		}}
	}
	return value, nil
}

// waveFor resolves a symbol set to its wave bitmask, validating every symbol
// first.
func waveFor(symbols string, g *grid.Grid, rng hcl.Range) (uint32, hcl.Diagnostics) {
	if diags := checkSymbols(symbols, g, rng); diags.HasErrors() {
		return 0, diags
	}
	return g.Wave(symbols), nil
}

// checkSymbols validates that every rune names a grid symbol or union.
func checkSymbols(symbols string, g *grid.Grid, rng hcl.Range) hcl.Diagnostics {
	var diags hcl.Diagnostics
	if symbols == "" {
		return hcl.Diagnostics{{
			Severity: hcl.DiagError,
			Summary:  "Missing symbols",
			Detail:   "At least one grid symbol is required here.",
			Subject:  &rng,
		}}
	}
	for _, c := range symbols {
		if _, ok := g.Waves[c]; !ok {
			diags = append(diags, &hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Unknown symbol",
				Detail:   fmt.Sprintf("The symbol %q is not in the grid alphabet.", c),
				Subject:  &rng,
			})
		}
	}
	return diags
}
