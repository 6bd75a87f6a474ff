package modelhcl

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/vk/morphgrid/internal/engine"
	"github.com/vk/morphgrid/internal/grid"
)

// ruleNode is the configurable surface shared by one, all, and prl nodes.
type ruleNode interface {
	engine.Node
	SetSteps(steps int)
	SetFields(fields []*engine.Field, temperature float64)
	SetObservations(observations []*engine.Observation)
	SetSearch(limit int, depthCoefficient float64)
}

// decodeNode turns one node block into an engine node. symmetry is the
// subgroup inherited from the enclosing block.
func decodeNode(block *hcl.Block, g *grid.Grid, symmetry string) (engine.Node, hcl.Diagnostics) {
	switch block.Type {
	case "one", "all", "prl":
		return decodeRuleNode(block, g, symmetry)
	case "markov", "sequence":
		return decodeBranch(block, g, symmetry)
	case "path":
		return decodePath(block, g)
	case "convolution":
		return decodeConvolution(block, g)
	default:
		// rootSchema and branchSchema only admit the cases above.
		return nil, hcl.Diagnostics{{
			Severity: hcl.DiagError,
			Summary:  "Unknown node type",
			Detail:   fmt.Sprintf("Block type %q is not a model node.", block.Type),
			Subject:  &block.DefRange,
		}}
	}
}

// decodeBranch builds a markov or sequence node with its children in source
// order.
func decodeBranch(block *hcl.Block, g *grid.Grid, symmetry string) (engine.Node, hcl.Diagnostics) {
	var cfg branchConfig
	diags := gohcl.DecodeBody(block.Body, nil, &cfg)
	if diags.HasErrors() {
		return nil, diags
	}
	if cfg.Symmetry != nil {
		if d := validateSymmetry(*cfg.Symmetry, g, block.DefRange); len(d) > 0 {
			diags = append(diags, d...)
		} else {
			symmetry = *cfg.Symmetry
		}
	}

	content, d := cfg.Remain.Content(branchSchema)
	diags = append(diags, d...)

	children := make([]engine.Node, 0, len(content.Blocks))
	for _, child := range content.Blocks {
		node, d := decodeNode(child, g, symmetry)
		diags = append(diags, d...)
		if node != nil {
			children = append(children, node)
		}
	}
	if diags.HasErrors() {
		return nil, diags
	}

	if block.Type == "markov" {
		return engine.NewMarkovNode(children...), diags
	}
	return engine.NewSequenceNode(children...), diags
}

// decodeRuleNode builds a one, all, or prl node: its rules from the inline
// in/out pair and rule blocks, plus fields, observations, and search.
func decodeRuleNode(block *hcl.Block, g *grid.Grid, symmetry string) (engine.Node, hcl.Diagnostics) {
	var cfg ruleNodeConfig
	diags := gohcl.DecodeBody(block.Body, nil, &cfg)
	if diags.HasErrors() {
		return nil, diags
	}
	if cfg.Symmetry != nil {
		if d := validateSymmetry(*cfg.Symmetry, g, block.DefRange); len(d) > 0 {
			diags = append(diags, d...)
		} else {
			symmetry = *cfg.Symmetry
		}
	}

	var rules []*grid.Rule
	if (cfg.In == nil) != (cfg.Out == nil) {
		diags = append(diags, &hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "Incomplete inline rule",
			Detail:   "The in and out attributes must be set together.",
			Subject:  &block.DefRange,
		})
	} else if cfg.In != nil {
		expanded, d := expandRule(*cfg.In, *cfg.Out, probability(cfg.P), symmetry, g, block.DefRange)
		diags = append(diags, d...)
		rules = append(rules, expanded...)
	}

	content, d := cfg.Remain.Content(ruleNodeSchema)
	diags = append(diags, d...)

	var fields []*engine.Field
	var observations []*engine.Observation
	var search *searchConfig
	var searchRange hcl.Range

	for _, inner := range content.Blocks {
		switch inner.Type {
		case "rule":
			var rc ruleConfig
			d := gohcl.DecodeBody(inner.Body, nil, &rc)
			diags = append(diags, d...)
			if d.HasErrors() {
				continue
			}
			ruleSymmetry := symmetry
			if rc.Symmetry != nil {
				if d := validateSymmetry(*rc.Symmetry, g, inner.DefRange); len(d) > 0 {
					diags = append(diags, d...)
				} else {
					ruleSymmetry = *rc.Symmetry
				}
			}
			expanded, d := expandRule(rc.In, rc.Out, probability(rc.P), ruleSymmetry, g, inner.DefRange)
			diags = append(diags, d...)
			rules = append(rules, expanded...)
		case "field":
			field, value, d := decodeField(inner, g)
			diags = append(diags, d...)
			if field != nil {
				if fields == nil {
					fields = make([]*engine.Field, g.C)
				}
				fields[value] = field
			}
		case "observe":
			obs, value, d := decodeObserve(inner, g)
			diags = append(diags, d...)
			if obs != nil {
				if observations == nil {
					observations = make([]*engine.Observation, g.C)
				}
				observations[value] = obs
			}
		case "search":
			if search != nil {
				diags = append(diags, &hcl.Diagnostic{
					Severity: hcl.DiagError,
					Summary:  "Duplicate \"search\" block",
					Detail:   "Only one \"search\" block is allowed.",
					Subject:  &inner.DefRange,
				})
				continue
			}
			var sc searchConfig
			d := gohcl.DecodeBody(inner.Body, nil, &sc)
			diags = append(diags, d...)
			search = &sc
			searchRange = inner.DefRange
		}
	}

	if len(rules) == 0 && !diags.HasErrors() {
		diags = append(diags, &hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "Node has no rules",
			Detail:   fmt.Sprintf("A %q node needs an inline in/out pair or at least one \"rule\" block.", block.Type),
			Subject:  &block.DefRange,
		})
	}
	if search != nil && observations == nil {
		diags = append(diags, &hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "Search without observations",
			Detail:   "A \"search\" block only has effect together with \"observe\" blocks.",
			Subject:  &searchRange,
		})
	}
	if diags.HasErrors() {
		return nil, diags
	}

	var node ruleNode
	switch block.Type {
	case "one":
		node = engine.NewOneNode(rules, g.Len())
	case "all":
		node = engine.NewAllNode(rules, g.Len())
	default:
		node = engine.NewParallelNode(rules, g.Len())
	}

	node.SetSteps(cfg.Steps)
	if fields != nil {
		node.SetFields(fields, cfg.Temperature)
	}
	if observations != nil {
		node.SetObservations(observations)
	}
	if search != nil {
		limit := -1
		if search.Limit != nil {
			limit = *search.Limit
		}
		var coefficient float64
		if search.DepthCoefficient != nil {
			coefficient = *search.DepthCoefficient
		}
		node.SetSearch(limit, coefficient)
	}
	return node, diags
}

// decodePath builds a path node.
func decodePath(block *hcl.Block, g *grid.Grid) (engine.Node, hcl.Diagnostics) {
	var cfg pathConfig
	diags := gohcl.DecodeBody(block.Body, nil, &cfg)
	if diags.HasErrors() {
		return nil, diags
	}

	start, d := waveFor(cfg.From, g, block.DefRange)
	diags = append(diags, d...)
	finish, d := waveFor(cfg.To, g, block.DefRange)
	diags = append(diags, d...)
	substrate, d := waveFor(cfg.On, g, block.DefRange)
	diags = append(diags, d...)

	// The drawn color defaults to the first start symbol.
	color := cfg.From
	if cfg.Color != nil {
		color = *cfg.Color
	}
	var value byte
	if runes := []rune(color); len(runes) > 0 {
		v, d := symbolValue(string(runes[0]), block.DefRange, g)
		diags = append(diags, d...)
		value = v
	}
	if diags.HasErrors() {
		return nil, diags
	}

	node := engine.NewPathNode(start, finish, substrate, value)
	node.Inertia = cfg.Inertia
	node.Longest = cfg.Longest
	node.Edges = cfg.Edges
	node.Vertices = cfg.Vertices
	return node, diags
}

// decodeConvolution builds a convolution node.
func decodeConvolution(block *hcl.Block, g *grid.Grid) (engine.Node, hcl.Diagnostics) {
	var cfg convolutionConfig
	diags := gohcl.DecodeBody(block.Body, nil, &cfg)
	if diags.HasErrors() {
		return nil, diags
	}

	content, d := cfg.Remain.Content(convolutionSchema)
	diags = append(diags, d...)

	var rules []*engine.ConvolutionRule
	for _, inner := range content.Blocks {
		rule, d := decodeConvolutionRule(inner, g)
		diags = append(diags, d...)
		if rule != nil {
			rules = append(rules, rule)
		}
	}
	if len(rules) == 0 && !diags.HasErrors() {
		diags = append(diags, &hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "Node has no rules",
			Detail:   "A \"convolution\" node needs at least one \"rule\" block.",
			Subject:  &block.DefRange,
		})
	}
	if diags.HasErrors() {
		return nil, diags
	}

	node, err := engine.NewConvolutionNode(rules, cfg.Neighborhood, cfg.Periodic, g)
	if err != nil {
		return nil, hcl.Diagnostics{{
			Severity: hcl.DiagError,
			Summary:  "Invalid convolution",
			Detail:   fmt.Sprintf("Cannot build the convolution: %s.", err),
			Subject:  &block.DefRange,
		}}
	}
	node.SetSteps(cfg.Steps)
	return node, diags
}
