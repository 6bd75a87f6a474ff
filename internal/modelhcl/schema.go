package modelhcl

import (
	"github.com/hashicorp/hcl/v2"
)

// gridConfig carries the scalar attributes of the grid block. Size stays an
// expression so dimension errors get their own diagnostics; union blocks stay
// in Remain so they can be walked with their source ranges.
type gridConfig struct {
	Size     hcl.Expression `hcl:"size,optional"`
	Symbols  string         `hcl:"symbols"`
	Origin   bool           `hcl:"origin,optional"`
	Symmetry *string        `hcl:"symmetry,optional"`
	Remain   hcl.Body       `hcl:",remain"`
}

// unionConfig is the body of a union block. The block label names the
// shorthand symbol being registered.
type unionConfig struct {
	Symbols string `hcl:"symbols"`
}

// branchConfig is the body of a markov or sequence block. The child node
// blocks stay in Remain so their source order survives decoding.
type branchConfig struct {
	Symmetry *string  `hcl:"symmetry,optional"`
	Remain   hcl.Body `hcl:",remain"`
}

// ruleNodeConfig carries the scalar attributes of a one, all, or prl block.
// Rule, field, observe, and search blocks stay in Remain.
type ruleNodeConfig struct {
	In          *string  `hcl:"in,optional"`
	Out         *string  `hcl:"out,optional"`
	P           *float64 `hcl:"p,optional"`
	Symmetry    *string  `hcl:"symmetry,optional"`
	Steps       int      `hcl:"steps,optional"`
	Temperature float64  `hcl:"temperature,optional"`
	Remain      hcl.Body `hcl:",remain"`
}

// ruleConfig is the body of a rule block inside a rule-bearing node.
type ruleConfig struct {
	In       string   `hcl:"in"`
	Out      string   `hcl:"out"`
	P        *float64 `hcl:"p,optional"`
	Symmetry *string  `hcl:"symmetry,optional"`
}

// fieldConfig is the body of a field block. The block label names the
// symbol whose matches the field scores.
type fieldConfig struct {
	On        string  `hcl:"on"`
	From      *string `hcl:"from,optional"`
	To        *string `hcl:"to,optional"`
	Recompute bool    `hcl:"recompute,optional"`
	Essential bool    `hcl:"essential,optional"`
}

// observeConfig is the body of an observe block. The block label names the
// observed symbol; from defaults to that symbol.
type observeConfig struct {
	From *string `hcl:"from,optional"`
	To   string  `hcl:"to"`
}

// searchConfig is the body of a search block.
type searchConfig struct {
	Limit            *int     `hcl:"limit,optional"`
	DepthCoefficient *float64 `hcl:"depth_coefficient,optional"`
}

// pathConfig is the body of a path block.
type pathConfig struct {
	From     string  `hcl:"from"`
	To       string  `hcl:"to"`
	On       string  `hcl:"on"`
	Color    *string `hcl:"color,optional"`
	Inertia  bool    `hcl:"inertia,optional"`
	Longest  bool    `hcl:"longest,optional"`
	Edges    bool    `hcl:"edges,optional"`
	Vertices bool    `hcl:"vertices,optional"`
}

// convolutionConfig carries the scalar attributes of a convolution block.
// Rule blocks stay in Remain.
type convolutionConfig struct {
	Neighborhood string   `hcl:"neighborhood"`
	Periodic     bool     `hcl:"periodic,optional"`
	Steps        int      `hcl:"steps,optional"`
	Remain       hcl.Body `hcl:",remain"`
}

// convolutionRuleConfig is the body of a rule block inside a convolution.
type convolutionRuleConfig struct {
	In     string   `hcl:"in"`
	Out    string   `hcl:"out"`
	P      *float64 `hcl:"p,optional"`
	Values *string  `hcl:"values,optional"`
	Sum    *string  `hcl:"sum,optional"`
}

// nodeBlockHeaders lists every node block type a tree position accepts.
var nodeBlockHeaders = []hcl.BlockHeaderSchema{
	{Type: "one"},
	{Type: "all"},
	{Type: "prl"},
	{Type: "markov"},
	{Type: "sequence"},
	{Type: "path"},
	{Type: "convolution"},
}

// rootSchema admits the grid block plus exactly the node block types.
var rootSchema = &hcl.BodySchema{
	Blocks: append([]hcl.BlockHeaderSchema{{Type: "grid"}}, nodeBlockHeaders...),
}

// gridSchema admits the blocks of a grid body once its attributes are
// decoded away.
var gridSchema = &hcl.BodySchema{
	Blocks: []hcl.BlockHeaderSchema{
		{Type: "union", LabelNames: []string{"symbol"}},
	},
}

// branchSchema admits the child blocks of a markov or sequence body.
var branchSchema = &hcl.BodySchema{
	Blocks: nodeBlockHeaders,
}

// ruleNodeSchema admits the blocks of a one, all, or prl body.
var ruleNodeSchema = &hcl.BodySchema{
	Blocks: []hcl.BlockHeaderSchema{
		{Type: "rule"},
		{Type: "field", LabelNames: []string{"symbol"}},
		{Type: "observe", LabelNames: []string{"symbol"}},
		{Type: "search"},
	},
}

// convolutionSchema admits the blocks of a convolution body.
var convolutionSchema = &hcl.BodySchema{
	Blocks: []hcl.BlockHeaderSchema{
		{Type: "rule"},
	},
}
