package modelhcl

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/vk/morphgrid/internal/ctxlog"
	"github.com/vk/morphgrid/internal/engine"
	"github.com/vk/morphgrid/internal/grid"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/gocty"
)

// Model is a fully constructed rewrite program: the grid it runs on, the
// root of its node tree, and whether a run seeds a center origin cell.
type Model struct {
	Grid   *grid.Grid
	Root   engine.Node
	Origin bool
}

// SizeOverride forces grid dimensions regardless of what the model file
// declares. Zero components keep the declared extent.
type SizeOverride struct {
	MX, MY, MZ int
}

// Grid extent when neither the model nor the caller specifies one.
const (
	defaultMX = 16
	defaultMY = 16
	defaultMZ = 1
)

// LoadFile reads and decodes one HCL model file.
func LoadFile(ctx context.Context, path string, size SizeOverride) (*Model, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse model file %s: %w", path, diags)
	}
	return build(ctx, file, path, size)
}

// Load decodes a model from an in-memory HCL document. The filename only
// labels diagnostic ranges.
func Load(ctx context.Context, src []byte, filename string, size SizeOverride) (*Model, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse model %s: %w", filename, diags)
	}
	return build(ctx, file, filename, size)
}

// build assembles the grid and node tree from a parsed file.
func build(ctx context.Context, file *hcl.File, name string, size SizeOverride) (*Model, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Decoding model.", "name", name)

	content, diags := file.Body.Content(rootSchema)

	gridBlock, d := findUniqueBlock(content.Blocks, "grid")
	diags = append(diags, d...)

	var rootBlock *hcl.Block
	for _, block := range content.Blocks {
		if block.Type == "grid" {
			continue
		}
		if rootBlock != nil {
			diags = append(diags, &hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Multiple root nodes",
				Detail:   "A model defines exactly one node block next to the \"grid\" block; nest further nodes under a markov or sequence block.",
				Subject:  &block.DefRange,
			})
			continue
		}
		rootBlock = block
	}

	if gridBlock == nil {
		diags = append(diags, &hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "Missing \"grid\" block",
			Detail:   "A model starts with a \"grid\" block declaring its symbols.",
		})
	}
	if rootBlock == nil {
		diags = append(diags, &hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "Missing root node",
			Detail:   "A model defines one node block (one, all, prl, markov, sequence, path, or convolution) next to the \"grid\" block.",
		})
	}
	if diags.HasErrors() {
		return nil, invalidModel(name, diags)
	}

	g, origin, symmetry, d := decodeGrid(gridBlock, size)
	diags = append(diags, d...)
	if diags.HasErrors() {
		return nil, invalidModel(name, diags)
	}

	node, d := decodeNode(rootBlock, g, symmetry)
	diags = append(diags, d...)
	if diags.HasErrors() {
		return nil, invalidModel(name, diags)
	}

	root := node
	if !root.IsBranch() {
		root = engine.NewMarkovNode(node)
	}

	logger.Debug("Model decoded.",
		"name", name,
		"mx", g.MX, "my", g.MY, "mz", g.MZ,
		"symbols", string(g.Characters),
		"origin", origin,
	)
	return &Model{Grid: g, Root: root, Origin: origin}, nil
}

// decodeGrid builds the grid from its block and returns the origin flag and
// the model-wide symmetry subgroup alongside it.
func decodeGrid(block *hcl.Block, size SizeOverride) (*grid.Grid, bool, string, hcl.Diagnostics) {
	var cfg gridConfig
	diags := gohcl.DecodeBody(block.Body, nil, &cfg)
	if diags.HasErrors() {
		return nil, false, "", diags
	}

	mx, my, mz := defaultMX, defaultMY, defaultMZ
	if d := decodeSize(cfg.Size, &mx, &my, &mz); d.HasErrors() {
		diags = append(diags, d...)
		return nil, false, "", diags
	}
	if size.MX > 0 {
		mx = size.MX
	}
	if size.MY > 0 {
		my = size.MY
	}
	if size.MZ > 0 {
		mz = size.MZ
	}

	g, err := grid.NewGrid(mx, my, mz, cfg.Symbols)
	if err != nil {
		diags = append(diags, &hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "Invalid grid",
			Detail:   fmt.Sprintf("Cannot create the grid: %s.", err),
			Subject:  &block.DefRange,
		})
		return nil, false, "", diags
	}

	content, d := cfg.Remain.Content(gridSchema)
	diags = append(diags, d...)
	for _, inner := range content.Blocks {
		var uc unionConfig
		d := gohcl.DecodeBody(inner.Body, nil, &uc)
		diags = append(diags, d...)
		if d.HasErrors() {
			continue
		}
		runes := []rune(inner.Labels[0])
		if len(runes) != 1 {
			diags = append(diags, &hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Invalid union symbol",
				Detail:   fmt.Sprintf("The union label %q must be a single symbol.", inner.Labels[0]),
				Subject:  &inner.LabelRanges[0],
			})
			continue
		}
		if err := g.Union(runes[0], uc.Symbols); err != nil {
			diags = append(diags, &hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Invalid union",
				Detail:   fmt.Sprintf("Cannot define union %q: %s.", inner.Labels[0], err),
				Subject:  &inner.DefRange,
			})
		}
	}

	symmetry := grid.SymmetryAll
	if !g.Is2D() {
		symmetry = identitySymmetry
	}
	if cfg.Symmetry != nil {
		if d := validateSymmetry(*cfg.Symmetry, g, block.DefRange); len(d) > 0 {
			diags = append(diags, d...)
		} else {
			symmetry = *cfg.Symmetry
		}
	}

	return g, cfg.Origin, symmetry, diags
}

// decodeSize evaluates the size attribute into grid dimensions. It accepts
// [width, height] or [width, height, depth] tuples of whole numbers and
// leaves the defaults alone when the attribute is absent.
func decodeSize(expr hcl.Expression, mx, my, mz *int) hcl.Diagnostics {
	if expr == nil {
		return nil
	}
	val, diags := expr.Value(nil)
	if diags.HasErrors() {
		return diags
	}
	if val.IsNull() {
		return nil
	}

	rng := expr.Range()
	invalid := func(detail string) hcl.Diagnostics {
		return hcl.Diagnostics{{
			Severity: hcl.DiagError,
			Summary:  "Invalid \"size\" value",
			Detail:   detail,
			Subject:  &rng,
		}}
	}

	converted, err := convert.Convert(val, cty.List(cty.Number))
	if err != nil {
		return invalid("The size attribute takes [width, height] or [width, height, depth].")
	}
	var dims []int
	if err := gocty.FromCtyValue(converted, &dims); err != nil {
		return invalid(fmt.Sprintf("Grid dimensions must be whole numbers: %s.", err))
	}

	switch len(dims) {
	case 2:
		*mx, *my = dims[0], dims[1]
	case 3:
		*mx, *my, *mz = dims[0], dims[1], dims[2]
	default:
		return invalid("The size attribute takes [width, height] or [width, height, depth].")
	}
	return nil
}

// findUniqueBlock searches blocks for all blocks of a given type. It returns
// a diagnostic error if more than one block of that type is found. If no
// block is found, it returns nil.
func findUniqueBlock(blocks hcl.Blocks, name string) (*hcl.Block, hcl.Diagnostics) {
	var found *hcl.Block
	var diags hcl.Diagnostics

	for _, block := range blocks {
		if block.Type == name {
			if found != nil {
				diags = append(diags, &hcl.Diagnostic{
					Severity: hcl.DiagError,
					Summary:  "Duplicate \"" + name + "\" block",
					Detail:   "Only one \"" + name + "\" block is allowed.",
					Subject:  &block.DefRange,
				})
			}
			found = block
		}
	}

	return found, diags
}

func invalidModel(name string, diags hcl.Diagnostics) error {
	return fmt.Errorf("invalid model %s: %w", name, diags)
}
