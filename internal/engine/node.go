package engine

// Node is one element of a model tree.
//
// Go performs one turn of work and reports whether any progress was made.
// A node that returns false is finished until Reset.
type Node interface {
	Go(ctx *ExecutionContext) bool
	Reset()

	// IsBranch reports whether the node delegates turns to children.
	IsBranch() bool

	// Structure describes the node for external tooling. The result carries
	// no execution state and building it must not disturb any.
	Structure() NodeStructure
}

// NodeStructure is a read-only description of a node tree: the node kind,
// its rules rendered as strings, free-form settings, and child descriptions.
type NodeStructure struct {
	Type     string
	Rules    []string
	Config   map[string]any
	Children []NodeStructure
}
