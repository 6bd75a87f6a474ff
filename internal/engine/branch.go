package engine

// branch holds the shared walk state of SequenceNode and MarkovNode: the
// index of the child to try next and, when a child branch has taken over the
// turn, that child's index.
type branch struct {
	children []Node
	n        int
	active   int // index of the delegated child branch, -1 when none
}

func newBranch(children []Node) branch {
	return branch{children: children, active: -1}
}

// step advances the branch by one turn. With restart set the walk begins at
// the first child again, which is what makes a markov block loop.
func (b *branch) step(ctx *ExecutionContext, restart bool) bool {
	if b.active >= 0 {
		if b.children[b.active].Go(ctx) {
			return true
		}
		// The delegated child exhausted itself and reset. The walk resumes
		// at the same index next turn, giving the child a fresh run; it
		// yields for good only once it makes no progress at all.
		b.active = -1
		return true
	}

	if restart {
		b.n = 0
	}
	for b.n < len(b.children) {
		child := b.children[b.n]
		if child.Go(ctx) {
			if child.IsBranch() {
				b.active = b.n
			}
			return true
		}
		b.n++
	}
	b.reset()
	return false
}

func (b *branch) reset() {
	for _, c := range b.children {
		c.Reset()
	}
	b.n = 0
	b.active = -1
}

func (b *branch) structures() []NodeStructure {
	out := make([]NodeStructure, len(b.children))
	for i, c := range b.children {
		out[i] = c.Structure()
	}
	return out
}

// SequenceNode runs its children in order. Each child keeps the turn until
// it reports no progress, then the next child takes over. The sequence is
// done when the last child is.
type SequenceNode struct {
	branch
}

// NewSequenceNode builds a sequence over the given children.
func NewSequenceNode(children ...Node) *SequenceNode {
	return &SequenceNode{branch: newBranch(children)}
}

func (s *SequenceNode) Go(ctx *ExecutionContext) bool { return s.step(ctx, false) }

func (s *SequenceNode) Reset() { s.reset() }

func (s *SequenceNode) IsBranch() bool { return true }

func (s *SequenceNode) Structure() NodeStructure {
	return NodeStructure{Type: "sequence", Children: s.structures()}
}

// MarkovNode retries its children from the top after every successful turn,
// so an earlier child preempts later ones for as long as it can act.
type MarkovNode struct {
	branch
}

// NewMarkovNode builds a markov block over the given children.
func NewMarkovNode(children ...Node) *MarkovNode {
	return &MarkovNode{branch: newBranch(children)}
}

func (m *MarkovNode) Go(ctx *ExecutionContext) bool { return m.step(ctx, true) }

func (m *MarkovNode) Reset() { m.reset() }

func (m *MarkovNode) IsBranch() bool { return true }

func (m *MarkovNode) Structure() NodeStructure {
	return NodeStructure{Type: "markov", Children: m.structures()}
}
