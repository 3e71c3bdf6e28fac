package search

import "github.com/crillab/gophersel/circuit"

// Engine is the logical-circuit engine the search drives.
// *circuit.Manager implements it.
type Engine interface {
	NbVars() int
	Literal(lit int) (*circuit.Node, error)
	Condition(lit int, n *circuit.Node) (*circuit.Node, error)
	Conjoin(a, b *circuit.Node) (*circuit.Node, error)
	Disjoin(a, b *circuit.Node) (*circuit.Node, error)
	Ref(n *circuit.Node)
	Deref(n *circuit.Node)
	GarbageCollect()
	// MoveVar destructively changes the variable order: the leaf of v becomes the left (or right) sibling of pivot.
	MoveVar(v int, toLeft bool, pivot *circuit.Vtree) error
	Vtree() *circuit.Vtree
	Leaf(v int) *circuit.Vtree
	MinimizeLimited(v *circuit.Vtree)
	// Evaluate must return a Bound that is an upper bound on the agreement of every subset of Y.
	Evaluate(n *circuit.Node, q circuit.Query) (circuit.Score, error)
}

var _ Engine = (*circuit.Manager)(nil)
