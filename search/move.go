package search

import (
	"slices"

	"github.com/crillab/gophersel/circuit"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// pins holds references on transient nodes until release is called.
type pins struct {
	eng   Engine
	nodes []*circuit.Node
}

// hold references n, unless err is not nil.
func (p *pins) hold(n *circuit.Node, err error) (*circuit.Node, error) {
	if err != nil {
		return nil, err
	}
	p.eng.Ref(n)
	p.nodes = append(p.nodes, n)
	return n, nil
}

func (p *pins) release() {
	for _, n := range p.nodes {
		p.eng.Deref(n)
	}
	p.nodes = nil
}

// featureAt is true iff the block on the left of the right-linear node pivot starts with a variable of f.
// Feature blocks are contiguous once placed, so looking at the left-most leaf is enough.
func featureAt(pivot *circuit.Vtree, f Feature) bool {
	if pivot.IsLeaf() {
		return false
	}
	v := pivot.Left()
	for !v.IsLeaf() {
		v = v.Left()
	}
	return slices.Contains(f.Vars, v.Var())
}

// inPlace is true iff the leaf of v already is the left (if toLeft) or right sibling of pivot.
func inPlace(v int, toLeft bool, pivot *circuit.Vtree) bool {
	if toLeft {
		left := pivot.Left()
		return left != nil && left.IsLeaf() && left.Var() == v
	}
	parent := pivot.Parent()
	if parent == nil || parent.Left() != pivot {
		return false
	}
	right := parent.Right()
	return right.IsLeaf() && right.Var() == v
}

// reposition moves the variables of f so that the first one becomes the left child of the right-linear node at depth,
// and each other one the right sibling of the previous one. The function represented by the root does not change.
// If f came from above the target node, its block ends up at depth-1, since its former right-linear node disappears.
// Unless force is true, nothing is done if f already is the left block of the target node.
func (c *Context) reposition(f Feature, depth int, force bool) error {
	pivot, err := spineNode(c.eng.Vtree(), depth)
	if err != nil {
		return err
	}
	if !force && featureAt(pivot, f) {
		c.metrics.MovesSkipped.Inc()
		return nil
	}
	for i, v := range f.Vars {
		if i == 0 {
			err = c.moveVar(v, true, pivot)
		} else {
			err = c.moveVar(v, false, c.eng.Leaf(f.Vars[i-1]))
		}
		if err != nil {
			return errors.Wrapf(err, "could not move feature %q to depth %d", f.Name, depth)
		}
	}
	c.metrics.Moves.Inc()
	c.log.WithFields(logrus.Fields{"feature": f.Name, "depth": depth, "root": c.root.ID()}).Debug("feature moved")
	return nil
}

// moveVar moves v next to pivot and rebuilds the root from its two cofactors,
// as root = (v & root|v) | (-v & root|-v).
func (c *Context) moveVar(v int, toLeft bool, pivot *circuit.Vtree) error {
	if inPlace(v, toLeft, pivot) {
		return nil
	}
	p := pins{eng: c.eng}
	defer p.release()
	pos, err := p.hold(c.eng.Condition(v, c.root))
	if err != nil {
		return err
	}
	neg, err := p.hold(c.eng.Condition(-v, c.root))
	if err != nil {
		return err
	}
	if err := c.eng.MoveVar(v, toLeft, pivot); err != nil {
		return err
	}
	lit, err := c.eng.Literal(v)
	if err != nil {
		return err
	}
	nlit, err := c.eng.Literal(-v)
	if err != nil {
		return err
	}
	a, err := p.hold(c.eng.Conjoin(lit, pos))
	if err != nil {
		return err
	}
	b, err := p.hold(c.eng.Conjoin(nlit, neg))
	if err != nil {
		return err
	}
	root, err := c.eng.Disjoin(a, b)
	if err != nil {
		return err
	}
	c.eng.Ref(root)
	c.eng.Deref(c.root)
	c.root = root
	p.release()
	c.eng.GarbageCollect()
	return nil
}
