package circuit

import (
	"fmt"
	"strings"
)

// A Vtree is a node of the variable order: a full binary tree whose leaves are the variables.
// Internal nodes created by MoveVar replace older ones; a Vtree that was removed from the order is detached
// and must not be used as a pivot anymore.
type Vtree struct {
	parent   *Vtree
	left     *Vtree
	right    *Vtree
	v        int // var for leaves, 0 for internal nodes
	pos      int // in-order position
	detached bool
}

// IsLeaf is true iff v is a leaf of the vtree.
func (v *Vtree) IsLeaf() bool { return v.left == nil }

// Var returns the variable of a leaf, or 0 for an internal node.
func (v *Vtree) Var() int { return v.v }

// Left returns the left child of v, or nil if v is a leaf.
func (v *Vtree) Left() *Vtree { return v.left }

// Right returns the right child of v, or nil if v is a leaf.
func (v *Vtree) Right() *Vtree { return v.right }

// Parent returns the parent of v, or nil for the root.
func (v *Vtree) Parent() *Vtree { return v.parent }

// Position returns the in-order position of v. Positions are recomputed each time the order changes.
func (v *Vtree) Position() int { return v.pos }

// String returns a parenthesized representation of the subtree rooted at v.
func (v *Vtree) String() string {
	var sb strings.Builder
	v.write(&sb)
	return sb.String()
}

func (v *Vtree) write(sb *strings.Builder) {
	if v.IsLeaf() {
		fmt.Fprintf(sb, "%d", v.v)
		return
	}
	sb.WriteByte('(')
	v.left.write(sb)
	sb.WriteByte(' ')
	v.right.write(sb)
	sb.WriteByte(')')
}

// vars appends the variables of the leaves under v, from left to right.
func (v *Vtree) vars(dst []int) []int {
	if v.IsLeaf() {
		return append(dst, v.v)
	}
	return v.right.vars(v.left.vars(dst))
}

// mask returns the support mask of the variables under v.
func (v *Vtree) mask() uint64 {
	if v.IsLeaf() {
		return varBit(v.v)
	}
	return v.left.mask() | v.right.mask()
}

// balanced builds a balanced vtree over vars lo..hi, both included.
func balanced(lo, hi int, leaves []*Vtree) *Vtree {
	if lo == hi {
		leaf := &Vtree{v: lo}
		leaves[lo-1] = leaf
		return leaf
	}
	mid := (lo + hi) / 2
	node := &Vtree{left: balanced(lo, mid, leaves), right: balanced(mid+1, hi, leaves)}
	node.left.parent = node
	node.right.parent = node
	return node
}

// rightLinear builds a right-linear chain over the given leaves, in order.
func rightLinear(leaves []*Vtree) *Vtree {
	last := leaves[len(leaves)-1]
	last.parent = nil
	for i := len(leaves) - 2; i >= 0; i-- {
		node := &Vtree{left: leaves[i], right: last}
		leaves[i].parent = node
		last.parent = node
		last = node
	}
	return last
}
