package circuit

import (
	"math/bits"

	"github.com/RoaringBitmap/roaring/v2/roaring64"
)

// MaxVars is the maximum number of variables a Manager can handle:
// each model is stored as a 64-bit word, one bit per variable.
const MaxVars = 64

// A Node is a handle on a Boolean function managed by a Manager.
// The function is represented by its support (the set of variables it may depend on)
// and the set of its models, restricted to the support.
// Nodes are owned by their Manager: they must be referenced (Manager.Ref) to survive a garbage collection.
type Node struct {
	id      uint64
	support uint64
	models  *roaring64.Bitmap
	refs    int
	pinned  bool // Literals and constants are never collected
	dead    bool
}

// ID returns the unique identifier of n in its manager.
func (n *Node) ID() uint64 { return n.id }

// Size returns the number of models of n, restricted to its support.
func (n *Node) Size() uint64 {
	if n.dead {
		panic("circuit: use of a collected node")
	}
	return n.models.GetCardinality()
}

// Support returns the variables n may depend on, in increasing order.
func (n *Node) Support() []int {
	return maskVars(n.support)
}

// IsFalse is true iff n has no model.
func (n *Node) IsFalse() bool { return n.Size() == 0 }

func varBit(v int) uint64 {
	return 1 << uint(v-1)
}

func maskVars(mask uint64) []int {
	res := make([]int, 0, bits.OnesCount64(mask))
	for mask != 0 {
		i := bits.TrailingZeros64(mask)
		res = append(res, i+1)
		mask &^= 1 << uint(i)
	}
	return res
}
