package search

import (
	"github.com/crillab/gophersel/circuit"
	"github.com/pkg/errors"
)

// ErrSpineTooShort is returned when a right-linear node deeper than the right-most path of the vtree is requested.
var ErrSpineTooShort = errors.New("right-most path of the vtree is too short")

// spineNode returns the right-linear node at the given depth, i.e the node reached after depth right descents from root.
func spineNode(root *circuit.Vtree, depth int) (*circuit.Vtree, error) {
	v := root
	for i := 0; i < depth; i++ {
		if v.IsLeaf() {
			return nil, errors.Wrapf(ErrSpineTooShort, "no right-linear node at depth %d", depth)
		}
		v = v.Right()
	}
	return v, nil
}

// locateBoundaries returns the positions of the right-linear nodes at depth y and xy.
// The first y features of the vtree are the selected ones, the first xy features are all the features.
func locateBoundaries(root *circuit.Vtree, y, xy int) (yPos, xyPos int, err error) {
	if y < 0 || y > xy {
		return 0, 0, errors.Errorf("invalid boundaries: %d selected features out of %d", y, xy)
	}
	v := root
	for i := 0; ; i++ {
		if i == y {
			yPos = v.Position()
		}
		if i == xy {
			return yPos, v.Position(), nil
		}
		if v.IsLeaf() {
			return 0, 0, errors.Wrapf(ErrSpineTooShort, "no right-linear node at depth %d", xy)
		}
		v = v.Right()
	}
}
