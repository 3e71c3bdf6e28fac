package circuit

import (
	"sort"

	"github.com/pkg/errors"
)

// ErrNoModel is returned when the weighted model count of a node is zero.
var ErrNoModel = errors.New("weighted model count is zero")

// Weights associates a weight with each literal. Weights are indexed by signed literal:
// the weight of lit is stored at index lit+nbVars. Index nbVars (literal 0) is unused.
type Weights []float64

// NewWeights returns a weight table for nbVars variables where all literals weigh 1.
func NewWeights(nbVars int) Weights {
	w := make(Weights, 2*nbVars+1)
	for i := range w {
		w[i] = 1
	}
	return w
}

// NbVars returns the number of variables covered by w.
func (w Weights) NbVars() int { return (len(w) - 1) / 2 }

// Of returns the weight of lit.
func (w Weights) Of(lit int) float64 { return w[lit+w.NbVars()] }

// Set sets the weight of lit.
func (w Weights) Set(lit int, weight float64) { w[lit+w.NbVars()] = weight }

// A Query describes what Evaluate must compute.
// XY and Y are the in-order positions of two vtree nodes on the right-most path of the vtree,
// with the Y node at or below the XY node. Variables outside the XY subtree are the features X,
// variables outside the Y subtree are the selected features Y.
type Query struct {
	Weights   Weights
	Decision  int     // Decision literal
	Threshold float64 // The decision is taken when Pr(decision | evidence) >= Threshold
	XY        int
	Y         int
	Exact     bool // Also compute the agreement of Y itself
}

// A Score is the result of an evaluation.
type Score struct {
	// Bound is the maximum potential agreement of Y: an upper bound on the expected classification
	// agreement of any subset of Y with X.
	Bound float64
	// Agreement is the expected classification agreement of Y with X. Only set for exact queries.
	Agreement float64
}

type mass struct {
	all      float64 // Pr(z)
	decision float64 // Pr(z, decision)
	pos, neg float64 // mass of the completions x of z such that D(x) is true (pos) or false (neg)
}

func (m *mass) decide(threshold float64) bool {
	return m.decision/m.all >= threshold
}

// Evaluate computes the maximum potential agreement of the features in Y and, for exact queries,
// their expected classification agreement, with respect to the distribution defined by the
// weighted models of n.
func (m *Manager) Evaluate(n *Node, q Query) (Score, error) {
	m.checkLive(n)
	if q.Weights.NbVars() != m.nbVars {
		return Score{}, errors.Errorf("weight table covers %d vars, manager has %d", q.Weights.NbVars(), m.nbVars)
	}
	dv, err := m.checkLit(q.Decision)
	if err != nil {
		return Score{}, errors.Wrap(err, "invalid decision literal")
	}
	xyNode, yNode := m.AtPosition(q.XY), m.AtPosition(q.Y)
	if xyNode == nil || yNode == nil {
		return Score{}, errors.Wrapf(ErrStaleVtree, "invalid constrained positions %d and %d", q.XY, q.Y)
	}
	xMask := m.allMask &^ xyNode.mask()
	yMask := m.allMask &^ yNode.mask()
	if yMask&^xMask != 0 {
		return Score{}, errors.Errorf("Y node at %d is not below XY node at %d", q.Y, q.XY)
	}
	support := maskVars(n.support)
	dBit := varBit(dv)
	dShare := 1.0
	if n.support&dBit == 0 {
		dShare = q.Weights.Of(q.Decision) / (q.Weights.Of(q.Decision) + q.Weights.Of(-q.Decision))
	}
	byX := make(map[uint64]*mass)
	for _, model := range n.models.ToArray() {
		w := 1.0
		for _, v := range support {
			if model&varBit(v) != 0 {
				w *= q.Weights.Of(v)
			} else {
				w *= q.Weights.Of(-v)
			}
		}
		x := model & xMask
		mx := byX[x]
		if mx == nil {
			mx = &mass{}
			byX[x] = mx
		}
		mx.all += w
		if n.support&dBit == 0 {
			mx.decision += w * dShare
		} else if (model&dBit != 0) == (q.Decision > 0) {
			mx.decision += w
		}
	}
	// Sums are made in key order so that evaluations are reproducible.
	var total float64
	byY := make(map[uint64]*mass)
	for _, x := range sortedKeys(byX) {
		mx := byX[x]
		if mx.all == 0 {
			continue
		}
		total += mx.all
		y := x & yMask
		my := byY[y]
		if my == nil {
			my = &mass{}
			byY[y] = my
		}
		my.all += mx.all
		my.decision += mx.decision
		if mx.decide(q.Threshold) {
			my.pos += mx.all
		} else {
			my.neg += mx.all
		}
	}
	if total == 0 {
		return Score{}, ErrNoModel
	}
	var score Score
	for _, y := range sortedKeys(byY) {
		my := byY[y]
		if my.pos > my.neg {
			score.Bound += my.pos
		} else {
			score.Bound += my.neg
		}
		if q.Exact {
			if my.decide(q.Threshold) {
				score.Agreement += my.pos
			} else {
				score.Agreement += my.neg
			}
		}
	}
	score.Bound /= total
	score.Agreement /= total
	return score, nil
}

func sortedKeys(m map[uint64]*mass) []uint64 {
	keys := make([]uint64, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
