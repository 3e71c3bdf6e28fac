package search

import "sort"

// BranchAndBound starts from the set of all features and removes features one at a time
// until the remaining ones fit in the budget. The budget is turned into a maximum number k of
// selected features: the most features that fit in it when the cheapest ones are chosen.
// When features all have the same cost, every subset of at most k features fits. Otherwise,
// subsets over budget are explored but never recorded.
//
// At each level, the available features are ranked by the bound on the agreement of the
// remaining features once they are removed, and the most promising removals are explored first.
//
// In independent mode, only subsets of exactly k features are considered, which is enough
// when adding a feature can never lower the agreement. Otherwise, all subsets of at most k features are explored.
// In both modes, the recorded scores are exact agreements, never bounds.
type BranchAndBound struct {
	Independent bool
}

// a candidate is a feature that may be removed next, along with the bound on the agreement after its removal.
type candidate struct {
	index int
	bound float64
}

type bnb struct {
	*Context
	independent bool
	hard        int // Maximum number of removed features
	subset      []bool
}

// Search implements Strategy.
func (b BranchAndBound) Search(c *Context) error {
	n := c.data.NbFeatures()
	k := maxSelected(c.data.Costs, c.data.Budget, c.eps)
	subset := make([]bool, n)
	for i := range subset {
		subset[i] = true
	}
	s := &bnb{Context: c, independent: b.Independent, hard: n - 1, subset: subset}
	if k >= n {
		score, err := c.evaluate(n, exact)
		if err != nil {
			return err
		}
		c.offer(score.Agreement, s.subsetCost(), subset)
		return nil
	}
	if k <= 0 {
		return nil
	}
	if b.Independent {
		s.hard = n - k
	}
	avail := make([]int, n)
	for i := range avail {
		avail[i] = i
	}
	return s.visit(0, n-k, avail)
}

// visit explores the subsets obtained by removing features from avail from the current subset,
// level features having already been removed. Removed features sit at the bottom of the right-most path.
// soft is the number of removed features after which the subsets may fit in the budget.
func (s *bnb) visit(level, soft int, avail []int) error {
	s.metrics.Nodes.Inc()
	if !s.independent && level >= soft {
		soft = level + 1
	}
	if level >= s.hard || len(avail) == 0 {
		return nil
	}
	numSucc := len(avail) - (soft - level - 1)
	if numSucc <= 0 {
		return nil
	}
	ranked, err := s.rank(level, avail)
	if err != nil {
		return err
	}
	leaf := level+1 == soft
	for i := numSucc - 1; i >= 0; i-- {
		cand := ranked[i]
		childAvail := make([]int, 0, len(ranked)-i-1)
		for _, r := range ranked[i+1:] {
			childAvail = append(childAvail, r.index)
		}
		s.subset[cand.index] = false
		err := s.branch(level, soft, cand, leaf, numSucc == 1, childAvail)
		s.subset[cand.index] = true
		if err != nil {
			return err
		}
	}
	return nil
}

// branch explores the subsets where cand was removed.
func (s *bnb) branch(level, soft int, cand candidate, leaf, single bool, avail []int) error {
	n := s.data.NbFeatures()
	f := s.data.Features[cand.index]
	switch {
	case single && !leaf:
		// Only one way to go: no need to evaluate anything yet.
		if _, err := s.stage(f, n-level, 0, moveOnly); err != nil {
			return err
		}
		return s.visit(level+1, soft, avail)
	case s.independent:
		if s.prune(cand.bound) {
			return nil
		}
		if !leaf {
			if _, err := s.stage(f, n-level, 0, moveOnly); err != nil {
				return err
			}
			return s.visit(level+1, soft, avail)
		}
		score, err := s.stage(f, n-level, n-level-1, exact)
		if err != nil {
			return err
		}
		s.record(score.Agreement)
		return nil
	case !leaf:
		if s.prune(cand.bound) {
			return nil
		}
		if _, err := s.stage(f, n-level, 0, moveOnly); err != nil {
			return err
		}
		return s.visit(level+1, soft, avail)
	default:
		if s.prune(cand.bound) {
			return nil
		}
		score, err := s.stage(f, n-level, n-level-1, exact)
		if err != nil {
			return err
		}
		s.record(score.Agreement)
		return s.visit(level+1, soft, avail)
	}
}

// rank returns the available features sorted by increasing bound on the agreement of the remaining features
// once they are removed.
func (s *bnb) rank(level int, avail []int) ([]candidate, error) {
	n := s.data.NbFeatures()
	res := make([]candidate, len(avail))
	for i, idx := range avail {
		score, err := s.stage(s.data.Features[idx], n-level, n-level-1, boundOnly)
		if err != nil {
			return nil, err
		}
		res[i] = candidate{index: idx, bound: score.Bound}
	}
	sort.SliceStable(res, func(i, j int) bool { return approxLess(res[i].bound, res[j].bound, s.eps) })
	return res, nil
}

// record offers the current subset, unless it does not fit in the budget.
func (s *bnb) record(agreement float64) {
	cost := s.subsetCost()
	if !approxLessEqual(cost, s.data.Budget, s.eps) {
		return
	}
	s.offer(agreement, cost, s.subset)
}

func (s *bnb) subsetCost() float64 {
	var cost float64
	for i, in := range s.subset {
		if in {
			cost += s.data.Costs[i]
		}
	}
	return cost
}

// maxSelected returns the largest number of features whose total cost fits in budget.
func maxSelected(costs []float64, budget, eps float64) int {
	sorted := append([]float64(nil), costs...)
	sort.Float64s(sorted)
	var total float64
	for i, c := range sorted {
		total += c
		if !approxLessEqual(total, budget, eps) {
			return i
		}
	}
	return len(sorted)
}
