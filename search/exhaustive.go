package search

// Exhaustive explores all the subsets of features, deciding features one by one in their input order.
// The first decision is to include the feature, the second one to exclude it.
// Subtrees whose bound cannot beat the best subset found so far are pruned.
//
// While exploring, the vtree is kept in the following state: the k included features come first
// on the right-most path, then the features that are not decided yet, then the excluded ones.
type Exhaustive struct{}

// Search implements Strategy.
func (Exhaustive) Search(c *Context) error {
	subset := make([]bool, c.data.NbFeatures())
	return c.exhaustive(0, 0, 0, subset)
}

func (c *Context) exhaustive(depth, included int, cost float64, subset []bool) error {
	n := c.data.NbFeatures()
	c.metrics.Nodes.Inc()
	if cost >= c.data.Budget || depth >= n {
		return nil
	}
	if c.result.Score > 0 {
		// Selected and undecided features are all candidates.
		score, err := c.evaluate(n-depth+included, boundOnly)
		if err != nil {
			return err
		}
		if c.prune(score.Bound) {
			c.log.WithField("depth", depth).Debug("pruned")
			return nil
		}
	}
	f := c.data.Features[depth]
	if newCost := cost + f.Cost; approxLessEqual(newCost, c.data.Budget, c.eps) {
		score, err := c.stage(f, included, included+1, exact)
		if err != nil {
			return err
		}
		subset[depth] = true
		c.offer(score.Agreement, newCost, subset)
		err = c.exhaustive(depth+1, included+1, newCost, subset)
		subset[depth] = false
		if err != nil {
			return err
		}
	}
	if err := c.reposition(f, n-depth+included, false); err != nil {
		return err
	}
	return c.exhaustive(depth+1, included, cost, subset)
}
