package search

// A Result is the best feature subset found so far.
// A score of 0 means no subset was selected yet.
type Result struct {
	Score  float64
	Subset []bool // Subset[i] is true iff feature i is selected
	Cost   float64
}

// NewResult returns an empty result for nbFeatures features.
func NewResult(nbFeatures int) *Result {
	return &Result{Subset: make([]bool, nbFeatures)}
}

// Update replaces the score, cost and subset of the result.
// The subset is copied.
func (r *Result) Update(score, cost float64, subset []bool) {
	r.Score = score
	r.Cost = cost
	copy(r.Subset, subset)
}

// Selected returns the indices of the selected features, in increasing order.
func (r *Result) Selected() []int {
	var res []int
	for i, in := range r.Subset {
		if in {
			res = append(res, i)
		}
	}
	return res
}
