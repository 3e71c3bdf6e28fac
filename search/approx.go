package search

// DefaultEpsilon is the tolerance used when comparing scores.
const DefaultEpsilon = 1e-12

// approxLess is true iff a is smaller than b by more than eps.
func approxLess(a, b, eps float64) bool {
	return a < b-eps
}

// approxLessEqual is true iff a is smaller than b, or equal to it up to eps.
func approxLessEqual(a, b, eps float64) bool {
	return a <= b+eps
}

// approxEqual is true iff a and b differ by at most eps.
func approxEqual(a, b, eps float64) bool {
	return approxLessEqual(a, b, eps) && approxLessEqual(b, a, eps)
}
