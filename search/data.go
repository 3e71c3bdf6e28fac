package search

import (
	"fmt"
	"math"
	"strings"

	"github.com/crillab/gophersel/circuit"
	"github.com/pkg/errors"
)

// ErrInvalidData is returned when a problem does not satisfy the invariants the search relies on.
var ErrInvalidData = errors.New("invalid search data")

// A Feature is a set of indicator variables representing one categorical input of the classifier,
// associated with the cost of observing it.
type Feature struct {
	Name string
	Vars []int // Indicator variables; the first one heads the feature block in the vtree
	Cost float64
}

// Data describes a feature selection problem.
type Data struct {
	NbVars    int             // Number of CNF variables
	Weights   circuit.Weights // Weights of literals in the CNF encoding
	NodeCount int             // Number of network nodes
	Decision  int             // Decision literal
	Features  []Feature
	Threshold float64   // Decision threshold
	Budget    float64   // Budget for feature subset selection
	Costs     []float64 // Costs[i] == Features[i].Cost
}

// NbFeatures returns the number of candidate features.
func (d *Data) NbFeatures() int { return len(d.Features) }

// OverrideThreshold replaces the decision threshold of the problem.
func (d *Data) OverrideThreshold(threshold float64) { d.Threshold = threshold }

// Validate checks the invariants of the problem.
func (d *Data) Validate() error {
	if len(d.Features) != len(d.Costs) {
		return errors.Wrapf(ErrInvalidData, "%d features but %d costs", len(d.Features), len(d.Costs))
	}
	if d.NbVars < 1 {
		return errors.Wrapf(ErrInvalidData, "invalid number of vars %d", d.NbVars)
	}
	if d.Weights.NbVars() != d.NbVars {
		return errors.Wrapf(ErrInvalidData, "weight table covers %d vars, expected %d", d.Weights.NbVars(), d.NbVars)
	}
	if math.IsNaN(d.Budget) || math.IsInf(d.Budget, 0) || d.Budget < 0 {
		return errors.Wrapf(ErrInvalidData, "invalid budget %v", d.Budget)
	}
	if math.IsNaN(d.Threshold) {
		return errors.Wrap(ErrInvalidData, "threshold is NaN")
	}
	owner := make(map[int]int) // feature of each feature var
	for i, f := range d.Features {
		if math.IsNaN(f.Cost) || math.IsInf(f.Cost, 0) || f.Cost < 0 {
			return errors.Wrapf(ErrInvalidData, "feature %d has invalid cost %v", i, f.Cost)
		}
		if f.Cost != d.Costs[i] {
			return errors.Wrapf(ErrInvalidData, "feature %d costs %v but cost table says %v", i, f.Cost, d.Costs[i])
		}
		if len(f.Vars) == 0 {
			return errors.Wrapf(ErrInvalidData, "feature %d has no indicator", i)
		}
		for _, v := range f.Vars {
			if v < 1 || v > d.NbVars {
				return errors.Wrapf(ErrInvalidData, "feature %d: var %d out of range [1, %d]", i, v, d.NbVars)
			}
			if j, ok := owner[v]; ok {
				return errors.Wrapf(ErrInvalidData, "var %d belongs to features %d and %d", v, j, i)
			}
			owner[v] = i
		}
	}
	dv := d.Decision
	if dv < 0 {
		dv = -dv
	}
	if dv < 1 || dv > d.NbVars {
		return errors.Wrapf(ErrInvalidData, "decision literal %d out of range", d.Decision)
	}
	if j, ok := owner[dv]; ok {
		return errors.Wrapf(ErrInvalidData, "decision var %d belongs to feature %d", dv, j)
	}
	return nil
}

// String returns a human-readable description of the problem.
func (d *Data) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "num_features: %d, threshold: %.2f, budget: %.2f\n", len(d.Features), d.Threshold, d.Budget)
	for i, f := range d.Features {
		fmt.Fprintf(&sb, "Feature %d: %d indicators ", i, len(f.Vars))
		for _, v := range f.Vars {
			fmt.Fprintf(&sb, "%d,", v)
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
