package search

import (
	"testing"

	"github.com/crillab/gophersel/circuit"
	"github.com/stretchr/testify/require"
)

// A network is a naive Bayes classifier: each feature is a noisy copy of the decision.
// Var 1 is the decision. Each feature then has one indicator, or two for a one-hot feature,
// and the noise vars come last.
type network struct {
	m     *circuit.Manager
	root  *circuit.Node
	data  *Data
	prior float64   // Pr(decision)
	noise []float64 // Pr(feature i differs from the decision)
}

type featureSpec struct {
	noise  float64
	cost   float64
	oneHot bool
}

func newNetwork(t *testing.T, prior, threshold, budget float64, specs ...featureSpec) *network {
	t.Helper()
	n := len(specs)
	nbVars := 1 + 2*n
	for _, s := range specs {
		if s.oneHot {
			nbVars++
		}
	}
	noiseVar := func(i int) int { return nbVars - n + 1 + i }
	data := &Data{
		NbVars:    nbVars,
		Weights:   circuit.NewWeights(nbVars),
		Decision:  1,
		Threshold: threshold,
		Budget:    budget,
	}
	data.Weights.Set(1, prior)
	data.Weights.Set(-1, 1-prior)
	next := 2
	for i, s := range specs {
		f := Feature{Name: string(rune('A' + i)), Vars: []int{next}, Cost: s.cost}
		next++
		if s.oneHot {
			f.Vars = append(f.Vars, next)
			next++
		}
		data.Features = append(data.Features, f)
		data.Costs = append(data.Costs, s.cost)
		data.Weights.Set(noiseVar(i), s.noise)
		data.Weights.Set(-noiseVar(i), 1-s.noise)
	}
	vars := make([]int, nbVars)
	for i := range vars {
		vars[i] = i + 1
	}
	var models [][]int
	for bits := 0; bits < 1<<(n+1); bits++ {
		d := bits&1 != 0
		var model []int
		if d {
			model = append(model, 1)
		}
		for i, f := range data.Features {
			noisy := bits&(1<<(i+1)) != 0
			if noisy {
				model = append(model, noiseVar(i))
			}
			if d != noisy {
				model = append(model, f.Vars[0])
			} else if len(f.Vars) > 1 {
				model = append(model, f.Vars[1])
			}
		}
		models = append(models, model)
	}
	m, err := circuit.NewManager(nbVars, circuit.DefaultOptions())
	require.NoError(t, err)
	root, err := m.FromModels(vars, models)
	require.NoError(t, err)
	m.Ref(root)
	noise := make([]float64, n)
	for i, s := range specs {
		noise[i] = s.noise
	}
	return &network{m: m, root: root, data: data, prior: prior, noise: noise}
}

// agreement computes the expected agreement of a subset of features by enumerating the joint distribution.
func (nw *network) agreement(subset []bool) float64 {
	n := len(nw.noise)
	type mass struct{ all, decision float64 }
	byX := make(map[int]*mass)
	for bits := 0; bits < 1<<(n+1); bits++ {
		d := bits&1 != 0
		p := 1 - nw.prior
		if d {
			p = nw.prior
		}
		x := 0
		for i := 0; i < n; i++ {
			noisy := bits&(1<<(i+1)) != 0
			if noisy {
				p *= nw.noise[i]
			} else {
				p *= 1 - nw.noise[i]
			}
			if d != noisy {
				x |= 1 << i
			}
		}
		if byX[x] == nil {
			byX[x] = &mass{}
		}
		byX[x].all += p
		if d {
			byX[x].decision += p
		}
	}
	mask := 0
	for i, in := range subset {
		if in {
			mask |= 1 << i
		}
	}
	byY := make(map[int]*mass)
	for x, mx := range byX {
		y := x & mask
		if byY[y] == nil {
			byY[y] = &mass{}
		}
		byY[y].all += mx.all
		byY[y].decision += mx.decision
	}
	threshold := nw.data.Threshold
	var res float64
	for x, mx := range byX {
		my := byY[x&mask]
		if (mx.decision/mx.all >= threshold) == (my.decision/my.all >= threshold) {
			res += mx.all
		}
	}
	return res
}

// An optimum is the best subset found by brute force.
type optimum struct {
	score  float64
	cost   float64 // Lowest cost among the subsets with the best score
	subset []bool  // First such subset, in the order Exhaustive finds them
}

// best returns the best non-empty subset accepted by keep. Subsets are visited in the order
// Exhaustive offers them: feature i is included before it is excluded.
// Equal scores go to the cheapest subset, then to the first one visited.
func (nw *network) best(keep func(subset []bool) bool) optimum {
	const tol = 1e-9
	n := len(nw.noise)
	var res optimum
	subset := make([]bool, n)
	var visit func(i int)
	visit = func(i int) {
		if i == n {
			return
		}
		subset[i] = true
		if keep(subset) {
			a, c := nw.agreement(subset), nw.cost(subset)
			if a > res.score+tol || (a > res.score-tol && c < res.cost-tol) {
				res = optimum{score: a, cost: c, subset: append([]bool(nil), subset...)}
			}
		}
		visit(i + 1)
		subset[i] = false
		visit(i + 1)
	}
	visit(0)
	return res
}

// greedy adds, one at a time, the affordable feature giving the best agreement,
// and returns the best agreement it went through.
func (nw *network) greedy() float64 {
	n := len(nw.noise)
	subset := make([]bool, n)
	left := nw.data.Budget
	var res float64
	for {
		next, score := -1, 0.0
		for i := range subset {
			if subset[i] || nw.data.Features[i].Cost > left+1e-9 {
				continue
			}
			subset[i] = true
			if a := nw.agreement(subset); next < 0 || a > score {
				next, score = i, a
			}
			subset[i] = false
		}
		if next < 0 {
			return res
		}
		subset[next] = true
		left -= nw.data.Features[next].Cost
		if score > res {
			res = score
		}
	}
}

func (nw *network) cost(subset []bool) float64 {
	var res float64
	for i, in := range subset {
		if in {
			res += nw.data.Features[i].Cost
		}
	}
	return res
}

func size(subset []bool) int {
	res := 0
	for _, in := range subset {
		if in {
			res++
		}
	}
	return res
}
