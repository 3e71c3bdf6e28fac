package search

import (
	"math"
	"testing"

	"github.com/crillab/gophersel/circuit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validData() *Data {
	return &Data{
		NbVars:    5,
		Weights:   circuit.NewWeights(5),
		Decision:  1,
		Threshold: 0.5,
		Budget:    2,
		Features: []Feature{
			{Name: "a", Vars: []int{2, 3}, Cost: 1},
			{Name: "b", Vars: []int{4}, Cost: 0.5},
		},
		Costs: []float64{1, 0.5},
	}
}

func TestValidate(t *testing.T) {
	require.NoError(t, validData().Validate())
	tests := map[string]func(d *Data){
		"cost count":       func(d *Data) { d.Costs = d.Costs[:1] },
		"no var":           func(d *Data) { d.NbVars = 0 },
		"weights":          func(d *Data) { d.Weights = circuit.NewWeights(4) },
		"negative budget":  func(d *Data) { d.Budget = -1 },
		"infinite budget":  func(d *Data) { d.Budget = math.Inf(1) },
		"NaN threshold":    func(d *Data) { d.Threshold = math.NaN() },
		"negative cost":    func(d *Data) { d.Features[1].Cost, d.Costs[1] = -1, -1 },
		"NaN cost":         func(d *Data) { d.Features[1].Cost, d.Costs[1] = math.NaN(), math.NaN() },
		"cost mismatch":    func(d *Data) { d.Costs[0] = 2 },
		"empty feature":    func(d *Data) { d.Features[1].Vars = nil },
		"var out of range": func(d *Data) { d.Features[1].Vars = []int{6} },
		"shared var":       func(d *Data) { d.Features[1].Vars = []int{3} },
		"decision range":   func(d *Data) { d.Decision = -6 },
		"decision feature": func(d *Data) { d.Decision = -4 },
	}
	for name, update := range tests {
		d := validData()
		update(d)
		assert.ErrorIs(t, d.Validate(), ErrInvalidData, name)
	}
}

func TestNewInvalid(t *testing.T) {
	nw := newNetwork(t, 0.4, 0.5, 1, featA)
	nw.data.Costs = nil
	_, err := New(nw.m, nw.root, nw.data)
	assert.ErrorIs(t, err, ErrInvalidData)

	small, err := circuit.NewManager(2, circuit.DefaultOptions())
	require.NoError(t, err)
	_, err = New(small, small.True(), validData())
	assert.ErrorIs(t, err, ErrInvalidData)
}

func TestOverrideThreshold(t *testing.T) {
	d := validData()
	d.OverrideThreshold(0.8)
	assert.Equal(t, 0.8, d.Threshold)
}

func TestDataString(t *testing.T) {
	expected := "num_features: 2, threshold: 0.50, budget: 2.00\n" +
		"Feature 0: 2 indicators 2,3,\n" +
		"Feature 1: 1 indicators 4,\n"
	assert.Equal(t, expected, validData().String())
}

func TestResult(t *testing.T) {
	r := NewResult(3)
	assert.Zero(t, r.Score)
	assert.Empty(t, r.Selected())
	subset := []bool{true, false, true}
	r.Update(0.7, 2, subset)
	subset[0] = false
	assert.Equal(t, []int{0, 2}, r.Selected())
	assert.Equal(t, 0.7, r.Score)
	assert.Equal(t, 2.0, r.Cost)
}

func TestApprox(t *testing.T) {
	const eps = 1e-9
	assert.True(t, approxLess(1, 2, eps))
	assert.False(t, approxLess(1, 1+eps/2, eps))
	assert.True(t, approxLessEqual(1+eps/2, 1, eps))
	assert.False(t, approxLessEqual(1+2*eps, 1, eps))
	assert.True(t, approxEqual(1, 1+eps/2, eps))
	assert.False(t, approxEqual(1, 1.1, eps))
}
