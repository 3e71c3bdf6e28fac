package lmap

import (
	"fmt"
	"strings"
	"testing"

	"github.com/crillab/gophersel/circuit"
	"github.com/crillab/gophersel/search"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const literalMap = `cc$K$ALWAYS_SUM
cc$S$1.0
cc$N$7
cc$v$3
cc$V$Color$3
cc$V$Decision$2
cc$V$Size$1
cc$t$bn
cc$I$1$1.0$+$Color$0
cc$I$2$1.0$+$Color$1
cc$I$3$1.0$+$Color$2
cc$I$4$0.4$+$Decision$0
cc$I$5$0.6$+$Decision$1
cc$I$6$1.0$+$Size$0
cc$C$7$0.25$+$
cc$C$-7$0.75$-$
`

const problem = `$ 2 0.5 1.5
d Decision
f Color 1
f Size 0.5
`

func TestParseLiteralMap(t *testing.T) {
	lm, err := ParseLiteralMap(strings.NewReader(literalMap))
	require.NoError(t, err)
	weights := circuit.NewWeights(7)
	weights.Set(4, 0.4)
	weights.Set(5, 0.6)
	weights.Set(7, 0.25)
	expected := &LiteralMap{
		NbVars:    7,
		NodeCount: 3,
		Nodes: []Node{
			{Name: "Color", Indicators: []int{1, 2, 3}},
			{Name: "Decision", Indicators: []int{4, 5}},
			{Name: "Size", Indicators: []int{6}},
		},
		Weights: weights,
	}
	if diff := cmp.Diff(expected, lm, cmpopts.IgnoreUnexported(LiteralMap{})); diff != "" {
		t.Errorf("unexpected literal map (-want +got):\n%s", diff)
	}
	node, ok := lm.Node("Decision")
	assert.True(t, ok)
	assert.Equal(t, []int{4, 5}, node.Indicators)
	_, ok = lm.Node("Unknown")
	assert.False(t, ok)
}

func TestParseLiteralMapErrors(t *testing.T) {
	for name, input := range map[string]string{
		"no var count":     "cc$v$1\n",
		"bad var count":    "cc$N$x\n",
		"too many vars":    "cc$N$65\n",
		"weight too early": "cc$C$1$0.5$+$\ncc$N$2\n",
		"unknown node":     "cc$N$2\ncc$I$1$1.0$+$Foo$0\n",
		"bad value":        "cc$N$2\ncc$V$Foo$1\ncc$I$1$1.0$+$Foo$1\n",
		"bad weight":       "cc$N$2\ncc$C$1$heavy$+$\n",
		"var out of range": "cc$N$2\ncc$C$3$0.5$+$\n",
		"missing value":    "cc$N$2\ncc$V$Foo$2\ncc$I$1$1.0$+$Foo$0\n",
		"duplicate node":   "cc$N$2\ncc$V$Foo$2\ncc$V$Foo$2\n",
	} {
		_, err := ParseLiteralMap(strings.NewReader(input))
		assert.Error(t, err, name)
	}
}

func TestParseProblem(t *testing.T) {
	lm, err := ParseLiteralMap(strings.NewReader(literalMap))
	require.NoError(t, err)
	data, err := lm.ParseProblem(strings.NewReader(problem))
	require.NoError(t, err)
	expected := &search.Data{
		NbVars:    7,
		Weights:   lm.Weights,
		NodeCount: 3,
		Decision:  4,
		Features: []search.Feature{
			{Name: "Color", Vars: []int{1, 2, 3}, Cost: 1},
			{Name: "Size", Vars: []int{6}, Cost: 0.5},
		},
		Threshold: 0.5,
		Budget:    1.5,
		Costs:     []float64{1, 0.5},
	}
	if diff := cmp.Diff(expected, data); diff != "" {
		t.Errorf("unexpected problem (-want +got):\n%s", diff)
	}
	// The weights of the problem do not alias the ones of the literal map.
	data.Weights.Set(1, 0.1)
	assert.Equal(t, 1.0, lm.Weights.Of(1))
}

func TestParseProblemErrors(t *testing.T) {
	lm, err := ParseLiteralMap(strings.NewReader(literalMap))
	require.NoError(t, err)
	for name, input := range map[string]string{
		"no description":    "d Decision\n",
		"bad description":   "$ 1 0.5\nd Decision\nf Size 1\n",
		"bad threshold":     "$ 1 high 1\nd Decision\nf Size 1\n",
		"feature count":     "$ 2 0.5 1\nd Decision\nf Size 1\n",
		"no decision":       "$ 1 0.5 1\nf Size 1\n",
		"unknown decision":  "$ 1 0.5 1\nd Foo\nf Size 1\n",
		"unknown feature":   "$ 1 0.5 1\nd Decision\nf Foo 1\n",
		"bad cost":          "$ 1 0.5 1\nd Decision\nf Size cheap\n",
		"decision feature":  "$ 1 0.5 1\nd Decision\nf Decision 1\n",
		"negative budget":   "$ 1 0.5 -1\nd Decision\nf Size 1\n",
		"missing cost":      "$ 1 0.5 1\nd Decision\nf Size\n",
		"shared indicators": "$ 2 0.5 1\nd Decision\nf Size 1\nf Size 1\n",
	} {
		_, err := lm.ParseProblem(strings.NewReader(input))
		assert.Error(t, err, name)
	}
}

func ExampleLiteralMap_ParseProblem() {
	lm, _ := ParseLiteralMap(strings.NewReader(literalMap))
	data, _ := lm.ParseProblem(strings.NewReader(problem))
	fmt.Print(data)
	// Output:
	// num_features: 2, threshold: 0.50, budget: 1.50
	// Feature 0: 3 indicators 1,2,3,
	// Feature 1: 1 indicators 6,
}
