// Package lmap parses the literal map of a Bayesian network encoded as a weighted CNF,
// and the feature selection problems defined over that network.
package lmap

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/crillab/gophersel/circuit"
	"github.com/pkg/errors"
)

// A Node is a node of the network, along with the indicator variables of its values.
type Node struct {
	Name       string
	Indicators []int // Indicators[i] is the var that is true iff the node has its i'th value
}

// A LiteralMap describes how the nodes of a network are encoded in a CNF.
type LiteralMap struct {
	NbVars    int
	NodeCount int
	Nodes     []Node
	Weights   circuit.Weights // Negative literals weigh 1
	byName    map[string]int
}

// Node returns the node with the given name.
func (lm *LiteralMap) Node(name string) (Node, bool) {
	i, ok := lm.byName[name]
	if !ok {
		return Node{}, false
	}
	return lm.Nodes[i], true
}

// ParseLiteralMap parses a literal map. Lines are of the form
//
//	cc$N$<nb vars>
//	cc$v$<nb nodes>
//	cc$V$<node name>$<nb values>
//	cc$I$<var>$<weight>$+$<node name>$<value>
//	cc$C$<var>$<weight>$+$
//
// Other lines, and parameters associated with negative literals, are ignored.
func ParseLiteralMap(r io.Reader) (*LiteralMap, error) {
	lm := &LiteralMap{byName: make(map[string]int)}
	sc := bufio.NewScanner(r)
	lineNb := 0
	for sc.Scan() {
		lineNb++
		line := strings.TrimSpace(sc.Text())
		fields := strings.Split(line, "$")
		if len(fields) < 3 || fields[0] != "cc" {
			continue
		}
		if err := lm.parseLine(fields); err != nil {
			return nil, errors.Wrapf(err, "line %d", lineNb)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(err, "could not read literal map")
	}
	if lm.Weights == nil {
		return nil, errors.New("missing number of vars")
	}
	for _, node := range lm.Nodes {
		for i, v := range node.Indicators {
			if v == 0 {
				return nil, errors.Errorf("node %q has no indicator for value %d", node.Name, i)
			}
		}
	}
	return lm, nil
}

func (lm *LiteralMap) parseLine(fields []string) error {
	switch fields[1] {
	case "N":
		nb, err := strconv.Atoi(fields[2])
		if err != nil || nb < 1 || nb > circuit.MaxVars {
			return errors.Errorf("invalid number of vars %q", fields[2])
		}
		lm.NbVars = nb
		lm.Weights = circuit.NewWeights(nb)
	case "v":
		nb, err := strconv.Atoi(fields[2])
		if err != nil || nb < 0 {
			return errors.Errorf("invalid number of nodes %q", fields[2])
		}
		lm.NodeCount = nb
	case "V":
		if len(fields) < 4 {
			return errors.New("expected node name and number of values")
		}
		nb, err := strconv.Atoi(fields[3])
		if err != nil || nb < 1 {
			return errors.Errorf("invalid number of values %q for node %q", fields[3], fields[2])
		}
		if _, ok := lm.byName[fields[2]]; ok {
			return errors.Errorf("duplicate node %q", fields[2])
		}
		lm.byName[fields[2]] = len(lm.Nodes)
		lm.Nodes = append(lm.Nodes, Node{Name: fields[2], Indicators: make([]int, nb)})
	case "I":
		if len(fields) < 7 {
			return errors.New("expected var, weight, node and value")
		}
		v, err := lm.parseWeight(fields[2], fields[3])
		if err != nil {
			return err
		}
		if v < 0 {
			return errors.Errorf("negative indicator %d", v)
		}
		i, ok := lm.byName[fields[5]]
		if !ok {
			return errors.Errorf("unknown node %q", fields[5])
		}
		value, err := strconv.Atoi(fields[6])
		if err != nil || value < 0 || value >= len(lm.Nodes[i].Indicators) {
			return errors.Errorf("invalid value %q for node %q", fields[6], fields[5])
		}
		lm.Nodes[i].Indicators[value] = v
	case "C":
		if len(fields) < 4 {
			return errors.New("expected var and weight")
		}
		if _, err := lm.parseWeight(fields[2], fields[3]); err != nil {
			return err
		}
	}
	return nil
}

// parseWeight sets the weight of the given literal. Negative literals are ignored and returned as is.
func (lm *LiteralMap) parseWeight(litStr, weightStr string) (int, error) {
	if lm.Weights == nil {
		return 0, errors.New("weight found before number of vars")
	}
	lit, err := strconv.Atoi(litStr)
	if err != nil {
		return 0, errors.Errorf("invalid literal %q", litStr)
	}
	if lit < 0 {
		return lit, nil
	}
	if lit == 0 || lit > lm.NbVars {
		return 0, errors.Errorf("literal %d out of range [1, %d]", lit, lm.NbVars)
	}
	weight, err := strconv.ParseFloat(weightStr, 64)
	if err != nil {
		return 0, errors.Errorf("invalid weight %q", weightStr)
	}
	lm.Weights.Set(lit, weight)
	return lit, nil
}
