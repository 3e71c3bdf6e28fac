package lmap

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/crillab/gophersel/search"
	"github.com/pkg/errors"
)

// ParseProblem parses a feature selection problem over the nodes of lm. Lines are of the form
//
//	$ <nb features> <threshold> <budget>
//	d <decision node>
//	f <feature node> <cost>
//
// The decision literal is the first indicator of the decision node. Other lines are ignored.
func (lm *LiteralMap) ParseProblem(r io.Reader) (*search.Data, error) {
	data := &search.Data{
		NbVars:    lm.NbVars,
		Weights:   append(lm.Weights[:0:0], lm.Weights...),
		NodeCount: lm.NodeCount,
	}
	nbFeatures := -1
	sc := bufio.NewScanner(r)
	lineNb := 0
	for sc.Scan() {
		lineNb++
		fields := strings.Fields(sc.Text())
		if len(fields) < 2 {
			continue
		}
		var err error
		switch fields[0] {
		case "$":
			nbFeatures, err = parseMeta(fields, data)
		case "d":
			node, ok := lm.Node(fields[1])
			if !ok {
				err = errors.Errorf("unknown decision node %q", fields[1])
				break
			}
			data.Decision = node.Indicators[0]
		case "f":
			err = lm.parseFeature(fields, data)
		}
		if err != nil {
			return nil, errors.Wrapf(err, "line %d", lineNb)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(err, "could not read problem")
	}
	if nbFeatures < 0 {
		return nil, errors.New("missing problem description line")
	}
	if nbFeatures != len(data.Features) {
		return nil, errors.Errorf("expected %d features, found %d", nbFeatures, len(data.Features))
	}
	if data.Decision == 0 {
		return nil, errors.New("missing decision node")
	}
	if err := data.Validate(); err != nil {
		return nil, err
	}
	return data, nil
}

func parseMeta(fields []string, data *search.Data) (int, error) {
	if len(fields) != 4 {
		return 0, errors.Errorf("expected \"$ <nb features> <threshold> <budget>\", got %d fields", len(fields))
	}
	nb, err := strconv.Atoi(fields[1])
	if err != nil || nb < 0 {
		return 0, errors.Errorf("invalid number of features %q", fields[1])
	}
	if data.Threshold, err = strconv.ParseFloat(fields[2], 64); err != nil {
		return 0, errors.Errorf("invalid threshold %q", fields[2])
	}
	if data.Budget, err = strconv.ParseFloat(fields[3], 64); err != nil {
		return 0, errors.Errorf("invalid budget %q", fields[3])
	}
	return nb, nil
}

func (lm *LiteralMap) parseFeature(fields []string, data *search.Data) error {
	if len(fields) != 3 {
		return errors.Errorf("expected \"f <node> <cost>\", got %d fields", len(fields))
	}
	node, ok := lm.Node(fields[1])
	if !ok {
		return errors.Errorf("unknown feature node %q", fields[1])
	}
	cost, err := strconv.ParseFloat(fields[2], 64)
	if err != nil {
		return errors.Errorf("invalid cost %q for feature %q", fields[2], fields[1])
	}
	vars := make([]int, len(node.Indicators))
	copy(vars, node.Indicators)
	data.Features = append(data.Features, search.Feature{Name: node.Name, Vars: vars, Cost: cost})
	data.Costs = append(data.Costs, cost)
	return nil
}
