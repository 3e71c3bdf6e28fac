package search

import (
	"io"
	"math"

	"github.com/crillab/gophersel/circuit"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// ErrNaNScore is returned when the oracle returns a score that is not a number.
var ErrNaNScore = errors.New("oracle returned NaN")

// A Strategy explores the subsets of features of a problem.
type Strategy interface {
	// Search explores the subsets and records the best one in c's result.
	Search(c *Context) error
}

// An Option configures a Context.
type Option func(*Context)

// WithLogger sets the logger of the search.
func WithLogger(log logrus.FieldLogger) Option {
	return func(c *Context) { c.log = log }
}

// WithEpsilon sets the tolerance used to compare scores.
func WithEpsilon(eps float64) Option {
	return func(c *Context) { c.eps = eps }
}

// WithMetrics sets the counters updated by the search.
func WithMetrics(m *Metrics) Option {
	return func(c *Context) { c.metrics = m }
}

// WithMinimize sets whether the vtree is locally minimized when it is constrained.
func WithMinimize(minimize bool) Option {
	return func(c *Context) { c.minimize = minimize }
}

// evalMode describes how much work stage must do after a feature was moved.
type evalMode int

const (
	moveOnly evalMode = iota
	boundOnly
	exact
)

func (m evalMode) String() string {
	switch m {
	case moveOnly:
		return "move"
	case boundOnly:
		return "bound"
	case exact:
		return "exact"
	default:
		panic("invalid evaluation mode")
	}
}

// A Context holds the state of a search: the circuit being searched and the best result found so far.
// The context owns one reference on its root. Each repositioning replaces the root,
// so callers must always use Root() rather than the node they passed to New.
// A Context must not be used concurrently.
type Context struct {
	eng      Engine
	root     *circuit.Node
	data     *Data
	result   *Result
	log      logrus.FieldLogger
	eps      float64
	metrics  *Metrics
	minimize bool
}

// New returns a search context for the given problem. data is validated before anything else happens.
// The context takes a reference on root.
func New(eng Engine, root *circuit.Node, data *Data, opts ...Option) (*Context, error) {
	if err := data.Validate(); err != nil {
		return nil, err
	}
	if eng.NbVars() < data.NbVars {
		return nil, errors.Wrapf(ErrInvalidData, "problem has %d vars, circuit only %d", data.NbVars, eng.NbVars())
	}
	discard := logrus.New()
	discard.SetOutput(io.Discard)
	c := &Context{
		eng:      eng,
		root:     root,
		data:     data,
		result:   NewResult(data.NbFeatures()),
		log:      discard,
		eps:      DefaultEpsilon,
		minimize: true,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.metrics == nil {
		m, err := NewMetrics(nil)
		if err != nil {
			return nil, err
		}
		c.metrics = m
	}
	eng.Ref(root)
	return c, nil
}

// Root returns the current root of the circuit.
func (c *Context) Root() *circuit.Node { return c.root }

// Result returns the best result found so far.
func (c *Context) Result() *Result { return c.result }

// Close releases the reference the context holds on its root.
func (c *Context) Close() {
	if c.root != nil {
		c.eng.Deref(c.root)
		c.root = nil
	}
}

// Constrain moves the features to the top of the vtree, in their input order:
// feature i becomes the left child of the i'th right-linear node.
// After each feature is placed, the part of the vtree below the placed features is locally minimized.
func (c *Context) Constrain() error {
	n := c.data.NbFeatures()
	for i := n - 1; i >= 0; i-- {
		if err := c.reposition(c.data.Features[i], 0, true); err != nil {
			return errors.Wrapf(err, "could not constrain feature %d", i)
		}
		if !c.minimize {
			continue
		}
		v, err := spineNode(c.eng.Vtree(), n-i)
		if err != nil {
			return err
		}
		c.eng.MinimizeLimited(v)
	}
	c.log.WithField("features", n).Debug("vtree constrained")
	return nil
}

// Run runs s and returns the best result found.
func (c *Context) Run(s Strategy) (*Result, error) {
	if c.data.NbFeatures() == 0 {
		return c.result, nil
	}
	if err := s.Search(c); err != nil {
		return nil, err
	}
	c.log.WithFields(logrus.Fields{
		"score":    c.result.Score,
		"cost":     c.result.Cost,
		"selected": c.result.Selected(),
	}).Info("search done")
	return c.result, nil
}

// Solve constrains the circuit and runs s on it.
// The context works on its own reference to root and releases it before returning:
// root is only kept alive after a garbage collection if the caller holds a reference to it.
func Solve(eng Engine, root *circuit.Node, data *Data, s Strategy, opts ...Option) (*Result, error) {
	c, err := New(eng, root, data, opts...)
	if err != nil {
		return nil, err
	}
	defer c.Close()
	if data.NbFeatures() == 0 {
		return c.result, nil
	}
	if err := c.Constrain(); err != nil {
		return nil, err
	}
	return c.Run(s)
}

// stage moves feature f to the left of the right-linear node at depth, then evaluates the circuit
// with the first yCount features of the vtree as Y and all features as X.
func (c *Context) stage(f Feature, depth, yCount int, mode evalMode) (circuit.Score, error) {
	if err := c.reposition(f, depth, false); err != nil {
		return circuit.Score{}, err
	}
	if mode == moveOnly {
		return circuit.Score{}, nil
	}
	return c.evaluate(yCount, mode)
}

// evaluate calls the oracle on the current root with the first yCount features of the vtree as Y.
func (c *Context) evaluate(yCount int, mode evalMode) (circuit.Score, error) {
	yPos, xyPos, err := locateBoundaries(c.eng.Vtree(), yCount, c.data.NbFeatures())
	if err != nil {
		return circuit.Score{}, err
	}
	c.metrics.Evaluations.WithLabelValues(mode.String()).Inc()
	score, err := c.eng.Evaluate(c.root, circuit.Query{
		Weights:   c.data.Weights,
		Decision:  c.data.Decision,
		Threshold: c.data.Threshold,
		XY:        xyPos,
		Y:         yPos,
		Exact:     mode == exact,
	})
	if err != nil {
		return circuit.Score{}, errors.Wrap(err, "could not evaluate circuit")
	}
	if math.IsNaN(score.Bound) || math.IsNaN(score.Agreement) {
		return circuit.Score{}, errors.Wrapf(ErrNaNScore, "with %d selected features", yCount)
	}
	return score, nil
}

// offer updates the result if score is better than the best one, or equal to it with a lower cost.
func (c *Context) offer(score, cost float64, subset []bool) bool {
	best := c.result
	better := approxLess(best.Score, score, c.eps) ||
		(approxEqual(score, best.Score, c.eps) && approxLess(cost, best.Cost, c.eps))
	if !better {
		return false
	}
	best.Update(score, cost, subset)
	c.metrics.Updates.Inc()
	c.log.WithFields(logrus.Fields{"score": score, "cost": cost}).Debug("new best subset")
	return true
}

// prune is true iff the subtree whose agreement is bounded by bound cannot improve the result.
func (c *Context) prune(bound float64) bool {
	if approxLess(bound, c.result.Score, c.eps) {
		c.metrics.Prunes.Inc()
		return true
	}
	return false
}
