package search

import (
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts what a search did.
type Metrics struct {
	Nodes        prometheus.Counter
	Prunes       prometheus.Counter
	Updates      prometheus.Counter
	Moves        prometheus.Counter
	MovesSkipped prometheus.Counter
	Evaluations  *prometheus.CounterVec
}

// NewMetrics creates the search counters and registers them on reg, if not nil.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		Nodes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "gophersel",
			Name:      "search_nodes_total",
			Help:      "Number of search tree nodes visited.",
		}),
		Prunes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "gophersel",
			Name:      "search_prunes_total",
			Help:      "Number of subtrees pruned by the bound.",
		}),
		Updates: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "gophersel",
			Name:      "search_result_updates_total",
			Help:      "Number of times the best subset was improved.",
		}),
		Moves: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "gophersel",
			Name:      "search_feature_moves_total",
			Help:      "Number of features repositioned in the vtree.",
		}),
		MovesSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "gophersel",
			Name:      "search_feature_moves_skipped_total",
			Help:      "Number of repositionings skipped because the feature was already in place.",
		}),
		Evaluations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gophersel",
			Name:      "search_evaluations_total",
			Help:      "Number of calls to the bound oracle, by kind.",
		}, []string{"kind"}),
	}
	if reg == nil {
		return m, nil
	}
	for _, c := range []prometheus.Collector{m.Nodes, m.Prunes, m.Updates, m.Moves, m.MovesSkipped, m.Evaluations} {
		if err := reg.Register(c); err != nil {
			return nil, errors.Wrap(err, "could not register search metrics")
		}
	}
	return m, nil
}
