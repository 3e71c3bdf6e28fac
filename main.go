package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/crillab/gophersel/circuit"
	"github.com/crillab/gophersel/lmap"
	"github.com/crillab/gophersel/search"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

type options struct {
	cnfPath     string
	lmapPath    string
	problemPath string
	configPath  string
	metricsPath string
	strategy    string
	threshold   float64
	verbose     bool
	noMinimize  bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	o := options{}
	cmd := &cobra.Command{
		Use:          "gophersel -c file.cnf -l file.lmap -e problem.txt",
		Short:        "Selects the subset of features of a classifier that best agrees with it under a budget",
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := logrus.New()
			if o.verbose {
				logger.SetLevel(logrus.DebugLevel)
			}
			cfg := search.DefaultConfig()
			if o.configPath != "" {
				var err error
				if cfg, err = search.LoadConfig(o.configPath); err != nil {
					return err
				}
			}
			if cmd.Flags().Changed("strategy") {
				cfg.Strategy = o.strategy
			}
			if cmd.Flags().Changed("threshold") {
				cfg.Threshold = o.threshold
			}
			if o.noMinimize {
				cfg.Minimize = false
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			return o.run(cfg, logger)
		},
	}
	cmd.Flags().StringVarP(&o.cnfPath, "cnf", "c", "", "path to the CNF encoding of the network")
	cmd.Flags().StringVarP(&o.lmapPath, "lmap", "l", "", "path to the literal map of the network")
	cmd.Flags().StringVarP(&o.problemPath, "problem", "e", "", "path to the feature selection problem")
	cmd.Flags().Float64VarP(&o.threshold, "threshold", "t", 0, "decision threshold, overrides the one of the problem if > 0")
	cmd.Flags().StringVar(&o.strategy, "strategy", search.StrategyExhaustive,
		fmt.Sprintf("search strategy (%s, %s or %s)", search.StrategyExhaustive, search.StrategyBranchAndBound, search.StrategyIndependent))
	cmd.Flags().StringVar(&o.configPath, "config", "", "path to a YAML configuration file")
	cmd.Flags().StringVar(&o.metricsPath, "metrics-file", "", "if set, search metrics are written to that file")
	cmd.Flags().BoolVar(&o.verbose, "verbose", false, "sets verbose mode on")
	cmd.Flags().BoolVar(&o.noMinimize, "no-minimize", false, "do not minimize the vtree while constraining it")
	for _, name := range []string{"cnf", "lmap", "problem"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

func (o *options) run(cfg search.Config, logger *logrus.Logger) error {
	strategy, err := search.ParseStrategy(cfg.Strategy)
	if err != nil {
		return err
	}
	var (
		cnf *circuit.CNF
		lm  *lmap.LiteralMap
	)
	var g errgroup.Group
	g.Go(func() error {
		var err error
		cnf, err = parseFile(o.cnfPath, circuit.ParseCNF)
		return err
	})
	g.Go(func() error {
		var err error
		lm, err = parseFile(o.lmapPath, lmap.ParseLiteralMap)
		return err
	})
	if err := g.Wait(); err != nil {
		return err
	}
	fmt.Printf("c vars=%d clauses=%d\n", cnf.NbVars, len(cnf.Clauses))
	data, err := parseFile(o.problemPath, lm.ParseProblem)
	if err != nil {
		return err
	}
	if cfg.Threshold > 0 {
		data.OverrideThreshold(cfg.Threshold)
	}
	fmt.Print(data)
	if cnf.NbVars > data.NbVars {
		return errors.Errorf("CNF has %d vars but literal map only %d", cnf.NbVars, data.NbVars)
	}
	m, err := circuit.NewManager(data.NbVars, cfg.Engine)
	if err != nil {
		return err
	}
	root, err := circuit.Compile(m, cnf)
	if err != nil {
		return errors.Wrap(err, "could not compile CNF")
	}
	reg := prometheus.NewRegistry()
	metrics, err := search.NewMetrics(reg)
	if err != nil {
		return err
	}
	opts := append(cfg.Options(), search.WithLogger(logger), search.WithMetrics(metrics))
	res, err := search.Solve(m, root, data, strategy, opts...)
	if err != nil {
		return err
	}
	subset := make([]string, len(res.Subset))
	for i, in := range res.Subset {
		if in {
			subset[i] = "1"
		} else {
			subset[i] = "0"
		}
	}
	fmt.Printf("best ECA: %f\nbest subset of features: %s\n", res.Score, strings.Join(subset, ","))
	if o.metricsPath != "" {
		if err := prometheus.WriteToTextfile(o.metricsPath, reg); err != nil {
			return errors.Wrap(err, "could not write metrics")
		}
	}
	return nil
}

func parseFile[T any](path string, parse func(io.Reader) (T, error)) (T, error) {
	f, err := os.Open(path)
	if err != nil {
		var zero T
		return zero, errors.Wrapf(err, "could not open %q", path)
	}
	defer func() { _ = f.Close() }()
	res, err := parse(f)
	if err != nil {
		return res, errors.Wrapf(err, "could not parse %q", path)
	}
	return res, nil
}
