package search

import (
	"os"

	"github.com/crillab/gophersel/circuit"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Names of the available strategies.
const (
	StrategyExhaustive     = "exhaustive"
	StrategyBranchAndBound = "bnb"
	StrategyIndependent    = "bnb-independent"
)

// Config gathers the tunable parameters of a search, as read from a YAML file.
type Config struct {
	Strategy  string          `yaml:"strategy"`
	Epsilon   float64         `yaml:"epsilon"`
	Minimize  bool            `yaml:"minimize"`  // Locally minimize the vtree while constraining it
	Threshold float64         `yaml:"threshold"` // If > 0, overrides the threshold of the problem
	Engine    circuit.Options `yaml:"engine"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() Config {
	return Config{
		Strategy: StrategyExhaustive,
		Epsilon:  DefaultEpsilon,
		Minimize: true,
		Engine:   circuit.DefaultOptions(),
	}
}

// LoadConfig reads a YAML configuration file. Missing fields keep their default value.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrapf(err, "could not read config %q", path)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, errors.Wrapf(err, "could not parse config %q", path)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, errors.Wrapf(err, "invalid config %q", path)
	}
	return cfg, nil
}

// Validate checks the configuration is usable.
func (c Config) Validate() error {
	if _, err := ParseStrategy(c.Strategy); err != nil {
		return err
	}
	if c.Epsilon < 0 {
		return errors.Errorf("negative epsilon %v", c.Epsilon)
	}
	if c.Engine.CacheSize < 0 {
		return errors.Errorf("negative cache size %d", c.Engine.CacheSize)
	}
	return nil
}

// Options returns the search options matching the configuration.
func (c Config) Options() []Option {
	return []Option{WithEpsilon(c.Epsilon), WithMinimize(c.Minimize)}
}

// ParseStrategy returns the strategy with the given name.
func ParseStrategy(name string) (Strategy, error) {
	switch name {
	case StrategyExhaustive:
		return Exhaustive{}, nil
	case StrategyBranchAndBound:
		return BranchAndBound{}, nil
	case StrategyIndependent:
		return BranchAndBound{Independent: true}, nil
	default:
		return nil, errors.Errorf("unknown strategy %q", name)
	}
}
