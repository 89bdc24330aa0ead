// Package config loads chronovm settings from a TOML or YAML file.
//
//	[search]
//	strategy = "auto"
//	workers = 8
//	bound = 16777216
//	max_steps = 1048576
//	timeout = "30s"
//	cross_check = false
//
//	[batch]
//	workers = 4
//	format = "csv"
//
//	[log]
//	level = "info"
//	format = "text"
//
// Values missing from the file keep their defaults. Command-line flags are
// applied on top by the caller.
package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/akhildatla/chronovm/pkg/batch"
	"github.com/akhildatla/chronovm/pkg/search"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported config format")
	ErrInvalid           = errors.New("invalid config")
)

// Config is the full settings tree.
type Config struct {
	Search SearchConfig `toml:"search" yaml:"search"`
	Batch  BatchConfig  `toml:"batch" yaml:"batch"`
	Log    LogConfig    `toml:"log" yaml:"log"`
}

// SearchConfig configures seed searches.
type SearchConfig struct {
	Strategy   string `toml:"strategy" yaml:"strategy"`
	Workers    int    `toml:"workers" yaml:"workers"`
	Bound      uint64 `toml:"bound" yaml:"bound"`
	MaxSteps   int64  `toml:"max_steps" yaml:"max_steps"`
	Timeout    string `toml:"timeout" yaml:"timeout"` // time.ParseDuration syntax; empty means none
	CrossCheck bool   `toml:"cross_check" yaml:"cross_check"`
}

// BatchConfig configures batch runs.
type BatchConfig struct {
	Workers int    `toml:"workers" yaml:"workers"`
	Format  string `toml:"format" yaml:"format"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `toml:"level" yaml:"level"`
	Format string `toml:"format" yaml:"format"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Search: SearchConfig{
			Strategy: search.StrategyAuto.String(),
			Bound:    search.DefaultBound,
			MaxSteps: search.DefaultMaxSteps,
		},
		Batch: BatchConfig{
			Format: string(batch.FormatTable),
		},
		Log: LogConfig{
			Level:  "warn",
			Format: "text",
		},
	}
}

// Load reads path on top of Default and validates the result. The format is
// chosen by extension: .toml, .yaml or .yml.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "reading config")
	}

	cfg := Default()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		err = toml.Unmarshal(data, cfg)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, cfg)
	default:
		return nil, errors.Wrapf(ErrUnsupportedFormat, "%s", path)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "parsing %s", path)
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrapf(err, "%s", path)
	}
	return cfg, nil
}

// Validate checks every field that has a restricted set of values.
func (c *Config) Validate() error {
	if _, err := search.ParseStrategy(c.Search.Strategy); err != nil {
		return errors.Wrap(ErrInvalid, err.Error())
	}
	if c.Search.Workers < 0 || c.Batch.Workers < 0 {
		return errors.Wrap(ErrInvalid, "workers must not be negative")
	}
	if c.Search.MaxSteps < 0 {
		return errors.Wrap(ErrInvalid, "max_steps must not be negative")
	}
	if _, err := c.Search.TimeoutDuration(); err != nil {
		return errors.Wrap(ErrInvalid, err.Error())
	}
	if _, err := batch.ParseFormat(c.Batch.Format); err != nil {
		return errors.Wrap(ErrInvalid, err.Error())
	}
	if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
		return errors.Wrap(ErrInvalid, err.Error())
	}
	switch strings.ToLower(c.Log.Format) {
	case "", "text", "json":
	default:
		return errors.Wrapf(ErrInvalid, "log format %q", c.Log.Format)
	}
	return nil
}

// TimeoutDuration parses Timeout. Empty means no timeout.
func (s SearchConfig) TimeoutDuration() (time.Duration, error) {
	if s.Timeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s.Timeout)
	if err != nil {
		return 0, errors.Wrap(err, "timeout")
	}
	if d < 0 {
		return 0, errors.Errorf("timeout %s is negative", s.Timeout)
	}
	return d, nil
}

// Options converts the search settings to search options.
func (s SearchConfig) Options() []search.Option {
	strategy, _ := search.ParseStrategy(s.Strategy)
	return []search.Option{
		search.WithStrategy(strategy),
		search.WithWorkers(s.Workers),
		search.WithBound(s.Bound),
		search.WithMaxSteps(s.MaxSteps),
		search.WithCrossCheck(s.CrossCheck),
	}
}
