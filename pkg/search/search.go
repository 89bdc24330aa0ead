// Package search finds the smallest register A value for which a program's
// output equals a target sequence, by default the program's own code.
//
// Two strategies are provided. Reverse rebuilds A one base-8 digit at a time
// and is fast, but only correct for programs that shift A right by 3 once per
// loop pass and emit one value per pass (see package analysis). Exhaustive
// scans a bounded range of A concurrently and works for any program.
package search

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strings"

	"github.com/akhildatla/chronovm/pkg/analysis"
	"github.com/akhildatla/chronovm/pkg/vm"
	"github.com/sirupsen/logrus"
)

var (
	ErrNoSolution         = errors.New("no solution found")
	ErrCrossCheckMismatch = errors.New("reverse and exhaustive search disagree")
	ErrUnknownStrategy    = errors.New("unknown search strategy")
)

const (
	// DefaultBound is the exclusive upper limit of the exhaustive scan.
	DefaultBound uint64 = 1 << 24

	// DefaultMaxSteps caps a single candidate run.
	DefaultMaxSteps int64 = 1 << 20
)

// Strategy selects a search algorithm.
type Strategy int

const (
	StrategyAuto Strategy = iota
	StrategyReverse
	StrategyExhaustive
)

var strategyNames = map[Strategy]string{
	StrategyAuto:       "auto",
	StrategyReverse:    "reverse",
	StrategyExhaustive: "exhaustive",
}

func (s Strategy) String() string {
	if name, ok := strategyNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Strategy(%d)", int(s))
}

// ParseStrategy converts a strategy name. The empty string means auto.
func ParseStrategy(s string) (Strategy, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if name == "" {
		return StrategyAuto, nil
	}
	for st, n := range strategyNames {
		if n == name {
			return st, nil
		}
	}
	return StrategyAuto, fmt.Errorf("%w: %q", ErrUnknownStrategy, s)
}

// Result is the outcome of a search. Found is false when the search space was
// exhausted without a match; that is a normal result, not an error.
type Result struct {
	Seed      uint64
	Found     bool
	Strategy  Strategy
	Evaluated uint64 // candidate runs performed
}

func (r Result) String() string {
	if !r.Found {
		return "no solution"
	}
	return fmt.Sprintf("%d", r.Seed)
}

// Err returns ErrNoSolution when nothing was found.
func (r Result) Err() error {
	if !r.Found {
		return ErrNoSolution
	}
	return nil
}

type options struct {
	target     []uint8
	workers    int
	bound      uint64
	maxSteps   int64
	strategy   Strategy
	crossCheck bool
}

// Option configures a search.
type Option func(*options)

// WithTarget sets the output to search for. The default is the program's code.
func WithTarget(target []uint8) Option {
	return func(o *options) {
		o.target = target
	}
}

// WithWorkers sets the number of concurrent workers. Values below 1 mean
// runtime.NumCPU().
func WithWorkers(n int) Option {
	return func(o *options) {
		o.workers = n
	}
}

// WithBound sets the exclusive upper limit of the exhaustive scan.
func WithBound(bound uint64) Option {
	return func(o *options) {
		o.bound = bound
	}
}

// WithMaxSteps caps each candidate run. Zero means unlimited.
func WithMaxSteps(n int64) Option {
	return func(o *options) {
		o.maxSteps = n
	}
}

// WithStrategy selects the algorithm used by Find.
func WithStrategy(s Strategy) Option {
	return func(o *options) {
		o.strategy = s
	}
}

// WithCrossCheck makes Find verify a reverse result with an exhaustive scan.
func WithCrossCheck(enabled bool) Option {
	return func(o *options) {
		o.crossCheck = enabled
	}
}

func newOptions(p *vm.Program, opts []Option) options {
	o := options{
		bound:    DefaultBound,
		maxSteps: DefaultMaxSteps,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.target == nil {
		o.target = p.Code
	}
	if o.workers < 1 {
		o.workers = runtime.NumCPU()
	}
	return o
}

// newWorkerVM returns a VM loaded with p for one goroutine. Cancellation is
// checked by the callers between candidates.
func newWorkerVM(p *vm.Program, maxSteps int64) (*vm.VM, error) {
	m := vm.NewVM()
	m.SetMaxSteps(maxSteps)
	if err := m.Load(p); err != nil {
		return nil, err
	}
	return m, nil
}

// matches runs m with A=a and reports whether the output equals target. A run
// that hits the step cap has not halted and does not match.
func matches(m *vm.VM, a uint64, target []uint8) (bool, error) {
	m.Reset(a)
	out, err := m.Execute()
	if errors.Is(err, vm.ErrStepLimitExceeded) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("candidate %d: %w", a, err)
	}
	return out.Equal(target), nil
}

// Find searches with the configured strategy. StrategyAuto picks Reverse when
// the analyzer reports a digit-wise program and Exhaustive otherwise.
func Find(ctx context.Context, p *vm.Program, opts ...Option) (Result, error) {
	if p == nil {
		return Result{}, vm.ErrNoProgram
	}
	o := newOptions(p, opts)

	strategy := o.strategy
	if strategy == StrategyAuto {
		report := analysis.New(analysis.WithAllChecks()).Analyze(p)
		strategy = StrategyExhaustive
		if report.DigitWise {
			strategy = StrategyReverse
		}
		logrus.WithFields(logrus.Fields{
			"strategy": strategy,
			"issues":   len(report.Issues),
		}).Debug("search: strategy selected")
	}

	switch strategy {
	case StrategyReverse:
		res, err := Reverse(ctx, p, opts...)
		if err != nil || !o.crossCheck {
			return res, err
		}
		return crossCheck(ctx, p, res, opts)
	case StrategyExhaustive:
		return Exhaustive(ctx, p, opts...)
	default:
		return Result{}, fmt.Errorf("%w: %v", ErrUnknownStrategy, strategy)
	}
}

// crossCheck scans below the reverse result (or the whole bound when reverse
// found nothing) and fails if the exhaustive scan finds a smaller seed.
func crossCheck(ctx context.Context, p *vm.Program, rev Result, opts []Option) (Result, error) {
	o := newOptions(p, opts)
	bound := o.bound
	if rev.Found && rev.Seed < bound {
		bound = rev.Seed
	}

	checkOpts := append(append([]Option{}, opts...), WithBound(bound))
	ex, err := Exhaustive(ctx, p, checkOpts...)
	if err != nil {
		return rev, err
	}
	rev.Evaluated += ex.Evaluated
	if ex.Found {
		return rev, fmt.Errorf("%w: reverse %s, exhaustive %d", ErrCrossCheckMismatch, rev, ex.Seed)
	}

	logrus.WithFields(logrus.Fields{
		"seed":  rev.String(),
		"bound": bound,
	}).Debug("search: cross-check passed")
	return rev, nil
}
