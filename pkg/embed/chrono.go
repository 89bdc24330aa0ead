// Package embed provides the Go embedding API for chronovm.
//
// Pass a puzzle input, get a result.
//
// Basic usage:
//
//	out, err := embed.Execute(`
//	    Register A: 729
//	    Register B: 0
//	    Register C: 0
//
//	    Program: 0,1,5,4,3,0
//	`)
//
// Finding the seed that makes the program print itself:
//
//	res, err := embed.FindSeed(input,
//	    embed.WithTimeout(10*time.Second),
//	    embed.WithWorkers(8),
//	)
package embed

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/akhildatla/chronovm/pkg/compiler"
	"github.com/akhildatla/chronovm/pkg/decoder"
	"github.com/akhildatla/chronovm/pkg/search"
	"github.com/akhildatla/chronovm/pkg/vm"
)

// Common errors
var (
	ErrTimeout          = errors.New("execution timeout exceeded")
	ErrInstructionLimit = errors.New("instruction limit exceeded")
)

// Options configures execution behavior.
type Options struct {
	// Timeout sets maximum execution time. Zero means no timeout.
	Timeout time.Duration

	// MaxSteps limits the number of instructions executed per run.
	// Zero means unlimited for Execute and search.DefaultMaxSteps for FindSeed.
	MaxSteps int64

	// RegisterA overrides the value decoded from the input when set.
	RegisterA *uint64

	// Strategy, Workers and Bound are passed to the seed search.
	Strategy search.Strategy
	Workers  int
	Bound    uint64

	// Context for cancellation. If nil, context.Background() is used.
	Context context.Context
}

// Option is a functional option for configuring execution.
type Option func(*Options)

// WithTimeout sets execution timeout.
func WithTimeout(d time.Duration) Option {
	return func(o *Options) {
		o.Timeout = d
	}
}

// WithMaxSteps sets the instruction limit.
func WithMaxSteps(n int64) Option {
	return func(o *Options) {
		o.MaxSteps = n
	}
}

// WithRegisterA runs with a instead of the decoded register A.
func WithRegisterA(a uint64) Option {
	return func(o *Options) {
		o.RegisterA = &a
	}
}

// WithStrategy selects the search algorithm for FindSeed.
func WithStrategy(s search.Strategy) Option {
	return func(o *Options) {
		o.Strategy = s
	}
}

// WithWorkers sets the number of search workers.
func WithWorkers(n int) Option {
	return func(o *Options) {
		o.Workers = n
	}
}

// WithBound sets the exhaustive search bound.
func WithBound(bound uint64) Option {
	return func(o *Options) {
		o.Bound = bound
	}
}

// WithContext sets the context for cancellation.
func WithContext(ctx context.Context) Option {
	return func(o *Options) {
		o.Context = ctx
	}
}

func newOptions(opts []Option) *Options {
	options := &Options{
		Context: context.Background(),
	}
	for _, opt := range opts {
		opt(options)
	}
	if options.Context == nil {
		options.Context = context.Background()
	}
	return options
}

// newContext returns the configured context with the timeout applied.
func (o *Options) newContext() (context.Context, context.CancelFunc) {
	if o.Timeout > 0 {
		return context.WithTimeout(o.Context, o.Timeout)
	}
	return context.WithCancel(o.Context)
}

// Execute decodes a puzzle input and runs it.
func Execute(input string, opts ...Option) (vm.Output, error) {
	in, err := decoder.Decode(input)
	if err != nil {
		return nil, err
	}
	options := newOptions(opts)
	a := in.RegisterA
	if options.RegisterA != nil {
		a = *options.RegisterA
	}
	return run(in.Program, a, options)
}

// ExecuteFile reads a puzzle input file and runs it.
func ExecuteFile(path string, opts ...Option) (vm.Output, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Execute(string(data), opts...)
}

// ExecuteASM assembles source and runs it with register A set to a.
// WithRegisterA is ignored.
func ExecuteASM(source string, a uint64, opts ...Option) (vm.Output, error) {
	program, err := compiler.Compile(source)
	if err != nil {
		return nil, err
	}
	return run(program, a, newOptions(opts))
}

func run(p *vm.Program, a uint64, options *Options) (vm.Output, error) {
	ctx, cancel := options.newContext()
	defer cancel()

	machine := vm.NewVM()
	machine.SetMaxSteps(options.MaxSteps)
	machine.SetContext(ctx)
	if err := machine.Load(p); err != nil {
		return nil, err
	}
	machine.Reset(a)

	out, err := machine.Execute()
	if err != nil {
		return out, mapError(err)
	}
	return out, nil
}

// FindSeed decodes a puzzle input and searches for the smallest register A
// that makes the program print itself. A missing solution is reported through
// Result.Found, not as an error.
func FindSeed(input string, opts ...Option) (search.Result, error) {
	in, err := decoder.Decode(input)
	if err != nil {
		return search.Result{}, err
	}
	options := newOptions(opts)
	ctx, cancel := options.newContext()
	defer cancel()

	searchOpts := []search.Option{
		search.WithStrategy(options.Strategy),
		search.WithWorkers(options.Workers),
	}
	if options.Bound > 0 {
		searchOpts = append(searchOpts, search.WithBound(options.Bound))
	}
	if options.MaxSteps > 0 {
		searchOpts = append(searchOpts, search.WithMaxSteps(options.MaxSteps))
	}

	res, err := search.Find(ctx, in.Program, searchOpts...)
	if err != nil {
		return res, mapError(err)
	}
	return res, nil
}

// mapError maps VM and context errors to embed package errors.
func mapError(err error) error {
	switch {
	case errors.Is(err, vm.ErrStepLimitExceeded):
		return ErrInstructionLimit
	case errors.Is(err, context.DeadlineExceeded):
		return ErrTimeout
	}
	return err
}
