package search

import (
	"context"
	"math"
	"sync/atomic"

	"github.com/akhildatla/chronovm/pkg/vm"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// blockSize is the number of consecutive candidates a worker claims at once.
const blockSize = 4096

// noSeed marks "nothing found yet". It can never be a match because the scan
// range is [0, bound) with bound <= math.MaxUint64.
const noSeed = math.MaxUint64

// Exhaustive scans A in [0, bound) and returns the smallest value whose output
// equals the target. Works for any program, at the cost of one run per
// candidate.
//
// Workers claim fixed-size blocks from a shared counter and publish matches
// through an atomic minimum. Blocks starting at or above the current minimum
// are skipped.
func Exhaustive(ctx context.Context, p *vm.Program, opts ...Option) (Result, error) {
	if p == nil {
		return Result{}, vm.ErrNoProgram
	}
	o := newOptions(p, opts)
	target := o.target

	var (
		nextBlock atomic.Uint64
		best      atomic.Uint64
		evaluated atomic.Uint64
	)
	best.Store(noSeed)

	blocks := o.bound / blockSize
	if o.bound%blockSize != 0 {
		blocks++
	}

	g, ctx := errgroup.WithContext(ctx)
	for w := 0; w < o.workers; w++ {
		g.Go(func() error {
			m, err := newWorkerVM(p, o.maxSteps)
			if err != nil {
				return err
			}
			for {
				if err := ctx.Err(); err != nil {
					return err
				}
				b := nextBlock.Add(1) - 1
				if b >= blocks {
					return nil
				}
				start := b * blockSize
				if start >= best.Load() {
					return nil
				}
				end := start + blockSize
				if end > o.bound || end < start {
					end = o.bound
				}

				for a := start; a < end; a++ {
					ok, err := matches(m, a, target)
					evaluated.Add(1)
					if err != nil {
						return err
					}
					if ok {
						storeMin(&best, a)
						break
					}
				}
			}
		})
	}

	err := g.Wait()
	res := Result{Strategy: StrategyExhaustive, Evaluated: evaluated.Load()}
	if seed := best.Load(); seed != noSeed {
		res.Seed = seed
		res.Found = true
	}

	logrus.WithFields(logrus.Fields{
		"bound":     o.bound,
		"workers":   o.workers,
		"evaluated": res.Evaluated,
		"found":     res.Found,
	}).Debug("search: exhaustive scan done")

	return res, err
}

// storeMin lowers v to x if x is smaller.
func storeMin(v *atomic.Uint64, x uint64) {
	for {
		cur := v.Load()
		if x >= cur || v.CompareAndSwap(cur, x) {
			return
		}
	}
}
