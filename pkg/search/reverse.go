package search

import (
	"context"

	"github.com/akhildatla/chronovm/pkg/vm"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Reverse rebuilds the seed from the most significant base-8 digit down.
//
// The frontier starts as {0..7}. At position j every candidate is run and
// kept when its output is exactly the last j+1 target values; survivors are
// extended by one digit (c*8+k) for the next position. Candidates matching
// the whole target are solutions and the smallest is returned.
//
// This assumes the program shifts A right by 3 exactly once per loop pass and
// emits one value per pass, so output digit i depends only on the top
// digits of A. For other programs the result may be wrong or missing; use
// Exhaustive or Find with StrategyAuto.
func Reverse(ctx context.Context, p *vm.Program, opts ...Option) (Result, error) {
	if p == nil {
		return Result{}, vm.ErrNoProgram
	}
	o := newOptions(p, opts)
	res := Result{Strategy: StrategyReverse}
	target := o.target
	n := len(target)

	if n == 0 {
		// Only A=0 is guaranteed not to loop; accept it if it prints nothing.
		m, err := newWorkerVM(p, o.maxSteps)
		if err != nil {
			return res, err
		}
		res.Found, err = matches(m, 0, target)
		res.Evaluated = 1
		return res, err
	}

	frontier := make([]uint64, 8)
	for k := range frontier {
		frontier[k] = uint64(k)
	}

	for j := 0; j < n && len(frontier) > 0; j++ {
		suffix := target[n-1-j:]
		matched, err := evaluate(ctx, p, frontier, suffix, o)
		res.Evaluated += uint64(len(frontier))
		if err != nil {
			return res, err
		}

		next := make([]uint64, 0, len(matched)*8)
		for _, c := range matched {
			if j == n-1 {
				if !res.Found || c < res.Seed {
					res.Seed = c
					res.Found = true
				}
				continue
			}
			if c > (^uint64(0))>>3 {
				// Another digit would overflow A.
				continue
			}
			for k := uint64(0); k < 8; k++ {
				next = append(next, c*8+k)
			}
		}

		logrus.WithFields(logrus.Fields{
			"position":  j,
			"frontier":  len(frontier),
			"survivors": len(matched),
		}).Debug("search: reverse position done")
		frontier = next
	}

	return res, nil
}

// evaluate runs every candidate and returns, in input order, the ones whose
// output equals suffix.
func evaluate(ctx context.Context, p *vm.Program, candidates []uint64, suffix []uint8, o options) ([]uint64, error) {
	keep := make([]bool, len(candidates))

	workers := o.workers
	if workers > len(candidates) {
		workers = len(candidates)
	}
	chunk := (len(candidates) + workers - 1) / workers

	g, ctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		lo := w * chunk
		hi := lo + chunk
		if hi > len(candidates) {
			hi = len(candidates)
		}
		if lo >= hi {
			break
		}
		g.Go(func() error {
			m, err := newWorkerVM(p, o.maxSteps)
			if err != nil {
				return err
			}
			for i := lo; i < hi; i++ {
				if err := ctx.Err(); err != nil {
					return err
				}
				ok, err := matches(m, candidates[i], suffix)
				if err != nil {
					return err
				}
				keep[i] = ok
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	matched := make([]uint64, 0, len(candidates))
	for i, ok := range keep {
		if ok {
			matched = append(matched, candidates[i])
		}
	}
	return matched, nil
}
