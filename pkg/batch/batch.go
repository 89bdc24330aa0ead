// Package batch runs many programs from a table.
//
// Each row has a program and optionally a register A value. Rows with A are
// executed and get an output; rows without A are searched and get a seed.
// Failures are recorded per row in the error column.
package batch

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"strconv"
	"strings"

	"github.com/akhildatla/chronovm/pkg/decoder"
	"github.com/akhildatla/chronovm/pkg/loader"
	"github.com/akhildatla/chronovm/pkg/search"
	"github.com/akhildatla/chronovm/pkg/vm"
	"github.com/pkg/errors"
	dataframe "github.com/rocketlaunchr/dataframe-go"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Result column names. The input columns program and a are copied through.
const (
	ColumnOutput = "output"
	ColumnSeed   = "seed"
	ColumnError  = "error"
)

var (
	ErrMissingProgram = errors.New("missing program")
	ErrBadRegister    = errors.New("invalid register A value")
)

// Config controls a batch run.
type Config struct {
	// Workers is the number of rows processed at once. Zero means
	// runtime.NumCPU().
	Workers int

	// MaxSteps caps each forward run. Zero means unlimited.
	MaxSteps int64

	// Search is passed to search.Find for rows without A.
	Search []search.Option
}

type rowResult struct {
	program string
	a       interface{}
	output  interface{}
	seed    interface{}
	err     interface{}
}

// Run processes every row of df and returns a new frame with the columns
// program, a, output, seed and error, in the input row order.
func Run(ctx context.Context, df *dataframe.DataFrame, cfg Config) (*dataframe.DataFrame, error) {
	progIdx, err := df.NameToColumn(loader.ColumnProgram)
	if err != nil {
		return nil, errors.Wrap(loader.ErrMissingColumn, "batch")
	}
	progCol := df.Series[progIdx]

	var aCol dataframe.Series
	if idx, err := df.NameToColumn(loader.ColumnA); err == nil {
		aCol = df.Series[idx]
	}

	workers := cfg.Workers
	if workers < 1 {
		workers = runtime.NumCPU()
	}

	rows := progCol.NRows()
	results := make([]rowResult, rows)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := 0; i < rows; i++ {
		var aVal interface{}
		if aCol != nil {
			aVal = aCol.Value(i)
		}
		progVal := progCol.Value(i)

		i := i // per-iteration copy (go.mod targets go1.21 loop semantics)
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = processRow(ctx, i, progVal, aVal, cfg)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, errors.Wrap(err, "batch cancelled")
	}

	return buildFrame(results), nil
}

func processRow(ctx context.Context, row int, progVal, aVal interface{}, cfg Config) rowResult {
	res := rowResult{program: cellString(progVal)}
	log := logrus.WithFields(logrus.Fields{"row": row, "program": res.program})

	fail := func(err error) rowResult {
		log.WithError(err).Debug("batch: row failed")
		res.err = err.Error()
		return res
	}

	if strings.TrimSpace(res.program) == "" {
		return fail(ErrMissingProgram)
	}
	p, err := decoder.DecodeProgram(res.program)
	if err != nil {
		return fail(err)
	}

	a, hasA, err := parseA(aVal)
	if err != nil {
		return fail(err)
	}

	if hasA {
		res.a = strconv.FormatUint(a, 10)
		m := vm.NewVM()
		m.SetMaxSteps(cfg.MaxSteps)
		m.SetContext(ctx)
		if err := m.Load(p); err != nil {
			return fail(err)
		}
		m.Reset(a)
		out, err := m.Execute()
		if err != nil {
			return fail(err)
		}
		res.output = out.String()
		log.Debug("batch: row executed")
		return res
	}

	sr, err := search.Find(ctx, p, cfg.Search...)
	if err != nil {
		return fail(err)
	}
	if sr.Found {
		res.seed = strconv.FormatUint(sr.Seed, 10)
	}
	log.WithField("strategy", sr.Strategy).Debug("batch: row searched")
	return res
}

// parseA accepts the cell types the loaders produce: strings from CSV and
// JSON, integers or floats from Parquet. Nil and blank strings mean absent.
func parseA(v interface{}) (uint64, bool, error) {
	switch x := v.(type) {
	case nil:
		return 0, false, nil
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return 0, false, nil
		}
		a, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			return 0, false, errors.Wrapf(ErrBadRegister, "%q", x)
		}
		return a, true, nil
	case int64:
		if x < 0 {
			return 0, false, errors.Wrapf(ErrBadRegister, "%d", x)
		}
		return uint64(x), true, nil
	case int32:
		if x < 0 {
			return 0, false, errors.Wrapf(ErrBadRegister, "%d", x)
		}
		return uint64(x), true, nil
	case uint64:
		return x, true, nil
	case float64:
		if x < 0 || x != math.Trunc(x) || x >= math.MaxUint64 {
			return 0, false, errors.Wrapf(ErrBadRegister, "%v", x)
		}
		return uint64(x), true, nil
	default:
		return 0, false, errors.Wrapf(ErrBadRegister, "unsupported type %T", v)
	}
}

func cellString(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	default:
		return fmt.Sprint(x)
	}
}

func buildFrame(results []rowResult) *dataframe.DataFrame {
	n := len(results)
	var (
		programs = make([]interface{}, 0, n)
		as       = make([]interface{}, 0, n)
		outputs  = make([]interface{}, 0, n)
		seeds    = make([]interface{}, 0, n)
		errs     = make([]interface{}, 0, n)
	)
	for _, r := range results {
		programs = append(programs, r.program)
		as = append(as, r.a)
		outputs = append(outputs, r.output)
		seeds = append(seeds, r.seed)
		errs = append(errs, r.err)
	}

	return dataframe.NewDataFrame(
		dataframe.NewSeriesString(loader.ColumnProgram, nil, programs...),
		dataframe.NewSeriesString(loader.ColumnA, nil, as...),
		dataframe.NewSeriesString(ColumnOutput, nil, outputs...),
		dataframe.NewSeriesString(ColumnSeed, nil, seeds...),
		dataframe.NewSeriesString(ColumnError, nil, errs...),
	)
}
