// Package loader reads batch tables of programs from CSV, JSON lines or
// Parquet files into data frames.
//
// A batch table has a "program" column holding a comma-separated program
// and an optional "a" column holding register A. Both are loaded as strings
// where the format allows it, so large A values keep their precision.
package loader

import (
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	dataframe "github.com/rocketlaunchr/dataframe-go"
)

// Column names of a batch table.
const (
	ColumnProgram = "program"
	ColumnA       = "a"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported table format")
	ErrMissingColumn     = errors.New("missing program column")
)

// dictated keeps the batch columns as strings.
func dictated() map[string]interface{} {
	return map[string]interface{}{
		ColumnProgram: "",
		ColumnA:       "",
	}
}

// Load reads a table, choosing the loader from the file extension.
func Load(path string) (*dataframe.DataFrame, error) {
	var (
		df  *dataframe.DataFrame
		err error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		df, err = LoadCSV(path)
	case ".json", ".jsonl", ".ndjson":
		df, err = LoadJSON(path)
	case ".parquet", ".pq":
		df, err = LoadParquet(path)
	default:
		return nil, errors.Wrapf(ErrUnsupportedFormat, "%s", path)
	}
	if err != nil {
		return nil, err
	}

	if _, err := df.NameToColumn(ColumnProgram); err != nil {
		return nil, errors.Wrapf(ErrMissingColumn, "%s", path)
	}
	return df, nil
}
