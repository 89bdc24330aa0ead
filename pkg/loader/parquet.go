package loader

import (
	"context"

	"github.com/pkg/errors"
	dataframe "github.com/rocketlaunchr/dataframe-go"
	"github.com/rocketlaunchr/dataframe-go/imports"
	"github.com/xitongsys/parquet-go-source/local"
)

// Parquet-specific errors
var (
	ErrEmptyParquet = errors.New("empty Parquet file")
)

// LoadParquet reads a Parquet file and returns a DataFrame.
// Column types follow the file's schema; the batch runner accepts string or
// integer a columns.
func LoadParquet(path string) (*dataframe.DataFrame, error) {
	fr, err := local.NewLocalFileReader(path)
	if err != nil {
		return nil, errors.Wrap(err, "opening Parquet")
	}
	defer fr.Close()

	ctx := context.Background()

	df, err := imports.LoadFromParquet(ctx, fr)
	if err != nil {
		return nil, errors.Wrapf(err, "loading Parquet %s", path)
	}

	if df == nil || len(df.Series) == 0 {
		return nil, ErrEmptyParquet
	}

	return df, nil
}
