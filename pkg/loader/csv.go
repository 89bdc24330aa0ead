package loader

import (
	"context"
	"os"

	"github.com/pkg/errors"
	dataframe "github.com/rocketlaunchr/dataframe-go"
	"github.com/rocketlaunchr/dataframe-go/imports"
)

// Error definitions
var (
	ErrEmptyFile = errors.New("empty CSV file")
)

// LoadCSV reads a CSV file and returns a DataFrame using dataframe-go.
// - First row is header (column names)
// - program and a are read as strings, other columns are auto-detected
// - Programs contain commas, so the program field must be quoted
func LoadCSV(path string) (*dataframe.DataFrame, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "opening CSV")
	}
	defer file.Close()

	ctx := context.Background()
	df, err := imports.LoadFromCSV(ctx, file, imports.CSVLoadOptions{
		TrimLeadingSpace: true,
		DictateDataType:  dictated(),
		InferDataTypes:   true,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "loading CSV %s", path)
	}

	if df == nil || len(df.Series) == 0 {
		return nil, ErrEmptyFile
	}

	return df, nil
}
