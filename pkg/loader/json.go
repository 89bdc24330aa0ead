package loader

import (
	"bytes"
	"context"
	"os"

	"github.com/pkg/errors"
	dataframe "github.com/rocketlaunchr/dataframe-go"
	"github.com/rocketlaunchr/dataframe-go/imports"
)

// JSON-specific errors
var (
	ErrEmptyJSON = errors.New("empty JSON file")
)

// LoadJSON reads a JSON lines file, one object per line:
//
//	{"program": "0,3,5,4,3,0", "a": "2024"}
//
// The first object decides which fields are imported. Missing values
// become nil.
func LoadJSON(path string) (*dataframe.DataFrame, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "reading JSON")
	}

	if len(bytes.TrimSpace(data)) == 0 {
		return nil, ErrEmptyJSON
	}

	reader := bytes.NewReader(data)
	ctx := context.Background()

	df, err := imports.LoadFromJSON(ctx, reader, imports.JSONLoadOptions{
		DictateDataType: dictated(),
	})
	if err != nil {
		return nil, errors.Wrapf(err, "loading JSON %s", path)
	}

	if df == nil || len(df.Series) == 0 {
		return nil, ErrEmptyJSON
	}

	return df, nil
}
