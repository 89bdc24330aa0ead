package batch

import (
	"context"
	"io"
	"strings"

	"github.com/pkg/errors"
	dataframe "github.com/rocketlaunchr/dataframe-go"
	"github.com/rocketlaunchr/dataframe-go/exports"
)

// Format is an output format for Write.
type Format string

const (
	FormatCSV   Format = "csv"
	FormatJSON  Format = "json"
	FormatTable Format = "table"
)

var ErrUnknownFormat = errors.New("unknown output format")

// ParseFormat converts a format name. "jsonl" is accepted for FormatJSON and
// the empty string means FormatTable.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "table":
		return FormatTable, nil
	case "csv":
		return FormatCSV, nil
	case "json", "jsonl":
		return FormatJSON, nil
	default:
		return "", errors.Wrapf(ErrUnknownFormat, "%q", s)
	}
}

// Write exports df to w. CSV leaves missing values empty, JSON lines writes
// them as null.
func Write(ctx context.Context, w io.Writer, df *dataframe.DataFrame, format Format) error {
	switch format {
	case FormatCSV:
		empty := ""
		return errors.Wrap(
			exports.ExportToCSV(ctx, w, df, exports.CSVExportOptions{NullString: &empty, Separator: ','}),
			"exporting CSV")
	case FormatJSON:
		return errors.Wrap(exports.ExportToJSON(ctx, w, df), "exporting JSON")
	case FormatTable:
		_, err := io.WriteString(w, df.Table())
		return errors.Wrap(err, "writing table")
	default:
		return errors.Wrapf(ErrUnknownFormat, "%q", string(format))
	}
}
