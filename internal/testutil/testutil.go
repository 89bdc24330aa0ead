// Package testutil provides testing utilities for chronovm tests.
package testutil

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	dataframe "github.com/rocketlaunchr/dataframe-go"
	"github.com/rocketlaunchr/dataframe-go/exports"
)

// ExampleInput is the worked example from the puzzle statement.
const ExampleInput = `Register A: 2024
Register B: 0
Register C: 0

Program: 0,3,5,4,3,0
`

// XorLoopInput has the shape of a real puzzle input: a digit-wise loop that
// mixes B and C before each OUT.
const XorLoopInput = `Register A: 668
Register B: 0
Register C: 0

Program: 2,4,1,1,7,5,1,5,4,0,0,3,5,5,3,0
`

// XorLoopSeed is the smallest A for which XorLoopInput prints its own program.
const XorLoopSeed uint64 = 164541160582845

// OctalQuineSeed is the smallest A for which 0,3,5,4,3,0 prints itself.
const OctalQuineSeed uint64 = 117440

// TempFile creates a temporary file with the given content and extension.
// The file is automatically cleaned up when the test finishes.
func TempFile(t *testing.T, content, ext string) string {
	t.Helper()
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "test"+ext)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write temp file: %v", err)
	}
	return path
}

// TempBytes is TempFile for binary content.
func TempBytes(t *testing.T, content []byte, ext string) string {
	t.Helper()
	return TempFile(t, string(content), ext)
}

// TempParquet writes df to a temporary Parquet file and returns its path.
func TempParquet(t *testing.T, df *dataframe.DataFrame) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "batch.parquet")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create parquet file: %v", err)
	}
	defer f.Close()
	if err := exports.ExportToParquet(context.Background(), f, df); err != nil {
		t.Fatalf("failed to write parquet file: %v", err)
	}
	return path
}

// MakeTypedBatchFrame is MakeBatchFrame with an integer a column, the way
// Parquet tables usually carry it.
func MakeTypedBatchFrame() *dataframe.DataFrame {
	return dataframe.NewDataFrame(
		dataframe.NewSeriesString("program", nil, "0,3,5,4,3,0", "0,3,5,4,3,0", "0,3,5"),
		dataframe.NewSeriesInt64("a", nil, int64(2024), nil, int64(1)),
	)
}

// BatchCSV returns a batch table with one run row, one search row and one
// bad row.
func BatchCSV() string {
	return `program,a
"0,3,5,4,3,0",2024
"0,3,5,4,3,0",
"0,3,5",1
`
}

// BatchJSONL is BatchCSV as JSON lines.
func BatchJSONL() string {
	return `{"program": "0,3,5,4,3,0", "a": 2024}
{"program": "0,3,5,4,3,0", "a": null}
{"program": "0,3,5", "a": "1"}
`
}

// MakeBatchFrame builds the BatchCSV table in memory.
func MakeBatchFrame() *dataframe.DataFrame {
	return dataframe.NewDataFrame(
		dataframe.NewSeriesString("program", nil, "0,3,5,4,3,0", "0,3,5,4,3,0", "0,3,5"),
		dataframe.NewSeriesString("a", nil, "2024", nil, "1"),
	)
}

// ColumnValues returns the values of a named column, failing the test if it
// does not exist.
func ColumnValues(t *testing.T, df *dataframe.DataFrame, name string) []interface{} {
	t.Helper()
	idx, err := df.NameToColumn(name)
	if err != nil {
		t.Fatalf("missing column %q: %v", name, err)
	}
	s := df.Series[idx]
	vals := make([]interface{}, s.NRows())
	for i := range vals {
		vals[i] = s.Value(i)
	}
	return vals
}
