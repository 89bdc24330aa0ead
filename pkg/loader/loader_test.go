package loader

import (
	"testing"

	"github.com/akhildatla/chronovm/internal/testutil"
	"github.com/pkg/errors"
)

func TestLoad_DispatchesOnExtension(t *testing.T) {
	for _, tc := range []struct {
		content, ext string
	}{
		{testutil.BatchCSV(), ".csv"},
		{testutil.BatchCSV(), ".CSV"},
		{testutil.BatchJSONL(), ".jsonl"},
		{testutil.BatchJSONL(), ".json"},
	} {
		df, err := Load(testutil.TempFile(t, tc.content, tc.ext))
		if err != nil {
			t.Fatalf("%s: Load failed: %v", tc.ext, err)
		}
		if df.NRows() != 3 {
			t.Errorf("%s: expected 3 rows, got %d", tc.ext, df.NRows())
		}
	}
}

func TestLoad_UnsupportedFormat(t *testing.T) {
	_, err := Load(testutil.TempFile(t, "program\n", ".xlsx"))
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestLoad_MissingProgramColumn(t *testing.T) {
	_, err := Load(testutil.TempFile(t, "code,a\n1,2\n", ".csv"))
	if !errors.Is(err, ErrMissingColumn) {
		t.Errorf("expected ErrMissingColumn, got %v", err)
	}
}

func TestLoad_Parquet(t *testing.T) {
	df, err := Load(testutil.TempParquet(t, testutil.MakeTypedBatchFrame()))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if df.NRows() != 3 {
		t.Fatalf("expected 3 rows, got %d", df.NRows())
	}

	programs := testutil.ColumnValues(t, df, ColumnProgram)
	if programs[0] != "0,3,5,4,3,0" || programs[2] != "0,3,5" {
		t.Errorf("unexpected programs %v", programs)
	}

	// The integer a column keeps its Parquet type.
	as := testutil.ColumnValues(t, df, ColumnA)
	if as[0] != int64(2024) || as[1] != nil || as[2] != int64(1) {
		t.Errorf("unexpected a column %v", as)
	}
}

func TestLoad_ParquetNotFound(t *testing.T) {
	if _, err := Load("/nonexistent/batch.parquet"); err == nil {
		t.Error("expected error for missing file")
	}
}
