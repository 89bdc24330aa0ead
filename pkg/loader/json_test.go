package loader

import (
	"errors"
	"testing"

	"github.com/akhildatla/chronovm/internal/testutil"
)

func TestLoadJSON_Batch(t *testing.T) {
	df, err := LoadJSON(testutil.TempFile(t, testutil.BatchJSONL(), ".jsonl"))
	if err != nil {
		t.Fatalf("LoadJSON failed: %v", err)
	}

	if df.NRows() != 3 {
		t.Errorf("expected 3 rows, got %d", df.NRows())
	}

	as := testutil.ColumnValues(t, df, ColumnA)
	if as[0] != "2024" {
		t.Errorf("expected numeric a to load as string 2024, got %v", as[0])
	}
	if as[1] != nil {
		t.Errorf("expected nil a for null, got %v", as[1])
	}
	if as[2] != "1" {
		t.Errorf("expected a[2] = 1, got %v", as[2])
	}
}

func TestLoadJSON_EmptyFile(t *testing.T) {
	_, err := LoadJSON(testutil.TempFile(t, "\n  \n", ".json"))
	if !errors.Is(err, ErrEmptyJSON) {
		t.Errorf("expected ErrEmptyJSON, got %v", err)
	}
}

func TestLoadJSON_Invalid(t *testing.T) {
	if _, err := LoadJSON(testutil.TempFile(t, "{not json", ".json")); err == nil {
		t.Error("expected error for invalid JSON")
	}
}
