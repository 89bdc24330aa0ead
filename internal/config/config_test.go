package config

import (
	"context"
	"testing"
	"time"

	"github.com/akhildatla/chronovm/internal/testutil"
	"github.com/akhildatla/chronovm/pkg/search"
	"github.com/akhildatla/chronovm/pkg/vm"
	"github.com/pkg/errors"
)

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.Search.Strategy != "auto" {
		t.Errorf("expected auto strategy, got %s", cfg.Search.Strategy)
	}
	if cfg.Search.Bound != search.DefaultBound {
		t.Errorf("expected default bound, got %d", cfg.Search.Bound)
	}
	if cfg.Batch.Format != "table" {
		t.Errorf("expected table format, got %s", cfg.Batch.Format)
	}
}

func TestLoad_TOML(t *testing.T) {
	path := testutil.TempFile(t, `
[search]
strategy = "exhaustive"
workers = 3
bound = 4096
timeout = "2s"
cross_check = true

[log]
level = "debug"
`, ".toml")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Search.Strategy != "exhaustive" || cfg.Search.Workers != 3 || cfg.Search.Bound != 4096 {
		t.Errorf("unexpected search config %+v", cfg.Search)
	}
	if !cfg.Search.CrossCheck {
		t.Error("expected cross check enabled")
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("expected debug level, got %s", cfg.Log.Level)
	}

	// Untouched values keep their defaults.
	if cfg.Search.MaxSteps != search.DefaultMaxSteps {
		t.Errorf("expected default step cap, got %d", cfg.Search.MaxSteps)
	}
	if cfg.Batch.Format != "table" {
		t.Errorf("expected table format, got %s", cfg.Batch.Format)
	}

	d, err := cfg.Search.TimeoutDuration()
	if err != nil {
		t.Fatalf("TimeoutDuration failed: %v", err)
	}
	if d != 2*time.Second {
		t.Errorf("expected 2s, got %s", d)
	}
}

func TestLoad_YAML(t *testing.T) {
	path := testutil.TempFile(t, `
search:
  strategy: reverse
  max_steps: 500
batch:
  workers: 2
  format: csv
log:
  format: json
`, ".yml")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Search.Strategy != "reverse" || cfg.Search.MaxSteps != 500 {
		t.Errorf("unexpected search config %+v", cfg.Search)
	}
	if cfg.Batch.Workers != 2 || cfg.Batch.Format != "csv" {
		t.Errorf("unexpected batch config %+v", cfg.Batch)
	}
	if cfg.Log.Format != "json" || cfg.Log.Level != "warn" {
		t.Errorf("unexpected log config %+v", cfg.Log)
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		ext     string
		wantErr error
	}{
		{"UnsupportedExtension", "", ".ini", ErrUnsupportedFormat},
		{"BadStrategy", "[search]\nstrategy = \"guess\"\n", ".toml", ErrInvalid},
		{"NegativeWorkers", "batch:\n  workers: -1\n", ".yaml", ErrInvalid},
		{"BadTimeout", "[search]\ntimeout = \"soon\"\n", ".toml", ErrInvalid},
		{"BadFormat", "[batch]\nformat = \"xml\"\n", ".toml", ErrInvalid},
		{"BadLevel", "log:\n  level: loud\n", ".yaml", ErrInvalid},
		{"BadLogFormat", "log:\n  format: xml\n", ".yaml", ErrInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(testutil.TempFile(t, tt.content, tt.ext))
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestLoad_SyntaxError(t *testing.T) {
	if _, err := Load(testutil.TempFile(t, "[search\n", ".toml")); err == nil {
		t.Error("expected syntax error")
	}
}

func TestLoad_Missing(t *testing.T) {
	if _, err := Load("/nonexistent/chrono.toml"); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestSearchConfig_Options(t *testing.T) {
	cfg := Default()
	cfg.Search.Strategy = "exhaustive"
	cfg.Search.Bound = 1 << 10

	// An exhaustive scan below the octal quine's seed finds nothing.
	res, err := search.Find(context.Background(), vm.MustProgram(0, 3, 5, 4, 3, 0), cfg.Search.Options()...)
	if err != nil {
		t.Fatalf("Find failed: %v", err)
	}
	if res.Strategy != search.StrategyExhaustive {
		t.Errorf("expected exhaustive strategy, got %s", res.Strategy)
	}
	if res.Found {
		t.Errorf("expected no solution, got %d", res.Seed)
	}
	if res.Evaluated != 1<<10 {
		t.Errorf("expected %d runs, got %d", 1<<10, res.Evaluated)
	}
}
