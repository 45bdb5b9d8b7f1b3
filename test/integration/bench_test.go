// Package integration provides end-to-end tests for the walbench harness.
package integration

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/r4victor/walbench/internal/app"
	"github.com/r4victor/walbench/internal/config"
	"github.com/r4victor/walbench/internal/matrix"
	"github.com/r4victor/walbench/internal/report"
)

// benchConfig returns a small iterations-mode configuration rooted in a
// fresh temp directory, with the report written as JSON to a file.
func benchConfig(t *testing.T) *config.Config {
	t.Helper()

	tempDir := t.TempDir()

	cfg := config.DefaultConfig()
	cfg.DataDir = tempDir
	cfg.Bench.Durabilities = []config.Durability{config.DurabilityRelaxed}
	cfg.Bench.PayloadSizes = []int{64}
	cfg.Bench.ParallelismLevels = []int{1, 4}
	cfg.Bench.Serializations = []config.Serialization{config.SerializationNone, config.SerializationMutex}
	cfg.Bench.Duration = 0
	cfg.Bench.Iterations = 200
	cfg.Output.Path = filepath.Join(tempDir, "report.json")
	cfg.Output.Format = "json"
	return cfg
}

// readReport decodes the JSON report written by a run.
func readReport(t *testing.T, path string) *report.Report {
	t.Helper()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read report: %v", err)
	}
	var rep report.Report
	if err := json.Unmarshal(data, &rep); err != nil {
		t.Fatalf("failed to decode report: %v", err)
	}
	return &rep
}

func TestFullMatrixRun(t *testing.T) {
	cfg := benchConfig(t)

	application, err := app.New(cfg)
	if err != nil {
		t.Fatalf("failed to create app: %v", err)
	}

	if code := application.Run(context.Background()); code != 0 {
		t.Fatalf("expected exit code 0, got %d", code)
	}

	rep := readReport(t, cfg.Output.Path)

	scenarios := matrix.Enumerate(cfg.Bench)
	if len(rep.Entries) != len(scenarios) {
		t.Fatalf("expected %d entries, got %d", len(scenarios), len(rep.Entries))
	}

	// Entries appear in enumeration order.
	for i, sc := range scenarios {
		if rep.Entries[i].Scenario != sc {
			t.Errorf("entry %d: expected scenario %s, got %s", i, sc, rep.Entries[i].Scenario)
		}
	}

	for _, e := range rep.Entries {
		if e.Status == report.StatusAborted {
			t.Fatalf("scenario %s aborted: %s", e.Scenario, e.Error)
		}
		if e.Measurement == nil {
			t.Fatalf("scenario %s has no measurement", e.Scenario)
		}

		// Iterations mode: every budget slot concludes as a success or a
		// counted failure.
		total := e.Measurement.Operations + e.Measurement.Failures
		if total != int64(cfg.Bench.Iterations) {
			t.Errorf("scenario %s: operations+failures = %d, want %d",
				e.Scenario, total, cfg.Bench.Iterations)
		}

		if e.Measurement.Operations > 0 && e.ThroughputOPS <= 0 {
			t.Errorf("scenario %s: non-positive throughput %f", e.Scenario, e.ThroughputOPS)
		}
	}

	if rep.FinishedAt.Before(rep.StartedAt) {
		t.Errorf("finished_at %v precedes started_at %v", rep.FinishedAt, rep.StartedAt)
	}

	// Scenario database files are transient and must not survive the run.
	if entries, err := os.ReadDir(cfg.SessionDir()); err == nil && len(entries) > 0 {
		t.Errorf("expected empty session dir, found %d entries", len(entries))
	}
}

func TestSingleWriterNeverFails(t *testing.T) {
	cfg := benchConfig(t)
	cfg.Bench.ParallelismLevels = []int{1}

	application, err := app.New(cfg)
	if err != nil {
		t.Fatalf("failed to create app: %v", err)
	}
	if code := application.Run(context.Background()); code != 0 {
		t.Fatalf("expected exit code 0, got %d", code)
	}

	rep := readReport(t, cfg.Output.Path)
	for _, e := range rep.Entries {
		if e.Status != report.StatusOK {
			t.Errorf("scenario %s: expected status ok, got %s", e.Scenario, e.Status)
		}
		if e.Measurement.Failures != 0 {
			t.Errorf("scenario %s: single writer recorded %d failures",
				e.Scenario, e.Measurement.Failures)
		}
		if e.Measurement.Operations != int64(cfg.Bench.Iterations) {
			t.Errorf("scenario %s: expected %d operations, got %d",
				e.Scenario, cfg.Bench.Iterations, e.Measurement.Operations)
		}
	}
}

func TestMutexSerializationAvoidsBusy(t *testing.T) {
	cfg := benchConfig(t)
	cfg.Bench.ParallelismLevels = []int{8}
	cfg.Bench.Serializations = []config.Serialization{config.SerializationMutex}

	application, err := app.New(cfg)
	if err != nil {
		t.Fatalf("failed to create app: %v", err)
	}
	if code := application.Run(context.Background()); code != 0 {
		t.Fatalf("expected exit code 0, got %d", code)
	}

	rep := readReport(t, cfg.Output.Path)
	for _, e := range rep.Entries {
		if e.Measurement.BusyFailures != 0 {
			t.Errorf("scenario %s: mutex serialization recorded %d busy failures",
				e.Scenario, e.Measurement.BusyFailures)
		}
		if e.Status != report.StatusOK {
			t.Errorf("scenario %s: expected status ok, got %s", e.Scenario, e.Status)
		}
	}
}

func TestDurationModeRun(t *testing.T) {
	cfg := benchConfig(t)
	cfg.Bench.Iterations = 0
	cfg.Bench.Duration = 300 * time.Millisecond
	cfg.Bench.ParallelismLevels = []int{2}
	cfg.Bench.Serializations = []config.Serialization{config.SerializationMutex}

	application, err := app.New(cfg)
	if err != nil {
		t.Fatalf("failed to create app: %v", err)
	}
	if code := application.Run(context.Background()); code != 0 {
		t.Fatalf("expected exit code 0, got %d", code)
	}

	rep := readReport(t, cfg.Output.Path)
	for _, e := range rep.Entries {
		if e.Measurement.Operations == 0 {
			t.Errorf("scenario %s: no operations completed in %v", e.Scenario, cfg.Bench.Duration)
		}
		if e.Measurement.Elapsed < cfg.Bench.Duration {
			t.Errorf("scenario %s: elapsed %v shorter than configured %v",
				e.Scenario, e.Measurement.Elapsed, cfg.Bench.Duration)
		}
	}
}

func TestCanceledRunExitsNonzero(t *testing.T) {
	cfg := benchConfig(t)

	application, err := app.New(cfg)
	if err != nil {
		t.Fatalf("failed to create app: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if code := application.Run(ctx); code != 1 {
		t.Fatalf("expected exit code 1 for canceled run, got %d", code)
	}

	// The partial report is still written, with no completed entries.
	rep := readReport(t, cfg.Output.Path)
	if len(rep.Entries) != 0 {
		t.Errorf("expected no entries in canceled run, got %d", len(rep.Entries))
	}
	if rep.FinishedAt.IsZero() {
		t.Errorf("canceled run report missing finished_at")
	}
}

func TestInvalidConfigRejected(t *testing.T) {
	cfg := benchConfig(t)
	cfg.Bench.Duration = time.Second // both bounds set

	if _, err := app.New(cfg); err == nil {
		t.Fatal("expected error for duration+iterations config")
	}
}
