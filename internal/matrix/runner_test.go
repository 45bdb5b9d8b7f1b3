package matrix

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/r4victor/walbench/internal/config"
	"github.com/r4victor/walbench/internal/report"
)

func smallConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.DataDir = filepath.Join(t.TempDir(), "bench")
	cfg.Bench.Durabilities = []config.Durability{config.DurabilityRelaxed}
	cfg.Bench.PayloadSizes = []int{100}
	cfg.Bench.ParallelismLevels = []int{1, 2}
	cfg.Bench.Serializations = []config.Serialization{config.SerializationNone, config.SerializationMutex}
	cfg.Bench.Duration = 0
	cfg.Bench.Iterations = 20
	cfg.Resolve()
	require.NoError(t, cfg.Validate())
	require.NoError(t, cfg.EnsureDirectories())
	return cfg
}

func TestRunAll_RecordsEveryScenarioInOrder(t *testing.T) {
	cfg := smallConfig(t)
	runner := NewRunner(cfg)

	rep := runner.RunAll(context.Background())

	expected := Enumerate(cfg.Bench)
	require.Len(t, rep.Entries, len(expected))
	for i, e := range rep.Entries {
		assert.Equal(t, expected[i], e.Scenario, "entry %d out of enumeration order", i)
		assert.Equal(t, report.StatusOK, e.Status)
		assert.Equal(t, int64(20), e.Measurement.Operations)
	}
	for _, st := range runner.States() {
		assert.Equal(t, StateRecorded, st)
	}
	assert.False(t, rep.AnyAborted())
}

func TestRunAll_SessionsCleanedUp(t *testing.T) {
	cfg := smallConfig(t)
	runner := NewRunner(cfg)
	runner.RunAll(context.Background())

	entries, err := os.ReadDir(cfg.SessionDir())
	require.NoError(t, err)
	assert.Empty(t, entries, "all scenario stores should be discarded after the run")
}

func TestRunAll_AbortedScenariosDoNotStopTheMatrix(t *testing.T) {
	cfg := smallConfig(t)
	// Replace the session directory with a file so every open fails.
	require.NoError(t, os.RemoveAll(cfg.SessionDir()))
	require.NoError(t, os.WriteFile(cfg.SessionDir(), []byte("x"), 0644))

	runner := NewRunner(cfg)
	rep := runner.RunAll(context.Background())

	require.Len(t, rep.Entries, len(Enumerate(cfg.Bench)),
		"an aborted scenario must not prevent the rest of the matrix from running")
	for _, e := range rep.Entries {
		assert.Equal(t, report.StatusAborted, e.Status)
		assert.NotEmpty(t, e.Error)
	}
	assert.True(t, rep.AnyAborted())
}

func TestRunAll_CanceledContextYieldsPartialReport(t *testing.T) {
	cfg := smallConfig(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	runner := NewRunner(cfg)
	rep := runner.RunAll(ctx)

	assert.Empty(t, rep.Entries, "a canceled run stops before starting new scenarios")
	assert.False(t, rep.FinishedAt.IsZero(), "even a canceled run is finalized")
}

func TestRunAll_DurationMode(t *testing.T) {
	cfg := smallConfig(t)
	cfg.Bench.Iterations = 0
	cfg.Bench.Duration = 100 * time.Millisecond
	cfg.Bench.ParallelismLevels = []int{2}
	cfg.Bench.Serializations = []config.Serialization{config.SerializationMutex}
	require.NoError(t, cfg.Validate())

	runner := NewRunner(cfg)
	rep := runner.RunAll(context.Background())

	require.Len(t, rep.Entries, 1)
	m := rep.Entries[0].Measurement
	assert.Greater(t, m.Operations, int64(0))
	assert.Equal(t, int64(0), m.Failures, "mutex strategy should not observe busy")
}
