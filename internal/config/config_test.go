package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig_Valid(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Resolve()
	assert.NoError(t, cfg.Validate())
}

func TestValidate_EmptyDimensions(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"no durabilities", func(c *Config) { c.Bench.Durabilities = nil }},
		{"no payload sizes", func(c *Config) { c.Bench.PayloadSizes = nil }},
		{"no parallelism levels", func(c *Config) { c.Bench.ParallelismLevels = nil }},
		{"no serializations", func(c *Config) { c.Bench.Serializations = nil }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestValidate_InvalidDimensionValues(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Bench.Durabilities = []Durability{"eventual"}
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Bench.Serializations = []Serialization{"spinlock"}
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Bench.PayloadSizes = []int{0}
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Bench.ParallelismLevels = []int{-1}
	assert.Error(t, cfg.Validate())
}

func TestValidate_RunLengthControl(t *testing.T) {
	// Both set
	cfg := DefaultConfig()
	cfg.Bench.Duration = time.Second
	cfg.Bench.Iterations = 100
	assert.Error(t, cfg.Validate())

	// Neither set
	cfg = DefaultConfig()
	cfg.Bench.Duration = 0
	cfg.Bench.Iterations = 0
	assert.Error(t, cfg.Validate())

	// Iterations only
	cfg = DefaultConfig()
	cfg.Bench.Duration = 0
	cfg.Bench.Iterations = 100
	assert.NoError(t, cfg.Validate())
}

func TestValidate_S3RequiresBucket(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Storage.Enabled = true
	cfg.Storage.Type = "s3"
	assert.Error(t, cfg.Validate())

	cfg.Storage.S3.Bucket = "bench-results"
	assert.NoError(t, cfg.Validate())
}

func TestDurability_SynchronousPragma(t *testing.T) {
	assert.Equal(t, "FULL", DurabilityStrict.SynchronousPragma())
	assert.Equal(t, "NORMAL", DurabilityRelaxed.SynchronousPragma())
}

func TestLoadFromFile_YAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := []byte(`
data_dir: /tmp/bench
bench:
  durabilities: [relaxed]
  payload_sizes: [10, 1000]
  parallelism_levels: [4]
  serializations: [mutex]
  iterations: 500
  duration: 0
output:
  format: json
`)
	require.NoError(t, os.WriteFile(path, content, 0644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/bench", cfg.DataDir)
	assert.Equal(t, []Durability{DurabilityRelaxed}, cfg.Bench.Durabilities)
	assert.Equal(t, []int{10, 1000}, cfg.Bench.PayloadSizes)
	assert.Equal(t, []int{4}, cfg.Bench.ParallelismLevels)
	assert.Equal(t, []Serialization{SerializationMutex}, cfg.Bench.Serializations)
	assert.Equal(t, 500, cfg.Bench.Iterations)
	assert.Equal(t, "json", cfg.Output.Format)
	// Defaults survive for unset fields
	assert.Equal(t, 5*time.Second, cfg.Bench.BusyTimeout)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFromFile_JSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	content := []byte(`{"bench": {"iterations": 42, "duration": 0}}`)
	require.NoError(t, os.WriteFile(path, content, 0644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, 42, cfg.Bench.Iterations)
}

func TestLoadFromFile_UnsupportedExtension(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("x = 1"), 0644))

	_, err := LoadFromFile(path)
	assert.Error(t, err)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("WALBENCH_DURABILITIES", "relaxed")
	t.Setenv("WALBENCH_PAYLOAD_SIZES", "10,100")
	t.Setenv("WALBENCH_PARALLELISM_LEVELS", "2")
	t.Setenv("WALBENCH_SERIALIZATIONS", "none, mutex")
	t.Setenv("WALBENCH_ITERATIONS", "1000")
	t.Setenv("WALBENCH_BUSY_TIMEOUT", "250ms")

	cfg := DefaultConfig()
	LoadFromEnv(cfg)

	assert.Equal(t, []Durability{DurabilityRelaxed}, cfg.Bench.Durabilities)
	assert.Equal(t, []int{10, 100}, cfg.Bench.PayloadSizes)
	assert.Equal(t, []int{2}, cfg.Bench.ParallelismLevels)
	assert.Equal(t, []Serialization{SerializationNone, SerializationMutex}, cfg.Bench.Serializations)
	assert.Equal(t, 1000, cfg.Bench.Iterations)
	// Setting iterations via env clears the default duration
	assert.Equal(t, time.Duration(0), cfg.Bench.Duration)
	assert.Equal(t, 250*time.Millisecond, cfg.Bench.BusyTimeout)
	assert.NoError(t, cfg.Validate())
}

func TestResolve_DerivesPaths(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DataDir = "/data/bench"
	cfg.Resolve()

	assert.Equal(t, filepath.Join("/data/bench", "sessions"), cfg.SessionDir())
	assert.Equal(t, filepath.Join("/data/bench", "samples"), cfg.Output.SamplesDir)
	assert.Equal(t, filepath.Join("/data/bench", "archive"), cfg.Storage.Path)
}

func TestEnsureDirectories(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DataDir = filepath.Join(t.TempDir(), "bench")
	cfg.Bench.KeepSamples = true
	cfg.Resolve()

	require.NoError(t, cfg.EnsureDirectories())

	for _, dir := range []string{cfg.DataDir, cfg.SessionDir(), cfg.Output.SamplesDir} {
		info, err := os.Stat(dir)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}
}
