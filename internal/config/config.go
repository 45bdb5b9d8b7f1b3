// Package config provides unified configuration for the walbench harness.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Durability selects the SQLite synchronous level for a scenario dimension.
type Durability string

const (
	// DurabilityStrict fsyncs on every commit (_synchronous=FULL).
	DurabilityStrict Durability = "strict"
	// DurabilityRelaxed fsyncs only at checkpoint boundaries (_synchronous=NORMAL).
	DurabilityRelaxed Durability = "relaxed"
)

// SynchronousPragma returns the SQLite _synchronous value for the durability mode.
func (d Durability) SynchronousPragma() string {
	if d == DurabilityStrict {
		return "FULL"
	}
	return "NORMAL"
}

// Serialization selects the client-side write ordering strategy.
type Serialization string

const (
	// SerializationNone lets concurrent writers race for the engine's lock.
	SerializationNone Serialization = "none"
	// SerializationMutex serializes writes through a process-wide mutex.
	SerializationMutex Serialization = "mutex"
)

// Config holds the unified configuration for a benchmark invocation.
type Config struct {
	// DataDir is the base directory for per-scenario database files
	DataDir string `json:"data_dir" yaml:"data_dir"`

	// Bench configures the scenario matrix and run-length control
	Bench BenchConfig `json:"bench" yaml:"bench"`

	// Output configures report rendering
	Output OutputConfig `json:"output" yaml:"output"`

	// Storage configures optional report archival
	Storage StorageConfig `json:"storage" yaml:"storage"`
}

// BenchConfig holds the scenario matrix dimensions and run-length control.
type BenchConfig struct {
	// Durabilities is the durability dimension: strict, relaxed
	Durabilities []Durability `json:"durabilities" yaml:"durabilities"`

	// PayloadSizes is the payload size dimension in bytes
	PayloadSizes []int `json:"payload_sizes" yaml:"payload_sizes"`

	// ParallelismLevels is the concurrent worker count dimension
	ParallelismLevels []int `json:"parallelism_levels" yaml:"parallelism_levels"`

	// Serializations is the client-side serialization dimension: none, mutex
	Serializations []Serialization `json:"serializations" yaml:"serializations"`

	// Duration bounds each scenario by wall clock (mutually exclusive with Iterations)
	Duration time.Duration `json:"duration" yaml:"duration"`

	// Iterations bounds each scenario by total operation count
	Iterations int `json:"iterations" yaml:"iterations"`

	// BusyTimeout is the SQLite busy timeout applied to every session
	BusyTimeout time.Duration `json:"busy_timeout" yaml:"busy_timeout"`

	// WarmupOps is the number of untimed writes before each measurement
	WarmupOps int `json:"warmup_ops" yaml:"warmup_ops"`

	// CountBusyAgainstBudget controls whether a busy rejection consumes an
	// iteration in iterations mode
	CountBusyAgainstBudget bool `json:"count_busy_against_budget" yaml:"count_busy_against_budget"`

	// KeepSamples retains raw per-operation latency samples in the Measurement
	KeepSamples bool `json:"keep_samples" yaml:"keep_samples"`
}

// OutputConfig holds report output configuration.
type OutputConfig struct {
	// Path is the report destination ("-" or empty for stdout)
	Path string `json:"path" yaml:"path"`

	// Format is the report format: json, text
	Format string `json:"format" yaml:"format"`

	// SamplesDir is the directory for compressed latency sample dumps
	SamplesDir string `json:"samples_dir" yaml:"samples_dir"`
}

// StorageConfig holds report archival configuration.
type StorageConfig struct {
	// Enabled controls whether the finished report is archived
	Enabled bool `json:"enabled" yaml:"enabled"`

	// Type is the storage type: local, s3
	Type string `json:"type" yaml:"type"`

	// Path is the local storage path (for local type)
	Path string `json:"path" yaml:"path"`

	// ArchivePrefix is the object key prefix for archived reports
	ArchivePrefix string `json:"archive_prefix" yaml:"archive_prefix"`

	// S3 configuration (for s3 type)
	S3 S3Config `json:"s3" yaml:"s3"`
}

// S3Config holds S3 storage configuration.
type S3Config struct {
	// Bucket is the S3 bucket name
	Bucket string `json:"bucket" yaml:"bucket"`

	// Region is the AWS region
	Region string `json:"region" yaml:"region"`

	// Endpoint is the S3 endpoint (for S3-compatible storage)
	Endpoint string `json:"endpoint" yaml:"endpoint"`
}

// DefaultConfig returns the default configuration, matching the dimension
// ranges the original harness exercised.
func DefaultConfig() *Config {
	return &Config{
		DataDir: "",
		Bench: BenchConfig{
			Durabilities:           []Durability{DurabilityStrict, DurabilityRelaxed},
			PayloadSizes:           []int{1000},
			ParallelismLevels:      []int{1, 8},
			Serializations:         []Serialization{SerializationNone, SerializationMutex},
			Duration:               2 * time.Second,
			BusyTimeout:            5 * time.Second,
			WarmupOps:              0,
			CountBusyAgainstBudget: true,
		},
		Output: OutputConfig{
			Path:   "-",
			Format: "text",
		},
		Storage: StorageConfig{
			Enabled:       false,
			Type:          "local",
			ArchivePrefix: "walbench",
		},
	}
}

// Resolve resolves relative paths and sets defaults based on DataDir.
func (c *Config) Resolve() {
	if c.DataDir == "" {
		c.DataDir = filepath.Join(os.TempDir(), "walbench")
	}
	if c.Output.SamplesDir == "" {
		c.Output.SamplesDir = filepath.Join(c.DataDir, "samples")
	}
	if c.Storage.Path == "" {
		c.Storage.Path = filepath.Join(c.DataDir, "archive")
	}
}

// SessionDir returns the directory for per-scenario database files.
func (c *Config) SessionDir() string {
	return filepath.Join(c.DataDir, "sessions")
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if len(c.Bench.Durabilities) == 0 {
		return fmt.Errorf("at least one durability mode is required")
	}
	for _, d := range c.Bench.Durabilities {
		if d != DurabilityStrict && d != DurabilityRelaxed {
			return fmt.Errorf("invalid durability: %s (must be strict or relaxed)", d)
		}
	}

	if len(c.Bench.PayloadSizes) == 0 {
		return fmt.Errorf("at least one payload size is required")
	}
	for _, s := range c.Bench.PayloadSizes {
		if s < 1 {
			return fmt.Errorf("payload size must be at least 1 byte, got %d", s)
		}
	}

	if len(c.Bench.ParallelismLevels) == 0 {
		return fmt.Errorf("at least one parallelism level is required")
	}
	for _, p := range c.Bench.ParallelismLevels {
		if p < 1 {
			return fmt.Errorf("parallelism must be at least 1, got %d", p)
		}
	}

	if len(c.Bench.Serializations) == 0 {
		return fmt.Errorf("at least one serialization strategy is required")
	}
	for _, s := range c.Bench.Serializations {
		if s != SerializationNone && s != SerializationMutex {
			return fmt.Errorf("invalid serialization: %s (must be none or mutex)", s)
		}
	}

	if c.Bench.Duration > 0 && c.Bench.Iterations > 0 {
		return fmt.Errorf("duration and iterations are mutually exclusive")
	}
	if c.Bench.Duration <= 0 && c.Bench.Iterations <= 0 {
		return fmt.Errorf("either duration or iterations is required")
	}

	if c.Bench.BusyTimeout < 0 {
		return fmt.Errorf("busy_timeout must not be negative")
	}
	if c.Bench.WarmupOps < 0 {
		return fmt.Errorf("warmup_ops must not be negative")
	}

	if c.Output.Format != "json" && c.Output.Format != "text" {
		return fmt.Errorf("invalid output format: %s (must be json or text)", c.Output.Format)
	}

	if c.Storage.Type != "local" && c.Storage.Type != "s3" {
		return fmt.Errorf("invalid storage type: %s (must be local or s3)", c.Storage.Type)
	}
	if c.Storage.Enabled && c.Storage.Type == "s3" && c.Storage.S3.Bucket == "" {
		return fmt.Errorf("s3.bucket is required when storage type is s3")
	}

	return nil
}

// LoadFromFile loads configuration from a YAML or JSON file.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()

	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse YAML config: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse JSON config: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported config file format: %s", ext)
	}

	return cfg, nil
}

// LoadFromEnv loads configuration from environment variables.
// Environment variables use the WALBENCH_ prefix.
func LoadFromEnv(cfg *Config) {
	if v := os.Getenv("WALBENCH_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}

	// Bench configuration
	if v := os.Getenv("WALBENCH_DURABILITIES"); v != "" {
		cfg.Bench.Durabilities = nil
		for _, s := range strings.Split(v, ",") {
			cfg.Bench.Durabilities = append(cfg.Bench.Durabilities, Durability(strings.TrimSpace(s)))
		}
	}
	if v := os.Getenv("WALBENCH_PAYLOAD_SIZES"); v != "" {
		if sizes, err := parseIntList(v); err == nil {
			cfg.Bench.PayloadSizes = sizes
		}
	}
	if v := os.Getenv("WALBENCH_PARALLELISM_LEVELS"); v != "" {
		if levels, err := parseIntList(v); err == nil {
			cfg.Bench.ParallelismLevels = levels
		}
	}
	if v := os.Getenv("WALBENCH_SERIALIZATIONS"); v != "" {
		cfg.Bench.Serializations = nil
		for _, s := range strings.Split(v, ",") {
			cfg.Bench.Serializations = append(cfg.Bench.Serializations, Serialization(strings.TrimSpace(s)))
		}
	}
	if v := os.Getenv("WALBENCH_DURATION"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Bench.Duration = d
			cfg.Bench.Iterations = 0
		}
	}
	if v := os.Getenv("WALBENCH_ITERATIONS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Bench.Iterations = n
			cfg.Bench.Duration = 0
		}
	}
	if v := os.Getenv("WALBENCH_BUSY_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Bench.BusyTimeout = d
		}
	}
	if v := os.Getenv("WALBENCH_WARMUP_OPS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Bench.WarmupOps = n
		}
	}

	// Output configuration
	if v := os.Getenv("WALBENCH_OUTPUT_PATH"); v != "" {
		cfg.Output.Path = v
	}
	if v := os.Getenv("WALBENCH_OUTPUT_FORMAT"); v != "" {
		cfg.Output.Format = v
	}

	// Storage configuration
	if v := os.Getenv("WALBENCH_STORAGE_TYPE"); v != "" {
		cfg.Storage.Type = v
	}
	if v := os.Getenv("WALBENCH_STORAGE_PATH"); v != "" {
		cfg.Storage.Path = v
	}
	if v := os.Getenv("WALBENCH_S3_BUCKET"); v != "" {
		cfg.Storage.S3.Bucket = v
	}
	if v := os.Getenv("WALBENCH_S3_REGION"); v != "" {
		cfg.Storage.S3.Region = v
	}
	if v := os.Getenv("WALBENCH_S3_ENDPOINT"); v != "" {
		cfg.Storage.S3.Endpoint = v
	}
}

// EnsureDirectories creates all required directories.
func (c *Config) EnsureDirectories() error {
	dirs := []string{
		c.DataDir,
		c.SessionDir(),
	}
	if c.Bench.KeepSamples {
		dirs = append(dirs, c.Output.SamplesDir)
	}
	if c.Storage.Enabled && c.Storage.Type == "local" {
		dirs = append(dirs, c.Storage.Path)
	}

	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}

func parseIntList(v string) ([]int, error) {
	var out []int
	for _, s := range strings.Split(v, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}
