// Package main implements the walbench binary, a write-throughput
// benchmark harness for WAL-mode SQLite.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/r4victor/walbench/internal/app"
	"github.com/r4victor/walbench/internal/config"
)

var (
	version = "dev"
	commit  = "unknown"
)

// stringList is a repeatable string flag (e.g. --durability strict --durability relaxed).
type stringList []string

func (s *stringList) String() string {
	return strings.Join(*s, ",")
}

func (s *stringList) Set(v string) error {
	for _, part := range strings.Split(v, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		*s = append(*s, part)
	}
	return nil
}

// intList is a repeatable integer flag (e.g. --parallelism 1 --parallelism 8).
type intList []int

func (l *intList) String() string {
	parts := make([]string, len(*l))
	for i, n := range *l {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, ",")
}

func (l *intList) Set(v string) error {
	for _, part := range strings.Split(v, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil {
			return fmt.Errorf("invalid integer %q", part)
		}
		*l = append(*l, n)
	}
	return nil
}

func main() {
	// Parse command line flags
	var (
		configFile    string
		dataDir       string
		durabilities  stringList
		payloadSizes  intList
		parallelism   intList
		serialization stringList
		duration      time.Duration
		iterations    int
		busyTimeout   time.Duration
		warmup        int
		outputPath    string
		outputFormat  string
		keepSamples   bool
		archive       bool
		showVersion   bool
		showHelp      bool
	)

	flag.StringVar(&configFile, "config", "", "Path to configuration file (YAML or JSON)")
	flag.StringVar(&dataDir, "data-dir", "", "Base directory for scenario database files")
	flag.Var(&durabilities, "durability", "Durability mode: strict, relaxed (repeatable)")
	flag.Var(&payloadSizes, "payload-bytes", "Payload size in bytes (repeatable)")
	flag.Var(&parallelism, "parallelism", "Concurrent writer count (repeatable)")
	flag.Var(&serialization, "serialization", "Serialization strategy: none, mutex (repeatable)")
	flag.DurationVar(&duration, "duration", 0, "Wall-clock length of each scenario (e.g. 5s)")
	flag.IntVar(&iterations, "iterations", 0, "Total write count per scenario (alternative to --duration)")
	flag.DurationVar(&busyTimeout, "busy-timeout", -1, "SQLite busy timeout per session")
	flag.IntVar(&warmup, "warmup", -1, "Untimed writes before each measurement")
	flag.StringVar(&outputPath, "output", "", "Report destination (\"-\" for stdout)")
	flag.StringVar(&outputFormat, "format", "", "Report format: text, json")
	flag.BoolVar(&keepSamples, "keep-samples", false, "Retain compressed per-operation latency samples")
	flag.BoolVar(&archive, "archive", false, "Archive the finished report to configured storage")
	flag.BoolVar(&showVersion, "version", false, "Show version information")
	flag.BoolVar(&showHelp, "help", false, "Show help message")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "walbench - Concurrent Write Throughput Benchmark for WAL-Mode SQLite\n\n")
		fmt.Fprintf(os.Stderr, "Usage: walbench [options]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  walbench --duration 5s\n")
		fmt.Fprintf(os.Stderr, "  walbench --durability strict --parallelism 1 --parallelism 8 --iterations 10000\n")
		fmt.Fprintf(os.Stderr, "  walbench --config bench.yaml --format json --output report.json\n")
		fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		fmt.Fprintf(os.Stderr, "  WALBENCH_DATA_DIR            Base directory for scenario database files\n")
		fmt.Fprintf(os.Stderr, "  WALBENCH_DURABILITIES        Durability dimension (comma-separated)\n")
		fmt.Fprintf(os.Stderr, "  WALBENCH_PARALLELISM_LEVELS  Parallelism dimension (comma-separated)\n")
		fmt.Fprintf(os.Stderr, "  WALBENCH_DURATION            Wall-clock length of each scenario\n")
		fmt.Fprintf(os.Stderr, "  WALBENCH_OUTPUT_FORMAT       Report format (text, json)\n")
		fmt.Fprintf(os.Stderr, "  WALBENCH_STORAGE_TYPE        Archive storage type (local, s3)\n")
	}

	flag.Parse()

	if showHelp {
		flag.Usage()
		os.Exit(0)
	}

	if showVersion {
		fmt.Printf("walbench version %s (commit: %s)\n", version, commit)
		os.Exit(0)
	}

	if flag.NArg() > 0 {
		fmt.Fprintf(os.Stderr, "unexpected argument: %s\n\n", flag.Arg(0))
		flag.Usage()
		os.Exit(2)
	}

	// A .env file supplies WALBENCH_* variables; real environment wins.
	_ = godotenv.Load()

	cfg, err := loadConfig(flags{
		configFile:    configFile,
		dataDir:       dataDir,
		durabilities:  durabilities,
		payloadSizes:  payloadSizes,
		parallelism:   parallelism,
		serialization: serialization,
		duration:      duration,
		iterations:    iterations,
		busyTimeout:   busyTimeout,
		warmup:        warmup,
		outputPath:    outputPath,
		outputFormat:  outputFormat,
		keepSamples:   keepSamples,
		archive:       archive,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(2)
	}

	application, err := app.New(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(2)
	}

	printBanner(cfg)

	os.Exit(application.Run(context.Background()))
}

// flags carries parsed command line values into loadConfig.
type flags struct {
	configFile    string
	dataDir       string
	durabilities  stringList
	payloadSizes  intList
	parallelism   intList
	serialization stringList
	duration      time.Duration
	iterations    int
	busyTimeout   time.Duration
	warmup        int
	outputPath    string
	outputFormat  string
	keepSamples   bool
	archive       bool
}

// loadConfig loads configuration from file, environment, and command line flags.
func loadConfig(f flags) (*config.Config, error) {
	var cfg *config.Config
	var err error

	// Start with defaults or load from file
	if f.configFile != "" {
		cfg, err = config.LoadFromFile(f.configFile)
		if err != nil {
			return nil, err
		}
	} else {
		cfg = config.DefaultConfig()
	}

	// Apply environment variables
	config.LoadFromEnv(cfg)

	// Apply command line flags (highest priority)
	if f.dataDir != "" {
		cfg.DataDir = f.dataDir
	}
	if len(f.durabilities) > 0 {
		cfg.Bench.Durabilities = nil
		for _, d := range f.durabilities {
			cfg.Bench.Durabilities = append(cfg.Bench.Durabilities, config.Durability(d))
		}
	}
	if len(f.payloadSizes) > 0 {
		cfg.Bench.PayloadSizes = f.payloadSizes
	}
	if len(f.parallelism) > 0 {
		cfg.Bench.ParallelismLevels = f.parallelism
	}
	if len(f.serialization) > 0 {
		cfg.Bench.Serializations = nil
		for _, s := range f.serialization {
			cfg.Bench.Serializations = append(cfg.Bench.Serializations, config.Serialization(s))
		}
	}
	if f.duration > 0 && f.iterations > 0 {
		return nil, fmt.Errorf("--duration and --iterations are mutually exclusive")
	}
	if f.duration > 0 {
		cfg.Bench.Duration = f.duration
		cfg.Bench.Iterations = 0
	}
	if f.iterations > 0 {
		cfg.Bench.Iterations = f.iterations
		cfg.Bench.Duration = 0
	}
	if f.busyTimeout >= 0 {
		cfg.Bench.BusyTimeout = f.busyTimeout
	}
	if f.warmup >= 0 {
		cfg.Bench.WarmupOps = f.warmup
	}
	if f.outputPath != "" {
		cfg.Output.Path = f.outputPath
	}
	if f.outputFormat != "" {
		cfg.Output.Format = f.outputFormat
	}
	if f.keepSamples {
		cfg.Bench.KeepSamples = true
	}
	if f.archive {
		cfg.Storage.Enabled = true
	}

	return cfg, nil
}

// printBanner prints the startup banner with configuration summary.
func printBanner(cfg *config.Config) {
	log.Printf("╔═══════════════════════════════════════════════════════════╗")
	log.Printf("║                       WALBENCH                            ║")
	log.Printf("║   Concurrent Write Throughput for WAL-Mode SQLite         ║")
	log.Printf("╚═══════════════════════════════════════════════════════════╝")
	log.Printf("")
	log.Printf("Configuration:")
	log.Printf("  Data Dir:      %s", cfg.DataDir)
	log.Printf("  Durability:    %v", cfg.Bench.Durabilities)
	log.Printf("  Payload:       %v bytes", cfg.Bench.PayloadSizes)
	log.Printf("  Parallelism:   %v", cfg.Bench.ParallelismLevels)
	log.Printf("  Serialization: %v", cfg.Bench.Serializations)
	if cfg.Bench.Duration > 0 {
		log.Printf("  Run length:    %v per scenario", cfg.Bench.Duration)
	} else {
		log.Printf("  Run length:    %d writes per scenario", cfg.Bench.Iterations)
	}
	if cfg.Storage.Enabled {
		log.Printf("  Archive:       %s", cfg.Storage.Type)
	}
	log.Printf("")
}
