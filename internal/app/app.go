// Package app wires configuration, the scenario matrix runner, report
// output, and artifact archival into one benchmark invocation.
package app

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/r4victor/walbench/internal/config"
	"github.com/r4victor/walbench/internal/matrix"
	"github.com/r4victor/walbench/internal/report"
	"github.com/r4victor/walbench/internal/server"
	"github.com/r4victor/walbench/internal/storage"
)

// App manages one benchmark invocation end to end.
type App struct {
	cfg       *config.Config
	lifecycle *server.Lifecycle
}

// New creates an App with the given configuration.
func New(cfg *config.Config) (*App, error) {
	cfg.Resolve()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("failed to create directories: %w", err)
	}

	return &App{
		cfg:       cfg,
		lifecycle: server.NewLifecycle(),
	}, nil
}

// Run executes the benchmark matrix and returns the process exit code:
// 0 when every scenario reached a measurement, 1 when any scenario aborted
// or the run was canceled by a signal.
func (a *App) Run(parent context.Context) int {
	ctx, stop := a.lifecycle.SignalContext(parent)
	defer stop()

	// Scenario stores are transient; discard whatever is left even if a
	// scenario aborted before cleaning up after itself.
	sessionDir := a.cfg.SessionDir()
	a.lifecycle.RegisterCloser(server.CloserFunc(func() error {
		return os.RemoveAll(sessionDir)
	}))
	defer func() {
		if err := a.lifecycle.Close(); err != nil {
			log.Printf("cleanup: %v", err)
		}
	}()

	runner := matrix.NewRunner(a.cfg)
	rep := runner.RunAll(ctx)
	canceled := ctx.Err() != nil

	var samplePaths []string
	if a.cfg.Bench.KeepSamples {
		paths, err := report.DumpSamples(a.cfg.Output.SamplesDir, rep)
		if err != nil {
			log.Printf("sample dump: %v", err)
		}
		samplePaths = paths
	}

	if err := report.Write(a.cfg.Output.Path, a.cfg.Output.Format, rep); err != nil {
		log.Printf("report: %v", err)
		return 1
	}

	if a.cfg.Storage.Enabled {
		// Archival uses a fresh context: a signal canceled the benchmark,
		// not the publishing of what it measured.
		if err := a.archive(context.Background(), rep, samplePaths); err != nil {
			log.Printf("archive: %v", err)
		}
	}

	if rep.AnyAborted() || canceled {
		return 1
	}
	return 0
}

// archive uploads the report and any sample dumps under a unique run prefix.
func (a *App) archive(ctx context.Context, rep *report.Report, samplePaths []string) error {
	store, err := a.newStorage(ctx)
	if err != nil {
		return err
	}

	runID := fmt.Sprintf("%s-%s", time.Now().UTC().Format("20060102T150405Z"), uuid.NewString()[:8])
	prefix := a.cfg.Storage.ArchivePrefix + "/" + runID

	// The archived report is always JSON, whatever the console format. It is
	// staged in a temp file so it cannot collide with the primary output.
	tmp, err := os.CreateTemp(a.cfg.DataDir, "report-*.json")
	if err != nil {
		return err
	}
	reportPath := tmp.Name()
	tmp.Close()
	defer os.Remove(reportPath)
	if err := report.Write(reportPath, "json", rep); err != nil {
		return err
	}

	if err := store.Upload(ctx, reportPath, prefix+"/report.json"); err != nil {
		return err
	}
	for _, p := range samplePaths {
		if err := store.Upload(ctx, p, prefix+"/"+filepath.Base(p)); err != nil {
			return err
		}
	}

	log.Printf("archived report under %s", prefix)
	return nil
}

func (a *App) newStorage(ctx context.Context) (storage.ObjectStorage, error) {
	if a.cfg.Storage.Type == "s3" {
		return storage.NewS3Storage(ctx, a.cfg.Storage.S3.Bucket, storage.S3Config{
			Region:   a.cfg.Storage.S3.Region,
			Endpoint: a.cfg.Storage.S3.Endpoint,
		})
	}
	return storage.NewLocalStorage(a.cfg.Storage.Path)
}
