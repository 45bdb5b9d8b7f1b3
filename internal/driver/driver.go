// Package driver runs the concurrent write workload for one scenario:
// spawn a fixed pool of workers against a shared session, wait for every
// worker to finish, then merge their locally accumulated results into one
// measurement.
package driver

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/r4victor/walbench/internal/contention"
	"github.com/r4victor/walbench/internal/errors"
	"github.com/r4victor/walbench/internal/observability"
	"github.com/r4victor/walbench/internal/session"
)

// maxUncountedBusyRetries bounds consecutive busy retries for a single
// iteration slot when busy rejections are configured not to consume the
// budget. Past the cap the rejection counts anyway, so a scenario that only
// ever observes busy cannot spin forever.
const maxUncountedBusyRetries = 1000

// RunConfig controls one driver run.
type RunConfig struct {
	// Parallelism is the number of concurrent logical workers.
	Parallelism int

	// Payload is the byte content written by every operation.
	Payload []byte

	// Duration bounds the run by wall clock. Exactly one of Duration and
	// Iterations must be set.
	Duration time.Duration

	// Iterations bounds the run by total operation count, split across
	// workers.
	Iterations int

	// WarmupOps writes to execute, untimed, before measurement starts.
	WarmupOps int

	// CountBusyAgainstBudget controls whether a busy rejection consumes an
	// iteration in iterations mode.
	CountBusyAgainstBudget bool

	// KeepSamples retains the merged raw latency samples in the Measurement.
	KeepSamples bool
}

// Measurement is the immutable result of one driver run.
type Measurement struct {
	// Operations is the number of successfully committed writes.
	Operations int64 `json:"operations"`

	// Failures is the total number of failed writes, busy included.
	Failures int64 `json:"failures"`

	// BusyFailures is the number of writes rejected with a busy condition.
	BusyFailures int64 `json:"busy_failures"`

	// Elapsed is the wall-clock time of the measured portion of the run.
	Elapsed time.Duration `json:"elapsed_ns"`

	// Latency summarizes successful-write latencies.
	Latency observability.Summary `json:"latency"`

	// Samples holds the raw merged latencies of successful writes, sorted
	// ascending. Nil unless KeepSamples was set.
	Samples []time.Duration `json:"-"`

	// AllFailed marks a run in which no write ever succeeded.
	AllFailed bool `json:"all_failed"`
}

// Throughput returns committed operations per second.
func (m *Measurement) Throughput() float64 {
	if m.Elapsed <= 0 {
		return 0
	}
	return float64(m.Operations) / m.Elapsed.Seconds()
}

// workerResult is one worker's locally accumulated counts. Workers never
// touch shared counters on the hot path; results are merged once after the
// join point.
type workerResult struct {
	ops      int64
	failures int64
	busy     int64
	recorder *observability.Recorder
}

// Run executes the workload with cfg.Parallelism concurrent workers, all
// observing the same session and the same controller, and returns the merged
// measurement. Run does not return until every worker has finished: no write
// outlives the call. Worker-level errors are aggregated into the measurement,
// never propagated; the returned error is reserved for invalid configuration.
func Run(ctx context.Context, sess *session.Session, ctrl *contention.Controller, cfg RunConfig) (*Measurement, error) {
	if cfg.Parallelism < 1 {
		return nil, errors.NewInternalError("parallelism must be at least 1", nil)
	}
	if (cfg.Duration > 0) == (cfg.Iterations > 0) {
		return nil, errors.NewInternalError("exactly one of duration and iterations must be set", nil)
	}

	if cfg.WarmupOps > 0 {
		warmup(ctx, sess, ctrl, cfg)
	}

	results := make([]*workerResult, cfg.Parallelism)

	runCtx := ctx
	if cfg.Duration > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, cfg.Duration)
		defer cancel()
	}

	start := time.Now()

	g := new(errgroup.Group)
	for i := 0; i < cfg.Parallelism; i++ {
		i := i
		res := &workerResult{recorder: observability.NewRecorder(capacityHint(cfg))}
		results[i] = res

		g.Go(func() error {
			if cfg.Duration > 0 {
				runTimed(runCtx, sess, ctrl, cfg.Payload, res)
			} else {
				runCounted(runCtx, sess, ctrl, cfg.Payload, res, workerBudget(cfg.Iterations, cfg.Parallelism, i), cfg.CountBusyAgainstBudget)
			}
			return nil
		})
	}
	g.Wait()

	elapsed := time.Since(start)

	// Single combining step after the join point.
	m := &Measurement{Elapsed: elapsed}
	recorders := make([]*observability.Recorder, 0, len(results))
	for _, res := range results {
		m.Operations += res.ops
		m.Failures += res.failures
		m.BusyFailures += res.busy
		recorders = append(recorders, res.recorder)
	}

	samples := observability.Merge(recorders)
	m.Latency = observability.Summarize(samples)
	if cfg.KeepSamples {
		m.Samples = samples
	}
	m.AllFailed = m.Operations == 0 && m.Failures > 0

	return m, nil
}

// runTimed loops until the deadline passes. The stop check sits between
// iterations: an in-flight write always completes or fails naturally, it is
// never interrupted mid-operation.
func runTimed(ctx context.Context, sess *session.Session, ctrl *contention.Controller, payload []byte, res *workerResult) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		latency, err := ctrl.Write(context.WithoutCancel(ctx), sess, payload)
		if err != nil {
			res.failures++
			if errors.IsBusy(err) {
				res.busy++
				continue
			}
			// Unexpected I/O failure ends this worker's loop; siblings
			// keep running.
			return
		}
		res.ops++
		res.recorder.Record(latency)
	}
}

// runCounted executes exactly budget iteration slots. When busy rejections
// are excluded from the budget, a slot is retried up to
// maxUncountedBusyRetries times before the rejection counts.
func runCounted(ctx context.Context, sess *session.Session, ctrl *contention.Controller, payload []byte, res *workerResult, budget int, countBusy bool) {
	for slot := 0; slot < budget; slot++ {
		retries := 0
	retry:
		select {
		case <-ctx.Done():
			return
		default:
		}

		latency, err := ctrl.Write(context.WithoutCancel(ctx), sess, payload)
		if err != nil {
			if errors.IsBusy(err) {
				if !countBusy && retries < maxUncountedBusyRetries {
					retries++
					goto retry
				}
				res.failures++
				res.busy++
				continue
			}
			res.failures++
			return
		}
		res.ops++
		res.recorder.Record(latency)
	}
}

// warmup runs untimed single-threaded writes to populate the WAL and page
// cache before measurement. Warmup errors are ignored; the measured run will
// surface anything persistent.
func warmup(ctx context.Context, sess *session.Session, ctrl *contention.Controller, cfg RunConfig) {
	for i := 0; i < cfg.WarmupOps; i++ {
		select {
		case <-ctx.Done():
			return
		default:
		}
		ctrl.Write(ctx, sess, cfg.Payload)
	}
}

// workerBudget splits total iterations across workers; the remainder goes to
// the low-indexed workers so the split is deterministic.
func workerBudget(total, parallelism, index int) int {
	budget := total / parallelism
	if index < total%parallelism {
		budget++
	}
	return budget
}

// capacityHint sizes a worker's sample buffer up front to keep allocation
// off the hot path.
func capacityHint(cfg RunConfig) int {
	if cfg.Iterations > 0 {
		return cfg.Iterations/cfg.Parallelism + 1
	}
	return 1024
}
