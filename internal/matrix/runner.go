package matrix

import (
	"context"
	"log"

	"github.com/spaolacci/murmur3"

	"github.com/r4victor/walbench/internal/config"
	"github.com/r4victor/walbench/internal/contention"
	"github.com/r4victor/walbench/internal/driver"
	"github.com/r4victor/walbench/internal/report"
	"github.com/r4victor/walbench/internal/session"
	"github.com/r4victor/walbench/internal/workload"
	"github.com/r4victor/walbench/pkg/types"
)

// State tracks a scenario through its lifecycle. Every scenario passes
// through SessionOpen on the way to Recorded; Closed is reached even on
// Aborted via a no-op close.
type State string

const (
	StatePending     State = "pending"
	StateSessionOpen State = "session-open"
	StateMeasuring   State = "measuring"
	StateRecorded    State = "recorded"
	StateAborted     State = "aborted"
	StateClosed      State = "closed"
)

// Runner executes the scenario matrix. Scenarios run strictly one after
// another: all of a scenario's workers are joined and its session closed
// before the next scenario's session is opened, so measurements never
// interfere.
type Runner struct {
	cfg *config.Config

	// token is the single process-wide serialization primitive shared by
	// every scenario that selects the mutex strategy.
	token *contention.Token

	// states records the terminal state of each completed scenario, in
	// enumeration order.
	states []State
}

// NewRunner creates a runner for the given validated configuration.
func NewRunner(cfg *config.Config) *Runner {
	return &Runner{
		cfg:   cfg,
		token: contention.NewToken(),
	}
}

// RunAll runs every enumerated scenario and returns the report. A canceled
// context stops the matrix between scenarios: the in-flight scenario drains
// normally and the report covers everything completed so far.
func (r *Runner) RunAll(ctx context.Context) *report.Report {
	scenarios := Enumerate(r.cfg.Bench)
	rep := report.New()
	r.states = make([]State, 0, len(scenarios))

	log.Printf("running %d scenarios", len(scenarios))
	for i, sc := range scenarios {
		select {
		case <-ctx.Done():
			log.Printf("run canceled after %d/%d scenarios", i, len(scenarios))
			rep.Finish()
			return rep
		default:
		}

		log.Printf("scenario %d/%d: %s", i+1, len(scenarios), sc)
		r.states = append(r.states, r.runScenario(ctx, sc, rep))
	}

	rep.Finish()
	return rep
}

// States returns the terminal state of each completed scenario.
func (r *Runner) States() []State {
	return r.states
}

// runScenario drives one scenario through the state machine
// Pending -> SessionOpen -> Measuring -> Recorded | Aborted -> Closed
// and returns the state reached before the close (Recorded or Aborted).
func (r *Runner) runScenario(ctx context.Context, sc types.Scenario, rep *report.Report) State {
	sess, err := session.Open(r.cfg.SessionDir(), session.Options{
		Durability:  sc.Durability,
		BusyTimeout: r.cfg.Bench.BusyTimeout,
	})
	if err != nil {
		// Aborted still passes through Closed; with no session to release
		// the close is a no-op.
		log.Printf("scenario aborted: %v", err)
		rep.AppendAborted(sc, err)
		return StateAborted
	}

	// The session is closed only after driver.Run has joined every worker,
	// so no write can observe a closed session.
	defer func() {
		if cerr := sess.Close(); cerr != nil {
			log.Printf("session close: %v", cerr)
		}
	}()

	ctrl := contention.NewController(sc.Serialization, r.token)
	payload := workload.NewPayload(sc.PayloadBytes, payloadSeed(sc))

	m, err := driver.Run(ctx, sess, ctrl, driver.RunConfig{
		Parallelism:            sc.Parallelism,
		Payload:                payload,
		Duration:               r.cfg.Bench.Duration,
		Iterations:             r.cfg.Bench.Iterations,
		WarmupOps:              r.cfg.Bench.WarmupOps,
		CountBusyAgainstBudget: r.cfg.Bench.CountBusyAgainstBudget,
		KeepSamples:            r.cfg.Bench.KeepSamples,
	})
	if err != nil {
		log.Printf("scenario aborted: %v", err)
		rep.AppendAborted(sc, err)
		return StateAborted
	}

	rep.AppendMeasurement(sc, m)
	return StateRecorded
}

// payloadSeed derives a deterministic payload seed from the scenario, so the
// same scenario writes the same bytes across runs while distinct scenarios
// do not share content.
func payloadSeed(sc types.Scenario) uint64 {
	return murmur3.Sum64([]byte(sc.ID()))
}
