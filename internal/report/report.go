// Package report accumulates per-scenario measurements into an ordered,
// append-only report and renders it for consumption.
package report

import (
	"time"

	"github.com/r4victor/walbench/internal/driver"
	"github.com/r4victor/walbench/pkg/types"
)

// Status marks how a scenario's measurement concluded, so consumers can tell
// "contention occurred as expected" from "the benchmark itself broke".
type Status string

const (
	// StatusOK: every operation succeeded.
	StatusOK Status = "ok"
	// StatusPartialFailures: some operations failed (busy or I/O) but at
	// least one succeeded.
	StatusPartialFailures Status = "partial-failures"
	// StatusFailed: every worker failed; no operation succeeded.
	StatusFailed Status = "failed"
	// StatusAborted: the scenario's session could not be opened.
	StatusAborted Status = "aborted"
)

// Entry is one (Scenario, Measurement) pair.
type Entry struct {
	Scenario      types.Scenario      `json:"scenario"`
	Status        Status              `json:"status"`
	Measurement   *driver.Measurement `json:"measurement,omitempty"`
	ThroughputOPS float64             `json:"throughput_ops_per_sec"`
	Error         string              `json:"error,omitempty"`
}

// Report is the ordered sequence of scenario results for one benchmark
// invocation. Entries appear in enumeration order; the report is owned by
// the matrix runner and never written concurrently.
type Report struct {
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Entries    []Entry   `json:"entries"`
}

// New creates an empty report stamped with the current time.
func New() *Report {
	return &Report{StartedAt: time.Now().UTC()}
}

// AppendMeasurement records a completed measurement for the scenario.
func (r *Report) AppendMeasurement(sc types.Scenario, m *driver.Measurement) {
	status := StatusOK
	switch {
	case m.AllFailed:
		status = StatusFailed
	case m.Failures > 0:
		status = StatusPartialFailures
	}
	r.Entries = append(r.Entries, Entry{
		Scenario:      sc,
		Status:        status,
		Measurement:   m,
		ThroughputOPS: m.Throughput(),
	})
}

// AppendAborted records a scenario whose session could not be opened.
func (r *Report) AppendAborted(sc types.Scenario, err error) {
	r.Entries = append(r.Entries, Entry{
		Scenario: sc,
		Status:   StatusAborted,
		Error:    err.Error(),
	})
}

// Finish stamps the completion time.
func (r *Report) Finish() {
	r.FinishedAt = time.Now().UTC()
}

// AnyAborted reports whether any scenario failed to reach a measurement.
func (r *Report) AnyAborted() bool {
	for _, e := range r.Entries {
		if e.Status == StatusAborted {
			return true
		}
	}
	return false
}
