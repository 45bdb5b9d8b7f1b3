// Package observability provides latency accumulation and summary statistics
// for benchmark measurements.
package observability

import (
	"sort"
	"time"
)

// Recorder accumulates latency samples for a single worker. It is
// deliberately unsynchronized: each worker owns one recorder and the driver
// merges them in a single step after all workers have joined, so no sample
// is ever written and read concurrently.
type Recorder struct {
	samples []time.Duration
}

// NewRecorder creates a recorder with capacity hint n.
func NewRecorder(n int) *Recorder {
	if n < 0 {
		n = 0
	}
	return &Recorder{samples: make([]time.Duration, 0, n)}
}

// Record appends one latency sample.
func (r *Recorder) Record(d time.Duration) {
	r.samples = append(r.samples, d)
}

// Count returns the number of recorded samples.
func (r *Recorder) Count() int {
	return len(r.samples)
}

// Merge combines per-worker recorders into one sample slice.
func Merge(recorders []*Recorder) []time.Duration {
	total := 0
	for _, r := range recorders {
		total += len(r.samples)
	}
	merged := make([]time.Duration, 0, total)
	for _, r := range recorders {
		merged = append(merged, r.samples...)
	}
	return merged
}

// Summary holds aggregate latency statistics for one measurement.
type Summary struct {
	Count int64         `json:"count"`
	Min   time.Duration `json:"min_ns"`
	Max   time.Duration `json:"max_ns"`
	Mean  time.Duration `json:"mean_ns"`
	P50   time.Duration `json:"p50_ns"`
	P95   time.Duration `json:"p95_ns"`
	P99   time.Duration `json:"p99_ns"`
}

// Summarize computes aggregate statistics over the samples. The slice is
// sorted in place.
func Summarize(samples []time.Duration) Summary {
	if len(samples) == 0 {
		return Summary{}
	}

	sort.Slice(samples, func(i, j int) bool { return samples[i] < samples[j] })

	var sum time.Duration
	for _, s := range samples {
		sum += s
	}

	return Summary{
		Count: int64(len(samples)),
		Min:   samples[0],
		Max:   samples[len(samples)-1],
		Mean:  sum / time.Duration(len(samples)),
		P50:   percentile(samples, 0.50),
		P95:   percentile(samples, 0.95),
		P99:   percentile(samples, 0.99),
	}
}

// percentile returns the nearest-rank percentile of sorted samples.
func percentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(p * float64(len(sorted)))
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}
