// Package types defines the shared domain types of the walbench harness.
package types

import (
	"fmt"

	"github.com/r4victor/walbench/internal/config"
)

// Scenario is one configuration point in the benchmark's dimension matrix.
// It is immutable: created during enumeration, never mutated, and discarded
// after its measurement completes.
type Scenario struct {
	// Durability is the SQLite synchronous level under test.
	Durability config.Durability `json:"durability"`

	// PayloadBytes is the size of every written payload.
	PayloadBytes int `json:"payload_bytes"`

	// Parallelism is the number of concurrent logical workers.
	Parallelism int `json:"parallelism"`

	// Serialization is the client-side write ordering strategy.
	Serialization config.Serialization `json:"serialization"`
}

// ID returns a stable, filesystem-safe identifier for the scenario, used to
// name sample dumps and archive objects.
func (s Scenario) ID() string {
	return fmt.Sprintf("%s-p%d-c%d-%s", s.Durability, s.PayloadBytes, s.Parallelism, s.Serialization)
}

// String returns a human-readable description.
func (s Scenario) String() string {
	return fmt.Sprintf("durability=%s payload=%dB parallelism=%d serialization=%s",
		s.Durability, s.PayloadBytes, s.Parallelism, s.Serialization)
}
