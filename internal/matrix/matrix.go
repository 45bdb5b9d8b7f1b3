// Package matrix enumerates the benchmark's scenario space and runs each
// scenario strictly sequentially, recording results into a report.
package matrix

import (
	"github.com/r4victor/walbench/internal/config"
	"github.com/r4victor/walbench/pkg/types"
)

// Enumerate computes the Cartesian product of the configured dimension sets.
// The nesting order is fixed (durability, payload size, parallelism,
// serialization), so two invocations with the same dimensions produce the
// same scenarios in the same order regardless of timing.
func Enumerate(b config.BenchConfig) []types.Scenario {
	scenarios := make([]types.Scenario, 0,
		len(b.Durabilities)*len(b.PayloadSizes)*len(b.ParallelismLevels)*len(b.Serializations))

	for _, durability := range b.Durabilities {
		for _, payload := range b.PayloadSizes {
			for _, parallelism := range b.ParallelismLevels {
				for _, serialization := range b.Serializations {
					scenarios = append(scenarios, types.Scenario{
						Durability:    durability,
						PayloadBytes:  payload,
						Parallelism:   parallelism,
						Serialization: serialization,
					})
				}
			}
		}
	}
	return scenarios
}
