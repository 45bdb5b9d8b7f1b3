package report

import (
	"encoding/binary"
	"os"
	"path/filepath"

	"github.com/golang/snappy"

	"github.com/r4victor/walbench/internal/errors"
)

// Raw latency dumps can run to millions of samples per scenario; they are
// stored snappy-compressed as little-endian int64 nanosecond values.

// DumpSamples writes each entry's retained latency samples to
// dir/<scenario-id>.samples.sz and returns the written paths. Entries
// without samples are skipped.
func DumpSamples(dir string, r *Report) ([]string, error) {
	var paths []string
	for _, e := range r.Entries {
		if e.Measurement == nil || len(e.Measurement.Samples) == 0 {
			continue
		}

		raw := make([]byte, 8*len(e.Measurement.Samples))
		for i, s := range e.Measurement.Samples {
			binary.LittleEndian.PutUint64(raw[i*8:], uint64(s.Nanoseconds()))
		}

		path := filepath.Join(dir, e.Scenario.ID()+".samples.sz")
		if err := os.WriteFile(path, snappy.Encode(nil, raw), 0644); err != nil {
			return paths, errors.NewReportError(errors.CodeWriteFailed, "failed to write sample dump", err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// ReadSampleDump decodes a sample dump back into nanosecond values.
func ReadSampleDump(path string) ([]int64, error) {
	compressed, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.NewReportError(errors.CodeWriteFailed, "failed to read sample dump", err)
	}
	raw, err := snappy.Decode(nil, compressed)
	if err != nil {
		return nil, errors.NewReportError(errors.CodeEncodeFailed, "failed to decompress sample dump", err)
	}

	samples := make([]int64, len(raw)/8)
	for i := range samples {
		samples[i] = int64(binary.LittleEndian.Uint64(raw[i*8:]))
	}
	return samples, nil
}
