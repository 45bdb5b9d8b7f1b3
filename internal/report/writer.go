package report

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/goccy/go-json"

	"github.com/r4victor/walbench/internal/errors"
)

// WriteJSON renders the report as indented JSON.
func WriteJSON(w io.Writer, r *Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return errors.NewReportError(errors.CodeEncodeFailed, "failed to encode report", err)
	}
	return nil
}

// WriteText renders the report as an aligned table.
func WriteText(w io.Writer, r *Report) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	fmt.Fprintf(tw, "DURABILITY\tPAYLOAD\tPARALLELISM\tSERIALIZATION\tOPS\tELAPSED\tOPS/SEC\tFAILURES\tBUSY\tP95\tSTATUS\n")
	for _, e := range r.Entries {
		if e.Status == StatusAborted {
			fmt.Fprintf(tw, "%s\t%d\t%d\t%s\t-\t-\t-\t-\t-\t-\t%s\n",
				e.Scenario.Durability, e.Scenario.PayloadBytes, e.Scenario.Parallelism,
				e.Scenario.Serialization, e.Status)
			continue
		}
		m := e.Measurement
		fmt.Fprintf(tw, "%s\t%d\t%d\t%s\t%d\t%s\t%.1f\t%d\t%d\t%s\t%s\n",
			e.Scenario.Durability, e.Scenario.PayloadBytes, e.Scenario.Parallelism,
			e.Scenario.Serialization, m.Operations, m.Elapsed.Round(time.Millisecond),
			e.ThroughputOPS, m.Failures, m.BusyFailures, m.Latency.P95, e.Status)
	}

	if err := tw.Flush(); err != nil {
		return errors.NewReportError(errors.CodeWriteFailed, "failed to write report table", err)
	}
	return nil
}

// Write renders the report to path in the given format. Path "-" or empty
// means stdout.
func Write(path, format string, r *Report) error {
	var w io.Writer = os.Stdout
	if path != "" && path != "-" {
		f, err := os.Create(path)
		if err != nil {
			return errors.NewReportError(errors.CodeWriteFailed, "failed to create report file", err)
		}
		defer f.Close()
		w = f
	}

	if format == "json" {
		return WriteJSON(w, r)
	}
	return WriteText(w, r)
}
