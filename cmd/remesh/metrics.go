package main

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
)

// printMetrics writes the registered metric families under namespace as
// plain text, one sample per line.
func printMetrics(w io.Writer, namespace string) error {
	families, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}
	prefix := namespace + "_"

	var lines []string
	for _, mf := range families {
		if !strings.HasPrefix(mf.GetName(), prefix) {
			continue
		}
		for _, m := range mf.GetMetric() {
			var labels []string
			for _, lp := range m.GetLabel() {
				labels = append(labels, lp.GetName()+"="+lp.GetValue())
			}
			name := mf.GetName()
			if len(labels) > 0 {
				name += "{" + strings.Join(labels, ",") + "}"
			}

			switch {
			case m.GetCounter() != nil:
				lines = append(lines, fmt.Sprintf("  %-60s %g", name, m.GetCounter().GetValue()))
			case m.GetGauge() != nil:
				lines = append(lines, fmt.Sprintf("  %-60s %g", name, m.GetGauge().GetValue()))
			case m.GetHistogram() != nil:
				h := m.GetHistogram()
				mean := 0.0
				if n := h.GetSampleCount(); n > 0 {
					mean = h.GetSampleSum() / float64(n)
				}
				lines = append(lines, fmt.Sprintf("  %-60s count=%d mean=%.6fs", name, h.GetSampleCount(), mean))
			}
		}
	}
	sort.Strings(lines)

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Metrics:")
	for _, l := range lines {
		fmt.Fprintln(w, l)
	}
	return nil
}
