// Package metrics exposes Prometheus instruments for chain execution.
package metrics

import (
	"io"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
)

var (
	initOnce sync.Once

	stepsTotalCounter           *prometheus.CounterVec
	stepExecutionDurationMetric prometheus.Histogram
	runsTotalCounter            *prometheus.CounterVec
)

// Init registers metrics on the default Prometheus registry exactly once.
func Init() {
	initOnce.Do(func() {
		stepsTotalCounter = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mcpchain_steps_total",
				Help: "Total number of chain steps reaching a terminal status.",
			},
			[]string{"status"},
		)

		stepExecutionDurationMetric = prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "mcpchain_step_duration_seconds",
				Help:    "Duration of chain steps in seconds.",
				Buckets: prometheus.DefBuckets,
			},
		)

		runsTotalCounter = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mcpchain_runs_total",
				Help: "Total number of finished chain runs by outcome.",
			},
			[]string{"outcome"},
		)

		prometheus.MustRegister(
			stepsTotalCounter,
			stepExecutionDurationMetric,
			runsTotalCounter,
		)

		// Ensure label values are visible before the first increment.
		for _, status := range []string{"completed", "failed"} {
			stepsTotalCounter.WithLabelValues(status)
		}
		for _, outcome := range []string{"success", "partial"} {
			runsTotalCounter.WithLabelValues(outcome)
		}
	})
}

func IncStepStatus(status string) {
	Init()
	stepsTotalCounter.WithLabelValues(status).Inc()
}

func ObserveStepDuration(d time.Duration) {
	Init()
	stepExecutionDurationMetric.Observe(d.Seconds())
}

func IncRunOutcome(outcome string) {
	Init()
	runsTotalCounter.WithLabelValues(outcome).Inc()
}

// WriteText writes the mcpchain metric families in Prometheus text format.
func WriteText(w io.Writer) error {
	Init()

	families, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		return err
	}
	for _, mf := range families {
		if !strings.HasPrefix(mf.GetName(), "mcpchain_") {
			continue
		}
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return err
		}
	}
	return nil
}
