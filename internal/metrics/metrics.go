// Package metrics exposes the prometheus endpoint and the harness
// instrumentation.
package metrics

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	Endpoint          = "0.0.0.0:9090"
	ReadHeaderTimeout = 2 * time.Second
)

var (
	// StepRunTime tracks how long each harness step takes.
	StepRunTime = promauto.NewSummaryVec(
		prometheus.SummaryOpts{
			Name: "hwqa_step_run_seconds",
			Help: "seconds spent running a harness step",
		},
		[]string{"step", "state"},
	)

	// CheckStatus counts run verdicts per check category.
	CheckStatus = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hwqa_check_status_total",
			Help: "count of check verdicts by category and status",
		},
		[]string{"category", "status"},
	)
)

// ListenAndServe serves the prometheus metrics endpoint.
func ListenAndServe() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	go func() {
		server := &http.Server{
			Addr:              Endpoint,
			Handler:           mux,
			ReadHeaderTimeout: ReadHeaderTimeout,
		}

		if err := server.ListenAndServe(); err != nil {
			slog.Error("Failed to start metrics server", "error", err)
		}
	}()
}

// ObserveStepRunTime records the duration of one step run.
func ObserveStepRunTime(step, state string, start time.Time) {
	StepRunTime.WithLabelValues(step, state).Observe(time.Since(start).Seconds())
}
