// Package metrics exports summary refresh metrics in Prometheus format.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/smileynet/iotdash/internal/summary"
)

// Exporter records refresh outcomes. It implements summary.Observer.
type Exporter struct {
	registry *prometheus.Registry

	refreshes   *prometheus.CounterVec
	latency     prometheus.Histogram
	summaries   prometheus.Gauge
	lastSuccess prometheus.Gauge
}

// New creates an Exporter registered on reg. A nil reg creates a private
// registry.
func New(reg *prometheus.Registry) *Exporter {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	e := &Exporter{
		registry: reg,
		refreshes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "iotdash",
				Subsystem: "summaries",
				Name:      "refreshes_total",
				Help:      "Completed summary refreshes by outcome",
			},
			[]string{"outcome"},
		),
		latency: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "iotdash",
				Subsystem: "summaries",
				Name:      "refresh_duration_seconds",
				Help:      "Summary refresh latency in seconds",
				Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
			},
		),
		summaries: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "iotdash",
				Subsystem: "summaries",
				Name:      "cached",
				Help:      "Number of summaries in the cache",
			},
		),
		lastSuccess: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "iotdash",
				Subsystem: "summaries",
				Name:      "last_update_timestamp_seconds",
				Help:      "Unix time of the last applied refresh",
			},
		),
	}

	reg.MustRegister(e.refreshes, e.latency, e.summaries, e.lastSuccess)
	return e
}

// RefreshDone implements summary.Observer.
func (e *Exporter) RefreshDone(outcome summary.Outcome, count int, elapsed time.Duration) {
	e.refreshes.WithLabelValues(string(outcome)).Inc()
	if outcome == summary.OutcomeCancelled {
		return
	}
	e.latency.Observe(elapsed.Seconds())
	if outcome == summary.OutcomeUpdated {
		e.summaries.Set(float64(count))
		e.lastSuccess.SetToCurrentTime()
	}
}

// Handler serves the registry in the Prometheus text format.
func (e *Exporter) Handler() http.Handler {
	return promhttp.HandlerFor(e.registry, promhttp.HandlerOpts{})
}

// Serve listens on addr and serves /metrics until ctx is done.
func (e *Exporter) Serve(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("metrics: listen %s: %w", addr, err)
	}
	return e.serve(ctx, ln)
}

func (e *Exporter) serve(ctx context.Context, ln net.Listener) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", e.Handler())
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("metrics: shutdown: %w", err)
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("metrics: serve: %w", err)
	}
}
