// Package metrics exposes Prometheus collectors for import runs.
package metrics

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/client_golang/prometheus/push"
)

const namespace = "fpl_stats"

// Run outcomes recorded by RunFinished.
const (
	StatusSuccess = "success"
	StatusFailure = "failure"
)

// Metrics owns a private registry so tests and multiple importers never
// collide on the global default registerer.
type Metrics struct {
	registry *prometheus.Registry

	rowsInserted     prometheus.Counter
	playersImported  prometheus.Counter
	runs             *prometheus.CounterVec
	upstreamDuration *prometheus.HistogramVec
	lastSuccess      prometheus.Gauge
}

// New registers the import collectors plus the Go runtime collector.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		rowsInserted: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_inserted_total",
			Help:      "Gameweek stat rows committed to storage.",
		}),
		playersImported: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "players_imported_total",
			Help:      "Players whose history batch was committed.",
		}),
		runs: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "import_runs_total",
			Help:      "Completed import runs by outcome.",
		}, []string{"status"}),
		upstreamDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upstream_request_duration_seconds",
			Help:      "FPL API request latency by endpoint and outcome.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"endpoint", "outcome"}),
		lastSuccess: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last fully successful import run.",
		}),
	}
}

// ObserveUpstream matches the fpl.Client Observe hook.
func (m *Metrics) ObserveUpstream(endpoint string, took time.Duration, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.upstreamDuration.WithLabelValues(endpoint, outcome).Observe(took.Seconds())
}

// PlayerCommitted records one committed per-player batch.
func (m *Metrics) PlayerCommitted(rows int) {
	m.playersImported.Inc()
	m.rowsInserted.Add(float64(rows))
}

func (m *Metrics) RunFinished(status string, at time.Time) {
	m.runs.WithLabelValues(status).Inc()
	if status == StatusSuccess {
		m.lastSuccess.Set(float64(at.Unix()))
	}
}

func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Push sends the current values to a Pushgateway under the given job name.
// Batch runs exit before any scrape could happen, so this is how they report.
func (m *Metrics) Push(ctx context.Context, url, job string) error {
	if err := push.New(url, job).Gatherer(m.registry).PushContext(ctx); err != nil {
		return fmt.Errorf("push metrics to %s: %w", url, err)
	}
	return nil
}
