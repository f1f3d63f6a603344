// Package metrics provides Prometheus metrics for quilldb.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds every Prometheus collector quilldb exposes.
type Metrics struct {
	CommitsTotal       *prometheus.CounterVec
	CommitDuration     prometheus.Histogram
	StatementsTotal    *prometheus.CounterVec
	StatementDuration  *prometheus.HistogramVec

	ReadersActive     prometheus.Gauge
	DBVersion         prometheus.Gauge
	PagesUsed         prometheus.Gauge
	FreelistEntries   prometheus.Gauge

	PagesAllocatedTotal prometheus.Counter
	PagesReclaimedTotal prometheus.Counter
}

// New creates and registers quilldb's Prometheus collectors.
func New() *Metrics {
	m := &Metrics{}

	m.CommitsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quilldb_commits_total",
			Help: "Total number of writer transaction commits",
		},
		[]string{"status"},
	)

	m.CommitDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "quilldb_commit_duration_seconds",
			Help:    "Duration of the three-phase commit barrier",
			Buckets: []float64{.0001, .0005, .001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
	)

	m.StatementsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quilldb_statements_total",
			Help: "Total number of executed SQL statements",
		},
		[]string{"kind", "status"},
	)

	m.StatementDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "quilldb_statement_duration_seconds",
			Help:    "Duration of SQL statement execution",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"kind"},
	)

	m.ReadersActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "quilldb_readers_active",
			Help: "Number of currently open reader snapshots",
		},
	)

	m.DBVersion = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "quilldb_version",
			Help: "Current committed version counter",
		},
	)

	m.PagesUsed = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "quilldb_pages_used",
			Help: "Total pages in use by the mapped region",
		},
	)

	m.FreelistEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "quilldb_freelist_entries",
			Help: "Number of reclaimable entries in the free list",
		},
	)

	m.PagesAllocatedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "quilldb_pages_allocated_total",
			Help: "Total pages allocated, from the free list or by appending",
		},
	)

	m.PagesReclaimedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "quilldb_pages_reclaimed_total",
			Help: "Total pages folded into the free list at commit",
		},
	)

	return m
}

// RecordCommit records the outcome and latency of one commit attempt.
func (m *Metrics) RecordCommit(status string, duration time.Duration) {
	m.CommitsTotal.WithLabelValues(status).Inc()
	if status == "ok" {
		m.CommitDuration.Observe(duration.Seconds())
	}
}

// RecordStatement records the outcome and latency of one executed statement.
func (m *Metrics) RecordStatement(kind, status string, duration time.Duration) {
	m.StatementsTotal.WithLabelValues(kind, status).Inc()
	m.StatementDuration.WithLabelValues(kind).Observe(duration.Seconds())
}
