// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package metrics defines the Prometheus collectors for harvest runs. Each
// Metrics owns its registry so concurrent runs and tests do not collide.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/pdiddy/docharvest/pkg/types"
)

// Metrics holds all collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	Registry *prometheus.Registry

	FetchesTotal      *prometheus.CounterVec
	FetchDuration     prometheus.Histogram
	RepairsTotal      *prometheus.CounterVec
	DocumentsTotal    *prometheus.CounterVec
	HighlightsTotal   prometheus.Counter
	ItemFailuresTotal prometheus.Counter
}

// New creates and registers all collectors.
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		FetchesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "docharvest_fetches_total",
				Help: "Fetch attempts by result (ok, transport_error, format_mismatch).",
			},
			[]string{"result"},
		),
		FetchDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "docharvest_fetch_duration_seconds",
				Help:    "Time to fetch one document.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			},
		),
		RepairsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "docharvest_repairs_total",
				Help: "Repair attempts by result (ok, failed).",
			},
			[]string{"result"},
		),
		DocumentsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "docharvest_documents_total",
				Help: "Documents by terminal state and failure kind.",
			},
			[]string{"state", "kind"},
		),
		HighlightsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "docharvest_highlights_total",
				Help: "Highlight annotations added.",
			},
		),
		ItemFailuresTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "docharvest_annotation_item_failures_total",
				Help: "Per-page or per-term annotation failures that did not stop a document.",
			},
		),
	}
	m.Registry.MustRegister(
		m.FetchesTotal,
		m.FetchDuration,
		m.RepairsTotal,
		m.DocumentsTotal,
		m.HighlightsTotal,
		m.ItemFailuresTotal,
	)
	return m
}

// ObserveFetch records one fetch attempt.
func (m *Metrics) ObserveFetch(d time.Duration, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = string(types.KindOf(err))
		if result == "" {
			result = string(types.KindTransport)
		}
	}
	m.FetchesTotal.WithLabelValues(result).Inc()
	m.FetchDuration.Observe(d.Seconds())
}

// ObserveRepair records one repair attempt.
func (m *Metrics) ObserveRepair(err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "failed"
	}
	m.RepairsTotal.WithLabelValues(result).Inc()
}

// ObserveOutcome records a document's terminal state.
func (m *Metrics) ObserveOutcome(o types.Outcome) {
	if m == nil {
		return
	}
	m.DocumentsTotal.WithLabelValues(string(o.State), string(o.Kind)).Inc()
	if o.Report != nil {
		m.HighlightsTotal.Add(float64(o.Report.Highlights))
		m.ItemFailuresTotal.Add(float64(len(o.Report.ItemFailures)))
	}
}

// WriteTextfile writes all metrics in the text exposition format, for the
// node exporter textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.Registry)
}
