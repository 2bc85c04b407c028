// Package metrics provides the Prometheus metrics of the valuation pipeline.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// Ingestion outcomes used as the outcome label.
const (
	OutcomeCleaned   = "cleaned"
	OutcomeDuplicate = "duplicate"
	OutcomeError     = "error"
)

// ValuationMetrics contains all Prometheus metrics of the pipeline. A nil
// *ValuationMetrics is valid and records nothing.
type ValuationMetrics struct {
	IngestedRecords    *prometheus.CounterVec
	ComparableSearches prometheus.Counter
	Overrides          prometheus.Counter
	Valuations         *prometheus.CounterVec
	SearchDuration     prometheus.Histogram
}

// NewValuationMetrics creates the metrics and registers them with registry.
func NewValuationMetrics(registry prometheus.Registerer) (*ValuationMetrics, error) {
	m := &ValuationMetrics{
		IngestedRecords: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "valuation_ingested_records_total",
			Help: "Total number of ingested records by kind and outcome.",
		}, []string{"kind", "outcome"}),
		ComparableSearches: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "valuation_comparable_searches_total",
			Help: "Total number of comparable searches.",
		}),
		Overrides: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "valuation_overrides_total",
			Help: "Total number of manual adjustment overrides.",
		}),
		Valuations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "valuation_valuations_total",
			Help: "Total number of computed valuations by strategy.",
		}, []string{"strategy"}),
		SearchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "valuation_search_duration_seconds",
			Help:    "Duration of comparable searches in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12),
		}),
	}

	for _, c := range []prometheus.Collector{
		m.IngestedRecords, m.ComparableSearches, m.Overrides, m.Valuations, m.SearchDuration,
	} {
		if err := registry.Register(c); err != nil {
			return nil, fmt.Errorf("failed to register valuation metrics: %w", err)
		}
	}
	return m, nil
}

// RecordIngestion adds the per-outcome counts of one kind.
func (m *ValuationMetrics) RecordIngestion(kind string, cleaned, duplicates, errors int) {
	if m == nil {
		return
	}
	m.IngestedRecords.WithLabelValues(kind, OutcomeCleaned).Add(float64(cleaned))
	m.IngestedRecords.WithLabelValues(kind, OutcomeDuplicate).Add(float64(duplicates))
	m.IngestedRecords.WithLabelValues(kind, OutcomeError).Add(float64(errors))
}

// ObserveSearch counts one comparable search and records its duration.
func (m *ValuationMetrics) ObserveSearch(durationSeconds float64) {
	if m == nil {
		return
	}
	m.ComparableSearches.Inc()
	m.SearchDuration.Observe(durationSeconds)
}

// IncrementOverrides increases the override counter by one.
func (m *ValuationMetrics) IncrementOverrides() {
	if m == nil {
		return
	}
	m.Overrides.Inc()
}

// IncrementValuations counts one valuation with strategy.
func (m *ValuationMetrics) IncrementValuations(strategy string) {
	if m == nil {
		return
	}
	m.Valuations.WithLabelValues(strategy).Inc()
}
