package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	SaveOutcomeCreated = "created"
	SaveOutcomeUpdated = "updated"
	SaveOutcomeFailed  = "failed"

	SearchResultServed     = "served"
	SearchResultCacheHit   = "cache_hit"
	SearchResultSuperseded = "superseded"
	SearchResultError      = "error"
)

// QuotationMetrics records editor save, export and product search activity.
type QuotationMetrics struct {
	saves          *prometheus.CounterVec
	exports        *prometheus.CounterVec
	exportDuration *prometheus.HistogramVec
	searches       *prometheus.CounterVec
}

// NewQuotationMetrics registers the quotation metrics on the provided registerer.
func NewQuotationMetrics(reg prometheus.Registerer) *QuotationMetrics {
	if reg == nil {
		return &QuotationMetrics{}
	}
	saves := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "quotation_saves_total",
		Help: "Quotation saves by outcome.",
	}, []string{"outcome"})
	exports := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "quotation_exports_total",
		Help: "Rendered quotation exports by format.",
	}, []string{"format"})
	exportDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "quotation_export_duration_seconds",
		Help:    "Time spent rendering quotation exports.",
		Buckets: prometheus.DefBuckets,
	}, []string{"format"})
	searches := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "product_search_total",
		Help: "Debounced product lookups by result.",
	}, []string{"result"})
	reg.MustRegister(saves, exports, exportDuration, searches)
	return &QuotationMetrics{
		saves:          saves,
		exports:        exports,
		exportDuration: exportDuration,
		searches:       searches,
	}
}

// IncSave counts a save attempt with the given outcome.
func (m *QuotationMetrics) IncSave(outcome string) {
	if m == nil || m.saves == nil {
		return
	}
	m.saves.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// ObserveExport counts an export and records its render time.
func (m *QuotationMetrics) ObserveExport(format string, duration time.Duration) {
	if m == nil || m.exports == nil {
		return
	}
	label := normalizeLabel(format)
	m.exports.WithLabelValues(label).Inc()
	m.exportDuration.WithLabelValues(label).Observe(duration.Seconds())
}

// IncSearch counts a product lookup by result.
func (m *QuotationMetrics) IncSearch(result string) {
	if m == nil || m.searches == nil {
		return
	}
	m.searches.WithLabelValues(normalizeLabel(result)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
