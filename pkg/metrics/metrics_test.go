package metrics

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestQuotationMetricsExportsCountersAndHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewQuotationMetrics(reg)
	metrics.IncSave(SaveOutcomeCreated)
	metrics.IncSave(SaveOutcomeCreated)
	metrics.IncSave(SaveOutcomeFailed)
	metrics.ObserveExport("pdf", 250*time.Millisecond)
	metrics.IncSearch(SearchResultSuperseded)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got, err := fetchCounterValue(mfs, "quotation_saves_total", "outcome", SaveOutcomeCreated); err != nil {
		t.Fatalf("fetch saves: %v", err)
	} else if got != 2 {
		t.Fatalf("expected created=2, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "quotation_saves_total", "outcome", SaveOutcomeFailed); err != nil {
		t.Fatalf("fetch failed saves: %v", err)
	} else if got != 1 {
		t.Fatalf("expected failed=1, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "quotation_exports_total", "format", "pdf"); err != nil {
		t.Fatalf("fetch exports: %v", err)
	} else if got != 1 {
		t.Fatalf("expected pdf exports=1, got %f", got)
	}

	if got, err := fetchHistogramSum(mfs, "quotation_export_duration_seconds", "format", "pdf"); err != nil {
		t.Fatalf("fetch export duration: %v", err)
	} else if got <= 0 {
		t.Fatalf("expected duration sum > 0, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "product_search_total", "result", SearchResultSuperseded); err != nil {
		t.Fatalf("fetch searches: %v", err)
	} else if got != 1 {
		t.Fatalf("expected superseded=1, got %f", got)
	}
}

func TestHTTPMetricsObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewHTTPMetrics(reg)
	metrics.Observe(http.MethodGet, "/api/v1/quotations/{id}", http.StatusOK, 10*time.Millisecond)
	metrics.Observe(http.MethodGet, "", http.StatusNotFound, time.Millisecond)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	if got, err := fetchCounterValue(mfs, "http_requests_total", "route", "/api/v1/quotations/{id}"); err != nil {
		t.Fatalf("fetch requests: %v", err)
	} else if got != 1 {
		t.Fatalf("expected 1 request, got %f", got)
	}
	if _, err := fetchCounterValue(mfs, "http_requests_total", "route", "unknown"); err != nil {
		t.Fatalf("expected empty route to be labelled unknown: %v", err)
	}
}

func TestNilMetricsAreSafe(t *testing.T) {
	var q *QuotationMetrics
	q.IncSave(SaveOutcomeUpdated)
	q.ObserveExport("html", time.Millisecond)
	q.IncSearch(SearchResultServed)

	NewQuotationMetrics(nil).IncSave(SaveOutcomeUpdated)

	var h *HTTPMetrics
	h.Observe(http.MethodGet, "/", http.StatusOK, time.Millisecond)
}

func fetchCounterValue(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetCounter().GetValue(), nil
		}
	}
	return 0, fmt.Errorf("metric %q missing label %s=%s", name, label, value)
}

func fetchHistogramSum(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetHistogram().GetSampleSum(), nil
		}
	}
	return 0, fmt.Errorf("histogram %q missing label %s=%s", name, label, value)
}

func findMetricFamily(mfs []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func matchesLabel(labels []*dto.LabelPair, name, value string) bool {
	for _, label := range labels {
		if label.GetName() == name && label.GetValue() == value {
			return true
		}
	}
	return false
}
