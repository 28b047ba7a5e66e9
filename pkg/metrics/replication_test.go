package metrics

import (
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestReplicationMetricsExportsCountersAndHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewReplicationMetrics(reg)
	metrics.ObserveDuration("create", 250*time.Millisecond)
	metrics.IncProduct("create", "success")
	metrics.IncProduct("update", "failure")
	metrics.IncMediaCopy("reused")
	metrics.IncBulkBatch()

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got, err := fetchCounterValue(mfs, "replication_products_total", "action", "create"); err != nil {
		t.Fatalf("fetch create counter: %v", err)
	} else if got != 1 {
		t.Fatalf("expected create=1, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "replication_media_copies_total", "outcome", "reused"); err != nil {
		t.Fatalf("fetch media counter: %v", err)
	} else if got != 1 {
		t.Fatalf("expected reused=1, got %f", got)
	}

	if got, err := fetchHistogramSum(mfs, "replication_duration_seconds", "action", "create"); err != nil {
		t.Fatalf("fetch duration: %v", err)
	} else if got <= 0 {
		t.Fatalf("expected duration sum > 0, got %f", got)
	}
}

func TestNilRecorderIsSafe(t *testing.T) {
	var metrics *ReplicationMetrics
	metrics.ObserveDuration("create", time.Second)
	metrics.IncProduct("create", "success")
	metrics.IncMediaCopy("copied")
	metrics.IncBulkBatch()
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
