package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordLoad(t *testing.T) {
	successBefore := testutil.ToFloat64(DatasetLoads.WithLabelValues("success"))
	failureBefore := testutil.ToFloat64(DatasetLoads.WithLabelValues("failure"))

	RecordLoad(10*time.Millisecond, LoadCounts{Read: 10, Retained: 7, BelowThreshold: 3, UnusableIDs: 1}, nil)

	if got := testutil.ToFloat64(DatasetLoads.WithLabelValues("success")); got != successBefore+1 {
		t.Errorf("success loads = %v, want %v", got, successBefore+1)
	}
	if got := testutil.ToFloat64(DatasetRecords); got != 7 {
		t.Errorf("dataset_records = %v, want 7", got)
	}
	if got := testutil.ToFloat64(DatasetLastLoadRows.WithLabelValues("below_threshold")); got != 3 {
		t.Errorf("below_threshold = %v, want 3", got)
	}

	RecordLoad(time.Millisecond, LoadCounts{Retained: 99}, errors.New("source unavailable"))

	if got := testutil.ToFloat64(DatasetLoads.WithLabelValues("failure")); got != failureBefore+1 {
		t.Errorf("failure loads = %v, want %v", got, failureBefore+1)
	}
	if got := testutil.ToFloat64(DatasetRecords); got != 7 {
		t.Errorf("dataset_records after failure = %v, want 7 (unchanged)", got)
	}
}

func TestRecordFilter(t *testing.T) {
	hits := testutil.ToFloat64(FilterCacheHits)
	misses := testutil.ToFloat64(FilterCacheMisses)

	RecordFilter(true, 0)
	RecordFilter(false, time.Millisecond)
	RecordFilter(false, time.Millisecond)

	if got := testutil.ToFloat64(FilterCacheHits); got != hits+1 {
		t.Errorf("hits = %v, want %v", got, hits+1)
	}
	if got := testutil.ToFloat64(FilterCacheMisses); got != misses+2 {
		t.Errorf("misses = %v, want %v", got, misses+2)
	}
}

func TestRecordAPIRequest(t *testing.T) {
	before := testutil.ToFloat64(APIRequestsTotal.WithLabelValues("GET", "/api/filter", "200"))
	RecordAPIRequest("GET", "/api/filter", "200", 2*time.Millisecond)
	if got := testutil.ToFloat64(APIRequestsTotal.WithLabelValues("GET", "/api/filter", "200")); got != before+1 {
		t.Errorf("api_requests_total = %v, want %v", got, before+1)
	}
}

func TestMetricsLint(t *testing.T) {
	problems, err := testutil.GatherAndLint(prometheus.DefaultGatherer)
	if err != nil {
		t.Fatalf("GatherAndLint() error = %v", err)
	}
	for _, p := range problems {
		t.Errorf("lint problem in %s: %s", p.Metric, p.Text)
	}
}
