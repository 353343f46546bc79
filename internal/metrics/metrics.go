// Package metrics provides Prometheus instruments for the locality data service.
//
// Metrics are registered on the default registry at package init and exposed
// at /metrics by the web server.
//
// Dataset metrics:
//   - dataset_loads_total: load attempts (counter), labels: result (success, failure)
//   - dataset_load_duration_seconds: load latency (histogram)
//   - dataset_records: records in the published working set (gauge)
//   - dataset_last_load_rows: row counts of the last successful load (gauge), labels: stage
//   - dataset_last_success_timestamp: unix time of the last successful load (gauge)
//
// Filter metrics:
//   - filter_cache_hits_total / filter_cache_misses_total (counters)
//   - filter_duration_seconds: FilterEngine latency on cache misses (histogram)
//
// API metrics:
//   - api_requests_total: labels method, endpoint, status_code
//   - api_request_duration_seconds: labels method, endpoint
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	DatasetLoads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dataset_loads_total",
			Help: "Total number of dataset load attempts",
		},
		[]string{"result"},
	)

	DatasetLoadDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "dataset_load_duration_seconds",
			Help:    "Duration of dataset loads in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
	)

	DatasetRecords = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "dataset_records",
			Help: "Number of records in the published working set",
		},
	)

	DatasetLastLoadRows = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "dataset_last_load_rows",
			Help: "Row counts of the last successful load by stage",
		},
		[]string{"stage"}, // "read", "retained", "below_threshold", "unusable_ids", "duplicate_ids"
	)

	DatasetLastSuccess = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "dataset_last_success_timestamp",
			Help: "Unix timestamp of the last successful dataset load",
		},
	)

	FilterCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "filter_cache_hits_total",
			Help: "Total number of filter results served from cache",
		},
	)

	FilterCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "filter_cache_misses_total",
			Help: "Total number of filter results computed",
		},
	)

	FilterDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "filter_duration_seconds",
			Help:    "Duration of filter evaluation over the record set",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
		},
	)

	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
		[]string{"method", "endpoint"},
	)
)

// LoadCounts carries the per-stage row counts of a load.
type LoadCounts struct {
	Read           int
	Retained       int
	BelowThreshold int
	UnusableIDs    int
	DuplicateIDs   int
}

// RecordLoad records one load attempt. counts is ignored when err is non-nil.
func RecordLoad(duration time.Duration, counts LoadCounts, err error) {
	DatasetLoadDuration.Observe(duration.Seconds())
	if err != nil {
		DatasetLoads.WithLabelValues("failure").Inc()
		return
	}

	DatasetLoads.WithLabelValues("success").Inc()
	DatasetRecords.Set(float64(counts.Retained))
	DatasetLastLoadRows.WithLabelValues("read").Set(float64(counts.Read))
	DatasetLastLoadRows.WithLabelValues("retained").Set(float64(counts.Retained))
	DatasetLastLoadRows.WithLabelValues("below_threshold").Set(float64(counts.BelowThreshold))
	DatasetLastLoadRows.WithLabelValues("unusable_ids").Set(float64(counts.UnusableIDs))
	DatasetLastLoadRows.WithLabelValues("duplicate_ids").Set(float64(counts.DuplicateIDs))
	DatasetLastSuccess.Set(float64(time.Now().Unix()))
}

// RecordFilter records a filter evaluation. duration is only observed on misses.
func RecordFilter(cacheHit bool, duration time.Duration) {
	if cacheHit {
		FilterCacheHits.Inc()
		return
	}
	FilterCacheMisses.Inc()
	FilterDuration.Observe(duration.Seconds())
}

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}
