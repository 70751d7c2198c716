package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsRegistry holds all Prometheus metrics for the channel sync service
type MetricsRegistry struct {
	// HTTP Metrics
	HTTPRequestsTotal    prometheus.CounterVec
	HTTPRequestDuration  prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.GaugeVec

	// Database Metrics
	DBQueriesTotal  prometheus.CounterVec
	DBQueryDuration prometheus.HistogramVec

	// Sync Metrics
	SyncRunsTotal        prometheus.CounterVec
	SyncRecordsProcessed prometheus.CounterVec
	SyncJobDuration      prometheus.HistogramVec
	RemoteRequestCost    prometheus.Counter
	RemoteCreditLeft     prometheus.Gauge
}

// NewMetricsRegistry initializes and returns a new MetricsRegistry with all metrics
func NewMetricsRegistry() *MetricsRegistry {
	return &MetricsRegistry{
		// HTTP Metrics
		HTTPRequestsTotal: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "channelsync_http_requests_total",
				Help: "Total HTTP requests processed by endpoint, method, and status code",
			},
			[]string{"endpoint", "method", "status_code"},
		),
		HTTPRequestDuration: *promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "channelsync_http_request_duration_seconds",
				Help:    "HTTP request latency distribution in seconds",
				Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"endpoint", "method"},
		),
		HTTPRequestsInFlight: *promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "channelsync_http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed",
			},
			[]string{"endpoint"},
		),

		// Database Metrics
		DBQueriesTotal: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "channelsync_db_queries_total",
				Help: "Total database queries by operation type",
			},
			[]string{"query_type"},
		),
		DBQueryDuration: *promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "channelsync_db_query_duration_seconds",
				Help:    "Database query execution time in seconds",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			},
			[]string{"query_type"},
		),

		// Sync Metrics
		SyncRunsTotal: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "channelsync_sync_runs_total",
				Help: "Total sync runs by scope and terminal status",
			},
			[]string{"scope", "status"},
		),
		SyncRecordsProcessed: *promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "channelsync_sync_records_processed_total",
				Help: "Total records upserted by entity kind",
			},
			[]string{"entity"},
		),
		SyncJobDuration: *promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "channelsync_sync_job_duration_seconds",
				Help:    "Sync job execution time in seconds",
				Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
			},
			[]string{"job"},
		),
		RemoteRequestCost: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "channelsync_remote_request_cost_total",
				Help: "Cumulative Beds24 API credit spent",
			},
		),
		RemoteCreditLeft: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "channelsync_remote_credit_remaining",
				Help: "Beds24 API credit remaining as of the last response",
			},
		),
	}
}
