package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	OrdersImportedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orders_imported_total",
		Help: "Total number of orders stored by the partner import",
	})

	OrdersImportSkippedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orders_import_skipped_total",
		Help: "Total number of partner orders skipped because the order number already exists",
	})

	OrdersImportFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "orders_import_failed_total",
		Help: "Total number of partner orders that failed to import",
	}, []string{"reason"})

	ImportBatchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "order_import_batch_duration_seconds",
		Help:    "Duration of a full import batch",
		Buckets: []float64{.1, .5, 1, 5, 15, 30, 60, 120, 300, 600},
	})

	ImportJobsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "order_import_jobs_total",
		Help: "Import jobs by final status",
	}, []string{"status"})

	ImportQueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "order_import_queue_depth",
		Help: "Import jobs waiting in the worker queue",
	})

	OrdersCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orders_created_total",
		Help: "Total number of orders created through the direct creation endpoint",
	})

	RateLimitRejectionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rate_limit_rejections_total",
		Help: "Requests rejected by the rate limiter",
	}, []string{"route"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})
)
