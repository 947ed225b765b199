package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ProductsUpsertedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "products_upserted_total",
		Help: "Total number of product upserts",
	})

	SalesRecordedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sales_recorded_total",
		Help: "Total number of paid sales recorded",
	})

	SaleItemsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sale_items_total",
		Help: "Total number of sale lines recorded",
	})

	SalesFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sales_failed_total",
		Help: "Total number of rejected or failed sales",
	}, []string{"reason"})

	SaleRecordLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "sale_record_latency_seconds",
		Help:    "Latency of recording a paid sale",
		Buckets: prometheus.DefBuckets,
	})

	IdempotentReplaysTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "idempotent_replays_total",
		Help: "Total number of checkouts answered from a stored Idempotency-Key",
	})

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
