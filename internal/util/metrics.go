package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ProductsSyncedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "catalog_products_synced_total",
		Help: "Total number of products upserted by catalog sync",
	})

	VariantsSyncedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "catalog_variants_synced_total",
		Help: "Total number of variants upserted by catalog sync",
	})

	CatalogSyncRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_sync_runs_total",
		Help: "Total number of catalog sync runs",
	}, []string{"result"})

	CatalogSyncFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_sync_record_failures_total",
		Help: "Total number of records that failed to upsert during catalog sync",
	}, []string{"kind"})

	CatalogFetchLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "shopify_catalog_fetch_latency_seconds",
		Help:    "Latency of full paginated product fetches",
		Buckets: prometheus.DefBuckets,
	})

	OrdersFetchLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "shopify_orders_fetch_latency_seconds",
		Help:    "Latency of order feed fetches",
		Buckets: prometheus.DefBuckets,
	})

	OrdersFetchFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "shopify_orders_fetch_failures_total",
		Help: "Total number of failed order feed fetches",
	})

	PriceUpdatesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "price_updates_total",
		Help: "Total number of price write attempts by outcome",
	}, []string{"outcome"})

	RemotePriceWriteFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "remote_price_write_failures_total",
		Help: "Total number of remote price mutations that failed",
	})

	PriceUpdateRunLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "price_update_run_latency_seconds",
		Help:    "Latency of full price update passes",
		Buckets: prometheus.DefBuckets,
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
