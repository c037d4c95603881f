package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "meddist_http_requests_total",
		Help: "HTTP requests by route, method and status.",
	}, []string{"route", "method", "status"})

	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "meddist_http_request_duration_seconds",
		Help:    "HTTP request latency by route and method.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route", "method"})

	InventoryMutations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "meddist_inventory_mutations_total",
		Help: "Inventory mutations by change type and outcome.",
	}, []string{"change_type", "outcome"})

	InventoryConflicts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "meddist_inventory_version_conflicts_total",
		Help: "Optimistic lock conflicts on inventory rows.",
	})

	RateLimited = promauto.NewCounter(prometheus.CounterOpts{
		Name: "meddist_rate_limited_requests_total",
		Help: "Requests rejected by the rate limiter.",
	})
)
