package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RidesCreated    = promauto.NewCounter(prometheus.CounterOpts{Namespace: "ride_hail", Name: "rides_created_total", Help: "Total rides created"})
	RideTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "ride_hail", Name: "ride_transitions_total", Help: "Successful ride status transitions"},
		[]string{"status"},
	)
	TransitionConflicts = promauto.NewCounter(prometheus.CounterOpts{Namespace: "ride_hail", Name: "ride_transition_conflicts_total", Help: "Transitions rejected as unmodified or backwards"})
	LocationPings       = promauto.NewCounter(prometheus.CounterOpts{Namespace: "ride_hail", Name: "location_pings_total", Help: "Driver location pings accepted"})
	NearestQueries      = promauto.NewCounter(prometheus.CounterOpts{Namespace: "ride_hail", Name: "nearest_queries_total", Help: "Nearest-driver queries served"})
	NearestMisses       = promauto.NewCounter(prometheus.CounterOpts{Namespace: "ride_hail", Name: "nearest_misses_total", Help: "Nearest-driver queries with no active drivers"})

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "ride_hail", Name: "http_requests_total", Help: "Total HTTP requests handled"},
		[]string{"method", "path", "status"},
	)
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "ride_hail",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency distribution",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
