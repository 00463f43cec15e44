package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// GeocodeRequests counts geocoding lookups by outcome (match, miss, error).
	GeocodeRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "campingrate_geocode_requests_total",
		Help: "Total number of geocoding lookups by outcome",
	}, []string{"outcome"})

	// GeocodeLatency records geocoding round-trip latency.
	GeocodeLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "campingrate_geocode_latency_seconds",
		Help:    "Geocoding request latency in seconds",
		Buckets: prometheus.DefBuckets,
	})

	// ImageStoreOperations counts object-store calls by operation and outcome.
	ImageStoreOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "campingrate_image_store_operations_total",
		Help: "Total number of image store operations",
	}, []string{"operation", "outcome"})

	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "campingrate_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// RatingAggregationLatency records how long annotating a listing with averages takes.
	RatingAggregationLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "campingrate_rating_aggregation_seconds",
		Help:    "Time spent computing average ratings for a listing",
		Buckets: prometheus.DefBuckets,
	})

	// AuthEvents counts registrations, logins and login failures.
	AuthEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "campingrate_auth_events_total",
		Help: "Total number of authentication events by type",
	}, []string{"event"})
)

// Outcome returns "ok" or "error" for metric labels.
func Outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// TrackQuery returns a function that records query latency when called (e.g. defer).
func TrackQuery(operation, table string) func() {
	start := time.Now()
	return func() {
		DatabaseQueryLatency.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
	}
}
