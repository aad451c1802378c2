package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	checkoutOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "checkout_operations_total",
			Help: "Checkout session operations by outcome",
		},
		[]string{"operation", "status"},
	)

	activeSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "checkout_active_sessions",
			Help: "Currently open checkout sessions",
		},
	)

	submissionDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "checkout_submission_duration_seconds",
			Help:    "Duration of order submissions including avatar uploads",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
		},
	)

	seatSyncSeats = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "seat_cache_synced_seats_total",
			Help: "Seats written to the cache per sync",
		},
		[]string{"show_id"},
	)
)

// TrackOperation counts one checkout operation outcome ("ok", "rejected",
// "error").
func TrackOperation(operation, status string) {
	checkoutOperations.WithLabelValues(operation, status).Inc()
}

// SetActiveSessions reports the current open session count.
func SetActiveSessions(n int) {
	activeSessions.Set(float64(n))
}

// TrackSubmission records how long a full submission took.
func TrackSubmission(duration time.Duration) {
	submissionDuration.Observe(duration.Seconds())
}

// TrackSeatSync counts seats written on one cache sync.
func TrackSeatSync(showID string, seats int) {
	seatSyncSeats.WithLabelValues(showID).Add(float64(seats))
}
