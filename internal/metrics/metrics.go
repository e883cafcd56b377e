package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	probeScans = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "salonbook",
			Name:      "probe_scans_total",
			Help:      "Availability scans by outcome (started, superseded, completed).",
		},
		[]string{"outcome"},
	)

	probeQueries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "salonbook",
			Name:      "probe_date_queries_total",
			Help:      "Per-date availability queries by result.",
		},
		[]string{"result"},
	)

	submissions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "salonbook",
			Name:      "submissions_total",
			Help:      "Booking submissions by strategy and outcome.",
		},
		[]string{"strategy", "outcome"},
	)

	conflictsRecovered = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "salonbook",
			Name:      "conflicts_recovered_total",
			Help:      "Submissions rejected as conflicts and returned to time selection.",
		},
	)

	backendRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "salonbook",
			Name:      "backend_requests_total",
			Help:      "Backend availability service calls by operation and result.",
		},
		[]string{"op", "result"},
	)

	activeSessions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "salonbook",
			Name:      "wizard_sessions_active",
			Help:      "Booking wizard sessions currently held in memory.",
		},
	)

	slotGeneration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "salonbook",
			Name:      "slot_generation_seconds",
			Help:      "Time spent generating slots for one date.",
			Buckets:   []float64{.0001, .0005, .001, .005, .01, .05},
		},
	)
)

// Register registers metrics (idempotent).
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			probeScans,
			probeQueries,
			submissions,
			conflictsRecovered,
			backendRequests,
			activeSessions,
			slotGeneration,
		)
	})
}

func IncProbeScan(outcome string) {
	probeScans.WithLabelValues(outcome).Inc()
}

func IncProbeQuery(result string) {
	probeQueries.WithLabelValues(result).Inc()
}

func IncSubmission(strategy, outcome string) {
	submissions.WithLabelValues(strategy, outcome).Inc()
}

func IncConflictRecovered() {
	conflictsRecovered.Inc()
}

func IncBackendRequest(op, result string) {
	backendRequests.WithLabelValues(op, result).Inc()
}

func SetActiveSessions(n int) {
	activeSessions.Set(float64(n))
}

func ObserveSlotGeneration(d time.Duration) {
	slotGeneration.Observe(d.Seconds())
}
