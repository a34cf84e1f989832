package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	activeSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "brainwave_active_sessions",
			Help: "Number of quiz sessions currently held in memory",
		},
	)

	quizzesCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "brainwave_quizzes_completed_total",
			Help: "Completed quizzes by grade",
		},
		[]string{"grade"},
	)

	generationFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "brainwave_question_generation_failures_total",
			Help: "Question generation failures by provider and kind",
		},
		[]string{"provider", "kind"},
	)

	generationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "brainwave_question_generation_duration_seconds",
			Help:    "Latency of question provider calls",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"provider"},
	)

	cacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "brainwave_question_cache_lookups_total",
			Help: "Question batch cache lookups by result",
		},
		[]string{"result"},
	)
)

func SessionOpened() { activeSessions.Inc() }
func SessionClosed() { activeSessions.Dec() }

// QuizCompleted counts a finished quiz under its letter grade.
func QuizCompleted(grade string) {
	quizzesCompleted.WithLabelValues(grade).Inc()
}

// GenerationFailed counts one failed provider call.
func GenerationFailed(provider, kind string) {
	generationFailures.WithLabelValues(provider, kind).Inc()
}

// ObserveGeneration records how long a provider call took.
func ObserveGeneration(provider string, took time.Duration) {
	generationDuration.WithLabelValues(provider).Observe(took.Seconds())
}

// CacheLookup records a batch cache hit or miss.
func CacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	cacheLookups.WithLabelValues(result).Inc()
}
