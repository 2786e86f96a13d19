// Package metrics holds the Prometheus collectors for accounting events
// and HTTP traffic.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Accounting metrics
	sessionsRecorded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pagequest_reading_sessions_total",
			Help: "Reading sessions recorded, by source",
		},
		[]string{"source"},
	)

	minutesRead = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pagequest_minutes_read_total",
			Help: "Minutes of reading recorded, by source",
		},
		[]string{"source"},
	)

	pointsAwarded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pagequest_points_awarded_total",
			Help: "Points credited to readers, by source",
		},
		[]string{"source"},
	)

	achievementsAwarded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pagequest_achievements_awarded_total",
			Help: "Achievements awarded",
		},
	)

	quizAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pagequest_quiz_attempts_total",
			Help: "Quiz attempts recorded, by result",
		},
		[]string{"result"},
	)

	rewardsRedeemed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pagequest_rewards_redeemed_total",
			Help: "Rewards redeemed",
		},
	)

	rewardsCompleted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pagequest_rewards_completed_total",
			Help: "Redeemed rewards marked fulfilled",
		},
	)

	activeDeviceStreams = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "pagequest_device_streams_active",
			Help: "Open device websocket streams",
		},
	)

	// HTTP request metrics
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pagequest_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pagequest_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)

// Source labels.
const (
	SourceManual = "manual"
	SourceDevice = "device"
	SourceQuiz   = "quiz"
)

// SessionRecorded counts one committed reading session.
func SessionRecorded(source string, minutes, points int) {
	sessionsRecorded.WithLabelValues(source).Inc()
	minutesRead.WithLabelValues(source).Add(float64(minutes))
	pointsAwarded.WithLabelValues(source).Add(float64(points))
}

func PointsAwarded(source string, points int) {
	pointsAwarded.WithLabelValues(source).Add(float64(points))
}

func AchievementsAwarded(n int) {
	achievementsAwarded.Add(float64(n))
}

func QuizAttempt(passed bool) {
	result := "failed"
	if passed {
		result = "passed"
	}
	quizAttempts.WithLabelValues(result).Inc()
}

func RewardRedeemed() {
	rewardsRedeemed.Inc()
}

func RewardCompleted() {
	rewardsCompleted.Inc()
}

func DeviceStreamOpened() {
	activeDeviceStreams.Inc()
}

func DeviceStreamClosed() {
	activeDeviceStreams.Dec()
}

// ObserveHTTP records one finished request. path should be the route
// pattern, not the raw URL, to keep label cardinality bounded.
func ObserveHTTP(method, path string, status int, d time.Duration) {
	httpRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	httpRequestDuration.WithLabelValues(method, path).Observe(d.Seconds())
}
