package monitoring

import (
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{0.1, 0.5, 1, 2, 5},
		},
		[]string{"method", "endpoint"},
	)

	SessionsStarted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vision_test_sessions_started_total",
			Help: "Vision test runs that left the instructions screen",
		},
		[]string{"kind"},
	)

	SessionsFinished = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vision_test_sessions_finished_total",
			Help: "Vision test runs that reached a result",
		},
		[]string{"kind", "outcome"},
	)

	InvalidAnswers = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vision_test_invalid_answers_total",
			Help: "Answers rejected because they were not among the offered options",
		},
		[]string{"kind"},
	)

	AssistantSocketMessages = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assistant_socket_messages_total",
			Help: "Frames exchanged on assistant websocket connections",
		},
		[]string{"type", "direction"},
	)

	RemindersFired = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "reminders_fired_total",
			Help: "Reminders marked as fired by the background scanner",
		},
	)
)

var registerOnce sync.Once

func Init() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			RequestCounter,
			RequestDuration,
			SessionsStarted,
			SessionsFinished,
			InvalidAnswers,
			AssistantSocketMessages,
			RemindersFired,
		)
	})
}

// Outcome buckets a finished run for the finished-sessions counter.
func Outcome(belowMinimum, completed bool) string {
	switch {
	case belowMinimum:
		return "below_minimum"
	case completed:
		return "completed"
	default:
		return "partial"
	}
}

func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		duration := time.Since(start).Seconds()
		status := c.Writer.Status()

		RequestCounter.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			strconv.Itoa(status),
		).Inc()

		RequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
		).Observe(duration)
	}
}

func PrometheusHandler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
