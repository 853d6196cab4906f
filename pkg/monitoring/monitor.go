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

	// SandboxExecutions status: success | failure | timeout
	SandboxExecutions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sandbox_executions_total",
			Help: "Total number of sandboxed code executions",
		},
		[]string{"status"},
	)

	SandboxDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "sandbox_execution_duration_seconds",
			Help:    "Wall-clock duration of sandboxed code executions",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		},
	)

	// ChallengeEvaluations result: correct | incorrect | failed
	ChallengeEvaluations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "challenge_evaluations_total",
			Help: "Total number of challenge submissions by outcome",
		},
		[]string{"result"},
	)

	ProgressionRewards = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "progression_rewards_total",
			Help: "Total number of rewards applied to user accounts",
		},
		[]string{"source"},
	)
)

var initOnce sync.Once

func Init() {
	initOnce.Do(func() {
		prometheus.MustRegister(
			RequestCounter,
			RequestDuration,
			SandboxExecutions,
			SandboxDuration,
			ChallengeEvaluations,
			ProgressionRewards,
		)
	})
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
