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

	// TutorRequests 外部辅导 API 调用次数，outcome 为 success / failed
	TutorRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tutor_requests_total",
			Help: "Total number of Tutoring API requests by operation and outcome",
		},
		[]string{"operation", "outcome"},
	)

	TutorRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tutor_request_duration_seconds",
			Help:    "Duration of Tutoring API requests",
			Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"operation"},
	)

	TutorProgress = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tutor_progress_percent",
			Help:    "Subject progress observed after successful Tutoring API requests",
			Buckets: prometheus.LinearBuckets(0, 10, 11),
		},
		[]string{"subject"},
	)

	SessionsCreated = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "tutor_sessions_created_total",
		Help: "Total number of tutor sessions created",
	})

	initOnce sync.Once
)

func Init() {
	initOnce.Do(func() {
		prometheus.MustRegister(RequestCounter)
		prometheus.MustRegister(RequestDuration)
		prometheus.MustRegister(TutorRequests)
		prometheus.MustRegister(TutorRequestDuration)
		prometheus.MustRegister(TutorProgress)
		prometheus.MustRegister(SessionsCreated)
	})
}

// ObserveTutorRequest 记录一次外部调用的结果
func ObserveTutorRequest(operation, subject string, failed bool, duration time.Duration, progress int) {
	outcome := "success"
	if failed {
		outcome = "failed"
	}
	TutorRequests.WithLabelValues(operation, outcome).Inc()
	TutorRequestDuration.WithLabelValues(operation).Observe(duration.Seconds())
	if !failed {
		TutorProgress.WithLabelValues(subject).Observe(float64(progress))
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
