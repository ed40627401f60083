package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "campus_http_requests_total",
		Help: "HTTP requests by route, method and status.",
	}, []string{"route", "method", "status"})

	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "campus_http_request_duration_seconds",
		Help:    "HTTP request latency by route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route", "method"})

	ComplaintsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "campus_complaints_created_total",
		Help: "Log entries accepted by intake.",
	})

	ComplaintConflicts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "campus_complaint_conflicts_total",
		Help: "Log entries rejected as duplicates.",
	})

	StatusUpdates = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "campus_status_updates_total",
		Help: "Complaint status changes by target status.",
	}, []string{"status"})

	UnidentifiedLogs = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "campus_unidentified_logs",
		Help: "Log entries still missing a student identity.",
	})

	MentorQueueItems = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "campus_mentor_queue_items",
		Help: "Items in the mentor review queue.",
	})

	PendingMeetings = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "campus_pending_meetings",
		Help: "Meetings whose attendance is still pending.",
	})
)

// GinMiddleware records request counts and latency per route template.
func GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		method := c.Request.Method
		HTTPRequests.WithLabelValues(route, method, strconv.Itoa(c.Writer.Status())).Inc()
		HTTPDuration.WithLabelValues(route, method).Observe(time.Since(start).Seconds())
	}
}
