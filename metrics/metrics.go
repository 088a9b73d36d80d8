// Package metrics holds the Prometheus collectors of the service.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	Registry = prometheus.NewRegistry()

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests handled, by route and status.",
		},
		[]string{"method", "route", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~2.5s
		},
		[]string{"method", "route"},
	)

	moderationDecisions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "moderation_decisions_total",
			Help: "Moderation decisions written, by resulting status.",
		},
		[]string{"action"},
	)

	roleChanges = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "role_changes_total",
			Help: "Role assignments and promotions, by new role.",
		},
		[]string{"role"},
	)

	notificationsCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_created_total",
			Help: "Notifications stored, by type.",
		},
		[]string{"type"},
	)

	ratingRecomputations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rating_recomputations_total",
			Help: "Restaurant rating recomputations, by review operation.",
		},
		[]string{"op"},
	)

	pushDropped = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "notification_push_dropped_total",
			Help: "Live notification pushes dropped because the hub queue was full.",
		},
	)
)

func init() {
	Registry.MustRegister(
		httpRequests,
		httpDuration,
		moderationDecisions,
		roleChanges,
		notificationsCreated,
		ratingRecomputations,
		pushDropped,
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)
}

func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// Middleware records request count and latency per matched route.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		if route == "/metrics" {
			return
		}
		httpRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		httpDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}

func ModerationDecision(action string) { moderationDecisions.WithLabelValues(action).Inc() }
func RoleChanged(role string)          { roleChanges.WithLabelValues(role).Inc() }
func NotificationCreated(kind string)  { notificationsCreated.WithLabelValues(kind).Inc() }
func RatingRecomputed(op string)       { ratingRecomputations.WithLabelValues(op).Inc() }
func NotificationPushDropped()         { pushDropped.Inc() }
