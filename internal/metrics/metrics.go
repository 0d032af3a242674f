package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "team_service_http_requests_total",
			Help: "Total HTTP requests processed, by method, path and status.",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "team_service_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)

// Invitation lifecycle metrics
var (
	InvitationsIssued = promauto.NewCounter(prometheus.CounterOpts{
		Name: "team_service_invitations_issued_total",
		Help: "Invitations successfully issued.",
	})

	InvitationsAccepted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "team_service_invitations_accepted_total",
		Help: "Invitations successfully accepted.",
	})

	InvitationsRevoked = promauto.NewCounter(prometheus.CounterOpts{
		Name: "team_service_invitations_revoked_total",
		Help: "Invitations revoked by administrators.",
	})

	InvitationsExpired = promauto.NewCounter(prometheus.CounterOpts{
		Name: "team_service_invitations_expired_total",
		Help: "Invitations transitioned to expired by the sweep.",
	})

	LicenseLimitRejections = promauto.NewCounter(prometheus.CounterOpts{
		Name: "team_service_license_limit_rejections_total",
		Help: "Operations rejected because no seats were available.",
	})

	SeatInvariantViolations = promauto.NewCounter(prometheus.CounterOpts{
		Name: "team_service_seat_invariant_violations_total",
		Help: "Observed snapshots where used seats exceeded the seat cap.",
	})
)

// Middleware records request counts and latency per route.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		httpRequestsTotal.WithLabelValues(
			c.Request.Method, path, strconv.Itoa(c.Writer.Status()),
		).Inc()
		httpRequestDuration.WithLabelValues(c.Request.Method, path).
			Observe(time.Since(start).Seconds())
	}
}
