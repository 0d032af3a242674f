package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	natsClient "team-service/internal/nats"
	redisClient "team-service/internal/redis"
)

var startTime = time.Now()

// HealthHandler handles health check endpoints
type HealthHandler struct {
	db          *gorm.DB
	natsClient  *natsClient.Client
	redisClient *redisClient.Client
}

// NewHealthHandler creates a new health handler. The NATS and Redis clients
// are optional; absent collaborators are reported as skipped, not unhealthy.
func NewHealthHandler(db *gorm.DB, nc *natsClient.Client, rc *redisClient.Client) *HealthHandler {
	return &HealthHandler{db: db, natsClient: nc, redisClient: rc}
}

// Check represents a single health check result
type Check struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// Health reports liveness
// GET /health
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"service":   "team-service",
		"uptime":    time.Since(startTime).String(),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// Ready reports readiness including collaborator connectivity
// GET /ready
func (h *HealthHandler) Ready(c *gin.Context) {
	checks := map[string]Check{}
	healthy := true

	sqlDB, err := h.db.DB()
	if err == nil {
		err = sqlDB.PingContext(c.Request.Context())
	}
	if err != nil {
		checks["database"] = Check{Status: "unhealthy", Message: err.Error()}
		healthy = false
	} else {
		checks["database"] = Check{Status: "healthy"}
	}

	if h.natsClient != nil {
		if h.natsClient.IsConnected() {
			checks["nats"] = Check{Status: "healthy"}
		} else {
			// Events are best-effort; a NATS outage degrades, not fails.
			checks["nats"] = Check{Status: "degraded", Message: "not connected"}
		}
	} else {
		checks["nats"] = Check{Status: "skipped"}
	}

	if h.redisClient != nil {
		if err := h.redisClient.Ping(c.Request.Context()); err != nil {
			checks["redis"] = Check{Status: "degraded", Message: err.Error()}
		} else {
			checks["redis"] = Check{Status: "healthy"}
		}
	} else {
		checks["redis"] = Check{Status: "skipped"}
	}

	status := http.StatusOK
	overall := "ready"
	if !healthy {
		status = http.StatusServiceUnavailable
		overall = "not ready"
	}

	c.JSON(status, gin.H{
		"status":    overall,
		"service":   "team-service",
		"checks":    checks,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
