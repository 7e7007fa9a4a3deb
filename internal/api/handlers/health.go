package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/irfndi/fdtrend-go/internal/services"
)

var startTime = time.Now()

// HealthChecker is implemented by *database.PostgresDB and *database.RedisClient.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// NotifierStatus is implemented by *services.NotificationService.
type NotifierStatus interface {
	BreakerStatus() (string, services.CircuitBreakerStats)
}

type HealthHandler struct {
	db       HealthChecker
	redis    HealthChecker
	host     *services.HostMonitor
	notifier NotifierStatus
	version  string
}

// NotificationHealth is the Telegram circuit breaker view in the health report.
type NotificationHealth struct {
	Circuit string                       `json:"circuit"`
	Stats   services.CircuitBreakerStats `json:"stats"`
}

type HealthResponse struct {
	Status        string                 `json:"status"`
	Timestamp     time.Time              `json:"timestamp"`
	Services      map[string]string      `json:"services"`
	Host          *services.HostSnapshot `json:"host,omitempty"`
	Notifications *NotificationHealth    `json:"notifications,omitempty"`
	Version       string                 `json:"version"`
	Uptime        string                 `json:"uptime"`
}

// NewHealthHandler creates the health handler. host may be nil.
func NewHealthHandler(db, redis HealthChecker, host *services.HostMonitor, version string) *HealthHandler {
	return &HealthHandler{
		db:      db,
		redis:   redis,
		host:    host,
		version: version,
	}
}

// WithNotifier adds the notification circuit to the report.
func (h *HealthHandler) WithNotifier(notifier NotifierStatus) *HealthHandler {
	h.notifier = notifier
	return h
}

// HealthCheck reports dependency status. Redis outages degrade; database outages fail.
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	statuses := map[string]string{
		"database": checkStatus(ctx, h.db),
		"redis":    checkStatus(ctx, h.redis),
	}

	status := "healthy"
	code := http.StatusOK
	switch {
	case statuses["database"] != "healthy":
		status = "unhealthy"
		code = http.StatusServiceUnavailable
	case statuses["redis"] != "healthy":
		status = "degraded"
	}

	response := HealthResponse{
		Status:    status,
		Timestamp: time.Now().UTC(),
		Services:  statuses,
		Version:   h.version,
		Uptime:    time.Since(startTime).Round(time.Second).String(),
	}
	if h.host != nil {
		snapshot := h.host.Snapshot(ctx)
		response.Host = &snapshot
	}
	if h.notifier != nil {
		circuit, stats := h.notifier.BreakerStatus()
		response.Notifications = &NotificationHealth{Circuit: circuit, Stats: stats}
	}

	c.JSON(code, response)
}

func checkStatus(ctx context.Context, checker HealthChecker) string {
	if checker == nil {
		return "unhealthy: not configured"
	}
	if err := checker.HealthCheck(ctx); err != nil {
		return "unhealthy: " + err.Error()
	}
	return "healthy"
}
