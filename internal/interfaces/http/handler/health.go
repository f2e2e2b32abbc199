package handler

import (
	"context"
	"net/http"
	"runtime"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/skuswap/backend/internal/infrastructure/logger"
	"github.com/skuswap/backend/internal/interfaces/http/dto"
)

// HealthCheck reports whether a dependency is reachable
type HealthCheck func(ctx context.Context) error

// Health status values
const (
	HealthStatusHealthy   = "healthy"
	HealthStatusUnhealthy = "unhealthy"
	ServiceStatusUp       = "up"
	ServiceStatusDown     = "down"
)

// healthCheckTimeout bounds each dependency check
const healthCheckTimeout = 2 * time.Second

// HealthHandler serves liveness and dependency status
type HealthHandler struct {
	BaseHandler
	name      string
	version   string
	startTime time.Time
	checks    map[string]HealthCheck
}

// NewHealthHandler creates a HealthHandler running the given named checks
func NewHealthHandler(name, version string, checks map[string]HealthCheck) *HealthHandler {
	if checks == nil {
		checks = map[string]HealthCheck{}
	}
	return &HealthHandler{
		name:      name,
		version:   version,
		startTime: time.Now(),
		checks:    checks,
	}
}

// Health godoc
//
//	@ID				getHealth
//	@Summary		Service health
//	@Description	Pings the database and, when configured, Redis
//	@Tags			system
//	@Produce		json
//	@Success		200	{object}	dto.HealthResponse
//	@Failure		503	{object}	dto.HealthResponse
//	@Router			/health [get]
func (h *HealthHandler) Health(c *gin.Context) {
	resp := dto.HealthResponse{
		Status:   HealthStatusHealthy,
		Services: make(map[string]string, len(h.checks)),
	}

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
		err := h.checks[name](ctx)
		cancel()

		if err != nil {
			logger.L(c.Request.Context()).Warn("Health check failed",
				zap.String("service", name),
				zap.Error(err),
			)
			resp.Services[name] = ServiceStatusDown
			resp.Status = HealthStatusUnhealthy
			continue
		}
		resp.Services[name] = ServiceStatusUp
	}

	status := http.StatusOK
	if resp.Status != HealthStatusHealthy {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, resp)
}

// SystemInfoResponse represents the system information response
type SystemInfoResponse struct {
	Name      string `json:"name"`
	Version   string `json:"version"`
	GoVersion string `json:"go_version"`
	Uptime    string `json:"uptime"`
}

// Info godoc
//
//	@ID			getSystemInfo
//	@Summary	Get system information
//	@Tags		system
//	@Produce	json
//	@Success	200	{object}	dto.Response
//	@Router		/system/info [get]
func (h *HealthHandler) Info(c *gin.Context) {
	h.Success(c, SystemInfoResponse{
		Name:      h.name,
		Version:   h.version,
		GoVersion: runtime.Version(),
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
	})
}
