// file: internal/handlers/api/health_controller.go
package api

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"helpinghands/internal/response"
	"helpinghands/internal/services"
)

// HealthController reports dependency health
type HealthController struct {
	controller
	timeout time.Duration
}

// NewHealthController creates a new health controller
func NewHealthController(sc *services.ServiceCollection, responses *response.Builder, logger *zap.Logger) *HealthController {
	return &HealthController{
		controller: newController(sc, responses, logger),
		timeout:    5 * time.Second,
	}
}

// Health handles GET /health: 200 when every dependency answers, 503 otherwise
func (c *HealthController) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), c.timeout)
	defer cancel()

	health := c.services.HealthCheck(ctx)

	status := http.StatusOK
	if health.Status != "healthy" {
		status = http.StatusServiceUnavailable
		c.logger.Warn("Health check failed", zap.Any("dependencies", health.Dependencies))
	}

	resp := c.responses.Success(r.Context(), health)
	resp.Success = status == http.StatusOK
	c.responses.WriteJSON(w, r, resp, status)
}
