package database

import "time"

// Health states
const (
	StatusHealthy   = "healthy"
	StatusDegraded  = "degraded"
	StatusUnhealthy = "unhealthy"
)

// HealthStatus is the result of a single health check
type HealthStatus struct {
	Status          string        `json:"status"`
	ResponseTime    time.Duration `json:"response_time"`
	OpenConnections int           `json:"open_connections"`
	InUse           int           `json:"in_use"`
	Idle            int           `json:"idle"`
	Errors          []string      `json:"errors,omitempty"`
	CheckedAt       time.Time     `json:"checked_at"`
}

// IsHealthy reports whether the database can serve queries
func (h *HealthStatus) IsHealthy() bool {
	return h.Status != StatusUnhealthy
}
