// file: internal/handlers/api/dashboard_controller.go
package api

import (
	"net/http"

	"go.uber.org/zap"

	"helpinghands/internal/response"
	"helpinghands/internal/services"
)

// DashboardController serves the admin aggregates
type DashboardController struct {
	controller
}

// NewDashboardController creates a new dashboard controller
func NewDashboardController(sc *services.ServiceCollection, responses *response.Builder, logger *zap.Logger) *DashboardController {
	return &DashboardController{controller: newController(sc, responses, logger)}
}

// Stats handles GET /api/dashboard/stats
func (c *DashboardController) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := c.services.DashboardService.Stats(r.Context(), principal(r))
	if err != nil {
		c.responses.WriteError(w, r, err)
		return
	}

	c.responses.WriteSuccess(w, r, stats)
}

// Leaderboard handles GET /api/dashboard/leaderboard?limit=n. A missing or
// zero limit uses the configured default.
func (c *DashboardController) Leaderboard(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		c.responses.WriteError(w, r, err)
		return
	}

	top, err := c.services.DashboardService.TopDonors(r.Context(), principal(r), limit)
	if err != nil {
		c.responses.WriteError(w, r, err)
		return
	}

	c.responses.WriteSuccess(w, r, top)
}

// CampaignStats handles GET /api/dashboard/campaign-stats
func (c *DashboardController) CampaignStats(w http.ResponseWriter, r *http.Request) {
	totals, err := c.services.DashboardService.CampaignTotals(r.Context(), principal(r))
	if err != nil {
		c.responses.WriteError(w, r, err)
		return
	}

	c.responses.WriteSuccess(w, r, totals)
}
