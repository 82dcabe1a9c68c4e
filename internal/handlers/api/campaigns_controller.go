// file: internal/handlers/api/campaigns_controller.go
package api

import (
	"net/http"

	"go.uber.org/zap"

	"helpinghands/internal/response"
	"helpinghands/internal/services"
)

// CampaignController handles campaign endpoints
type CampaignController struct {
	controller
}

// NewCampaignController creates a new campaign controller
func NewCampaignController(sc *services.ServiceCollection, responses *response.Builder, logger *zap.Logger) *CampaignController {
	return &CampaignController{controller: newController(sc, responses, logger)}
}

// List handles GET /api/campaigns. Anonymous callers and non-admins see
// active campaigns; admins may pass ?all=true to include closed ones.
func (c *CampaignController) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor := principal(r)

	var (
		campaigns interface{}
		err       error
	)
	if r.URL.Query().Get("all") == "true" {
		campaigns, err = c.services.CampaignService.ListAll(ctx, actor)
	} else {
		campaigns, err = c.services.CampaignService.ListActive(ctx)
	}
	if err != nil {
		c.responses.WriteError(w, r, err)
		return
	}

	c.responses.WriteSuccess(w, r, campaigns)
}

// Get handles GET /api/campaigns/{id}
func (c *CampaignController) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		c.responses.WriteError(w, r, err)
		return
	}

	campaign, err := c.services.CampaignService.Get(r.Context(), id)
	if err != nil {
		c.responses.WriteError(w, r, err)
		return
	}

	c.responses.WriteSuccess(w, r, campaign)
}

// Create handles POST /api/campaigns/create
func (c *CampaignController) Create(w http.ResponseWriter, r *http.Request) {
	var req services.CreateCampaignRequest
	if err := c.responses.DecodeJSON(r, &req); err != nil {
		c.responses.WriteError(w, r, err)
		return
	}

	campaign, err := c.services.CampaignService.Create(r.Context(), principal(r), &req)
	if err != nil {
		c.responses.WriteError(w, r, err)
		return
	}

	c.responses.WriteCreated(w, r, campaign)
}

// Update handles PUT /api/campaigns/{id}
func (c *CampaignController) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		c.responses.WriteError(w, r, err)
		return
	}

	var req services.UpdateCampaignRequest
	if err := c.responses.DecodeJSON(r, &req); err != nil {
		c.responses.WriteError(w, r, err)
		return
	}

	campaign, err := c.services.CampaignService.Update(r.Context(), principal(r), id, &req)
	if err != nil {
		c.responses.WriteError(w, r, err)
		return
	}

	c.responses.WriteSuccess(w, r, campaign)
}

// Delete handles DELETE /api/campaigns/{id}
func (c *CampaignController) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		c.responses.WriteError(w, r, err)
		return
	}

	if err := c.services.CampaignService.Delete(r.Context(), principal(r), id); err != nil {
		c.responses.WriteError(w, r, err)
		return
	}

	c.responses.WriteSuccess(w, r, map[string]interface{}{"deleted": true, "id": id})
}
