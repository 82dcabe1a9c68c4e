// file: internal/handlers/api/donations_controller.go
package api

import (
	"net/http"

	"go.uber.org/zap"

	"helpinghands/internal/response"
	"helpinghands/internal/services"
)

// DonationController handles the donation ledger endpoints
type DonationController struct {
	controller
}

// NewDonationController creates a new donation controller
func NewDonationController(sc *services.ServiceCollection, responses *response.Builder, logger *zap.Logger) *DonationController {
	return &DonationController{controller: newController(sc, responses, logger)}
}

// Make handles POST /api/donations
func (c *DonationController) Make(w http.ResponseWriter, r *http.Request) {
	var req services.MakeDonationRequest
	if err := c.responses.DecodeJSON(r, &req); err != nil {
		c.responses.WriteError(w, r, err)
		return
	}

	result, err := c.services.DonationService.MakeDonation(r.Context(), principal(r), &req)
	if err != nil {
		c.responses.WriteError(w, r, err)
		return
	}

	c.responses.WriteCreated(w, r, result)
}

// History handles GET /api/donations/my
func (c *DonationController) History(w http.ResponseWriter, r *http.Request) {
	history, err := c.services.DonationService.History(r.Context(), principal(r))
	if err != nil {
		c.responses.WriteError(w, r, err)
		return
	}

	c.responses.WriteSuccess(w, r, history)
}

// ListAll handles GET /api/donations/all
func (c *DonationController) ListAll(w http.ResponseWriter, r *http.Request) {
	donations, err := c.services.DonationService.ListAll(r.Context(), principal(r))
	if err != nil {
		c.responses.WriteError(w, r, err)
		return
	}

	c.responses.WriteSuccess(w, r, donations)
}

// Receipt handles GET /api/donations/receipt/{id}
func (c *DonationController) Receipt(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		c.responses.WriteError(w, r, err)
		return
	}

	receipt, err := c.services.DonationService.Receipt(r.Context(), principal(r), id)
	if err != nil {
		c.responses.WriteError(w, r, err)
		return
	}

	c.responses.WriteSuccess(w, r, receipt)
}
