// file: internal/handlers/api/beneficiary_controller.go
package api

import (
	"net/http"

	"go.uber.org/zap"

	"helpinghands/internal/response"
	"helpinghands/internal/services"
)

// BeneficiaryController handles the aid request workflow endpoints
type BeneficiaryController struct {
	controller
}

// NewBeneficiaryController creates a new beneficiary controller
func NewBeneficiaryController(sc *services.ServiceCollection, responses *response.Builder, logger *zap.Logger) *BeneficiaryController {
	return &BeneficiaryController{controller: newController(sc, responses, logger)}
}

// Submit handles POST /api/beneficiary/submit
func (c *BeneficiaryController) Submit(w http.ResponseWriter, r *http.Request) {
	var req services.SubmitBeneficiaryRequest
	if err := c.responses.DecodeJSON(r, &req); err != nil {
		c.responses.WriteError(w, r, err)
		return
	}

	request, err := c.services.BeneficiaryService.Submit(r.Context(), principal(r), &req)
	if err != nil {
		c.responses.WriteError(w, r, err)
		return
	}

	c.responses.WriteCreated(w, r, request)
}

// Review handles POST /api/beneficiary/review
func (c *BeneficiaryController) Review(w http.ResponseWriter, r *http.Request) {
	var req services.ReviewBeneficiaryRequest
	if err := c.responses.DecodeJSON(r, &req); err != nil {
		c.responses.WriteError(w, r, err)
		return
	}

	request, err := c.services.BeneficiaryService.Review(r.Context(), principal(r), &req)
	if err != nil {
		c.responses.WriteError(w, r, err)
		return
	}

	c.responses.WriteSuccess(w, r, request)
}

// Pending handles GET /api/beneficiary/pending
func (c *BeneficiaryController) Pending(w http.ResponseWriter, r *http.Request) {
	requests, err := c.services.BeneficiaryService.ListPending(r.Context(), principal(r))
	if err != nil {
		c.responses.WriteError(w, r, err)
		return
	}

	c.responses.WriteSuccess(w, r, requests)
}

// Mine handles GET /api/beneficiary/my-requests
func (c *BeneficiaryController) Mine(w http.ResponseWriter, r *http.Request) {
	requests, err := c.services.BeneficiaryService.ListMine(r.Context(), principal(r))
	if err != nil {
		c.responses.WriteError(w, r, err)
		return
	}

	c.responses.WriteSuccess(w, r, requests)
}

// All handles GET /api/beneficiary/all
func (c *BeneficiaryController) All(w http.ResponseWriter, r *http.Request) {
	requests, err := c.services.BeneficiaryService.ListAll(r.Context(), principal(r))
	if err != nil {
		c.responses.WriteError(w, r, err)
		return
	}

	c.responses.WriteSuccess(w, r, requests)
}
