// file: internal/handlers/api/volunteer_controller.go
package api

import (
	"net/http"

	"go.uber.org/zap"

	"helpinghands/internal/response"
	"helpinghands/internal/services"
)

// VolunteerController handles the volunteer task endpoints
type VolunteerController struct {
	controller
}

// NewVolunteerController creates a new volunteer controller
func NewVolunteerController(sc *services.ServiceCollection, responses *response.Builder, logger *zap.Logger) *VolunteerController {
	return &VolunteerController{controller: newController(sc, responses, logger)}
}

// Assign handles POST /api/volunteer/assign
func (c *VolunteerController) Assign(w http.ResponseWriter, r *http.Request) {
	var req services.AssignTaskRequest
	if err := c.responses.DecodeJSON(r, &req); err != nil {
		c.responses.WriteError(w, r, err)
		return
	}

	task, err := c.services.VolunteerService.Assign(r.Context(), principal(r), &req)
	if err != nil {
		c.responses.WriteError(w, r, err)
		return
	}

	c.responses.WriteCreated(w, r, task)
}

// Submit handles POST /api/volunteer/submit
func (c *VolunteerController) Submit(w http.ResponseWriter, r *http.Request) {
	var req services.SubmitReportRequest
	if err := c.responses.DecodeJSON(r, &req); err != nil {
		c.responses.WriteError(w, r, err)
		return
	}

	task, err := c.services.VolunteerService.SubmitReport(r.Context(), principal(r), &req)
	if err != nil {
		c.responses.WriteError(w, r, err)
		return
	}

	c.responses.WriteSuccess(w, r, task)
}

// Approve handles POST /api/volunteer/approve
func (c *VolunteerController) Approve(w http.ResponseWriter, r *http.Request) {
	var req services.ApproveTaskRequest
	if err := c.responses.DecodeJSON(r, &req); err != nil {
		c.responses.WriteError(w, r, err)
		return
	}

	result, err := c.services.VolunteerService.Approve(r.Context(), principal(r), &req)
	if err != nil {
		c.responses.WriteError(w, r, err)
		return
	}

	c.responses.WriteSuccess(w, r, result)
}

// MyTasks handles GET /api/volunteer/my-tasks
func (c *VolunteerController) MyTasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := c.services.VolunteerService.ListMine(r.Context(), principal(r))
	if err != nil {
		c.responses.WriteError(w, r, err)
		return
	}

	c.responses.WriteSuccess(w, r, tasks)
}

// Tasks handles GET /api/volunteer/tasks
func (c *VolunteerController) Tasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := c.services.VolunteerService.ListAll(r.Context(), principal(r))
	if err != nil {
		c.responses.WriteError(w, r, err)
		return
	}

	c.responses.WriteSuccess(w, r, tasks)
}
