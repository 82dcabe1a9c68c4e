// file: internal/handlers/api/users_controller.go
package api

import (
	"net/http"

	"go.uber.org/zap"

	"helpinghands/internal/response"
	"helpinghands/internal/services"
)

// UserController handles admin user management and the caller's profile
type UserController struct {
	controller
}

// NewUserController creates a new user controller
func NewUserController(sc *services.ServiceCollection, responses *response.Builder, logger *zap.Logger) *UserController {
	return &UserController{controller: newController(sc, responses, logger)}
}

// Create handles POST /api/users/create
func (c *UserController) Create(w http.ResponseWriter, r *http.Request) {
	var req services.CreateUserRequest
	if err := c.responses.DecodeJSON(r, &req); err != nil {
		c.responses.WriteError(w, r, err)
		return
	}

	user, err := c.services.UserService.CreateUser(r.Context(), principal(r), &req)
	if err != nil {
		c.responses.WriteError(w, r, err)
		return
	}

	c.responses.WriteCreated(w, r, user)
}

// List handles GET /api/users
func (c *UserController) List(w http.ResponseWriter, r *http.Request) {
	users, err := c.services.UserService.ListUsers(r.Context(), principal(r))
	if err != nil {
		c.responses.WriteError(w, r, err)
		return
	}

	c.responses.WriteSuccess(w, r, users)
}

// Delete handles DELETE /api/users/{id}
func (c *UserController) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		c.responses.WriteError(w, r, err)
		return
	}

	if err := c.services.UserService.DeleteUser(r.Context(), principal(r), id); err != nil {
		c.responses.WriteError(w, r, err)
		return
	}

	c.responses.WriteSuccess(w, r, map[string]interface{}{"deleted": true, "id": id})
}

// Profile handles GET /api/users/me
func (c *UserController) Profile(w http.ResponseWriter, r *http.Request) {
	profile, err := c.services.UserService.GetProfile(r.Context(), principal(r))
	if err != nil {
		c.responses.WriteError(w, r, err)
		return
	}

	c.responses.WriteSuccess(w, r, profile)
}
