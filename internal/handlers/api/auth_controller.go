// file: internal/handlers/api/auth_controller.go
package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"helpinghands/internal/models"
	"helpinghands/internal/response"
	"helpinghands/internal/services"
)

// AuthController handles registration and login
type AuthController struct {
	controller
}

// NewAuthController creates a new auth controller
func NewAuthController(sc *services.ServiceCollection, responses *response.Builder, logger *zap.Logger) *AuthController {
	return &AuthController{controller: newController(sc, responses, logger)}
}

// registerBody is the sign-up payload; the role comes from the path
type registerBody struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register handles POST /api/auth/register/{role}
func (c *AuthController) Register(w http.ResponseWriter, r *http.Request) {
	var body registerBody
	if err := c.responses.DecodeJSON(r, &body); err != nil {
		c.responses.WriteError(w, r, err)
		return
	}

	result, err := c.services.AuthService.Register(r.Context(), &services.RegisterRequest{
		Name:     body.Name,
		Email:    body.Email,
		Password: body.Password,
		Role:     models.Role(mux.Vars(r)["role"]),
	})
	if err != nil {
		c.responses.WriteError(w, r, err)
		return
	}

	c.responses.WriteCreated(w, r, result)
}

// Login handles POST /api/auth/login
func (c *AuthController) Login(w http.ResponseWriter, r *http.Request) {
	var req services.LoginRequest
	if err := c.responses.DecodeJSON(r, &req); err != nil {
		c.responses.WriteError(w, r, err)
		return
	}

	result, err := c.services.AuthService.Login(r.Context(), &req)
	if err != nil {
		c.responses.WriteError(w, r, err)
		return
	}

	c.responses.WriteSuccess(w, r, result)
}
