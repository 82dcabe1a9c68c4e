// file: internal/handlers/api/controller.go
package api

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"helpinghands/internal/contextutils"
	"helpinghands/internal/models"
	"helpinghands/internal/response"
	"helpinghands/internal/services"
)

// controller carries what every resource controller needs
type controller struct {
	services  *services.ServiceCollection
	responses *response.Builder
	logger    *zap.Logger
}

func newController(sc *services.ServiceCollection, responses *response.Builder, logger *zap.Logger) controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return controller{
		services:  sc,
		responses: responses,
		logger:    logger,
	}
}

// principal returns the authenticated actor, or the zero Principal for
// anonymous requests. Services reject the zero Principal themselves.
func principal(r *http.Request) models.Principal {
	p, _ := contextutils.GetPrincipal(r.Context())
	return p
}

// pathID parses a positive int64 route variable
func pathID(r *http.Request, name string) (int64, error) {
	raw := mux.Vars(r)[name]
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, services.InvalidInputError(name, "must be a positive integer")
	}
	return id, nil
}

// queryInt parses an optional integer query parameter, returning 0 when absent
func queryInt(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, services.InvalidInputError(name, "must be a non-negative integer")
	}
	return n, nil
}
