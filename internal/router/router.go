// file: internal/router/router.go
package router

import (
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"helpinghands/internal/handlers/api"
	"helpinghands/internal/middleware"
	"helpinghands/internal/response"
	"helpinghands/internal/services"
)

// SetupRouter configures all HTTP routes and returns the main handler.
// Authorization by role happens in the services; the router only decides
// whether a bearer token is required.
func SetupRouter(sc *services.ServiceCollection, responses *response.Builder, logger *zap.Logger) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg := sc.Config

	authenticator := middleware.NewAuthenticator(sc.AuthService, responses, logger.Named("auth"))
	requireAuth := authenticator.RequireAuth()

	authController := api.NewAuthController(sc, responses, logger)
	campaignController := api.NewCampaignController(sc, responses, logger)
	donationController := api.NewDonationController(sc, responses, logger)
	beneficiaryController := api.NewBeneficiaryController(sc, responses, logger)
	volunteerController := api.NewVolunteerController(sc, responses, logger)
	dashboardController := api.NewDashboardController(sc, responses, logger)
	userController := api.NewUserController(sc, responses, logger)
	healthController := api.NewHealthController(sc, responses, logger)

	clientIP, err := middleware.NewClientIPResolver(cfg.Server.TrustedProxies)
	if err != nil {
		logger.Warn("Ignoring trusted proxy list", zap.Error(err))
		clientIP = nil
	}

	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		responses.WriteError(w, req, services.NewNotFoundError("route not found"))
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		responses.WriteError(w, req, &services.ServiceError{
			Type:       services.ErrTypeValidation,
			Message:    "method not allowed",
			StatusCode: http.StatusMethodNotAllowed,
		})
	})

	r.HandleFunc("/health", healthController.Health).Methods(http.MethodGet)

	apiRouter := r.PathPrefix("/api").Subrouter()

	// ===============================
	// AUTH (public, rate limited)
	// ===============================

	authRouter := apiRouter.PathPrefix("/auth").Subrouter()
	if sc.Cache != nil && cfg.Server.AuthRateLimit > 0 {
		limiter := middleware.NewRateLimiter(sc.Cache, &middleware.RateLimiterConfig{
			Limit:     cfg.Server.AuthRateLimit,
			Window:    cfg.Server.AuthRateWindow,
			KeyPrefix: "ratelimit:auth",
			FailOpen:  true,
			ClientIP:  clientIP,
		}, responses, logger.Named("ratelimit"))
		authRouter.Use(limiter.Middleware)
	}
	authRouter.HandleFunc("/login", authController.Login).Methods(http.MethodPost)
	authRouter.HandleFunc("/register/{role}", authController.Register).Methods(http.MethodPost)

	// ===============================
	// CAMPAIGNS
	// ===============================

	campaigns := apiRouter.PathPrefix("/campaigns").Subrouter()
	campaigns.Handle("", authenticator.OptionalAuth()(http.HandlerFunc(campaignController.List))).Methods(http.MethodGet)
	campaigns.Handle("/", authenticator.OptionalAuth()(http.HandlerFunc(campaignController.List))).Methods(http.MethodGet)
	campaigns.HandleFunc("/{id:[0-9]+}", campaignController.Get).Methods(http.MethodGet)
	campaigns.Handle("/create", requireAuth(http.HandlerFunc(campaignController.Create))).Methods(http.MethodPost)
	campaigns.Handle("/{id:[0-9]+}", requireAuth(http.HandlerFunc(campaignController.Update))).Methods(http.MethodPut)
	campaigns.Handle("/{id:[0-9]+}", requireAuth(http.HandlerFunc(campaignController.Delete))).Methods(http.MethodDelete)

	// ===============================
	// AUTHENTICATED RESOURCES
	// ===============================

	donations := apiRouter.PathPrefix("/donations").Subrouter()
	donations.Use(requireAuth)
	donations.HandleFunc("", donationController.Make).Methods(http.MethodPost)
	donations.HandleFunc("/", donationController.Make).Methods(http.MethodPost)
	donations.HandleFunc("/my", donationController.History).Methods(http.MethodGet)
	donations.HandleFunc("/all", donationController.ListAll).Methods(http.MethodGet)
	donations.HandleFunc("/receipt/{id}", donationController.Receipt).Methods(http.MethodGet)

	beneficiary := apiRouter.PathPrefix("/beneficiary").Subrouter()
	beneficiary.Use(requireAuth)
	beneficiary.HandleFunc("/submit", beneficiaryController.Submit).Methods(http.MethodPost)
	beneficiary.HandleFunc("/review", beneficiaryController.Review).Methods(http.MethodPost)
	beneficiary.HandleFunc("/pending", beneficiaryController.Pending).Methods(http.MethodGet)
	beneficiary.HandleFunc("/my-requests", beneficiaryController.Mine).Methods(http.MethodGet)
	beneficiary.HandleFunc("/all", beneficiaryController.All).Methods(http.MethodGet)

	volunteer := apiRouter.PathPrefix("/volunteer").Subrouter()
	volunteer.Use(requireAuth)
	volunteer.HandleFunc("/assign", volunteerController.Assign).Methods(http.MethodPost)
	volunteer.HandleFunc("/submit", volunteerController.Submit).Methods(http.MethodPost)
	volunteer.HandleFunc("/approve", volunteerController.Approve).Methods(http.MethodPost)
	volunteer.HandleFunc("/my-tasks", volunteerController.MyTasks).Methods(http.MethodGet)
	volunteer.HandleFunc("/tasks", volunteerController.Tasks).Methods(http.MethodGet)

	dashboard := apiRouter.PathPrefix("/dashboard").Subrouter()
	dashboard.Use(requireAuth)
	dashboard.HandleFunc("/stats", dashboardController.Stats).Methods(http.MethodGet)
	dashboard.HandleFunc("/leaderboard", dashboardController.Leaderboard).Methods(http.MethodGet)
	dashboard.HandleFunc("/campaign-stats", dashboardController.CampaignStats).Methods(http.MethodGet)

	users := apiRouter.PathPrefix("/users").Subrouter()
	users.Use(requireAuth)
	users.HandleFunc("", userController.List).Methods(http.MethodGet)
	users.HandleFunc("/", userController.List).Methods(http.MethodGet)
	users.HandleFunc("/me", userController.Profile).Methods(http.MethodGet)
	users.HandleFunc("/create", userController.Create).Methods(http.MethodPost)
	users.HandleFunc("/{id}", userController.Delete).Methods(http.MethodDelete)

	loggingConfig := middleware.DefaultLoggingConfig()
	loggingConfig.ClientIP = clientIP

	return middleware.Chain(r,
		middleware.RequestID(logger),
		middleware.Recovery(responses, logger),
		middleware.StructuredLogger(loggingConfig, logger),
		middleware.SecureHeaders,
		middleware.CORS(middleware.DefaultCORSConfig(cfg.Server.CORSOrigins), logger),
	)
}
