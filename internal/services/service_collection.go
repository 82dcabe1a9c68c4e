// file: internal/services/service_collection.go
package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"helpinghands/internal/appinfo"
	"helpinghands/internal/cache"
	"helpinghands/internal/config"
	"helpinghands/internal/events"
	"helpinghands/internal/repositories"
)

// ServiceCollection holds every service wired over one store
type ServiceCollection struct {
	CampaignService    CampaignService
	DonationService    DonationService
	BeneficiaryService BeneficiaryService
	VolunteerService   VolunteerService
	UserService        UserService
	AuthService        AuthService
	DashboardService   DashboardService

	Tokens *TokenIssuer

	// Infrastructure Components
	Store    repositories.Store
	Cache    cache.Cache
	EventBus events.EventBus
	Logger   *zap.Logger
	Config   *config.Config

	startTime time.Time
}

// ServiceHealth represents the health status of the service collection
type ServiceHealth struct {
	Status       string                   `json:"status"`
	Version      string                   `json:"version"`
	Timestamp    time.Time                `json:"timestamp"`
	Uptime       string                   `json:"uptime"`
	Dependencies map[string]ServiceStatus `json:"dependencies"`
	Events       *events.EventBusStats    `json:"events,omitempty"`
}

// ServiceStatus represents the status of a single dependency
type ServiceStatus struct {
	Name         string `json:"name"`
	Status       string `json:"status"` // healthy, unhealthy
	ResponseTime string `json:"response_time"`
	Error        string `json:"error,omitempty"`
}

// NewServiceCollection wires the services and their event subscriptions
func NewServiceCollection(
	store repositories.Store,
	c cache.Cache,
	bus events.EventBus,
	cfg *config.Config,
	logger *zap.Logger,
) (*ServiceCollection, error) {
	if store == nil {
		return nil, fmt.Errorf("store is required")
	}
	if cfg == nil {
		return nil, fmt.Errorf("configuration is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if bus == nil {
		bus = events.NewInMemoryEventBus(logger)
	}

	sc := &ServiceCollection{
		Store:     store,
		Cache:     c,
		EventBus:  bus,
		Logger:    logger,
		Config:    cfg,
		startTime: time.Now(),
	}

	sc.Tokens = NewTokenIssuer(cfg.Auth)
	sc.CampaignService = NewCampaignService(store, bus, logger.Named("campaigns"))
	sc.DonationService = NewDonationService(store, sc.CampaignService, bus, cfg.Ledger, logger.Named("donations"))
	sc.BeneficiaryService = NewBeneficiaryService(store, bus, logger.Named("beneficiary"))
	sc.VolunteerService = NewVolunteerService(store, bus, cfg.Ledger, logger.Named("volunteer"))
	sc.UserService = NewUserService(store.Users(), bus, cfg.Auth, logger.Named("users"))
	sc.AuthService = NewAuthService(store.Users(), sc.Tokens, bus, cfg.Auth, logger.Named("auth"))
	sc.DashboardService = NewDashboardService(store, sc.DonationService, c, cfg.Cache.TTL, logger.Named("dashboard"))

	if err := RegisterDashboardInvalidation(bus, sc.DashboardService); err != nil {
		return nil, fmt.Errorf("failed to register dashboard invalidation: %w", err)
	}
	if err := registerAuditLog(bus, logger.Named("audit")); err != nil {
		return nil, fmt.Errorf("failed to register audit log: %w", err)
	}

	logger.Info("Service collection initialized")
	return sc, nil
}

// registerAuditLog writes every domain event to the log
func registerAuditLog(bus events.EventBus, logger *zap.Logger) error {
	return bus.SubscribePattern("*", events.NewEventHandlerFunc("audit-log", func(ctx context.Context, event events.Event) error {
		fields := []zap.Field{
			zap.String("event_type", event.GetEventType()),
			zap.String("event_id", event.GetEventID()),
			zap.Time("timestamp", event.GetTimestamp()),
		}
		if userID := event.GetUserID(); userID != nil {
			fields = append(fields, zap.Int64("user_id", *userID))
		}
		logger.Info("Domain event", fields...)
		return nil
	}))
}

// HealthCheck pings the store and the cache
func (sc *ServiceCollection) HealthCheck(ctx context.Context) *ServiceHealth {
	health := &ServiceHealth{
		Status:       "healthy",
		Version:      appinfo.GetVersion(),
		Timestamp:    time.Now().UTC(),
		Uptime:       time.Since(sc.startTime).Round(time.Second).String(),
		Dependencies: make(map[string]ServiceStatus),
		Events:       sc.EventBus.Stats(),
	}

	check := func(name string, fn func(context.Context) error) {
		start := time.Now()
		status := ServiceStatus{Name: name, Status: "healthy"}
		if err := fn(ctx); err != nil {
			status.Status = "unhealthy"
			status.Error = err.Error()
			health.Status = "unhealthy"
		}
		status.ResponseTime = time.Since(start).String()
		health.Dependencies[name] = status
	}

	check("store", sc.Store.Ping)
	if sc.Cache != nil {
		check("cache", sc.Cache.Health)
	}
	return health
}

// Close releases the cache and the store
func (sc *ServiceCollection) Close() error {
	var firstErr error
	if sc.Cache != nil {
		if err := sc.Cache.Close(); err != nil {
			firstErr = err
		}
	}
	if err := sc.Store.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}
