// file: internal/services/dashboard_service.go
package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"helpinghands/internal/cache"
	"helpinghands/internal/events"
	"helpinghands/internal/models"
	"helpinghands/internal/repositories"
)

// Cached aggregates are keyed under the current generation, and Invalidate
// bumps the generation before deleting. A load that read the ledger before
// a commit can only write under the old generation, which nobody reads.
const (
	dashboardKeyPrefix     = "dashboard:"
	dashboardGenerationKey = "dashboard-generation"
	dashboardGenerationTTL = 24 * time.Hour

	dashboardStatsKey    = "stats"
	dashboardTotalsKey   = "campaign_totals"
	dashboardTopDonorKey = "top_donors:%d"
)

// invalidatingEvents are the event types after which cached aggregates may
// be stale
var invalidatingEvents = []string{
	events.TypeDonationRecorded,
	events.TypeBadgeChanged,
	events.TypeTaskApproved,
	events.TypeRequestReviewed,
	events.TypeCampaignChanged,
	events.TypeUserDeleted,
	events.TypeUserRegistered,
}

// dashboardService implements DashboardService
type dashboardService struct {
	store     repositories.Store
	donations DonationService
	cache     cache.Cache
	ttl       time.Duration
	logger    *zap.Logger
}

// NewDashboardService creates a dashboard service whose aggregates are
// cached for ttl
func NewDashboardService(
	store repositories.Store,
	donations DonationService,
	c cache.Cache,
	ttl time.Duration,
	logger *zap.Logger,
) DashboardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &dashboardService{
		store:     store,
		donations: donations,
		cache:     c,
		ttl:       ttl,
		logger:    logger,
	}
}

// RegisterDashboardInvalidation drops cached aggregates whenever the ledger,
// campaigns or users change
func RegisterDashboardInvalidation(bus events.EventBus, dashboard DashboardService) error {
	handler := events.NewEventHandlerFunc("dashboard-cache-invalidation", func(ctx context.Context, event events.Event) error {
		return dashboard.Invalidate(ctx)
	})
	for _, eventType := range invalidatingEvents {
		if err := bus.Subscribe(eventType, handler); err != nil {
			return fmt.Errorf("subscribe %s: %w", eventType, err)
		}
	}
	return nil
}

// Stats returns the headline totals
func (s *dashboardService) Stats(ctx context.Context, actor models.Principal) (*models.DashboardStats, error) {
	if err := authorize(actor, OpDashboardView); err != nil {
		return nil, err
	}

	return cache.GetOrLoad(ctx, s.cache, s.logger, s.key(ctx, dashboardStatsKey), s.ttl, func(ctx context.Context) (*models.DashboardStats, error) {
		total, err := s.donations.TotalDonations(ctx)
		if err != nil {
			return nil, err
		}
		campaigns, err := s.store.Campaigns().Count(ctx)
		if err != nil {
			return nil, storeError(s.logger, err, "count campaigns", "campaign", 0)
		}
		approved, err := s.store.BeneficiaryRequests().CountByStatus(ctx, models.RequestApproved)
		if err != nil {
			return nil, storeError(s.logger, err, "count approved requests", "beneficiary request", 0)
		}

		return &models.DashboardStats{
			TotalDonations:        total,
			TotalCampaigns:        campaigns,
			ApprovedBeneficiaries: approved,
		}, nil
	})
}

// TopDonors returns the donor leaderboard
func (s *dashboardService) TopDonors(ctx context.Context, actor models.Principal, n int) ([]*models.DonorRank, error) {
	if err := authorize(actor, OpDashboardView); err != nil {
		return nil, err
	}

	key := s.key(ctx, fmt.Sprintf(dashboardTopDonorKey, n))
	return cache.GetOrLoad(ctx, s.cache, s.logger, key, s.ttl, func(ctx context.Context) ([]*models.DonorRank, error) {
		return s.donations.TopDonors(ctx, n)
	})
}

// CampaignTotals returns donation sums per campaign
func (s *dashboardService) CampaignTotals(ctx context.Context, actor models.Principal) ([]*models.CampaignTotal, error) {
	if err := authorize(actor, OpDashboardView); err != nil {
		return nil, err
	}

	return cache.GetOrLoad(ctx, s.cache, s.logger, s.key(ctx, dashboardTotalsKey), s.ttl, func(ctx context.Context) ([]*models.CampaignTotal, error) {
		return s.donations.PerCampaignTotals(ctx)
	})
}

// Invalidate moves readers to a fresh generation and drops every cached
// aggregate
func (s *dashboardService) Invalidate(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}

	gen, err := s.cache.Increment(ctx, dashboardGenerationKey, 1, dashboardGenerationTTL)
	if err != nil {
		s.logger.Warn("Failed to advance dashboard cache generation", zap.Error(err))
	}
	if delErr := s.cache.DeletePattern(ctx, dashboardKeyPrefix+"*"); delErr != nil {
		s.logger.Warn("Failed to invalidate dashboard cache", zap.Error(delErr))
		return delErr
	}
	if err != nil {
		return err
	}

	s.logger.Debug("Dashboard cache invalidated", zap.Int64("generation", gen))
	return nil
}

// key scopes suffix to the current cache generation
func (s *dashboardService) key(ctx context.Context, suffix string) string {
	gen := "0"
	if s.cache != nil {
		if raw, ok := s.cache.Get(ctx, dashboardGenerationKey); ok {
			gen = string(raw)
		}
	}
	return dashboardKeyPrefix + "v" + gen + ":" + suffix
}
