// file: internal/services/campaign_service.go
package services

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"helpinghands/internal/events"
	"helpinghands/internal/models"
	"helpinghands/internal/repositories"
	"helpinghands/internal/validation"
)

// campaignService implements CampaignService
type campaignService struct {
	store  repositories.Store
	events events.EventBus
	logger *zap.Logger
	now    func() time.Time
}

// NewCampaignService creates a new campaign service
func NewCampaignService(store repositories.Store, bus events.EventBus, logger *zap.Logger) CampaignService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &campaignService{
		store:  store,
		events: bus,
		logger: logger,
		now:    time.Now,
	}
}

// ===============================
// LIFECYCLE
// ===============================

// Create opens a new active campaign with nothing collected
func (s *campaignService) Create(ctx context.Context, actor models.Principal, req *CreateCampaignRequest) (*models.Campaign, error) {
	if err := authorize(actor, OpCampaignCreate); err != nil {
		return nil, err
	}
	if err := validation.ValidateStruct(req); err != nil {
		return nil, NewValidationError("invalid campaign", err)
	}

	campaign := &models.Campaign{
		Title:           req.Title,
		Category:        req.Category,
		Description:     req.Description,
		TargetAmount:    req.TargetAmount,
		CollectedAmount: 0,
		Status:          models.CampaignActive,
		CreatedBy:       actor.UserID,
		CreatedAt:       s.now().UTC(),
	}

	if err := s.store.Campaigns().Create(ctx, campaign); err != nil {
		return nil, storeError(s.logger, err, "create campaign", "campaign", 0)
	}

	s.publish(ctx, events.NewCampaignChangedEvent(actor.UserID, campaign.ID, events.CampaignActionCreated))

	s.logger.Info("Campaign created",
		zap.Int64("campaign_id", campaign.ID),
		zap.String("category", string(campaign.Category)),
		zap.Int64("target_amount", campaign.TargetAmount),
	)
	return campaign, nil
}

// Get returns a single campaign
func (s *campaignService) Get(ctx context.Context, id int64) (*models.Campaign, error) {
	campaign, err := s.store.Campaigns().GetByID(ctx, id)
	if err != nil {
		return nil, storeError(s.logger, err, "get campaign", "campaign", id)
	}
	return campaign, nil
}

// ListActive returns the campaigns currently accepting donations
func (s *campaignService) ListActive(ctx context.Context) ([]*models.Campaign, error) {
	status := models.CampaignActive
	campaigns, err := s.store.Campaigns().List(ctx, repositories.CampaignFilter{Status: &status})
	if err != nil {
		return nil, storeError(s.logger, err, "list campaigns", "campaign", 0)
	}
	return campaigns, nil
}

// ListAll returns every campaign including closed ones
func (s *campaignService) ListAll(ctx context.Context, actor models.Principal) ([]*models.Campaign, error) {
	if err := authorize(actor, OpCampaignAll); err != nil {
		return nil, err
	}
	campaigns, err := s.store.Campaigns().List(ctx, repositories.CampaignFilter{})
	if err != nil {
		return nil, storeError(s.logger, err, "list campaigns", "campaign", 0)
	}
	return campaigns, nil
}

// Update merges the non-nil patch fields. The collected total is never
// touched here.
func (s *campaignService) Update(ctx context.Context, actor models.Principal, id int64, req *UpdateCampaignRequest) (*models.Campaign, error) {
	if err := authorize(actor, OpCampaignUpdate); err != nil {
		return nil, err
	}
	if err := validation.ValidateStruct(req); err != nil {
		return nil, NewValidationError("invalid campaign update", err)
	}

	var updated *models.Campaign
	err := s.store.WithTransaction(ctx, func(tx repositories.Store) error {
		campaign, err := tx.Campaigns().GetByID(ctx, id)
		if err != nil {
			return err
		}

		if req.Title != nil {
			campaign.Title = *req.Title
		}
		if req.Category != nil {
			campaign.Category = *req.Category
		}
		if req.Description != nil {
			campaign.Description = *req.Description
		}
		if req.TargetAmount != nil {
			campaign.TargetAmount = *req.TargetAmount
		}
		if req.Status != nil {
			campaign.Status = *req.Status
		}

		if err := tx.Campaigns().Update(ctx, campaign); err != nil {
			return err
		}
		updated = campaign
		return nil
	})
	if err != nil {
		return nil, storeError(s.logger, err, "update campaign", "campaign", id)
	}

	s.publish(ctx, events.NewCampaignChangedEvent(actor.UserID, id, events.CampaignActionUpdated))

	s.logger.Info("Campaign updated",
		zap.Int64("campaign_id", id),
		zap.String("status", string(updated.Status)),
	)
	return updated, nil
}

// Delete removes a campaign. Donations and requests that reference it are
// kept and resolve to a missing campaign from then on.
func (s *campaignService) Delete(ctx context.Context, actor models.Principal, id int64) error {
	if err := authorize(actor, OpCampaignDelete); err != nil {
		return err
	}

	if err := s.store.Campaigns().Delete(ctx, id); err != nil {
		return storeError(s.logger, err, "delete campaign", "campaign", id)
	}

	s.publish(ctx, events.NewCampaignChangedEvent(actor.UserID, id, events.CampaignActionDeleted))

	s.logger.Info("Campaign deleted", zap.Int64("campaign_id", id))
	return nil
}

// ApplyDonation adds amount to an active campaign inside tx
func (s *campaignService) ApplyDonation(ctx context.Context, tx repositories.Store, campaignID, amount int64) (*models.Campaign, error) {
	if amount <= 0 {
		return nil, InvalidInputError("amount", "must be greater than 0")
	}

	campaign, err := tx.Campaigns().IncrementCollected(ctx, campaignID, amount)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, NewInvalidStateError("campaign is not accepting donations", CodeInvalidCampaign).
			WithDetail("campaign_id", campaignID)
	}
	if err != nil {
		return nil, err
	}
	return campaign, nil
}

func (s *campaignService) publish(ctx context.Context, event events.Event) {
	publishEvent(ctx, s.events, s.logger, event)
}
