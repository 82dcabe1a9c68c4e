// file: internal/services/donation_service.go
package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"helpinghands/internal/config"
	"helpinghands/internal/events"
	"helpinghands/internal/models"
	"helpinghands/internal/repositories"
	"helpinghands/internal/validation"
)

// donationService implements DonationService
type donationService struct {
	store     repositories.Store
	campaigns CampaignService
	events    events.EventBus
	policy    config.LedgerConfig
	logger    *zap.Logger
	now       func() time.Time
}

// NewDonationService creates a new donation ledger service
func NewDonationService(
	store repositories.Store,
	campaigns CampaignService,
	bus events.EventBus,
	policy config.LedgerConfig,
	logger *zap.Logger,
) DonationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if policy.MinDonationAmount < 1 {
		policy.MinDonationAmount = 1
	}
	return &donationService{
		store:     store,
		campaigns: campaigns,
		events:    bus,
		policy:    policy,
		logger:    logger,
		now:       time.Now,
	}
}

// ===============================
// LEDGER WRITES
// ===============================

// MakeDonation records a donation, credits the campaign and awards the donor
// points in one transaction. Nothing is written when any step fails.
func (s *donationService) MakeDonation(ctx context.Context, actor models.Principal, req *MakeDonationRequest) (*DonationResult, error) {
	if err := authorize(actor, OpDonationMake); err != nil {
		return nil, err
	}
	if err := validation.ValidateStruct(req); err != nil {
		return nil, NewValidationError("invalid donation", err)
	}
	if req.Amount < s.policy.MinDonationAmount {
		return nil, InvalidInputError("amount", fmt.Sprintf("must be at least %d", s.policy.MinDonationAmount))
	}
	if s.policy.MaxDonationAmount > 0 && req.Amount > s.policy.MaxDonationAmount {
		return nil, InvalidInputError("amount", fmt.Sprintf("must not exceed %d", s.policy.MaxDonationAmount))
	}

	donation := &models.Donation{
		DonorID:       actor.UserID,
		CampaignID:    req.CampaignID,
		Amount:        req.Amount,
		PointsEarned:  models.PointsForAmount(req.Amount),
		PaymentStatus: models.PaymentSuccess,
		DonatedAt:     s.now().UTC(),
	}

	var award *pointsAward
	err := s.store.WithTransaction(ctx, func(tx repositories.Store) error {
		if _, err := s.campaigns.ApplyDonation(ctx, tx, req.CampaignID, req.Amount); err != nil {
			return err
		}
		if err := tx.Donations().Create(ctx, donation); err != nil {
			return err
		}

		var err error
		award, err = awardPoints(ctx, tx.Users(), actor.UserID, donation.PointsEarned)
		if err != nil {
			return fmt.Errorf("award donor points: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, storeError(s.logger, err, "record donation", "donor", actor.UserID)
	}

	publishEvent(ctx, s.events, s.logger, events.NewDonationRecordedEvent(donation))
	if award.BadgeChanged() {
		publishEvent(ctx, s.events, s.logger, events.NewBadgeChangedEvent(
			actor.UserID, award.PreviousBadge, award.User.Badge, award.User.Points,
		))
	}

	s.logger.Info("Donation recorded",
		zap.Int64("donation_id", donation.ID),
		zap.Int64("donor_id", donation.DonorID),
		zap.Int64("campaign_id", donation.CampaignID),
		zap.Int64("amount", donation.Amount),
		zap.Int64("points_earned", donation.PointsEarned),
		zap.String("badge", award.User.Badge.String()),
	)

	return &DonationResult{
		Donation:     donation,
		TotalPoints:  award.User.Points,
		Badge:        award.User.Badge,
		BadgeChanged: award.BadgeChanged(),
	}, nil
}

// ===============================
// LEDGER READS
// ===============================

// History returns the acting donor's donations, newest first
func (s *donationService) History(ctx context.Context, actor models.Principal) ([]*models.DonationView, error) {
	if err := authorize(actor, OpDonationHistory); err != nil {
		return nil, err
	}

	donorID := actor.UserID
	return s.list(ctx, repositories.DonationFilter{DonorID: &donorID})
}

// ListAll returns every donation, newest first
func (s *donationService) ListAll(ctx context.Context, actor models.Principal) ([]*models.DonationView, error) {
	if err := authorize(actor, OpDonationAll); err != nil {
		return nil, err
	}
	return s.list(ctx, repositories.DonationFilter{})
}

func (s *donationService) list(ctx context.Context, filter repositories.DonationFilter) ([]*models.DonationView, error) {
	donations, err := s.store.Donations().List(ctx, filter)
	if err != nil {
		return nil, storeError(s.logger, err, "list donations", "donation", 0)
	}

	views, err := donationViews(ctx, s.store, donations)
	if err != nil {
		return nil, storeError(s.logger, err, "resolve donation references", "donation", 0)
	}
	return views, nil
}

// Receipt builds a receipt snapshot for one donation. Donors may only see
// their own receipts. IssuedAt is the time of this call.
func (s *donationService) Receipt(ctx context.Context, actor models.Principal, donationID int64) (*models.Receipt, error) {
	if err := authorize(actor, OpDonationReceipt); err != nil {
		return nil, err
	}

	donation, err := s.store.Donations().GetByID(ctx, donationID)
	if err != nil {
		return nil, storeError(s.logger, err, "get donation", "donation", donationID)
	}

	if actor.Is(models.RoleDonor) && donation.DonorID != actor.UserID {
		return nil, NewForbiddenError("receipt belongs to another donor", CodeNotOwner)
	}

	views, err := donationViews(ctx, s.store, []*models.Donation{donation})
	if err != nil {
		return nil, storeError(s.logger, err, "resolve donation references", "donation", donationID)
	}
	view := views[0]

	receipt := &models.Receipt{
		ReceiptID:    donation.ID,
		Amount:       donation.Amount,
		PointsEarned: donation.PointsEarned,
		DonatedAt:    donation.DonatedAt,
		IssuedAt:     s.now().UTC(),
	}
	if view.Donor != nil {
		receipt.DonorName = view.Donor.Name
		receipt.DonorEmail = view.Donor.Email
	}
	if view.Campaign != nil {
		receipt.Campaign = view.Campaign.Title
		receipt.Category = view.Campaign.Category
	}
	return receipt, nil
}

// ===============================
// AGGREGATES
// ===============================

// TotalDonations sums every donation amount
func (s *donationService) TotalDonations(ctx context.Context) (int64, error) {
	total, err := s.store.Donations().SumAmount(ctx)
	if err != nil {
		return 0, storeError(s.logger, err, "sum donations", "donation", 0)
	}
	return total, nil
}

// TopDonors returns up to n donors by points. n <= 0 uses the configured
// default and n is capped at the configured maximum.
func (s *donationService) TopDonors(ctx context.Context, n int) ([]*models.DonorRank, error) {
	n = s.clampTop(n)

	users, err := s.store.Users().TopByPoints(ctx, models.RoleDonor, n)
	if err != nil {
		return nil, storeError(s.logger, err, "rank donors", "user", 0)
	}

	ranks := make([]*models.DonorRank, 0, len(users))
	for _, u := range users {
		ranks = append(ranks, &models.DonorRank{
			UserID: u.ID,
			Name:   u.Name,
			Points: u.Points,
			Badge:  u.Badge,
		})
	}
	return ranks, nil
}

func (s *donationService) clampTop(n int) int {
	if n <= 0 {
		n = s.policy.TopDonorsDefault
	}
	if n <= 0 {
		n = 5
	}
	if s.policy.TopDonorsMax > 0 && n > s.policy.TopDonorsMax {
		n = s.policy.TopDonorsMax
	}
	return n
}

// PerCampaignTotals sums donations per campaign, largest first
func (s *donationService) PerCampaignTotals(ctx context.Context) ([]*models.CampaignTotal, error) {
	totals, err := s.store.Donations().TotalsByCampaign(ctx)
	if err != nil {
		return nil, storeError(s.logger, err, "total donations by campaign", "donation", 0)
	}
	return totals, nil
}
