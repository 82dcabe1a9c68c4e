// file: internal/services/beneficiary_service.go
package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"helpinghands/internal/events"
	"helpinghands/internal/models"
	"helpinghands/internal/repositories"
	"helpinghands/internal/validation"
)

// beneficiaryService implements BeneficiaryService
type beneficiaryService struct {
	store  repositories.Store
	events events.EventBus
	logger *zap.Logger
	now    func() time.Time
}

// NewBeneficiaryService creates a new beneficiary request service
func NewBeneficiaryService(store repositories.Store, bus events.EventBus, logger *zap.Logger) BeneficiaryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &beneficiaryService{
		store:  store,
		events: bus,
		logger: logger,
		now:    time.Now,
	}
}

// parseReviewAction accepts the terminal statuses a review may set
func parseReviewAction(action string) (models.RequestStatus, bool) {
	switch models.RequestStatus(strings.ToLower(strings.TrimSpace(action))) {
	case models.RequestApproved:
		return models.RequestApproved, true
	case models.RequestRejected:
		return models.RequestRejected, true
	}
	return "", false
}

// ===============================
// WORKFLOW
// ===============================

// Submit files a pending request against an existing campaign
func (s *beneficiaryService) Submit(ctx context.Context, actor models.Principal, req *SubmitBeneficiaryRequest) (*models.BeneficiaryRequest, error) {
	if err := authorize(actor, OpBeneficiarySubmit); err != nil {
		return nil, err
	}
	if err := validation.ValidateStruct(req); err != nil {
		return nil, NewValidationError("invalid beneficiary request", err)
	}

	request := &models.BeneficiaryRequest{
		BeneficiaryID:  actor.UserID,
		CampaignID:     req.CampaignID,
		RequestMessage: req.RequestMessage,
		DocumentURL:    req.DocumentURL,
		Status:         models.RequestPending,
		CreatedAt:      s.now().UTC(),
	}

	err := s.store.WithTransaction(ctx, func(tx repositories.Store) error {
		if _, err := tx.Campaigns().GetByID(ctx, req.CampaignID); err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return NewInvalidStateError("campaign does not exist", CodeInvalidCampaign).
					WithDetail("campaign_id", req.CampaignID)
			}
			return err
		}
		return tx.BeneficiaryRequests().Create(ctx, request)
	})
	if err != nil {
		return nil, storeError(s.logger, err, "submit beneficiary request", "campaign", req.CampaignID)
	}

	publishEvent(ctx, s.events, s.logger, events.NewRequestSubmittedEvent(request))

	s.logger.Info("Beneficiary request submitted",
		zap.Int64("request_id", request.ID),
		zap.Int64("beneficiary_id", request.BeneficiaryID),
		zap.Int64("campaign_id", request.CampaignID),
	)
	return request, nil
}

// Review moves a pending request to approved or rejected. A request can be
// reviewed once.
func (s *beneficiaryService) Review(ctx context.Context, actor models.Principal, req *ReviewBeneficiaryRequest) (*models.BeneficiaryRequest, error) {
	if err := authorize(actor, OpBeneficiaryReview); err != nil {
		return nil, err
	}
	if err := validation.ValidateStruct(req); err != nil {
		return nil, NewValidationError("invalid review", err)
	}

	status, ok := parseReviewAction(req.Action)
	if !ok {
		return nil, NewInvalidStateError("action must be approved or rejected", CodeInvalidReviewAction).
			WithDetail("action", req.Action)
	}

	var reviewed *models.BeneficiaryRequest
	err := s.store.WithTransaction(ctx, func(tx repositories.Store) error {
		current, err := tx.BeneficiaryRequests().GetByID(ctx, req.RequestID)
		if err != nil {
			return err
		}
		if current.Status.IsTerminal() {
			return alreadyReviewed(current)
		}

		reviewed, err = tx.BeneficiaryRequests().Review(ctx, req.RequestID, status, actor.UserID, s.now().UTC())
		if errors.Is(err, repositories.ErrStale) {
			return alreadyReviewed(current)
		}
		return err
	})
	if err != nil {
		return nil, storeError(s.logger, err, "review beneficiary request", "beneficiary request", req.RequestID)
	}

	publishEvent(ctx, s.events, s.logger, events.NewRequestReviewedEvent(actor.UserID, reviewed))

	s.logger.Info("Beneficiary request reviewed",
		zap.Int64("request_id", reviewed.ID),
		zap.String("status", string(reviewed.Status)),
		zap.Int64("reviewed_by", actor.UserID),
	)
	return reviewed, nil
}

func alreadyReviewed(req *models.BeneficiaryRequest) *ServiceError {
	return NewInvalidStateError("request has already been reviewed", CodeAlreadyReviewed).
		WithDetail("request_id", req.ID).
		WithDetail("status", string(req.Status))
}

// ===============================
// LISTINGS
// ===============================

// ListPending returns requests awaiting review
func (s *beneficiaryService) ListPending(ctx context.Context, actor models.Principal) ([]*models.BeneficiaryRequestView, error) {
	if err := authorize(actor, OpBeneficiaryPending); err != nil {
		return nil, err
	}
	status := models.RequestPending
	return s.list(ctx, repositories.RequestFilter{Status: &status})
}

// ListMine returns the acting beneficiary's requests
func (s *beneficiaryService) ListMine(ctx context.Context, actor models.Principal) ([]*models.BeneficiaryRequestView, error) {
	if err := authorize(actor, OpBeneficiaryMine); err != nil {
		return nil, err
	}
	beneficiaryID := actor.UserID
	return s.list(ctx, repositories.RequestFilter{BeneficiaryID: &beneficiaryID})
}

// ListAll returns requests in every state
func (s *beneficiaryService) ListAll(ctx context.Context, actor models.Principal) ([]*models.BeneficiaryRequestView, error) {
	if err := authorize(actor, OpBeneficiaryAll); err != nil {
		return nil, err
	}
	return s.list(ctx, repositories.RequestFilter{})
}

func (s *beneficiaryService) list(ctx context.Context, filter repositories.RequestFilter) ([]*models.BeneficiaryRequestView, error) {
	requests, err := s.store.BeneficiaryRequests().List(ctx, filter)
	if err != nil {
		return nil, storeError(s.logger, err, "list beneficiary requests", "beneficiary request", 0)
	}

	views, err := requestViews(ctx, s.store, requests)
	if err != nil {
		return nil, storeError(s.logger, err, "resolve request references", "beneficiary request", 0)
	}
	return views, nil
}
