// file: internal/services/volunteer_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"helpinghands/internal/config"
	"helpinghands/internal/events"
	"helpinghands/internal/models"
	"helpinghands/internal/repositories"
	"helpinghands/internal/validation"
)

// volunteerService implements VolunteerService
type volunteerService struct {
	store  repositories.Store
	events events.EventBus
	policy config.LedgerConfig
	logger *zap.Logger
	now    func() time.Time
}

// NewVolunteerService creates a new volunteer task service. A zero
// policy.MaxTaskPoints leaves approvals bounded only by counter overflow.
func NewVolunteerService(store repositories.Store, bus events.EventBus, policy config.LedgerConfig, logger *zap.Logger) VolunteerService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &volunteerService{
		store:  store,
		events: bus,
		policy: policy,
		logger: logger,
		now:    time.Now,
	}
}

// ===============================
// WORKFLOW
// ===============================

// Assign creates a task for a volunteer
func (s *volunteerService) Assign(ctx context.Context, actor models.Principal, req *AssignTaskRequest) (*models.VolunteerTask, error) {
	if err := authorize(actor, OpVolunteerAssign); err != nil {
		return nil, err
	}
	if err := validation.ValidateStruct(req); err != nil {
		return nil, NewValidationError("invalid task", err)
	}

	task := &models.VolunteerTask{
		VolunteerID:  req.VolunteerID,
		Title:        req.Title,
		Description:  req.Description,
		PointsEarned: 0,
		Status:       models.TaskAssigned,
		AssignedBy:   actor.UserID,
		CreatedAt:    s.now().UTC(),
	}

	err := s.store.WithTransaction(ctx, func(tx repositories.Store) error {
		volunteer, err := tx.Users().GetByID(ctx, req.VolunteerID)
		if err != nil {
			return err
		}
		if volunteer.Role != models.RoleVolunteer {
			return InvalidInputError("volunteer_id", fmt.Sprintf("user %d is not a volunteer", req.VolunteerID))
		}
		return tx.VolunteerTasks().Create(ctx, task)
	})
	if err != nil {
		return nil, storeError(s.logger, err, "assign task", "volunteer", req.VolunteerID)
	}

	publishEvent(ctx, s.events, s.logger, events.NewTaskAssignedEvent(actor.UserID, task))

	s.logger.Info("Volunteer task assigned",
		zap.Int64("task_id", task.ID),
		zap.Int64("volunteer_id", task.VolunteerID),
		zap.Int64("assigned_by", task.AssignedBy),
	)
	return task, nil
}

// SubmitReport records the assigned volunteer's report. Reports may be
// replaced until the task is approved.
func (s *volunteerService) SubmitReport(ctx context.Context, actor models.Principal, req *SubmitReportRequest) (*models.VolunteerTask, error) {
	if err := authorize(actor, OpVolunteerSubmit); err != nil {
		return nil, err
	}
	if err := validation.ValidateStruct(req); err != nil {
		return nil, NewValidationError("invalid report", err)
	}

	var submitted *models.VolunteerTask
	err := s.store.WithTransaction(ctx, func(tx repositories.Store) error {
		current, err := tx.VolunteerTasks().GetByID(ctx, req.TaskID)
		if err != nil {
			return err
		}
		if current.VolunteerID != actor.UserID {
			return NewForbiddenError("task is assigned to another volunteer", CodeNotOwner)
		}
		if current.Status == models.TaskApproved {
			return taskAlreadyApproved(current)
		}

		submitted, err = tx.VolunteerTasks().SubmitReport(ctx, req.TaskID, req.ReportURL)
		if errors.Is(err, repositories.ErrStale) {
			return taskAlreadyApproved(current)
		}
		return err
	})
	if err != nil {
		return nil, storeError(s.logger, err, "submit report", "volunteer task", req.TaskID)
	}

	s.logger.Info("Volunteer report submitted",
		zap.Int64("task_id", submitted.ID),
		zap.Int64("volunteer_id", submitted.VolunteerID),
	)
	return submitted, nil
}

// Approve closes a submitted task and credits its points to the volunteer in
// the same transaction.
func (s *volunteerService) Approve(ctx context.Context, actor models.Principal, req *ApproveTaskRequest) (*TaskApprovalResult, error) {
	if err := authorize(actor, OpVolunteerApprove); err != nil {
		return nil, err
	}
	if err := validation.ValidateStruct(req); err != nil {
		return nil, NewValidationError("invalid approval", err)
	}
	if s.policy.MaxTaskPoints > 0 && req.Points > s.policy.MaxTaskPoints {
		return nil, InvalidInputError("points", fmt.Sprintf("must not exceed %d", s.policy.MaxTaskPoints))
	}

	var (
		approved *models.VolunteerTask
		award    *pointsAward
	)
	err := s.store.WithTransaction(ctx, func(tx repositories.Store) error {
		current, err := tx.VolunteerTasks().GetByID(ctx, req.TaskID)
		if err != nil {
			return err
		}
		switch current.Status {
		case models.TaskApproved:
			return taskAlreadyApproved(current)
		case models.TaskAssigned:
			return NewInvalidStateError("task has no submitted report", CodeTaskNotSubmitted).
				WithDetail("task_id", current.ID)
		}

		approved, err = tx.VolunteerTasks().Approve(ctx, req.TaskID, req.Points)
		if errors.Is(err, repositories.ErrStale) {
			return taskAlreadyApproved(current)
		}
		if err != nil {
			return err
		}

		award, err = awardPoints(ctx, tx.Users(), approved.VolunteerID, req.Points)
		if errors.Is(err, repositories.ErrNotFound) {
			return EntityNotFoundError("volunteer", approved.VolunteerID)
		}
		if err != nil {
			return fmt.Errorf("award volunteer points: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, storeError(s.logger, err, "approve task", "volunteer task", req.TaskID)
	}

	publishEvent(ctx, s.events, s.logger, events.NewTaskApprovedEvent(actor.UserID, approved))
	if award.BadgeChanged() {
		publishEvent(ctx, s.events, s.logger, events.NewBadgeChangedEvent(
			approved.VolunteerID, award.PreviousBadge, award.User.Badge, award.User.Points,
		))
	}

	s.logger.Info("Volunteer task approved",
		zap.Int64("task_id", approved.ID),
		zap.Int64("volunteer_id", approved.VolunteerID),
		zap.Int64("points", approved.PointsEarned),
		zap.String("badge", award.User.Badge.String()),
	)

	return &TaskApprovalResult{
		Task:         approved,
		TotalPoints:  award.User.Points,
		Badge:        award.User.Badge,
		BadgeChanged: award.BadgeChanged(),
	}, nil
}

func taskAlreadyApproved(task *models.VolunteerTask) *ServiceError {
	return NewInvalidStateError("task has already been approved", CodeTaskAlreadyApproved).
		WithDetail("task_id", task.ID)
}

// ===============================
// LISTINGS
// ===============================

// ListMine returns the acting volunteer's tasks, newest first
func (s *volunteerService) ListMine(ctx context.Context, actor models.Principal) ([]*models.VolunteerTaskView, error) {
	if err := authorize(actor, OpVolunteerMine); err != nil {
		return nil, err
	}
	volunteerID := actor.UserID
	return s.list(ctx, repositories.TaskFilter{VolunteerID: &volunteerID})
}

// ListAll returns every task, newest first
func (s *volunteerService) ListAll(ctx context.Context, actor models.Principal) ([]*models.VolunteerTaskView, error) {
	if err := authorize(actor, OpVolunteerAll); err != nil {
		return nil, err
	}
	return s.list(ctx, repositories.TaskFilter{})
}

func (s *volunteerService) list(ctx context.Context, filter repositories.TaskFilter) ([]*models.VolunteerTaskView, error) {
	tasks, err := s.store.VolunteerTasks().List(ctx, filter)
	if err != nil {
		return nil, storeError(s.logger, err, "list tasks", "volunteer task", 0)
	}

	views, err := taskViews(ctx, s.store, tasks)
	if err != nil {
		return nil, storeError(s.logger, err, "resolve task references", "volunteer task", 0)
	}
	return views, nil
}
