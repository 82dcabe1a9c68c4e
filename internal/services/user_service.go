// file: internal/services/user_service.go
package services

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"helpinghands/internal/config"
	"helpinghands/internal/events"
	"helpinghands/internal/models"
	"helpinghands/internal/repositories"
	"helpinghands/internal/validation"
)

// userService implements UserService
type userService struct {
	users      repositories.UserRepository
	events     events.EventBus
	bcryptCost int
	logger     *zap.Logger
	now        func() time.Time
}

// NewUserService creates a new user management service
func NewUserService(
	users repositories.UserRepository,
	bus events.EventBus,
	authConfig config.AuthConfig,
	logger *zap.Logger,
) UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	cost := authConfig.BCryptCost
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &userService{
		users:      users,
		events:     bus,
		bcryptCost: cost,
		logger:     logger,
		now:        time.Now,
	}
}

// CreateUser lets an admin create an account of any role
func (s *userService) CreateUser(ctx context.Context, actor models.Principal, req *CreateUserRequest) (*models.User, error) {
	if err := authorize(actor, OpUserCreate); err != nil {
		return nil, err
	}
	if err := validation.ValidateStruct(req); err != nil {
		return nil, NewValidationError("invalid user", err)
	}

	user, err := createAccount(ctx, s.users, s.bcryptCost, s.now, req.Name, req.Email, req.Password, req.Role)
	if err != nil {
		return nil, storeError(s.logger, err, "create user", "user", 0)
	}

	publishEvent(ctx, s.events, s.logger, events.NewUserRegisteredEvent(user.ID, user.Role))

	s.logger.Info("User created by admin",
		zap.Int64("user_id", user.ID),
		zap.String("role", user.Role.String()),
		zap.Int64("created_by", actor.UserID),
	)
	return user, nil
}

// ListUsers returns every account
func (s *userService) ListUsers(ctx context.Context, actor models.Principal) ([]*models.User, error) {
	if err := authorize(actor, OpUserList); err != nil {
		return nil, err
	}

	users, err := s.users.List(ctx)
	if err != nil {
		return nil, storeError(s.logger, err, "list users", "user", 0)
	}
	return users, nil
}

// DeleteUser removes an account. Records that reference the user are kept.
func (s *userService) DeleteUser(ctx context.Context, actor models.Principal, id int64) error {
	if err := authorize(actor, OpUserDelete); err != nil {
		return err
	}

	if err := s.users.Delete(ctx, id); err != nil {
		return storeError(s.logger, err, "delete user", "user", id)
	}

	publishEvent(ctx, s.events, s.logger, events.NewUserDeletedEvent(actor.UserID, id))

	s.logger.Info("User deleted",
		zap.Int64("user_id", id),
		zap.Int64("deleted_by", actor.UserID),
	)
	return nil
}

// GetProfile returns the acting user with badge progress
func (s *userService) GetProfile(ctx context.Context, actor models.Principal) (*Profile, error) {
	if err := authorize(actor, OpUserProfile); err != nil {
		return nil, err
	}

	user, err := s.users.GetByID(ctx, actor.UserID)
	if err != nil {
		return nil, storeError(s.logger, err, "get profile", "user", actor.UserID)
	}

	return &Profile{
		User:     user,
		Progress: models.NextBadge(user.Points),
	}, nil
}
