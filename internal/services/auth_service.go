// file: internal/services/auth_service.go
package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"helpinghands/internal/config"
	"helpinghands/internal/events"
	"helpinghands/internal/models"
	"helpinghands/internal/repositories"
	"helpinghands/internal/validation"
)

// authService implements AuthService
type authService struct {
	users      repositories.UserRepository
	tokens     *TokenIssuer
	events     events.EventBus
	bcryptCost int
	logger     *zap.Logger
	now        func() time.Time
}

// NewAuthService creates a new authentication service
func NewAuthService(
	users repositories.UserRepository,
	tokens *TokenIssuer,
	bus events.EventBus,
	authConfig config.AuthConfig,
	logger *zap.Logger,
) AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	cost := authConfig.BCryptCost
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &authService{
		users:      users,
		tokens:     tokens,
		events:     bus,
		bcryptCost: cost,
		logger:     logger,
		now:        time.Now,
	}
}

// ===============================
// REGISTRATION AND LOGIN
// ===============================

// Register creates a donor, beneficiary or volunteer account and signs the
// new user in
func (s *authService) Register(ctx context.Context, req *RegisterRequest) (*AuthResult, error) {
	if err := validation.ValidateStruct(req); err != nil {
		return nil, NewValidationError("invalid registration", err)
	}
	if !req.Role.SelfRegistrable() {
		return nil, NewForbiddenError("role cannot be self-registered", CodeRoleNotPermitted).
			WithDetail("role", req.Role.String())
	}

	user, err := createAccount(ctx, s.users, s.bcryptCost, s.now, req.Name, req.Email, req.Password, req.Role)
	if err != nil {
		return nil, storeError(s.logger, err, "register user", "user", 0)
	}

	publishEvent(ctx, s.events, s.logger, events.NewUserRegisteredEvent(user.ID, user.Role))

	s.logger.Info("User registered",
		zap.Int64("user_id", user.ID),
		zap.String("role", user.Role.String()),
	)
	return s.signIn(user)
}

// Login verifies credentials. Unknown emails and wrong passwords fail the
// same way.
func (s *authService) Login(ctx context.Context, req *LoginRequest) (*AuthResult, error) {
	if err := validation.ValidateStruct(req); err != nil {
		return nil, NewValidationError("invalid login", err)
	}

	user, err := s.users.GetByEmail(ctx, req.Email)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, NewUnauthorizedError("invalid credentials", CodeInvalidCredentials)
	}
	if err != nil {
		return nil, storeError(s.logger, err, "look up user", "user", 0)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		s.logger.Debug("Password mismatch", zap.Int64("user_id", user.ID))
		return nil, NewUnauthorizedError("invalid credentials", CodeInvalidCredentials)
	}

	s.logger.Info("User logged in", zap.Int64("user_id", user.ID))
	return s.signIn(user)
}

// Authenticate resolves a bearer token to its principal
func (s *authService) Authenticate(ctx context.Context, token string) (models.Principal, error) {
	principal, err := s.tokens.Parse(token)
	if err != nil {
		unauthorized := NewUnauthorizedError("invalid or expired token", CodeInvalidToken)
		unauthorized.Cause = err
		return models.Principal{}, unauthorized
	}
	return principal, nil
}

func (s *authService) signIn(user *models.User) (*AuthResult, error) {
	token, expiresAt, err := s.tokens.Issue(user)
	if err != nil {
		s.logger.Error("Failed to issue token", zap.Int64("user_id", user.ID), zap.Error(err))
		return nil, NewInternalError("failed to issue token", err)
	}
	return &AuthResult{Token: token, ExpiresAt: expiresAt, User: user}, nil
}

// createAccount hashes the password and inserts a user with no points.
// A taken email is reported as CONFLICT.
func createAccount(
	ctx context.Context,
	users repositories.UserRepository,
	cost int,
	now func() time.Time,
	name, email, password string,
	role models.Role,
) (*models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return nil, NewInternalError("failed to hash password", err)
	}

	user := &models.User{
		Name:         strings.TrimSpace(name),
		Email:        strings.ToLower(strings.TrimSpace(email)),
		PasswordHash: string(hash),
		Role:         role,
		Points:       0,
		Badge:        models.BadgeNone,
		CreatedAt:    now().UTC(),
	}

	if err := users.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, NewConflictError("email already registered", CodeEmailTaken)
		}
		return nil, err
	}
	return user, nil
}
