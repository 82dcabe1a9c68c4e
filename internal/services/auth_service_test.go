package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"helpinghands/internal/config"
	"helpinghands/internal/models"
)

func TestRegisterAndLogin(t *testing.T) {
	env := newTestEnv(t)

	result, err := env.svc.AuthService.Register(env.ctx, &RegisterRequest{
		Name:     "Asha",
		Email:    "Asha@Example.com",
		Password: "secret123",
		Role:     models.RoleDonor,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, result.Token)
	assert.Equal(t, "asha@example.com", result.User.Email)
	assert.Equal(t, int64(0), result.User.Points)
	assert.Equal(t, models.BadgeNone, result.User.Badge)
	assert.NotEqual(t, "secret123", result.User.PasswordHash)

	principal, err := env.svc.AuthService.Authenticate(env.ctx, result.Token)
	require.NoError(t, err)
	assert.Equal(t, models.Principal{UserID: result.User.ID, Role: models.RoleDonor}, principal)

	login, err := env.svc.AuthService.Login(env.ctx, &LoginRequest{Email: "asha@example.com", Password: "secret123"})
	require.NoError(t, err)
	assert.Equal(t, result.User.ID, login.User.ID)

	_, err = env.svc.AuthService.Login(env.ctx, &LoginRequest{Email: "asha@example.com", Password: "wrong-password"})
	assert.True(t, IsUnauthorizedError(err))

	_, err = env.svc.AuthService.Login(env.ctx, &LoginRequest{Email: "nobody@example.com", Password: "secret123"})
	assert.True(t, IsUnauthorizedError(err))
}

func TestRegister_Rejections(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.svc.AuthService.Register(env.ctx, &RegisterRequest{Name: "Root", Email: "root@example.com", Password: "secret123", Role: models.RoleAdmin})
	assert.True(t, IsForbiddenError(err))
	assert.True(t, HasCode(err, CodeRoleNotPermitted))

	_, err = env.svc.AuthService.Register(env.ctx, &RegisterRequest{Name: "V", Email: "v@example.com", Password: "secret123", Role: models.RoleVolunteer})
	require.NoError(t, err)

	_, err = env.svc.AuthService.Register(env.ctx, &RegisterRequest{Name: "V2", Email: "V@example.com", Password: "secret123", Role: models.RoleBeneficiary})
	assert.True(t, IsConflictError(err))
	assert.True(t, HasCode(err, CodeEmailTaken))

	_, err = env.svc.AuthService.Register(env.ctx, &RegisterRequest{Name: "X", Email: "not-an-email", Password: "secret123", Role: models.RoleDonor})
	assert.True(t, IsValidationError(err))

	_, err = env.svc.AuthService.Register(env.ctx, &RegisterRequest{Name: "X", Email: "x@example.com", Password: "secret123", Role: "superuser"})
	assert.True(t, IsValidationError(err))
}

func TestAuthenticate_RejectsBadTokens(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.svc.AuthService.Authenticate(env.ctx, "not-a-token")
	assert.True(t, IsUnauthorizedError(err))

	other := NewTokenIssuer(config.AuthConfig{JWTSecret: "other-secret", JWTIssuer: "helpinghands-test", JWTExpiry: time.Hour})
	forged, _, err := other.Issue(&models.User{ID: 1, Role: models.RoleAdmin})
	require.NoError(t, err)
	_, err = env.svc.AuthService.Authenticate(env.ctx, forged)
	assert.True(t, IsUnauthorizedError(err))
}

func TestTokenIssuer_Expiry(t *testing.T) {
	issuer := NewTokenIssuer(config.AuthConfig{JWTSecret: "s3cret", JWTExpiry: time.Hour})
	issuer.now = func() time.Time { return fixedNow }

	token, expiresAt, err := issuer.Issue(&models.User{ID: 42, Role: models.RoleVolunteer})
	require.NoError(t, err)
	assert.Equal(t, fixedNow.Add(time.Hour), expiresAt)

	principal, err := issuer.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), principal.UserID)
	assert.Equal(t, models.RoleVolunteer, principal.Role)

	issuer.now = func() time.Time { return fixedNow.Add(2 * time.Hour) }
	_, err = issuer.Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

// ===============================
// USER MANAGEMENT
// ===============================

func TestUserManagement(t *testing.T) {
	env := newTestEnv(t)
	donor := env.seedUser(t, models.RoleDonor, 0)

	created, err := env.svc.UserService.CreateUser(env.ctx, env.admin, &CreateUserRequest{
		Name:     "Second admin",
		Email:    "admin2@example.com",
		Password: "secret123",
		Role:     models.RoleAdmin,
	})
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, created.Role)

	_, err = env.svc.UserService.CreateUser(env.ctx, env.principal(donor), &CreateUserRequest{
		Name: "x", Email: "x@example.com", Password: "secret123", Role: models.RoleDonor,
	})
	assert.True(t, IsForbiddenError(err))

	users, err := env.svc.UserService.ListUsers(env.ctx, env.admin)
	require.NoError(t, err)
	assert.Len(t, users, 3)

	require.NoError(t, env.svc.UserService.DeleteUser(env.ctx, env.admin, created.ID))
	assert.True(t, IsNotFoundError(env.svc.UserService.DeleteUser(env.ctx, env.admin, created.ID)))
}

func TestGetProfile(t *testing.T) {
	env := newTestEnv(t)
	donor := env.seedUser(t, models.RoleDonor, 150)

	profile, err := env.svc.UserService.GetProfile(env.ctx, env.principal(donor))
	require.NoError(t, err)
	assert.Equal(t, int64(150), profile.User.Points)
	assert.Equal(t, models.BadgeBronze, profile.Progress.Current)
	assert.Equal(t, "Silver", profile.Progress.NextBadge)
	assert.Equal(t, int64(150), profile.Progress.PointsNeeded)

	_, err = env.svc.UserService.GetProfile(env.ctx, models.Principal{})
	assert.True(t, IsUnauthorizedError(err))
}
