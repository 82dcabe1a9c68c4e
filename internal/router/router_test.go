package router

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"helpinghands/internal/cache"
	"helpinghands/internal/config"
	"helpinghands/internal/events"
	"helpinghands/internal/models"
	"helpinghands/internal/repositories"
	"helpinghands/internal/response"
	"helpinghands/internal/services"
)

type testServer struct {
	handler    http.Handler
	sc         *services.ServiceCollection
	adminToken string
}

func newTestServer(t *testing.T, rateLimit int) *testServer {
	t.Helper()

	logger := zap.NewNop()
	store := repositories.NewMemoryStore(logger)
	c := cache.NewMemoryCache(cache.DefaultConfig(), logger)
	t.Cleanup(func() { _ = c.Close() })

	cfg := &config.Config{
		Server: config.ServerConfig{
			CORSOrigins:    []string{"http://localhost:3000"},
			AuthRateLimit:  rateLimit,
			AuthRateWindow: time.Minute,
		},
		Auth:   config.AuthConfig{JWTSecret: "router-secret", JWTExpiry: time.Hour, BCryptCost: bcrypt.MinCost},
		Cache:  config.CacheConfig{Provider: "memory", TTL: time.Minute},
		Ledger: config.LedgerConfig{MinDonationAmount: 1, TopDonorsDefault: 5, TopDonorsMax: 100},
	}

	sc, err := services.NewServiceCollection(store, c, events.NewInMemoryEventBus(logger), cfg, logger)
	require.NoError(t, err)

	admin := &models.User{Name: "Admin", Email: "admin@example.com", Role: models.RoleAdmin, Badge: models.BadgeNone}
	require.NoError(t, store.Users().Create(context.Background(), admin))
	token, _, err := sc.Tokens.Issue(admin)
	require.NoError(t, err)

	return &testServer{
		handler:    SetupRouter(sc, response.NewBuilder(nil, logger), logger),
		sc:         sc,
		adminToken: token,
	}
}

// do sends a request and decodes the envelope's data into out when given
func (s *testServer) do(t *testing.T, method, path, token string, body interface{}, out interface{}) (int, *response.ErrorDetail) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	var envelope struct {
		Success bool                  `json:"success"`
		Data    json.RawMessage       `json:"data"`
		Error   *response.ErrorDetail `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope), rec.Body.String())
	if out != nil && envelope.Success {
		require.NoError(t, json.Unmarshal(envelope.Data, out))
	}
	return rec.Code, envelope.Error
}

func TestDonationFlowOverHTTP(t *testing.T) {
	s := newTestServer(t, 0)

	var campaign models.Campaign
	status, _ := s.do(t, http.MethodPost, "/api/campaigns/create", s.adminToken, map[string]interface{}{
		"title": "Clean water", "category": "Healthcare", "target_amount": 1000,
	}, &campaign)
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, models.CampaignActive, campaign.Status)

	var listed []models.Campaign
	status, _ = s.do(t, http.MethodGet, "/api/campaigns", "", nil, &listed)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, listed, 1)

	var registered services.AuthResult
	status, _ = s.do(t, http.MethodPost, "/api/auth/register/donor", "", map[string]string{
		"name": "Asha", "email": "asha@example.com", "password": "secret123",
	}, &registered)
	require.Equal(t, http.StatusCreated, status)
	donorToken := registered.Token

	var result services.DonationResult
	status, _ = s.do(t, http.MethodPost, "/api/donations", donorToken, map[string]int64{
		"campaign_id": campaign.ID, "amount": 250,
	}, &result)
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, int64(25), result.Donation.PointsEarned)
	assert.Equal(t, int64(25), result.TotalPoints)

	var history []models.DonationView
	status, _ = s.do(t, http.MethodGet, "/api/donations/my", donorToken, nil, &history)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, history, 1)
	require.NotNil(t, history[0].Campaign)
	assert.Equal(t, "Clean water", history[0].Campaign.Title)

	var receipt models.Receipt
	status, _ = s.do(t, http.MethodGet, fmt.Sprintf("/api/donations/receipt/%d", result.Donation.ID), donorToken, nil, &receipt)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, int64(250), receipt.Amount)
	assert.Equal(t, "Asha", receipt.DonorName)

	var stats models.DashboardStats
	status, _ = s.do(t, http.MethodGet, "/api/dashboard/stats", s.adminToken, nil, &stats)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, int64(250), stats.TotalDonations)

	var updated models.Campaign
	status, _ = s.do(t, http.MethodGet, fmt.Sprintf("/api/campaigns/%d", campaign.ID), "", nil, &updated)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, int64(250), updated.CollectedAmount)
}

func TestErrorMapping(t *testing.T) {
	s := newTestServer(t, 0)

	var registered services.AuthResult
	status, _ := s.do(t, http.MethodPost, "/api/auth/register/volunteer", "", map[string]string{
		"name": "Vik", "email": "vik@example.com", "password": "secret123",
	}, &registered)
	require.Equal(t, http.StatusCreated, status)

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		body   interface{}
		status int
		code   string
	}{
		{"no token", http.MethodGet, "/api/donations/my", "", nil, http.StatusUnauthorized, services.CodeAuthRequired},
		{"garbage token", http.MethodGet, "/api/donations/my", "nope", nil, http.StatusUnauthorized, services.CodeInvalidToken},
		{"wrong role", http.MethodGet, "/api/dashboard/stats", registered.Token, nil, http.StatusForbidden, services.CodeRoleNotPermitted},
		{"admin self-registration", http.MethodPost, "/api/auth/register/admin", "", map[string]string{"name": "x", "email": "x@example.com", "password": "secret123"}, http.StatusForbidden, services.CodeRoleNotPermitted},
		{"duplicate email", http.MethodPost, "/api/auth/register/donor", "", map[string]string{"name": "x", "email": "vik@example.com", "password": "secret123"}, http.StatusConflict, services.CodeEmailTaken},
		{"unknown campaign", http.MethodGet, "/api/campaigns/999", "", nil, http.StatusNotFound, ""},
		{"bad review action", http.MethodPost, "/api/beneficiary/review", s.adminToken, map[string]interface{}{"request_id": 1, "action": "maybe"}, http.StatusConflict, services.CodeInvalidReviewAction},
		{"invalid id", http.MethodGet, "/api/donations/receipt/abc", s.adminToken, nil, http.StatusBadRequest, ""},
		{"unknown route", http.MethodGet, "/api/nowhere", "", nil, http.StatusNotFound, ""},
		{"malformed body", http.MethodPost, "/api/auth/login", "", "not an object", http.StatusBadRequest, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, detail := s.do(t, tt.method, tt.path, tt.token, tt.body, nil)
			assert.Equal(t, tt.status, status)
			require.NotNil(t, detail)
			if tt.code != "" {
				assert.Equal(t, tt.code, detail.Code)
			}
		})
	}
}

func TestVolunteerFlowOverHTTP(t *testing.T) {
	s := newTestServer(t, 0)

	var volunteer services.AuthResult
	status, _ := s.do(t, http.MethodPost, "/api/auth/register/volunteer", "", map[string]string{
		"name": "Vik", "email": "vik@example.com", "password": "secret123",
	}, &volunteer)
	require.Equal(t, http.StatusCreated, status)

	var task models.VolunteerTask
	status, _ = s.do(t, http.MethodPost, "/api/volunteer/assign", s.adminToken, map[string]interface{}{
		"volunteer_id": volunteer.User.ID, "title": "Sort donations",
	}, &task)
	require.Equal(t, http.StatusCreated, status)

	status, detail := s.do(t, http.MethodPost, "/api/volunteer/approve", s.adminToken, map[string]interface{}{
		"task_id": task.ID, "points": 120,
	}, nil)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, services.CodeTaskNotSubmitted, detail.Code)

	status, _ = s.do(t, http.MethodPost, "/api/volunteer/submit", volunteer.Token, map[string]interface{}{
		"task_id": task.ID, "report_url": "https://example.com/report.pdf",
	}, nil)
	require.Equal(t, http.StatusOK, status)

	var approval services.TaskApprovalResult
	status, _ = s.do(t, http.MethodPost, "/api/volunteer/approve", s.adminToken, map[string]interface{}{
		"task_id": task.ID, "points": 120,
	}, &approval)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, models.BadgeBronze, approval.Badge)
	assert.True(t, approval.BadgeChanged)

	var profile services.Profile
	status, _ = s.do(t, http.MethodGet, "/api/users/me", volunteer.Token, nil, &profile)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, int64(120), profile.User.Points)
}

func TestHealthAndRateLimit(t *testing.T) {
	s := newTestServer(t, 1)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	login := map[string]string{"email": "nobody@example.com", "password": "secret123"}
	status, _ := s.do(t, http.MethodPost, "/api/auth/login", "", login, nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, detail := s.do(t, http.MethodPost, "/api/auth/login", "", login, nil)
	assert.Equal(t, http.StatusTooManyRequests, status)
	assert.Equal(t, services.ErrTypeRateLimited, detail.Type)
}
