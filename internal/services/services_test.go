package services

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"helpinghands/internal/cache"
	"helpinghands/internal/config"
	"helpinghands/internal/events"
	"helpinghands/internal/models"
	"helpinghands/internal/repositories"
)

var fixedNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

var userSeq int64

type testEnv struct {
	ctx   context.Context
	store *repositories.MemoryStore
	cache cache.Cache
	bus   events.EventBus
	svc   *ServiceCollection
	admin models.Principal
}

func testConfig() *config.Config {
	return &config.Config{
		Auth: config.AuthConfig{
			JWTSecret:  "test-secret",
			JWTIssuer:  "helpinghands-test",
			JWTExpiry:  time.Hour,
			BCryptCost: bcrypt.MinCost,
		},
		Cache: config.CacheConfig{Provider: "memory", TTL: time.Minute},
		Ledger: config.LedgerConfig{
			MinDonationAmount: 1,
			MaxDonationAmount: 1_000_000,
			MaxTaskPoints:     1_000,
			TopDonorsDefault:  5,
			TopDonorsMax:      100,
		},
	}
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	logger := zap.NewNop()
	store := repositories.NewMemoryStore(logger)
	c := cache.NewMemoryCache(cache.DefaultConfig(), logger)
	t.Cleanup(func() { _ = c.Close() })
	bus := events.NewInMemoryEventBus(logger)

	svc, err := NewServiceCollection(store, c, bus, testConfig(), logger)
	require.NoError(t, err)

	env := &testEnv{
		ctx:   context.Background(),
		store: store,
		cache: c,
		bus:   bus,
		svc:   svc,
	}
	env.admin = env.principal(env.seedUser(t, models.RoleAdmin, 0))
	return env
}

func (e *testEnv) seedUser(t *testing.T, role models.Role, points int64) *models.User {
	t.Helper()
	u := &models.User{
		Name:   fmt.Sprintf("%s user", role),
		Email:  fmt.Sprintf("%s-%d@example.com", role, atomic.AddInt64(&userSeq, 1)),
		Role:   role,
		Points: points,
		Badge:  models.BadgeFor(points),
	}
	require.NoError(t, e.store.Users().Create(e.ctx, u))
	return u
}

func (e *testEnv) principal(u *models.User) models.Principal {
	return models.Principal{UserID: u.ID, Role: u.Role}
}

func (e *testEnv) seedCampaign(t *testing.T, status models.CampaignStatus) *models.Campaign {
	t.Helper()
	c := &models.Campaign{
		Title:        "Clean water",
		Category:     models.CategoryHealthcare,
		Description:  "Wells for villages",
		TargetAmount: 1000,
		Status:       status,
		CreatedBy:    e.admin.UserID,
	}
	require.NoError(t, e.store.Campaigns().Create(e.ctx, c))
	return c
}

func (e *testEnv) user(t *testing.T, id int64) *models.User {
	t.Helper()
	u, err := e.store.Users().GetByID(e.ctx, id)
	require.NoError(t, err)
	return u
}

func (e *testEnv) campaign(t *testing.T, id int64) *models.Campaign {
	t.Helper()
	c, err := e.store.Campaigns().GetByID(e.ctx, id)
	require.NoError(t, err)
	return c
}

// recordEvents captures every published event type
func (e *testEnv) recordEvents(t *testing.T) *[]string {
	t.Helper()
	var seen []string
	require.NoError(t, e.bus.SubscribePattern("*", events.NewEventHandlerFunc("test-recorder", func(ctx context.Context, event events.Event) error {
		seen = append(seen, event.GetEventType())
		return nil
	})))
	return &seen
}

func (e *testEnv) freezeClock() {
	now := func() time.Time { return fixedNow }
	e.svc.DonationService.(*donationService).now = now
	e.svc.BeneficiaryService.(*beneficiaryService).now = now
	e.svc.VolunteerService.(*volunteerService).now = now
	e.svc.CampaignService.(*campaignService).now = now
}
