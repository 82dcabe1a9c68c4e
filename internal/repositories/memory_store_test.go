package repositories

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"helpinghands/internal/models"
)

func newTestStore(t *testing.T) *MemoryStore {
	t.Helper()
	return NewMemoryStore(zap.NewNop())
}

func seedCampaign(t *testing.T, s Store, status models.CampaignStatus) *models.Campaign {
	t.Helper()
	c := &models.Campaign{
		Title:        "School books",
		Category:     models.CategoryEducation,
		TargetAmount: 1000,
		Status:       status,
		CreatedBy:    1,
	}
	require.NoError(t, s.Campaigns().Create(context.Background(), c))
	return c
}

func TestMemoryUsersCreateAndLookup(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	u := &models.User{Name: "Asha", Email: "Asha@Example.com", Role: models.RoleDonor, Badge: models.BadgeNone}
	require.NoError(t, s.Users().Create(ctx, u))
	assert.Equal(t, int64(1), u.ID)
	assert.Equal(t, "asha@example.com", u.Email)
	assert.False(t, u.CreatedAt.IsZero())

	got, err := s.Users().GetByEmail(ctx, "ASHA@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	dup := &models.User{Name: "Other", Email: "asha@example.com", Role: models.RoleDonor}
	assert.ErrorIs(t, s.Users().Create(ctx, dup), ErrDuplicate)

	_, err = s.Users().GetByID(ctx, 99)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	c := seedCampaign(t, s, models.CampaignActive)

	got, err := s.Campaigns().GetByID(ctx, c.ID)
	require.NoError(t, err)
	got.CollectedAmount = 999

	again, err := s.Campaigns().GetByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), again.CollectedAmount)
}

func TestMemoryIncrementCollectedRequiresActive(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	active := seedCampaign(t, s, models.CampaignActive)
	closed := seedCampaign(t, s, models.CampaignClosed)

	c, err := s.Campaigns().IncrementCollected(ctx, active.ID, 250)
	require.NoError(t, err)
	assert.Equal(t, int64(250), c.CollectedAmount)

	_, err = s.Campaigns().IncrementCollected(ctx, closed.ID, 250)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.Campaigns().IncrementCollected(ctx, 404, 250)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryIncrementsRejectOverflow(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	c := &models.Campaign{Title: "Near cap", Category: models.CategoryHealthcare, TargetAmount: 10,
		CollectedAmount: math.MaxInt64 - 5, Status: models.CampaignActive}
	require.NoError(t, s.Campaigns().Create(ctx, c))

	_, err := s.Campaigns().IncrementCollected(ctx, c.ID, 10)
	assert.ErrorIs(t, err, ErrOutOfRange)
	got, err := s.Campaigns().GetByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(math.MaxInt64-5), got.CollectedAmount)

	_, err = s.Campaigns().IncrementCollected(ctx, c.ID, 5)
	require.NoError(t, err)

	u := &models.User{Name: "Gold", Email: "gold@example.com", Role: models.RoleVolunteer, Points: 600, Badge: models.BadgeGold}
	require.NoError(t, s.Users().Create(ctx, u))

	_, err = s.Users().AddPoints(ctx, u.ID, math.MaxInt64)
	assert.ErrorIs(t, err, ErrOutOfRange)
	stored, err := s.Users().GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(600), stored.Points)

	require.NoError(t, s.Donations().Create(ctx, &models.Donation{DonorID: u.ID, CampaignID: c.ID, Amount: math.MaxInt64}))
	require.NoError(t, s.Donations().Create(ctx, &models.Donation{DonorID: u.ID, CampaignID: c.ID, Amount: 10}))
	_, err = s.Donations().SumAmount(ctx)
	assert.ErrorIs(t, err, ErrOutOfRange)
}

func TestCanAdd(t *testing.T) {
	assert.True(t, canAdd(0, math.MaxInt64))
	assert.True(t, canAdd(math.MaxInt64-1, 1))
	assert.False(t, canAdd(math.MaxInt64-1, 2))
	assert.True(t, canAdd(10, -10))
	assert.False(t, canAdd(math.MinInt64, -1))
}

func TestMemoryUpdateKeepsCollectedAmount(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	c := seedCampaign(t, s, models.CampaignActive)
	_, err := s.Campaigns().IncrementCollected(ctx, c.ID, 40)
	require.NoError(t, err)

	c.Title = "Library"
	c.CollectedAmount = 0
	require.NoError(t, s.Campaigns().Update(ctx, c))
	assert.Equal(t, int64(40), c.CollectedAmount)

	got, err := s.Campaigns().GetByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "Library", got.Title)
	assert.Equal(t, int64(40), got.CollectedAmount)
}

func TestMemoryTransactionRollsBack(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	c := seedCampaign(t, s, models.CampaignActive)
	boom := errors.New("boom")

	err := s.WithTransaction(ctx, func(tx Store) error {
		require.NoError(t, tx.Donations().Create(ctx, &models.Donation{DonorID: 1, CampaignID: c.ID, Amount: 100}))
		_, err := tx.Campaigns().IncrementCollected(ctx, c.ID, 100)
		require.NoError(t, err)
		return boom
	})
	assert.ErrorIs(t, err, boom)

	got, err := s.Campaigns().GetByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), got.CollectedAmount)

	donations, err := s.Donations().List(ctx, DonationFilter{})
	require.NoError(t, err)
	assert.Empty(t, donations)
}

func TestMemoryTransactionCommits(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	c := seedCampaign(t, s, models.CampaignActive)

	err := s.WithTransaction(ctx, func(tx Store) error {
		if err := tx.Donations().Create(ctx, &models.Donation{DonorID: 1, CampaignID: c.ID, Amount: 100}); err != nil {
			return err
		}
		// nested calls join the outer transaction
		return tx.WithTransaction(ctx, func(inner Store) error {
			_, err := inner.Campaigns().IncrementCollected(ctx, c.ID, 100)
			return err
		})
	})
	require.NoError(t, err)

	got, err := s.Campaigns().GetByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(100), got.CollectedAmount)

	total, err := s.Donations().SumAmount(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(100), total)
}

func TestMemoryConcurrentIncrements(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	c := seedCampaign(t, s, models.CampaignActive)

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.WithTransaction(ctx, func(tx Store) error {
				_, err := tx.Campaigns().IncrementCollected(ctx, c.ID, 10)
				return err
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, err := s.Campaigns().GetByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), got.CollectedAmount)
}

func TestMemoryDonationOrderingAndTotals(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	a := seedCampaign(t, s, models.CampaignActive)
	b := seedCampaign(t, s, models.CampaignActive)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	donor := int64(7)
	require.NoError(t, s.Donations().Create(ctx, &models.Donation{DonorID: donor, CampaignID: a.ID, Amount: 50, DonatedAt: base}))
	require.NoError(t, s.Donations().Create(ctx, &models.Donation{DonorID: donor, CampaignID: b.ID, Amount: 300, DonatedAt: base.Add(time.Hour)}))
	require.NoError(t, s.Donations().Create(ctx, &models.Donation{DonorID: 8, CampaignID: a.ID, Amount: 20, DonatedAt: base.Add(2 * time.Hour)}))
	require.NoError(t, s.Donations().Create(ctx, &models.Donation{DonorID: 8, CampaignID: 999, Amount: 5, DonatedAt: base}))

	mine, err := s.Donations().List(ctx, DonationFilter{DonorID: &donor})
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, int64(300), mine[0].Amount)
	assert.Equal(t, int64(50), mine[1].Amount)

	totals, err := s.Donations().TotalsByCampaign(ctx)
	require.NoError(t, err)
	require.Len(t, totals, 2)
	assert.Equal(t, b.ID, totals[0].CampaignID)
	assert.Equal(t, int64(300), totals[0].TotalAmount)
	assert.Equal(t, int64(70), totals[1].TotalAmount)

	sum, err := s.Donations().SumAmount(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(375), sum)
}

func TestMemoryTopByPoints(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	for i, p := range []int64{50, 200, 200, 10} {
		u := &models.User{Name: "d", Email: string(rune('a'+i)) + "@x.io", Role: models.RoleDonor, Points: p}
		require.NoError(t, s.Users().Create(ctx, u))
	}
	require.NoError(t, s.Users().Create(ctx, &models.User{Name: "v", Email: "v@x.io", Role: models.RoleVolunteer, Points: 900}))

	top, err := s.Users().TopByPoints(ctx, models.RoleDonor, 3)
	require.NoError(t, err)
	require.Len(t, top, 3)
	assert.Equal(t, []int64{2, 3, 1}, []int64{top[0].ID, top[1].ID, top[2].ID})
}

func TestMemoryReviewIsOneShot(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	req := &models.BeneficiaryRequest{BeneficiaryID: 3, CampaignID: 1, RequestMessage: "help", Status: models.RequestPending}
	require.NoError(t, s.BeneficiaryRequests().Create(ctx, req))

	at := time.Now().UTC()
	got, err := s.BeneficiaryRequests().Review(ctx, req.ID, models.RequestRejected, 1, at)
	require.NoError(t, err)
	assert.Equal(t, models.RequestRejected, got.Status)
	require.NotNil(t, got.ReviewedBy)
	assert.Equal(t, int64(1), *got.ReviewedBy)

	_, err = s.BeneficiaryRequests().Review(ctx, req.ID, models.RequestApproved, 2, at)
	assert.ErrorIs(t, err, ErrStale)

	pending := models.RequestPending
	list, err := s.BeneficiaryRequests().List(ctx, RequestFilter{Status: &pending})
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestMemoryTaskTransitions(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	task := &models.VolunteerTask{VolunteerID: 4, Title: "Sort clothes", Status: models.TaskAssigned, AssignedBy: 1}
	require.NoError(t, s.VolunteerTasks().Create(ctx, task))

	_, err := s.VolunteerTasks().Approve(ctx, task.ID, 10)
	assert.ErrorIs(t, err, ErrStale)

	got, err := s.VolunteerTasks().SubmitReport(ctx, task.ID, "https://r.example/1")
	require.NoError(t, err)
	assert.Equal(t, models.TaskSubmitted, got.Status)

	got, err = s.VolunteerTasks().Approve(ctx, task.ID, 30)
	require.NoError(t, err)
	assert.Equal(t, models.TaskApproved, got.Status)
	assert.Equal(t, int64(30), got.PointsEarned)

	_, err = s.VolunteerTasks().SubmitReport(ctx, task.ID, "https://r.example/2")
	assert.ErrorIs(t, err, ErrStale)
}

func TestMemoryDeleteOrphansDependents(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	c := seedCampaign(t, s, models.CampaignActive)
	require.NoError(t, s.Donations().Create(ctx, &models.Donation{DonorID: 1, CampaignID: c.ID, Amount: 10}))

	require.NoError(t, s.Campaigns().Delete(ctx, c.ID))
	assert.ErrorIs(t, s.Campaigns().Delete(ctx, c.ID), ErrNotFound)

	donations, err := s.Donations().List(ctx, DonationFilter{})
	require.NoError(t, err)
	require.Len(t, donations, 1)

	refs, err := s.Campaigns().GetRefs(ctx, []int64{c.ID})
	require.NoError(t, err)
	assert.Empty(t, refs)
}
