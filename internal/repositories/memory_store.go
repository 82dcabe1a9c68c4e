package repositories

import (
	"cmp"
	"context"
	"math"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/exp/slices"

	"helpinghands/internal/models"
)

// memoryData is one consistent snapshot of every table
type memoryData struct {
	users     map[int64]models.User
	campaigns map[int64]models.Campaign
	donations map[int64]models.Donation
	requests  map[int64]models.BeneficiaryRequest
	tasks     map[int64]models.VolunteerTask

	userSeq     int64
	campaignSeq int64
	donationSeq int64
	requestSeq  int64
	taskSeq     int64
}

func newMemoryData() *memoryData {
	return &memoryData{
		users:     make(map[int64]models.User),
		campaigns: make(map[int64]models.Campaign),
		donations: make(map[int64]models.Donation),
		requests:  make(map[int64]models.BeneficiaryRequest),
		tasks:     make(map[int64]models.VolunteerTask),
	}
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (d *memoryData) clone() *memoryData {
	c := *d
	c.users = cloneMap(d.users)
	c.campaigns = cloneMap(d.campaigns)
	c.donations = cloneMap(d.donations)
	c.requests = cloneMap(d.requests)
	c.tasks = cloneMap(d.tasks)
	return &c
}

// MemoryStore implements Store in process memory. Writes outside a
// transaction take the write lock per call; a transaction holds the write
// lock for its whole duration and works on a private copy that replaces the
// live data only if fn succeeds.
type MemoryStore struct {
	mu     *sync.RWMutex
	data   *memoryData
	inTx   bool
	logger *zap.Logger
	now    func() time.Time
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore(logger *zap.Logger) *MemoryStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MemoryStore{
		mu:     &sync.RWMutex{},
		data:   newMemoryData(),
		logger: logger,
		now:    time.Now,
	}
}

func (s *MemoryStore) read(fn func(d *memoryData) error) error {
	if !s.inTx {
		s.mu.RLock()
		defer s.mu.RUnlock()
	}
	return fn(s.data)
}

func (s *MemoryStore) write(fn func(d *memoryData) error) error {
	if !s.inTx {
		s.mu.Lock()
		defer s.mu.Unlock()
	}
	return fn(s.data)
}

func (s *MemoryStore) Users() UserRepository                             { return memoryUsers{s} }
func (s *MemoryStore) Campaigns() CampaignRepository                     { return memoryCampaigns{s} }
func (s *MemoryStore) Donations() DonationRepository                     { return memoryDonations{s} }
func (s *MemoryStore) BeneficiaryRequests() BeneficiaryRequestRepository { return memoryRequests{s} }
func (s *MemoryStore) VolunteerTasks() VolunteerTaskRepository           { return memoryTasks{s} }

// WithTransaction serializes fn against every other writer
func (s *MemoryStore) WithTransaction(ctx context.Context, fn func(tx Store) error) error {
	if s.inTx {
		return fn(s)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	tx := &MemoryStore{
		mu:     s.mu,
		data:   s.data.clone(),
		inTx:   true,
		logger: s.logger,
		now:    s.now,
	}

	if err := fn(tx); err != nil {
		s.logger.Debug("Memory transaction rolled back", zap.Error(err))
		return err
	}

	s.data = tx.data
	return nil
}

// Ping always succeeds
func (s *MemoryStore) Ping(ctx context.Context) error {
	return ctx.Err()
}

// Close is a no-op
func (s *MemoryStore) Close() error {
	return nil
}

func (s *MemoryStore) stamp(t time.Time) time.Time {
	if t.IsZero() {
		return s.now().UTC()
	}
	return t
}

// ===============================
// USERS
// ===============================

type memoryUsers struct{ s *MemoryStore }

func (r memoryUsers) Create(ctx context.Context, user *models.User) error {
	return r.s.write(func(d *memoryData) error {
		email := strings.ToLower(strings.TrimSpace(user.Email))
		for _, u := range d.users {
			if u.Email == email {
				return ErrDuplicate
			}
		}

		d.userSeq++
		user.ID = d.userSeq
		user.Email = email
		user.CreatedAt = r.s.stamp(user.CreatedAt)
		d.users[user.ID] = *user
		return nil
	})
}

func (r memoryUsers) GetByID(ctx context.Context, id int64) (*models.User, error) {
	var out *models.User
	err := r.s.read(func(d *memoryData) error {
		u, ok := d.users[id]
		if !ok {
			return ErrNotFound
		}
		out = &u
		return nil
	})
	return out, err
}

func (r memoryUsers) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	var out *models.User
	err := r.s.read(func(d *memoryData) error {
		for _, u := range d.users {
			if u.Email == email {
				u := u
				out = &u
				return nil
			}
		}
		return ErrNotFound
	})
	return out, err
}

func (r memoryUsers) List(ctx context.Context) ([]*models.User, error) {
	var out []*models.User
	err := r.s.read(func(d *memoryData) error {
		out = collect(d.users, func(models.User) bool { return true })
		return nil
	})
	slices.SortFunc(out, func(a, b *models.User) int { return cmp.Compare(a.ID, b.ID) })
	return out, err
}

func (r memoryUsers) Delete(ctx context.Context, id int64) error {
	return r.s.write(func(d *memoryData) error {
		if _, ok := d.users[id]; !ok {
			return ErrNotFound
		}
		delete(d.users, id)
		return nil
	})
}

func (r memoryUsers) AddPoints(ctx context.Context, id int64, delta int64) (*models.User, error) {
	var out *models.User
	err := r.s.write(func(d *memoryData) error {
		u, ok := d.users[id]
		if !ok {
			return ErrNotFound
		}
		if !canAdd(u.Points, delta) {
			return ErrOutOfRange
		}
		u.Points += delta
		d.users[id] = u
		out = &u
		return nil
	})
	return out, err
}

func (r memoryUsers) SetBadge(ctx context.Context, id int64, badge models.Badge) error {
	return r.s.write(func(d *memoryData) error {
		u, ok := d.users[id]
		if !ok {
			return ErrNotFound
		}
		u.Badge = badge
		d.users[id] = u
		return nil
	})
}

func (r memoryUsers) TopByPoints(ctx context.Context, role models.Role, limit int) ([]*models.User, error) {
	var out []*models.User
	err := r.s.read(func(d *memoryData) error {
		out = collect(d.users, func(u models.User) bool { return u.Role == role })
		return nil
	})
	slices.SortFunc(out, func(a, b *models.User) int {
		if c := cmp.Compare(b.Points, a.Points); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	if limit >= 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, err
}

func (r memoryUsers) GetRefs(ctx context.Context, ids []int64) (map[int64]*models.UserRef, error) {
	refs := make(map[int64]*models.UserRef, len(ids))
	err := r.s.read(func(d *memoryData) error {
		for _, id := range ids {
			if u, ok := d.users[id]; ok {
				refs[id] = &models.UserRef{ID: u.ID, Name: u.Name, Email: u.Email}
			}
		}
		return nil
	})
	return refs, err
}

// ===============================
// CAMPAIGNS
// ===============================

type memoryCampaigns struct{ s *MemoryStore }

func (r memoryCampaigns) Create(ctx context.Context, c *models.Campaign) error {
	return r.s.write(func(d *memoryData) error {
		d.campaignSeq++
		c.ID = d.campaignSeq
		c.CreatedAt = r.s.stamp(c.CreatedAt)
		d.campaigns[c.ID] = *c
		return nil
	})
}

func (r memoryCampaigns) GetByID(ctx context.Context, id int64) (*models.Campaign, error) {
	var out *models.Campaign
	err := r.s.read(func(d *memoryData) error {
		c, ok := d.campaigns[id]
		if !ok {
			return ErrNotFound
		}
		out = &c
		return nil
	})
	return out, err
}

func (r memoryCampaigns) List(ctx context.Context, filter CampaignFilter) ([]*models.Campaign, error) {
	var out []*models.Campaign
	err := r.s.read(func(d *memoryData) error {
		out = collect(d.campaigns, func(c models.Campaign) bool {
			return filter.Status == nil || c.Status == *filter.Status
		})
		return nil
	})
	slices.SortFunc(out, func(a, b *models.Campaign) int { return cmp.Compare(a.ID, b.ID) })
	return out, err
}

func (r memoryCampaigns) Update(ctx context.Context, c *models.Campaign) error {
	return r.s.write(func(d *memoryData) error {
		cur, ok := d.campaigns[c.ID]
		if !ok {
			return ErrNotFound
		}
		cur.Title = c.Title
		cur.Category = c.Category
		cur.Description = c.Description
		cur.TargetAmount = c.TargetAmount
		cur.Status = c.Status
		d.campaigns[c.ID] = cur
		c.CollectedAmount = cur.CollectedAmount
		return nil
	})
}

func (r memoryCampaigns) Delete(ctx context.Context, id int64) error {
	return r.s.write(func(d *memoryData) error {
		if _, ok := d.campaigns[id]; !ok {
			return ErrNotFound
		}
		delete(d.campaigns, id)
		return nil
	})
}

func (r memoryCampaigns) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.s.read(func(d *memoryData) error {
		n = int64(len(d.campaigns))
		return nil
	})
	return n, err
}

func (r memoryCampaigns) IncrementCollected(ctx context.Context, id int64, amount int64) (*models.Campaign, error) {
	var out *models.Campaign
	err := r.s.write(func(d *memoryData) error {
		c, ok := d.campaigns[id]
		if !ok || !c.IsActive() {
			return ErrNotFound
		}
		if !canAdd(c.CollectedAmount, amount) {
			return ErrOutOfRange
		}
		c.CollectedAmount += amount
		d.campaigns[id] = c
		out = &c
		return nil
	})
	return out, err
}

func (r memoryCampaigns) GetRefs(ctx context.Context, ids []int64) (map[int64]*models.CampaignRef, error) {
	refs := make(map[int64]*models.CampaignRef, len(ids))
	err := r.s.read(func(d *memoryData) error {
		for _, id := range ids {
			if c, ok := d.campaigns[id]; ok {
				refs[id] = &models.CampaignRef{ID: c.ID, Title: c.Title, Category: c.Category}
			}
		}
		return nil
	})
	return refs, err
}

// ===============================
// DONATIONS
// ===============================

type memoryDonations struct{ s *MemoryStore }

func (r memoryDonations) Create(ctx context.Context, dn *models.Donation) error {
	return r.s.write(func(d *memoryData) error {
		d.donationSeq++
		dn.ID = d.donationSeq
		dn.DonatedAt = r.s.stamp(dn.DonatedAt)
		d.donations[dn.ID] = *dn
		return nil
	})
}

func (r memoryDonations) GetByID(ctx context.Context, id int64) (*models.Donation, error) {
	var out *models.Donation
	err := r.s.read(func(d *memoryData) error {
		dn, ok := d.donations[id]
		if !ok {
			return ErrNotFound
		}
		out = &dn
		return nil
	})
	return out, err
}

func (r memoryDonations) List(ctx context.Context, filter DonationFilter) ([]*models.Donation, error) {
	var out []*models.Donation
	err := r.s.read(func(d *memoryData) error {
		out = collect(d.donations, func(dn models.Donation) bool {
			return filter.DonorID == nil || dn.DonorID == *filter.DonorID
		})
		return nil
	})
	slices.SortFunc(out, func(a, b *models.Donation) int {
		return newestFirst(a.DonatedAt, b.DonatedAt, a.ID, b.ID)
	})
	return out, err
}

func (r memoryDonations) SumAmount(ctx context.Context) (int64, error) {
	var total int64
	err := r.s.read(func(d *memoryData) error {
		for _, dn := range d.donations {
			if !canAdd(total, dn.Amount) {
				return ErrOutOfRange
			}
			total += dn.Amount
		}
		return nil
	})
	return total, err
}

func (r memoryDonations) TotalsByCampaign(ctx context.Context) ([]*models.CampaignTotal, error) {
	var out []*models.CampaignTotal
	err := r.s.read(func(d *memoryData) error {
		byCampaign := make(map[int64]*models.CampaignTotal)
		for _, dn := range d.donations {
			c, ok := d.campaigns[dn.CampaignID]
			if !ok {
				continue
			}
			t, ok := byCampaign[c.ID]
			if !ok {
				t = &models.CampaignTotal{CampaignID: c.ID, CampaignTitle: c.Title}
				byCampaign[c.ID] = t
				out = append(out, t)
			}
			t.TotalAmount += dn.Amount
		}
		return nil
	})
	slices.SortFunc(out, func(a, b *models.CampaignTotal) int {
		if c := cmp.Compare(b.TotalAmount, a.TotalAmount); c != 0 {
			return c
		}
		return cmp.Compare(a.CampaignID, b.CampaignID)
	})
	if out == nil {
		out = make([]*models.CampaignTotal, 0)
	}
	return out, err
}

// ===============================
// BENEFICIARY REQUESTS
// ===============================

type memoryRequests struct{ s *MemoryStore }

func (r memoryRequests) Create(ctx context.Context, req *models.BeneficiaryRequest) error {
	return r.s.write(func(d *memoryData) error {
		d.requestSeq++
		req.ID = d.requestSeq
		req.CreatedAt = r.s.stamp(req.CreatedAt)
		d.requests[req.ID] = *req
		return nil
	})
}

func (r memoryRequests) GetByID(ctx context.Context, id int64) (*models.BeneficiaryRequest, error) {
	var out *models.BeneficiaryRequest
	err := r.s.read(func(d *memoryData) error {
		req, ok := d.requests[id]
		if !ok {
			return ErrNotFound
		}
		out = &req
		return nil
	})
	return out, err
}

func (r memoryRequests) List(ctx context.Context, filter RequestFilter) ([]*models.BeneficiaryRequest, error) {
	var out []*models.BeneficiaryRequest
	err := r.s.read(func(d *memoryData) error {
		out = collect(d.requests, func(req models.BeneficiaryRequest) bool {
			if filter.Status != nil && req.Status != *filter.Status {
				return false
			}
			return filter.BeneficiaryID == nil || req.BeneficiaryID == *filter.BeneficiaryID
		})
		return nil
	})
	slices.SortFunc(out, func(a, b *models.BeneficiaryRequest) int {
		return newestFirst(a.CreatedAt, b.CreatedAt, a.ID, b.ID)
	})
	return out, err
}

func (r memoryRequests) CountByStatus(ctx context.Context, status models.RequestStatus) (int64, error) {
	var n int64
	err := r.s.read(func(d *memoryData) error {
		for _, req := range d.requests {
			if req.Status == status {
				n++
			}
		}
		return nil
	})
	return n, err
}

func (r memoryRequests) Review(ctx context.Context, id int64, status models.RequestStatus, reviewerID int64, at time.Time) (*models.BeneficiaryRequest, error) {
	var out *models.BeneficiaryRequest
	err := r.s.write(func(d *memoryData) error {
		req, ok := d.requests[id]
		if !ok || req.Status != models.RequestPending {
			return ErrStale
		}
		reviewer := reviewerID
		reviewedAt := at
		req.Status = status
		req.ReviewedBy = &reviewer
		req.ReviewedAt = &reviewedAt
		d.requests[id] = req
		out = &req
		return nil
	})
	return out, err
}

// ===============================
// VOLUNTEER TASKS
// ===============================

type memoryTasks struct{ s *MemoryStore }

func (r memoryTasks) Create(ctx context.Context, task *models.VolunteerTask) error {
	return r.s.write(func(d *memoryData) error {
		d.taskSeq++
		task.ID = d.taskSeq
		task.CreatedAt = r.s.stamp(task.CreatedAt)
		d.tasks[task.ID] = *task
		return nil
	})
}

func (r memoryTasks) GetByID(ctx context.Context, id int64) (*models.VolunteerTask, error) {
	var out *models.VolunteerTask
	err := r.s.read(func(d *memoryData) error {
		task, ok := d.tasks[id]
		if !ok {
			return ErrNotFound
		}
		out = &task
		return nil
	})
	return out, err
}

func (r memoryTasks) List(ctx context.Context, filter TaskFilter) ([]*models.VolunteerTask, error) {
	var out []*models.VolunteerTask
	err := r.s.read(func(d *memoryData) error {
		out = collect(d.tasks, func(task models.VolunteerTask) bool {
			return filter.VolunteerID == nil || task.VolunteerID == *filter.VolunteerID
		})
		return nil
	})
	slices.SortFunc(out, func(a, b *models.VolunteerTask) int {
		return newestFirst(a.CreatedAt, b.CreatedAt, a.ID, b.ID)
	})
	return out, err
}

func (r memoryTasks) SubmitReport(ctx context.Context, id int64, reportURL string) (*models.VolunteerTask, error) {
	var out *models.VolunteerTask
	err := r.s.write(func(d *memoryData) error {
		task, ok := d.tasks[id]
		if !ok || task.Status == models.TaskApproved {
			return ErrStale
		}
		url := reportURL
		task.ReportURL = &url
		task.Status = models.TaskSubmitted
		d.tasks[id] = task
		out = &task
		return nil
	})
	return out, err
}

func (r memoryTasks) Approve(ctx context.Context, id int64, points int64) (*models.VolunteerTask, error) {
	var out *models.VolunteerTask
	err := r.s.write(func(d *memoryData) error {
		task, ok := d.tasks[id]
		if !ok || task.Status != models.TaskSubmitted {
			return ErrStale
		}
		task.PointsEarned = points
		task.Status = models.TaskApproved
		d.tasks[id] = task
		out = &task
		return nil
	})
	return out, err
}

// ===============================
// HELPERS
// ===============================

// collect copies the matching values out of a table
func collect[V any](table map[int64]V, keep func(V) bool) []*V {
	out := make([]*V, 0, len(table))
	for _, v := range table {
		if keep(v) {
			v := v
			out = append(out, &v)
		}
	}
	return out
}

// canAdd reports whether cur+delta stays within int64
func canAdd(cur, delta int64) bool {
	if delta > 0 {
		return cur <= math.MaxInt64-delta
	}
	return cur >= math.MinInt64-delta
}

func newestFirst(a, b time.Time, aID, bID int64) int {
	if c := b.Compare(a); c != 0 {
		return c
	}
	return cmp.Compare(bID, aID)
}
