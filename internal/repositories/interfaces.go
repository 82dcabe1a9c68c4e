// file: internal/repositories/interfaces.go
package repositories

import (
	"context"
	"errors"
	"time"

	"helpinghands/internal/models"
)

var (
	// ErrNotFound is returned when a lookup or conditional update matches no row
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a unique constraint is violated
	ErrDuplicate = errors.New("duplicate record")
	// ErrStale is returned when a conditional state transition finds the row
	// already moved on
	ErrStale = errors.New("record state changed")
	// ErrOutOfRange is returned when an increment would overflow a counter
	ErrOutOfRange = errors.New("value out of range")
)

// ===============================
// STORE
// ===============================

// Store groups the repositories over one persistence backend.
type Store interface {
	Users() UserRepository
	Campaigns() CampaignRepository
	Donations() DonationRepository
	BeneficiaryRequests() BeneficiaryRequestRepository
	VolunteerTasks() VolunteerTaskRepository

	// WithTransaction runs fn against a Store bound to a single transaction.
	// All writes made through tx become visible together, or not at all if
	// fn returns an error. Nested calls join the outer transaction.
	WithTransaction(ctx context.Context, fn func(tx Store) error) error

	Ping(ctx context.Context) error
	Close() error
}

// ===============================
// REPOSITORY INTERFACES
// ===============================

// UserRepository defines the contract for user data operations
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context) ([]*models.User, error)
	Delete(ctx context.Context, id int64) error

	// AddPoints atomically increments the user's points and returns the
	// updated row.
	AddPoints(ctx context.Context, id int64, delta int64) (*models.User, error)
	SetBadge(ctx context.Context, id int64, badge models.Badge) error

	// TopByPoints returns users of role ordered by points desc, id asc
	TopByPoints(ctx context.Context, role models.Role, limit int) ([]*models.User, error)
	GetRefs(ctx context.Context, ids []int64) (map[int64]*models.UserRef, error)
}

// CampaignRepository defines the contract for campaign data operations
type CampaignRepository interface {
	Create(ctx context.Context, campaign *models.Campaign) error
	GetByID(ctx context.Context, id int64) (*models.Campaign, error)
	List(ctx context.Context, filter CampaignFilter) ([]*models.Campaign, error)
	// Update writes the editable fields; CollectedAmount is left untouched
	Update(ctx context.Context, campaign *models.Campaign) error
	Delete(ctx context.Context, id int64) error
	Count(ctx context.Context) (int64, error)

	// IncrementCollected atomically adds amount to an active campaign.
	// ErrNotFound means no active campaign with that id exists.
	IncrementCollected(ctx context.Context, id int64, amount int64) (*models.Campaign, error)
	GetRefs(ctx context.Context, ids []int64) (map[int64]*models.CampaignRef, error)
}

// DonationRepository defines the contract for the append-only ledger
type DonationRepository interface {
	Create(ctx context.Context, donation *models.Donation) error
	GetByID(ctx context.Context, id int64) (*models.Donation, error)
	// List returns donations newest first, optionally for a single donor
	List(ctx context.Context, filter DonationFilter) ([]*models.Donation, error)
	SumAmount(ctx context.Context) (int64, error)
	// TotalsByCampaign sums donations per existing campaign, largest first
	TotalsByCampaign(ctx context.Context) ([]*models.CampaignTotal, error)
}

// BeneficiaryRequestRepository defines the contract for aid requests
type BeneficiaryRequestRepository interface {
	Create(ctx context.Context, req *models.BeneficiaryRequest) error
	GetByID(ctx context.Context, id int64) (*models.BeneficiaryRequest, error)
	// List returns requests newest first
	List(ctx context.Context, filter RequestFilter) ([]*models.BeneficiaryRequest, error)
	CountByStatus(ctx context.Context, status models.RequestStatus) (int64, error)

	// Review moves a pending request to status. ErrStale means it was no
	// longer pending.
	Review(ctx context.Context, id int64, status models.RequestStatus, reviewerID int64, at time.Time) (*models.BeneficiaryRequest, error)
}

// VolunteerTaskRepository defines the contract for volunteer tasks
type VolunteerTaskRepository interface {
	Create(ctx context.Context, task *models.VolunteerTask) error
	GetByID(ctx context.Context, id int64) (*models.VolunteerTask, error)
	// List returns tasks newest first
	List(ctx context.Context, filter TaskFilter) ([]*models.VolunteerTask, error)

	// SubmitReport records a report on a task that is not yet approved
	SubmitReport(ctx context.Context, id int64, reportURL string) (*models.VolunteerTask, error)
	// Approve moves a submitted task to approved with the awarded points
	Approve(ctx context.Context, id int64, points int64) (*models.VolunteerTask, error)
}

// ===============================
// FILTERS
// ===============================

// CampaignFilter narrows campaign listings
type CampaignFilter struct {
	Status *models.CampaignStatus
}

// DonationFilter narrows donation listings
type DonationFilter struct {
	DonorID *int64
}

// RequestFilter narrows beneficiary request listings
type RequestFilter struct {
	Status        *models.RequestStatus
	BeneficiaryID *int64
}

// TaskFilter narrows volunteer task listings
type TaskFilter struct {
	VolunteerID *int64
}
