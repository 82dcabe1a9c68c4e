// file: internal/services/interface.go
package services

import (
	"context"

	"helpinghands/internal/models"
	"helpinghands/internal/repositories"
)

// ===============================
// CORE SERVICE INTERFACES
// ===============================

// CampaignService manages the campaign lifecycle
type CampaignService interface {
	Create(ctx context.Context, actor models.Principal, req *CreateCampaignRequest) (*models.Campaign, error)
	Get(ctx context.Context, id int64) (*models.Campaign, error)
	ListActive(ctx context.Context) ([]*models.Campaign, error)
	ListAll(ctx context.Context, actor models.Principal) ([]*models.Campaign, error)
	Update(ctx context.Context, actor models.Principal, id int64, req *UpdateCampaignRequest) (*models.Campaign, error)
	Delete(ctx context.Context, actor models.Principal, id int64) error

	// ApplyDonation adds amount to an active campaign's collected total
	// through tx, so it commits or rolls back with the caller's ledger write.
	ApplyDonation(ctx context.Context, tx repositories.Store, campaignID, amount int64) (*models.Campaign, error)
}

// DonationService owns the donation ledger and its aggregates
type DonationService interface {
	MakeDonation(ctx context.Context, actor models.Principal, req *MakeDonationRequest) (*DonationResult, error)
	History(ctx context.Context, actor models.Principal) ([]*models.DonationView, error)
	Receipt(ctx context.Context, actor models.Principal, donationID int64) (*models.Receipt, error)
	ListAll(ctx context.Context, actor models.Principal) ([]*models.DonationView, error)

	// Aggregates
	TotalDonations(ctx context.Context) (int64, error)
	TopDonors(ctx context.Context, n int) ([]*models.DonorRank, error)
	PerCampaignTotals(ctx context.Context) ([]*models.CampaignTotal, error)
}

// BeneficiaryService runs the aid request workflow
type BeneficiaryService interface {
	Submit(ctx context.Context, actor models.Principal, req *SubmitBeneficiaryRequest) (*models.BeneficiaryRequest, error)
	Review(ctx context.Context, actor models.Principal, req *ReviewBeneficiaryRequest) (*models.BeneficiaryRequest, error)
	ListPending(ctx context.Context, actor models.Principal) ([]*models.BeneficiaryRequestView, error)
	ListMine(ctx context.Context, actor models.Principal) ([]*models.BeneficiaryRequestView, error)
	ListAll(ctx context.Context, actor models.Principal) ([]*models.BeneficiaryRequestView, error)
}

// VolunteerService runs the volunteer task workflow
type VolunteerService interface {
	Assign(ctx context.Context, actor models.Principal, req *AssignTaskRequest) (*models.VolunteerTask, error)
	SubmitReport(ctx context.Context, actor models.Principal, req *SubmitReportRequest) (*models.VolunteerTask, error)
	Approve(ctx context.Context, actor models.Principal, req *ApproveTaskRequest) (*TaskApprovalResult, error)
	ListMine(ctx context.Context, actor models.Principal) ([]*models.VolunteerTaskView, error)
	ListAll(ctx context.Context, actor models.Principal) ([]*models.VolunteerTaskView, error)
}

// UserService covers admin user management and profiles
type UserService interface {
	CreateUser(ctx context.Context, actor models.Principal, req *CreateUserRequest) (*models.User, error)
	ListUsers(ctx context.Context, actor models.Principal) ([]*models.User, error)
	DeleteUser(ctx context.Context, actor models.Principal, id int64) error
	GetProfile(ctx context.Context, actor models.Principal) (*Profile, error)
}

// AuthService handles registration, login and token verification
type AuthService interface {
	Register(ctx context.Context, req *RegisterRequest) (*AuthResult, error)
	Login(ctx context.Context, req *LoginRequest) (*AuthResult, error)
	Authenticate(ctx context.Context, token string) (models.Principal, error)
}

// DashboardService serves cached admin aggregates
type DashboardService interface {
	Stats(ctx context.Context, actor models.Principal) (*models.DashboardStats, error)
	TopDonors(ctx context.Context, actor models.Principal, n int) ([]*models.DonorRank, error)
	CampaignTotals(ctx context.Context, actor models.Principal) ([]*models.CampaignTotal, error)
	Invalidate(ctx context.Context) error
}
