// file: internal/services/types.go
package services

import (
	"time"

	"helpinghands/internal/models"
)

// ===============================
// CAMPAIGN REQUESTS
// ===============================

// CreateCampaignRequest is the payload for campaign creation
type CreateCampaignRequest struct {
	Title        string                  `json:"title" validate:"required,max=200"`
	Category     models.CampaignCategory `json:"category" validate:"required,campaign_category"`
	Description  string                  `json:"description" validate:"max=5000"`
	TargetAmount int64                   `json:"target_amount" validate:"gt=0"`
}

// UpdateCampaignRequest is a partial campaign patch; nil fields are kept
type UpdateCampaignRequest struct {
	Title        *string                  `json:"title,omitempty" validate:"omitempty,min=1,max=200"`
	Category     *models.CampaignCategory `json:"category,omitempty" validate:"omitempty,campaign_category"`
	Description  *string                  `json:"description,omitempty" validate:"omitempty,max=5000"`
	TargetAmount *int64                   `json:"target_amount,omitempty" validate:"omitempty,gt=0"`
	Status       *models.CampaignStatus   `json:"status,omitempty" validate:"omitempty,campaign_status"`
}

// ===============================
// DONATION REQUESTS
// ===============================

// MakeDonationRequest is the payload for a donation
type MakeDonationRequest struct {
	CampaignID int64 `json:"campaign_id" validate:"required,gt=0"`
	Amount     int64 `json:"amount"`
}

// DonationResult is a recorded donation plus the donor's new standing
type DonationResult struct {
	Donation     *models.Donation `json:"donation"`
	TotalPoints  int64            `json:"total_points"`
	Badge        models.Badge     `json:"badge"`
	BadgeChanged bool             `json:"badge_changed"`
}

// ===============================
// BENEFICIARY REQUESTS
// ===============================

// SubmitBeneficiaryRequest is the payload for an aid application
type SubmitBeneficiaryRequest struct {
	CampaignID     int64   `json:"campaign_id" validate:"required,gt=0"`
	RequestMessage string  `json:"request_message" validate:"required,max=2000"`
	DocumentURL    *string `json:"document_url,omitempty" validate:"omitempty,url"`
}

// ReviewBeneficiaryRequest is the admin decision on a request
type ReviewBeneficiaryRequest struct {
	RequestID int64  `json:"request_id" validate:"required,gt=0"`
	Action    string `json:"action"`
}

// ===============================
// VOLUNTEER REQUESTS
// ===============================

// AssignTaskRequest is the payload for task assignment
type AssignTaskRequest struct {
	VolunteerID int64  `json:"volunteer_id" validate:"required,gt=0"`
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description" validate:"max=5000"`
}

// SubmitReportRequest is the volunteer's report on a task
type SubmitReportRequest struct {
	TaskID    int64  `json:"task_id" validate:"required,gt=0"`
	ReportURL string `json:"report_url" validate:"required,url"`
}

// ApproveTaskRequest awards points for a submitted task
type ApproveTaskRequest struct {
	TaskID int64 `json:"task_id" validate:"required,gt=0"`
	Points int64 `json:"points" validate:"gte=0"`
}

// TaskApprovalResult is an approved task plus the volunteer's new standing
type TaskApprovalResult struct {
	Task         *models.VolunteerTask `json:"task"`
	TotalPoints  int64                 `json:"total_points"`
	Badge        models.Badge          `json:"badge"`
	BadgeChanged bool                  `json:"badge_changed"`
}

// ===============================
// USER AND AUTH REQUESTS
// ===============================

// RegisterRequest is the public sign-up payload
type RegisterRequest struct {
	Name     string      `json:"name" validate:"required,max=100"`
	Email    string      `json:"email" validate:"required,email,max=254"`
	Password string      `json:"password" validate:"required,min=6,max=72"`
	Role     models.Role `json:"role" validate:"required,role"`
}

// LoginRequest carries credentials
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// CreateUserRequest is the admin user creation payload
type CreateUserRequest struct {
	Name     string      `json:"name" validate:"required,max=100"`
	Email    string      `json:"email" validate:"required,email,max=254"`
	Password string      `json:"password" validate:"required,min=6,max=72"`
	Role     models.Role `json:"role" validate:"required,role"`
}

// AuthResult is returned by login and registration
type AuthResult struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      *models.User `json:"user"`
}

// Profile is a user together with badge progress
type Profile struct {
	User     *models.User         `json:"user"`
	Progress models.BadgeProgress `json:"progress"`
}
