// file: internal/models/models.go
package models

import (
	"time"
)

// ===============================
// ENUMERATIONS
// ===============================

// CampaignCategory is the fixed set of causes a campaign can raise funds for
type CampaignCategory string

const (
	CategoryEducation        CampaignCategory = "Education"
	CategoryHealthcare       CampaignCategory = "Healthcare"
	CategoryDisasterRelief   CampaignCategory = "Disaster Relief"
	CategoryCommunityWelfare CampaignCategory = "Community Welfare"
)

// IsValid reports whether c is a known category
func (c CampaignCategory) IsValid() bool {
	switch c {
	case CategoryEducation, CategoryHealthcare, CategoryDisasterRelief, CategoryCommunityWelfare:
		return true
	}
	return false
}

// CampaignStatus is the lifecycle state of a campaign
type CampaignStatus string

const (
	CampaignActive CampaignStatus = "active"
	CampaignClosed CampaignStatus = "closed"
)

// IsValid reports whether s is a known campaign status
func (s CampaignStatus) IsValid() bool {
	return s == CampaignActive || s == CampaignClosed
}

// PaymentStatus of a donation. Every recorded donation is already settled.
type PaymentStatus string

const PaymentSuccess PaymentStatus = "success"

// RequestStatus is the review state of a beneficiary request
type RequestStatus string

const (
	RequestPending  RequestStatus = "pending"
	RequestApproved RequestStatus = "approved"
	RequestRejected RequestStatus = "rejected"
)

// IsTerminal reports whether the request has already been reviewed
func (s RequestStatus) IsTerminal() bool {
	return s == RequestApproved || s == RequestRejected
}

// TaskStatus is the workflow state of a volunteer task
type TaskStatus string

const (
	TaskAssigned  TaskStatus = "assigned"
	TaskSubmitted TaskStatus = "submitted"
	TaskApproved  TaskStatus = "approved"
)

// ===============================
// CORE ENTITIES
// ===============================

// User is an identity together with its gamification state.
// Badge always equals BadgeFor(Points) after a mutation.
type User struct {
	ID           int64     `json:"id" db:"id"`
	Name         string    `json:"name" db:"name"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	Role         Role      `json:"role" db:"role"`
	Points       int64     `json:"points" db:"points"`
	Badge        Badge     `json:"badge" db:"badge"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// Campaign is a fundraising goal with a running total
type Campaign struct {
	ID              int64            `json:"id" db:"id"`
	Title           string           `json:"title" db:"title"`
	Category        CampaignCategory `json:"category" db:"category"`
	Description     string           `json:"description" db:"description"`
	TargetAmount    int64            `json:"target_amount" db:"target_amount"`
	CollectedAmount int64            `json:"collected_amount" db:"collected_amount"`
	Status          CampaignStatus   `json:"status" db:"status"`
	CreatedBy       int64            `json:"created_by" db:"created_by"`
	CreatedAt       time.Time        `json:"created_at" db:"created_at"`
}

// IsActive reports whether the campaign accepts donations
func (c *Campaign) IsActive() bool {
	return c.Status == CampaignActive
}

// Donation is one immutable contribution event
type Donation struct {
	ID            int64         `json:"id" db:"id"`
	DonorID       int64         `json:"donor_id" db:"donor_id"`
	CampaignID    int64         `json:"campaign_id" db:"campaign_id"`
	Amount        int64         `json:"amount" db:"amount"`
	PointsEarned  int64         `json:"points_earned" db:"points_earned"`
	PaymentStatus PaymentStatus `json:"payment_status" db:"payment_status"`
	DonatedAt     time.Time     `json:"donated_at" db:"donated_at"`
}

// BeneficiaryRequest is an aid application against a campaign.
// ReviewedBy and ReviewedAt are set together on leaving pending.
type BeneficiaryRequest struct {
	ID             int64         `json:"id" db:"id"`
	BeneficiaryID  int64         `json:"beneficiary_id" db:"beneficiary_id"`
	CampaignID     int64         `json:"campaign_id" db:"campaign_id"`
	RequestMessage string        `json:"request_message" db:"request_message"`
	DocumentURL    *string       `json:"document_url,omitempty" db:"document_url"`
	Status         RequestStatus `json:"status" db:"status"`
	ReviewedBy     *int64        `json:"reviewed_by,omitempty" db:"reviewed_by"`
	ReviewedAt     *time.Time    `json:"reviewed_at,omitempty" db:"reviewed_at"`
	CreatedAt      time.Time     `json:"created_at" db:"created_at"`
}

// VolunteerTask is a unit of work assigned to a volunteer.
// PointsEarned stays 0 until the task is approved.
type VolunteerTask struct {
	ID           int64      `json:"id" db:"id"`
	VolunteerID  int64      `json:"volunteer_id" db:"volunteer_id"`
	Title        string     `json:"title" db:"title"`
	Description  string     `json:"description" db:"description"`
	ReportURL    *string    `json:"report_url,omitempty" db:"report_url"`
	PointsEarned int64      `json:"points_earned" db:"points_earned"`
	Status       TaskStatus `json:"status" db:"status"`
	AssignedBy   int64      `json:"assigned_by" db:"assigned_by"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
}

// ===============================
// READ PROJECTIONS
// ===============================

// UserRef is the display subset of a referenced user. A nil *UserRef means
// the reference no longer resolves.
type UserRef struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// CampaignRef is the display subset of a referenced campaign
type CampaignRef struct {
	ID       int64            `json:"id"`
	Title    string           `json:"title"`
	Category CampaignCategory `json:"category"`
}

// DonationView is a donation with its references resolved
type DonationView struct {
	Donation
	Donor    *UserRef     `json:"donor,omitempty"`
	Campaign *CampaignRef `json:"campaign,omitempty"`
}

// BeneficiaryRequestView is a request with its references resolved
type BeneficiaryRequestView struct {
	BeneficiaryRequest
	Beneficiary *UserRef     `json:"beneficiary,omitempty"`
	Campaign    *CampaignRef `json:"campaign,omitempty"`
	Reviewer    *UserRef     `json:"reviewer,omitempty"`
}

// VolunteerTaskView is a task with its references resolved
type VolunteerTaskView struct {
	VolunteerTask
	Volunteer *UserRef `json:"volunteer,omitempty"`
	Assigner  *UserRef `json:"assigner,omitempty"`
}

// Receipt is a denormalized snapshot of a donation, regenerated on every read
type Receipt struct {
	ReceiptID    int64            `json:"receipt_id"`
	DonorName    string           `json:"donor_name"`
	DonorEmail   string           `json:"donor_email"`
	Campaign     string           `json:"campaign"`
	Category     CampaignCategory `json:"category"`
	Amount       int64            `json:"amount"`
	PointsEarned int64            `json:"points_earned"`
	DonatedAt    time.Time        `json:"donated_at"`
	IssuedAt     time.Time        `json:"issued_at"`
}

// DonorRank is one leaderboard entry
type DonorRank struct {
	UserID int64  `json:"user_id"`
	Name   string `json:"name"`
	Points int64  `json:"points"`
	Badge  Badge  `json:"badge"`
}

// CampaignTotal is the ledger sum for a single campaign
type CampaignTotal struct {
	CampaignID    int64  `json:"campaign_id"`
	CampaignTitle string `json:"campaign_title"`
	TotalAmount   int64  `json:"total_amount"`
}

// DashboardStats are the headline admin numbers
type DashboardStats struct {
	TotalDonations        int64 `json:"total_donations"`
	TotalCampaigns        int64 `json:"total_campaigns"`
	ApprovedBeneficiaries int64 `json:"approved_beneficiaries"`
}
