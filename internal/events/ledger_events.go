package events

import "helpinghands/internal/models"

// Event types
const (
	TypeDonationRecorded  = "donation.recorded"
	TypeBadgeChanged      = "badge.changed"
	TypeUserRegistered    = "user.registered"
	TypeUserDeleted       = "user.deleted"
	TypeTaskAssigned      = "task.assigned"
	TypeTaskApproved      = "task.approved"
	TypeRequestSubmitted  = "beneficiary.submitted"
	TypeRequestReviewed   = "beneficiary.reviewed"
	TypeCampaignChanged   = "campaign.changed"
	CampaignActionCreated = "created"
	CampaignActionUpdated = "updated"
	CampaignActionDeleted = "deleted"
)

// DonationRecordedEvent is emitted after a donation commits
type DonationRecordedEvent struct {
	BaseEvent
	DonationID   int64 `json:"donation_id"`
	CampaignID   int64 `json:"campaign_id"`
	Amount       int64 `json:"amount"`
	PointsEarned int64 `json:"points_earned"`
}

// NewDonationRecordedEvent creates a donation recorded event
func NewDonationRecordedEvent(d *models.Donation) *DonationRecordedEvent {
	return &DonationRecordedEvent{
		BaseEvent:    newBaseEvent(TypeDonationRecorded, d.DonorID),
		DonationID:   d.ID,
		CampaignID:   d.CampaignID,
		Amount:       d.Amount,
		PointsEarned: d.PointsEarned,
	}
}

// BadgeChangedEvent is emitted when a points award crosses a tier
type BadgeChangedEvent struct {
	BaseEvent
	From   models.Badge `json:"from"`
	To     models.Badge `json:"to"`
	Points int64        `json:"points"`
}

// NewBadgeChangedEvent creates a badge changed event for userID
func NewBadgeChangedEvent(userID int64, from, to models.Badge, points int64) *BadgeChangedEvent {
	return &BadgeChangedEvent{
		BaseEvent: newBaseEvent(TypeBadgeChanged, userID),
		From:      from,
		To:        to,
		Points:    points,
	}
}

// UserRegisteredEvent is emitted when an account is created
type UserRegisteredEvent struct {
	BaseEvent
	Role models.Role `json:"role"`
}

// NewUserRegisteredEvent creates a user registered event
func NewUserRegisteredEvent(userID int64, role models.Role) *UserRegisteredEvent {
	return &UserRegisteredEvent{
		BaseEvent: newBaseEvent(TypeUserRegistered, userID),
		Role:      role,
	}
}

// UserDeletedEvent is emitted when an admin removes an account
type UserDeletedEvent struct {
	BaseEvent
	DeletedUserID int64 `json:"deleted_user_id"`
}

// NewUserDeletedEvent creates a user deleted event
func NewUserDeletedEvent(actorID, deletedUserID int64) *UserDeletedEvent {
	return &UserDeletedEvent{
		BaseEvent:     newBaseEvent(TypeUserDeleted, actorID),
		DeletedUserID: deletedUserID,
	}
}

// TaskAssignedEvent is emitted when an admin assigns a task
type TaskAssignedEvent struct {
	BaseEvent
	TaskID      int64 `json:"task_id"`
	VolunteerID int64 `json:"volunteer_id"`
}

// NewTaskAssignedEvent creates a task assigned event
func NewTaskAssignedEvent(actorID int64, task *models.VolunteerTask) *TaskAssignedEvent {
	return &TaskAssignedEvent{
		BaseEvent:   newBaseEvent(TypeTaskAssigned, actorID),
		TaskID:      task.ID,
		VolunteerID: task.VolunteerID,
	}
}

// TaskApprovedEvent is emitted after a task approval commits
type TaskApprovedEvent struct {
	BaseEvent
	TaskID      int64 `json:"task_id"`
	VolunteerID int64 `json:"volunteer_id"`
	Points      int64 `json:"points"`
}

// NewTaskApprovedEvent creates a task approved event
func NewTaskApprovedEvent(actorID int64, task *models.VolunteerTask) *TaskApprovedEvent {
	return &TaskApprovedEvent{
		BaseEvent:   newBaseEvent(TypeTaskApproved, actorID),
		TaskID:      task.ID,
		VolunteerID: task.VolunteerID,
		Points:      task.PointsEarned,
	}
}

// RequestSubmittedEvent is emitted when a beneficiary applies for aid
type RequestSubmittedEvent struct {
	BaseEvent
	RequestID  int64 `json:"request_id"`
	CampaignID int64 `json:"campaign_id"`
}

// NewRequestSubmittedEvent creates a request submitted event
func NewRequestSubmittedEvent(req *models.BeneficiaryRequest) *RequestSubmittedEvent {
	return &RequestSubmittedEvent{
		BaseEvent:  newBaseEvent(TypeRequestSubmitted, req.BeneficiaryID),
		RequestID:  req.ID,
		CampaignID: req.CampaignID,
	}
}

// RequestReviewedEvent is emitted when a request leaves pending
type RequestReviewedEvent struct {
	BaseEvent
	RequestID int64                `json:"request_id"`
	Status    models.RequestStatus `json:"status"`
}

// NewRequestReviewedEvent creates a request reviewed event
func NewRequestReviewedEvent(reviewerID int64, req *models.BeneficiaryRequest) *RequestReviewedEvent {
	return &RequestReviewedEvent{
		BaseEvent: newBaseEvent(TypeRequestReviewed, reviewerID),
		RequestID: req.ID,
		Status:    req.Status,
	}
}

// CampaignChangedEvent is emitted on campaign create, update and delete
type CampaignChangedEvent struct {
	BaseEvent
	CampaignID int64  `json:"campaign_id"`
	Action     string `json:"action"`
}

// NewCampaignChangedEvent creates a campaign changed event
func NewCampaignChangedEvent(actorID, campaignID int64, action string) *CampaignChangedEvent {
	return &CampaignChangedEvent{
		BaseEvent:  newBaseEvent(TypeCampaignChanged, actorID),
		CampaignID: campaignID,
		Action:     action,
	}
}
