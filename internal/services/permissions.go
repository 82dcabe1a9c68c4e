package services

import (
	"fmt"

	"helpinghands/internal/models"
)

// Operation names a guarded entry point
type Operation string

const (
	OpCampaignCreate Operation = "campaign.create"
	OpCampaignUpdate Operation = "campaign.update"
	OpCampaignDelete Operation = "campaign.delete"
	OpCampaignAll    Operation = "campaign.list_all"

	OpDonationMake    Operation = "donation.make"
	OpDonationHistory Operation = "donation.history"
	OpDonationReceipt Operation = "donation.receipt"
	OpDonationAll     Operation = "donation.list_all"

	OpDashboardView Operation = "dashboard.view"

	OpBeneficiarySubmit  Operation = "beneficiary.submit"
	OpBeneficiaryMine    Operation = "beneficiary.list_mine"
	OpBeneficiaryReview  Operation = "beneficiary.review"
	OpBeneficiaryPending Operation = "beneficiary.list_pending"
	OpBeneficiaryAll     Operation = "beneficiary.list_all"

	OpVolunteerAssign  Operation = "volunteer.assign"
	OpVolunteerApprove Operation = "volunteer.approve"
	OpVolunteerAll     Operation = "volunteer.list_all"
	OpVolunteerSubmit  Operation = "volunteer.submit"
	OpVolunteerMine    Operation = "volunteer.list_mine"

	OpUserCreate  Operation = "user.create"
	OpUserList    Operation = "user.list"
	OpUserDelete  Operation = "user.delete"
	OpUserProfile Operation = "user.profile"
)

var (
	adminOnly       = []models.Role{models.RoleAdmin}
	donorOnly       = []models.Role{models.RoleDonor}
	beneficiaryOnly = []models.Role{models.RoleBeneficiary}
	volunteerOnly   = []models.Role{models.RoleVolunteer}
)

// permissions maps each operation to the roles allowed to invoke it
var permissions = map[Operation][]models.Role{
	OpCampaignCreate: adminOnly,
	OpCampaignUpdate: adminOnly,
	OpCampaignDelete: adminOnly,
	OpCampaignAll:    adminOnly,

	OpDonationMake:    donorOnly,
	OpDonationHistory: donorOnly,
	OpDonationReceipt: {models.RoleDonor, models.RoleAdmin},
	OpDonationAll:     adminOnly,

	OpDashboardView: adminOnly,

	OpBeneficiarySubmit:  beneficiaryOnly,
	OpBeneficiaryMine:    beneficiaryOnly,
	OpBeneficiaryReview:  adminOnly,
	OpBeneficiaryPending: adminOnly,
	OpBeneficiaryAll:     adminOnly,

	OpVolunteerAssign:  adminOnly,
	OpVolunteerApprove: adminOnly,
	OpVolunteerAll:     adminOnly,
	OpVolunteerSubmit:  volunteerOnly,
	OpVolunteerMine:    volunteerOnly,

	OpUserCreate:  adminOnly,
	OpUserList:    adminOnly,
	OpUserDelete:  adminOnly,
	OpUserProfile: models.AllRoles,
}

// AllowedRoles returns the roles permitted to invoke op
func AllowedRoles(op Operation) []models.Role {
	return append([]models.Role(nil), permissions[op]...)
}

// Can reports whether role may invoke op
func Can(role models.Role, op Operation) bool {
	for _, allowed := range permissions[op] {
		if allowed == role {
			return true
		}
	}
	return false
}

// authorize asserts that actor may invoke op. An absent actor is
// UNAUTHORIZED, a wrong role is FORBIDDEN.
func authorize(actor models.Principal, op Operation) error {
	if actor.IsZero() || actor.UserID == 0 {
		return NewUnauthorizedError("authentication required", CodeAuthRequired)
	}
	if !Can(actor.Role, op) {
		return NewForbiddenError(fmt.Sprintf("role %q may not perform %s", actor.Role, op), CodeRoleNotPermitted).
			WithDetail("operation", string(op))
	}
	return nil
}
