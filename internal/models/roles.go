package models

import (
	"fmt"
	"strings"
)

// Role is the acting capacity of a user.
type Role string

const (
	RoleAdmin       Role = "admin"
	RoleDonor       Role = "donor"
	RoleBeneficiary Role = "beneficiary"
	RoleVolunteer   Role = "volunteer"
)

// AllRoles lists every role in a stable order
var AllRoles = []Role{RoleAdmin, RoleDonor, RoleBeneficiary, RoleVolunteer}

// ParseRole converts a raw role string, rejecting unknown values
func ParseRole(raw string) (Role, error) {
	role := Role(strings.ToLower(strings.TrimSpace(raw)))
	if !role.IsValid() {
		return "", fmt.Errorf("unknown role %q", raw)
	}
	return role, nil
}

// IsValid reports whether r is a known role
func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleDonor, RoleBeneficiary, RoleVolunteer:
		return true
	}
	return false
}

// String returns the role name
func (r Role) String() string {
	return string(r)
}

// SelfRegistrable reports whether the role may be chosen at sign-up
func (r Role) SelfRegistrable() bool {
	return r == RoleDonor || r == RoleBeneficiary || r == RoleVolunteer
}

// Principal is the authenticated actor behind an operation.
type Principal struct {
	UserID int64 `json:"user_id"`
	Role   Role  `json:"role"`
}

// IsZero reports whether no actor was supplied
func (p Principal) IsZero() bool {
	return p.UserID == 0 && p.Role == ""
}

// Is reports whether the principal acts in the given role
func (p Principal) Is(role Role) bool {
	return p.Role == role
}
