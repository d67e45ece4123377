package domain

import (
	"fmt"
	"time"
)

// Role is a member's rank inside an alliance. R5 is the leader, R1 the lowest.
type Role string

// Alliance roles, highest first.
const (
	RoleR5 Role = "R5"
	RoleR4 Role = "R4"
	RoleR3 Role = "R3"
	RoleR2 Role = "R2"
	RoleR1 Role = "R1"
)

const (
	// FounderRole is granted to the user who creates an alliance.
	FounderRole = RoleR5
	// JoinRole is granted to users who redeem an invite.
	JoinRole = RoleR3
)

// Roles lists every role from highest to lowest.
var Roles = []Role{RoleR5, RoleR4, RoleR3, RoleR2, RoleR1}

// Rank returns 5 for R5 down to 1 for R1, and 0 for an unknown role.
func (r Role) Rank() int {
	switch r {
	case RoleR5:
		return 5
	case RoleR4:
		return 4
	case RoleR3:
		return 3
	case RoleR2:
		return 2
	case RoleR1:
		return 1
	default:
		return 0
	}
}

// Valid reports whether r is one of the five alliance roles.
func (r Role) Valid() bool {
	return r.Rank() > 0
}

// IsOfficer reports whether the role may perform officer-only mutations.
func (r Role) IsOfficer() bool {
	return r == RoleR5 || r == RoleR4
}

// ParseRole converts a string such as "R4" into a Role.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}

// Membership binds a user to an alliance with a role.
// Disabled memberships are kept for audit and can be reactivated by an invite.
type Membership struct {
	Entity
	AllianceID string `json:"alliance_id"`
	UserID     string `json:"user_id"`
	Role       Role   `json:"role"`
	Enabled    bool   `json:"enabled"`
}

// NewFounderMembership creates the enabled R5 membership for an alliance founder.
func NewFounderMembership(id, allianceID, userID string, now time.Time) *Membership {
	m := &Membership{
		Entity:     Entity{ID: id},
		AllianceID: allianceID,
		UserID:     userID,
		Role:       FounderRole,
		Enabled:    true,
	}
	m.InitTimestamps(now)
	return m
}
