package domain

import (
	dErrors "sportclub/pkg/domain-errors"
	"sportclub/pkg/platform/strings"
)

// Role is a member role label used by the authorization gate.
// Invariant: the value must be one of the supported roles.
//
// Usage: construct via ParseRole at trust boundaries; direct casting bypasses
// validation.
type Role string

const (
	RoleAthlete    Role = "athlete"
	RoleGuardian   Role = "guardian"
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "super_admin"
)

var validRoles = map[Role]bool{
	RoleAthlete:    true,
	RoleGuardian:   true,
	RoleAdmin:      true,
	RoleSuperAdmin: true,
}

// ParseRole constructs a Role from external input.
//
// Errors: returns CodeInvalidInput when the value is empty or unsupported.
func ParseRole(s string) (Role, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "role cannot be empty")
	}
	r := Role(s)
	if !r.IsValid() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid role: "+s)
	}
	return r, nil
}

// ParseRoles normalizes a list of role labels (trimmed, lowercased, deduped)
// and validates each one.
func ParseRoles(values []string) ([]Role, error) {
	labels := strings.DedupeAndTrimLower(values)
	roles := make([]Role, 0, len(labels))
	for _, label := range labels {
		r, err := ParseRole(label)
		if err != nil {
			return nil, err
		}
		roles = append(roles, r)
	}
	return roles, nil
}

func (r Role) IsValid() bool {
	return validRoles[r]
}

func (r Role) String() string {
	return string(r)
}

// IsAdministrative reports whether the role may use the admin dashboards.
func (r Role) IsAdministrative() bool {
	return r == RoleAdmin || r == RoleSuperAdmin
}

// HasRole reports whether roles contains want. Super admins satisfy any admin check.
func HasRole(roles []Role, want Role) bool {
	for _, r := range roles {
		if r == want {
			return true
		}
		if want == RoleAdmin && r == RoleSuperAdmin {
			return true
		}
	}
	return false
}
