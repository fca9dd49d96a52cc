// Package directive models a club's four directive positions and decides
// which members may be offered for each one.
package directive

import (
	"errors"
	"fmt"
	"strings"

	id "sportclub/pkg/domain"
)

// Role is one of the four directive positions.
type Role string

const (
	RolePresident Role = "president"
	RoleSecretary Role = "secretary"
	RoleTreasurer Role = "treasurer"
	RoleDirector  Role = "director"
)

// Roles lists the positions in slot order.
var Roles = [...]Role{RolePresident, RoleSecretary, RoleTreasurer, RoleDirector}

func (r Role) index() int {
	for i, role := range Roles {
		if role == r {
			return i
		}
	}
	return -1
}

func (r Role) IsValid() bool {
	return r.index() >= 0
}

// ParseRole accepts a position name case-insensitively.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if !r.IsValid() {
		return "", fmt.Errorf("unknown directive role %q", s)
	}
	return r, nil
}

// ErrDuplicateAssignment is matched by every *DuplicateAssignmentError.
var ErrDuplicateAssignment = errors.New("member holds more than one directive position")

// DuplicateAssignmentError names the member and the positions they hold.
type DuplicateAssignmentError struct {
	Member id.UserID
	Roles  []Role
}

func (e *DuplicateAssignmentError) Error() string {
	names := make([]string, len(e.Roles))
	for i, r := range e.Roles {
		names[i] = string(r)
	}
	return fmt.Sprintf("member %s holds more than one directive position: %s", e.Member, strings.Join(names, ", "))
}

func (e *DuplicateAssignmentError) Is(target error) bool {
	return target == ErrDuplicateAssignment
}

// Slate holds zero or one member per position. The zero value is an empty slate.
//
// Invariant (checked by Validate, enforced by Assign): no member occupies
// more than one position.
type Slate struct {
	slots [len(Roles)]id.UserID
}

// NewSlate builds a slate from a role-to-member map and validates it.
// Nil IDs leave the position empty.
func NewSlate(assignments map[Role]id.UserID) (Slate, error) {
	var s Slate
	for role, member := range assignments {
		i := role.index()
		if i < 0 {
			return Slate{}, fmt.Errorf("unknown directive role %q", role)
		}
		s.slots[i] = member
	}
	if err := s.Validate(); err != nil {
		return Slate{}, err
	}
	return s, nil
}

// Get returns the member in role and whether the position is occupied.
func (s Slate) Get(role Role) (id.UserID, bool) {
	m := s.slots[mustIndex(role)]
	return m, !m.IsNil()
}

// Assign puts member in role. It fails with a *DuplicateAssignmentError when
// member already holds another position; reassigning the same position is a no-op.
func (s *Slate) Assign(role Role, member id.UserID) error {
	i := mustIndex(role)
	if member.IsNil() {
		s.slots[i] = member
		return nil
	}
	for j, held := range s.slots {
		if j != i && held == member {
			return &DuplicateAssignmentError{Member: member, Roles: []Role{Roles[j], role}}
		}
	}
	s.slots[i] = member
	return nil
}

// Clear empties role.
func (s *Slate) Clear(role Role) {
	s.slots[mustIndex(role)] = id.UserID{}
}

// HeldElsewhere reports whether member occupies a position other than role.
func (s Slate) HeldElsewhere(role Role, member id.UserID) bool {
	i := mustIndex(role)
	for j, held := range s.slots {
		if j != i && !held.IsNil() && held == member {
			return true
		}
	}
	return false
}

// Members returns the occupied positions.
func (s Slate) Members() map[Role]id.UserID {
	out := make(map[Role]id.UserID, len(Roles))
	for i, m := range s.slots {
		if !m.IsNil() {
			out[Roles[i]] = m
		}
	}
	return out
}

// Validate re-checks the uniqueness invariant across all four positions.
// Use it before persisting even when the UI already filtered candidates:
// another session may have edited the slate concurrently.
func (s Slate) Validate() error {
	for i, m := range s.slots {
		if m.IsNil() {
			continue
		}
		roles := []Role{Roles[i]}
		for j := i + 1; j < len(s.slots); j++ {
			if s.slots[j] == m {
				roles = append(roles, Roles[j])
			}
		}
		if len(roles) > 1 {
			return &DuplicateAssignmentError{Member: m, Roles: roles}
		}
	}
	return nil
}

func mustIndex(role Role) int {
	i := role.index()
	if i < 0 {
		panic(fmt.Sprintf("directive: unknown role %q", role))
	}
	return i
}
