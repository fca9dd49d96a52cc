package directive

import (
	"time"

	"sportclub/internal/eligibility"
	id "sportclub/pkg/domain"
)

// Candidate is the subset of a member the resolver needs.
type Candidate struct {
	ID         id.UserID
	Identifier string
	BirthDate  time.Time
}

// Resolver filters candidate pools for directive positions.
type Resolver struct {
	thresholds eligibility.Thresholds
}

func NewResolver(thresholds eligibility.Thresholds) *Resolver {
	return &Resolver{thresholds: thresholds}
}

// AvailableCandidates uses the default thresholds.
func AvailableCandidates(slate Slate, target Role, pool []Candidate, asOf time.Time) []Candidate {
	return NewResolver(eligibility.DefaultThresholds).AvailableCandidates(slate, target, pool, asOf)
}

// AvailableCandidates returns the pool members old enough to hold a directive
// position who do not occupy one of the other three positions. A member
// already in target stays selectable. Pool order is preserved.
func (r *Resolver) AvailableCandidates(slate Slate, target Role, pool []Candidate, asOf time.Time) []Candidate {
	mustIndex(target)
	out := make([]Candidate, 0, len(pool))
	for _, c := range pool {
		if !r.Eligible(c, asOf) {
			continue
		}
		if slate.HeldElsewhere(target, c.ID) {
			continue
		}
		out = append(out, c)
	}
	return out
}

// Eligible reports whether c meets the directive age threshold at asOf.
func (r *Resolver) Eligible(c Candidate, asOf time.Time) bool {
	return r.thresholds.Allows(eligibility.RuleDirective, eligibility.AgeInYears(c.BirthDate, asOf))
}

// CheckSlate validates uniqueness and that every occupant is in pool and of age.
// It returns the first failure: a *DuplicateAssignmentError, or a
// *eligibility.BelowMinimumAgeError wrapped in *IneligibleMemberError.
func (r *Resolver) CheckSlate(slate Slate, pool []Candidate, asOf time.Time) error {
	if err := slate.Validate(); err != nil {
		return err
	}
	byID := make(map[id.UserID]Candidate, len(pool))
	for _, c := range pool {
		byID[c.ID] = c
	}
	for _, role := range Roles {
		member, ok := slate.Get(role)
		if !ok {
			continue
		}
		c, known := byID[member]
		if !known {
			return &IneligibleMemberError{Role: role, Member: member}
		}
		age := eligibility.AgeInYears(c.BirthDate, asOf)
		if err := r.thresholds.Check(eligibility.RuleDirective, age); err != nil {
			return &IneligibleMemberError{Role: role, Member: member, Err: err}
		}
	}
	return nil
}

// IneligibleMemberError reports an occupant who is not in the club's pool
// (Err is nil) or is under the directive age (Err is the age error).
type IneligibleMemberError struct {
	Role   Role
	Member id.UserID
	Err    error
}

func (e *IneligibleMemberError) Error() string {
	if e.Err == nil {
		return "member " + e.Member.String() + " is not a candidate for " + string(e.Role)
	}
	return string(e.Role) + ": " + e.Err.Error()
}

func (e *IneligibleMemberError) Unwrap() error {
	return e.Err
}
