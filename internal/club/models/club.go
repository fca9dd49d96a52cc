package models

import (
	"time"

	"sportclub/internal/directive"
	"sportclub/internal/eligibility"
	"sportclub/internal/identifier"
	id "sportclub/pkg/domain"
	dErrors "sportclub/pkg/domain-errors"
)

// Club is a sports club and its committed directive slate. Active is the
// club's vigencia: inactive clubs stay on record but take no new members.
//
// Invariants:
//   - RUT is empty or a valid RUT in storage form, unique across clubs
//   - Slate never holds the same member in two positions
type Club struct {
	ID           id.ClubID
	FantasyName  string
	LegalName    string
	FoundingDate time.Time
	RUT          string
	Email        string
	Phone        string
	Website      string
	Active       bool
	Slate        directive.Slate
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Clone returns a copy. Slate is a value type so a shallow copy suffices.
func (c *Club) Clone() *Club {
	cp := *c
	return &cp
}

// ClubView is the JSON form of a club.
type ClubView struct {
	ID                  string           `json:"id"`
	FantasyName         string           `json:"fantasy_name"`
	LegalName           string           `json:"legal_name,omitempty"`
	FoundingDate        string           `json:"founding_date,omitempty"`
	FoundingDateDisplay string           `json:"founding_date_display,omitempty"`
	RUT                 string           `json:"rut,omitempty"`
	RUTDisplay          string           `json:"rut_display,omitempty"`
	Email               string           `json:"email,omitempty"`
	Phone               string           `json:"phone,omitempty"`
	Website             string           `json:"website,omitempty"`
	Active              bool             `json:"active"`
	Directive           SlateAssignments `json:"directive"`
}

func ToView(c *Club) *ClubView {
	v := &ClubView{
		ID:                  c.ID.String(),
		FantasyName:         c.FantasyName,
		LegalName:           c.LegalName,
		FoundingDateDisplay: eligibility.FormatDate(c.FoundingDate),
		RUT:                 c.RUT,
		Email:               c.Email,
		Phone:               c.Phone,
		Website:             c.Website,
		Active:              c.Active,
		Directive:           FromSlate(c.Slate),
	}
	if !c.FoundingDate.IsZero() {
		v.FoundingDate = c.FoundingDate.Format("2006-01-02")
	}
	if c.RUT != "" {
		v.RUTDisplay = identifier.ToDisplay(c.RUT)
	}
	return v
}

// SlateAssignments is the wire form of a slate: one member ID per position,
// empty when vacant.
type SlateAssignments struct {
	President string `json:"president,omitempty"`
	Secretary string `json:"secretary,omitempty"`
	Treasurer string `json:"treasurer,omitempty"`
	Director  string `json:"director,omitempty"`
}

func (a SlateAssignments) byRole() map[directive.Role]string {
	return map[directive.Role]string{
		directive.RolePresident: a.President,
		directive.RoleSecretary: a.Secretary,
		directive.RoleTreasurer: a.Treasurer,
		directive.RoleDirector:  a.Director,
	}
}

// ToSlate parses the IDs and builds a slate. Malformed IDs are invalid input;
// a member in two positions yields a *directive.DuplicateAssignmentError.
func (a SlateAssignments) ToSlate() (directive.Slate, error) {
	m := make(map[directive.Role]id.UserID, len(directive.Roles))
	for role, raw := range a.byRole() {
		if raw == "" {
			continue
		}
		userID, err := id.ParseUserID(raw)
		if err != nil {
			return directive.Slate{}, dErrors.New(dErrors.CodeInvalidInput, "invalid member id for "+string(role))
		}
		m[role] = userID
	}
	return directive.NewSlate(m)
}

func FromSlate(s directive.Slate) SlateAssignments {
	get := func(r directive.Role) string {
		if m, ok := s.Get(r); ok {
			return m.String()
		}
		return ""
	}
	return SlateAssignments{
		President: get(directive.RolePresident),
		Secretary: get(directive.RoleSecretary),
		Treasurer: get(directive.RoleTreasurer),
		Director:  get(directive.RoleDirector),
	}
}

// Draft is an administrator's unsaved slate edit. Base is the committed slate
// the edit started from, so a commit applies only the positions the
// administrator actually changed.
type Draft struct {
	ClubID   id.ClubID
	AdminID  id.UserID
	Base     directive.Slate
	Proposed directive.Slate
	SavedAt  time.Time
}

// Changed lists the positions where Proposed differs from Base.
func (d *Draft) Changed() []directive.Role {
	var out []directive.Role
	for _, r := range directive.Roles {
		b, _ := d.Base.Get(r)
		p, _ := d.Proposed.Get(r)
		if b != p {
			out = append(out, r)
		}
	}
	return out
}

// ApplyTo replays the changed positions onto current, which may have moved
// since Base was read. Changed positions are cleared before any is filled so
// swaps between positions succeed. The result is re-validated.
func (d *Draft) ApplyTo(current directive.Slate) (directive.Slate, error) {
	next := current
	changed := d.Changed()
	for _, r := range changed {
		next.Clear(r)
	}
	for _, r := range changed {
		if m, ok := d.Proposed.Get(r); ok {
			if err := next.Assign(r, m); err != nil {
				return directive.Slate{}, err
			}
		}
	}
	if err := next.Validate(); err != nil {
		return directive.Slate{}, err
	}
	return next, nil
}

// DraftView is the JSON form of a draft.
type DraftView struct {
	ClubID   string           `json:"club_id"`
	Base     SlateAssignments `json:"base"`
	Proposed SlateAssignments `json:"proposed"`
	Changed  []string         `json:"changed"`
	SavedAt  time.Time        `json:"saved_at"`
}

func ToDraftView(d *Draft) *DraftView {
	changed := make([]string, 0, len(directive.Roles))
	for _, r := range d.Changed() {
		changed = append(changed, string(r))
	}
	return &DraftView{
		ClubID:   d.ClubID.String(),
		Base:     FromSlate(d.Base),
		Proposed: FromSlate(d.Proposed),
		Changed:  changed,
		SavedAt:  d.SavedAt,
	}
}

// CandidateView is a member offered for a directive position. The candidate
// identifier arrives already in display form.
type CandidateView struct {
	ID                string `json:"id"`
	IdentifierDisplay string `json:"identifier_display"`
	Age               int    `json:"age"`
}

func ToCandidateView(c directive.Candidate, asOf time.Time) CandidateView {
	return CandidateView{
		ID:                c.ID.String(),
		IdentifierDisplay: c.Identifier,
		Age:               eligibility.AgeInYears(c.BirthDate, asOf),
	}
}
