package models

import (
	"slices"
	"strings"
	"time"

	"sportclub/internal/eligibility"
	"sportclub/internal/identifier"
	id "sportclub/pkg/domain"
	dErrors "sportclub/pkg/domain-errors"
)

// Member is a registered person. The identifier is kept in its normalized
// storage form and only rendered for display on the way out.
//
// Invariants:
//   - Email is unique (case-insensitive) across members
//   - (IdentifierKind, IdentifierValue) is unique across members
//   - ClubID is nil until the member enrolls in a club
type Member struct {
	ID              id.UserID       `json:"id"`
	DisplayName     string          `json:"display_name"`
	FirstName       string          `json:"first_name"`
	PaternalSurname string          `json:"paternal_surname"`
	MaternalSurname string          `json:"maternal_surname"`
	Email           string          `json:"email"`
	PasswordHash    []byte          `json:"-"`
	BirthDate       time.Time       `json:"birth_date"`
	Sex             string          `json:"sex"`
	IdentifierKind  identifier.Kind `json:"identifier_kind"`
	IdentifierValue string          `json:"identifier_value"`
	Phone           string          `json:"phone"`
	EmergencyPhone  string          `json:"emergency_phone"`
	Roles           []id.Role       `json:"roles"`
	ClubID          id.ClubID       `json:"club_id"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// NormalizeEmail is the comparison form of an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// HasClub reports whether the member is affiliated with a club.
func (m *Member) HasClub() bool {
	return !m.ClubID.IsNil()
}

// Clone returns a deep copy so stores never hand out shared slices.
func (m *Member) Clone() *Member {
	c := *m
	c.PasswordHash = slices.Clone(m.PasswordHash)
	c.Roles = slices.Clone(m.Roles)
	return &c
}

// Profile is the read view of a member, with the identifier and birth date
// formatted for display.
type Profile struct {
	ID                string   `json:"id"`
	DisplayName       string   `json:"display_name"`
	FirstName         string   `json:"first_name"`
	PaternalSurname   string   `json:"paternal_surname"`
	MaternalSurname   string   `json:"maternal_surname"`
	Email             string   `json:"email"`
	BirthDate         string   `json:"birth_date"`
	BirthDateDisplay  string   `json:"birth_date_display"`
	Age               int      `json:"age"`
	Sex               string   `json:"sex"`
	IdentifierKind    string   `json:"identifier_kind"`
	IdentifierValue   string   `json:"identifier_value"`
	IdentifierDisplay string   `json:"identifier_display"`
	Phone             string   `json:"phone"`
	EmergencyPhone    string   `json:"emergency_phone"`
	Roles             []string `json:"roles"`
	ClubID            string   `json:"club_id,omitempty"`
}

// ToProfile renders m as seen at asOf.
func ToProfile(m *Member, asOf time.Time) *Profile {
	roles := make([]string, 0, len(m.Roles))
	for _, r := range m.Roles {
		roles = append(roles, r.String())
	}
	p := &Profile{
		ID:                m.ID.String(),
		DisplayName:       m.DisplayName,
		FirstName:         m.FirstName,
		PaternalSurname:   m.PaternalSurname,
		MaternalSurname:   m.MaternalSurname,
		Email:             m.Email,
		BirthDateDisplay:  eligibility.FormatDate(m.BirthDate),
		Sex:               m.Sex,
		IdentifierKind:    m.IdentifierKind.String(),
		IdentifierValue:   m.IdentifierValue,
		IdentifierDisplay: identifier.Display(m.IdentifierKind, m.IdentifierValue),
		Phone:             m.Phone,
		EmergencyPhone:    m.EmergencyPhone,
		Roles:             roles,
	}
	if !m.BirthDate.IsZero() {
		p.BirthDate = m.BirthDate.Format("2006-01-02")
		p.Age = eligibility.AgeInYears(m.BirthDate, asOf)
	}
	if m.HasClub() {
		p.ClubID = m.ClubID.String()
	}
	return p
}

// LoginResult is returned on successful password login.
type LoginResult struct {
	AccessToken string   `json:"access_token"`
	TokenType   string   `json:"token_type"`
	ExpiresIn   int      `json:"expires_in"`
	Profile     *Profile `json:"profile"`
}

// LoginRequest is the password login body.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate checks that both credentials are present.
func (r *LoginRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	r.Email = NormalizeEmail(r.Email)
	if r.Email == "" || r.Password == "" {
		return dErrors.New(dErrors.CodeValidation, "email and password are required")
	}
	return nil
}
