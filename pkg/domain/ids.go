package domain

import (
	"github.com/google/uuid"

	dErrors "sportclub/pkg/domain-errors"
)

// Typed identifiers keep member and club references from being swapped at
// compile time. Construct them with the Parse functions at trust boundaries.
type (
	UserID uuid.UUID
	ClubID uuid.UUID
)

// ParseUserID parses a non-nil UUID into a UserID.
func ParseUserID(s string) (UserID, error) {
	u, err := parseUUID(s, "user_id")
	return UserID(u), err
}

// ParseClubID parses a non-nil UUID into a ClubID.
func ParseClubID(s string) (ClubID, error) {
	u, err := parseUUID(s, "club_id")
	return ClubID(u), err
}

func parseUUID(s, field string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, field+" cannot be empty")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+field)
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, field+" cannot be nil")
	}
	return u, nil
}

func (id UserID) String() string { return uuid.UUID(id).String() }
func (id UserID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

func (id ClubID) String() string { return uuid.UUID(id).String() }
func (id ClubID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

// MarshalText lets typed IDs serialize as plain UUID strings in JSON.
func (id UserID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }

func (id *UserID) UnmarshalText(b []byte) error {
	return (*uuid.UUID)(id).UnmarshalText(b)
}

func (id ClubID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }

func (id *ClubID) UnmarshalText(b []byte) error {
	return (*uuid.UUID)(id).UnmarshalText(b)
}
