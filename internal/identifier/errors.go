package identifier

import "errors"

// Validation outcomes. These are expected user-input failures, returned as
// values so a form can report them next to every other field error.
var (
	ErrTooShort          = errors.New("identifier is too short")
	ErrInvalidCheckDigit = errors.New("identifier check digit does not match")
	ErrInvalidLength     = errors.New("identifier length is out of range")
	ErrEmpty             = errors.New("identifier is empty")
)
