package identifier

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/width"

	pstrings "sportclub/pkg/platform/strings"
)

// Identifier is a document number as entered on a form. Body holds the number
// (separators allowed); Check holds the check character when the form collects
// it in a separate field, otherwise it is empty and the last usable character
// of Body is treated as the check character.
type Identifier struct {
	Kind  Kind
	Body  string
	Check string
}

// New builds an Identifier from a single combined input field.
func New(kind Kind, raw string) Identifier {
	return Identifier{Kind: kind, Body: raw}
}

func (id Identifier) combined() string {
	return id.Body + id.Check
}

// Validator checks identifiers against the shape rules of each kind.
// The zero value is not usable; use NewValidator or DefaultValidator.
type Validator struct {
	passportMin int
	passportMax int
}

// Default passport bounds, inclusive.
const (
	DefaultPassportMinLen = 6
	DefaultPassportMaxLen = 20
)

// DefaultValidator uses the default passport bounds.
var DefaultValidator = Validator{passportMin: DefaultPassportMinLen, passportMax: DefaultPassportMaxLen}

// NewValidator returns a Validator with the given inclusive passport length bounds.
func NewValidator(passportMin, passportMax int) (Validator, error) {
	if passportMin < 1 || passportMax < passportMin {
		return Validator{}, fmt.Errorf("invalid passport bounds [%d,%d]", passportMin, passportMax)
	}
	return Validator{passportMin: passportMin, passportMax: passportMax}, nil
}

// Validate checks id using DefaultValidator.
func Validate(id Identifier) error {
	return DefaultValidator.Validate(id)
}

// Validate returns nil when id satisfies its kind's rules, or one of
// ErrTooShort, ErrInvalidCheckDigit, ErrInvalidLength, ErrEmpty.
//
// An unknown kind is a caller contract violation and panics.
func (v Validator) Validate(id Identifier) error {
	switch id.Kind {
	case KindRUT, KindRUTProvisional:
		return validateCheckDigit(id.combined())
	case KindPassport:
		n := utf8.RuneCountInString(strings.TrimSpace(id.combined()))
		if n < v.passportMin || n > v.passportMax {
			return ErrInvalidLength
		}
		return nil
	case KindForeignID:
		if strings.TrimSpace(id.combined()) == "" {
			return ErrEmpty
		}
		return nil
	default:
		panic(fmt.Sprintf("identifier: unknown kind %q", id.Kind))
	}
}

func validateCheckDigit(raw string) error {
	clean := clean(raw)
	if len(clean) < 2 {
		return ErrTooShort
	}
	body, supplied := clean[:len(clean)-1], clean[len(clean)-1]
	expected, err := CheckDigit(body)
	if err != nil {
		// A K inside the body can never produce a matching check character.
		return ErrInvalidCheckDigit
	}
	if expected != supplied {
		return ErrInvalidCheckDigit
	}
	return nil
}

// Normalize returns the form in which id leaves the core: the storage form
// for RUT kinds, the trimmed uppercase value without inner spaces for
// passports, and the trimmed value for foreign IDs.
func Normalize(id Identifier) string {
	switch id.Kind {
	case KindRUT, KindRUTProvisional:
		return ToStorage(id.combined())
	case KindPassport:
		return strings.ToUpper(strings.Join(strings.Fields(id.combined()), ""))
	default:
		return strings.TrimSpace(id.combined())
	}
}

// clean folds full-width digits, keeps only digits and K, and uppercases.
func clean(raw string) string {
	narrow := width.Narrow.String(raw)
	kept := pstrings.KeepFunc(narrow, func(r rune) bool {
		return (r >= '0' && r <= '9') || r == 'k' || r == 'K'
	})
	return strings.ToUpper(kept)
}
