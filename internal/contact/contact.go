// Package contact holds the shape validators for email, phone and website
// fields shared by registration, profile editing and club administration.
package contact

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phonePattern = regexp.MustCompile(`^\+?[0-9 ()-]{8,20}$`)

	// validate is safe for concurrent use once built.
	validate = validator.New()
)

// ValidateEmail reports whether s looks like local@domain.tld with no
// whitespace. Empty is valid; required-ness is the caller's concern.
func ValidateEmail(s string) bool {
	return s == "" || emailPattern.MatchString(s)
}

// ValidatePhone is the loose international shape: optional leading +, then
// 8 to 20 digits, spaces, hyphens or parentheses.
func ValidatePhone(s string) bool {
	return phonePattern.MatchString(s)
}

// ValidateURL reports whether s is a well-formed absolute URL. Empty is valid.
func ValidateURL(s string) bool {
	return s == "" || validate.Var(s, "url") == nil
}

// MobileRule is the strict single-country mobile format: "+", the calling
// code, then exactly Digits digits of which the first ones are Prefix.
type MobileRule struct {
	CallingCode string
	Prefix      string
	Digits      int
	pattern     *regexp.Regexp
}

// DefaultMobileRule is the Chilean mobile format, +56 followed by 9 digits
// starting with 9.
var DefaultMobileRule = MustMobileRule("56", "9", 9)

var (
	callingCodePattern = regexp.MustCompile(`^[0-9]{1,3}$`)
	prefixPattern      = regexp.MustCompile(`^[0-9]*$`)
)

// NewMobileRule compiles a MobileRule. The calling code must be 1-3 digits
// and the prefix, which may be empty, shorter than digits.
func NewMobileRule(callingCode, prefix string, digits int) (MobileRule, error) {
	if !callingCodePattern.MatchString(callingCode) {
		return MobileRule{}, fmt.Errorf("invalid calling code %q", callingCode)
	}
	if digits < 1 || digits > 15 {
		return MobileRule{}, fmt.Errorf("invalid mobile digit count %d", digits)
	}
	if !prefixPattern.MatchString(prefix) || len(prefix) >= digits {
		return MobileRule{}, fmt.Errorf("invalid mobile prefix %q for %d digits", prefix, digits)
	}
	p, err := regexp.Compile(fmt.Sprintf(`^\+%s%s[0-9]{%d}$`, callingCode, prefix, digits-len(prefix)))
	if err != nil {
		return MobileRule{}, err
	}
	return MobileRule{CallingCode: callingCode, Prefix: prefix, Digits: digits, pattern: p}, nil
}

func MustMobileRule(callingCode, prefix string, digits int) MobileRule {
	r, err := NewMobileRule(callingCode, prefix, digits)
	if err != nil {
		panic(err)
	}
	return r
}

// Validate reports whether s matches the rule exactly.
func (r MobileRule) Validate(s string) bool {
	return r.pattern != nil && r.pattern.MatchString(s)
}

// Hint is the format shown next to a rejected field, e.g. "+569XXXXXXXX".
func (r MobileRule) Hint() string {
	free := r.Digits - len(r.Prefix)
	if free < 0 {
		free = 0
	}
	return "+" + r.CallingCode + r.Prefix + strings.Repeat("X", free)
}

// ValidateNationalMobile applies DefaultMobileRule.
func ValidateNationalMobile(s string) bool {
	return DefaultMobileRule.Validate(s)
}
