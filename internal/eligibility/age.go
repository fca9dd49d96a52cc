package eligibility

import (
	"fmt"
	"strings"
	"time"
)

// AgeInYears returns whole calendar years between birthDate and asOf. The
// year difference is reduced by one when asOf's month/day falls before the
// birthday's. Each date is read in its own location.
func AgeInYears(birthDate, asOf time.Time) int {
	by, bm, bd := birthDate.Date()
	ay, am, ad := asOf.Date()
	years := ay - by
	if am < bm || (am == bm && ad < bd) {
		years--
	}
	return years
}

const (
	dateLayout    = "2006-01-02"
	displayLayout = "02/01/2006"
)

// ParseBirthDate accepts YYYY-MM-DD or an RFC 3339 timestamp and returns the
// calendar date at midnight UTC.
func ParseBirthDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("birth date is empty")
	}
	if t, err := time.Parse(dateLayout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("birth date %q: expected YYYY-MM-DD", s)
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
}

// FormatDate renders a date as DD/MM/YYYY. The zero time renders as "".
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(displayLayout)
}
