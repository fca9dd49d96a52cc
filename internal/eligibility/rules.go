// Package eligibility derives calendar age from a birth date and gates the
// age-restricted actions: registering, holding a club directive position and
// self-enrolling in a club.
//
// All functions are pure. The reference date is always passed in; services
// take it from requestcontext.Now so one request sees one "today".
package eligibility

import (
	"fmt"
	"time"
)

// Rule names an age threshold.
type Rule string

const (
	RuleRegistration   Rule = "registration"
	RuleDirective      Rule = "directive_eligibility"
	RuleSelfEnrollment Rule = "self_enrollment"
)

// Thresholds holds the minimum ages for each Rule. Read-only once built.
type Thresholds struct {
	Registration   int
	Directive      int
	SelfEnrollment int
}

// DefaultThresholds are the club's published minimum ages.
var DefaultThresholds = Thresholds{
	Registration:   10,
	Directive:      18,
	SelfEnrollment: 18,
}

// MinAge returns the threshold for rule. Unknown rules panic: they are
// programmer errors, not user input.
func (t Thresholds) MinAge(rule Rule) int {
	switch rule {
	case RuleRegistration:
		return t.Registration
	case RuleDirective:
		return t.Directive
	case RuleSelfEnrollment:
		return t.SelfEnrollment
	default:
		panic(fmt.Sprintf("eligibility: unknown rule %q", rule))
	}
}

// Allows reports whether age satisfies rule.
func (t Thresholds) Allows(rule Rule, age int) bool {
	return age >= t.MinAge(rule)
}

// Check returns a *BelowMinimumAgeError when age does not satisfy rule.
func (t Thresholds) Check(rule Rule, age int) error {
	if t.Allows(rule, age) {
		return nil
	}
	return &BelowMinimumAgeError{Rule: rule, MinAge: t.MinAge(rule), Age: age}
}

// CheckBirthDate computes the age at asOf and checks it against rule.
func (t Thresholds) CheckBirthDate(rule Rule, birthDate, asOf time.Time) error {
	return t.Check(rule, AgeInYears(birthDate, asOf))
}

func CanRegister(age int) bool {
	return DefaultThresholds.Allows(RuleRegistration, age)
}

func CanHoldDirectivePosition(age int) bool {
	return DefaultThresholds.Allows(RuleDirective, age)
}

func CanSelfEnrollInClub(age int) bool {
	return DefaultThresholds.Allows(RuleSelfEnrollment, age)
}

// BelowMinimumAgeError reports which threshold an age failed.
type BelowMinimumAgeError struct {
	Rule   Rule
	MinAge int
	Age    int
}

func (e *BelowMinimumAgeError) Error() string {
	return fmt.Sprintf("age %d is below the %s minimum of %d", e.Age, e.Rule, e.MinAge)
}
