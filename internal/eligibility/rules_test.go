package eligibility

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestAgeInYears(t *testing.T) {
	today := date(2026, time.October, 19)

	t.Run("exact anniversary yields N", func(t *testing.T) {
		assert.Equal(t, 18, AgeInYears(date(2008, time.October, 19), today))
	})

	t.Run("one day before anniversary yields N-1", func(t *testing.T) {
		assert.Equal(t, 17, AgeInYears(date(2008, time.October, 20), today))
	})

	t.Run("earlier month counts full year", func(t *testing.T) {
		assert.Equal(t, 18, AgeInYears(date(2008, time.January, 31), today))
	})

	t.Run("later month does not", func(t *testing.T) {
		assert.Equal(t, 17, AgeInYears(date(2008, time.December, 1), today))
	})

	t.Run("leap day birthday on non-leap year", func(t *testing.T) {
		born := date(2008, time.February, 29)
		assert.Equal(t, 17, AgeInYears(born, date(2026, time.February, 28)))
		assert.Equal(t, 18, AgeInYears(born, date(2026, time.March, 1)))
	})

	t.Run("time of day is ignored", func(t *testing.T) {
		born := time.Date(2016, time.October, 19, 23, 59, 0, 0, time.UTC)
		assert.Equal(t, 10, AgeInYears(born, time.Date(2026, time.October, 19, 0, 0, 1, 0, time.UTC)))
	})
}

func TestPredicates(t *testing.T) {
	assert.False(t, CanRegister(9))
	assert.True(t, CanRegister(10))
	assert.False(t, CanHoldDirectivePosition(17))
	assert.True(t, CanHoldDirectivePosition(18))
	assert.False(t, CanSelfEnrollInClub(17))
	assert.True(t, CanSelfEnrollInClub(18))
}

func TestThresholdsCheck(t *testing.T) {
	today := date(2026, time.October, 19)

	t.Run("age nine is rejected for registration", func(t *testing.T) {
		err := DefaultThresholds.CheckBirthDate(RuleRegistration, date(2016, time.October, 20), today)
		require.Error(t, err)

		var below *BelowMinimumAgeError
		require.True(t, errors.As(err, &below))
		assert.Equal(t, RuleRegistration, below.Rule)
		assert.Equal(t, 10, below.MinAge)
		assert.Equal(t, 9, below.Age)
	})

	t.Run("age ten exactly is accepted", func(t *testing.T) {
		assert.NoError(t, DefaultThresholds.CheckBirthDate(RuleRegistration, date(2016, time.October, 19), today))
	})

	t.Run("custom thresholds apply", func(t *testing.T) {
		th := Thresholds{Registration: 12, Directive: 21, SelfEnrollment: 16}
		assert.Error(t, th.Check(RuleDirective, 20))
		assert.NoError(t, th.Check(RuleSelfEnrollment, 16))
	})

	t.Run("unknown rule panics", func(t *testing.T) {
		assert.Panics(t, func() { DefaultThresholds.MinAge(Rule("voting")) })
	})
}

func TestParseBirthDate(t *testing.T) {
	got, err := ParseBirthDate("2008-10-19")
	require.NoError(t, err)
	assert.Equal(t, date(2008, time.October, 19), got)

	got, err = ParseBirthDate("2008-10-19T15:04:05-03:00")
	require.NoError(t, err)
	assert.Equal(t, date(2008, time.October, 19), got)

	_, err = ParseBirthDate("19/10/2008")
	assert.Error(t, err)
	_, err = ParseBirthDate("  ")
	assert.Error(t, err)
}

func TestFormatDate(t *testing.T) {
	assert.Equal(t, "19/10/2008", FormatDate(date(2008, time.October, 19)))
	assert.Equal(t, "", FormatDate(time.Time{}))
}
