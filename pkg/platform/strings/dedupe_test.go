package strings

import (
	"testing"
	"unicode"

	"github.com/stretchr/testify/assert"
)

func TestDedupeAndTrimLower(t *testing.T) {
	assert.Equal(t, []string{"athlete", "admin"}, DedupeAndTrimLower([]string{"  Athlete ", "admin", "ATHLETE", "", "  "}))
	assert.Empty(t, DedupeAndTrimLower(nil))
}

func TestKeepFunc(t *testing.T) {
	assert.Equal(t, "123", KeepFunc("1.2-3x", unicode.IsDigit))
	assert.Equal(t, "", KeepFunc("", unicode.IsDigit))
}

func TestGroupFromRight(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"1", "1"},
		{"123", "123"},
		{"1234", "1.234"},
		{"123456", "123.456"},
		{"1234567", "1.234.567"},
		{"12345678", "12.345.678"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, GroupFromRight(tt.in, 3, "."), tt.in)
	}
}
