// Package strings provides string manipulation utilities.
package strings

import (
	"strings"
)

// DedupeAndTrimLower trims, lowercases and dedupes a slice, dropping empty
// entries. Order of first occurrence is preserved.
//
// Example:
//
//	DedupeAndTrimLower([]string{"  Athlete ", "admin", "ATHLETE", ""})
//	// Returns: []string{"athlete", "admin"}
func DedupeAndTrimLower(values []string) []string {
	if len(values) == 0 {
		return values
	}

	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))

	for _, v := range values {
		trimmed := strings.ToLower(strings.TrimSpace(v))
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; !ok {
			seen[trimmed] = struct{}{}
			result = append(result, trimmed)
		}
	}

	return result
}

// KeepFunc returns s with every rune for which keep returns false removed.
func KeepFunc(s string, keep func(rune) bool) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if keep(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// GroupFromRight splits s into runs of size counted from the right and joins
// them with sep. "12345678", 3, "." yields "12.345.678".
func GroupFromRight(s string, size int, sep string) string {
	if size <= 0 || len(s) <= size {
		return s
	}
	head := len(s) % size
	var b strings.Builder
	b.Grow(len(s) + len(s)/size*len(sep))
	if head > 0 {
		b.WriteString(s[:head])
	}
	for i := head; i < len(s); i += size {
		if b.Len() > 0 {
			b.WriteString(sep)
		}
		b.WriteString(s[i : i+size])
	}
	return b.String()
}
