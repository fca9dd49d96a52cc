package identifier

import (
	"strings"

	pstrings "sportclub/pkg/platform/strings"
)

// maxBareBodyLen is the longest input treated as a body without a check
// character when nothing else marks the last character as one.
const maxBareBodyLen = 8

// ToDisplay renders a RUT as grouped body, dash and check character.
//
// The check character is taken verbatim when the input supplies one: the
// input has a dash, is longer than eight usable characters, ends in K, or
// already validates as body plus check. Otherwise the whole input is the body
// and the check character is computed. So an eight-digit body that happens to
// validate as seven digits plus check, such as "12345674", is read as the
// latter ("1.234.567-4"); stored identifiers always render back unchanged.
// Empty input yields "".
func ToDisplay(raw string) string {
	c := clean(raw)
	if c == "" {
		return ""
	}
	if len(c) == 1 {
		return c
	}

	body, check := c, ""
	if suppliesCheck(raw, c) {
		body, check = c[:len(c)-1], c[len(c)-1:]
	} else {
		dv, err := CheckDigit(c)
		if err != nil {
			// Not computable (K inside the body); show what was typed.
			body, check = c[:len(c)-1], c[len(c)-1:]
		} else {
			check = string(dv)
		}
	}
	return pstrings.GroupFromRight(body, 3, ".") + "-" + check
}

func suppliesCheck(raw, c string) bool {
	switch {
	case strings.Contains(raw, "-"):
		return true
	case len(c) > maxBareBodyLen:
		return true
	case c[len(c)-1] == 'K':
		return true
	default:
		return validateCheckDigit(c) == nil
	}
}

// ToStorage strips separators and returns digits plus uppercase check
// character. Whitespace-only input yields "".
func ToStorage(raw string) string {
	return clean(raw)
}

// Display renders a stored identifier for its kind. RUT kinds get the display
// form; other kinds are shown as stored.
func Display(kind Kind, stored string) string {
	if kind.HasCheckDigit() {
		return ToDisplay(stored)
	}
	return strings.TrimSpace(stored)
}
