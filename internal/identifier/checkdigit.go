package identifier

import "errors"

var errNonDigitBody = errors.New("identifier body must contain only digits")

// CheckDigit computes the modulus-11 check character for a numeric body.
//
// Digits are weighted from least significant upward with multipliers 2..7,
// wrapping back to 2. The result is 11 - (sum mod 11), with 11 mapped to '0'
// and 10 mapped to 'K'.
func CheckDigit(body string) (byte, error) {
	if body == "" {
		return 0, errNonDigitBody
	}
	sum := 0
	multiplier := 2
	for i := len(body) - 1; i >= 0; i-- {
		c := body[i]
		if c < '0' || c > '9' {
			return 0, errNonDigitBody
		}
		sum += int(c-'0') * multiplier
		if multiplier == 7 {
			multiplier = 2
		} else {
			multiplier++
		}
	}
	switch r := 11 - sum%11; r {
	case 11:
		return '0', nil
	case 10:
		return 'K', nil
	default:
		return byte('0' + r), nil
	}
}
