package identifier

// RUT is a validated national identifier.
//
// Invariants:
//   - body is non-empty and numeric
//   - check equals CheckDigit(body)
type RUT struct {
	body  string
	check byte
}

// ParseRUT validates raw with the modulus-11 rules and returns the value object.
func ParseRUT(raw string) (RUT, error) {
	if err := validateCheckDigit(raw); err != nil {
		return RUT{}, err
	}
	c := clean(raw)
	return RUT{body: c[:len(c)-1], check: c[len(c)-1]}, nil
}

// String returns the storage form.
func (r RUT) String() string {
	if r.IsZero() {
		return ""
	}
	return r.body + string(r.check)
}

// Display returns the display form.
func (r RUT) Display() string {
	return ToDisplay(r.String())
}

func (r RUT) IsZero() bool {
	return r.body == ""
}
