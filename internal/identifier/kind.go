package identifier

import (
	"strings"

	dErrors "sportclub/pkg/domain-errors"
)

// Kind is the identifier document type chosen on the registration form.
type Kind string

// Values match what the members backend stores.
const (
	KindRUT            Kind = "RUT"
	KindRUTProvisional Kind = "RUT_PROVISORIO"
	KindPassport       Kind = "PASAPORTE"
	KindForeignID      Kind = "DNI_EXTRANJERO"
)

var kindAliases = map[string]Kind{
	"RUT":             KindRUT,
	"RUT_PROVISORIO":  KindRUTProvisional,
	"RUT_PROVISIONAL": KindRUTProvisional,
	"PASAPORTE":       KindPassport,
	"PASSPORT":        KindPassport,
	"DNI_EXTRANJERO":  KindForeignID,
	"FOREIGN_ID":      KindForeignID,
}

// ParseKind accepts the stored values and their English aliases, case-insensitively.
func ParseKind(s string) (Kind, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "identifier type is required")
	}
	k, ok := kindAliases[s]
	if !ok {
		return "", dErrors.New(dErrors.CodeInvalidInput, "unsupported identifier type: "+s)
	}
	return k, nil
}

// HasCheckDigit reports whether the kind is validated with the modulus-11 scheme.
func (k Kind) HasCheckDigit() bool {
	return k == KindRUT || k == KindRUTProvisional
}

func (k Kind) IsValid() bool {
	switch k {
	case KindRUT, KindRUTProvisional, KindPassport, KindForeignID:
		return true
	}
	return false
}

func (k Kind) String() string {
	return string(k)
}
