// Package registration validates the member and club forms. Every field is
// checked on each call so the caller can show all problems at once.
package registration

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"sportclub/internal/contact"
	"sportclub/internal/eligibility"
	"sportclub/internal/identifier"
	"sportclub/pkg/requestcontext"
)

// Field messages shown to the user.
const (
	MsgRequired        = "Campo obligatorio"
	MsgInvalidEmail    = "Correo inválido"
	MsgInvalidRUT      = "RUT inválido"
	MsgInvalidPassport = "Pasaporte inválido"
	MsgInvalidPhone    = "Teléfono inválido"
	MsgInvalidURL      = "URL inválida"
	MsgInvalidDate     = "Fecha inválida"
	MsgInvalidKind     = "Tipo de identificador inválido"
	MsgPasswordMatch   = "Las contraseñas no coinciden"
	MsgInvalidValue    = "Valor inválido"
)

// FieldErrors maps a form field (its JSON name) to a single message.
type FieldErrors map[string]string

func (f FieldErrors) Error() string {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+f[k])
	}
	return "invalid form: " + strings.Join(parts, "; ")
}

// Fields exposes the map for transport-level rendering.
func (f FieldErrors) Fields() map[string]string {
	return f
}

// add keeps the first message recorded for a field.
func (f FieldErrors) add(field, msg string) {
	if _, ok := f[field]; !ok {
		f[field] = msg
	}
}

// Result carries the normalized values of a valid member form.
type Result struct {
	IdentifierKind  identifier.Kind
	IdentifierValue string
	BirthDate       time.Time
	Age             int
}

// Validator checks forms. It is safe for concurrent use.
type Validator struct {
	validate    *validator.Validate
	identifiers identifier.Validator
	thresholds  eligibility.Thresholds
	mobile      contact.MobileRule
}

// Option configures a Validator.
type Option func(*Validator)

func WithThresholds(t eligibility.Thresholds) Option {
	return func(v *Validator) { v.thresholds = t }
}

func WithIdentifierValidator(iv identifier.Validator) Option {
	return func(v *Validator) { v.identifiers = iv }
}

func WithMobileRule(r contact.MobileRule) Option {
	return func(v *Validator) { v.mobile = r }
}

// New builds a Validator with the custom field rules registered.
func New(opts ...Option) *Validator {
	v := &Validator{
		validate:    validator.New(validator.WithRequiredStructEnabled()),
		identifiers: identifier.DefaultValidator,
		thresholds:  eligibility.DefaultThresholds,
		mobile:      contact.DefaultMobileRule,
	}
	for _, opt := range opts {
		opt(v)
	}

	v.validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	rules := map[string]func(string) bool{
		"rut": func(s string) bool {
			return v.identifiers.Validate(identifier.New(identifier.KindRUT, s)) == nil
		},
		"phone":       contact.ValidatePhone,
		"cl_mobile":   v.mobile.Validate,
		"weburl":      contact.ValidateURL,
		"email_shape": contact.ValidateEmail,
		"birthdate": func(s string) bool {
			_, err := eligibility.ParseBirthDate(s)
			return err == nil
		},
		"idkind": func(s string) bool {
			_, err := identifier.ParseKind(s)
			return err == nil
		},
	}
	for tag, fn := range rules {
		mustRegister(v.validate, tag, fn)
	}
	return v
}

// mustRegister adds a string field rule. A rejected registration is a
// programming error, so it panics at construction.
func mustRegister(validate *validator.Validate, tag string, fn func(string) bool) {
	err := validate.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
		return fn(fl.Field().String())
	})
	if err != nil {
		panic(fmt.Sprintf("registration: register rule %q: %v", tag, err))
	}
}

// Struct runs the tag rules on any of the forms and returns nil when all pass.
func (v *Validator) Struct(form any) FieldErrors {
	errs := FieldErrors{}
	v.structInto(form, errs)
	if len(errs) == 0 {
		return nil
	}
	return errs
}

func (v *Validator) structInto(form any, errs FieldErrors) {
	err := v.validate.Struct(form)
	if err == nil {
		return
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		errs.add("_form", MsgInvalidValue)
		return
	}
	for _, fe := range verrs {
		errs.add(fe.Field(), v.message(fe))
	}
}

func (v *Validator) message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return MsgRequired
	case "email_shape":
		return MsgInvalidEmail
	case "rut":
		return MsgInvalidRUT
	case "cl_mobile":
		return "Formato: " + v.mobile.Hint()
	case "phone":
		return MsgInvalidPhone
	case "weburl":
		return MsgInvalidURL
	case "birthdate":
		return MsgInvalidDate
	case "idkind":
		return MsgInvalidKind
	case "eqfield":
		return MsgPasswordMatch
	case "min":
		return fmt.Sprintf("Mínimo %s caracteres", fe.Param())
	case "max":
		return fmt.Sprintf("Máximo %s caracteres", fe.Param())
	default:
		return MsgInvalidValue
	}
}

// ValidateRegistration checks a sign-up form, including the minimum
// registration age evaluated at requestcontext.Now(ctx).
func (v *Validator) ValidateRegistration(ctx context.Context, form RegistrationForm) (Result, FieldErrors) {
	return v.validateMember(ctx, &form, form.BirthDate, form.IdentifierKind, form.IdentifierValue)
}

// ValidateProfile checks a profile edit with the same age and identifier rules.
func (v *Validator) ValidateProfile(ctx context.Context, form ProfileForm) (Result, FieldErrors) {
	return v.validateMember(ctx, &form, form.BirthDate, form.IdentifierKind, form.IdentifierValue)
}

func (v *Validator) validateMember(ctx context.Context, form any, birthDate, kind, value string) (Result, FieldErrors) {
	errs := FieldErrors{}
	v.structInto(form, errs)

	var res Result
	if _, bad := errs["birth_date"]; !bad {
		// The tag rule already guarantees the date parses.
		bd, _ := eligibility.ParseBirthDate(birthDate)
		res.BirthDate = bd
		res.Age = eligibility.AgeInYears(bd, requestcontext.Now(ctx))
		if err := v.thresholds.Check(eligibility.RuleRegistration, res.Age); err != nil {
			errs.add("birth_date", fmt.Sprintf("No se permiten menores de %d años",
				v.thresholds.MinAge(eligibility.RuleRegistration)))
		}
	}

	_, badKind := errs["identifier_kind"]
	_, badValue := errs["identifier_value"]
	if !badKind && !badValue {
		k, _ := identifier.ParseKind(kind)
		id := identifier.New(k, value)
		if err := v.identifiers.Validate(id); err != nil {
			errs.add("identifier_value", identifierMessage(k))
		} else {
			res.IdentifierKind = k
			res.IdentifierValue = identifier.Normalize(id)
		}
	}

	if len(errs) > 0 {
		return Result{}, errs
	}
	return res, nil
}

func identifierMessage(k identifier.Kind) string {
	switch k {
	case identifier.KindRUT, identifier.KindRUTProvisional:
		return MsgInvalidRUT
	case identifier.KindPassport:
		return MsgInvalidPassport
	default:
		return MsgRequired
	}
}

// ValidateClub checks a club form. The RUT is optional but must pass the
// check-digit rule when present.
func (v *Validator) ValidateClub(form ClubForm) FieldErrors {
	return v.Struct(&form)
}
