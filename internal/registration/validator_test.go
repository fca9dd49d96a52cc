package registration

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"sportclub/internal/contact"
	"sportclub/internal/eligibility"
	"sportclub/internal/identifier"
	"sportclub/pkg/requestcontext"
)

type ValidatorSuite struct {
	suite.Suite
	v   *Validator
	ctx context.Context
}

func TestValidatorSuite(t *testing.T) {
	suite.Run(t, new(ValidatorSuite))
}

func (s *ValidatorSuite) SetupTest() {
	s.v = New()
	s.ctx = requestcontext.WithTime(context.Background(), time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC))
}

func validRegistration() RegistrationForm {
	return RegistrationForm{
		Name:            "Ana Pérez",
		Email:           "ana@club.cl",
		Password:        "s3cret-pass",
		PasswordConfirm: "s3cret-pass",
		BirthDate:       "2000-03-01",
		IdentifierKind:  "RUT",
		IdentifierValue: "12.345.678-5",
		Phone:           "+56912345678",
	}
}

func validProfile() ProfileForm {
	return ProfileForm{
		FirstName:       "Ana",
		PaternalSurname: "Pérez",
		MaternalSurname: "Soto",
		Email:           "ana@club.cl",
		BirthDate:       "2000-03-01",
		Sex:             "femenino",
		IdentifierKind:  "PASAPORTE",
		IdentifierValue: "ab 123456",
		Phone:           "+56912345678",
	}
}

func (s *ValidatorSuite) TestRegistration() {
	s.Run("valid form normalizes identifier and parses birth date", func() {
		res, errs := s.v.ValidateRegistration(s.ctx, validRegistration())
		s.Require().Nil(errs)
		s.Equal(identifier.KindRUT, res.IdentifierKind)
		s.Equal("123456785", res.IdentifierValue)
		s.Equal(time.Date(2000, 3, 1, 0, 0, 0, 0, time.UTC), res.BirthDate)
		s.Equal(25, res.Age)
	})

	s.Run("nine year old is rejected on birth date", func() {
		form := validRegistration()
		form.BirthDate = "2015-06-16"
		_, errs := s.v.ValidateRegistration(s.ctx, form)
		s.Require().NotNil(errs)
		s.Equal("No se permiten menores de 10 años", errs["birth_date"])
		s.Len(errs, 1)
	})

	s.Run("ten year old on birthday is accepted", func() {
		form := validRegistration()
		form.BirthDate = "2015-06-15"
		res, errs := s.v.ValidateRegistration(s.ctx, form)
		s.Require().Nil(errs)
		s.Equal(10, res.Age)
	})

	s.Run("every failing field is reported", func() {
		form := RegistrationForm{
			Email:           "not-an-email",
			Password:        "short",
			PasswordConfirm: "other",
			BirthDate:       "01/03/2000",
			IdentifierKind:  "RUT",
			IdentifierValue: "12.345.678-9",
			Phone:           "912345678",
		}
		_, errs := s.v.ValidateRegistration(s.ctx, form)
		s.Require().NotNil(errs)
		s.Equal(MsgRequired, errs["name"])
		s.Equal(MsgInvalidEmail, errs["email"])
		s.Equal("Mínimo 8 caracteres", errs["password"])
		s.Equal(MsgPasswordMatch, errs["password_confirm"])
		s.Equal(MsgInvalidDate, errs["birth_date"])
		s.Equal(MsgInvalidRUT, errs["identifier_value"])
		s.Equal("Formato: +569XXXXXXXX", errs["phone"])
		s.NotContains(errs, "emergency_phone")
	})

	s.Run("unknown identifier kind", func() {
		form := validRegistration()
		form.IdentifierKind = "licencia"
		_, errs := s.v.ValidateRegistration(s.ctx, form)
		s.Equal(MsgInvalidKind, errs["identifier_kind"])
		s.NotContains(errs, "identifier_value")
	})
}

func (s *ValidatorSuite) TestProfile() {
	s.Run("passport is uppercased without spaces", func() {
		res, errs := s.v.ValidateProfile(s.ctx, validProfile())
		s.Require().Nil(errs)
		s.Equal(identifier.KindPassport, res.IdentifierKind)
		s.Equal("AB123456", res.IdentifierValue)
	})

	s.Run("short passport", func() {
		form := validProfile()
		form.IdentifierValue = "AB12"
		_, errs := s.v.ValidateProfile(s.ctx, form)
		s.Equal(MsgInvalidPassport, errs["identifier_value"])
	})

	s.Run("phone is required on the profile", func() {
		form := validProfile()
		form.Phone = ""
		form.EmergencyPhone = "+5691234"
		_, errs := s.v.ValidateProfile(s.ctx, form)
		s.Equal(MsgRequired, errs["phone"])
		s.Equal("Formato: +569XXXXXXXX", errs["emergency_phone"])
	})

	s.Run("foreign id accepts any non-empty value", func() {
		form := validProfile()
		form.IdentifierKind = "DNI_EXTRANJERO"
		form.IdentifierValue = "  X-12  "
		res, errs := s.v.ValidateProfile(s.ctx, form)
		s.Require().Nil(errs)
		s.Equal("X-12", res.IdentifierValue)
	})
}

func (s *ValidatorSuite) TestClub() {
	s.Nil(s.v.ValidateClub(ClubForm{FantasyName: "Club Deportivo Norte"}))

	errs := s.v.ValidateClub(ClubForm{
		FantasyName: "Norte",
		RUT:         "76.086.428-4",
		Email:       "contacto@norte",
		Phone:       "12",
		Website:     "norte.cl",
	})
	s.Equal(MsgInvalidRUT, errs["rut"])
	s.Equal(MsgInvalidEmail, errs["email"])
	s.Equal(MsgInvalidPhone, errs["phone"])
	s.Equal(MsgInvalidURL, errs["website"])

	s.Nil(s.v.ValidateClub(ClubForm{
		FantasyName: "Norte",
		RUT:         "76.086.428-5",
		Phone:       "(02) 2345-6789",
		Website:     "https://norte.cl",
	}))
}

func TestOptions(t *testing.T) {
	th := eligibility.DefaultThresholds
	th.Registration = 14
	iv, err := identifier.NewValidator(8, 9)
	require.NoError(t, err)
	v := New(WithThresholds(th), WithIdentifierValidator(iv), WithMobileRule(contact.MustMobileRule("54", "", 10)))
	ctx := requestcontext.WithTime(context.Background(), time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC))

	form := validRegistration()
	form.BirthDate = "2012-01-01"
	form.IdentifierKind = "PASAPORTE"
	form.IdentifierValue = "AB123"
	form.Phone = "+56912345678"
	_, errs := v.ValidateRegistration(ctx, form)
	require.NotNil(t, errs)
	assert.Equal(t, "No se permiten menores de 14 años", errs["birth_date"])
	assert.Equal(t, MsgInvalidPassport, errs["identifier_value"])
	assert.Equal(t, "Formato: +54XXXXXXXXXX", errs["phone"])
}

func TestFieldErrorsIsAnError(t *testing.T) {
	var err error = FieldErrors{"email": MsgInvalidEmail, "name": MsgRequired}
	assert.Equal(t, "invalid form: email: Correo inválido; name: Campo obligatorio", err.Error())

	var fe FieldErrors
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, MsgRequired, fe.Fields()["name"])
}

func TestRuleRegistrationFailsFast(t *testing.T) {
	assert.NotPanics(t, func() { New() })
	assert.Panics(t, func() { mustRegister(validator.New(), "", contact.ValidateEmail) })
}
