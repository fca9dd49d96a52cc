package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sportclub/internal/identifier"
	jwttoken "sportclub/internal/jwt_token"
	"sportclub/internal/member/metrics"
	"sportclub/internal/member/models"
	"sportclub/internal/member/store"
	"sportclub/internal/registration"
	id "sportclub/pkg/domain"
	dErrors "sportclub/pkg/domain-errors"
	"sportclub/pkg/platform/audit"
	auditmemory "sportclub/pkg/platform/audit/store/memory"
	"sportclub/pkg/requestcontext"
	"sportclub/pkg/testutil"
)

var today = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

// fakeClubs maps each known club to whether it is active.
type fakeClubs map[id.ClubID]bool

func (f fakeClubs) ClubStatus(_ context.Context, clubID id.ClubID) (bool, bool, error) {
	active, ok := f[clubID]
	return ok, active, nil
}

type fixture struct {
	svc     *Service
	store   *store.InMemory
	audit   *auditmemory.InMemoryStore
	metrics *metrics.Metrics
	jwt     *jwttoken.JWTService
	club    id.ClubID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store:   store.NewInMemory(),
		audit:   auditmemory.NewInMemoryStore(),
		metrics: metrics.New(prometheus.NewRegistry()),
		jwt:     jwttoken.NewJWTService("test-signing-key", "sportclub"),
		club:    id.ClubID(uuid.New()),
	}
	f.svc = New(f.store,
		WithAuditPublisher(f.audit),
		WithMetrics(f.metrics),
		WithTokenIssuer(f.jwt, 15*time.Minute),
		WithClubDirectory(fakeClubs{f.club: true}),
	)
	return f
}

func ctxAt(t time.Time) context.Context {
	return requestcontext.WithTime(context.Background(), t)
}

func validForm() registration.RegistrationForm {
	return registration.RegistrationForm{
		Name:            "Ana Rojas",
		Email:           "Ana@Club.cl",
		Password:        "supersecret",
		PasswordConfirm: "supersecret",
		BirthDate:       "2000-01-01",
		IdentifierKind:  "RUT",
		IdentifierValue: "12.345.678-5",
		Phone:           "+56912345678",
	}
}

func TestRegister(t *testing.T) {
	testutil.Given(t, "a complete form", func(t *testing.T) {
		f := newFixture(t)
		m, err := f.svc.Register(ctxAt(today), validForm())
		require.NoError(t, err)

		testutil.Then(t, "the identifier is stored normalized", func(t *testing.T) {
			assert.Equal(t, identifier.KindRUT, m.IdentifierKind)
			assert.Equal(t, "123456785", m.IdentifierValue)
			assert.Equal(t, "ana@club.cl", m.Email)
			assert.Equal(t, []id.Role{id.RoleAthlete}, m.Roles)
			assert.NotEqual(t, []byte("supersecret"), m.PasswordHash)
		})
		testutil.Then(t, "an audit event and a metric are recorded", func(t *testing.T) {
			events, err := f.audit.ListByUser(context.Background(), m.ID)
			require.NoError(t, err)
			require.Len(t, events, 1)
			assert.Equal(t, audit.EventMemberRegistered, events[0].Action)
			assert.InDelta(t, 1, promtest.ToFloat64(f.metrics.MembersRegistered), 0)
		})
		testutil.When(t, "the same identifier registers again", func(t *testing.T) {
			form := validForm()
			form.Email = "otra@club.cl"
			_, err := f.svc.Register(ctxAt(today), form)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))
		})
	})

	testutil.Given(t, "a nine-year-old applicant", func(t *testing.T) {
		f := newFixture(t)
		form := validForm()
		form.BirthDate = "2015-06-16"
		_, err := f.svc.Register(ctxAt(today), form)

		testutil.Then(t, "the birth date field is rejected", func(t *testing.T) {
			var fields registration.FieldErrors
			require.ErrorAs(t, err, &fields)
			assert.Equal(t, "No se permiten menores de 10 años", fields["birth_date"])
			assert.InDelta(t, 1, promtest.ToFloat64(f.metrics.FieldRejections.WithLabelValues("registration", "birth_date")), 0)
		})
	})

	testutil.Given(t, "an applicant turning ten today", func(t *testing.T) {
		f := newFixture(t)
		form := validForm()
		form.BirthDate = "2015-06-15"
		_, err := f.svc.Register(ctxAt(today), form)

		testutil.Then(t, "registration succeeds", func(t *testing.T) {
			require.NoError(t, err)
		})
	})

	testutil.Given(t, "several bad fields", func(t *testing.T) {
		f := newFixture(t)
		form := validForm()
		form.Email = "ana@club"
		form.IdentifierValue = "12.345.678-4"
		form.Phone = "123"
		_, err := f.svc.Register(ctxAt(today), form)

		testutil.Then(t, "every field is reported", func(t *testing.T) {
			var fields registration.FieldErrors
			require.ErrorAs(t, err, &fields)
			assert.Equal(t, registration.MsgInvalidEmail, fields["email"])
			assert.Equal(t, registration.MsgInvalidRUT, fields["identifier_value"])
			assert.Contains(t, fields["phone"], "+569XXXXXXXX")
		})
	})
}

func TestLogin(t *testing.T) {
	f := newFixture(t)
	m, err := f.svc.Register(ctxAt(today), validForm())
	require.NoError(t, err)

	t.Run("issues a token carrying the session", func(t *testing.T) {
		res, err := f.svc.Login(ctxAt(today), "ana@club.cl", "supersecret")
		require.NoError(t, err)
		assert.Equal(t, "Bearer", res.TokenType)
		assert.Equal(t, 900, res.ExpiresIn)
		assert.Equal(t, "12.345.678-5", res.Profile.IdentifierDisplay)

		session, err := f.jwt.ValidateSession(res.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, m.ID, session.UserID)
		assert.True(t, session.HasRole(id.RoleAthlete))
		assert.Equal(t, m.BirthDate, session.BirthDate)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := f.svc.Login(ctxAt(today), "ana@club.cl", "nope-nope")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	t.Run("unknown email", func(t *testing.T) {
		_, err := f.svc.Login(ctxAt(today), "nadie@club.cl", "supersecret")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})
}

func TestProfile(t *testing.T) {
	f := newFixture(t)
	m, err := f.svc.Register(ctxAt(today), validForm())
	require.NoError(t, err)

	t.Run("get renders display forms", func(t *testing.T) {
		p, err := f.svc.GetProfile(ctxAt(today), m.ID)
		require.NoError(t, err)
		assert.Equal(t, "12.345.678-5", p.IdentifierDisplay)
		assert.Equal(t, "01/01/2000", p.BirthDateDisplay)
		assert.Equal(t, 25, p.Age)
	})

	t.Run("update normalizes the identifier", func(t *testing.T) {
		p, err := f.svc.UpdateProfile(ctxAt(today), m.ID, registration.ProfileForm{
			FirstName:       "Ana",
			PaternalSurname: "Rojas",
			MaternalSurname: "Soto",
			Email:           "ana@club.cl",
			BirthDate:       "2000-01-01",
			Sex:             "femenino",
			IdentifierKind:  "PASAPORTE",
			IdentifierValue: " AB123456 ",
			Phone:           "+56987654321",
		})
		require.NoError(t, err)
		assert.Equal(t, "PASAPORTE", p.IdentifierKind)
		assert.Equal(t, "AB123456", p.IdentifierValue)
		assert.Equal(t, "Ana Rojas", p.DisplayName)
	})

	t.Run("update with short passport is rejected", func(t *testing.T) {
		_, err := f.svc.UpdateProfile(ctxAt(today), m.ID, registration.ProfileForm{
			FirstName:       "Ana",
			PaternalSurname: "Rojas",
			MaternalSurname: "Soto",
			Email:           "ana@club.cl",
			BirthDate:       "2000-01-01",
			Sex:             "femenino",
			IdentifierKind:  "PASAPORTE",
			IdentifierValue: "AB1",
			Phone:           "+56987654321",
		})
		var fields registration.FieldErrors
		require.ErrorAs(t, err, &fields)
		assert.Equal(t, registration.MsgInvalidPassport, fields["identifier_value"])
	})

	t.Run("unknown member", func(t *testing.T) {
		_, err := f.svc.GetProfile(ctxAt(today), id.UserID(uuid.New()))
		assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func TestSelfEnroll(t *testing.T) {
	testutil.Given(t, "an adult member", func(t *testing.T) {
		f := newFixture(t)
		m, err := f.svc.Register(ctxAt(today), validForm())
		require.NoError(t, err)

		testutil.When(t, "they enroll in an existing club", func(t *testing.T) {
			p, err := f.svc.SelfEnroll(ctxAt(today), m.ID, f.club)
			require.NoError(t, err)
			assert.Equal(t, f.club.String(), p.ClubID)
		})
		testutil.When(t, "they enroll again in the same club", func(t *testing.T) {
			_, err := f.svc.SelfEnroll(ctxAt(today), m.ID, f.club)
			require.NoError(t, err)
		})
		testutil.When(t, "they try a second club", func(t *testing.T) {
			other := id.ClubID(uuid.New())
			f.svc.clubs = fakeClubs{f.club: true, other: true}
			_, err := f.svc.SelfEnroll(ctxAt(today), m.ID, other)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))
		})
		testutil.When(t, "the club does not exist", func(t *testing.T) {
			_, err := f.svc.SelfEnroll(ctxAt(today), m.ID, id.ClubID(uuid.New()))
			assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
		})
		testutil.When(t, "the club is inactive", func(t *testing.T) {
			closed := id.ClubID(uuid.New())
			f.svc.clubs = fakeClubs{f.club: true, closed: false}
			_, err := f.svc.SelfEnroll(ctxAt(today), m.ID, closed)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))
		})
		testutil.Then(t, "the club lists them as a candidate", func(t *testing.T) {
			pool, err := f.svc.Candidates(ctxAt(today), f.club)
			require.NoError(t, err)
			require.Len(t, pool, 1)
			assert.Equal(t, m.ID, pool[0].ID)
			assert.Equal(t, "12.345.678-5", pool[0].Identifier)
		})
	})

	testutil.Given(t, "a seventeen-year-old member", func(t *testing.T) {
		f := newFixture(t)
		form := validForm()
		form.BirthDate = "2008-01-01"
		m, err := f.svc.Register(ctxAt(today), form)
		require.NoError(t, err)

		testutil.Then(t, "self-enrollment is forbidden", func(t *testing.T) {
			_, err := f.svc.SelfEnroll(ctxAt(today), m.ID, f.club)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeForbidden))
			assert.InDelta(t, 1, promtest.ToFloat64(f.metrics.SelfEnrollments.WithLabelValues(outcomeUnderage)), 0)
		})
		testutil.Then(t, "an older birth date in the session does not override the stored one", func(t *testing.T) {
			ctx := requestcontext.WithSession(ctxAt(today), requestcontext.SessionInfo{
				UserID:    m.ID,
				BirthDate: time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC),
			})
			_, err := f.svc.SelfEnroll(ctx, m.ID, f.club)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeForbidden))
		})
	})

	testutil.Given(t, "a member who corrects their birth date after logging in", func(t *testing.T) {
		f := newFixture(t)
		form := validForm()
		form.BirthDate = "2008-01-01"
		m, err := f.svc.Register(ctxAt(today), form)
		require.NoError(t, err)
		login, err := f.svc.Login(ctxAt(today), form.Email, form.Password)
		require.NoError(t, err)
		session, err := f.jwt.ValidateSession(login.AccessToken)
		require.NoError(t, err)

		_, err = f.svc.UpdateProfile(ctxAt(today), m.ID, registration.ProfileForm{
			FirstName:       "Ana",
			PaternalSurname: "Rojas",
			MaternalSurname: "Soto",
			Email:           form.Email,
			BirthDate:       "2000-01-01",
			Sex:             "femenino",
			IdentifierKind:  "RUT",
			IdentifierValue: "12.345.678-5",
			Phone:           "+56912345678",
		})
		require.NoError(t, err)

		testutil.Then(t, "enrollment with the old session uses the stored date", func(t *testing.T) {
			ctx := requestcontext.WithSession(ctxAt(today), session)
			p, err := f.svc.SelfEnroll(ctx, m.ID, f.club)
			require.NoError(t, err)
			assert.Equal(t, f.club.String(), p.ClubID)
		})
	})

	testutil.Given(t, "a member whose stored birth date is missing", func(t *testing.T) {
		f := newFixture(t)
		m, err := f.svc.Register(ctxAt(today), validForm())
		require.NoError(t, err)
		_, err = f.store.Execute(ctxAt(today), m.ID,
			func(*models.Member) error { return nil },
			func(m *models.Member) { m.BirthDate = time.Time{} })
		require.NoError(t, err)

		testutil.Then(t, "the session birth date is used", func(t *testing.T) {
			ctx := requestcontext.WithSession(ctxAt(today), requestcontext.SessionInfo{
				UserID:    m.ID,
				BirthDate: time.Date(2010, 1, 1, 0, 0, 0, 0, time.UTC),
			})
			_, err := f.svc.SelfEnroll(ctx, m.ID, f.club)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeForbidden))
		})
	})
}

func TestList(t *testing.T) {
	f := newFixture(t)
	a, err := f.svc.Register(ctxAt(today), validForm())
	require.NoError(t, err)
	form := validForm()
	form.Email = "beto@club.cl"
	form.IdentifierValue = "11.111.111-1"
	_, err = f.svc.Register(ctxAt(today), form)
	require.NoError(t, err)
	_, err = f.svc.SelfEnroll(ctxAt(today), a.ID, f.club)
	require.NoError(t, err)

	all, err := f.svc.List(ctxAt(today), id.ClubID{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	inClub, err := f.svc.List(ctxAt(today), f.club)
	require.NoError(t, err)
	require.Len(t, inClub, 1)
	assert.Equal(t, a.ID.String(), inClub[0].ID)
}

func TestUpdateMember(t *testing.T) {
	f := newFixture(t)
	m, err := f.svc.Register(ctxAt(today), validForm())
	require.NoError(t, err)
	adminID := id.UserID(uuid.New())
	adminCtx := requestcontext.WithSession(ctxAt(today), requestcontext.SessionInfo{
		UserID: adminID,
		Roles:  []id.Role{id.RoleAdmin},
	})
	form := registration.ProfileForm{
		FirstName:       "Ana",
		PaternalSurname: "Rojas",
		MaternalSurname: "Soto",
		Email:           "ana@club.cl",
		BirthDate:       "2000-01-01",
		Sex:             "femenino",
		IdentifierKind:  "RUT",
		IdentifierValue: "11.111.111-1",
		Phone:           "+56987654321",
	}

	t.Run("normalizes the identifier and records the administrator", func(t *testing.T) {
		p, err := f.svc.UpdateMember(adminCtx, m.ID, form)
		require.NoError(t, err)
		assert.Equal(t, "111111111", p.IdentifierValue)
		assert.Equal(t, "11.111.111-1", p.IdentifierDisplay)
		assert.Equal(t, []string{"athlete"}, p.Roles)

		events, err := f.audit.ListByUser(ctxAt(today), m.ID)
		require.NoError(t, err)
		last := events[len(events)-1]
		assert.Equal(t, audit.EventMemberEdited, last.Action)
		assert.Equal(t, adminID.String(), last.ActorID)
	})

	t.Run("re-runs the profile validators", func(t *testing.T) {
		bad := form
		bad.IdentifierValue = "11.111.111-2"
		bad.Phone = "+5491112345678"
		_, err := f.svc.UpdateMember(adminCtx, m.ID, bad)
		var fields registration.FieldErrors
		require.ErrorAs(t, err, &fields)
		assert.Equal(t, registration.MsgInvalidRUT, fields["identifier_value"])
		assert.Contains(t, fields, "phone")
	})

	t.Run("unknown member", func(t *testing.T) {
		_, err := f.svc.UpdateMember(adminCtx, id.UserID(uuid.New()), form)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func TestReleaseClub(t *testing.T) {
	f := newFixture(t)
	m, err := f.svc.Register(ctxAt(today), validForm())
	require.NoError(t, err)
	_, err = f.svc.SelfEnroll(ctxAt(today), m.ID, f.club)
	require.NoError(t, err)

	n, err := f.svc.ReleaseClub(ctxAt(today), f.club)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	p, err := f.svc.GetProfile(ctxAt(today), m.ID)
	require.NoError(t, err)
	assert.Empty(t, p.ClubID)

	other := id.ClubID(uuid.New())
	f.svc.clubs = fakeClubs{other: true}
	_, err = f.svc.SelfEnroll(ctxAt(today), m.ID, other)
	require.NoError(t, err)
}
