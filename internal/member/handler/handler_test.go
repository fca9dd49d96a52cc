package handler

import (
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"sportclub/internal/member/handler/mocks"
	"sportclub/internal/member/models"
	"sportclub/internal/registration"
	id "sportclub/pkg/domain"
	dErrors "sportclub/pkg/domain-errors"
	"sportclub/pkg/requestcontext"
	"sportclub/pkg/testutil"
)

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service
type MemberHandlerSuite struct {
	suite.Suite
	service *mocks.MockService
	router  chi.Router
	userID  id.UserID
}

func TestMemberHandlerSuite(t *testing.T) {
	suite.Run(t, new(MemberHandlerSuite))
}

func (s *MemberHandlerSuite) SetupTest() {
	ctrl := gomock.NewController(s.T())
	s.service = mocks.NewMockService(ctrl)
	s.userID = id.UserID(uuid.New())

	h := New(s.service, slog.New(slog.NewTextHandler(io.Discard, nil)))
	s.router = chi.NewRouter()
	h.RegisterPublic(s.router)
	h.RegisterMember(s.router)
	h.RegisterAdmin(s.router)
}

func (s *MemberHandlerSuite) authed(req *http.Request) *http.Request {
	return testutil.WithSession(req, requestcontext.SessionInfo{
		UserID: s.userID,
		Roles:  []id.Role{id.RoleAthlete},
	})
}

func (s *MemberHandlerSuite) TestRegister() {
	s.Run("created", func() {
		form := registration.RegistrationForm{Name: "Ana", Email: "ana@club.cl"}
		s.service.EXPECT().Register(gomock.Any(), form).Return(&models.Member{
			ID:              s.userID,
			DisplayName:     "Ana",
			IdentifierKind:  "RUT",
			IdentifierValue: "123456785",
		}, nil)

		rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/members/register", form))

		testutil.AssertStatus(s.T(), rr, http.StatusCreated)
		testutil.AssertJSONContains(s.T(), rr, "identifier_display", "12.345.678-5")
	})

	s.Run("field errors become a validation_error body", func() {
		s.service.EXPECT().Register(gomock.Any(), gomock.Any()).Return(nil, registration.FieldErrors{
			"identifier_value": registration.MsgInvalidRUT,
			"email":            registration.MsgInvalidEmail,
		})

		rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/members/register",
			registration.RegistrationForm{Email: "x"}))

		testutil.AssertStatus(s.T(), rr, http.StatusBadRequest)
		fields := testutil.UnmarshalFieldErrors(s.T(), rr)
		assert.Equal(s.T(), registration.MsgInvalidRUT, fields["identifier_value"])
		assert.Equal(s.T(), registration.MsgInvalidEmail, fields["email"])
	})

	s.Run("unknown fields are rejected before the service", func() {
		rr := testutil.DoRequest(s.router, testutil.NewRequestWithBody(s.T(), http.MethodPost, "/members/register",
			`{"name":"Ana","is_admin":true}`))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "bad_request")
	})

	s.Run("duplicate identifier", func() {
		s.service.EXPECT().Register(gomock.Any(), gomock.Any()).
			Return(nil, dErrors.New(dErrors.CodeConflict, "email or identifier already registered"))

		rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/members/register",
			registration.RegistrationForm{Name: "Ana"}))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusConflict, "conflict")
	})
}

func (s *MemberHandlerSuite) TestLogin() {
	s.Run("missing password never reaches the service", func() {
		rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/members/login",
			models.LoginRequest{Email: "ana@club.cl"}))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "validation_error")
	})

	s.Run("email is normalized", func() {
		s.service.EXPECT().Login(gomock.Any(), "ana@club.cl", "secret123").
			Return(&models.LoginResult{AccessToken: "tok", TokenType: "Bearer", ExpiresIn: 900}, nil)

		rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/members/login",
			models.LoginRequest{Email: " ANA@club.cl", Password: "secret123"}))
		testutil.AssertStatusOK(s.T(), rr)
		testutil.AssertJSONContains(s.T(), rr, "access_token", "tok")
	})

	s.Run("bad credentials", func() {
		s.service.EXPECT().Login(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(nil, dErrors.New(dErrors.CodeUnauthorized, "invalid credentials"))

		rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/members/login",
			models.LoginRequest{Email: "ana@club.cl", Password: "wrong"}))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusUnauthorized, "unauthorized")
	})
}

func (s *MemberHandlerSuite) TestProfile() {
	s.Run("get uses the session user", func() {
		s.service.EXPECT().GetProfile(gomock.Any(), s.userID).
			Return(&models.Profile{ID: s.userID.String(), IdentifierDisplay: "12.345.678-5"}, nil)

		rr := testutil.DoRequest(s.router, s.authed(testutil.NewRequest(s.T(), http.MethodGet, "/me")))
		testutil.AssertStatusOK(s.T(), rr)
		testutil.AssertJSONContains(s.T(), rr, "identifier_display", "12.345.678-5")
	})

	s.Run("get without session", func() {
		rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/me"))
		testutil.AssertStatus(s.T(), rr, http.StatusUnauthorized)
	})

	s.Run("update passes the form through", func() {
		form := registration.ProfileForm{FirstName: "Ana", Phone: "+56912345678"}
		s.service.EXPECT().UpdateProfile(gomock.Any(), s.userID, form).
			Return(&models.Profile{ID: s.userID.String(), FirstName: "Ana"}, nil)

		rr := testutil.DoRequest(s.router, s.authed(testutil.NewJSONRequest(s.T(), http.MethodPut, "/me", form)))
		testutil.AssertStatusOK(s.T(), rr)
		testutil.AssertJSONContains(s.T(), rr, "first_name", "Ana")
	})
}

func (s *MemberHandlerSuite) TestSelfEnroll() {
	clubID := id.ClubID(uuid.New())

	s.Run("enrolled", func() {
		s.service.EXPECT().SelfEnroll(gomock.Any(), s.userID, clubID).
			Return(&models.Profile{ID: s.userID.String(), ClubID: clubID.String()}, nil)

		rr := testutil.DoRequest(s.router, s.authed(testutil.NewRequest(s.T(), http.MethodPost,
			"/me/club/"+clubID.String()+"/enroll")))
		testutil.AssertStatusOK(s.T(), rr)
		testutil.AssertJSONContains(s.T(), rr, "club_id", clubID.String())
	})

	s.Run("underage", func() {
		s.service.EXPECT().SelfEnroll(gomock.Any(), s.userID, clubID).
			Return(nil, dErrors.New(dErrors.CodeForbidden, "age 17 is below the self_enrollment minimum of 18"))

		rr := testutil.DoRequest(s.router, s.authed(testutil.NewRequest(s.T(), http.MethodPost,
			"/me/club/"+clubID.String()+"/enroll")))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusForbidden, "forbidden")
	})

	s.Run("malformed club id", func() {
		rr := testutil.DoRequest(s.router, s.authed(testutil.NewRequest(s.T(), http.MethodPost,
			"/me/club/not-a-uuid/enroll")))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "invalid_input")
	})
}

func (s *MemberHandlerSuite) TestList() {
	clubID := id.ClubID(uuid.New())

	s.Run("filters by club", func() {
		s.service.EXPECT().List(gomock.Any(), clubID).
			Return([]*models.Profile{{ID: s.userID.String()}}, nil)

		rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/admin/members?club_id="+clubID.String()))
		testutil.AssertStatusOK(s.T(), rr)
		body := testutil.UnmarshalResponse[struct {
			Members []models.Profile `json:"members"`
			Total   int              `json:"total"`
		}](s.T(), rr)
		require.Len(s.T(), body.Members, 1)
		assert.Equal(s.T(), 1, body.Total)
	})

	s.Run("all members", func() {
		s.service.EXPECT().List(gomock.Any(), id.ClubID{}).Return(nil, nil)

		rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/admin/members"))
		testutil.AssertStatusOK(s.T(), rr)
		testutil.AssertJSONContains(s.T(), rr, "total", float64(0))
	})
}

func (s *MemberHandlerSuite) TestUpdateMember() {
	memberID := id.UserID(uuid.New())
	path := "/admin/members/" + memberID.String()

	s.Run("edits the addressed member", func() {
		form := registration.ProfileForm{FirstName: "Beto", IdentifierKind: "RUT", IdentifierValue: "11.111.111-1"}
		s.service.EXPECT().UpdateMember(gomock.Any(), memberID, form).
			Return(&models.Profile{ID: memberID.String(), IdentifierValue: "111111111", IdentifierDisplay: "11.111.111-1"}, nil)

		rr := testutil.DoRequest(s.router, s.authed(testutil.NewJSONRequest(s.T(), http.MethodPut, path, form)))
		testutil.AssertStatusOK(s.T(), rr)
		testutil.AssertJSONContains(s.T(), rr, "identifier_value", "111111111")
	})

	s.Run("field errors", func() {
		s.service.EXPECT().UpdateMember(gomock.Any(), memberID, gomock.Any()).
			Return(nil, registration.FieldErrors{"identifier_value": registration.MsgInvalidRUT})

		rr := testutil.DoRequest(s.router, s.authed(testutil.NewJSONRequest(s.T(), http.MethodPut, path,
			registration.ProfileForm{IdentifierKind: "RUT", IdentifierValue: "11.111.111-2"})))
		testutil.AssertStatus(s.T(), rr, http.StatusBadRequest)
		assert.Equal(s.T(), registration.MsgInvalidRUT, testutil.UnmarshalFieldErrors(s.T(), rr)["identifier_value"])
	})

	s.Run("unknown member", func() {
		s.service.EXPECT().UpdateMember(gomock.Any(), memberID, gomock.Any()).
			Return(nil, dErrors.New(dErrors.CodeNotFound, "member not found"))

		rr := testutil.DoRequest(s.router, s.authed(testutil.NewJSONRequest(s.T(), http.MethodPut, path, registration.ProfileForm{})))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusNotFound, "not_found")
	})

	s.Run("malformed member id", func() {
		rr := testutil.DoRequest(s.router, s.authed(testutil.NewJSONRequest(s.T(), http.MethodPut,
			"/admin/members/nope", registration.ProfileForm{})))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "invalid_input")
	})
}
