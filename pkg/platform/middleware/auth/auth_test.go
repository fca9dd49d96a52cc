package auth

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "sportclub/pkg/domain"
	"sportclub/pkg/requestcontext"
)

type stubValidator struct {
	session requestcontext.SessionInfo
	err     error
}

func (s stubValidator) ValidateSession(string) (requestcontext.SessionInfo, error) {
	return s.session, s.err
}

func discard() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestRequireAuth(t *testing.T) {
	userID := id.UserID(uuid.New())
	birth := time.Date(1990, 1, 2, 0, 0, 0, 0, time.UTC)
	valid := stubValidator{session: requestcontext.SessionInfo{UserID: userID, Roles: []id.Role{id.RoleAthlete}, BirthDate: birth}}

	var got requestcontext.SessionInfo
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = requestcontext.Session(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})

	t.Run("valid token injects session", func(t *testing.T) {
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/me", nil)
		r.Header.Set("Authorization", "Bearer good")
		RequireAuth(valid, discard())(next).ServeHTTP(w, r)

		require.Equal(t, http.StatusNoContent, w.Code)
		assert.Equal(t, userID, got.UserID)
		assert.Equal(t, birth, got.BirthDate)
	})

	t.Run("missing header", func(t *testing.T) {
		w := httptest.NewRecorder()
		RequireAuth(valid, discard())(next).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/me", nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.JSONEq(t, `{"error":"unauthorized","error_description":"Missing or invalid Authorization header"}`, w.Body.String())
	})

	t.Run("invalid token", func(t *testing.T) {
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/me", nil)
		r.Header.Set("Authorization", "Bearer bad")
		RequireAuth(stubValidator{err: errors.New("expired")}, discard())(next).ServeHTTP(w, r)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestRequireRole(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	h := RequireRole(id.RoleAdmin, discard())(ok)

	serve := func(s requestcontext.SessionInfo) int {
		r := httptest.NewRequest(http.MethodGet, "/admin/members", nil)
		r = r.WithContext(requestcontext.WithSession(r.Context(), s))
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)
		return w.Code
	}

	user := id.UserID(uuid.New())
	assert.Equal(t, http.StatusUnauthorized, serve(requestcontext.SessionInfo{}))
	assert.Equal(t, http.StatusForbidden, serve(requestcontext.SessionInfo{UserID: user, Roles: []id.Role{id.RoleAthlete}}))
	assert.Equal(t, http.StatusOK, serve(requestcontext.SessionInfo{UserID: user, Roles: []id.Role{id.RoleAdmin}}))
	assert.Equal(t, http.StatusOK, serve(requestcontext.SessionInfo{UserID: user, Roles: []id.Role{id.RoleSuperAdmin}}))
}
