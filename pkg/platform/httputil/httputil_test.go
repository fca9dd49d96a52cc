package httputil

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "sportclub/pkg/domain-errors"
)

func TestWriteError(t *testing.T) {
	t.Run("internal error omits description", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, dErrors.New(dErrors.CodeInternal, "db failed"))

		if w.Code != http.StatusInternalServerError {
			t.Fatalf("expected status %d, got %d", http.StatusInternalServerError, w.Code)
		}

		var body map[string]string
		if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if body["error"] != "internal_error" {
			t.Fatalf("expected error code internal_error, got %q", body["error"])
		}
		if _, ok := body["error_description"]; ok {
			t.Fatalf("expected error_description to be omitted for internal errors")
		}
	})

	t.Run("bad request includes description", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid input"))

		if w.Code != http.StatusBadRequest {
			t.Fatalf("expected status %d, got %d", http.StatusBadRequest, w.Code)
		}

		var body map[string]string
		if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if body["error"] != "bad_request" {
			t.Fatalf("expected error code bad_request, got %q", body["error"])
		}
		if body["error_description"] != "invalid input" {
			t.Fatalf("expected error_description to be returned for bad request")
		}
	})
}

type fieldErrs map[string]string

func (f fieldErrs) Error() string             { return "invalid form" }
func (f fieldErrs) Fields() map[string]string { return f }

func TestWriteErrorRendersFields(t *testing.T) {
	w := httptest.NewRecorder()
	WriteError(w, fmt.Errorf("register: %w", fieldErrs{"rut": "RUT inválido"}))

	require.Equal(t, http.StatusBadRequest, w.Code)
	var body ErrorResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, "validation_error", body.Error)
	assert.Equal(t, map[string]string{"rut": "RUT inválido"}, body.Fields)
}

func TestWriteErrorStatusMapping(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{dErrors.New(dErrors.CodeValidation, "x"), http.StatusBadRequest},
		{dErrors.New(dErrors.CodeUnauthorized, "x"), http.StatusUnauthorized},
		{dErrors.New(dErrors.CodeForbidden, "x"), http.StatusForbidden},
		{dErrors.New(dErrors.CodeNotFound, "x"), http.StatusNotFound},
		{dErrors.New(dErrors.CodeConflict, "x"), http.StatusConflict},
		{dErrors.New(dErrors.CodeInvariantViolation, "x"), http.StatusUnprocessableEntity},
		{errors.New("plain"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		w := httptest.NewRecorder()
		WriteError(w, tt.err)
		assert.Equal(t, tt.want, w.Code, tt.err.Error())
	}
}

type assignRequest struct {
	Member string `json:"member"`
}

func (r *assignRequest) Validate() error {
	if strings.TrimSpace(r.Member) == "" {
		return dErrors.New(dErrors.CodeValidation, "member is required")
	}
	return nil
}

func TestDecodeAndPrepare(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx := context.Background()

	t.Run("valid body", func(t *testing.T) {
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"member":"m-1"}`))
		req, ok := DecodeAndPrepare[assignRequest](w, r, logger, ctx, "req-1")
		require.True(t, ok)
		assert.Equal(t, "m-1", req.Member)
	})

	t.Run("malformed JSON", func(t *testing.T) {
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{`))
		_, ok := DecodeAndPrepare[assignRequest](w, r, logger, ctx, "req-2")
		assert.False(t, ok)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unknown field", func(t *testing.T) {
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"member":"m","extra":1}`))
		_, ok := DecodeAndPrepare[assignRequest](w, r, logger, ctx, "req-3")
		assert.False(t, ok)
	})

	t.Run("validation failure", func(t *testing.T) {
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"member":" "}`))
		_, ok := DecodeAndPrepare[assignRequest](w, r, logger, ctx, "req-4")
		assert.False(t, ok)
		var body ErrorResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
		assert.Equal(t, "validation_error", body.Error)
		assert.Equal(t, "member is required", body.ErrorDescription)
	})
}
