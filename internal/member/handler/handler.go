package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"sportclub/internal/member/models"
	"sportclub/internal/registration"
	id "sportclub/pkg/domain"
	dErrors "sportclub/pkg/domain-errors"
	"sportclub/pkg/platform/httputil"
	"sportclub/pkg/requestcontext"
)

// Service defines the member operations the handler needs.
type Service interface {
	Register(ctx context.Context, form registration.RegistrationForm) (*models.Member, error)
	Login(ctx context.Context, email, password string) (*models.LoginResult, error)
	GetProfile(ctx context.Context, userID id.UserID) (*models.Profile, error)
	UpdateProfile(ctx context.Context, userID id.UserID, form registration.ProfileForm) (*models.Profile, error)
	UpdateMember(ctx context.Context, memberID id.UserID, form registration.ProfileForm) (*models.Profile, error)
	SelfEnroll(ctx context.Context, userID id.UserID, clubID id.ClubID) (*models.Profile, error)
	List(ctx context.Context, clubID id.ClubID) ([]*models.Profile, error)
}

// Handler serves the member endpoints.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New creates a member Handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterPublic mounts the unauthenticated sign-up and login routes.
func (h *Handler) RegisterPublic(r chi.Router) {
	r.Post("/members/register", h.HandleRegister)
	r.Post("/members/login", h.HandleLogin)
}

// RegisterMember mounts the routes for the authenticated member. The caller
// applies the auth middleware.
func (h *Handler) RegisterMember(r chi.Router) {
	r.Get("/me", h.HandleGetProfile)
	r.Put("/me", h.HandleUpdateProfile)
	r.Post("/me/club/{clubID}/enroll", h.HandleSelfEnroll)
}

// RegisterAdmin mounts the administrator routes. The caller applies the
// auth and role middleware.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Get("/admin/members", h.HandleList)
	r.Put("/admin/members/{memberID}", h.HandleUpdateMember)
}

func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	form, ok := httputil.Decode[registration.RegistrationForm](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	m, err := h.service.Register(ctx, *form)
	if err != nil {
		h.logFailure(ctx, "registration failed", requestID, err)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "member registered",
		"request_id", requestID,
		"user_id", m.ID.String(),
	)
	httputil.WriteJSON(w, http.StatusCreated, models.ToProfile(m, requestcontext.Now(ctx)))
}

func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[models.LoginRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	res, err := h.service.Login(ctx, req.Email, req.Password)
	if err != nil {
		h.logFailure(ctx, "login failed", requestID, err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, res)
}

func (h *Handler) HandleGetProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	userID, ok := h.requireUser(w, ctx, requestID)
	if !ok {
		return
	}
	p, err := h.service.GetProfile(ctx, userID)
	if err != nil {
		h.logFailure(ctx, "failed to load profile", requestID, err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, p)
}

func (h *Handler) HandleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	userID, ok := h.requireUser(w, ctx, requestID)
	if !ok {
		return
	}
	form, ok := httputil.Decode[registration.ProfileForm](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	p, err := h.service.UpdateProfile(ctx, userID, *form)
	if err != nil {
		h.logFailure(ctx, "profile update failed", requestID, err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, p)
}

func (h *Handler) HandleSelfEnroll(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	userID, ok := h.requireUser(w, ctx, requestID)
	if !ok {
		return
	}
	clubID, err := id.ParseClubID(chi.URLParam(r, "clubID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	p, err := h.service.SelfEnroll(ctx, userID, clubID)
	if err != nil {
		h.logFailure(ctx, "self-enrollment failed", requestID, err)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "member enrolled in club",
		"request_id", requestID,
		"user_id", userID.String(),
		"club_id", clubID.String(),
	)
	httputil.WriteJSON(w, http.StatusOK, p)
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	var clubID id.ClubID
	if raw := r.URL.Query().Get("club_id"); raw != "" {
		parsed, err := id.ParseClubID(raw)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		clubID = parsed
	}
	members, err := h.service.List(ctx, clubID)
	if err != nil {
		h.logFailure(ctx, "failed to list members", requestID, err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"members": members,
		"total":   len(members),
	})
}

func (h *Handler) HandleUpdateMember(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	memberID, err := id.ParseUserID(chi.URLParam(r, "memberID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	form, ok := httputil.Decode[registration.ProfileForm](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	p, err := h.service.UpdateMember(ctx, memberID, *form)
	if err != nil {
		h.logFailure(ctx, "member edit failed", requestID, err)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "member edited by administrator",
		"request_id", requestID,
		"user_id", requestcontext.UserID(ctx).String(),
		"member_id", memberID.String(),
	)
	httputil.WriteJSON(w, http.StatusOK, p)
}

func (h *Handler) requireUser(w http.ResponseWriter, ctx context.Context, requestID string) (id.UserID, bool) {
	userID := requestcontext.UserID(ctx)
	if userID.IsNil() {
		// Only reachable when the route is mounted without RequireAuth.
		h.logger.ErrorContext(ctx, "user missing from context despite auth middleware",
			"request_id", requestID,
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return id.UserID{}, false
	}
	return userID, true
}

func (h *Handler) logFailure(ctx context.Context, msg, requestID string, err error) {
	level := slog.LevelWarn
	if de, ok := dErrors.As(err); ok && de.Code == dErrors.CodeInternal {
		level = slog.LevelError
	} else if !ok {
		if _, isFields := err.(httputil.FieldError); !isFields {
			level = slog.LevelError
		}
	}
	h.logger.Log(ctx, level, msg,
		"request_id", requestID,
		"error", err,
	)
}
