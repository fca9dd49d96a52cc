package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"sportclub/internal/club/models"
	"sportclub/internal/directive"
	"sportclub/internal/registration"
	id "sportclub/pkg/domain"
	dErrors "sportclub/pkg/domain-errors"
	"sportclub/pkg/platform/httputil"
	"sportclub/pkg/requestcontext"
)

// Service defines the club operations the handler needs.
type Service interface {
	Create(ctx context.Context, form registration.ClubForm) (*models.Club, error)
	Get(ctx context.Context, clubID id.ClubID) (*models.Club, error)
	List(ctx context.Context) ([]*models.Club, error)
	ListActive(ctx context.Context) ([]*models.Club, error)
	Update(ctx context.Context, clubID id.ClubID, form registration.ClubForm) (*models.Club, error)
	SetActive(ctx context.Context, clubID id.ClubID, active bool) (*models.Club, error)
	Delete(ctx context.Context, clubID id.ClubID) error
	Candidates(ctx context.Context, clubID id.ClubID, role directive.Role) ([]models.CandidateView, error)
	SaveDraft(ctx context.Context, clubID id.ClubID, proposed models.SlateAssignments) (*models.Draft, error)
	GetDraft(ctx context.Context, clubID id.ClubID) (*models.Draft, error)
	DiscardDraft(ctx context.Context, clubID id.ClubID) error
	CommitSlate(ctx context.Context, clubID id.ClubID) (*models.Club, error)
}

// Handler serves the club endpoints.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterMember mounts the read-only listing of active clubs members use to
// pick a club.
func (h *Handler) RegisterMember(r chi.Router) {
	r.Get("/clubs", h.HandleListActive)
}

// RegisterAdmin mounts club management and directive slate editing. The
// caller applies the auth and role middleware.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Route("/admin/clubs", func(r chi.Router) {
		r.Post("/", h.HandleCreate)
		r.Get("/", h.HandleList)
		r.Route("/{clubID}", func(r chi.Router) {
			r.Get("/", h.HandleGet)
			r.Get("/candidates", h.HandleCandidates)
			r.Get("/slate/draft", h.HandleGetDraft)
			r.Put("/slate/draft", h.HandleSaveDraft)
			r.Delete("/slate/draft", h.HandleDiscardDraft)
			r.Post("/slate/commit", h.HandleCommit)
		})
	})
}

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	form, ok := httputil.Decode[registration.ClubForm](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	c, err := h.service.Create(ctx, *form)
	if err != nil {
		h.fail(w, ctx, "club creation failed", requestID, err)
		return
	}
	h.logger.InfoContext(ctx, "club created",
		"request_id", requestID,
		"club_id", c.ID.String(),
	)
	httputil.WriteJSON(w, http.StatusCreated, models.ToView(c))
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	h.writeList(w, r, h.service.List)
}

func (h *Handler) HandleListActive(w http.ResponseWriter, r *http.Request) {
	h.writeList(w, r, h.service.ListActive)
}

func (h *Handler) writeList(w http.ResponseWriter, r *http.Request, list func(context.Context) ([]*models.Club, error)) {
	ctx := r.Context()
	clubs, err := list(ctx)
	if err != nil {
		h.fail(w, ctx, "failed to list clubs", requestcontext.RequestID(ctx), err)
		return
	}
	views := make([]*models.ClubView, 0, len(clubs))
	for _, c := range clubs {
		views = append(views, models.ToView(c))
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"clubs": views,
		"total": len(views),
	})
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	clubID, ok := h.clubID(w, r)
	if !ok {
		return
	}
	c, err := h.service.Get(ctx, clubID)
	if err != nil {
		h.fail(w, ctx, "failed to load club", requestcontext.RequestID(ctx), err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, models.ToView(c))
}

func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	clubID, ok := h.clubID(w, r)
	if !ok {
		return
	}
	form, ok := httputil.Decode[registration.ClubForm](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	c, err := h.service.Update(ctx, clubID, *form)
	if err != nil {
		h.fail(w, ctx, "club update failed", requestID, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, models.ToView(c))
}

type setActiveRequest struct {
	Active *bool `json:"active"`
}

func (h *Handler) HandleSetActive(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	clubID, ok := h.clubID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.Decode[setActiveRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	if req.Active == nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "active is required"))
		return
	}
	c, err := h.service.SetActive(ctx, clubID, *req.Active)
	if err != nil {
		h.fail(w, ctx, "failed to change club vigencia", requestID, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"id":     c.ID.String(),
		"active": c.Active,
	})
}

func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	clubID, ok := h.clubID(w, r)
	if !ok {
		return
	}
	if err := h.service.Delete(ctx, clubID); err != nil {
		h.fail(w, ctx, "club deletion failed", requestID, err)
		return
	}
	h.logger.InfoContext(ctx, "club deleted",
		"request_id", requestID,
		"club_id", clubID.String(),
		"user_id", requestcontext.UserID(ctx).String(),
	)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) HandleCandidates(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	clubID, ok := h.clubID(w, r)
	if !ok {
		return
	}
	role, err := directive.ParseRole(r.URL.Query().Get("role"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "role must be one of president, secretary, treasurer, director"))
		return
	}
	candidates, err := h.service.Candidates(ctx, clubID, role)
	if err != nil {
		h.fail(w, ctx, "failed to list candidates", requestcontext.RequestID(ctx), err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"role":       role,
		"candidates": candidates,
	})
}

func (h *Handler) HandleGetDraft(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	clubID, ok := h.clubID(w, r)
	if !ok {
		return
	}
	d, err := h.service.GetDraft(ctx, clubID)
	if err != nil {
		h.fail(w, ctx, "failed to load draft", requestcontext.RequestID(ctx), err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, models.ToDraftView(d))
}

func (h *Handler) HandleSaveDraft(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	clubID, ok := h.clubID(w, r)
	if !ok {
		return
	}
	proposed, ok := httputil.Decode[models.SlateAssignments](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	d, err := h.service.SaveDraft(ctx, clubID, *proposed)
	if err != nil {
		h.fail(w, ctx, "failed to save draft", requestID, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, models.ToDraftView(d))
}

func (h *Handler) HandleDiscardDraft(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	clubID, ok := h.clubID(w, r)
	if !ok {
		return
	}
	if err := h.service.DiscardDraft(ctx, clubID); err != nil {
		h.fail(w, ctx, "failed to discard draft", requestcontext.RequestID(ctx), err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) HandleCommit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	clubID, ok := h.clubID(w, r)
	if !ok {
		return
	}
	c, err := h.service.CommitSlate(ctx, clubID)
	if err != nil {
		h.fail(w, ctx, "slate commit failed", requestID, err)
		return
	}
	h.logger.InfoContext(ctx, "directive slate committed",
		"request_id", requestID,
		"club_id", clubID.String(),
		"user_id", requestcontext.UserID(ctx).String(),
	)
	httputil.WriteJSON(w, http.StatusOK, models.ToView(c))
}

func (h *Handler) clubID(w http.ResponseWriter, r *http.Request) (id.ClubID, bool) {
	clubID, err := id.ParseClubID(chi.URLParam(r, "clubID"))
	if err != nil {
		httputil.WriteError(w, err)
		return id.ClubID{}, false
	}
	return clubID, true
}

func (h *Handler) fail(w http.ResponseWriter, ctx context.Context, msg, requestID string, err error) {
	if de, ok := dErrors.As(err); ok && de.Code != dErrors.CodeInternal {
		h.logger.WarnContext(ctx, msg, "request_id", requestID, "error", err)
	} else if _, isFields := err.(httputil.FieldError); isFields {
		h.logger.WarnContext(ctx, msg, "request_id", requestID, "error", err)
	} else {
		h.logger.ErrorContext(ctx, msg, "request_id", requestID, "error", err)
	}
	httputil.WriteError(w, err)
}
