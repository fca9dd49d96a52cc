package service

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"sportclub/internal/club/metrics"
	"sportclub/internal/club/models"
	"sportclub/internal/directive"
	"sportclub/internal/eligibility"
	"sportclub/internal/identifier"
	"sportclub/internal/registration"
	id "sportclub/pkg/domain"
	dErrors "sportclub/pkg/domain-errors"
	"sportclub/pkg/platform/audit"
	"sportclub/pkg/platform/sentinel"
	"sportclub/pkg/requestcontext"
)

var tracer = otel.Tracer("sportclub/internal/club/service")

type Store interface {
	Create(ctx context.Context, c *models.Club) error
	FindByID(ctx context.Context, clubID id.ClubID) (*models.Club, error)
	List(ctx context.Context) ([]*models.Club, error)
	Delete(ctx context.Context, clubID id.ClubID) error
	Execute(ctx context.Context, clubID id.ClubID, validate func(*models.Club) error, mutate func(*models.Club)) (*models.Club, error)
}

// DraftStore keeps one draft per club and administrator. Load returns
// sentinel.ErrNotFound for a missing or expired draft.
type DraftStore interface {
	Save(ctx context.Context, d *models.Draft) error
	Load(ctx context.Context, clubID id.ClubID, adminID id.UserID) (*models.Draft, error)
	Delete(ctx context.Context, clubID id.ClubID, adminID id.UserID) error
}

// MemberDirectory supplies the candidate pool of a club and detaches its
// members when the club is deleted. The member module implements it.
type MemberDirectory interface {
	Candidates(ctx context.Context, clubID id.ClubID) ([]directive.Candidate, error)
	ReleaseClub(ctx context.Context, clubID id.ClubID) (int, error)
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

const (
	outcomeCommitted  = "committed"
	outcomeDuplicate  = "duplicate"
	outcomeIneligible = "ineligible"
)

// Service manages clubs and their directive slates.
type Service struct {
	store          Store
	drafts         DraftStore
	members        MemberDirectory
	validator      *registration.Validator
	resolver       *directive.Resolver
	logger         *slog.Logger
	auditPublisher AuditPublisher
	metrics        *metrics.Metrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) {
		s.auditPublisher = publisher
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithValidator(v *registration.Validator) Option {
	return func(s *Service) {
		s.validator = v
	}
}

// WithThresholds sets the directive age rule used to filter candidates.
func WithThresholds(t eligibility.Thresholds) Option {
	return func(s *Service) {
		s.resolver = directive.NewResolver(t)
	}
}

// New constructs a Service.
func New(store Store, drafts DraftStore, members MemberDirectory, opts ...Option) *Service {
	s := &Service{
		store:    store,
		drafts:   drafts,
		members:  members,
		resolver: directive.NewResolver(eligibility.DefaultThresholds),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.validator == nil {
		s.validator = registration.New()
	}
	return s
}

// Create validates the club form and stores an active club with an empty slate.
func (s *Service) Create(ctx context.Context, form registration.ClubForm) (*models.Club, error) {
	ctx, span := tracer.Start(ctx, "club.Create")
	defer span.End()

	if fieldErrs := s.validator.ValidateClub(form); fieldErrs != nil {
		return nil, fieldErrs
	}

	now := requestcontext.Now(ctx)
	c := &models.Club{
		ID:        id.ClubID(uuid.New()),
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := applyForm(c, form); err != nil {
		return nil, err
	}

	if err := s.store.Create(ctx, c); err != nil {
		if errors.Is(err, sentinel.ErrAlreadyUsed) {
			return nil, dErrors.New(dErrors.CodeConflict, "club RUT already registered")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create club")
	}
	span.SetAttributes(attribute.String("club.id", c.ID.String()))

	s.emitClub(ctx, audit.EventClubCreated, c.ID)
	s.metrics.IncrementClubsCreated()
	return c, nil
}

// Update re-validates the club form and replaces the club's details. The
// slate is left untouched; Active changes only when the form carries it.
func (s *Service) Update(ctx context.Context, clubID id.ClubID, form registration.ClubForm) (*models.Club, error) {
	ctx, span := tracer.Start(ctx, "club.Update")
	defer span.End()
	span.SetAttributes(attribute.String("club.id", clubID.String()))

	if fieldErrs := s.validator.ValidateClub(form); fieldErrs != nil {
		return nil, fieldErrs
	}
	// Resolved before the lock so a bad RUT never reaches the store.
	var next models.Club
	if err := applyForm(&next, form); err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	updated, err := s.store.Execute(ctx, clubID,
		func(*models.Club) error { return nil },
		func(c *models.Club) {
			c.FantasyName = next.FantasyName
			c.LegalName = next.LegalName
			c.FoundingDate = next.FoundingDate
			c.RUT = next.RUT
			c.Email = next.Email
			c.Phone = next.Phone
			c.Website = next.Website
			if form.Active != nil {
				c.Active = *form.Active
			}
			c.UpdatedAt = now
		})
	if err != nil {
		switch {
		case errors.Is(err, sentinel.ErrNotFound):
			return nil, dErrors.New(dErrors.CodeNotFound, "club not found")
		case errors.Is(err, sentinel.ErrAlreadyUsed):
			return nil, dErrors.New(dErrors.CodeConflict, "club RUT already registered")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update club")
	}

	s.emitClub(ctx, audit.EventClubUpdated, clubID)
	return updated, nil
}

// SetActive switches the club's vigencia.
func (s *Service) SetActive(ctx context.Context, clubID id.ClubID, active bool) (*models.Club, error) {
	ctx, span := tracer.Start(ctx, "club.SetActive")
	defer span.End()

	now := requestcontext.Now(ctx)
	updated, err := s.store.Execute(ctx, clubID,
		func(*models.Club) error { return nil },
		func(c *models.Club) {
			if c.Active != active {
				c.Active = active
				c.UpdatedAt = now
			}
		})
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "club not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update club")
	}

	ev := audit.NewEvent(ctx, audit.EventClubActiveSet, requestcontext.UserID(ctx))
	ev.ClubID = clubID.String()
	ev.Decision = strconv.FormatBool(active)
	s.emit(ctx, ev)
	return updated, nil
}

// Delete removes the club and detaches its members, who may then enroll
// elsewhere.
func (s *Service) Delete(ctx context.Context, clubID id.ClubID) error {
	ctx, span := tracer.Start(ctx, "club.Delete")
	defer span.End()
	span.SetAttributes(attribute.String("club.id", clubID.String()))

	if err := s.store.Delete(ctx, clubID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "club not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete club")
	}
	released, err := s.members.ReleaseClub(ctx, clubID)
	if err != nil {
		// The club is gone; members still pointing at it are reported, not rolled back.
		s.logger.ErrorContext(ctx, "failed to release members of deleted club",
			"request_id", requestcontext.RequestID(ctx),
			"club_id", clubID.String(),
			"error", err,
		)
	}
	if err := s.drafts.Delete(ctx, clubID, requestcontext.UserID(ctx)); err != nil {
		s.logger.WarnContext(ctx, "failed to delete draft of deleted club",
			"request_id", requestcontext.RequestID(ctx),
			"club_id", clubID.String(),
			"error", err,
		)
	}

	ev := audit.NewEvent(ctx, audit.EventClubDeleted, requestcontext.UserID(ctx))
	ev.ClubID = clubID.String()
	ev.Reason = strconv.Itoa(released) + " members released"
	s.emit(ctx, ev)
	return nil
}

func (s *Service) Get(ctx context.Context, clubID id.ClubID) (*models.Club, error) {
	c, err := s.store.FindByID(ctx, clubID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "club not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load club")
	}
	return c, nil
}

func (s *Service) List(ctx context.Context) ([]*models.Club, error) {
	clubs, err := s.store.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list clubs")
	}
	return clubs, nil
}

// ListActive returns the clubs members may enroll in.
func (s *Service) ListActive(ctx context.Context) ([]*models.Club, error) {
	clubs, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	out := clubs[:0]
	for _, c := range clubs {
		if c.Active {
			out = append(out, c)
		}
	}
	return out, nil
}

// ClubStatus lets the member module check enrollment targets.
func (s *Service) ClubStatus(ctx context.Context, clubID id.ClubID) (exists, active bool, err error) {
	c, err := s.store.FindByID(ctx, clubID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return false, false, nil
	}
	if err != nil {
		return false, false, err
	}
	return true, c.Active, nil
}

// Candidates lists the club members that may be offered for role: old
// enough, and not holding another position in the administrator's draft, or
// in the committed slate when there is no draft.
func (s *Service) Candidates(ctx context.Context, clubID id.ClubID, role directive.Role) ([]models.CandidateView, error) {
	ctx, span := tracer.Start(ctx, "club.Candidates")
	defer span.End()

	if !role.IsValid() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "unknown directive role")
	}
	c, err := s.Get(ctx, clubID)
	if err != nil {
		return nil, err
	}
	slate := c.Slate
	draft, err := s.loadDraft(ctx, clubID)
	if err != nil {
		return nil, err
	}
	if draft != nil {
		slate = draft.Proposed
	}

	pool, err := s.members.Candidates(ctx, clubID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load candidates")
	}
	now := requestcontext.Now(ctx)
	available := s.resolver.AvailableCandidates(slate, role, pool, now)
	out := make([]models.CandidateView, 0, len(available))
	for _, cand := range available {
		out = append(out, models.ToCandidateView(cand, now))
	}
	return out, nil
}

// SaveDraft stores the administrator's proposed slate. The draft records the
// committed slate it was based on; duplicates are rejected immediately.
func (s *Service) SaveDraft(ctx context.Context, clubID id.ClubID, proposed models.SlateAssignments) (*models.Draft, error) {
	ctx, span := tracer.Start(ctx, "club.SaveDraft")
	defer span.End()

	adminID := requestcontext.UserID(ctx)
	slate, err := proposed.ToSlate()
	if err != nil {
		return nil, translateSlateError(err)
	}
	c, err := s.Get(ctx, clubID)
	if err != nil {
		return nil, err
	}

	base := c.Slate
	if prev, err := s.loadDraft(ctx, clubID); err != nil {
		return nil, err
	} else if prev != nil {
		// Keep the original base so a commit replays every edit made in this session.
		base = prev.Base
	}
	d := &models.Draft{
		ClubID:   clubID,
		AdminID:  adminID,
		Base:     base,
		Proposed: slate,
		SavedAt:  requestcontext.Now(ctx),
	}
	if err := s.drafts.Save(ctx, d); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save draft")
	}

	ev := audit.NewEvent(ctx, audit.EventSlateDraftSaved, adminID)
	ev.ClubID = clubID.String()
	s.emit(ctx, ev)
	s.metrics.IncrementDraftsSaved()
	return d, nil
}

// GetDraft returns the administrator's current draft.
func (s *Service) GetDraft(ctx context.Context, clubID id.ClubID) (*models.Draft, error) {
	d, err := s.loadDraft(ctx, clubID)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, dErrors.New(dErrors.CodeNotFound, "no draft for this club")
	}
	return d, nil
}

// DiscardDraft drops the administrator's draft. Discarding a missing draft succeeds.
func (s *Service) DiscardDraft(ctx context.Context, clubID id.ClubID) error {
	if err := s.drafts.Delete(ctx, clubID, requestcontext.UserID(ctx)); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to discard draft")
	}
	return nil
}

// CommitSlate applies the administrator's draft to the committed slate. The
// changed positions are replayed onto the slate as it is now, under the
// store's row lock, and the result is re-checked for uniqueness and
// eligibility: another administrator may have committed in between.
func (s *Service) CommitSlate(ctx context.Context, clubID id.ClubID) (*models.Club, error) {
	ctx, span := tracer.Start(ctx, "club.CommitSlate")
	defer span.End()

	adminID := requestcontext.UserID(ctx)
	draft, err := s.loadDraft(ctx, clubID)
	if err != nil {
		return nil, err
	}
	if draft == nil {
		return nil, dErrors.New(dErrors.CodeBadRequest, "no draft to commit")
	}
	pool, err := s.members.Candidates(ctx, clubID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load candidates")
	}

	now := requestcontext.Now(ctx)
	var next directive.Slate
	updated, err := s.store.Execute(ctx, clubID,
		func(c *models.Club) error {
			applied, err := draft.ApplyTo(c.Slate)
			if err != nil {
				return err
			}
			if err := s.resolver.CheckSlate(applied, pool, now); err != nil {
				return err
			}
			next = applied
			return nil
		},
		func(c *models.Club) {
			c.Slate = next
			c.UpdatedAt = now
		})
	if err != nil {
		switch {
		case errors.Is(err, sentinel.ErrNotFound):
			return nil, dErrors.New(dErrors.CodeNotFound, "club not found")
		case errors.Is(err, directive.ErrDuplicateAssignment):
			s.metrics.IncrementSlateCommit(outcomeDuplicate)
			return nil, dErrors.Wrap(err, dErrors.CodeConflict, err.Error())
		}
		var inel *directive.IneligibleMemberError
		if errors.As(err, &inel) {
			s.metrics.IncrementSlateCommit(outcomeIneligible)
			return nil, dErrors.Wrap(err, dErrors.CodeInvariantViolation, err.Error())
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to commit slate")
	}

	if err := s.drafts.Delete(ctx, clubID, adminID); err != nil {
		s.logger.WarnContext(ctx, "failed to delete committed draft",
			"request_id", requestcontext.RequestID(ctx),
			"club_id", clubID.String(),
			"error", err,
		)
	}
	s.metrics.IncrementSlateCommit(outcomeCommitted)
	ev := audit.NewEvent(ctx, audit.EventSlateCommitted, adminID)
	ev.ClubID = clubID.String()
	ev.Decision = outcomeCommitted
	s.emit(ctx, ev)
	return updated, nil
}

func (s *Service) loadDraft(ctx context.Context, clubID id.ClubID) (*models.Draft, error) {
	adminID := requestcontext.UserID(ctx)
	if adminID.IsNil() {
		return nil, nil
	}
	d, err := s.drafts.Load(ctx, clubID, adminID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load draft")
	}
	return d, nil
}

// applyForm copies the validated form onto c, normalizing the RUT to its
// storage form.
func applyForm(c *models.Club, form registration.ClubForm) error {
	c.FantasyName = strings.TrimSpace(form.FantasyName)
	c.LegalName = strings.TrimSpace(form.LegalName)
	c.Email = strings.TrimSpace(form.Email)
	c.Phone = strings.TrimSpace(form.Phone)
	c.Website = strings.TrimSpace(form.Website)
	c.RUT = ""
	if strings.TrimSpace(form.RUT) != "" {
		rut, err := identifier.ParseRUT(form.RUT)
		if err != nil {
			return registration.FieldErrors{"rut": registration.MsgInvalidRUT}
		}
		c.RUT = rut.String()
	}
	c.FoundingDate = time.Time{}
	if form.FoundingDate != "" {
		// The form rule already guarantees the date parses.
		c.FoundingDate, _ = eligibility.ParseBirthDate(form.FoundingDate)
	}
	if form.Active != nil {
		c.Active = *form.Active
	}
	return nil
}

func (s *Service) emitClub(ctx context.Context, action audit.AuditEvent, clubID id.ClubID) {
	ev := audit.NewEvent(ctx, action, requestcontext.UserID(ctx))
	ev.ClubID = clubID.String()
	s.emit(ctx, ev)
}

func translateSlateError(err error) error {
	if _, ok := dErrors.As(err); ok {
		return err
	}
	if errors.Is(err, directive.ErrDuplicateAssignment) {
		return dErrors.Wrap(err, dErrors.CodeConflict, err.Error())
	}
	return dErrors.Wrap(err, dErrors.CodeInvalidInput, err.Error())
}

func (s *Service) emit(ctx context.Context, ev audit.Event) {
	if s.auditPublisher == nil {
		return
	}
	if err := s.auditPublisher.Emit(ctx, ev); err != nil {
		s.logger.WarnContext(ctx, "failed to emit audit event",
			"action", ev.Action,
			"request_id", ev.RequestID,
			"error", err,
		)
	}
}
