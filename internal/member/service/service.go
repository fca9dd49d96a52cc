package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/crypto/bcrypt"

	"sportclub/internal/directive"
	"sportclub/internal/eligibility"
	"sportclub/internal/identifier"
	"sportclub/internal/member/metrics"
	"sportclub/internal/member/models"
	"sportclub/internal/registration"
	id "sportclub/pkg/domain"
	dErrors "sportclub/pkg/domain-errors"
	"sportclub/pkg/platform/audit"
	"sportclub/pkg/platform/sentinel"
	"sportclub/pkg/requestcontext"
)

var tracer = otel.Tracer("sportclub/internal/member/service")

type Store interface {
	Create(ctx context.Context, m *models.Member) error
	FindByID(ctx context.Context, userID id.UserID) (*models.Member, error)
	FindByEmail(ctx context.Context, email string) (*models.Member, error)
	List(ctx context.Context) ([]*models.Member, error)
	ListByClub(ctx context.Context, clubID id.ClubID) ([]*models.Member, error)
	ClearClub(ctx context.Context, clubID id.ClubID, at time.Time) (int, error)
	Execute(ctx context.Context, userID id.UserID, validate func(*models.Member) error, mutate func(*models.Member)) (*models.Member, error)
}

// ClubDirectory answers whether a club exists and is active. The club module
// implements it.
type ClubDirectory interface {
	ClubStatus(ctx context.Context, clubID id.ClubID) (exists, active bool, err error)
}

type TokenIssuer interface {
	GenerateAccessToken(userID id.UserID, roles []id.Role, birthDate time.Time, expiresIn time.Duration) (string, error)
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

const (
	outcomeEnrolled = "enrolled"
	outcomeUnderage = "underage"
	outcomeConflict = "conflict"
)

// Service handles member registration, profiles and club self-enrollment.
type Service struct {
	store          Store
	clubs          ClubDirectory
	validator      *registration.Validator
	thresholds     eligibility.Thresholds
	tokens         TokenIssuer
	tokenTTL       time.Duration
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

// WithThresholds sets the self-enrollment age rule. The validator carries its
// own copy for the registration rule.
func WithThresholds(t eligibility.Thresholds) Option {
	return func(s *Service) {
		s.thresholds = t
	}
}

func WithTokenIssuer(issuer TokenIssuer, ttl time.Duration) Option {
	return func(s *Service) {
		s.tokens = issuer
		s.tokenTTL = ttl
	}
}

func WithClubDirectory(clubs ClubDirectory) Option {
	return func(s *Service) {
		s.clubs = clubs
	}
}

// New constructs a Service.
func New(store Store, opts ...Option) *Service {
	s := &Service{
		store:      store,
		thresholds: eligibility.DefaultThresholds,
		tokenTTL:   time.Hour,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.validator == nil {
		s.validator = registration.New(registration.WithThresholds(s.thresholds))
	}
	return s
}

// Register validates the sign-up form and creates an athlete member.
// Field failures are returned as registration.FieldErrors.
func (s *Service) Register(ctx context.Context, form registration.RegistrationForm) (*models.Member, error) {
	ctx, span := tracer.Start(ctx, "member.Register")
	defer span.End()

	res, fieldErrs := s.validator.ValidateRegistration(ctx, form)
	if fieldErrs != nil {
		s.metrics.ObserveRejectedFields("registration", fieldErrs)
		return nil, fieldErrs
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(form.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to hash password")
	}

	now := requestcontext.Now(ctx)
	m := &models.Member{
		ID:              id.UserID(uuid.New()),
		DisplayName:     strings.TrimSpace(form.Name),
		Email:           models.NormalizeEmail(form.Email),
		PasswordHash:    hash,
		BirthDate:       res.BirthDate,
		IdentifierKind:  res.IdentifierKind,
		IdentifierValue: res.IdentifierValue,
		Phone:           strings.TrimSpace(form.Phone),
		EmergencyPhone:  strings.TrimSpace(form.EmergencyPhone),
		Roles:           []id.Role{id.RoleAthlete},
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.store.Create(ctx, m); err != nil {
		if errors.Is(err, sentinel.ErrAlreadyUsed) {
			return nil, dErrors.New(dErrors.CodeConflict, "email or identifier already registered")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create member")
	}
	span.SetAttributes(attribute.String("member.id", m.ID.String()))

	s.emit(ctx, audit.NewEvent(ctx, audit.EventMemberRegistered, m.ID))
	s.metrics.IncrementRegistered()
	return m, nil
}

// Login checks the password and issues an access token carrying the
// member's roles and birth date.
func (s *Service) Login(ctx context.Context, email, password string) (*models.LoginResult, error) {
	ctx, span := tracer.Start(ctx, "member.Login")
	defer span.End()

	if s.tokens == nil {
		return nil, dErrors.New(dErrors.CodeInternal, "token issuer not configured")
	}
	m, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid credentials")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load member")
	}
	if bcrypt.CompareHashAndPassword(m.PasswordHash, []byte(password)) != nil {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid credentials")
	}

	token, err := s.tokens.GenerateAccessToken(m.ID, m.Roles, m.BirthDate, s.tokenTTL)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to issue token")
	}
	return &models.LoginResult{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int(s.tokenTTL.Seconds()),
		Profile:     models.ToProfile(m, requestcontext.Now(ctx)),
	}, nil
}

// GetProfile returns the member with identifier and birth date formatted for display.
func (s *Service) GetProfile(ctx context.Context, userID id.UserID) (*models.Profile, error) {
	m, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	return models.ToProfile(m, requestcontext.Now(ctx)), nil
}

// UpdateProfile re-validates the edited fields and stores the normalized identifier.
func (s *Service) UpdateProfile(ctx context.Context, userID id.UserID, form registration.ProfileForm) (*models.Profile, error) {
	ctx, span := tracer.Start(ctx, "member.UpdateProfile")
	defer span.End()

	updated, err := s.applyProfile(ctx, userID, form)
	if err != nil {
		return nil, err
	}
	s.emit(ctx, audit.NewEvent(ctx, audit.EventProfileUpdated, userID))
	return models.ToProfile(updated, requestcontext.Now(ctx)), nil
}

// UpdateMember is the administrator's edit of another member's profile. It
// runs the same validation and normalization as UpdateProfile; roles,
// password and club affiliation are left as they are.
func (s *Service) UpdateMember(ctx context.Context, memberID id.UserID, form registration.ProfileForm) (*models.Profile, error) {
	ctx, span := tracer.Start(ctx, "member.UpdateMember")
	defer span.End()
	span.SetAttributes(attribute.String("member.id", memberID.String()))

	updated, err := s.applyProfile(ctx, memberID, form)
	if err != nil {
		return nil, err
	}
	ev := audit.NewEvent(ctx, audit.EventMemberEdited, memberID)
	ev.ActorID = requestcontext.UserID(ctx).String()
	s.emit(ctx, ev)
	return models.ToProfile(updated, requestcontext.Now(ctx)), nil
}

func (s *Service) applyProfile(ctx context.Context, userID id.UserID, form registration.ProfileForm) (*models.Member, error) {
	res, fieldErrs := s.validator.ValidateProfile(ctx, form)
	if fieldErrs != nil {
		s.metrics.ObserveRejectedFields("profile", fieldErrs)
		return nil, fieldErrs
	}

	now := requestcontext.Now(ctx)
	updated, err := s.store.Execute(ctx, userID,
		func(*models.Member) error { return nil },
		func(m *models.Member) {
			m.FirstName = strings.TrimSpace(form.FirstName)
			m.PaternalSurname = strings.TrimSpace(form.PaternalSurname)
			m.MaternalSurname = strings.TrimSpace(form.MaternalSurname)
			m.DisplayName = m.FirstName + " " + m.PaternalSurname
			m.Email = models.NormalizeEmail(form.Email)
			m.BirthDate = res.BirthDate
			m.Sex = form.Sex
			m.IdentifierKind = res.IdentifierKind
			m.IdentifierValue = res.IdentifierValue
			m.Phone = strings.TrimSpace(form.Phone)
			m.EmergencyPhone = strings.TrimSpace(form.EmergencyPhone)
			m.UpdatedAt = now
		})
	if err != nil {
		switch {
		case errors.Is(err, sentinel.ErrNotFound):
			return nil, dErrors.New(dErrors.CodeNotFound, "member not found")
		case errors.Is(err, sentinel.ErrAlreadyUsed):
			return nil, dErrors.New(dErrors.CodeConflict, "email or identifier already registered")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update member")
	}
	return updated, nil
}

// SelfEnroll affiliates the member with clubID. The age check uses the
// stored birth date of the locked row, so a profile edit takes effect before
// the token is refreshed; the session birth date is only used when none is
// stored. A member belongs to at most one club; repeating the enrollment is
// a no-op.
func (s *Service) SelfEnroll(ctx context.Context, userID id.UserID, clubID id.ClubID) (*models.Profile, error) {
	ctx, span := tracer.Start(ctx, "member.SelfEnroll")
	defer span.End()
	span.SetAttributes(attribute.String("club.id", clubID.String()))

	if s.clubs != nil {
		exists, active, err := s.clubs.ClubStatus(ctx, clubID)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load club")
		}
		if !exists {
			return nil, dErrors.New(dErrors.CodeNotFound, "club not found")
		}
		if !active {
			s.metrics.IncrementSelfEnrollment(outcomeConflict)
			return nil, dErrors.New(dErrors.CodeConflict, "club is not active")
		}
	}

	now := requestcontext.Now(ctx)
	sessionBirth := requestcontext.Session(ctx).BirthDate
	updated, err := s.store.Execute(ctx, userID,
		func(m *models.Member) error {
			birth := m.BirthDate
			if birth.IsZero() {
				birth = sessionBirth
			}
			if err := s.thresholds.CheckBirthDate(eligibility.RuleSelfEnrollment, birth, now); err != nil {
				s.metrics.IncrementSelfEnrollment(outcomeUnderage)
				return dErrors.Wrap(err, dErrors.CodeForbidden, err.Error())
			}
			if m.HasClub() && m.ClubID != clubID {
				s.metrics.IncrementSelfEnrollment(outcomeConflict)
				return dErrors.New(dErrors.CodeConflict, "member already belongs to another club")
			}
			return nil
		},
		func(m *models.Member) {
			if m.ClubID != clubID {
				m.ClubID = clubID
				m.UpdatedAt = now
			}
		})
	if err != nil {
		if _, ok := dErrors.As(err); ok {
			return nil, err
		}
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "member not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to enroll member")
	}

	s.metrics.IncrementSelfEnrollment(outcomeEnrolled)
	ev := audit.NewEvent(ctx, audit.EventClubSelfEnrolled, userID)
	ev.ClubID = clubID.String()
	s.emit(ctx, ev)
	return models.ToProfile(updated, now), nil
}

// List returns every member, or only those of clubID when it is set.
func (s *Service) List(ctx context.Context, clubID id.ClubID) ([]*models.Profile, error) {
	var (
		members []*models.Member
		err     error
	)
	if clubID.IsNil() {
		members, err = s.store.List(ctx)
	} else {
		members, err = s.store.ListByClub(ctx, clubID)
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list members")
	}
	now := requestcontext.Now(ctx)
	out := make([]*models.Profile, 0, len(members))
	for _, m := range members {
		out = append(out, models.ToProfile(m, now))
	}
	return out, nil
}

// Candidates returns the members affiliated with clubID as directive
// candidates, identifiers in display form.
func (s *Service) Candidates(ctx context.Context, clubID id.ClubID) ([]directive.Candidate, error) {
	members, err := s.store.ListByClub(ctx, clubID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list club members")
	}
	out := make([]directive.Candidate, 0, len(members))
	for _, m := range members {
		out = append(out, directive.Candidate{
			ID:         m.ID,
			Identifier: identifier.Display(m.IdentifierKind, m.IdentifierValue),
			BirthDate:  m.BirthDate,
		})
	}
	return out, nil
}

// ReleaseClub detaches every member from clubID. The club module calls it
// when a club is deleted.
func (s *Service) ReleaseClub(ctx context.Context, clubID id.ClubID) (int, error) {
	n, err := s.store.ClearClub(ctx, clubID, requestcontext.Now(ctx))
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to release club members")
	}
	return n, nil
}

func (s *Service) load(ctx context.Context, userID id.UserID) (*models.Member, error) {
	m, err := s.store.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "member not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load member")
	}
	return m, nil
}

// emit publishes best-effort: a failed audit write never fails the request.
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
