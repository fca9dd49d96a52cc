package service

import (
	"context"
	"errors"
	"slices"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"sportclub/internal/identifier"
	"sportclub/internal/member/models"
	id "sportclub/pkg/domain"
	"sportclub/pkg/platform/sentinel"
	"sportclub/pkg/requestcontext"
)

// AdminSeed describes the administrator created at startup.
type AdminSeed struct {
	Email     string
	Password  string
	Name      string
	BirthDate time.Time
}

// EnsureAdmin creates the seed administrator, or grants the admin role to an
// existing member with that email. It is idempotent and leaves an existing
// password untouched.
func (s *Service) EnsureAdmin(ctx context.Context, seed AdminSeed) (*models.Member, error) {
	existing, err := s.store.FindByEmail(ctx, seed.Email)
	switch {
	case err == nil:
		if slices.Contains(existing.Roles, id.RoleAdmin) {
			return existing, nil
		}
		return s.store.Execute(ctx, existing.ID,
			func(*models.Member) error { return nil },
			func(m *models.Member) {
				if !slices.Contains(m.Roles, id.RoleAdmin) {
					m.Roles = append(m.Roles, id.RoleAdmin)
				}
			})
	case !errors.Is(err, sentinel.ErrNotFound):
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(seed.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	now := requestcontext.Now(ctx)
	m := &models.Member{
		ID:              id.UserID(uuid.New()),
		DisplayName:     seed.Name,
		Email:           models.NormalizeEmail(seed.Email),
		PasswordHash:    hash,
		BirthDate:       seed.BirthDate,
		IdentifierKind:  identifier.KindForeignID,
		IdentifierValue: "bootstrap:" + models.NormalizeEmail(seed.Email),
		Roles:           []id.Role{id.RoleAthlete, id.RoleAdmin},
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.store.Create(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}
