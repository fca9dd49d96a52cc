// Package store persists members in memory or PostgreSQL. Both return
// sentinel errors (ErrNotFound, ErrAlreadyUsed) for the service to translate.
package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"sportclub/internal/member/models"
	id "sportclub/pkg/domain"
	"sportclub/pkg/platform/sentinel"
)

// InMemory is a mutex-guarded member store.
type InMemory struct {
	mu      sync.RWMutex
	members map[id.UserID]*models.Member
}

func NewInMemory() *InMemory {
	return &InMemory{members: make(map[id.UserID]*models.Member)}
}

// Create inserts m, rejecting a taken email or identifier.
func (s *InMemory) Create(_ context.Context, m *models.Member) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.members[m.ID]; ok {
		return fmt.Errorf("member %s: %w", m.ID, sentinel.ErrAlreadyUsed)
	}
	if err := s.checkUniqueLocked(m); err != nil {
		return err
	}
	s.members[m.ID] = m.Clone()
	return nil
}

func (s *InMemory) checkUniqueLocked(m *models.Member) error {
	email := models.NormalizeEmail(m.Email)
	for _, other := range s.members {
		if other.ID == m.ID {
			continue
		}
		if models.NormalizeEmail(other.Email) == email {
			return fmt.Errorf("email: %w", sentinel.ErrAlreadyUsed)
		}
		if other.IdentifierKind == m.IdentifierKind && other.IdentifierValue == m.IdentifierValue {
			return fmt.Errorf("identifier: %w", sentinel.ErrAlreadyUsed)
		}
	}
	return nil
}

func (s *InMemory) FindByID(_ context.Context, userID id.UserID) (*models.Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.members[userID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return m.Clone(), nil
}

func (s *InMemory) FindByEmail(_ context.Context, email string) (*models.Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	want := models.NormalizeEmail(email)
	for _, m := range s.members {
		if models.NormalizeEmail(m.Email) == want {
			return m.Clone(), nil
		}
	}
	return nil, sentinel.ErrNotFound
}

// List returns every member ordered by creation time.
func (s *InMemory) List(_ context.Context) ([]*models.Member, error) {
	return s.filter(func(*models.Member) bool { return true }), nil
}

// ListByClub returns the members affiliated with clubID ordered by creation time.
func (s *InMemory) ListByClub(_ context.Context, clubID id.ClubID) ([]*models.Member, error) {
	return s.filter(func(m *models.Member) bool { return m.ClubID == clubID }), nil
}

// ClearClub detaches every member of clubID and reports how many changed.
func (s *InMemory) ClearClub(_ context.Context, clubID id.ClubID, at time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for memberID, m := range s.members {
		if m.ClubID != clubID {
			continue
		}
		c := m.Clone()
		c.ClubID = id.ClubID{}
		c.UpdatedAt = at
		s.members[memberID] = c
		n++
	}
	return n, nil
}

func (s *InMemory) filter(keep func(*models.Member) bool) []*models.Member {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Member, 0, len(s.members))
	for _, m := range s.members {
		if keep(m) {
			out = append(out, m.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID.String() < out[j].ID.String()
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// Execute loads the member, runs validate, applies mutate and saves, all
// under the store lock. Uniqueness is re-checked after mutate.
func (s *InMemory) Execute(_ context.Context, userID id.UserID, validate func(*models.Member) error, mutate func(*models.Member)) (*models.Member, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.members[userID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	m := current.Clone()
	if err := validate(m); err != nil {
		return nil, err
	}
	mutate(m)
	if err := s.checkUniqueLocked(m); err != nil {
		return nil, err
	}
	s.members[userID] = m
	return m.Clone(), nil
}
