package store

import (
	"context"
	"sort"
	"sync"

	"sportclub/internal/club/models"
	id "sportclub/pkg/domain"
	"sportclub/pkg/platform/sentinel"
)

// InMemory is a mutex-guarded club store for tests and single-node runs.
type InMemory struct {
	mu    sync.RWMutex
	clubs map[id.ClubID]*models.Club
}

func NewInMemory() *InMemory {
	return &InMemory{clubs: make(map[id.ClubID]*models.Club)}
}

// Create stores c. A non-empty RUT already held by another club is
// sentinel.ErrAlreadyUsed.
func (s *InMemory) Create(_ context.Context, c *models.Club) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.clubs[c.ID]; ok {
		return sentinel.ErrAlreadyUsed
	}
	if err := s.checkRUTLocked(c); err != nil {
		return err
	}
	s.clubs[c.ID] = c.Clone()
	return nil
}

func (s *InMemory) checkRUTLocked(c *models.Club) error {
	if c.RUT == "" {
		return nil
	}
	for _, other := range s.clubs {
		if other.ID != c.ID && other.RUT == c.RUT {
			return sentinel.ErrAlreadyUsed
		}
	}
	return nil
}

func (s *InMemory) FindByID(_ context.Context, clubID id.ClubID) (*models.Club, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.clubs[clubID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return c.Clone(), nil
}

// Delete removes the club.
func (s *InMemory) Delete(_ context.Context, clubID id.ClubID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.clubs[clubID]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.clubs, clubID)
	return nil
}

// List returns clubs ordered by fantasy name.
func (s *InMemory) List(_ context.Context) ([]*models.Club, error) {
	s.mu.RLock()
	out := make([]*models.Club, 0, len(s.clubs))
	for _, c := range s.clubs {
		out = append(out, c.Clone())
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].FantasyName == out[j].FantasyName {
			return out[i].ID.String() < out[j].ID.String()
		}
		return out[i].FantasyName < out[j].FantasyName
	})
	return out, nil
}

// Execute loads the club, runs validate, applies mutate and saves, all under
// the store lock.
func (s *InMemory) Execute(_ context.Context, clubID id.ClubID, validate func(*models.Club) error, mutate func(*models.Club)) (*models.Club, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.clubs[clubID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	c := current.Clone()
	if err := validate(c); err != nil {
		return nil, err
	}
	mutate(c)
	if err := s.checkRUTLocked(c); err != nil {
		return nil, err
	}
	s.clubs[clubID] = c
	return c.Clone(), nil
}
