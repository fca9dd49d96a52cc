package drafts

import (
	"context"
	"sync"
	"time"

	"sportclub/internal/club/models"
	id "sportclub/pkg/domain"
	"sportclub/pkg/platform/sentinel"
)

type entry struct {
	data      []byte
	expiresAt time.Time
}

// MemoryStore is the in-process fallback when Redis is not configured. Drafts
// are kept encoded so a loaded draft never aliases a saved one.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]entry
	ttl     time.Duration
	now     func() time.Time
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryStore{entries: make(map[string]entry), ttl: ttl, now: time.Now}
}

func (s *MemoryStore) Save(_ context.Context, d *models.Draft) error {
	data, err := encode(d)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[Key(d.ClubID, d.AdminID)] = entry{data: data, expiresAt: s.now().Add(s.ttl)}
	return nil
}

func (s *MemoryStore) Load(_ context.Context, clubID id.ClubID, adminID id.UserID) (*models.Draft, error) {
	key := Key(clubID, adminID)
	s.mu.Lock()
	e, ok := s.entries[key]
	if ok && !s.now().Before(e.expiresAt) {
		delete(s.entries, key)
		ok = false
	}
	s.mu.Unlock()
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return decode(e.data)
}

func (s *MemoryStore) Delete(_ context.Context, clubID id.ClubID, adminID id.UserID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, Key(clubID, adminID))
	return nil
}
