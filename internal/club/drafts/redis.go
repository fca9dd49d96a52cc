package drafts

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"sportclub/internal/club/models"
	id "sportclub/pkg/domain"
	"sportclub/pkg/platform/sentinel"
)

// RedisStore keeps drafts as JSON strings with a TTL.
type RedisStore struct {
	client redis.UniversalClient
	ttl    time.Duration
}

func NewRedisStore(client redis.UniversalClient, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisStore{client: client, ttl: ttl}
}

// Save overwrites the draft and restarts its TTL.
func (s *RedisStore) Save(ctx context.Context, d *models.Draft) error {
	data, err := encode(d)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, Key(d.ClubID, d.AdminID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("save draft: %w", err)
	}
	return nil
}

func (s *RedisStore) Load(ctx context.Context, clubID id.ClubID, adminID id.UserID) (*models.Draft, error) {
	data, err := s.client.Get(ctx, Key(clubID, adminID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("load draft: %w", err)
	}
	return decode(data)
}

func (s *RedisStore) Delete(ctx context.Context, clubID id.ClubID, adminID id.UserID) error {
	if err := s.client.Del(ctx, Key(clubID, adminID)).Err(); err != nil {
		return fmt.Errorf("delete draft: %w", err)
	}
	return nil
}
