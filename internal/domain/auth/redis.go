package auth

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/redis/go-redis/v9"
)

const sessionKeyPrefix = "kart:admin-session:"

var _ SessionStore = (*RedisSessions)(nil)

// RedisSessions stores session tokens as expiring Redis keys so several
// service instances share logins.
type RedisSessions struct {
	client *redis.Client
}

// NewRedisSessions returns a session store over client.
func NewRedisSessions(client *redis.Client) *RedisSessions {
	return &RedisSessions{client: client}
}

func (s *RedisSessions) Create(ctx context.Context, token string, ttl time.Duration) error {
	if err := s.client.Set(ctx, sessionKeyPrefix+token, "1", ttl).Err(); err != nil {
		return errors.Wrap(err, "redis set")
	}
	return nil
}

func (s *RedisSessions) Valid(ctx context.Context, token string) (bool, error) {
	n, err := s.client.Exists(ctx, sessionKeyPrefix+token).Result()
	if err != nil {
		return false, errors.Wrap(err, "redis exists")
	}
	return n == 1, nil
}

func (s *RedisSessions) Delete(ctx context.Context, token string) error {
	if err := s.client.Del(ctx, sessionKeyPrefix+token).Err(); err != nil {
		return errors.Wrap(err, "redis del")
	}
	return nil
}
