package auth

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-faster/errors"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/food-kart/internal/pkg/clock"
)

func setupTestRedis(t *testing.T) (*RedisSessions, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisSessions(client), mr
}

func TestGate_Login(t *testing.T) {
	ctx := context.Background()
	g := NewGate("s3cret", NewMemorySessions(clock.NewFake(time.Now())), time.Hour)

	_, err := g.Login(ctx, "wrong")
	assert.True(t, errors.Is(err, ErrUnauthorized))

	token, err := g.Login(ctx, "s3cret")
	require.NoError(t, err)
	require.NotEmpty(t, token)
	require.NoError(t, g.Check(ctx, token))

	require.NoError(t, g.Logout(ctx, token))
	assert.True(t, errors.Is(g.Check(ctx, token), ErrUnauthorized))
	assert.True(t, errors.Is(g.Check(ctx, ""), ErrUnauthorized))
}

func TestMemorySessions_Expire(t *testing.T) {
	ctx := context.Background()
	clk := clock.NewFake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	s := NewMemorySessions(clk)

	require.NoError(t, s.Create(ctx, "t1", time.Minute))
	ok, err := s.Valid(ctx, "t1")
	require.NoError(t, err)
	assert.True(t, ok)

	clk.Advance(time.Minute)
	ok, err = s.Valid(ctx, "t1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisSessions(t *testing.T) {
	ctx := context.Background()
	s, mr := setupTestRedis(t)

	require.NoError(t, s.Create(ctx, "abc", time.Minute))
	assert.True(t, mr.Exists(sessionKeyPrefix+"abc"))

	ok, err := s.Valid(ctx, "abc")
	require.NoError(t, err)
	assert.True(t, ok)

	mr.FastForward(2 * time.Minute)
	ok, err = s.Valid(ctx, "abc")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Create(ctx, "def", time.Minute))
	require.NoError(t, s.Delete(ctx, "def"))
	ok, err = s.Valid(ctx, "def")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisSessions_Unavailable(t *testing.T) {
	s, mr := setupTestRedis(t)
	mr.Close()

	_, err := s.Valid(context.Background(), "abc")
	require.Error(t, err)
}
