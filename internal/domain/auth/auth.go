// Package auth gates the admin screen behind a single shared password.
//
// The password is compared on the server, but it is still one shared secret
// with no per-user identity; treat it as a convenience lock, not access
// control.
package auth

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultPassword is the shared admin password when none is configured.
const DefaultPassword = "admin123"

// ErrUnauthorized is returned for a wrong password or an unknown session.
var ErrUnauthorized = errors.New("unauthorized")

// SessionStore persists admin session tokens.
type SessionStore interface {
	Create(ctx context.Context, token string, ttl time.Duration) error
	Valid(ctx context.Context, token string) (bool, error)
	Delete(ctx context.Context, token string) error
}

// Gate checks the shared password and issues session tokens.
type Gate struct {
	sessions SessionStore
	ttl      time.Duration
	key      []byte
	want     []byte
}

// NewGate returns a Gate accepting password. Sessions expire after ttl.
func NewGate(password string, sessions SessionStore, ttl time.Duration) *Gate {
	key := []byte(uuid.NewString())
	return &Gate{
		sessions: sessions,
		ttl:      ttl,
		key:      key,
		want:     digest(key, password),
	}
}

// Login exchanges the password for a session token.
func (g *Gate) Login(ctx context.Context, password string) (string, error) {
	if subtle.ConstantTimeCompare(digest(g.key, password), g.want) != 1 {
		zctx.From(ctx).Warn("Admin login rejected")
		return "", ErrUnauthorized
	}
	token := uuid.NewString()
	if err := g.sessions.Create(ctx, token, g.ttl); err != nil {
		return "", errors.Wrap(err, "create session")
	}
	return token, nil
}

// Check reports ErrUnauthorized unless token belongs to a live session.
func (g *Gate) Check(ctx context.Context, token string) error {
	if token == "" {
		return ErrUnauthorized
	}
	ok, err := g.sessions.Valid(ctx, token)
	if err != nil {
		return errors.Wrap(err, "check session")
	}
	if !ok {
		return ErrUnauthorized
	}
	return nil
}

// Logout ends a session.
func (g *Gate) Logout(ctx context.Context, token string) error {
	if err := g.sessions.Delete(ctx, token); err != nil {
		return errors.Wrap(err, "delete session")
	}
	return nil
}

// LogDefaultPassword warns when the built-in password is in use.
func LogDefaultPassword(lg *zap.Logger, password string) {
	if password == DefaultPassword {
		lg.Warn("Admin password is the built-in default; set KART_ADMIN_PASSWORD")
	}
}

func digest(key []byte, password string) []byte {
	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(password))
	return mac.Sum(nil)
}
