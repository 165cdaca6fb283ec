package session

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/dmitrijs2005/gophloyalty/internal/client/models"
	"github.com/dmitrijs2005/gophloyalty/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/gophloyalty/internal/cryptox"
)

// loadPersisted reads the sealed session. Unreadable records are dropped.
func (m *Manager) loadPersisted(ctx context.Context) *models.Session {
	if m.store == nil {
		return nil
	}
	blob, err := m.store.Get(ctx, metadata.KeySession)
	if err != nil {
		m.log.Warn(ctx, "read persisted session", "error", err)
		return nil
	}
	if blob == nil {
		return nil
	}

	var s models.Session
	if err := cryptox.Open(blob, m.secret, &s); err != nil {
		m.log.Warn(ctx, "discarding unreadable persisted session", "error", err)
		_ = m.store.Delete(ctx, metadata.KeySession)
		return nil
	}
	if s.AccessToken == "" {
		return nil
	}
	fillFromClaims(&s)
	return &s
}

// persistLocked writes the current session, or deletes it when absent.
// Failures are logged; the in-memory session stays authoritative.
func (m *Manager) persistLocked(ctx context.Context) {
	if m.store == nil {
		return
	}
	if m.session == nil {
		if err := m.store.Delete(ctx, metadata.KeySession); err != nil {
			m.log.Warn(ctx, "delete persisted session", "error", err)
		}
		return
	}

	blob, err := cryptox.Seal(m.session, m.secret)
	if err != nil {
		m.log.Warn(ctx, "seal session", "error", err)
		return
	}
	if err := m.store.Set(ctx, metadata.KeySession, blob); err != nil {
		m.log.Warn(ctx, "persist session", "error", err)
	}
}

// fillFromClaims completes the user id and expiry from the access token
// when the identity response left them out. The signature is not verified;
// the backend does that on every request.
func fillFromClaims(s *models.Session) {
	if s == nil || (s.User.ID != "" && !s.ExpiresAt.IsZero()) {
		return
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(s.AccessToken, claims); err != nil {
		return
	}
	if s.User.ID == "" {
		if sub, err := claims.GetSubject(); err == nil {
			s.User.ID = sub
		}
	}
	if s.User.Email == "" {
		if email, ok := claims["email"].(string); ok {
			s.User.Email = email
		}
	}
	if s.ExpiresAt.IsZero() {
		if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
			s.ExpiresAt = exp.Time.Truncate(time.Second)
		}
	}
}
