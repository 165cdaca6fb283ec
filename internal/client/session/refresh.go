package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/dmitrijs2005/gophloyalty/internal/client/client"
	"github.com/dmitrijs2005/gophloyalty/internal/client/models"
	"github.com/dmitrijs2005/gophloyalty/internal/common"
)

// rejected reports whether the identity service refused the refresh token,
// as opposed to being unreachable.
func rejected(err error) bool {
	var apiErr *client.APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	switch apiErr.Status {
	case http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden:
		return true
	}
	return false
}

// AccessToken returns the bearer token for backend requests, refreshing it
// first when it is within the refresh margin of expiry. Without a session
// it returns "" so requests fall back to anonymous access.
func (m *Manager) AccessToken(ctx context.Context) (string, error) {
	s, ok := m.Session()
	if !ok {
		return "", nil
	}
	if !s.ExpiresWithin(m.now(), m.margin) {
		return s.AccessToken, nil
	}
	token, err := m.refresh(ctx, s.AccessToken)
	if err != nil && !errors.Is(err, common.ErrNotAuthenticated) && !s.Expired(m.now()) {
		// still valid for a little while
		return s.AccessToken, nil
	}
	return token, err
}

// ForceRefresh renews the access token after the backend rejected it.
func (m *Manager) ForceRefresh(ctx context.Context) (string, error) {
	s, ok := m.Session()
	if !ok {
		return "", common.ErrNotAuthenticated
	}
	return m.refresh(ctx, s.AccessToken)
}

// refresh exchanges the refresh token. Concurrent callers holding the same
// stale token share one exchange.
func (m *Manager) refresh(ctx context.Context, stale string) (string, error) {
	m.refreshMu.Lock()
	defer m.refreshMu.Unlock()

	cur, ok := m.Session()
	if !ok {
		return "", common.ErrNotAuthenticated
	}
	if cur.AccessToken != stale && !cur.ExpiresWithin(m.now(), m.margin) {
		return cur.AccessToken, nil
	}

	ns, err := m.identity.Refresh(ctx, cur.RefreshToken)
	if err != nil {
		if rejected(err) {
			m.log.Info(ctx, "refresh token rejected", "user_id", cur.User.ID)
			m.expireIf(ctx, cur.RefreshToken)
			return "", fmt.Errorf("%w: session expired", common.ErrNotAuthenticated)
		}
		return "", fmt.Errorf("refresh session: %w", err)
	}
	ns = m.completeRefreshed(ns, cur)

	m.mu.Lock()
	if m.session == nil || m.session.RefreshToken != cur.RefreshToken {
		// signed out or replaced while the exchange was in flight
		m.mu.Unlock()
		return "", fmt.Errorf("%w: session changed during refresh", common.ErrNotAuthenticated)
	}
	m.session = ns
	m.persistLocked(ctx)
	m.publishLocked(EventTokenRefreshed)
	m.mu.Unlock()

	m.log.Debug(ctx, "session refreshed", "user_id", ns.User.ID, "expires_at", ns.ExpiresAt)
	m.kick()
	return ns.AccessToken, nil
}

// completeRefreshed fills fields the refresh response may omit from prev.
func (m *Manager) completeRefreshed(ns, prev *models.Session) *models.Session {
	fillFromClaims(ns)
	if ns.User.ID == "" {
		ns.User = prev.User
	}
	if ns.RefreshToken == "" {
		ns.RefreshToken = prev.RefreshToken
	}
	return ns
}

// expireIf terminates the session only if it still carries refreshToken.
func (m *Manager) expireIf(ctx context.Context, refreshToken string) {
	m.mu.Lock()
	same := m.session != nil && m.session.RefreshToken == refreshToken
	m.mu.Unlock()
	if same {
		m.terminate(ctx, "refresh_rejected")
	}
}

// refresher renews the token RefreshMargin before expiry. It is woken on
// every transition to recompute its deadline.
func (m *Manager) refresher(ctx context.Context) {
	timer := time.NewTimer(time.Hour)
	timer.Stop()
	defer timer.Stop()

	for {
		var due <-chan time.Time
		if s, ok := m.Session(); ok && !s.ExpiresAt.IsZero() {
			wait := s.ExpiresAt.Add(-m.margin).Sub(m.now())
			if wait < 0 {
				wait = 0
			}
			timer.Reset(wait)
			due = timer.C
		}

		select {
		case <-ctx.Done():
			return
		case <-m.wake:
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			continue
		case <-due:
		}

		s, ok := m.Session()
		if !ok {
			continue
		}
		if _, err := m.refresh(ctx, s.AccessToken); err != nil && !errors.Is(err, common.ErrNotAuthenticated) {
			if ctx.Err() != nil {
				return
			}
			m.log.Warn(ctx, "background refresh failed, retrying", "error", err, "retry_in", m.retry)
			select {
			case <-ctx.Done():
				return
			case <-time.After(m.retry):
			}
		}
	}
}
