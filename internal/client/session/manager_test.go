package session

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/gophloyalty/internal/client/client"
	"github.com/dmitrijs2005/gophloyalty/internal/client/models"
	"github.com/dmitrijs2005/gophloyalty/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/gophloyalty/internal/common"
	"github.com/dmitrijs2005/gophloyalty/internal/cryptox"
)

type fakeIdentity struct {
	signIn    func(email, password string) (*models.Session, error)
	signUp    func(req models.SignUpRequest) (*models.Session, error)
	signOut   func(token string) error
	verifyOTP func(email, code string) (*models.Session, error)
	resend    func(email string) error
	refresh   func(token string) (*models.Session, error)

	refreshCalls atomic.Int32
}

func (f *fakeIdentity) SignIn(_ context.Context, email, password string) (*models.Session, error) {
	return f.signIn(email, password)
}

func (f *fakeIdentity) SignUp(_ context.Context, req models.SignUpRequest) (*models.Session, error) {
	return f.signUp(req)
}

func (f *fakeIdentity) SignOut(_ context.Context, token string) error {
	if f.signOut == nil {
		return nil
	}
	return f.signOut(token)
}

func (f *fakeIdentity) VerifyOTP(_ context.Context, email, code string) (*models.Session, error) {
	return f.verifyOTP(email, code)
}

func (f *fakeIdentity) ResendVerification(_ context.Context, email string) error {
	if f.resend == nil {
		return nil
	}
	return f.resend(email)
}

func (f *fakeIdentity) Refresh(_ context.Context, token string) (*models.Session, error) {
	f.refreshCalls.Add(1)
	return f.refresh(token)
}

type memStore struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemStore() *memStore { return &memStore{data: map[string][]byte{}} }

func (s *memStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data[key], nil
}

func (s *memStore) Set(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
	return nil
}

func (s *memStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}

var _ metadata.Repository = (*memStore)(nil)

var (
	testSecret = []byte("device-secret")
	baseTime   = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
)

func session(user, token string, expires time.Time) *models.Session {
	return &models.Session{
		AccessToken:  token,
		RefreshToken: "refresh-" + token,
		ExpiresAt:    expires,
		User:         models.User{ID: user, Email: user + "@example.com"},
	}
}

func newManager(t *testing.T, id *fakeIdentity, store metadata.Repository) *Manager {
	t.Helper()
	m := New(Options{
		Identity:      id,
		Store:         store,
		Secret:        testSecret,
		RefreshMargin: time.Minute,
		RetryDelay:    10 * time.Millisecond,
		Now:           func() time.Time { return baseTime },
	})
	t.Cleanup(m.Close)
	return m
}

func persist(t *testing.T, store *memStore, s *models.Session) {
	t.Helper()
	blob, err := cryptox.Seal(s, testSecret)
	require.NoError(t, err)
	require.NoError(t, store.Set(context.Background(), metadata.KeySession, blob))
}

func next(t *testing.T, ch <-chan Event) Event {
	t.Helper()
	select {
	case e, ok := <-ch:
		require.True(t, ok, "channel closed")
		return e
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return Event{}
	}
}

func assertClosed(t *testing.T, ch <-chan Event) {
	t.Helper()
	select {
	case _, ok := <-ch:
		assert.False(t, ok, "expected closed channel")
	case <-time.After(2 * time.Second):
		t.Fatal("channel not closed")
	}
}

func TestInit_NoPersistedSession(t *testing.T) {
	m := newManager(t, &fakeIdentity{}, newMemStore())
	assert.Equal(t, StateAuthenticating, m.State())

	events, stop := m.Observe(context.Background())
	defer stop()

	require.NoError(t, m.Init(context.Background()))
	e := next(t, events)
	assert.Equal(t, EventInitialSession, e.Kind)
	assert.Nil(t, e.Session)
	assert.False(t, e.JustEstablished())
	assert.Equal(t, StateUnauthenticated, m.State())

	assert.ErrorIs(t, m.Init(context.Background()), ErrAlreadyStarted)
}

func TestInit_RestoresValidSession(t *testing.T) {
	store := newMemStore()
	persist(t, store, session("u-1", "tok", baseTime.Add(time.Hour)))
	id := &fakeIdentity{}
	m := newManager(t, id, store)

	require.NoError(t, m.Init(context.Background()))
	assert.Equal(t, StateAuthenticated, m.State())
	assert.Equal(t, "u-1", m.UserID())

	events, stop := m.Observe(context.Background())
	defer stop()
	e := next(t, events)
	assert.Equal(t, EventInitialSession, e.Kind)
	assert.Equal(t, "u-1", e.UserID())

	token, err := m.AccessToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok", token)
	assert.Zero(t, id.refreshCalls.Load())
}

func TestInit_RefreshesExpiringSession(t *testing.T) {
	store := newMemStore()
	persist(t, store, session("u-1", "old", baseTime.Add(30*time.Second)))
	id := &fakeIdentity{refresh: func(token string) (*models.Session, error) {
		assert.Equal(t, "refresh-old", token)
		return &models.Session{AccessToken: "new", RefreshToken: "refresh-new", ExpiresAt: baseTime.Add(time.Hour)}, nil
	}}
	m := newManager(t, id, store)

	require.NoError(t, m.Init(context.Background()))
	s, ok := m.Session()
	require.True(t, ok)
	assert.Equal(t, "new", s.AccessToken)
	assert.Equal(t, "u-1", s.User.ID, "user carried over from the previous session")

	var stored models.Session
	blob, _ := store.Get(context.Background(), metadata.KeySession)
	require.NoError(t, cryptox.Open(blob, testSecret, &stored))
	assert.Equal(t, "new", stored.AccessToken)
}

func TestInit_DropsRejectedSession(t *testing.T) {
	store := newMemStore()
	persist(t, store, session("u-1", "old", baseTime.Add(-time.Minute)))
	id := &fakeIdentity{refresh: func(string) (*models.Session, error) {
		return nil, &client.APIError{Status: http.StatusBadRequest, Message: "Invalid Refresh Token"}
	}}
	m := newManager(t, id, store)

	require.NoError(t, m.Init(context.Background()))
	assert.Equal(t, StateUnauthenticated, m.State())
	blob, _ := store.Get(context.Background(), metadata.KeySession)
	assert.Nil(t, blob)
}

func TestInit_UnreadableRecordIsDiscarded(t *testing.T) {
	store := newMemStore()
	require.NoError(t, store.Set(context.Background(), metadata.KeySession, []byte("garbage")))
	m := newManager(t, &fakeIdentity{}, store)

	require.NoError(t, m.Init(context.Background()))
	assert.Equal(t, StateUnauthenticated, m.State())
}

func TestInit_StaleSnapshotDoesNotRegressSignIn(t *testing.T) {
	store := newMemStore()
	persist(t, store, session("old-user", "old", baseTime.Add(time.Hour)))
	id := &fakeIdentity{signIn: func(string, string) (*models.Session, error) {
		return session("u-2", "fresh", baseTime.Add(time.Hour)), nil
	}}
	m := newManager(t, id, store)

	events, stop := m.Observe(context.Background())
	defer stop()

	_, err := m.SignIn(context.Background(), "u-2@example.com", "secret1")
	require.NoError(t, err)
	require.NoError(t, m.Init(context.Background()))

	e := next(t, events)
	assert.Equal(t, EventSignedIn, e.Kind)
	assert.True(t, e.JustEstablished())

	assert.Equal(t, StateAuthenticated, m.State())
	assert.Equal(t, "u-2", m.UserID())

	select {
	case e := <-events:
		t.Fatalf("unexpected event %v", e.Kind)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestSignIn_ErrorCarriesBackendMessage(t *testing.T) {
	id := &fakeIdentity{signIn: func(string, string) (*models.Session, error) {
		return nil, &client.APIError{Status: http.StatusBadRequest, Message: "Invalid login credentials"}
	}}
	m := newManager(t, id, newMemStore())

	_, err := m.SignIn(context.Background(), "a@example.com", "wrong")
	require.ErrorIs(t, err, common.ErrAuth)
	assert.Contains(t, err.Error(), "Invalid login credentials")
	assert.Equal(t, StateAuthenticating, m.State())
}

func TestSignIn_Validation(t *testing.T) {
	m := newManager(t, &fakeIdentity{}, newMemStore())

	_, err := m.SignIn(context.Background(), "not-an-email", "x")
	assert.ErrorIs(t, err, common.ErrValidation)
	_, err = m.SignIn(context.Background(), "a@example.com", "")
	assert.ErrorIs(t, err, common.ErrValidation)
}

func TestSignIn_FillsFromTokenClaims(t *testing.T) {
	exp := baseTime.Add(2 * time.Hour)
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   "u-claims",
		"email": "claims@example.com",
		"exp":   exp.Unix(),
	}).SignedString([]byte("k"))
	require.NoError(t, err)

	id := &fakeIdentity{signIn: func(string, string) (*models.Session, error) {
		return &models.Session{AccessToken: token, RefreshToken: "r"}, nil
	}}
	m := newManager(t, id, newMemStore())

	s, err := m.SignIn(context.Background(), "claims@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "u-claims", s.User.ID)
	assert.Equal(t, "claims@example.com", s.User.Email)
	assert.True(t, s.ExpiresAt.Equal(exp.Truncate(time.Second)))
}

func TestSignUp(t *testing.T) {
	valid := models.SignUpRequest{Email: "t@example.com", Password: "secret1", Name: "Thandi", Surname: "Mokoena", Phone: "0821234567"}

	tests := []struct {
		name    string
		mutate  func(r *models.SignUpRequest)
		wantErr error
	}{
		{"missing name", func(r *models.SignUpRequest) { r.Name = "" }, common.ErrValidation},
		{"missing phone", func(r *models.SignUpRequest) { r.Phone = "" }, common.ErrValidation},
		{"short password", func(r *models.SignUpRequest) { r.Password = "12345" }, common.ErrValidation},
		{"bad email", func(r *models.SignUpRequest) { r.Email = "nope" }, common.ErrValidation},
		{"valid", func(*models.SignUpRequest) {}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := valid
			tt.mutate(&req)
			assert.ErrorIs(t, ValidateSignUp(req), tt.wantErr)
		})
	}
}

func TestSignUp_PendingVerificationThenOTP(t *testing.T) {
	id := &fakeIdentity{
		signUp: func(models.SignUpRequest) (*models.Session, error) { return nil, nil },
		verifyOTP: func(email, code string) (*models.Session, error) {
			assert.Equal(t, "t@example.com", email)
			assert.Equal(t, "123456", code)
			return session("u-1", "tok", baseTime.Add(time.Hour)), nil
		},
	}
	m := newManager(t, id, newMemStore())
	require.NoError(t, m.Init(context.Background()))

	events, stop := m.Observe(context.Background())
	defer stop()
	assert.Equal(t, EventInitialSession, next(t, events).Kind)

	s, err := m.SignUp(context.Background(), models.SignUpRequest{
		Email: "t@example.com", Password: "secret1", Name: "Thandi", Surname: "Mokoena", Phone: "0821234567",
	})
	require.NoError(t, err)
	assert.Nil(t, s)
	assert.Equal(t, StateUnauthenticated, m.State())

	_, err = m.VerifyOTP(context.Background(), "t@example.com", "12a456")
	require.ErrorIs(t, err, common.ErrValidation)

	_, err = m.VerifyOTP(context.Background(), "t@example.com", "123456")
	require.NoError(t, err)

	e := next(t, events)
	assert.Equal(t, EventSignedIn, e.Kind)
	assert.Equal(t, "u-1", e.UserID())
	assert.Equal(t, StateAuthenticated, m.State())
}

func TestResendVerification_Throttled(t *testing.T) {
	var sent atomic.Int32
	id := &fakeIdentity{resend: func(string) error { sent.Add(1); return nil }}
	m := newManager(t, id, newMemStore())

	require.NoError(t, m.ResendVerification(context.Background(), "t@example.com"))
	assert.ErrorIs(t, m.ResendVerification(context.Background(), "t@example.com"), ErrResendThrottled)
	assert.Equal(t, int32(1), sent.Load())
}

func TestSignOut(t *testing.T) {
	store := newMemStore()
	persist(t, store, session("u-1", "tok", baseTime.Add(time.Hour)))

	var fail atomic.Bool
	fail.Store(true)
	id := &fakeIdentity{signOut: func(token string) error {
		assert.Equal(t, "tok", token)
		if fail.Load() {
			return &client.APIError{Status: http.StatusBadGateway, Message: "bad gateway"}
		}
		return nil
	}}
	m := newManager(t, id, store)
	require.NoError(t, m.Init(context.Background()))

	events, stop := m.Observe(context.Background())
	defer stop()
	next(t, events)

	err := m.SignOut(context.Background())
	require.ErrorIs(t, err, common.ErrAuth)
	assert.Equal(t, StateAuthenticated, m.State(), "failed sign-out keeps the session")

	fail.Store(false)
	require.NoError(t, m.SignOut(context.Background()))
	e := next(t, events)
	assert.Equal(t, EventSignedOut, e.Kind)
	assert.Nil(t, e.Session)
	assert.Equal(t, StateUnauthenticated, m.State())

	blob, _ := store.Get(context.Background(), metadata.KeySession)
	assert.Nil(t, blob)

	require.NoError(t, m.SignOut(context.Background()), "signing out twice is harmless")
}

func TestSignOut_RevokedTokenCountsAsSuccess(t *testing.T) {
	store := newMemStore()
	persist(t, store, session("u-1", "tok", baseTime.Add(time.Hour)))
	id := &fakeIdentity{signOut: func(string) error {
		return &client.APIError{Status: http.StatusUnauthorized}
	}}
	m := newManager(t, id, store)
	require.NoError(t, m.Init(context.Background()))

	require.NoError(t, m.SignOut(context.Background()))
	assert.Equal(t, StateUnauthenticated, m.State())
}

func TestForceRefresh(t *testing.T) {
	store := newMemStore()
	persist(t, store, session("u-1", "tok", baseTime.Add(time.Hour)))
	id := &fakeIdentity{refresh: func(string) (*models.Session, error) {
		return session("u-1", "tok2", baseTime.Add(2*time.Hour)), nil
	}}
	m := newManager(t, id, store)
	require.NoError(t, m.Init(context.Background()))

	events, stop := m.Observe(context.Background())
	defer stop()
	next(t, events)

	token, err := m.ForceRefresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok2", token)
	e := next(t, events)
	assert.Equal(t, EventTokenRefreshed, e.Kind)
	assert.Equal(t, "tok2", e.Session.AccessToken)
}

func TestForceRefresh_RejectedExpiresSession(t *testing.T) {
	store := newMemStore()
	persist(t, store, session("u-1", "tok", baseTime.Add(time.Hour)))
	id := &fakeIdentity{refresh: func(string) (*models.Session, error) {
		return nil, &client.APIError{Status: http.StatusUnauthorized}
	}}
	m := newManager(t, id, store)
	require.NoError(t, m.Init(context.Background()))

	events, stop := m.Observe(context.Background())
	defer stop()
	next(t, events)

	_, err := m.ForceRefresh(context.Background())
	require.ErrorIs(t, err, common.ErrNotAuthenticated)
	assert.Equal(t, EventSignedOut, next(t, events).Kind)
}

func TestForceRefresh_UnavailableKeepsSession(t *testing.T) {
	store := newMemStore()
	persist(t, store, session("u-1", "tok", baseTime.Add(time.Hour)))
	id := &fakeIdentity{refresh: func(string) (*models.Session, error) {
		return nil, fmt.Errorf("%w: dial tcp", client.ErrUnavailable)
	}}
	m := newManager(t, id, store)
	require.NoError(t, m.Init(context.Background()))

	_, err := m.ForceRefresh(context.Background())
	require.ErrorIs(t, err, client.ErrUnavailable)
	assert.Equal(t, StateAuthenticated, m.State())
}

func TestAccessToken_Anonymous(t *testing.T) {
	m := newManager(t, &fakeIdentity{}, nil)
	require.NoError(t, m.Init(context.Background()))

	token, err := m.AccessToken(context.Background())
	require.NoError(t, err)
	assert.Empty(t, token)
}

func TestBackgroundRefresher_RenewsBeforeExpiry(t *testing.T) {
	var calls atomic.Int32
	id := &fakeIdentity{
		signIn: func(string, string) (*models.Session, error) {
			return session("u-1", "tok", baseTime.Add(30*time.Second)), nil
		},
		refresh: func(string) (*models.Session, error) {
			calls.Add(1)
			return session("u-1", "tok2", baseTime.Add(time.Hour)), nil
		},
	}
	m := newManager(t, id, newMemStore())
	require.NoError(t, m.Init(context.Background()))

	_, err := m.SignIn(context.Background(), "u-1@example.com", "secret1")
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		s, ok := m.Session()
		return ok && s.AccessToken == "tok2"
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, int32(1), calls.Load())
}

func TestObserve_ReleasedByUnsubscribeAndContext(t *testing.T) {
	m := newManager(t, &fakeIdentity{}, nil)

	events, stop := m.Observe(context.Background())
	stop()
	assertClosed(t, events)

	ctx, cancel := context.WithCancel(context.Background())
	events, stop = m.Observe(ctx)
	defer stop()
	cancel()
	assertClosed(t, events)
}

func TestClose_ClosesSubscriptions(t *testing.T) {
	m := New(Options{Identity: &fakeIdentity{}})
	require.NoError(t, m.Init(context.Background()))
	events, _ := m.Observe(context.Background())
	next(t, events)

	m.Close()
	assertClosed(t, events)

	late, _ := m.Observe(context.Background())
	assertClosed(t, late)
	assert.ErrorIs(t, m.Init(context.Background()), ErrClosed)
}

// blockingStore holds the startup read until release is closed.
type blockingStore struct {
	*memStore
	entered chan struct{}
	release chan struct{}
}

func (s *blockingStore) Get(ctx context.Context, key string) ([]byte, error) {
	close(s.entered)
	<-s.release
	return s.memStore.Get(ctx, key)
}

func TestInit_CloseDuringStartupLoad(t *testing.T) {
	store := &blockingStore{memStore: newMemStore(), entered: make(chan struct{}), release: make(chan struct{})}
	m := New(Options{Identity: &fakeIdentity{}, Store: store, Secret: testSecret})

	initErr := make(chan error, 1)
	go func() { initErr <- m.Init(context.Background()) }()

	<-store.entered
	m.Close()
	close(store.release)

	select {
	case err := <-initErr:
		assert.ErrorIs(t, err, ErrClosed)
	case <-time.After(2 * time.Second):
		t.Fatal("Init did not return")
	}
	_, ok := m.Session()
	assert.False(t, ok)
}

func TestPersistedSessionIsSealed(t *testing.T) {
	store := newMemStore()
	id := &fakeIdentity{signIn: func(string, string) (*models.Session, error) {
		return session("u-1", "very-secret-token", baseTime.Add(time.Hour)), nil
	}}
	m := newManager(t, id, store)
	_, err := m.SignIn(context.Background(), "u-1@example.com", "secret1")
	require.NoError(t, err)

	blob, _ := store.Get(context.Background(), metadata.KeySession)
	require.NotNil(t, blob)
	assert.NotContains(t, string(blob), "very-secret-token")

	var got models.Session
	require.NoError(t, cryptox.Open(blob, testSecret, &got))
	assert.Equal(t, "very-secret-token", got.AccessToken)
	assert.Error(t, cryptox.Open(blob, []byte("other"), &got))
}
