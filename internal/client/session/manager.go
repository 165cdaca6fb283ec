// Package session owns the member's identity session on this device.
//
// A Manager is created once per process, initialised with Init and torn down
// with Close. It exposes point-in-time snapshots (Session, State) and an
// ordered event stream (Observe); every mutation goes through its transition
// handlers. The session is persisted sealed in the local metadata store and
// refreshed in the background before it expires.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/dmitrijs2005/gophloyalty/internal/client/client"
	"github.com/dmitrijs2005/gophloyalty/internal/client/models"
	"github.com/dmitrijs2005/gophloyalty/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/gophloyalty/internal/logging"
)

var (
	ErrClosed          = errors.New("session manager closed")
	ErrAlreadyStarted  = errors.New("session manager already initialised")
	ErrResendThrottled = errors.New("a verification code was sent recently, try again later")
)

// Options configures a Manager.
type Options struct {
	Identity client.IdentityClient
	// Store persists the sealed session; nil keeps it in memory only.
	Store  metadata.Repository
	Secret []byte

	// RefreshMargin is how long before expiry the access token is renewed.
	RefreshMargin time.Duration
	// RetryDelay paces background refresh attempts while the backend is unreachable.
	RetryDelay time.Duration
	// ResendInterval is the minimum gap between verification code requests.
	ResendInterval time.Duration

	Logger logging.Logger
	Now    func() time.Time
}

// Manager is the single owner of the Session object.
type Manager struct {
	identity client.IdentityClient
	store    metadata.Repository
	secret   []byte
	margin   time.Duration
	retry    time.Duration
	resend   *rate.Limiter
	log      logging.Logger
	now      func() time.Time

	mu      sync.Mutex
	state   State
	session *models.Session
	seq     uint64
	started bool
	closed  bool
	subs    map[int]*subscriber
	nextSub int

	refreshMu sync.Mutex
	wake      chan struct{}
	cancel    context.CancelFunc
	wg        sync.WaitGroup
}

// New returns a Manager in the Authenticating state.
func New(opts Options) *Manager {
	m := &Manager{
		identity: opts.Identity,
		store:    opts.Store,
		secret:   opts.Secret,
		margin:   opts.RefreshMargin,
		retry:    opts.RetryDelay,
		log:      opts.Logger,
		now:      opts.Now,
		state:    StateAuthenticating,
		subs:     make(map[int]*subscriber),
		wake:     make(chan struct{}, 1),
	}
	if m.margin <= 0 {
		m.margin = time.Minute
	}
	if m.retry <= 0 {
		m.retry = 5 * time.Second
	}
	interval := opts.ResendInterval
	if interval <= 0 {
		interval = time.Minute
	}
	m.resend = rate.NewLimiter(rate.Every(interval), 1)
	if m.log == nil {
		m.log = logging.Discard()
	}
	if m.now == nil {
		m.now = time.Now
	}
	return m
}

// Init loads the persisted session once at startup, refreshing it when it is
// about to expire, publishes it as EventInitialSession and starts the
// background refresher. If a sign-in completed in the meantime the startup
// snapshot is discarded.
func (m *Manager) Init(ctx context.Context) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrClosed
	}
	if m.started {
		m.mu.Unlock()
		return ErrAlreadyStarted
	}
	m.started = true
	rctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.mu.Unlock()

	s := m.loadPersisted(ctx)
	if s != nil && s.ExpiresWithin(m.now(), m.margin) {
		s = m.refreshStartup(ctx, s)
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrClosed
	}
	if m.state == StateAuthenticating {
		m.session = s
		m.state = StateUnauthenticated
		if s != nil {
			m.state = StateAuthenticated
		}
		m.persistLocked(ctx)
		m.publishLocked(EventInitialSession)
	} else {
		m.log.Debug(ctx, "startup session discarded", "state", m.state.String())
	}
	// Close waits on wg only after setting closed under mu.
	m.wg.Add(1)
	m.mu.Unlock()

	go func() {
		defer m.wg.Done()
		m.refresher(rctx)
	}()
	m.kick()
	return nil
}

// refreshStartup renews an expiring persisted session. A rejected refresh
// token drops the session; an unreachable backend keeps it for a later try.
func (m *Manager) refreshStartup(ctx context.Context, s *models.Session) *models.Session {
	ns, err := m.identity.Refresh(ctx, s.RefreshToken)
	switch {
	case err == nil:
		return m.completeRefreshed(ns, s)
	case rejected(err):
		m.log.Info(ctx, "persisted session rejected", "user_id", s.User.ID)
		return nil
	default:
		m.log.Warn(ctx, "startup refresh failed", "user_id", s.User.ID, "error", err)
		return s
	}
}

// Observe subscribes to session transitions. Events are delivered in order.
// When Init has already run the stream starts with an EventInitialSession
// carrying the current session. The channel is closed after unsubscribe,
// when ctx ends or when the manager is closed.
func (m *Manager) Observe(ctx context.Context) (<-chan Event, func()) {
	sub := newSubscriber()

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		close(sub.out)
		return sub.out, func() {}
	}
	id := m.nextSub
	m.nextSub++
	m.subs[id] = sub
	if m.state != StateAuthenticating {
		sub.push(Event{Kind: EventInitialSession, Session: m.session.Clone(), Seq: m.seq})
	}
	m.wg.Add(1)
	m.mu.Unlock()

	go func() {
		defer m.wg.Done()
		sub.run(ctx)
		m.removeSub(id)
	}()

	return sub.out, sub.stop
}

func (m *Manager) removeSub(id int) {
	m.mu.Lock()
	delete(m.subs, id)
	m.mu.Unlock()
}

// Session returns a copy of the current session.
func (m *Manager) Session() (*models.Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session.Clone(), m.session != nil
}

// UserID returns the signed-in user's id, or "".
func (m *Manager) UserID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session == nil {
		return ""
	}
	return m.session.User.ID
}

// State returns the lifecycle state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Close stops the refresher and closes every subscription.
func (m *Manager) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	subs := m.subs
	m.subs = make(map[int]*subscriber)
	cancel := m.cancel
	m.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	for _, s := range subs {
		s.stop()
	}
	m.wg.Wait()
}

// establish installs a session created by sign-in or code verification.
func (m *Manager) establish(ctx context.Context, s *models.Session) {
	m.mu.Lock()
	m.session = s
	m.state = StateAuthenticated
	m.persistLocked(ctx)
	m.publishLocked(EventSignedIn)
	m.mu.Unlock()

	m.log.Info(ctx, "signed in", "user_id", s.User.ID)
	m.kick()
}

// terminate clears the session. It is a no-op when already signed out.
func (m *Manager) terminate(ctx context.Context, reason string) {
	m.mu.Lock()
	if m.session == nil && m.state == StateUnauthenticated {
		m.mu.Unlock()
		return
	}
	userID := ""
	if m.session != nil {
		userID = m.session.User.ID
	}
	m.session = nil
	m.state = StateUnauthenticated
	m.persistLocked(ctx)
	m.publishLocked(EventSignedOut)
	m.mu.Unlock()

	m.log.Info(ctx, "signed out", "user_id", userID, "reason", reason)
	m.kick()
}

// publishLocked bumps the sequence and queues an event for every subscriber.
func (m *Manager) publishLocked(kind EventKind) {
	m.seq++
	for _, s := range m.subs {
		s.push(Event{Kind: kind, Session: m.session.Clone(), Seq: m.seq})
	}
}

func (m *Manager) kick() {
	select {
	case m.wake <- struct{}{}:
	default:
	}
}
