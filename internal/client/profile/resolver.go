// Package profile resolves the signed-in member's profile and tier.
//
// The Resolver is the only writer of the cached (Profile, Tier) pair. The
// pair is replaced as one value, so readers never see a profile next to a
// tier from an earlier fetch. Read failures keep the previous pair.
package profile

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dmitrijs2005/gophloyalty/internal/client/client"
	"github.com/dmitrijs2005/gophloyalty/internal/client/models"
	"github.com/dmitrijs2005/gophloyalty/internal/client/session"
	"github.com/dmitrijs2005/gophloyalty/internal/client/storage"
	"github.com/dmitrijs2005/gophloyalty/internal/common"
	"github.com/dmitrijs2005/gophloyalty/internal/logging"
)

// DefaultRetryDelay is the pause before the single profile re-fetch after a
// fresh sign-in.
const DefaultRetryDelay = 500 * time.Millisecond

// Snapshot is a read-only view of the cached pair. Version increases with
// every commit.
type Snapshot struct {
	Profile *models.Profile
	Tier    *models.Tier
	Version uint64
}

// SessionSource exposes the current session.
type SessionSource interface {
	Session() (*models.Session, bool)
}

// Options configures a Resolver.
type Options struct {
	Data     client.DataClient
	Sessions SessionSource
	// Storage is required only for UploadPicture.
	Storage    storage.ObjectStore
	RetryDelay time.Duration
	Logger     logging.Logger
	Now        func() time.Time
}

// Resolver loads and caches the member's profile and tier.
type Resolver struct {
	data       client.DataClient
	sessions   SessionSource
	storage    storage.ObjectStore
	retryDelay time.Duration
	log        logging.Logger
	now        func() time.Time

	snap    atomic.Pointer[Snapshot]
	version atomic.Uint64

	mu          sync.Mutex
	epoch       uint64
	cancelRetry context.CancelFunc
	retries     sync.WaitGroup
}

// NewResolver returns a Resolver with an empty snapshot.
func NewResolver(opts Options) *Resolver {
	r := &Resolver{
		data:       opts.Data,
		sessions:   opts.Sessions,
		storage:    opts.Storage,
		retryDelay: opts.RetryDelay,
		log:        opts.Logger,
		now:        opts.Now,
	}
	if r.retryDelay <= 0 {
		r.retryDelay = DefaultRetryDelay
	}
	if r.log == nil {
		r.log = logging.Discard()
	}
	if r.now == nil {
		r.now = time.Now
	}
	r.snap.Store(&Snapshot{})
	return r
}

// Snapshot returns the cached pair.
func (r *Resolver) Snapshot() Snapshot {
	return *r.snap.Load()
}

// LoadProfile fetches the profile row of userID. A missing row is (nil, nil).
func (r *Resolver) LoadProfile(ctx context.Context, userID string) (*models.Profile, error) {
	p, err := r.data.ProfileByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: profile: %w", common.ErrFetch, err)
	}
	return p, nil
}

// LoadTier fetches a tier by id. A missing row is (nil, nil).
func (r *Resolver) LoadTier(ctx context.Context, tierID string) (*models.Tier, error) {
	t, err := r.data.TierByID(ctx, tierID)
	if err != nil {
		return nil, fmt.Errorf("%w: tier: %w", common.ErrFetch, err)
	}
	return t, nil
}

// fetch loads the pair for userID. The tier is fetched only when the
// profile names one.
func (r *Resolver) fetch(ctx context.Context, userID string) (*models.Profile, *models.Tier, error) {
	p, err := r.LoadProfile(ctx, userID)
	if err != nil || p == nil {
		return nil, nil, err
	}
	if p.TierID == nil || *p.TierID == "" {
		return p, nil, nil
	}
	t, err := r.LoadTier(ctx, *p.TierID)
	if err != nil {
		return nil, nil, err
	}
	return p, t, nil
}

func (r *Resolver) currentUser() string {
	if r.sessions == nil {
		return ""
	}
	s, ok := r.sessions.Session()
	if !ok {
		return ""
	}
	return s.User.ID
}

// commitLocked swaps in a new pair.
func (r *Resolver) commitLocked(p *models.Profile, t *models.Tier) Snapshot {
	s := &Snapshot{Profile: p, Tier: t, Version: r.version.Add(1)}
	r.snap.Store(s)
	return *s
}

// commitIf stores the pair only when no session transition happened since
// epoch and the session still belongs to userID.
func (r *Resolver) commitIf(epoch uint64, userID string, p *models.Profile, t *models.Tier) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.epoch != epoch || r.currentUser() != userID {
		return false
	}
	r.commitLocked(p, t)
	return true
}

func (r *Resolver) clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.commitLocked(nil, nil)
}

// Refresh re-fetches the pair for the current user and returns the cached
// snapshot afterwards. On failure the previous snapshot is kept.
func (r *Resolver) Refresh(ctx context.Context) Snapshot {
	r.mu.Lock()
	epoch := r.epoch
	r.mu.Unlock()

	userID := r.currentUser()
	if userID == "" {
		return r.Snapshot()
	}

	p, t, err := r.fetch(ctx, userID)
	if err != nil {
		r.log.Warn(ctx, "profile refresh failed", "user_id", userID, "error", err)
		return r.Snapshot()
	}
	if !r.commitIf(epoch, userID, p, t) {
		r.log.Debug(ctx, "discarding stale profile refresh", "user_id", userID)
	}
	return r.Snapshot()
}

// Run applies session events until events is closed or ctx ends.
func (r *Resolver) Run(ctx context.Context, events <-chan session.Event) {
	defer r.stopRetry()
	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-events:
			if !ok {
				return
			}
			r.handle(ctx, e)
		}
	}
}

// handle reacts to one session event. Every event except a token refresh
// starts a new epoch and cancels a pending retry.
func (r *Resolver) handle(ctx context.Context, e session.Event) {
	if e.Kind == session.EventTokenRefreshed {
		return
	}

	r.mu.Lock()
	r.epoch++
	epoch := r.epoch
	if r.cancelRetry != nil {
		r.cancelRetry()
		r.cancelRetry = nil
	}
	r.mu.Unlock()

	userID := e.UserID()
	if userID == "" {
		r.clear()
		return
	}

	if e.JustEstablished() {
		if prev := r.Snapshot().Profile; prev != nil && prev.UserID != userID {
			r.clear()
		}
	}

	p, t, err := r.fetch(ctx, userID)
	if err != nil {
		r.log.Warn(ctx, "profile fetch failed", "user_id", userID, "error", err)
	} else if p != nil || !e.JustEstablished() {
		r.commitIf(epoch, userID, p, t)
	}

	if e.JustEstablished() && (err != nil || p == nil) {
		r.scheduleRetry(ctx, epoch, userID)
	}
}

// scheduleRetry re-fetches once after the retry delay. The row may not
// exist yet right after sign-up.
func (r *Resolver) scheduleRetry(parent context.Context, epoch uint64, userID string) {
	ctx, cancel := context.WithCancel(parent)

	r.mu.Lock()
	if r.epoch != epoch {
		r.mu.Unlock()
		cancel()
		return
	}
	r.cancelRetry = cancel
	r.retries.Add(1)
	r.mu.Unlock()

	go func() {
		defer r.retries.Done()
		defer cancel()

		timer := time.NewTimer(r.retryDelay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		p, t, err := r.fetch(ctx, userID)
		if err != nil {
			if ctx.Err() == nil {
				r.log.Info(ctx, "profile retry failed", "user_id", userID, "error", err)
			}
			return
		}
		if !r.commitIf(epoch, userID, p, t) {
			r.log.Debug(ctx, "discarding stale profile retry", "user_id", userID)
		}
	}()
}

func (r *Resolver) stopRetry() {
	r.mu.Lock()
	if r.cancelRetry != nil {
		r.cancelRetry()
		r.cancelRetry = nil
	}
	r.mu.Unlock()
	r.retries.Wait()
}
