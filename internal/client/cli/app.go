package cli

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"sync/atomic"

	"github.com/dmitrijs2005/gophloyalty/internal/client/client"
	"github.com/dmitrijs2005/gophloyalty/internal/client/config"
	"github.com/dmitrijs2005/gophloyalty/internal/client/geolocation"
	"github.com/dmitrijs2005/gophloyalty/internal/client/models"
	"github.com/dmitrijs2005/gophloyalty/internal/client/profile"
	"github.com/dmitrijs2005/gophloyalty/internal/client/repositories/catalog"
	"github.com/dmitrijs2005/gophloyalty/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/gophloyalty/internal/client/services"
	"github.com/dmitrijs2005/gophloyalty/internal/client/session"
	"github.com/dmitrijs2005/gophloyalty/internal/client/storage"
	"github.com/dmitrijs2005/gophloyalty/internal/client/stores"
	"github.com/dmitrijs2005/gophloyalty/internal/cryptox"
	"github.com/dmitrijs2005/gophloyalty/internal/filex"
	"github.com/dmitrijs2005/gophloyalty/internal/logging"
)

// sessionManager is the part of session.Manager the commands use.
type sessionManager interface {
	SignIn(ctx context.Context, email, password string) (*models.Session, error)
	SignUp(ctx context.Context, req models.SignUpRequest) (*models.Session, error)
	VerifyOTP(ctx context.Context, email, code string) (*models.Session, error)
	ResendVerification(ctx context.Context, email string) error
	SignOut(ctx context.Context) error
	Session() (*models.Session, bool)
	State() session.State
}

type profileResolver interface {
	Snapshot() profile.Snapshot
	Refresh(ctx context.Context) profile.Snapshot
	UpdateDetails(ctx context.Context, upd models.ProfileUpdate) (profile.Snapshot, error)
	UploadPicture(ctx context.Context, fileName, contentType string, body io.Reader) (string, error)
}

type storeFinder interface {
	Refresh(ctx context.Context) stores.View
	View() stores.View
	Choose(id string) (models.Store, bool)
	Directions(id string) (string, bool)
}

// App is the interactive client. The zero value is not usable; build it
// with NewApp.
type App struct {
	log logging.Logger

	sessions   sessionManager
	profiles   profileResolver
	stores     storeFinder
	rewards    services.RewardsService
	activity   services.ActivityService
	settings   services.SettingsService
	appearance services.AppearanceService
	account    services.AccountService

	// pendingEmail remembers the address awaiting OTP verification.
	pendingEmail string
	// expectSignOut is set while a sign-out the member asked for is in flight.
	expectSignOut atomic.Bool

	reader *bufio.Reader
	out    io.Writer

	start func(ctx context.Context) error
	stop  func()
}

// NewApp wires the client from cfg: the local SQLite state, the backend
// clients, the session manager and the services on top of them.
func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	log := newLogger(cfg)

	dbPath, err := filex.EnsureParentDir(cfg.LocalDatabasePath)
	if err != nil {
		return nil, err
	}
	db, err := client.InitDatabase(ctx, dbPath)
	if err != nil {
		log.Error(ctx, "error initializing database", "path", dbPath, "error", err)
		return nil, err
	}
	secret := []byte(cfg.DeviceSecret)
	if len(secret) == 0 {
		if secret, err = cryptox.LoadOrCreateSecret(dbPath + ".key"); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	meta := metadata.NewSQLiteRepository(db)
	cache := catalog.NewSQLiteRepository(db)

	rest, err := client.NewREST(client.RESTConfig{
		BaseURL:           cfg.BackendURL,
		APIKey:            cfg.APIKey,
		Timeout:           cfg.RequestTimeout,
		RequestsPerSecond: cfg.RequestsPerSecond,
		Logger:            log.With("component", "rest"),
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	sm := session.New(session.Options{
		Identity:      client.NewRESTIdentity(rest),
		Store:         meta,
		Secret:        secret,
		RefreshMargin: cfg.RefreshMargin,
		Logger:        log.With("component", "session"),
	})

	var (
		data client.DataClient
		pg   *sql.DB
	)
	switch cfg.DataBackend {
	case config.BackendPostgres:
		pg, err = client.OpenPostgres(ctx, cfg.DatabaseDSN)
		if err != nil {
			_ = db.Close()
			return nil, err
		}
		data = client.NewPostgresData(pg)
	default:
		data = client.NewRESTData(rest, sm)
	}

	var objects storage.ObjectStore
	if s3, err := storage.NewS3(ctx, storage.Options(cfg.Storage)); err != nil {
		log.Warn(ctx, "profile picture storage disabled", "error", err)
	} else {
		objects = s3
	}

	resolver := profile.NewResolver(profile.Options{
		Data:       data,
		Sessions:   sm,
		Storage:    objects,
		RetryDelay: cfg.ProfileRetryDelay,
		Logger:     log.With("component", "profile"),
	})

	var src geolocation.Source = geolocation.Static{Enabled: cfg.LocationEnabled, Coordinate: cfg.DeviceLocation}
	if cfg.LocationEnabled && cfg.GeolocationURL != "" {
		src = geolocation.NewHTTP(cfg.GeolocationURL, cfg.RequestTimeout)
	}
	locator := geolocation.WithFallback(src, cfg.FallbackLocation, log.With("component", "geolocation"))

	app := &App{
		log:        log,
		sessions:   sm,
		profiles:   resolver,
		stores:     stores.NewService(data, cache, locator, log.With("component", "stores")),
		rewards:    services.NewRewardsService(data, cache, resolver, sm, log.With("component", "rewards")),
		activity:   services.NewActivityService(data, sm, resolver, log.With("component", "activity")),
		settings:   services.NewSettingsService(data, sm),
		appearance: services.NewAppearanceService(meta),
		account:    services.NewAccountService(client.NewRESTFunctions(rest, sm), sm, cache, log.With("component", "account")),
		reader:     bufio.NewReader(os.Stdin),
		out:        os.Stdout,
	}

	var unsubscribe []func()
	app.start = func(ctx context.Context) error {
		events, unsub := sm.Observe(ctx)
		unsubscribe = append(unsubscribe, unsub)
		go resolver.Run(ctx, events)

		notices, unsub := sm.Observe(ctx)
		unsubscribe = append(unsubscribe, unsub)
		go app.watchSession(ctx, notices)

		return sm.Init(ctx)
	}
	app.stop = func() {
		for _, f := range unsubscribe {
			f()
		}
		sm.Close()
		if pg != nil {
			_ = pg.Close()
		}
		_ = db.Close()
		if z, ok := log.(*logging.ZapLogger); ok {
			_ = z.Sync()
		}
	}
	return app, nil
}

func newLogger(cfg *config.Config) logging.Logger {
	opts := logging.ZapOptions{Level: cfg.LogLevel, Path: cfg.LogPath}
	if cfg.LogPath == "" {
		opts.Console = os.Stderr
	}
	return logging.NewZapLogger(opts)
}

// Run restores the session and blocks in the REPL until the user exits.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer a.Close()

	if a.start != nil {
		if err := a.start(ctx); err != nil {
			return fmt.Errorf("start session: %w", err)
		}
	}

	a.printf("Welcome to GophLoyalty (type 'help' for commands)\n")
	if a.isLoggedIn() {
		_ = a.Home(ctx)
	}
	runREPL(ctx, a, a.getStatus, bufio.NewScanner(a.reader))
	return nil
}

// Close releases everything NewApp opened. It is safe to call twice.
func (a *App) Close() {
	if a.stop != nil {
		a.stop()
		a.stop = nil
	}
}

func (a *App) isLoggedIn() bool {
	if a.sessions == nil {
		return false
	}
	_, ok := a.sessions.Session()
	return ok
}

func (a *App) getStatus() string {
	if a.sessions == nil {
		return ""
	}
	if s, ok := a.sessions.Session(); ok {
		return fmt.Sprintf("(%s)", s.User.Email)
	}
	return fmt.Sprintf("(%s)", a.sessions.State())
}

// watchSession reports session endings the member did not ask for.
func (a *App) watchSession(ctx context.Context, events <-chan session.Event) {
	for {
		select {
		case e, ok := <-events:
			if !ok {
				return
			}
			if e.Kind != session.EventSignedOut {
				continue
			}
			if !a.expectSignOut.Swap(false) {
				a.printf("\nYour session has ended. Sign in again to continue.\n")
			}
		case <-ctx.Done():
			return
		}
	}
}

func (a *App) printf(format string, args ...any) {
	w := a.out
	if w == nil {
		w = os.Stdout
	}
	fmt.Fprintf(w, format, args...)
}
