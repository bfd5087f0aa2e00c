package cli

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/jrsteele09/enertrack-console/api"
	"github.com/jrsteele09/enertrack-console/guard"
	"github.com/jrsteele09/enertrack-console/internal/config"
	"github.com/jrsteele09/enertrack-console/internal/errors"
	"github.com/jrsteele09/enertrack-console/metrics"
	"github.com/jrsteele09/enertrack-console/notify"
	"github.com/jrsteele09/enertrack-console/session"
	"github.com/jrsteele09/enertrack-console/store/filestore"
	"github.com/jrsteele09/enertrack-console/store/memstore"
	"github.com/jrsteele09/enertrack-console/store/redisstore"
	"github.com/jrsteele09/enertrack-console/transport"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

// adminRoles may run destructive commands and imports.
var adminRoles = []string{"admin", "superadmin"}

// App holds everything a command needs once the session has been opened.
type App struct {
	cfg    config.Config
	out    io.Writer
	errOut io.Writer
	flags  *globalFlags
	log    zerolog.Logger

	registry *prometheus.Registry
	metrics  *metrics.Session
	observer *sessionEvents

	store   session.Store
	manager *session.Manager
	auth    *api.AuthClient
	client  *api.Client
	closers []func() error
}

type globalFlags struct {
	apiURL   string
	store    string
	home     string
	redisURL string
	output   string
	verbose  bool
}

func newApp(cfg config.Config, out, errOut io.Writer) *App {
	return &App{
		cfg:    cfg,
		out:    out,
		errOut: errOut,
		log:    zerolog.Nop(),
		flags: &globalFlags{
			apiURL:   cfg.GetAPIBaseURL(),
			store:    string(cfg.GetStoreKind()),
			home:     cfg.GetHomeFolder(),
			redisURL: cfg.GetRedisURL(),
			output:   outputTable,
		},
	}
}

// open builds the store, the session manager and both API clients.
func (a *App) open() error {
	a.setupLogging()

	store, err := a.openStore()
	if err != nil {
		return err
	}
	a.store = store

	httpTimeout := a.cfg.GetHTTPTimeout()
	a.auth, err = api.NewAuthClient(a.flags.apiURL,
		api.WithHTTPClient(&http.Client{Timeout: httpTimeout}),
		api.WithLogger(a.log.With().Str("component", "auth").Logger()),
	)
	if err != nil {
		return err
	}

	a.registry = prometheus.NewRegistry()
	a.metrics = metrics.NewSession(a.registry)
	a.observer = &sessionEvents{next: a.metrics, logouts: make(chan session.LogoutReason, 1)}

	a.manager, err = session.NewManager(store, a.auth,
		session.WithLogger(a.log.With().Str("component", "session").Logger()),
		session.WithNotifier(notify.Multi{notify.NewWriter(a.errOut), notify.NewLog(a.log)}),
		session.WithObserver(a.observer),
		session.WithRefreshMargin(a.cfg.GetRefreshMargin()),
		session.WithRefreshTimeout(a.cfg.GetRefreshTimeout()),
	)
	if err != nil {
		return err
	}
	a.closers = append(a.closers, func() error { a.manager.Close(); return nil })

	rt := transport.New(a.manager,
		transport.WithObserver(a.metrics),
		transport.WithLogger(a.log.With().Str("component", "transport").Logger()),
	)
	a.client, err = api.NewClient(a.flags.apiURL,
		api.WithHTTPClient(&http.Client{Transport: rt, Timeout: httpTimeout}),
		api.WithLogger(a.log.With().Str("component", "api").Logger()),
	)
	return err
}

func (a *App) openStore() (session.Store, error) {
	switch config.StoreKind(a.flags.store) {
	case config.StoreMemory:
		return memstore.New(), nil
	case config.StoreRedis:
		client, err := redisstore.OpenRedis(a.flags.redisURL)
		if err != nil {
			return nil, err
		}
		s := redisstore.New(client, "")
		a.closers = append(a.closers, s.Close, client.Close)
		return s, nil
	case config.StoreFile:
		s, err := filestore.New(a.flags.home)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, s.Close)
		return s, nil
	default:
		return nil, fmt.Errorf("unknown store %q, expected file, memory or redis", a.flags.store)
	}
}

// Close releases the session and the store. Tokens stay persisted.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.log.Debug().Err(err).Msg("close failed")
		}
	}
	a.closers = nil
}

func (a *App) setupLogging() {
	lvl, err := zerolog.ParseLevel(a.cfg.GetLogLevel())
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.WarnLevel
	}
	if a.flags.verbose {
		lvl = zerolog.DebugLevel
	}
	a.log = zerolog.New(zerolog.ConsoleWriter{Out: a.errOut, TimeFormat: time.Kitchen}).
		Level(lvl).With().Timestamp().Logger()
}

// authorize gates a command the way the console's route guard gates a page.
func (a *App) authorize(roles ...string) error {
	switch guard.Evaluate(a.manager, roles...) {
	case guard.RedirectLogin:
		return fmt.Errorf("%w: run `enertrack login` first", errors.ErrNotAuthenticated)
	case guard.Forbidden:
		return fmt.Errorf("%w: this command requires one of the roles %v", errors.ErrForbidden, roles)
	default:
		return nil
	}
}

// sessionEvents forwards lifecycle events to next and publishes the latest
// logout reason so watch can report it.
type sessionEvents struct {
	next    session.Observer
	logouts chan session.LogoutReason
}

func (e *sessionEvents) LoggedIn() { e.next.LoggedIn() }

func (e *sessionEvents) LoggedOut(reason session.LogoutReason) {
	e.next.LoggedOut(reason)
	select {
	case e.logouts <- reason:
	default:
	}
}

func (e *sessionEvents) RefreshCompleted(success bool, d time.Duration) {
	e.next.RefreshCompleted(success, d)
}
