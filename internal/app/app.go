// Package app wires the client components together.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"resty.dev/v3"

	"yallapost/internal/config"
	"yallapost/internal/core"
	"yallapost/internal/flows"
	"yallapost/internal/guard"
	"yallapost/internal/query"
	"yallapost/internal/session"
	"yallapost/internal/storage"
	"yallapost/internal/validation"
	"yallapost/internal/views"
	"yallapost/pkg/yalla"
)

// Options override the collaborators New would otherwise build from the config.
type Options struct {
	Notifier  core.Notifier
	Confirmer core.Confirmer

	// Backend replaces the REST client, Tokens then has to be wired by the caller.
	Backend core.Backend
	Store   core.TokenStore
}

// App is one client session: the token, its profile, the cached server data
// and the current route.
type App struct {
	Logger    *slog.Logger
	Config    *config.Config
	Backend   core.Backend
	Session   *session.Store
	Cache     *query.Cache
	Router    *guard.Router
	Navigator *guard.Navigator
	Views     *views.Views
	Flows     *flows.Flows
	Validator *validation.Validator

	client      *yalla.Client
	store       core.TokenStore
	closeStore  storage.CloseFunc
	unsubscribe func()

	mu        sync.Mutex
	lastToken string
	closeOnce sync.Once
}

func New(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts Options) (*App, error) {
	a := &App{
		Logger:     logger.With("component", "app.App"),
		Config:     cfg,
		closeStore: func(context.Context) error { return nil },
	}

	store := opts.Store
	if store == nil {
		var err error
		store, a.closeStore, err = storage.Open(ctx, cfg, logger)
		if err != nil {
			return nil, err
		}
	}

	a.store = store

	a.Backend = opts.Backend
	if a.Backend == nil {
		a.client = yalla.NewClient(&yalla.ClientConfig{
			BaseURL:             cfg.BaseURL,
			Timeout:             cfg.RequestTimeout,
			PageSize:            cfg.PageSize,
			TransportSettings:   yalla.DefaultConfig.TransportSettings,
			Tokens:              yalla.TokenFunc(func() string { return a.Session.Token() }),
			ResponseMiddlewares: []resty.ResponseMiddleware{APILatency},
		})
		a.Backend = a.client
	}

	notifier := opts.Notifier
	if notifier == nil {
		notifier = core.LogNotifier{Logger: logger}
	}
	confirmer := opts.Confirmer
	if confirmer == nil {
		confirmer = core.ConfirmFunc(func(context.Context, string) (bool, error) {
			return false, nil
		})
	}

	a.Session = session.New(store, a.Backend, logger)
	a.Cache = query.New(logger)
	a.Router = guard.NewRouter(guard.DefaultRoutes...)
	a.Navigator = guard.NewNavigator(a.Router, a.Session.IsAuthenticated, logger)
	a.Views = views.New(a.Backend, a.Session, a.Cache)
	a.Validator = validation.New(nil)
	a.Flows = flows.New(flows.Deps{
		Logger:      logger,
		Backend:     a.Backend,
		Session:     a.Session,
		Cache:       a.Cache,
		Navigator:   a.Navigator,
		Validator:   a.Validator,
		Notifier:    notifier,
		Confirmer:   confirmer,
		LogoutDelay: cfg.LogoutDelay,
	})

	a.unsubscribe = a.Session.Subscribe(a.sessionChanged)

	if err := a.Session.Initialize(ctx); err != nil {
		a.Close(ctx) //nolint:errcheck
		return nil, err
	}
	a.Session.RefreshAsync(ctx)

	return a, nil
}

// sessionChanged drops cached data of the previous token and re-applies the
// guards to the current route.
func (a *App) sessionChanged(snapshot session.Snapshot) {
	a.mu.Lock()
	changed := snapshot.Token != a.lastToken
	a.lastToken = snapshot.Token
	a.mu.Unlock()

	if !changed {
		return
	}

	a.Cache.Clear()
	a.Logger.Debug("session token changed, cache cleared", "state", snapshot.State)

	if len(a.Navigator.History()) == 0 {
		return
	}
	if _, err := a.Navigator.Refresh(); err != nil {
		a.Logger.Error("failed to refresh route", "error", err)
	}
}

func (a *App) CacheEntries() int {
	return len(a.Cache.Keys())
}

func (a *App) Authenticated() bool {
	return a.Session.IsAuthenticated()
}

// HealthCheck fails when the token store is unreachable.
func (a *App) HealthCheck(ctx context.Context) error {
	if _, err := a.store.Get(ctx); err != nil {
		return fmt.Errorf("token store unavailable: %w", err)
	}
	if checker, ok := a.store.(core.HealthChecker); ok {
		if err := checker.HealthCheck(ctx); err != nil {
			return fmt.Errorf("token store unavailable: %w", err)
		}
	}
	return nil
}

// Close stops background work and releases the token store.
func (a *App) Close(ctx context.Context) error {
	var err error

	a.closeOnce.Do(func() {
		if a.unsubscribe != nil {
			a.unsubscribe()
		}
		a.Flows.Close()
		a.Session.Wait()
		a.Cache.Close()

		if a.client != nil {
			err = a.client.Close()
		}
		err = errors.Join(err, a.closeStore(ctx))
	})
	return err
}

func (a *App) Shutdown(ctx context.Context) error {
	return a.Close(ctx)
}
