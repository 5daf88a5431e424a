// Package flows implements the user initiated mutations: each one validates
// its form, issues a single backend call and only then invalidates the
// affected queries and notifies the user.
package flows

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"yallapost/internal/core"
	"yallapost/internal/guard"
	"yallapost/internal/query"
	"yallapost/internal/session"
	"yallapost/internal/validation"
	"yallapost/pkg/yalla"
)

const DefaultLogoutDelay = 3 * time.Second

// Failure is returned when the backend rejected a mutation. Message is what
// the user was shown.
type Failure struct {
	Message string
	Err     error
}

func (f *Failure) Error() string {
	return f.Message + ": " + f.Err.Error()
}

func (f *Failure) Unwrap() error {
	return f.Err
}

type Deps struct {
	Logger      *slog.Logger
	Backend     core.Backend
	Session     *session.Store
	Cache       *query.Cache
	Navigator   *guard.Navigator
	Validator   *validation.Validator
	Notifier    core.Notifier
	Confirmer   core.Confirmer
	LogoutDelay time.Duration
}

type Flows struct {
	logger      *slog.Logger
	backend     core.Backend
	session     *session.Store
	cache       *query.Cache
	navigator   *guard.Navigator
	validator   *validation.Validator
	notifier    core.Notifier
	confirmer   core.Confirmer
	logoutDelay time.Duration

	mu      sync.Mutex
	pending map[string]struct{}
	timers  []*time.Timer
	wg      sync.WaitGroup
}

func New(deps Deps) *Flows {
	delay := deps.LogoutDelay
	if delay <= 0 {
		delay = DefaultLogoutDelay
	}

	return &Flows{
		logger:      deps.Logger.With("component", "flows.Flows"),
		backend:     deps.Backend,
		session:     deps.Session,
		cache:       deps.Cache,
		navigator:   deps.Navigator,
		validator:   deps.Validator,
		notifier:    deps.Notifier,
		confirmer:   deps.Confirmer,
		logoutDelay: delay,
		pending:     map[string]struct{}{},
	}
}

type mutation struct {
	// form scopes the pending guard, a second submit of the same form fails with core.ErrPending.
	form    string
	input   any
	success string
	failure string
	// invalidate is evaluated after the call succeeded.
	invalidate func() []query.Matcher
}

func (f *Flows) run(ctx context.Context, m mutation, call func(ctx context.Context) error) error {
	if m.input != nil {
		if err := f.validator.Validate(m.input); err != nil {
			return err
		}
	}

	release, err := f.acquire(m.form)
	if err != nil {
		return err
	}
	defer release()

	token := f.session.Token()

	if err := call(ctx); err != nil {
		return f.fail(ctx, m, token, err)
	}

	if m.invalidate != nil {
		matchers := m.invalidate()
		n := f.cache.Invalidate(matchers...)
		f.logger.Debug("mutation succeeded", "form", m.form, "invalidated", n)
	}
	if m.success != "" {
		f.notify(ctx, core.LevelSuccess, m.success)
	}
	return nil
}

func (f *Flows) fail(ctx context.Context, m mutation, token string, err error) error {
	msg := yalla.Message(err)
	if msg == "" {
		msg = m.failure
	}

	if errors.Is(err, yalla.ErrUnauthorized) {
		if expireErr := f.session.Expire(ctx, token); expireErr != nil {
			f.logger.Error("failed to expire session", "error", expireErr)
		}
	}

	f.logger.Warn("mutation failed", "form", m.form, "error", err)
	f.notify(ctx, core.LevelError, msg)

	return &Failure{Message: msg, Err: err}
}

func (f *Flows) acquire(form string) (func(), error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.pending[form]; ok {
		return nil, core.ErrPending
	}
	f.pending[form] = struct{}{}

	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()

		delete(f.pending, form)
	}, nil
}

// Pending reports whether a submit of form is in flight.
func (f *Flows) Pending(form string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	_, ok := f.pending[form]
	return ok
}

func (f *Flows) notify(ctx context.Context, level core.Level, message string) {
	f.notifier.Notify(ctx, core.Notification{Level: level, Message: message})
}

// confirm asks before a destructive call, a declined prompt yields core.ErrCancelled.
func (f *Flows) confirm(ctx context.Context, prompt string) error {
	ok, err := f.confirmer.Confirm(ctx, prompt)
	if err != nil {
		return err
	}
	if !ok {
		return core.ErrCancelled
	}
	return nil
}

// ownListing selects the listing of the session user, every user listing
// while the profile is still unknown.
func (f *Flows) ownListing() query.Matcher {
	if user := f.session.User(); user != nil {
		return query.UserPosts(user.ID)
	}
	return query.UserPosts("")
}

func (f *Flows) requireSession() error {
	if !f.session.IsAuthenticated() {
		return core.ErrNotAuthenticated
	}
	return nil
}

// Close stops pending delayed logouts and waits for running ones.
func (f *Flows) Close() {
	f.mu.Lock()
	for _, t := range f.timers {
		if t.Stop() {
			f.wg.Done()
		}
	}
	f.timers = nil
	f.mu.Unlock()

	f.wg.Wait()
}

// CanModify reports whether user may be offered edit and delete for content
// written by authorID. The backend still authorizes every mutation.
func CanModify(user *yalla.User, authorID string) bool {
	return user != nil && user.ID != "" && user.ID == authorID
}
