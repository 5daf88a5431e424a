package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"yallapost/internal/core"
	"yallapost/pkg/yalla"
)

var ErrProfileUnavailable = errors.New("profile unavailable")

type State int

const (
	Anonymous State = iota
	Authenticating
	Authenticated
)

func (s State) String() string {
	switch s {
	case Authenticating:
		return "authenticating"
	case Authenticated:
		return "authenticated"
	default:
		return "anonymous"
	}
}

// Snapshot is a consistent view of the session.
type Snapshot struct {
	Token string
	User  *yalla.User
	State State
}

// Store holds the session token and the profile fetched for it. A profile
// is only ever present together with the token it was fetched with.
type Store struct {
	logger   *slog.Logger
	storage  core.TokenStore
	profiles core.ProfileFetcher

	// serializes token writes including their persistence
	writeMu sync.Mutex

	mu          sync.RWMutex
	token       string
	user        *yalla.User
	generation  uint64
	inflight    chan struct{}
	subscribers map[int]func(Snapshot)
	nextID      int

	wg sync.WaitGroup
}

func New(storage core.TokenStore, profiles core.ProfileFetcher, logger *slog.Logger) *Store {
	return &Store{
		logger:      logger.With("component", "session.Store"),
		storage:     storage,
		profiles:    profiles,
		subscribers: map[int]func(Snapshot){},
	}
}

// Initialize loads the persisted token without contacting the backend.
func (s *Store) Initialize(ctx context.Context) error {
	token, err := s.storage.Get(ctx)
	if err != nil {
		return fmt.Errorf("failed to load session token: %w", err)
	}

	s.mu.Lock()
	s.token = token
	s.user = nil
	s.generation++
	s.mu.Unlock()

	s.logger.Debug("session initialized", "authenticated", token != "")
	s.publish()

	return nil
}

// Token implements yalla.TokenSource.
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.token
}

// IsAuthenticated depends on token presence only, never on the profile.
func (s *Store) IsAuthenticated() bool {
	return s.Token() != ""
}

func (s *Store) User() *yalla.User {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.user
}

func (s *Store) State() State {
	return s.Snapshot().State
}

func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.snapshot()
}

func (s *Store) snapshot() Snapshot {
	state := Authenticated
	switch {
	case s.token == "":
		state = Anonymous
	case s.user == nil:
		state = Authenticating
	}
	return Snapshot{Token: s.token, User: s.user, State: state}
}

// SetToken replaces the session token. An empty token clears the profile and
// the persisted token, a non-empty one is persisted and its profile fetched
// in the background.
func (s *Store) SetToken(ctx context.Context, token string) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	return s.setToken(ctx, token)
}

func (s *Store) setToken(ctx context.Context, token string) error {
	s.mu.Lock()
	s.token = token
	s.user = nil
	s.generation++
	s.mu.Unlock()

	var err error
	if token == "" {
		err = s.storage.Delete(ctx)
	} else {
		err = s.storage.Put(ctx, token)
	}
	if err != nil {
		s.logger.Error("failed to persist session token", "error", err)
		err = fmt.Errorf("failed to persist session token: %w", err)
	}

	s.publish()

	if token != "" {
		s.RefreshAsync(ctx)
	}
	return err
}

// Expire clears the session when the backend rejected token. A rejection of
// a token that was already replaced is ignored.
func (s *Store) Expire(ctx context.Context, token string) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if token == "" || s.Token() != token {
		return nil
	}
	s.logger.Info("session token rejected by the backend, clearing session")
	return s.setToken(ctx, "")
}

// RefreshAsync fetches the profile for the current token in the background.
func (s *Store) RefreshAsync(ctx context.Context) {
	s.mu.Lock()
	token := s.token
	if token == "" {
		s.mu.Unlock()
		return
	}
	done := make(chan struct{})
	s.inflight = done
	s.mu.Unlock()

	ctx = context.WithoutCancel(ctx)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer close(done)

		if err := s.RefreshProfile(ctx, token); err != nil {
			s.logger.Warn("failed to refresh profile", "error", err)
		}
	}()
}

// RefreshProfile fetches the profile for token and stores it if token is
// still the current one.
func (s *Store) RefreshProfile(ctx context.Context, token string) error {
	s.mu.RLock()
	generation := s.generation
	s.mu.RUnlock()

	user, err := s.profiles.ProfileData(ctx, token)
	if err != nil {
		if errors.Is(err, yalla.ErrUnauthorized) {
			if expireErr := s.Expire(ctx, token); expireErr != nil {
				s.logger.Error("failed to expire session", "error", expireErr)
			}
		}
		return err
	}

	s.mu.Lock()
	if s.token != token || s.generation != generation {
		s.mu.Unlock()
		s.logger.Debug("discarding profile fetched for a replaced token")
		return nil
	}
	s.user = user
	s.mu.Unlock()

	s.publish()
	return nil
}

// AwaitProfile waits for the pending profile fetch, if any, and returns the profile.
func (s *Store) AwaitProfile(ctx context.Context) (*yalla.User, error) {
	s.mu.RLock()
	token, done := s.token, s.inflight
	s.mu.RUnlock()

	if token == "" {
		return nil, core.ErrNotAuthenticated
	}

	if done != nil {
		select {
		case <-done:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if user := s.User(); user != nil {
		return user, nil
	}
	if !s.IsAuthenticated() {
		return nil, core.ErrNotAuthenticated
	}
	return nil, ErrProfileUnavailable
}

// Subscribe registers fn to be called after every session change.
func (s *Store) Subscribe(fn func(Snapshot)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	s.subscribers[id] = fn

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()

		delete(s.subscribers, id)
	}
}

// Wait blocks until background profile fetches finish.
func (s *Store) Wait() {
	s.wg.Wait()
}

func (s *Store) publish() {
	s.mu.RLock()
	snapshot := s.snapshot()
	subscribers := make([]func(Snapshot), 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		subscribers = append(subscribers, fn)
	}
	s.mu.RUnlock()

	for _, fn := range subscribers {
		fn(snapshot)
	}
}
