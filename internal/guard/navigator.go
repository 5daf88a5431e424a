package guard

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

const maxRedirects = 4

var ErrRedirectLoop = errors.New("redirect loop")

// Location is where the navigator ended up after guards ran.
type Location struct {
	Match

	// RedirectedFrom is the originally requested path when a guard redirected.
	RedirectedFrom string
}

// Navigator tracks the current client route and applies guards on every move.
type Navigator struct {
	logger        *slog.Logger
	router        *Router
	authenticated func() bool

	mu          sync.Mutex
	history     []Location
	subscribers map[int]func(Location)
	nextID      int
}

func NewNavigator(router *Router, authenticated func() bool, logger *slog.Logger) *Navigator {
	return &Navigator{
		logger:        logger.With("component", "guard.Navigator"),
		router:        router,
		authenticated: authenticated,
		subscribers:   map[int]func(Location){},
	}
}

// Resolve applies the guards to target without moving.
func (n *Navigator) Resolve(target string) (Location, error) {
	authenticated := n.authenticated()
	requested := target

	for range maxRedirects {
		match := n.router.Match(target)
		decision := match.Route.Guard.Decide(authenticated)
		if decision.Allowed() {
			location := Location{Match: match}
			if match.Path != n.router.Match(requested).Path {
				location.RedirectedFrom = requested
			}
			return location, nil
		}
		target = decision.Redirect
	}
	return Location{}, fmt.Errorf("%w: %s", ErrRedirectLoop, requested)
}

func (n *Navigator) Navigate(target string) (Location, error) {
	return n.move(target, false)
}

// Replace moves without growing the history.
func (n *Navigator) Replace(target string) (Location, error) {
	return n.move(target, true)
}

// Refresh re-applies the guards to the current location, e.g. after the
// session changed.
func (n *Navigator) Refresh() (Location, error) {
	current, ok := n.current()
	if !ok {
		return n.Replace(HomePath)
	}

	target := current.Path
	if len(current.Query) > 0 {
		target += "?" + current.Query.Encode()
	}
	return n.Replace(target)
}

func (n *Navigator) move(target string, replace bool) (Location, error) {
	location, err := n.Resolve(target)
	if err != nil {
		return Location{}, err
	}

	n.mu.Lock()
	if replace && len(n.history) > 0 {
		n.history[len(n.history)-1] = location
	} else {
		n.history = append(n.history, location)
	}
	subscribers := make([]func(Location), 0, len(n.subscribers))
	for _, fn := range n.subscribers {
		subscribers = append(subscribers, fn)
	}
	n.mu.Unlock()

	if location.RedirectedFrom != "" {
		n.logger.Debug("navigation redirected", "from", location.RedirectedFrom, "to", location.Path)
	}

	for _, fn := range subscribers {
		fn(location)
	}
	return location, nil
}

func (n *Navigator) current() (Location, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if len(n.history) == 0 {
		return Location{}, false
	}
	return n.history[len(n.history)-1], true
}

// Current returns the current location, the zero Location before the first navigation.
func (n *Navigator) Current() Location {
	location, _ := n.current()
	return location
}

func (n *Navigator) History() []Location {
	n.mu.Lock()
	defer n.mu.Unlock()

	return append([]Location(nil), n.history...)
}

func (n *Navigator) Subscribe(fn func(Location)) func() {
	n.mu.Lock()
	defer n.mu.Unlock()

	id := n.nextID
	n.nextID++
	n.subscribers[id] = fn

	return func() {
		n.mu.Lock()
		defer n.mu.Unlock()

		delete(n.subscribers, id)
	}
}
