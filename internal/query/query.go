package query

import (
	"context"
	"fmt"
	"time"
)

type Status int

const (
	// StatusDisabled means the query prerequisites are missing, nothing is fetched.
	StatusDisabled Status = iota
	StatusLoading
	StatusSuccess
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusSuccess:
		return "success"
	case StatusError:
		return "error"
	default:
		return "disabled"
	}
}

// Query declares how a view's data is keyed and fetched.
type Query[T any] struct {
	Key     Key
	Fetch   func(ctx context.Context) (T, error)
	Enabled bool
}

type Result[T any] struct {
	Status Status
	Data   T
	Err    error

	// Fetching is set while a fetch for the key is in flight.
	Fetching bool
	// Stale is set when Data is served while a newer version is expected.
	Stale     bool
	UpdatedAt time.Time
}

func (q Query[T]) fetchFunc() FetchFunc {
	return func(ctx context.Context) (any, error) {
		return q.Fetch(ctx)
	}
}

// Read returns the cached state of q immediately, starting a fetch when the
// entry is missing or stale. A failed fetch is only retried after the entry
// is invalidated or through Load.
func Read[T any](c *Cache, q Query[T]) Result[T] {
	if !q.Enabled {
		reads.WithLabelValues(q.Key.Kind.String(), "disabled").Inc()
		return Result[T]{Status: StatusDisabled}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	e := c.entry(q.Key)
	e.fetch = q.fetchFunc()

	if e.hasData && !e.stale {
		reads.WithLabelValues(q.Key.Kind.String(), "hit").Inc()
		return result[T](e)
	}

	if e.err != nil && !e.stale && !e.fetching {
		reads.WithLabelValues(q.Key.Kind.String(), "error").Inc()
		return result[T](e)
	}

	reads.WithLabelValues(q.Key.Kind.String(), "miss").Inc()
	if !e.fetching {
		c.flight(q.Key, e)
	}
	return result[T](e)
}

// Load returns fresh data for q, waiting for a fetch if needed.
func Load[T any](ctx context.Context, c *Cache, q Query[T]) (T, error) {
	var zero T

	if !q.Enabled {
		return zero, fmt.Errorf("%w: %s", ErrDisabled, q.Key)
	}

	c.mu.Lock()
	e := c.entry(q.Key)
	e.fetch = q.fetchFunc()

	if e.hasData && !e.stale && !e.fetching {
		reads.WithLabelValues(q.Key.Kind.String(), "hit").Inc()
		data := e.data.(T)
		c.mu.Unlock()
		return data, nil
	}

	reads.WithLabelValues(q.Key.Kind.String(), "miss").Inc()
	ch := c.flight(q.Key, e)
	c.mu.Unlock()

	select {
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		data, _ := res.Val.(T)
		return data, nil
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

// Peek returns the cached state of key without fetching.
func Peek[T any](c *Cache, key Key) Result[T] {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return Result[T]{Status: StatusLoading}
	}
	return result[T](e)
}

func result[T any](e *entry) Result[T] {
	res := Result[T]{
		Err:       e.err,
		Fetching:  e.fetching,
		Stale:     e.stale,
		UpdatedAt: e.updatedAt,
	}

	switch {
	case e.hasData:
		res.Status = StatusSuccess
		res.Data, _ = e.data.(T)
	case e.err != nil && !e.fetching:
		res.Status = StatusError
	default:
		res.Status = StatusLoading
	}
	return res
}
