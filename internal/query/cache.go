package query

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/samber/lo"
	"golang.org/x/sync/singleflight"
)

var (
	ErrDisabled = errors.New("query disabled")
	ErrClosed   = errors.New("query cache closed")
)

var (
	reads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "yalla_query_reads_total",
		Help: "Query cache reads by kind and outcome.",
	}, []string{"kind", "outcome"})

	fetches = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "yalla_query_fetches_total",
		Help: "Query fetches by kind and result.",
	}, []string{"kind", "result"})

	invalidations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "yalla_query_invalidations_total",
		Help: "Cache entries marked stale by kind.",
	}, []string{"kind"})
)

type FetchFunc func(ctx context.Context) (any, error)

type entry struct {
	data      any
	hasData   bool
	err       error
	stale     bool
	fetching  bool
	version   uint64
	updatedAt time.Time

	fetch       FetchFunc
	subscribers map[int]func()
}

// Cache is a keyed store of server data. Entries are refetched on read once
// stale and at most one fetch per key is in flight.
type Cache struct {
	logger *slog.Logger

	mu      sync.Mutex
	entries map[Key]*entry
	group   singleflight.Group
	nextSub int
	closed  bool

	// epoch changes on Clear, fetches of an earlier epoch are discarded
	epoch  uint64
	ctx    context.Context
	cancel context.CancelFunc

	wg sync.WaitGroup
}

func New(logger *slog.Logger) *Cache {
	ctx, cancel := context.WithCancel(context.Background())

	return &Cache{
		logger:  logger.With("component", "query.Cache"),
		entries: map[Key]*entry{},
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Close cancels running fetches and waits for them.
func (c *Cache) Close() {
	c.mu.Lock()
	c.closed = true
	c.cancel()
	c.mu.Unlock()

	c.wg.Wait()
}

func (c *Cache) entry(key Key) *entry {
	e, ok := c.entries[key]
	if !ok {
		e = &entry{subscribers: map[int]func(){}}
		c.entries[key] = e
	}
	return e
}

func (c *Cache) flightKey(key Key) string {
	return fmt.Sprintf("%d@%s", c.epoch, key)
}

// flight starts a fetch for key or joins the running one. c.mu must be held.
func (c *Cache) flight(key Key, e *entry) <-chan singleflight.Result {
	if c.closed {
		ch := make(chan singleflight.Result, 1)
		ch <- singleflight.Result{Err: ErrClosed}
		return ch
	}

	flightKey := c.flightKey(key)
	if !e.fetching {
		e.fetching = true
		c.wg.Add(1)
	}

	epoch, version, fetch, ctx := c.epoch, e.version, e.fetch, c.ctx

	return c.group.DoChan(flightKey, func() (any, error) {
		defer c.wg.Done()

		data, err := fetch(ctx)
		c.store(key, flightKey, epoch, version, data, err)
		return data, err
	})
}

func (c *Cache) store(key Key, flightKey string, epoch, version uint64, data any, err error) {
	c.mu.Lock()

	c.group.Forget(flightKey)

	if epoch != c.epoch {
		c.mu.Unlock()
		c.logger.Debug("discarding fetch of a cleared cache", "key", key)
		return
	}

	e := c.entry(key)
	e.fetching = false

	if err != nil {
		fetches.WithLabelValues(key.Kind.String(), "error").Inc()
		e.err = err
		e.stale = e.version != version
		c.logger.Debug("fetch failed", "key", key, "error", err)
	} else {
		fetches.WithLabelValues(key.Kind.String(), "success").Inc()
		e.data, e.hasData, e.err = data, true, nil
		e.updatedAt = time.Now()
		e.stale = e.version != version
	}

	subscribers := lo.Values(e.subscribers)
	c.mu.Unlock()

	for _, fn := range subscribers {
		fn()
	}
}

// Invalidate marks every entry matched by any of matchers stale. Entries with
// subscribers are refetched right away, the others on their next read.
func (c *Cache) Invalidate(matchers ...Matcher) int {
	c.mu.Lock()

	var (
		count       int
		subscribers []func()
	)
	for key, e := range c.entries {
		if !lo.SomeBy(matchers, func(m Matcher) bool { return m.Matches(key) }) {
			continue
		}

		count++
		e.version++
		e.stale = true
		invalidations.WithLabelValues(key.Kind.String()).Inc()

		if len(e.subscribers) > 0 && e.fetch != nil {
			c.flight(key, e)
		}
		if len(e.subscribers) > 0 {
			subscribers = append(subscribers, lo.Values(e.subscribers)...)
		}
	}
	c.mu.Unlock()

	c.logger.Debug("invalidated", "matchers", matchers, "entries", count)

	for _, fn := range subscribers {
		fn()
	}
	return count
}

// Subscribe calls fn whenever the entry for key changes.
func (c *Cache) Subscribe(key Key, fn func()) func() {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.nextSub
	c.nextSub++
	c.entry(key).subscribers[id] = fn

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()

		if e, ok := c.entries[key]; ok {
			delete(e.subscribers, id)
		}
	}
}

// Clear drops every entry and abandons running fetches.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cancel()
	if !c.closed {
		c.ctx, c.cancel = context.WithCancel(context.Background())
	}
	c.epoch++

	for key, e := range c.entries {
		if len(e.subscribers) == 0 {
			delete(c.entries, key)
			continue
		}
		c.entries[key] = &entry{subscribers: e.subscribers}
	}
}

// Keys lists the cached keys.
func (c *Cache) Keys() []Key {
	c.mu.Lock()
	defer c.mu.Unlock()

	return lo.Keys(c.entries)
}
