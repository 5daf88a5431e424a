package metrics

import (
	"context"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"yallapost/internal/app"
)

const collectInterval = 15 * time.Second

var (
	cacheEntries = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "yalla_query_cache_entries",
		Help: "Number of entries held by the query cache.",
	})
	authenticated = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "yalla_session_authenticated",
		Help: "1 when the session holds a token.",
	})
)

// Collector periodically samples the client state into gauges.
type Collector struct {
	Logger *slog.Logger
	App    *app.App

	Interval time.Duration
}

func (c *Collector) Init(context.Context) error {
	c.Logger = c.Logger.With("component", "metrics.Collector")
	if c.Interval <= 0 {
		c.Interval = collectInterval
	}
	return nil
}

func (c *Collector) Run(ctx context.Context) error {
	ticker := time.NewTicker(c.Interval)
	defer ticker.Stop()

	c.Collect()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			c.Collect()
		}
	}
}

func (c *Collector) Collect() {
	entries := c.App.CacheEntries()
	cacheEntries.Set(float64(entries))

	if c.App.Authenticated() {
		authenticated.Set(1)
	} else {
		authenticated.Set(0)
	}

	c.Logger.Debug("collected metrics", "cache_entries", entries)
}
