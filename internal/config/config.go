package config

import (
	"errors"
	"fmt"
	"net/url"
	"slices"
	"strings"
	"time"
)

var ErrInvalidConfig = errors.New("invalid config")

const (
	TokenStoreFile   = "file"
	TokenStoreNATS   = "nats"
	TokenStoreRedis  = "redis"
	TokenStoreMemory = "memory"
)

var TokenStores = []string{TokenStoreFile, TokenStoreNATS, TokenStoreRedis, TokenStoreMemory}

// DefaultAllowedOrigins are the local dev servers of the web client.
var DefaultAllowedOrigins = []string{
	"http://localhost:3000",
	"http://localhost:5173",
	"http://127.0.0.1:3000",
	"http://127.0.0.1:5173",
}

type Config struct {
	LogLevel string `flag:"log-level"`

	BaseURL        string        `flag:"base-url"`
	RequestTimeout time.Duration `flag:"request-timeout"`
	PageSize       int           `flag:"page-size"`

	TokenStore string `flag:"token-store"`
	TokenFile  string `flag:"token-file"`

	NATSURL    string `flag:"nats-url"`
	NATSBucket string `flag:"nats-bucket"`
	NATSInit   bool   `flag:"nats-init"`

	RedisAddr string `flag:"redis-addr"`
	RedisDB   int    `flag:"redis-db"`

	LogoutDelay time.Duration `flag:"logout-delay"`

	ListenAddr     string   `flag:"listen-addr"`
	MetricsAddr    string   `flag:"metrics-addr"`
	AllowedOrigins []string `flag:"allowed-origins"`
}

// Origins returns the browser origins the gateway answers cross-origin
// requests for.
func (c *Config) Origins() []string {
	if len(c.AllowedOrigins) == 0 {
		return DefaultAllowedOrigins
	}
	return c.AllowedOrigins
}

func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("%w: base url is required", ErrInvalidConfig)
	}
	if u, err := url.Parse(c.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%w: base url %q is not absolute", ErrInvalidConfig, c.BaseURL)
	}
	if !slices.Contains(TokenStores, c.TokenStore) {
		return fmt.Errorf("%w: unknown token store %q, allowed values are: %s", ErrInvalidConfig, c.TokenStore, TokenStores)
	}
	if c.TokenStore == TokenStoreFile && c.TokenFile == "" {
		return fmt.Errorf("%w: token file is required for the file token store", ErrInvalidConfig)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("%w: request timeout must be positive", ErrInvalidConfig)
	}
	if c.LogoutDelay < 0 {
		return fmt.Errorf("%w: logout delay must not be negative", ErrInvalidConfig)
	}
	for _, origin := range c.AllowedOrigins {
		if strings.Contains(origin, "*") {
			return fmt.Errorf("%w: wildcard origin %q is not allowed, the gateway acts as the signed in user", ErrInvalidConfig, origin)
		}
		if u, err := url.Parse(origin); err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("%w: origin %q must be scheme://host[:port]", ErrInvalidConfig, origin)
		}
	}
	return nil
}
