package yalla

import (
	"time"

	"resty.dev/v3"
)

const (
	DefaultTimeout  = 15 * time.Second
	DefaultPageSize = 40
)

// TokenSource provides the session token at request build time.
type TokenSource interface {
	Token() string
}

// TokenFunc adapts a function to TokenSource.
type TokenFunc func() string

func (f TokenFunc) Token() string {
	return f()
}

type ClientConfig struct {
	BaseURL  string
	Timeout  time.Duration
	PageSize int

	Tokens TokenSource

	TransportSettings *resty.TransportSettings

	ResponseMiddlewares []resty.ResponseMiddleware
	RequestMiddlewares  []resty.RequestMiddleware
}

var DefaultConfig = &ClientConfig{
	Timeout:  DefaultTimeout,
	PageSize: DefaultPageSize,
	TransportSettings: &resty.TransportSettings{
		DialerTimeout:         5 * time.Second,
		DialerKeepAlive:       30 * time.Second,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   5 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		ResponseHeaderTimeout: 10 * time.Second,
	},
}
