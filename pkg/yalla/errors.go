package yalla

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrApplication  = errors.New("application error")
	ErrTransport    = errors.New("transport error")
	ErrTimeout      = errors.New("request timed out")
)

// APIError is returned for every response the backend rejected.
type APIError struct {
	Status  int
	Message string
	Kind    error
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: status %d", e.Kind, e.Status)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.Kind
}

// Message returns the server supplied message of err, if any.
func Message(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return ""
}

// IsRetryable reports whether repeating the request could succeed.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrTimeout) || errors.Is(err, ErrTransport)
}

func transportError(err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}

	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	}
	return fmt.Errorf("%w: %w", ErrTransport, err)
}

func statusError(status int, message string) error {
	kind := ErrApplication
	if status == http.StatusUnauthorized {
		kind = ErrUnauthorized
	}
	return &APIError{Status: status, Message: message, Kind: kind}
}
