package core

import "errors"

var (
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrCancelled        = errors.New("cancelled")
	ErrPending          = errors.New("request already pending")
)
