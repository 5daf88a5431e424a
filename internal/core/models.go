package core

import (
	"context"
	"log/slog"
)

type Level int

const (
	LevelInfo Level = iota
	LevelSuccess
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelSuccess:
		return "success"
	case LevelError:
		return "error"
	default:
		return "info"
	}
}

type Notification struct {
	Level   Level
	Message string
}

// LogNotifier writes notifications to a logger, used when no interactive surface exists.
type LogNotifier struct {
	Logger *slog.Logger
}

func (n LogNotifier) Notify(ctx context.Context, notification Notification) {
	level := slog.LevelInfo
	if notification.Level == LevelError {
		level = slog.LevelWarn
	}
	n.Logger.Log(ctx, level, notification.Message, "level", notification.Level.String())
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(ctx context.Context, prompt string) (bool, error)

func (f ConfirmFunc) Confirm(ctx context.Context, prompt string) (bool, error) {
	return f(ctx, prompt)
}

// NotifyFunc adapts a function to Notifier.
type NotifyFunc func(ctx context.Context, notification Notification)

func (f NotifyFunc) Notify(ctx context.Context, notification Notification) {
	f(ctx, notification)
}
