package cmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"

	"yallapost/internal/app"
	"yallapost/internal/cmd/flags"
	"yallapost/internal/config"
	"yallapost/internal/flows"
	"yallapost/pkg/clicfg"
)

const VERSION = "0.1.0"

var cmd = &cli.Command{
	Name:    "yalla",
	Usage:   "Yalla Post from the terminal",
	Version: VERSION,
	Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
		if err := initLogger(c.String("log-level")); err != nil {
			return ctx, err
		}
		return ctx, nil
	},
	Flags: flags.Global,
	Commands: []*cli.Command{
		loginCmd,
		registerCmd,
		logoutCmd,
		whoamiCmd,
		postsCmd,
		commentsCmd,
		accountCmd,
		serveCmd,
	},
}

func Run() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		// failures of the backend were already shown as notifications
		var failure *flows.Failure
		if !errors.As(err, &failure) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

func loadConfig(c *cli.Command) (*config.Config, error) {
	cfg := &config.Config{}
	if err := clicfg.ParseFlags(c, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// withApp runs fn against a client session built from the flags.
func withApp(ctx context.Context, c *cli.Command, fn func(ctx context.Context, a *app.App, p *printer) error) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	p := newPrinter(c)

	a, err := app.New(ctx, cfg, slog.Default(), app.Options{
		Notifier:  p,
		Confirmer: newPrompt(c),
	})
	if err != nil {
		return err
	}
	defer a.Close(context.WithoutCancel(ctx)) //nolint:errcheck

	return fn(ctx, a, p)
}
