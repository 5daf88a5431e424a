package cmd

import (
	"context"
	"errors"
	"log/slog"
	"syscall"
	"time"

	"github.com/urfave/cli/v3"
	"github.com/zhulik/pal"

	"yallapost/internal/app"
	"yallapost/internal/cmd/flags"
	"yallapost/internal/config"
	"yallapost/internal/gateway"
	"yallapost/internal/metrics"
)

var serveCmd = &cli.Command{
	Name:  "serve",
	Usage: "Serve the session over HTTP for browser frontends, with metrics",
	Flags: []cli.Flag{
		flags.ListenAddr,
		flags.MetricsAddr,
		flags.AllowedOrigins,
	},
	Action: func(ctx context.Context, c *cli.Command) error {
		cfg, err := loadConfig(c)
		if err != nil {
			return err
		}

		logger := slog.Default()
		a, err := app.New(ctx, cfg, logger, app.Options{
			Notifier:  gateway.Notifier{Logger: logger},
			Confirmer: gateway.Confirmer{},
		})
		if err != nil {
			return err
		}

		err = pal.New(
			pal.ProvideConst[*slog.Logger](logger),
			pal.ProvideConst[*config.Config](cfg),
			pal.ProvideConst[*app.App](a),
			pal.Provide[*gateway.Server, gateway.Server](),
			pal.Provide[*metrics.Server, metrics.Server](),
			pal.Provide[*metrics.Collector, metrics.Collector](),
		).
			InitTimeout(2*time.Second).
			HealthCheckTimeout(1*time.Second).
			ShutdownTimeout(10*time.Second).
			Run(ctx, syscall.SIGINT, syscall.SIGTERM)
		if err != nil {
			// pal shuts the app down only once it was initialized
			return errors.Join(err, a.Close(context.WithoutCancel(ctx)))
		}
		return nil
	},
}
