package cmd

import (
	"context"

	"github.com/urfave/cli/v3"

	"yallapost/internal/app"
	"yallapost/internal/validation"
	"yallapost/pkg/yalla"
)

var accountCmd = &cli.Command{
	Name:  "account",
	Usage: "Manage your account",
	Commands: []*cli.Command{
		{
			Name:  "password",
			Usage: "Change your password, the session ends afterwards",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "current", Required: true},
				&cli.StringFlag{Name: "new", Required: true},
			},
			Action: func(ctx context.Context, c *cli.Command) error {
				return withApp(ctx, c, func(ctx context.Context, a *app.App, _ *printer) error {
					done, err := a.Flows.ChangePassword(ctx, validation.ChangePasswordForm{
						Password:    c.String("current"),
						NewPassword: c.String("new"),
					})
					if err != nil {
						return err
					}

					select {
					case <-done:
						return nil
					case <-ctx.Done():
						return ctx.Err()
					}
				})
			},
		},
		{
			Name:      "photo",
			Usage:     "Upload a new profile photo",
			ArgsUsage: "<path>",
			Action: func(ctx context.Context, c *cli.Command) error {
				path, err := arg(c, 0, "path")
				if err != nil {
					return err
				}
				photo, err := readFile(path)
				if err != nil {
					return err
				}
				return withApp(ctx, c, func(ctx context.Context, a *app.App, p *printer) error {
					if err := a.Flows.UploadPhoto(ctx, validation.PhotoForm{Photos: []*yalla.File{photo}}); err != nil {
						return err
					}
					if user := a.Session.User(); user != nil {
						p.User(user)
					}
					return nil
				})
			},
		},
	},
}
