package cmd

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"yallapost/internal/app"
	"yallapost/internal/validation"
)

var loginCmd = &cli.Command{
	Name:  "login",
	Usage: "Sign in and keep the session token",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "email", Aliases: []string{"e"}, Required: true, Sources: cli.EnvVars("YALLA_EMAIL")},
		&cli.StringFlag{Name: "password", Required: true, Sources: cli.EnvVars("YALLA_PASSWORD")},
	},
	Action: func(ctx context.Context, c *cli.Command) error {
		return withApp(ctx, c, func(ctx context.Context, a *app.App, p *printer) error {
			err := a.Flows.Login(ctx, validation.LoginForm{
				Email:    c.String("email"),
				Password: c.String("password"),
			})
			if err != nil {
				return err
			}

			user, err := a.Session.AwaitProfile(ctx)
			if err != nil {
				return fmt.Errorf("signed in, but the profile could not be loaded: %w", err)
			}
			fmt.Fprintf(p.out, "Logged in as %s\n", user.Name)
			return nil
		})
	},
}

var registerCmd = &cli.Command{
	Name:  "register",
	Usage: "Create an account",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "name", Required: true},
		&cli.StringFlag{Name: "email", Aliases: []string{"e"}, Required: true},
		&cli.StringFlag{Name: "password", Required: true},
		&cli.StringFlag{Name: "re-password", Required: true},
		&cli.StringFlag{Name: "date-of-birth", Usage: "YYYY-MM-DD", Required: true},
		&cli.StringFlag{Name: "gender", Usage: "male or female", Required: true},
	},
	Action: func(ctx context.Context, c *cli.Command) error {
		return withApp(ctx, c, func(ctx context.Context, a *app.App, _ *printer) error {
			return a.Flows.Register(ctx, validation.RegisterForm{
				Name:        c.String("name"),
				Email:       c.String("email"),
				Password:    c.String("password"),
				RePassword:  c.String("re-password"),
				DateOfBirth: c.String("date-of-birth"),
				Gender:      c.String("gender"),
			})
		})
	},
}

var logoutCmd = &cli.Command{
	Name:  "logout",
	Usage: "Forget the session token",
	Action: func(ctx context.Context, c *cli.Command) error {
		return withApp(ctx, c, func(ctx context.Context, a *app.App, _ *printer) error {
			return a.Flows.Logout(ctx)
		})
	},
}

var whoamiCmd = &cli.Command{
	Name:  "whoami",
	Usage: "Show the profile of the session user",
	Action: func(ctx context.Context, c *cli.Command) error {
		return withApp(ctx, c, func(ctx context.Context, a *app.App, p *printer) error {
			user, err := a.Session.AwaitProfile(ctx)
			if err != nil {
				return err
			}
			p.User(user)
			return nil
		})
	},
}
