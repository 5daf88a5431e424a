package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gabriel-vasile/mimetype"
	"github.com/urfave/cli/v3"

	"yallapost/internal/app"
	"yallapost/internal/cmd/flags"
	"yallapost/internal/validation"
	"yallapost/pkg/yalla"
)

var ErrMissingArgument = errors.New("missing argument")

func arg(c *cli.Command, i int, name string) (string, error) {
	value := c.Args().Get(i)
	if value == "" {
		return "", fmt.Errorf("%w: %s", ErrMissingArgument, name)
	}
	return value, nil
}

// readFile loads an upload from disk, the content type is sniffed from the data.
func readFile(path string) (*yalla.File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return &yalla.File{
		Name:        filepath.Base(path),
		ContentType: mimetype.Detect(data).String(),
		Data:        data,
	}, nil
}

func postForm(c *cli.Command) (validation.PostForm, error) {
	form := validation.PostForm{Body: c.String("body")}
	if path := c.String("image"); path != "" {
		image, err := readFile(path)
		if err != nil {
			return form, err
		}
		form.Image = image
	}
	return form, nil
}

var postFlags = []cli.Flag{
	&cli.StringFlag{Name: "body", Aliases: []string{"b"}, Usage: "The text of the post"},
	&cli.StringFlag{Name: "image", Aliases: []string{"i"}, Usage: "Path to a jpeg or png image"},
}

var postsCmd = &cli.Command{
	Name:  "posts",
	Usage: "Read and write posts",
	Commands: []*cli.Command{
		{
			Name:  "list",
			Usage: "Show the feed, newest first",
			Flags: []cli.Flag{flags.Page},
			Action: func(ctx context.Context, c *cli.Command) error {
				return withApp(ctx, c, func(ctx context.Context, a *app.App, p *printer) error {
					page, err := a.Views.LoadFeed(ctx, int(c.Int("page")))
					if err != nil {
						return err
					}
					// ownership marks only need the profile when it is already there
					p.Page(page, a.Session.User())
					return nil
				})
			},
		},
		{
			Name:  "mine",
			Usage: "Show your own posts",
			Flags: []cli.Flag{flags.Page},
			Action: func(ctx context.Context, c *cli.Command) error {
				return withApp(ctx, c, func(ctx context.Context, a *app.App, p *printer) error {
					page, err := a.Views.LoadUserPosts(ctx, int(c.Int("page")))
					if err != nil {
						return err
					}
					p.Page(page, a.Session.User())
					return nil
				})
			},
		},
		{
			Name:      "show",
			Usage:     "Show a post with its comments",
			ArgsUsage: "<post-id>",
			Action: func(ctx context.Context, c *cli.Command) error {
				id, err := arg(c, 0, "post-id")
				if err != nil {
					return err
				}
				return withApp(ctx, c, func(ctx context.Context, a *app.App, p *printer) error {
					post, err := a.Views.LoadPostDetails(ctx, id)
					if err != nil {
						return err
					}
					user, _ := a.Session.AwaitProfile(ctx)
					p.Post(post, user)
					return nil
				})
			},
		},
		{
			Name:  "create",
			Usage: "Publish a post",
			Flags: postFlags,
			Action: func(ctx context.Context, c *cli.Command) error {
				form, err := postForm(c)
				if err != nil {
					return err
				}
				return withApp(ctx, c, func(ctx context.Context, a *app.App, _ *printer) error {
					return a.Flows.CreatePost(ctx, form)
				})
			},
		},
		{
			Name:      "edit",
			Usage:     "Replace the text and image of one of your posts",
			ArgsUsage: "<post-id>",
			Flags:     postFlags,
			Action: func(ctx context.Context, c *cli.Command) error {
				id, err := arg(c, 0, "post-id")
				if err != nil {
					return err
				}
				form, err := postForm(c)
				if err != nil {
					return err
				}
				return withApp(ctx, c, func(ctx context.Context, a *app.App, _ *printer) error {
					return a.Flows.EditPost(ctx, id, form)
				})
			},
		},
		{
			Name:      "delete",
			Usage:     "Delete one of your posts",
			ArgsUsage: "<post-id>",
			Action: func(ctx context.Context, c *cli.Command) error {
				id, err := arg(c, 0, "post-id")
				if err != nil {
					return err
				}
				return withApp(ctx, c, func(ctx context.Context, a *app.App, _ *printer) error {
					return a.Flows.DeletePost(ctx, id)
				})
			},
		},
	},
}
