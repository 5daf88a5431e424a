package cmd

import (
	"context"

	"github.com/urfave/cli/v3"

	"yallapost/internal/app"
	"yallapost/internal/validation"
)

var contentFlag = &cli.StringFlag{Name: "content", Aliases: []string{"c"}, Usage: "The text of the comment"}

var commentsCmd = &cli.Command{
	Name:  "comments",
	Usage: "Comment on posts",
	Commands: []*cli.Command{
		{
			Name:      "add",
			Usage:     "Comment on a post",
			ArgsUsage: "<post-id>",
			Flags:     []cli.Flag{contentFlag},
			Action: func(ctx context.Context, c *cli.Command) error {
				postID, err := arg(c, 0, "post-id")
				if err != nil {
					return err
				}
				return withApp(ctx, c, func(ctx context.Context, a *app.App, _ *printer) error {
					return a.Flows.AddComment(ctx, postID, validation.CommentForm{Content: c.String("content")})
				})
			},
		},
		{
			Name:      "edit",
			Usage:     "Change one of your comments",
			ArgsUsage: "<post-id> <comment-id>",
			Flags:     []cli.Flag{contentFlag},
			Action: func(ctx context.Context, c *cli.Command) error {
				postID, err := arg(c, 0, "post-id")
				if err != nil {
					return err
				}
				commentID, err := arg(c, 1, "comment-id")
				if err != nil {
					return err
				}
				return withApp(ctx, c, func(ctx context.Context, a *app.App, _ *printer) error {
					return a.Flows.EditComment(ctx, postID, commentID, validation.CommentForm{Content: c.String("content")})
				})
			},
		},
		{
			Name:      "delete",
			Usage:     "Delete one of your comments",
			ArgsUsage: "<post-id> <comment-id>",
			Action: func(ctx context.Context, c *cli.Command) error {
				postID, err := arg(c, 0, "post-id")
				if err != nil {
					return err
				}
				commentID, err := arg(c, 1, "comment-id")
				if err != nil {
					return err
				}
				return withApp(ctx, c, func(ctx context.Context, a *app.App, _ *printer) error {
					return a.Flows.DeleteComment(ctx, postID, commentID)
				})
			},
		},
	},
}
