package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/k0kubun/pp"
	"github.com/urfave/cli/v3"

	"yallapost/internal/core"
	"yallapost/internal/flows"
	"yallapost/internal/timefmt"
	"yallapost/pkg/yalla"
)

// printer renders command output on stdout and notifications on stderr.
type printer struct {
	out io.Writer
	err io.Writer
	raw bool
	now func() time.Time
}

func newPrinter(c *cli.Command) *printer {
	root := c.Root()
	return &printer{out: root.Writer, err: root.ErrWriter, raw: c.Bool("raw"), now: time.Now}
}

var levelMarks = map[core.Level]string{
	core.LevelInfo:    "•",
	core.LevelSuccess: "✓",
	core.LevelError:   "✗",
}

func (p *printer) Notify(_ context.Context, notification core.Notification) {
	fmt.Fprintf(p.err, "%s %s\n", levelMarks[notification.Level], notification.Message)
}

func (p *printer) dump(v any) bool {
	if p.raw {
		pp.Fprintln(p.out, v) //nolint:errcheck
	}
	return p.raw
}

func (p *printer) User(user *yalla.User) {
	if p.dump(user) {
		return
	}

	fmt.Fprintf(p.out, "%s <%s>\n", user.Name, user.Email)
	fmt.Fprintf(p.out, "  id:     %s\n", user.ID)
	if user.Gender != "" {
		fmt.Fprintf(p.out, "  gender: %s\n", user.Gender)
	}
	if user.DateOfBirth != "" {
		fmt.Fprintf(p.out, "  born:   %s\n", strings.TrimSuffix(user.DateOfBirth, "T00:00:00.000Z"))
	}
	if user.HasCustomPhoto() {
		fmt.Fprintf(p.out, "  photo:  %s\n", user.Photo)
	}
	if !user.CreatedAt.IsZero() {
		fmt.Fprintf(p.out, "  joined: %s\n", humanize.Time(user.CreatedAt))
	}
}

func (p *printer) Page(page *yalla.PostPage, viewer *yalla.User) {
	if p.dump(page) {
		return
	}

	if len(page.Posts) == 0 {
		fmt.Fprintln(p.out, "No posts yet.")
		return
	}

	for _, post := range page.Posts {
		p.post(post, viewer, false)
		fmt.Fprintln(p.out)
	}

	info := page.Pagination
	fmt.Fprintf(p.out, "page %d of %d, %s posts", info.CurrentPage, max(info.NumberOfPages, 1), humanize.Comma(int64(info.Total)))
	if page.HasNext() {
		fmt.Fprintf(p.out, ", next: --page %d", info.CurrentPage+1)
	}
	fmt.Fprintln(p.out)
}

func (p *printer) Post(post *yalla.Post, viewer *yalla.User) {
	if p.dump(post) {
		return
	}
	p.post(post, viewer, true)
}

func (p *printer) post(post *yalla.Post, viewer *yalla.User, withComments bool) {
	now := p.now()

	fmt.Fprintf(p.out, "%s · %s · %s%s\n", post.User.Name, timefmt.Relative(now, post.CreatedAt), post.ID, ownership(viewer, post.User.ID))
	fmt.Fprintf(p.out, "  %s\n", post.Body)
	if post.Image != "" {
		fmt.Fprintf(p.out, "  [image] %s\n", post.Image)
	}

	if !withComments {
		if n := len(post.Comments); n > 0 {
			fmt.Fprintf(p.out, "  %d %s\n", n, plural(n, "comment", "comments"))
		}
		return
	}

	for _, comment := range post.Comments {
		fmt.Fprintf(p.out, "  ↳ %s · %s · %s%s\n", comment.Creator.Name, timefmt.Relative(now, comment.CreatedAt), comment.ID, ownership(viewer, comment.Creator.ID))
		fmt.Fprintf(p.out, "    %s\n", comment.Content)
	}
}

// ownership marks content the viewer may edit and delete.
func ownership(viewer *yalla.User, authorID string) string {
	if flows.CanModify(viewer, authorID) {
		return " (yours)"
	}
	return ""
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
