package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/urfave/cli/v3"
)

// prompt asks yes/no questions on the terminal, --yes answers them all.
type prompt struct {
	in  io.Reader
	out io.Writer
	yes bool
}

func newPrompt(c *cli.Command) *prompt {
	root := c.Root()
	return &prompt{in: root.Reader, out: root.ErrWriter, yes: c.Bool("yes")}
}

func (p *prompt) Confirm(ctx context.Context, question string) (bool, error) {
	if p.yes {
		return true, nil
	}

	fmt.Fprintf(p.out, "%s [y/N]: ", question)

	answers := make(chan string, 1)
	go func() {
		line, _ := bufio.NewReader(p.in).ReadString('\n')
		answers <- strings.ToLower(strings.TrimSpace(line))
	}()

	select {
	case answer := <-answers:
		return answer == "y" || answer == "yes", nil
	case <-ctx.Done():
		return false, ctx.Err()
	}
}
