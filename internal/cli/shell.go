package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/boddenberg/finance-tracker-go/internal/app"
	"github.com/boddenberg/finance-tracker-go/internal/domain"
	"github.com/boddenberg/finance-tracker-go/internal/ui"

	"github.com/spf13/cobra"
)

func (c *CLI) newChatCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Interactive chat shell",
		Long: `Type a message to log transactions. Lines starting with "/" are commands:

  /view <chat|dashboard|transactions|accounts|subscription>
  /next, /prev          page through transactions
  /delete <id>          delete a transaction
  /attach <path>        attach a receipt image to the next message
  /detach               drop the attached image
  /upgrade <interval>   print the checkout link
  /stats                call statistics
  /logout, /quit`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withApp(cmd, c.runShell)
		},
	}
}

func (c *CLI) runShell(ctx context.Context, a *app.App) error {
	if !a.Session.Current().Authenticated() {
		if err := c.login(ctx, a, ""); err != nil {
			return err
		}
	}
	a.Transcript.Subscribe(c.printTranscript)
	fmt.Fprintf(c.out, "Hi %s! Describe a transaction, or /help.\n", a.Shell.UserName())

	for {
		fmt.Fprint(c.out, "› ")
		line, err := c.readLine()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if line == "" {
			continue
		}

		quit, err := c.handleLine(ctx, a, line)
		if err != nil {
			c.errMu.Lock()
			fmt.Fprintln(c.errOut, "Error:", err)
			c.errMu.Unlock()
		}
		if quit {
			return nil
		}
	}
}

// handleLine runs one shell line. It reports true when the shell should exit.
func (c *CLI) handleLine(ctx context.Context, a *app.App, line string) (bool, error) {
	if !strings.HasPrefix(line, "/") {
		err := a.Dispatcher.Dispatch(ctx, "send", []string{line})
		if errors.Is(err, domain.ErrValidationSkipped) {
			return false, nil
		}
		return false, err
	}

	fields := strings.Fields(strings.TrimPrefix(line, "/"))
	if len(fields) == 0 {
		return false, nil
	}
	name, args := fields[0], fields[1:]

	switch name {
	case "quit", "exit":
		return true, nil
	case "help":
		for _, cmd := range a.Dispatcher.Commands() {
			fmt.Fprintln(c.out, "  /"+cmd.Usage)
		}
		return false, nil
	case "stats":
		c.printStats(a)
		return false, nil
	case "logout":
		return true, a.Dispatcher.Dispatch(ctx, "logout", nil)
	}

	err := a.Dispatcher.Dispatch(ctx, name, args)
	var unknown *ui.ErrUnknownCommand
	switch {
	case errors.As(err, &unknown):
		return false, fmt.Errorf("%w, try /help", err)
	case errors.Is(err, domain.ErrValidationSkipped):
		err = nil
	}

	switch name {
	case "view", "next", "prev", "delete":
		fmt.Fprint(c.out, render(a, a.Shell.Active()))
	case "attach":
		if err == nil {
			fmt.Fprintln(c.out, "Image attached. Type a caption, or /send to upload it alone.")
		}
	}
	return !a.Session.Current().Authenticated(), err
}
