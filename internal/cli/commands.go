package cli

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/boddenberg/finance-tracker-go/internal/app"
	"github.com/boddenberg/finance-tracker-go/internal/domain"
	"github.com/boddenberg/finance-tracker-go/internal/ui"

	"github.com/spf13/cobra"
)

var errNotLoggedIn = errors.New("not logged in, run `ftclient login` first")

func (c *CLI) newLoginCommand() *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in with email and password",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withApp(cmd, func(ctx context.Context, a *app.App) error {
				return c.login(ctx, a, email)
			})
		},
	}
	cmd.Flags().StringVarP(&email, "email", "e", "", "Account email (prompted when empty)")
	return cmd
}

func (c *CLI) login(ctx context.Context, a *app.App, email string) error {
	var err error
	if email == "" {
		if email, err = c.prompt("Email: "); err != nil {
			return err
		}
	}
	password, err := c.readPassword("Password: ")
	if err != nil {
		return err
	}
	return authOutcome(a, a.Dispatcher.Dispatch(ctx, "login", []string{email, password}))
}

func (c *CLI) newRegisterCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "register",
		Short: "Create an account",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withApp(cmd, func(ctx context.Context, a *app.App) error {
				first, err := c.prompt("First name: ")
				if err != nil {
					return err
				}
				last, err := c.prompt("Last name: ")
				if err != nil {
					return err
				}
				email, err := c.prompt("Email: ")
				if err != nil {
					return err
				}
				password, err := c.readPassword("Password: ")
				if err != nil {
					return err
				}
				err = a.Auth.Register(ctx, domain.RegisterRequest{
					Email: email, Password: password, FirstName: first, LastName: last,
				})
				return authOutcome(a, err)
			})
		},
	}
}

// authOutcome turns a failed login or registration into the auth error line.
func authOutcome(a *app.App, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, domain.ErrValidationSkipped):
		return errors.New("all fields are required")
	case a.Shell.AuthError() != "":
		return errors.New(a.Shell.AuthError())
	default:
		return err
	}
}

func (c *CLI) newLogoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withApp(cmd, func(ctx context.Context, a *app.App) error {
				a.Auth.Logout(ctx)
				fmt.Fprintln(c.out, "Logged out.")
				return nil
			})
		},
	}
}

func (c *CLI) newWhoamiCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged-in user",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withApp(cmd, func(ctx context.Context, a *app.App) error {
				sess := a.Session.Current()
				if !sess.Authenticated() {
					return errNotLoggedIn
				}
				fmt.Fprintf(c.out, "%s %s <%s>\n", sess.User.FirstName, sess.User.LastName, sess.User.Email)
				return nil
			})
		},
	}
}

func (c *CLI) newSendCommand() *cobra.Command {
	var image string
	cmd := &cobra.Command{
		Use:   "send <message>",
		Short: "Send one chat message",
		Example: `  ftclient send "I have 30k in NCB and 5k cash"
  ftclient send --image receipt.jpg "lunch at the office"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withApp(cmd, func(ctx context.Context, a *app.App) error {
				if !a.Session.Current().Authenticated() {
					return errNotLoggedIn
				}
				if image != "" {
					if err := a.Dispatcher.Dispatch(ctx, "attach", []string{image}); err != nil {
						return err
					}
				}
				a.Transcript.Subscribe(c.printTranscript)
				err := a.Dispatcher.Dispatch(ctx, "send", args)
				if errors.Is(err, domain.ErrValidationSkipped) {
					return errors.New("nothing to send")
				}
				return err
			})
		},
	}
	cmd.Flags().StringVarP(&image, "image", "i", "", "Receipt image to upload for OCR")
	return cmd
}

func (c *CLI) printTranscript(e ui.TranscriptEvent) {
	if e.Removed || e.Reset {
		return
	}
	fmt.Fprintln(c.out, ui.RenderMessage(e.Message))
}

// showView switches to view and prints it.
func (c *CLI) showView(ctx context.Context, a *app.App, view domain.View) error {
	err := a.Dispatcher.Dispatch(ctx, "view", []string{string(view)})
	if errors.Is(err, domain.ErrValidationSkipped) {
		return errNotLoggedIn
	}
	if err != nil && domain.KindOf(err) != domain.KindRejected {
		return err
	}
	fmt.Fprint(c.out, render(a, view))
	return nil
}

func render(a *app.App, view domain.View) string {
	switch view {
	case domain.ViewDashboard:
		return ui.RenderDashboard(a.Dashboard.View())
	case domain.ViewTransactions:
		return ui.RenderTransactions(a.Txns.View())
	case domain.ViewAccounts:
		return ui.RenderAccounts(a.Accounts.View())
	case domain.ViewSubscription:
		return ui.RenderPlan(a.Plan.View())
	default:
		return ""
	}
}

func (c *CLI) newDashboardCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "Weekly totals, accounts and recent transactions",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withApp(cmd, func(ctx context.Context, a *app.App) error {
				return c.showView(ctx, a, domain.ViewDashboard)
			})
		},
	}
}

func (c *CLI) newTransactionsCommand() *cobra.Command {
	var page int
	cmd := &cobra.Command{
		Use:     "transactions",
		Aliases: []string{"txns"},
		Short:   "List transactions, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withApp(cmd, func(ctx context.Context, a *app.App) error {
				if err := a.Dispatcher.Dispatch(ctx, "view", []string{string(domain.ViewTransactions)}); err != nil {
					if errors.Is(err, domain.ErrValidationSkipped) {
						return errNotLoggedIn
					}
					return err
				}
				for i := 1; i < page; i++ {
					err := a.Dispatcher.Dispatch(ctx, "next", nil)
					if errors.Is(err, domain.ErrValidationSkipped) {
						break
					}
					if err != nil {
						return err
					}
				}
				fmt.Fprint(c.out, render(a, domain.ViewTransactions))
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&page, "page", "p", 1, "Page to show (1-based)")
	return cmd
}

func (c *CLI) newDeleteCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <transaction id>",
		Short: "Delete a transaction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withApp(cmd, func(ctx context.Context, a *app.App) error {
				if !a.Session.Current().Authenticated() {
					return errNotLoggedIn
				}
				err := a.Dispatcher.Dispatch(ctx, "delete", args)
				if errors.Is(err, domain.ErrValidationSkipped) {
					fmt.Fprintln(c.out, "Cancelled.")
					return nil
				}
				return err
			})
		},
	}
	cmd.Flags().BoolVarP(&c.assumeYes, "yes", "y", false, "Do not ask for confirmation")
	return cmd
}

func (c *CLI) newAccountsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "accounts",
		Short: "List account balances",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withApp(cmd, func(ctx context.Context, a *app.App) error {
				return c.showView(ctx, a, domain.ViewAccounts)
			})
		},
	}
}

func (c *CLI) newPlanCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "plan",
		Aliases: []string{"subscription"},
		Short:   "Show plan and usage",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withApp(cmd, func(ctx context.Context, a *app.App) error {
				return c.showView(ctx, a, domain.ViewSubscription)
			})
		},
	}
}

func (c *CLI) newUpgradeCommand() *cobra.Command {
	return &cobra.Command{
		Use:       "upgrade <monthly|yearly>",
		Short:     "Print the checkout link for the Pro plan",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"monthly", "yearly"},
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withApp(cmd, func(ctx context.Context, a *app.App) error {
				url, err := a.Checkout.URL(args[0])
				if err != nil {
					return err
				}
				fmt.Fprintln(c.out, url)
				return nil
			})
		},
	}
}

func (c *CLI) newStatsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Probe the backend and print call statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withApp(cmd, func(ctx context.Context, a *app.App) error {
				if a.Session.Current().Authenticated() {
					a.Aggregator.LoadDashboard(ctx)
				}
				c.printStats(a)
				return nil
			})
		},
	}
}

func (c *CLI) printStats(a *app.App) {
	snap := a.Metrics.Snapshot()
	fmt.Fprintf(c.out, "calls:           %d\n", snap.Calls)
	fmt.Fprintf(c.out, "session expired: %.0f\n", snap.SessionExpired)

	kinds := make([]string, 0, len(snap.Failures))
	for k := range snap.Failures {
		kinds = append(kinds, string(k))
	}
	sort.Strings(kinds)
	for _, k := range kinds {
		fmt.Fprintf(c.out, "failures[%s]: %.0f\n", k, snap.Failures[domain.ErrorKind(k)])
	}
	if len(kinds) == 0 {
		fmt.Fprintln(c.out, "failures:        none")
	}
}
