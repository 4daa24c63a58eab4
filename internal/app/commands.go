package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/boddenberg/finance-tracker-go/internal/domain"
	"github.com/boddenberg/finance-tracker-go/internal/port"
	"github.com/boddenberg/finance-tracker-go/internal/ui"
)

// registerCommands binds every user action to its controller.
func (a *App) registerCommands() {
	d := a.Dispatcher

	d.Register(ui.Command{
		Name:  "login",
		Usage: "login <email> <password>",
		Run: func(ctx context.Context, args []string) error {
			if err := wantArgs(args, 2); err != nil {
				return err
			}
			return a.Auth.Login(ctx, args[0], args[1])
		},
	})
	d.Register(ui.Command{
		Name:  "register",
		Usage: "register <email> <password> <first name> [last name]",
		Run: func(ctx context.Context, args []string) error {
			if err := wantArgs(args, 3); err != nil {
				return err
			}
			req := domain.RegisterRequest{Email: args[0], Password: args[1], FirstName: args[2]}
			if len(args) > 3 {
				req.LastName = strings.Join(args[3:], " ")
			}
			return a.Auth.Register(ctx, req)
		},
	})
	d.Register(ui.Command{
		Name:  "logout",
		Usage: "logout",
		Run: func(ctx context.Context, _ []string) error {
			a.Auth.Logout(ctx)
			return nil
		},
	})

	d.Register(ui.Command{
		Name:  "send",
		Usage: "send <message>",
		Run: func(ctx context.Context, args []string) error {
			a.Composer.SetInput(strings.Join(args, " "))
			return a.Chat.Send(ctx)
		},
	})
	d.Register(ui.Command{
		Name:  "attach",
		Usage: "attach <image path>",
		Run: func(_ context.Context, args []string) error {
			if err := wantArgs(args, 1); err != nil {
				return err
			}
			return a.Chat.AttachImage(strings.Join(args, " "))
		},
	})
	d.Register(ui.Command{
		Name:  "detach",
		Usage: "detach",
		Run: func(context.Context, []string) error {
			a.Chat.RemoveImage()
			return nil
		},
	})

	d.Register(ui.Command{
		Name:  "view",
		Usage: "view <chat|dashboard|transactions|accounts|subscription>",
		Run: func(ctx context.Context, args []string) error {
			if err := wantArgs(args, 1); err != nil {
				return err
			}
			v, err := domain.ParseView(args[0])
			if err != nil {
				return err
			}
			return a.Router.Switch(ctx, v)
		},
	})
	d.Register(ui.Command{
		Name:  "next",
		Usage: "next",
		Run: func(ctx context.Context, _ []string) error {
			return a.Browser.Load(ctx, domain.PageNext)
		},
	})
	d.Register(ui.Command{
		Name:  "prev",
		Usage: "prev",
		Run: func(ctx context.Context, _ []string) error {
			return a.Browser.Load(ctx, domain.PagePrev)
		},
	})
	d.Register(ui.Command{
		Name:  "delete",
		Usage: "delete <transaction id>",
		Run: func(ctx context.Context, args []string) error {
			if err := wantArgs(args, 1); err != nil {
				return err
			}
			return a.Browser.Delete(ctx, domain.ID(args[0]))
		},
	})
	d.Register(ui.Command{
		Name:  "upgrade",
		Usage: "upgrade <monthly|yearly>",
		Run: func(_ context.Context, args []string) error {
			if err := wantArgs(args, 1); err != nil {
				return err
			}
			url, err := a.Checkout.URL(args[0])
			if err != nil {
				return err
			}
			a.Notices.Notify(port.NoticeSuccess, "Complete your subscription at "+url)
			return nil
		},
	})
}

func wantArgs(args []string, n int) error {
	if len(args) < n {
		return fmt.Errorf("expected %d argument(s), got %d", n, len(args))
	}
	return nil
}
