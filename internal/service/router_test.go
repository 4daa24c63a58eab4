package service_test

import (
	"context"
	"sync"
	"testing"

	"github.com/boddenberg/finance-tracker-go/internal/domain"
	"github.com/boddenberg/finance-tracker-go/internal/infra/client"
	"github.com/boddenberg/finance-tracker-go/internal/service"
	"github.com/boddenberg/finance-tracker-go/internal/testutil"
	"github.com/boddenberg/finance-tracker-go/internal/ui"

	"github.com/shopspring/decimal"
)

func TestRouter_SwitchLoadsView(t *testing.T) {
	e := newEnv(t, 20)
	e.login(t)
	e.backend.SetAccounts(domain.Account{AccountType: "bank", Name: "NCB", Balance: decimal.NewFromInt(30000)})
	e.backend.SetTransactions(testutil.MakeTransactions(3)...)
	ctx := context.Background()

	if err := e.router.Switch(ctx, domain.ViewAccounts); err != nil {
		t.Fatalf("switch: %v", err)
	}
	if e.shell.Active() != domain.ViewAccounts || len(e.accounts.View().Accounts) != 1 {
		t.Errorf("accounts view not loaded: %+v", e.accounts.View())
	}

	if err := e.router.Switch(ctx, domain.ViewTransactions); err != nil {
		t.Fatalf("switch: %v", err)
	}
	if v := e.txns.View(); len(v.Rows) != 3 || !v.NextDisabled {
		t.Errorf("unexpected transactions view %+v", v)
	}

	before := e.backend.Calls(client.EndpointMessage)
	if err := e.router.Switch(ctx, domain.ViewChat); err != nil {
		t.Fatalf("switch: %v", err)
	}
	if e.backend.Calls(client.EndpointMessage) != before {
		t.Error("chat view has no loader")
	}
}

func TestRouter_ConcurrentUnauthorizedLogsOutOnce(t *testing.T) {
	e := newEnv(t, 20)
	e.login(t)
	e.backend.Revoke()
	ctx := context.Background()

	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		e.router.Switch(ctx, domain.ViewDashboard)
	}()
	go func() {
		defer wg.Done()
		e.composer.SetInput("lunch 2000")
		e.chat.Send(ctx)
	}()
	go func() {
		defer wg.Done()
		e.aggregator.LoadSubscription(ctx)
	}()
	wg.Wait()
	e.chat.Wait()
	e.router.Wait()

	if e.store.IsAuthenticated() {
		t.Fatal("expected logout")
	}
	if e.shell.Screen() != ui.ScreenAuth {
		t.Error("expected auth screen")
	}
	if n := e.notifier.Count(client.SessionExpiredNotice); n != 1 {
		t.Errorf("expected exactly one expiry notice, got %d", n)
	}
}

func TestCheckout_URL(t *testing.T) {
	e := newEnv(t, 20)
	checkout := service.NewCheckout(service.Plans{Monthly: "P-MONTH", Yearly: "P-YEAR"}, e.store)

	if _, err := checkout.URL(service.IntervalMonthly); err == nil {
		t.Error("expected error without a session")
	}

	e.login(t)
	got, err := checkout.URL(service.IntervalYearly)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "https://www.paypal.com/webapps/billing/plans/subscribe?plan_id=P-YEAR&custom_id=u-1"
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}

	if _, err := checkout.URL("weekly"); err == nil {
		t.Error("expected unknown interval error")
	}
}
