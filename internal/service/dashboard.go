package service

import (
	"context"
	"time"

	"github.com/boddenberg/finance-tracker-go/internal/domain"
	"github.com/boddenberg/finance-tracker-go/internal/port"
	"github.com/boddenberg/finance-tracker-go/internal/ui"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// SummaryPeriod is the window of the dashboard totals.
const SummaryPeriod = "week"

// DefaultRecentCount is how many transactions the dashboard lists.
const DefaultRecentCount = 5

// Aggregator loads the read-only views: dashboard, accounts and plan.
// Every load is idempotent and has no side effects on the backend.
type Aggregator struct {
	api       port.LedgerAPI
	dashboard *ui.DashboardPanel
	accounts  *ui.AccountsPanel
	plan      *ui.PlanPanel
	recent    int
	logger    *zap.Logger
}

// NewAggregator creates the aggregator. recent <= 0 selects DefaultRecentCount.
func NewAggregator(
	api port.LedgerAPI,
	dashboard *ui.DashboardPanel,
	accounts *ui.AccountsPanel,
	plan *ui.PlanPanel,
	recent int,
	logger *zap.Logger,
) *Aggregator {
	if recent <= 0 {
		recent = DefaultRecentCount
	}
	return &Aggregator{
		api:       api,
		dashboard: dashboard,
		accounts:  accounts,
		plan:      plan,
		recent:    recent,
		logger:    logger,
	}
}

// LoadDashboard reads the weekly summary, the accounts and the most recent
// transactions concurrently. Each section is written as soon as its read
// succeeds; a failed read leaves that section as it was.
func (a *Aggregator) LoadDashboard(ctx context.Context) {
	ctx, span := tracer.Start(ctx, "Aggregator.LoadDashboard")
	defer span.End()

	start := time.Now()
	ticket := a.dashboard.BeginLoad()

	// Reads are independent: every goroutine returns nil so one failure
	// does not cancel the others.
	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		summary, err := a.api.Summary(gCtx, SummaryPeriod)
		if err != nil {
			a.logSectionFailure("summary", err)
			return nil
		}
		a.dashboard.SetSummary(ticket, *summary)
		return nil
	})

	g.Go(func() error {
		accounts, err := a.api.Accounts(gCtx)
		if err != nil {
			a.logSectionFailure("accounts", err)
			return nil
		}
		a.dashboard.SetAccounts(ticket, accounts)
		return nil
	})

	g.Go(func() error {
		recent, err := a.api.Transactions(gCtx, a.recent, 0)
		if err != nil {
			a.logSectionFailure("recent", err)
			return nil
		}
		a.dashboard.SetRecent(ticket, recent)
		return nil
	})

	_ = g.Wait()
	a.logger.Debug("dashboard loaded", zap.Duration("took", time.Since(start)))
}

// LoadAccounts reads the account list for the accounts view.
func (a *Aggregator) LoadAccounts(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "Aggregator.LoadAccounts")
	defer span.End()

	ticket := a.accounts.BeginLoad()
	accounts, err := a.api.Accounts(ctx)
	if err != nil {
		a.logSectionFailure("accounts", err)
		return err
	}
	a.accounts.Show(ticket, accounts)
	return nil
}

// LoadSubscription reads the plan record and derives its usage bars.
func (a *Aggregator) LoadSubscription(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "Aggregator.LoadSubscription")
	defer span.End()

	ticket := a.plan.BeginLoad()
	sub, err := a.api.Subscription(ctx)
	if err != nil {
		a.logSectionFailure("subscription", err)
		return err
	}
	a.plan.Show(ticket, *sub)
	return nil
}

func (a *Aggregator) logSectionFailure(section string, err error) {
	a.logger.Info("section load failed",
		zap.String("section", section),
		zap.String("kind", string(domain.KindOf(err))),
	)
}
