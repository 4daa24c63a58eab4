// Package app wires the client together: storage, session, gateway,
// controllers, view models and the command dispatcher.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/boddenberg/finance-tracker-go/internal/config"
	"github.com/boddenberg/finance-tracker-go/internal/infra/client"
	"github.com/boddenberg/finance-tracker-go/internal/infra/observability"
	"github.com/boddenberg/finance-tracker-go/internal/infra/resilience"
	"github.com/boddenberg/finance-tracker-go/internal/infra/storage"
	"github.com/boddenberg/finance-tracker-go/internal/port"
	"github.com/boddenberg/finance-tracker-go/internal/service"
	"github.com/boddenberg/finance-tracker-go/internal/session"
	"github.com/boddenberg/finance-tracker-go/internal/ui"

	"go.uber.org/zap"
)

const serviceName = "ftclient"

// Options tune how the client is assembled.
type Options struct {
	// Ephemeral keeps the session in memory only.
	Ephemeral bool
	// Confirmer answers destructive-action prompts. Nil declines everything.
	Confirmer port.Confirmer
	// NoticeSink receives every notice as it is raised.
	NoticeSink func(ui.Notice)
	// Logger overrides the logger built from the config.
	Logger *zap.Logger
	// HTTPClient overrides the HTTP client built from the config.
	HTTPClient *http.Client
}

// App is the assembled client.
type App struct {
	Config  *config.Config
	Logger  *zap.Logger
	Metrics *observability.Metrics
	Session *session.Store
	Gateway *client.Gateway

	Shell      *ui.Shell
	Notices    *ui.Notices
	Transcript *ui.Transcript
	Composer   *ui.Composer
	Txns       *ui.TxnPanel
	Dashboard  *ui.DashboardPanel
	Accounts   *ui.AccountsPanel
	Plan       *ui.PlanPanel

	Auth       *service.Auth
	Chat       *service.Chat
	Browser    *service.Browser
	Aggregator *service.Aggregator
	Router     *service.Router
	Checkout   *service.Checkout
	Dispatcher *ui.Dispatcher

	closers []func(context.Context) error
}

type declineAll struct{}

func (declineAll) Confirm(context.Context, string) bool { return false }

// New assembles the client from cfg.
func New(ctx context.Context, cfg *config.Config, opts Options) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	logger := opts.Logger
	if logger == nil {
		logger = observability.NewLogger(cfg.LogLevel, os.Stderr)
	}
	a := &App{Config: cfg, Logger: logger, Metrics: observability.NewMetrics()}

	shutdown, err := observability.InitTracer(ctx, cfg.OTLPEndpoint, serviceName)
	if err != nil {
		logger.Warn("tracing disabled", zap.Error(err))
	} else {
		a.closers = append(a.closers, shutdown)
	}

	creds, err := a.openCredentials(cfg, opts.Ephemeral)
	if err != nil {
		a.Close(ctx)
		return nil, err
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.HTTPTimeout}
	}
	confirmer := opts.Confirmer
	if confirmer == nil {
		confirmer = declineAll{}
	}

	a.Shell = ui.NewShell()
	a.Notices = ui.NewNotices(opts.NoticeSink)
	a.Transcript = ui.NewTranscript()
	a.Composer = ui.NewComposer()
	a.Txns = ui.NewTxnPanel(cfg.PageSize)
	a.Dashboard = ui.NewDashboardPanel()
	a.Accounts = ui.NewAccountsPanel()
	a.Plan = ui.NewPlanPanel()

	a.Session = session.NewStore(creds, logger.Named("session"))
	a.Gateway = client.NewGateway(
		httpClient,
		cfg.BaseURL(),
		a.Session,
		a.Notices,
		resilience.Config{MaxConcurrency: cfg.MaxConcurrency, BreakerTimeout: cfg.BreakerTimeout},
		a.Metrics,
		logger.Named("gateway"),
	)

	a.Aggregator = service.NewAggregator(a.Gateway, a.Dashboard, a.Accounts, a.Plan, cfg.RecentCount, logger.Named("aggregator"))
	a.Browser = service.NewBrowser(a.Gateway, a.Txns, a.Aggregator, confirmer, a.Notices, logger.Named("browser"))
	a.Chat = service.NewChat(a.Gateway, a.Transcript, a.Composer, a.Aggregator, a.Metrics, logger.Named("chat"))
	a.Auth = service.NewAuth(a.Gateway, a.Session, a.Shell, a.Notices, logger.Named("auth"))
	a.Router = service.NewRouter(a.Session, a.Shell, a.Transcript, a.Aggregator, a.Browser, logger.Named("router"))
	a.Checkout = service.NewCheckout(service.Plans{Monthly: cfg.PayPalMonthlyPlanID, Yearly: cfg.PayPalYearlyPlanID}, a.Session)
	a.Session.Subscribe(a.Router.OnSessionChange)

	a.Dispatcher = ui.NewDispatcher(logger.Named("dispatch"))
	a.registerCommands()

	return a, nil
}

func (a *App) openCredentials(cfg *config.Config, ephemeral bool) (port.CredentialStore, error) {
	if ephemeral {
		return storage.NewMemory(), nil
	}
	if err := os.MkdirAll(cfg.DataDir, 0o700); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	db, err := storage.OpenSQLite(filepath.Join(cfg.DataDir, "session.db"))
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, func(context.Context) error { return db.Close() })

	key, err := storage.LoadOrCreateKey(filepath.Join(cfg.DataDir, "session.key"))
	if err != nil {
		return nil, err
	}
	return storage.NewSealed(db, key), nil
}

// Start restores the persisted session, entering the app when one exists.
func (a *App) Start(ctx context.Context) error {
	if err := a.Session.Restore(ctx); err != nil {
		return fmt.Errorf("restore session: %w", err)
	}
	a.Router.Wait()
	return nil
}

// Close waits for background work and releases resources.
func (a *App) Close(ctx context.Context) error {
	if a.Chat != nil {
		a.Chat.Wait()
	}
	if a.Router != nil {
		a.Router.Wait()
	}

	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	_ = a.Logger.Sync()
	return errors.Join(errs...)
}
