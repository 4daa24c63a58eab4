package service

import (
	"context"
	"sync"

	"github.com/boddenberg/finance-tracker-go/internal/domain"
	"github.com/boddenberg/finance-tracker-go/internal/port"
	"github.com/boddenberg/finance-tracker-go/internal/ui"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// Router switches between the auth screen and the app views and triggers
// the loader of whichever view becomes active.
type Router struct {
	session    port.SessionSource
	shell      *ui.Shell
	transcript *ui.Transcript
	aggregator *Aggregator
	browser    *Browser
	logger     *zap.Logger

	mu         sync.Mutex
	viewCancel context.CancelFunc
	appCancel  context.CancelFunc
	background sync.WaitGroup
}

// NewRouter creates the router. Call OnSessionChange for every session
// change, typically by subscribing it to the session store.
func NewRouter(
	session port.SessionSource,
	shell *ui.Shell,
	transcript *ui.Transcript,
	aggregator *Aggregator,
	browser *Browser,
	logger *zap.Logger,
) *Router {
	return &Router{
		session:    session,
		shell:      shell,
		transcript: transcript,
		aggregator: aggregator,
		browser:    browser,
		logger:     logger,
	}
}

// Switch activates view and runs its loader. A load still running for the
// previously active view is cancelled. Without a session nothing happens.
func (r *Router) Switch(ctx context.Context, view domain.View) error {
	if !r.session.Current().Authenticated() {
		return domain.ErrValidationSkipped
	}

	ctx, span := tracer.Start(ctx, "Router.Switch")
	defer span.End()
	span.SetAttributes(attribute.String("view", string(view)))

	r.shell.SetActive(view)

	r.mu.Lock()
	if r.viewCancel != nil {
		r.viewCancel()
	}
	loadCtx, cancel := context.WithCancel(ctx)
	r.viewCancel = cancel
	r.mu.Unlock()
	defer cancel()

	switch view {
	case domain.ViewDashboard:
		r.aggregator.LoadDashboard(loadCtx)
		return nil
	case domain.ViewTransactions:
		return r.browser.Load(loadCtx, domain.PageCurrent)
	case domain.ViewAccounts:
		return r.aggregator.LoadAccounts(loadCtx)
	case domain.ViewSubscription:
		return r.aggregator.LoadSubscription(loadCtx)
	default:
		return nil
	}
}

// OnSessionChange flips between the auth and app screens. Entering the app
// loads the dashboard and the plan in the background.
func (r *Router) OnSessionChange(sess domain.Session) {
	r.mu.Lock()
	if r.appCancel != nil {
		r.appCancel()
		r.appCancel = nil
	}
	if r.viewCancel != nil {
		r.viewCancel()
		r.viewCancel = nil
	}

	if !sess.Authenticated() {
		r.mu.Unlock()
		r.shell.ShowAuth()
		r.transcript.Reset()
		r.logger.Debug("showing auth screen")
		return
	}

	appCtx, cancel := context.WithCancel(context.Background())
	r.appCancel = cancel
	r.mu.Unlock()

	r.shell.ShowApp(sess.User.DisplayName())
	r.logger.Debug("entering app", zap.String("user_id", string(sess.User.ID)))

	r.background.Add(2)
	go func() {
		defer r.background.Done()
		r.aggregator.LoadDashboard(appCtx)
	}()
	go func() {
		defer r.background.Done()
		if err := r.aggregator.LoadSubscription(appCtx); err != nil {
			r.logger.Debug("initial plan load failed", zap.Error(err))
		}
	}()
}

// Wait blocks until the background loads started on entering the app finish.
func (r *Router) Wait() {
	r.background.Wait()
}
