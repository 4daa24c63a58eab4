package service

import (
	"context"
	"errors"

	"github.com/boddenberg/finance-tracker-go/internal/domain"
	"github.com/boddenberg/finance-tracker-go/internal/port"
	"github.com/boddenberg/finance-tracker-go/internal/ui"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// Delete notices and prompt.
const (
	DeletePrompt       = "Delete this transaction?"
	DeletedNotice      = "Transaction deleted"
	DeleteFailedNotice = "Delete failed"
)

// Browser pages through the transaction history.
type Browser struct {
	api       port.LedgerAPI
	panel     *ui.TxnPanel
	dashboard port.DashboardRefresher
	confirmer port.Confirmer
	notifier  port.Notifier
	logger    *zap.Logger
}

// NewBrowser creates the transaction browser with all dependencies injected.
func NewBrowser(
	api port.LedgerAPI,
	panel *ui.TxnPanel,
	dashboard port.DashboardRefresher,
	confirmer port.Confirmer,
	notifier port.Notifier,
	logger *zap.Logger,
) *Browser {
	return &Browser{
		api:       api,
		panel:     panel,
		dashboard: dashboard,
		confirmer: confirmer,
		notifier:  notifier,
		logger:    logger,
	}
}

// Load fetches the page in direction dir from the visible one. The new page
// and its cursor become visible together, and only if the fetch succeeds
// and no newer load was started meanwhile. Moving past either end is a
// domain.ErrValidationSkipped no-op.
func (b *Browser) Load(ctx context.Context, dir domain.PageDirection) error {
	ctx, span := tracer.Start(ctx, "Browser.Load")
	defer span.End()
	span.SetAttributes(attribute.String("page.direction", string(dir)))

	view := b.panel.View()
	if (dir == domain.PagePrev && view.PrevDisabled) || (dir == domain.PageNext && view.NextDisabled) {
		return domain.ErrValidationSkipped
	}

	ticket, from := b.panel.BeginLoad()
	target := from.Move(dir)

	rows, err := b.api.Transactions(ctx, target.PageSize, target.Offset())
	if err != nil {
		b.logger.Info("transactions load failed",
			zap.Int("page", target.Page),
			zap.String("kind", string(domain.KindOf(err))),
		)
		return err
	}

	if !b.panel.Show(ticket, target, rows) {
		b.logger.Debug("discarding superseded transactions page", zap.Int("page", target.Page))
	}
	return nil
}

// Delete removes a transaction after the user confirms. On success the
// current page and the dashboard are refreshed; on failure nothing changes.
func (b *Browser) Delete(ctx context.Context, id domain.ID) error {
	ctx, span := tracer.Start(ctx, "Browser.Delete")
	defer span.End()
	span.SetAttributes(attribute.String("transaction.id", string(id)))

	if !b.confirmer.Confirm(ctx, DeletePrompt) {
		return domain.ErrValidationSkipped
	}

	if err := b.api.DeleteTransaction(ctx, id); err != nil {
		var authExpired *domain.ErrAuthExpired
		if !errors.As(err, &authExpired) {
			b.notifier.Notify(port.NoticeError, domain.RejectionMessage(err, DeleteFailedNotice))
		}
		return err
	}

	b.notifier.Notify(port.NoticeSuccess, DeletedNotice)
	if err := b.Load(ctx, domain.PageCurrent); err != nil {
		b.logger.Info("refresh after delete failed", zap.Error(err))
	}
	b.dashboard.LoadDashboard(ctx)
	return nil
}
