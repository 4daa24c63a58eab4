package service

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"sync"

	"github.com/boddenberg/finance-tracker-go/internal/domain"
	"github.com/boddenberg/finance-tracker-go/internal/infra/observability"
	"github.com/boddenberg/finance-tracker-go/internal/port"
	"github.com/boddenberg/finance-tracker-go/internal/ui"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// MaxImageBytes caps receipt uploads.
const MaxImageBytes = 5 << 20

// Chat runs the send cycle: optimistic user echo, typing indicator, one
// backend round-trip, bot reply. Every failure ends up as transcript text.
type Chat struct {
	api        port.ChatAPI
	transcript *ui.Transcript
	composer   *ui.Composer
	dashboard  port.DashboardRefresher
	metrics    *observability.Metrics
	logger     *zap.Logger

	background sync.WaitGroup
}

// NewChat creates the chat controller with all dependencies injected.
func NewChat(
	api port.ChatAPI,
	transcript *ui.Transcript,
	composer *ui.Composer,
	dashboard port.DashboardRefresher,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *Chat {
	return &Chat{
		api:        api,
		transcript: transcript,
		composer:   composer,
		dashboard:  dashboard,
		metrics:    metrics,
		logger:     logger,
	}
}

// Send submits the composer's text, or its pending image with the text as
// caption. It returns domain.ErrValidationSkipped when there is nothing to
// send or a send is already running; every other outcome is rendered into
// the transcript and Send returns nil.
func (c *Chat) Send(ctx context.Context) error {
	text, image, err := c.composer.BeginSend()
	if err != nil {
		return err
	}
	defer c.composer.EndSend()

	ctx, span := tracer.Start(ctx, "Chat.Send")
	defer span.End()
	span.SetAttributes(attribute.Bool("chat.image", image != ""))

	if text != "" {
		c.transcript.Append(domain.SenderUser, text)
	}
	if image != "" {
		c.transcript.Append(domain.SenderUser, domain.UploadingReceiptText)
	}
	typing := c.transcript.AppendTyping()

	var outcome error
	if image != "" {
		outcome = c.sendImage(ctx, typing, image, text)
	} else {
		outcome = c.sendText(ctx, typing, text)
	}

	c.metrics.IncrChatSend(domain.KindOf(outcome))
	if outcome != nil {
		c.logger.Info("chat send failed", zap.String("kind", string(domain.KindOf(outcome))), zap.Error(outcome))
	}
	return nil
}

func (c *Chat) sendImage(ctx context.Context, typing, image, caption string) error {
	resp, err := c.api.UploadReceipt(ctx, &domain.OCRRequest{Image: image, Message: caption})
	c.transcript.Remove(typing)
	if err != nil {
		c.transcript.Append(domain.SenderBot, failureText(err))
		var conn *domain.ErrConnection
		if !errors.As(err, &conn) {
			c.composer.ClearPendingImage()
		}
		return err
	}

	reply := resp.Acknowledgement()
	if reply == "" {
		reply = domain.ImageReceivedText
	}
	c.transcript.Append(domain.SenderBot, reply)
	c.composer.ClearPendingImage()
	return nil
}

func (c *Chat) sendText(ctx context.Context, typing, text string) error {
	resp, err := c.api.SendMessage(ctx, text)
	c.transcript.Remove(typing)
	if err != nil {
		c.transcript.Append(domain.SenderBot, failureText(err))
		return err
	}

	c.transcript.Append(domain.SenderBot, resp.Message)
	if len(resp.Transactions) > 0 {
		c.transcript.Append(domain.SenderBot, domain.TransactionsSummary(resp.Transactions))
	}
	if resp.UpdatesTotals() {
		c.refreshDashboard(ctx)
	}
	return nil
}

// refreshDashboard reloads the dashboard in the background. The send cycle
// does not wait for it and its cancellation does not stop it.
func (c *Chat) refreshDashboard(ctx context.Context) {
	bg := context.WithoutCancel(ctx)
	c.background.Add(1)
	go func() {
		defer c.background.Done()
		c.dashboard.LoadDashboard(bg)
	}()
}

// Wait blocks until background refreshes started by Send have finished.
func (c *Chat) Wait() {
	c.background.Wait()
}

func failureText(err error) string {
	var quota *domain.ErrQuotaExceeded
	var authExpired *domain.ErrAuthExpired
	var conn *domain.ErrConnection

	switch {
	case errors.As(err, &quota):
		return domain.UpgradePrompt(quota.Message)
	case errors.As(err, &authExpired):
		return domain.SessionExpiredText
	case errors.As(err, &conn):
		return domain.ConnectivityText
	default:
		return domain.RejectionMessage(err, domain.GenericFailureText)
	}
}

// AttachImage loads a receipt image from path as the pending image,
// replacing any previous one.
func (c *Chat) AttachImage(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("attach image: %w", err)
	}
	if info.Size() > MaxImageBytes {
		return fmt.Errorf("attach image: %s is larger than %d MB", path, MaxImageBytes>>20)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("attach image: %w", err)
	}
	uri, err := DataURI(data)
	if err != nil {
		return fmt.Errorf("attach image %s: %w", path, err)
	}

	c.composer.SetPendingImage(uri)
	c.logger.Debug("image attached", zap.String("path", path), zap.Int("bytes", len(data)))
	return nil
}

// RemoveImage drops the pending image.
func (c *Chat) RemoveImage() {
	c.composer.ClearPendingImage()
}

// DataURI encodes an image as "data:<mime>;base64,<payload>".
func DataURI(data []byte) (string, error) {
	mime := http.DetectContentType(data)
	if !strings.HasPrefix(mime, "image/") {
		return "", fmt.Errorf("not an image (%s)", mime)
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}
