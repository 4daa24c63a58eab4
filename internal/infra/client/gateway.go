// Package client is the API gateway: the single chokepoint for every call
// to the finance backend.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/boddenberg/finance-tracker-go/internal/domain"
	"github.com/boddenberg/finance-tracker-go/internal/infra/observability"
	"github.com/boddenberg/finance-tracker-go/internal/infra/resilience"
	"github.com/boddenberg/finance-tracker-go/internal/port"

	"github.com/google/uuid"
	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("client")

// Backend endpoints, relative to the configured base URL.
const (
	EndpointRegister        = "/auth/register"
	EndpointLogin           = "/auth/login"
	EndpointMessage         = "/api/message"
	EndpointOCR             = "/api/ocr"
	EndpointAccounts        = "/api/accounts"
	EndpointTransactions    = "/api/transactions"
	EndpointSummary         = "/api/summary"
	EndpointSubscription    = "/api/subscription"
	EndpointEditTransaction = "/api/edit-transaction"
)

// User-visible notices emitted by the gateway.
const (
	SessionExpiredNotice = "Session expired. Please login again."
	ConnectionNotice     = "Connection error. Check your network."
)

// Gateway calls the backend on behalf of every controller. It attaches the
// bearer token, turns a 401 into a single logout and a transport failure
// into a single notice, and never retries.
type Gateway struct {
	httpClient *http.Client
	baseURL    string
	session    port.SessionSource
	notifier   port.Notifier
	cb         *gobreaker.CircuitBreaker
	bulkhead   *resilience.Bulkhead
	metrics    *observability.Metrics
	logger     *zap.Logger
}

// NewGateway creates a Gateway. baseURL already includes any path prefix,
// e.g. "https://n8n.example.com/webhook/finance".
func NewGateway(
	httpClient *http.Client,
	baseURL string,
	session port.SessionSource,
	notifier port.Notifier,
	cfg resilience.Config,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *Gateway {
	return &Gateway{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		session:    session,
		notifier:   notifier,
		cb:         resilience.NewCircuitBreaker("finance-backend", cfg, isTransportFailure),
		bulkhead:   resilience.NewBulkhead(cfg.MaxConcurrency),
		metrics:    metrics,
		logger:     logger,
	}
}

// Call sends one request and decodes the JSON response into out.
// It fails with *domain.ErrAuthExpired on 401 and *domain.ErrConnection on
// any transport or decoding problem.
func (g *Gateway) Call(ctx context.Context, method, endpoint string, query url.Values, body, out any) error {
	ctx, span := tracer.Start(ctx, "Gateway.Call")
	defer span.End()
	span.SetAttributes(
		attribute.String("http.method", method),
		attribute.String("endpoint", endpoint),
	)

	// The session is sampled once: a logout racing with this call does not
	// change which token it carries.
	sess := g.session.Current()

	start := time.Now()
	err := g.do(ctx, sess, method, endpoint, query, body, out)
	g.metrics.RecordCall(endpoint, time.Since(start))

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		g.handleFailure(ctx, sess, endpoint, err)
	}
	return err
}

func (g *Gateway) do(ctx context.Context, sess domain.Session, method, endpoint string, query url.Values, body, out any) error {
	if err := g.bulkhead.Acquire(ctx); err != nil {
		return &domain.ErrConnection{Endpoint: endpoint, Err: err}
	}
	defer g.bulkhead.Release()

	_, err := g.cb.Execute(func() (any, error) {
		err := g.roundTrip(ctx, sess, method, endpoint, query, body, out)
		if err != nil && ctx.Err() != nil {
			return nil, abandonedError{err}
		}
		return nil, err
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return &domain.ErrConnection{Endpoint: endpoint, Err: err}
	}
	var abandoned abandonedError
	if errors.As(err, &abandoned) {
		return abandoned.error
	}
	return err
}

// abandonedError marks a failure of a call whose caller stopped waiting.
// It says nothing about the backend's health.
type abandonedError struct{ error }

func (e abandonedError) Unwrap() error { return e.error }

func (g *Gateway) roundTrip(ctx context.Context, sess domain.Session, method, endpoint string, query url.Values, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return &domain.ErrConnection{Endpoint: endpoint, Err: fmt.Errorf("marshal request: %w", err)}
		}
		reader = bytes.NewReader(payload)
	}

	target := g.baseURL + endpoint
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return &domain.ErrConnection{Endpoint: endpoint, Err: fmt.Errorf("create http request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if sess.Token != "" {
		req.Header.Set("Authorization", "Bearer "+sess.Token)
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return &domain.ErrConnection{Endpoint: endpoint, Err: err}
	}
	defer resp.Body.Close()

	// 401 wins over whatever the body says.
	if resp.StatusCode == http.StatusUnauthorized {
		io.Copy(io.Discard, resp.Body)
		return &domain.ErrAuthExpired{Endpoint: endpoint}
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &domain.ErrConnection{Endpoint: endpoint, Err: fmt.Errorf("read response: %w", err)}
	}

	g.logger.Debug("backend call",
		zap.String("method", method),
		zap.String("endpoint", endpoint),
		zap.Int("status", resp.StatusCode),
		zap.String("request_id", req.Header.Get("X-Request-ID")),
	)

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &domain.ErrConnection{Endpoint: endpoint, Err: fmt.Errorf("decode response (status %d): %w", resp.StatusCode, err)}
	}
	return nil
}

// handleFailure performs the side effects of a failed call, once per call.
func (g *Gateway) handleFailure(ctx context.Context, sess domain.Session, endpoint string, err error) {
	kind := domain.KindOf(err)
	g.metrics.IncrCallFailure(kind)

	switch kind {
	case domain.KindAuthExpired:
		if !sess.Authenticated() {
			g.logger.Debug("401 on anonymous call", zap.String("endpoint", endpoint))
			return
		}
		// Only the call that actually ends the session reports it.
		if g.session.ExpireIfCurrent(sess.Epoch) {
			g.metrics.IncrSessionExpired()
			g.logger.Warn("session expired", zap.String("endpoint", endpoint))
			g.notifier.Notify(port.NoticeError, SessionExpiredNotice)
		}
	case domain.KindConnection:
		if ctx.Err() != nil {
			// Superseded by the caller; nobody is waiting for this result.
			g.logger.Debug("call cancelled", zap.String("endpoint", endpoint), zap.Error(err))
			return
		}
		g.logger.Error("backend unreachable", zap.String("endpoint", endpoint), zap.Error(err))
		g.notifier.Notify(port.NoticeError, ConnectionNotice)
	}
}

// isTransportFailure reports whether err counts against the circuit
// breaker: transport or decoding failures of calls someone still waits for.
func isTransportFailure(err error) bool {
	var abandoned abandonedError
	if errors.As(err, &abandoned) {
		return false
	}
	var conn *domain.ErrConnection
	return errors.As(err, &conn)
}
