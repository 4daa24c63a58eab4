package client

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/boddenberg/finance-tracker-go/internal/domain"

	"go.opentelemetry.io/otel/attribute"
)

// Login calls POST /auth/login. A response without success, token and user
// is a rejection.
func (g *Gateway) Login(ctx context.Context, req *domain.LoginRequest) (*domain.AuthResponse, error) {
	ctx, span := tracer.Start(ctx, "Gateway.Login")
	defer span.End()

	return g.authenticate(ctx, EndpointLogin, req)
}

// Register calls POST /auth/register.
func (g *Gateway) Register(ctx context.Context, req *domain.RegisterRequest) (*domain.AuthResponse, error) {
	ctx, span := tracer.Start(ctx, "Gateway.Register")
	defer span.End()

	return g.authenticate(ctx, EndpointRegister, req)
}

func (g *Gateway) authenticate(ctx context.Context, endpoint string, body any) (*domain.AuthResponse, error) {
	var resp domain.AuthResponse
	if err := g.Call(ctx, http.MethodPost, endpoint, nil, body, &resp); err != nil {
		return nil, err
	}
	if !resp.Success || resp.Token == "" || resp.User == nil {
		return nil, &domain.ErrBackendRejected{Endpoint: endpoint, Message: resp.Error}
	}
	return &resp, nil
}

// SendMessage calls POST /api/message. A success:false response becomes
// *domain.ErrQuotaExceeded when the backend asks for an upgrade and
// *domain.ErrBackendRejected otherwise.
func (g *Gateway) SendMessage(ctx context.Context, message string) (*domain.MessageResponse, error) {
	ctx, span := tracer.Start(ctx, "Gateway.SendMessage")
	defer span.End()
	span.SetAttributes(attribute.Int("message.length", len(message)))

	var resp domain.MessageResponse
	if err := g.Call(ctx, http.MethodPost, EndpointMessage, nil, &domain.MessageRequest{Message: message}, &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		if resp.UpgradeRequired {
			return nil, &domain.ErrQuotaExceeded{Endpoint: EndpointMessage, Message: resp.Error}
		}
		msg := resp.Error
		if msg == "" {
			msg = resp.Message
		}
		return nil, &domain.ErrBackendRejected{Endpoint: EndpointMessage, Message: msg}
	}
	return &resp, nil
}

// UploadReceipt calls POST /api/ocr with an image data URI and an optional caption.
func (g *Gateway) UploadReceipt(ctx context.Context, req *domain.OCRRequest) (*domain.OCRResponse, error) {
	ctx, span := tracer.Start(ctx, "Gateway.UploadReceipt")
	defer span.End()
	span.SetAttributes(attribute.Int("image.length", len(req.Image)))

	var resp domain.OCRResponse
	if err := g.Call(ctx, http.MethodPost, EndpointOCR, nil, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Accounts calls GET /api/accounts.
func (g *Gateway) Accounts(ctx context.Context) ([]domain.Account, error) {
	var resp domain.AccountsResponse
	if err := g.Call(ctx, http.MethodGet, EndpointAccounts, nil, nil, &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, &domain.ErrBackendRejected{Endpoint: EndpointAccounts, Message: resp.Error}
	}
	return resp.Accounts, nil
}

// Transactions calls GET /api/transactions?limit&offset.
func (g *Gateway) Transactions(ctx context.Context, limit, offset int) ([]domain.Transaction, error) {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	q.Set("offset", strconv.Itoa(offset))

	var resp domain.TransactionsResponse
	if err := g.Call(ctx, http.MethodGet, EndpointTransactions, q, nil, &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, &domain.ErrBackendRejected{Endpoint: EndpointTransactions, Message: resp.Error}
	}
	return resp.Transactions, nil
}

// Summary calls GET /api/summary?period=<period>.
func (g *Gateway) Summary(ctx context.Context, period string) (*domain.Summary, error) {
	q := url.Values{}
	q.Set("period", period)

	var resp domain.SummaryResponse
	if err := g.Call(ctx, http.MethodGet, EndpointSummary, q, nil, &resp); err != nil {
		return nil, err
	}
	if !resp.Success || resp.Summary == nil {
		return nil, &domain.ErrBackendRejected{Endpoint: EndpointSummary, Message: resp.Error}
	}
	return resp.Summary, nil
}

// Subscription calls GET /api/subscription.
func (g *Gateway) Subscription(ctx context.Context) (*domain.Subscription, error) {
	var resp domain.SubscriptionResponse
	if err := g.Call(ctx, http.MethodGet, EndpointSubscription, nil, nil, &resp); err != nil {
		return nil, err
	}
	if !resp.Success || resp.Subscription == nil {
		return nil, &domain.ErrBackendRejected{Endpoint: EndpointSubscription, Message: resp.Error}
	}
	return resp.Subscription, nil
}

// DeleteTransaction calls POST /api/edit-transaction with action "delete".
func (g *Gateway) DeleteTransaction(ctx context.Context, id domain.ID) error {
	ctx, span := tracer.Start(ctx, "Gateway.DeleteTransaction")
	defer span.End()
	span.SetAttributes(attribute.String("transaction.id", string(id)))

	var resp domain.EditTransactionResponse
	req := &domain.EditTransactionRequest{TransactionID: id, Action: "delete"}
	if err := g.Call(ctx, http.MethodPost, EndpointEditTransaction, nil, req, &resp); err != nil {
		return err
	}
	if !resp.Success {
		return &domain.ErrBackendRejected{Endpoint: EndpointEditTransaction, Message: resp.Error}
	}
	return nil
}
