// Package port defines the interfaces (ports) between the client's layers.
// Following hexagonal architecture, controllers depend on these ports and
// not on the concrete gateway, storage or terminal surfaces.
package port

import (
	"context"

	"github.com/boddenberg/finance-tracker-go/internal/domain"
)

// SessionSource is the read side of the session store as the gateway sees it.
type SessionSource interface {
	Current() domain.Session
	// ExpireIfCurrent clears the session only if it is still the one issued
	// under epoch. It reports whether this call performed the logout.
	ExpireIfCurrent(epoch uint64) bool
}

// CredentialStore is durable key-value storage for the session.
type CredentialStore interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, keys ...string) error
}

// AuthAPI are the backend auth endpoints.
type AuthAPI interface {
	Login(ctx context.Context, req *domain.LoginRequest) (*domain.AuthResponse, error)
	Register(ctx context.Context, req *domain.RegisterRequest) (*domain.AuthResponse, error)
}

// ChatAPI are the backend endpoints that turn text and images into transactions.
type ChatAPI interface {
	SendMessage(ctx context.Context, message string) (*domain.MessageResponse, error)
	UploadReceipt(ctx context.Context, req *domain.OCRRequest) (*domain.OCRResponse, error)
}

// LedgerAPI are the read/delete endpoints of the financial state.
type LedgerAPI interface {
	Accounts(ctx context.Context) ([]domain.Account, error)
	Transactions(ctx context.Context, limit, offset int) ([]domain.Transaction, error)
	Summary(ctx context.Context, period string) (*domain.Summary, error)
	Subscription(ctx context.Context) (*domain.Subscription, error)
	DeleteTransaction(ctx context.Context, id domain.ID) error
}

// Backend is the full backend surface.
type Backend interface {
	AuthAPI
	ChatAPI
	LedgerAPI
}

// NoticeLevel is the tone of a user-visible notice.
type NoticeLevel string

const (
	NoticeSuccess NoticeLevel = "success"
	NoticeError   NoticeLevel = "error"
)

// Notifier shows short-lived notices (toasts) to the user.
type Notifier interface {
	Notify(level NoticeLevel, message string)
}

// Confirmer asks the user a yes/no question before a destructive action.
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) bool
}

// DashboardRefresher reloads the dashboard aggregate.
type DashboardRefresher interface {
	LoadDashboard(ctx context.Context)
}

// SessionManager is the full session store as the auth service and the view
// router use it.
type SessionManager interface {
	SessionSource
	Set(ctx context.Context, token string, user *domain.User) error
	Clear(ctx context.Context)
}
