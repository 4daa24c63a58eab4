// Package service holds the controllers: authentication, chat, transaction
// browsing, dashboard aggregation and view routing.
package service

import (
	"context"
	"errors"
	"strings"

	"github.com/boddenberg/finance-tracker-go/internal/domain"
	"github.com/boddenberg/finance-tracker-go/internal/port"
	"github.com/boddenberg/finance-tracker-go/internal/ui"

	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("service")

// Auth form messages.
const (
	LoginFailedText        = "Login failed"
	RegistrationFailedText = "Registration failed"
	BackendDownText        = "Connection error. Is the backend running?"
)

// Auth logs users in and out. A successful login installs the session; the
// view router reacts to the change.
type Auth struct {
	api      port.AuthAPI
	session  port.SessionManager
	shell    *ui.Shell
	notifier port.Notifier
	logger   *zap.Logger
}

// NewAuth creates the auth service with all dependencies injected.
func NewAuth(
	api port.AuthAPI,
	session port.SessionManager,
	shell *ui.Shell,
	notifier port.Notifier,
	logger *zap.Logger,
) *Auth {
	return &Auth{
		api:      api,
		session:  session,
		shell:    shell,
		notifier: notifier,
		logger:   logger,
	}
}

// Login authenticates with email and password. On failure the auth error line
// shows why and the session is left untouched.
func (a *Auth) Login(ctx context.Context, email, password string) error {
	ctx, span := tracer.Start(ctx, "Auth.Login")
	defer span.End()

	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return domain.ErrValidationSkipped
	}

	resp, err := a.api.Login(ctx, &domain.LoginRequest{Email: email, Password: password})
	if err != nil {
		a.shell.SetAuthError(authErrorText(err, LoginFailedText))
		a.logger.Info("login failed", zap.String("kind", string(domain.KindOf(err))))
		return err
	}

	if err := a.session.Set(ctx, resp.Token, resp.User); err != nil {
		return err
	}
	a.notifier.Notify(port.NoticeSuccess, "Welcome back, "+resp.User.DisplayName()+"!")
	return nil
}

// Register creates an account and logs in with it.
func (a *Auth) Register(ctx context.Context, req domain.RegisterRequest) error {
	ctx, span := tracer.Start(ctx, "Auth.Register")
	defer span.End()

	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || req.Password == "" || strings.TrimSpace(req.FirstName) == "" {
		return domain.ErrValidationSkipped
	}

	resp, err := a.api.Register(ctx, &req)
	if err != nil {
		a.shell.SetAuthError(authErrorText(err, RegistrationFailedText))
		a.logger.Info("registration failed", zap.String("kind", string(domain.KindOf(err))))
		return err
	}

	if err := a.session.Set(ctx, resp.Token, resp.User); err != nil {
		return err
	}
	a.notifier.Notify(port.NoticeSuccess, "Account created! Welcome, "+resp.User.DisplayName()+"!")
	return nil
}

// Logout ends the session locally. No backend call is made.
func (a *Auth) Logout(ctx context.Context) {
	a.session.Clear(ctx)
	a.logger.Info("logged out")
}

func authErrorText(err error, fallback string) string {
	var conn *domain.ErrConnection
	if errors.As(err, &conn) {
		return BackendDownText
	}
	return domain.RejectionMessage(err, fallback)
}
