package app_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/boddenberg/finance-tracker-go/internal/app"
	"github.com/boddenberg/finance-tracker-go/internal/config"
	"github.com/boddenberg/finance-tracker-go/internal/domain"
	"github.com/boddenberg/finance-tracker-go/internal/testutil"
	"github.com/boddenberg/finance-tracker-go/internal/ui"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newConfig(t *testing.T, backend *testutil.Backend) *config.Config {
	t.Helper()
	cfg := config.Load(nil)
	cfg.APIBase = backend.URL()
	cfg.EndpointPrefix = ""
	cfg.DataDir = t.TempDir()
	cfg.OTLPEndpoint = ""
	cfg.PayPalMonthlyPlanID = "P-MONTH"
	return cfg
}

func TestApp_SessionSurvivesRestart(t *testing.T) {
	backend := testutil.NewBackend(t)
	backend.AddUser("ana@example.com", "secret", domain.User{ID: "u-1", FirstName: "Ana"})
	cfg := newConfig(t, backend)
	ctx := context.Background()

	first, err := app.New(ctx, cfg, app.Options{Logger: zap.NewNop()})
	require.NoError(t, err)
	require.NoError(t, first.Start(ctx))
	require.NoError(t, first.Dispatcher.Dispatch(ctx, "login", []string{"ana@example.com", "secret"}))
	token := first.Session.Current().Token
	require.NoError(t, first.Close(ctx))

	second, err := app.New(ctx, cfg, app.Options{Logger: zap.NewNop()})
	require.NoError(t, err)
	defer second.Close(ctx)
	require.NoError(t, second.Start(ctx))

	assert.Equal(t, token, second.Session.Current().Token)
	assert.Equal(t, ui.ScreenApp, second.Shell.Screen())
	assert.Equal(t, "Ana", second.Shell.UserName())
}

func TestApp_CommandsDriveControllers(t *testing.T) {
	backend := testutil.NewBackend(t)
	backend.AddUser("ana@example.com", "secret", domain.User{ID: "u-1", FirstName: "Ana"})
	backend.SetTransactions(testutil.MakeTransactions(3)...)
	ctx := context.Background()

	var notices []ui.Notice
	a, err := app.New(ctx, newConfig(t, backend), app.Options{
		Ephemeral:  true,
		Logger:     zap.NewNop(),
		Confirmer:  &testutil.Confirmer{Answer: true},
		NoticeSink: func(n ui.Notice) { notices = append(notices, n) },
	})
	require.NoError(t, err)
	defer a.Close(ctx)

	err = a.Dispatcher.Dispatch(ctx, "view", []string{"dashboard"})
	assert.True(t, errors.Is(err, domain.ErrValidationSkipped), "views need a session")

	require.NoError(t, a.Dispatcher.Dispatch(ctx, "login", []string{"ana@example.com", "secret"}))
	a.Router.Wait()

	require.NoError(t, a.Dispatcher.Dispatch(ctx, "send", []string{"lunch", "2000"}))
	msgs := a.Transcript.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "lunch 2000", msgs[0].Text)
	assert.Equal(t, "Noted: lunch 2000", msgs[1].Text)

	require.NoError(t, a.Dispatcher.Dispatch(ctx, "view", []string{"transactions"}))
	assert.Len(t, a.Txns.View().Rows, 3)

	require.NoError(t, a.Dispatcher.Dispatch(ctx, "delete", []string{"tx-1"}))
	assert.Len(t, a.Txns.View().Rows, 2)

	require.NoError(t, a.Dispatcher.Dispatch(ctx, "upgrade", []string{"monthly"}))
	last := notices[len(notices)-1]
	assert.True(t, strings.Contains(last.Message, "plan_id=P-MONTH&custom_id=u-1"), last.Message)

	require.NoError(t, a.Dispatcher.Dispatch(ctx, "logout", nil))
	assert.Equal(t, ui.ScreenAuth, a.Shell.Screen())
}

func TestApp_InvalidConfig(t *testing.T) {
	cfg := config.Load(nil)
	cfg.APIBase = "localhost"

	_, err := app.New(context.Background(), cfg, app.Options{Ephemeral: true, Logger: zap.NewNop()})
	assert.Error(t, err)
}
