package service_test

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/boddenberg/finance-tracker-go/internal/domain"
	"github.com/boddenberg/finance-tracker-go/internal/infra/client"
	"github.com/boddenberg/finance-tracker-go/internal/infra/observability"
	"github.com/boddenberg/finance-tracker-go/internal/infra/resilience"
	"github.com/boddenberg/finance-tracker-go/internal/infra/storage"
	"github.com/boddenberg/finance-tracker-go/internal/service"
	"github.com/boddenberg/finance-tracker-go/internal/session"
	"github.com/boddenberg/finance-tracker-go/internal/testutil"
	"github.com/boddenberg/finance-tracker-go/internal/ui"

	"go.uber.org/zap"
)

// --- Mocks ---

type mockChatAPI struct {
	sendFn   func(ctx context.Context, message string) (*domain.MessageResponse, error)
	uploadFn func(ctx context.Context, req *domain.OCRRequest) (*domain.OCRResponse, error)
}

func (m *mockChatAPI) SendMessage(ctx context.Context, message string) (*domain.MessageResponse, error) {
	return m.sendFn(ctx, message)
}

func (m *mockChatAPI) UploadReceipt(ctx context.Context, req *domain.OCRRequest) (*domain.OCRResponse, error) {
	return m.uploadFn(ctx, req)
}

type countingRefresher struct {
	calls atomic.Int32
}

func (r *countingRefresher) LoadDashboard(context.Context) {
	r.calls.Add(1)
}

type mockLedger struct {
	mu sync.Mutex

	summary      *domain.Summary
	accounts     []domain.Account
	transactions []domain.Transaction
	subscription *domain.Subscription

	summaryErr, accountsErr, transactionsErr, subscriptionErr, deleteErr error

	offsets []int
}

func (m *mockLedger) Accounts(context.Context) ([]domain.Account, error) {
	return m.accounts, m.accountsErr
}

func (m *mockLedger) Transactions(_ context.Context, limit, offset int) ([]domain.Transaction, error) {
	m.mu.Lock()
	m.offsets = append(m.offsets, offset)
	m.mu.Unlock()
	if m.transactionsErr != nil {
		return nil, m.transactionsErr
	}
	if offset >= len(m.transactions) {
		return []domain.Transaction{}, nil
	}
	end := offset + limit
	if end > len(m.transactions) {
		end = len(m.transactions)
	}
	return m.transactions[offset:end], nil
}

func (m *mockLedger) Summary(context.Context, string) (*domain.Summary, error) {
	return m.summary, m.summaryErr
}

func (m *mockLedger) Subscription(context.Context) (*domain.Subscription, error) {
	return m.subscription, m.subscriptionErr
}

func (m *mockLedger) DeleteTransaction(context.Context, domain.ID) error {
	return m.deleteErr
}

func (m *mockLedger) Offsets() []int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]int(nil), m.offsets...)
}

// --- Full stack against the fake backend ---

type env struct {
	backend   *testutil.Backend
	store     *session.Store
	notifier  *testutil.Notifier
	confirmer *testutil.Confirmer
	gateway   *client.Gateway

	shell      *ui.Shell
	transcript *ui.Transcript
	composer   *ui.Composer
	txns       *ui.TxnPanel
	dashboard  *ui.DashboardPanel
	accounts   *ui.AccountsPanel
	plan       *ui.PlanPanel

	auth       *service.Auth
	chat       *service.Chat
	browser    *service.Browser
	aggregator *service.Aggregator
	router     *service.Router
}

func newEnv(t *testing.T, pageSize int) *env {
	t.Helper()
	logger := zap.NewNop()

	e := &env{
		backend:    testutil.NewBackend(t),
		notifier:   &testutil.Notifier{},
		confirmer:  &testutil.Confirmer{Answer: true},
		shell:      ui.NewShell(),
		transcript: ui.NewTranscript(),
		composer:   ui.NewComposer(),
		txns:       ui.NewTxnPanel(pageSize),
		dashboard:  ui.NewDashboardPanel(),
		accounts:   ui.NewAccountsPanel(),
		plan:       ui.NewPlanPanel(),
	}
	metrics := observability.NewMetrics()
	e.store = session.NewStore(storage.NewMemory(), logger)
	e.gateway = client.NewGateway(
		&http.Client{Timeout: 5 * time.Second},
		e.backend.URL(),
		e.store,
		e.notifier,
		resilience.Config{MaxConcurrency: 8},
		metrics,
		logger,
	)

	e.aggregator = service.NewAggregator(e.gateway, e.dashboard, e.accounts, e.plan, 5, logger)
	e.browser = service.NewBrowser(e.gateway, e.txns, e.aggregator, e.confirmer, e.notifier, logger)
	e.chat = service.NewChat(e.gateway, e.transcript, e.composer, e.aggregator, metrics, logger)
	e.auth = service.NewAuth(e.gateway, e.store, e.shell, e.notifier, logger)
	e.router = service.NewRouter(e.store, e.shell, e.transcript, e.aggregator, e.browser, logger)
	e.store.Subscribe(e.router.OnSessionChange)
	return e
}

func (e *env) login(t *testing.T) {
	t.Helper()
	e.backend.AddUser("ana@example.com", "secret", domain.User{ID: "u-1", FirstName: "Ana", Email: "ana@example.com"})
	if err := e.auth.Login(context.Background(), "ana@example.com", "secret"); err != nil {
		t.Fatalf("login: %v", err)
	}
	e.router.Wait()
}
