// Package testutil provides a scriptable in-process finance backend for tests.
package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/boddenberg/finance-tracker-go/internal/domain"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Backend is a fake of the finance webhook backend. Its state can be
// inspected and tweaked by tests between calls.
type Backend struct {
	Server *httptest.Server

	mu           sync.Mutex
	users        map[string]account // by email
	tokens       map[string]domain.ID
	accounts     []domain.Account
	transactions []domain.Transaction // newest first
	subscription domain.Subscription
	calls        map[string]int
	lastAuth     map[string]string

	// MessageHandler, when set, answers /api/message instead of the default echo.
	MessageHandler func(message string) (status int, body any)
	// OCRHandler, when set, answers /api/ocr.
	OCRHandler func(req domain.OCRRequest) (status int, body any)
	// Gate, when set, is waited on by every /api request before answering.
	Gate chan struct{}
	// ForceStatus makes an endpoint (e.g. "/api/accounts") answer with the
	// given status and an empty JSON object.
	ForceStatus map[string]int
}

type account struct {
	password string
	user     domain.User
}

// NewBackend starts a fake backend and closes it when the test ends.
func NewBackend(t testing.TB) *Backend {
	b := &Backend{
		users:        make(map[string]account),
		tokens:       make(map[string]domain.ID),
		calls:        make(map[string]int),
		lastAuth:     make(map[string]string),
		subscription: domain.Subscription{PlanName: domain.FreePlan, Status: domain.ActiveStatus},
		ForceStatus:  make(map[string]int),
	}
	b.Server = httptest.NewServer(b.Router())
	t.Cleanup(b.Server.Close)
	return b
}

// URL is the base URL of the fake backend.
func (b *Backend) URL() string {
	return b.Server.URL
}

// Router builds the chi router serving the backend contract.
func (b *Backend) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(b.record)

	r.Post("/auth/register", b.register)
	r.Post("/auth/login", b.login)

	r.Route("/api", func(r chi.Router) {
		r.Use(b.authenticate)
		r.Post("/message", b.message)
		r.Post("/ocr", b.ocr)
		r.Get("/accounts", b.listAccounts)
		r.Get("/transactions", b.listTransactions)
		r.Get("/summary", b.summary)
		r.Get("/subscription", b.getSubscription)
		r.Post("/edit-transaction", b.editTransaction)
	})
	return r
}

// --- state helpers ---

// AddUser registers credentials and returns a valid token for them.
func (b *Backend) AddUser(email, password string, user domain.User) string {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.users[email] = account{password: password, user: user}
	token := uuid.NewString()
	b.tokens[token] = user.ID
	return token
}

// Revoke invalidates every token, so the next /api call answers 401.
func (b *Backend) Revoke() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.tokens = make(map[string]domain.ID)
}

// SetAccounts replaces the account list.
func (b *Backend) SetAccounts(accounts ...domain.Account) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.accounts = accounts
}

// SetTransactions replaces the ledger; txs must be newest first.
func (b *Backend) SetTransactions(txs ...domain.Transaction) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.transactions = txs
}

// Transactions returns a copy of the ledger.
func (b *Backend) Transactions() []domain.Transaction {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]domain.Transaction(nil), b.transactions...)
}

// SetSubscription replaces the subscription record.
func (b *Backend) SetSubscription(sub domain.Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscription = sub
}

// Calls returns how many times path was requested.
func (b *Backend) Calls(path string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[path]
}

// LastAuthorization returns the Authorization header last seen on path.
func (b *Backend) LastAuthorization(path string) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastAuth[path]
}

// MakeTransactions builds n outflow transactions with ids "tx-1".."tx-n".
func MakeTransactions(n int) []domain.Transaction {
	txs := make([]domain.Transaction, 0, n)
	base := time.Date(2025, time.January, 1, 12, 0, 0, 0, time.UTC)
	for i := 1; i <= n; i++ {
		created := base.Add(-time.Duration(i) * time.Hour)
		txs = append(txs, domain.Transaction{
			ID:            domain.ID("tx-" + strconv.Itoa(i)),
			Item:          "item " + strconv.Itoa(i),
			Amount:        decimal.NewFromInt(int64(100 * i)),
			Direction:     domain.Outflow,
			Category:      "misc",
			PaymentMethod: "cash",
			CreatedAt:     domain.Timestamp{Time: created},
		})
	}
	return txs
}

// --- middleware ---

func (b *Backend) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		b.calls[r.URL.Path]++
		b.lastAuth[r.URL.Path] = r.Header.Get("Authorization")
		status, forced := b.ForceStatus[r.URL.Path]
		b.mu.Unlock()

		if forced {
			writeJSON(w, status, map[string]any{})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (b *Backend) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if b.Gate != nil {
			<-b.Gate
		}
		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")

		b.mu.Lock()
		_, ok := b.tokens[token]
		b.mu.Unlock()

		if !ok {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"success": false, "error": "Unauthorized"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// --- handlers ---

func (b *Backend) register(w http.ResponseWriter, r *http.Request) {
	var req domain.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "error": "invalid body"})
		return
	}

	b.mu.Lock()
	_, exists := b.users[req.Email]
	b.mu.Unlock()
	if exists {
		writeJSON(w, http.StatusOK, domain.AuthResponse{Success: false, Error: "Email already registered"})
		return
	}

	user := domain.User{ID: domain.ID(uuid.NewString()), FirstName: req.FirstName, LastName: req.LastName, Email: req.Email}
	token := b.AddUser(req.Email, req.Password, user)
	writeJSON(w, http.StatusOK, domain.AuthResponse{Success: true, Token: token, User: &user})
}

func (b *Backend) login(w http.ResponseWriter, r *http.Request) {
	var req domain.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "error": "invalid body"})
		return
	}

	b.mu.Lock()
	acc, ok := b.users[req.Email]
	b.mu.Unlock()
	if !ok || acc.password != req.Password {
		writeJSON(w, http.StatusOK, domain.AuthResponse{Success: false, Error: "Invalid email or password"})
		return
	}

	token := uuid.NewString()
	b.mu.Lock()
	b.tokens[token] = acc.user.ID
	b.mu.Unlock()

	user := acc.user
	writeJSON(w, http.StatusOK, domain.AuthResponse{Success: true, Token: token, User: &user})
}

func (b *Backend) message(w http.ResponseWriter, r *http.Request) {
	var req domain.MessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "error": "invalid body"})
		return
	}
	if b.MessageHandler != nil {
		status, body := b.MessageHandler(req.Message)
		writeJSON(w, status, body)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Noted: " + req.Message})
}

func (b *Backend) ocr(w http.ResponseWriter, r *http.Request) {
	var req domain.OCRRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid body"})
		return
	}
	if b.OCRHandler != nil {
		status, body := b.OCRHandler(req)
		writeJSON(w, status, body)
		return
	}
	writeJSON(w, http.StatusOK, domain.OCRResponse{Message: "Receipt processed"})
}

func (b *Backend) listAccounts(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	accounts := append([]domain.Account{}, b.accounts...)
	b.mu.Unlock()
	writeJSON(w, http.StatusOK, domain.AccountsResponse{Success: true, Accounts: accounts})
}

func (b *Backend) listTransactions(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	b.mu.Lock()
	all := b.transactions
	page := []domain.Transaction{}
	if offset < len(all) {
		end := len(all)
		if limit > 0 && offset+limit < end {
			end = offset + limit
		}
		page = append(page, all[offset:end]...)
	}
	b.mu.Unlock()

	writeJSON(w, http.StatusOK, domain.TransactionsResponse{Success: true, Transactions: page})
}

func (b *Backend) summary(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	s := domain.Summary{}
	for _, tx := range b.transactions {
		if tx.Direction == domain.Inflow {
			s.TotalIncome = s.TotalIncome.Add(tx.Amount)
		} else {
			s.TotalExpense = s.TotalExpense.Add(tx.Amount)
		}
	}
	s.TxCount = domain.FlexInt(len(b.transactions))
	b.mu.Unlock()

	writeJSON(w, http.StatusOK, domain.SummaryResponse{Success: true, Summary: &s})
}

func (b *Backend) getSubscription(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	sub := b.subscription
	b.mu.Unlock()
	writeJSON(w, http.StatusOK, domain.SubscriptionResponse{Success: true, Subscription: &sub})
}

func (b *Backend) editTransaction(w http.ResponseWriter, r *http.Request) {
	var req domain.EditTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Action != "delete" {
		writeJSON(w, http.StatusOK, domain.EditTransactionResponse{Success: false, Error: "Unsupported action"})
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for i, tx := range b.transactions {
		if tx.ID == req.TransactionID {
			b.transactions = append(b.transactions[:i:i], b.transactions[i+1:]...)
			writeJSON(w, http.StatusOK, domain.EditTransactionResponse{Success: true})
			return
		}
	}
	writeJSON(w, http.StatusOK, domain.EditTransactionResponse{Success: false, Error: "Transaction not found"})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
