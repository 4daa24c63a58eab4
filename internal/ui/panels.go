package ui

import (
	"strconv"
	"sync"

	"github.com/boddenberg/finance-tracker-go/internal/domain"
)

// Guidance shown for empty lists.
const (
	NoTransactionsText = "No transactions yet. Start by sending a message!"
	NoAccountsText     = "No accounts yet. Tell me: \"I have 30k in NCB and 5k cash\""
)

// loadSeq hands out tickets to loads of one panel section.
type loadSeq struct {
	issued  uint64
	written uint64
}

func (s *loadSeq) next() uint64 {
	s.issued++
	return s.issued
}

// admitNewest accepts a ticket unless a newer one was already written.
func (s *loadSeq) admitNewest(ticket uint64) bool {
	if ticket < s.written {
		return false
	}
	s.written = ticket
	return true
}

// admitLatest accepts only the most recently issued ticket.
func (s *loadSeq) admitLatest(ticket uint64) bool {
	if ticket != s.issued {
		return false
	}
	s.written = ticket
	return true
}

// ============================================================
// Transactions
// ============================================================

// TxnView is what the transactions panel shows.
type TxnView struct {
	Rows         []domain.Transaction
	Cursor       domain.Cursor
	Loaded       bool
	PrevDisabled bool
	NextDisabled bool
}

// Label is the 1-based page label.
func (v TxnView) Label() string {
	return "Page " + strconv.Itoa(v.Cursor.Page+1)
}

// Empty reports whether the guidance text replaces the list.
func (v TxnView) Empty() bool {
	return v.Loaded && len(v.Rows) == 0
}

// TxnPanel holds the visible page of transactions together with the cursor
// that produced it.
type TxnPanel struct {
	mu   sync.Mutex
	view TxnView
	seq  loadSeq
}

// NewTxnPanel starts at page 0 with prev disabled.
func NewTxnPanel(pageSize int) *TxnPanel {
	return &TxnPanel{view: TxnView{Cursor: domain.Cursor{PageSize: pageSize}, PrevDisabled: true}}
}

// BeginLoad returns the ticket of a new load and the cursor it starts from.
func (p *TxnPanel) BeginLoad() (uint64, domain.Cursor) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.seq.next(), p.view.Cursor
}

// Show commits cursor and rows if ticket belongs to the newest load.
func (p *TxnPanel) Show(ticket uint64, cursor domain.Cursor, rows []domain.Transaction) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.seq.admitLatest(ticket) {
		return false
	}
	p.view = TxnView{
		Rows:         append([]domain.Transaction(nil), rows...),
		Cursor:       cursor,
		Loaded:       true,
		PrevDisabled: !cursor.HasPrev(),
		NextDisabled: cursor.IsLastPage(len(rows)),
	}
	return true
}

func (p *TxnPanel) View() TxnView {
	p.mu.Lock()
	defer p.mu.Unlock()
	v := p.view
	v.Rows = append([]domain.Transaction(nil), v.Rows...)
	return v
}

// Find returns the visible row with id.
func (p *TxnPanel) Find(id domain.ID) (domain.Transaction, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, tx := range p.view.Rows {
		if tx.ID == id {
			return tx, true
		}
	}
	return domain.Transaction{}, false
}

// ============================================================
// Dashboard
// ============================================================

// DashboardView is what the dashboard shows. Nil sections were never loaded.
type DashboardView struct {
	Summary  *domain.Summary
	Accounts []domain.Account
	Recent   []domain.Transaction
}

// DashboardPanel holds the three independently loaded dashboard sections.
type DashboardPanel struct {
	mu       sync.Mutex
	view     DashboardView
	summary  loadSeq
	accounts loadSeq
	recent   loadSeq
}

func NewDashboardPanel() *DashboardPanel {
	return &DashboardPanel{}
}

// DashboardTicket identifies one dashboard load across its three sections.
type DashboardTicket struct {
	summary, accounts, recent uint64
}

func (p *DashboardPanel) BeginLoad() DashboardTicket {
	p.mu.Lock()
	defer p.mu.Unlock()
	return DashboardTicket{
		summary:  p.summary.next(),
		accounts: p.accounts.next(),
		recent:   p.recent.next(),
	}
}

// SetSummary writes the summary unless a newer load already wrote it.
func (p *DashboardPanel) SetSummary(t DashboardTicket, s domain.Summary) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.summary.admitNewest(t.summary) {
		return false
	}
	p.view.Summary = &s
	return true
}

func (p *DashboardPanel) SetAccounts(t DashboardTicket, accounts []domain.Account) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.accounts.admitNewest(t.accounts) {
		return false
	}
	p.view.Accounts = append([]domain.Account{}, accounts...)
	return true
}

func (p *DashboardPanel) SetRecent(t DashboardTicket, txs []domain.Transaction) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.recent.admitNewest(t.recent) {
		return false
	}
	p.view.Recent = append([]domain.Transaction{}, txs...)
	return true
}

func (p *DashboardPanel) View() DashboardView {
	p.mu.Lock()
	defer p.mu.Unlock()
	v := p.view
	if v.Summary != nil {
		s := *v.Summary
		v.Summary = &s
	}
	v.Accounts = append([]domain.Account(nil), v.Accounts...)
	v.Recent = append([]domain.Transaction(nil), v.Recent...)
	return v
}

// ============================================================
// Accounts
// ============================================================

// AccountsView is what the accounts panel shows.
type AccountsView struct {
	Accounts []domain.Account
	Loaded   bool
}

func (v AccountsView) Empty() bool {
	return v.Loaded && len(v.Accounts) == 0
}

type AccountsPanel struct {
	mu   sync.Mutex
	view AccountsView
	seq  loadSeq
}

func NewAccountsPanel() *AccountsPanel {
	return &AccountsPanel{}
}

func (p *AccountsPanel) BeginLoad() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.seq.next()
}

func (p *AccountsPanel) Show(ticket uint64, accounts []domain.Account) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.seq.admitNewest(ticket) {
		return false
	}
	p.view = AccountsView{Accounts: append([]domain.Account{}, accounts...), Loaded: true}
	return true
}

func (p *AccountsPanel) View() AccountsView {
	p.mu.Lock()
	defer p.mu.Unlock()
	v := p.view
	v.Accounts = append([]domain.Account(nil), v.Accounts...)
	return v
}

// ============================================================
// Plan
// ============================================================

// PlanView is what the subscription panel shows.
type PlanView struct {
	Usage    domain.Usage
	RenewsOn domain.Timestamp
	Loaded   bool
}

func (v PlanView) Badge() string {
	if v.Usage.IsPro {
		return "PRO"
	}
	return "Free"
}

func (v PlanView) Title() string {
	if v.Usage.IsPro {
		return "Pro Plan"
	}
	return "Free Plan"
}

// StatusLine reads "Status: active · Renews: 01 Feb 2025".
func (v PlanView) StatusLine() string {
	status := v.Usage.Status
	if status == "" {
		status = domain.ActiveStatus
	}
	line := "Status: " + status
	if renews := domain.FormatDate(v.RenewsOn); renews != "" {
		line += " · Renews: " + renews
	}
	return line
}

// TxUsage reads "<count> / <limit>".
func (v PlanView) TxUsage() string {
	return strconv.Itoa(v.Usage.TxCount) + " / " + v.Usage.TxLimit.String()
}

// OCRUsage reads "<count> / <limit>".
func (v PlanView) OCRUsage() string {
	return strconv.Itoa(v.Usage.OCRCount) + " / " + v.Usage.OCRLimit.String()
}

type PlanPanel struct {
	mu   sync.Mutex
	view PlanView
	seq  loadSeq
}

func NewPlanPanel() *PlanPanel {
	return &PlanPanel{}
}

func (p *PlanPanel) BeginLoad() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.seq.next()
}

// Show derives usage from sub and writes it unless a newer load already did.
func (p *PlanPanel) Show(ticket uint64, sub domain.Subscription) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.seq.admitNewest(ticket) {
		return false
	}
	p.view = PlanView{Usage: domain.DeriveUsage(sub), RenewsOn: sub.CurrentPeriodEnd, Loaded: true}
	return true
}

func (p *PlanPanel) View() PlanView {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.view
}
