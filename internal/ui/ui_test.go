package ui_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/boddenberg/finance-tracker-go/internal/domain"
	"github.com/boddenberg/finance-tracker-go/internal/ui"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func TestTranscript_TypingRemovedByID(t *testing.T) {
	tr := ui.NewTranscript()
	var events []ui.TranscriptEvent
	tr.Subscribe(func(e ui.TranscriptEvent) { events = append(events, e) })

	tr.Append(domain.SenderUser, "hi")
	typing := tr.AppendTyping()
	tr.Append(domain.SenderBot, "hello")

	if !tr.Remove(typing) {
		t.Fatal("expected typing indicator to be removed")
	}
	if tr.Remove(typing) {
		t.Error("second removal should report false")
	}

	msgs := tr.Messages()
	if len(msgs) != 2 || msgs[0].Text != "hi" || msgs[1].Text != "hello" {
		t.Errorf("unexpected transcript %+v", msgs)
	}
	if len(events) != 4 || !events[3].Removed {
		t.Errorf("expected 3 appends and 1 removal, got %+v", events)
	}
}

func TestTranscript_ResetNotifiesAndOutlivesTyping(t *testing.T) {
	tr := ui.NewTranscript()
	var events []ui.TranscriptEvent
	tr.Subscribe(func(e ui.TranscriptEvent) { events = append(events, e) })

	tr.Append(domain.SenderUser, "hi")
	typing := tr.AppendTyping()
	tr.Reset()

	if tr.Remove(typing) {
		t.Error("indicator cleared by reset should not be removed again")
	}
	if len(tr.Messages()) != 0 {
		t.Errorf("expected empty transcript, got %+v", tr.Messages())
	}
	if len(events) != 3 || !events[2].Reset {
		t.Fatalf("expected 2 appends and a reset, got %+v", events)
	}
}

func TestComposer_BeginSend(t *testing.T) {
	c := ui.NewComposer()

	c.SetInput("   ")
	if _, _, err := c.BeginSend(); !errors.Is(err, domain.ErrValidationSkipped) {
		t.Fatalf("blank input should be skipped, got %v", err)
	}
	if !c.SendEnabled() || c.Input() != "   " {
		t.Error("a skipped send must not change the composer")
	}

	c.SetInput(" lunch 2000 ")
	text, image, err := c.BeginSend()
	if err != nil || text != "lunch 2000" || image != "" {
		t.Fatalf("unexpected begin: %q %q %v", text, image, err)
	}
	if c.SendEnabled() || c.Focused() || c.Input() != "" {
		t.Error("send should disable the control and clear the input")
	}

	c.SetInput("again")
	if _, _, err := c.BeginSend(); !errors.Is(err, domain.ErrValidationSkipped) {
		t.Error("a send in flight should skip new sends")
	}

	c.EndSend()
	if !c.SendEnabled() || !c.Focused() {
		t.Error("expected send enabled and focus restored")
	}
}

func TestComposer_ImageOnly(t *testing.T) {
	c := ui.NewComposer()
	c.SetPendingImage("data:image/png;base64,AAAA")
	c.SetPendingImage("data:image/png;base64,BBBB")

	text, image, err := c.BeginSend()
	if err != nil || text != "" || image != "data:image/png;base64,BBBB" {
		t.Fatalf("unexpected begin: %q %q %v", text, image, err)
	}
	if _, ok := c.PendingImage(); !ok {
		t.Error("begin must not clear the pending image")
	}
}

func TestTxnPanel_DiscardsSupersededLoad(t *testing.T) {
	p := ui.NewTxnPanel(2)

	first, cur := p.BeginLoad()
	second, _ := p.BeginLoad()

	next := cur.Move(domain.PageNext)
	if !p.Show(second, next, []domain.Transaction{{ID: "a"}}) {
		t.Fatal("latest load should be shown")
	}
	if p.Show(first, cur, []domain.Transaction{{ID: "x"}, {ID: "y"}}) {
		t.Error("superseded load should be discarded")
	}

	v := p.View()
	if v.Label() != "Page 2" || v.PrevDisabled || !v.NextDisabled || len(v.Rows) != 1 {
		t.Errorf("unexpected view %+v", v)
	}
}

func TestTxnPanel_EmptyPage(t *testing.T) {
	p := ui.NewTxnPanel(20)
	ticket, cur := p.BeginLoad()
	p.Show(ticket, cur, nil)

	v := p.View()
	if !v.Empty() || !v.PrevDisabled || !v.NextDisabled || v.Label() != "Page 1" {
		t.Errorf("unexpected view %+v", v)
	}
	if !strings.Contains(ui.RenderTransactions(v), ui.NoTransactionsText) {
		t.Error("expected guidance text")
	}
}

func TestDashboardPanel_NewerSectionWins(t *testing.T) {
	p := ui.NewDashboardPanel()
	older := p.BeginLoad()
	newer := p.BeginLoad()

	p.SetSummary(newer, domain.Summary{TxCount: 2})
	if p.SetSummary(older, domain.Summary{TxCount: 1}) {
		t.Error("older summary must not overwrite a newer one")
	}
	// Sections are independent: the older load may still fill accounts.
	if !p.SetAccounts(older, []domain.Account{{Name: "NCB"}}) {
		t.Error("older accounts should be accepted when nothing newer was written")
	}

	v := p.View()
	if v.Summary == nil || v.Summary.TxCount != 2 || len(v.Accounts) != 1 || v.Recent != nil {
		t.Errorf("unexpected view %+v", v)
	}
}

func TestPlanView_Lines(t *testing.T) {
	p := ui.NewPlanPanel()
	renews := time.Date(2025, time.February, 1, 0, 0, 0, 0, time.UTC)

	p.Show(p.BeginLoad(), domain.Subscription{PlanName: "pro_monthly", Status: "active", CurrentPeriodEnd: domain.Timestamp{Time: renews}, TxCount: 250})
	v := p.View()
	if v.Badge() != "PRO" || v.Title() != "Pro Plan" {
		t.Errorf("unexpected badge/title %q %q", v.Badge(), v.Title())
	}
	if v.StatusLine() != "Status: active · Renews: 01 Feb 2025" {
		t.Errorf("unexpected status line %q", v.StatusLine())
	}
	if v.TxUsage() != "250 / ∞" {
		t.Errorf("unexpected usage %q", v.TxUsage())
	}

	p.Show(p.BeginLoad(), domain.Subscription{TxCount: 60, OCRCount: 3})
	v = p.View()
	if v.Badge() != "Free" || v.StatusLine() != "Status: active" || v.OCRUsage() != "3 / 3" {
		t.Errorf("unexpected free view %+v", v)
	}
	if v.Usage.TxSeverity() != domain.SeverityWarning || v.Usage.OCRSeverity() != domain.SeverityDanger {
		t.Errorf("unexpected severities %s %s", v.Usage.TxSeverity(), v.Usage.OCRSeverity())
	}
}

func TestAccountsPanel_Empty(t *testing.T) {
	p := ui.NewAccountsPanel()
	if p.View().Empty() {
		t.Error("an unloaded panel is not empty")
	}
	p.Show(p.BeginLoad(), nil)
	if !strings.Contains(ui.RenderAccounts(p.View()), ui.NoAccountsText) {
		t.Error("expected accounts guidance")
	}
}

func TestTxnRowFormatting(t *testing.T) {
	created := time.Date(2025, time.January, 5, 10, 0, 0, 0, time.UTC)
	tx := domain.Transaction{
		Item: "salary", Amount: decimal.NewFromInt(150000), Direction: domain.Inflow,
		Category: "income", CreatedAt: domain.Timestamp{Time: created},
	}
	if got := ui.SignedAmount(tx); got != "+J$150,000.00" {
		t.Errorf("unexpected amount %q", got)
	}
	if got := ui.TxnMeta(tx); got != "income · unknown · 05 Jan 2025" {
		t.Errorf("unexpected meta %q", got)
	}
}

func TestDispatcher(t *testing.T) {
	d := ui.NewDispatcher(zap.NewNop())
	var got []string
	d.Register(ui.Command{Name: "send", Run: func(_ context.Context, args []string) error {
		got = args
		return nil
	}})

	if err := d.Dispatch(context.Background(), "send", []string{"hi"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0] != "hi" {
		t.Errorf("unexpected args %v", got)
	}

	var unknown *ui.ErrUnknownCommand
	if err := d.Dispatch(context.Background(), "nope", nil); !errors.As(err, &unknown) {
		t.Errorf("expected ErrUnknownCommand, got %v", err)
	}
}

func TestNotices_SinkAndDrain(t *testing.T) {
	var sunk []ui.Notice
	n := ui.NewNotices(func(notice ui.Notice) { sunk = append(sunk, notice) })
	n.Notify("success", "Transaction deleted")

	if len(sunk) != 1 {
		t.Fatalf("expected sink call, got %d", len(sunk))
	}
	if drained := n.Drain(); len(drained) != 1 || drained[0].Message != "Transaction deleted" {
		t.Errorf("unexpected drain %+v", drained)
	}
	if len(n.Drain()) != 0 {
		t.Error("drain should empty the queue")
	}
}
