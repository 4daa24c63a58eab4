package ui

import (
	"fmt"
	"math"
	"strings"

	"github.com/boddenberg/finance-tracker-go/internal/domain"
	"github.com/boddenberg/finance-tracker-go/internal/port"

	"github.com/charmbracelet/lipgloss"
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("62")).
			Padding(0, 1)

	userStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("212")).
			Bold(true)

	botStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42"))

	mutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243")).
			Italic(true)

	inflowStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	outflowStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	badgeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("230")).
			Background(lipgloss.Color("62")).
			Padding(0, 1)

	severityStyles = map[domain.Severity]lipgloss.Style{
		domain.SeverityNormal:  lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		domain.SeverityWarning: lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		domain.SeverityDanger:  lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
	}
)

const barWidth = 20

// SignedAmount renders "+J$1,000.00" for inflows and "-J$1,000.00" for outflows.
func SignedAmount(tx domain.Transaction) string {
	return tx.Direction.Sign() + domain.FormatJMD(tx.Amount.Abs())
}

// TxnMeta renders "category · payment method · date".
func TxnMeta(tx domain.Transaction) string {
	method := tx.PaymentMethod
	if method == "" {
		method = "unknown"
	}
	parts := []string{tx.Category, method}
	if date := domain.FormatDate(tx.CreatedAt); date != "" {
		parts = append(parts, date)
	}
	return strings.Join(parts, " · ")
}

// RenderMessage renders one transcript entry.
func RenderMessage(m domain.ChatMessage) string {
	switch {
	case m.Typing:
		return mutedStyle.Render("bot is typing…")
	case m.Sender == domain.SenderUser:
		return userStyle.Render("you ›") + " " + m.Text
	default:
		return botStyle.Render("bot ›") + " " + m.Text
	}
}

// RenderNotice renders a toast.
func RenderNotice(n Notice) string {
	if n.Level == port.NoticeError {
		return outflowStyle.Render("✗ " + n.Message)
	}
	return inflowStyle.Render("✓ " + n.Message)
}

func renderRow(tx domain.Transaction, withID bool) string {
	amount := outflowStyle.Render(SignedAmount(tx))
	if tx.Direction == domain.Inflow {
		amount = inflowStyle.Render(SignedAmount(tx))
	}
	line := fmt.Sprintf("%s  %s  %s", tx.Item, mutedStyle.Render(TxnMeta(tx)), amount)
	if withID {
		line = mutedStyle.Render("["+string(tx.ID)+"]") + " " + line
	}
	return line
}

// RenderDashboard renders the dashboard. Sections not yet loaded are skipped.
func RenderDashboard(v DashboardView) string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("This week") + "\n")
	if v.Summary != nil {
		s := v.Summary
		fmt.Fprintf(&b, "  Income   %s\n", inflowStyle.Render(domain.FormatJMD(s.TotalIncome)))
		fmt.Fprintf(&b, "  Expenses %s\n", outflowStyle.Render(domain.FormatJMD(s.TotalExpense)))
		fmt.Fprintf(&b, "  Net      %s\n", domain.FormatJMD(s.Net()))
		fmt.Fprintf(&b, "  Count    %d\n", int(s.TxCount))
	}
	if v.Accounts != nil {
		b.WriteString(headerStyle.Render("Accounts") + "\n")
		for _, a := range v.Accounts {
			fmt.Fprintf(&b, "  %s %s  %s\n", a.Name, mutedStyle.Render(a.AccountType), domain.FormatJMD(a.Balance))
		}
	}
	if v.Recent != nil {
		b.WriteString(headerStyle.Render("Recent") + "\n")
		if len(v.Recent) == 0 {
			b.WriteString("  " + mutedStyle.Render(NoTransactionsText) + "\n")
		}
		for _, tx := range v.Recent {
			b.WriteString("  " + renderRow(tx, false) + "\n")
		}
	}
	return b.String()
}

// RenderTransactions renders the current page with its controls.
func RenderTransactions(v TxnView) string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Transactions") + "\n")
	if v.Empty() {
		b.WriteString("  " + mutedStyle.Render(NoTransactionsText) + "\n")
	}
	for _, tx := range v.Rows {
		b.WriteString("  " + renderRow(tx, true) + "\n")
	}

	prev, next := "‹ prev", "next ›"
	if v.PrevDisabled {
		prev = mutedStyle.Render(prev)
	}
	if v.NextDisabled {
		next = mutedStyle.Render(next)
	}
	fmt.Fprintf(&b, "  %s  %s  %s\n", prev, v.Label(), next)
	return b.String()
}

// RenderAccounts renders the accounts view.
func RenderAccounts(v AccountsView) string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Accounts") + "\n")
	if v.Empty() {
		b.WriteString("  " + mutedStyle.Render(NoAccountsText) + "\n")
	}
	for _, a := range v.Accounts {
		fmt.Fprintf(&b, "  %s %s  %s\n", a.Name, mutedStyle.Render(a.AccountType), domain.FormatJMD(a.Balance))
	}
	return b.String()
}

// RenderPlan renders the subscription view.
func RenderPlan(v PlanView) string {
	var b strings.Builder
	b.WriteString(badgeStyle.Render(v.Badge()) + " " + headerStyle.Render(v.Title()) + "\n")
	b.WriteString("  " + v.StatusLine() + "\n")
	fmt.Fprintf(&b, "  Transactions %s %s\n", UsageBar(v.Usage.TxPct), v.TxUsage())
	fmt.Fprintf(&b, "  Receipts     %s %s\n", UsageBar(v.Usage.OCRPct), v.OCRUsage())
	return b.String()
}

// UsageBar draws a bar coloured by the severity of pct.
func UsageBar(pct float64) string {
	filled := int(math.Round(pct / 100 * barWidth))
	bar := strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled)
	return severityStyles[domain.SeverityFor(pct)].Render(bar)
}
