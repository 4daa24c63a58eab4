package domain

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ============================================================
// Core financial models (owned by the backend, cached by the client)
// ============================================================

// Currency is the only currency the backend books in.
const Currency = "JMD"

// Direction tells whether money came in or went out.
type Direction string

const (
	Inflow  Direction = "inflow"
	Outflow Direction = "outflow"
)

// Glyph returns the emoji used when a transaction is echoed in the chat.
func (d Direction) Glyph() string {
	if d == Inflow {
		return "💵"
	}
	return "💸"
}

// Sign returns the prefix used in transaction lists.
func (d Direction) Sign() string {
	if d == Inflow {
		return "+"
	}
	return "-"
}

// Transaction is a single booked movement of money.
type Transaction struct {
	ID            ID              `json:"id"`
	Item          string          `json:"item"`
	Amount        decimal.Decimal `json:"amount"`
	Direction     Direction       `json:"direction"`
	Category      string          `json:"category"`
	PaymentMethod string          `json:"payment_method,omitempty"`
	CreatedAt     Timestamp       `json:"created_at"`
}

// Account is a balance holder (bank account, cash, card).
type Account struct {
	AccountType string          `json:"account_type"`
	Name        string          `json:"name"`
	Balance     decimal.Decimal `json:"balance"`
}

// Summary is the weekly aggregate returned by /api/summary.
type Summary struct {
	TotalIncome  decimal.Decimal `json:"total_income"`
	TotalExpense decimal.Decimal `json:"total_expense"`
	TxCount      FlexInt         `json:"tx_count"`
}

// Net is income minus expense.
func (s Summary) Net() decimal.Decimal {
	return s.TotalIncome.Sub(s.TotalExpense)
}

// Subscription is the raw plan/usage record returned by /api/subscription.
type Subscription struct {
	PlanName         string    `json:"plan_name"`
	Status           string    `json:"status"`
	CurrentPeriodEnd Timestamp `json:"current_period_end"`
	TxCount          FlexInt   `json:"tx_count"`
	OCRCount         FlexInt   `json:"ocr_count"`
}

// ============================================================
// Wire helpers
// ============================================================

// ID accepts both JSON strings and JSON numbers.
type ID string

func (id *ID) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		*id = ""
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*id = ID(v)
		return nil
	}
	*id = ID(s)
	return nil
}

// FlexInt decodes counts that may arrive as numbers or numeric strings.
// Anything unparsable decodes to zero.
type FlexInt int

func (n *FlexInt) UnmarshalJSON(b []byte) error {
	s := strings.Trim(strings.TrimSpace(string(b)), `"`)
	if s == "" || s == "null" {
		*n = 0
		return nil
	}
	if i, err := strconv.Atoi(s); err == nil {
		*n = FlexInt(i)
		return nil
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		*n = FlexInt(int(f))
		return nil
	}
	*n = 0
	return nil
}

// timestampLayouts are tried in order when decoding a Timestamp.
var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Timestamp decodes RFC 3339, "2006-01-02 15:04:05" and date-only strings.
// Empty, null or unparsable values decode to the zero Timestamp, which
// means absent.
type Timestamp struct {
	time.Time
}

func (t *Timestamp) UnmarshalJSON(b []byte) error {
	*t = Timestamp{}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return nil
	}
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return nil
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.Format(time.RFC3339))
}
