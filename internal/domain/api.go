package domain

import "encoding/json"

// ============================================================
// Backend API — request / response envelopes
// ============================================================

// MessageRequest is the body for POST /api/message.
type MessageRequest struct {
	Message string `json:"message"`
}

// MessageResponse is the body returned by POST /api/message.
type MessageResponse struct {
	Success         bool            `json:"success"`
	Message         string          `json:"message,omitempty"`
	Transactions    []Transaction   `json:"transactions,omitempty"`
	Data            json.RawMessage `json:"data,omitempty"`
	Error           string          `json:"error,omitempty"`
	UpgradeRequired bool            `json:"upgrade_required,omitempty"`
}

// UpdatesTotals reports whether the embedded data carries refreshed totals,
// i.e. whether the dashboard is now out of date.
func (r *MessageResponse) UpdatesTotals() bool {
	if len(r.Data) == 0 {
		return false
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(r.Data, &fields); err != nil {
		return false
	}
	_, ok := fields["total_income"]
	return ok
}

// OCRRequest is the body for POST /api/ocr.
type OCRRequest struct {
	Image   string `json:"image"`
	Message string `json:"message"`
}

// OCRResponse is the body returned by POST /api/ocr.
type OCRResponse struct {
	Message string `json:"message,omitempty"`
	Note    string `json:"note,omitempty"`
}

// Acknowledgement returns the text the backend wants shown, if any.
func (r *OCRResponse) Acknowledgement() string {
	if r.Message != "" {
		return r.Message
	}
	return r.Note
}

// AccountsResponse is the body returned by GET /api/accounts.
type AccountsResponse struct {
	Success  bool      `json:"success"`
	Accounts []Account `json:"accounts"`
	Error    string    `json:"error,omitempty"`
}

// TransactionsResponse is the body returned by GET /api/transactions.
type TransactionsResponse struct {
	Success      bool          `json:"success"`
	Transactions []Transaction `json:"transactions"`
	Error        string        `json:"error,omitempty"`
}

// SummaryResponse is the body returned by GET /api/summary.
type SummaryResponse struct {
	Success bool     `json:"success"`
	Summary *Summary `json:"summary"`
	Error   string   `json:"error,omitempty"`
}

// SubscriptionResponse is the body returned by GET /api/subscription.
type SubscriptionResponse struct {
	Success      bool          `json:"success"`
	Subscription *Subscription `json:"subscription"`
	Error        string        `json:"error,omitempty"`
}

// EditTransactionRequest is the body for POST /api/edit-transaction.
type EditTransactionRequest struct {
	TransactionID ID     `json:"transaction_id"`
	Action        string `json:"action"`
}

// EditTransactionResponse is the body returned by POST /api/edit-transaction.
type EditTransactionResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}
