package domain

import (
	"fmt"
	"strings"
)

// Sender identifies who authored a chat entry.
type Sender string

const (
	SenderUser Sender = "user"
	SenderBot  Sender = "bot"
)

// ChatMessage is one rendered line of the transcript. Messages are never
// mutated after they are appended.
type ChatMessage struct {
	ID     string
	Text   string
	Sender Sender
	// Typing marks the transient "bot is typing" placeholder.
	Typing bool
}

// Canned chat texts.
const (
	UploadingReceiptText = "📷 Uploading receipt for OCR..."
	ImageReceivedText    = "Image received."
	GenericFailureText   = "Something went wrong."
	ConnectivityText     = "Sorry, I had trouble connecting. Please try again."
	SessionExpiredText   = "Your session has expired. Please log in again."
	UpgradeHintText      = "Go to Plan tab to upgrade."
)

// TransactionLine formats a logged transaction the way the chat echoes it:
// "<glyph> <item>: <amount> (<category>)".
func TransactionLine(t Transaction) string {
	return fmt.Sprintf("%s %s: %s (%s)", t.Direction.Glyph(), t.Item, FormatJMD(t.Amount), t.Category)
}

// TransactionsSummary joins one TransactionLine per transaction, in order.
func TransactionsSummary(txs []Transaction) string {
	lines := make([]string, 0, len(txs))
	for _, t := range txs {
		lines = append(lines, TransactionLine(t))
	}
	return strings.Join(lines, "\n")
}

// UpgradePrompt is the bot text shown when a quota is exceeded.
func UpgradePrompt(reason string) string {
	return "⭐ " + reason + "\n\n" + UpgradeHintText
}
