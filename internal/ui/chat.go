package ui

import (
	"strings"
	"sync"

	"github.com/boddenberg/finance-tracker-go/internal/domain"

	"github.com/google/uuid"
)

// TranscriptEvent describes a change to the transcript. A Reset event
// carries no message: every earlier entry, typing indicator included, is gone.
type TranscriptEvent struct {
	Message domain.ChatMessage
	Removed bool
	Reset   bool
}

// Transcript is the append-only chat history plus the transient typing
// indicator. Entries are never edited; the indicator is removed by id.
type Transcript struct {
	mu          sync.Mutex
	entries     []domain.ChatMessage
	subscribers []func(TranscriptEvent)
}

func NewTranscript() *Transcript {
	return &Transcript{}
}

// Subscribe registers fn to run after every append, removal and reset, in order.
func (t *Transcript) Subscribe(fn func(TranscriptEvent)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.subscribers = append(t.subscribers, fn)
}

// Append adds a message and returns its id.
func (t *Transcript) Append(sender domain.Sender, text string) string {
	return t.add(domain.ChatMessage{ID: uuid.NewString(), Text: text, Sender: sender})
}

// AppendTyping adds the typing indicator and returns its id.
func (t *Transcript) AppendTyping() string {
	return t.add(domain.ChatMessage{ID: uuid.NewString(), Sender: domain.SenderBot, Typing: true})
}

func (t *Transcript) add(msg domain.ChatMessage) string {
	t.mu.Lock()
	t.entries = append(t.entries, msg)
	subs := append(([]func(TranscriptEvent))(nil), t.subscribers...)
	t.mu.Unlock()

	for _, fn := range subs {
		fn(TranscriptEvent{Message: msg})
	}
	return msg.ID
}

// Remove deletes the entry with id. It reports false and emits nothing when
// no such entry exists, e.g. a typing indicator already cleared by Reset.
func (t *Transcript) Remove(id string) bool {
	t.mu.Lock()
	idx := -1
	for i, m := range t.entries {
		if m.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		t.mu.Unlock()
		return false
	}
	removed := t.entries[idx]
	t.entries = append(t.entries[:idx:idx], t.entries[idx+1:]...)
	subs := append(([]func(TranscriptEvent))(nil), t.subscribers...)
	t.mu.Unlock()

	for _, fn := range subs {
		fn(TranscriptEvent{Message: removed, Removed: true})
	}
	return true
}

// Messages returns a copy of the transcript.
func (t *Transcript) Messages() []domain.ChatMessage {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]domain.ChatMessage(nil), t.entries...)
}

// Reset empties the transcript, e.g. on logout, and emits a Reset event.
func (t *Transcript) Reset() {
	t.mu.Lock()
	t.entries = nil
	subs := append(([]func(TranscriptEvent))(nil), t.subscribers...)
	t.mu.Unlock()

	for _, fn := range subs {
		fn(TranscriptEvent{Reset: true})
	}
}

// Composer is the chat input: text, send control, focus and pending image.
type Composer struct {
	mu           sync.Mutex
	input        string
	sendEnabled  bool
	focused      bool
	pendingImage string
}

func NewComposer() *Composer {
	return &Composer{sendEnabled: true, focused: true}
}

func (c *Composer) SetInput(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.input = text
}

func (c *Composer) Input() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.input
}

// BeginSend takes the trimmed input and the pending image, clears the input
// and disables the send control. It fails with domain.ErrValidationSkipped,
// changing nothing, when there is nothing to send or a send is running.
func (c *Composer) BeginSend() (text string, image string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	text = strings.TrimSpace(c.input)
	if !c.sendEnabled || (text == "" && c.pendingImage == "") {
		return "", "", domain.ErrValidationSkipped
	}
	c.sendEnabled = false
	c.focused = false
	c.input = ""
	return text, c.pendingImage, nil
}

// EndSend re-enables the send control and restores focus to the input.
func (c *Composer) EndSend() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sendEnabled = true
	c.focused = true
}

func (c *Composer) SendEnabled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sendEnabled
}

func (c *Composer) Focused() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.focused
}

// SetPendingImage replaces any pending image with dataURI.
func (c *Composer) SetPendingImage(dataURI string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pendingImage = dataURI
}

// PendingImage returns the pending image, if any.
func (c *Composer) PendingImage() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pendingImage, c.pendingImage != ""
}

func (c *Composer) ClearPendingImage() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pendingImage = ""
}
