package testutil

import (
	"context"
	"sync"

	"github.com/boddenberg/finance-tracker-go/internal/port"
)

// Notice is one recorded notification.
type Notice struct {
	Level   port.NoticeLevel
	Message string
}

// Notifier records notices instead of showing them.
type Notifier struct {
	mu      sync.Mutex
	notices []Notice
}

func (n *Notifier) Notify(level port.NoticeLevel, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notices = append(n.notices, Notice{Level: level, Message: message})
}

// Notices returns a copy of everything recorded so far.
func (n *Notifier) Notices() []Notice {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]Notice(nil), n.notices...)
}

// Count returns how many notices carried message.
func (n *Notifier) Count(message string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	c := 0
	for _, notice := range n.notices {
		if notice.Message == message {
			c++
		}
	}
	return c
}

// Confirmer answers every confirmation with Answer and counts prompts.
type Confirmer struct {
	mu      sync.Mutex
	Answer  bool
	prompts []string
}

func (c *Confirmer) Confirm(_ context.Context, prompt string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.prompts = append(c.prompts, prompt)
	return c.Answer
}

// Prompts returns every prompt asked so far.
func (c *Confirmer) Prompts() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.prompts...)
}
