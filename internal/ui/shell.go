// Package ui holds the in-memory view models the controllers write into, the
// command dispatcher, and the terminal renderer.
//
// View models are safe for concurrent use. Every accessor returns copies.
package ui

import (
	"sync"

	"github.com/boddenberg/finance-tracker-go/internal/domain"
	"github.com/boddenberg/finance-tracker-go/internal/port"
)

// Screen is the top-level mode of the client.
type Screen string

const (
	ScreenAuth Screen = "auth"
	ScreenApp  Screen = "app"
)

// Shell tracks which screen and view are showing and the auth form error.
type Shell struct {
	mu        sync.RWMutex
	screen    Screen
	userName  string
	authError string
	active    domain.View
}

// NewShell starts on the auth screen with the chat view preselected.
func NewShell() *Shell {
	return &Shell{screen: ScreenAuth, active: domain.ViewChat}
}

// ShowAuth switches to the auth screen.
func (s *Shell) ShowAuth() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.screen = ScreenAuth
	s.userName = ""
}

// ShowApp switches to the app screen for userName and clears the auth error.
func (s *Shell) ShowApp(userName string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.screen = ScreenApp
	s.userName = userName
	s.authError = ""
}

func (s *Shell) Screen() Screen {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.screen
}

func (s *Shell) UserName() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.userName
}

// SetAuthError sets the text of the auth form error line. Empty hides it.
func (s *Shell) SetAuthError(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.authError = msg
}

func (s *Shell) AuthError() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.authError
}

// SetActive marks v as the visible view.
func (s *Shell) SetActive(v domain.View) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = v
}

func (s *Shell) Active() domain.View {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active
}

// Notice is one toast.
type Notice struct {
	Level   port.NoticeLevel
	Message string
}

// Notices is the toast queue. It implements port.Notifier.
type Notices struct {
	mu    sync.Mutex
	queue []Notice
	sink  func(Notice)
}

// NewNotices creates a queue. When sink is set every notice is also handed
// to it as it arrives.
func NewNotices(sink func(Notice)) *Notices {
	return &Notices{sink: sink}
}

func (n *Notices) Notify(level port.NoticeLevel, message string) {
	notice := Notice{Level: level, Message: message}

	n.mu.Lock()
	n.queue = append(n.queue, notice)
	sink := n.sink
	n.mu.Unlock()

	if sink != nil {
		sink(notice)
	}
}

// Drain returns the queued notices and empties the queue.
func (n *Notices) Drain() []Notice {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := n.queue
	n.queue = nil
	return out
}
