// Package session holds the authentication token and user identity.
// It is the single source of truth for whether the client is authenticated.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/boddenberg/finance-tracker-go/internal/domain"
	"github.com/boddenberg/finance-tracker-go/internal/port"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

// Keys used in durable storage.
const (
	TokenKey = "ft_token"
	UserKey  = "ft_user"
)

// Listener is notified after every change of the session.
type Listener func(domain.Session)

// Store owns the session. Other components read it through Current.
type Store struct {
	// persistMu serializes every change with its write to creds, so storage
	// always ends up matching the last in-memory change.
	persistMu sync.Mutex
	mu        sync.RWMutex
	token     string
	user      *domain.User
	epoch     uint64
	listeners []Listener

	creds  port.CredentialStore
	now    func() time.Time
	logger *zap.Logger
}

// NewStore creates an anonymous session backed by creds.
func NewStore(creds port.CredentialStore, logger *zap.Logger) *Store {
	return &Store{
		creds:  creds,
		now:    time.Now,
		logger: logger,
	}
}

// Subscribe registers fn to run after each set or clear.
func (s *Store) Subscribe(fn Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// Current returns a snapshot of the session.
func (s *Store) Current() domain.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot()
}

// IsAuthenticated reports whether both token and user are present.
func (s *Store) IsAuthenticated() bool {
	return s.Current().Authenticated()
}

// Restore loads the persisted session. Half-present pairs and tokens whose
// JWT expiry has passed are discarded from storage.
func (s *Store) Restore(ctx context.Context) error {
	s.persistMu.Lock()
	snap, listeners, restored, err := s.restoreLocked(ctx)
	s.persistMu.Unlock()

	if restored {
		notify(listeners, snap)
	}
	return err
}

func (s *Store) restoreLocked(ctx context.Context) (domain.Session, []Listener, bool, error) {
	token, hasToken, err := s.creds.Get(ctx, TokenKey)
	if err != nil {
		return domain.Session{}, nil, false, fmt.Errorf("restore session token: %w", err)
	}
	rawUser, hasUser, err := s.creds.Get(ctx, UserKey)
	if err != nil {
		return domain.Session{}, nil, false, fmt.Errorf("restore session user: %w", err)
	}

	if !hasToken && !hasUser {
		return domain.Session{}, nil, false, nil
	}

	var user domain.User
	valid := hasToken && hasUser && token != ""
	if valid {
		if err := json.Unmarshal([]byte(rawUser), &user); err != nil {
			s.logger.Warn("session: stored user is unreadable", zap.Error(err))
			valid = false
		}
	}
	if valid && s.tokenExpired(token) {
		s.logger.Info("session: stored token has expired")
		valid = false
	}

	if !valid {
		return domain.Session{}, nil, false, s.creds.Delete(ctx, TokenKey, UserKey)
	}

	s.mu.Lock()
	s.token = token
	s.user = &user
	s.epoch++
	snap, listeners := s.snapshot(), s.listenersCopy()
	s.mu.Unlock()

	s.logger.Debug("session restored", zap.String("user_id", string(user.ID)))
	return snap, listeners, true, nil
}

// Set installs a new session and persists it. Token and user are installed
// together; an empty token or nil user is rejected.
func (s *Store) Set(ctx context.Context, token string, user *domain.User) error {
	if token == "" || user == nil {
		return errors.New("session requires both token and user")
	}

	rawUser, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encode user: %w", err)
	}

	s.persistMu.Lock()
	s.mu.Lock()
	s.token = token
	u := *user
	s.user = &u
	s.epoch++
	snap, listeners := s.snapshot(), s.listenersCopy()
	s.mu.Unlock()

	if err := s.creds.Set(ctx, TokenKey, token); err != nil {
		s.logger.Warn("session: failed to persist token", zap.Error(err))
	} else if err := s.creds.Set(ctx, UserKey, string(rawUser)); err != nil {
		s.logger.Warn("session: failed to persist user", zap.Error(err))
	}
	s.persistMu.Unlock()

	notify(listeners, snap)
	return nil
}

// Clear logs out: memory and durable storage are wiped.
func (s *Store) Clear(ctx context.Context) {
	s.persistMu.Lock()
	s.mu.Lock()
	snap, listeners := s.clearLocked()
	s.mu.Unlock()

	s.wipe(ctx)
	s.persistMu.Unlock()
	notify(listeners, snap)
}

// ExpireIfCurrent clears the session only if it is still the one that was
// current at epoch. Concurrent callers holding the same epoch see exactly
// one true result.
func (s *Store) ExpireIfCurrent(epoch uint64) bool {
	s.persistMu.Lock()
	s.mu.Lock()
	if s.epoch != epoch || s.token == "" {
		s.mu.Unlock()
		s.persistMu.Unlock()
		return false
	}
	snap, listeners := s.clearLocked()
	s.mu.Unlock()

	s.wipe(context.Background())
	s.persistMu.Unlock()
	notify(listeners, snap)
	return true
}

func (s *Store) clearLocked() (domain.Session, []Listener) {
	s.token = ""
	s.user = nil
	s.epoch++
	return s.snapshot(), s.listenersCopy()
}

func (s *Store) wipe(ctx context.Context) {
	if err := s.creds.Delete(ctx, TokenKey, UserKey); err != nil {
		s.logger.Warn("session: failed to wipe stored credentials", zap.Error(err))
	}
}

func (s *Store) snapshot() domain.Session {
	sess := domain.Session{Token: s.token, Epoch: s.epoch}
	if s.user != nil {
		u := *s.user
		sess.User = &u
	}
	return sess
}

func (s *Store) listenersCopy() []Listener {
	return append([]Listener(nil), s.listeners...)
}

// tokenExpired reports whether token is a JWT whose exp claim lies in the
// past. Opaque tokens never expire client-side.
func (s *Store) tokenExpired(token string) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return exp.Before(s.now())
}

func notify(listeners []Listener, sess domain.Session) {
	for _, fn := range listeners {
		fn(sess)
	}
}
