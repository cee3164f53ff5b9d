// Package authsvc implements the credential and session lifecycle: user
// administration, login, bearer-token verification, logout, and expired
// session sweeping.
package authsvc

import (
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/xaviergregor/gestion-clients/internal/util"
	"github.com/xaviergregor/gestion-clients/store"
)

const (
	// sessionTTL is the fixed session lifetime. It is set at login and
	// never extended by activity.
	sessionTTL = 24 * time.Hour
	// hashCost is the bcrypt cost factor for new password hashes.
	hashCost = 10
)

// Service owns the session state machine. A session is created on
// login, stays active across verifies (LastActivity advancing), and
// ends on logout or once its TTL elapses. Expired and logged-out
// sessions are indistinguishable from unknown tokens.
type Service struct {
	users    store.CredentialStore
	sessions store.SessionStore
	ttl      time.Duration
	cost     int
	now      func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithTTL overrides the default 24h session lifetime.
func WithTTL(ttl time.Duration) Option {
	return func(s *Service) { s.ttl = ttl }
}

// WithClock overrides the time source. Used by tests to advance time
// deterministically.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithHashCost overrides the bcrypt cost for new hashes. Tests use the
// minimum cost to keep hashing fast.
func WithHashCost(cost int) Option {
	return func(s *Service) { s.cost = cost }
}

// New creates a Service over the given stores.
func New(users store.CredentialStore, sessions store.SessionStore, opts ...Option) *Service {
	s := &Service{
		users:    users,
		sessions: sessions,
		ttl:      sessionTTL,
		cost:     hashCost,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Login verifies the username/password pair and mints a new session.
// Unknown usernames and wrong passwords both fail with
// ErrInvalidCredentials. Concurrent logins for the same username
// produce distinct independent sessions.
func (s *Service) Login(username, password string) (*store.Session, error) {
	if username == "" || password == "" {
		return nil, ErrValidation
	}

	cred, err := s.users.Find(username)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("looking up credential: %w", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(cred.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}

	token, err := util.RandomToken()
	if err != nil {
		return nil, fmt.Errorf("minting session token: %w", err)
	}
	now := s.now().UTC()
	session := store.Session{
		Token:        token,
		Username:     username,
		CreatedAt:    now,
		ExpiresAt:    now.Add(s.ttl),
		LastActivity: now,
	}
	if err := s.sessions.Add(session); err != nil {
		return nil, fmt.Errorf("persisting session: %w", err)
	}
	return &session, nil
}

// Verify resolves a bearer token to its session. It sweeps expired
// sessions first, so a token past its TTL is gone from storage by the
// time the lookup fails. On success LastActivity is advanced and
// persisted; ExpiresAt never moves.
func (s *Service) Verify(token string) (*store.Session, error) {
	if token == "" {
		return nil, ErrMissingToken
	}

	now := s.now().UTC()
	if err := s.sessions.SweepExpired(now); err != nil {
		return nil, fmt.Errorf("sweeping sessions: %w", err)
	}

	session, err := s.sessions.FindByToken(token)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrUnauthorized
	}
	if err != nil {
		return nil, fmt.Errorf("looking up session: %w", err)
	}
	if session.Expired(now) {
		return nil, ErrUnauthorized
	}

	if err := s.sessions.Touch(token, now); err != nil {
		return nil, fmt.Errorf("recording session activity: %w", err)
	}
	session.LastActivity = now
	return session, nil
}

// Logout removes the session for token. It always succeeds from the
// caller's perspective: a missing or unknown token is a no-op, and
// calling it twice is fine.
func (s *Service) Logout(token string) error {
	if token == "" {
		return nil
	}
	if err := s.sessions.RemoveByToken(token); err != nil {
		return fmt.Errorf("removing session: %w", err)
	}
	return nil
}

// SweepExpired removes every session whose expiry has passed at now.
func (s *Service) SweepExpired(now time.Time) error {
	return s.sessions.SweepExpired(now.UTC())
}

// AddUser hashes the password and persists a new credential record.
// A taken username fails with store.ErrUserExists and leaves the
// existing record untouched.
func (s *Service) AddUser(username, password string) error {
	if username == "" || password == "" {
		return ErrValidation
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}
	return s.users.Add(store.Credential{
		Username:     username,
		PasswordHash: string(hash),
		CreatedAt:    s.now().UTC(),
	})
}

// RemoveUser deletes the credential for username. Absent usernames are
// not an error. Existing sessions for the user are left to expire.
func (s *Service) RemoveUser(username string) error {
	return s.users.Remove(username)
}

// ListUsers returns every user without password hashes.
func (s *Service) ListUsers() ([]store.UserInfo, error) {
	return s.users.List()
}
