// Package store defines the durable state contracts for the client
// management services: the credential store and the session store.
//
// Both stores are whole-document collections: implementations load the
// full document on every call and rewrite it on every mutation. Each
// implementation must serialize its own read-modify-write cycle, so
// callers never need external locking.
package store

import (
	"errors"
	"time"
)

// ErrUserExists is returned when adding a credential whose username is
// already taken.
var ErrUserExists = errors.New("user already exists")

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// Credential is a durable username/password-hash record. The password
// hash is a bcrypt digest and is never exposed through listings.
type Credential struct {
	Username     string    `json:"username"`
	PasswordHash string    `json:"passwordHash"`
	CreatedAt    time.Time `json:"createdAt"`
}

// UserInfo is the listable projection of a Credential, without the hash.
type UserInfo struct {
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"createdAt"`
}

// Session is an active bearer-token session. ExpiresAt is fixed at
// creation time and never extended; only LastActivity advances.
type Session struct {
	Token        string    `json:"token"`
	Username     string    `json:"username"`
	CreatedAt    time.Time `json:"createdAt"`
	ExpiresAt    time.Time `json:"expiresAt"`
	LastActivity time.Time `json:"lastActivity"`
}

// Expired reports whether the session's lifetime has elapsed at now.
func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.After(now)
}

// CredentialStore is the durable mapping from username to credential
// record. Usernames are unique and case-sensitive.
type CredentialStore interface {
	// Find returns the credential for username, or ErrNotFound.
	Find(username string) (*Credential, error)
	// Exists reports whether a credential exists for username.
	Exists(username string) (bool, error)
	// Add persists a new credential. Returns ErrUserExists if the
	// username is already taken.
	Add(cred Credential) error
	// Remove deletes the credential for username. Removing an absent
	// username is not an error.
	Remove(username string) error
	// List returns every credential as a hash-free projection.
	List() ([]UserInfo, error)
}

// SessionStore is the durable set of active sessions.
type SessionStore interface {
	// Add persists a new session.
	Add(session Session) error
	// FindByToken returns the session for token, or ErrNotFound.
	FindByToken(token string) (*Session, error)
	// RemoveByToken deletes the session for token. Removing an absent
	// token is not an error.
	RemoveByToken(token string) error
	// Touch sets LastActivity to now for an existing unexpired session;
	// it is a no-op otherwise.
	Touch(token string, now time.Time) error
	// SweepExpired removes every session with ExpiresAt <= now.
	// It is idempotent and safe to call concurrently with reads.
	SweepExpired(now time.Time) error
}
