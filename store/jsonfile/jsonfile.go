// Package jsonfile provides flat-file JSON implementations of the
// credential and session stores. Each store owns a single JSON document
// ({"users": [...]} or {"sessions": [...]}) which is read in full on
// every call and rewritten in full on every mutation. A per-store mutex
// serializes the read-modify-write cycle.
package jsonfile

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/xaviergregor/gestion-clients/store"
)

const fileMode = 0o600

// usersDocument is the on-disk shape of the credential store.
type usersDocument struct {
	Users []store.Credential `json:"users"`
}

// sessionsDocument is the on-disk shape of the session store.
type sessionsDocument struct {
	Sessions []store.Session `json:"sessions"`
}

func loadDocument(path string, v any) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		// Missing file means an empty store.
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	return nil
}

func saveDocument(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, data, fileMode); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// CredentialStore is a store.CredentialStore backed by a users.json file.
type CredentialStore struct {
	mu   sync.Mutex
	path string
}

var _ store.CredentialStore = (*CredentialStore)(nil)

// NewCredentialStore returns a credential store persisting to path.
// The file is created on first mutation.
func NewCredentialStore(path string) *CredentialStore {
	return &CredentialStore{path: path}
}

func (s *CredentialStore) load() (*usersDocument, error) {
	var doc usersDocument
	if err := loadDocument(s.path, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

func (s *CredentialStore) Find(username string) (*store.Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.load()
	if err != nil {
		return nil, err
	}
	for i := range doc.Users {
		if doc.Users[i].Username == username {
			cred := doc.Users[i]
			return &cred, nil
		}
	}
	return nil, fmt.Errorf("user %q: %w", username, store.ErrNotFound)
}

func (s *CredentialStore) Exists(username string) (bool, error) {
	_, err := s.Find(username)
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *CredentialStore) Add(cred store.Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.load()
	if err != nil {
		return err
	}
	for i := range doc.Users {
		if doc.Users[i].Username == cred.Username {
			return fmt.Errorf("user %q: %w", cred.Username, store.ErrUserExists)
		}
	}
	doc.Users = append(doc.Users, cred)
	return saveDocument(s.path, doc)
}

func (s *CredentialStore) Remove(username string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.load()
	if err != nil {
		return err
	}
	kept := doc.Users[:0]
	for _, u := range doc.Users {
		if u.Username != username {
			kept = append(kept, u)
		}
	}
	if len(kept) == len(doc.Users) {
		// Idempotent: absent usernames are not an error, and the file
		// is left untouched.
		return nil
	}
	doc.Users = kept
	return saveDocument(s.path, doc)
}

func (s *CredentialStore) List() ([]store.UserInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.load()
	if err != nil {
		return nil, err
	}
	users := make([]store.UserInfo, len(doc.Users))
	for i, u := range doc.Users {
		users[i] = store.UserInfo{Username: u.Username, CreatedAt: u.CreatedAt}
	}
	return users, nil
}

// SessionStore is a store.SessionStore backed by a sessions.json file.
type SessionStore struct {
	mu   sync.Mutex
	path string
}

var _ store.SessionStore = (*SessionStore)(nil)

// NewSessionStore returns a session store persisting to path.
// The file is created on first mutation.
func NewSessionStore(path string) *SessionStore {
	return &SessionStore{path: path}
}

func (s *SessionStore) load() (*sessionsDocument, error) {
	var doc sessionsDocument
	if err := loadDocument(s.path, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

func (s *SessionStore) Add(session store.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.load()
	if err != nil {
		return err
	}
	doc.Sessions = append(doc.Sessions, session)
	return saveDocument(s.path, doc)
}

func (s *SessionStore) FindByToken(token string) (*store.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.load()
	if err != nil {
		return nil, err
	}
	for i := range doc.Sessions {
		if doc.Sessions[i].Token == token {
			session := doc.Sessions[i]
			return &session, nil
		}
	}
	return nil, fmt.Errorf("session: %w", store.ErrNotFound)
}

func (s *SessionStore) RemoveByToken(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.load()
	if err != nil {
		return err
	}
	kept := doc.Sessions[:0]
	for _, sess := range doc.Sessions {
		if sess.Token != token {
			kept = append(kept, sess)
		}
	}
	if len(kept) == len(doc.Sessions) {
		return nil
	}
	doc.Sessions = kept
	return saveDocument(s.path, doc)
}

func (s *SessionStore) Touch(token string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.load()
	if err != nil {
		return err
	}
	for i := range doc.Sessions {
		if doc.Sessions[i].Token != token {
			continue
		}
		if doc.Sessions[i].Expired(now) {
			return nil
		}
		doc.Sessions[i].LastActivity = now
		return saveDocument(s.path, doc)
	}
	return nil
}

func (s *SessionStore) SweepExpired(now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.load()
	if err != nil {
		return err
	}
	kept := doc.Sessions[:0]
	for _, sess := range doc.Sessions {
		if !sess.Expired(now) {
			kept = append(kept, sess)
		}
	}
	if len(kept) == len(doc.Sessions) {
		return nil
	}
	doc.Sessions = kept
	return saveDocument(s.path, doc)
}
