// Package clients reads the client database document produced by the
// client-management application. The document is owned by that
// application; this package only consumes it, so the original French
// field names are preserved on the wire.
package clients

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"
)

// Client is a single record of the client database.
type Client struct {
	ID    string `json:"id"`
	Name  string `json:"nom"`
	Email string `json:"email,omitempty"`
	Phone string `json:"telephone,omitempty"`
	Added string `json:"dateAjout,omitempty"`
	Notes string `json:"notes,omitempty"`
}

type document struct {
	Clients []Client `json:"clients"`
}

// Store provides read access to the db.json client database.
type Store struct {
	mu   sync.Mutex
	path string
}

// NewStore returns a store reading from path. A missing file is an
// empty database.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// List returns every client in the database.
func (s *Store) List() ([]Client, error) {
	raw, err := s.Raw()
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, nil
	}
	var doc document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", s.path, err)
	}
	return doc.Clients, nil
}

// Raw returns the raw database document, for inclusion in exports.
// A missing file yields nil with no error.
func (s *Store) Raw() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", s.path, err)
	}
	return data, nil
}
