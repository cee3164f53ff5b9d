package blob

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"go.etcd.io/bbolt"

	"github.com/xaviergregor/gestion-clients/store"
)

// index persists per-file metadata in a bbolt database, one bucket per
// client, keyed by stored filename.
type index struct {
	db *bbolt.DB
}

func openIndex(path string) (*index, error) {
	db, err := bbolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("opening blob index: %w", err)
	}
	return &index{db: db}, nil
}

func (i *index) close() error {
	return i.db.Close()
}

// newEntryID mints the identifier recorded for each upload.
func newEntryID() string {
	return uuid.NewString()
}

func (i *index) put(clientID string, sf StoredFile) error {
	return i.db.Update(func(tx *bbolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte(clientID))
		if err != nil {
			return err
		}
		data, err := json.Marshal(sf)
		if err != nil {
			return err
		}
		return b.Put([]byte(sf.Filename), data)
	})
}

func (i *index) get(clientID, filename string) (*StoredFile, error) {
	var sf StoredFile
	err := i.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(clientID))
		if b == nil {
			return fmt.Errorf("%s: %w", clientID, store.ErrNotFound)
		}
		data := b.Get([]byte(filename))
		if data == nil {
			return fmt.Errorf("%s: %w", filename, store.ErrNotFound)
		}
		return json.Unmarshal(data, &sf)
	})
	if err != nil {
		return nil, err
	}
	return &sf, nil
}

func (i *index) delete(clientID, filename string) error {
	return i.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(clientID))
		if b == nil {
			return nil
		}
		return b.Delete([]byte(filename))
	})
}
