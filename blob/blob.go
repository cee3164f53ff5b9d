// Package blob stores client-uploaded files on disk, one directory per
// client, with a bbolt index carrying per-file metadata. Files are
// stored under a unique name of the form
// <unix-millis>-<random>-<original-name> so that repeated uploads of
// the same file never collide; the original name is recoverable from
// the stored name even for files that predate the index.
package blob

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/xaviergregor/gestion-clients/internal/util"
	"github.com/xaviergregor/gestion-clients/store"
)

// StoredFile describes one uploaded file.
type StoredFile struct {
	ID           string    `json:"id"`
	Filename     string    `json:"filename"`
	OriginalName string    `json:"originalname"`
	Size         int64     `json:"size"`
	Mimetype     string    `json:"mimetype,omitempty"`
	UploadedAt   time.Time `json:"uploadDate"`
}

// Store is a per-client file store rooted at a single directory.
type Store struct {
	root  string
	index *index
}

// NewStore opens a blob store rooted at dir, with its metadata index at
// indexPath. The root directory is created if missing.
func NewStore(dir, indexPath string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("creating uploads directory: %w", err)
	}
	idx, err := openIndex(indexPath)
	if err != nil {
		return nil, err
	}
	return &Store{root: dir, index: idx}, nil
}

// Close releases the metadata index.
func (s *Store) Close() error {
	return s.index.close()
}

// ErrUnsafeName rejects path components that could escape the store root.
var ErrUnsafeName = errors.New("unsafe path component")

// checkComponent rejects client IDs and filenames that are empty,
// contain path separators, or are relative traversals.
func checkComponent(name string) error {
	if name == "" || name == "." || name == ".." {
		return ErrUnsafeName
	}
	if strings.ContainsAny(name, `/\`) {
		return ErrUnsafeName
	}
	return nil
}

func (s *Store) clientDir(clientID string) (string, error) {
	if err := checkComponent(clientID); err != nil {
		return "", fmt.Errorf("client id %q: %w", clientID, err)
	}
	return filepath.Join(s.root, clientID), nil
}

func (s *Store) filePath(clientID, filename string) (string, error) {
	dir, err := s.clientDir(clientID)
	if err != nil {
		return "", err
	}
	if err := checkComponent(filename); err != nil {
		return "", fmt.Errorf("filename %q: %w", filename, err)
	}
	return filepath.Join(dir, filename), nil
}

// storedName builds a collision-free on-disk name preserving the
// original name after the second dash.
func storedName(originalName string) (string, error) {
	suffix, err := util.RandomIntn(1_000_000_000)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d-%d-%s", time.Now().UnixMilli(), suffix, originalName), nil
}

// originalFromStored recovers the original name from a stored name.
func originalFromStored(filename string) string {
	parts := strings.SplitN(filename, "-", 3)
	if len(parts) < 3 {
		return filename
	}
	return parts[2]
}

// Save streams r into the client's directory and records its metadata.
// originalName is reduced to its base name before use.
func (s *Store) Save(clientID, originalName, mimetype string, r io.Reader) (*StoredFile, error) {
	dir, err := s.clientDir(clientID)
	if err != nil {
		return nil, err
	}
	originalName = filepath.Base(filepath.ToSlash(originalName))
	if err := checkComponent(originalName); err != nil {
		return nil, fmt.Errorf("filename %q: %w", originalName, err)
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("creating client directory: %w", err)
	}

	name, err := storedName(originalName)
	if err != nil {
		return nil, fmt.Errorf("generating stored name: %w", err)
	}
	path := filepath.Join(dir, name)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return nil, fmt.Errorf("creating %s: %w", path, err)
	}
	size, err := io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("writing %s: %w", path, err)
	}

	sf := StoredFile{
		ID:           newEntryID(),
		Filename:     name,
		OriginalName: originalName,
		Size:         size,
		Mimetype:     mimetype,
		UploadedAt:   time.Now().UTC(),
	}
	if err := s.index.put(clientID, sf); err != nil {
		os.Remove(path)
		return nil, err
	}
	return &sf, nil
}

// List returns the files stored for clientID, metadata taken from the
// index where present and reconstructed from the directory otherwise.
// An unknown client yields an empty list.
func (s *Store) List(clientID string) ([]StoredFile, error) {
	dir, err := s.clientDir(clientID)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading client directory: %w", err)
	}

	files := make([]StoredFile, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if sf, err := s.index.get(clientID, entry.Name()); err == nil {
			files = append(files, *sf)
			continue
		}
		// Pre-index file: derive metadata from the name and stat.
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, StoredFile{
			Filename:     entry.Name(),
			OriginalName: originalFromStored(entry.Name()),
			Size:         info.Size(),
			UploadedAt:   info.ModTime().UTC(),
		})
	}
	return files, nil
}

// Delete removes a stored file and its index entry. Returns
// store.ErrNotFound when the file does not exist.
func (s *Store) Delete(clientID, filename string) error {
	path, err := s.filePath(clientID, filename)
	if err != nil {
		return err
	}
	if err := os.Remove(path); errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%s: %w", filename, store.ErrNotFound)
	} else if err != nil {
		return fmt.Errorf("removing %s: %w", path, err)
	}
	return s.index.delete(clientID, filename)
}

// Stat returns the metadata for a stored file, from the index where
// present and reconstructed from the name and disk otherwise. Returns
// store.ErrNotFound when the file does not exist.
func (s *Store) Stat(clientID, filename string) (*StoredFile, error) {
	path, err := s.filePath(clientID, filename)
	if err != nil {
		return nil, err
	}
	if sf, err := s.index.get(clientID, filename); err == nil {
		return sf, nil
	}
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", filename, store.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	return &StoredFile{
		Filename:     filename,
		OriginalName: originalFromStored(filename),
		Size:         info.Size(),
		UploadedAt:   info.ModTime().UTC(),
	}, nil
}

// Open returns a reader over a stored file's content. Returns
// store.ErrNotFound when the file does not exist.
func (s *Store) Open(clientID, filename string) (io.ReadCloser, error) {
	path, err := s.filePath(clientID, filename)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", filename, store.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	return f, nil
}
