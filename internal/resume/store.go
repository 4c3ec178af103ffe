// Package resume keeps the single uploaded résumé on disk.
package resume

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gofrs/flock"
)

// ErrEmpty is returned by Load when no résumé has been stored.
var ErrEmpty = errors.New("no résumé stored")

// AllowedExtensions are the file types accepted for upload.
var AllowedExtensions = []string{".pdf", ".doc", ".docx", ".txt"}

const (
	slotFile = "resume.json"
	lockFile = "resume.lock"
)

// Record is the stored résumé.
type Record struct {
	Name    string `json:"name"`
	Size    int64  `json:"size"`
	Content string `json:"content"`
	Type    string `json:"type"`
}

// Store is a one-slot file store. Concurrent processes are serialized with a
// lock file next to the slot.
type Store struct {
	dir  string
	lock *flock.Flock
}

func NewStore(dir string) *Store {
	return &Store{dir: dir, lock: flock.New(filepath.Join(dir, lockFile))}
}

func (s *Store) path() string {
	return filepath.Join(s.dir, slotFile)
}

// ReadFile builds a Record from a file on disk. Only AllowedExtensions are
// accepted; the content is kept as text.
func ReadFile(path string) (Record, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if !allowed(ext) {
		return Record{}, fmt.Errorf("unsupported résumé type %q (want one of %s)", ext, strings.Join(AllowedExtensions, ", "))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Record{}, fmt.Errorf("failed to read résumé: %w", err)
	}

	content := string(data)
	if !utf8.ValidString(content) {
		content = strings.ToValidUTF8(content, "")
	}

	return Record{
		Name:    filepath.Base(path),
		Size:    int64(len(data)),
		Content: content,
		Type:    mimeType(ext),
	}, nil
}

func allowed(ext string) bool {
	for _, e := range AllowedExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

func mimeType(ext string) string {
	switch ext {
	case ".pdf":
		return "application/pdf"
	case ".doc":
		return "application/msword"
	case ".docx":
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	default:
		return "text/plain"
	}
}

// Save replaces the stored résumé.
func (s *Store) Save(rec Record) error {
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	if err := s.lockFor(s.lock.Lock); err != nil {
		return err
	}
	defer s.lock.Unlock()

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode résumé: %w", err)
	}

	tmp := s.path() + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("failed to write résumé: %w", err)
	}
	if err := os.Rename(tmp, s.path()); err != nil {
		return fmt.Errorf("failed to write résumé: %w", err)
	}
	return nil
}

// Load returns the stored résumé or ErrEmpty.
func (s *Store) Load() (Record, error) {
	if _, err := os.Stat(s.dir); errors.Is(err, fs.ErrNotExist) {
		return Record{}, ErrEmpty
	}
	if err := s.lockFor(s.lock.RLock); err != nil {
		return Record{}, err
	}
	defer s.lock.Unlock()

	data, err := os.ReadFile(s.path())
	if errors.Is(err, fs.ErrNotExist) {
		return Record{}, ErrEmpty
	}
	if err != nil {
		return Record{}, fmt.Errorf("failed to read stored résumé: %w", err)
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return Record{}, fmt.Errorf("stored résumé is corrupt: %w", err)
	}
	if rec.Content == "" {
		return Record{}, ErrEmpty
	}
	return rec, nil
}

// Clear empties the slot. Clearing an empty slot is not an error.
func (s *Store) Clear() error {
	if _, err := os.Stat(s.dir); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err := s.lockFor(s.lock.Lock); err != nil {
		return err
	}
	defer s.lock.Unlock()

	if err := os.Remove(s.path()); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to clear résumé: %w", err)
	}
	return nil
}

func (s *Store) lockFor(lock func() error) error {
	if err := lock(); err != nil {
		return fmt.Errorf("failed to lock résumé store: %w", err)
	}
	return nil
}

// Describe is the one-line summary shown after upload: name and size in KB.
func (r Record) Describe() string {
	return fmt.Sprintf("%s (%.1f KB)", r.Name, float64(r.Size)/1024)
}

// ModTime reports when the slot was last written.
func (s *Store) ModTime() (time.Time, error) {
	fi, err := os.Stat(s.path())
	if errors.Is(err, fs.ErrNotExist) {
		return time.Time{}, ErrEmpty
	}
	if err != nil {
		return time.Time{}, err
	}
	return fi.ModTime(), nil
}
