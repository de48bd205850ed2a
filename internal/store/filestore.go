package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// BlobStore reads and writes the single opaque JSON document that holds
// all persisted state. A (nil, nil) read means "no prior state", which
// is a normal first-run signal and distinct from any error.
type BlobStore interface {
	Read() ([]byte, error)
	Write(blob []byte) error
}

// FileStore is the durable BlobStore: one primary JSON file, a .bak
// copy of the previous version, and timestamped quarantine copies for
// corrupt primaries. Writes go through a temp file and a rename so a
// crash mid-write never destroys the primary.
type FileStore struct {
	path string

	mu sync.Mutex
}

// NewFileStore creates the parent directory and returns a store for the
// given primary path.
func NewFileStore(path string) (*FileStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("creating state directory: %w", err)
	}
	return &FileStore{path: path}, nil
}

// Path returns the primary file location.
func (s *FileStore) Path() string { return s.path }

// Read loads the primary document. An unparsable primary is repaired by
// truncating to the last closing brace; failing that the .bak copy is
// tried; failing that the primary is quarantined aside and (nil, nil)
// is returned so the caller starts fresh.
func (s *FileStore) Read() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", s.path, err)
	}
	if json.Valid(data) {
		return data, nil
	}

	if repaired, ok := repairTruncated(data); ok {
		return repaired, nil
	}

	if backup, err := os.ReadFile(s.backupPath()); err == nil && json.Valid(backup) {
		return backup, nil
	}

	if err := s.quarantine(); err != nil {
		return nil, err
	}
	return nil, nil
}

// Write persists the document atomically: the current primary is copied
// to .bak, the new blob goes to a temp file, and the temp file is
// renamed over the primary.
func (s *FileStore) Write(blob []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if current, err := os.ReadFile(s.path); err == nil {
		if err := os.WriteFile(s.backupPath(), current, 0o600); err != nil {
			return fmt.Errorf("writing backup: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("reading current state for backup: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, blob, 0o600); err != nil {
		return fmt.Errorf("writing %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replacing %s: %w", s.path, err)
	}
	return nil
}

func (s *FileStore) backupPath() string { return s.path + ".bak" }

func (s *FileStore) quarantine() error {
	target := fmt.Sprintf("%s.corrupt-%s", s.path, time.Now().UTC().Format("20060102-150405"))
	if err := os.Rename(s.path, target); err != nil {
		return fmt.Errorf("quarantining corrupt state file: %w", err)
	}
	return nil
}

// repairTruncated attempts a best-effort recovery of a blob whose tail
// was lost mid-write by cutting back to the last closing brace.
func repairTruncated(data []byte) ([]byte, bool) {
	idx := bytes.LastIndexByte(data, '}')
	if idx < 0 {
		return nil, false
	}
	candidate := data[:idx+1]
	if !json.Valid(candidate) {
		return nil, false
	}
	return candidate, true
}
