// Package ledger persists the per-day sequential post id state across process
// restarts. The on-disk format is a single JSON object overwritten wholesale
// after each successful ingestion; there is no cross-process locking, so the
// ledger assumes a single writer.
package ledger

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
)

// DayKeyLayout is the day key format used in post ids (DDMMYYYY).
const DayKeyLayout = "02012006"

// ErrNotFound is returned by a SequenceStore when no entry has been written
// yet. A missing ledger is a normal first-run condition; an unreadable or
// corrupt one is not, and surfaces as a regular error.
var ErrNotFound = errors.New("ledger: no entry")

// Entry is the persisted counter state: the day key and the last counter used
// on that day.
type Entry struct {
	Date    string `json:"date"`
	Counter int    `json:"counter"`
}

// PostID derives the human-readable post identifier for this entry,
// e.g. "05102025_0007".
func (e Entry) PostID() string {
	return fmt.Sprintf("%s_%04d", e.Date, e.Counter)
}

// SequenceStore abstracts the durable backing of the counter so allocation
// logic can be tested without file I/O and a locked or transactional store can
// be swapped in later.
type SequenceStore interface {
	Read() (Entry, error)
	Write(Entry) error
}

// FileStore is the JSON-file SequenceStore used in production.
type FileStore struct {
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Read() (Entry, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return Entry{}, ErrNotFound
	}
	if err != nil {
		return Entry{}, fmt.Errorf("read ledger %s: %w", s.path, err)
	}
	var e Entry
	if err := json.Unmarshal(data, &e); err != nil {
		return Entry{}, fmt.Errorf("parse ledger %s: %w", s.path, err)
	}
	return e, nil
}

func (s *FileStore) Write(e Entry) error {
	data, err := json.MarshalIndent(e, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("write ledger %s: %w", s.path, err)
	}
	return nil
}
