package ledger

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

type memStore struct {
	entry   Entry
	present bool
	readErr error
}

func (m *memStore) Read() (Entry, error) {
	if m.readErr != nil {
		return Entry{}, m.readErr
	}
	if !m.present {
		return Entry{}, ErrNotFound
	}
	return m.entry, nil
}

func (m *memStore) Write(e Entry) error {
	m.entry = e
	m.present = true
	return nil
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestAllocateFreshLedger(t *testing.T) {
	a := NewAllocator(&memStore{})
	a.now = fixedClock(time.Date(2025, 10, 5, 12, 0, 0, 0, time.UTC))

	e, err := a.Allocate()
	if err != nil {
		t.Fatalf("Allocate failed: %v", err)
	}
	if e.Date != "05102025" {
		t.Errorf("expected date 05102025, got %s", e.Date)
	}
	if e.Counter != 1 {
		t.Errorf("expected counter 1, got %d", e.Counter)
	}
}

func TestAllocateStrictlyIncreases(t *testing.T) {
	store := &memStore{}
	a := NewAllocator(store)
	a.now = fixedClock(time.Date(2025, 10, 5, 12, 0, 0, 0, time.UTC))

	prev := 0
	for i := 0; i < 10; i++ {
		e, err := a.Allocate()
		if err != nil {
			t.Fatalf("Allocate %d failed: %v", i, err)
		}
		if e.Counter <= prev {
			t.Fatalf("counter did not increase: prev %d, got %d", prev, e.Counter)
		}
		prev = e.Counter
		if err := a.Commit(e); err != nil {
			t.Fatalf("Commit failed: %v", err)
		}
	}
	if prev != 10 {
		t.Errorf("expected final counter 10, got %d", prev)
	}
}

func TestAllocateDayRollover(t *testing.T) {
	store := &memStore{entry: Entry{Date: "04102025", Counter: 37}, present: true}
	a := NewAllocator(store)
	a.now = fixedClock(time.Date(2025, 10, 5, 0, 0, 1, 0, time.UTC))

	e, err := a.Allocate()
	if err != nil {
		t.Fatalf("Allocate failed: %v", err)
	}
	if e.Date != "05102025" || e.Counter != 1 {
		t.Errorf("expected 05102025/1 after rollover, got %s/%d", e.Date, e.Counter)
	}
}

func TestAllocateCorruptStoreIsFatal(t *testing.T) {
	wantErr := errors.New("parse ledger: boom")
	a := NewAllocator(&memStore{readErr: wantErr})

	if _, err := a.Allocate(); !errors.Is(err, wantErr) {
		t.Errorf("expected store error to propagate, got %v", err)
	}
}

func TestEntryPostID(t *testing.T) {
	e := Entry{Date: "05102025", Counter: 7}
	if got := e.PostID(); got != "05102025_0007" {
		t.Errorf("expected 05102025_0007, got %s", got)
	}
}

func TestFileStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "last_id.json")
	store := NewFileStore(path)

	if _, err := store.Read(); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on missing file, got %v", err)
	}

	want := Entry{Date: "05102025", Counter: 12}
	if err := store.Write(want); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	got, err := store.Read()
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if got != want {
		t.Errorf("expected %+v, got %+v", want, got)
	}
}

func TestFileStoreCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "last_id.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	store := NewFileStore(path)
	if _, err := store.Read(); err == nil || errors.Is(err, ErrNotFound) {
		t.Errorf("expected parse error for corrupt ledger, got %v", err)
	}
}
