package ledger

import (
	"errors"
	"time"
)

// Allocator hands out per-day, monotonically increasing post id entries.
// Allocate is a pure read-and-compute; the allocated entry becomes durable
// only when the caller commits it, which the ingestion sink does after the
// listing write succeeds. A crash between the two can reuse an id on restart.
type Allocator struct {
	store SequenceStore
	now   func() time.Time
}

func NewAllocator(store SequenceStore) *Allocator {
	return &Allocator{store: store, now: time.Now}
}

// Allocate returns the next entry for today: counter+1 when the stored day key
// matches today, 1 on day rollover or on a fresh ledger. A corrupt ledger is
// fatal to the call and propagates.
func (a *Allocator) Allocate() (Entry, error) {
	today := a.now().Format(DayKeyLayout)

	cur, err := a.store.Read()
	if errors.Is(err, ErrNotFound) {
		return Entry{Date: today, Counter: 1}, nil
	}
	if err != nil {
		return Entry{}, err
	}

	if cur.Date == today {
		return Entry{Date: today, Counter: cur.Counter + 1}, nil
	}
	return Entry{Date: today, Counter: 1}, nil
}

// Commit persists an allocated entry back to the store.
func (a *Allocator) Commit(e Entry) error {
	return a.store.Write(e)
}
