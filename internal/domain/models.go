package domain

import "time"

// Listing statuses as stored in the backend. The downstream converter picks up
// "new" listings and moves them along its own lifecycle.
const (
	StatusNew = "new"
)

// NormalizedPost is the unit handed from the crawl loop to the ingestion sink:
// one feed post with its gallery and author identity resolved. Text is always
// non-empty; comment items and empty posts are dropped before this point.
type NormalizedPost struct {
	Text       string
	Images     []string
	AuthorID   string
	AuthorName string
}

// Listing is the record persisted for one scraped post. Images holds the
// public retrieval URLs of the uploads that succeeded; failed uploads are
// simply omitted.
type Listing struct {
	ID          string    `json:"id"`
	Text        string    `json:"text"`
	Images      []string  `json:"images"`
	CreatedAt   time.Time `json:"created_at"`
	Status      string    `json:"status"`
	ContactID   string    `json:"contactId,omitempty"`
	ContactName string    `json:"contactName,omitempty"`
}

// RunResult summarizes a single crawl invocation for the status endpoint.
type RunResult struct {
	GroupURL   string    `json:"group_url"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Processed  int       `json:"processed"`
	Error      string    `json:"error,omitempty"`
}
