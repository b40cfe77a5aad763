// Package scrape extracts structured listing data from rendered feed items:
// the image gallery behind a post's lightbox, the cleaned post text, and the
// author identity. The browser is reached only through the Page, FeedItem and
// Lightbox seams so every extractor can run against fakes in tests.
package scrape

import (
	"context"
	"math/rand"
	"time"
)

// FeedItem is a transient handle to one rendered post in the feed. Handles are
// re-queried every pass because the underlying view mutates under scroll.
type FeedItem interface {
	// HTML returns the item's current outer HTML.
	HTML(ctx context.Context) (string, error)
	// ImageSources lists the src attributes of the images inside the item.
	ImageSources(ctx context.Context) ([]string, error)
	// ClickImage clicks the image whose src equals the given URL.
	ClickImage(ctx context.Context, src string) error
	// ExpandSeeMore clicks the truncation control if present. An absent
	// control is not an error.
	ExpandSeeMore(ctx context.Context) error
}

// Lightbox is the modal image viewer opened from a feed item.
type Lightbox interface {
	// CurrentImageURL returns the URL of the image now shown.
	CurrentImageURL(ctx context.Context) (string, error)
	// Next advances to the next image. It returns false when no next
	// control exists.
	Next(ctx context.Context) (bool, error)
	// Close dismisses the viewer.
	Close(ctx context.Context) error
}

// Page is the feed view the crawl loop drives.
type Page interface {
	// FeedItems returns handles to the currently rendered posts, in DOM
	// order.
	FeedItems(ctx context.Context) ([]FeedItem, error)
	// WaitLightbox waits, bounded by the session's timeout, for a lightbox
	// image to appear after an image click.
	WaitLightbox(ctx context.Context) (Lightbox, error)
	// DismissOverlay sends an escape to close whatever modal is open.
	DismissOverlay(ctx context.Context) error
	// Scroll performs one scroll-driven pagination step.
	Scroll(ctx context.Context) error
}

// Pacer inserts a bounded random delay before state-changing browser actions.
// The jitter keeps the interaction cadence off anti-automation heuristics; the
// distribution is not correctness-critical but the pacing must stay non-zero
// in production.
type Pacer struct {
	min time.Duration
	max time.Duration
	rng *rand.Rand
}

func NewPacer(min, max time.Duration) *Pacer {
	if max < min {
		max = min
	}
	return &Pacer{
		min: min,
		max: max,
		rng: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Wait blocks for a random duration in [min, max], or until ctx is done.
func (p *Pacer) Wait(ctx context.Context) error {
	d := p.min
	if p.max > p.min {
		d += time.Duration(p.rng.Int63n(int64(p.max - p.min)))
	}
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
