// Package ingest finalizes normalized posts into persisted listings: it
// allocates the post id, uploads the gallery to the content store, writes the
// listing record and commits the id ledger.
package ingest

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/easyrent/scraper/internal/domain"
	"github.com/easyrent/scraper/internal/ledger"
	"github.com/easyrent/scraper/internal/monitoring"
)

// ListingStore persists listing records.
type ListingStore interface {
	SaveListing(ctx context.Context, l *domain.Listing) error
}

// MediaStore stores image blobs and returns public retrieval URLs.
type MediaStore interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) (string, error)
}

// ImageFetcher downloads raw image bytes from the platform's CDN.
type ImageFetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// ImageKey derives the content-store object key for the n-th image of a post
// (1-based), e.g. "posts/05102025_0007_001.jpg".
func ImageKey(postID string, n int) string {
	return fmt.Sprintf("posts/%s_%03d.jpg", postID, n)
}

// Sink ingests normalized posts. Image uploads are attempted independently: a
// failed upload drops that image from the listing but never aborts the post.
// Errors from the listing write or the ledger commit propagate to the crawl
// loop's run boundary.
type Sink struct {
	alloc    *ledger.Allocator
	listings ListingStore
	media    MediaStore
	fetcher  ImageFetcher
	metrics  *monitoring.Metrics
	logger   *zap.Logger
	now      func() time.Time
}

func NewSink(alloc *ledger.Allocator, listings ListingStore, media MediaStore, fetcher ImageFetcher, m *monitoring.Metrics, logger *zap.Logger) *Sink {
	return &Sink{
		alloc:    alloc,
		listings: listings,
		media:    media,
		fetcher:  fetcher,
		metrics:  m,
		logger:   logger,
		now:      time.Now,
	}
}

// Ingest persists one normalized post with status "new".
func (s *Sink) Ingest(ctx context.Context, post domain.NormalizedPost) error {
	entry, err := s.alloc.Allocate()
	if err != nil {
		return fmt.Errorf("allocate post id: %w", err)
	}
	postID := entry.PostID()

	imageURLs := make([]string, 0, len(post.Images))
	for i, src := range post.Images {
		key := ImageKey(postID, i+1)

		data, err := s.fetcher.Fetch(ctx, src)
		if err != nil {
			s.logger.Warn("image fetch failed, dropping image",
				zap.String("post_id", postID), zap.String("key", key), zap.Error(err))
			s.metrics.IncErrorsTotal("image_fetch_failed")
			continue
		}

		publicURL, err := s.media.Upload(ctx, key, data, "image/jpeg")
		if err != nil {
			s.logger.Warn("image upload failed, dropping image",
				zap.String("post_id", postID), zap.String("key", key), zap.Error(err))
			s.metrics.IncErrorsTotal("image_upload_failed")
			continue
		}
		imageURLs = append(imageURLs, publicURL)
		s.metrics.IncImagesUploaded()
	}

	listing := &domain.Listing{
		ID:          postID,
		Text:        post.Text,
		Images:      imageURLs,
		CreatedAt:   s.now().UTC(),
		Status:      domain.StatusNew,
		ContactID:   post.AuthorID,
		ContactName: post.AuthorName,
	}
	if err := s.listings.SaveListing(ctx, listing); err != nil {
		return fmt.Errorf("save listing %s: %w", postID, err)
	}

	// The ledger commit lands only after the listing write: a crash in
	// between reuses the id on restart instead of skipping it.
	if err := s.alloc.Commit(entry); err != nil {
		return fmt.Errorf("commit ledger entry for %s: %w", postID, err)
	}

	s.metrics.IncPostsIngested()
	s.logger.Info("listing persisted",
		zap.String("post_id", postID),
		zap.Int("images", len(imageURLs)),
		zap.String("contact_id", post.AuthorID))
	return nil
}
