package scrape

import (
	"context"
	"strings"

	"go.uber.org/zap"
)

// GalleryExtractor collects the distinct image URLs of one feed item by
// opening its lightbox and advancing until the gallery wraps around or no
// next control exists. Every failure inside is an expected "feature absent"
// condition: the extractor logs, best-effort closes any open overlay, and
// returns whatever it collected.
type GalleryExtractor struct {
	hostToken string
	pacer     *Pacer
	logger    *zap.Logger
}

// NewGalleryExtractor builds an extractor that treats image URLs containing
// hostToken as post media. The token is configuration because the platform's
// CDN host drifts.
func NewGalleryExtractor(hostToken string, pacer *Pacer, logger *zap.Logger) *GalleryExtractor {
	return &GalleryExtractor{hostToken: hostToken, pacer: pacer, logger: logger}
}

// Collect returns the ordered, deduplicated gallery of the item, possibly
// empty. It navigates the live lightbox, so it must not run concurrently for
// the same item.
func (g *GalleryExtractor) Collect(ctx context.Context, page Page, item FeedItem) []string {
	srcs, err := item.ImageSources(ctx)
	if err != nil {
		g.logger.Debug("listing item images failed", zap.Error(err))
		return nil
	}

	var first string
	for _, src := range srcs {
		if strings.Contains(src, g.hostToken) {
			first = src
			break
		}
	}
	if first == "" {
		// No qualifying media, nothing to open.
		return nil
	}

	if err := item.ClickImage(ctx, first); err != nil {
		g.logger.Warn("could not open gallery image", zap.Error(err))
		return nil
	}

	lb, err := page.WaitLightbox(ctx)
	if err != nil {
		g.logger.Warn("lightbox did not open", zap.Error(err))
		if derr := page.DismissOverlay(ctx); derr != nil {
			g.logger.Debug("overlay dismissal failed", zap.Error(derr))
		}
		return nil
	}

	urls := g.traverse(ctx, lb)

	if err := lb.Close(ctx); err != nil {
		g.logger.Debug("lightbox close failed", zap.Error(err))
	}
	return urls
}

func (g *GalleryExtractor) traverse(ctx context.Context, lb Lightbox) []string {
	if err := g.pacer.Wait(ctx); err != nil {
		return nil
	}

	seen := make(map[string]bool)
	var urls []string

	cur, err := lb.CurrentImageURL(ctx)
	if err != nil || cur == "" {
		g.logger.Warn("could not read first lightbox image", zap.Error(err))
		return nil
	}
	seen[cur] = true
	urls = append(urls, cur)

	for {
		if err := g.pacer.Wait(ctx); err != nil {
			break
		}
		ok, err := lb.Next(ctx)
		if err != nil {
			g.logger.Debug("advancing gallery failed", zap.Error(err))
			break
		}
		if !ok {
			// Single image or end of gallery.
			break
		}
		cur, err = lb.CurrentImageURL(ctx)
		if err != nil || cur == "" {
			g.logger.Debug("could not read lightbox image", zap.Error(err))
			break
		}
		if seen[cur] {
			// The gallery wrapped around.
			break
		}
		seen[cur] = true
		urls = append(urls, cur)
	}
	return urls
}
