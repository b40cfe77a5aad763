// Package browser implements the scrape seams on top of a real Chrome session
// driven through chromedp. One Session corresponds to one browser process; the
// crawl loop opens a fresh session per run and closes it best-effort on every
// exit path.
package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/kb"
	"go.uber.org/zap"

	"github.com/easyrent/scraper/internal/scrape"
)

const (
	articleSelector = `div[role="article"]`
	scrollStepPx    = 1000
	closeSettle     = 500 * time.Millisecond
	seeMoreTimeout  = 3 * time.Second
)

// Options configures the browser session and the platform selectors. All
// label and host tokens are configuration because the platform's markup
// drifts between revisions.
type Options struct {
	Headless    bool
	UserDataDir string
	ExecPath    string
	UserAgent   string

	HostToken      string // media CDN substring, e.g. "scontent"
	DialogLabel    string // lightbox dialog aria-label token
	NextImageLabel string // accessible label of the "next image" control
	SeeMoreLabel   string // visible text of the truncation control

	NavTimeout      time.Duration
	LightboxTimeout time.Duration
	GallerySettle   time.Duration
	ScrollSettle    time.Duration
}

// Session wraps one live Chrome instance.
type Session struct {
	ctx         context.Context
	allocCancel context.CancelFunc
	opts        Options
	logger      *zap.Logger
}

// NewSession launches Chrome and waits for it to come up. The persistent user
// data dir carries the pre-authenticated platform session between runs.
func NewSession(parent context.Context, opts Options, logger *zap.Logger) (*Session, error) {
	if opts.UserAgent == "" {
		opts.UserAgent = pickUserAgent()
	}

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", opts.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.UserAgent(opts.UserAgent),
	)
	if opts.UserDataDir != "" {
		allocOpts = append(allocOpts, chromedp.UserDataDir(opts.UserDataDir))
	}
	if opts.ExecPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(opts.ExecPath))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(parent, allocOpts...)
	ctx, _ := chromedp.NewContext(allocCtx)

	if err := chromedp.Run(ctx); err != nil {
		allocCancel()
		return nil, fmt.Errorf("start browser: %w", err)
	}

	return &Session{ctx: ctx, allocCancel: allocCancel, opts: opts, logger: logger}, nil
}

// Close shuts the browser down gracefully.
func (s *Session) Close() error {
	err := chromedp.Cancel(s.ctx)
	s.allocCancel()
	return err
}

// op derives a deadline-bounded context from the browser context. The
// caller's context is consulted for early cancellation only; chromedp actions
// must run on the session's own context chain.
func (s *Session) op(timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(s.ctx, timeout)
}

// Navigate loads a URL and waits for the document body.
func (s *Session) Navigate(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	opCtx, cancel := s.op(s.opts.NavTimeout)
	defer cancel()

	err := chromedp.Run(opCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	)
	if err != nil {
		return fmt.Errorf("navigate %s: %w", url, err)
	}
	return nil
}

// FeedItems returns handles to the currently rendered feed posts, in DOM
// order. Handles go stale when the feed reflows and must be re-queried each
// pass.
func (s *Session) FeedItems(ctx context.Context) ([]scrape.FeedItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	opCtx, cancel := s.op(s.opts.NavTimeout)
	defer cancel()

	var nodes []*cdp.Node
	err := chromedp.Run(opCtx,
		chromedp.Nodes(articleSelector, &nodes, chromedp.ByQueryAll, chromedp.AtLeast(0)),
	)
	if err != nil {
		return nil, fmt.Errorf("query feed items: %w", err)
	}

	items := make([]scrape.FeedItem, 0, len(nodes))
	for _, n := range nodes {
		items = append(items, &feedItem{session: s, node: n})
	}
	return items, nil
}

// WaitLightbox waits for a lightbox image from the media host to appear.
func (s *Session) WaitLightbox(ctx context.Context) (scrape.Lightbox, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	opCtx, cancel := s.op(s.opts.LightboxTimeout)
	defer cancel()

	if err := chromedp.Run(opCtx, chromedp.WaitVisible(s.lightboxImageSelector(), chromedp.ByQuery)); err != nil {
		return nil, fmt.Errorf("lightbox did not appear: %w", err)
	}
	return &lightbox{session: s}, nil
}

// DismissOverlay sends Escape to close whatever modal is open.
func (s *Session) DismissOverlay(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	opCtx, cancel := s.op(s.opts.NavTimeout)
	defer cancel()

	return chromedp.Run(opCtx,
		chromedp.KeyEvent(kb.Escape),
		chromedp.Sleep(closeSettle),
	)
}

// Scroll performs one scroll-driven pagination step and lets the feed settle.
func (s *Session) Scroll(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	opCtx, cancel := s.op(s.opts.NavTimeout)
	defer cancel()

	return chromedp.Run(opCtx,
		chromedp.Evaluate(fmt.Sprintf("window.scrollBy(0, %d);", scrollStepPx), nil),
		chromedp.Sleep(s.opts.ScrollSettle),
	)
}

func (s *Session) lightboxImageSelector() string {
	return fmt.Sprintf(`div[role="dialog"][aria-label*="%s"] img[src*="%s"]`,
		s.opts.DialogLabel, s.opts.HostToken)
}

func (s *Session) nextButtonSelector() string {
	return fmt.Sprintf(`[role="button"][aria-label="%s"]`, s.opts.NextImageLabel)
}
