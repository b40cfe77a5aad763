// Package crawler drives the top-level scrape cycle: open a browser session,
// walk the group feed up to the per-run cap, hand each usable post to the
// ingestion sink, scroll for more when needed, and trigger the downstream
// converter once the run completes. At most one cycle runs at a time.
package crawler

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/easyrent/scraper/internal/convert"
	"github.com/easyrent/scraper/internal/domain"
	"github.com/easyrent/scraper/internal/monitoring"
	"github.com/easyrent/scraper/internal/scrape"
)

// ErrAlreadyRunning is returned when a trigger arrives while a previous cycle
// has not finished yet. The trigger is a no-op; there is no queueing.
var ErrAlreadyRunning = errors.New("crawl already in progress")

const (
	stateIdle int32 = iota
	stateRunning
)

// RotationRandom picks a random group per run; RotationSequential walks the
// configured list in order.
const (
	RotationRandom     = "random"
	RotationSequential = "sequential"
)

// Session is one live browser session pointed at the platform.
type Session interface {
	scrape.Page
	Navigate(ctx context.Context, url string) error
	Close() error
}

// SessionFactory opens a fresh session per run.
type SessionFactory interface {
	Open(ctx context.Context) (Session, error)
}

// SessionFactoryFunc adapts a function to the SessionFactory interface.
type SessionFactoryFunc func(ctx context.Context) (Session, error)

func (f SessionFactoryFunc) Open(ctx context.Context) (Session, error) { return f(ctx) }

// Sink consumes normalized posts.
type Sink interface {
	Ingest(ctx context.Context, post domain.NormalizedPost) error
}

// Deduper remembers recently ingested posts across runs. Optional.
type Deduper interface {
	Seen(ctx context.Context, text string) (bool, error)
	Mark(ctx context.Context, text string) error
}

// Converter runs the downstream conversion step. Optional.
type Converter interface {
	Run(ctx context.Context) convert.Result
}

// Config carries the crawl loop's knobs.
type Config struct {
	RootURL        string
	GroupURLs      []string
	Rotation       string
	MaxPostsPerRun int
	Interval       time.Duration
	RunTimeout     time.Duration
}

// Crawler owns the run state machine (Idle <-> Running) and the re-invocation
// timer.
type Crawler struct {
	cfg       Config
	sessions  SessionFactory
	gallery   *scrape.GalleryExtractor
	norm      *scrape.Normalizer
	pacer     *scrape.Pacer
	sink      Sink
	dedup     Deduper
	converter Converter
	metrics   *monitoring.Metrics
	logger    *zap.Logger

	state    atomic.Int32
	groupSeq atomic.Int64
	rng      *rand.Rand

	mu      sync.Mutex
	lastRun *domain.RunResult

	stopCh chan struct{}
	wg     sync.WaitGroup
}

func New(cfg Config, sessions SessionFactory, gallery *scrape.GalleryExtractor, norm *scrape.Normalizer,
	pacer *scrape.Pacer, sink Sink, dedup Deduper, converter Converter,
	m *monitoring.Metrics, logger *zap.Logger) *Crawler {
	return &Crawler{
		cfg:       cfg,
		sessions:  sessions,
		gallery:   gallery,
		norm:      norm,
		pacer:     pacer,
		sink:      sink,
		dedup:     dedup,
		converter: converter,
		metrics:   m,
		logger:    logger,
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
		stopCh:    make(chan struct{}),
	}
}

// Start runs one cycle immediately, then re-triggers on the configured
// interval until Stop is called.
func (c *Crawler) Start() {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.trigger()

		ticker := time.NewTicker(c.cfg.Interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				c.trigger()
			case <-c.stopCh:
				return
			}
		}
	}()
}

// Stop halts the timer. An in-flight run finishes on its own; the browser
// cleanup path tolerates process termination.
func (c *Crawler) Stop() {
	close(c.stopCh)
	c.wg.Wait()
}

func (c *Crawler) trigger() {
	// RunOnce logs its own outcome; a skipped or failed run never stops
	// the timer.
	_ = c.RunOnce(context.Background())
}

// IsRunning reports whether a cycle is currently active.
func (c *Crawler) IsRunning() bool {
	return c.state.Load() == stateRunning
}

// LastRun returns the most recent run result, or nil before the first run.
func (c *Crawler) LastRun() *domain.RunResult {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastRun
}

// RunOnce executes a single crawl cycle. Concurrent triggers are rejected with
// ErrAlreadyRunning; any other error means the run was aborted after whatever
// posts it already ingested.
func (c *Crawler) RunOnce(ctx context.Context) error {
	if !c.state.CompareAndSwap(stateIdle, stateRunning) {
		c.logger.Warn("crawl already running, skipping trigger")
		c.metrics.IncRunsTotal("skipped")
		return ErrAlreadyRunning
	}
	defer c.state.Store(stateIdle)

	start := time.Now()
	runCtx, cancel := context.WithTimeout(ctx, c.cfg.RunTimeout)
	defer cancel()

	group := c.pickGroup()
	c.logger.Info("starting crawl run", zap.String("group", group))

	processed, err := c.run(runCtx, group)
	duration := time.Since(start)
	c.metrics.ObserveRunDuration(duration.Seconds())

	result := &domain.RunResult{
		GroupURL:   group,
		StartedAt:  start.UTC(),
		FinishedAt: time.Now().UTC(),
		Processed:  processed,
	}
	if err != nil {
		result.Error = err.Error()
		c.logger.Error("crawl run failed",
			zap.String("group", group), zap.Int("processed", processed), zap.Error(err))
		c.metrics.IncRunsTotal("failed")
	} else {
		c.logger.Info("crawl run completed",
			zap.String("group", group), zap.Int("processed", processed), zap.Duration("duration", duration))
		c.metrics.IncRunsTotal("completed")
	}

	c.mu.Lock()
	c.lastRun = result
	c.mu.Unlock()

	if err == nil && c.converter != nil {
		// The converter gets its own context: the run deadline should not
		// cut the downstream batch short.
		res := c.converter.Run(context.Background())
		if !res.Ok() {
			c.logger.Warn("conversion step failed",
				zap.Int("exit_code", res.ExitCode), zap.Error(res.Err))
			c.metrics.IncErrorsTotal("convert_failed")
		}
	}
	return err
}

func (c *Crawler) run(ctx context.Context, group string) (int, error) {
	sess, err := c.sessions.Open(ctx)
	if err != nil {
		return 0, fmt.Errorf("open browser session: %w", err)
	}
	defer func() {
		if cerr := sess.Close(); cerr != nil {
			c.logger.Debug("session close failed", zap.Error(cerr))
		}
	}()

	if err := sess.Navigate(ctx, c.cfg.RootURL); err != nil {
		return 0, err
	}
	if err := sess.Navigate(ctx, group); err != nil {
		return 0, err
	}

	processed := 0
	for processed < c.cfg.MaxPostsPerRun {
		if err := ctx.Err(); err != nil {
			return processed, err
		}

		items, err := sess.FeedItems(ctx)
		if err != nil {
			return processed, fmt.Errorf("query feed items: %w", err)
		}

		for _, item := range items {
			ingested, err := c.processItem(ctx, sess, item)
			if err != nil {
				return processed, err
			}
			if !ingested {
				continue
			}
			processed++
			if processed >= c.cfg.MaxPostsPerRun {
				break
			}
		}

		if processed < c.cfg.MaxPostsPerRun {
			if err := sess.Scroll(ctx); err != nil {
				return processed, fmt.Errorf("scroll feed: %w", err)
			}
		}
	}
	return processed, nil
}

// processItem runs the extractors over one feed item. A false return without
// error means the item was skipped (comment, no text, already seen); ingestion
// errors propagate to the run boundary.
func (c *Crawler) processItem(ctx context.Context, sess Session, item scrape.FeedItem) (bool, error) {
	html, err := item.HTML(ctx)
	if err != nil {
		c.logger.Debug("item html unavailable", zap.Error(err))
		return false, nil
	}
	if c.norm.IsComment(html) {
		return false, nil
	}

	images := c.gallery.Collect(ctx, sess, item)

	if err := c.pacer.Wait(ctx); err != nil {
		return false, err
	}
	if err := item.ExpandSeeMore(ctx); err != nil {
		c.logger.Debug("see-more expansion failed", zap.Error(err))
	}

	html, err = item.HTML(ctx)
	if err != nil {
		c.logger.Debug("item html unavailable after expansion", zap.Error(err))
		return false, nil
	}

	text, err := c.norm.Normalize(html)
	if err != nil {
		c.logger.Debug("item normalization failed", zap.Error(err))
		return false, nil
	}
	if text == "" {
		return false, nil
	}

	if c.dedup != nil {
		seen, derr := c.dedup.Seen(ctx, text)
		if derr != nil {
			c.logger.Error("dedup check failed", zap.Error(derr))
		}
		if seen {
			c.logger.Info("skipping recently ingested post")
			return false, nil
		}
	}

	author := scrape.ResolveAuthor(html)
	post := domain.NormalizedPost{
		Text:       text,
		Images:     images,
		AuthorID:   author.ID,
		AuthorName: author.Name,
	}
	if err := c.sink.Ingest(ctx, post); err != nil {
		return false, err
	}

	if c.dedup != nil {
		if derr := c.dedup.Mark(ctx, text); derr != nil {
			c.logger.Error("dedup mark failed", zap.Error(derr))
		}
	}
	return true, nil
}

func (c *Crawler) pickGroup() string {
	if len(c.cfg.GroupURLs) == 1 {
		return c.cfg.GroupURLs[0]
	}
	if c.cfg.Rotation == RotationSequential {
		i := int(c.groupSeq.Add(1)-1) % len(c.cfg.GroupURLs)
		return c.cfg.GroupURLs[i]
	}
	return c.cfg.GroupURLs[c.rng.Intn(len(c.cfg.GroupURLs))]
}
