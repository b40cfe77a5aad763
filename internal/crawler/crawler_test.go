package crawler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/easyrent/scraper/internal/domain"
	"github.com/easyrent/scraper/internal/monitoring"
	"github.com/easyrent/scraper/internal/scrape"
)

type stubItem struct {
	html string
	srcs []string
}

func (s *stubItem) HTML(ctx context.Context) (string, error)           { return s.html, nil }
func (s *stubItem) ImageSources(ctx context.Context) ([]string, error) { return s.srcs, nil }
func (s *stubItem) ClickImage(ctx context.Context, src string) error   { return nil }
func (s *stubItem) ExpandSeeMore(ctx context.Context) error            { return nil }

type stubSession struct {
	mu        sync.Mutex
	items     []scrape.FeedItem
	moreItems []scrape.FeedItem // appended after the first scroll
	navigated []string
	scrolls   int
	closed    bool
}

func (s *stubSession) FeedItems(ctx context.Context) ([]scrape.FeedItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.items, nil
}

func (s *stubSession) WaitLightbox(ctx context.Context) (scrape.Lightbox, error) {
	return nil, errors.New("no lightbox in stub")
}

func (s *stubSession) DismissOverlay(ctx context.Context) error { return nil }

func (s *stubSession) Scroll(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scrolls++
	if s.moreItems != nil {
		s.items = append(s.items, s.moreItems...)
		s.moreItems = nil
	}
	return nil
}

func (s *stubSession) Navigate(ctx context.Context, url string) error {
	s.navigated = append(s.navigated, url)
	return nil
}

func (s *stubSession) Close() error {
	s.closed = true
	return nil
}

type recordingSink struct {
	mu    sync.Mutex
	posts []domain.NormalizedPost
	block chan struct{} // when set, Ingest waits until it is closed
	err   error
}

func (r *recordingSink) Ingest(ctx context.Context, post domain.NormalizedPost) error {
	if r.block != nil {
		<-r.block
	}
	if r.err != nil {
		return r.err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.posts = append(r.posts, post)
	return nil
}

func postItem(text string) *stubItem {
	return &stubItem{html: `<div role="article"><div>` + text + `</div></div>`}
}

func commentItem() *stubItem {
	return &stubItem{html: `<div role="article" aria-label="תגובה של דנה"><div>מעוניינת</div></div>`}
}

func newTestCrawler(sess *stubSession, sink Sink, cap int) *Crawler {
	pacer := scrape.NewPacer(0, 0)
	cfg := Config{
		RootURL:        "https://www.facebook.com/",
		GroupURLs:      []string{"https://www.facebook.com/groups/test"},
		MaxPostsPerRun: cap,
		Interval:       time.Hour,
		RunTimeout:     5 * time.Second,
	}
	factory := SessionFactoryFunc(func(ctx context.Context) (Session, error) {
		return sess, nil
	})
	return New(cfg, factory,
		scrape.NewGalleryExtractor("scontent", pacer, zap.NewNop()),
		scrape.NewNormalizer("תגובה של"),
		pacer, sink, nil, nil,
		monitoring.NewMetrics(prometheus.NewRegistry()),
		zap.NewNop())
}

func TestRunOnceStopsAtCap(t *testing.T) {
	sess := &stubSession{
		items: []scrape.FeedItem{postItem("one"), postItem("two"), postItem("three")},
	}
	sink := &recordingSink{}
	c := newTestCrawler(sess, sink, 2)

	if err := c.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce failed: %v", err)
	}

	if len(sink.posts) != 2 {
		t.Errorf("expected sink invoked twice, got %d", len(sink.posts))
	}
	for _, p := range sink.posts {
		if len(p.Images) != 0 {
			t.Errorf("expected empty gallery, got %v", p.Images)
		}
	}
	if sess.scrolls != 0 {
		t.Errorf("expected no scrolling once cap is reached, got %d scrolls", sess.scrolls)
	}
	if !sess.closed {
		t.Error("expected session to be closed")
	}
	if got := len(sess.navigated); got != 2 {
		t.Errorf("expected root + group navigation, got %v", sess.navigated)
	}
}

func TestRunOnceScrollsWhenBelowCap(t *testing.T) {
	sess := &stubSession{
		items:     []scrape.FeedItem{postItem("first")},
		moreItems: []scrape.FeedItem{postItem("second")},
	}
	sink := &recordingSink{}
	c := newTestCrawler(sess, sink, 2)

	if err := c.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce failed: %v", err)
	}

	if len(sink.posts) != 2 {
		t.Errorf("expected 2 ingested posts, got %d", len(sink.posts))
	}
	if sess.scrolls == 0 {
		t.Error("expected at least one scroll step")
	}
}

func TestRunOnceSkipsComments(t *testing.T) {
	sess := &stubSession{
		items: []scrape.FeedItem{commentItem(), postItem("real post")},
	}
	sink := &recordingSink{}
	c := newTestCrawler(sess, sink, 1)

	if err := c.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce failed: %v", err)
	}

	if len(sink.posts) != 1 {
		t.Fatalf("expected 1 ingested post, got %d", len(sink.posts))
	}
	if sink.posts[0].Text != "real post" {
		t.Errorf("expected the non-comment post, got %q", sink.posts[0].Text)
	}
}

func TestRunOnceMutualExclusion(t *testing.T) {
	block := make(chan struct{})
	sess := &stubSession{items: []scrape.FeedItem{postItem("slow")}}
	sink := &recordingSink{block: block}
	c := newTestCrawler(sess, sink, 1)

	done := make(chan error, 1)
	go func() { done <- c.RunOnce(context.Background()) }()

	// Wait for the first run to take the Running state.
	deadline := time.After(2 * time.Second)
	for !c.IsRunning() {
		select {
		case <-deadline:
			t.Fatal("first run never started")
		default:
			time.Sleep(5 * time.Millisecond)
		}
	}

	if err := c.RunOnce(context.Background()); !errors.Is(err, ErrAlreadyRunning) {
		t.Errorf("expected ErrAlreadyRunning, got %v", err)
	}

	close(block)
	if err := <-done; err != nil {
		t.Fatalf("first run failed: %v", err)
	}
	if len(sink.posts) != 1 {
		t.Errorf("expected exactly one ingested post, got %d", len(sink.posts))
	}
}

func TestRunOnceIngestErrorAbortsRun(t *testing.T) {
	sess := &stubSession{items: []scrape.FeedItem{postItem("doomed")}}
	sink := &recordingSink{err: errors.New("backend down")}
	c := newTestCrawler(sess, sink, 3)

	err := c.RunOnce(context.Background())
	if err == nil {
		t.Fatal("expected ingestion error to surface at the run boundary")
	}
	if !sess.closed {
		t.Error("expected session cleanup despite the failure")
	}

	last := c.LastRun()
	if last == nil || last.Error == "" {
		t.Error("expected last run result to record the failure")
	}
}

func TestPickGroupSequentialRotation(t *testing.T) {
	c := newTestCrawler(&stubSession{}, &recordingSink{}, 1)
	c.cfg.GroupURLs = []string{"a", "b", "c"}
	c.cfg.Rotation = RotationSequential

	got := []string{c.pickGroup(), c.pickGroup(), c.pickGroup(), c.pickGroup()}
	want := []string{"a", "b", "c", "a"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("pick %d: expected %s, got %s", i, want[i], got[i])
		}
	}
}
