package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the scraper.
type Metrics struct {
	RunsTotal      *prometheus.CounterVec
	PostsIngested  prometheus.Counter
	ImagesUploaded prometheus.Counter
	ErrorsTotal    *prometheus.CounterVec
	RunDuration    prometheus.Histogram
}

// NewMetrics registers the scraper metrics on the given registerer. Taking the
// registerer as a parameter keeps tests free of global registry collisions.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		RunsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "scraper_runs_total",
			Help: "The total number of crawl run triggers",
		}, []string{"outcome"}), // 'completed', 'failed', 'skipped'
		PostsIngested: factory.NewCounter(prometheus.CounterOpts{
			Name: "scraper_posts_ingested_total",
			Help: "The total number of posts persisted",
		}),
		ImagesUploaded: factory.NewCounter(prometheus.CounterOpts{
			Name: "scraper_images_uploaded_total",
			Help: "The total number of gallery images uploaded",
		}),
		ErrorsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "scraper_errors_total",
			Help: "The total number of errors encountered",
		}, []string{"type"}), // e.g. 'image_fetch_failed', 'image_upload_failed'
		RunDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "scraper_run_duration_seconds",
			Help:    "Duration of crawl runs",
			Buckets: []float64{10, 30, 60, 120, 300, 600, 900},
		}),
	}
}

func (m *Metrics) IncRunsTotal(outcome string) {
	m.RunsTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) IncPostsIngested() {
	m.PostsIngested.Inc()
}

func (m *Metrics) IncImagesUploaded() {
	m.ImagesUploaded.Inc()
}

func (m *Metrics) IncErrorsTotal(errorType string) {
	m.ErrorsTotal.WithLabelValues(errorType).Inc()
}

func (m *Metrics) ObserveRunDuration(seconds float64) {
	m.RunDuration.Observe(seconds)
}
