package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/easyrent/scraper/internal/api"
	"github.com/easyrent/scraper/internal/browser"
	"github.com/easyrent/scraper/internal/config"
	"github.com/easyrent/scraper/internal/convert"
	"github.com/easyrent/scraper/internal/crawler"
	"github.com/easyrent/scraper/internal/ingest"
	"github.com/easyrent/scraper/internal/ledger"
	"github.com/easyrent/scraper/internal/monitoring"
	"github.com/easyrent/scraper/internal/scrape"
	"github.com/easyrent/scraper/internal/storage"
)

func main() {
	// Initialize structured logger
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("could not load config", zap.Error(err))
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal("invalid config", zap.Error(err))
	}

	ctx := context.Background()

	// Initialize Storage Layer
	pgStore, err := storage.NewPostgresStore(ctx, cfg.PostgresURL)
	if err != nil {
		logger.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer pgStore.Close()
	if err := pgStore.EnsureSchema(ctx); err != nil {
		logger.Fatal("failed to ensure schema", zap.Error(err))
	}
	redisStore := storage.NewRedisStore(cfg.RedisAddr, cfg.DedupTTL())
	defer redisStore.Close()

	// Initialize Monitoring
	metrics := monitoring.NewMetrics(prometheus.DefaultRegisterer)

	// Initialize Ingestion Pipeline
	seqStore := ledger.NewFileStore(cfg.LedgerPath)
	allocator := ledger.NewAllocator(seqStore)
	mediaStore := storage.NewFirebaseMediaStore(cfg.StorageBucket, cfg.StorageToken, logger)
	fetcher := storage.NewHTTPImageFetcher(cfg.ImageFetchRPS)
	sink := ingest.NewSink(allocator, pgStore, mediaStore, fetcher, metrics, logger)

	// Initialize Extraction Helpers
	pacer := scrape.NewPacer(cfg.MinActionDelay(), cfg.MaxActionDelay())
	gallery := scrape.NewGalleryExtractor(cfg.MediaHostToken, pacer, logger)
	normalizer := scrape.NewNormalizer(cfg.CommentLabel)

	browserOpts := browser.Options{
		Headless:        cfg.Headless,
		UserDataDir:     cfg.UserDataDir,
		ExecPath:        cfg.ChromePath,
		UserAgent:       cfg.UserAgent,
		HostToken:       cfg.MediaHostToken,
		DialogLabel:     cfg.LightboxLabel,
		NextImageLabel:  cfg.NextImageLabel,
		SeeMoreLabel:    cfg.SeeMoreLabel,
		NavTimeout:      time.Duration(cfg.NavTimeoutSeconds) * time.Second,
		LightboxTimeout: time.Duration(cfg.LightboxTimeoutSeconds) * time.Second,
		GallerySettle:   time.Duration(cfg.GallerySettleSeconds) * time.Second,
		ScrollSettle:    time.Duration(cfg.ScrollSettleSeconds) * time.Second,
	}
	sessions := crawler.SessionFactoryFunc(func(ctx context.Context) (crawler.Session, error) {
		return browser.NewSession(ctx, browserOpts, logger)
	})

	// Conversion step is optional: without a working dir there is nothing to run.
	var converter crawler.Converter
	if cfg.ConvertDir != "" {
		converter = convert.NewRunner(cfg.ConvertCommand, cfg.ConverterArgs(), cfg.ConvertDir, cfg.ConvertTimeout(), logger)
	}

	// Initialize Core Crawler
	coreCrawler := crawler.New(crawler.Config{
		RootURL:        cfg.FeedRootURL,
		GroupURLs:      cfg.Groups(),
		Rotation:       cfg.GroupRotation,
		MaxPostsPerRun: cfg.MaxPostsPerRun,
		Interval:       cfg.RunInterval(),
		RunTimeout:     cfg.RunTimeout(),
	}, sessions, gallery, normalizer, pacer, sink, redisStore, converter, metrics, logger)
	coreCrawler.Start()

	// Initialize API Server
	server := api.NewServer(cfg, coreCrawler, pgStore, redisStore, logger)

	// Graceful Shutdown
	go func() {
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("could not start server", zap.Error(err))
		}
	}()

	logger.Info("server started", zap.String("port", cfg.ServerPort))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	coreCrawler.Stop()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("server forced to shutdown", zap.Error(err))
	}

	logger.Info("server exiting")
}
