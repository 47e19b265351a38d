package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Adithya-Monish-Kumar-K/article-retrieval/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/article-retrieval/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/article-retrieval/internal/indexer/consumer"
	"github.com/Adithya-Monish-Kumar-K/article-retrieval/internal/indexer/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/article-retrieval/internal/ingestion/source"
	"github.com/Adithya-Monish-Kumar-K/article-retrieval/internal/searcher/cache"
	"github.com/Adithya-Monish-Kumar-K/article-retrieval/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/article-retrieval/internal/searcher/handler"
	"github.com/Adithya-Monish-Kumar-K/article-retrieval/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/article-retrieval/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/article-retrieval/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/article-retrieval/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/article-retrieval/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/article-retrieval/pkg/middleware"
	pkgredis "github.com/Adithya-Monish-Kumar-K/article-retrieval/pkg/redis"
)

var routes = []string{
	"/search",
	"/api/v1/search",
	"/api/v1/corpus",
	"/api/v1/corpus/reload",
	"/api/v1/cache/stats",
	"/api/v1/cache/invalidate",
	"/api/v1/analytics",
	"/health/live",
	"/health/ready",
}

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)

	if err := run(cfg); err != nil {
		slog.Error("search service failed", "error", err)
		os.Exit(1)
	}
	slog.Info("search service stopped")
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	slog.Info("starting search service",
		"port", cfg.Server.Port,
		"source", cfg.Corpus.Source,
		"limit", cfg.Corpus.Limit,
	)
	if cfg.Search.StemScoreQuery {
		slog.Info("similarity scoring uses the stemmed query")
	} else {
		slog.Info("similarity scoring uses the raw query; index terms are stemmed, so scores may diverge from candidate selection")
	}

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
		metrics.StartServer(ctx, cfg.Metrics.Port)
	}

	src, closeSource, err := source.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeSource()

	engine := indexer.NewEngine(src, tokenizer.English{}, cfg.Corpus)
	if m != nil {
		engine.OnReload(func(s *indexer.Snapshot) {
			m.CorpusReloadsTotal.WithLabelValues("success").Inc()
			m.CorpusDocuments.Set(float64(s.Store.Len()))
			m.CorpusTerms.Set(float64(s.Index.NumTerms()))
			m.VocabularySize.Set(float64(s.Model.VocabularySize()))
			m.SnapshotBuildSeconds.Observe(s.BuildDuration.Seconds())
		})
		engine.OnReloadFailure(func(error) {
			m.CorpusReloadsTotal.WithLabelValues("failure").Inc()
		})
	}

	var queryCache *cache.QueryCache
	var redisClient *pkgredis.Client
	if cfg.Redis.Enabled {
		redisClient, err = pkgredis.NewClient(ctx, cfg.Redis)
		if err != nil {
			slog.Warn("redis unavailable, search caching disabled", "error", err)
		} else {
			defer redisClient.Close()
			queryCache = cache.New(redisClient, cfg.Redis.CacheTTL, m)
			engine.OnReload(func(*indexer.Snapshot) {
				if _, err := queryCache.Invalidate(context.Background()); err != nil {
					slog.Warn("cache invalidation after reload failed", "error", err)
				}
			})
			slog.Info("search cache enabled", "addr", cfg.Redis.Addr, "ttl", cfg.Redis.CacheTTL)
		}
	}

	aggregator := analytics.NewAggregator()
	var tracker handler.Tracker = aggregator
	g, gctx := errgroup.WithContext(ctx)

	if cfg.Kafka.Enabled {
		producer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.AnalyticsEvents)
		defer producer.Close()
		collector := analytics.NewCollector(producer, analytics.CollectorConfig{})
		collector.Start(gctx)
		defer collector.Close()
		tracker = collector
		slog.Info("analytics collector started", "topic", cfg.Kafka.Topics.AnalyticsEvents)

		// Every replica aggregates and reloads on its own, so each gets a
		// consumer group of its own.
		kcfg := cfg.Kafka
		kcfg.ConsumerGroup = instanceGroup(cfg.Kafka.ConsumerGroup)
		analyticsConsumer := kafka.NewConsumer(kcfg, cfg.Kafka.Topics.AnalyticsEvents, analytics.HandleEvent(aggregator))
		g.Go(func() error { return analyticsConsumer.Start(gctx) })

		reloads := consumer.New(kafka.NewConsumer(kcfg, cfg.Kafka.Topics.CorpusReload, consumer.HandleMessage(engine)))
		g.Go(func() error { return reloads.Start(gctx) })
	}
	engine.OnReload(func(s *indexer.Snapshot) {
		st := s.Stats()
		tracker.Track(analytics.ReloadEvent{
			Success:    true,
			Version:    st.Version,
			Documents:  st.Documents,
			Terms:      st.Terms,
			Vocabulary: st.VocabularySize,
			BuildMs:    st.BuildMillis,
			Source:     st.Source,
			Timestamp:  st.LoadedAt.UTC(),
		})
	})
	engine.OnReloadFailure(func(err error) {
		tracker.Track(analytics.ReloadEvent{
			Error:     err.Error(),
			Source:    src.Name(),
			Timestamp: time.Now().UTC(),
		})
	})

	if _, err := engine.Reload(ctx); err != nil {
		slog.Error("initial corpus load failed, serving 503 until a reload succeeds", "error", err)
	}

	checker := health.NewChecker()
	checker.Register("corpus", func(ctx context.Context) health.ComponentHealth {
		snap, err := engine.Current()
		if err != nil {
			return health.ComponentHealth{Status: health.StatusDown, Message: err.Error()}
		}
		return health.ComponentHealth{
			Status:  health.StatusUp,
			Message: fmt.Sprintf("version %d, %d documents", snap.Version, snap.Store.Len()),
		}
	})
	if redisClient != nil {
		checker.Register("redis", health.PingCheck(redisClient, health.StatusDegraded))
	}

	exec := executor.New(engine, engine.Normalizer(), cfg.Search, cfg.Tracing.Enabled)
	opts := []handler.Option{handler.WithTracker(tracker)}
	if queryCache != nil {
		opts = append(opts, handler.WithCache(queryCache))
	}
	if m != nil {
		opts = append(opts, handler.WithMetrics(m))
	}
	h := handler.New(exec, engine, cfg.Search, opts...)

	mux := http.NewServeMux()
	h.Routes(mux)
	mux.HandleFunc("GET /api/v1/analytics", analytics.NewHandler(aggregator).Stats)
	mux.HandleFunc("GET /health/live", checker.LiveHandler())
	mux.HandleFunc("GET /health/ready", checker.ReadyHandler())

	var chain http.Handler = mux
	chain = middleware.Timeout(cfg.Server.WriteTimeout)(chain)
	if n := cfg.Server.ReloadsPerMinute; n > 0 {
		limiter := middleware.NewLimiter(n, time.Minute)
		go limiter.Sweep(gctx, 5*time.Minute)
		chain = middleware.RateLimit(limiter, "/api/v1/corpus/reload")(chain)
	}
	if m != nil {
		chain = middleware.Metrics(m, routes...)(chain)
	}
	chain = middleware.RequestID(chain)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      chain,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		slog.Info("search service listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	return g.Wait()
}

func instanceGroup(base string) string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = fmt.Sprintf("pid%d", os.Getpid())
	}
	return base + "-searcher-" + host
}
