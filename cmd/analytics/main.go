// Command analytics aggregates search and reload events from Kafka and serves
// the running statistics at GET /api/v1/analytics. With analytics.persist
// enabled, aggregates are snapshotted to Postgres and restored on startup.
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

	"golang.org/x/sync/errgroup"

	"github.com/Adithya-Monish-Kumar-K/article-retrieval/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/article-retrieval/internal/analytics/aggregator"
	"github.com/Adithya-Monish-Kumar-K/article-retrieval/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/article-retrieval/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/article-retrieval/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/article-retrieval/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/article-retrieval/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/article-retrieval/pkg/middleware"
	"github.com/Adithya-Monish-Kumar-K/article-retrieval/pkg/postgres"
)

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
		slog.Error("analytics service failed", "error", err)
		os.Exit(1)
	}
	slog.Info("analytics service stopped")
}

func run(cfg *config.Config) error {
	if !cfg.Kafka.Enabled {
		return errors.New("kafka is disabled; the analytics service has no event source")
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	slog.Info("starting analytics service", "port", cfg.Server.Port, "persist", cfg.Analytics.Persist)

	agg := analytics.NewAggregator()
	checker := health.NewChecker()

	if cfg.Analytics.Persist {
		client, err := postgres.New(ctx, cfg.Postgres)
		if err != nil {
			return err
		}
		defer client.Close()
		checker.Register("postgres", health.PingCheck(client, health.StatusDegraded))

		store := aggregator.NewStore(client.DB)
		if err := store.EnsureSchema(ctx); err != nil {
			return err
		}
		prev, err := store.LatestSnapshot(ctx)
		if err != nil {
			return err
		}
		if prev != nil {
			agg.Restore(*prev)
			slog.Info("restored analytics snapshot", "captured_at", prev.CapturedAt, "total_searches", prev.TotalSearches)
		}
		store.StartPeriodicSave(ctx, agg, cfg.Analytics.SnapshotInterval)
	}

	kcfg := cfg.Kafka
	kcfg.ConsumerGroup += "-analytics"
	events := kafka.NewConsumer(kcfg, cfg.Kafka.Topics.AnalyticsEvents, analytics.HandleEvent(agg))

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/analytics", analytics.NewHandler(agg).Stats)
	mux.HandleFunc("GET /health/live", checker.LiveHandler())
	mux.HandleFunc("GET /health/ready", checker.ReadyHandler())

	var chain http.Handler = mux
	if cfg.Metrics.Enabled {
		m := metrics.New()
		metrics.StartServer(ctx, cfg.Metrics.Port)
		chain = middleware.Metrics(m, "/api/v1/analytics", "/health/live", "/health/ready")(chain)
	}

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      middleware.RequestID(chain),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return events.Start(gctx) })
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		slog.Info("analytics service listening", "addr", server.Addr, "topic", cfg.Kafka.Topics.AnalyticsEvents)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	return g.Wait()
}
