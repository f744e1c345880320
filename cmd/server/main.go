// Command server starts the policy document harvester HTTP service.
//
// The service crawls a source page for PDF links via POST /api/v1/harvest,
// classifies and stores each document in the object store, and answers policy
// questions via POST /api/v1/query. Health endpoints live at GET /health and
// GET /health/ready; Prometheus metrics are served on their own port.
//
// Usage:
//
//	go run ./cmd/server [-config configs/development.yaml]
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/policydocs/harvester/internal/analytics"
	"github.com/policydocs/harvester/internal/answer"
	answerhandler "github.com/policydocs/harvester/internal/answer/handler"
	"github.com/policydocs/harvester/internal/catalog"
	"github.com/policydocs/harvester/internal/harvest/fetch"
	harvesthandler "github.com/policydocs/harvester/internal/harvest/handler"
	"github.com/policydocs/harvester/internal/harvest/pipeline"
	"github.com/policydocs/harvester/internal/server"
	"github.com/policydocs/harvester/internal/storage"
	"github.com/policydocs/harvester/pkg/config"
	"github.com/policydocs/harvester/pkg/health"
	"github.com/policydocs/harvester/pkg/kafka"
	"github.com/policydocs/harvester/pkg/logger"
	"github.com/policydocs/harvester/pkg/metrics"
	"github.com/policydocs/harvester/pkg/postgres"
	"github.com/policydocs/harvester/pkg/redis"
)

// main loads configuration, connects to the optional backing services, wires
// the pipeline and answer service, and runs the HTTP server until
// SIGINT/SIGTERM.
func main() {
	_ = godotenv.Load()

	configPath := flag.String("config", "", "path to config file")
	flag.Parse()
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("starting harvester", "port", cfg.Server.Port)

	store, err := storage.New(cfg.Storage)
	if err != nil {
		slog.Error("failed to initialize object store", "error", err)
		os.Exit(1)
	}
	slog.Info("object store ready", "backend", cfg.Storage.Backend, "bucket", cfg.Storage.Bucket)

	checker := health.NewChecker()
	checker.Register("storage", func(ctx context.Context) health.ComponentHealth {
		if _, err := store.List(ctx, cfg.Storage.KeyPrefix); err != nil {
			return health.ComponentHealth{Status: health.StatusDown, Message: err.Error()}
		}
		return health.ComponentHealth{Status: health.StatusUp}
	})
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// PostgreSQL catalog is optional: the pipeline degrades to store-only.
	var cat *catalog.Catalog
	db, err := postgres.New(cfg.Postgres)
	if err != nil {
		slog.Warn("postgres unavailable, document catalog disabled", "error", err)
	} else {
		defer db.Close()
		cat = catalog.New(db)
		if err := cat.EnsureSchema(ctx); err != nil {
			slog.Error("failed to ensure catalog schema", "error", err)
			os.Exit(1)
		}
		checker.Register("postgres", func(ctx context.Context) health.ComponentHealth {
			if err := db.DB.PingContext(ctx); err != nil {
				return health.ComponentHealth{Status: health.StatusDown, Message: err.Error()}
			}
			return health.ComponentHealth{Status: health.StatusUp}
		})
		slog.Info("connected to postgres")
	}

	// Redis answer cache is optional too.
	var answerCache *answer.Cache
	if cfg.Answer.CacheEnabled {
		rdb, err := redis.NewClient(cfg.Redis)
		if err != nil {
			slog.Warn("redis unavailable, answer cache disabled", "error", err)
		} else {
			defer rdb.Close()
			answerCache = answer.NewCache(rdb, cfg.Redis)
			checker.Register("redis", func(ctx context.Context) health.ComponentHealth {
				if err := rdb.Ping(ctx); err != nil {
					return health.ComponentHealth{Status: health.StatusDown, Message: err.Error()}
				}
				return health.ComponentHealth{Status: health.StatusUp}
			})
			slog.Info("connected to redis")
		}
	}

	var collector *analytics.Collector
	if cfg.Kafka.Enabled {
		harvestProducer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.HarvestEvents)
		defer harvestProducer.Close()
		queryProducer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.QueryEvents)
		defer queryProducer.Close()
		collector = analytics.NewCollector(harvestProducer, queryProducer, 0)
		collector.Start(ctx)
		defer collector.Close()
		slog.Info("kafka event publication enabled", "brokers", cfg.Kafka.Brokers)
	}

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
		metricsServer := metrics.NewServer(cfg.Metrics.Port)
		metricsServer.Start()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
			defer cancel()
			metricsServer.Shutdown(shutdownCtx)
		}()
	}

	fetcher := fetch.New(cfg.Harvest)
	var recorder pipeline.Recorder
	var lister harvesthandler.Lister
	var interactions answer.InteractionLog
	if cat != nil {
		recorder = cat
		lister = cat
		interactions = catalogInteractionLog{cat}
	}
	pipe := pipeline.New(fetcher, store, cfg.Storage, pipeline.Options{
		Recorder:  recorder,
		Collector: collector,
		Metrics:   m,
	})
	answerService := answer.NewService(answerCache, interactions, collector, m)

	hh := harvesthandler.New(pipe, lister)
	ah := answerhandler.New(answerService)
	chain := server.New(cfg, hh, ah, checker, m)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      chain,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	shutdownDone := make(chan struct{})
	go func() {
		defer close(shutdownDone)
		<-ctx.Done()
		slog.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "error", err)
		}
	}()
	slog.Info("harvester listening", "addr", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
	// ListenAndServe returns as soon as Shutdown is called; wait for in-flight
	// handlers to drain before the deferred closes tear down their backends.
	<-shutdownDone
	slog.Info("harvester stopped")
}

// catalogInteractionLog adapts catalog.Catalog to the answer service's
// interaction log without the answer package importing catalog.
type catalogInteractionLog struct {
	cat *catalog.Catalog
}

func (l catalogInteractionLog) RecordInteraction(ctx context.Context, in answer.Interaction) error {
	return l.cat.RecordInteraction(ctx, catalog.Interaction{
		SessionID:   in.SessionID,
		UserID:      in.UserID,
		Kind:        in.Kind,
		Query:       in.Query,
		Response:    in.Response,
		Feedback:    in.Feedback,
		SourceCount: in.SourceCount,
	})
}
