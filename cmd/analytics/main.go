// Command analytics consumes harvest and query events from Kafka and serves
// aggregated usage statistics over HTTP.
//
// Usage:
//
//	go run ./cmd/analytics [-config configs/development.yaml]
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
	"github.com/policydocs/harvester/pkg/config"
	"github.com/policydocs/harvester/pkg/kafka"
	"github.com/policydocs/harvester/pkg/logger"
)

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

	if !cfg.Kafka.Enabled {
		slog.Error("kafka is disabled in config; the analytics worker needs it")
		os.Exit(1)
	}

	agg := analytics.NewAggregator()
	harvestConsumer := kafka.NewConsumer(cfg.Kafka, cfg.Kafka.Topics.HarvestEvents, analytics.HandleHarvestEvent(agg))
	queryConsumer := kafka.NewConsumer(cfg.Kafka, cfg.Kafka.Topics.QueryEvents, analytics.HandleQueryEvent(agg))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := harvestConsumer.Start(ctx); err != nil && ctx.Err() == nil {
			slog.Error("harvest-events consumer stopped", "error", err)
		}
	}()
	go func() {
		if err := queryConsumer.Start(ctx); err != nil && ctx.Err() == nil {
			slog.Error("query-events consumer stopped", "error", err)
		}
	}()
	defer harvestConsumer.Close()
	defer queryConsumer.Close()

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/stats", agg.StatsHandler())
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Answer.StatsPort),
		Handler: mux,
	}
	go func() {
		<-ctx.Done()
		slog.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("stats server shutdown error", "error", err)
		}
	}()

	slog.Info("analytics worker listening", "addr", srv.Addr,
		"topics", []string{cfg.Kafka.Topics.HarvestEvents, cfg.Kafka.Topics.QueryEvents})
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("stats server error", "error", err)
		os.Exit(1)
	}
	slog.Info("analytics worker stopped")
}
