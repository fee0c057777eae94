package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/alexflint/go-arg"
	"github.com/joho/godotenv"

	"github.com/Ultramusic201/Anzu/internal/amqp"
	"github.com/Ultramusic201/Anzu/internal/config"
	"github.com/Ultramusic201/Anzu/internal/fx"
	"github.com/Ultramusic201/Anzu/internal/log"
	"github.com/Ultramusic201/Anzu/internal/storage"
	"github.com/Ultramusic201/Anzu/internal/worker"
)

type args struct {
	DBPath  string `arg:"--db" help:"override SQLITE_DB_PATH"`
	EnvFile string `arg:"--env-file" default:".env" help:"dotenv file for local development"`
	Once    bool   `arg:"--once" help:"refresh today's rate and exit"`
}

func (args) Description() string {
	return "anzu-worker - keeps the daily exchange rate fresh"
}

func main() {
	var a args
	arg.MustParse(&a)

	_ = godotenv.Load(a.EnvFile)

	cfg := config.Load()
	if a.DBPath != "" {
		cfg.SQLiteDBPath = a.DBPath
	}

	logger := log.New(log.Config{Level: cfg.SlogLevel(), Component: "anzu-worker"})
	log.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	if cfg.RateSourceURL == "" {
		logger.Error("RATE_SOURCE_URL is required for the rate worker")
		os.Exit(1)
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	source := fx.NewSource(cfg.RateSourceURL, cfg.RateFetchTimeout)
	rateWorker := worker.NewRateWorker(repo, source)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if a.Once {
		if err := rateWorker.EnsureToday(ctx); err != nil {
			logger.Error("One-shot refresh failed", "error", err)
			os.Exit(1)
		}
		return
	}

	// On startup, fill today's rate unless one was already entered.
	if err := rateWorker.EnsureToday(ctx); err != nil {
		logger.Error("Startup rate check failed", "error", err)
		// Don't exit - the ticker will retry.
	}

	if cfg.AMQPURL != "" {
		bus, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", "error", err)
			os.Exit(1)
		}
		defer bus.Close()

		go func() {
			handler := func(msg *amqp.RateRefreshMessage) error {
				return rateWorker.HandleRefreshMessage(ctx, msg)
			}
			if err := bus.ConsumeRateRefresh(ctx, handler); err != nil {
				if !errors.Is(err, context.Canceled) {
					logger.Error("Message consumption failed", "error", err)
				}
				cancel()
			}
		}()
		logger.Info("Consuming rate refresh requests", "queue", cfg.AMQPQueue)
	} else {
		logger.Info("AMQP messaging disabled - running on the refresh interval only")
	}

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())
		cancel()
	}()

	logger.Info("Starting rate worker", "interval", cfg.RateRefreshInterval.String())
	rateWorker.Run(ctx, cfg.RateRefreshInterval)
	logger.Info("Worker stopped gracefully")
}
