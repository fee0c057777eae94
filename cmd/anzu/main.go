package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alexflint/go-arg"
	"github.com/joho/godotenv"

	"github.com/Ultramusic201/Anzu/internal/amqp"
	"github.com/Ultramusic201/Anzu/internal/config"
	"github.com/Ultramusic201/Anzu/internal/fx"
	apphttp "github.com/Ultramusic201/Anzu/internal/http"
	"github.com/Ultramusic201/Anzu/internal/log"
	"github.com/Ultramusic201/Anzu/internal/services"
	"github.com/Ultramusic201/Anzu/internal/storage"
)

type args struct {
	Port    string `arg:"--port" help:"override PORT"`
	DBPath  string `arg:"--db" help:"override SQLITE_DB_PATH"`
	EnvFile string `arg:"--env-file" default:".env" help:"dotenv file for local development"`
}

func (args) Description() string {
	return "anzu - two-currency personal finance API"
}

func main() {
	var a args
	arg.MustParse(&a)

	// Local development convenience; in containers the env is already set.
	_ = godotenv.Load(a.EnvFile)

	cfg := config.Load()
	if a.Port != "" {
		cfg.Port = a.Port
	}
	if a.DBPath != "" {
		cfg.SQLiteDBPath = a.DBPath
	}

	logger := log.New(log.Config{Level: cfg.SlogLevel(), Component: "anzu-api"})
	log.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	catalog, err := config.LoadCatalog(cfg.CategoriesFile)
	if err != nil {
		logger.Error("Failed to load category catalog", "error", err, "path", cfg.CategoriesFile)
		os.Exit(1)
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	var pub services.Publisher
	if cfg.AMQPURL != "" {
		bus, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", "error", err)
			os.Exit(1)
		}
		defer bus.Close()
		pub = bus
		logger.Info("AMQP messaging enabled", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	} else {
		logger.Info("AMQP messaging disabled - no AMQP_URL provided")
	}

	var source *fx.Source
	if cfg.RateSourceURL != "" {
		source = fx.NewSource(cfg.RateSourceURL, cfg.RateFetchTimeout)
	}

	rates := services.NewRateService(repo, pub, source, cfg.CacheTTL)
	ledger := services.NewLedgerService(repo, rates, pub, catalog, cfg.CacheTTL, cfg.RecentLimit)
	credits := services.NewCreditService(repo, rates, ledger)

	api := apphttp.NewServer(ledger, rates, credits)
	srv := &http.Server{
		Addr:           ":" + cfg.Port,
		Handler:        api.Handler(),
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   10 * time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 16,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		cancel()
	}()

	logger.Info("Starting anzu server", "port", cfg.Port, "db", cfg.SQLiteDBPath)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Server stopped gracefully")
}
