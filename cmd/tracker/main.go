package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"hypercore-tracker/internal/aggregator"
	"hypercore-tracker/internal/config"
	"hypercore-tracker/internal/database"
	"hypercore-tracker/internal/hypercore"
	"hypercore-tracker/internal/logger"
	"hypercore-tracker/internal/pricing"
	"hypercore-tracker/internal/snapshot"
)

func main() {
	// Load application configuration
	cfg, err := config.LoadConfig("./configs")
	if err != nil {
		// We can't use the logger here because it's not initialized yet.
		fmt.Fprintf(os.Stderr, "could not load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log, err := logger.NewLogger(cfg.Logger.Level, cfg.Logger.Format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "could not initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	log.Info("Configuration loaded", zap.String("title", cfg.App.Title), zap.Int("wallets", len(cfg.Wallets)))

	if len(cfg.Wallets) == 0 {
		log.Warn("No wallets configured; nothing will be tracked until wallets are added to the config")
	}

	// Initialize database
	db, err := database.NewDatabase(&cfg)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	log.Info("Database connection successful and schema migrated.")

	// Initialize clients and the snapshot store
	client := hypercore.NewClient(&cfg, log)
	prices := pricing.NewService(&cfg, log)
	store := snapshot.NewStore(db, log)

	// Setup context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		sigchan := make(chan os.Signal, 1)
		signal.Notify(sigchan, syscall.SIGINT, syscall.SIGTERM)
		<-sigchan
		log.Info("Shutdown signal received, gracefully shutting down...")
		cancel()
	}()

	// Initialize and run the refresh engine
	engine := aggregator.NewEngine(log, &cfg, client, prices, store)
	engine.Run(ctx)

	log.Info("Tracker has been shut down.")
}
