package main

import (
	"fmt"
	"net/http"
	"os"

	"go.uber.org/zap"

	"hypercore-tracker/internal/config"
	"hypercore-tracker/internal/database"
	"hypercore-tracker/internal/logger"
	"hypercore-tracker/internal/snapshot"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig("./configs")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log, err := logger.NewLogger(cfg.Logger.Level, cfg.Logger.Format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Connect to the database
	db, err := database.NewDatabase(&cfg)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	store := snapshot.NewStore(db, log)

	// Setup HTTP server
	mux := http.NewServeMux()

	apiHandler := NewAPIHandler(log, store, cfg.Hypercore.TradeLimit)

	// API endpoints
	mux.HandleFunc("/api/summary", apiHandler.SummaryHandler)
	mux.HandleFunc("/api/balances", apiHandler.BalancesHandler)
	mux.HandleFunc("/api/history", apiHandler.HistoryHandler)
	mux.HandleFunc("/api/trades", apiHandler.TradesHandler)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	log.Info("Starting web server", zap.String("address", addr))

	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Fatal("Web server failed", zap.Error(err))
	}
}
