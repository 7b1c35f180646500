package database

import (
	"fmt"
	"os"
	"path/filepath"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"hypercore-tracker/internal/config"
	"hypercore-tracker/internal/models"
)

// NewDatabase opens the sqlite database and migrates the snapshot schema.
// The parent directory of the DSN is created if missing.
func NewDatabase(cfg *config.Config) (*gorm.DB, error) {
	if dir := filepath.Dir(cfg.Database.DSN); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(cfg.Database.DSN), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := AutoMigrate(db); err != nil {
		return nil, err
	}

	return db, nil
}

// AutoMigrate creates the balances and trades tables if they do not
// exist. Snapshot history is append-only, so existing tables are never
// dropped or rewritten.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.Balance{}, &models.Trade{}); err != nil {
		return fmt.Errorf("failed to auto-migrate database: %w", err)
	}
	return nil
}
