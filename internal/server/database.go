package server

import (
	"context"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/labels-extractor/internal/common"
	repo "github.com/joseph-ayodele/labels-extractor/internal/repository"
)

// ConnectDB opens the run-history database. An empty DSN disables run history and returns
// a nil DB.
func ConnectDB(ctx context.Context, cfg common.DatabaseConfig, logger *slog.Logger) (*repo.DB, error) {
	if cfg.DSN == "" {
		logger.Info("run history disabled", "reason", "DB_URL not set")
		return nil, nil
	}
	db, err := repo.Open(ctx, repo.Config{
		DSN:              cfg.DSN,
		MaxConns:         cfg.MaxConns,
		MinConns:         cfg.MinConns,
		MaxConnLifetime:  cfg.MaxConnLifetime,
		MaxConnIdleTime:  cfg.MaxConnIdleTime,
		DialTimeout:      cfg.DialTimeout,
		StatementTimeout: cfg.StatementTimeout,
	}, logger)
	if err != nil {
		return nil, err
	}
	return db, nil
}

// PingDB pings the database to ensure it's responsive
func PingDB(ctx context.Context, db *repo.DB, logger *slog.Logger, timeout time.Duration) error {
	if err := db.HealthCheck(ctx, timeout); err != nil {
		logger.Error("database ping failed", "error", err)
		return err
	}
	return nil
}

// CloseDB closes the database connections gracefully
func CloseDB(db *repo.DB) {
	if db != nil {
		db.Close()
	}
}
