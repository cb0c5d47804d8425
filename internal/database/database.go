package database

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mfuentes/plaza/internal/config"
	"github.com/surrealdb/surrealdb.go"
)

// NewDB opens a SurrealDB connection, signs in with root credentials and
// selects the configured namespace and database. The stores re-issue Use per
// call, so the scope set here only covers ad-hoc queries on the raw handle.
func NewDB(ctx context.Context, cfg *config.Config) (*surrealdb.DB, error) {
	db, err := surrealdb.FromEndpointURLString(ctx, cfg.DBUrl)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to surrealdb: %w", err)
	}

	if _, err = db.SignIn(ctx, &surrealdb.Auth{
		Username: cfg.DBUser,
		Password: cfg.DBPass,
	}); err != nil {
		db.Close(ctx)
		return nil, fmt.Errorf("failed to sign in: %w", err)
	}

	if err = db.Use(ctx, cfg.DBNs, cfg.DBDb); err != nil {
		db.Close(ctx)
		return nil, fmt.Errorf("failed to use namespace/db: %w", err)
	}

	slog.Info("Connected to SurrealDB", "ns", cfg.DBNs, "db", cfg.DBDb)
	return db, nil
}
