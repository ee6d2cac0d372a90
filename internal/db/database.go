package db

import (
	"context"
	"fmt"

	"github.com/dwes123/fpl-stats-go/internal/config"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Open connects to PostgreSQL and verifies the connection with a ping.
// maxConns caps the pool; the importer passes 1 so the whole run shares a
// single exclusive connection, the API server passes 0 for pgx's default.
func Open(ctx context.Context, cfg *config.DatabaseConfig, maxConns int32) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("unable to parse database config: %w", err)
	}
	if maxConns > 0 {
		poolConfig.MaxConns = maxConns
		poolConfig.MinConns = 0
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("database ping failed: %w", err)
	}
	return pool, nil
}
