package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Pool sizing for a single sequential run.
const (
	postgresMinConns        = 1
	postgresMaxConns        = 5
	postgresConnectTimeout  = 10 * time.Second
	postgresMaxConnIdleTime = 5 * time.Minute
)

// OpenPostgres creates a connection pool for dsn and verifies it with a ping.
func OpenPostgres(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := ValidateString(dsn, "dsn"); err != nil {
		return nil, err
	}

	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database DSN: %w", err)
	}
	cfg.MinConns = postgresMinConns
	cfg.MaxConns = postgresMaxConns
	cfg.MaxConnIdleTime = postgresMaxConnIdleTime
	cfg.ConnConfig.ConnectTimeout = postgresConnectTimeout

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, postgresConnectTimeout)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return pool, nil
}
