package database

import (
	"context"
	"fmt"
	"log"

	"github.com/jackc/pgx/v5/pgxpool"
)

// NewPgxPool creates a new PostgreSQL connection pool. When enableDBCheck is
// set the pool is pinged before being returned, so a misconfigured URL fails
// at startup instead of on the first transfer.
func NewPgxPool(ctx context.Context, databaseURL string, enableDBCheck bool) (*pgxpool.Pool, error) {
	if databaseURL == "" {
		return nil, fmt.Errorf("database URL cannot be empty")
	}

	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config from URL: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if enableDBCheck {
		if err := pool.Ping(ctx); err != nil {
			pool.Close() // Close the pool if ping fails
			return nil, fmt.Errorf("failed to ping database: %w", err)
		}
		log.Println("Successfully connected to PostgreSQL database.")
	}

	return pool, nil
}

// ClosePgxPool closes the PostgreSQL connection pool.
func ClosePgxPool(pool *pgxpool.Pool) {
	if pool != nil {
		pool.Close()
		log.Println("PostgreSQL connection pool closed.")
	}
}
