package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/avdeenko/license-dashboard-api/internal/config"
)

// NewPgxPool opens the long-lived connection to the record store. One pool
// lives for the whole authenticated session of the process; credential
// changes require a restart, which recreates it.
func NewPgxPool(ctx context.Context, creds config.StoreCredentials, cfg *config.StoreConfig, logger *zap.Logger) (*pgxpool.Pool, error) {
	pgxConfig, err := pgxpool.ParseConfig(creds.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse store connection string: %w", err)
	}

	if creds.Key != "" {
		pgxConfig.ConnConfig.Password = creds.Key
	}

	pgxConfig.MaxConns = int32(cfg.MaxOpenConns)
	pgxConfig.MinConns = int32(cfg.MaxIdleConns)
	pgxConfig.MaxConnLifetime = cfg.ConnMaxLifetime

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(connectCtx, pgxConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create store connection pool: %w", err)
	}

	pingCtx, cancelPing := context.WithTimeout(ctx, 5*time.Second)
	defer cancelPing()

	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping store: %w", err)
	}

	logger.Info("Successfully connected to record store")
	return pool, nil
}
