// Package database selects and opens the repository.Store backend named by
// STORE_DRIVER.
package database

import (
	"context"
	"fmt"

	"github.com/mentorhub/mentorhub-api/config"
	"github.com/mentorhub/mentorhub-api/internal/database/memory"
	"github.com/mentorhub/mentorhub-api/internal/database/mongodb"
	"github.com/mentorhub/mentorhub-api/internal/database/postgres"
	"github.com/mentorhub/mentorhub-api/internal/repository"
	"github.com/mentorhub/mentorhub-api/pkg/db"
	"github.com/mentorhub/mentorhub-api/pkg/logger"
	"github.com/mentorhub/mentorhub-api/pkg/retry"
	"go.uber.org/zap"
)

// PoolConfig maps the database settings onto pkg/db
func PoolConfig(cfg config.DatabaseConfig) db.PoolConfig {
	return db.PoolConfig{
		URL:           cfg.URL,
		MaxConns:      cfg.MaxConns,
		MinConns:      cfg.MinConns,
		CACertPath:    cfg.CACertPath,
		TLSServerName: cfg.TLSServerName,
	}
}

// Open connects to the configured store, retrying transient dial failures
func Open(ctx context.Context, cfg *config.Config) (repository.Store, error) {
	switch cfg.Database.Driver {
	case config.StoreDriverPostgres:
		pool, err := retry.DoWithResult(ctx, retry.StoreConnectConfig(), "postgres_connect", func() (*postgres.Client, error) {
			p, err := db.NewPool(ctx, PoolConfig(cfg.Database))
			if err != nil {
				return nil, err
			}
			return postgres.NewClient(p), nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to open postgres store: %w", err)
		}
		logger.Info("Using postgres store")
		return pool, nil

	case config.StoreDriverMongo:
		store, err := retry.DoWithResult(ctx, retry.StoreConnectConfig(), "mongo_connect", func() (*mongodb.Store, error) {
			return mongodb.Connect(ctx, mongodb.Config{URL: cfg.Mongo.URL, Database: cfg.Mongo.Database})
		})
		if err != nil {
			return nil, fmt.Errorf("failed to open mongo store: %w", err)
		}
		logger.Info("Using mongo store", zap.String("database", cfg.Mongo.Database))
		return store, nil

	case config.StoreDriverMemory:
		logger.Warn("Using in-memory store: data is lost on restart")
		return memory.NewStore(), nil

	default:
		return nil, fmt.Errorf("unsupported store driver %q", cfg.Database.Driver)
	}
}
