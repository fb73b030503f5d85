package storage

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jwebster45206/mansion-engine/internal/config"
	"github.com/jwebster45206/mansion-engine/pkg/storage"
)

// Open builds the store selected by cfg.StoreBackend. A Redis store is
// only returned once the server answers.
func Open(ctx context.Context, cfg *config.Config, logger *slog.Logger) (storage.Store, error) {
	switch cfg.StoreBackend {
	case config.StoreRedis:
		store, err := NewRedisStore(cfg.RedisURL, logger)
		if err != nil {
			return nil, err
		}
		if err := store.WaitForConnection(ctx, 30, 2*time.Second); err != nil {
			store.Close()
			return nil, err
		}
		return store, nil
	case config.StoreSQLite:
		return NewSQLiteStore(cfg.SQLitePath, logger)
	case config.StoreMemory:
		logger.Warn("Using in-memory store; records are lost on exit")
		return storage.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}
