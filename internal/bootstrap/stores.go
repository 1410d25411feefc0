package bootstrap

import (
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/shopfloor-tools/robobak/config"
	"github.com/shopfloor-tools/robobak/internal/core"
	"github.com/shopfloor-tools/robobak/internal/data"
)

// JobStore builds the configured job store. The returned closer releases
// any backend connection and is safe to call even for the file backend.
func JobStore(cfg config.StoreConfig) (core.JobConfigStore, func() error, error) {
	switch config.StoreBackend(cfg.Backend) {
	case config.StoreBackendFile:
		return data.NewFileJobStore(cfg.FilePath), func() error { return nil }, nil
	case config.StoreBackendRedis:
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		return data.NewRedisJobStore(client, cfg.RedisPrefix), client.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}

// RunHistory opens the run history repository, or returns nil when history
// is disabled.
func RunHistory(cfg config.StoreConfig) (core.RunHistoryRepository, error) {
	if cfg.HistoryPath == "" {
		return nil, nil
	}
	history, err := data.OpenSQLiteHistory(cfg.HistoryPath)
	if err != nil {
		return nil, fmt.Errorf("open run history: %w", err)
	}
	return history, nil
}
