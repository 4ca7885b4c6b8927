package jobs

import (
	"context"
	"fmt"

	"github.com/fbz-tec/storexport/core/config"
	"github.com/fbz-tec/storexport/internal/logger"
	"github.com/redis/go-redis/v9"
)

// Open builds the Store and Locker selected by cfg.JobStore.
func Open(ctx context.Context, cfg config.Config) (Store, Locker, error) {
	switch cfg.JobStore {
	case "memory":
		logger.Debug("Using in-memory job store")
		return NewMemoryStore(), NewKeyedMutex(), nil
	case "sqlite":
		s, err := NewSQLiteStore(cfg.JobStorePath)
		if err != nil {
			return nil, nil, err
		}
		return s, NewKeyedMutex(), nil
	case "redis":
		rc := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPass,
			DB:       cfg.RedisDB,
		})
		s := NewRedisStore(rc, 0)
		if err := s.Ping(ctx); err != nil {
			rc.Close()
			return nil, nil, err
		}
		logger.Debug("Using redis job store at %s", cfg.RedisAddr)
		return s, s, nil
	}
	return nil, nil, fmt.Errorf("unknown job store %q", cfg.JobStore)
}
