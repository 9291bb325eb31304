package cache

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/royalty/backend/internal/domain/shared"
	"github.com/royalty/backend/internal/infrastructure/config"
)

// NewIdempotencyStore returns a Redis-backed store when Redis is configured.
// An empty host selects the in-memory store; an unreachable Redis falls back
// to memory unless the app runs in production.
func NewIdempotencyStore(ctx context.Context, cfg config.RedisConfig, production bool, logger *zap.Logger) (shared.IdempotencyStore, error) {
	if cfg.Host == "" {
		logger.Info("Redis not configured, using in-memory idempotency store")
		return NewInMemoryIdempotencyStore(), nil
	}

	store, err := NewRedisIdempotencyStore(ctx, cfg.Addr(), cfg.Password, cfg.DB)
	if err == nil {
		logger.Info("Using Redis idempotency store", zap.String("addr", cfg.Addr()))
		return store, nil
	}
	if production {
		return nil, fmt.Errorf("redis required for idempotency but unavailable: %w", err)
	}

	logger.Warn("Redis unavailable, falling back to in-memory idempotency store", zap.Error(err))
	return NewInMemoryIdempotencyStore(), nil
}
