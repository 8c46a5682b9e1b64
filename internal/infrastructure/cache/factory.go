package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/estate/backend/internal/domain/shared"
	"github.com/estate/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

const memorySweepInterval = 10 * time.Minute

// FactoryOption configures NewIdempotencyStore
type FactoryOption func(*factory)

type factory struct {
	logger        *zap.Logger
	allowFallback bool
}

// WithLogger sets the logger used to report the chosen backend
func WithLogger(logger *zap.Logger) FactoryOption {
	return func(f *factory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether an unreachable Redis degrades to the
// in-memory store instead of failing. Defaults to true.
func WithInMemoryFallback(allow bool) FactoryOption {
	return func(f *factory) {
		f.allowFallback = allow
	}
}

// NewIdempotencyStore returns a Redis store when Redis is enabled, else an in-memory one
func NewIdempotencyStore(ctx context.Context, cfg config.RedisConfig, opts ...FactoryOption) (shared.IdempotencyStore, error) {
	f := &factory{logger: zap.NewNop(), allowFallback: true}
	for _, opt := range opts {
		opt(f)
	}

	if !cfg.Enabled {
		f.logger.Info("Using in-memory idempotency store")
		return NewInMemoryIdempotencyStore(memorySweepInterval), nil
	}

	store, err := NewRedisIdempotencyStore(ctx, cfg)
	if err == nil {
		f.logger.Info("Using Redis idempotency store", zap.String("addr", cfg.Addr()))
		return store, nil
	}
	if !f.allowFallback {
		return nil, fmt.Errorf("idempotency store: %w", err)
	}
	f.logger.Warn("Redis unavailable, falling back to in-memory idempotency store; duplicate sweeps are possible across instances",
		zap.Error(err))
	return NewInMemoryIdempotencyStore(memorySweepInterval), nil
}
