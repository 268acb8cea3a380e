package store

import (
	"context"
	"fmt"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/stocktide/stocktide/internal/config"
)

// Module provides the key-value store client to the Fx graph.
var Module = fx.Provide(NewClient)

// NewClient opens the Redis connection backing all persisted state and ties
// it to the Fx lifecycle.
func NewClient(lc fx.Lifecycle, cfg config.Config, logger *zap.Logger) *goredis.Client {
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Store.Addr,
		Password: cfg.Store.Password,
		DB:       cfg.Store.DB,
	})

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := client.Ping(ctx).Err(); err != nil {
				return fmt.Errorf("ping redis: %w", err)
			}
			logger.Info("store connected", zap.String("addr", cfg.Store.Addr))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("closing store connection")
			return client.Close()
		},
	})

	return client
}
