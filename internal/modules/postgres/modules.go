package postgres

import (
	"context"
	"fmt"

	"go.uber.org/fx"

	"signal_bridge/internal/modules/config"
	"signal_bridge/internal/watermark"
	"signal_bridge/pkg/db"
	"signal_bridge/pkg/logger"
)

// Module provides the channel-cursor store. With a DSN configured the
// cursor lives in Postgres; otherwise it falls back to the state file so a
// single-instance deployment needs no database at all.
func Module() fx.Option {
	return fx.Module("postgres",
		fx.Provide(
			func(lc fx.Lifecycle, cfg *config.Config) (watermark.Store, error) {
				if cfg.DB == "" {
					logger.Info("cursor store: using state file %s", cfg.StateFile)
					return watermark.NewFile(cfg.StateFile), nil
				}

				ctx := context.Background()
				pool, err := db.NewPool(ctx, db.PoolConfig{DSN: cfg.DB})
				if err != nil {
					return nil, fmt.Errorf("failed to create pool: %w", err)
				}
				if err := pool.Ping(ctx); err != nil {
					return nil, err
				}
				lc.Append(fx.Hook{
					OnStop: func(ctx context.Context) error {
						pool.Close()
						return nil
					},
				})

				return watermark.NewPg(db.NewPgTxManager(pool)), nil
			},
		),
	)
}
