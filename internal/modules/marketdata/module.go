package marketdata

import (
	"context"

	"go.uber.org/fx"

	"signal_bridge/internal/modules/config"
	"signal_bridge/internal/modules/marketdata/service"
)

func Module() fx.Option {
	return fx.Module("marketdata",
		fx.Provide(
			func(cfg *config.Config) *service.Client {
				return service.NewClient(
					cfg.MarketData.RESTBase,
					cfg.MarketData.WSURL,
					cfg.MarketData.Quote,
					cfg.MarketData.StreamEnabled,
				)
			},
		),
		fx.Invoke(func(lc fx.Lifecycle, c *service.Client) {
			streamCtx, cancel := context.WithCancel(context.Background())
			lc.Append(fx.Hook{
				OnStart: func(ctx context.Context) error {
					c.Start(streamCtx)
					return nil
				},
				OnStop: func(ctx context.Context) error {
					cancel()
					return nil
				},
			})
		}),
	)
}
