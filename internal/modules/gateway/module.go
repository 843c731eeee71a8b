package gateway

import (
	"go.uber.org/fx"

	"signal_bridge/internal/modules/config"
	"signal_bridge/internal/modules/gateway/service"
)

func Module() fx.Option {
	return fx.Module("gateway",
		fx.Provide(
			func(cfg *config.Config) *service.Client {
				return service.NewClient(
					cfg.Gateway.WebhookURL,
					cfg.Gateway.APIKey,
					cfg.Gateway.APISecret,
				)
			},
		),
	)
}
