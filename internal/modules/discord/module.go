package discord

import (
	"go.uber.org/fx"

	"signal_bridge/internal/modules/config"
	"signal_bridge/internal/modules/discord/service"
)

func Module() fx.Option {
	return fx.Module("discord",
		fx.Provide(
			func(cfg *config.Config) *service.Client {
				return service.NewClient(cfg.Discord.Token, cfg.Discord.ChannelID)
			},
		),
	)
}
