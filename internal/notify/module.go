package notify

import (
	"go.uber.org/fx"

	"signal_bridge/internal/modules/config"
	"signal_bridge/pkg/logger"
)

func Module() fx.Option {
	return fx.Module("notify",
		fx.Provide(
			func(cfg *config.Config) Notifier {
				if cfg.Telegram.Token == "" || cfg.Telegram.ChatID == 0 {
					return NewStdout()
				}
				t, err := NewTelegram(cfg.Telegram.Token, cfg.Telegram.ChatID)
				if err != nil {
					logger.Warn("telegram unavailable, falling back to stdout: %v", err)
					return NewStdout()
				}
				return t
			},
		),
	)
}
