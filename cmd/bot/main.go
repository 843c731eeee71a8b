package main

import (
	"log"

	"github.com/joho/godotenv"
	"go.uber.org/fx"

	"signal_bridge/internal/modules/config"
	"signal_bridge/internal/modules/discord"
	"signal_bridge/internal/modules/gateway"
	"signal_bridge/internal/modules/health"
	"signal_bridge/internal/modules/marketdata"
	"signal_bridge/internal/modules/postgres"
	"signal_bridge/internal/notify"
	"signal_bridge/internal/runner"
	"signal_bridge/pkg/logger"
	"signal_bridge/pkg/tracing"
)

func main() {
	_ = godotenv.Load()

	app := fx.New(
		config.Module(),
		postgres.Module(),
		discord.Module(),
		marketdata.Module(),
		gateway.Module(),
		notify.Module(),
		health.Module(),
		runner.Module(),

		fx.Invoke(func(lc fx.Lifecycle, cfg *config.Config) error {
			logger.SetServiceName(cfg.Service.Name)
			if err := logger.Init(cfg.Service.Debug); err != nil {
				return err
			}

			if cfg.Tracing.Enabled {
				tracing.SetServiceName(cfg.Service.Name)
				_, closeTracer, err := tracing.InitTracer(tracing.Config{
					Host: cfg.Tracing.Host,
					Port: cfg.Tracing.Port,
				})
				if err != nil {
					return err
				}
				lc.Append(fx.StopHook(closeTracer))
			}
			return nil
		}),
	)
	if err := app.Err(); err != nil {
		log.Fatal(err)
	}

	app.Run()
}
