package runner

import (
	"context"

	"go.uber.org/fx"

	"signal_bridge/internal/dispatch"
	"signal_bridge/internal/helper"
	"signal_bridge/internal/legfilter"
	"signal_bridge/internal/modules/config"
	discord "signal_bridge/internal/modules/discord/service"
	gateway "signal_bridge/internal/modules/gateway/service"
	health "signal_bridge/internal/modules/health/service"
	marketdata "signal_bridge/internal/modules/marketdata/service"
	"signal_bridge/internal/notify"
	"signal_bridge/internal/risk"
	"signal_bridge/internal/signal"
	"signal_bridge/internal/symbols"
	"signal_bridge/internal/watermark"
	"signal_bridge/pkg/logger"
)

func Module() fx.Option {
	return fx.Module("runner",
		fx.Provide(
			func(cfg *config.Config) (*symbols.Table, error) {
				if cfg.Signals.SymbolsFile != "" {
					t, err := symbols.Load(cfg.Signals.SymbolsFile)
					if err == nil {
						return t, nil
					}
					logger.Warn("symbols file %s unusable, using built-ins: %v", cfg.Signals.SymbolsFile, err)
				}
				return symbols.Default(cfg.Gateway.Exchange), nil
			},

			func(cfg *config.Config, md *marketdata.Client, gw *gateway.Client, table *symbols.Table) *dispatch.Dispatcher {
				return dispatch.New(dispatch.Config{
					TolerancePct:      cfg.Touch.TolerancePct,
					MaxWait:           cfg.TouchMaxWait(),
					PollInterval:      cfg.TouchPollInterval(),
					TouchOrderType:    cfg.Touch.OrderType,
					BasisMode:         cfg.Basis.Mode,
					BasisClampPct:     cfg.Basis.ClampPct,
					Exchange:          cfg.Gateway.Exchange,
					TakeProfitSplit:   [2]int{cfg.Order.TakeProfitSplit[0], cfg.Order.TakeProfitSplit[1]},
					ExpirationMinutes: cfg.Order.ExpirationMinutes,
				}, md, gw, table)
			},

			func(cfg *config.Config, table *symbols.Table, md *marketdata.Client, d *dispatch.Dispatcher, n notify.Notifier) *Pipeline {
				keywords := cfg.SideKeywords()
				return NewPipeline(
					signal.NewExtractor(keywords, cfg.Signals.NoisePrefixes),
					signal.NewParser(keywords, table),
					risk.Sizer{
						SafetyPct:      cfg.Risk.SafetyPct,
						GlobalCap:      cfg.Risk.MaxLeverage,
						InstrumentCaps: table.LeverageCaps,
					},
					table,
					legfilter.Classifier{
						ThresholdPct:      cfg.LegFilter.ThresholdPct,
						MaxLeg:            cfg.LegFilter.MaxLeg,
						RequireTrendMatch: cfg.LegFilter.RequireTrendMatch,
					},
					LegFilterConfig{
						Enabled:      cfg.LegFilter.Enabled,
						LookbackBars: cfg.LegFilter.LookbackBars,
						Bar:          helper.NormBar(cfg.LegFilter.Bar),
						FailMode:     legfilter.FailMode(cfg.LegFilter.FailMode),
					},
					md,
					d,
					n,
				)
			},

			func(cfg *config.Config, client *discord.Client, store watermark.Store, p *Pipeline, state *health.State) *Service {
				return NewService(client, store, p, state, cfg.PollBase(), cfg.PollOffset())
			},
		),

		fx.Invoke(func(lc fx.Lifecycle, svc *Service) {
			runCtx, cancel := context.WithCancel(context.Background())
			lc.Append(fx.Hook{
				OnStart: func(ctx context.Context) error {
					go svc.Run(runCtx)
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
