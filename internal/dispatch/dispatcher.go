// Package dispatch owns the terminal stage of the pipeline: deciding whether
// a sized signal can be sent immediately, waiting for price to touch the
// entry otherwise, and emitting the final order instruction.
package dispatch

import (
	"context"
	"fmt"
	"time"

	"signal_bridge/internal/models"
	"signal_bridge/internal/symbols"
	"signal_bridge/pkg/logger"
)

// PriceSource are the two read-only reference price queries. instrument is
// the normalized base asset symbol.
type PriceSource interface {
	LastSpot(ctx context.Context, instrument string) (float64, error)
	LastDerivatives(ctx context.Context, instrument string) (float64, error)
}

// Gateway accepts one normalized order instruction. Retry and backoff belong
// to the gateway implementation, not here.
type Gateway interface {
	PlaceOrder(ctx context.Context, order models.OrderInstruction) error
}

// Basis adjustment modes.
const (
	BasisOff    = "off"    // reference price from the derivatives venue, no rescale
	BasisSpot   = "spot"   // reference from the spot venue, no rescale
	BasisAdjust = "adjust" // reference from spot, levels rescaled into derivative terms
)

type Config struct {
	TolerancePct   float64 // touch tolerance as percent of entry
	MaxWait        time.Duration
	PollInterval   time.Duration
	TouchOrderType string // models.OrderTypeLimit or models.OrderTypeMarket

	BasisMode     string
	BasisClampPct float64

	Exchange          string
	TakeProfitSplit   [2]int // position percentages, sum to 100
	ExpirationMinutes int
}

type Dispatcher struct {
	cfg    Config
	prices PriceSource
	gw     Gateway
	ticks  *symbols.Table
}

func New(cfg Config, prices PriceSource, gw Gateway, ticks *symbols.Table) *Dispatcher {
	if cfg.TouchOrderType == "" {
		cfg.TouchOrderType = models.OrderTypeLimit
	}
	if cfg.BasisMode == "" {
		cfg.BasisMode = BasisOff
	}
	return &Dispatcher{cfg: cfg, prices: prices, gw: gw, ticks: ticks}
}

// Dispatch runs the per-signal state machine:
//
//	Evaluating -> Immediate
//	Evaluating -> Waiting -> Touched
//	Evaluating -> Waiting -> TimedOut
//
// Long waits while the reference price sits below entry-tolerance, short
// while it sits above entry+tolerance; anything else is already at or
// through the entry zone and dispatches immediately.
func (d *Dispatcher) Dispatch(ctx context.Context, sig models.SizedSignal) models.DispatchDecision {
	ref, err := d.referencePrice(ctx, sig.Instrument)
	if err != nil {
		// Fail open: a broken price feed must not block the signal. Dispatch
		// immediately at the unadjusted entry with a limit order. This skips
		// basis adjustment and the touch wait on transient fetch errors.
		logger.Warn("dispatch %s: reference price failed, failing open: %v", sig.TradingSymbol, err)
		return d.send(ctx, sig, models.OrderTypeLimit)
	}

	// adjusted exactly once per signal, at decision time
	levels := d.adjustedLevels(ctx, sig)
	tol := levels.Entry * d.cfg.TolerancePct / 100.0

	if touched(sig.Side, ref, sig.Entry, tol) {
		return d.send(ctx, levels, models.OrderTypeLimit)
	}
	return d.wait(ctx, sig, levels, tol)
}

// touched reports whether the reference price satisfies the entry condition.
// Note the comparison is against the signal's stated (spot-quoted) entry:
// the reference venue is chosen to match it, while the dispatched level set
// may be basis-adjusted into derivative terms.
func touched(side models.Side, ref, entry, tol float64) bool {
	if side == models.SideLong {
		return ref >= entry-tol
	}
	return ref <= entry+tol
}

func (d *Dispatcher) wait(ctx context.Context, sig, levels models.SizedSignal, tol float64) models.DispatchDecision {
	deadline := time.NewTimer(d.cfg.MaxWait)
	defer deadline.Stop()
	tick := time.NewTicker(d.cfg.PollInterval)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			return models.Skipped(fmt.Sprintf("touch wait aborted: %v", ctx.Err()))
		case <-deadline.C:
			return models.TimedOut(fmt.Sprintf(
				"entry %.8f not touched within %s", levels.Entry, d.cfg.MaxWait))
		case <-tick.C:
			ref, err := d.referencePrice(ctx, sig.Instrument)
			if err != nil {
				// only the initial evaluation fails open; during the wait a
				// bad sample is skipped and the next tick retries
				logger.Warn("dispatch %s: poll failed: %v", sig.TradingSymbol, err)
				continue
			}
			if touched(sig.Side, ref, sig.Entry, tol) {
				return d.send(ctx, levels, d.cfg.TouchOrderType)
			}
		}
	}
}

func (d *Dispatcher) send(ctx context.Context, levels models.SizedSignal, orderType string) models.DispatchDecision {
	order := d.buildOrder(levels, orderType)
	if err := d.gw.PlaceOrder(ctx, order); err != nil {
		return models.Skipped(fmt.Sprintf("gateway rejected order: %v", err))
	}
	return models.Sent(orderType, levels)
}

func (d *Dispatcher) buildOrder(levels models.SizedSignal, orderType string) models.OrderInstruction {
	order := models.OrderInstruction{
		Exchange:  d.cfg.Exchange,
		Symbol:    levels.TradingSymbol,
		Side:      string(levels.Side),
		Action:    models.ActionOpen,
		OrderType: orderType,
		Leverage:  levels.Leverage,
		TakeProfit: []models.TakeProfitLevel{
			{Price: levels.TakeProfit1, PositionPercentage: d.cfg.TakeProfitSplit[0]},
			{Price: levels.TakeProfit2, PositionPercentage: d.cfg.TakeProfitSplit[1]},
		},
		StopLoss: models.StopLossOrder{
			StopPrice:      levels.StopLoss,
			ProtectionType: models.ProtectionBreakEven,
		},
		EntryExpiration: models.EntryExpiration{Time: d.cfg.ExpirationMinutes},
	}
	if orderType == models.OrderTypeLimit {
		order.SignalPrice = levels.Entry
	}
	return order
}

// referencePrice picks the venue the touch condition is evaluated against.
func (d *Dispatcher) referencePrice(ctx context.Context, instrument string) (float64, error) {
	if d.cfg.BasisMode == BasisOff {
		return d.prices.LastDerivatives(ctx, instrument)
	}
	return d.prices.LastSpot(ctx, instrument)
}
