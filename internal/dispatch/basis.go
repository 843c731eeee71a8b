package dispatch

import (
	"context"

	"signal_bridge/internal/models"
	"signal_bridge/pkg/logger"
)

// ClampFactor computes the derivatives/spot basis factor and clamps it into
// [1-capPct/100, 1+capPct/100]. The clamp bounds the damage of a stale or
// erroneous reference price regardless of how extreme the raw ratio is.
func ClampFactor(spot, deriv, capPct float64) float64 {
	if spot <= 0 || deriv <= 0 {
		return 1.0
	}
	factor := deriv / spot
	lo := 1.0 - capPct/100.0
	hi := 1.0 + capPct/100.0
	if factor < lo {
		return lo
	}
	if factor > hi {
		return hi
	}
	return factor
}

// adjustedLevels converts spot-quoted signal levels into the terms of the
// instrument actually traded. Computed exactly once per signal from the
// prices observed at decision time; every level is rescaled and re-rounded
// to tick precision. When adjustment is disabled or a reference price is
// unavailable, the levels pass through untouched.
func (d *Dispatcher) adjustedLevels(ctx context.Context, sig models.SizedSignal) models.SizedSignal {
	if d.cfg.BasisMode != BasisAdjust {
		return sig
	}
	spot, err := d.prices.LastSpot(ctx, sig.Instrument)
	if err != nil {
		logger.Warn("dispatch %s: basis adjust skipped, spot price failed: %v", sig.TradingSymbol, err)
		return sig
	}
	deriv, err := d.prices.LastDerivatives(ctx, sig.Instrument)
	if err != nil {
		logger.Warn("dispatch %s: basis adjust skipped, derivatives price failed: %v", sig.TradingSymbol, err)
		return sig
	}

	factor := ClampFactor(spot, deriv, d.cfg.BasisClampPct)
	sig.Entry = d.ticks.RoundTick(sig.Instrument, sig.Entry*factor)
	sig.TakeProfit1 = d.ticks.RoundTick(sig.Instrument, sig.TakeProfit1*factor)
	sig.TakeProfit2 = d.ticks.RoundTick(sig.Instrument, sig.TakeProfit2*factor)
	sig.StopLoss = d.ticks.RoundTick(sig.Instrument, sig.StopLoss*factor)
	return sig
}
