package symbols

import (
	"github.com/shopspring/decimal"

	"signal_bridge/internal/models"
)

// PrecisionFor returns the number of fractional digits the venue accepts for
// an instrument, falling back to the configured default for unlisted ones.
func (t *Table) PrecisionFor(instrument string) int {
	if d, ok := t.Precision[instrument]; ok {
		return d
	}
	return t.FallbackPrecision
}

// RoundTick rounds a price to the instrument's tick precision using
// round-half-to-even. Float noise from upstream arithmetic goes through
// decimal so the rounding is exact and idempotent.
func (t *Table) RoundTick(instrument string, v float64) float64 {
	d := int32(t.PrecisionFor(instrument))
	f, _ := decimal.NewFromFloat(v).RoundBank(d).Float64()
	return f
}

// RoundLevels returns a copy of the signal with every price level rounded to
// the instrument's tick precision.
func (t *Table) RoundLevels(sig models.Signal) models.Signal {
	sig.Entry = t.RoundTick(sig.Instrument, sig.Entry)
	sig.TakeProfit1 = t.RoundTick(sig.Instrument, sig.TakeProfit1)
	sig.TakeProfit2 = t.RoundTick(sig.Instrument, sig.TakeProfit2)
	sig.StopLoss = t.RoundTick(sig.Instrument, sig.StopLoss)
	return sig
}
