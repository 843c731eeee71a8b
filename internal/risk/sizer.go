// Package risk computes the stop distance and leverage for a parsed signal.
package risk

import (
	"fmt"
	"math"

	"signal_bridge/internal/models"
)

// Sizer derives leverage from the stop distance and a safety budget.
type Sizer struct {
	// SafetyPct is the share of margin a full stop-out is allowed to cost,
	// in percent.
	SafetyPct float64
	// GlobalCap is the venue-wide maximum leverage.
	GlobalCap int
	// InstrumentCaps optionally tightens the cap per instrument. A cap here
	// always wins over the global one; it is a tighter bound, never looser.
	InstrumentCaps map[string]int
}

// Size returns the directional stop-loss percentage and the leverage for a
// signal.
//
// leverage = floor(SafetyPct / stopLossPct), floored at 1 and capped, so at
// the chosen leverage a full stop-out loses at most SafetyPct% of margin:
// loss ≈ leverage * stopLossPct <= SafetyPct.
func (s Sizer) Size(sig models.Signal) (stopLossPct float64, leverage int, err error) {
	if sig.Entry <= 0 {
		return 0, 0, fmt.Errorf("risk: entry <= 0")
	}
	if sig.Side == models.SideLong {
		stopLossPct = (sig.Entry - sig.StopLoss) / sig.Entry * 100.0
	} else {
		stopLossPct = (sig.StopLoss - sig.Entry) / sig.Entry * 100.0
	}
	// guaranteed positive by the parser's ordering invariant; kept as a
	// guard because leverage math divides by it
	if stopLossPct <= 0 {
		return 0, 0, fmt.Errorf("risk: stop distance not positive (%.6f%%)", stopLossPct)
	}

	leverage = int(math.Floor(s.SafetyPct / stopLossPct))
	if leverage < 1 {
		leverage = 1
	}
	if s.GlobalCap > 0 && leverage > s.GlobalCap {
		leverage = s.GlobalCap
	}
	if instCap, ok := s.InstrumentCaps[sig.Instrument]; ok && instCap > 0 && leverage > instCap {
		leverage = instCap
	}
	return stopLossPct, leverage, nil
}
