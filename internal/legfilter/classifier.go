package legfilter

import (
	"fmt"

	"signal_bridge/internal/models"
)

type Trend string

const (
	TrendUp      Trend = "up"
	TrendDown    Trend = "down"
	TrendUnknown Trend = "unknown"
)

// FailMode selects the policy when the price-history fetch fails during
// classification: fail closed rejects the signal, fail open proceeds as if
// classification were skipped (with a recorded warning upstream).
type FailMode string

const (
	FailClosed FailMode = "closed"
	FailOpen   FailMode = "open"
)

const (
	minLeg = 1
	maxLeg = 5
)

// Classifier decides whether a signal agrees with recent market structure.
type Classifier struct {
	ThresholdPct      float64 // zig-zag pivot confirmation threshold
	MaxLeg            int     // reject when the leg index exceeds this
	RequireTrendMatch bool
}

// Classify computes the trend direction and the leg index from a close
// series ordered oldest first. With fewer than two pivots the trend is
// unknown and the leg index defaults to 1, which never blocks.
func (c Classifier) Classify(closes []float64) (Trend, int) {
	pivots := Pivots(closes, c.ThresholdPct)
	if len(pivots) < 2 {
		return TrendUnknown, minLeg
	}

	prices := make([]float64, len(pivots))
	for i, idx := range pivots {
		prices[i] = closes[idx]
	}

	trend := TrendDown
	up := prices[len(prices)-1] > prices[len(prices)-2]
	if up {
		trend = TrendUp
	}
	return trend, legIndex(prices, up)
}

// legIndex counts how many swings deep the current trend is: walking pivot
// pairs backward from the newest pivot, each pivot that still improves on
// the pivot two positions earlier (higher-high/higher-low in an uptrend,
// mirrored for downtrends) extends the trend by one leg; the first
// structural break is the reversal point. Clamped to [1, 5].
func legIndex(pivotPrices []float64, up bool) int {
	if len(pivotPrices) < 3 {
		return minLeg
	}
	legs := 1
	for i := len(pivotPrices) - 1; i >= 2; i-- {
		improved := pivotPrices[i] > pivotPrices[i-2]
		if up != improved {
			break
		}
		legs++
		if legs >= maxLeg {
			break
		}
	}
	if legs < minLeg {
		return minLeg
	}
	if legs > maxLeg {
		return maxLeg
	}
	return legs
}

// Decide accepts or rejects a signal against the classification result.
// reason is set when ok is false.
func (c Classifier) Decide(side models.Side, trend Trend, leg int) (ok bool, reason string) {
	if c.RequireTrendMatch && trend != TrendUnknown {
		want := TrendDown
		if side == models.SideLong {
			want = TrendUp
		}
		if trend != want {
			return false, fmt.Sprintf("side %s against trend %s", side, trend)
		}
	}
	if c.MaxLeg > 0 && leg > c.MaxLeg {
		return false, fmt.Sprintf("leg %d exceeds max %d", leg, c.MaxLeg)
	}
	return true, ""
}
