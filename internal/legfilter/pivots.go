// Package legfilter classifies recent price structure: zig-zag pivots, trend
// direction and how many swings deep the current trend is, then accepts or
// rejects a signal against that structure.
package legfilter

// Pivots runs a zig-zag scan over a chronologically ordered close series.
// A pivot is confirmed once price has moved at least thresholdPct away from
// the running extreme against the current seek direction; the confirming
// index becomes the new running extreme. The final partial extreme is
// appended as an implicit trailing pivot. The result is a strictly
// increasing, deduplicated list of indices into closes.
func Pivots(closes []float64, thresholdPct float64) []int {
	if len(closes) == 0 {
		return nil
	}
	th := thresholdPct / 100.0

	const (
		seekUnknown = 0
		seekHigh    = 1  // in an up leg, running extreme is the max
		seekLow     = -1 // in a down leg, running extreme is the min
	)

	dir := seekUnknown
	extIdx := 0
	var pivots []int

	for i := 1; i < len(closes); i++ {
		ext := closes[extIdx]
		switch {
		case dir != seekHigh && ext > 0 && closes[i] >= ext*(1+th):
			// rose threshold% above the extreme while not up-seeking:
			// the extreme was a trough
			pivots = append(pivots, extIdx)
			dir = seekHigh
			extIdx = i
		case dir != seekLow && ext > 0 && closes[i] <= ext*(1-th):
			pivots = append(pivots, extIdx)
			dir = seekLow
			extIdx = i
		default:
			switch dir {
			case seekHigh:
				if closes[i] > closes[extIdx] {
					extIdx = i
				}
			case seekLow:
				if closes[i] < closes[extIdx] {
					extIdx = i
				}
			}
		}
	}

	if len(pivots) == 0 || pivots[len(pivots)-1] != extIdx {
		pivots = append(pivots, extIdx)
	}
	return pivots
}
