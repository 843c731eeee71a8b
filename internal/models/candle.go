package models

import "time"

// Candle is one OHLC bar from the price-history collaborator.
type Candle struct {
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
	Start  time.Time
	End    time.Time
}

// Closes extracts the close series from bars ordered oldest first.
func Closes(bars []Candle) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Close
	}
	return out
}
