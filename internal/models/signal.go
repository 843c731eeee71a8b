package models

// Side is the trade direction in gateway terms.
type Side string

const (
	SideLong  Side = "long"
	SideShort Side = "short"
)

// Signal is one validated trade instruction extracted from a chat message.
// Price levels are the raw values stated in the signal text; tick rounding
// happens later, when the trading symbol is resolved.
type Signal struct {
	Side       Side
	Instrument string // normalized base asset, alias table applied
	QuoteAsset string // tradable quote (USD is rewritten to its stablecoin)

	Entry       float64
	TakeProfit1 float64
	TakeProfit2 float64
	StopLoss    float64
}

// SizedSignal is a Signal with risk sizing applied and all levels rounded
// to venue tick precision.
type SizedSignal struct {
	Signal

	StopLossPct   float64
	Leverage      int
	TradingSymbol string
}
