package models

const (
	OrderTypeLimit  = "limit"
	OrderTypeMarket = "market"

	ActionOpen = "open"

	ProtectionBreakEven = "BREAK_EVEN"
)

// OrderInstruction is the normalized order handed to the trading gateway.
// The JSON shape is a hard external contract: field names, casing and the
// symbol format must not change.
type OrderInstruction struct {
	Exchange    string  `json:"exchange"`
	Symbol      string  `json:"symbol"`
	Side        string  `json:"side"`   // "long" | "short"
	Action      string  `json:"action"` // always "open"
	OrderType   string  `json:"order_type"`
	SignalPrice float64 `json:"signal_price,omitempty"` // present only for limit orders
	Leverage    int     `json:"leverage"`

	TakeProfit      []TakeProfitLevel `json:"take_profit"`
	StopLoss        StopLossOrder     `json:"stop_loss"`
	EntryExpiration EntryExpiration   `json:"entry_expiration"`
}

type TakeProfitLevel struct {
	Price              float64 `json:"price"`
	PositionPercentage int     `json:"position_percentage"`
}

type StopLossOrder struct {
	StopPrice      float64 `json:"stop_price"`
	ProtectionType string  `json:"protection_type"`
}

type EntryExpiration struct {
	Time int `json:"time"` // minutes
}
