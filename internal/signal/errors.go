package signal

import (
	"fmt"

	"signal_bridge/internal/models"
)

// ParseError means a required field is missing or malformed. The block is
// dropped; sibling blocks in the same message are unaffected.
type ParseError struct {
	Field string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("signal: field %q not found", e.Field)
}

// UnsupportedQuoteError is a skip condition, not a defect: the signal quotes
// an asset the pipeline does not trade.
type UnsupportedQuoteError struct {
	Quote string
}

func (e *UnsupportedQuoteError) Error() string {
	return fmt.Sprintf("signal: unsupported quote asset %q", e.Quote)
}

// ImplausibleLevelsError means the stated levels contradict the side's
// directional ordering invariant. Treated as a defect in the source signal.
type ImplausibleLevelsError struct {
	Side models.Side
}

func (e *ImplausibleLevelsError) Error() string {
	if e.Side == models.SideLong {
		return "signal: long levels implausible, want sl < entry < tp1 and entry < tp2"
	}
	return "signal: short levels implausible, want tp1 < entry < sl and tp2 < entry"
}
