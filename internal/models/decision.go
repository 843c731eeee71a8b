package models

// DispatchOutcome is the terminal state of one signal block.
type DispatchOutcome string

const (
	OutcomeSent     DispatchOutcome = "sent"
	OutcomeSkipped  DispatchOutcome = "skipped"
	OutcomeTimedOut DispatchOutcome = "timed_out"
)

// DispatchDecision records how a block ended. Reason is a structured string
// sufficient to reconstruct why a block was dropped; it is always set for
// skipped and timed-out outcomes.
type DispatchDecision struct {
	Outcome   DispatchOutcome
	OrderType string       // set when Outcome == OutcomeSent
	Levels    *SizedSignal // final (possibly basis-adjusted) levels of a sent order
	Reason    string
}

func Sent(orderType string, levels SizedSignal) DispatchDecision {
	return DispatchDecision{Outcome: OutcomeSent, OrderType: orderType, Levels: &levels}
}

func Skipped(reason string) DispatchDecision {
	return DispatchDecision{Outcome: OutcomeSkipped, Reason: reason}
}

func TimedOut(reason string) DispatchDecision {
	return DispatchDecision{Outcome: OutcomeTimedOut, Reason: reason}
}
