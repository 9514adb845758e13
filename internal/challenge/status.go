package challenge

// Status is the challenge lifecycle state. FAILED and FUNDED are
// terminal: no transition leaves them.
type Status string

const (
	StatusPending Status = "PENDING"
	StatusActive  Status = "ACTIVE"
	StatusFailed  Status = "FAILED"
	StatusFunded  Status = "FUNDED"
)

// IsTerminal reports whether the status admits no further transitions.
func (s Status) IsTerminal() bool {
	return s == StatusFailed || s == StatusFunded
}

// Reason is the rule that drove a terminal transition.
type Reason string

const (
	ReasonMaxDailyDrawdown Reason = "MAX_DAILY_DRAWDOWN"
	ReasonMaxTotalDrawdown Reason = "MAX_TOTAL_DRAWDOWN"
	ReasonProfitTarget     Reason = "PROFIT_TARGET"
)
