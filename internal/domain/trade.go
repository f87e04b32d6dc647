package domain

// TradeResult represents one resolved simulated trade. Immutable output;
// a signal that never reaches an exit within the available data produces
// no TradeResult at all.
type TradeResult struct {
	TradeID    string // deterministic hash
	StrategyID string
	Direction  Direction

	EntryTimeMs int64
	ExitTimeMs  int64
	EntryIndex  int // bar index within the simulated path
	ExitIndex   int

	EntryPrice float64 // friction-adjusted fill
	ExitPrice  float64 // friction-adjusted fill of the final leg

	PnlPercent   float64 // realized net P&L, percent of entry
	ExitReason   string
	PartialFired bool
}

// Exit reason codes.
const (
	ExitReasonStopLoss   = "STOP_LOSS"
	ExitReasonTakeProfit = "TAKE_PROFIT"
	ExitReasonTimeLimit  = "TIME_LIMIT"
	ExitReasonEndOfData  = "END_OF_DATA"
)
