package domain

// TradeRecord is one resolved trade flattened for persistence, carrying the
// provenance needed to trace it back to a configuration and window.
type TradeRecord struct {
	TradeID     string
	ConfigID    string
	StrategyID  string
	Symbol      string
	WindowIndex int

	Direction Direction

	EntryTimeMs int64
	ExitTimeMs  int64
	EntryPrice  float64
	ExitPrice   float64

	PnlPercent   float64
	ExitReason   string
	PartialFired bool
}

// NewTradeRecord flattens a simulated trade with its provenance.
func NewTradeRecord(configID, symbol string, windowIndex int, t TradeResult) *TradeRecord {
	return &TradeRecord{
		TradeID:      t.TradeID,
		ConfigID:     configID,
		StrategyID:   t.StrategyID,
		Symbol:       symbol,
		WindowIndex:  windowIndex,
		Direction:    t.Direction,
		EntryTimeMs:  t.EntryTimeMs,
		ExitTimeMs:   t.ExitTimeMs,
		EntryPrice:   t.EntryPrice,
		ExitPrice:    t.ExitPrice,
		PnlPercent:   t.PnlPercent,
		ExitReason:   t.ExitReason,
		PartialFired: t.PartialFired,
	}
}
