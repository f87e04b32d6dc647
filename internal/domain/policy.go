package domain

// TieBreak names the resolution policy when both the stop and the target
// would have been touched within the same bar. OHLC bars carry no intra-bar
// path, so the choice is a modeling decision with real P&L impact.
type TieBreak string

// TieBreak constants.
const (
	// TieBreakStopFirst resolves same-bar stop/target touches in favor of
	// the stop. This is the conservative convention and the default; it is
	// a deliberate, documented bias, not a random resolution.
	TieBreakStopFirst TieBreak = "STOP_FIRST"
)

// PartialTakeProfit configures a one-shot partial exit once unrealized
// profit reaches TriggerR multiples of the initial risk distance.
type PartialTakeProfit struct {
	TriggerR        float64 // fire at unrealized R >= TriggerR
	Fraction        float64 // share of position closed, in [0,1]
	BreakEvenBuffer float64 // stop tightens toward entry +/- risk*buffer
}

// ExitPolicy configures how the simulator turns a signal into an exit.
// Passed by value per simulation call and never mutated by the simulator.
type ExitPolicy struct {
	FrictionPerSide   float64 // commission+slippage fraction per fill side
	MaxBarsHeld       int     // time exit after this many bars held
	SameBarTieBreak   TieBreak
	PartialTakeProfit *PartialTakeProfit
}

// TieBreakOrDefault returns the configured tie-break, defaulting to
// TieBreakStopFirst when unset.
func (p ExitPolicy) TieBreakOrDefault() TieBreak {
	if p.SameBarTieBreak == "" {
		return TieBreakStopFirst
	}
	return p.SameBarTieBreak
}
