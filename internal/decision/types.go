package decision

// Decision represents the final GO/NO-GO result of a screening run.
type Decision string

const (
	DecisionGO   Decision = "GO"
	DecisionNOGO Decision = "NO-GO"
)

// DecisionInput contains the numeric evidence for the gate.
type DecisionInput struct {
	RunID string

	// CSCV outputs.
	PBO             float64
	Threshold       float64
	AvgLogitOOS     float64
	NumCombinations int
	Sampled         bool

	// Batch shape.
	NumConfigs int
	NumWindows int

	// Total resolved trades across every configuration and window.
	TotalTrades int
}

// CriterionResult represents pass/fail for one criterion.
type CriterionResult struct {
	Name      string
	Threshold string
	Actual    string
	Pass      bool
}

// DecisionResult contains the final decision with checklist.
type DecisionResult struct {
	Decision   Decision
	GOCriteria []CriterionResult
	NOGOChecks []CriterionResult
}
