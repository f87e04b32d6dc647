package decision

import "fmt"

// Gate defaults. A configuration batch clears the gate only when the CSCV
// evidence is both favorable and deep enough to mean something.
const (
	DefaultMinConfigs      = 2
	DefaultMinWindows      = 6
	DefaultMinTrades       = 30
	DefaultMinCombinations = 20

	// SevereOverfitPBO marks the region where the in-sample winner is
	// actively anti-predictive out-of-sample.
	SevereOverfitPBO = 0.75
)

// Evaluator evaluates decision criteria.
type Evaluator struct {
	minConfigs      int
	minWindows      int
	minTrades       int
	minCombinations int
}

// NewEvaluator creates a decision evaluator with default gate thresholds.
func NewEvaluator() *Evaluator {
	return &Evaluator{
		minConfigs:      DefaultMinConfigs,
		minWindows:      DefaultMinWindows,
		minTrades:       DefaultMinTrades,
		minCombinations: DefaultMinCombinations,
	}
}

// WithMinTrades overrides the trade support threshold.
func (e *Evaluator) WithMinTrades(n int) *Evaluator {
	e.minTrades = n
	return e
}

// Evaluate produces DecisionResult from DecisionInput.
// GO if ALL criteria pass and NO NO-GO triggers.
// NO-GO if ANY criterion fails or ANY trigger fires.
func (e *Evaluator) Evaluate(input DecisionInput) *DecisionResult {
	goCriteria := e.evaluateGOCriteria(input)
	nogoChecks := e.evaluateNOGOTriggers(input)

	allGOPass := true
	for _, c := range goCriteria {
		if !c.Pass {
			allGOPass = false
			break
		}
	}

	anyNOGOTriggered := false
	for _, c := range nogoChecks {
		if !c.Pass { // Pass=false means triggered
			anyNOGOTriggered = true
			break
		}
	}

	decision := DecisionGO
	if !allGOPass || anyNOGOTriggered {
		decision = DecisionNOGO
	}

	return &DecisionResult{
		Decision:   decision,
		GOCriteria: goCriteria,
		NOGOChecks: nogoChecks,
	}
}

// evaluateGOCriteria evaluates the 5 GO criteria.
func (e *Evaluator) evaluateGOCriteria(input DecisionInput) []CriterionResult {
	criteria := make([]CriterionResult, 5)

	criteria[0] = CriterionResult{
		Name:      "PBO below threshold",
		Threshold: fmt.Sprintf("< %.2f", input.Threshold),
		Actual:    fmt.Sprintf("%.4f", input.PBO),
		Pass:      input.PBO < input.Threshold,
	}

	criteria[1] = CriterionResult{
		Name:      "In-sample winner ranks well out-of-sample",
		Threshold: "AvgLogitOOS < 0",
		Actual:    fmt.Sprintf("%.4f", input.AvgLogitOOS),
		Pass:      input.AvgLogitOOS < 0,
	}

	criteria[2] = CriterionResult{
		Name:      "Configuration breadth",
		Threshold: fmt.Sprintf(">= %d configs", e.minConfigs),
		Actual:    fmt.Sprintf("%d", input.NumConfigs),
		Pass:      input.NumConfigs >= e.minConfigs,
	}

	criteria[3] = CriterionResult{
		Name:      "Window depth",
		Threshold: fmt.Sprintf(">= %d windows", e.minWindows),
		Actual:    fmt.Sprintf("%d", input.NumWindows),
		Pass:      input.NumWindows >= e.minWindows,
	}

	criteria[4] = CriterionResult{
		Name:      "Trade support",
		Threshold: fmt.Sprintf(">= %d trades", e.minTrades),
		Actual:    fmt.Sprintf("%d", input.TotalTrades),
		Pass:      input.TotalTrades >= e.minTrades,
	}

	return criteria
}

// evaluateNOGOTriggers evaluates the 3 NO-GO triggers.
// Pass=true means NOT triggered, Pass=false means triggered.
func (e *Evaluator) evaluateNOGOTriggers(input DecisionInput) []CriterionResult {
	checks := make([]CriterionResult, 3)

	triggered1 := input.PBO >= SevereOverfitPBO
	checks[0] = CriterionResult{
		Name:      "Severe overfitting",
		Threshold: fmt.Sprintf("PBO >= %.2f", SevereOverfitPBO),
		Actual:    fmt.Sprintf("%.4f", input.PBO),
		Pass:      !triggered1,
	}

	triggered2 := input.NumCombinations < e.minCombinations
	checks[1] = CriterionResult{
		Name:      "Too few CSCV splits",
		Threshold: fmt.Sprintf("< %d combinations", e.minCombinations),
		Actual:    fmt.Sprintf("%d", input.NumCombinations),
		Pass:      !triggered2,
	}

	triggered3 := input.TotalTrades == 0
	checks[2] = CriterionResult{
		Name:      "No resolved trades",
		Threshold: "0 trades",
		Actual:    fmt.Sprintf("%d", input.TotalTrades),
		Pass:      !triggered3,
	}

	return checks
}
