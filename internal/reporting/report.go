package reporting

import "time"

// Report is the screening run report structure.
type Report struct {
	// Metadata
	GeneratedAt time.Time
	RunID       string
	ShortRunID  string
	Symbol      string

	// Batch shape
	ConfigCount int
	WindowCount int
	TotalTrades int

	// Per-configuration walk-forward summary, sorted by config_id.
	ConfigRows []ConfigRow

	// CSCV outputs.
	Overfitting OverfittingSection

	// Gate outcome, already rendered as pass/fail strings.
	Decision string
}

// ConfigRow summarizes one configuration's walk-forward performance.
type ConfigRow struct {
	ConfigID    string
	MeanSharpe  float64
	BestSharpe  float64
	WorstSharpe float64
	PassRate    float64
	TotalTrades int
}

// OverfittingSection carries the CSCV estimate.
type OverfittingSection struct {
	PBO             float64
	Threshold       float64
	Passes          bool
	NumCombinations int
	NumOverfit      int
	AvgLogitOOS     float64
	Sampled         bool

	// RankDistribution[r] counts splits whose in-sample winner landed at
	// out-of-sample rank r.
	RankDistribution []int
}
