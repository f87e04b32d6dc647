package domain

// PBOResult is the immutable output of one CSCV screening run, safe to
// persist as a report artifact alongside the originating configuration set.
type PBOResult struct {
	RunID string // deterministic hash of the input batch

	PBO             float64 // probability of backtest overfitting, in [0,1]
	NumCombinations int     // splits actually evaluated
	NumOverfit      int     // splits where the IS winner fell in the worse OOS half
	AvgLogitOOS     float64 // mean logit of the IS winner's relative OOS rank

	// OOSRankDistribution[r] counts splits where the IS winner landed at
	// 0-based OOS rank r (0 = best out-of-sample).
	OOSRankDistribution []int

	Threshold float64
	Passes    bool // PBO < Threshold

	NumConfigs int
	NumWindows int
	Sampled    bool // true when produced by the sampling estimator
}
