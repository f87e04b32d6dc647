package domain

import "errors"

// StrategyConfig is one candidate configuration under test: the parameters
// of the signal-proposing runner plus the exit policy used to resolve its
// trades. Serializable value object; no module-level mutable defaults.
type StrategyConfig struct {
	Name string

	// Reference breakout runner parameters.
	BreakoutLookback int     // bars in the breakout channel
	RiskReward       float64 // take-profit distance in R multiples

	ExitPolicy ExitPolicy
}

// WalkForwardConfig controls window slicing and the window pass threshold.
type WalkForwardConfig struct {
	TrainWindowLength      int
	ValidationWindowLength int
	SlideStep              int

	// SharpePassThreshold is the reporting threshold for the per-config
	// pass rate. Convenience statistic only; not used by the estimator.
	SharpePassThreshold float64
}

// Walk-forward configuration errors.
var (
	ErrInvalidWindowLength = errors.New("train and validation window lengths must be positive")
	ErrInvalidSlideStep    = errors.New("slide step must be positive")
)

// Validate fails fast on non-positive window geometry.
func (c WalkForwardConfig) Validate() error {
	if c.TrainWindowLength <= 0 || c.ValidationWindowLength <= 0 {
		return ErrInvalidWindowLength
	}
	if c.SlideStep <= 0 {
		return ErrInvalidSlideStep
	}
	return nil
}
