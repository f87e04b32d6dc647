package decision

import (
	"errors"

	"overfit-lab/internal/domain"
)

// ErrNoEstimate is returned when the gate is asked to decide without a
// CSCV result.
var ErrNoEstimate = errors.New("no overfitting estimate to decide on")

// BuildInput assembles DecisionInput from a CSCV result and the window
// results behind it. Trade support is the sum of every window's trade count
// across the batch.
func BuildInput(pbo *domain.PBOResult, windowResults []*domain.WindowResult) (*DecisionInput, error) {
	if pbo == nil {
		return nil, ErrNoEstimate
	}

	totalTrades := 0
	for _, wr := range windowResults {
		for _, n := range wr.TradeCounts {
			totalTrades += n
		}
	}

	return &DecisionInput{
		RunID:           pbo.RunID,
		PBO:             pbo.PBO,
		Threshold:       pbo.Threshold,
		AvgLogitOOS:     pbo.AvgLogitOOS,
		NumCombinations: pbo.NumCombinations,
		Sampled:         pbo.Sampled,
		NumConfigs:      pbo.NumConfigs,
		NumWindows:      pbo.NumWindows,
		TotalTrades:     totalTrades,
	}, nil
}
