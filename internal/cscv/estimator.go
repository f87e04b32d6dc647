// Package cscv implements Combinatorially Symmetric Cross-Validation and
// the Probability of Backtest Overfitting. Given one per-window performance
// series per candidate configuration, it estimates the probability that the
// in-sample winner is not actually the best configuration out-of-sample.
//
// Two named entry points make the accuracy/cost tradeoff explicit:
// CalculatePBO enumerates every balanced in-sample half (bounded by
// MaxExhaustiveCombinations), EstimatePBO draws seeded random partitions.
package cscv

import (
	"errors"
	"fmt"
	"math/rand"

	"overfit-lab/internal/domain"
	"overfit-lab/internal/idhash"
	"overfit-lab/internal/stats"
)

// Defaults and bounds.
const (
	// DefaultThreshold rejects configurations picked by a process worse
	// than chance.
	DefaultThreshold = 0.50

	// ThresholdStrongEvidence is the tightened acceptance bar callers use
	// when they need strong evidence rather than a coin-flip margin.
	ThresholdStrongEvidence = 0.25

	DefaultMinWindows = 6
	DefaultMinConfigs = 2

	// MaxExhaustiveCombinations bounds memory and CPU in exhaustive mode.
	// Inputs with more balanced splits than this should use EstimatePBO.
	MaxExhaustiveCombinations = 10000
)

// Validation errors.
var (
	ErrTooFewConfigs    = errors.New("too few configurations for CSCV")
	ErrTooFewWindows    = errors.New("too few windows for CSCV")
	ErrMismatchedSeries = errors.New("window metric series lengths differ across configurations")
	ErrNoSamples        = errors.New("sampling mode requires a positive sample count")
)

// Params holds estimator thresholds. Zero values fall back to defaults.
type Params struct {
	Threshold  float64
	MinWindows int
	MinConfigs int
}

// DefaultParams returns the standard estimator parameters.
func DefaultParams() Params {
	return Params{
		Threshold:  DefaultThreshold,
		MinWindows: DefaultMinWindows,
		MinConfigs: DefaultMinConfigs,
	}
}

func (p Params) withDefaults() Params {
	if p.Threshold == 0 {
		p.Threshold = DefaultThreshold
	}
	if p.MinWindows == 0 {
		p.MinWindows = DefaultMinWindows
	}
	if p.MinConfigs == 0 {
		p.MinConfigs = DefaultMinConfigs
	}
	return p
}

// validate fails fast before any computation.
func validate(results []domain.WindowResult, p Params) (numConfigs, numWindows int, err error) {
	numConfigs = len(results)
	if numConfigs < p.MinConfigs {
		return 0, 0, fmt.Errorf("%w: have %d, need %d", ErrTooFewConfigs, numConfigs, p.MinConfigs)
	}

	numWindows = len(results[0].WindowMetrics)
	for _, r := range results {
		if len(r.WindowMetrics) != numWindows {
			return 0, 0, fmt.Errorf("%w: config %s has %d windows, config %s has %d",
				ErrMismatchedSeries, results[0].ConfigID, numWindows, r.ConfigID, len(r.WindowMetrics))
		}
	}
	if numWindows < p.MinWindows {
		return 0, 0, fmt.Errorf("%w: have %d, need %d", ErrTooFewWindows, numWindows, p.MinWindows)
	}

	return numConfigs, numWindows, nil
}

// CalculatePBO runs exhaustive CSCV: every way to choose the in-sample half
// of the windows, capped at MaxExhaustiveCombinations. Deterministic.
func CalculatePBO(results []domain.WindowResult, p Params) (*domain.PBOResult, error) {
	p = p.withDefaults()
	numConfigs, numWindows, err := validate(results, p)
	if err != nil {
		return nil, err
	}

	acc := newAccumulator(numConfigs)
	isSize := numWindows / 2

	// Lexicographic k-combination enumeration, stopping at the cap.
	indices := make([]int, isSize)
	for i := range indices {
		indices[i] = i
	}
	inSample := make([]bool, numWindows)

	for {
		for i := range inSample {
			inSample[i] = false
		}
		for _, idx := range indices {
			inSample[idx] = true
		}

		acc.addSplit(results, inSample)
		if acc.splits >= MaxExhaustiveCombinations {
			break
		}
		if !nextCombination(indices, numWindows) {
			break
		}
	}

	return acc.result(results, p, numWindows, false), nil
}

// EstimatePBO runs sampling-mode CSCV: numSamples independent uniform random
// balanced partitions, with per-split logic identical to CalculatePBO. The
// caller supplies the random source so results are reproducible under a
// fixed seed. Statistically consistent as numSamples grows.
func EstimatePBO(results []domain.WindowResult, p Params, numSamples int, rng *rand.Rand) (*domain.PBOResult, error) {
	p = p.withDefaults()
	numConfigs, numWindows, err := validate(results, p)
	if err != nil {
		return nil, err
	}
	if numSamples <= 0 {
		return nil, ErrNoSamples
	}

	acc := newAccumulator(numConfigs)
	isSize := numWindows / 2

	perm := make([]int, numWindows)
	inSample := make([]bool, numWindows)

	for s := 0; s < numSamples; s++ {
		copy(perm, rng.Perm(numWindows))
		for i := range inSample {
			inSample[i] = false
		}
		for _, idx := range perm[:isSize] {
			inSample[idx] = true
		}

		acc.addSplit(results, inSample)
	}

	return acc.result(results, p, numWindows, true), nil
}

// accumulator aggregates per-split outcomes.
type accumulator struct {
	numConfigs int
	splits     int
	overfit    int
	logitSum   float64
	rankCounts []int
}

func newAccumulator(numConfigs int) *accumulator {
	return &accumulator{
		numConfigs: numConfigs,
		rankCounts: make([]int, numConfigs),
	}
}

// addSplit evaluates one IS/OOS partition: find the IS winner, locate it in
// the independent OOS ranking, and record whether it fell into the worse
// OOS half.
func (a *accumulator) addSplit(results []domain.WindowResult, inSample []bool) {
	winner := isWinner(results, inSample)
	rank := oosRank(results, inSample, winner)

	relRank := float64(rank) / float64(a.numConfigs-1)

	a.splits++
	a.rankCounts[rank]++
	a.logitSum += stats.Logit(relRank)
	if relRank > 0.5 {
		a.overfit++
	}
}

func (a *accumulator) result(results []domain.WindowResult, p Params, numWindows int, sampled bool) *domain.PBOResult {
	configIDs := make([]string, len(results))
	for i, r := range results {
		configIDs[i] = r.ConfigID
	}

	pbo := float64(a.overfit) / float64(a.splits)

	return &domain.PBOResult{
		RunID:               idhash.ComputeRunID(configIDs),
		PBO:                 pbo,
		NumCombinations:     a.splits,
		NumOverfit:          a.overfit,
		AvgLogitOOS:         a.logitSum / float64(a.splits),
		OOSRankDistribution: append([]int(nil), a.rankCounts...),
		Threshold:           p.Threshold,
		Passes:              pbo < p.Threshold,
		NumConfigs:          a.numConfigs,
		NumWindows:          numWindows,
		Sampled:             sampled,
	}
}

// maskedMean averages a config's metrics over the selected window indices.
func maskedMean(metrics []float64, mask []bool, want bool) float64 {
	sum := 0.0
	n := 0
	for i, m := range metrics {
		if mask[i] == want {
			sum += m
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// isWinner returns the index of the configuration with the best in-sample
// mean. Ties go to the lowest config index.
func isWinner(results []domain.WindowResult, inSample []bool) int {
	best := 0
	bestMean := maskedMean(results[0].WindowMetrics, inSample, true)
	for c := 1; c < len(results); c++ {
		if m := maskedMean(results[c].WindowMetrics, inSample, true); m > bestMean {
			best = c
			bestMean = m
		}
	}
	return best
}

// oosRank returns the IS winner's 0-based position in the descending
// out-of-sample ranking (0 = best OOS).
//
// Ties need care: always placing the winner at a fixed end of its tied
// group would systematically favor (or punish) one configuration, breaking
// the symmetry that makes degenerate all-identical inputs a fair coin flip.
// Instead the winner's position within its tied group is decided by the
// split itself: top of the group when window 0 is in-sample, bottom when it
// is not. Exactly half of all balanced splits satisfy either condition, so
// no configuration is favored while every split stays deterministic.
func oosRank(results []domain.WindowResult, inSample []bool, winner int) int {
	winnerMean := maskedMean(results[winner].WindowMetrics, inSample, false)

	better := 0
	tied := 0
	for c := range results {
		if c == winner {
			continue
		}
		m := maskedMean(results[c].WindowMetrics, inSample, false)
		if m > winnerMean {
			better++
		} else if m == winnerMean {
			tied++
		}
	}

	rank := better
	if tied > 0 && !inSample[0] {
		rank = better + tied
	}
	return rank
}

// nextCombination advances indices to the next lexicographic k-combination
// of {0..n-1}; returns false when exhausted.
func nextCombination(indices []int, n int) bool {
	k := len(indices)
	for i := k - 1; i >= 0; i-- {
		if indices[i] < n-k+i {
			indices[i]++
			for j := i + 1; j < k; j++ {
				indices[j] = indices[j-1] + 1
			}
			return true
		}
	}
	return false
}
