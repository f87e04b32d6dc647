// Package stats provides the shared numeric helpers for window metrics and
// CSCV combinatorics. All functions are total: numeric edge cases resolve to
// documented fallback values, never NaN and never a panic.
package stats

import "math"

// SharpeSentinel is the magnitude returned for a zero-variance return
// series: +SharpeSentinel for a positive mean, -SharpeSentinel for a
// negative mean, 0 for an all-zero series.
const SharpeSentinel = 100.0

// Mean returns the arithmetic mean, 0 for an empty slice.
func Mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// SampleStddev returns the sample standard deviation (n-1 denominator).
// Returns 0 for fewer than 2 samples.
func SampleStddev(xs []float64, mean float64) float64 {
	n := len(xs)
	if n < 2 {
		return 0
	}
	sumSq := 0.0
	for _, x := range xs {
		diff := x - mean
		sumSq += diff * diff
	}
	return math.Sqrt(sumSq / float64(n-1))
}

// AnnualizedSharpe computes mean/stddev of per-trade returns scaled by the
// instrument's annualization factor. Fallbacks: no trades -> 0; zero
// variance -> signed SharpeSentinel.
func AnnualizedSharpe(returns []float64, annFactor float64) float64 {
	if len(returns) == 0 {
		return 0
	}

	mean := Mean(returns)
	stddev := SampleStddev(returns, mean)

	if stddev == 0 {
		switch {
		case mean > 0:
			return SharpeSentinel
		case mean < 0:
			return -SharpeSentinel
		default:
			return 0
		}
	}

	return mean / stddev * annFactor
}

// Percentile uses linear interpolation. sorted must be pre-sorted ASC.
// p is the percentile as a fraction (0.50 = median).
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n == 1 {
		return sorted[0]
	}

	idx := p * float64(n-1)
	lower := int(idx)
	upper := lower + 1
	if upper >= n {
		return sorted[n-1]
	}

	frac := idx - float64(lower)
	return sorted[lower] + frac*(sorted[upper]-sorted[lower])
}

// MaxDrawdown returns the worst peak-to-trough decline of the cumulative
// sum of returns, in return units. Returns must be in chronological order.
func MaxDrawdown(returns []float64) float64 {
	cumulative := 0.0
	peak := 0.0
	maxDrawdown := 0.0

	for _, r := range returns {
		cumulative += r
		if cumulative > peak {
			peak = cumulative
		}
		if dd := peak - cumulative; dd > maxDrawdown {
			maxDrawdown = dd
		}
	}
	return maxDrawdown
}

// Logit returns ln(p/(1-p)) after clamping p to [0.01, 0.99] so the tails
// stay finite.
func Logit(p float64) float64 {
	if p < 0.01 {
		p = 0.01
	}
	if p > 0.99 {
		p = 0.99
	}
	return math.Log(p / (1 - p))
}

// BinomialCoefficient returns C(n, k), capped at limit (return value
// limit+1 signals "more than limit"). A zero or negative limit means no cap.
func BinomialCoefficient(n, k, limit int) int {
	if k < 0 || k > n {
		return 0
	}
	if k > n-k {
		k = n - k
	}

	result := 1.0
	for i := 1; i <= k; i++ {
		result = result * float64(n-k+i) / float64(i)
		if limit > 0 && result > float64(limit) {
			return limit + 1
		}
	}
	return int(math.Round(result))
}
