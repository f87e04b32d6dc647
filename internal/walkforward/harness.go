// Package walkforward slices a chronological bar history into sequential
// (train, validation) window pairs, runs a pluggable strategy runner once
// per window, and reduces each window's simulated trades to a single
// annualized Sharpe sample for the overfitting estimator.
package walkforward

import (
	"context"
	"errors"
	"fmt"

	"overfit-lab/internal/domain"
	"overfit-lab/internal/stats"
)

// Harness errors.
var (
	ErrInsufficientHistory = errors.New("not enough bars for one window pair")
)

// Runner proposes and resolves trades over one window. Implementations
// receive the concatenated train+validation bars and the index at which
// validation begins; train bars are lookback context only, and new trades
// must open at or after the validation boundary. A trade opened near the
// boundary may resolve using subsequent bars in the slice.
type Runner interface {
	Run(ctx context.Context, bars []domain.Candle, validationStart int) ([]domain.TradeResult, error)

	// ID returns the configuration identifier the runner was built for.
	ID() string
}

// Harness evaluates strategy configurations window by window.
type Harness struct {
	cfg        domain.WalkForwardConfig
	instrument domain.Instrument
}

// NewHarness creates a harness for one instrument. Fails fast on invalid
// window geometry.
func NewHarness(cfg domain.WalkForwardConfig, instrument domain.Instrument) (*Harness, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Harness{cfg: cfg, instrument: instrument}, nil
}

// EvaluateConfig runs one configuration through every window and collects
// the per-window Sharpe series. Windows are evaluated in order; the trades
// behind each metric are reduced immediately and not retained.
func (h *Harness) EvaluateConfig(ctx context.Context, runner Runner, bars []domain.Candle) (*domain.WindowResult, []domain.WindowStat, error) {
	if err := domain.ValidateCandles(bars); err != nil {
		return nil, nil, fmt.Errorf("validate candles: %w", err)
	}

	windows := SliceWindows(len(bars), h.cfg)
	if len(windows) == 0 {
		return nil, nil, fmt.Errorf("%w: have %d bars, need %d",
			ErrInsufficientHistory, len(bars), h.cfg.TrainWindowLength+h.cfg.ValidationWindowLength)
	}

	annFactor := h.instrument.AnnualizationFactor()

	metrics := make([]float64, 0, len(windows))
	counts := make([]int, 0, len(windows))
	windowStats := make([]domain.WindowStat, 0, len(windows))
	passed := 0

	for i, w := range windows {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}

		trades, err := runner.Run(ctx, bars[w.TrainStart:w.ValidationEnd], w.TrainLength())
		if err != nil {
			return nil, nil, fmt.Errorf("window %d: %w", i, err)
		}

		returns := make([]float64, len(trades))
		for j, tr := range trades {
			returns[j] = tr.PnlPercent
		}

		sharpe := stats.AnnualizedSharpe(returns, annFactor)
		pass := sharpe > h.cfg.SharpePassThreshold
		if pass {
			passed++
		}

		metrics = append(metrics, sharpe)
		counts = append(counts, len(trades))
		windowStats = append(windowStats, domain.WindowStat{
			WindowIndex: i,
			Sharpe:      sharpe,
			TradeCount:  len(trades),
			Passed:      pass,
		})
	}

	result := &domain.WindowResult{
		ConfigID:      runner.ID(),
		Symbol:        h.instrument.Symbol,
		WindowMetrics: metrics,
		TradeCounts:   counts,
		PassRate:      float64(passed) / float64(len(windows)),
	}

	return result, windowStats, nil
}
