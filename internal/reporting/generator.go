package reporting

import (
	"context"
	"fmt"
	"time"

	"overfit-lab/internal/decision"
	"overfit-lab/internal/idhash"
	"overfit-lab/internal/stats"
	"overfit-lab/internal/storage"
)

// Generator produces reports from stored screening results.
type Generator struct {
	windowStore storage.WindowResultStore
	reportStore storage.PBOReportStore
	now         func() time.Time // Injectable clock for deterministic output
}

// NewGenerator creates a new report generator.
func NewGenerator(windowStore storage.WindowResultStore, reportStore storage.PBOReportStore) *Generator {
	return &Generator{
		windowStore: windowStore,
		reportStore: reportStore,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock function for deterministic output.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// Generate produces a complete report for one screening run on one symbol.
func (g *Generator) Generate(ctx context.Context, runID, symbol string) (*Report, error) {
	pbo, err := g.reportStore.GetByRunID(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("load pbo report: %w", err)
	}

	windowResults, err := g.windowStore.GetBySymbol(ctx, symbol)
	if err != nil {
		return nil, fmt.Errorf("load window results: %w", err)
	}

	report := &Report{
		GeneratedAt: g.now(),
		RunID:       runID,
		ShortRunID:  idhash.ShortID(runID),
		Symbol:      symbol,
		ConfigCount: pbo.NumConfigs,
		WindowCount: pbo.NumWindows,
		Overfitting: OverfittingSection{
			PBO:              pbo.PBO,
			Threshold:        pbo.Threshold,
			Passes:           pbo.Passes,
			NumCombinations:  pbo.NumCombinations,
			NumOverfit:       pbo.NumOverfit,
			AvgLogitOOS:      pbo.AvgLogitOOS,
			Sampled:          pbo.Sampled,
			RankDistribution: append([]int(nil), pbo.OOSRankDistribution...),
		},
	}

	for _, wr := range windowResults {
		row := ConfigRow{
			ConfigID:   wr.ConfigID,
			MeanSharpe: stats.Mean(wr.WindowMetrics),
			PassRate:   wr.PassRate,
		}
		if len(wr.WindowMetrics) > 0 {
			best, worst := wr.WindowMetrics[0], wr.WindowMetrics[0]
			for _, m := range wr.WindowMetrics[1:] {
				if m > best {
					best = m
				}
				if m < worst {
					worst = m
				}
			}
			row.BestSharpe, row.WorstSharpe = best, worst
		}
		for _, n := range wr.TradeCounts {
			row.TotalTrades += n
		}
		report.ConfigRows = append(report.ConfigRows, row)
		report.TotalTrades += row.TotalTrades
	}

	input, err := decision.BuildInput(pbo, windowResults)
	if err != nil {
		return nil, fmt.Errorf("build decision input: %w", err)
	}
	report.Decision = string(decision.NewEvaluator().Evaluate(*input).Decision)

	return report, nil
}
