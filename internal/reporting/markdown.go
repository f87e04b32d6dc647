package reporting

import (
	"fmt"
	"strings"
	"time"
)

// RenderMarkdown renders report as Markdown string.
func RenderMarkdown(r *Report) string {
	var sb strings.Builder

	sb.WriteString("# Overfitting Screen Report\n\n")
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("Run: %s (`%s`)\n\n", r.ShortRunID, r.RunID))
	sb.WriteString(fmt.Sprintf("Symbol: %s | Configs: %d | Windows: %d | Trades: %d\n\n",
		r.Symbol, r.ConfigCount, r.WindowCount, r.TotalTrades))

	sb.WriteString("## Walk-Forward Summary\n\n")
	if len(r.ConfigRows) > 0 {
		sb.WriteString("| Config | Mean Sharpe | Best | Worst | Pass Rate | Trades |\n")
		sb.WriteString("|--------|-------------|------|-------|-----------|--------|\n")
		for _, row := range r.ConfigRows {
			sb.WriteString(fmt.Sprintf("| %s | %.4f | %.4f | %.4f | %.2f | %d |\n",
				shortConfig(row.ConfigID), row.MeanSharpe, row.BestSharpe, row.WorstSharpe,
				row.PassRate, row.TotalTrades))
		}
	} else {
		sb.WriteString("No window results available.\n")
	}
	sb.WriteString("\n")

	sb.WriteString("## Overfitting Estimate\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| PBO | %.4f |\n", r.Overfitting.PBO))
	sb.WriteString(fmt.Sprintf("| Threshold | %.2f |\n", r.Overfitting.Threshold))
	sb.WriteString(fmt.Sprintf("| Combinations | %d |\n", r.Overfitting.NumCombinations))
	sb.WriteString(fmt.Sprintf("| Overfit splits | %d |\n", r.Overfitting.NumOverfit))
	sb.WriteString(fmt.Sprintf("| Avg logit OOS rank | %.4f |\n", r.Overfitting.AvgLogitOOS))
	mode := "exhaustive"
	if r.Overfitting.Sampled {
		mode = "sampled"
	}
	sb.WriteString(fmt.Sprintf("| Mode | %s |\n", mode))
	sb.WriteString("\n")

	if len(r.Overfitting.RankDistribution) > 0 {
		sb.WriteString("### OOS Rank Distribution\n\n")
		sb.WriteString("| Rank | Splits |\n")
		sb.WriteString("|------|--------|\n")
		for rank, count := range r.Overfitting.RankDistribution {
			sb.WriteString(fmt.Sprintf("| %d | %d |\n", rank, count))
		}
		sb.WriteString("\n")
	}

	sb.WriteString(fmt.Sprintf("## Decision: %s\n", r.Decision))

	return sb.String()
}

// shortConfig truncates a hash-length config ID for table readability.
func shortConfig(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}
