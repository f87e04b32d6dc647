package reporting

import (
	"fmt"
	"strings"
)

// RenderCSV renders per-configuration rows as CSV string.
func RenderCSV(rows []ConfigRow) string {
	var sb strings.Builder

	sb.WriteString("config_id,mean_sharpe,best_sharpe,worst_sharpe,pass_rate,total_trades\n")

	for _, r := range rows {
		sb.WriteString(fmt.Sprintf("%s,%.6f,%.6f,%.6f,%.6f,%d\n",
			r.ConfigID,
			r.MeanSharpe,
			r.BestSharpe,
			r.WorstSharpe,
			r.PassRate,
			r.TotalTrades,
		))
	}

	return sb.String()
}
