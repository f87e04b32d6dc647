package domain

// WindowResult is one configuration's per-window performance series from a
// walk-forward run. All WindowResults compared in one CSCV batch must have
// equal-length WindowMetrics.
type WindowResult struct {
	ConfigID      string
	Symbol        string
	WindowMetrics []float64 // ordered per-window annualized Sharpe
	TradeCounts   []int     // trades behind each window metric
	PassRate      float64   // fraction of windows clearing the reporting threshold
}

// WindowStat holds the auxiliary per-window diagnostics the harness emits
// alongside the scalar metric.
type WindowStat struct {
	WindowIndex int
	Sharpe      float64
	TradeCount  int
	Passed      bool
}
