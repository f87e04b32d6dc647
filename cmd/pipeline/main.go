// Package main provides the E2E screening pipeline entry point.
// Executes: candle load → walk-forward → CSCV → decision → reports.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"overfit-lab/internal/candles"
	"overfit-lab/internal/cscv"
	"overfit-lab/internal/domain"
	"overfit-lab/internal/observability"
	"overfit-lab/internal/orchestrator"
	"overfit-lab/internal/reporting"
	"overfit-lab/internal/storage"
	chstore "overfit-lab/internal/storage/clickhouse"
	"overfit-lab/internal/storage/memory"
	"overfit-lab/internal/storage/migrations"
	pgstore "overfit-lab/internal/storage/postgres"
)

func main() {
	// Data source
	dataDir := flag.String("data-dir", "", "Directory with per-symbol candle CSV files")
	clickhouseDSN := flag.String("clickhouse-dsn", "", "ClickHouse connection string (candle history)")
	symbol := flag.String("symbol", "", "Symbol to screen (required)")
	hours := flag.String("hours", "CONTINUOUS", "Trading hours: CONTINUOUS or SESSION")

	// Window geometry
	train := flag.Int("train", 504, "Train window length in bars")
	validation := flag.Int("validation", 168, "Validation window length in bars")
	step := flag.Int("step", 168, "Slide step in bars")
	passThreshold := flag.Float64("sharpe-pass-threshold", 0.0, "Per-window Sharpe pass threshold (reporting only)")

	// Configuration grid
	lookbacks := flag.String("lookbacks", "10,20,40", "Comma-separated breakout lookbacks")
	riskRewards := flag.String("risk-rewards", "1.5,2,3", "Comma-separated risk-reward multiples")
	friction := flag.Float64("friction", 0.0005, "Commission+slippage fraction per fill side")
	maxBars := flag.Int("max-bars", 48, "Time exit after this many bars held")

	// CSCV
	threshold := flag.Float64("threshold", cscv.DefaultThreshold, "PBO acceptance threshold")
	samples := flag.Int("samples", 0, "Sampling-mode split count (0 = exhaustive)")
	seed := flag.Int64("seed", 1, "Random seed for sampling mode")

	// Storage and output
	postgresDSN := flag.String("postgres-dsn", "", "PostgreSQL connection string (results)")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage instead of PostgreSQL")
	outputDir := flag.String("output-dir", "docs", "Output directory for generated reports")
	concurrency := flag.Int("concurrency", 4, "Parallel configuration evaluations")
	verbose := flag.Bool("verbose", false, "Verbose output")

	flag.Parse()

	logger := log.New(os.Stderr, "[pipeline] ", log.LstdFlags)

	if *symbol == "" {
		logger.Fatal("--symbol is required")
	}
	if *dataDir == "" && *clickhouseDSN == "" {
		logger.Fatal("one of --data-dir or --clickhouse-dsn is required")
	}

	configs, err := buildConfigGrid(*lookbacks, *riskRewards, *friction, *maxBars)
	if err != nil {
		logger.Fatalf("Build configuration grid: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, cancelling pipeline...", sig)
		cancel()
	}()

	// Create stores
	var windowStore storage.WindowResultStore = memory.NewWindowResultStore()
	var reportStore storage.PBOReportStore = memory.NewPBOReportStore()
	var tradeStore storage.TradeRecordStore = memory.NewTradeRecordStore()

	if !*useMemory {
		if *postgresDSN == "" {
			logger.Fatal("--postgres-dsn is required (use --use-memory for in-memory storage)")
		}
		pool, err := pgstore.NewPool(ctx, *postgresDSN)
		if err != nil {
			logger.Fatalf("connect to postgres: %v", err)
		}
		defer pool.Close()
		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			logger.Fatalf("run migrations: %v", err)
		}
		windowStore = pgstore.NewWindowResultStore(pool)
		reportStore = pgstore.NewPBOReportStore(pool)
		tradeStore = pgstore.NewTradeRecordStore(pool)
	}

	symbolUpper := strings.ToUpper(*symbol)
	bars, err := loadCandles(ctx, *dataDir, *clickhouseDSN, symbolUpper)
	if err != nil {
		logger.Fatalf("Load candles: %v", err)
	}
	logger.Printf("Loaded %d bars for %s", len(bars), symbolUpper)

	fmt.Println("=== Screening Pipeline ===")
	start := time.Now()

	orch := orchestrator.New(orchestrator.Options{
		WindowResultStore: windowStore,
		PBOReportStore:    reportStore,
		TradeRecordStore:  tradeStore,
		Configs:           configs,
		WalkForward: domain.WalkForwardConfig{
			TrainWindowLength:      *train,
			ValidationWindowLength: *validation,
			SlideStep:              *step,
			SharpePassThreshold:    *passThreshold,
		},
		Instrument:  domain.Instrument{Symbol: symbolUpper, Hours: domain.TradingHours(strings.ToUpper(*hours))},
		CSCV:        cscv.Params{Threshold: *threshold},
		Samples:     *samples,
		Seed:        *seed,
		Concurrency: *concurrency,
		Verbose:     *verbose,
	})

	result, err := orch.Run(ctx, bars)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Orchestrator error: %v\n", err)
		os.Exit(1)
	}

	elapsed := time.Since(start)
	observability.RecordScreeningRun(result.ConfigsEvaluated,
		result.ConfigsEvaluated*result.WindowsPerConfig,
		result.TradesSimulated, result.PBO.NumCombinations)
	observability.DefaultMetrics.PipelineDuration.WithLabelValues("screening").Observe(elapsed.Seconds())
	observability.DefaultMetrics.LastSuccessfulScreening.SetToCurrentTime()

	fmt.Printf("Orchestrator completed in %s:\n", elapsed.Round(time.Millisecond))
	fmt.Printf("  Configs:  %d\n", result.ConfigsEvaluated)
	fmt.Printf("  Windows:  %d per config\n", result.WindowsPerConfig)
	fmt.Printf("  Trades:   %d simulated, %d persisted\n", result.TradesSimulated, result.TradesPersisted)
	fmt.Printf("  PBO:      %.4f over %d splits (passes=%v)\n",
		result.PBO.PBO, result.PBO.NumCombinations, result.PBO.Passes)
	if len(result.Errors) > 0 {
		fmt.Printf("  Errors: %d\n", len(result.Errors))
		for _, e := range result.Errors {
			fmt.Printf("    - %s\n", e)
		}
	}

	// Reporting
	fmt.Println("\n=== Screening Report ===")
	report, err := reporting.NewGenerator(windowStore, reportStore).Generate(ctx, result.RunID, symbolUpper)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Report error: %v\n", err)
		os.Exit(1)
	}
	observability.DefaultMetrics.ReportsGenerated.Inc()

	if err := os.MkdirAll(*outputDir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "Create output dir: %v\n", err)
		os.Exit(1)
	}

	mdPath := filepath.Join(*outputDir, "SCREENING_REPORT.md")
	if err := os.WriteFile(mdPath, []byte(reporting.RenderMarkdown(report)), 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "Write markdown: %v\n", err)
		os.Exit(1)
	}
	csvPath := filepath.Join(*outputDir, "config_metrics.csv")
	if err := os.WriteFile(csvPath, []byte(reporting.RenderCSV(report.ConfigRows)), 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "Write CSV: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Decision: %s\n", report.Decision)
	fmt.Println("\nPipeline completed successfully:")
	fmt.Printf("  - %s\n", mdPath)
	fmt.Printf("  - %s\n", csvPath)
}

// loadCandles reads the bar history from CSV or ClickHouse.
func loadCandles(ctx context.Context, dataDir, clickhouseDSN, symbol string) ([]domain.Candle, error) {
	if dataDir != "" {
		return candles.LoadSymbol(dataDir, symbol)
	}

	conn, err := chstore.NewConn(ctx, clickhouseDSN)
	if err != nil {
		return nil, fmt.Errorf("connect to clickhouse: %w", err)
	}
	defer conn.Close()

	stored, err := chstore.NewCandleStore(conn).GetBySymbol(ctx, symbol)
	if err != nil {
		return nil, err
	}
	bars := make([]domain.Candle, len(stored))
	for i, c := range stored {
		bars[i] = *c
	}
	return bars, nil
}

// buildConfigGrid crosses every lookback with every risk-reward multiple.
func buildConfigGrid(lookbacks, riskRewards string, friction float64, maxBars int) ([]domain.StrategyConfig, error) {
	lbs, err := parseInts(lookbacks)
	if err != nil {
		return nil, fmt.Errorf("parse lookbacks: %w", err)
	}
	rrs, err := parseFloats(riskRewards)
	if err != nil {
		return nil, fmt.Errorf("parse risk-rewards: %w", err)
	}
	if len(lbs) == 0 || len(rrs) == 0 {
		return nil, fmt.Errorf("empty configuration grid")
	}

	var configs []domain.StrategyConfig
	for _, lb := range lbs {
		for _, rr := range rrs {
			configs = append(configs, domain.StrategyConfig{
				Name:             fmt.Sprintf("breakout-%d-rr%g", lb, rr),
				BreakoutLookback: lb,
				RiskReward:       rr,
				ExitPolicy: domain.ExitPolicy{
					FrictionPerSide: friction,
					MaxBarsHeld:     maxBars,
				},
			})
		}
	}
	return configs, nil
}

func parseInts(s string) ([]int, error) {
	var out []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		v, err := strconv.Atoi(part)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func parseFloats(s string) ([]float64, error) {
	var out []float64
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		v, err := strconv.ParseFloat(part, 64)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}
