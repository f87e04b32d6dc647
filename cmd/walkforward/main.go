// Package main evaluates a grid of strategy configurations over one symbol's
// candle history and persists the per-window metric series.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"overfit-lab/internal/candles"
	"overfit-lab/internal/domain"
	"overfit-lab/internal/idhash"
	"overfit-lab/internal/storage"
	"overfit-lab/internal/storage/memory"
	"overfit-lab/internal/storage/migrations"
	pgstore "overfit-lab/internal/storage/postgres"
	"overfit-lab/internal/walkforward"
)

func main() {
	// Data
	dataDir := flag.String("data-dir", "data", "Directory with per-symbol candle CSV files")
	symbols := flag.String("symbols", "", "Comma-separated symbols to evaluate (required)")
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

	// Storage
	postgresDSN := flag.String("postgres-dsn", "", "PostgreSQL connection string")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage (results printed, not kept)")

	flag.Parse()

	logger := log.New(os.Stderr, "[walkforward] ", log.LstdFlags)

	symbolList := splitSymbols(*symbols)
	if len(symbolList) == 0 {
		logger.Fatal("--symbols is required")
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
		logger.Printf("Received signal %v, shutting down...", sig)
		cancel()
	}()

	// Create store
	var windowStore storage.WindowResultStore = memory.NewWindowResultStore()
	if !*useMemory {
		if *postgresDSN == "" {
			logger.Fatal("--postgres-dsn is required (use --use-memory to skip persistence)")
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
	}

	wfConfig := domain.WalkForwardConfig{
		TrainWindowLength:      *train,
		ValidationWindowLength: *validation,
		SlideStep:              *step,
		SharpePassThreshold:    *passThreshold,
	}
	tradingHours := domain.TradingHours(strings.ToUpper(*hours))

	evaluated := 0
	for _, symbol := range symbolList {
		bars, err := candles.LoadSymbol(*dataDir, symbol)
		if err != nil {
			// Missing data skips the symbol; the rest of the run proceeds.
			if errors.Is(err, candles.ErrDataFileMissing) {
				logger.Printf("WARNING: no candle data for %s, skipping", symbol)
				continue
			}
			logger.Fatalf("Load candles for %s: %v", symbol, err)
		}
		logger.Printf("Loaded %d bars for %s", len(bars), symbol)

		instrument := domain.Instrument{Symbol: symbol, Hours: tradingHours}
		harness, err := walkforward.NewHarness(wfConfig, instrument)
		if err != nil {
			logger.Fatalf("Create harness: %v", err)
		}

		fmt.Printf("%-10s %-14s %-24s %8s %8s %8s\n", "SYMBOL", "CONFIG", "NAME", "WINDOWS", "TRADES", "PASS")
		for _, cfg := range configs {
			configID := idhash.ComputeConfigID(cfg)
			runner := walkforward.NewBreakoutRunner(configID, symbol, cfg)

			result, _, err := harness.EvaluateConfig(ctx, runner, bars)
			if err != nil {
				logger.Fatalf("Evaluate %s on %s: %v", cfg.Name, symbol, err)
			}

			trades := 0
			for _, n := range result.TradeCounts {
				trades += n
			}
			fmt.Printf("%-10s %-14s %-24s %8d %8d %7.0f%%\n",
				symbol, idhash.ShortID(configID), cfg.Name,
				len(result.WindowMetrics), trades, result.PassRate*100)

			if err := windowStore.Insert(ctx, result); err != nil {
				if errors.Is(err, storage.ErrDuplicateKey) {
					logger.Printf("Result for %s on %s already persisted, skipping", cfg.Name, symbol)
					continue
				}
				logger.Fatalf("Persist result for %s: %v", cfg.Name, err)
			}
			evaluated++
		}
	}

	logger.Printf("Persisted %d (symbol, config) evaluations", evaluated)
}

func splitSymbols(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, strings.ToUpper(part))
		}
	}
	return out
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
