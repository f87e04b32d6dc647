// Package main screens stored window results for backtest overfitting and
// writes the PBO report plus the screening gate markdown.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"overfit-lab/internal/cscv"
	"overfit-lab/internal/domain"
	"overfit-lab/internal/idhash"
	"overfit-lab/internal/reporting"
	"overfit-lab/internal/storage"
	"overfit-lab/internal/storage/migrations"
	pgstore "overfit-lab/internal/storage/postgres"
)

func main() {
	symbol := flag.String("symbol", "", "Symbol whose window results to screen (required)")
	threshold := flag.Float64("threshold", cscv.DefaultThreshold, "PBO acceptance threshold")
	samples := flag.Int("samples", 0, "Sampling-mode split count (0 = exhaustive)")
	seed := flag.Int64("seed", 1, "Random seed for sampling mode")

	postgresDSN := flag.String("postgres-dsn", "", "PostgreSQL connection string (required)")
	outputDir := flag.String("output-dir", "docs", "Output directory for generated reports")

	flag.Parse()

	logger := log.New(os.Stderr, "[screen] ", log.LstdFlags)

	if *symbol == "" {
		logger.Fatal("--symbol is required")
	}
	if *postgresDSN == "" {
		logger.Fatal("--postgres-dsn is required")
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

	pool, err := pgstore.NewPool(ctx, *postgresDSN)
	if err != nil {
		logger.Fatalf("connect to postgres: %v", err)
	}
	defer pool.Close()
	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		logger.Fatalf("run migrations: %v", err)
	}

	windowStore := pgstore.NewWindowResultStore(pool)
	reportStore := pgstore.NewPBOReportStore(pool)

	symbolUpper := strings.ToUpper(*symbol)
	stored, err := windowStore.GetBySymbol(ctx, symbolUpper)
	if err != nil {
		logger.Fatalf("Load window results: %v", err)
	}
	if len(stored) == 0 {
		logger.Fatalf("No window results stored for %s; run the walkforward tool first", symbolUpper)
	}
	logger.Printf("Screening %d configurations for %s", len(stored), symbolUpper)

	results := make([]domain.WindowResult, len(stored))
	for i, wr := range stored {
		results[i] = *wr
	}

	params := cscv.Params{Threshold: *threshold}
	var pbo *domain.PBOResult
	if *samples > 0 {
		pbo, err = cscv.EstimatePBO(results, params, *samples, rand.New(rand.NewSource(*seed)))
	} else {
		pbo, err = cscv.CalculatePBO(results, params)
	}
	if err != nil {
		logger.Fatalf("Estimate PBO: %v", err)
	}

	fmt.Printf("Run %s: PBO = %.4f over %d splits (threshold %.2f, passes=%v)\n",
		idhash.ShortID(pbo.RunID), pbo.PBO, pbo.NumCombinations, pbo.Threshold, pbo.Passes)

	if err := reportStore.Insert(ctx, pbo); err != nil {
		if errors.Is(err, storage.ErrDuplicateKey) {
			logger.Printf("Report for run %s already persisted", idhash.ShortID(pbo.RunID))
		} else {
			logger.Fatalf("Persist report: %v", err)
		}
	}

	report, err := reporting.NewGenerator(windowStore, reportStore).Generate(ctx, pbo.RunID, symbolUpper)
	if err != nil {
		logger.Fatalf("Generate report: %v", err)
	}

	if err := os.MkdirAll(*outputDir, 0o755); err != nil {
		logger.Fatalf("Create output dir: %v", err)
	}

	mdPath := filepath.Join(*outputDir, "SCREENING_REPORT.md")
	if err := os.WriteFile(mdPath, []byte(reporting.RenderMarkdown(report)), 0o644); err != nil {
		logger.Fatalf("Write markdown report: %v", err)
	}
	csvPath := filepath.Join(*outputDir, "config_metrics.csv")
	if err := os.WriteFile(csvPath, []byte(reporting.RenderCSV(report.ConfigRows)), 0o644); err != nil {
		logger.Fatalf("Write CSV: %v", err)
	}

	fmt.Printf("Decision: %s\n", report.Decision)
	fmt.Printf("Reports written:\n  - %s\n  - %s\n", mdPath, csvPath)
}
