// Package orchestrator provides E2E screening pipeline orchestration.
// It coordinates: walk-forward evaluation → CSCV → persistence.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"sort"

	"golang.org/x/sync/errgroup"

	"overfit-lab/internal/cscv"
	"overfit-lab/internal/domain"
	"overfit-lab/internal/idhash"
	"overfit-lab/internal/storage"
	"overfit-lab/internal/walkforward"
)

const defaultConcurrency = 4

// Orchestrator coordinates the screening pipeline execution for one symbol.
// Flow: per-config walk-forward → CSCV → window results + PBO report.
type Orchestrator struct {
	// Stores
	windowResultStore storage.WindowResultStore
	pboReportStore    storage.PBOReportStore
	tradeRecordStore  storage.TradeRecordStore // optional, nil disables trade persistence

	// Inputs
	configs     []domain.StrategyConfig
	walkForward domain.WalkForwardConfig
	instrument  domain.Instrument
	cscvParams  cscv.Params

	// Options
	samples     int // > 0 switches CSCV to sampling mode
	seed        int64
	concurrency int
	verbose     bool
}

// Options for creating Orchestrator.
type Options struct {
	// Required stores
	WindowResultStore storage.WindowResultStore
	PBOReportStore    storage.PBOReportStore

	// Optional store; when set, every simulated trade is persisted
	TradeRecordStore storage.TradeRecordStore

	// Strategy configurations under test
	Configs []domain.StrategyConfig

	WalkForward domain.WalkForwardConfig
	Instrument  domain.Instrument
	CSCV        cscv.Params

	// Samples > 0 selects sampling-mode CSCV with the given seed
	Samples int
	Seed    int64

	// Concurrency bounds parallel config evaluation (default 4)
	Concurrency int
	Verbose     bool
}

// New creates a new Orchestrator.
func New(opts Options) *Orchestrator {
	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	return &Orchestrator{
		windowResultStore: opts.WindowResultStore,
		pboReportStore:    opts.PBOReportStore,
		tradeRecordStore:  opts.TradeRecordStore,
		configs:           opts.Configs,
		walkForward:       opts.WalkForward,
		instrument:        opts.Instrument,
		cscvParams:        opts.CSCV,
		samples:           opts.Samples,
		seed:              opts.Seed,
		concurrency:       concurrency,
		verbose:           opts.Verbose,
	}
}

// RunResult contains results from orchestrator execution.
type RunResult struct {
	RunID            string
	ConfigsEvaluated int
	WindowsPerConfig int
	TradesSimulated  int
	TradesPersisted  int
	PBO              *domain.PBOResult
	WindowResults    []*domain.WindowResult
	Errors           []string
}

// Run executes the full screening pipeline over one bar history.
// Phases:
//  1. Build one runner per distinct configuration
//  2. Walk-forward evaluate every configuration
//  3. Persist window results and trade records
//  4. Estimate PBO over the batch
//  5. Persist the PBO report
func (o *Orchestrator) Run(ctx context.Context, bars []domain.Candle) (*RunResult, error) {
	result := &RunResult{}

	// Phase 1: Build runners
	o.log("Phase 1: Building runners...")
	runners, err := o.buildRunners()
	if err != nil {
		return nil, fmt.Errorf("phase 1 (build runners) failed: %w", err)
	}
	result.ConfigsEvaluated = len(runners)
	o.log("  %d distinct configurations", len(runners))

	// Phase 2: Walk-forward evaluation
	o.log("Phase 2: Evaluating configurations over %d bars...", len(bars))
	windowResults, err := o.evaluateConfigs(ctx, runners, bars)
	if err != nil {
		return nil, fmt.Errorf("phase 2 (walk-forward) failed: %w", err)
	}
	result.WindowResults = windowResults
	result.WindowsPerConfig = len(windowResults[0].WindowMetrics)
	for _, wr := range windowResults {
		for _, n := range wr.TradeCounts {
			result.TradesSimulated += n
		}
	}
	o.log("  %d windows per config, %d trades simulated",
		result.WindowsPerConfig, result.TradesSimulated)

	// Phase 3: Persistence
	o.log("Phase 3: Persisting window results...")
	persistErrs := o.persistWindowResults(ctx, windowResults)
	result.Errors = append(result.Errors, persistErrs...)
	if o.tradeRecordStore != nil {
		persisted, tradeErrs := o.persistTrades(ctx, runners)
		result.TradesPersisted = persisted
		result.Errors = append(result.Errors, tradeErrs...)
		o.log("  Persisted %d trade records (%d errors)", persisted, len(tradeErrs))
	}

	// Phase 4: CSCV
	o.log("Phase 4: Estimating overfitting probability...")
	pbo, err := o.estimatePBO(windowResults)
	if err != nil {
		return nil, fmt.Errorf("phase 4 (CSCV) failed: %w", err)
	}
	result.PBO = pbo
	result.RunID = pbo.RunID
	o.log("  PBO = %.4f over %d splits (passes=%v)", pbo.PBO, pbo.NumCombinations, pbo.Passes)

	// Phase 5: Report persistence
	o.log("Phase 5: Persisting PBO report...")
	if err := o.pboReportStore.Insert(ctx, pbo); err != nil {
		// An identical batch was already screened; the stored report applies.
		if !errors.Is(err, storage.ErrDuplicateKey) {
			return nil, fmt.Errorf("phase 5 (persist report) failed: %w", err)
		}
		o.log("  Report for run %s already persisted", idhash.ShortID(pbo.RunID))
	}

	o.log("Pipeline completed: run %s, %d configs, %d windows, PBO %.4f",
		idhash.ShortID(result.RunID), result.ConfigsEvaluated, result.WindowsPerConfig, pbo.PBO)

	return result, nil
}

// buildRunners hashes each configuration and wraps its runner for trade
// capture. Configurations hashing to the same ID are collapsed to one.
func (o *Orchestrator) buildRunners() ([]*recordingRunner, error) {
	if len(o.configs) == 0 {
		return nil, errors.New("no strategy configurations")
	}

	seen := make(map[string]bool, len(o.configs))
	runners := make([]*recordingRunner, 0, len(o.configs))

	for _, cfg := range o.configs {
		configID := idhash.ComputeConfigID(cfg)
		if seen[configID] {
			o.log("  Skipping duplicate configuration %s (%s)", idhash.ShortID(configID), cfg.Name)
			continue
		}
		seen[configID] = true

		runners = append(runners, &recordingRunner{
			inner: walkforward.NewBreakoutRunner(configID, o.instrument.Symbol, cfg),
		})
	}

	sort.Slice(runners, func(i, j int) bool { return runners[i].ID() < runners[j].ID() })
	return runners, nil
}

// evaluateConfigs walk-forwards every runner over the shared bar history.
// A failed configuration fails the batch: CSCV compares complete series.
func (o *Orchestrator) evaluateConfigs(ctx context.Context, runners []*recordingRunner, bars []domain.Candle) ([]*domain.WindowResult, error) {
	harness, err := walkforward.NewHarness(o.walkForward, o.instrument)
	if err != nil {
		return nil, err
	}

	results := make([]*domain.WindowResult, len(runners))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.concurrency)

	for i, runner := range runners {
		g.Go(func() error {
			wr, _, err := harness.EvaluateConfig(gctx, runner, bars)
			if err != nil {
				return fmt.Errorf("config %s: %w", idhash.ShortID(runner.ID()), err)
			}
			results[i] = wr
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// persistWindowResults stores each configuration's series, skipping those
// already persisted by a previous run over the same data.
func (o *Orchestrator) persistWindowResults(ctx context.Context, results []*domain.WindowResult) []string {
	var errs []string
	for _, wr := range results {
		if err := o.windowResultStore.Insert(ctx, wr); err != nil {
			if errors.Is(err, storage.ErrDuplicateKey) {
				continue
			}
			errs = append(errs, fmt.Sprintf("persist window result %s: %v",
				idhash.ShortID(wr.ConfigID), err))
		}
	}
	return errs
}

// persistTrades flattens every captured trade into records and bulk-inserts
// them per configuration. Overlapping windows can replay an entry; records
// are deduplicated by trade ID before insert.
func (o *Orchestrator) persistTrades(ctx context.Context, runners []*recordingRunner) (int, []string) {
	var persisted int
	var errs []string

	for _, runner := range runners {
		records := make([]*domain.TradeRecord, 0, len(runner.trades))
		seen := make(map[string]bool, len(runner.trades))

		for _, rt := range runner.trades {
			record := domain.NewTradeRecord(runner.ID(), o.instrument.Symbol, rt.windowIndex, rt.trade)
			if seen[record.TradeID] {
				continue
			}
			seen[record.TradeID] = true
			records = append(records, record)
		}

		if len(records) == 0 {
			continue
		}

		if err := o.tradeRecordStore.InsertBulk(ctx, records); err != nil {
			if errors.Is(err, storage.ErrDuplicateKey) {
				continue
			}
			errs = append(errs, fmt.Sprintf("persist trades for %s: %v",
				idhash.ShortID(runner.ID()), err))
			continue
		}
		persisted += len(records)
	}

	return persisted, errs
}

func (o *Orchestrator) estimatePBO(windowResults []*domain.WindowResult) (*domain.PBOResult, error) {
	results := make([]domain.WindowResult, len(windowResults))
	for i, wr := range windowResults {
		results[i] = *wr
	}

	if o.samples > 0 {
		rng := rand.New(rand.NewSource(o.seed))
		return cscv.EstimatePBO(results, o.cscvParams, o.samples, rng)
	}
	return cscv.CalculatePBO(results, o.cscvParams)
}

// recordedTrade ties a simulated trade to the window that produced it.
type recordedTrade struct {
	windowIndex int
	trade       domain.TradeResult
}

// recordingRunner wraps a runner and captures every trade it resolves,
// tagged with the window index. The harness evaluates windows in order, so
// counting Run calls recovers the index.
type recordingRunner struct {
	inner  walkforward.Runner
	window int
	trades []recordedTrade
}

func (r *recordingRunner) ID() string { return r.inner.ID() }

func (r *recordingRunner) Run(ctx context.Context, bars []domain.Candle, validationStart int) ([]domain.TradeResult, error) {
	trades, err := r.inner.Run(ctx, bars, validationStart)
	if err != nil {
		return nil, err
	}

	windowIndex := r.window
	r.window++
	for _, t := range trades {
		r.trades = append(r.trades, recordedTrade{windowIndex: windowIndex, trade: t})
	}
	return trades, nil
}

func (o *Orchestrator) log(format string, args ...interface{}) {
	if o.verbose {
		log.Printf("[orchestrator] "+format, args...)
	}
}
