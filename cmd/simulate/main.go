// Package main runs one signal against one candle file through the trade
// simulator. Diagnostic tool for inspecting exit behavior.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"overfit-lab/internal/candles"
	"overfit-lab/internal/domain"
	"overfit-lab/internal/simulator"
)

func main() {
	// Data
	dataDir := flag.String("data-dir", "data", "Directory with per-symbol candle CSV files")
	symbol := flag.String("symbol", "", "Symbol to load (required)")
	fromIndex := flag.Int("from-index", 0, "Bar index of signal formation; simulation starts on the next bar")

	// Signal
	direction := flag.String("direction", "LONG", "Trade direction: LONG or SHORT")
	entry := flag.Float64("entry", 0, "Entry price (required)")
	stop := flag.Float64("stop", 0, "Stop-loss price (required)")
	target := flag.Float64("target", 0, "Take-profit price (required)")
	strategyID := flag.String("strategy-id", "manual", "Strategy identifier recorded on the trade")

	// Exit policy
	friction := flag.Float64("friction", 0.0005, "Commission+slippage fraction per fill side")
	maxBars := flag.Int("max-bars", 0, "Time exit after this many bars held (0 disables)")
	partialTrigger := flag.Float64("partial-trigger-r", 0, "Partial take-profit trigger in R (0 disables)")
	partialFraction := flag.Float64("partial-fraction", 0.5, "Position share closed at the partial")
	breakEvenBuffer := flag.Float64("break-even-buffer", 0, "Stop tighten buffer after the partial, in R")

	// Behavior
	toEnd := flag.Bool("to-end", false, "Force-close a still-open position at the last close")
	outputJSON := flag.Bool("json", false, "Output as JSON")

	flag.Parse()

	logger := log.New(os.Stderr, "[simulate] ", log.LstdFlags)

	if *symbol == "" {
		logger.Fatal("--symbol is required")
	}
	if *entry <= 0 || *stop <= 0 || *target <= 0 {
		logger.Fatal("--entry, --stop and --target are required and must be positive")
	}

	dir := domain.Direction(strings.ToUpper(*direction))
	if dir != domain.DirectionLong && dir != domain.DirectionShort {
		logger.Fatalf("Invalid direction: %s. Must be LONG or SHORT", *direction)
	}

	bars, err := candles.LoadSymbol(*dataDir, *symbol)
	if err != nil {
		logger.Fatalf("Load candles: %v", err)
	}
	if *fromIndex < 0 || *fromIndex >= len(bars)-1 {
		logger.Fatalf("--from-index %d out of range (need at least one bar after it, have %d bars)",
			*fromIndex, len(bars))
	}

	policy := domain.ExitPolicy{
		FrictionPerSide: *friction,
		MaxBarsHeld:     *maxBars,
	}
	if *partialTrigger > 0 {
		policy.PartialTakeProfit = &domain.PartialTakeProfit{
			TriggerR:        *partialTrigger,
			Fraction:        *partialFraction,
			BreakEvenBuffer: *breakEvenBuffer,
		}
	}

	input := simulator.Input{
		ConfigID: "manual",
		Symbol:   strings.ToUpper(*symbol),
		Signal: domain.Signal{
			StrategyID: *strategyID,
			Direction:  dir,
			EntryPrice: *entry,
			StopLoss:   *stop,
			TakeProfit: *target,
		},
		Candles: bars[*fromIndex+1:],
		Policy:  policy,
	}

	var result *domain.TradeResult
	if *toEnd {
		result = simulator.SimulateToEnd(input)
	} else {
		result = simulator.Simulate(input)
	}

	if result == nil {
		fmt.Println("Trade unresolved: signal invalid or position still open at end of data")
		os.Exit(2)
	}

	if *outputJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			logger.Fatalf("Encode result: %v", err)
		}
		return
	}

	fmt.Printf("Trade resolved: %s\n", result.ExitReason)
	fmt.Printf("  Direction:    %s\n", result.Direction)
	fmt.Printf("  Entry fill:   %.8f (t=%d)\n", result.EntryPrice, result.EntryTimeMs)
	fmt.Printf("  Exit fill:    %.8f (t=%d)\n", result.ExitPrice, result.ExitTimeMs)
	fmt.Printf("  Bars held:    %d\n", result.ExitIndex-result.EntryIndex)
	fmt.Printf("  Partial:      %v\n", result.PartialFired)
	fmt.Printf("  Net P&L:      %.4f%%\n", result.PnlPercent)
}
