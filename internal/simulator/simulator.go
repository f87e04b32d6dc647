// Package simulator turns an abstract entry signal plus an exit policy into
// a realized trade outcome by walking forward through OHLC bars. It is a
// pure function of its inputs: no I/O, no shared state, and bit-identical
// output for identical input, which is what makes backtest/live parity hold.
package simulator

import (
	"overfit-lab/internal/domain"
	"overfit-lab/internal/idhash"
)

// Input bundles everything one simulation call needs. Candles must start
// strictly after signal formation and be chronological. The simulator never
// mutates the signal, the policy, or the candle slice.
type Input struct {
	ConfigID string
	Symbol   string
	Signal   domain.Signal
	Candles  []domain.Candle
	Policy   domain.ExitPolicy
}

// position is the simulator-internal mutable state for one run. It exists
// only for the duration of one simulated trade.
type position struct {
	entryRaw    float64 // raw signal entry, basis for R math
	entryFilled float64 // friction-adjusted entry fill
	currentStop float64 // may only tighten, never loosen
	takeProfit  float64
	risk        float64

	partialTaken bool
	partialPnl   float64 // frozen at partial fire, percent
}

// Simulate advances bar-by-bar until an exit condition fires or the data
// runs out. Returns nil for an invalid signal (non-positive risk distance)
// and for a position still open when the data ends; such trades are excluded
// from statistics rather than guessed at.
func Simulate(in Input) *domain.TradeResult {
	return run(in, false)
}

// SimulateToEnd is the diagnostics variant: a position still open when the
// data ends is force-closed at the last available close instead of being
// discarded. Identical to Simulate in every other way.
func SimulateToEnd(in Input) *domain.TradeResult {
	return run(in, true)
}

func run(in Input, forceEndExit bool) *domain.TradeResult {
	sig := in.Signal
	if !sig.Valid() || len(in.Candles) == 0 {
		return nil
	}

	friction := in.Policy.FrictionPerSide
	long := sig.Direction == domain.DirectionLong

	pos := position{
		entryRaw:    sig.EntryPrice,
		entryFilled: entryFill(sig.EntryPrice, long, friction),
		currentStop: sig.StopLoss,
		takeProfit:  sig.TakeProfit,
		risk:        sig.RiskDistance(),
	}

	partial := in.Policy.PartialTakeProfit

	for i, bar := range in.Candles {
		// 1. Stop-loss: checked before the target. When both levels fall
		// inside one bar the stop wins; see domain.TieBreakStopFirst.
		if stopHit(bar, pos.currentStop, long) {
			return result(in, pos, i, pos.currentStop, domain.ExitReasonStopLoss)
		}

		// 2. Take-profit, only when the stop did not fire this bar.
		if targetHit(bar, pos.takeProfit, long) {
			return result(in, pos, i, pos.takeProfit, domain.ExitReasonTakeProfit)
		}

		// 3. Partial take-profit: fires at most once, freezes its leg's
		// P&L at the current close and tightens the stop toward breakeven.
		if partial != nil && !pos.partialTaken {
			r := unrealizedR(pos, bar.Close, long)
			if r >= partial.TriggerR {
				pos.partialTaken = true
				pos.partialPnl = legPnl(pos.entryFilled, bar.Close, long, friction)
				pos.currentStop = tightenStop(pos, partial.BreakEvenBuffer, long)
			}
		}

		// 4. Time exit at the close once the holding limit is reached.
		if in.Policy.MaxBarsHeld > 0 && i+1 >= in.Policy.MaxBarsHeld {
			return result(in, pos, i, bar.Close, domain.ExitReasonTimeLimit)
		}
	}

	// 5. Data exhausted with the position still open.
	if forceEndExit {
		last := len(in.Candles) - 1
		return result(in, pos, last, in.Candles[last].Close, domain.ExitReasonEndOfData)
	}
	return nil
}

// entryFill applies per-side friction against the trader on entry: longs
// buy higher, shorts sell lower.
func entryFill(price float64, long bool, friction float64) float64 {
	if long {
		return price * (1 + friction)
	}
	return price * (1 - friction)
}

// exitFill applies per-side friction against the trader on exit: longs
// sell lower, shorts buy higher.
func exitFill(price float64, long bool, friction float64) float64 {
	if long {
		return price * (1 - friction)
	}
	return price * (1 + friction)
}

// legPnl computes the percent P&L of one exit leg at rawExit, net of exit
// friction, against the already friction-adjusted entry fill.
func legPnl(entryFilled, rawExit float64, long bool, friction float64) float64 {
	exit := exitFill(rawExit, long, friction)
	if long {
		return (exit - entryFilled) / entryFilled * 100
	}
	return (entryFilled - exit) / entryFilled * 100
}

// unrealizedR expresses unrealized profit at price in multiples of the
// initial risk distance, sign-flipped for shorts.
func unrealizedR(pos position, price float64, long bool) float64 {
	if long {
		return (price - pos.entryRaw) / pos.risk
	}
	return (pos.entryRaw - price) / pos.risk
}

// tightenStop moves the stop toward entry +/- risk*buffer, monotonically:
// max for longs, min for shorts. The stop may only move favorably.
func tightenStop(pos position, buffer float64, long bool) float64 {
	if long {
		candidate := pos.entryRaw + pos.risk*buffer
		if candidate > pos.currentStop {
			return candidate
		}
		return pos.currentStop
	}
	candidate := pos.entryRaw - pos.risk*buffer
	if candidate < pos.currentStop {
		return candidate
	}
	return pos.currentStop
}

func stopHit(bar domain.Candle, stop float64, long bool) bool {
	if long {
		return bar.Low <= stop
	}
	return bar.High >= stop
}

func targetHit(bar domain.Candle, target float64, long bool) bool {
	if long {
		return bar.High >= target
	}
	return bar.Low <= target
}

// result assembles the immutable TradeResult for an exit at bar exitIdx.
// When a partial fired, final P&L is the convex blend
// fraction*partialPnl + (1-fraction)*finalLegPnl; the two legs price their
// exit friction independently, so nothing is double-counted.
func result(in Input, pos position, exitIdx int, rawExit float64, reason string) *domain.TradeResult {
	long := in.Signal.Direction == domain.DirectionLong
	friction := in.Policy.FrictionPerSide

	finalLeg := legPnl(pos.entryFilled, rawExit, long, friction)

	pnl := finalLeg
	if pos.partialTaken {
		fraction := in.Policy.PartialTakeProfit.Fraction
		pnl = fraction*pos.partialPnl + (1-fraction)*finalLeg
	}

	entryTime := in.Candles[0].OpenTimeMs

	return &domain.TradeResult{
		TradeID:      idhash.ComputeTradeID(in.ConfigID, in.Symbol, in.Signal.StrategyID, entryTime),
		StrategyID:   in.Signal.StrategyID,
		Direction:    in.Signal.Direction,
		EntryTimeMs:  entryTime,
		ExitTimeMs:   in.Candles[exitIdx].OpenTimeMs,
		EntryIndex:   0,
		ExitIndex:    exitIdx,
		EntryPrice:   pos.entryFilled,
		ExitPrice:    exitFill(rawExit, long, friction),
		PnlPercent:   pnl,
		ExitReason:   reason,
		PartialFired: pos.partialTaken,
	}
}
