package simulator

import (
	"math"
	"testing"

	"overfit-lab/internal/domain"
)

// Helper to build a candle path from OHLC quadruples.
func makeCandles(ohlc [][4]float64) []domain.Candle {
	candles := make([]domain.Candle, len(ohlc))
	for i, b := range ohlc {
		candles[i] = domain.Candle{
			Symbol:     "TEST",
			OpenTimeMs: 1_000_000 + int64(i)*60_000,
			Open:       b[0],
			High:       b[1],
			Low:        b[2],
			Close:      b[3],
		}
	}
	return candles
}

func longSignal(entry, stop, target float64) domain.Signal {
	return domain.Signal{
		StrategyID: "breakout-test",
		Direction:  domain.DirectionLong,
		EntryPrice: entry,
		StopLoss:   stop,
		TakeProfit: target,
	}
}

func shortSignal(entry, stop, target float64) domain.Signal {
	return domain.Signal{
		StrategyID: "breakout-test",
		Direction:  domain.DirectionShort,
		EntryPrice: entry,
		StopLoss:   stop,
		TakeProfit: target,
	}
}

func TestSimulate_Deterministic(t *testing.T) {
	in := Input{
		ConfigID: "cfg-1",
		Symbol:   "TEST",
		Signal:   longSignal(100, 90, 120),
		Candles: makeCandles([][4]float64{
			{100, 105, 98, 104},
			{104, 112, 102, 110},
			{110, 121, 108, 119},
		}),
		Policy: domain.ExitPolicy{FrictionPerSide: 0.0007, MaxBarsHeld: 50},
	}

	first := Simulate(in)
	if first == nil {
		t.Fatal("expected a trade result")
	}

	for run := 0; run < 5; run++ {
		got := Simulate(in)
		if got == nil {
			t.Fatalf("run %d: expected a trade result", run)
		}
		if *got != *first {
			t.Errorf("run %d: result not bit-identical: %+v vs %+v", run, got, first)
		}
	}
}

func TestSimulate_NonPositiveRiskRejected(t *testing.T) {
	in := Input{
		Signal: longSignal(100, 100, 120), // entry == stop
		Candles: makeCandles([][4]float64{
			{100, 130, 95, 125},
		}),
		Policy: domain.ExitPolicy{MaxBarsHeld: 10},
	}

	if got := Simulate(in); got != nil {
		t.Errorf("expected nil for zero risk distance, got %+v", got)
	}
}

func TestSimulate_StopBeforeTargetSameBar(t *testing.T) {
	// One bar touches both the stop (90) and the target (120). The stop
	// must win because it is checked first.
	in := Input{
		Signal: longSignal(100, 90, 120),
		Candles: makeCandles([][4]float64{
			{100, 125, 88, 110},
		}),
		Policy: domain.ExitPolicy{MaxBarsHeld: 10},
	}

	got := Simulate(in)
	if got == nil {
		t.Fatal("expected a trade result")
	}
	if got.ExitReason != domain.ExitReasonStopLoss {
		t.Errorf("expected STOP_LOSS on ambiguous bar, got %s", got.ExitReason)
	}
	if got.ExitPrice != 90 {
		t.Errorf("expected exit at stop 90, got %.4f", got.ExitPrice)
	}
}

func TestSimulate_FrictionDirection(t *testing.T) {
	const friction = 0.001

	long := Input{
		Signal: longSignal(100, 90, 110),
		Candles: makeCandles([][4]float64{
			{100, 111, 99, 108},
		}),
		Policy: domain.ExitPolicy{FrictionPerSide: friction, MaxBarsHeld: 10},
	}
	res := Simulate(long)
	if res == nil {
		t.Fatal("expected a trade result")
	}
	if res.EntryPrice <= 100 {
		t.Errorf("long adjusted entry %.4f should exceed raw entry 100", res.EntryPrice)
	}
	if res.ExitPrice >= 110 {
		t.Errorf("long adjusted exit %.4f should be below raw exit 110", res.ExitPrice)
	}

	short := Input{
		Signal: shortSignal(100, 110, 90),
		Candles: makeCandles([][4]float64{
			{100, 101, 89, 92},
		}),
		Policy: domain.ExitPolicy{FrictionPerSide: friction, MaxBarsHeld: 10},
	}
	res = Simulate(short)
	if res == nil {
		t.Fatal("expected a trade result")
	}
	if res.EntryPrice >= 100 {
		t.Errorf("short adjusted entry %.4f should be below raw entry 100", res.EntryPrice)
	}
	if res.ExitPrice <= 90 {
		t.Errorf("short adjusted exit %.4f should exceed raw exit 90", res.ExitPrice)
	}
}

func TestSimulate_PartialExitBlend(t *testing.T) {
	// Entry 100, stop 90 (risk 10), partial at R=1 (close 110), final exit
	// at target 120. With zero friction the blend is exactly
	// 0.5*10% + 0.5*20% = 15%.
	in := Input{
		Signal: longSignal(100, 90, 120),
		Candles: makeCandles([][4]float64{
			{100, 104, 98, 103},
			{103, 112, 101, 110}, // partial fires at this close
			{110, 121, 109, 120}, // target touched
		}),
		Policy: domain.ExitPolicy{
			MaxBarsHeld: 50,
			PartialTakeProfit: &domain.PartialTakeProfit{
				TriggerR:        1,
				Fraction:        0.5,
				BreakEvenBuffer: 0.1,
			},
		},
	}

	got := Simulate(in)
	if got == nil {
		t.Fatal("expected a trade result")
	}
	if !got.PartialFired {
		t.Fatal("expected partial take-profit to fire")
	}
	if got.ExitReason != domain.ExitReasonTakeProfit {
		t.Errorf("expected TAKE_PROFIT exit, got %s", got.ExitReason)
	}
	if math.Abs(got.PnlPercent-15.0) > 1e-9 {
		t.Errorf("expected blended pnl exactly 15%%, got %.10f", got.PnlPercent)
	}

	// Same path with friction: both legs are charged independently.
	const f = 0.0007
	in.Policy.FrictionPerSide = f
	got = Simulate(in)
	if got == nil {
		t.Fatal("expected a trade result")
	}

	entryFilled := 100 * (1 + f)
	partialLeg := (110*(1-f) - entryFilled) / entryFilled * 100
	finalLeg := (120*(1-f) - entryFilled) / entryFilled * 100
	want := 0.5*partialLeg + 0.5*finalLeg
	if math.Abs(got.PnlPercent-want) > 1e-9 {
		t.Errorf("expected blended pnl %.10f with friction, got %.10f", want, got.PnlPercent)
	}
}

func TestSimulate_StopMonotonicAfterPartial(t *testing.T) {
	// After the partial fires, the stop tightens to entry + risk*buffer =
	// 101 and must never loosen. The later dip to 100.5 hits the tightened
	// stop, not the original 90.
	in := Input{
		Signal: longSignal(100, 90, 130),
		Candles: makeCandles([][4]float64{
			{100, 111, 99, 110},    // partial at close 110 (R=1), stop -> 101
			{110, 115, 104, 112},   // holds above tightened stop
			{112, 113, 100.5, 101}, // dips through 101
		}),
		Policy: domain.ExitPolicy{
			MaxBarsHeld: 50,
			PartialTakeProfit: &domain.PartialTakeProfit{
				TriggerR:        1,
				Fraction:        0.4,
				BreakEvenBuffer: 0.1,
			},
		},
	}

	got := Simulate(in)
	if got == nil {
		t.Fatal("expected a trade result")
	}
	if got.ExitReason != domain.ExitReasonStopLoss {
		t.Fatalf("expected STOP_LOSS at tightened stop, got %s", got.ExitReason)
	}
	if got.ExitPrice != 101 {
		t.Errorf("expected exit at tightened stop 101, got %.4f", got.ExitPrice)
	}
	if got.PnlPercent <= 0 {
		t.Errorf("tightened stop should lock in a profitable blend, got %.4f", got.PnlPercent)
	}
}

func TestSimulate_TimeExit(t *testing.T) {
	in := Input{
		Signal: longSignal(100, 90, 200),
		Candles: makeCandles([][4]float64{
			{100, 102, 99, 101},
			{101, 103, 100, 102},
			{102, 104, 101, 103},
			{103, 105, 102, 104},
		}),
		Policy: domain.ExitPolicy{MaxBarsHeld: 3},
	}

	got := Simulate(in)
	if got == nil {
		t.Fatal("expected a trade result")
	}
	if got.ExitReason != domain.ExitReasonTimeLimit {
		t.Errorf("expected TIME_LIMIT, got %s", got.ExitReason)
	}
	if got.ExitIndex != 2 {
		t.Errorf("expected exit at bar index 2, got %d", got.ExitIndex)
	}
	if got.ExitPrice != 103 {
		t.Errorf("expected exit at close 103, got %.4f", got.ExitPrice)
	}
}

func TestSimulate_UnresolvedReturnsNil(t *testing.T) {
	in := Input{
		Signal: longSignal(100, 90, 200),
		Candles: makeCandles([][4]float64{
			{100, 102, 99, 101},
			{101, 103, 100, 102},
		}),
		Policy: domain.ExitPolicy{MaxBarsHeld: 50},
	}

	if got := Simulate(in); got != nil {
		t.Errorf("expected nil for unresolved position, got %+v", got)
	}

	forced := SimulateToEnd(in)
	if forced == nil {
		t.Fatal("SimulateToEnd should force a terminal value")
	}
	if forced.ExitReason != domain.ExitReasonEndOfData {
		t.Errorf("expected END_OF_DATA, got %s", forced.ExitReason)
	}
	if forced.ExitPrice != 102 {
		t.Errorf("expected forced exit at last close 102, got %.4f", forced.ExitPrice)
	}
}

func TestSimulate_ShortStopAndTarget(t *testing.T) {
	// Short: stop above entry, target below.
	in := Input{
		Signal: shortSignal(100, 108, 85),
		Candles: makeCandles([][4]float64{
			{100, 103, 96, 98},
			{98, 99, 84, 86}, // target 85 touched
		}),
		Policy: domain.ExitPolicy{MaxBarsHeld: 10},
	}

	got := Simulate(in)
	if got == nil {
		t.Fatal("expected a trade result")
	}
	if got.ExitReason != domain.ExitReasonTakeProfit {
		t.Errorf("expected TAKE_PROFIT, got %s", got.ExitReason)
	}
	if got.PnlPercent <= 0 {
		t.Errorf("winning short should have positive pnl, got %.4f", got.PnlPercent)
	}

	// Stop side.
	in.Candles = makeCandles([][4]float64{
		{100, 103, 96, 98},
		{98, 109, 97, 107}, // stop 108 touched
	})
	got = Simulate(in)
	if got == nil {
		t.Fatal("expected a trade result")
	}
	if got.ExitReason != domain.ExitReasonStopLoss {
		t.Errorf("expected STOP_LOSS, got %s", got.ExitReason)
	}
	if got.PnlPercent >= 0 {
		t.Errorf("stopped short should have negative pnl, got %.4f", got.PnlPercent)
	}
}
