package idhash

import (
	"encoding/hex"
	"testing"

	"overfit-lab/internal/domain"
)

func baseConfig() domain.StrategyConfig {
	return domain.StrategyConfig{
		Name:             "breakout-20",
		BreakoutLookback: 20,
		RiskReward:       2,
		ExitPolicy: domain.ExitPolicy{
			FrictionPerSide: 0.0005,
			MaxBarsHeld:     24,
		},
	}
}

func TestComputeConfigID(t *testing.T) {
	a := ComputeConfigID(baseConfig())
	b := ComputeConfigID(baseConfig())
	if a != b {
		t.Error("same config must hash the same")
	}
	if len(a) != 64 {
		t.Errorf("expected 64 hex chars, got %d", len(a))
	}
	if _, err := hex.DecodeString(a); err != nil {
		t.Errorf("id is not valid hex: %v", err)
	}

	changed := baseConfig()
	changed.RiskReward = 2.5
	if ComputeConfigID(changed) == a {
		t.Error("changing risk/reward must change the id")
	}

	withPartial := baseConfig()
	withPartial.ExitPolicy.PartialTakeProfit = &domain.PartialTakeProfit{
		TriggerR: 1, Fraction: 0.5, BreakEvenBuffer: 0.1,
	}
	if ComputeConfigID(withPartial) == a {
		t.Error("adding a partial exit must change the id")
	}
}

func TestComputeTradeID(t *testing.T) {
	a := ComputeTradeID("cfg", "BTCUSDT", "breakout-20", 1_700_000_000_000)
	b := ComputeTradeID("cfg", "BTCUSDT", "breakout-20", 1_700_000_000_000)
	if a != b {
		t.Error("same inputs must hash the same")
	}
	if a == ComputeTradeID("cfg", "BTCUSDT", "breakout-20", 1_700_000_060_000) {
		t.Error("entry time must be part of the id")
	}
	if a == ComputeTradeID("cfg", "ETHUSDT", "breakout-20", 1_700_000_000_000) {
		t.Error("symbol must be part of the id")
	}
}

func TestComputeRunID_OrderInsensitive(t *testing.T) {
	ids := []string{"ccc", "aaa", "bbb"}
	a := ComputeRunID(ids)
	b := ComputeRunID([]string{"bbb", "ccc", "aaa"})
	if a != b {
		t.Error("run id must not depend on submission order")
	}

	// Input slice must not be reordered in place.
	if ids[0] != "ccc" {
		t.Error("caller's slice was mutated")
	}

	if a == ComputeRunID([]string{"aaa", "bbb"}) {
		t.Error("dropping a config must change the run id")
	}
}

func TestShortID(t *testing.T) {
	full := ComputeRunID([]string{"aaa"})
	short := ShortID(full)
	if short == "" || len(short) >= len(full) {
		t.Errorf("short id %q should be a compact form of %q", short, full)
	}
	if short != ShortID(full) {
		t.Error("short id must be deterministic")
	}

	// Non-hex input falls back to a prefix.
	if got := ShortID("not-hex-at-all!"); got != "not-hex-at-a" {
		t.Errorf("fallback prefix: got %q", got)
	}
	if got := ShortID("abc"); got != "abc" {
		t.Errorf("short non-hex input passes through, got %q", got)
	}
}
