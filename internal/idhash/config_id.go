package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"overfit-lab/internal/domain"
)

// ComputeConfigID computes a deterministic configuration ID using SHA256
// over every parameter that changes strategy economics.
// Returns hex-encoded hash (64 characters).
func ComputeConfigID(cfg domain.StrategyConfig) string {
	partial := "none"
	if p := cfg.ExitPolicy.PartialTakeProfit; p != nil {
		partial = fmt.Sprintf("%.6f|%.6f|%.6f", p.TriggerR, p.Fraction, p.BreakEvenBuffer)
	}

	data := fmt.Sprintf("%s|%d|%.6f|%.6f|%d|%s|%s",
		cfg.Name,
		cfg.BreakoutLookback,
		cfg.RiskReward,
		cfg.ExitPolicy.FrictionPerSide,
		cfg.ExitPolicy.MaxBarsHeld,
		cfg.ExitPolicy.TieBreakOrDefault(),
		partial,
	)

	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}
