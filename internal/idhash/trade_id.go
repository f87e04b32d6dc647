package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// ComputeTradeID computes a deterministic trade_id using SHA256.
// Formula: SHA256(config_id|symbol|strategy_id|entry_time_ms)
// Returns hex-encoded hash (64 characters).
func ComputeTradeID(configID, symbol, strategyID string, entryTimeMs int64) string {
	data := fmt.Sprintf("%s|%s|%s|%d", configID, symbol, strategyID, entryTimeMs)

	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}
