package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"

	"github.com/mr-tron/base58"
)

// ComputeRunID computes a deterministic screening-run ID from the set of
// configuration IDs in the batch. Order-insensitive: the same batch always
// hashes the same regardless of submission order.
func ComputeRunID(configIDs []string) string {
	sorted := make([]string, len(configIDs))
	copy(sorted, configIDs)
	sort.Strings(sorted)

	hash := sha256.Sum256([]byte(strings.Join(sorted, "|")))
	return hex.EncodeToString(hash[:])
}

// ShortID returns a compact base58 form of a hex hash ID, suitable for
// report artifact filenames. Falls back to the first 12 characters of the
// input when it is not valid hex.
func ShortID(hexID string) string {
	raw, err := hex.DecodeString(hexID)
	if err != nil || len(raw) < 8 {
		if len(hexID) > 12 {
			return hexID[:12]
		}
		return hexID
	}
	return base58.Encode(raw[:8])
}
