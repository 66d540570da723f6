package util

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashKey returns a stable, opaque identifier for s. Rate-limit keys carry
// client addresses, so stores persist the hash instead.
func HashKey(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}
