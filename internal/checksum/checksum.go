// Package checksum fingerprints note file contents for optimistic
// concurrency and change detection.
package checksum

import (
	"crypto/sha256"
	"encoding/hex"
)

// Sum returns the hex-encoded SHA-256 digest of data.
func Sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// Matches reports whether data hashes to want. An empty want always matches,
// so callers can skip the check.
func Matches(data []byte, want string) bool {
	return want == "" || Sum(data) == want
}
