package template

import (
	"crypto/sha256"
	"encoding/hex"
)

// sha256Hex is shared by the `sha256(...)` template function and the
// `|sha256` filter so both produce identical digests.
func sha256Hex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
