// Package checksum fingerprints crate documents so identical pushes can be
// recognised regardless of formatting.
package checksum

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// Sum returns the hex-encoded SHA-256 digest of data.
func Sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// JSON compacts a JSON document and returns the compact form along with its
// digest. Whitespace differences do not change the digest; key order does.
func JSON(data []byte) ([]byte, string, error) {
	var buf bytes.Buffer
	if err := json.Compact(&buf, data); err != nil {
		return nil, "", fmt.Errorf("checksum: compact: %w", err)
	}
	return buf.Bytes(), Sum(buf.Bytes()), nil
}
