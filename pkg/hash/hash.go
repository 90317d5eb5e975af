// Package hash folds opaque string identifiers into the 64-bit numeric
// space Issue.RepositoryID lives in, so repositories reported by id as a
// string (rather than a number) still compare with providers that hand
// back numeric ids.
package hash

import (
	"encoding/binary"
	"strconv"

	"github.com/ethereum/go-ethereum/crypto"
)

// Fold64 hashes s with Keccak-256 and truncates to the first 8 bytes,
// read big-endian.
func Fold64(s string) uint64 {
	sum := crypto.Keccak256([]byte(s))
	return binary.BigEndian.Uint64(sum[:8])
}

// RepositoryID resolves a wire-level repository id (number or opaque
// string) to the uint64 Issue.RepositoryID, folding non-numeric ids.
func RepositoryID(raw interface{}) uint64 {
	switch v := raw.(type) {
	case float64:
		return uint64(v)
	case int64:
		return uint64(v)
	case int:
		return uint64(v)
	case string:
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			return n
		}
		return Fold64(v)
	default:
		return 0
	}
}
