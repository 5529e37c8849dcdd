package core

import (
	"crypto/sha256"
	"encoding/hex"
)

// Hash represents a cryptographic hash
type Hash string

// NewHash creates a new hash from data
func NewHash(data []byte) Hash {
	sum := sha256.Sum256(data)
	return Hash(hex.EncodeToString(sum[:]))
}

// String returns the string representation
func (h Hash) String() string {
	return string(h)
}

// IsEmpty checks if the hash is empty
func (h Hash) IsEmpty() bool {
	return h == ""
}

// Equals checks if two hashes are equal
func (h Hash) Equals(other Hash) bool {
	return h == other
}

// CohortHash fingerprints the serialized documents of one run. Two runs
// with the same seed and base date produce equal fingerprints.
type CohortHash Hash

func (h CohortHash) String() string { return Hash(h).String() }

// NewCohortHash hashes the concatenation of the given document payloads
// in the order provided. Callers pass files in sorted name order.
func NewCohortHash(payloads [][]byte) CohortHash {
	hasher := sha256.New()
	for _, payload := range payloads {
		hasher.Write(payload)
	}
	return CohortHash(hex.EncodeToString(hasher.Sum(nil)))
}
