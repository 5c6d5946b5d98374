// Package sid computes stable, deterministic identifiers from semantic key
// material. The checker must be deterministic given a fixed input AST (see
// internal/checker), so an id minted here, such as relations.ConformanceID,
// is hashed rather than drawn from a counter or a random source.
package sid

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// ID is a stable identifier derived from a sequence of key parts.
type ID string

// New hashes an ordered sequence of parts into a stable ID. Equal part
// sequences always produce the same ID; callers choose parts that uniquely
// determine the thing being identified (e.g. model type string, concept
// name, exposition scope, requirement name).
func New(parts ...string) ID {
	h := sha256.Sum256([]byte(strings.Join(parts, "\x1f")))
	return ID(hex.EncodeToString(h[:])[:20])
}

// String returns the hex identifier.
func (id ID) String() string { return string(id) }
