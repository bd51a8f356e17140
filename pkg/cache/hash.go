package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// hashKey builds a namespaced cache key from arbitrary components: the
// components are serialized and digested so keys stay fixed-length however
// large the automaton hash and build parameters grow, and two runs with the
// same inputs land on the same entry.
func hashKey(prefix string, parts ...any) string {
	data, _ := json.Marshal(parts)
	return prefix + ":" + Hash(data)
}

// Hash returns the hex SHA-256 digest of data. Automaton and graph blobs
// are content-addressed with it, so identical topologies share cache entries
// regardless of the file they were loaded from.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
