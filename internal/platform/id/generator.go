// Package id mints the public identifiers stamped onto trades, waiver
// claims, and audit entries.
package id

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// idEntropyBytes of randomness yields a 32-character hex identifier.
const idEntropyBytes = 16

// Generator produces opaque identifiers for rows exposed through the API.
// Services take it as a dependency so tests can substitute deterministic
// sequences.
type Generator interface {
	NewID() (string, error)
}

// RandomGenerator draws identifiers from crypto/rand.
type RandomGenerator struct{}

func NewRandomGenerator() *RandomGenerator {
	return &RandomGenerator{}
}

func (g *RandomGenerator) NewID() (string, error) {
	buf := make([]byte, idEntropyBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate id entropy: %w", err)
	}

	return hex.EncodeToString(buf), nil
}
