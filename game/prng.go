package game

import (
	"crypto/sha256"
	"encoding/binary"
	"math/rand"
)

// Rand is the random source the series generator draws from.
// *rand.Rand satisfies it.
type Rand interface {
	Float64() float64
}

func NewSeededRNG(seed string) *rand.Rand {
	hash := sha256.Sum256([]byte(seed))
	seedInt := int64(binary.BigEndian.Uint64(hash[:8]))
	return rand.New(rand.NewSource(seedInt))
}

// RoundRNG derives the generator for one round from its server seed.
// Verification must use the same derivation.
func RoundRNG(serverSeed, roundID string) *rand.Rand {
	return NewSeededRNG(serverSeed + "-" + roundID + "-series")
}
