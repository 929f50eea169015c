package crypto

import (
	"crypto/rand"
	"encoding/hex"
	"strings"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
)

// GenerateServerSeed returns a random seed and its Keccak-256 commitment.
// The hash is published when a round starts; the seed when it resolves.
func GenerateServerSeed() (seed string, hash string) {
	bytes := make([]byte, 32)
	rand.Read(bytes)

	seed = hex.EncodeToString(bytes)
	hash = HashSeed(seed)

	return
}

// HashSeed is the 0x-prefixed Keccak-256 hash of the seed string.
func HashSeed(seed string) string {
	return ethcrypto.Keccak256Hash([]byte(seed)).Hex()
}

func VerifySeed(seed, hash string) bool {
	return strings.EqualFold(HashSeed(seed), hash)
}
