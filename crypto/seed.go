package crypto

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// GenerateServerSeed returns a fresh 256-bit server seed and its SHA-256
// commitment hash. The hash is published at round start, the seed itself
// only after settlement.
func GenerateServerSeed() (seed string, hash string) {
	bytes := make([]byte, 32)
	rand.Read(bytes)

	seed = hex.EncodeToString(bytes)

	h := sha256.Sum256([]byte(seed))
	hash = hex.EncodeToString(h[:])

	return
}

// GenerateClientSeed returns the per-round client seed. The server picks it
// since there is no per-round client commitment step in this protocol.
func GenerateClientSeed() string {
	return fmt.Sprintf("client_seed_%d", time.Now().UnixMilli())
}

// VerifySeed checks a revealed server seed against its published commitment.
func VerifySeed(seed, hash string) bool {
	h := sha256.Sum256([]byte(seed))
	return hex.EncodeToString(h[:]) == hash
}
