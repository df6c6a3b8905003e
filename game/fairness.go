package game

import (
	"crypto/sha256"
	"encoding/binary"
	"math"

	"aviatorServer/config"
)

// ComputeCrashPoint derives the crash multiplier from the round's seed
// triple. Pure function: the same triple always yields the same point.
// Anyone holding the revealed seeds can recompute it, which is the whole
// provably-fair property.
func ComputeCrashPoint(serverSeed, clientSeed, roundID string) float64 {
	hash := sha256.Sum256([]byte(serverSeed + clientSeed + roundID))
	seed := binary.BigEndian.Uint32(hash[:4])
	return crashPointFromSeed(seed)
}

// crashPointFromSeed maps a 32-bit seed onto [MinCrashPoint, MaxCrashPoint].
// The 2^32/(seed+1) shape gives the usual inverse-uniform crash curve; the
// house edge factor discounts the fair payout by ~1%.
func crashPointFromSeed(seed uint32) float64 {
	raw := math.Max(1.0, (math.Exp2(32)/(float64(seed)+1))*config.HouseEdgeFactor)
	return math.Max(config.MinCrashPoint, math.Min(raw, config.MaxCrashPoint))
}
