package game

import "math"

// VerifyCrashPoint recomputes the crash point from revealed seeds and
// compares it with the claimed value. A small tolerance absorbs float
// round-tripping through JSON.
func VerifyCrashPoint(serverSeed, clientSeed, roundID string, claimed float64) bool {
	return math.Abs(ComputeCrashPoint(serverSeed, clientSeed, roundID)-claimed) < 0.01
}
