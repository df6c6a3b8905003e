package game

import (
	"math"
	"time"

	"aviatorServer/config"
)

// Multiplier returns the live multiplier after elapsed flight time at the
// given growth rate (gain per elapsed millisecond). Monotonically
// non-decreasing in elapsed, never below 1.0.
func Multiplier(elapsed time.Duration, growthRate float64) float64 {
	return math.Max(config.StartingMultiplier, 1+float64(elapsed.Milliseconds())*growthRate)
}

// MultiplierAt is Multiplier at the production growth rate.
func MultiplierAt(elapsed time.Duration) float64 {
	return Multiplier(elapsed, config.GrowthRate)
}
