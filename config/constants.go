package config

import "time"

/* =========================
   GAME MECHANICS - CRASH
========================= */

const (
	// Round timing
	WaitingDuration = 5 * time.Second        // betting window before takeoff
	CountdownTick   = 1 * time.Second        // countdown broadcast interval
	TickInterval    = 100 * time.Millisecond // multiplier update interval
	CrashedPause    = 3 * time.Second        // pause before the next round starts

	// Multiplier curve
	StartingMultiplier = 1.0
	GrowthRate         = 0.0001 // multiplier gain per elapsed millisecond

	// Crash point derivation
	HouseEdgeFactor = 0.99 // ~1% house edge on the fair payout curve
	MinCrashPoint   = 1.01 // every round gets at least one instant of flight
	MaxCrashPoint   = 15.0 // hard ceiling on payout multiplier

	// History
	MaxGameHistory = 100 // settled rounds kept in memory

	// Players
	DefaultStartingBalance = 1000.0
)

/* =========================
   WEBSOCKET CONFIGURATION
========================= */

const (
	WSReadBufferSize  = 1024
	WSWriteBufferSize = 1024

	// Per-client outbound buffer; slow clients get skipped, not blocked on
	WSSendBufferSize = 256

	MaxMessageSize = 4 * 1024 // inbound commands are tiny
)

/* =========================
   API CONFIGURATION
========================= */

const (
	ServerHost = "0.0.0.0"
	ServerPort = "8080"

	AllowOrigin = "*"
)

/* =========================
   POSTGRESQL CONFIGURATION
========================= */

const (
	MaxOpenConns    = 25
	MinIdleConnsPG  = 5
	ConnMaxLifetime = 5 * time.Minute
)

/* =========================
   REDIS CONFIGURATION
========================= */

const (
	// Live-bet mirror for the current round
	// Key: crash:{roundId} -> Hash{connId: bet JSON}
	RedisRoundBetsKey = "crash:%s"

	// Bets are transient; the TTL is a safety net in case cleanup
	// at round end never runs
	RoundBetsTTL = 1 * time.Hour

	RedisPoolSize     = 10
	RedisMinIdleConns = 5
)
