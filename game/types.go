package game

import "time"

// Phase is the round lifecycle state.
type Phase string

const (
	PhaseWaiting Phase = "waiting"
	PhaseFlying  Phase = "flying"
	PhaseCrashed Phase = "crashed"
)

// State is the single authoritative round state. Exactly one instance lives
// inside the engine; everything outside sees copies.
type State struct {
	Phase          Phase     `json:"phase"`
	Multiplier     float64   `json:"multiplier"`
	Countdown      int       `json:"countdown"`
	RoundID        string    `json:"gameId"`
	CrashPoint     float64   `json:"-"` // fixed at round start, never recomputed
	ServerSeed     string    `json:"-"` // revealed only at settlement
	ServerSeedHash string    `json:"serverSeedHash"`
	ClientSeed     string    `json:"-"`
	StartedAt      time.Time `json:"-"`
}

// Player is one live connection's registered identity and balance.
type Player struct {
	ID       string    `json:"id"`
	Username string    `json:"username"`
	Balance  float64   `json:"balance"`
	JoinedAt time.Time `json:"joinedAt"`
}

// Bet is a single escrowed stake for the current round.
type Bet struct {
	PlayerID          string   `json:"playerId"`
	Username          string   `json:"username"`
	Amount            float64  `json:"amount"`
	CashedOut         bool     `json:"cashedOut"`
	CashoutMultiplier float64  `json:"cashoutMultiplier,omitempty"`
	AutoCashout       *float64 `json:"autoCashout,omitempty"`
}

// RosterEntry is the public view of an active bettor, shown to all clients.
type RosterEntry struct {
	Username   string   `json:"username"`
	BetAmount  float64  `json:"betAmount"`
	CashedOut  bool     `json:"cashedOut"`
	Multiplier *float64 `json:"multiplier"`
	Payout     float64  `json:"payout"`
}

// SettlementResult records one bet's outcome at crash time.
type SettlementResult struct {
	PlayerID   string  `json:"playerId"`
	Username   string  `json:"username"`
	BetAmount  float64 `json:"betAmount"`
	Multiplier float64 `json:"multiplier"`
	Payout     float64 `json:"payout"`
	Won        bool    `json:"won"`
	Lost       bool    `json:"lost"`
}

// HistoryEntry is an immutable record of a settled round.
type HistoryEntry struct {
	RoundID    string             `json:"gameId"`
	CrashPoint float64            `json:"crashPoint"`
	Timestamp  time.Time          `json:"timestamp"`
	Results    []SettlementResult `json:"results"`
}
