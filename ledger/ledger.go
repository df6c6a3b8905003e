package ledger

import (
	"errors"
	"sync"
	"time"

	"aviatorServer/config"
	"aviatorServer/game"
)

// Client-fault errors, reported back to the offending connection only.
var (
	ErrNotRegistered    = errors.New("player not registered")
	ErrBettingClosed    = errors.New("betting is closed")
	ErrInvalidAmount    = errors.New("invalid bet amount")
	ErrDuplicateBet     = errors.New("you already have an active bet")
	ErrNoActiveBet      = errors.New("no active bet found")
	ErrCannotCashOut    = errors.New("cannot cash out now")
	ErrAlreadyCashedOut = errors.New("already cashed out")
)

// CashOutResult carries everything the gateway needs to notify the player
// and the room about a settled cash-out.
type CashOutResult struct {
	ConnID     string
	Username   string
	Multiplier float64
	Payout     float64
	Profit     float64
	Balance    float64
}

// Ledger owns the per-connection player registry, balances, the current
// round's bet set and the public roster. The engine loop is the sole
// mutator; the lock exists for read paths (API roster, connect-time sync).
type Ledger struct {
	mu          sync.RWMutex
	players     map[string]*game.Player
	bets        map[string]*game.Bet
	betOrder    []string // bet insertion order, drives the auto-cashout sweep
	roster      map[string]*game.RosterEntry
	rosterOrder []string
}

func New() *Ledger {
	return &Ledger{
		players: make(map[string]*game.Player),
		bets:    make(map[string]*game.Bet),
		roster:  make(map[string]*game.RosterEntry),
	}
}

// Register creates or overwrites the player record for a connection.
// A non-positive balance request falls back to the default stake.
func (l *Ledger) Register(connID, username string, balance float64) *game.Player {
	l.mu.Lock()
	defer l.mu.Unlock()

	if balance <= 0 {
		balance = config.DefaultStartingBalance
	}

	player := &game.Player{
		ID:       connID,
		Username: username,
		Balance:  balance,
		JoinedAt: time.Now(),
	}
	l.players[connID] = player
	return player
}

// Disconnect removes the player, any open bet and the roster entry. The
// escrowed stake dies with the connection-scoped balance; the bet is not
// settled and will not appear in the round's results.
func (l *Ledger) Disconnect(connID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	_, known := l.players[connID]
	delete(l.players, connID)

	if _, ok := l.bets[connID]; ok {
		delete(l.bets, connID)
		l.betOrder = removeID(l.betOrder, connID)
	}
	if _, ok := l.roster[connID]; ok {
		delete(l.roster, connID)
		l.rosterOrder = removeID(l.rosterOrder, connID)
	}
	return known
}

// PlaceBet escrows the stake and opens a bet for the round. Preconditions
// are checked in a fixed order so clients get a stable error for a given
// mistake. Returns the bet and the balance after the debit.
func (l *Ledger) PlaceBet(connID string, phase game.Phase, amount float64, autoCashout *float64) (*game.Bet, float64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	player, ok := l.players[connID]
	if !ok {
		return nil, 0, ErrNotRegistered
	}
	if phase != game.PhaseWaiting {
		return nil, 0, ErrBettingClosed
	}
	if amount <= 0 || amount > player.Balance {
		return nil, 0, ErrInvalidAmount
	}
	if _, exists := l.bets[connID]; exists {
		return nil, 0, ErrDuplicateBet
	}

	// Escrow: the stake leaves the balance now, not at settlement
	player.Balance -= amount

	bet := &game.Bet{
		PlayerID:    connID,
		Username:    player.Username,
		Amount:      amount,
		AutoCashout: autoCashout,
	}
	l.bets[connID] = bet
	l.betOrder = append(l.betOrder, connID)

	l.roster[connID] = &game.RosterEntry{
		Username:  player.Username,
		BetAmount: amount,
	}
	l.rosterOrder = append(l.rosterOrder, connID)

	return bet, player.Balance, nil
}

// CashOut settles the connection's open bet at the given multiplier.
func (l *Ledger) CashOut(connID string, phase game.Phase, multiplier float64) (*CashOutResult, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	player, okPlayer := l.players[connID]
	bet, okBet := l.bets[connID]
	if !okPlayer || !okBet {
		return nil, ErrNoActiveBet
	}
	if phase != game.PhaseFlying {
		return nil, ErrCannotCashOut
	}
	if bet.CashedOut {
		return nil, ErrAlreadyCashedOut
	}

	return l.settleCashOut(player, bet, multiplier), nil
}

// AutoCashOuts sweeps every open bet whose threshold the multiplier has
// reached, in bet insertion order. Each bet fires at most once; a bet
// settled here is CashedOut and skipped on every later sweep.
func (l *Ledger) AutoCashOuts(multiplier float64) []*CashOutResult {
	l.mu.Lock()
	defer l.mu.Unlock()

	var results []*CashOutResult
	for _, connID := range l.betOrder {
		bet := l.bets[connID]
		if bet == nil || bet.CashedOut || bet.AutoCashout == nil {
			continue
		}
		if multiplier < *bet.AutoCashout {
			continue
		}
		player, ok := l.players[connID]
		if !ok {
			continue
		}
		results = append(results, l.settleCashOut(player, bet, multiplier))
	}
	return results
}

// settleCashOut does the shared credit-and-mark step. Caller holds the lock.
func (l *Ledger) settleCashOut(player *game.Player, bet *game.Bet, multiplier float64) *CashOutResult {
	payout := bet.Amount * multiplier
	profit := payout - bet.Amount
	player.Balance += payout
	bet.CashedOut = true
	bet.CashoutMultiplier = multiplier

	if entry, ok := l.roster[player.ID]; ok {
		m := multiplier
		entry.CashedOut = true
		entry.Multiplier = &m
		entry.Payout = payout
	}

	return &CashOutResult{
		ConnID:     player.ID,
		Username:   player.Username,
		Multiplier: multiplier,
		Payout:     payout,
		Profit:     profit,
		Balance:    player.Balance,
	}
}

// SettleLosses records every still-open bet as a loss. No balance changes:
// the stake was already debited at placement. Called exactly once per
// round, at crash time.
func (l *Ledger) SettleLosses() []game.SettlementResult {
	l.mu.Lock()
	defer l.mu.Unlock()

	results := make([]game.SettlementResult, 0)
	for _, connID := range l.betOrder {
		bet := l.bets[connID]
		if bet == nil || bet.CashedOut {
			continue
		}
		if _, ok := l.players[connID]; !ok {
			continue
		}
		results = append(results, game.SettlementResult{
			PlayerID:  connID,
			Username:  bet.Username,
			BetAmount: bet.Amount,
			Won:       false,
			Lost:      true,
		})
	}
	return results
}

// ClearRound empties the bet set and roster for a fresh round.
func (l *Ledger) ClearRound() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.bets = make(map[string]*game.Bet)
	l.betOrder = nil
	l.roster = make(map[string]*game.RosterEntry)
	l.rosterOrder = nil
}

// ClearRoster drops only the public roster, broadcast empty after a crash.
func (l *Ledger) ClearRoster() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.roster = make(map[string]*game.RosterEntry)
	l.rosterOrder = nil
}

// Roster returns the active bettors in placement order.
func (l *Ledger) Roster() []game.RosterEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]game.RosterEntry, 0, len(l.rosterOrder))
	for _, connID := range l.rosterOrder {
		if entry, ok := l.roster[connID]; ok {
			out = append(out, *entry)
		}
	}
	return out
}

// Balance reports a player's current balance.
func (l *Ledger) Balance(connID string) (float64, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	player, ok := l.players[connID]
	if !ok {
		return 0, false
	}
	return player.Balance, true
}

// Bet returns a copy of the connection's open bet, if any.
func (l *Ledger) Bet(connID string) (game.Bet, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	bet, ok := l.bets[connID]
	if !ok {
		return game.Bet{}, false
	}
	return *bet, true
}

func removeID(ids []string, id string) []string {
	for i, v := range ids {
		if v == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}
