package engine

import (
	"context"
	"log"
	"sync"
	"time"

	"aviatorServer/config"
	"aviatorServer/crypto"
	"aviatorServer/db"
	"aviatorServer/game"
	"aviatorServer/history"
	"aviatorServer/ledger"

	"github.com/google/uuid"
)

// Server -> client event names.
const (
	EvGameState        = "gameState"
	EvMultiplierUpdate = "multiplierUpdate"
	EvGameCrashed      = "gameCrashed"
	EvGameHistory      = "gameHistory"
	EvPlayerRegistered = "playerRegistered"
	EvActivePlayers    = "activePlayers"
	EvBetPlaced        = "betPlaced"
	EvPlayerBet        = "playerBet"
	EvCashedOut        = "cashedOut"
	EvPlayerCashOut    = "playerCashOut"
	EvError            = "error"
)

// Broadcaster is the transport boundary. The gateway implements it; the
// engine never talks to a socket directly.
type Broadcaster interface {
	Broadcast(event string, payload any)
	Send(connID string, event string, payload any)
}

// Config carries the round timings. Production uses DefaultConfig; tests
// shrink the durations and raise the growth rate to finish rounds fast.
type Config struct {
	WaitingDuration time.Duration
	CountdownTick   time.Duration
	TickInterval    time.Duration
	CrashedPause    time.Duration
	GrowthRate      float64
}

func DefaultConfig() Config {
	return Config{
		WaitingDuration: config.WaitingDuration,
		CountdownTick:   config.CountdownTick,
		TickInterval:    config.TickInterval,
		CrashedPause:    config.CrashedPause,
		GrowthRate:      config.GrowthRate,
	}
}

// Engine drives the waiting -> flying -> crashed loop forever. One
// goroutine (Run) performs every mutation; the mutex only guards snapshot
// reads from API handlers and the gateway.
type Engine struct {
	cfg Config

	mu    sync.RWMutex
	state game.State

	ledger  *ledger.Ledger
	history *history.Store
	gateway Broadcaster

	commands chan Command
	quit     chan struct{}
	stopOnce sync.Once
}

func New(cfg Config, l *ledger.Ledger, h *history.Store, gw Broadcaster) *Engine {
	return &Engine{
		cfg:      cfg,
		ledger:   l,
		history:  h,
		gateway:  gw,
		commands: make(chan Command, 256),
		quit:     make(chan struct{}),
	}
}

// Enqueue hands a command to the loop. Safe from any goroutine.
func (e *Engine) Enqueue(cmd Command) {
	select {
	case e.commands <- cmd:
	case <-e.quit:
	}
}

// Stop terminates the loop at the next suspension point.
func (e *Engine) Stop() {
	e.stopOnce.Do(func() { close(e.quit) })
}

// Snapshot returns a copy of the authoritative round state.
func (e *Engine) Snapshot() game.State {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state
}

// Roster returns the active bettors for the current round.
func (e *Engine) Roster() []game.RosterEntry {
	return e.ledger.Roster()
}

// History exposes the settled-round store.
func (e *Engine) History() *history.Store {
	return e.history
}

// LoadHistory refills the in-memory history store from the archive, so a
// restarted server doesn't greet clients with an empty history.
func (e *Engine) LoadHistory() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	entries, err := db.GetRecentRounds(ctx, config.MaxGameHistory)
	if err != nil {
		log.Printf("⚠️  Failed to load round history from archive: %v", err)
		return
	}
	if len(entries) > 0 {
		e.history.Preload(entries)
		log.Printf("✅ Loaded %d settled rounds from archive", len(entries))
	}
}

// Run is the game loop. Blocks until Stop.
func (e *Engine) Run() {
	log.Println("🎰 Crash round loop started")
	for !e.stopped() {
		e.startRound()
		e.runWaiting()
		e.runFlying()
		e.finishRound()
	}
}

func (e *Engine) stopped() bool {
	select {
	case <-e.quit:
		return true
	default:
		return false
	}
}

/* =========================
   ROUND PHASES
========================= */

func (e *Engine) startRound() {
	roundID := uuid.New().String()
	serverSeed, seedHash := crypto.GenerateServerSeed()
	clientSeed := crypto.GenerateClientSeed()
	crashPoint := game.ComputeCrashPoint(serverSeed, clientSeed, roundID)

	e.ledger.ClearRound()

	e.mu.Lock()
	e.state = game.State{
		Phase:          game.PhaseWaiting,
		Multiplier:     config.StartingMultiplier,
		Countdown:      int(e.cfg.WaitingDuration / e.cfg.CountdownTick),
		RoundID:        roundID,
		CrashPoint:     crashPoint,
		ServerSeed:     serverSeed,
		ServerSeedHash: seedHash,
		ClientSeed:     clientSeed,
	}
	e.mu.Unlock()

	log.Printf("🎮 New round %s - crash point %.2fx", roundID, crashPoint)

	e.gateway.Broadcast(EvGameHistory, e.history.Recent(config.MaxGameHistory))
}

func (e *Engine) runWaiting() {
	if e.stopped() {
		return
	}

	ticks := int(e.cfg.WaitingDuration / e.cfg.CountdownTick)
	for i := ticks; i > 0; i-- {
		e.mu.Lock()
		e.state.Countdown = i
		st := e.state
		e.mu.Unlock()

		e.gateway.Broadcast(EvGameState, stateEvent(st))
		e.idle(e.cfg.CountdownTick)
		if e.stopped() {
			return
		}
	}
}

func (e *Engine) runFlying() {
	if e.stopped() {
		return
	}

	e.mu.Lock()
	e.state.Phase = game.PhaseFlying
	e.state.StartedAt = time.Now()
	e.state.Multiplier = config.StartingMultiplier
	e.state.Countdown = 0
	st := e.state
	e.mu.Unlock()

	log.Printf("🛫 Round %s flying", st.RoundID)
	e.gateway.Broadcast(EvGameState, stateEvent(st))

	ticker := time.NewTicker(e.cfg.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-e.quit:
			return
		case cmd := <-e.commands:
			e.dispatch(cmd)
		case <-ticker.C:
			e.mu.Lock()
			m := game.Multiplier(time.Since(e.state.StartedAt), e.cfg.GrowthRate)
			crashPoint := e.state.CrashPoint
			if m >= crashPoint || m >= config.MaxCrashPoint {
				// Crash wins ties on the tick that crosses both a bet's
				// auto-cashout threshold and the crash point.
				e.mu.Unlock()
				return
			}
			e.state.Multiplier = m
			e.mu.Unlock()

			e.sweepAutoCashouts(st.RoundID, m)
			e.gateway.Broadcast(EvMultiplierUpdate, map[string]any{
				"multiplier": m,
				"phase":      game.PhaseFlying,
			})
		}
	}
}

func (e *Engine) finishRound() {
	if e.stopped() {
		return
	}

	e.mu.Lock()
	e.state.Phase = game.PhaseCrashed
	e.state.Multiplier = e.state.CrashPoint
	st := e.state
	e.mu.Unlock()

	// Every bet still open is a loss; stakes were escrowed at placement
	// so no balances move here.
	results := e.ledger.SettleLosses()

	entry := game.HistoryEntry{
		RoundID:    st.RoundID,
		CrashPoint: st.CrashPoint,
		Timestamp:  time.Now(),
		Results:    results,
	}
	e.history.Append(entry)

	log.Printf("💥 Round %s crashed at %.2fx (%d losing bets)", st.RoundID, st.CrashPoint, len(results))

	e.gateway.Broadcast(EvGameCrashed, map[string]any{
		"crashPoint":     st.CrashPoint,
		"results":        results,
		"gameId":         st.RoundID,
		"serverSeed":     st.ServerSeed,
		"serverSeedHash": st.ServerSeedHash,
		"clientSeed":     st.ClientSeed,
	})

	e.ledger.ClearRoster()
	e.gateway.Broadcast(EvActivePlayers, e.ledger.Roster())

	go archiveRound(st, entry)

	e.idle(e.cfg.CrashedPause)
}

// idle processes commands until the duration elapses or the engine stops.
func (e *Engine) idle(d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	for {
		select {
		case <-e.quit:
			return
		case cmd := <-e.commands:
			e.dispatch(cmd)
		case <-timer.C:
			return
		}
	}
}

/* =========================
   COMMAND DISPATCH
========================= */

func (e *Engine) dispatch(cmd Command) {
	switch c := cmd.(type) {
	case SyncCmd:
		e.handleSync(c)
	case RegisterCmd:
		e.handleRegister(c)
	case PlaceBetCmd:
		e.handlePlaceBet(c)
	case CashOutCmd:
		e.handleCashOut(c)
	case DisconnectCmd:
		e.handleDisconnect(c)
	}
}

// handleSync sends the full world to a fresh connection: current state,
// recent history and the active roster. New clients never see an empty or
// undefined world.
func (e *Engine) handleSync(c SyncCmd) {
	st := e.Snapshot()
	e.gateway.Send(c.ConnID, EvGameState, stateEvent(st))
	e.gateway.Send(c.ConnID, EvGameHistory, e.history.Recent(config.MaxGameHistory))
	e.gateway.Send(c.ConnID, EvActivePlayers, e.ledger.Roster())
}

func (e *Engine) handleRegister(c RegisterCmd) {
	player := e.ledger.Register(c.ConnID, c.Username, c.Balance)
	e.gateway.Send(c.ConnID, EvPlayerRegistered, map[string]any{
		"username": player.Username,
		"balance":  player.Balance,
		"id":       player.ID,
	})
	log.Printf("👤 Player registered: %s (%s)", player.Username, c.ConnID)
}

func (e *Engine) handlePlaceBet(c PlaceBetCmd) {
	e.mu.RLock()
	phase := e.state.Phase
	roundID := e.state.RoundID
	e.mu.RUnlock()

	bet, balance, err := e.ledger.PlaceBet(c.ConnID, phase, c.Amount, c.AutoCashout)
	if err != nil {
		e.gateway.Send(c.ConnID, EvError, map[string]any{"message": err.Error()})
		return
	}

	e.gateway.Send(c.ConnID, EvBetPlaced, map[string]any{
		"amount":      bet.Amount,
		"balance":     balance,
		"autoCashout": bet.AutoCashout,
	})
	e.gateway.Broadcast(EvPlayerBet, map[string]any{
		"username": bet.Username,
		"amount":   bet.Amount,
	})
	e.gateway.Broadcast(EvActivePlayers, e.ledger.Roster())

	go mirrorBet(roundID, c.ConnID, bet)
}

func (e *Engine) handleCashOut(c CashOutCmd) {
	e.mu.RLock()
	phase := e.state.Phase
	multiplier := e.state.Multiplier
	roundID := e.state.RoundID
	e.mu.RUnlock()

	res, err := e.ledger.CashOut(c.ConnID, phase, multiplier)
	if err != nil {
		e.gateway.Send(c.ConnID, EvError, map[string]any{"message": err.Error()})
		return
	}

	e.gateway.Send(res.ConnID, EvCashedOut, cashedOutEvent(res, false))
	e.gateway.Broadcast(EvPlayerCashOut, playerCashOutEvent(res, false))
	e.gateway.Broadcast(EvActivePlayers, e.ledger.Roster())

	go mirrorCashout(roundID, res)
}

func (e *Engine) handleDisconnect(c DisconnectCmd) {
	e.ledger.Disconnect(c.ConnID)
	e.gateway.Broadcast(EvActivePlayers, e.ledger.Roster())
}

// sweepAutoCashouts settles every open bet whose threshold the tick's
// multiplier reached, exactly as if each owner had sent cashOut.
func (e *Engine) sweepAutoCashouts(roundID string, multiplier float64) {
	results := e.ledger.AutoCashOuts(multiplier)
	if len(results) == 0 {
		return
	}

	for _, res := range results {
		e.gateway.Send(res.ConnID, EvCashedOut, cashedOutEvent(res, true))
		e.gateway.Broadcast(EvPlayerCashOut, playerCashOutEvent(res, true))
		go mirrorCashout(roundID, res)
	}
	e.gateway.Broadcast(EvActivePlayers, e.ledger.Roster())
}

/* =========================
   EVENT PAYLOADS
========================= */

func stateEvent(st game.State) map[string]any {
	return map[string]any{
		"phase":          st.Phase,
		"countdown":      st.Countdown,
		"multiplier":     st.Multiplier,
		"gameId":         st.RoundID,
		"serverSeedHash": st.ServerSeedHash,
	}
}

func cashedOutEvent(res *ledger.CashOutResult, auto bool) map[string]any {
	ev := map[string]any{
		"multiplier": res.Multiplier,
		"payout":     res.Payout,
		"balance":    res.Balance,
		"profit":     res.Profit,
	}
	if auto {
		ev["auto"] = true
	}
	return ev
}

func playerCashOutEvent(res *ledger.CashOutResult, auto bool) map[string]any {
	ev := map[string]any{
		"username":   res.Username,
		"multiplier": res.Multiplier,
		"payout":     res.Payout,
		"profit":     res.Profit,
	}
	if auto {
		ev["auto"] = true
	}
	return ev
}

/* =========================
   BEST-EFFORT ARCHIVAL
========================= */

func archiveRound(st game.State, entry game.HistoryEntry) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	record := &db.RoundRecord{
		RoundID:        st.RoundID,
		ServerSeed:     st.ServerSeed,
		ServerSeedHash: st.ServerSeedHash,
		ClientSeed:     st.ClientSeed,
		CrashPoint:     st.CrashPoint,
		Results:        entry.Results,
		SettledAt:      entry.Timestamp,
	}
	if err := db.StoreRound(ctx, record); err != nil {
		log.Printf("⚠️  Failed to archive round %s: %v", st.RoundID, err)
	}
	if err := db.CleanupRound(ctx, st.RoundID); err != nil {
		log.Printf("⚠️  Failed to clean up round bets: %v", err)
	}
}

func mirrorBet(roundID, connID string, bet *game.Bet) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := db.StoreRoundBet(ctx, roundID, connID, &db.RoundBetData{
		Username:    bet.Username,
		Amount:      bet.Amount,
		AutoCashout: bet.AutoCashout,
		PlacedAt:    time.Now(),
	})
	if err != nil {
		log.Printf("⚠️  Failed to mirror bet: %v", err)
	}
}

func mirrorCashout(roundID string, res *ledger.CashOutResult) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.MarkBetCashedOut(ctx, roundID, res.ConnID, res.Multiplier, res.Payout); err != nil {
		log.Printf("⚠️  Failed to mirror cashout: %v", err)
	}
}
