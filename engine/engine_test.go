package engine

import (
	"sync"
	"testing"
	"time"

	"aviatorServer/config"
	"aviatorServer/game"
	"aviatorServer/history"
	"aviatorServer/ledger"
)

// fakeGateway records every event the engine emits. ConnID is empty for
// broadcasts.
type fakeGateway struct {
	mu     sync.Mutex
	events []recordedEvent
}

type recordedEvent struct {
	Event   string
	ConnID  string
	Payload any
}

func (f *fakeGateway) Broadcast(event string, payload any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, recordedEvent{Event: event, Payload: payload})
}

func (f *fakeGateway) Send(connID string, event string, payload any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, recordedEvent{Event: event, ConnID: connID, Payload: payload})
}

func (f *fakeGateway) count(event string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, e := range f.events {
		if e.Event == event {
			n++
		}
	}
	return n
}

func (f *fakeGateway) first(event string) (recordedEvent, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, e := range f.events {
		if e.Event == event {
			return e, true
		}
	}
	return recordedEvent{}, false
}

// testConfig shrinks the round so a full lifecycle finishes in well under a
// second. The growth rate of 0.5/ms reaches the 15x ceiling ~30ms into the
// flight, so no crash point survives longer than that.
func testConfig() Config {
	return Config{
		WaitingDuration: 300 * time.Millisecond,
		CountdownTick:   100 * time.Millisecond,
		TickInterval:    5 * time.Millisecond,
		CrashedPause:    50 * time.Millisecond,
		GrowthRate:      0.5,
	}
}

func newTestEngine() (*Engine, *fakeGateway) {
	gw := &fakeGateway{}
	eng := New(testConfig(), ledger.New(), history.NewStore(config.MaxGameHistory), gw)
	return eng, gw
}

func waitFor(t *testing.T, timeout time.Duration, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestRoundLifecycle(t *testing.T) {
	eng, gw := newTestEngine()
	go eng.Run()
	defer eng.Stop()

	waitFor(t, time.Second, "waiting phase", func() bool {
		return eng.Snapshot().Phase == game.PhaseWaiting
	})

	st := eng.Snapshot()
	if st.RoundID == "" {
		t.Error("waiting round has no round ID")
	}
	if st.CrashPoint < 1.01 || st.CrashPoint > 15.0 {
		t.Errorf("crash point %v outside [1.01, 15.0]", st.CrashPoint)
	}
	if st.ServerSeedHash == "" {
		t.Error("waiting round has no seed commitment")
	}
	if gw.count(EvGameHistory) == 0 {
		t.Error("round start did not broadcast history")
	}

	eng.Enqueue(RegisterCmd{ConnID: "conn-1", Username: "alice", Balance: 1000})
	waitFor(t, time.Second, "registration ack", func() bool {
		return gw.count(EvPlayerRegistered) > 0
	})

	eng.Enqueue(PlaceBetCmd{ConnID: "conn-1", Amount: 100})
	waitFor(t, time.Second, "bet ack", func() bool {
		return gw.count(EvBetPlaced) > 0
	})
	if gw.count(EvPlayerBet) == 0 {
		t.Error("bet was not announced to the room")
	}

	waitFor(t, 2*time.Second, "crash", func() bool {
		return gw.count(EvGameCrashed) > 0
	})

	crashed, _ := gw.first(EvGameCrashed)
	payload := crashed.Payload.(map[string]any)
	if payload["gameId"] != st.RoundID {
		t.Errorf("crash event for round %v, want %v", payload["gameId"], st.RoundID)
	}
	if payload["serverSeed"] != st.ServerSeed {
		t.Error("crash event did not reveal the server seed")
	}
	if !game.VerifyCrashPoint(st.ServerSeed, st.ClientSeed, st.RoundID, payload["crashPoint"].(float64)) {
		t.Error("announced crash point does not verify against the seeds")
	}

	// alice never cashed out, so her bet settles as the round's one loss
	results := payload["results"].([]game.SettlementResult)
	if len(results) != 1 {
		t.Fatalf("got %d settlement results, want 1", len(results))
	}
	if results[0].Username != "alice" || !results[0].Lost || results[0].BetAmount != 100 {
		t.Errorf("unexpected loss record %+v", results[0])
	}

	if eng.History().Len() != 1 {
		t.Errorf("history holds %d rounds after one crash, want 1", eng.History().Len())
	}
	if got := eng.History().Recent(1)[0]; got.RoundID != st.RoundID {
		t.Errorf("history recorded round %s, want %s", got.RoundID, st.RoundID)
	}
}

func TestBetRejectedOutsideWaiting(t *testing.T) {
	eng, gw := newTestEngine()
	go eng.Run()
	defer eng.Stop()

	waitFor(t, time.Second, "waiting phase", func() bool {
		return eng.Snapshot().Phase == game.PhaseWaiting
	})
	eng.Enqueue(RegisterCmd{ConnID: "conn-1", Username: "alice", Balance: 1000})

	waitFor(t, 2*time.Second, "flying phase", func() bool {
		return eng.Snapshot().Phase == game.PhaseFlying
	})
	eng.Enqueue(PlaceBetCmd{ConnID: "conn-1", Amount: 100})

	waitFor(t, 2*time.Second, "error to bettor", func() bool {
		ev, ok := gw.first(EvError)
		return ok && ev.ConnID == "conn-1"
	})
	if gw.count(EvBetPlaced) != 0 {
		t.Error("bet placed while flying was acknowledged")
	}
}

func TestAutoCashoutResolvesBetExactlyOnce(t *testing.T) {
	eng, gw := newTestEngine()
	go eng.Run()
	defer eng.Stop()

	waitFor(t, time.Second, "waiting phase", func() bool {
		return eng.Snapshot().Phase == game.PhaseWaiting
	})
	st := eng.Snapshot()

	threshold := 1.5
	eng.Enqueue(RegisterCmd{ConnID: "conn-1", Username: "alice", Balance: 1000})
	eng.Enqueue(PlaceBetCmd{ConnID: "conn-1", Amount: 100, AutoCashout: &threshold})
	waitFor(t, time.Second, "bet ack", func() bool {
		return gw.count(EvBetPlaced) > 0
	})

	waitFor(t, 2*time.Second, "crash", func() bool {
		ev, ok := gw.first(EvGameCrashed)
		if !ok {
			return false
		}
		return ev.Payload.(map[string]any)["gameId"] == st.RoundID
	})

	// The bet resolves exactly one way: the sweep fired before the crash,
	// or the crash beat the threshold and the bet is a loss. Never both,
	// never neither, and a sweep fires at most once.
	crashed, _ := gw.first(EvGameCrashed)
	losses := crashed.Payload.(map[string]any)["results"].([]game.SettlementResult)
	cashouts := gw.count(EvCashedOut)

	if cashouts > 1 {
		t.Errorf("auto cashout fired %d times for one bet", cashouts)
	}
	if cashouts == 1 && len(losses) != 0 {
		t.Errorf("bet both cashed out and settled as loss: %+v", losses)
	}
	if cashouts == 0 && len(losses) != 1 {
		t.Errorf("bet neither cashed out nor settled as loss (losses: %+v)", losses)
	}

	if cashouts == 1 {
		ev, _ := gw.first(EvCashedOut)
		payload := ev.Payload.(map[string]any)
		if payload["auto"] != true {
			t.Error("auto cashout missing auto marker")
		}
		m := payload["multiplier"].(float64)
		if m < threshold {
			t.Errorf("cashed out at %v, below the %v threshold", m, threshold)
		}
		if m > st.CrashPoint {
			t.Errorf("cashed out at %v, past the %v crash point", m, st.CrashPoint)
		}
	}
}

func TestSyncOnConnect(t *testing.T) {
	eng, gw := newTestEngine()
	go eng.Run()
	defer eng.Stop()

	waitFor(t, time.Second, "waiting phase", func() bool {
		return eng.Snapshot().Phase == game.PhaseWaiting
	})

	eng.Enqueue(SyncCmd{ConnID: "conn-9"})
	waitFor(t, time.Second, "world sync", func() bool {
		for _, ev := range []string{EvGameState, EvGameHistory, EvActivePlayers} {
			found := false
			gw.mu.Lock()
			for _, e := range gw.events {
				if e.Event == ev && e.ConnID == "conn-9" {
					found = true
					break
				}
			}
			gw.mu.Unlock()
			if !found {
				return false
			}
		}
		return true
	})
}

func TestDisconnectDropsOpenBet(t *testing.T) {
	eng, gw := newTestEngine()
	go eng.Run()
	defer eng.Stop()

	waitFor(t, time.Second, "waiting phase", func() bool {
		return eng.Snapshot().Phase == game.PhaseWaiting
	})
	st := eng.Snapshot()

	eng.Enqueue(RegisterCmd{ConnID: "conn-1", Username: "alice", Balance: 1000})
	eng.Enqueue(PlaceBetCmd{ConnID: "conn-1", Amount: 100})
	waitFor(t, time.Second, "bet ack", func() bool {
		return gw.count(EvBetPlaced) > 0
	})
	if len(eng.Roster()) != 1 {
		t.Fatalf("roster has %d entries after bet, want 1", len(eng.Roster()))
	}

	eng.Enqueue(DisconnectCmd{ConnID: "conn-1"})
	waitFor(t, time.Second, "roster cleanup", func() bool {
		return len(eng.Roster()) == 0
	})

	waitFor(t, 2*time.Second, "crash", func() bool {
		ev, ok := gw.first(EvGameCrashed)
		return ok && ev.Payload.(map[string]any)["gameId"] == st.RoundID
	})
	crashed, _ := gw.first(EvGameCrashed)
	results := crashed.Payload.(map[string]any)["results"].([]game.SettlementResult)
	if len(results) != 0 {
		t.Errorf("disconnected player's bet settled: %+v", results)
	}
}
