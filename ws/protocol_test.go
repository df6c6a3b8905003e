package ws

import (
	"encoding/json"
	"testing"

	"aviatorServer/engine"
)

func msg(event, data string) ClientMessage {
	return ClientMessage{Event: event, Data: json.RawMessage(data)}
}

func TestCommandFor(t *testing.T) {
	t.Run("register", func(t *testing.T) {
		cmd, err := commandFor("conn-1", msg(CmdRegister, `{"username":"alice","balance":500}`))
		if err != nil {
			t.Fatalf("commandFor: %v", err)
		}
		reg, ok := cmd.(engine.RegisterCmd)
		if !ok {
			t.Fatalf("got %T, want RegisterCmd", cmd)
		}
		if reg.ConnID != "conn-1" || reg.Username != "alice" || reg.Balance != 500 {
			t.Errorf("unexpected command %+v", reg)
		}
	})

	t.Run("register requires username", func(t *testing.T) {
		if _, err := commandFor("conn-1", msg(CmdRegister, `{"balance":500}`)); err == nil {
			t.Error("register without username accepted")
		}
	})

	t.Run("placeBet with auto cashout", func(t *testing.T) {
		cmd, err := commandFor("conn-1", msg(CmdPlaceBet, `{"amount":100,"autoCashout":2.5}`))
		if err != nil {
			t.Fatalf("commandFor: %v", err)
		}
		bet, ok := cmd.(engine.PlaceBetCmd)
		if !ok {
			t.Fatalf("got %T, want PlaceBetCmd", cmd)
		}
		if bet.Amount != 100 || bet.AutoCashout == nil || *bet.AutoCashout != 2.5 {
			t.Errorf("unexpected command %+v", bet)
		}
	})

	t.Run("placeBet without auto cashout", func(t *testing.T) {
		cmd, _ := commandFor("conn-1", msg(CmdPlaceBet, `{"amount":100}`))
		if bet := cmd.(engine.PlaceBetCmd); bet.AutoCashout != nil {
			t.Errorf("absent autoCashout decoded as %v", *bet.AutoCashout)
		}
	})

	t.Run("cashOut", func(t *testing.T) {
		cmd, err := commandFor("conn-1", msg(CmdCashOut, `{}`))
		if err != nil {
			t.Fatalf("commandFor: %v", err)
		}
		if _, ok := cmd.(engine.CashOutCmd); !ok {
			t.Fatalf("got %T, want CashOutCmd", cmd)
		}
	})

	t.Run("unknown command", func(t *testing.T) {
		if _, err := commandFor("conn-1", msg("selfDestruct", `{}`)); err == nil {
			t.Error("unknown command accepted")
		}
	})
}
