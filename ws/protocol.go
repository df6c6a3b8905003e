package ws

import (
	"encoding/json"
	"fmt"

	"aviatorServer/engine"
)

// Client -> server command names.
const (
	CmdRegister = "register"
	CmdPlaceBet = "placeBet"
	CmdCashOut  = "cashOut"
)

// ClientMessage is the inbound wire envelope.
type ClientMessage struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// ServerMessage is the outbound wire envelope.
type ServerMessage struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}

type registerPayload struct {
	Username string  `json:"username"`
	Balance  float64 `json:"balance,omitempty"`
}

type placeBetPayload struct {
	Amount      float64  `json:"amount"`
	AutoCashout *float64 `json:"autoCashout,omitempty"`
}

// commandFor maps a wire message onto the engine's typed command set. All
// validation beyond JSON shape belongs to the game loop, not the gateway.
func commandFor(connID string, msg ClientMessage) (engine.Command, error) {
	switch msg.Event {
	case CmdRegister:
		var p registerPayload
		if err := json.Unmarshal(msg.Data, &p); err != nil {
			return nil, fmt.Errorf("malformed register payload: %w", err)
		}
		if p.Username == "" {
			return nil, fmt.Errorf("username is required")
		}
		return engine.RegisterCmd{ConnID: connID, Username: p.Username, Balance: p.Balance}, nil

	case CmdPlaceBet:
		var p placeBetPayload
		if err := json.Unmarshal(msg.Data, &p); err != nil {
			return nil, fmt.Errorf("malformed placeBet payload: %w", err)
		}
		return engine.PlaceBetCmd{ConnID: connID, Amount: p.Amount, AutoCashout: p.AutoCashout}, nil

	case CmdCashOut:
		return engine.CashOutCmd{ConnID: connID}, nil

	default:
		return nil, fmt.Errorf("unknown command: %s", msg.Event)
	}
}
