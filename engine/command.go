package engine

// Command is the tagged variant for everything a connection can ask of the
// game loop. Commands are delivered over one channel and dispatched through
// a single switch, so every mutation of game state, ledger and history is
// serialized on the loop goroutine.
type Command interface {
	isCommand()
}

// SyncCmd asks for the full world snapshot (state, history, roster) to be
// sent to one connection. Enqueued by the gateway on every new connection.
type SyncCmd struct {
	ConnID string
}

// RegisterCmd creates or overwrites the player record for a connection.
type RegisterCmd struct {
	ConnID   string
	Username string
	Balance  float64
}

// PlaceBetCmd escrows a stake for the current round.
type PlaceBetCmd struct {
	ConnID      string
	Amount      float64
	AutoCashout *float64
}

// CashOutCmd settles the connection's open bet at the live multiplier.
type CashOutCmd struct {
	ConnID string
}

// DisconnectCmd removes the player and anything they had in flight.
type DisconnectCmd struct {
	ConnID string
}

func (SyncCmd) isCommand()       {}
func (RegisterCmd) isCommand()   {}
func (PlaceBetCmd) isCommand()   {}
func (CashOutCmd) isCommand()    {}
func (DisconnectCmd) isCommand() {}
