package api

import (
	"encoding/json"
	"net/http"

	"aviatorServer/config"
	"aviatorServer/db"
	"aviatorServer/engine"
	"aviatorServer/game"
	"aviatorServer/history"
)

var (
	gameEngine   *engine.Engine
	historyStore *history.Store
)

// Attach wires the handlers to the running engine and history store.
// Must be called before the routes are registered.
func Attach(e *engine.Engine, h *history.Store) {
	gameEngine = e
	historyStore = h
}

/* =========================
   REQUEST/RESPONSE TYPES
========================= */

// VerifyRequest carries the revealed seed triple of a settled round plus
// the crash point the server claimed for it.
type VerifyRequest struct {
	ServerSeed string  `json:"serverSeed"`
	ClientSeed string  `json:"clientSeed"`
	GameID     string  `json:"gameId"`
	CrashPoint float64 `json:"crashPoint"`
}

// VerifyResponse reports whether the claimed crash point reproduces.
type VerifyResponse struct {
	Valid              bool    `json:"valid"`
	ExpectedCrashPoint float64 `json:"expectedCrashPoint"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

/* =========================
   ENDPOINTS
========================= */

// HandleGetHistory returns the recent settled rounds, newest first.
// GET /api/history
func HandleGetHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		sendError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	entries := historyStore.Recent(config.MaxGameHistory)
	if entries == nil {
		entries = []game.HistoryEntry{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"success": true,
		"history": entries,
	})
}

// HandleGetActivePlayers returns the current round's bettor roster.
// GET /api/players
func HandleGetActivePlayers(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		sendError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	roster := gameEngine.Roster()
	if roster == nil {
		roster = []game.RosterEntry{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"success": true,
		"players": roster,
		"count":   len(roster),
	})
}

// HandleVerify recomputes a settled round's crash point from its revealed
// seeds, letting any client confirm the round was not altered after bets
// were placed.
// POST /api/verify
func HandleVerify(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		sendError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req VerifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.ServerSeed == "" || req.ClientSeed == "" || req.GameID == "" {
		sendError(w, http.StatusBadRequest, "serverSeed, clientSeed and gameId are required")
		return
	}

	expected := game.ComputeCrashPoint(req.ServerSeed, req.ClientSeed, req.GameID)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(VerifyResponse{
		Valid:              game.VerifyCrashPoint(req.ServerSeed, req.ClientSeed, req.GameID, req.CrashPoint),
		ExpectedCrashPoint: expected,
	})
}

// HandleHealthCheck reports process liveness plus the state of the optional
// Redis and PostgreSQL backends.
// GET /api/health
func HandleHealthCheck(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		sendError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	ctx := r.Context()

	redisHealth := "ok"
	if err := db.HealthCheck(ctx); err != nil {
		redisHealth = "error: " + err.Error()
	}

	postgresHealth := "ok"
	if err := db.HealthCheckPostgres(ctx); err != nil {
		postgresHealth = "error: " + err.Error()
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"success":  true,
		"redis":    redisHealth,
		"postgres": postgresHealth,
		"phase":    gameEngine.Snapshot().Phase,
	})
}

/* =========================
   HELPER FUNCTIONS
========================= */

// sendError sends an error response.
func sendError(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(ErrorResponse{
		Success: false,
		Error:   message,
	})
}
