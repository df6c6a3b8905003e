package main

import (
	"log"
	"net/http"
	"os"

	"aviatorServer/api"
	"aviatorServer/config"
	"aviatorServer/db"
	"aviatorServer/engine"
	"aviatorServer/history"
	"aviatorServer/ledger"
	"aviatorServer/ws"

	"github.com/joho/godotenv"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  Warning: .env file not found, using environment variables")
	} else {
		log.Println("✅ Loaded environment variables from .env")
	}

	// Optional archival backends; the game runs fine without either
	if err := db.InitPostgres(); err != nil {
		log.Printf("⚠️  Warning: PostgreSQL initialization failed: %v", err)
		log.Println("   Round archival and history warm-up will be disabled")
	}
	defer db.ClosePostgres()

	if err := db.InitRedis(); err != nil {
		log.Printf("⚠️  Warning: Redis initialization failed: %v", err)
		log.Println("   Live bet mirroring will be disabled")
	}
	defer db.CloseRedis()

	// Core wiring: gateway <-> engine <-> ledger/history
	hub := ws.NewHub()
	eng := engine.New(engine.DefaultConfig(), ledger.New(), history.NewStore(config.MaxGameHistory), hub)
	hub.Attach(eng)
	api.Attach(eng, eng.History())

	eng.LoadHistory()

	go hub.Run()
	go eng.Run()

	// WebSocket endpoint
	http.HandleFunc("/ws", hub.HandleWS)

	// API endpoints
	http.HandleFunc("/api/history", corsMiddleware(api.HandleGetHistory))
	http.HandleFunc("/api/players", corsMiddleware(api.HandleGetActivePlayers))
	http.HandleFunc("/api/verify", corsMiddleware(api.HandleVerify))
	http.HandleFunc("/api/health", corsMiddleware(api.HandleHealthCheck))

	port := os.Getenv("PORT")
	if port == "" {
		port = config.ServerPort
	}
	addr := config.ServerHost + ":" + port

	log.Printf("🚀 Server starting on %s", addr)
	log.Println("")
	log.Println("📡 WebSocket Endpoint:")
	log.Println("   ws://localhost:" + port + "/ws - game events + commands")
	log.Println("   - send 'register' to join, 'placeBet' while waiting, 'cashOut' in flight")
	log.Println("")
	log.Println("🔌 API Endpoints:")
	log.Println("   GET  /api/history - recent settled rounds (last 100)")
	log.Println("   GET  /api/players - active bettors this round")
	log.Println("   POST /api/verify - recompute a crash point from revealed seeds")
	log.Println("   GET  /api/health - health check (Redis + PostgreSQL)")
	log.Println("")

	if err := http.ListenAndServe(addr, nil); err != nil {
		log.Fatal("❌ Server error:", err)
	}
}

// corsMiddleware adds CORS headers to allow frontend requests.
func corsMiddleware(handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin == "" {
			origin = config.AllowOrigin
		}
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		handler(w, r)
	}
}
