package ws

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"aviatorServer/config"
	"aviatorServer/engine"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  config.WSReadBufferSize,
	WriteBufferSize: config.WSWriteBufferSize,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Game is the hub's view of the engine: a place to enqueue commands.
type Game interface {
	Enqueue(cmd engine.Command)
}

// Hub tracks connections and moves bytes. It carries no game logic; every
// inbound command goes to the engine, every outbound event comes from it.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client

	register   chan *Client
	unregister chan *Client

	game Game
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

// Attach wires the hub to the game loop. Must be called before Run.
func (h *Hub) Attach(g Game) {
	h.game = g
}

// Run owns the connection registry. On connect the client gets a full world
// sync; on disconnect the engine cleans up the player and any open bet.
func (h *Hub) Run() {
	log.Println("🚀 WebSocket hub started")
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.ID] = client
			total := len(h.clients)
			h.mu.Unlock()
			log.Printf("✅ Client connected: %s (total: %d)", client.ID, total)

			h.game.Enqueue(engine.SyncCmd{ConnID: client.ID})

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client.ID]; ok {
				delete(h.clients, client.ID)
				close(client.send)
			}
			total := len(h.clients)
			h.mu.Unlock()
			log.Printf("👋 Client disconnected: %s (total: %d)", client.ID, total)

			h.game.Enqueue(engine.DisconnectCmd{ConnID: client.ID})
		}
	}
}

// HandleWS upgrades an HTTP request into a tracked connection.
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Println("❌ WebSocket upgrade failed:", err)
		return
	}

	client := &Client{
		ID:   uuid.New().String(),
		conn: conn,
		send: make(chan []byte, config.WSSendBufferSize),
		hub:  h,
	}

	h.register <- client

	go client.writePump()
	go client.readPump()
}

// Broadcast sends an event to every connection. Clients with a full send
// buffer are skipped rather than blocked on.
func (h *Hub) Broadcast(event string, payload any) {
	data, err := json.Marshal(ServerMessage{Event: event, Data: payload})
	if err != nil {
		log.Printf("❌ Failed to marshal %s event: %v", event, err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, client := range h.clients {
		select {
		case client.send <- data:
		default:
			log.Printf("⚠️  Client %s send buffer full, skipping %s", client.ID, event)
		}
	}
}

// Send delivers an event to one connection. Unknown connections are a
// no-op: the client may have disconnected between dispatch and delivery.
func (h *Hub) Send(connID string, event string, payload any) {
	data, err := json.Marshal(ServerMessage{Event: event, Data: payload})
	if err != nil {
		log.Printf("❌ Failed to marshal %s event: %v", event, err)
		return
	}

	h.mu.RLock()
	client, ok := h.clients[connID]
	h.mu.RUnlock()
	if !ok {
		return
	}

	select {
	case client.send <- data:
	default:
		log.Printf("⚠️  Client %s send buffer full, skipping %s", connID, event)
	}
}
