package ws_game

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/vibevortex/core/internal/registry"
)

const (
	EventJoinRoom           = "join_room"
	EventRoomJoined         = "room_joined"
	EventPlayerConnected    = "player_connected"
	EventPlayerDisconnected = "player_disconnected"
	EventMessage            = "message"
	EventServerCommand      = "server_command"
	EventHostCommand        = "host_command"
	EventPlayerAction       = "player_action"
)

const (
	CommandGameReady = "game_ready"
	CommandNextRound = "next_round"
	CommandEndGame   = "end_game"
)

// Envelope is the wire format of every relay message, both directions.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type Hub struct {
	registry *registry.Registry
	logger   *slog.Logger

	// Every open connection; room membership is tracked separately so a
	// client that has not joined yet still receives process-wide messages.
	clients map[*Client]bool
	rooms   map[string]map[*Client]bool

	register   chan *Client
	unregister chan *Client
	inbound    chan inboundMessage

	mu sync.RWMutex
}

type inboundMessage struct {
	client *Client
	raw    []byte
}

func NewHub(reg *registry.Registry) *Hub {
	return &Hub{
		registry:   reg,
		logger:     slog.Default(),
		clients:    make(map[*Client]bool),
		rooms:      make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		inbound:    make(chan inboundMessage),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.handleRegister(client)

		case client := <-h.unregister:
			h.handleUnregister(client)

		case msg := <-h.inbound:
			h.handleInbound(msg.client, msg.raw)
		}
	}
}

func (h *Hub) handleRegister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[client] = true

	h.logger.Info("client connected", "conn_id", client.connID)
}

func (h *Hub) handleUnregister(client *Client) {
	h.mu.Lock()
	if _, ok := h.clients[client]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, client)
	close(client.send)

	if client.roomCode != "" {
		if roomClients, exists := h.rooms[client.roomCode]; exists {
			delete(roomClients, client)
			if len(roomClients) == 0 {
				delete(h.rooms, client.roomCode)
			}
		}
	}
	h.mu.Unlock()

	h.logger.Info("client disconnected", "conn_id", client.connID, "room", client.roomCode)

	departure, ok := h.registry.Leave(client.connID)
	if !ok {
		// Stale connection of a user who reconnected; presence unchanged.
		return
	}
	if departure.Participant.IsHost {
		return
	}

	h.broadcastToRoom(departure.RoomCode, mustEnvelope(EventPlayerDisconnected, map[string]any{
		"userId":       departure.Participant.UserID,
		"username":     departure.Participant.Username,
		"profileImage": departure.Participant.ProfileImage,
	}))
}

func (h *Hub) handleInbound(client *Client, raw []byte) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		h.logger.Warn("dropping malformed frame", "conn_id", client.connID, "error", err)
		return
	}

	switch env.Event {
	case EventJoinRoom:
		h.handleJoin(client, env.Data)

	case EventMessage:
		// Room-scoped once joined; process-wide until then.
		if client.roomCode == "" {
			h.broadcastToAll(raw)
			return
		}
		h.broadcastToRoom(client.roomCode, raw)

	case EventServerCommand:
		h.handleServerCommand(client, raw, env.Data)

	case EventHostCommand:
		h.handleHostCommand(client, raw, env.Data)

	case EventPlayerAction:
		if client.roomCode == "" {
			return
		}
		h.broadcastToRoom(client.roomCode, raw)

	default:
		h.logger.Warn("dropping unknown event",
			"conn_id", client.connID, "event", env.Event)
	}
}

type joinRoomDTO struct {
	RoomCode     string `json:"roomCode"`
	UserID       int64  `json:"userId"`
	Username     string `json:"username"`
	ProfileImage string `json:"profileImage"`
	IsHost       bool   `json:"isHost"`
}

func (h *Hub) handleJoin(client *Client, data json.RawMessage) {
	var req joinRoomDTO
	if err := json.Unmarshal(data, &req); err != nil || req.RoomCode == "" {
		client.trySend(mustEnvelope(EventRoomJoined, map[string]any{
			"success": false,
			"message": "invalid join request",
		}))
		return
	}

	result := h.registry.Join(req.RoomCode, registry.Participant{
		UserID:       req.UserID,
		Username:     req.Username,
		ProfileImage: req.ProfileImage,
		IsHost:       req.IsHost,
		ConnID:       client.connID,
	})

	h.mu.Lock()
	// Rejoining under a different code moves the client between room sets.
	if client.roomCode != "" && client.roomCode != req.RoomCode {
		if old, ok := h.rooms[client.roomCode]; ok {
			delete(old, client)
			if len(old) == 0 {
				delete(h.rooms, client.roomCode)
			}
		}
	}
	client.roomCode = req.RoomCode
	client.userID = req.UserID
	if _, ok := h.rooms[req.RoomCode]; !ok {
		h.rooms[req.RoomCode] = make(map[*Client]bool)
	}
	h.rooms[req.RoomCode][client] = true
	h.mu.Unlock()

	client.trySend(mustEnvelope(EventRoomJoined, map[string]any{
		"success":     true,
		"playerCount": result.PlayerCount,
		"gameStarted": result.Started,
	}))

	// Only a first appearance announces presence, and hosts never do.
	if result.First && !req.IsHost {
		h.broadcastToRoomExcept(req.RoomCode, client, mustEnvelope(EventPlayerConnected, map[string]any{
			"userId":       req.UserID,
			"username":     req.Username,
			"profileImage": req.ProfileImage,
		}))
	}
}

func (h *Hub) handleServerCommand(client *Client, raw []byte, data json.RawMessage) {
	if client.roomCode == "" {
		return
	}

	var command string
	if err := json.Unmarshal(data, &command); err == nil && command == CommandGameReady {
		if err := h.registry.MarkStarted(client.roomCode); err != nil {
			h.logger.Warn("game_ready rejected",
				"room", client.roomCode, "error", err)
			return
		}
	}

	h.broadcastToRoom(client.roomCode, raw)
}

func (h *Hub) handleHostCommand(client *Client, raw []byte, data json.RawMessage) {
	if client.roomCode == "" {
		return
	}
	if !h.registry.HostConn(client.roomCode, client.connID) {
		h.logger.Warn("host command from non-host dropped",
			"room", client.roomCode, "conn_id", client.connID, "user_id", client.userID)
		return
	}

	var command string
	if err := json.Unmarshal(data, &command); err == nil && command == CommandEndGame {
		if err := h.registry.End(client.roomCode); err != nil {
			h.logger.Warn("end_game rejected",
				"room", client.roomCode, "error", err)
			return
		}
	}

	h.broadcastToRoom(client.roomCode, raw)
}

func (h *Hub) broadcastToRoom(roomCode string, message []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if roomClients, exists := h.rooms[roomCode]; exists {
		for client := range roomClients {
			client.trySend(message)
		}
	}
}

func (h *Hub) broadcastToRoomExcept(roomCode string, skip *Client, message []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if roomClients, exists := h.rooms[roomCode]; exists {
		for client := range roomClients {
			if client == skip {
				continue
			}
			client.trySend(message)
		}
	}
}

func (h *Hub) broadcastToAll(message []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients {
		client.trySend(message)
	}
}

func mustEnvelope(event string, data any) []byte {
	raw, _ := json.Marshal(data)
	out, _ := json.Marshal(Envelope{Event: event, Data: raw})
	return out
}
