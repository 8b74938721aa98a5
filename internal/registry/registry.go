// Package registry tracks live room presence entirely in memory. It owns no
// durable state: a process restart empties it, and clients re-announce
// themselves over the websocket. Durable room records live in postgres.
package registry

import (
	"errors"
	"log/slog"
	"sync"
)

var (
	ErrRoomNotFound = errors.New("room not found")
	ErrRoomEnded    = errors.New("room already ended")
)

// State is the lifecycle of a live room. Transitions only move forward:
// LOBBY -> IN_PROGRESS -> ENDED. Out-of-order control messages are rejected
// instead of relayed blindly.
type State int

const (
	StateLobby State = iota
	StateInProgress
	StateEnded
)

func (s State) String() string {
	switch s {
	case StateLobby:
		return "LOBBY"
	case StateInProgress:
		return "IN_PROGRESS"
	case StateEnded:
		return "ENDED"
	}
	return "UNKNOWN"
}

// Participant is a live connection's presence within a room. Keyed by user
// id within the room; the connection id attributes disconnects to the right
// connection when a user reconnects (latest connection wins).
type Participant struct {
	UserID       int64
	Username     string
	ProfileImage string
	IsHost       bool
	ConnID       string
}

type room struct {
	mu           sync.Mutex
	state        State
	participants map[int64]*Participant
}

// Registry maps room codes to live rooms. The outer lock guards the maps;
// each room serializes its own participant mutations, since join-then-announce
// and leave-then-cleanup are check-then-act sequences.
type Registry struct {
	mu     sync.RWMutex
	rooms  map[string]*room
	conns  map[string]string // connection id -> room code
	logger *slog.Logger
}

func New(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		rooms:  make(map[string]*room),
		conns:  make(map[string]string),
		logger: logger,
	}
}

// JoinResult reports the room as seen right after a join.
type JoinResult struct {
	PlayerCount int
	Started     bool
	// First is true only on an absent->present transition for the user.
	// A reconnect replacing an older connection is not a first join and
	// must not re-announce presence.
	First bool
}

func (r *Registry) Join(roomCode string, p Participant) JoinResult {
	r.mu.Lock()
	rm, ok := r.rooms[roomCode]
	if !ok {
		rm = &room{
			state:        StateLobby,
			participants: make(map[int64]*Participant),
		}
		r.rooms[roomCode] = rm
	}
	r.conns[p.ConnID] = roomCode
	r.mu.Unlock()

	rm.mu.Lock()
	defer rm.mu.Unlock()

	prev, present := rm.participants[p.UserID]
	if present {
		// Latest connection wins. The superseded connection's eventual
		// disconnect is attributed by conn id and ignored.
		r.logger.Debug("participant reconnected",
			"room", roomCode, "user_id", p.UserID, "old_conn", prev.ConnID, "new_conn", p.ConnID)
	}
	cp := p
	rm.participants[p.UserID] = &cp

	return JoinResult{
		PlayerCount: len(rm.participants),
		Started:     rm.state != StateLobby,
		First:       !present,
	}
}

// MarkStarted flips the room into IN_PROGRESS. Idempotent: repeated calls
// observe the same state. Returns ErrRoomEnded for a finished room and
// ErrRoomNotFound when nobody is connected under that code.
func (r *Registry) MarkStarted(roomCode string) error {
	r.mu.RLock()
	rm, ok := r.rooms[roomCode]
	r.mu.RUnlock()
	if !ok {
		return ErrRoomNotFound
	}

	rm.mu.Lock()
	defer rm.mu.Unlock()
	if rm.state == StateEnded {
		return ErrRoomEnded
	}
	rm.state = StateInProgress
	return nil
}

// End moves the room to its terminal state. Only legal from IN_PROGRESS.
func (r *Registry) End(roomCode string) error {
	r.mu.RLock()
	rm, ok := r.rooms[roomCode]
	r.mu.RUnlock()
	if !ok {
		return ErrRoomNotFound
	}

	rm.mu.Lock()
	defer rm.mu.Unlock()
	if rm.state != StateInProgress {
		return ErrRoomEnded
	}
	rm.state = StateEnded
	return nil
}

// Departure is what Leave reports so the relay can announce it.
type Departure struct {
	RoomCode    string
	Participant Participant
	RoomEmptied bool
}

// Leave handles a connection going away. If the stored participant record
// was superseded by a newer connection for the same user, the departure is
// ignored (ok=false): the newer presence stays and nothing is announced.
// Emptying a room drops its registry entry altogether.
func (r *Registry) Leave(connID string) (Departure, bool) {
	r.mu.Lock()
	roomCode, ok := r.conns[connID]
	if !ok {
		r.mu.Unlock()
		return Departure{}, false
	}
	delete(r.conns, connID)
	rm, ok := r.rooms[roomCode]
	r.mu.Unlock()
	if !ok {
		return Departure{}, false
	}

	rm.mu.Lock()
	var gone *Participant
	for _, p := range rm.participants {
		if p.ConnID == connID {
			gone = p
			break
		}
	}
	if gone == nil {
		rm.mu.Unlock()
		return Departure{}, false
	}
	delete(rm.participants, gone.UserID)
	emptied := len(rm.participants) == 0
	rm.mu.Unlock()

	if emptied {
		r.mu.Lock()
		// Re-check under the outer lock: a concurrent join may have
		// repopulated the room. Cleanup stays idempotent either way.
		rm.mu.Lock()
		if len(rm.participants) == 0 && r.rooms[roomCode] == rm {
			delete(r.rooms, roomCode)
		}
		rm.mu.Unlock()
		r.mu.Unlock()
	}

	return Departure{
		RoomCode:    roomCode,
		Participant: *gone,
		RoomEmptied: emptied,
	}, true
}

// Presence reports the live player count and started flag for a room.
// ok=false means nobody is connected under that code, which is distinct
// from a zero-sized live room (those are garbage-collected immediately).
func (r *Registry) Presence(roomCode string) (count int, started bool, ok bool) {
	r.mu.RLock()
	rm, found := r.rooms[roomCode]
	r.mu.RUnlock()
	if !found {
		return 0, false, false
	}

	rm.mu.Lock()
	defer rm.mu.Unlock()
	return len(rm.participants), rm.state != StateLobby, true
}

// HostConn reports whether connID belongs to the room's registered host.
// Host-only control commands from other connections are dropped by the relay.
func (r *Registry) HostConn(roomCode, connID string) bool {
	r.mu.RLock()
	rm, found := r.rooms[roomCode]
	r.mu.RUnlock()
	if !found {
		return false
	}

	rm.mu.Lock()
	defer rm.mu.Unlock()
	for _, p := range rm.participants {
		if p.IsHost && p.ConnID == connID {
			return true
		}
	}
	return false
}
