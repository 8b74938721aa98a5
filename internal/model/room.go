package model

// RoomCodeLength is the fixed length of a public room code. Codes are
// ASCII digits only and unique among currently active rooms.
const RoomCodeLength = 7

type Room struct {
	ID       int64
	RoomCode string
	HostID   int64
	WinnerID *int64
	Players  []int64
	Active   bool
	Started  bool

	Config GameConfig
}

// GameConfig is the host-chosen game setup saved at the configure step.
// Saving it flips the room's started flag, exactly once.
type GameConfig struct {
	GameType    string         `json:"game_type"`
	Playlists   []string       `json:"playlists"`
	TrackLimit  int            `json:"track_limit"`
	DeviceID    string         `json:"device_id"`
	Preferences map[string]any `json:"preferences"`
}

// CurrentRoom describes where a user currently is, durable-store wise.
type CurrentRoom struct {
	InRoom   bool
	RoomCode string
	IsHost   bool
	Started  bool
}

func (r Room) HasPlayer(userID int64) bool {
	for _, id := range r.Players {
		if id == userID {
			return true
		}
	}
	return false
}
