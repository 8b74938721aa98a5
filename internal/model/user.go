package model

type User struct {
	ID           int64
	Username     string
	Email        string
	PasswordHash string
	ProfileImage string
	SpotifyID    string
	LastLoginIP  string
	Admin        bool
}

// UserInfo is the public projection of a user shown to other players.
type UserInfo struct {
	ID           int64  `json:"id"`
	Username     string `json:"username"`
	ProfileImage string `json:"profile_image"`
}

type UserStats struct {
	Total  int `json:"total"`
	Admins int `json:"admins"`
	Linked int `json:"linked"`
}
