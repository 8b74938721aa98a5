package model

// Track is the slice of playlist metadata the guessing game needs.
// The server never referees guesses; tracks are handed to clients as-is.
type Track struct {
	Name       string   `json:"name"`
	Artists    []string `json:"artists"`
	URI        string   `json:"uri"`
	AlbumCover string   `json:"album_cover"`
}
