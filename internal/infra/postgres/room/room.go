package infra_postgres_room

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/vibevortex/core/internal/model"
	usecase_room "github.com/vibevortex/core/internal/usecase/room"
)

type Driver struct {
	db *sqlx.DB
}

func New(db *sqlx.DB) *Driver {
	return &Driver{db: db}
}

type gameDTO struct {
	GameID      int64           `db:"game_id"`
	RoomKey     string          `db:"room_key"`
	HostID      sql.NullInt64   `db:"host_id"`
	WinnerID    sql.NullInt64   `db:"winner_id"`
	Players     json.RawMessage `db:"players"`
	Active      bool            `db:"active"`
	Started     bool            `db:"started"`
	GameType    sql.NullString  `db:"game_type"`
	Playlists   json.RawMessage `db:"playlists"`
	TrackLimit  sql.NullInt64   `db:"track_limit"`
	DeviceID    sql.NullString  `db:"device_id"`
	Preferences json.RawMessage `db:"preferences"`
}

func (d *Driver) Create(ctx context.Context, room model.Room) error {
	players, err := json.Marshal(room.Players)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO games (room_key, host_id, players, active, started)
		VALUES ($1, $2, $3, $4, FALSE)
	`

	_, err = d.db.ExecContext(ctx, query, room.RoomCode, room.HostID, players, room.Active)
	if err != nil {
		if strings.Contains(err.Error(), "unique constraint") ||
			strings.Contains(err.Error(), "duplicate key") {
			return usecase_room.ErrCodeConflict
		}
		return err
	}
	return nil
}

func (d *Driver) IsActiveCode(ctx context.Context, code string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM games WHERE room_key = $1 AND active)`

	if err := d.db.GetContext(ctx, &exists, query, code); err != nil {
		return false, err
	}
	return exists, nil
}

func (d *Driver) HostID(ctx context.Context, code string) (int64, error) {
	var hostID sql.NullInt64
	query := `SELECT host_id FROM games WHERE room_key = $1 AND active LIMIT 1`

	err := d.db.GetContext(ctx, &hostID, query, code)
	if err != nil {
		if err == sql.ErrNoRows {
			return 0, usecase_room.ErrResourceNotFound
		}
		return 0, err
	}
	return hostID.Int64, nil
}

func (d *Driver) Players(ctx context.Context, code string) ([]int64, error) {
	var raw json.RawMessage
	query := `SELECT players FROM games WHERE room_key = $1 AND active LIMIT 1`

	err := d.db.GetContext(ctx, &raw, query, code)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, usecase_room.ErrResourceNotFound
		}
		return nil, err
	}

	var players []int64
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &players); err != nil {
			return nil, err
		}
	}
	return players, nil
}

func (d *Driver) SetPlayers(ctx context.Context, code string, players []int64) error {
	raw, err := json.Marshal(players)
	if err != nil {
		return err
	}

	query := `UPDATE games SET players = $1 WHERE room_key = $2 AND active`

	result, err := d.db.ExecContext(ctx, query, raw, code)
	if err != nil {
		return err
	}
	return requireRows(result)
}

func (d *Driver) Deactivate(ctx context.Context, code string) error {
	query := `UPDATE games SET active = FALSE WHERE room_key = $1 AND active`

	result, err := d.db.ExecContext(ctx, query, code)
	if err != nil {
		return err
	}
	return requireRows(result)
}

func (d *Driver) SaveConfiguration(ctx context.Context, code string, cfg model.GameConfig) error {
	playlists, err := json.Marshal(cfg.Playlists)
	if err != nil {
		return err
	}
	preferences, err := json.Marshal(cfg.Preferences)
	if err != nil {
		return err
	}

	query := `
		UPDATE games
		SET game_type = $1, playlists = $2, track_limit = $3, device_id = $4, preferences = $5, started = TRUE
		WHERE room_key = $6 AND active
	`

	result, err := d.db.ExecContext(ctx, query,
		cfg.GameType, playlists, cfg.TrackLimit, cfg.DeviceID, preferences, code)
	if err != nil {
		return err
	}
	return requireRows(result)
}

func (d *Driver) Preferences(ctx context.Context, code string) (model.GameConfig, error) {
	var dto gameDTO
	query := `
		SELECT game_type, playlists, track_limit, device_id, preferences
		FROM games
		WHERE room_key = $1 AND active
		LIMIT 1
	`

	err := d.db.GetContext(ctx, &dto, query, code)
	if err != nil {
		if err == sql.ErrNoRows {
			return model.GameConfig{}, usecase_room.ErrResourceNotFound
		}
		return model.GameConfig{}, err
	}

	cfg := model.GameConfig{
		GameType:   dto.GameType.String,
		TrackLimit: int(dto.TrackLimit.Int64),
		DeviceID:   dto.DeviceID.String,
		Playlists:  []string{},
	}
	if len(dto.Playlists) > 0 {
		if err := json.Unmarshal(dto.Playlists, &cfg.Playlists); err != nil {
			return model.GameConfig{}, err
		}
	}
	cfg.Preferences = map[string]any{}
	if len(dto.Preferences) > 0 {
		if err := json.Unmarshal(dto.Preferences, &cfg.Preferences); err != nil {
			return model.GameConfig{}, err
		}
	}
	return cfg, nil
}

// ActiveRoomFor scans active rooms for one containing userID. Player lists
// are short JSON arrays; the containment check runs in SQL against jsonb.
func (d *Driver) ActiveRoomFor(ctx context.Context, userID int64) (model.CurrentRoom, error) {
	var dto gameDTO
	query := `
		SELECT room_key, host_id, started, players, active
		FROM games
		WHERE active AND players @> to_jsonb($1::bigint)
		LIMIT 1
	`

	err := d.db.GetContext(ctx, &dto, query, userID)
	if err != nil {
		if err == sql.ErrNoRows {
			return model.CurrentRoom{}, nil
		}
		return model.CurrentRoom{}, err
	}

	return model.CurrentRoom{
		InRoom:   true,
		RoomCode: dto.RoomKey,
		IsHost:   dto.HostID.Valid && dto.HostID.Int64 == userID,
		Started:  dto.Started,
	}, nil
}

func requireRows(result sql.Result) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return usecase_room.ErrResourceNotFound
	}
	return nil
}
