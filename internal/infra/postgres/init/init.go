package infra_pg_init

import (
	"fmt"
	"log"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/vibevortex/core/internal/config"
)

func MustEstablishConn(cfg config.Postgres) *sqlx.DB {
	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host,
		cfg.Port,
		cfg.User,
		cfg.Password,
		cfg.DBName,
		cfg.SSLMode,
	)
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		log.Fatal(err)
	}

	return db
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            BIGSERIAL PRIMARY KEY,
		username      VARCHAR(32) NOT NULL UNIQUE,
		password      VARCHAR(100) NOT NULL,
		email         VARCHAR(100) NOT NULL,
		profile_image VARCHAR(255),
		spotify_id    VARCHAR(50),
		last_login_ip VARCHAR(45),
		admin         BOOLEAN NOT NULL DEFAULT FALSE
	)`,
	`CREATE TABLE IF NOT EXISTS games (
		game_id     BIGSERIAL PRIMARY KEY,
		room_key    VARCHAR(7) NOT NULL,
		host_id     BIGINT,
		winner_id   BIGINT,
		players     JSONB NOT NULL DEFAULT '[]',
		active      BOOLEAN NOT NULL DEFAULT TRUE,
		started     BOOLEAN NOT NULL DEFAULT FALSE,
		game_type   VARCHAR(50),
		playlists   JSONB NOT NULL DEFAULT '[]',
		track_limit INT,
		device_id   VARCHAR(50),
		preferences JSONB NOT NULL DEFAULT '{}'
	)`,
	// Room codes are only unique among active rooms; finished games keep
	// their key and the code becomes reusable.
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_games_room_key_active ON games (room_key) WHERE active`,
	`CREATE TABLE IF NOT EXISTS settings (
		key   VARCHAR(64) PRIMARY KEY,
		value JSONB NOT NULL
	)`,
}

// MustMigrate applies the schema. Statements are all IF NOT EXISTS, so the
// call is safe on every startup.
func MustMigrate(db *sqlx.DB) {
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			log.Fatalf("migration failed: %v", err)
		}
	}
}
