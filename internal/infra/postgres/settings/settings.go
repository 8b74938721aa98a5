package infra_postgres_settings

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/jmoiron/sqlx"

	usecase_user "github.com/vibevortex/core/internal/usecase/user"
)

// Driver is a small JSON key-value store on top of the settings table.
type Driver struct {
	db *sqlx.DB
}

func New(db *sqlx.DB) *Driver {
	return &Driver{db: db}
}

func (d *Driver) Get(ctx context.Context, key string, out any) error {
	var raw json.RawMessage
	query := `SELECT value FROM settings WHERE key = $1`

	err := d.db.GetContext(ctx, &raw, query, key)
	if err != nil {
		if err == sql.ErrNoRows {
			return usecase_user.ErrResourceNotFound
		}
		return err
	}
	return json.Unmarshal(raw, out)
}

func (d *Driver) Set(ctx context.Context, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO settings (key, value)
		VALUES ($1, $2)
		ON CONFLICT (key)
		DO UPDATE SET value = $2
	`

	_, err = d.db.ExecContext(ctx, query, key, raw)
	return err
}
