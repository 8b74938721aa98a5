package infra_postgres_user

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"

	"github.com/vibevortex/core/internal/model"
	usecase_user "github.com/vibevortex/core/internal/usecase/user"
)

type Driver struct {
	db *sqlx.DB
}

func New(db *sqlx.DB) *Driver {
	return &Driver{db: db}
}

type userDTO struct {
	ID           int64          `db:"id"`
	Username     string         `db:"username"`
	Password     string         `db:"password"`
	Email        string         `db:"email"`
	ProfileImage sql.NullString `db:"profile_image"`
	SpotifyID    sql.NullString `db:"spotify_id"`
	LastLoginIP  sql.NullString `db:"last_login_ip"`
	Admin        bool           `db:"admin"`
}

func (dto userDTO) toModel() model.User {
	return model.User{
		ID:           dto.ID,
		Username:     dto.Username,
		Email:        dto.Email,
		PasswordHash: dto.Password,
		ProfileImage: dto.ProfileImage.String,
		SpotifyID:    dto.SpotifyID.String,
		LastLoginIP:  dto.LastLoginIP.String,
		Admin:        dto.Admin,
	}
}

func (d *Driver) UsernameExists(ctx context.Context, username string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM users WHERE username = $1)`

	if err := d.db.GetContext(ctx, &exists, query, username); err != nil {
		return false, err
	}
	return exists, nil
}

func (d *Driver) EmailExists(ctx context.Context, email string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)`

	if err := d.db.GetContext(ctx, &exists, query, email); err != nil {
		return false, err
	}
	return exists, nil
}

func (d *Driver) Create(ctx context.Context, user model.User) (int64, error) {
	var id int64
	query := `
		INSERT INTO users (username, password, email, profile_image, admin)
		VALUES ($1, $2, $3, NULLIF($4, ''), $5)
		RETURNING id
	`

	err := d.db.GetContext(ctx, &id, query,
		user.Username, user.PasswordHash, user.Email, user.ProfileImage, user.Admin)
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (d *Driver) ByEmail(ctx context.Context, email string) (model.User, error) {
	var dto userDTO
	query := `SELECT * FROM users WHERE email = $1 LIMIT 1`

	err := d.db.GetContext(ctx, &dto, query, email)
	if err != nil {
		if err == sql.ErrNoRows {
			return model.User{}, usecase_user.ErrResourceNotFound
		}
		return model.User{}, err
	}
	return dto.toModel(), nil
}

func (d *Driver) ByID(ctx context.Context, id int64) (model.User, error) {
	var dto userDTO
	query := `SELECT * FROM users WHERE id = $1 LIMIT 1`

	err := d.db.GetContext(ctx, &dto, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return model.User{}, usecase_user.ErrResourceNotFound
		}
		return model.User{}, err
	}
	return dto.toModel(), nil
}

func (d *Driver) InfoByIDs(ctx context.Context, ids []int64) ([]model.UserInfo, error) {
	if len(ids) == 0 {
		return []model.UserInfo{}, nil
	}

	query, args, err := sqlx.In(`SELECT id, username, profile_image FROM users WHERE id IN (?)`, ids)
	if err != nil {
		return nil, err
	}
	query = d.db.Rebind(query)

	var dtos []userDTO
	if err := d.db.SelectContext(ctx, &dtos, query, args...); err != nil {
		return nil, err
	}

	info := make([]model.UserInfo, 0, len(dtos))
	for _, dto := range dtos {
		info = append(info, model.UserInfo{
			ID:           dto.ID,
			Username:     dto.Username,
			ProfileImage: dto.ProfileImage.String,
		})
	}
	return info, nil
}

func (d *Driver) List(ctx context.Context, search string, limit, offset int) ([]model.UserInfo, int, error) {
	pattern := "%" + search + "%"

	var total int
	countQuery := `SELECT COUNT(*) FROM users WHERE username ILIKE $1 OR email ILIKE $1`
	if err := d.db.GetContext(ctx, &total, countQuery, pattern); err != nil {
		return nil, 0, err
	}

	var dtos []userDTO
	query := `
		SELECT id, username, profile_image
		FROM users
		WHERE username ILIKE $1 OR email ILIKE $1
		ORDER BY id
		LIMIT $2 OFFSET $3
	`
	if err := d.db.SelectContext(ctx, &dtos, query, pattern, limit, offset); err != nil {
		return nil, 0, err
	}

	users := make([]model.UserInfo, 0, len(dtos))
	for _, dto := range dtos {
		users = append(users, model.UserInfo{
			ID:           dto.ID,
			Username:     dto.Username,
			ProfileImage: dto.ProfileImage.String,
		})
	}
	return users, total, nil
}

func (d *Driver) Stats(ctx context.Context) (model.UserStats, error) {
	var stats model.UserStats
	query := `
		SELECT
			COUNT(*) AS total,
			COUNT(*) FILTER (WHERE admin) AS admins,
			COUNT(*) FILTER (WHERE spotify_id IS NOT NULL) AS linked
		FROM users
	`

	row := d.db.QueryRowContext(ctx, query)
	if err := row.Scan(&stats.Total, &stats.Admins, &stats.Linked); err != nil {
		return model.UserStats{}, err
	}
	return stats, nil
}

func (d *Driver) UpdateSpotifyID(ctx context.Context, id int64, spotifyID string) error {
	query := `UPDATE users SET spotify_id = $1 WHERE id = $2`

	result, err := d.db.ExecContext(ctx, query, spotifyID, id)
	if err != nil {
		return err
	}
	return requireRows(result)
}

func (d *Driver) UpdateLastLoginIP(ctx context.Context, id int64, ip string) error {
	query := `UPDATE users SET last_login_ip = $1 WHERE id = $2`

	result, err := d.db.ExecContext(ctx, query, ip, id)
	if err != nil {
		return err
	}
	return requireRows(result)
}

func (d *Driver) SetAdmin(ctx context.Context, id int64, admin bool) error {
	query := `UPDATE users SET admin = $1 WHERE id = $2`

	result, err := d.db.ExecContext(ctx, query, admin, id)
	if err != nil {
		return err
	}
	return requireRows(result)
}

func (d *Driver) CountAdmins(ctx context.Context) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM users WHERE admin`

	if err := d.db.GetContext(ctx, &count, query); err != nil {
		return 0, err
	}
	return count, nil
}

func (d *Driver) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	query := `UPDATE users SET password = $1 WHERE id = $2`

	result, err := d.db.ExecContext(ctx, query, passwordHash, id)
	if err != nil {
		return err
	}
	return requireRows(result)
}

func (d *Driver) Delete(ctx context.Context, id int64) error {
	query := `DELETE FROM users WHERE id = $1`

	result, err := d.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	return requireRows(result)
}

func requireRows(result sql.Result) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return usecase_user.ErrResourceNotFound
	}
	return nil
}
