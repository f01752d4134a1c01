package database

import (
	"context"
	"time"

	"bugtrack/apperr"
	"bugtrack/metrics"
	"bugtrack/models"
	"bugtrack/store"
)

const userColumns = `id, name, email, password_hash, role, is_active, last_login_at,
	password_changed_at, created_at, updated_at`

func (db *DB) CreateUser(ctx context.Context, user models.User) (*models.User, error) {
	defer metrics.TrackDBOperation(backend, "create_user")(time.Now())

	u := store.NewUser(user, db.timestamp())

	query := `
		INSERT INTO users (` + userColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := db.Pool.Exec(ctx, query,
		u.ID, u.Name, u.Email, u.PasswordHash, u.Role, u.IsActive,
		u.LastLoginAt, u.PasswordChangedAt, u.CreatedAt, u.UpdatedAt)
	if err != nil {
		return nil, mapError(err, "user")
	}

	return &u, nil
}

func (db *DB) GetUser(ctx context.Context, id string) (*models.User, error) {
	defer metrics.TrackDBOperation(backend, "get_user")(time.Now())

	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	user, err := scanUser(db.Pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, mapError(err, "user")
	}
	return user, nil
}

func (db *DB) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	defer metrics.TrackDBOperation(backend, "get_user_by_email")(time.Now())

	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	user, err := scanUser(db.Pool.QueryRow(ctx, query, store.NormalizeEmail(email)))
	if err != nil {
		return nil, mapError(err, "user")
	}
	return user, nil
}

func (db *DB) RecordLogin(ctx context.Context, id string, at time.Time) error {
	result, err := db.Pool.Exec(ctx, `UPDATE users SET last_login_at = $2 WHERE id = $1`, id, at)
	if err != nil {
		return mapError(err, "user")
	}
	if result.RowsAffected() == 0 {
		return apperr.NotFound("user")
	}
	return nil
}

func (db *DB) UpdatePassword(ctx context.Context, id, hash string, changedAt time.Time) error {
	query := `
		UPDATE users
		SET password_hash = $2, password_changed_at = $3, updated_at = $4
		WHERE id = $1
	`
	result, err := db.Pool.Exec(ctx, query, id, hash, changedAt, db.timestamp())
	if err != nil {
		return mapError(err, "user")
	}
	if result.RowsAffected() == 0 {
		return apperr.NotFound("user")
	}
	return nil
}

func scanUser(row rowScanner) (*models.User, error) {
	var u models.User
	err := row.Scan(
		&u.ID,
		&u.Name,
		&u.Email,
		&u.PasswordHash,
		&u.Role,
		&u.IsActive,
		&u.LastLoginAt,
		&u.PasswordChangedAt,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}
