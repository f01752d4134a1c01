// Package database is the PostgreSQL implementation of store.Store.
package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bugtrack/apperr"
	"bugtrack/store"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const backend = "postgres"

type DB struct {
	Pool *pgxpool.Pool
	log  *zap.Logger
	now  func() time.Time
}

var _ store.Store = (*DB)(nil)

// BatchInsertError indicates which activity entry failed during a batched
// insert.
type BatchInsertError struct {
	FailedIndex int
	Total       int
	Err         error
}

func (e *BatchInsertError) Error() string {
	return fmt.Sprintf("failed to insert activity entry %d/%d: %v", e.FailedIndex, e.Total, e.Err)
}

func (e *BatchInsertError) Unwrap() error {
	return e.Err
}

func Connect(ctx context.Context, databaseURL string, log *zap.Logger) (*DB, error) {
	if log == nil {
		log = zap.NewNop()
	}

	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	config.MaxConns = 25
	config.MinConns = 5
	config.MaxConnLifetime = time.Hour
	config.MaxConnIdleTime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Info("database connection established", zap.String("backend", backend))
	return &DB{Pool: pool, log: log, now: time.Now}, nil
}

// timestamp returns the current time at the precision postgres stores, so
// values returned to callers match what a later read yields.
func (db *DB) timestamp() time.Time {
	return db.now().UTC().Truncate(time.Microsecond)
}

func (db *DB) Ping(ctx context.Context) error {
	return db.Pool.Ping(ctx)
}

func (db *DB) Close() {
	db.Pool.Close()
	db.log.Info("database connection closed")
}

// mapError translates driver errors into apperr kinds. entity names the
// record for not-found errors.
func mapError(err error, entity string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return apperr.NotFound(entity)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			switch pgErr.ConstraintName {
			case "users_email_key":
				return apperr.Conflict("user already exists")
			case "projects_owner_name_active":
				return apperr.Conflict("project with same name already exists")
			}
			return apperr.Conflict("%s already exists", entity)
		case "23503":
			switch pgErr.ConstraintName {
			case "bugs_project_id_fkey":
				return apperr.NotFound("project")
			case "projects_owner_id_fkey":
				return apperr.NotFound("user")
			}
			return apperr.Validation("%s references a missing record", entity)
		case "23514":
			return apperr.Validation("invalid %s", entity)
		}
	}

	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		return err
	}
	return apperr.Internal(err)
}
