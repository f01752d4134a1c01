package database

import (
	"context"
	"fmt"
	"time"

	"bugtrack/apperr"
	"bugtrack/metrics"
	"bugtrack/models"
	"bugtrack/store"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

const bugColumns = `id, project_id, title, description, priority, status, assigned_to, version, created_at, updated_at`

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func (db *DB) CreateBug(ctx context.Context, bug models.Bug) (*models.Bug, error) {
	defer metrics.TrackDBOperation(backend, "create_bug")(time.Now())

	b, err := store.NewBug(bug, db.timestamp())
	if err != nil {
		return nil, err
	}

	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("failed to begin transaction: %w", err))
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO bugs (` + bugColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err = tx.Exec(ctx, query,
		b.ID, b.ProjectID, b.Title, b.Description, b.Priority, b.Status, b.AssignedTo,
		b.Version, b.CreatedAt, b.UpdatedAt)
	if err != nil {
		return nil, mapError(err, "bug")
	}

	if err := insertActivity(ctx, tx, b.ID, b.Activity); err != nil {
		return nil, apperr.Internal(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, apperr.Internal(fmt.Errorf("failed to commit bug: %w", err))
	}

	return &b, nil
}

func (db *DB) GetBug(ctx context.Context, id string) (*models.Bug, error) {
	defer metrics.TrackDBOperation(backend, "get_bug")(time.Now())

	bug, err := getBug(ctx, db.Pool, id, false)
	if err != nil {
		return nil, err
	}
	return bug, nil
}

func (db *DB) ListBugs(ctx context.Context, filter models.BugFilter) ([]models.Bug, error) {
	defer metrics.TrackDBOperation(backend, "list_bugs")(time.Now())

	if filter.ProjectIDs != nil && len(filter.ProjectIDs) == 0 {
		return []models.Bug{}, nil
	}

	qb := NewQueryBuilder()
	qb.BugFilter(filter)

	// SAFETY: whereClause only contains column names and $N placeholders.
	query := fmt.Sprintf(`
		SELECT %s
		FROM bugs
		%s
		ORDER BY updated_at DESC, id
	`, bugColumns, qb.WhereClause())

	rows, err := db.Pool.Query(ctx, query, qb.Args()...)
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("failed to query bugs: %w", err))
	}
	bugs, err := scanBugs(rows)
	rows.Close()
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if len(bugs) == 0 {
		return bugs, nil
	}

	ids := make([]string, len(bugs))
	for i, b := range bugs {
		ids[i] = b.ID
	}
	trails, err := loadActivity(ctx, db.Pool, ids)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	for i := range bugs {
		bugs[i].Activity = trails[bugs[i].ID]
		if bugs[i].Activity == nil {
			bugs[i].Activity = []models.ActivityEntry{}
		}
	}

	return bugs, nil
}

// UpdateBug runs load, diff, write and activity append in one transaction.
// The row lock taken by SELECT ... FOR UPDATE makes concurrent updates of
// the same bug queue behind each other, so every diff sees the latest state.
func (db *DB) UpdateBug(ctx context.Context, id string, patch models.BugPatch) (*models.Bug, error) {
	defer metrics.TrackDBOperation(backend, "update_bug")(time.Now())

	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("failed to begin transaction: %w", err))
	}
	defer tx.Rollback(ctx)

	prev, err := getBug(ctx, tx, id, true)
	if err != nil {
		return nil, err
	}

	next, entries, err := store.NextBug(*prev, patch, db.timestamp())
	if err != nil {
		return nil, err
	}

	query := `
		UPDATE bugs
		SET title = $2, description = $3, priority = $4, status = $5,
			assigned_to = $6, version = $7, updated_at = $8
		WHERE id = $1
	`
	_, err = tx.Exec(ctx, query,
		next.ID, next.Title, next.Description, next.Priority, next.Status,
		next.AssignedTo, next.Version, next.UpdatedAt)
	if err != nil {
		return nil, mapError(err, "bug")
	}

	if err := insertActivity(ctx, tx, id, entries); err != nil {
		return nil, apperr.Internal(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, apperr.Internal(fmt.Errorf("failed to commit bug update: %w", err))
	}

	db.log.Debug("updated bug",
		zap.String("bug_id", id),
		zap.Int("version", next.Version),
		zap.Int("entries", len(entries)))
	return &next, nil
}

func (db *DB) DeleteBug(ctx context.Context, id string) error {
	defer metrics.TrackDBOperation(backend, "delete_bug")(time.Now())

	result, err := db.Pool.Exec(ctx, `DELETE FROM bugs WHERE id = $1`, id)
	if err != nil {
		return mapError(err, "bug")
	}
	if result.RowsAffected() == 0 {
		return apperr.NotFound("bug")
	}
	return nil
}

func getBug(ctx context.Context, q querier, id string, forUpdate bool) (*models.Bug, error) {
	query := `SELECT ` + bugColumns + ` FROM bugs WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	bug, err := scanBug(q.QueryRow(ctx, query, id))
	if err != nil {
		return nil, mapError(err, "bug")
	}

	trails, err := loadActivity(ctx, q, []string{id})
	if err != nil {
		return nil, apperr.Internal(err)
	}
	bug.Activity = trails[id]
	if bug.Activity == nil {
		bug.Activity = []models.ActivityEntry{}
	}
	return bug, nil
}

// insertActivity appends entries with one batch round-trip.
func insertActivity(ctx context.Context, tx pgx.Tx, bugID string, entries []models.ActivityEntry) error {
	if len(entries) == 0 {
		return nil
	}

	query := `INSERT INTO bug_activity (bug_id, message, created_at) VALUES ($1, $2, $3)`

	batch := &pgx.Batch{}
	for _, e := range entries {
		batch.Queue(query, bugID, e.Message, e.Timestamp)
	}

	results := tx.SendBatch(ctx, batch)
	for i := range entries {
		if _, err := results.Exec(); err != nil {
			results.Close()
			return &BatchInsertError{FailedIndex: i, Total: len(entries), Err: err}
		}
	}
	return results.Close()
}

// loadActivity returns the trails of the given bugs keyed by bug id, each
// oldest first.
func loadActivity(ctx context.Context, q querier, bugIDs []string) (map[string][]models.ActivityEntry, error) {
	query := `
		SELECT bug_id, message, created_at
		FROM bug_activity
		WHERE bug_id = ANY($1)
		ORDER BY id
	`

	rows, err := q.Query(ctx, query, bugIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to query activity: %w", err)
	}
	defer rows.Close()

	trails := map[string][]models.ActivityEntry{}
	for rows.Next() {
		var bugID string
		var e models.ActivityEntry
		if err := rows.Scan(&bugID, &e.Message, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan activity: %w", err)
		}
		trails[bugID] = append(trails[bugID], e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating activity: %w", err)
	}
	return trails, nil
}

func scanBug(row rowScanner) (*models.Bug, error) {
	var b models.Bug
	err := row.Scan(
		&b.ID,
		&b.ProjectID,
		&b.Title,
		&b.Description,
		&b.Priority,
		&b.Status,
		&b.AssignedTo,
		&b.Version,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func scanBugs(rows rowsScanner) ([]models.Bug, error) {
	bugs := []models.Bug{}
	for rows.Next() {
		bug, err := scanBug(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan bug: %w", err)
		}
		bugs = append(bugs, *bug)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating bugs: %w", err)
	}
	return bugs, nil
}
