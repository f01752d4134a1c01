package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bugtrack/apperr"
	"bugtrack/metrics"
	"bugtrack/models"
	"bugtrack/store"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

const projectColumns = `id, name, description, owner_id, members, is_archived, created_at, updated_at`

func (db *DB) CreateProject(ctx context.Context, project models.Project) (*models.Project, error) {
	defer metrics.TrackDBOperation(backend, "create_project")(time.Now())

	p := store.NewProject(project, db.timestamp())

	query := `
		INSERT INTO projects (` + projectColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := db.Pool.Exec(ctx, query,
		p.ID, p.Name, p.Description, p.OwnerID, p.Members, p.IsArchived, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return nil, mapError(err, "project")
	}

	db.log.Debug("created project", zap.String("project_id", p.ID), zap.String("name", p.Name))
	return &p, nil
}

func (db *DB) GetProject(ctx context.Context, id string) (*models.Project, error) {
	defer metrics.TrackDBOperation(backend, "get_project")(time.Now())

	query := `SELECT ` + projectColumns + ` FROM projects WHERE id = $1`
	project, err := scanProject(db.Pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, mapError(err, "project")
	}
	return project, nil
}

func (db *DB) ListProjectsForMember(ctx context.Context, userID string) ([]models.Project, error) {
	defer metrics.TrackDBOperation(backend, "list_projects")(time.Now())

	query := `
		SELECT ` + projectColumns + `
		FROM projects
		WHERE $1 = ANY(members) AND NOT is_archived
		ORDER BY updated_at DESC
	`

	rows, err := db.Pool.Query(ctx, query, userID)
	if err != nil {
		return nil, mapError(fmt.Errorf("failed to list projects: %w", err), "project")
	}
	defer rows.Close()

	projects, err := scanProjects(rows)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return projects, nil
}

func (db *DB) MemberProjectIDs(ctx context.Context, userID string) ([]string, error) {
	rows, err := db.Pool.Query(ctx, `SELECT id FROM projects WHERE $1 = ANY(members)`, userID)
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("failed to list member projects: %w", err))
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, apperr.Internal(fmt.Errorf("failed to scan project id: %w", err))
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Internal(fmt.Errorf("error iterating project ids: %w", err))
	}
	return ids, nil
}

// UpdateProject writes only the fields set in patch, and only while the
// project is active. The owner is re-added from the stored row.
func (db *DB) UpdateProject(ctx context.Context, id string, patch models.ProjectPatch) (*models.Project, error) {
	defer metrics.TrackDBOperation(backend, "update_project")(time.Now())

	query := `
		UPDATE projects
		SET name = COALESCE($2::text, name),
			description = COALESCE($3::text, description),
			members = CASE
				WHEN $4::text[] IS NULL THEN members
				ELSE array_prepend(owner_id, array_remove($4::text[], owner_id))
			END,
			updated_at = $5
		WHERE id = $1 AND NOT is_archived
		RETURNING ` + projectColumns

	var members any
	if patch.Members != nil {
		members = store.Members(patch.Members)
	}
	updated, err := scanProject(db.Pool.QueryRow(ctx, query,
		id, patch.Name, patch.Description, members, db.timestamp()))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, db.projectWriteMissed(ctx, id, store.ErrProjectArchived())
	}
	if err != nil {
		return nil, mapError(err, "project")
	}
	return updated, nil
}

// SetProjectArchived flips is_archived only if it differs from archived, so
// two racing archive requests cannot both succeed.
func (db *DB) SetProjectArchived(ctx context.Context, id string, archived bool) (*models.Project, error) {
	defer metrics.TrackDBOperation(backend, "archive_project")(time.Now())

	query := `
		UPDATE projects
		SET is_archived = $2, updated_at = $3
		WHERE id = $1 AND is_archived <> $2
		RETURNING ` + projectColumns

	updated, err := scanProject(db.Pool.QueryRow(ctx, query, id, archived, db.timestamp()))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, db.projectWriteMissed(ctx, id, store.ArchiveStateConflict(archived))
	}
	if err != nil {
		return nil, mapError(err, "project")
	}
	return updated, nil
}

// projectWriteMissed explains a conditional update that matched no row:
// either the project is gone or its state rejected the write.
func (db *DB) projectWriteMissed(ctx context.Context, id string, conflict error) error {
	var exists bool
	err := db.Pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM projects WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return mapError(err, "project")
	}
	if !exists {
		return apperr.NotFound("project")
	}
	return conflict
}

// DeleteProject removes the project; bugs and their activity go with it
// through ON DELETE CASCADE.
func (db *DB) DeleteProject(ctx context.Context, id string) error {
	defer metrics.TrackDBOperation(backend, "delete_project")(time.Now())

	result, err := db.Pool.Exec(ctx, `DELETE FROM projects WHERE id = $1`, id)
	if err != nil {
		return mapError(err, "project")
	}
	if result.RowsAffected() == 0 {
		return apperr.NotFound("project")
	}

	db.log.Debug("deleted project", zap.String("project_id", id))
	return nil
}

// Helper functions

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanProject(row rowScanner) (*models.Project, error) {
	var project models.Project
	err := row.Scan(
		&project.ID,
		&project.Name,
		&project.Description,
		&project.OwnerID,
		&project.Members,
		&project.IsArchived,
		&project.CreatedAt,
		&project.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &project, nil
}

type rowsScanner interface {
	Next() bool
	Scan(dest ...interface{}) error
	Err() error
}

func scanProjects(rows rowsScanner) ([]models.Project, error) {
	projects := []models.Project{}
	for rows.Next() {
		project, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		projects = append(projects, *project)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating projects: %w", err)
	}

	return projects, nil
}
