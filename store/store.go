// Package store declares the persistence contract shared by the postgres,
// mongo and memory backends.
//
// Backends report failures as apperr kinds: NotFound for unknown ids,
// Conflict for unique-key violations and version mismatches, Validation for
// missing required references.
package store

import (
	"context"
	"time"

	"bugtrack/models"
)

type UserStore interface {
	// CreateUser assigns ID and timestamps. Emails are unique.
	CreateUser(ctx context.Context, user models.User) (*models.User, error)
	GetUser(ctx context.Context, id string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	RecordLogin(ctx context.Context, id string, at time.Time) error
	UpdatePassword(ctx context.Context, id, hash string, changedAt time.Time) error
}

type ProjectStore interface {
	// CreateProject assigns ID and timestamps. Names are unique per owner
	// among non-archived projects.
	CreateProject(ctx context.Context, project models.Project) (*models.Project, error)
	GetProject(ctx context.Context, id string) (*models.Project, error)
	// ListProjectsForMember returns non-archived projects the user belongs
	// to, most recently updated first.
	ListProjectsForMember(ctx context.Context, userID string) ([]models.Project, error)
	// MemberProjectIDs returns the ids of every project the user belongs to,
	// archived ones included.
	MemberProjectIDs(ctx context.Context, userID string) ([]string, error)
	// UpdateProject writes the fields set in patch. The write only applies
	// to a non-archived project; an archived one yields ErrProjectArchived.
	UpdateProject(ctx context.Context, id string, patch models.ProjectPatch) (*models.Project, error)
	// SetProjectArchived flips the archive flag. A project already in the
	// requested state yields ArchiveStateConflict.
	SetProjectArchived(ctx context.Context, id string, archived bool) (*models.Project, error)
	// DeleteProject removes the project and its bugs.
	DeleteProject(ctx context.Context, id string) error
}

type BugStore interface {
	// CreateBug assigns ID, timestamps and version and seeds the activity
	// trail with the creation entry.
	CreateBug(ctx context.Context, bug models.Bug) (*models.Bug, error)
	GetBug(ctx context.Context, id string) (*models.Bug, error)
	// ListBugs returns matching bugs, most recently updated first.
	ListBugs(ctx context.Context, filter models.BugFilter) ([]models.Bug, error)
	// UpdateBug diffs the patch against the stored bug, applies it and
	// appends one activity entry per changed tracked field. The whole
	// sequence is atomic with respect to other updates of the same bug.
	UpdateBug(ctx context.Context, id string, patch models.BugPatch) (*models.Bug, error)
	DeleteBug(ctx context.Context, id string) error
}

// Store is a complete backend.
type Store interface {
	UserStore
	ProjectStore
	BugStore
	Ping(ctx context.Context) error
	Close()
}
