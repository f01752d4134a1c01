// Package memstore is an in-process Store used for local development and
// tests. Every operation runs under one mutex, which also makes bug updates
// atomic.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"bugtrack/apperr"
	"bugtrack/models"
	"bugtrack/store"
)

type Store struct {
	mu       sync.Mutex
	now      func() time.Time
	users    map[string]models.User
	projects map[string]models.Project
	bugs     map[string]models.Bug
}

var _ store.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		now:      time.Now,
		users:    map[string]models.User{},
		projects: map[string]models.Project{},
		bugs:     map[string]models.Bug{},
	}
}

// WithClock replaces the time source; tests use it to make ordering
// deterministic.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

func (s *Store) Ping(ctx context.Context) error { return nil }
func (s *Store) Close()                         {}

// Users

func (s *Store) CreateUser(ctx context.Context, user models.User) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u := store.NewUser(user, s.now())
	for _, existing := range s.users {
		if existing.Email == u.Email {
			return nil, apperr.Conflict("user already exists")
		}
	}
	s.users[u.ID] = u
	return &u, nil
}

func (s *Store) GetUser(ctx context.Context, id string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return nil, apperr.NotFound("user")
	}
	return &u, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	email = store.NormalizeEmail(email)
	for _, u := range s.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, apperr.NotFound("user")
}

func (s *Store) RecordLogin(ctx context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return apperr.NotFound("user")
	}
	u.LastLoginAt = &at
	s.users[id] = u
	return nil
}

func (s *Store) UpdatePassword(ctx context.Context, id, hash string, changedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return apperr.NotFound("user")
	}
	u.PasswordHash = hash
	u.PasswordChangedAt = &changedAt
	u.UpdatedAt = s.now()
	s.users[id] = u
	return nil
}

// Projects

func (s *Store) CreateProject(ctx context.Context, project models.Project) (*models.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := store.NewProject(project, s.now())
	if s.nameTaken(p) {
		return nil, apperr.Conflict("project with same name already exists")
	}
	s.projects[p.ID] = p
	return copyProject(p), nil
}

func (s *Store) GetProject(ctx context.Context, id string) (*models.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.projects[id]
	if !ok {
		return nil, apperr.NotFound("project")
	}
	return copyProject(p), nil
}

func (s *Store) ListProjectsForMember(ctx context.Context, userID string) ([]models.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	projects := []models.Project{}
	for _, p := range s.projects {
		if !p.IsArchived && p.HasMember(userID) {
			projects = append(projects, *copyProject(p))
		}
	}
	sort.SliceStable(projects, func(i, j int) bool {
		return projects[i].UpdatedAt.After(projects[j].UpdatedAt)
	})
	return projects, nil
}

func (s *Store) MemberProjectIDs(ctx context.Context, userID string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := []string{}
	for _, p := range s.projects {
		if p.HasMember(userID) {
			ids = append(ids, p.ID)
		}
	}
	return ids, nil
}

func (s *Store) UpdateProject(ctx context.Context, id string, patch models.ProjectPatch) (*models.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.projects[id]
	if !ok {
		return nil, apperr.NotFound("project")
	}
	if current.IsArchived {
		return nil, store.ErrProjectArchived()
	}
	store.ApplyProjectPatch(&current, patch, s.now())

	if s.nameTaken(current) {
		return nil, apperr.Conflict("project with same name already exists")
	}
	s.projects[id] = current
	return copyProject(current), nil
}

func (s *Store) SetProjectArchived(ctx context.Context, id string, archived bool) (*models.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.projects[id]
	if !ok {
		return nil, apperr.NotFound("project")
	}
	if current.IsArchived == archived {
		return nil, store.ArchiveStateConflict(archived)
	}
	current.IsArchived = archived
	current.UpdatedAt = s.now()

	if s.nameTaken(current) {
		return nil, apperr.Conflict("project with same name already exists")
	}
	s.projects[id] = current
	return copyProject(current), nil
}

func (s *Store) DeleteProject(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.projects[id]; !ok {
		return apperr.NotFound("project")
	}
	delete(s.projects, id)
	for bugID, b := range s.bugs {
		if b.ProjectID == id {
			delete(s.bugs, bugID)
		}
	}
	return nil
}

// nameTaken reports whether another active project of the same owner uses
// p's name. Archived projects never collide.
func (s *Store) nameTaken(p models.Project) bool {
	if p.IsArchived {
		return false
	}
	for _, other := range s.projects {
		if other.ID != p.ID && !other.IsArchived && other.OwnerID == p.OwnerID && other.Name == p.Name {
			return true
		}
	}
	return false
}

// Bugs

func (s *Store) CreateBug(ctx context.Context, bug models.Bug) (*models.Bug, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := store.NewBug(bug, s.now())
	if err != nil {
		return nil, err
	}
	if _, ok := s.projects[b.ProjectID]; !ok {
		return nil, apperr.NotFound("project")
	}
	s.bugs[b.ID] = b
	return copyBug(b), nil
}

func (s *Store) GetBug(ctx context.Context, id string) (*models.Bug, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.bugs[id]
	if !ok {
		return nil, apperr.NotFound("bug")
	}
	return copyBug(b), nil
}

func (s *Store) ListBugs(ctx context.Context, filter models.BugFilter) ([]models.Bug, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	bugs := []models.Bug{}
	for _, b := range s.bugs {
		if store.MatchesFilter(b, filter) {
			bugs = append(bugs, *copyBug(b))
		}
	}
	sort.SliceStable(bugs, func(i, j int) bool {
		if bugs[i].UpdatedAt.Equal(bugs[j].UpdatedAt) {
			return bugs[i].ID < bugs[j].ID
		}
		return bugs[i].UpdatedAt.After(bugs[j].UpdatedAt)
	})
	return bugs, nil
}

func (s *Store) UpdateBug(ctx context.Context, id string, patch models.BugPatch) (*models.Bug, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, ok := s.bugs[id]
	if !ok {
		return nil, apperr.NotFound("bug")
	}
	next, _, err := store.NextBug(prev, patch, s.now())
	if err != nil {
		return nil, err
	}
	s.bugs[id] = next
	return copyBug(next), nil
}

func (s *Store) DeleteBug(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.bugs[id]; !ok {
		return apperr.NotFound("bug")
	}
	delete(s.bugs, id)
	return nil
}

func copyBug(b models.Bug) *models.Bug {
	b.Activity = append([]models.ActivityEntry(nil), b.Activity...)
	return &b
}

func copyProject(p models.Project) *models.Project {
	p.Members = append([]string(nil), p.Members...)
	return &p
}
