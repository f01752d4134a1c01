package memstore

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"bugtrack/apperr"
	"bugtrack/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

// tickingClock returns a clock that advances one second per call.
func tickingClock() func() time.Time {
	var mu sync.Mutex
	t := time.Date(2024, 11, 22, 10, 0, 0, 0, time.UTC)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t = t.Add(time.Second)
		return t
	}
}

func newTestStore(t *testing.T) (*Store, *models.Project) {
	t.Helper()
	s := New().WithClock(tickingClock())
	p, err := s.CreateProject(context.Background(), models.Project{Name: "P1", OwnerID: "u1"})
	require.NoError(t, err)
	return s, p
}

func TestBugLifecycle(t *testing.T) {
	s, p := newTestStore(t)
	ctx := context.Background()

	bug, err := s.CreateBug(ctx, models.Bug{Title: "Login fails", ProjectID: p.ID})
	require.NoError(t, err)
	assert.Equal(t, models.StatusOpen, bug.Status)
	assert.Equal(t, models.PriorityMedium, bug.Priority)
	require.Len(t, bug.Activity, 1)
	assert.Equal(t, "Bug created", bug.Activity[0].Message)

	updated, err := s.UpdateBug(ctx, bug.ID, models.BugPatch{Status: ptr(models.StatusInProgress)})
	require.NoError(t, err)
	require.Len(t, updated.Activity, 2)
	assert.Equal(t, "Status changed from open → in-progress", updated.Activity[1].Message)

	again, err := s.UpdateBug(ctx, bug.ID, models.BugPatch{Status: ptr(models.StatusInProgress)})
	require.NoError(t, err)
	assert.Len(t, again.Activity, 2)

	partial, err := s.UpdateBug(ctx, bug.ID, models.BugPatch{Title: ptr("x"), Description: ptr("")})
	require.NoError(t, err)
	require.Len(t, partial.Activity, 3)
	assert.Equal(t, "Title updated", partial.Activity[2].Message)

	require.NoError(t, s.DeleteBug(ctx, bug.ID))
	_, err = s.GetBug(ctx, bug.ID)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
	assert.True(t, apperr.Is(s.DeleteBug(ctx, bug.ID), apperr.KindNotFound))
}

func TestCreateBug_UnknownProject(t *testing.T) {
	s := New()

	_, err := s.CreateBug(context.Background(), models.Bug{Title: "x", ProjectID: "missing"})
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	_, err = s.CreateBug(context.Background(), models.Bug{Title: "x"})
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestUpdateBug_NotFound(t *testing.T) {
	s := New()

	_, err := s.UpdateBug(context.Background(), "missing", models.BugPatch{Title: ptr("x")})
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestUpdateBug_ActivityAppendOnly(t *testing.T) {
	s, p := newTestStore(t)
	ctx := context.Background()

	bug, err := s.CreateBug(ctx, models.Bug{Title: "t", ProjectID: p.ID})
	require.NoError(t, err)

	patches := []models.BugPatch{
		{Status: ptr(models.StatusDone)},
		{AssignedTo: ptr("Dana"), Priority: ptr(models.PriorityHigh)},
		{AssignedTo: ptr("Dana")},
		{Description: ptr("steps"), Title: ptr("t2")},
		{Status: ptr(models.StatusOpen), AssignedTo: ptr("")},
	}

	before := bug.Activity
	for _, patch := range patches {
		after, err := s.UpdateBug(ctx, bug.ID, patch)
		require.NoError(t, err)
		require.GreaterOrEqual(t, len(after.Activity), len(before))
		assert.Equal(t, before, after.Activity[:len(before)])
		before = after.Activity
	}
	assert.Len(t, before, 8)
}

func TestUpdateBug_ReturnedCopyIsDetached(t *testing.T) {
	s, p := newTestStore(t)
	ctx := context.Background()

	bug, err := s.CreateBug(ctx, models.Bug{Title: "t", ProjectID: p.ID})
	require.NoError(t, err)
	bug.Activity[0].Message = "tampered"

	stored, err := s.GetBug(ctx, bug.ID)
	require.NoError(t, err)
	assert.Equal(t, "Bug created", stored.Activity[0].Message)
}

func TestUpdateBug_VersionConflict(t *testing.T) {
	s, p := newTestStore(t)
	ctx := context.Background()

	bug, err := s.CreateBug(ctx, models.Bug{Title: "t", ProjectID: p.ID})
	require.NoError(t, err)

	_, err = s.UpdateBug(ctx, bug.ID, models.BugPatch{Status: ptr(models.StatusDone), Version: ptr(bug.Version)})
	require.NoError(t, err)

	_, err = s.UpdateBug(ctx, bug.ID, models.BugPatch{Status: ptr(models.StatusOpen), Version: ptr(bug.Version)})
	assert.True(t, apperr.Is(err, apperr.KindConflict))
}

func TestUpdateBug_ConcurrentUpdatesSerialize(t *testing.T) {
	s, p := newTestStore(t)
	ctx := context.Background()

	bug, err := s.CreateBug(ctx, models.Bug{Title: "t", ProjectID: p.ID})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := s.UpdateBug(ctx, bug.ID, models.BugPatch{AssignedTo: ptr(fmt.Sprintf("dev-%d", i))})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	final, err := s.GetBug(ctx, bug.ID)
	require.NoError(t, err)
	require.Len(t, final.Activity, 21)
	assert.Equal(t, 21, final.Version)

	// Each entry's "from" value is the previous entry's "to" value.
	prevTo := "Unassigned"
	for _, entry := range final.Activity[1:] {
		var from, to string
		_, err := fmt.Sscanf(entry.Message, "Assignee changed from %s → %s", &from, &to)
		require.NoError(t, err)
		assert.Equal(t, prevTo, from)
		prevTo = to
	}
	assert.Equal(t, final.AssignedTo, prevTo)
}

func TestListBugs(t *testing.T) {
	s, p := newTestStore(t)
	ctx := context.Background()
	other, err := s.CreateProject(ctx, models.Project{Name: "P2", OwnerID: "u1"})
	require.NoError(t, err)

	first, err := s.CreateBug(ctx, models.Bug{Title: "first", ProjectID: p.ID, Priority: models.PriorityHigh})
	require.NoError(t, err)
	_, err = s.CreateBug(ctx, models.Bug{Title: "second", ProjectID: p.ID})
	require.NoError(t, err)
	_, err = s.CreateBug(ctx, models.Bug{Title: "third", ProjectID: other.ID, Status: models.StatusDone})
	require.NoError(t, err)

	// Touching the oldest bug moves it to the front.
	_, err = s.UpdateBug(ctx, first.ID, models.BugPatch{AssignedTo: ptr("Dana")})
	require.NoError(t, err)

	all, err := s.ListBugs(ctx, models.BugFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "first", all[0].Title)
	assert.Equal(t, "third", all[1].Title)
	assert.Equal(t, "second", all[2].Title)

	high, err := s.ListBugs(ctx, models.BugFilter{Priority: models.PriorityHigh})
	require.NoError(t, err)
	assert.Len(t, high, 1)

	byProject, err := s.ListBugs(ctx, models.BugFilter{ProjectID: other.ID})
	require.NoError(t, err)
	require.Len(t, byProject, 1)
	assert.Equal(t, "third", byProject[0].Title)

	none, err := s.ListBugs(ctx, models.BugFilter{ProjectIDs: []string{}})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestProjectNameUniqueness(t *testing.T) {
	s := New()
	ctx := context.Background()

	alpha, err := s.CreateProject(ctx, models.Project{Name: "Alpha", OwnerID: "u1"})
	require.NoError(t, err)

	_, err = s.CreateProject(ctx, models.Project{Name: "Alpha", OwnerID: "u1"})
	assert.True(t, apperr.Is(err, apperr.KindConflict))

	_, err = s.CreateProject(ctx, models.Project{Name: "Alpha", OwnerID: "u2"})
	assert.NoError(t, err)

	// Archiving frees the name.
	_, err = s.SetProjectArchived(ctx, alpha.ID, true)
	require.NoError(t, err)
	second, err := s.CreateProject(ctx, models.Project{Name: "Alpha", OwnerID: "u1"})
	require.NoError(t, err)

	// ...and unarchiving collides again.
	_, err = s.SetProjectArchived(ctx, alpha.ID, false)
	assert.Equal(t, "project with same name already exists", apperr.PublicMessage(err))

	got, err := s.GetProject(ctx, second.ID)
	require.NoError(t, err)
	assert.False(t, got.IsArchived)
}

func TestProjectMembership(t *testing.T) {
	s := New()
	ctx := context.Background()

	p, err := s.CreateProject(ctx, models.Project{Name: "Alpha", OwnerID: "u1"})
	require.NoError(t, err)
	assert.Equal(t, []string{"u1"}, p.Members)

	updated, err := s.UpdateProject(ctx, p.ID, models.ProjectPatch{Members: []string{"u2"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"u1", "u2"}, updated.Members)
	assert.Equal(t, "Alpha", updated.Name)

	listed, err := s.ListProjectsForMember(ctx, "u2")
	require.NoError(t, err)
	assert.Len(t, listed, 1)

	ids, err := s.MemberProjectIDs(ctx, "u3")
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestArchivedProjectIsFrozen(t *testing.T) {
	s := New()
	ctx := context.Background()

	p, err := s.CreateProject(ctx, models.Project{Name: "Alpha", OwnerID: "u1"})
	require.NoError(t, err)

	archived, err := s.SetProjectArchived(ctx, p.ID, true)
	require.NoError(t, err)
	assert.True(t, archived.IsArchived)

	_, err = s.SetProjectArchived(ctx, p.ID, true)
	assert.Equal(t, "project is archived", apperr.PublicMessage(err))

	name := "Beta"
	_, err = s.UpdateProject(ctx, p.ID, models.ProjectPatch{Name: &name})
	assert.Equal(t, "project is archived", apperr.PublicMessage(err))

	got, err := s.GetProject(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Alpha", got.Name)
	assert.True(t, got.IsArchived)

	restored, err := s.SetProjectArchived(ctx, p.ID, false)
	require.NoError(t, err)
	assert.False(t, restored.IsArchived)
	_, err = s.SetProjectArchived(ctx, p.ID, false)
	assert.Equal(t, "project is not archived", apperr.PublicMessage(err))

	_, err = s.UpdateProject(ctx, "missing", models.ProjectPatch{Name: &name})
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
	_, err = s.SetProjectArchived(ctx, "missing", true)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestDeleteProjectCascades(t *testing.T) {
	s, p := newTestStore(t)
	ctx := context.Background()

	bug, err := s.CreateBug(ctx, models.Bug{Title: "t", ProjectID: p.ID})
	require.NoError(t, err)

	require.NoError(t, s.DeleteProject(ctx, p.ID))

	_, err = s.GetBug(ctx, bug.ID)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
	assert.True(t, apperr.Is(s.DeleteProject(ctx, p.ID), apperr.KindNotFound))
}

func TestUsers(t *testing.T) {
	s := New()
	ctx := context.Background()

	u, err := s.CreateUser(ctx, models.User{Name: "Dana", Email: "Dana@Example.com", IsActive: true})
	require.NoError(t, err)

	_, err = s.CreateUser(ctx, models.User{Name: "Dana 2", Email: "dana@example.com"})
	assert.True(t, apperr.Is(err, apperr.KindConflict))

	byEmail, err := s.GetUserByEmail(ctx, "DANA@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, byEmail.ID)

	at := time.Now()
	require.NoError(t, s.RecordLogin(ctx, u.ID, at))
	require.NoError(t, s.UpdatePassword(ctx, u.ID, "hash", at))

	got, err := s.GetUser(ctx, u.ID)
	require.NoError(t, err)
	require.NotNil(t, got.LastLoginAt)
	require.NotNil(t, got.PasswordChangedAt)
	assert.Equal(t, "hash", got.PasswordHash)
}
