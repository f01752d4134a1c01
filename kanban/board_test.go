package kanban

import (
	"context"
	"errors"
	"sync"
	"testing"

	"bugtrack/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingNotifier struct {
	mu        sync.Mutex
	successes []string
	errors    []string
}

func (n *recordingNotifier) Success(msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.successes = append(n.successes, msg)
}

func (n *recordingNotifier) Error(msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.errors = append(n.errors, msg)
}

type fakeUpdater struct {
	mu      sync.Mutex
	calls   []models.BugPatch
	err     error
	release chan struct{}
	started chan struct{}
}

func (f *fakeUpdater) UpdateBug(ctx context.Context, id string, patch models.BugPatch) (*models.Bug, error) {
	f.mu.Lock()
	f.calls = append(f.calls, patch)
	f.mu.Unlock()

	if f.started != nil {
		f.started <- struct{}{}
	}
	if f.release != nil {
		<-f.release
	}
	if f.err != nil {
		return nil, f.err
	}
	return &models.Bug{ID: id, Title: "server copy", Status: *patch.Status, Version: 2}, nil
}

func (f *fakeUpdater) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type userError struct{ msg string }

func (e userError) Error() string       { return "api: " + e.msg }
func (e userError) UserMessage() string { return e.msg }

func newBoard(u Updater) (*Board, *recordingNotifier) {
	n := &recordingNotifier{}
	b := New(u, n)
	b.Load([]models.Bug{
		{ID: "b1", Title: "first", Status: models.StatusOpen},
		{ID: "b2", Title: "second", Status: models.StatusInProgress},
		{ID: "b3", Title: "third", Status: models.StatusOpen},
	})
	return b, n
}

func columnIDs(views []ColumnView) map[string][]string {
	out := map[string][]string{}
	for _, v := range views {
		ids := []string{}
		for _, bug := range v.Bugs {
			ids = append(ids, bug.ID)
		}
		out[v.ID] = ids
	}
	return out
}

func TestColumns(t *testing.T) {
	b, _ := newBoard(&fakeUpdater{})

	views := b.Columns()
	require.Len(t, views, 3)
	assert.Equal(t, "Backlog", views[0].Title)
	assert.Equal(t, "In Progress", views[1].Title)
	assert.Equal(t, "Done", views[2].Title)
	assert.Equal(t, map[string][]string{
		"backlog":     {"b1", "b3"},
		"in-progress": {"b2"},
		"done":        {},
	}, columnIDs(views))
}

func TestDrop_Success(t *testing.T) {
	u := &fakeUpdater{}
	b, n := newBoard(u)

	require.NoError(t, b.BeginDrag("b1"))
	require.NoError(t, b.Drop(context.Background(), "b1", "done"))

	require.Len(t, u.calls, 1)
	patch := u.calls[0]
	require.NotNil(t, patch.Status)
	assert.Equal(t, models.StatusDone, *patch.Status)
	assert.Nil(t, patch.Title)
	assert.Nil(t, patch.AssignedTo)

	bug, state, ok := b.Card("b1")
	require.True(t, ok)
	assert.Equal(t, Resting, state)
	assert.Equal(t, models.StatusDone, bug.Status)
	assert.Equal(t, "server copy", bug.Title)
	assert.Equal(t, []string{"Bug moved to Done"}, n.successes)
	assert.Empty(t, n.errors)
}

func TestDrop_FailureReverts(t *testing.T) {
	u := &fakeUpdater{err: errors.New("connection refused")}
	b, n := newBoard(u)

	require.NoError(t, b.BeginDrag("b1"))
	err := b.Drop(context.Background(), "b1", "in-progress")
	require.Error(t, err)

	bug, state, _ := b.Card("b1")
	assert.Equal(t, models.StatusOpen, bug.Status)
	assert.Equal(t, Resting, state)
	assert.Equal(t, []string{FailureMessage}, n.errors)
	assert.Empty(t, n.successes)
	assert.Equal(t, []string{"b1", "b3"}, columnIDs(b.Columns())["backlog"])
}

func TestDrop_FailureUsesServerMessage(t *testing.T) {
	b, n := newBoard(&fakeUpdater{err: userError{msg: "bug not found"}})

	require.NoError(t, b.BeginDrag("b2"))
	require.Error(t, b.Drop(context.Background(), "b2", "done"))
	assert.Equal(t, []string{"bug not found"}, n.errors)
}

func TestDrop_NoCallWhenNothingMoves(t *testing.T) {
	tests := []struct {
		name   string
		column string
	}{
		{"same column", "backlog"},
		{"unknown column", "archive"},
		{"no target", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := &fakeUpdater{}
			b, n := newBoard(u)

			require.NoError(t, b.BeginDrag("b1"))
			require.NoError(t, b.Drop(context.Background(), "b1", tt.column))

			assert.Zero(t, u.callCount())
			_, state, _ := b.Card("b1")
			assert.Equal(t, Resting, state)
			assert.Empty(t, n.successes)
			assert.Empty(t, n.errors)
		})
	}
}

func TestCancelDrag(t *testing.T) {
	u := &fakeUpdater{}
	b, _ := newBoard(u)

	assert.ErrorIs(t, b.CancelDrag("b1"), ErrNotDragging)
	require.NoError(t, b.BeginDrag("b1"))
	require.NoError(t, b.CancelDrag("b1"))

	_, state, _ := b.Card("b1")
	assert.Equal(t, Resting, state)
	assert.ErrorIs(t, b.Drop(context.Background(), "b1", "done"), ErrNotDragging)
	assert.Zero(t, u.callCount())
	assert.ErrorIs(t, b.BeginDrag("missing"), ErrUnknownCard)
}

func TestPendingCardCannotBeDraggedAgain(t *testing.T) {
	u := &fakeUpdater{release: make(chan struct{}), started: make(chan struct{}, 1)}
	b, n := newBoard(u)

	require.NoError(t, b.BeginDrag("b1"))
	done := make(chan error, 1)
	go func() { done <- b.Drop(context.Background(), "b1", "done") }()
	<-u.started

	bug, state, _ := b.Card("b1")
	assert.Equal(t, Pending, state)
	assert.Equal(t, models.StatusDone, bug.Status, "optimistic move is visible while pending")
	assert.ErrorIs(t, b.BeginDrag("b1"), ErrCardPending)

	// A refresh while pending keeps the optimistic card.
	b.Load([]models.Bug{{ID: "b1", Status: models.StatusOpen}})
	bug, state, _ = b.Card("b1")
	assert.Equal(t, Pending, state)
	assert.Equal(t, models.StatusDone, bug.Status)

	close(u.release)
	require.NoError(t, <-done)

	_, state, _ = b.Card("b1")
	assert.Equal(t, Resting, state)
	require.NoError(t, b.BeginDrag("b1"))
	assert.Len(t, n.successes, 1)
}
