package activity

import (
	"testing"
	"time"

	"bugtrack/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func baseBug() models.Bug {
	return models.Bug{
		ID:          "b1",
		Title:       "Login fails",
		Description: "500 on submit",
		Priority:    models.PriorityMedium,
		Status:      models.StatusOpen,
		AssignedTo:  "",
		ProjectID:   "p1",
	}
}

func TestDiff(t *testing.T) {
	tests := []struct {
		name     string
		patch    models.BugPatch
		expected []string
	}{
		{
			name:     "empty patch",
			patch:    models.BugPatch{},
			expected: []string{},
		},
		{
			name:     "status change",
			patch:    models.BugPatch{Status: ptr(models.StatusInProgress)},
			expected: []string{"Status changed from open → in-progress"},
		},
		{
			name:     "priority change",
			patch:    models.BugPatch{Priority: ptr(models.PriorityHigh)},
			expected: []string{"Priority changed from medium → high"},
		},
		{
			name:     "assign from nobody",
			patch:    models.BugPatch{AssignedTo: ptr("Dana")},
			expected: []string{"Assignee changed from Unassigned → Dana"},
		},
		{
			name:     "title values are not disclosed",
			patch:    models.BugPatch{Title: ptr("Login fails on Safari")},
			expected: []string{"Title updated"},
		},
		{
			name:     "description change",
			patch:    models.BugPatch{Description: ptr("")},
			expected: []string{"Description updated"},
		},
		{
			name: "unchanged values are not changes",
			patch: models.BugPatch{
				Title:       ptr("Login fails"),
				Description: ptr("500 on submit"),
				Priority:    ptr(models.PriorityMedium),
				Status:      ptr(models.StatusOpen),
				AssignedTo:  ptr(""),
			},
			expected: []string{},
		},
		{
			name:     "only the differing field is reported",
			patch:    models.BugPatch{Title: ptr("x"), Description: ptr("500 on submit")},
			expected: []string{"Title updated"},
		},
		{
			name: "fixed field order",
			patch: models.BugPatch{
				Description: ptr("new"),
				Title:       ptr("new"),
				Priority:    ptr(models.PriorityLow),
				AssignedTo:  ptr("Sam"),
				Status:      ptr(models.StatusDone),
			},
			expected: []string{
				"Status changed from open → done",
				"Assignee changed from Unassigned → Sam",
				"Priority changed from medium → low",
				"Title updated",
				"Description updated",
			},
		},
		{
			name:     "version alone changes nothing",
			patch:    models.BugPatch{Version: ptr(3)},
			expected: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Diff(baseBug(), tt.patch))
		})
	}
}

func TestDiff_Unassign(t *testing.T) {
	prev := baseBug()
	prev.AssignedTo = "Dana"

	changes := Diff(prev, models.BugPatch{AssignedTo: ptr("")})

	assert.Equal(t, []string{"Assignee changed from Dana → Unassigned"}, changes)
}

func TestDiff_Deterministic(t *testing.T) {
	prev := baseBug()
	patch := models.BugPatch{
		Status:   ptr(models.StatusDone),
		Priority: ptr(models.PriorityHigh),
		Title:    ptr("Crash"),
	}

	first := Diff(prev, patch)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Diff(prev, patch))
	}
}

func TestDiff_DoesNotMutateInputs(t *testing.T) {
	prev := baseBug()
	patch := models.BugPatch{Status: ptr(models.StatusDone)}

	Diff(prev, patch)

	assert.Equal(t, baseBug(), prev)
	assert.Equal(t, models.StatusDone, *patch.Status)
}

func TestEntries(t *testing.T) {
	at := time.Date(2024, 11, 22, 10, 30, 0, 0, time.UTC)

	entries := Entries([]string{"Status changed from open → done", "Title updated"}, at)

	require.Len(t, entries, 2)
	assert.Equal(t, "Status changed from open → done", entries[0].Message)
	assert.Equal(t, "Title updated", entries[1].Message)
	assert.Equal(t, at, entries[0].Timestamp)
	assert.Equal(t, at, entries[1].Timestamp)
	assert.Empty(t, Entries(nil, at))
}

func TestCreated(t *testing.T) {
	at := time.Now()
	entry := Created(at)

	assert.Equal(t, "Bug created", entry.Message)
	assert.Equal(t, at, entry.Timestamp)
}
