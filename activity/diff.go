// Package activity builds the audit trail entries recorded on bugs.
package activity

import (
	"fmt"
	"time"

	"bugtrack/models"
)

const (
	CreatedMessage = "Bug created"
	unassigned     = "Unassigned"
)

// Diff describes what a patch changes on prev, one message per changed
// tracked field, in the order status, assignee, priority, title, description.
// Fields absent from the patch or equal to their previous value are skipped.
func Diff(prev models.Bug, patch models.BugPatch) []string {
	changes := []string{}

	if patch.Status != nil && *patch.Status != prev.Status {
		changes = append(changes, fmt.Sprintf("Status changed from %s → %s", prev.Status, *patch.Status))
	}

	if patch.AssignedTo != nil && *patch.AssignedTo != prev.AssignedTo {
		changes = append(changes, fmt.Sprintf("Assignee changed from %s → %s",
			assignee(prev.AssignedTo), assignee(*patch.AssignedTo)))
	}

	if patch.Priority != nil && *patch.Priority != prev.Priority {
		changes = append(changes, fmt.Sprintf("Priority changed from %s → %s", prev.Priority, *patch.Priority))
	}

	// Title and description values are not disclosed in the trail.
	if patch.Title != nil && *patch.Title != prev.Title {
		changes = append(changes, "Title updated")
	}

	if patch.Description != nil && *patch.Description != prev.Description {
		changes = append(changes, "Description updated")
	}

	return changes
}

// Entries stamps every message with the same time.
func Entries(messages []string, at time.Time) []models.ActivityEntry {
	entries := make([]models.ActivityEntry, 0, len(messages))
	for _, msg := range messages {
		entries = append(entries, models.ActivityEntry{Message: msg, Timestamp: at})
	}
	return entries
}

// Created is the entry every new bug starts with.
func Created(at time.Time) models.ActivityEntry {
	return models.ActivityEntry{Message: CreatedMessage, Timestamp: at}
}

func assignee(name string) string {
	if name == "" {
		return unassigned
	}
	return name
}
