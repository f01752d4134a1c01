package store

import (
	"time"

	"bugtrack/activity"
	"bugtrack/apperr"
	"bugtrack/models"

	"github.com/google/uuid"
)

// NewBug fills in what every backend assigns on create: id, defaults,
// timestamps, the first version and the creation entry.
func NewBug(bug models.Bug, now time.Time) (models.Bug, error) {
	if bug.ProjectID == "" {
		return models.Bug{}, apperr.Validation("project is required")
	}
	if bug.Priority == "" {
		bug.Priority = models.PriorityMedium
	}
	if bug.Status == "" {
		bug.Status = models.StatusOpen
	}

	bug.ID = uuid.NewString()
	bug.Version = 1
	bug.CreatedAt = now
	bug.UpdatedAt = now
	bug.Activity = []models.ActivityEntry{activity.Created(now)}
	return bug, nil
}

// NextBug computes the state that replaces prev for a patch, and the
// activity entries to append. It fails with Conflict when the patch pins a
// version other than prev's.
func NextBug(prev models.Bug, patch models.BugPatch, now time.Time) (models.Bug, []models.ActivityEntry, error) {
	if patch.Version != nil && *patch.Version != prev.Version {
		return models.Bug{}, nil, apperr.Conflict("bug was modified concurrently (version %d, current %d)",
			*patch.Version, prev.Version)
	}

	entries := activity.Entries(activity.Diff(prev, patch), now)

	next := prev
	next.Activity = nil
	patch.ApplyTo(&next)
	next.Version = prev.Version + 1
	next.UpdatedAt = now

	// Existing entries are kept as-is; new ones go at the end.
	next.Activity = make([]models.ActivityEntry, 0, len(prev.Activity)+len(entries))
	next.Activity = append(next.Activity, prev.Activity...)
	next.Activity = append(next.Activity, entries...)
	return next, entries, nil
}

// MatchesFilter reports whether bug satisfies f.
func MatchesFilter(bug models.Bug, f models.BugFilter) bool {
	if f.Status != "" && bug.Status != f.Status {
		return false
	}
	if f.Priority != "" && bug.Priority != f.Priority {
		return false
	}
	if f.ProjectID != "" && bug.ProjectID != f.ProjectID {
		return false
	}
	if f.ProjectIDs != nil {
		for _, id := range f.ProjectIDs {
			if id == bug.ProjectID {
				return true
			}
		}
		return false
	}
	return true
}
