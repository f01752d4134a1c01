package store

import (
	"strings"
	"time"

	"bugtrack/apperr"
	"bugtrack/models"

	"github.com/google/uuid"
)

// NewProject assigns id and timestamps and makes sure the owner is a member.
func NewProject(p models.Project, now time.Time) models.Project {
	p.ID = uuid.NewString()
	p.Name = strings.TrimSpace(p.Name)
	p.Description = strings.TrimSpace(p.Description)
	p.Members = WithOwner(p.OwnerID, p.Members)
	p.CreatedAt = now
	p.UpdatedAt = now
	return p
}

// WithOwner returns members deduplicated with ownerID first.
func WithOwner(ownerID string, members []string) []string {
	return append([]string{ownerID}, dedupe(members, ownerID)...)
}

// Members returns members without blanks or duplicates, in order. The
// result is never nil so a patch with an empty list still clears members.
func Members(members []string) []string {
	return dedupe(members, "")
}

func dedupe(members []string, skip string) []string {
	out := []string{}
	seen := map[string]bool{"": true, skip: true}
	for _, m := range members {
		if seen[m] {
			continue
		}
		seen[m] = true
		out = append(out, m)
	}
	return out
}

// ApplyProjectPatch writes the set fields of patch onto p.
func ApplyProjectPatch(p *models.Project, patch models.ProjectPatch, now time.Time) {
	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.Description != nil {
		p.Description = *patch.Description
	}
	if patch.Members != nil {
		p.Members = WithOwner(p.OwnerID, patch.Members)
	}
	p.UpdatedAt = now
}

// ErrProjectArchived rejects writes to a frozen project.
func ErrProjectArchived() error {
	return apperr.Conflict("project is archived")
}

// ArchiveStateConflict rejects archiving an archived project or restoring
// an active one.
func ArchiveStateConflict(archived bool) error {
	if archived {
		return ErrProjectArchived()
	}
	return apperr.Conflict("project is not archived")
}
