package models

import (
	"time"
)

// Project groups bugs and controls who may see them.
// The owner is always a member; only the owner may change or archive it.
type Project struct {
	ID          string    `json:"id" bson:"_id"`
	Name        string    `json:"name" bson:"name"`
	Description string    `json:"description" bson:"description"`
	OwnerID     string    `json:"owner" bson:"owner_id"`
	Members     []string  `json:"members" bson:"members"`
	IsArchived  bool      `json:"isArchived" bson:"is_archived"`
	CreatedAt   time.Time `json:"createdAt" bson:"created_at"`
	UpdatedAt   time.Time `json:"updatedAt" bson:"updated_at"`
}

// HasMember reports whether userID belongs to the project.
func (p *Project) HasMember(userID string) bool {
	for _, m := range p.Members {
		if m == userID {
			return true
		}
	}
	return false
}

// CreateProjectRequest is the payload for creating a new project.
type CreateProjectRequest struct {
	Name        string `json:"name" binding:"required,max=100"`
	Description string `json:"description" binding:"max=500"`
}

// UpdateProjectRequest is the payload for PATCH /projects/:id.
// Members replaces the member list; the owner is kept regardless.
type UpdateProjectRequest struct {
	Name        *string  `json:"name"`
	Description *string  `json:"description"`
	Members     []string `json:"members"`
}

// ProjectPatch lists the fields an update writes. Nil fields are left as
// stored; a non-nil Members replaces the member list.
type ProjectPatch struct {
	Name        *string
	Description *string
	Members     []string
}

// ArchiveProjectRequest is the optional body of PATCH /projects/:id/archive.
type ArchiveProjectRequest struct {
	IsArchived *bool `json:"isArchived"`
}

// ProjectStats summarises the bugs of one project for dashboards.
type ProjectStats struct {
	Total         int            `json:"total"`
	Open          int            `json:"open"`
	InProgress    int            `json:"inProgress"`
	Done          int            `json:"done"`
	Critical      int            `json:"critical"`
	ResolvedToday int            `json:"resolvedToday"`
	ByAssignee    map[string]int `json:"byAssignee"`
}
