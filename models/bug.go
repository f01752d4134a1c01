package models

import (
	"time"
)

// Priority is the urgency of a bug.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Status is the workflow state of a bug.
type Status string

const (
	StatusOpen       Status = "open"
	StatusInProgress Status = "in-progress"
	StatusDone       Status = "done"
)

// Valid reports whether p is one of the known priorities.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusOpen, StatusInProgress, StatusDone:
		return true
	}
	return false
}

// ActivityEntry is one line of a bug's audit trail.
type ActivityEntry struct {
	Message   string    `json:"message" bson:"message"`
	Timestamp time.Time `json:"timestamp" bson:"timestamp"`
}

// Bug is a tracked defect. Activity is append-only and ordered oldest first.
type Bug struct {
	ID          string          `json:"id" bson:"_id"`
	Title       string          `json:"title" bson:"title"`
	Description string          `json:"description" bson:"description"`
	Priority    Priority        `json:"priority" bson:"priority"`
	Status      Status          `json:"status" bson:"status"`
	AssignedTo  string          `json:"assignedTo" bson:"assigned_to"`
	ProjectID   string          `json:"project" bson:"project_id"`
	Activity    []ActivityEntry `json:"activity" bson:"activity"`
	Version     int             `json:"version" bson:"version"`
	CreatedAt   time.Time       `json:"createdAt" bson:"created_at"`
	UpdatedAt   time.Time       `json:"updatedAt" bson:"updated_at"`
}

// CreateBugRequest is the payload for POST /bugs.
type CreateBugRequest struct {
	Title       string   `json:"title" binding:"required,min=1,max=200"`
	Description string   `json:"description" binding:"max=1000"`
	Priority    Priority `json:"priority" binding:"omitempty,oneof=low medium high"`
	Status      Status   `json:"status" binding:"omitempty,oneof=open in-progress done"`
	AssignedTo  string   `json:"assignedTo" binding:"max=100"`
	ProjectID   string   `json:"project" binding:"required"`
}

// BugPatch is a partial update. A nil field is absent from the request;
// only these keys are accepted from clients.
type BugPatch struct {
	Title       *string   `json:"title,omitempty"`
	Description *string   `json:"description,omitempty"`
	Priority    *Priority `json:"priority,omitempty"`
	Status      *Status   `json:"status,omitempty"`
	AssignedTo  *string   `json:"assignedTo,omitempty"`

	// Version, when set, must match the stored version or the update is
	// rejected as a conflict.
	Version *int `json:"version,omitempty"`
}

// Empty reports whether the patch carries no field changes.
func (p BugPatch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.Priority == nil &&
		p.Status == nil && p.AssignedTo == nil
}

// ApplyTo overwrites the fields of b that are present in the patch.
func (p BugPatch) ApplyTo(b *Bug) {
	if p.Title != nil {
		b.Title = *p.Title
	}
	if p.Description != nil {
		b.Description = *p.Description
	}
	if p.Priority != nil {
		b.Priority = *p.Priority
	}
	if p.Status != nil {
		b.Status = *p.Status
	}
	if p.AssignedTo != nil {
		b.AssignedTo = *p.AssignedTo
	}
}

// BugFilter narrows GET /bugs. ProjectIDs restricts results to an allow-list
// of projects; nil means unrestricted, empty means nothing matches.
type BugFilter struct {
	Status     Status   `form:"status"`
	Priority   Priority `form:"priority"`
	ProjectID  string   `form:"projectId"`
	ProjectIDs []string `form:"-"`
}
