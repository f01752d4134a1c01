package service

import (
	"context"
	"strings"
	"unicode/utf8"

	"bugtrack/apperr"
	"bugtrack/metrics"
	"bugtrack/models"

	"go.uber.org/zap"
)

const (
	maxBugTitle       = 200
	maxBugDescription = 1000
	maxAssignee       = 100
)

func (s *Service) CreateBug(ctx context.Context, userID string, req models.CreateBugRequest) (*models.Bug, error) {
	if req.ProjectID == "" {
		return nil, apperr.Validation("project is required")
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, apperr.Validation("title is required")
	}
	if req.Priority != "" && !req.Priority.Valid() {
		return nil, apperr.Validation("invalid priority %q", req.Priority)
	}
	if req.Status != "" && !req.Status.Valid() {
		return nil, apperr.Validation("invalid status %q", req.Status)
	}

	project, err := s.GetProject(ctx, userID, req.ProjectID)
	if err != nil {
		return nil, err
	}
	if project.IsArchived {
		return nil, apperr.Conflict("project is archived")
	}

	bug, err := s.store.CreateBug(ctx, models.Bug{
		Title:       title,
		Description: req.Description,
		Priority:    req.Priority,
		Status:      req.Status,
		AssignedTo:  strings.TrimSpace(req.AssignedTo),
		ProjectID:   req.ProjectID,
	})
	if err != nil {
		return nil, err
	}

	metrics.RecordBugOperation("create")
	metrics.ActivityEntries.Add(float64(len(bug.Activity)))
	s.log.Info("bug created", zap.String("bug_id", bug.ID), zap.String("project_id", bug.ProjectID))
	return bug, nil
}

// ListBugs applies the filter within the projects userID belongs to.
func (s *Service) ListBugs(ctx context.Context, userID string, filter models.BugFilter) ([]models.Bug, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, apperr.Validation("invalid status %q", filter.Status)
	}
	if filter.Priority != "" && !filter.Priority.Valid() {
		return nil, apperr.Validation("invalid priority %q", filter.Priority)
	}

	if filter.ProjectID != "" {
		if _, err := s.GetProject(ctx, userID, filter.ProjectID); err != nil {
			return nil, err
		}
	} else {
		ids, err := s.store.MemberProjectIDs(ctx, userID)
		if err != nil {
			return nil, err
		}
		filter.ProjectIDs = ids
	}

	metrics.RecordBugOperation("list")
	return s.store.ListBugs(ctx, filter)
}

func (s *Service) GetBug(ctx context.Context, userID, id string) (*models.Bug, error) {
	bug, err := s.store.GetBug(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeBug(ctx, userID, bug); err != nil {
		return nil, err
	}
	return bug, nil
}

// UpdateBug validates the patch, checks access and hands the
// load-diff-write sequence to the store.
func (s *Service) UpdateBug(ctx context.Context, userID, id string, patch models.BugPatch) (*models.Bug, error) {
	if err := validatePatch(&patch); err != nil {
		return nil, err
	}

	current, err := s.GetBug(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	updated, err := s.store.UpdateBug(ctx, id, patch)
	if err != nil {
		return nil, err
	}

	added := len(updated.Activity) - len(current.Activity)
	metrics.RecordBugOperation("update")
	if added > 0 {
		metrics.ActivityEntries.Add(float64(added))
	}
	s.log.Info("bug updated",
		zap.String("bug_id", id),
		zap.Int("version", updated.Version),
		zap.Int("activity_added", added))
	return updated, nil
}

func (s *Service) DeleteBug(ctx context.Context, userID, id string) error {
	if _, err := s.GetBug(ctx, userID, id); err != nil {
		return err
	}
	if err := s.store.DeleteBug(ctx, id); err != nil {
		return err
	}

	metrics.RecordBugOperation("delete")
	s.log.Info("bug deleted", zap.String("bug_id", id))
	return nil
}

// authorizeBug hides bugs of projects the user is not a member of.
func (s *Service) authorizeBug(ctx context.Context, userID string, bug *models.Bug) error {
	project, err := s.store.GetProject(ctx, bug.ProjectID)
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return apperr.NotFound("bug")
		}
		return err
	}
	if !project.HasMember(userID) {
		return apperr.NotFound("bug")
	}
	return nil
}

// validatePatch checks value ranges and normalises whitespace.
func validatePatch(patch *models.BugPatch) error {
	if patch.Empty() {
		return apperr.Validation("no updatable fields provided")
	}
	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		if title == "" {
			return apperr.Validation("title cannot be empty")
		}
		if utf8.RuneCountInString(title) > maxBugTitle {
			return apperr.Validation("title must be at most %d characters", maxBugTitle)
		}
		patch.Title = &title
	}
	if patch.Description != nil && utf8.RuneCountInString(*patch.Description) > maxBugDescription {
		return apperr.Validation("description must be at most %d characters", maxBugDescription)
	}
	if patch.Priority != nil && !patch.Priority.Valid() {
		return apperr.Validation("invalid priority %q", *patch.Priority)
	}
	if patch.Status != nil && !patch.Status.Valid() {
		return apperr.Validation("invalid status %q", *patch.Status)
	}
	if patch.AssignedTo != nil {
		assignee := strings.TrimSpace(*patch.AssignedTo)
		if utf8.RuneCountInString(assignee) > maxAssignee {
			return apperr.Validation("assignee must be at most %d characters", maxAssignee)
		}
		patch.AssignedTo = &assignee
	}
	return nil
}
