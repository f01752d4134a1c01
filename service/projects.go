package service

import (
	"context"
	"strings"
	"unicode/utf8"

	"bugtrack/apperr"
	"bugtrack/models"
	"bugtrack/store"

	"go.uber.org/zap"
)

const (
	maxProjectName        = 100
	maxProjectDescription = 500
)

func (s *Service) CreateProject(ctx context.Context, userID string, req models.CreateProjectRequest) (*models.Project, error) {
	name, err := validateProjectName(req.Name)
	if err != nil {
		return nil, err
	}
	description, err := validateProjectDescription(req.Description)
	if err != nil {
		return nil, err
	}

	project, err := s.store.CreateProject(ctx, models.Project{
		Name:        name,
		Description: description,
		OwnerID:     userID,
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("project created", zap.String("project_id", project.ID), zap.String("owner", userID))
	return project, nil
}

func (s *Service) ListProjects(ctx context.Context, userID string) ([]models.Project, error) {
	return s.store.ListProjectsForMember(ctx, userID)
}

// GetProject returns the project if userID is a member. Non-members get
// NotFound so project ids do not leak.
func (s *Service) GetProject(ctx context.Context, userID, id string) (*models.Project, error) {
	project, err := s.store.GetProject(ctx, id)
	if err != nil {
		return nil, err
	}
	if !project.HasMember(userID) {
		return nil, apperr.NotFound("project")
	}
	return project, nil
}

func (s *Service) ownedProject(ctx context.Context, userID, id string) (*models.Project, error) {
	project, err := s.GetProject(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if project.OwnerID != userID {
		return nil, apperr.Forbidden("only the project owner can do this")
	}
	return project, nil
}

// UpdateProject changes name, description or members. Archived projects are
// frozen until unarchived; the store enforces this at write time.
func (s *Service) UpdateProject(ctx context.Context, userID, id string, req models.UpdateProjectRequest) (*models.Project, error) {
	project, err := s.ownedProject(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if project.IsArchived {
		return nil, store.ErrProjectArchived()
	}

	var patch models.ProjectPatch
	if req.Name != nil {
		name, err := validateProjectName(*req.Name)
		if err != nil {
			return nil, err
		}
		patch.Name = &name
	}
	if req.Description != nil {
		description, err := validateProjectDescription(*req.Description)
		if err != nil {
			return nil, err
		}
		patch.Description = &description
	}
	if req.Members != nil {
		for _, memberID := range req.Members {
			if _, err := s.store.GetUser(ctx, memberID); err != nil {
				if apperr.Is(err, apperr.KindNotFound) {
					return nil, apperr.Validation("unknown member %q", memberID)
				}
				return nil, err
			}
		}
		patch.Members = store.Members(req.Members)
	}

	return s.store.UpdateProject(ctx, id, patch)
}

// ArchiveProject sets the archive flag. Archiving an archived project, or
// unarchiving an active one, is a conflict.
func (s *Service) ArchiveProject(ctx context.Context, userID, id string, archived bool) (*models.Project, error) {
	if _, err := s.ownedProject(ctx, userID, id); err != nil {
		return nil, err
	}

	updated, err := s.store.SetProjectArchived(ctx, id, archived)
	if err != nil {
		return nil, err
	}

	s.log.Info("project archive flag changed", zap.String("project_id", id), zap.Bool("archived", archived))
	return updated, nil
}

func (s *Service) DeleteProject(ctx context.Context, userID, id string) error {
	if _, err := s.ownedProject(ctx, userID, id); err != nil {
		return err
	}
	if err := s.store.DeleteProject(ctx, id); err != nil {
		return err
	}

	s.log.Info("project deleted", zap.String("project_id", id))
	return nil
}

// ProjectStats counts the project's bugs for the dashboard.
func (s *Service) ProjectStats(ctx context.Context, userID, id string) (*models.ProjectStats, error) {
	if _, err := s.GetProject(ctx, userID, id); err != nil {
		return nil, err
	}

	bugs, err := s.store.ListBugs(ctx, models.BugFilter{ProjectID: id})
	if err != nil {
		return nil, err
	}

	today := s.now().UTC().Format("2006-01-02")
	stats := &models.ProjectStats{Total: len(bugs), ByAssignee: map[string]int{}}
	for _, b := range bugs {
		switch b.Status {
		case models.StatusOpen:
			stats.Open++
		case models.StatusInProgress:
			stats.InProgress++
		case models.StatusDone:
			stats.Done++
			if b.UpdatedAt.UTC().Format("2006-01-02") == today {
				stats.ResolvedToday++
			}
		}
		if b.Priority == models.PriorityHigh {
			stats.Critical++
		}
		if b.AssignedTo != "" {
			stats.ByAssignee[b.AssignedTo]++
		}
	}
	return stats, nil
}

func validateProjectName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", apperr.Validation("project name is required")
	}
	if utf8.RuneCountInString(name) > maxProjectName {
		return "", apperr.Validation("project name must be at most %d characters", maxProjectName)
	}
	return name, nil
}

func validateProjectDescription(description string) (string, error) {
	description = strings.TrimSpace(description)
	if utf8.RuneCountInString(description) > maxProjectDescription {
		return "", apperr.Validation("project description must be at most %d characters", maxProjectDescription)
	}
	return description, nil
}
