package client

import (
	"context"
	"net/http"
	"net/url"

	"bugtrack/models"
)

// Message is the body of delete responses.
type Message struct {
	Message string `json:"message"`
}

// Health is the body of GET /health.
type Health struct {
	Status   string `json:"status"`
	Database string `json:"database"`
}

func (c *Client) Health(ctx context.Context) (*Health, error) {
	var out Health
	if err := c.do(ctx, http.MethodGet, "/health", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Auth

func (c *Client) Signup(ctx context.Context, req models.SignupRequest) (*models.AuthResponse, error) {
	var out models.AuthResponse
	if err := c.do(ctx, http.MethodPost, "/auth/signup", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error) {
	var out models.AuthResponse
	if err := c.do(ctx, http.MethodPost, "/auth/login", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Profile(ctx context.Context) (*models.User, error) {
	var out models.User
	if err := c.do(ctx, http.MethodGet, "/auth/profile", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ChangePassword returns a fresh token; tokens issued before the change
// stop working.
func (c *Client) ChangePassword(ctx context.Context, req models.ChangePasswordRequest) (*models.AuthResponse, error) {
	var out models.AuthResponse
	if err := c.do(ctx, http.MethodPatch, "/auth/password", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Projects

func (c *Client) ListProjects(ctx context.Context) ([]models.Project, error) {
	var out []models.Project
	if err := c.do(ctx, http.MethodGet, "/projects", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateProject(ctx context.Context, req models.CreateProjectRequest) (*models.Project, error) {
	var out models.Project
	if err := c.do(ctx, http.MethodPost, "/projects", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetProject(ctx context.Context, id string) (*models.Project, error) {
	var out models.Project
	if err := c.do(ctx, http.MethodGet, "/projects/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateProject(ctx context.Context, id string, req models.UpdateProjectRequest) (*models.Project, error) {
	var out models.Project
	if err := c.do(ctx, http.MethodPatch, "/projects/"+url.PathEscape(id), req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ArchiveProject archives the project, or restores it when archived is
// false.
func (c *Client) ArchiveProject(ctx context.Context, id string, archived bool) (*models.Project, error) {
	var out models.Project
	req := models.ArchiveProjectRequest{IsArchived: &archived}
	if err := c.do(ctx, http.MethodPatch, "/projects/"+url.PathEscape(id)+"/archive", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteProject(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/projects/"+url.PathEscape(id), nil, &Message{})
}

func (c *Client) ProjectStats(ctx context.Context, id string) (*models.ProjectStats, error) {
	var out models.ProjectStats
	if err := c.do(ctx, http.MethodGet, "/projects/"+url.PathEscape(id)+"/stats", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Bugs

func (c *Client) ListBugs(ctx context.Context, filter models.BugFilter) ([]models.Bug, error) {
	q := url.Values{}
	if filter.Status != "" {
		q.Set("status", string(filter.Status))
	}
	if filter.Priority != "" {
		q.Set("priority", string(filter.Priority))
	}
	if filter.ProjectID != "" {
		q.Set("projectId", filter.ProjectID)
	}

	path := "/bugs"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var out []models.Bug
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetBug(ctx context.Context, id string) (*models.Bug, error) {
	var out models.Bug
	if err := c.do(ctx, http.MethodGet, "/bugs/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateBug(ctx context.Context, req models.CreateBugRequest) (*models.Bug, error) {
	var out models.Bug
	if err := c.do(ctx, http.MethodPost, "/bugs", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateBug sends only the fields set in patch.
func (c *Client) UpdateBug(ctx context.Context, id string, patch models.BugPatch) (*models.Bug, error) {
	var out models.Bug
	if err := c.do(ctx, http.MethodPatch, "/bugs/"+url.PathEscape(id), patch, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteBug(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/bugs/"+url.PathEscape(id), nil, &Message{})
}
