package handlers

import (
	"errors"
	"io"
	"net/http"

	"bugtrack/middleware"
	"bugtrack/models"
	"bugtrack/service"

	"github.com/gin-gonic/gin"
)

func CreateProject(svc *service.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.CreateProjectRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		project, err := svc.CreateProject(c.Request.Context(), middleware.UserID(c), req)
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusCreated, project)
	}
}

func ListProjects(svc *service.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		projects, err := svc.ListProjects(c.Request.Context(), middleware.UserID(c))
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, projects)
	}
}

func GetProject(svc *service.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		projectID, ok := parseID(c, "project")
		if !ok {
			return
		}

		project, err := svc.GetProject(c.Request.Context(), middleware.UserID(c), projectID)
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, project)
	}
}

func UpdateProject(svc *service.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		projectID, ok := parseID(c, "project")
		if !ok {
			return
		}

		var req models.UpdateProjectRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		project, err := svc.UpdateProject(c.Request.Context(), middleware.UserID(c), projectID, req)
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, project)
	}
}

// ArchiveProject archives by default; {"isArchived": false} unarchives.
func ArchiveProject(svc *service.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		projectID, ok := parseID(c, "project")
		if !ok {
			return
		}

		var req models.ArchiveProjectRequest
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		archived := true
		if req.IsArchived != nil {
			archived = *req.IsArchived
		}

		project, err := svc.ArchiveProject(c.Request.Context(), middleware.UserID(c), projectID, archived)
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, project)
	}
}

func DeleteProject(svc *service.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		projectID, ok := parseID(c, "project")
		if !ok {
			return
		}

		if err := svc.DeleteProject(c.Request.Context(), middleware.UserID(c), projectID); err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "Project deleted"})
	}
}

func ProjectStats(svc *service.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		projectID, ok := parseID(c, "project")
		if !ok {
			return
		}

		stats, err := svc.ProjectStats(c.Request.Context(), middleware.UserID(c), projectID)
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, stats)
	}
}
