package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"bugtrack/middleware"
	"bugtrack/models"
	"bugtrack/service"

	"github.com/gin-gonic/gin"
)

func CreateBug(svc *service.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.CreateBugRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		bug, err := svc.CreateBug(c.Request.Context(), middleware.UserID(c), req)
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusCreated, bug)
	}
}

func ListBugs(svc *service.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var filter models.BugFilter
		if err := c.ShouldBindQuery(&filter); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		bugs, err := svc.ListBugs(c.Request.Context(), middleware.UserID(c), filter)
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, bugs)
	}
}

func GetBug(svc *service.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		bugID, ok := parseID(c, "bug")
		if !ok {
			return
		}

		bug, err := svc.GetBug(c.Request.Context(), middleware.UserID(c), bugID)
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, bug)
	}
}

// UpdateBug accepts only the keys of models.BugPatch; anything else in the
// body, such as activity or project, is rejected.
func UpdateBug(svc *service.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		bugID, ok := parseID(c, "bug")
		if !ok {
			return
		}

		patch, err := decodePatch(c.Request.Body)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		bug, err := svc.UpdateBug(c.Request.Context(), middleware.UserID(c), bugID, patch)
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, bug)
	}
}

func DeleteBug(svc *service.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		bugID, ok := parseID(c, "bug")
		if !ok {
			return
		}

		if err := svc.DeleteBug(c.Request.Context(), middleware.UserID(c), bugID); err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "Bug deleted"})
	}
}

func decodePatch(body io.Reader) (models.BugPatch, error) {
	var patch models.BugPatch
	if body == nil {
		return patch, errors.New("request body required")
	}

	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&patch); err != nil {
		if errors.Is(err, io.EOF) {
			return patch, errors.New("request body required")
		}
		if field, ok := strings.CutPrefix(err.Error(), "json: unknown field "); ok {
			return patch, errors.New("field " + field + " cannot be updated")
		}
		return patch, errors.New("invalid JSON body")
	}
	if dec.More() {
		return patch, errors.New("invalid JSON body")
	}
	return patch, nil
}
