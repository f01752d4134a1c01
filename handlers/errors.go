package handlers

import (
	"net/http"

	"bugtrack/apperr"
	"bugtrack/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// respondError renders err as {"error": message} with the status of its
// kind. Unclassified errors are logged and hidden behind a generic message.
func respondError(c *gin.Context, err error) {
	kind := apperr.KindOf(err)
	if kind == apperr.KindInternal {
		logger.FromContext(c).Error("request failed",
			zap.String("path", c.FullPath()),
			zap.Error(err))
		c.Error(err)
	}
	c.JSON(kind.HTTPStatus(), gin.H{"error": apperr.PublicMessage(err)})
}

// parseID reads the :id path parameter, rejecting anything that is not a
// UUID before it reaches the store.
func parseID(c *gin.Context, entity string) (string, bool) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + entity + " ID"})
		return "", false
	}
	return id, true
}
