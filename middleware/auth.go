package middleware

import (
	"context"
	"net/http"
	"strings"

	"bugtrack/apperr"
	"bugtrack/auth"
	"bugtrack/logger"
	"bugtrack/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const userIDKey = "user_id"

// Authenticator resolves a bearer token to a user.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*models.User, error)
}

func AuthRequired(authn Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")

		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authorization header required"})
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization format"})
			return
		}

		ctx := c.Request.Context()
		user, err := authn.Authenticate(ctx, parts[1])
		if err != nil {
			kind := apperr.KindOf(err)
			if kind == apperr.KindAuth {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
				return
			}
			// A failing store is not a bad token; clients must keep theirs.
			logger.FromContext(c).Error("authentication failed",
				zap.String("path", c.FullPath()),
				zap.Error(err))
			c.Error(err)
			c.AbortWithStatusJSON(kind.HTTPStatus(), gin.H{"error": apperr.PublicMessage(err)})
			return
		}

		c.Set(userIDKey, user.ID)
		c.Request = c.Request.WithContext(auth.WithUserID(ctx, user.ID))

		c.Next()
	}
}

// UserID returns the id of the authenticated caller, or "" outside
// AuthRequired.
func UserID(c *gin.Context) string {
	return c.GetString(userIDKey)
}
