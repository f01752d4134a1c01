package store

import (
	"strings"
	"time"

	"bugtrack/models"

	"github.com/google/uuid"
)

// NewUser assigns id and timestamps and normalises the email.
func NewUser(u models.User, now time.Time) models.User {
	u.ID = uuid.NewString()
	u.Email = NormalizeEmail(u.Email)
	u.Name = strings.TrimSpace(u.Name)
	if u.Role == "" {
		u.Role = models.RoleUser
	}
	u.CreatedAt = now
	u.UpdatedAt = now
	return u
}

// NormalizeEmail is the canonical form used for uniqueness and lookups.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
