package models

import (
	"time"
)

type Role string

const (
	RoleAdmin Role = "ADMIN"
	RoleUser  Role = "USER"
)

// User is an account. PasswordHash never leaves the server.
type User struct {
	ID                string     `json:"id" bson:"_id"`
	Name              string     `json:"name" bson:"name"`
	Email             string     `json:"email" bson:"email"`
	PasswordHash      string     `json:"-" bson:"password_hash"`
	Role              Role       `json:"role" bson:"role"`
	IsActive          bool       `json:"isActive" bson:"is_active"`
	LastLoginAt       *time.Time `json:"lastLoginAt" bson:"last_login_at,omitempty"`
	PasswordChangedAt *time.Time `json:"-" bson:"password_changed_at,omitempty"`
	CreatedAt         time.Time  `json:"createdAt" bson:"created_at"`
	UpdatedAt         time.Time  `json:"updatedAt" bson:"updated_at"`
}

// ChangedPasswordAfter reports whether the password changed after a token
// issued at issuedAt. Comparison is at second resolution, like JWT iat.
func (u *User) ChangedPasswordAfter(issuedAt time.Time) bool {
	if u.PasswordChangedAt == nil {
		return false
	}
	return issuedAt.Unix() < u.PasswordChangedAt.Unix()
}

type SignupRequest struct {
	Name     string `json:"name" binding:"required,min=2,max=50"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required,min=8"`
}

// AuthResponse is returned by signup and login.
type AuthResponse struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}
