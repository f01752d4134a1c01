package service

import (
	"context"
	"strings"
	"time"

	"bugtrack/apperr"
	"bugtrack/auth"
	"bugtrack/metrics"
	"bugtrack/models"

	"go.uber.org/zap"
)

func (s *Service) Signup(ctx context.Context, req models.SignupRequest) (*models.AuthResponse, error) {
	name := strings.TrimSpace(req.Name)
	if len(name) < 2 || len(name) > 50 {
		return nil, apperr.Validation("name must be between 2 and 50 characters")
	}
	if !strings.Contains(req.Email, "@") {
		return nil, apperr.Validation("a valid email is required")
	}
	if len(req.Password) < 8 {
		return nil, apperr.Validation("password must be at least 8 characters")
	}

	hash, err := auth.HashPassword(s.auth, req.Password)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	user, err := s.store.CreateUser(ctx, models.User{
		Name:         name,
		Email:        req.Email,
		PasswordHash: hash,
		Role:         models.RoleUser,
		IsActive:     true,
	})
	if err != nil {
		return nil, err
	}

	token, err := auth.GenerateToken(s.auth, user.ID, s.now())
	if err != nil {
		return nil, apperr.Internal(err)
	}

	s.log.Info("user signed up", zap.String("user_id", user.ID))
	return &models.AuthResponse{Token: token, User: user}, nil
}

func (s *Service) Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error) {
	metrics.AuthAttempts.Inc()

	if req.Email == "" || req.Password == "" {
		metrics.RecordAuthFailure("missing_credentials")
		return nil, apperr.Validation("email and password are required")
	}

	user, err := s.store.GetUserByEmail(ctx, req.Email)
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			metrics.RecordAuthFailure("user_not_found")
			return nil, apperr.Auth("invalid credentials")
		}
		return nil, err
	}

	if !auth.CheckPassword(req.Password, user.PasswordHash) {
		metrics.RecordAuthFailure("invalid_password")
		return nil, apperr.Auth("invalid credentials")
	}
	if !user.IsActive {
		metrics.RecordAuthFailure("inactive")
		return nil, apperr.Auth("account is disabled")
	}

	now := s.now()
	if err := s.store.RecordLogin(ctx, user.ID, now); err != nil {
		return nil, err
	}
	user.LastLoginAt = &now

	token, err := auth.GenerateToken(s.auth, user.ID, now)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	s.log.Info("user logged in", zap.String("user_id", user.ID))
	return &models.AuthResponse{Token: token, User: user}, nil
}

// Authenticate resolves a bearer token to its user. Expired tokens, tokens
// of unknown or disabled users and tokens issued before the last password
// change are rejected.
func (s *Service) Authenticate(ctx context.Context, token string) (*models.User, error) {
	claims, err := auth.ParseToken(s.auth, token)
	if err != nil {
		s.log.Debug("token rejected", zap.Error(err))
		return nil, apperr.Auth("unauthorized")
	}

	user, err := s.store.GetUser(ctx, claims.Subject)
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return nil, apperr.Auth("unauthorized")
		}
		return nil, err
	}

	if !user.IsActive || user.ChangedPasswordAfter(claims.IssuedAt()) {
		return nil, apperr.Auth("unauthorized")
	}
	return user, nil
}

func (s *Service) Profile(ctx context.Context, userID string) (*models.User, error) {
	return s.store.GetUser(ctx, userID)
}

// ChangePassword replaces the password and returns a fresh token; every
// token issued before the change stops working.
func (s *Service) ChangePassword(ctx context.Context, userID string, req models.ChangePasswordRequest) (*models.AuthResponse, error) {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !auth.CheckPassword(req.CurrentPassword, user.PasswordHash) {
		return nil, apperr.Validation("current password is incorrect")
	}
	if len(req.NewPassword) < 8 {
		return nil, apperr.Validation("password must be at least 8 characters")
	}

	hash, err := auth.HashPassword(s.auth, req.NewPassword)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	now := s.now()
	// Backdated so a token issued in the same second is still newer.
	changedAt := now.Add(-time.Second)
	if err := s.store.UpdatePassword(ctx, userID, hash, changedAt); err != nil {
		return nil, err
	}
	user.PasswordHash = hash
	user.PasswordChangedAt = &changedAt

	token, err := auth.GenerateToken(s.auth, userID, now)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	s.log.Info("password changed", zap.String("user_id", userID))
	return &models.AuthResponse{Token: token, User: user}, nil
}
