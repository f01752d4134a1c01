package service

import (
	"context"
	"testing"
	"time"

	"bugtrack/apperr"
	"bugtrack/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignup(t *testing.T) {
	f := newFixture(t)

	resp := f.signup(t, "Dana", "Dana@Example.com")

	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, "dana@example.com", resp.User.Email)
	assert.Equal(t, models.RoleUser, resp.User.Role)
	assert.True(t, resp.User.IsActive)
	assert.Nil(t, resp.User.PasswordChangedAt)
	assert.NotEqual(t, "password123", resp.User.PasswordHash)
}

func TestSignup_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name string
		req  models.SignupRequest
	}{
		{"short name", models.SignupRequest{Name: "D", Email: "d@example.com", Password: "password123"}},
		{"bad email", models.SignupRequest{Name: "Dana", Email: "nope", Password: "password123"}},
		{"short password", models.SignupRequest{Name: "Dana", Email: "d@example.com", Password: "short"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Signup(ctx, tt.req)
			assert.True(t, apperr.Is(err, apperr.KindValidation))
		})
	}
}

func TestSignup_DuplicateEmail(t *testing.T) {
	f := newFixture(t)
	f.signup(t, "Dana", "dana@example.com")

	_, err := f.svc.Signup(context.Background(), models.SignupRequest{
		Name: "Other", Email: "DANA@example.com", Password: "password123",
	})
	assert.True(t, apperr.Is(err, apperr.KindConflict))
}

func TestLogin(t *testing.T) {
	f := newFixture(t)
	f.signup(t, "Dana", "dana@example.com")
	ctx := context.Background()

	resp, err := f.svc.Login(ctx, models.LoginRequest{Email: "dana@example.com", Password: "password123"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)
	require.NotNil(t, resp.User.LastLoginAt)

	stored, err := f.store.GetUser(ctx, resp.User.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.LastLoginAt)
	assert.Equal(t, f.clock.Now(), *stored.LastLoginAt)

	user, err := f.svc.Authenticate(ctx, resp.Token)
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, user.ID)
}

func TestLogin_Failures(t *testing.T) {
	f := newFixture(t)
	f.signup(t, "Dana", "dana@example.com")
	ctx := context.Background()

	_, err := f.svc.Login(ctx, models.LoginRequest{Email: "dana@example.com"})
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	_, err = f.svc.Login(ctx, models.LoginRequest{Email: "dana@example.com", Password: "wrong-password"})
	assert.True(t, apperr.Is(err, apperr.KindAuth))

	_, err = f.svc.Login(ctx, models.LoginRequest{Email: "nobody@example.com", Password: "password123"})
	assert.True(t, apperr.Is(err, apperr.KindAuth))
	assert.Equal(t, "invalid credentials", apperr.PublicMessage(err))
}

func TestAuthenticate_Rejects(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Authenticate(ctx, "garbage")
	assert.True(t, apperr.Is(err, apperr.KindAuth))

	// Valid signature but the user no longer exists.
	other := newFixture(t)
	ghost := other.signup(t, "Ghost", "ghost@example.com")
	_, err = f.svc.Authenticate(ctx, ghost.Token)
	assert.True(t, apperr.Is(err, apperr.KindAuth))
}

func TestChangePassword_InvalidatesOlderTokens(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	signup := f.signup(t, "Dana", "dana@example.com")

	f.clock.Advance(5 * time.Second)

	changed, err := f.svc.ChangePassword(ctx, signup.User.ID, models.ChangePasswordRequest{
		CurrentPassword: "password123",
		NewPassword:     "new-password-456",
	})
	require.NoError(t, err)

	_, err = f.svc.Authenticate(ctx, signup.Token)
	assert.True(t, apperr.Is(err, apperr.KindAuth), "token issued before the change must be rejected")

	user, err := f.svc.Authenticate(ctx, changed.Token)
	require.NoError(t, err)
	assert.Equal(t, signup.User.ID, user.ID)

	_, err = f.svc.Login(ctx, models.LoginRequest{Email: "dana@example.com", Password: "password123"})
	assert.True(t, apperr.Is(err, apperr.KindAuth))
	_, err = f.svc.Login(ctx, models.LoginRequest{Email: "dana@example.com", Password: "new-password-456"})
	assert.NoError(t, err)
}

func TestChangePassword_WrongCurrent(t *testing.T) {
	f := newFixture(t)
	signup := f.signup(t, "Dana", "dana@example.com")

	_, err := f.svc.ChangePassword(context.Background(), signup.User.ID, models.ChangePasswordRequest{
		CurrentPassword: "not-it-at-all",
		NewPassword:     "new-password-456",
	})
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}
