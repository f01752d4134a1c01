package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"bugtrack/models"
)

// SessionState is where a Session is in its lifecycle.
type SessionState int

const (
	Uninitialized SessionState = iota
	Loading
	Authenticated
	Anonymous
)

func (s SessionState) String() string {
	switch s {
	case Loading:
		return "loading"
	case Authenticated:
		return "authenticated"
	case Anonymous:
		return "anonymous"
	default:
		return "uninitialized"
	}
}

// TokenStore persists the bearer token between runs. Load returns "" when
// nothing is stored.
type TokenStore interface {
	Load() (string, error)
	Save(token string) error
	Clear() error
}

// MemoryTokenStore keeps the token for the life of the process.
type MemoryTokenStore struct {
	mu    sync.Mutex
	token string
}

func (m *MemoryTokenStore) Load() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token, nil
}

func (m *MemoryTokenStore) Save(token string) error {
	m.mu.Lock()
	m.token = token
	m.mu.Unlock()
	return nil
}

func (m *MemoryTokenStore) Clear() error {
	return m.Save("")
}

// FileTokenStore keeps the token in a file readable only by its owner.
type FileTokenStore struct {
	Path string
}

// DefaultTokenPath is ~/.config/bugtrack/token, falling back to the
// working directory when no config dir is known.
func DefaultTokenPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".bugtrack-token"
	}
	return filepath.Join(dir, "bugtrack", "token")
}

func (f FileTokenStore) Load() (string, error) {
	data, err := os.ReadFile(f.Path)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read token: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

func (f FileTokenStore) Save(token string) error {
	if err := os.MkdirAll(filepath.Dir(f.Path), 0o700); err != nil {
		return fmt.Errorf("create token dir: %w", err)
	}
	if err := os.WriteFile(f.Path, []byte(token+"\n"), 0o600); err != nil {
		return fmt.Errorf("write token: %w", err)
	}
	return nil
}

func (f FileTokenStore) Clear() error {
	if err := os.Remove(f.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove token: %w", err)
	}
	return nil
}

// Session tracks who the client is signed in as. It starts Uninitialized;
// Restore moves it through Loading to Authenticated or Anonymous. Any 401
// seen by the client clears the stored token and makes it Anonymous.
type Session struct {
	client *Client
	tokens TokenStore

	mu    sync.RWMutex
	state SessionState
	user  *models.User
}

func NewSession(c *Client, tokens TokenStore) *Session {
	s := &Session{client: c, tokens: tokens}
	c.OnUnauthorized(s.expire)
	return s
}

func (s *Session) State() SessionState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// User is the signed-in user, or nil unless Authenticated.
func (s *Session) User() *models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

// Restore loads a stored token and validates it against the profile
// endpoint. A rejected token leaves the session Anonymous without error;
// other failures are returned and also leave it Anonymous.
func (s *Session) Restore(ctx context.Context) error {
	s.setState(Loading, nil)

	token, err := s.tokens.Load()
	if err != nil {
		s.setState(Anonymous, nil)
		return err
	}
	if token == "" {
		s.setState(Anonymous, nil)
		return nil
	}

	s.client.SetToken(token)
	user, err := s.client.Profile(ctx)
	if err != nil {
		if IsStatus(err, http.StatusUnauthorized) {
			// expire already ran through the client hook.
			return nil
		}
		s.client.SetToken("")
		s.setState(Anonymous, nil)
		return err
	}

	s.setState(Authenticated, user)
	return nil
}

func (s *Session) Login(ctx context.Context, email, password string) (*models.User, error) {
	resp, err := s.client.Login(ctx, models.LoginRequest{Email: email, Password: password})
	if err != nil {
		return nil, err
	}
	return s.adopt(resp)
}

func (s *Session) Signup(ctx context.Context, req models.SignupRequest) (*models.User, error) {
	resp, err := s.client.Signup(ctx, req)
	if err != nil {
		return nil, err
	}
	return s.adopt(resp)
}

// ChangePassword swaps in the new token the server issues.
func (s *Session) ChangePassword(ctx context.Context, current, next string) error {
	resp, err := s.client.ChangePassword(ctx, models.ChangePasswordRequest{
		CurrentPassword: current,
		NewPassword:     next,
	})
	if err != nil {
		return err
	}
	_, err = s.adopt(resp)
	return err
}

func (s *Session) Logout() error {
	s.client.SetToken("")
	s.setState(Anonymous, nil)
	return s.tokens.Clear()
}

func (s *Session) adopt(resp *models.AuthResponse) (*models.User, error) {
	s.client.SetToken(resp.Token)
	s.setState(Authenticated, resp.User)
	if err := s.tokens.Save(resp.Token); err != nil {
		return resp.User, err
	}
	return resp.User, nil
}

func (s *Session) expire() {
	_ = s.tokens.Clear()
	s.setState(Anonymous, nil)
}

func (s *Session) setState(state SessionState, user *models.User) {
	s.mu.Lock()
	s.state = state
	s.user = user
	s.mu.Unlock()
}
