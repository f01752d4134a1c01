package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"bugtrack/auth"
	"bugtrack/memstore"
	"bugtrack/models"

	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

// fakeClock is a controllable time source shared by the service and store.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Now().Truncate(time.Second)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type fixture struct {
	svc   *Service
	store *memstore.Store
	clock *fakeClock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	clock := newFakeClock()
	st := memstore.New().WithClock(clock.Now)
	cfg := auth.DefaultConfig()
	cfg.JWTSecret = "test-secret"
	cfg.BcryptCost = 4
	svc := New(st, cfg, nil).WithClock(clock.Now)
	return &fixture{svc: svc, store: st, clock: clock}
}

func (f *fixture) signup(t *testing.T, name, email string) *models.AuthResponse {
	t.Helper()
	resp, err := f.svc.Signup(context.Background(), models.SignupRequest{
		Name:     name,
		Email:    email,
		Password: "password123",
	})
	require.NoError(t, err)
	return resp
}

func (f *fixture) project(t *testing.T, ownerID, name string) *models.Project {
	t.Helper()
	p, err := f.svc.CreateProject(context.Background(), ownerID, models.CreateProjectRequest{Name: name})
	require.NoError(t, err)
	return p
}
