package main

import (
	"bytes"
	"context"
	"net/http/httptest"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"bugtrack/auth"
	"bugtrack/memstore"
	"bugtrack/ratelimit"
	"bugtrack/server"
	"bugtrack/service"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type harness struct {
	t         *testing.T
	url       string
	tokenFile string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	gin.SetMode(gin.TestMode)

	st := memstore.New()
	cfg := auth.DefaultConfig()
	cfg.JWTSecret = "test-secret"
	cfg.BcryptCost = 4
	srv := httptest.NewServer(server.NewRouter(server.Deps{
		Service:     service.New(st, cfg, zap.NewNop()),
		Store:       st,
		AuthLimiter: ratelimit.NewMemoryLimiter(100, time.Minute),
		Logger:      zap.NewNop(),
	}))
	t.Cleanup(srv.Close)

	return &harness{t: t, url: srv.URL, tokenFile: filepath.Join(t.TempDir(), "token")}
}

// run executes bugctl with args and returns stdout, stderr and the error.
func (h *harness) run(args ...string) (string, string, error) {
	h.t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd(&out, &errOut)
	cmd.SetArgs(append([]string{"--server", h.url, "--token-file", h.tokenFile}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func (h *harness) mustRun(args ...string) string {
	h.t.Helper()
	out, errOut, err := h.run(args...)
	require.NoError(h.t, err, errOut)
	return out
}

var idPattern = regexp.MustCompile(`[0-9a-f]{8}-[0-9a-f-]{27}`)

func TestBugctl_Workflow(t *testing.T) {
	h := newHarness(t)

	_, _, err := h.run("whoami")
	assert.ErrorIs(t, err, errNotLoggedIn)

	out := h.mustRun("signup", "--name", "Dana", "--email", "dana@example.com", "--password", "password123")
	assert.Contains(t, out, "Welcome, Dana")

	out = h.mustRun("whoami")
	assert.Contains(t, out, "dana@example.com")

	out = h.mustRun("projects", "create", "Web", "--description", "site")
	projectID := idPattern.FindString(out)
	require.NotEmpty(t, projectID, out)

	out = h.mustRun("bugs", "create", "--title", "Login fails", "--project", projectID)
	bugID := idPattern.FindString(out)
	require.NotEmpty(t, bugID, out)

	out = h.mustRun("board", "move", bugID, "in-progress")
	assert.Contains(t, out, "Bug moved to In Progress")

	out = h.mustRun("board", "show", "--project", projectID)
	assert.Regexp(t, `In Progress \(1\)`, out)
	assert.Regexp(t, `Backlog \(0\)`, out)

	out = h.mustRun("bugs", "update", bugID, "--assignee", "Sam", "--priority", "high")
	assert.Contains(t, out, "version 3")

	out = h.mustRun("bugs", "show", bugID)
	assert.Contains(t, out, "Status changed from open → in-progress")
	assert.Contains(t, out, "Assignee changed from Unassigned → Sam")
	assert.Contains(t, out, "Priority changed from medium → high")

	_, _, err = h.run("bugs", "update", bugID, "--title", "x", "--version", "1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "409")

	_, _, err = h.run("bugs", "update", bugID)
	assert.Error(t, err)

	out = h.mustRun("bugs", "list", "--status", "in-progress")
	assert.Contains(t, out, "Login fails")

	out = h.mustRun("projects", "archive", projectID)
	assert.Contains(t, out, "Archived project Web")
	out = h.mustRun("projects", "list")
	assert.Contains(t, out, "No projects")
	out = h.mustRun("projects", "archive", projectID, "--restore")
	assert.Contains(t, out, "Restored project Web")

	h.mustRun("bugs", "delete", bugID)
	h.mustRun("logout")
	_, _, err = h.run("projects", "list")
	assert.ErrorIs(t, err, errNotLoggedIn)
}

func TestBugctl_BoardMoveRejectsUnknownColumn(t *testing.T) {
	h := newHarness(t)
	h.mustRun("signup", "--name", "Dana", "--email", "dana@example.com", "--password", "password123")

	_, _, err := h.run("board", "move", "some-bug", "archive")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown column")
}

func TestBugctl_LoginRequiresPassword(t *testing.T) {
	h := newHarness(t)
	t.Setenv("BUGTRACK_PASSWORD", "")

	_, _, err := h.run("login", "--email", "dana@example.com")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "password required")
}
