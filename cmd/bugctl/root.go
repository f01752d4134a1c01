package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"bugtrack/client"

	"github.com/spf13/cobra"
)

type app struct {
	out     io.Writer
	errOut  io.Writer
	server  string
	tokens  string
	timeout time.Duration

	client  *client.Client
	session *client.Session
}

var errNotLoggedIn = errors.New("not logged in; run `bugctl login` first")

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	a := &app{out: out, errOut: errOut}

	root := &cobra.Command{
		Use:           "bugctl",
		Short:         "Work with the bug tracker from the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			a.client = client.New(a.server)
			a.session = client.NewSession(a.client, client.FileTokenStore{Path: a.tokens})

			ctx, cancel := a.context(cmd)
			defer cancel()
			return a.session.Restore(ctx)
		},
	}

	root.PersistentFlags().StringVar(&a.server, "server", envOr("BUGTRACK_URL", "http://localhost:8080"), "API base URL")
	root.PersistentFlags().StringVar(&a.tokens, "token-file", envOr("BUGTRACK_TOKEN_FILE", client.DefaultTokenPath()), "where the session token is kept")
	root.PersistentFlags().DurationVar(&a.timeout, "timeout", 15*time.Second, "request timeout")

	root.AddCommand(
		a.loginCmd(),
		a.signupCmd(),
		a.logoutCmd(),
		a.whoamiCmd(),
		a.projectsCmd(),
		a.bugsCmd(),
		a.boardCmd(),
	)
	return root
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// requireLogin fails fast instead of letting the server answer 401.
func (a *app) requireLogin() error {
	if a.session.State() != client.Authenticated {
		return errNotLoggedIn
	}
	return nil
}

func (a *app) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}
