package main

import (
	"context"
	"errors"
	"os"

	"bugtrack/models"

	"github.com/spf13/cobra"
)

func (a *app) context(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), a.timeout)
}

// password reads --password, falling back to BUGTRACK_PASSWORD so it need
// not appear in shell history.
func password(flag string) (string, error) {
	if flag != "" {
		return flag, nil
	}
	if v := os.Getenv("BUGTRACK_PASSWORD"); v != "" {
		return v, nil
	}
	return "", errors.New("password required: pass --password or set BUGTRACK_PASSWORD")
}

func (a *app) loginCmd() *cobra.Command {
	var email, pass string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and remember the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			pw, err := password(pass)
			if err != nil {
				return err
			}
			ctx, cancel := a.context(cmd)
			defer cancel()

			user, err := a.session.Login(ctx, email, pw)
			if err != nil {
				return err
			}
			a.printf("Logged in as %s <%s>\n", user.Name, user.Email)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&pass, "password", "", "account password")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func (a *app) signupCmd() *cobra.Command {
	var req models.SignupRequest
	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create an account and sign in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			pw, err := password(req.Password)
			if err != nil {
				return err
			}
			req.Password = pw

			ctx, cancel := a.context(cmd)
			defer cancel()

			user, err := a.session.Signup(ctx, req)
			if err != nil {
				return err
			}
			a.printf("Welcome, %s. You are signed in.\n", user.Name)
			return nil
		},
	}
	cmd.Flags().StringVar(&req.Name, "name", "", "display name")
	cmd.Flags().StringVar(&req.Email, "email", "", "account email")
	cmd.Flags().StringVar(&req.Password, "password", "", "account password")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func (a *app) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.session.Logout(); err != nil {
				return err
			}
			a.printf("Logged out\n")
			return nil
		},
	}
}

func (a *app) whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireLogin(); err != nil {
				return err
			}
			u := a.session.User()
			a.printf("%s <%s> (%s)\n", u.Name, u.Email, u.Role)
			return nil
		},
	}
}
