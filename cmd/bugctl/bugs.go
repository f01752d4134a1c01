package main

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"bugtrack/models"

	"github.com/spf13/cobra"
)

const timeLayout = "2006-01-02 15:04"

func displayAssignee(name string) string {
	if name == "" {
		return "Unassigned"
	}
	return name
}

func (a *app) bugsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "bugs",
		Aliases: []string{"bug"},
		Short:   "Work with bugs",
	}
	cmd.AddCommand(
		a.bugsListCmd(),
		a.bugsShowCmd(),
		a.bugsCreateCmd(),
		a.bugsUpdateCmd(),
		a.bugsDeleteCmd(),
	)
	return cmd
}

func (a *app) bugsListCmd() *cobra.Command {
	var status, priority, project string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List bugs in your projects",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireLogin(); err != nil {
				return err
			}
			ctx, cancel := a.context(cmd)
			defer cancel()

			bugs, err := a.client.ListBugs(ctx, models.BugFilter{
				Status:    models.Status(status),
				Priority:  models.Priority(priority),
				ProjectID: project,
			})
			if err != nil {
				return err
			}
			if len(bugs) == 0 {
				a.printf("No bugs\n")
				return nil
			}

			w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
			defer w.Flush()
			fmt.Fprintln(w, "ID\tTITLE\tSTATUS\tPRIORITY\tASSIGNEE\tUPDATED")
			for _, b := range bugs {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
					b.ID, b.Title, b.Status, b.Priority, displayAssignee(b.AssignedTo), b.UpdatedAt.Format(timeLayout))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "open, in-progress or done")
	cmd.Flags().StringVar(&priority, "priority", "", "low, medium or high")
	cmd.Flags().StringVar(&project, "project", "", "project id")
	return cmd
}

func (a *app) bugsShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Show a bug with its activity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireLogin(); err != nil {
				return err
			}
			ctx, cancel := a.context(cmd)
			defer cancel()

			b, err := a.client.GetBug(ctx, args[0])
			if err != nil {
				return err
			}

			a.printf("%s\n", b.Title)
			a.printf("  id:        %s\n", b.ID)
			a.printf("  project:   %s\n", b.ProjectID)
			a.printf("  status:    %s\n", b.Status)
			a.printf("  priority:  %s\n", b.Priority)
			a.printf("  assignee:  %s\n", displayAssignee(b.AssignedTo))
			a.printf("  version:   %d\n", b.Version)
			if b.Description != "" {
				a.printf("\n%s\n", b.Description)
			}
			a.printf("\nActivity:\n")
			for _, e := range b.Activity {
				a.printf("  %s  %s\n", e.Timestamp.Local().Format(timeLayout), e.Message)
			}
			return nil
		},
	}
}

func (a *app) bugsCreateCmd() *cobra.Command {
	var req models.CreateBugRequest
	var priority, status string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Report a bug",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireLogin(); err != nil {
				return err
			}
			req.Priority = models.Priority(priority)
			req.Status = models.Status(status)

			ctx, cancel := a.context(cmd)
			defer cancel()

			b, err := a.client.CreateBug(ctx, req)
			if err != nil {
				return err
			}
			a.printf("Created bug %s\n", b.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&req.Title, "title", "", "short summary")
	cmd.Flags().StringVar(&req.ProjectID, "project", "", "project id")
	cmd.Flags().StringVar(&req.Description, "description", "", "details")
	cmd.Flags().StringVar(&req.AssignedTo, "assignee", "", "who should fix it")
	cmd.Flags().StringVar(&priority, "priority", "", "low, medium or high (default medium)")
	cmd.Flags().StringVar(&status, "status", "", "open, in-progress or done (default open)")
	_ = cmd.MarkFlagRequired("title")
	_ = cmd.MarkFlagRequired("project")
	return cmd
}

func (a *app) bugsUpdateCmd() *cobra.Command {
	var title, description, priority, status, assignee string
	var version int
	cmd := &cobra.Command{
		Use:   "update ID",
		Short: "Change fields of a bug; only the flags given are sent",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireLogin(); err != nil {
				return err
			}

			flags := cmd.Flags()
			var patch models.BugPatch
			if flags.Changed("title") {
				patch.Title = &title
			}
			if flags.Changed("description") {
				patch.Description = &description
			}
			if flags.Changed("priority") {
				p := models.Priority(priority)
				patch.Priority = &p
			}
			if flags.Changed("status") {
				s := models.Status(status)
				patch.Status = &s
			}
			if flags.Changed("assignee") {
				patch.AssignedTo = &assignee
			}
			if flags.Changed("version") {
				patch.Version = &version
			}
			if patch.Empty() {
				return errors.New("nothing to update: pass at least one field flag")
			}

			ctx, cancel := a.context(cmd)
			defer cancel()

			b, err := a.client.UpdateBug(ctx, args[0], patch)
			if err != nil {
				return err
			}
			a.printf("Updated bug %s (version %d)\n", b.ID, b.Version)
			return nil
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "new title")
	cmd.Flags().StringVar(&description, "description", "", "new description")
	cmd.Flags().StringVar(&priority, "priority", "", "low, medium or high")
	cmd.Flags().StringVar(&status, "status", "", "open, in-progress or done")
	cmd.Flags().StringVar(&assignee, "assignee", "", "assignee; empty unassigns")
	cmd.Flags().IntVar(&version, "version", 0, "fail if the bug is no longer at this version")
	return cmd
}

func (a *app) bugsDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a bug",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireLogin(); err != nil {
				return err
			}
			ctx, cancel := a.context(cmd)
			defer cancel()

			if err := a.client.DeleteBug(ctx, args[0]); err != nil {
				return err
			}
			a.printf("Deleted bug %s\n", args[0])
			return nil
		},
	}
}
