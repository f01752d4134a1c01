package main

import (
	"fmt"
	"text/tabwriter"

	"bugtrack/models"

	"github.com/spf13/cobra"
)

func (a *app) projectsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "projects",
		Aliases: []string{"project"},
		Short:   "List, create and archive projects",
	}
	cmd.AddCommand(a.projectsListCmd(), a.projectsCreateCmd(), a.projectsArchiveCmd())
	return cmd
}

func (a *app) projectsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List your active projects",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireLogin(); err != nil {
				return err
			}
			ctx, cancel := a.context(cmd)
			defer cancel()

			projects, err := a.client.ListProjects(ctx)
			if err != nil {
				return err
			}
			if len(projects) == 0 {
				a.printf("No projects\n")
				return nil
			}

			w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
			defer w.Flush()
			fmt.Fprintln(w, "ID\tNAME\tMEMBERS\tUPDATED")
			for _, p := range projects {
				fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", p.ID, p.Name, len(p.Members), p.UpdatedAt.Format(timeLayout))
			}
			return nil
		},
	}
}

func (a *app) projectsCreateCmd() *cobra.Command {
	var description string
	cmd := &cobra.Command{
		Use:   "create NAME",
		Short: "Create a project you own",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireLogin(); err != nil {
				return err
			}
			ctx, cancel := a.context(cmd)
			defer cancel()

			p, err := a.client.CreateProject(ctx, models.CreateProjectRequest{Name: args[0], Description: description})
			if err != nil {
				return err
			}
			a.printf("Created project %s (%s)\n", p.Name, p.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&description, "description", "", "project description")
	return cmd
}

func (a *app) projectsArchiveCmd() *cobra.Command {
	var restore bool
	cmd := &cobra.Command{
		Use:   "archive ID",
		Short: "Archive a project, or restore it with --restore",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireLogin(); err != nil {
				return err
			}
			ctx, cancel := a.context(cmd)
			defer cancel()

			p, err := a.client.ArchiveProject(ctx, args[0], !restore)
			if err != nil {
				return err
			}
			if p.IsArchived {
				a.printf("Archived project %s\n", p.Name)
			} else {
				a.printf("Restored project %s\n", p.Name)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&restore, "restore", false, "unarchive instead")
	return cmd
}
