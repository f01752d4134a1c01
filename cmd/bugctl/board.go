package main

import (
	"context"
	"fmt"
	"io"

	"bugtrack/kanban"
	"bugtrack/models"

	"github.com/spf13/cobra"
)

// printNotifier shows board notifications on the terminal.
type printNotifier struct {
	out, errOut io.Writer
}

func (n printNotifier) Success(msg string) { fmt.Fprintln(n.out, msg) }
func (n printNotifier) Error(msg string)   { fmt.Fprintln(n.errOut, msg) }

func (a *app) boardCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "board",
		Short: "Kanban view of a project",
	}
	cmd.AddCommand(a.boardShowCmd(), a.boardMoveCmd())
	return cmd
}

func (a *app) loadBoard(ctx context.Context, projectID string) (*kanban.Board, error) {
	bugs, err := a.client.ListBugs(ctx, models.BugFilter{ProjectID: projectID})
	if err != nil {
		return nil, err
	}
	board := kanban.New(a.client, printNotifier{out: a.out, errOut: a.errOut})
	board.Load(bugs)
	return board, nil
}

func (a *app) boardShowCmd() *cobra.Command {
	var project string
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the three status columns of a project",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireLogin(); err != nil {
				return err
			}
			ctx, cancel := a.context(cmd)
			defer cancel()

			board, err := a.loadBoard(ctx, project)
			if err != nil {
				return err
			}

			for i, col := range board.Columns() {
				if i > 0 {
					a.printf("\n")
				}
				a.printf("%s (%d) [%s]\n", col.Title, len(col.Bugs), col.ID)
				if len(col.Bugs) == 0 {
					a.printf("  -\n")
				}
				for _, b := range col.Bugs {
					a.printf("  %s  %-6s  %s  (%s)\n", shortID(b.ID), b.Priority, b.Title, displayAssignee(b.AssignedTo))
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&project, "project", "", "project id")
	_ = cmd.MarkFlagRequired("project")
	return cmd
}

func (a *app) boardMoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "move BUG_ID COLUMN",
		Short: "Move a bug to backlog, in-progress or done",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireLogin(); err != nil {
				return err
			}
			bugID, column := args[0], args[1]
			if _, ok := kanban.ColumnByID(column); !ok {
				return fmt.Errorf("unknown column %q: use backlog, in-progress or done", column)
			}

			ctx, cancel := a.context(cmd)
			defer cancel()

			bug, err := a.client.GetBug(ctx, bugID)
			if err != nil {
				return err
			}
			board, err := a.loadBoard(ctx, bug.ProjectID)
			if err != nil {
				return err
			}

			if err := board.BeginDrag(bugID); err != nil {
				return err
			}
			before, _, _ := board.Card(bugID)
			if err := board.Drop(ctx, bugID, column); err != nil {
				// The board already reported the failure.
				return fmt.Errorf("bug stays in %s", before.Status)
			}
			if after, _, _ := board.Card(bugID); after.Status == before.Status {
				a.printf("Bug is already in %s\n", column)
			}
			return nil
		},
	}
}

func shortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}
