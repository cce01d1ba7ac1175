package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Strob0t/TaskFlow/internal/domain"
	"github.com/Strob0t/TaskFlow/internal/domain/task"
)

func newTasksCmd(g *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tasks",
		Short: "List and edit tasks in the configured store",
	}
	var asJSON bool
	cmd.PersistentFlags().BoolVar(&asJSON, "json", false, "print JSON even on a terminal")

	cmd.AddCommand(
		tasksListCmd(g, &asJSON),
		tasksAddCmd(g, &asJSON),
		tasksEditCmd(g, &asJSON),
		tasksToggleCmd(g, &asJSON),
		tasksRemoveCmd(g, &asJSON),
	)
	return cmd
}

func tasksListCmd(g *globalFlags, asJSON *bool) *cobra.Command {
	var view string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks in display order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			v, err := task.ParseView(view)
			if err != nil {
				return err
			}
			a, err := bootstrap(cmd.Context(), cmd, g, os.Stderr)
			if err != nil {
				return err
			}
			defer a.close()

			return newPrinter(*asJSON).tasks(a.store.List(v), a.store.Counts())
		},
	}
	cmd.Flags().StringVar(&view, "view", string(task.ViewPending), "pending, completed or all")
	return cmd
}

// formFlags are the task form fields shared by add and edit.
type formFlags struct {
	title      string
	due        string
	importance string
}

func (f *formFlags) register(cmd *cobra.Command, importanceDefault string) {
	cmd.Flags().StringVarP(&f.title, "title", "t", "", "task title")
	cmd.Flags().StringVarP(&f.due, "due", "d", "", "due date (YYYY-MM-DD)")
	cmd.Flags().StringVarP(&f.importance, "importance", "i", importanceDefault, "low, medium or high")
}

func tasksAddCmd(g *globalFlags, asJSON *bool) *cobra.Command {
	var f formFlags
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a task",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := bootstrap(cmd.Context(), cmd, g, os.Stderr)
			if err != nil {
				return err
			}
			defer a.close()

			form := task.Form{Title: f.title, DueDate: f.due, Importance: f.importance}
			draft, err := form.ValidateCreate(a.store.Today())
			if err != nil {
				return err
			}
			return newPrinter(*asJSON).task(a.store.Add(cmd.Context(), draft))
		},
	}
	f.register(cmd, string(task.ImportanceMedium))
	_ = cmd.MarkFlagRequired("title")
	return cmd
}

func tasksEditCmd(g *globalFlags, asJSON *bool) *cobra.Command {
	var (
		f        formFlags
		clearDue bool
	)
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change the title, due date or importance of a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := bootstrap(cmd.Context(), cmd, g, os.Stderr)
			if err != nil {
				return err
			}
			defer a.close()

			current, ok := a.store.Get(args[0])
			if !ok {
				return fmt.Errorf("task %s: %w", args[0], domain.ErrNotFound)
			}

			// Unset flags keep the current values.
			form := task.Form{Title: current.Title, Importance: string(current.Importance)}
			if current.DueDate != nil {
				form.DueDate = current.DueDate.String()
			}
			if cmd.Flags().Changed("title") {
				form.Title = f.title
			}
			if cmd.Flags().Changed("due") {
				form.DueDate = f.due
			}
			if clearDue {
				form.DueDate = ""
			}
			if cmd.Flags().Changed("importance") {
				form.Importance = f.importance
			}

			draft, err := form.ValidateEdit()
			if err != nil {
				return err
			}
			updated, ok := a.store.Edit(cmd.Context(), args[0], draft)
			if !ok {
				return fmt.Errorf("task %s: %w", args[0], domain.ErrNotFound)
			}
			return newPrinter(*asJSON).task(updated)
		},
	}
	f.register(cmd, "")
	cmd.Flags().BoolVar(&clearDue, "clear-due", false, "remove the due date")
	cmd.MarkFlagsMutuallyExclusive("due", "clear-due")
	return cmd
}

func tasksToggleCmd(g *globalFlags, asJSON *bool) *cobra.Command {
	return &cobra.Command{
		Use:     "toggle <id>",
		Aliases: []string{"done"},
		Short:   "Mark a task completed, or pending again",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := bootstrap(cmd.Context(), cmd, g, os.Stderr)
			if err != nil {
				return err
			}
			defer a.close()

			t, ok := a.store.ToggleComplete(cmd.Context(), args[0])
			if !ok {
				return fmt.Errorf("task %s: %w", args[0], domain.ErrNotFound)
			}
			return newPrinter(*asJSON).task(t)
		},
	}
}

func tasksRemoveCmd(g *globalFlags, asJSON *bool) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"delete"},
		Short:   "Delete a task",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := bootstrap(cmd.Context(), cmd, g, os.Stderr)
			if err != nil {
				return err
			}
			defer a.close()

			msg := "Task deleted."
			if !a.store.Delete(cmd.Context(), args[0]) {
				msg = "No task with that id."
			}
			return newPrinter(*asJSON).message(msg)
		},
	}
}

// describeError turns a validation error into a readable multi-line message.
func describeError(err error) string {
	var ve *task.ValidationError
	if !errors.As(err, &ve) {
		return err.Error()
	}
	msg := "invalid task:"
	for _, field := range []string{task.FieldTitle, task.FieldDueDate, task.FieldImportance} {
		if m, ok := ve.Fields[field]; ok {
			msg += fmt.Sprintf("\n  %s: %s", field, m)
		}
	}
	return msg
}
