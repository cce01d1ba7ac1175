package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Strob0t/TaskFlow/internal/domain"
	"github.com/Strob0t/TaskFlow/internal/domain/task"
)

func newPrioritizeCmd(g *globalFlags) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "prioritize",
		Short: "Score every task with the LLM and print the new order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := bootstrap(cmd.Context(), cmd, g, os.Stderr)
			if err != nil {
				return err
			}
			defer a.close()

			p := newPrinter(asJSON)
			outcome, err := a.prioritizer.Prioritize(cmd.Context())
			if errors.Is(err, domain.ErrNoTasks) {
				return p.message(outcome.Error)
			}
			if err != nil {
				return fmt.Errorf("%s: %w", outcome.Error, err)
			}

			if !p.json {
				if err := p.message(outcome.Message); err != nil {
					return err
				}
			}
			return p.tasks(a.store.List(task.ViewAll), a.store.Counts())
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON even on a terminal")
	return cmd
}
