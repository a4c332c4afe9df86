package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/purelink/internal/discovery"
	"github.com/jonathan/purelink/internal/store"
)

func newDiscoverCmd(g *globalFlags) *cobra.Command {
	var (
		candidateID string
		interactive bool
	)
	cmd := &cobra.Command{
		Use:   "discover",
		Short: "Discover output methods for a captured tool",
		Long: `Finds the data-extraction methods a captured tool offers, reusing methods
discovered within the cache lifetime, and records the selected method.

The candidate is looked up in the candidate store, then in recorded captures.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signalContext(cmd)
			defer stop()

			a, err := openApp(ctx, cmd, g, true)
			if err != nil {
				return err
			}
			defer a.Close()

			opts, err := a.runOptions("", interactive)
			if err != nil {
				return err
			}
			res, err := a.runner.Discover(ctx, candidateID, opts)
			switch {
			case errors.Is(err, store.ErrNotFound):
				return fmt.Errorf("no captured tool with id %s", candidateID)
			case errors.Is(err, discovery.ErrNoMethods):
				return a.emit(map[string]any{"candidateId": candidateID, "methods": 0}, func() {
					a.printer.Messagef("No output methods found.")
				})
			case errors.Is(err, discovery.ErrNoSelection):
				return a.emit(map[string]any{"candidateId": candidateID, "selected": false}, func() {
					a.printer.Messagef("No method selected.")
				})
			case err != nil:
				return err
			}
			return a.emit(res.Display, func() { a.printer.PrintMethodSummary(res.Display) })
		},
	}
	cmd.Flags().StringVar(&candidateID, "candidate-id", "", "Candidate id from a previous capture")
	cmd.Flags().BoolVar(&interactive, "interactive", false, "Choose the method from a menu instead of taking the most confident")
	_ = cmd.MarkFlagRequired("candidate-id")
	return cmd
}
