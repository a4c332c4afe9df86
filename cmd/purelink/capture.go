package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
)

func newCaptureCmd(g *globalFlags) *cobra.Command {
	var input string
	cmd := &cobra.Command{
		Use:   "capture",
		Short: "Identify a tool from free text and record it",
		Long: `Resolves a tool name into a confirmed candidate and records a capture.

Without --input the command asks for the tool interactively, confirms the match
and offers up to the configured number of refinement attempts. With --input the
best candidate is accepted automatically.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signalContext(cmd)
			defer stop()

			a, err := openApp(ctx, cmd, g, true)
			if err != nil {
				return err
			}
			defer a.Close()

			opts, err := a.runOptions(input, input == "")
			if err != nil {
				return err
			}
			res, err := a.runner.Capture(ctx, opts)
			if err != nil {
				return err
			}
			if !res.Captured() {
				return a.emit(map[string]any{"captured": false, "attempts": res.Outcome.Attempts}, func() {})
			}
			return a.emit(res.Display, func() { a.printer.PrintCaptureSummary(res.Display) })
		},
	}
	cmd.Flags().StringVarP(&input, "input", "i", "", "Tool description; skips the interactive prompts")
	return cmd
}

func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt)
}
