package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/purelink/internal/pipeline"
	"github.com/jonathan/purelink/internal/store"
)

func newHistoryCmd(g *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect recorded captures and discoveries",
	}
	cmd.AddCommand(newHistoryStatsCmd(g), newHistoryRecentCmd(g), newHistoryShowCmd(g))
	return cmd
}

func newHistoryStatsCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show record totals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signalContext(cmd)
			defer stop()

			a, err := openApp(ctx, cmd, g, false)
			if err != nil {
				return err
			}
			defer a.Close()

			stats, err := a.runner.Stats(ctx)
			if err != nil {
				return err
			}
			return a.emit(stats, func() { a.printer.PrintStats(stats) })
		},
	}
}

func newHistoryRecentCmd(g *globalFlags) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "recent",
		Short: "List recent captures",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signalContext(cmd)
			defer stop()

			a, err := openApp(ctx, cmd, g, false)
			if err != nil {
				return err
			}
			defer a.Close()

			captures, err := a.runner.Recent(ctx, limit)
			if err != nil {
				return err
			}
			return a.emit(captures, func() { a.printer.PrintCaptures(captures) })
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", pipeline.DefaultRecentLimit, "Maximum captures to list")
	return cmd
}

func newHistoryShowCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "show <candidate-id>",
		Short: "Show the latest capture and discovery for a tool",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext(cmd)
			defer stop()

			a, err := openApp(ctx, cmd, g, false)
			if err != nil {
				return err
			}
			defer a.Close()

			h, err := a.runner.Show(ctx, args[0])
			if errors.Is(err, store.ErrNotFound) {
				return fmt.Errorf("no captured tool with id %s", args[0])
			}
			if err != nil {
				return err
			}
			return a.emit(h, func() {
				a.printer.PrintCandidate(&h.Candidate)
				if h.Discovery != nil {
					a.printer.PrintMethods(h.Candidate.ToolName, h.Discovery)
					a.printer.PrintExpiration(h.Expiration)
				}
			})
		},
	}
}
