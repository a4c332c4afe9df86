package main

import (
	"github.com/spf13/cobra"

	"github.com/jonathan/purelink/internal/types"
)

// workflowOutput is the JSON document printed by workflow --json.
type workflowOutput struct {
	Tool   *types.CaptureDisplay `json:"tool"`
	Method *types.MethodDisplay  `json:"method"`
}

func newWorkflowCmd(g *globalFlags) *cobra.Command {
	var (
		input       string
		autoConfirm bool
	)
	cmd := &cobra.Command{
		Use:   "workflow",
		Short: "Capture a tool and discover its output methods in one run",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signalContext(cmd)
			defer stop()

			a, err := openApp(ctx, cmd, g, true)
			if err != nil {
				return err
			}
			defer a.Close()

			opts, err := a.runOptions(input, !autoConfirm)
			if err != nil {
				return err
			}
			res, err := a.runner.Workflow(ctx, opts)
			if err != nil {
				return err
			}

			out := workflowOutput{Tool: res.Capture.Display}
			if res.Discovery != nil {
				out.Method = res.Discovery.Display
			}
			return a.emit(out, func() {
				if out.Tool != nil {
					a.printer.PrintCaptureSummary(out.Tool)
				}
				if out.Method != nil {
					a.printer.PrintMethodSummary(out.Method)
				}
			})
		},
	}
	cmd.Flags().StringVarP(&input, "input", "i", "", "Tool description (prompted for when empty)")
	cmd.Flags().BoolVar(&autoConfirm, "auto-confirm", false, "Accept the best candidate and method without prompting")
	return cmd
}
