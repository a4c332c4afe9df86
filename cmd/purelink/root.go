package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// globalFlags are shared by every subcommand.
type globalFlags struct {
	configPath  string
	apiKey      string
	dataDir     string
	backend     string
	databaseURL string
	verbose     bool
	json        bool

	logger *zap.Logger
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{logger: zap.NewNop()}

	root := &cobra.Command{
		Use:   "purelink",
		Short: "Identify software tools and discover how to get data out of them",
		Long: `purelink resolves free-text tool names into confirmed tool identities and
discovers the output methods (APIs, exports, webhooks, connectors) each tool offers.

Configuration can be loaded from a JSON file using --config. Command-line flags override config file values.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			log, err := buildLogger(g.verbose)
			if err != nil {
				return err
			}
			g.logger = log
			return nil
		},
		PersistentPostRun: func(_ *cobra.Command, _ []string) {
			_ = g.logger.Sync()
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&g.configPath, "config", "", "Path to config.json file (values can be overridden by other flags)")
	flags.StringVar(&g.apiKey, "api-key", "", "Gemini API key (defaults to GOOGLE_API_KEY or GEMINI_API_KEY)")
	flags.StringVar(&g.dataDir, "data-dir", "", "Directory for JSONL and bolt stores (default \"data\")")
	flags.StringVar(&g.backend, "backend", "", "Record log backend: jsonl or postgres")
	flags.StringVar(&g.databaseURL, "database-url", "", "PostgreSQL connection URL (defaults to DATABASE_URL)")
	flags.BoolVarP(&g.verbose, "verbose", "v", false, "Print detailed debug information")
	flags.BoolVar(&g.json, "json", false, "Print results as JSON")

	root.AddCommand(
		newCaptureCmd(g),
		newDiscoverCmd(g),
		newWorkflowCmd(g),
		newHistoryCmd(g),
	)
	return root
}

// buildLogger returns a quiet production logger, or a development logger when verbose.
func buildLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopmentConfig().Build()
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	return cfg.Build()
}
