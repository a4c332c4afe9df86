package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jonathan/purelink/internal/config"
	"github.com/jonathan/purelink/internal/confirm"
	"github.com/jonathan/purelink/internal/db"
	"github.com/jonathan/purelink/internal/discovery"
	"github.com/jonathan/purelink/internal/fetch"
	"github.com/jonathan/purelink/internal/llm"
	"github.com/jonathan/purelink/internal/observability"
	"github.com/jonathan/purelink/internal/oracle"
	"github.com/jonathan/purelink/internal/pipeline"
	"github.com/jonathan/purelink/internal/store"
)

// app holds everything a command needs for one invocation.
type app struct {
	cfg     config.Config
	runner  *pipeline.Runner
	printer *observability.Printer
	out     io.Writer
	json    bool
	logger  *zap.Logger
	closers []func() error
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Warn("close failed", zap.Error(err))
		}
	}
}

// openApp wires stores, the oracle and the runner. The oracle client is only
// created (and pinged) when withOracle is set, so history commands work
// without credentials.
func openApp(ctx context.Context, cmd *cobra.Command, g *globalFlags, withOracle bool) (*app, error) {
	cfg, err := osSettings(g, cmd.Flags())
	if err != nil {
		return nil, err
	}

	// JSON mode keeps stdout for the result document.
	boxes := cmd.OutOrStdout()
	if g.json {
		boxes = cmd.ErrOrStderr()
	}
	a := &app{
		cfg:     cfg,
		printer: observability.NewPrinter(boxes),
		out:     cmd.OutOrStdout(),
		json:    g.json,
		logger:  g.logger,
	}

	deps := pipeline.Deps{
		Printer: a.printer,
		Logger:  g.logger,
	}

	var database *db.DB
	if cfg.Backend == config.BackendPostgres || cfg.CandidateBackend == config.BackendPostgres {
		database, err = db.Connect(ctx, cfg.DatabaseURL, db.WithLogger(g.logger))
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		a.closers = append(a.closers, database.Close)
	}

	if err := openStores(&deps, a, cfg, database); err != nil {
		a.Close()
		return nil, err
	}

	if withOracle {
		if err := cfg.RequireAPIKey(); err != nil {
			a.Close()
			return nil, err
		}
		client, err := llm.NewClient(ctx, llm.DefaultConfig().WithModel(llm.TierStandard, cfg.Model), cfg.APIKey)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.closers = append(a.closers, client.Close)
		if _, err := client.Ping(ctx); err != nil {
			a.Close()
			return nil, fmt.Errorf("model connectivity check failed: %w", err)
		}
		gateway := oracle.NewGateway(client, g.logger)
		deps.Oracle = gateway
		deps.Model = gateway.Model()
		g.logger.Debug("model ready", zap.String("model", deps.Model))
	}

	if cfg.ShouldVerifyDocs() {
		prober := fetch.NewCachedProber(fetch.NewHTTPProber(&fetch.Options{Timeout: cfg.ProbeTimeoutDuration()}))
		deps.Verifier = discovery.NewVerifier(prober, g.logger)
	}
	deps.Prompter = confirm.NewLinePrompter(cmd.InOrStdin(), a.printer)

	a.runner = pipeline.NewRunner(deps)
	return a, nil
}

func openStores(deps *pipeline.Deps, a *app, cfg config.Config, database *db.DB) error {
	fs := afero.NewOsFs()

	switch cfg.Backend {
	case config.BackendPostgres:
		deps.Log = database
	default:
		log, err := store.NewFileLog(fs, cfg.DataDir, a.logger)
		if err != nil {
			return err
		}
		deps.Log = log
		a.closers = append(a.closers, log.Close)
	}

	switch cfg.CandidateBackend {
	case config.BackendPostgres:
		deps.Candidates = database
	case config.BackendBolt:
		if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
			return fmt.Errorf("failed to create data dir: %w", err)
		}
		bolt, err := store.OpenBoltCandidates(filepath.Join(cfg.DataDir, store.BoltFileName), nil)
		if err != nil {
			return err
		}
		deps.Candidates = bolt
		a.closers = append(a.closers, bolt.Close)
	default:
		candidates, err := store.NewFileCandidates(fs, cfg.DataDir, nil, a.logger)
		if err != nil {
			return err
		}
		deps.Candidates = candidates
		a.closers = append(a.closers, candidates.Close)
	}
	return nil
}

// runOptions maps settings onto per-run options.
func (a *app) runOptions(input string, interactive bool) (pipeline.RunOptions, error) {
	mode, err := store.ParseMatchMode(a.cfg.MatchMode)
	if err != nil {
		return pipeline.RunOptions{}, err
	}
	maxAttempts := a.cfg.MaxAttempts
	if !interactive {
		maxAttempts = confirm.AutomatedMaxAttempts
	}
	opts := pipeline.RunOptions{
		Input:       input,
		Interactive: interactive,
		MaxAttempts: maxAttempts,
		MatchMode:   mode,
		MethodTTL:   a.cfg.MethodTTL(),
	}
	if a.cfg.Verbose {
		opts.OnProgress = func(e pipeline.ProgressEvent) {
			a.logger.Debug(e.Message, zap.String("step", e.Step), zap.String("category", e.Category), zap.String("record_id", e.RecordID))
		}
	}
	return opts, nil
}

// emit prints v as JSON in JSON mode, otherwise calls human.
func (a *app) emit(v any, human func()) error {
	if a.json {
		return observability.NewPrinter(a.out).PrintJSON(v)
	}
	human()
	return nil
}
