package main

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/jonathan/purelink/internal/config"
)

// loadSettings layers flags over the config file over the environment over
// built-in defaults, then validates the result.
func loadSettings(g *globalFlags, flags *pflag.FlagSet, getenv func(string) string) (config.Config, error) {
	var cfg config.Config
	if g.configPath != "" {
		loaded, err := config.LoadConfig(g.configPath)
		if err != nil {
			return config.Config{}, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = *loaded
		g.logger.Debug("loaded config")
	}

	// Only override if the flag was explicitly set
	if flags.Changed("api-key") {
		cfg.APIKey = g.apiKey
	}
	if flags.Changed("data-dir") {
		cfg.DataDir = g.dataDir
	}
	if flags.Changed("backend") {
		cfg.Backend = g.backend
	}
	if flags.Changed("database-url") {
		cfg.DatabaseURL = g.databaseURL
	}
	if flags.Changed("verbose") {
		cfg.Verbose = g.verbose
	}

	cfg.ApplyEnv(getenv)
	cfg = cfg.MergeWithDefaults(config.Defaults())

	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func osSettings(g *globalFlags, flags *pflag.FlagSet) (config.Config, error) {
	return loadSettings(g, flags, os.Getenv)
}
