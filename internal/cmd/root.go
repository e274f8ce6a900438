package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/harrison/pathtrie/internal/config"
)

// Version is injected at build time via -ldflags
var Version = "dev"

// envFileName is loaded from the working directory before PATHTRIE_* variables are read.
const envFileName = ".env"

// addConfigFlags registers the flags shared by both programs.
func addConfigFlags(cmd *cobra.Command) {
	cmd.Flags().String("config", "", "Path to config file (default: $PATHTRIE_HOME/config.yaml)")
	cmd.Flags().String("index-dir", "", "Directory holding the index documents")
}

// loadConfig resolves configuration in precedence order: defaults, config
// file, environment, then any overrides. The result has absolute paths and
// has been validated.
func loadConfig(cmd *cobra.Command, o config.Overrides) (*config.Config, error) {
	home, err := config.GetHome()
	if err != nil {
		return nil, fmt.Errorf("failed to determine pathtrie home: %w", err)
	}

	var cfg *config.Config
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		if _, statErr := os.Stat(path); statErr != nil {
			return nil, fmt.Errorf("config file %s: %w", path, statErr)
		}
		cfg, err = config.LoadConfig(path)
	} else {
		cfg, err = config.LoadConfigFromDir(home)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.ApplyEnv(envFileName); err != nil {
		return nil, err
	}

	if cmd.Flags().Changed("index-dir") {
		dir, _ := cmd.Flags().GetString("index-dir")
		o.IndexDir = &dir
	}
	cfg.MergeWithFlags(o)

	if err := cfg.ResolvePaths(home); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// absDir returns the absolute, cleaned form of a user-supplied directory.
func absDir(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolve %q: %w", dir, err)
	}
	return abs, nil
}
