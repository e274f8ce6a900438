package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/harrison/pathtrie/internal/config"
	"github.com/harrison/pathtrie/internal/models"
	"github.com/harrison/pathtrie/internal/search"
	"github.com/harrison/pathtrie/internal/store"
)

// NewSearchCommand creates the root command of the pathtrie-search program.
func NewSearchCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pathtrie-search <directory> <term>",
		Short: "Find indexed files under a directory by name or extension prefix",
		Long: `pathtrie-search prints every indexed path below <directory> whose file stem
starts with <term>, one absolute path per line. Matching ignores case and
any character other than letters and digits.

A term starting with "." searches extensions instead: ".go" finds main.go.`,
		Example: `  pathtrie-search ~/src readme
  pathtrie-search /var/log .gz`,
		Version:       Version,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runSearch,
	}

	addConfigFlags(cmd)

	return cmd
}

func runSearch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, config.Overrides{})
	if err != nil {
		return err
	}

	scope, err := absDir(args[0])
	if err != nil {
		return err
	}

	// Searching must never create an index as a side effect.
	if _, err := os.Stat(cfg.IndexDir); err != nil {
		return fmt.Errorf("%w: index directory %s: %w", search.ErrSearchUnavailable, cfg.IndexDir, err)
	}
	st, err := store.New(cfg.IndexDir)
	if err != nil {
		return fmt.Errorf("%w: %w", search.ErrSearchUnavailable, err)
	}

	engine, err := search.NewEngine(st, search.Options{CacheSize: cfg.SearchCacheSize})
	if err != nil {
		return err
	}

	paths, err := engine.Search(cmd.Context(), models.ParseQuery(scope, args[1]))
	if err != nil {
		return err
	}

	output := cmd.OutOrStdout()
	for _, p := range paths {
		fmt.Fprintln(output, p)
	}
	return nil
}
