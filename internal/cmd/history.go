package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/harrison/pathtrie/internal/config"
	"github.com/harrison/pathtrie/internal/history"
)

// NewHistoryCommand creates the history subcommand that lists previous index runs.
func NewHistoryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List previous index runs",
		Long: `List previous index runs recorded in the history database, most recent first.

Shows run id, start time, duration, entry and directory counts, merges and status.`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE:         runHistory,
	}

	addConfigFlags(cmd)
	cmd.Flags().Int("limit", 20, "Maximum number of runs to show (0 = all)")

	return cmd
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, config.Overrides{})
	if err != nil {
		return err
	}
	limit, _ := cmd.Flags().GetInt("limit")
	if limit < 0 {
		return fmt.Errorf("limit must be >= 0, got %d", limit)
	}

	output := cmd.OutOrStdout()
	if _, err := os.Stat(cfg.HistoryDB); os.IsNotExist(err) {
		fmt.Fprintln(output, "No index runs recorded")
		return nil
	}

	hist, err := history.NewStore(cfg.HistoryDB)
	if err != nil {
		return fmt.Errorf("failed to open history database: %w", err)
	}
	defer hist.Close()

	runs, err := hist.ListRuns(cmd.Context(), limit)
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}
	if len(runs) == 0 {
		fmt.Fprintln(output, "No index runs recorded")
		return nil
	}

	printRuns(output, runs)
	return nil
}

// printRuns writes one aligned row per run.
func printRuns(w io.Writer, runs []*history.Run) {
	cyan := color.New(color.FgCyan, color.Bold)
	green := color.New(color.FgGreen)
	red := color.New(color.FgRed)
	yellow := color.New(color.FgYellow)
	gray := color.New(color.FgHiBlack)

	cyan.Fprintf(w, "%-8s  %-19s  %9s  %10s  %10s  %7s  %s\n",
		"ID", "STARTED", "DURATION", "ENTRIES", "DIRS", "MERGES", "STATUS")

	for _, run := range runs {
		fmt.Fprintf(w, "%-8s  %-19s  %9s  %10d  %10d  %7d  ",
			shortID(run.ID),
			run.StartedAt.Local().Format("2006-01-02 15:04:05"),
			runDuration(run),
			run.Entries,
			run.Directories,
			run.Flushes,
		)

		status := strings.ToUpper(run.Status)
		if run.CapReached {
			status += " (capped)"
		}
		switch run.Status {
		case history.StatusSuccess:
			green.Fprintln(w, status)
		case history.StatusFailed:
			red.Fprintln(w, status)
		case history.StatusCancelled:
			yellow.Fprintln(w, status)
		default:
			gray.Fprintln(w, status)
		}

		if run.ErrorMessage != "" {
			fmt.Fprintf(w, "          ")
			red.Fprintf(w, "%s\n", run.ErrorMessage)
		}
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func runDuration(run *history.Run) string {
	if run.FinishedAt == nil {
		return "-"
	}
	return run.Duration.Round(time.Millisecond).String()
}
