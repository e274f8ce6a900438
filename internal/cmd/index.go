package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/harrison/pathtrie/internal/config"
	"github.com/harrison/pathtrie/internal/crawler"
	"github.com/harrison/pathtrie/internal/history"
	"github.com/harrison/pathtrie/internal/logger"
	"github.com/harrison/pathtrie/internal/models"
	"github.com/harrison/pathtrie/internal/store"
)

// progressInterval is how often the terminal progress bar is redrawn.
const progressInterval = 200 * time.Millisecond

// NewIndexCommand creates the root command of the pathtrie-index program.
func NewIndexCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pathtrie-index",
		Short: "Crawl directory trees into the pathtrie prefix index",
		Long: `pathtrie-index walks the configured roots in parallel and merges every
file and directory it sees into two persistent prefix tries: one keyed by
file stem and one keyed by extension.

Roots, ignore prefixes, worker count, batch size and the directory cap come
from $PATHTRIE_HOME/config.yaml, PATHTRIE_* environment variables, or flags.`,
		Version:       Version,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runIndex,
	}

	addConfigFlags(cmd)
	cmd.Flags().StringSlice("root", nil, "Directory to crawl (repeatable; default: home directory)")
	cmd.Flags().StringSlice("ignore", nil, "Path prefix recorded but not descended into (repeatable)")
	cmd.Flags().Int("workers", 0, "Number of parallel crawl workers")
	cmd.Flags().Int("batch-size", 0, "Buffered entries that trigger a merge into the index")
	cmd.Flags().Int64("max-dirs", 0, "Maximum directories to descend into (0 = unlimited)")
	cmd.Flags().String("log-level", "", "Log level: trace, debug, info, warn, error")
	cmd.Flags().String("log-dir", "", "Directory for run log files")
	cmd.Flags().String("timeout", "", "Abort the crawl after this duration (e.g. 30m)")
	cmd.Flags().Bool("fresh", false, "Discard the existing index before crawling")

	cmd.AddCommand(NewHistoryCommand())

	return cmd
}

// indexOverrides collects only the flags the user actually set.
func indexOverrides(cmd *cobra.Command) (config.Overrides, error) {
	var o config.Overrides
	flags := cmd.Flags()

	if flags.Changed("root") {
		v, _ := flags.GetStringSlice("root")
		o.Roots = &v
	}
	if flags.Changed("ignore") {
		v, _ := flags.GetStringSlice("ignore")
		o.Ignore = &v
	}
	if flags.Changed("workers") {
		v, _ := flags.GetInt("workers")
		o.Workers = &v
	}
	if flags.Changed("batch-size") {
		v, _ := flags.GetInt("batch-size")
		o.BatchSize = &v
	}
	if flags.Changed("max-dirs") {
		v, _ := flags.GetInt64("max-dirs")
		o.MaxDirs = &v
	}
	if flags.Changed("log-level") {
		v, _ := flags.GetString("log-level")
		o.LogLevel = &v
	}
	if flags.Changed("log-dir") {
		v, _ := flags.GetString("log-dir")
		o.LogDir = &v
	}
	if flags.Changed("timeout") {
		s, _ := flags.GetString("timeout")
		v, err := time.ParseDuration(s)
		if err != nil {
			return o, fmt.Errorf("invalid timeout format %q: %w", s, err)
		}
		o.Timeout = &v
	}
	if flags.Changed("fresh") {
		v, _ := flags.GetBool("fresh")
		o.Fresh = &v
	}
	return o, nil
}

func runIndex(cmd *cobra.Command, args []string) error {
	overrides, err := indexOverrides(cmd)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(cmd, overrides)
	if err != nil {
		return err
	}
	if len(cfg.Roots) == 0 {
		return fmt.Errorf("no roots configured: pass --root or set roots in config.yaml")
	}

	console := logger.NewConsoleLogger(cmd.ErrOrStderr(), cfg.LogLevel)
	loggers := []logger.Logger{console}
	if cfg.LogDir != "" {
		fileLog, err := logger.NewFileLogger(cfg.LogDir, cfg.LogLevel)
		if err != nil {
			console.LogWarn(fmt.Sprintf("File logging disabled: %v", err))
		} else {
			defer fileLog.Close()
			loggers = append(loggers, fileLog)
		}
	}
	log := logger.NewMultiLogger(loggers...)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	st, err := store.New(cfg.IndexDir)
	if err != nil {
		return fmt.Errorf("failed to open index: %w", err)
	}
	if cfg.Fresh {
		if err := st.Reset(ctx); err != nil {
			return fmt.Errorf("failed to reset index: %w", err)
		}
		log.LogInfo(fmt.Sprintf("Cleared existing index at %s", st.Dir()))
	}

	// History is best effort: a broken ledger never blocks indexing.
	var hist *history.Store
	var run *history.Run
	if cfg.HistoryDB != "" {
		hist, err = history.NewStore(cfg.HistoryDB)
		if err != nil {
			log.LogWarn(fmt.Sprintf("Run history disabled: %v", err))
		} else {
			defer hist.Close()
			run, err = hist.StartRun(ctx, cfg.Roots, cfg.IndexDir, cfg.Workers)
			if err != nil {
				log.LogWarn(fmt.Sprintf("Failed to record run start: %v", err))
			}
		}
	}

	progress := newProgressLogger(log, cmd.ErrOrStderr(), cfg.MaxDirs)
	c, err := crawler.New(crawler.Config{
		Roots:     cfg.Roots,
		Ignore:    cfg.Ignore,
		Workers:   cfg.Workers,
		BatchSize: cfg.BatchSize,
		MaxDirs:   cfg.MaxDirs,
	}, st, progress)
	if err != nil {
		return err
	}

	progress.start(c.Stats)
	stats, runErr := c.Run(ctx)
	progress.stop()

	if hist != nil && run != nil {
		// The run context may already be cancelled; the ledger update must still land.
		if err := hist.FinishRun(context.Background(), run.ID, stats, runErr); err != nil {
			log.LogWarn(fmt.Sprintf("Failed to record run result: %v", err))
		}
	}

	if runErr != nil {
		log.LogError(fmt.Sprintf("Index run failed after %d entries: %v", stats.Entries, runErr))
		return fmt.Errorf("index run failed: %w", runErr)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Indexed %d entries (%d directories) in %s\n",
		stats.Entries, stats.Directories, stats.Duration.Round(time.Millisecond))
	return nil
}

// progressLogger draws a directory progress bar on a terminal while the
// crawl runs and clears it before the summary is written.
type progressLogger struct {
	logger.Logger
	w        io.Writer
	bar      *logger.ProgressBar
	enabled  bool
	done     chan struct{}
	wg       sync.WaitGroup
	stopOnce sync.Once
}

func newProgressLogger(log logger.Logger, w io.Writer, maxDirs int64) *progressLogger {
	p := &progressLogger{
		Logger:  log,
		w:       w,
		enabled: isTerminalWriter(w),
		done:    make(chan struct{}),
	}
	if p.enabled {
		p.bar = logger.NewProgressBar(maxDirs, 30, !color.NoColor)
		p.bar.SetPrefix("Directories ")
	}
	return p
}

// isTerminalWriter reports whether w is the process's stderr attached to a TTY.
func isTerminalWriter(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok || f != os.Stderr {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func (p *progressLogger) start(snapshot func() models.CrawlStats) {
	if !p.enabled {
		return
	}
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		ticker := time.NewTicker(progressInterval)
		defer ticker.Stop()
		for {
			select {
			case <-p.done:
				p.bar.Update(snapshot().Directories)
				p.bar.Finish(p.w)
				return
			case <-ticker.C:
				p.bar.Update(snapshot().Directories)
				p.bar.Draw(p.w)
			}
		}
	}()
}

func (p *progressLogger) stop() {
	p.stopOnce.Do(func() {
		close(p.done)
		p.wg.Wait()
	})
}

// LogCrawlSummary finishes the bar so the summary starts on a clean line.
func (p *progressLogger) LogCrawlSummary(stats models.CrawlStats) {
	p.stop()
	p.Logger.LogCrawlSummary(stats)
}
