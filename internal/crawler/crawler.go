// Package crawler walks directory trees in parallel and streams the entries it
// finds into an index sink in batches.
package crawler

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"github.com/harrison/pathtrie/internal/models"
)

// Sink receives full batches of records. Calls are made one batch at a time
// per worker but may overlap across workers.
type Sink interface {
	MergeAndPersist(ctx context.Context, batch []models.FileRecord) error
}

// Logger receives crawl lifecycle events.
type Logger interface {
	LogDebug(message string)
	LogWarn(message string)
	LogCrawlStart(roots []string, workers int)
	LogFlush(event models.FlushEvent)
	LogCrawlSummary(stats models.CrawlStats)
}

// Config controls a crawl.
type Config struct {
	Roots     []string
	Ignore    []string
	Workers   int
	BatchSize int
	MaxDirs   int64 // 0 means unlimited
}

// Crawler performs one crawl. A Crawler is not reusable.
type Crawler struct {
	cfg    Config
	ignore []string
	sink   Sink
	logger Logger
	buf    *buffer

	visited    atomic.Int64
	entries    atomic.Int64
	skipped    atomic.Int64
	flushes    atomic.Int64
	capReached atomic.Bool
	started    atomic.Bool
}

// New validates cfg and returns a Crawler feeding sink. A nil logger discards
// events.
func New(cfg Config, sink Sink, logger Logger) (*Crawler, error) {
	if sink == nil {
		return nil, errors.New("crawler: sink is required")
	}
	if len(cfg.Roots) == 0 {
		return nil, errors.New("crawler: at least one root is required")
	}
	if cfg.Workers < 1 {
		return nil, fmt.Errorf("crawler: workers must be at least 1, got %d", cfg.Workers)
	}
	if cfg.BatchSize < 1 {
		return nil, fmt.Errorf("crawler: batch size must be at least 1, got %d", cfg.BatchSize)
	}
	if cfg.MaxDirs < 0 {
		return nil, fmt.Errorf("crawler: max dirs must not be negative, got %d", cfg.MaxDirs)
	}
	if logger == nil {
		logger = nopLogger{}
	}

	roots := make([]string, 0, len(cfg.Roots))
	for _, r := range cfg.Roots {
		abs, err := filepath.Abs(r)
		if err != nil {
			return nil, fmt.Errorf("crawler: resolve root %q: %w", r, err)
		}
		roots = append(roots, abs)
	}
	cfg.Roots = roots

	ignore := make([]string, 0, len(cfg.Ignore))
	for _, p := range cfg.Ignore {
		if p == "" {
			continue
		}
		ignore = append(ignore, filepath.Clean(p))
	}

	return &Crawler{
		cfg:    cfg,
		ignore: ignore,
		sink:   sink,
		logger: logger,
		buf:    newBuffer(cfg.BatchSize),
	}, nil
}

// Stats returns a snapshot of the counters. Safe to call while Run is active.
func (c *Crawler) Stats() models.CrawlStats {
	return models.CrawlStats{
		Entries:     c.entries.Load(),
		Directories: c.visited.Load(),
		Skipped:     c.skipped.Load(),
		Flushes:     c.flushes.Load(),
		CapReached:  c.capReached.Load(),
	}
}

// Run crawls every root and blocks until all workers finish, the context is
// cancelled, or the sink fails. Entries still buffered when the workers finish
// are flushed once more. On error the remaining buffer is discarded.
func (c *Crawler) Run(ctx context.Context) (models.CrawlStats, error) {
	if !c.started.CompareAndSwap(false, true) {
		return models.CrawlStats{}, errors.New("crawler: Run called twice")
	}
	start := time.Now()
	c.logger.LogCrawlStart(c.cfg.Roots, c.cfg.Workers)

	finish := func(err error) (models.CrawlStats, error) {
		stats := c.Stats()
		stats.Duration = time.Since(start)
		if err == nil {
			c.logger.LogCrawlSummary(stats)
		}
		return stats, err
	}

	assignments := make([][]string, c.cfg.Workers)
	for i, root := range c.cfg.Roots {
		w := i % c.cfg.Workers
		assignments[w] = append(assignments[w], root)
	}

	g, gctx := errgroup.WithContext(ctx)
	for id, roots := range assignments {
		if len(roots) == 0 {
			continue
		}
		id, roots := id, roots
		g.Go(func() error {
			return c.work(gctx, id, roots)
		})
	}
	if err := g.Wait(); err != nil {
		return finish(err)
	}

	if batch := c.buf.drain(); len(batch) > 0 {
		if err := c.flush(ctx, -1, batch); err != nil {
			return finish(err)
		}
	}
	return finish(nil)
}

// work drains a private stack seeded with each assigned root in turn.
func (c *Crawler) work(ctx context.Context, id int, roots []string) error {
	for _, root := range roots {
		if !utf8.ValidString(root) {
			c.skipped.Add(1)
			c.logger.LogWarn(fmt.Sprintf("skipping root %q: path is not valid UTF-8", root))
			continue
		}
		info, err := os.Stat(root)
		if err != nil {
			c.skipped.Add(1)
			c.logger.LogWarn(fmt.Sprintf("skipping root %s: %v", root, err))
			continue
		}
		if err := c.record(ctx, id, models.NewFileRecord(root, info.IsDir())); err != nil {
			return err
		}
		if !info.IsDir() || c.ignored(root) {
			continue
		}

		stack := []string{root}
		for len(stack) > 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
			dir := stack[len(stack)-1]
			stack = stack[:len(stack)-1]

			entries, err := os.ReadDir(dir)
			if err != nil {
				c.skipped.Add(1)
				c.logger.LogDebug(fmt.Sprintf("cannot list %s: %v", dir, err))
			}
			for _, e := range entries {
				// The index documents are JSON and cannot hold raw non-UTF-8 bytes.
				if !utf8.ValidString(e.Name()) {
					c.skipped.Add(1)
					c.logger.LogDebug(fmt.Sprintf("skipping %q in %s: name is not valid UTF-8", e.Name(), dir))
					continue
				}
				path := filepath.Join(dir, e.Name())
				isDir := e.IsDir()
				if err := c.record(ctx, id, models.NewFileRecord(path, isDir)); err != nil {
					return err
				}
				if !isDir || c.ignored(path) {
					continue
				}
				if c.reserveVisit() {
					stack = append(stack, path)
				}
			}
		}
	}
	return nil
}

func (c *Crawler) record(ctx context.Context, worker int, rec models.FileRecord) error {
	c.entries.Add(1)
	if batch := c.buf.add(rec); batch != nil {
		return c.flush(ctx, worker, batch)
	}
	return nil
}

func (c *Crawler) flush(ctx context.Context, worker int, batch []models.FileRecord) error {
	start := time.Now()
	if err := c.sink.MergeAndPersist(ctx, batch); err != nil {
		return fmt.Errorf("flush %d entries: %w", len(batch), err)
	}
	c.flushes.Add(1)
	c.logger.LogFlush(models.FlushEvent{
		Worker:   worker,
		Entries:  len(batch),
		Duration: time.Since(start),
	})
	return nil
}

// reserveVisit claims one slot under the directory cap.
func (c *Crawler) reserveVisit() bool {
	if c.cfg.MaxDirs == 0 {
		c.visited.Add(1)
		return true
	}
	for {
		v := c.visited.Load()
		if v >= c.cfg.MaxDirs {
			c.capReached.Store(true)
			return false
		}
		if c.visited.CompareAndSwap(v, v+1) {
			return true
		}
	}
}

// ignored reports whether path is, or lies under, an ignored prefix.
func (c *Crawler) ignored(path string) bool {
	for _, p := range c.ignore {
		if path == p {
			return true
		}
		if strings.HasSuffix(p, string(filepath.Separator)) {
			if strings.HasPrefix(path, p) {
				return true
			}
			continue
		}
		if strings.HasPrefix(path, p+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

type nopLogger struct{}

func (nopLogger) LogDebug(string) {}
func (nopLogger) LogWarn(string) {}
func (nopLogger) LogCrawlStart([]string, int) {}
func (nopLogger) LogFlush(models.FlushEvent) {}
func (nopLogger) LogCrawlSummary(models.CrawlStats) {}
