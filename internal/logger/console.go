// Package logger provides logging implementations for pathtrie index runs.
//
// The logger package offers levelled logging plus crawl lifecycle events:
// crawl start, each completed merge, and the end-of-run summary.
// Implementations are thread-safe and support console and file output.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"

	"github.com/harrison/pathtrie/internal/models"
)

// Log level constants for filtering
const (
	levelTrace int = 0
	levelDebug int = 1
	levelInfo  int = 2
	levelWarn  int = 3
	levelError int = 4
)

// ConsoleLogger logs crawl progress to a writer with timestamps and thread safety.
// All output is prefixed with [HH:MM:SS] timestamps.
// It supports log level filtering to control message verbosity.
// Color output is automatically enabled for terminal output (os.Stdout/os.Stderr).
type ConsoleLogger struct {
	writer      io.Writer
	logLevel    string
	mutex       sync.Mutex
	colorOutput bool
}

// NewConsoleLogger creates a ConsoleLogger that writes to the provided io.Writer.
// If writer is nil, messages are silently discarded.
// logLevel determines the minimum log level for messages to be output.
// Valid levels: trace, debug, info, warn, error (case-insensitive).
// If logLevel is empty or invalid, defaults to "info".
func NewConsoleLogger(writer io.Writer, logLevel string) *ConsoleLogger {
	return &ConsoleLogger{
		writer:      writer,
		logLevel:    normalizeLogLevel(logLevel),
		colorOutput: isTerminal(writer),
	}
}

// isTerminal checks if the writer is a terminal that supports colors.
// Returns true for os.Stdout and os.Stderr when they are TTYs.
func isTerminal(w io.Writer) bool {
	if w == nil {
		return false
	}

	if w == os.Stdout || w == os.Stderr {
		// color.NoColor is false only for a TTY without NO_COLOR set
		return !color.NoColor
	}

	return false
}

// normalizeLogLevel converts a log level string to lowercase and validates it.
// Returns "info" as default for empty or invalid levels.
func normalizeLogLevel(level string) string {
	normalized := strings.ToLower(strings.TrimSpace(level))

	switch normalized {
	case "trace", "debug", "info", "warn", "error":
		return normalized
	}
	return "info"
}

// logLevelToInt converts a log level string to its numeric value.
func logLevelToInt(level string) int {
	switch level {
	case "trace":
		return levelTrace
	case "debug":
		return levelDebug
	case "info":
		return levelInfo
	case "warn":
		return levelWarn
	case "error":
		return levelError
	default:
		return levelInfo
	}
}

// shouldLog checks if a message at the given level should be logged.
func (cl *ConsoleLogger) shouldLog(messageLevel string) bool {
	return logLevelToInt(messageLevel) >= logLevelToInt(cl.logLevel)
}

// LogTrace logs a trace-level message (most verbose).
// Format: "[HH:MM:SS] [TRACE] <message>"
func (cl *ConsoleLogger) LogTrace(message string) {
	cl.logWithLevel("TRACE", message)
}

// LogDebug logs a debug-level message.
func (cl *ConsoleLogger) LogDebug(message string) {
	cl.logWithLevel("DEBUG", message)
}

// LogInfo logs an info-level message.
func (cl *ConsoleLogger) LogInfo(message string) {
	cl.logWithLevel("INFO", message)
}

// LogWarn logs a warning-level message.
func (cl *ConsoleLogger) LogWarn(message string) {
	cl.logWithLevel("WARN", message)
}

// LogError logs an error-level message.
func (cl *ConsoleLogger) LogError(message string) {
	cl.logWithLevel("ERROR", message)
}

// logWithLevel is a helper that logs a message at the specified level if filtering allows it.
func (cl *ConsoleLogger) logWithLevel(level string, message string) {
	if cl.writer == nil {
		return
	}
	if !cl.shouldLog(strings.ToLower(level)) {
		return
	}

	cl.mutex.Lock()
	defer cl.mutex.Unlock()

	ts := timestamp()
	var formatted string
	if cl.colorOutput {
		formatted = cl.formatWithColor(ts, level, message)
	} else {
		formatted = fmt.Sprintf("[%s] [%s] %s\n", ts, level, message)
	}

	cl.writer.Write([]byte(formatted))
}

// formatWithColor formats a log message with ANSI color codes.
func (cl *ConsoleLogger) formatWithColor(ts, level, message string) string {
	var coloredLevel string

	switch strings.ToUpper(level) {
	case "TRACE":
		coloredLevel = color.New(color.FgHiBlack).Sprint(level)
	case "DEBUG":
		coloredLevel = color.New(color.FgCyan).Sprint(level)
	case "INFO":
		coloredLevel = color.New(color.FgBlue).Sprint(level)
	case "WARN":
		coloredLevel = color.New(color.FgYellow).Sprint(level)
	case "ERROR":
		coloredLevel = color.New(color.FgRed).Sprint(level)
	default:
		coloredLevel = level
	}

	return fmt.Sprintf("[%s] [%s] %s\n", ts, coloredLevel, message)
}

// LogCrawlStart logs the roots and worker count at INFO level.
// Format: "[HH:MM:SS] [INFO] Indexing 2 roots with 4 workers: /a, /b"
func (cl *ConsoleLogger) LogCrawlStart(roots []string, workers int) {
	cl.LogInfo(crawlStartMessage(roots, workers))
}

// LogFlush logs a completed merge cycle at DEBUG level.
func (cl *ConsoleLogger) LogFlush(event models.FlushEvent) {
	cl.LogDebug(flushMessage(event))
}

// LogCrawlSummary logs the end-of-run statistics at INFO level.
func (cl *ConsoleLogger) LogCrawlSummary(stats models.CrawlStats) {
	if cl.writer == nil || !cl.shouldLog("info") {
		return
	}

	cl.mutex.Lock()
	defer cl.mutex.Unlock()

	ts := timestamp()
	var sb strings.Builder
	fmt.Fprintf(&sb, "[%s] === Index Summary ===\n", ts)

	if cl.colorOutput {
		scheme := newColorScheme()
		fmt.Fprintf(&sb, "[%s] %s\n", ts, formatColorizedMetric("Entries", stats.Entries, scheme.success, scheme))
		fmt.Fprintf(&sb, "[%s] %s\n", ts, formatColorizedMetric("Directories", stats.Directories, nil, scheme))
		fmt.Fprintf(&sb, "[%s] %s\n", ts, formatColorizedMetric("Skipped", stats.Skipped, skippedColor(stats.Skipped, scheme), scheme))
		fmt.Fprintf(&sb, "[%s] %s\n", ts, formatColorizedMetric("Flushes", stats.Flushes, nil, scheme))
		fmt.Fprintf(&sb, "[%s] %s\n", ts, formatColorizedMetric("Duration", formatDuration(stats.Duration), nil, scheme))
		if stats.CapReached {
			fmt.Fprintf(&sb, "[%s] %s\n", ts, scheme.warn.Sprint("Directory cap reached; some subtrees were not descended"))
		}
	} else {
		fmt.Fprintf(&sb, "[%s] Entries:     %d\n", ts, stats.Entries)
		fmt.Fprintf(&sb, "[%s] Directories: %d\n", ts, stats.Directories)
		fmt.Fprintf(&sb, "[%s] Skipped:     %d\n", ts, stats.Skipped)
		fmt.Fprintf(&sb, "[%s] Flushes:     %d\n", ts, stats.Flushes)
		fmt.Fprintf(&sb, "[%s] Duration:    %s\n", ts, formatDuration(stats.Duration))
		if stats.CapReached {
			fmt.Fprintf(&sb, "[%s] Directory cap reached; some subtrees were not descended\n", ts)
		}
	}

	cl.writer.Write([]byte(sb.String()))
}

func crawlStartMessage(roots []string, workers int) string {
	noun := "roots"
	if len(roots) == 1 {
		noun = "root"
	}
	return fmt.Sprintf("Indexing %d %s with %d workers: %s", len(roots), noun, workers, strings.Join(roots, ", "))
}

func flushMessage(event models.FlushEvent) string {
	if event.Final() {
		return fmt.Sprintf("Final flush: %d entries in %s", event.Entries, formatDuration(event.Duration))
	}
	return fmt.Sprintf("Flushed %d entries (worker %d) in %s", event.Entries, event.Worker, formatDuration(event.Duration))
}

// timestamp returns the current time formatted as "15:04:05" (HH:MM:SS).
func timestamp() string {
	return time.Now().Format("15:04:05")
}

// formatDuration converts a time.Duration to a human-readable string.
// Examples: "250ms", "5s", "1m30s", "2h15m"
func formatDuration(d time.Duration) string {
	switch {
	case d >= time.Hour:
		hours := d / time.Hour
		remainder := d % time.Hour
		if remainder == 0 {
			return fmt.Sprintf("%dh", hours)
		}
		minutes := remainder / time.Minute
		remainder = remainder % time.Minute
		if remainder == 0 {
			return fmt.Sprintf("%dh%dm", hours, minutes)
		}
		seconds := remainder / time.Second
		return fmt.Sprintf("%dh%dm%ds", hours, minutes, seconds)
	case d >= time.Minute:
		minutes := d / time.Minute
		remainder := d % time.Minute
		if remainder == 0 {
			return fmt.Sprintf("%dm", minutes)
		}
		seconds := remainder / time.Second
		return fmt.Sprintf("%dm%ds", minutes, seconds)
	case d >= time.Second:
		return fmt.Sprintf("%ds", int64(d.Seconds()))
	default:
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
}
