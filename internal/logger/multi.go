package logger

import "github.com/harrison/pathtrie/internal/models"

// Logger is the full set of events emitted during an index run.
type Logger interface {
	LogTrace(message string)
	LogDebug(message string)
	LogInfo(message string)
	LogWarn(message string)
	LogError(message string)
	LogCrawlStart(roots []string, workers int)
	LogFlush(event models.FlushEvent)
	LogCrawlSummary(stats models.CrawlStats)
}

var (
	_ Logger = (*ConsoleLogger)(nil)
	_ Logger = (*FileLogger)(nil)
	_ Logger = (*MultiLogger)(nil)
)

// MultiLogger forwards every event to each of its loggers in order.
type MultiLogger struct {
	loggers []Logger
}

// NewMultiLogger creates a MultiLogger. Nil loggers are dropped.
func NewMultiLogger(loggers ...Logger) *MultiLogger {
	ml := &MultiLogger{}
	for _, l := range loggers {
		if l != nil {
			ml.loggers = append(ml.loggers, l)
		}
	}
	return ml
}

// LogTrace forwards to all loggers
func (ml *MultiLogger) LogTrace(message string) {
	for _, l := range ml.loggers {
		l.LogTrace(message)
	}
}

// LogDebug forwards to all loggers
func (ml *MultiLogger) LogDebug(message string) {
	for _, l := range ml.loggers {
		l.LogDebug(message)
	}
}

// LogInfo forwards to all loggers
func (ml *MultiLogger) LogInfo(message string) {
	for _, l := range ml.loggers {
		l.LogInfo(message)
	}
}

// LogWarn forwards to all loggers
func (ml *MultiLogger) LogWarn(message string) {
	for _, l := range ml.loggers {
		l.LogWarn(message)
	}
}

// LogError forwards to all loggers
func (ml *MultiLogger) LogError(message string) {
	for _, l := range ml.loggers {
		l.LogError(message)
	}
}

// LogCrawlStart forwards to all loggers
func (ml *MultiLogger) LogCrawlStart(roots []string, workers int) {
	for _, l := range ml.loggers {
		l.LogCrawlStart(roots, workers)
	}
}

// LogFlush forwards to all loggers
func (ml *MultiLogger) LogFlush(event models.FlushEvent) {
	for _, l := range ml.loggers {
		l.LogFlush(event)
	}
}

// LogCrawlSummary forwards to all loggers
func (ml *MultiLogger) LogCrawlSummary(stats models.CrawlStats) {
	for _, l := range ml.loggers {
		l.LogCrawlSummary(stats)
	}
}
