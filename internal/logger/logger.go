// Package logger provides leveled logging sinks for snsindex.
//
// Every indexing entity receives a Logger explicitly instead of reaching for
// global state. Console and file sinks are thread-safe; Named scopes a sink to an
// entity id and Multi fans records out to several sinks (the run's own sink plus
// any extra sinks a caller wants records routed to).
package logger

import (
	"strings"
)

// Log level constants for filtering
const (
	levelTrace int = 0
	levelDebug int = 1
	levelInfo  int = 2
	levelWarn  int = 3
	levelError int = 4
)

// Logger is the leveled sink used by indexing entities.
type Logger interface {
	LogTrace(message string)
	LogDebug(message string)
	LogInfo(message string)
	LogWarn(message string)
	LogError(message string)
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

// shouldLog reports whether messageLevel passes the configured threshold.
func shouldLog(configured, messageLevel string) bool {
	return logLevelToInt(messageLevel) >= logLevelToInt(configured)
}

// NamedLogger prefixes every message with "[name] ".
type NamedLogger struct {
	name string
	next Logger
}

// Named returns a Logger that tags records with name before passing them to l.
// A nil l yields a logger that discards everything.
func Named(l Logger, name string) *NamedLogger {
	if l == nil {
		l = Nop()
	}
	return &NamedLogger{name: name, next: l}
}

// Name returns the logger's name.
func (n *NamedLogger) Name() string {
	return n.name
}

func (n *NamedLogger) prefix(message string) string {
	return "[" + n.name + "] " + message
}

// LogTrace logs a trace-level message.
func (n *NamedLogger) LogTrace(message string) { n.next.LogTrace(n.prefix(message)) }

// LogDebug logs a debug-level message.
func (n *NamedLogger) LogDebug(message string) { n.next.LogDebug(n.prefix(message)) }

// LogInfo logs an info-level message.
func (n *NamedLogger) LogInfo(message string) { n.next.LogInfo(n.prefix(message)) }

// LogWarn logs a warning-level message.
func (n *NamedLogger) LogWarn(message string) { n.next.LogWarn(n.prefix(message)) }

// LogError logs an error-level message.
func (n *NamedLogger) LogError(message string) { n.next.LogError(n.prefix(message)) }

// MultiLogger forwards each record to every wrapped sink in order.
type MultiLogger struct {
	sinks []Logger
}

// Multi combines sinks into one Logger. Nil sinks are dropped.
func Multi(sinks ...Logger) *MultiLogger {
	kept := make([]Logger, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			kept = append(kept, s)
		}
	}
	return &MultiLogger{sinks: kept}
}

// Len returns the number of wrapped sinks.
func (m *MultiLogger) Len() int {
	return len(m.sinks)
}

// LogTrace logs a trace-level message to every sink.
func (m *MultiLogger) LogTrace(message string) {
	for _, s := range m.sinks {
		s.LogTrace(message)
	}
}

// LogDebug logs a debug-level message to every sink.
func (m *MultiLogger) LogDebug(message string) {
	for _, s := range m.sinks {
		s.LogDebug(message)
	}
}

// LogInfo logs an info-level message to every sink.
func (m *MultiLogger) LogInfo(message string) {
	for _, s := range m.sinks {
		s.LogInfo(message)
	}
}

// LogWarn logs a warning-level message to every sink.
func (m *MultiLogger) LogWarn(message string) {
	for _, s := range m.sinks {
		s.LogWarn(message)
	}
}

// LogError logs an error-level message to every sink.
func (m *MultiLogger) LogError(message string) {
	for _, s := range m.sinks {
		s.LogError(message)
	}
}

// NoOpLogger discards all records.
type NoOpLogger struct{}

// Nop returns a Logger that discards all records.
func Nop() *NoOpLogger {
	return &NoOpLogger{}
}

func (*NoOpLogger) LogTrace(string) {}
func (*NoOpLogger) LogDebug(string) {}
func (*NoOpLogger) LogInfo(string)  {}
func (*NoOpLogger) LogWarn(string)  {}
func (*NoOpLogger) LogError(string) {}
