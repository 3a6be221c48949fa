package router

import (
	"log"
	"os"
	"strings"
)

// LogLevel controls router log verbosity.
type LogLevel int

const (
	LogLevelNone LogLevel = iota
	LogLevelError
	LogLevelWarn
	LogLevelInfo
	LogLevelDebug
)

func (l LogLevel) String() string {
	switch l {
	case LogLevelError:
		return "error"
	case LogLevelWarn:
		return "warn"
	case LogLevelInfo:
		return "info"
	case LogLevelDebug:
		return "debug"
	default:
		return "none"
	}
}

func parseLogLevel(raw string) LogLevel {
	switch strings.TrimSpace(strings.ToLower(raw)) {
	case "none", "off", "0":
		return LogLevelNone
	case "error", "err", "1":
		return LogLevelError
	case "warn", "warning", "2":
		return LogLevelWarn
	case "info", "3":
		return LogLevelInfo
	case "debug", "4":
		return LogLevelDebug
	default:
		return LogLevelWarn
	}
}

// logger is a small leveled wrapper over the stdlib logger. The background
// context has no UI surface, so everything goes to stderr.
type logger struct {
	level LogLevel
	out   *log.Logger
}

func newLogger() *logger {
	return &logger{
		level: parseLogLevel(os.Getenv("A11Y_LOG_LEVEL")),
		out:   log.New(os.Stderr, "[router] ", log.Ltime),
	}
}

func (l *logger) errorf(format string, args ...any) {
	if l.level >= LogLevelError {
		l.out.Printf("ERROR "+format, args...)
	}
}

func (l *logger) warnf(format string, args ...any) {
	if l.level >= LogLevelWarn {
		l.out.Printf("WARN "+format, args...)
	}
}

func (l *logger) infof(format string, args ...any) {
	if l.level >= LogLevelInfo {
		l.out.Printf("INFO "+format, args...)
	}
}

func (l *logger) debugf(format string, args ...any) {
	if l.level >= LogLevelDebug {
		l.out.Printf("DEBUG "+format, args...)
	}
}
