// Package logger provides structured logging for quilldb.
package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Logger wraps zerolog with quilldb-specific component scoping.
type Logger struct {
	zlog zerolog.Logger
}

// Config holds logger configuration.
type Config struct {
	Level      string // debug, info, warn, error
	Pretty     bool   // pretty-print for development
	Output     io.Writer
	WithCaller bool
}

// New creates a structured logger from cfg.
func New(cfg Config) *Logger {
	level := zerolog.InfoLevel
	switch cfg.Level {
	case "debug":
		level = zerolog.DebugLevel
	case "info":
		level = zerolog.InfoLevel
	case "warn":
		level = zerolog.WarnLevel
	case "error":
		level = zerolog.ErrorLevel
	}
	zerolog.SetGlobalLevel(level)

	output := cfg.Output
	if output == nil {
		output = os.Stdout
	}
	if cfg.Pretty {
		output = zerolog.ConsoleWriter{Out: output, TimeFormat: time.RFC3339}
	}

	zlog := zerolog.New(output).With().Timestamp().Str("service", "quilldb").Logger()
	if cfg.WithCaller {
		zlog = zlog.With().Caller().Logger()
	}
	return &Logger{zlog: zlog}
}

// Zerolog returns the underlying zerolog logger for callers that need
// the full event builder API.
func (l *Logger) Zerolog() *zerolog.Logger { return &l.zlog }

func (l *Logger) Info(msg string) *zerolog.Event  { return l.zlog.Info().Str("msg", msg) }
func (l *Logger) Debug(msg string) *zerolog.Event { return l.zlog.Debug().Str("msg", msg) }
func (l *Logger) Warn(msg string) *zerolog.Event  { return l.zlog.Warn().Str("msg", msg) }
func (l *Logger) Error(msg string) *zerolog.Event { return l.zlog.Error().Str("msg", msg) }

// WithComponent returns a logger tagged with a component field, the
// way the writer, reader, and executor each get their own sub-logger.
func (l *Logger) WithComponent(component string) *Logger {
	return &Logger{zlog: l.zlog.With().Str("component", component).Logger()}
}

// LogCommit logs a completed writer commit.
func (l *Logger) LogCommit(version uint64, pagesWritten int, duration time.Duration, err error) {
	event := l.zlog.Debug().
		Str("component", "db").
		Uint64("version", version).
		Int("pages_written", pagesWritten).
		Dur("duration_ms", duration)
	if err != nil {
		event = l.zlog.Error().
			Str("component", "db").
			Uint64("version", version).
			Err(err)
	}
	event.Msg("transaction commit")
}

// LogStatement logs one executed SQL statement.
func (l *Logger) LogStatement(kind string, table string, affected int, duration time.Duration, err error) {
	event := l.zlog.Debug().
		Str("component", "exec").
		Str("kind", kind).
		Str("table", table).
		Int("affected", affected).
		Dur("duration_ms", duration)
	if err != nil {
		event = l.zlog.Error().
			Str("component", "exec").
			Str("kind", kind).
			Str("table", table).
			Err(err)
	}
	event.Msg("statement executed")
}

// Global logger, set once at process startup by cmd/quilldbd.
var global *Logger

// InitGlobal sets the process-wide logger.
func InitGlobal(cfg Config) { global = New(cfg) }

// Global returns the process-wide logger, initializing a sane default
// if InitGlobal was never called (e.g. in package tests).
func Global() *Logger {
	if global == nil {
		global = New(Config{Level: "info", Pretty: true})
	}
	return global
}
