// Package logx provides the single logger interface named in the
// source re-architecture notes (spec.md §9): levels
// {debug, info, success, warning, error, critical}, with success
// mapped onto info for filtering purposes. Built on zerolog, replacing
// the teacher's ad-hoc fmt.Fprintf(os.Stderr, ...) calls and the
// source's monkey-patched shadow loggers.
package logx

import (
	"io"
	"os"
	"sync"

	"github.com/rs/zerolog"
)

// Logger wraps a zerolog.Logger with the level set the source's
// logging façade exposes.
type Logger struct {
	z zerolog.Logger
}

var (
	defaultOnce sync.Once
	defaultLog  *Logger
)

// New builds a Logger writing to w. When debug is true the minimum
// level is Debug; otherwise Info.
func New(w io.Writer, debug bool) *Logger {
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}
	z := zerolog.New(w).Level(level).With().Timestamp().Logger()
	return &Logger{z: z}
}

// Default returns a process-wide Logger writing to stderr, honouring
// the DEBUG environment variable (spec.md §6). Constructed lazily and
// cached; still passed explicitly through the Engine context rather
// than consumed as a hidden global (§9 design note on singletons) —
// this accessor exists only for package-level helpers (e.g. CLI
// top-level error reporting) that run before an Engine exists.
func Default() *Logger {
	defaultOnce.Do(func() {
		debug := os.Getenv("DEBUG") != "" && os.Getenv("DEBUG") != "0" && os.Getenv("DEBUG") != "false"
		defaultLog = New(os.Stderr, debug)
	})
	return defaultLog
}

func (l *Logger) With(field, value string) *Logger {
	return &Logger{z: l.z.With().Str(field, value).Logger()}
}

func (l *Logger) Debug(msg string, args ...interface{}) {
	l.z.Debug().Msgf(msg, args...)
}

func (l *Logger) Info(msg string, args ...interface{}) {
	l.z.Info().Msgf(msg, args...)
}

// Success maps to Info per the source re-architecture note: success is
// a semantic label for humans reading transcripts, not a distinct
// filterable level.
func (l *Logger) Success(msg string, args ...interface{}) {
	l.z.Info().Bool("success", true).Msgf(msg, args...)
}

func (l *Logger) Warning(msg string, args ...interface{}) {
	l.z.Warn().Msgf(msg, args...)
}

func (l *Logger) Error(msg string, args ...interface{}) {
	l.z.Error().Msgf(msg, args...)
}

// Critical logs at error level tagged critical=true. It does not call
// os.Exit — fatal conditions propagate as errors to the Scheduler per
// spec.md §7, not via logger side effects.
func (l *Logger) Critical(msg string, args ...interface{}) {
	l.z.Error().Bool("critical", true).Msgf(msg, args...)
}
