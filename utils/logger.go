package utils

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/term"
)

// Logger provides leveled logging throughout the application.
// Messages are printf-style and conventionally start with a "[component]" tag.
type Logger struct {
	zl zerolog.Logger
}

// NewLogger creates a Logger configured from LOG_LEVEL and LOG_FORMAT.
func NewLogger() *Logger {
	return NewLoggerWithOptions(os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT"))
}

// NewLoggerWithOptions creates a Logger writing to stdout. format "json" emits
// one JSON object per line; anything else uses the human-readable console
// writer, coloured only when stdout is a terminal.
func NewLoggerWithOptions(level, format string) *Logger {
	var out io.Writer = os.Stdout
	if format != "json" {
		out = zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: "2006-01-02 15:04:05",
			NoColor:    !term.IsTerminal(int(os.Stdout.Fd())),
		}
	}
	return newLogger(out, level)
}

func newLogger(out io.Writer, level string) *Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	return &Logger{zl: zerolog.New(out).With().Timestamp().Logger().Level(lvl)}
}

// NewNopLogger returns a Logger that discards everything.
func NewNopLogger() *Logger {
	return &Logger{zl: zerolog.Nop()}
}

// Zerolog exposes the underlying logger for structured fields.
func (l *Logger) Zerolog() *zerolog.Logger {
	return &l.zl
}

func (l *Logger) Info(format string, args ...any) {
	l.zl.Info().Msgf(format, args...)
}

func (l *Logger) Warn(format string, args ...any) {
	l.zl.Warn().Msgf(format, args...)
}

func (l *Logger) Error(format string, args ...any) {
	l.zl.Error().Msgf(format, args...)
}

func (l *Logger) Debug(format string, args ...any) {
	l.zl.Debug().Msgf(format, args...)
}
