// Package logger is the leveled zerolog logger shared by every subcommand.
package logger

import (
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

type Logger interface {
	Logf(format string, v ...any)
	Warnf(format string, v ...any)
	Debugf(format string, v ...any)
	Errorf(format string, v ...any)
}

// Options configures New.
type Options struct {
	Level    string // debug, info, warn, error
	JSON     bool   // raw JSON lines instead of the console writer
	SafeLogs bool   // replace URLs with [redacted url]
	Out      io.Writer
}

// ZeroLogger implements Logger on top of zerolog.
type ZeroLogger struct {
	zl   zerolog.Logger
	safe bool
}

var urlPattern = regexp.MustCompile(`[a-zA-Z][a-zA-Z0-9+.-]*://[a-zA-Z0-9+%/.\-:_?&=#@~]+`)

var (
	mu      sync.RWMutex
	current Logger = New(Options{})
)

// New builds a logger. Out defaults to stderr so stdout stays clean for command output.
func New(opts Options) *ZeroLogger {
	out := opts.Out
	if out == nil {
		out = os.Stderr
	}
	if !opts.JSON {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: "2006-01-02 15:04:05", NoColor: true}
	}
	return &ZeroLogger{
		zl:   zerolog.New(out).Level(ParseLevel(opts.Level)).With().Timestamp().Logger(),
		safe: opts.SafeLogs,
	}
}

// ParseLevel maps a level name to zerolog; unknown or empty means info.
func ParseLevel(s string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(s)))
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}

// Default returns the process-wide logger.
func Default() Logger {
	mu.RLock()
	defer mu.RUnlock()
	return current
}

// SetDefault replaces the process-wide logger.
func SetDefault(l Logger) {
	mu.Lock()
	defer mu.Unlock()
	current = l
}

func (l *ZeroLogger) msg(format string, v []any) string {
	s := fmt.Sprintf(format, v...)
	if l.safe {
		s = urlPattern.ReplaceAllString(s, "[redacted url]")
	}
	return s
}

func (l *ZeroLogger) Logf(format string, v ...any) {
	l.zl.Info().Msg(l.msg(format, v))
}

func (l *ZeroLogger) Warnf(format string, v ...any) {
	l.zl.Warn().Msg(l.msg(format, v))
}

func (l *ZeroLogger) Debugf(format string, v ...any) {
	if l.zl.GetLevel() > zerolog.DebugLevel {
		return
	}
	l.zl.Debug().Msg(l.msg(format, v))
}

func (l *ZeroLogger) Errorf(format string, v ...any) {
	l.zl.Error().Msg(l.msg(format, v))
}

// Nop discards everything. Used by tests and library callers that pass no logger.
type Nop struct{}

func (Nop) Logf(string, ...any)   {}
func (Nop) Warnf(string, ...any)  {}
func (Nop) Debugf(string, ...any) {}
func (Nop) Errorf(string, ...any) {}
