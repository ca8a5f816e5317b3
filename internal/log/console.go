package log

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
)

// Level orders messages by verbosity; lower is more verbose.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
	LevelSilent
)

// ParseLevel maps debug|info|warn|error|silent to a Level.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "info", "":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	case "silent", "quiet":
		return LevelSilent, nil
	}
	return LevelInfo, fmt.Errorf("unknown log level %q", s)
}

// ConsoleLogger writes timestamped, colored lines.
type ConsoleLogger struct {
	mu       sync.Mutex
	out      io.Writer
	minLevel Level
	now      func() time.Time

	timeColor  func(format string, a ...interface{}) string
	debugColor func(format string, a ...interface{}) string
	infoColor  func(format string, a ...interface{}) string
	warnColor  func(format string, a ...interface{}) string
	errorColor func(format string, a ...interface{}) string
}

// NewConsoleLogger logs to out (stderr when nil) at minLevel and above.
// noColor disables ANSI sequences for this logger only.
func NewConsoleLogger(out io.Writer, minLevel Level, noColor bool) *ConsoleLogger {
	if out == nil {
		out = os.Stderr
	}
	mk := func(attrs ...color.Attribute) func(string, ...interface{}) string {
		c := color.New(attrs...)
		if noColor {
			c.DisableColor()
		} else {
			c.EnableColor()
		}
		return c.SprintfFunc()
	}
	return &ConsoleLogger{
		out:        out,
		minLevel:   minLevel,
		now:        time.Now,
		timeColor:  mk(color.FgHiBlack),
		debugColor: mk(color.FgHiBlack),
		infoColor:  mk(color.FgCyan),
		warnColor:  mk(color.FgYellow),
		errorColor: mk(color.FgRed, color.Bold),
	}
}

func (l *ConsoleLogger) write(level Level, format string, args ...interface{}) {
	if level < l.minLevel {
		return
	}
	var prefix string
	switch level {
	case LevelDebug:
		prefix = l.debugColor("[DEBUG]")
	case LevelInfo:
		prefix = l.infoColor("[INFO]")
	case LevelWarn:
		prefix = l.warnColor("[WARN]")
	default:
		prefix = l.errorColor("[ERROR]")
	}
	msg := fmt.Sprintf(format, args...)
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.out, "%s %s %s\n", l.timeColor("[%s]", l.now().Format("15:04:05")), prefix, msg)
}

func (l *ConsoleLogger) Debugf(format string, args ...interface{}) {
	l.write(LevelDebug, format, args...)
}

func (l *ConsoleLogger) Infof(format string, args ...interface{}) {
	l.write(LevelInfo, format, args...)
}

func (l *ConsoleLogger) Warnf(format string, args ...interface{}) {
	l.write(LevelWarn, format, args...)
}

func (l *ConsoleLogger) Errorf(format string, args ...interface{}) {
	l.write(LevelError, format, args...)
}
