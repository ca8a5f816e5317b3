// Package log is a small leveled logging facade. Library packages log through
// the package-level functions; the CLI installs a ConsoleLogger.
package log

import "sync"

// Logger is the interface a backend must satisfy.
type Logger interface {
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

var (
	mu     sync.RWMutex
	logger Logger = SilentLogger{}
)

// SetLogger replaces the package logger. A nil logger silences output.
func SetLogger(l Logger) {
	if l == nil {
		l = SilentLogger{}
	}
	mu.Lock()
	logger = l
	mu.Unlock()
}

// GetLogger returns the current package logger.
func GetLogger() Logger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

func Debugf(format string, args ...interface{}) { GetLogger().Debugf(format, args...) }

func Infof(format string, args ...interface{}) { GetLogger().Infof(format, args...) }

func Warnf(format string, args ...interface{}) { GetLogger().Warnf(format, args...) }

func Errorf(format string, args ...interface{}) { GetLogger().Errorf(format, args...) }

// SilentLogger discards everything.
type SilentLogger struct{}

func (SilentLogger) Debugf(string, ...interface{}) {}
func (SilentLogger) Infof(string, ...interface{})  {}
func (SilentLogger) Warnf(string, ...interface{})  {}
func (SilentLogger) Errorf(string, ...interface{}) {}
