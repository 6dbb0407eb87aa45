// Package logging holds the logger shared by the behaviors packages.
package logging

import (
	"sync"

	"go.uber.org/zap"
)

var (
	loggerMu sync.RWMutex
	logger   = zap.NewNop()
)

// Logger returns the package-wide logger instance.
// It is a no-op logger until SetLogger is called.
func Logger() *zap.Logger {
	loggerMu.RLock()
	defer loggerMu.RUnlock()
	return logger
}

// SetLogger replaces the package-wide logger and returns the previous one
// so callers can restore it during cleanup. Passing nil installs a no-op logger.
func SetLogger(l *zap.Logger) *zap.Logger {
	if l == nil {
		l = zap.NewNop()
	}
	loggerMu.Lock()
	defer loggerMu.Unlock()
	prev := logger
	logger = l
	return prev
}

// Named returns a child of the package logger with the given name.
func Named(name string) *zap.Logger {
	return Logger().Named(name)
}
