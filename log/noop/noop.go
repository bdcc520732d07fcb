// Package noop provides a Logger that discards everything.
package noop

import "github.com/reefs-ftp/reefs/log"

type noopLogger struct{}

func (noopLogger) Debug(string, ...interface{})    {}
func (noopLogger) Info(string, ...interface{})     {}
func (noopLogger) Warn(string, ...interface{})     {}
func (noopLogger) Error(string, ...interface{})    {}
func (l noopLogger) With(...interface{}) log.Logger { return l }

// NewNoOpLogger returns a Logger that discards everything.
func NewNoOpLogger() log.Logger {
	return noopLogger{}
}
