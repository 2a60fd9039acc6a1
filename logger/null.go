package logger

import "io"

// NullLogger discards everything. It is the default global logger so
// library users opt in to output explicitly.
type NullLogger struct{}

func NewNullLogger() *NullLogger {
	return &NullLogger{}
}

func (n *NullLogger) Debug(format string, args ...any) {}
func (n *NullLogger) Info(format string, args ...any)  {}
func (n *NullLogger) Warn(format string, args ...any)  {}
func (n *NullLogger) Error(format string, args ...any) {}
func (n *NullLogger) SetLevel(level LogLevel)          {}
func (n *NullLogger) GetLevel() LogLevel               { return LogLevelNone }
func (n *NullLogger) SetOutput(w io.Writer)            {}
