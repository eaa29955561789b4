// SPDX-License-Identifier: Apache-2.0

package workspace

import "github.com/pterm/pterm"

// Logger is responsible for logging all workspace lifecycle events.
type Logger interface {
	LogOpenDocument(uri string, version int)
	LogChangeDocument(uri string, version int, retired, added int)
	LogCloseDocument(uri string)

	LogDiagnostics(uri string, count int)
	LogCompletions(uri string, count int)
	LogExecuteCommand(name string, err error)
	LogUpdateSettings()

	Info(msg string, args ...any)
}

type workspaceLogger struct {
	logger pterm.Logger
}

type noopLogger struct{}

// NewLogger returns the default Logger, backed by pterm's structured
// logger.
func NewLogger() Logger {
	return &workspaceLogger{logger: pterm.DefaultLogger}
}

// NewNoopLogger returns a Logger that discards everything, for tests
// and embedders that don't want workspace chatter.
func NewNoopLogger() Logger {
	return &noopLogger{}
}

func (l *workspaceLogger) LogOpenDocument(uri string, version int) {
	l.logger.Info("opened document", l.logger.Args("uri", uri, "version", version))
}

func (l *workspaceLogger) LogChangeDocument(uri string, version, retired, added int) {
	l.logger.Info("changed document", l.logger.Args(
		"uri", uri, "version", version, "retired", retired, "added", added,
	))
}

func (l *workspaceLogger) LogCloseDocument(uri string) {
	l.logger.Info("closed document", l.logger.Args("uri", uri))
}

func (l *workspaceLogger) LogDiagnostics(uri string, count int) {
	l.logger.Info("pulled diagnostics", l.logger.Args("uri", uri, "count", count))
}

func (l *workspaceLogger) LogCompletions(uri string, count int) {
	l.logger.Info("computed completions", l.logger.Args("uri", uri, "count", count))
}

func (l *workspaceLogger) LogExecuteCommand(name string, err error) {
	if err != nil {
		l.logger.Error("command failed", l.logger.Args("name", name, "error", err.Error()))
		return
	}
	l.logger.Info("executed command", l.logger.Args("name", name))
}

func (l *workspaceLogger) LogUpdateSettings() {
	l.logger.Info("updated settings", l.logger.Args())
}

func (l *workspaceLogger) Info(msg string, args ...any) {
	l.logger.Info(msg, l.logger.Args(args))
}

func (l *noopLogger) LogOpenDocument(uri string, version int)                     {}
func (l *noopLogger) LogChangeDocument(uri string, version, retired, added int)    {}
func (l *noopLogger) LogCloseDocument(uri string)                                  {}
func (l *noopLogger) LogDiagnostics(uri string, count int)                        {}
func (l *noopLogger) LogCompletions(uri string, count int)                        {}
func (l *noopLogger) LogExecuteCommand(name string, err error)                    {}
func (l *noopLogger) LogUpdateSettings()                                          {}
func (l *noopLogger) Info(msg string, args ...any)                                {}
