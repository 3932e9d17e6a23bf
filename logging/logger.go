// Package logging provides the minimal logging collaborator ProxyConnection
// consumes, grounded on router/inbuilt/middleware.Logger in the teacher
// (indigo-web/indigo): a single Printf method, so any *log.Logger or
// logrus entry satisfies it without an adapter.
package logging

import "github.com/sirupsen/logrus"

// Logger is the sink ProxyConnection writes its connect, timeout, close and
// origin-error events through — never directly to stdout (SPEC_FULL §1.2).
// Printf carries no severity; the Logrus adapter logs every line at Debug.
type Logger interface {
	Printf(fmt string, v ...any)
}

// Nop discards every line; the default for tests and callers that don't
// care about proxy diagnostics.
type Nop struct{}

func (Nop) Printf(string, ...any) {}

// Logrus adapts a *logrus.Logger to Logger, logging every line at Debug
// level (Printf carries no severity of its own, matching the teacher's
// LogRequests middleware which also logs everything through one call).
type Logrus struct {
	entry *logrus.Logger
}

// NewLogrus builds a Logrus sink around l, or a fresh default logger if l
// is nil.
func NewLogrus(l *logrus.Logger) Logrus {
	if l == nil {
		l = logrus.New()
	}

	return Logrus{entry: l}
}

func (l Logrus) Printf(format string, v ...any) {
	l.entry.Debugf(format, v...)
}
