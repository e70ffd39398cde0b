/*
Copyright 2018 Heptio Inc.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package errlog is Cleanroom's single error model: one tagged Kind plus a
// contextual chain, and the log-level plumbing used everywhere else in the
// module.
package errlog

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var (
	// DebugOutput controls whether to output the trace of every error
	DebugOutput = false

	// LogLevel used for sirupsen/logrus
	LogLevel logLevelFlagType = "info"
)

type logLevelFlagType string

func (l *logLevelFlagType) String() string { return string(*l) }
func (l *logLevelFlagType) Type() string   { return "level" }
func (l *logLevelFlagType) Set(str string) error {
	*l = logLevelFlagType(str)
	return SetLevel(str)
}

// SetLevel sets the global logrus level from a string, as handed in from a
// cobra flag or a scenario file.
func SetLevel(s string) error {
	if DebugOutput {
		LogLevel = "debug"
	}
	switch s {
	case "panic":
		logrus.SetLevel(logrus.PanicLevel)
	case "fatal":
		logrus.SetLevel(logrus.FatalLevel)
	case "error":
		logrus.SetLevel(logrus.ErrorLevel)
	case "warn":
		logrus.SetLevel(logrus.WarnLevel)
	case "info":
		logrus.SetLevel(logrus.InfoLevel)
	case "debug":
		logrus.SetLevel(logrus.DebugLevel)
		DebugOutput = true
	case "trace":
		logrus.SetLevel(logrus.TraceLevel)
		DebugOutput = true
	default:
		return fmt.Errorf("unknown log level %q", s)
	}
	return nil
}

// LogError logs an error, optionally with a tracelog
func LogError(err error) {
	if err == nil {
		return
	}
	if DebugOutput {
		logrus.WithField("trace", fmt.Sprintf("%+v", err)).Error(err)
	} else {
		logrus.Error(err.Error())
	}
}

// Kind tags an Error with the taxonomy from the spec: it drives both exit
// codes and how the human reporter groups and formats a failure.
type Kind int

const (
	// Config covers structural/validation issues in a scenario file.
	Config Kind = iota
	// Template covers render failures.
	Template
	// Validation covers post-run expectation violations.
	Validation
	// Security covers mount policy rejections, path traversal, forbidden attributes.
	Security
	// Container covers backend failures (create/start/exec/stop/inspect).
	Container
	// Io covers filesystem failures.
	Io
	// Timeout covers step/readiness/exec timeouts.
	Timeout
	// Internal covers invariant violations that should never happen.
	Internal
)

func (k Kind) String() string {
	switch k {
	case Config:
		return "config"
	case Template:
		return "template"
	case Validation:
		return "validation"
	case Security:
		return "security"
	case Container:
		return "container"
	case Io:
		return "io"
	case Timeout:
		return "timeout"
	case Internal:
		return "internal"
	default:
		return "unknown"
	}
}

// ExitCode returns the process exit code associated with errors of this
// kind, per spec.md section 6.
func (k Kind) ExitCode() int {
	switch k {
	case Validation:
		return 1
	case Config, Template:
		return 2
	case Container:
		return 3
	default:
		return 1
	}
}

// Error is the one error type used across every public Cleanroom operation.
// It carries a Kind, a primary message, and a stack of contextual strings
// accumulated as the error propagates up through layers (one per With call).
type Error struct {
	Kind    Kind
	Message string
	Context []string
	Cause   error
}

// New creates a new Error of the given kind.
func New(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap wraps an existing error (third-party or internal) as an Error of the
// given kind, preserving the original as Cause via github.com/pkg/errors so
// that %+v still prints a useful stack.
func Wrap(kind Kind, err error, format string, args ...interface{}) *Error {
	if err == nil {
		return nil
	}
	return &Error{
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
		Cause:   errors.WithStack(err),
	}
}

// With appends a contextual string to the error's chain, describing the
// propagation layer the error is currently passing through. Returns the
// same *Error for chaining: `return nil, err.With("loading scenario %s", path)`.
func (e *Error) With(format string, args ...interface{}) *Error {
	if e == nil {
		return nil
	}
	e.Context = append(e.Context, fmt.Sprintf(format, args...))
	return e
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Message
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %s", msg, e.Cause.Error())
	}
	for i := 0; i < len(e.Context); i++ {
		msg = fmt.Sprintf("%s: %s", e.Context[i], msg)
	}
	return msg
}

// Unwrap supports errors.Is/errors.As against the wrapped cause.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// Format implements fmt.Formatter so that %+v on an Error prints the
// contextual chain plus the underlying stack trace, matching the verbosity
// DebugOutput already controls for LogError.
func (e *Error) Format(s fmt.State, verb rune) {
	switch verb {
	case 'v':
		if s.Flag('+') {
			fmt.Fprintf(s, "%s", e.Error())
			if e.Cause != nil {
				fmt.Fprintf(s, "\n%+v", e.Cause)
			}
			return
		}
		fallthrough
	default:
		fmt.Fprintf(s, "%s", e.Error())
	}
}

// As reports whether err (or something in its chain) is a Cleanroom *Error,
// returning it for Kind-based dispatch (e.g. choosing an exit code).
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// KindOf returns the Kind of err if it is (or wraps) a Cleanroom *Error,
// and Internal otherwise -- callers that need an exit code should always
// go through this rather than assuming err is untyped.
func KindOf(err error) Kind {
	if e, ok := As(err); ok {
		return e.Kind
	}
	return Internal
}
