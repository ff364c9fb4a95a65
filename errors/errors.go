// Copyright 2026 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package errors constructs errors that carry a stack trace, an optional
// cause and an optional Kind.
//
// Use this package instead of the standard errors package or fmt.Errorf so
// that failures of the engine can be traced back to where they happened:
//
//	errors.New("no test cases")
//	errors.Errorf("invalid timeout %q", v)
//	errors.Wrap(err, "failed to list test cases")
//	errors.Wrapf(err, "failed to execute %s", path)
//
// Errors that describe a malformed test program listing or invalid metadata
// are created with Format/Formatf, and errors that describe a test program
// that could not be started are created with Exec/Execf. Callers classify them
// with IsFormat and IsExec, which look through the whole chain.
//
// Formatting an error with "%+v" prints every link of the chain together
// with the location where it was created.
package errors

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"go.chromium.org/atfrun/errors/stack"
)

// Kind classifies errors that callers need to tell apart.
type Kind int

const (
	// KindUnspecified is the kind of errors created by New, Errorf, Wrap and Wrapf.
	KindUnspecified Kind = iota
	// KindFormat marks malformed test program listings and invalid metadata.
	KindFormat
	// KindExec marks test programs that could not be located or started.
	KindExec
)

func (k Kind) String() string {
	switch k {
	case KindFormat:
		return "format error"
	case KindExec:
		return "exec error"
	default:
		return "error"
	}
}

// E is the error implementation of this package.
type E struct {
	msg   string
	kind  Kind
	stk   stack.Stack
	cause error
}

// Error implements the error interface.
func (e *E) Error() string {
	if e.cause == nil {
		return e.msg
	}
	return fmt.Sprintf("%s: %s", e.msg, e.cause.Error())
}

// Unwrap returns the cause of e, or nil.
func (e *E) Unwrap() error {
	return e.cause
}

// Kind returns the kind e was created with. Use KindOf to search a chain.
func (e *E) Kind() Kind {
	return e.kind
}

// Format implements fmt.Formatter. "%+v" prints the chain with stack traces.
func (e *E) Format(s fmt.State, verb rune) {
	if verb == 'v' && s.Flag('+') {
		io.WriteString(s, formatChain(e))
		return
	}
	io.WriteString(s, e.Error())
}

func formatChain(err error) string {
	var chain []string
	for err != nil {
		e, ok := err.(*E)
		if !ok {
			chain = append(chain, fmt.Sprintf("%s\n\tat ???", err.Error()))
			break
		}
		chain = append(chain, fmt.Sprintf("%s\n%v", e.msg, e.stk))
		err = e.cause
	}
	return strings.Join(chain, "\n")
}

func newE(kind Kind, cause error, msg string) *E {
	return &E{msg: msg, kind: kind, stk: stack.New(2), cause: cause}
}

// New creates an error with msg, recording the caller's location.
func New(msg string) error {
	return newE(KindUnspecified, nil, msg)
}

// Errorf is like New but formats its message with fmt.Sprintf.
func Errorf(format string, args ...interface{}) error {
	return newE(KindUnspecified, nil, fmt.Sprintf(format, args...))
}

// Wrap creates an error with msg that has cause as its cause.
// If cause is nil, Wrap is the same as New.
func Wrap(cause error, msg string) error {
	return newE(KindUnspecified, cause, msg)
}

// Wrapf is like Wrap but formats its message with fmt.Sprintf.
func Wrapf(cause error, format string, args ...interface{}) error {
	return newE(KindUnspecified, cause, fmt.Sprintf(format, args...))
}

// Format creates a KindFormat error. Its message is kept verbatim so that it
// can be shown to users as the reason of a broken result.
func Format(msg string) error {
	return newE(KindFormat, nil, msg)
}

// Formatf is like Format but formats its message with fmt.Sprintf.
func Formatf(format string, args ...interface{}) error {
	return newE(KindFormat, nil, fmt.Sprintf(format, args...))
}

// Execf creates a KindExec error caused by cause.
func Execf(cause error, format string, args ...interface{}) error {
	return newE(KindExec, cause, fmt.Sprintf(format, args...))
}

// KindOf returns the kind of the outermost error in the chain of err that
// has a kind other than KindUnspecified.
func KindOf(err error) Kind {
	for err != nil {
		if e, ok := err.(*E); ok && e.kind != KindUnspecified {
			return e.kind
		}
		err = errors.Unwrap(err)
	}
	return KindUnspecified
}

// IsFormat reports whether err's chain contains a KindFormat error.
func IsFormat(err error) bool {
	return KindOf(err) == KindFormat
}

// IsExec reports whether err's chain contains a KindExec error.
func IsExec(err error) bool {
	return KindOf(err) == KindExec
}

// Is, As and Unwrap are re-exported so that callers do not need to import
// the standard errors package alongside this one.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
)
