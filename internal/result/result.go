// Copyright 2026 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package result defines the outcomes of running a test case.
package result

import (
	"fmt"
	"strings"

	"go.chromium.org/atfrun/errors"
)

// Type is the kind of a Result.
type Type int

// Result types.
const (
	Passed Type = iota
	Failed
	Skipped
	ExpectedFailure
	// Broken means the execution machinery failed rather than the test itself.
	Broken
)

var typeNames = map[Type]string{
	Passed:          "passed",
	Failed:          "failed",
	Skipped:         "skipped",
	ExpectedFailure: "expected_failure",
	Broken:          "broken",
}

func (t Type) String() string {
	if s, ok := typeNames[t]; ok {
		return s
	}
	return fmt.Sprintf("Type(%d)", int(t))
}

// Result is an immutable test case outcome.
type Result struct {
	typ    Type
	reason string
}

// Pass returns a passed result.
func Pass() Result { return Result{typ: Passed} }

// Fail returns a failed result.
func Fail(reason string) Result { return New(Failed, reason) }

// Skip returns a skipped result.
func Skip(reason string) Result { return New(Skipped, reason) }

// ExpectFailure returns an expected_failure result.
func ExpectFailure(reason string) Result { return New(ExpectedFailure, reason) }

// Break returns a broken result.
func Break(reason string) Result { return New(Broken, reason) }

// New returns a result of type t. Results other than Passed need a reason;
// a missing one is replaced by a placeholder so that reports never show an
// empty explanation. Passed results drop the reason.
func New(t Type, reason string) Result {
	if t == Passed {
		return Result{typ: Passed}
	}
	if reason == "" {
		reason = "No reason specified"
	}
	return Result{typ: t, reason: reason}
}

// Type returns the type of r.
func (r Result) Type() Type { return r.typ }

// Reason returns the explanation of r. It is empty for passed results.
func (r Result) Reason() string { return r.reason }

// Good reports whether r does not indicate a problem.
func (r Result) Good() bool {
	switch r.typ {
	case Passed, Skipped, ExpectedFailure:
		return true
	default:
		return false
	}
}

// String renders r as "passed" or "<type>: <reason>".
func (r Result) String() string {
	if r.typ == Passed {
		return r.typ.String()
	}
	return r.typ.String() + ": " + r.reason
}

// Parse is the inverse of Result.String.
func Parse(s string) (Result, error) {
	if s == "passed" {
		return Pass(), nil
	}
	name, reason, ok := strings.Cut(s, ": ")
	if !ok || reason == "" {
		return Result{}, errors.Formatf("Invalid result '%s'", s)
	}
	for t, n := range typeNames {
		if n == name && t != Passed {
			return Result{typ: t, reason: reason}, nil
		}
	}
	return Result{}, errors.Formatf("Invalid result type '%s'", name)
}
