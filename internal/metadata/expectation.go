// Copyright 2026 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package metadata

import (
	"fmt"
	"strconv"
	"strings"

	"go.chromium.org/atfrun/errors"
)

// ExpectKind is the outcome a test case declares in advance.
type ExpectKind string

// Expectation kinds.
const (
	ExpectPass    ExpectKind = "pass"
	ExpectFail    ExpectKind = "fail"
	ExpectExit    ExpectKind = "exit"
	ExpectSignal  ExpectKind = "signal"
	ExpectTimeout ExpectKind = "timeout"
	ExpectDeath   ExpectKind = "death"
)

var expectKinds = map[ExpectKind]struct{}{
	ExpectPass: {}, ExpectFail: {}, ExpectExit: {}, ExpectSignal: {}, ExpectTimeout: {}, ExpectDeath: {},
}

// Expectation is a declared expected outcome, e.g. "exit(2): known bug".
type Expectation struct {
	Kind ExpectKind
	// HasArg is set if Arg is meaningful. Only exit and signal take one.
	HasArg bool
	Arg    int
	Reason string
}

// String renders e in the syntax accepted by ParseExpectation.
func (e Expectation) String() string {
	s := string(e.Kind)
	if e.HasArg {
		s += fmt.Sprintf("(%d)", e.Arg)
	}
	if e.Reason != "" {
		s += ": " + e.Reason
	}
	return s
}

// ParseExpectation parses "<kind>[(<n>)][: <reason>]".
func ParseExpectation(s string) (Expectation, error) {
	var e Expectation
	kind := s
	rest := ""
	if i := strings.IndexAny(s, "(:"); i >= 0 {
		kind, rest = s[:i], s[i:]
	}
	e.Kind = ExpectKind(kind)
	if _, ok := expectKinds[e.Kind]; !ok {
		return Expectation{}, errors.Formatf("Invalid expected_result '%s'; unknown kind '%s'", s, kind)
	}

	if strings.HasPrefix(rest, "(") {
		end := strings.IndexByte(rest, ')')
		if end < 0 {
			return Expectation{}, errors.Formatf("Invalid expected_result '%s'; unterminated argument", s)
		}
		if e.Kind != ExpectExit && e.Kind != ExpectSignal {
			return Expectation{}, errors.Formatf("Invalid expected_result '%s'; '%s' takes no argument", s, kind)
		}
		arg := rest[1:end]
		n, err := strconv.Atoi(arg)
		if err != nil || n < 0 || arg != strconv.Itoa(n) {
			return Expectation{}, errors.Formatf("Invalid expected_result '%s'; bad argument '%s'", s, arg)
		}
		e.HasArg, e.Arg = true, n
		rest = rest[end+1:]
	}

	if rest != "" {
		if !strings.HasPrefix(rest, ": ") {
			return Expectation{}, errors.Formatf("Invalid expected_result '%s'; expecting ': <reason>'", s)
		}
		e.Reason = strings.TrimSpace(rest[2:])
	}
	if e.Kind == ExpectPass && e.Reason != "" {
		return Expectation{}, errors.Formatf("Invalid expected_result '%s'; pass takes no reason", s)
	}
	return e, nil
}
