// Copyright 2026 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package errors

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"testing"
)

func check(t *testing.T, err error, msg string, traceRegexp *regexp.Regexp) {
	t.Helper()
	if s := err.Error(); s != msg {
		t.Errorf("Wrong error message %q; want %q", s, msg)
	}
	if s := fmt.Sprintf("%v", err); s != msg {
		t.Errorf("Wrong default value %q; want %q", s, msg)
	}
	if tr := fmt.Sprintf("%+v", err); !traceRegexp.MatchString(tr) {
		t.Errorf("Wrong trace %q; should match %q", tr, traceRegexp)
	}
}

func TestNew(t *testing.T) {
	traceRegexp := regexp.MustCompile(`^meow
	at go\.chromium\.org/atfrun/errors\.TestNew \(errors_test.go:\d+\)`)
	check(t, New("meow"), "meow", traceRegexp)
}

func TestErrorf(t *testing.T) {
	traceRegexp := regexp.MustCompile(`^meow
	at go\.chromium\.org/atfrun/errors\.TestErrorf \(errors_test.go:\d+\)`)
	check(t, Errorf("%sow", "me"), "meow", traceRegexp)
}

func TestWrap(t *testing.T) {
	traceRegexp := regexp.MustCompile(`(?s)^meow
	at go\.chromium\.org/atfrun/errors\.TestWrap \(errors_test.go:\d+\)
.*
woof
	at go\.chromium\.org/atfrun/errors\.TestWrap \(errors_test.go:\d+\)`)
	check(t, Wrap(New("woof"), "meow"), "meow: woof", traceRegexp)
}

func TestWrapForeignError(t *testing.T) {
	traceRegexp := regexp.MustCompile(`(?s)^meow
	at go\.chromium\.org/atfrun/errors\.TestWrapForeignError \(errors_test.go:\d+\)
.*
woof
	at \?\?\?$`)
	check(t, Wrap(errors.New("woof"), "meow"), "meow: woof", traceRegexp)
}

func TestWrapNil(t *testing.T) {
	traceRegexp := regexp.MustCompile(`^meow
	at go\.chromium\.org/atfrun/errors\.TestWrapNil \(errors_test.go:\d+\)`)
	check(t, Wrap(nil, "meow"), "meow", traceRegexp)
}

func TestUnwrap(t *testing.T) {
	err := Wrapf(os.ErrNotExist, "failed to open %s", "foo")
	if !Is(err, os.ErrNotExist) {
		t.Errorf("Is(%v, os.ErrNotExist) = false; want true", err)
	}
	var pe *os.PathError
	if As(err, &pe) {
		t.Errorf("As(%v, *os.PathError) = true; want false", err)
	}
}

func TestKinds(t *testing.T) {
	for _, tc := range []struct {
		name       string
		err        error
		wantFormat bool
		wantExec   bool
	}{
		{"plain", New("x"), false, false},
		{"format", Format("bad header"), true, false},
		{"formatf", Formatf("bad %s", "header"), true, false},
		{"wrapped format", Wrap(Format("bad header"), "listing"), true, false},
		{"exec", Execf(os.ErrNotExist, "failed to execute %s", "/bin/foo"), false, true},
		{"wrapped exec", Wrap(Execf(nil, "failed"), "listing"), false, true},
		{"foreign", errors.New("x"), false, false},
		{"nil", nil, false, false},
	} {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsFormat(tc.err); got != tc.wantFormat {
				t.Errorf("IsFormat(%v) = %v; want %v", tc.err, got, tc.wantFormat)
			}
			if got := IsExec(tc.err); got != tc.wantExec {
				t.Errorf("IsExec(%v) = %v; want %v", tc.err, got, tc.wantExec)
			}
		})
	}
}

func TestFormatKeepsMessage(t *testing.T) {
	const msg = "Relative path 'bin/ls' not allowed in required_programs; use a program name"
	if got := Format(msg).Error(); got != msg {
		t.Errorf("Error() = %q; want %q", got, msg)
	}
}
