// Copyright 2026 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package metadata_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"go.chromium.org/atfrun/internal/metadata"
)

func TestParseExpectation(t *testing.T) {
	for _, tc := range []struct {
		in   string
		want metadata.Expectation
	}{
		{"pass", metadata.Expectation{Kind: metadata.ExpectPass}},
		{"fail: flaky", metadata.Expectation{Kind: metadata.ExpectFail, Reason: "flaky"}},
		{"exit", metadata.Expectation{Kind: metadata.ExpectExit}},
		{"exit(0)", metadata.Expectation{Kind: metadata.ExpectExit, HasArg: true, Arg: 0}},
		{"signal(6): aborts", metadata.Expectation{Kind: metadata.ExpectSignal, HasArg: true, Arg: 6, Reason: "aborts"}},
		{"timeout", metadata.Expectation{Kind: metadata.ExpectTimeout}},
		{"death: dies", metadata.Expectation{Kind: metadata.ExpectDeath, Reason: "dies"}},
	} {
		got, err := metadata.ParseExpectation(tc.in)
		if err != nil {
			t.Errorf("ParseExpectation(%q) failed: %v", tc.in, err)
			continue
		}
		if diff := cmp.Diff(got, tc.want); diff != "" {
			t.Errorf("ParseExpectation(%q) mismatch (-got +want):\n%s", tc.in, diff)
		}
		if s := got.String(); s != tc.in {
			t.Errorf("String() = %q; want %q", s, tc.in)
		}
	}
}

func TestParseExpectationErrors(t *testing.T) {
	for _, in := range []string{
		"",
		"Pass",
		"pass: no reason allowed",
		"exit(",
		"exit(-1)",
		"exit(01)",
		"timeout(5)",
		"fail:no-space",
		"signal(9)trailing",
	} {
		if e, err := metadata.ParseExpectation(in); err == nil {
			t.Errorf("ParseExpectation(%q) = %v; want error", in, e)
		}
	}
}
