// Copyright 2026 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/google/subcommands"

	"go.chromium.org/atfrun/testutil"
)

// stripTimes removes wall times from run output.
func stripTimes(s string) string {
	return regexp.MustCompile(`  \[[0-9.]+s\]`).ReplaceAllString(s, "")
}

func TestRunTestCases(t *testing.T) {
	root, opts := setUpRoot(t)
	metricsFile := filepath.Join(testutil.TempDir(t), "atfrun.prom")

	var stdout bytes.Buffer
	cmd := newRunCmd(&stdout)
	cmd.opts = opts
	args := []string{"-root", root, "-metrics_file", metricsFile, "prog"}
	if status := executeCmd(t, cmd, args); status != subcommands.ExitFailure {
		t.Fatalf("runCmd.Execute(%v) returned status %v; want %v", args, status, subcommands.ExitFailure)
	}
	exp := `prog:pass  ->  passed
prog:fail  ->  failed: Oops
prog:skip  ->  skipped: Nope
prog:needs_var  ->  skipped: Required configuration property 'myvar' not defined

4 test cases run: 1 passed, 1 failed, 2 skipped
`
	if got := stripTimes(stdout.String()); got != exp {
		t.Errorf("runCmd.Execute(%v) printed %q; want %q", args, got, exp)
	}

	b, err := os.ReadFile(metricsFile)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{
		`atfrun_test_case_results_total{result="passed",suite="s"} 1`,
		`atfrun_test_case_results_total{result="skipped",suite="s"} 2`,
	} {
		if !strings.Contains(string(b), want) {
			t.Errorf("Metrics file does not contain %q:\n%s", want, b)
		}
	}
}

func TestRunTestCasesWithConfig(t *testing.T) {
	root, opts := setUpRoot(t)
	cfgPath := filepath.Join(root, "atfrun.yaml")
	if err := testutil.WriteFiles(root, map[string]string{
		"atfrun.yaml": "test_suites:\n  s:\n    myvar: value\n",
	}); err != nil {
		t.Fatal(err)
	}

	var stdout bytes.Buffer
	cmd := newRunCmd(&stdout)
	cmd.opts = opts
	args := []string{"-root", root, "-config", cfgPath, "prog:pass", "prog:needs_var"}
	if status := executeCmd(t, cmd, args); status != subcommands.ExitSuccess {
		t.Fatalf("runCmd.Execute(%v) returned status %v; want %v", args, status, subcommands.ExitSuccess)
	}
	exp := `prog:pass  ->  passed
prog:needs_var  ->  passed

2 test cases run: 2 passed
`
	if got := stripTimes(stdout.String()); got != exp {
		t.Errorf("runCmd.Execute(%v) printed %q; want %q", args, got, exp)
	}
}

func TestRunTestCasesBadConfig(t *testing.T) {
	root, opts := setUpRoot(t)
	cmd := newRunCmd(&bytes.Buffer{})
	cmd.opts = opts
	args := []string{"-root", root, "-config", filepath.Join(root, "missing.yaml")}
	if status := executeCmd(t, cmd, args); status != subcommands.ExitUsageError {
		t.Errorf("runCmd.Execute(%v) returned status %v; want %v", args, status, subcommands.ExitUsageError)
	}
}
