// Copyright 2026 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/google/subcommands"

	"go.chromium.org/atfrun/internal/engine"
	"go.chromium.org/atfrun/internal/fakeexec"
	"go.chromium.org/atfrun/internal/logging"
	"go.chromium.org/atfrun/internal/logging/loggingtest"
	"go.chromium.org/atfrun/internal/metadata"
	"go.chromium.org/atfrun/internal/protocol"
	"go.chromium.org/atfrun/testutil"
)

var listing = func() string {
	var b strings.Builder
	if err := protocol.WriteTestCases(&b, []*protocol.TestCase{
		{Name: "pass", Properties: metadata.Properties{{Key: "descr", Value: "Passes"}, {Key: "X-owner", Value: "me"}}},
		{Name: "fail"},
		{Name: "skip"},
		{Name: "needs_var", Properties: metadata.Properties{{Key: "require.config", Value: "myvar"}}},
	}); err != nil {
		panic(err)
	}
	return b.String()
}()

// fakeMain is a minimal ATF test program declaring the test cases of listing.
var fakeMain = fakeexec.NewAuxMain("fake_test_program", func(struct{}) {
	var resultsFile, name string
	hasVar := false
	for _, arg := range os.Args[1:] {
		switch {
		case arg == "-l":
			fmt.Print(listing)
			os.Exit(0)
		case strings.HasPrefix(arg, "-r"):
			resultsFile = arg[2:]
		case strings.HasPrefix(arg, "-vmyvar="):
			hasVar = true
		case strings.HasPrefix(arg, "-"):
		default:
			name = arg
		}
	}
	write := func(s string) {
		if err := os.WriteFile(resultsFile, []byte(s+"\n"), 0644); err != nil {
			panic(err)
		}
	}
	switch {
	case name == "pass", name == "needs_var" && hasVar:
		write("passed")
	case name == "skip":
		write("skipped: Nope")
	default:
		write("failed: Oops")
		os.Exit(1)
	}
})

// setUpRoot creates a root with a suite definition declaring the fake test
// program twice, and returns it with the options needed to run the program.
func setUpRoot(t *testing.T) (string, []engine.Option) {
	t.Helper()
	params, err := fakeMain.Params(struct{}{})
	if err != nil {
		t.Fatal(err)
	}
	root := testutil.TempDir(t)
	if err := testutil.WriteFiles(root, map[string]string{
		"Kyuafile.yaml": "test_suite: s\ntest_programs:\n  - name: prog\n  - name: sub/other\n    test_suite: t\n",
	}); err != nil {
		t.Fatal(err)
	}
	if err := testutil.Symlinks(root, map[string]string{
		"prog":      params.Executable(),
		"sub/other": params.Executable(),
	}); err != nil {
		t.Fatal(err)
	}
	return root, []engine.Option{
		engine.WithEnv(params.Envs()...),
		engine.WithWorkDir(testutil.TempDir(t)),
	}
}

// executeCmd sets flags of cmd from args and executes it.
func executeCmd(t *testing.T, cmd subcommands.Command, args []string) subcommands.ExitStatus {
	t.Helper()
	flags := flag.NewFlagSet("", flag.ContinueOnError)
	cmd.SetFlags(flags)
	if err := flags.Parse(args); err != nil {
		t.Fatal(err)
	}
	ctx := logging.AttachLogger(context.Background(), loggingtest.NewLogger(t))
	return cmd.Execute(ctx, flags)
}
