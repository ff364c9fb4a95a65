// Copyright 2026 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package engine_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"golang.org/x/sys/unix"

	"go.chromium.org/atfrun/internal/engine"
	"go.chromium.org/atfrun/internal/fakeexec"
	"go.chromium.org/atfrun/internal/logging"
	"go.chromium.org/atfrun/internal/logging/loggingtest"
	"go.chromium.org/atfrun/internal/metadata"
	"go.chromium.org/atfrun/internal/protocol"
	"go.chromium.org/atfrun/testutil"
)

// fakeParams configures the fake ATF test program.
type fakeParams struct {
	// Listing is printed verbatim when listing test cases.
	Listing string
	// ListKill makes the listing die after printing Listing.
	ListKill bool
	// CountFile, if set, gets a line appended on every invocation.
	CountFile string
	// CleanupExit is the exit status of cleanup routines.
	CleanupExit int
}

var threeCases = listingOf(
	&protocol.TestCase{Name: "first", Properties: metadata.Properties{{Key: "descr", Value: "This is the description"}}},
	&protocol.TestCase{Name: "second", Properties: metadata.Properties{{Key: "timeout", Value: "500"}, {Key: "descr", Value: "Some text"}}},
	&protocol.TestCase{Name: "third"},
)

// listingOf returns the listing an ATF test program prints for cases.
func listingOf(cases ...*protocol.TestCase) string {
	var b strings.Builder
	if err := protocol.WriteTestCases(&b, cases); err != nil {
		panic(err)
	}
	return b.String()
}

// fakeMain behaves like an ATF test program. When running a test case, the
// behavior is selected by the test case name.
var fakeMain = fakeexec.NewAuxMain("fake_atf_program", func(p fakeParams) {
	if p.CountFile != "" {
		f, err := os.OpenFile(p.CountFile, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0644)
		if err != nil {
			panic(err)
		}
		fmt.Fprintln(f, strings.Join(os.Args[1:], " "))
		f.Close()
	}

	var resultsFile, name string
	for _, arg := range os.Args[1:] {
		switch {
		case arg == "-l":
			fmt.Print(p.Listing)
			if p.ListKill {
				os.Stdout.Sync()
				unix.Kill(os.Getpid(), unix.SIGKILL)
				time.Sleep(time.Minute)
			}
			os.Exit(0)
		case strings.HasPrefix(arg, "-r"):
			resultsFile = arg[2:]
		case strings.HasPrefix(arg, "-s"), strings.HasPrefix(arg, "-v"):
		default:
			name = arg
		}
	}

	writeResult := func(s string) {
		if err := os.WriteFile(resultsFile, []byte(s+"\n"), 0644); err != nil {
			panic(err)
		}
	}
	switch name {
	case "pass":
		writeResult("passed")
	case "fail":
		writeResult("failed: Some reason")
		os.Exit(1)
	case "skip":
		writeResult("skipped: Not today")
	case "expect_exit":
		writeResult("expected_exit(2): Known bug")
		os.Exit(2)
	case "expect_exit_mismatch":
		writeResult("expected_exit(2): Known bug")
		os.Exit(3)
	case "expect_timeout":
		writeResult("expected_timeout: Hangs")
		time.Sleep(time.Minute)
	case "expect_timeout_returns":
		writeResult("expected_timeout: Hangs")
	case "bad_result":
		writeResult("foo bar")
	case "passed_but_exit1":
		writeResult("passed")
		os.Exit(1)
	case "timeout":
		time.Sleep(time.Minute)
	case "crash":
		unix.Kill(os.Getpid(), unix.SIGKILL)
		time.Sleep(time.Minute)
	case "exit_plain":
		fmt.Fprintln(os.Stderr, "some noise")
		fmt.Fprintln(os.Stderr, "oops")
		os.Exit(3)
	case "noresult_pass":
	case "env":
		wd, _ := os.Getwd()
		fmt.Printf("args=%s\n", strings.Join(os.Args[1:len(os.Args)-1], " "))
		for _, k := range []string{"HOME", "TMPDIR", "TZ", "LANG", "EXTRA"} {
			fmt.Printf("%s=%s\n", k, os.Getenv(k))
		}
		fmt.Printf("wd=%s\n", wd)
		writeResult("passed")
	case "uid":
		fmt.Printf("uid=%d", os.Getuid())
		writeResult("passed")
	case "cleanup":
		fmt.Print("body;")
		writeResult("passed")
	case "cleanup:cleanup":
		fmt.Print("cleanup;")
		os.Exit(p.CleanupExit)
	default:
		writeResult("broken: unknown test case " + name)
	}
})

// fakeProgram installs the fake test program as root/relPath and returns
// options to run it with.
func fakeProgram(t *testing.T, root, relPath string, p fakeParams) []engine.Option {
	t.Helper()
	params, err := fakeMain.Params(p)
	if err != nil {
		t.Fatal(err)
	}
	if err := testutil.Symlinks(root, map[string]string{relPath: params.Executable()}); err != nil {
		t.Fatal(err)
	}
	return []engine.Option{
		engine.WithEnv(params.Envs()...),
		engine.WithGracePeriod(100 * time.Millisecond),
		engine.WithWorkDir(testutil.TempDir(t)),
	}
}

func testContext(t *testing.T) context.Context {
	return logging.AttachLogger(context.Background(), loggingtest.NewLogger(t))
}

func countLines(t *testing.T, path string) int {
	t.Helper()
	b, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return 0
	}
	if err != nil {
		t.Fatal(err)
	}
	return strings.Count(string(b), "\n")
}

func countFile(t *testing.T) string {
	return filepath.Join(testutil.TempDir(t), "count")
}
