// Copyright 2026 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package main

import (
	"context"
	"flag"
	"fmt"
	"io"

	"github.com/google/subcommands"

	"go.chromium.org/atfrun/internal/engine"
	"go.chromium.org/atfrun/internal/logging"
)

// listCmd implements subcommands.Command to support listing test cases.
type listCmd struct {
	disc    discoveryFlags
	verbose bool            // print metadata of each test case
	opts    []engine.Option // can be set by tests to customize test programs
	stdout  io.Writer       // where to write test cases
}

var _ = subcommands.Command(&listCmd{})

// newListCmd returns a new listCmd that will write test cases to stdout.
func newListCmd(stdout io.Writer) *listCmd {
	return &listCmd{stdout: stdout}
}

func (*listCmd) Name() string     { return "list" }
func (*listCmd) Synopsis() string { return "list test cases" }
func (*listCmd) Usage() string {
	return `Usage: list [flag]... [filter]...

Description:
    Lists the test cases of the test programs declared in the suite
    definition file.

Filter:
    Filters are either a test program path relative to the root, a
    directory holding test programs, or "program:pattern" where pattern
    is a glob matching test case names. Example:

        $ atfrun list -root /usr/tests 'bin/cp_test' 'bin/ls_test:*symlink*'

Flag:
`
}

func (lc *listCmd) SetFlags(f *flag.FlagSet) {
	lc.disc.SetFlags(f)
	f.BoolVar(&lc.verbose, "v", false, "print test suites and metadata")
}

func (lc *listCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	filters, err := parseFilters(f.Args())
	if err != nil {
		logging.Info(ctx, err)
		return subcommands.ExitUsageError
	}
	cases, err := discover(ctx, &lc.disc, filters, lc.opts)
	if err != nil {
		logging.Info(ctx, "Failed to discover test cases: ", err)
		return subcommands.ExitFailure
	}
	if err := lc.printTestCases(cases); err != nil {
		logging.Info(ctx, "Failed to write test cases: ", err)
		return subcommands.ExitFailure
	}
	if len(unusedFilters(filters)) > 0 {
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

// printTestCases writes the supplied test cases to lc.stdout.
func (lc *listCmd) printTestCases(cases []*engine.TestCase) error {
	for _, tc := range cases {
		if !lc.verbose {
			if _, err := fmt.Fprintln(lc.stdout, tc); err != nil {
				return err
			}
			continue
		}
		if _, err := fmt.Fprintf(lc.stdout, "%v (%s)\n", tc, tc.Program().Suite); err != nil {
			return err
		}
		for _, prop := range tc.Metadata().ToProperties() {
			if _, err := fmt.Fprintf(lc.stdout, "    %s = %s\n", prop.Key, prop.Value); err != nil {
				return err
			}
		}
	}
	return nil
}
