// Copyright 2026 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package main

import (
	"context"
	"flag"
	"path"
	"runtime"
	"strings"

	"golang.org/x/sync/errgroup"

	"go.chromium.org/atfrun/errors"
	"go.chromium.org/atfrun/internal/engine"
	"go.chromium.org/atfrun/internal/logging"
	"go.chromium.org/atfrun/internal/suite"
)

// discoveryFlags holds the flags selecting test programs, shared by all
// subcommands.
type discoveryFlags struct {
	root     string // directory holding the test programs
	kyuafile string // suite definition file, relative to root
}

func (d *discoveryFlags) SetFlags(f *flag.FlagSet) {
	f.StringVar(&d.root, "root", ".", "directory holding the test programs")
	f.StringVar(&d.kyuafile, "kyuafile", suite.DefaultFile, "suite definition file, relative to -root")
}

// filter selects test cases. An empty glob selects every test case of the
// program.
type filter struct {
	program string
	glob    string
	used    bool
}

// parseFilters parses "program[:glob]" arguments.
func parseFilters(args []string) ([]*filter, error) {
	var fs []*filter
	for _, arg := range args {
		prog, glob, hasGlob := strings.Cut(arg, ":")
		prog = path.Clean(prog)
		if prog == "." || path.IsAbs(prog) || strings.HasPrefix(prog, "../") {
			return nil, errors.Errorf("invalid filter %q; want a program path relative to the root", arg)
		}
		if hasGlob {
			if glob == "" {
				return nil, errors.Errorf("invalid filter %q; empty test case pattern", arg)
			}
			if _, err := path.Match(glob, ""); err != nil {
				return nil, errors.Wrapf(err, "invalid filter %q", arg)
			}
		}
		fs = append(fs, &filter{program: prog, glob: glob})
	}
	return fs, nil
}

// matchesProgram reports whether f selects relPath, which is either the
// program itself or a program under the directory f names.
func (f *filter) matchesProgram(relPath string) bool {
	relPath = path.Clean(relPath)
	if f.glob != "" {
		return relPath == f.program
	}
	return relPath == f.program || strings.HasPrefix(relPath, f.program+"/")
}

func (f *filter) matches(tc *engine.TestCase) bool {
	if !f.matchesProgram(tc.Program().RelPath) {
		return false
	}
	if f.glob == "" || tc.IsListingFailure() {
		return true
	}
	ok, _ := path.Match(f.glob, tc.Name())
	return ok
}

func (f *filter) String() string {
	if f.glob == "" {
		return f.program
	}
	return f.program + ":" + f.glob
}

// discover loads the suite definition and lists the test cases of the
// programs matched by filters, listing programs concurrently. Every test
// case is returned if filters is empty.
func discover(ctx context.Context, d *discoveryFlags, filters []*filter, opts []engine.Option) ([]*engine.TestCase, error) {
	progs, err := suite.Load(d.root, d.kyuafile, opts...)
	if err != nil {
		return nil, err
	}
	var selected []*engine.TestProgram
	for _, p := range progs {
		if len(filters) == 0 {
			selected = append(selected, p)
			continue
		}
		for _, f := range filters {
			if f.matchesProgram(p.RelPath()) {
				selected = append(selected, p)
				break
			}
		}
	}

	lists := make([][]*engine.TestCase, len(selected))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for i, p := range selected {
		i, p := i, p
		g.Go(func() error {
			lists[i] = p.TestCases(gctx)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var cases []*engine.TestCase
	for _, list := range lists {
		for _, tc := range list {
			if len(filters) == 0 {
				cases = append(cases, tc)
				continue
			}
			matched := false
			for _, f := range filters {
				if f.matches(tc) {
					f.used = true
					matched = true
				}
			}
			if matched {
				cases = append(cases, tc)
			}
		}
	}
	for _, f := range filters {
		if !f.used {
			logging.Infof(ctx, "No test cases matched filter %v", f)
		}
	}
	return cases, nil
}

// unusedFilters returns the filters that matched nothing in the last
// discover call.
func unusedFilters(filters []*filter) []*filter {
	var res []*filter
	for _, f := range filters {
		if !f.used {
			res = append(res, f)
		}
	}
	return res
}
