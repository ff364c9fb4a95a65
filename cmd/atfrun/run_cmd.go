// Copyright 2026 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/google/subcommands"
	"golang.org/x/term"

	"go.chromium.org/atfrun/internal/config"
	"go.chromium.org/atfrun/internal/engine"
	"go.chromium.org/atfrun/internal/logging"
	"go.chromium.org/atfrun/internal/metrics"
	"go.chromium.org/atfrun/internal/result"
)

// runCmd implements subcommands.Command to support running test cases.
type runCmd struct {
	disc        discoveryFlags
	configPath  string          // YAML configuration file; empty for none
	metricsFile string          // file to write metrics to; empty for none
	opts        []engine.Option // can be set by tests to customize test programs
	stdout      io.Writer       // where to write results
	color       bool            // color results; set if stdout is a terminal
}

var _ = subcommands.Command(&runCmd{})

func newRunCmd(stdout io.Writer) *runCmd {
	cmd := &runCmd{stdout: stdout}
	if f, ok := stdout.(*os.File); ok {
		cmd.color = term.IsTerminal(int(f.Fd()))
	}
	return cmd
}

func (*runCmd) Name() string     { return "run" }
func (*runCmd) Synopsis() string { return "run test cases" }
func (*runCmd) Usage() string {
	return `Usage: run [flag]... [filter]...

Description:
    Runs the test cases of the test programs declared in the suite
    definition file, one at a time, and prints their results.
    Exits with 1 if any test case failed or was broken.

Filter:
    See "atfrun help list".

Flag:
`
}

func (rc *runCmd) SetFlags(f *flag.FlagSet) {
	rc.disc.SetFlags(f)
	f.StringVar(&rc.configPath, "config", "", "YAML file with configuration variables")
	f.StringVar(&rc.metricsFile, "metrics_file", "", "file to write metrics to in the Prometheus text format")
}

func (rc *runCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	filters, err := parseFilters(f.Args())
	if err != nil {
		logging.Info(ctx, err)
		return subcommands.ExitUsageError
	}
	cfg := config.Empty()
	if rc.configPath != "" {
		if cfg, err = config.Load(rc.configPath); err != nil {
			logging.Info(ctx, "Failed to load configuration: ", err)
			return subcommands.ExitUsageError
		}
	}

	rec := metrics.NewRecorder()
	opts := append([]engine.Option{engine.WithMetrics(rec)}, rc.opts...)
	cases, err := discover(ctx, &rc.disc, filters, opts)
	if err != nil {
		logging.Info(ctx, "Failed to discover test cases: ", err)
		return subcommands.ExitFailure
	}

	rep := newReporter(rc.stdout, rc.color)
	exec := engine.NewExecutor(opts...)
	for _, tc := range cases {
		if ctx.Err() != nil {
			logging.Info(ctx, "Interrupted; not running remaining test cases")
			break
		}
		exec.Run(ctx, tc, cfg, rep)
	}
	rep.summarize()

	if rc.metricsFile != "" {
		if err := rec.WriteTextfile(rc.metricsFile); err != nil {
			logging.Info(ctx, err)
			return subcommands.ExitFailure
		}
	}
	if rep.bad > 0 || len(unusedFilters(filters)) > 0 || ctx.Err() != nil {
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

// reporter prints results as test cases finish.
type reporter struct {
	w      io.Writer
	colors map[result.Type]*color.Color
	counts map[result.Type]int
	total  int
	bad    int // results that are not good
}

var _ engine.Hooks = (*reporter)(nil)

func newReporter(w io.Writer, useColor bool) *reporter {
	colors := map[result.Type]*color.Color{
		result.Passed:          color.New(color.FgGreen),
		result.Failed:          color.New(color.FgRed, color.Bold),
		result.Skipped:         color.New(color.FgYellow),
		result.ExpectedFailure: color.New(color.FgCyan),
		result.Broken:          color.New(color.FgMagenta, color.Bold),
	}
	for _, c := range colors {
		if useColor {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return &reporter{w: w, colors: colors, counts: map[result.Type]int{}}
}

func (r *reporter) Start(ctx context.Context, tc *engine.TestCase) {
	logging.Debugf(ctx, "Running %v", tc)
}

func (r *reporter) Finish(ctx context.Context, tc *engine.TestCase, out *engine.Output) {
	r.total++
	r.counts[out.Result.Type()]++
	if !out.Result.Good() {
		r.bad++
	}
	fmt.Fprintf(r.w, "%v  ->  %s  [%.3fs]\n", tc, r.colors[out.Result.Type()].Sprint(out.Result), out.WallTime.Seconds())
}

// summarize prints the number of results of each type.
func (r *reporter) summarize() {
	var parts []string
	for _, t := range []result.Type{result.Passed, result.Failed, result.Skipped, result.ExpectedFailure, result.Broken} {
		if n := r.counts[t]; n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", n, t))
		}
	}
	summary := "no test cases"
	if len(parts) > 0 {
		summary = strings.Join(parts, ", ")
	}
	fmt.Fprintf(r.w, "\n%d test cases run: %s\n", r.total, summary)
}
