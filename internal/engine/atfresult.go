// Copyright 2026 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package engine

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"go.chromium.org/atfrun/errors"
	"go.chromium.org/atfrun/internal/metadata"
	"go.chromium.org/atfrun/internal/process"
	"go.chromium.org/atfrun/internal/result"
)

// rawKind is a result type a test case can write to its results file.
type rawKind string

const (
	rawPassed          rawKind = "passed"
	rawFailed          rawKind = "failed"
	rawSkipped         rawKind = "skipped"
	rawBroken          rawKind = "broken"
	rawExpectedFailure rawKind = "expected_failure"
	rawExpectedDeath   rawKind = "expected_death"
	rawExpectedExit    rawKind = "expected_exit"
	rawExpectedSignal  rawKind = "expected_signal"
	rawExpectedTimeout rawKind = "expected_timeout"
)

var rawKinds = map[rawKind]struct{}{
	rawPassed: {}, rawFailed: {}, rawSkipped: {}, rawBroken: {}, rawExpectedFailure: {},
	rawExpectedDeath: {}, rawExpectedExit: {}, rawExpectedSignal: {}, rawExpectedTimeout: {},
}

// rawResult is the content of the results file of an ATF test case, e.g.
// "expected_exit(2): Known bug".
type rawResult struct {
	kind rawKind
	// hasArg is set if arg holds the expected exit code or signal number.
	hasArg bool
	arg    int
	reason string
}

// parseRawResult parses the single line of a results file.
func parseRawResult(s string) (*rawResult, error) {
	line := strings.TrimSuffix(s, "\n")
	if line == "" {
		return nil, errors.Format("Empty test result or no new line")
	}
	if strings.Contains(line, "\n") {
		return nil, errors.Formatf("Test result contains multiple lines: %s", line)
	}

	head, reason, hasReason := strings.Cut(line, ": ")
	r := &rawResult{reason: reason}
	if i := strings.IndexByte(head, '('); i >= 0 {
		if !strings.HasSuffix(head, ")") {
			return nil, errors.Formatf("Invalid test result '%s': unterminated argument", line)
		}
		arg := head[i+1 : len(head)-1]
		n, err := strconv.Atoi(arg)
		if err != nil {
			return nil, errors.Formatf("Invalid test result '%s': bad argument '%s'", line, arg)
		}
		r.hasArg, r.arg = true, n
		head = head[:i]
	}
	r.kind = rawKind(head)
	if _, ok := rawKinds[r.kind]; !ok {
		return nil, errors.Formatf("Unknown test result '%s'", head)
	}
	if r.hasArg && r.kind != rawExpectedExit && r.kind != rawExpectedSignal {
		return nil, errors.Formatf("%s cannot have an argument", r.kind)
	}
	switch {
	case r.kind == rawPassed && hasReason:
		return nil, errors.Formatf("%s cannot have a reason", r.kind)
	case r.kind != rawPassed && (!hasReason || strings.TrimSpace(reason) == ""):
		return nil, errors.Formatf("%s must be followed by a reason", r.kind)
	}
	return r, nil
}

// readRawResult reads the results file at path. It returns nil without an
// error if the file does not exist.
func readRawResult(path string) (*rawResult, error) {
	b, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "Failed to read results file")
	}
	return parseRawResult(string(b))
}

// apply checks r against how the body actually terminated.
func (r *rawResult) apply(st *process.Status) result.Result {
	switch r.kind {
	case rawPassed:
		if st.Success() {
			return result.Pass()
		}
		return result.Break("Passed test case should have reported success but " + st.String())
	case rawFailed:
		if st.Exited && st.ExitCode == 1 {
			return result.Fail(r.reason)
		}
		return result.Break("Failed test case should have reported failure but " + st.String())
	case rawSkipped:
		if st.Success() {
			return result.Skip(r.reason)
		}
		return result.Break("Skipped test case should have reported success but " + st.String())
	case rawBroken:
		return result.Break(r.reason)
	case rawExpectedFailure:
		if st.Success() {
			return result.ExpectFailure(r.reason)
		}
		return result.Break("Expected failure should have reported success but " + st.String())
	case rawExpectedDeath:
		return result.ExpectFailure(r.reason)
	case rawExpectedExit:
		if !st.Exited {
			return result.Break("Expected clean exit but " + st.String())
		}
		if r.hasArg && st.ExitCode != r.arg {
			return result.Fail(fmt.Sprintf("Expected clean exit with code %d but got code %d", r.arg, st.ExitCode))
		}
		return result.ExpectFailure(r.reason)
	case rawExpectedSignal:
		if !st.Signaled {
			return result.Break("Expected signal but " + st.String())
		}
		if r.hasArg && int(st.Signal) != r.arg {
			return result.Fail(fmt.Sprintf("Expected signal %d but got %d", r.arg, int(st.Signal)))
		}
		return result.ExpectFailure(r.reason)
	case rawExpectedTimeout:
		return result.Fail(expectedHangReason)
	default:
		return result.Break(fmt.Sprintf("Unknown test result '%s'", r.kind))
	}
}

const expectedHangReason = "Test case was expected to hang but it continued execution"

// classify maps the termination of a test case body to a result. raw is the
// parsed results file, or nil if the test case did not write one.
func classify(res *process.Result, timeout time.Duration, raw *rawResult, exp metadata.Expectation) result.Result {
	if res.Outcome == process.TimedOut {
		switch {
		case raw != nil && raw.kind == rawExpectedTimeout:
			return result.ExpectFailure(raw.reason)
		case raw == nil && exp.Kind == metadata.ExpectTimeout:
			return result.ExpectFailure(expectationReason(exp))
		}
		return result.Break(fmt.Sprintf("Test case timed out after %ds", int(timeout/time.Second)))
	}
	if raw != nil {
		return raw.apply(res.Status)
	}
	return applyExpectation(exp, res.Status, res.Stderr)
}

// applyExpectation classifies a body that wrote no results file according to
// the expected_result metadata.
func applyExpectation(exp metadata.Expectation, st *process.Status, stderr []byte) result.Result {
	switch exp.Kind {
	case metadata.ExpectPass:
		switch {
		case st.Success():
			return result.Pass()
		case st.Exited:
			reason := fmt.Sprintf("Returned non-success exit status %d", st.ExitCode)
			if line := lastLine(stderr); line != "" {
				reason += ": " + line
			}
			return result.Fail(reason)
		case st.CoreDumped:
			return result.Fail(fmt.Sprintf("Received signal %d (core dumped)", int(st.Signal)))
		default:
			return result.Fail(fmt.Sprintf("Received signal %d", int(st.Signal)))
		}
	case metadata.ExpectFail, metadata.ExpectDeath:
		if !st.Success() {
			return result.ExpectFailure(expectationReason(exp))
		}
		return result.Fail(fmt.Sprintf("Test case was expected to %s but it succeeded", verbOf(exp.Kind)))
	case metadata.ExpectExit:
		if st.Exited && (!exp.HasArg || st.ExitCode == exp.Arg) {
			return result.ExpectFailure(expectationReason(exp))
		}
		return result.Fail(fmt.Sprintf("Test case was expected to %s but it %s", describeExpectation(exp), st))
	case metadata.ExpectSignal:
		if st.Signaled && (!exp.HasArg || int(st.Signal) == exp.Arg) {
			return result.ExpectFailure(expectationReason(exp))
		}
		return result.Fail(fmt.Sprintf("Test case was expected to %s but it %s", describeExpectation(exp), st))
	case metadata.ExpectTimeout:
		return result.Fail(expectedHangReason)
	default:
		return result.Break(fmt.Sprintf("Unknown expected result '%s'", exp.Kind))
	}
}

func verbOf(k metadata.ExpectKind) string {
	if k == metadata.ExpectDeath {
		return "die"
	}
	return "fail"
}

func describeExpectation(exp metadata.Expectation) string {
	switch {
	case exp.Kind == metadata.ExpectExit && exp.HasArg:
		return fmt.Sprintf("exit with code %d", exp.Arg)
	case exp.Kind == metadata.ExpectExit:
		return "exit cleanly"
	case exp.HasArg:
		return fmt.Sprintf("receive signal %d", exp.Arg)
	default:
		return "receive a signal"
	}
}

// expectationReason returns the reason of an expected failure declared in
// metadata.
func expectationReason(exp metadata.Expectation) string {
	if exp.Reason != "" {
		return exp.Reason
	}
	return fmt.Sprintf("Test case matched its expected result '%s'", exp)
}
