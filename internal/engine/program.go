// Copyright 2026 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package engine

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"go.chromium.org/atfrun/errors"
	"go.chromium.org/atfrun/internal/logging"
	"go.chromium.org/atfrun/internal/process"
	"go.chromium.org/atfrun/internal/protocol"
)

// TestProgram is an executable exposing test cases through the ATF protocol.
type TestProgram struct {
	id   ProgramID
	opts *options

	once  sync.Once
	cases []*TestCase
}

// NewTestProgram returns the test program at relPath under root, belonging
// to suite. Nothing is executed until TestCases is called.
func NewTestProgram(relPath, root, suite string, opts ...Option) *TestProgram {
	return &TestProgram{
		id:   ProgramID{RelPath: relPath, Root: root, Suite: suite},
		opts: newOptions(opts),
	}
}

// ID returns the identity of p.
func (p *TestProgram) ID() ProgramID { return p.id }

// RelPath returns the path of the executable relative to the root.
func (p *TestProgram) RelPath() string { return p.id.RelPath }

// Root returns the root directory of the test suite.
func (p *TestProgram) Root() string { return p.id.Root }

// Suite returns the name of the test suite.
func (p *TestProgram) Suite() string { return p.id.Suite }

// TestCases returns the test cases of p, listing them on the first call.
// If they cannot be listed, the only test case is one for which
// IsListingFailure is true. The result of the first call is returned to all
// later and concurrent callers.
func (p *TestProgram) TestCases(ctx context.Context) []*TestCase {
	p.once.Do(func() {
		p.cases = p.list(ctx)
	})
	return p.cases
}

func (p *TestProgram) list(ctx context.Context) []*TestCase {
	ctx = logging.WithPrefix(ctx, fmt.Sprintf("[%s] ", p.id.RelPath))
	cases, err := p.listOrError(ctx)
	if err != nil {
		logging.Infof(ctx, "Failed to list test cases: %v", err)
		p.opts.metrics.ListingFailure(p.id.Suite)
		return []*TestCase{newListingFailure(p.id, err.Error())}
	}
	logging.Debugf(ctx, "Listed %d test cases", len(cases))
	return cases
}

// listOrError returns the listed test cases. Its errors are messages for the
// broken result of the listing failure.
func (p *TestProgram) listOrError(ctx context.Context) ([]*TestCase, error) {
	path, err := p.id.AbsPath()
	if err != nil {
		return nil, errors.Wrapf(err, "Failed to execute %s", p.id.RelPath)
	}
	workDir, err := os.MkdirTemp(p.opts.workDir, "atfrun.list.")
	if err != nil {
		return nil, errors.Wrap(err, "Failed to create work directory")
	}
	defer os.RemoveAll(workDir)

	res, err := p.opts.runner.Run(ctx, &process.Command{
		Path:    path,
		Args:    []string{"-l"},
		Dir:     workDir,
		Env:     isolatedEnv(workDir, p.opts.env),
		Timeout: p.opts.listTimeout,
	})
	if err != nil {
		if errors.IsExec(err) {
			return nil, errors.Errorf("Failed to execute %s: %v", path, errors.Unwrap(err))
		}
		return nil, err
	}
	switch {
	case res.Outcome == process.TimedOut:
		return nil, errors.Errorf("Test program did not exit cleanly; timed out after %v", p.opts.listTimeout)
	case !res.Status.Success():
		msg := "Test program did not exit cleanly; " + res.Status.String()
		if line := lastLine(res.Stderr); line != "" {
			msg += ": " + line
		}
		return nil, errors.New(msg)
	}

	parsed, err := protocol.ParseTestCases(bytes.NewReader(res.Stdout))
	if err != nil {
		return nil, err
	}
	cases := make([]*TestCase, len(parsed))
	for i, pc := range parsed {
		tc, err := NewTestCase(pc.Name, p.id, pc.Metadata)
		if err != nil {
			return nil, err
		}
		cases[i] = tc
	}
	return cases, nil
}

// lastLine returns the last non-empty line of out, trimmed.
func lastLine(out []byte) string {
	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	return strings.TrimSpace(lines[len(lines)-1])
}
