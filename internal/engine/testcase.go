// Copyright 2026 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package engine

import (
	"golang.org/x/exp/slices"

	"go.chromium.org/atfrun/errors"
	"go.chromium.org/atfrun/internal/metadata"
	"go.chromium.org/atfrun/internal/process"
	"go.chromium.org/atfrun/internal/protocol"
	"go.chromium.org/atfrun/internal/result"
)

// ListingFailureName is the name of the test case that stands for a test
// program whose test cases could not be listed.
const ListingFailureName = "__test_cases_list__"

// ProgramID identifies a test program.
type ProgramID struct {
	// RelPath is the path of the executable relative to Root.
	RelPath string
	Root    string
	Suite   string
}

// AbsPath returns the absolute path of the executable.
func (id ProgramID) AbsPath() (string, error) {
	return process.Resolve(id.Root, id.RelPath)
}

// TestCase is an immutable test case of a test program.
type TestCase struct {
	name    string
	program ProgramID
	md      *metadata.Metadata
	// listing is set for the test case standing for a listing failure.
	listing *result.Result
}

// NewTestCase returns a test case called name of program.
func NewTestCase(name string, program ProgramID, md *metadata.Metadata) (*TestCase, error) {
	if !protocol.ValidName(name) {
		return nil, errors.Formatf("Invalid test case name '%s'", name)
	}
	if md == nil {
		md = metadata.Default()
	}
	return &TestCase{name: name, program: program, md: md}, nil
}

func newListingFailure(program ProgramID, reason string) *TestCase {
	r := result.Break(reason)
	return &TestCase{name: ListingFailureName, program: program, md: metadata.Default(), listing: &r}
}

// Name returns the name of the test case.
func (tc *TestCase) Name() string { return tc.name }

// Program returns the identity of the test program the test case belongs to.
func (tc *TestCase) Program() ProgramID { return tc.program }

// Metadata returns the metadata of the test case.
func (tc *TestCase) Metadata() *metadata.Metadata { return tc.md }

// IsListingFailure reports whether tc stands for a failure to list the test
// cases of its program. Running it yields the broken result of the failure.
func (tc *TestCase) IsListingFailure() bool { return tc.listing != nil }

// String returns "<program>:<name>".
func (tc *TestCase) String() string {
	return tc.program.RelPath + ":" + tc.name
}

// Equal reports whether tc and other have the same name and metadata.
func (tc *TestCase) Equal(other *TestCase) bool {
	if tc == nil || other == nil {
		return tc == other
	}
	return tc.name == other.name && slices.Equal(tc.md.ToProperties(), other.md.ToProperties())
}
