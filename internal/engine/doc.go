// Copyright 2026 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package engine discovers the test cases of ATF test programs and runs them
// one at a time.
//
// A TestProgram lists its test cases by running the executable with -l.
// Listing failures do not surface as errors: the program then has a single
// test case, named ListingFailureName, whose execution yields a broken
// result explaining the failure. Every problem of a test program thus
// reaches callers through the same result reporting path.
//
// An Executor runs a TestCase in a private work directory with an isolated
// environment, after checking the requirements declared in its metadata,
// and classifies the outcome into a result.Result.
package engine
