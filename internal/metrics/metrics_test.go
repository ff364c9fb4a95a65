// Copyright 2026 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package metrics_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"go.chromium.org/atfrun/internal/metrics"
	"go.chromium.org/atfrun/internal/result"
	fileutil "go.chromium.org/atfrun/testutil"
)

func TestResultCounts(t *testing.T) {
	r := metrics.NewRecorder()
	r.ObserveResult("a", result.Passed, time.Second)
	r.ObserveResult("b", result.Passed, time.Second)
	r.ObserveResult("a", result.Broken, time.Millisecond)
	r.ListingFailure("a")

	got, err := r.ResultCounts()
	if err != nil {
		t.Fatal(err)
	}
	want := map[result.Type]int{result.Passed: 2, result.Broken: 1}
	if diff := cmp.Diff(got, want); diff != "" {
		t.Errorf("ResultCounts() mismatch (-got +want):\n%s", diff)
	}

	const expected = `
# HELP atfrun_listing_failures_total Number of test programs whose test cases could not be listed
# TYPE atfrun_listing_failures_total counter
atfrun_listing_failures_total{suite="a"} 1
`
	if err := testutil.GatherAndCompare(r.Registry(), strings.NewReader(expected), "atfrun_listing_failures_total"); err != nil {
		t.Error(err)
	}
}

func TestNilRecorder(t *testing.T) {
	var r *metrics.Recorder
	r.ObserveResult("a", result.Passed, time.Second)
	r.ListingFailure("a")
	if counts, err := r.ResultCounts(); err != nil || len(counts) != 0 {
		t.Errorf("ResultCounts() = %v, %v; want empty", counts, err)
	}
	if err := r.WriteTextfile("/nonexistent/file"); err != nil {
		t.Error("WriteTextfile failed on nil recorder: ", err)
	}
}

func TestWriteTextfile(t *testing.T) {
	td := fileutil.TempDir(t)
	path := filepath.Join(td, "atfrun.prom")

	r := metrics.NewRecorder()
	r.ObserveResult("suite", result.Failed, 2*time.Second)
	if err := r.WriteTextfile(path); err != nil {
		t.Fatal(err)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	const want = `atfrun_test_case_results_total{result="failed",suite="suite"} 1`
	if !strings.Contains(string(b), want) {
		t.Errorf("Textfile does not contain %q:\n%s", want, b)
	}
}
