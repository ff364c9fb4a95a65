// Copyright 2026 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package testutil provides support code for unit tests.
package testutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// TempDir creates a temporary directory prefixed by "atfrun_unittest_[TestName]."
// and removes it when the test finishes. The returned path has symlinks
// resolved so that it compares equal to paths reported by subprocesses.
// If the directory cannot be created, a fatal error is reported to t.
func TempDir(t *testing.T) string {
	t.Helper()
	// Subtests have slashes in their name.
	name := strings.ReplaceAll(t.Name(), "/", "_")
	td, err := os.MkdirTemp("", "atfrun_unittest_"+name+".")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.RemoveAll(td) })
	td, err = filepath.EvalSymlinks(td)
	if err != nil {
		t.Fatal(err)
	}
	return td
}

// WriteFiles creates and writes files (keys are relative filenames,
// values are contents) within dir.
func WriteFiles(dir string, files map[string]string) error {
	for fn, c := range files {
		p := filepath.Join(dir, fn)
		if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
			return err
		}
		if err := os.WriteFile(p, []byte(c), 0644); err != nil {
			return err
		}
	}
	return nil
}

// Symlinks creates symbolic links within dir. Keys are relative link names
// and values are link targets, which are stored verbatim.
func Symlinks(dir string, links map[string]string) error {
	for fn, target := range links {
		p := filepath.Join(dir, fn)
		if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
			return err
		}
		if err := os.Symlink(target, p); err != nil {
			return err
		}
	}
	return nil
}

// Chdir changes the working directory to dir until the test finishes.
// Tests calling it must not run in parallel.
func Chdir(t *testing.T, dir string) {
	t.Helper()
	orig, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(orig); err != nil {
			t.Error("Failed to restore working directory: ", err)
		}
	})
}
