// Copyright 2026 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package engine

import "os"

const defaultPath = "/usr/bin:/bin:/usr/sbin:/sbin"

// isolatedEnv returns the environment test programs run with. Only PATH is
// taken from the current process; extra is appended and wins over the
// defaults.
func isolatedEnv(workDir string, extra []string) []string {
	path := os.Getenv("PATH")
	if path == "" {
		path = defaultPath
	}
	env := []string{
		"PATH=" + path,
		"HOME=" + workDir,
		"TMPDIR=" + workDir,
		"TZ=UTC",
		"LANG=C",
	}
	return append(env, extra...)
}
