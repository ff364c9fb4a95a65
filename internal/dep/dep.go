// Copyright 2026 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package dep checks the requirements test cases declare against the
// machine and configuration they are about to run with.
package dep

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/shirou/gopsutil/v3/host"
	"golang.org/x/exp/slices"

	"go.chromium.org/atfrun/internal/config"
	"go.chromium.org/atfrun/internal/metadata"
)

// unprivilegedUserVar is the name under which test cases require the
// unprivileged_user configuration variable.
const unprivilegedUserVar = "unprivileged-user"

// Features conveys actual values requirements are checked against.
type Features struct {
	// Config is the user configuration. Suite selects the test_suites.<suite>
	// variables that required_config refers to.
	Config *config.Config
	Suite  string

	Arch     string
	Platform string
	// UID is the effective user ID test cases run as.
	UID int
	// Path is the search list for required programs, in PATH syntax.
	Path string
	// Root is the directory required files are relative to.
	Root string
}

// HostFeatures returns the features of the current machine. The architecture
// and platform may be overridden by the configuration.
func HostFeatures(cfg *config.Config, suite, root string) *Features {
	arch := cfg.Architecture()
	if arch == "" {
		arch, _ = host.KernelArch()
	}
	if arch == "" {
		arch = runtime.GOARCH
	}
	platform := cfg.Platform()
	if platform == "" {
		platform = runtime.GOARCH
	}
	return &Features{
		Config:   cfg,
		Suite:    suite,
		Arch:     arch,
		Platform: platform,
		UID:      os.Geteuid(),
		Path:     os.Getenv("PATH"),
		Root:     root,
	}
}

// Deps contains the requirements of a test case.
type Deps struct {
	Config   []string
	Programs []string
	Files    []string
	User     metadata.User
	Arch     []string
	Platform []string
}

// FromMetadata extracts the requirements declared in md.
func FromMetadata(md *metadata.Metadata) *Deps {
	return &Deps{
		Config:   md.RequiredConfig(),
		Programs: md.RequiredPrograms(),
		Files:    md.RequiredFiles(),
		User:     md.RequiredUser(),
		Arch:     md.RequiredArch(),
		Platform: md.RequiredPlatform(),
	}
}

// CheckResult represents the result of the check whether to run a test case.
type CheckResult struct {
	// SkipReasons describes every unmet requirement, in checking order.
	SkipReasons []string
}

// OK returns whether to run the test case.
func (r *CheckResult) OK() bool {
	return len(r.SkipReasons) == 0
}

// Check returns whether d is satisfied on f.
func (d *Deps) Check(f *Features) *CheckResult {
	cfg := f.Config
	if cfg == nil {
		cfg = config.Empty()
	}

	var reasons []string
	for _, v := range d.Config {
		var ok bool
		if v == unprivilegedUserVar {
			_, ok = cfg.UnprivilegedUser()
		} else {
			_, ok = cfg.Lookup("test_suites." + f.Suite + "." + v)
		}
		if !ok {
			reasons = append(reasons, fmt.Sprintf("Required configuration property '%s' not defined", v))
		}
	}
	for _, p := range d.Programs {
		if !findProgram(p, f.Path) {
			reasons = append(reasons, fmt.Sprintf("Required program '%s' not found in PATH", p))
		}
	}
	for _, p := range d.Files {
		if _, err := os.Stat(filepath.Join(f.Root, p)); err != nil {
			reasons = append(reasons, fmt.Sprintf("Required file '%s' not found", p))
		}
	}
	switch d.User {
	case metadata.UserRoot:
		if f.UID != 0 {
			reasons = append(reasons, "Requires root privileges")
		}
	case metadata.UserUnprivileged:
		if _, ok := cfg.UnprivilegedUser(); f.UID == 0 && !ok {
			reasons = append(reasons, "Requires an unprivileged user but the unprivileged-user configuration variable is not defined")
		}
	}
	if len(d.Arch) > 0 && !slices.Contains(d.Arch, f.Arch) {
		reasons = append(reasons, fmt.Sprintf("Current architecture '%s' not supported", f.Arch))
	}
	if len(d.Platform) > 0 && !slices.Contains(d.Platform, f.Platform) {
		reasons = append(reasons, fmt.Sprintf("Current platform '%s' not supported", f.Platform))
	}
	return &CheckResult{SkipReasons: reasons}
}

// findProgram reports whether an executable regular file called name exists
// in one of the directories of path.
func findProgram(name, path string) bool {
	for _, dir := range filepath.SplitList(path) {
		if dir == "" {
			continue
		}
		fi, err := os.Stat(filepath.Join(dir, name))
		if err == nil && fi.Mode().IsRegular() && fi.Mode().Perm()&0111 != 0 {
			return true
		}
	}
	return false
}
