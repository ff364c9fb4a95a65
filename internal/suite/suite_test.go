// Copyright 2026 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package suite_test

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"go.chromium.org/atfrun/internal/engine"
	"go.chromium.org/atfrun/internal/suite"
	"go.chromium.org/atfrun/testutil"
)

func ids(progs []*engine.TestProgram) []engine.ProgramID {
	var res []engine.ProgramID
	for _, p := range progs {
		res = append(res, p.ID())
	}
	return res
}

func TestLoad(t *testing.T) {
	root := testutil.TempDir(t)
	if err := testutil.WriteFiles(root, map[string]string{
		"Kyuafile.yaml": `
test_suite: top
test_programs:
  - name: foo_test
  - name: bar_test
    test_suite: other
include:
  - sub/Kyuafile.yaml
`,
		"foo_test": "",
		"bar_test": "",
		"sub/Kyuafile.yaml": `
test_suite: sub
test_programs:
  - glob: "*_test"
  - name: a_test
include:
  - ../extra.yaml
`,
		"sub/b_test":     "",
		"sub/a_test":     "",
		"sub/c_test.txt": "",
		"sub/d_test/x":   "",
		"extra.yaml": `
test_programs:
  - name: sub/deep/e_test
    test_suite: extra
`,
		"sub/deep/e_test": "",
	}); err != nil {
		t.Fatal(err)
	}

	progs, err := suite.Load(root, suite.DefaultFile)
	if err != nil {
		t.Fatal("Load failed: ", err)
	}
	want := []engine.ProgramID{
		{RelPath: "foo_test", Root: root, Suite: "top"},
		{RelPath: "bar_test", Root: root, Suite: "other"},
		{RelPath: "sub/a_test", Root: root, Suite: "sub"},
		{RelPath: "sub/b_test", Root: root, Suite: "sub"},
		{RelPath: "sub/deep/e_test", Root: root, Suite: "extra"},
	}
	if diff := cmp.Diff(ids(progs), want); diff != "" {
		t.Errorf("Load() mismatch (-got +want):\n%s", diff)
	}
}

func TestLoadGlobSkipsDefinitions(t *testing.T) {
	root := testutil.TempDir(t)
	if err := testutil.WriteFiles(root, map[string]string{
		"Kyuafile": "test_suite: s\ntest_programs:\n  - glob: '*'\ninclude:\n  - sub.yml\n",
		"sub.yml":  "test_suite: s\ntest_programs:\n  - glob: '[^K]*'\n",
		"old.yaml": "",
		"prog":     "",
	}); err != nil {
		t.Fatal(err)
	}

	progs, err := suite.Load(root, "Kyuafile")
	if err != nil {
		t.Fatal("Load failed: ", err)
	}
	want := []engine.ProgramID{{RelPath: "prog", Root: root, Suite: "s"}}
	if diff := cmp.Diff(ids(progs), want); diff != "" {
		t.Errorf("Load() mismatch (-got +want):\n%s", diff)
	}
}

func TestLoadErrors(t *testing.T) {
	for _, tc := range []struct {
		name  string
		files map[string]string
		want  string
	}{
		{"missing file", map[string]string{}, "failed to read Kyuafile.yaml"},
		{"bad yaml", map[string]string{"Kyuafile.yaml": "test_programs: 3\n"}, "failed to parse Kyuafile.yaml"},
		{"unknown key", map[string]string{"Kyuafile.yaml": "tests: []\n"}, "failed to parse Kyuafile.yaml"},
		{"missing program", map[string]string{"Kyuafile.yaml": "test_suite: s\ntest_programs:\n  - name: nope\n"}, "test program 'nope' does not exist"},
		{"no suite", map[string]string{"Kyuafile.yaml": "test_programs:\n  - name: p\n", "p": ""}, "no test suite defined for test program 'p'"},
		{"name and glob", map[string]string{"Kyuafile.yaml": "test_suite: s\ntest_programs:\n  - name: p\n    glob: '*'\n"}, "has both name and glob"},
		{"empty entry", map[string]string{"Kyuafile.yaml": "test_suite: s\ntest_programs:\n  - test_suite: x\n"}, "has neither name nor glob"},
		{"absolute include", map[string]string{"Kyuafile.yaml": "include:\n  - /etc/Kyuafile.yaml\n"}, "cannot include absolute path"},
		{"include cycle", map[string]string{"Kyuafile.yaml": "include:\n  - Kyuafile.yaml\n"}, "includes itself"},
		{"bad glob", map[string]string{"Kyuafile.yaml": "test_suite: s\ntest_programs:\n  - glob: '['\n"}, "bad glob"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			root := testutil.TempDir(t)
			if err := testutil.WriteFiles(root, tc.files); err != nil {
				t.Fatal(err)
			}
			_, err := suite.Load(root, suite.DefaultFile)
			if err == nil {
				t.Fatal("Load succeeded; want error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Errorf("Load() = %q; want it to contain %q", err, tc.want)
			}
		})
	}
}

func TestLoadPassesOptions(t *testing.T) {
	root := testutil.TempDir(t)
	if err := testutil.WriteFiles(root, map[string]string{
		"Kyuafile.yaml": "test_suite: s\ntest_programs:\n  - name: p\n",
		"p":             "not a program",
	}); err != nil {
		t.Fatal(err)
	}
	progs, err := suite.Load(root, "Kyuafile.yaml", engine.WithWorkDir(testutil.TempDir(t)))
	if err != nil {
		t.Fatal("Load failed: ", err)
	}
	if len(progs) != 1 || progs[0].RelPath() != "p" || progs[0].Suite() != "s" {
		t.Errorf("Load() = %v; want one program p in suite s", ids(progs))
	}
}
