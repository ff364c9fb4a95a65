// Copyright 2026 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package suite loads suite definition files, which declare the test
// programs under a directory tree and the test suites they belong to.
//
// A definition file looks like this:
//
//	test_suite: default-suite
//	test_programs:
//	  - name: foo_test
//	  - name: bar_test
//	    test_suite: other
//	  - glob: "*_test"
//	include:
//	  - subdir/Kyuafile.yaml
//
// Program names, globs and includes are relative to the directory of the
// file declaring them.
package suite

import (
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v2"

	"go.chromium.org/atfrun/errors"
	"go.chromium.org/atfrun/internal/engine"
	"go.chromium.org/atfrun/internal/fsquery"
)

// DefaultFile is the conventional name of a suite definition file.
const DefaultFile = "Kyuafile.yaml"

type definition struct {
	TestSuite    string         `yaml:"test_suite"`
	TestPrograms []programEntry `yaml:"test_programs"`
	Include      []string       `yaml:"include"`
}

type programEntry struct {
	Name      string `yaml:"name"`
	Glob      string `yaml:"glob"`
	TestSuite string `yaml:"test_suite"`
}

type loader struct {
	root     string
	opts     []engine.Option
	visiting map[string]bool
	seen     map[string]bool
	progs    []*engine.TestProgram
}

// Load reads the definition file at file, relative to root, and the files it
// includes. The returned programs are in declaration order; opts are passed
// to every program.
func Load(root, file string, opts ...engine.Option) ([]*engine.TestProgram, error) {
	if filepath.IsAbs(file) {
		return nil, errors.Errorf("suite definition file %s must be relative to the root", file)
	}
	l := &loader{
		root:     root,
		opts:     opts,
		visiting: map[string]bool{},
		seen:     map[string]bool{},
	}
	if err := l.load(filepath.Clean(file)); err != nil {
		return nil, err
	}
	return l.progs, nil
}

func (l *loader) load(file string) error {
	if l.visiting[file] {
		return errors.Errorf("%s includes itself", file)
	}
	l.visiting[file] = true
	defer delete(l.visiting, file)

	b, err := os.ReadFile(filepath.Join(l.root, file))
	if err != nil {
		return errors.Wrapf(err, "failed to read %s", file)
	}
	var def definition
	if err := yaml.UnmarshalStrict(b, &def); err != nil {
		return errors.Wrapf(err, "failed to parse %s", file)
	}

	dir := filepath.Dir(file)
	absDir := filepath.Join(l.root, dir)
	fs := fsquery.New(absDir)
	for i, ent := range def.TestPrograms {
		suite := ent.TestSuite
		if suite == "" {
			suite = def.TestSuite
		}
		var names []string
		switch {
		case ent.Name != "" && ent.Glob != "":
			return errors.Errorf("%s: test program %d has both name and glob", file, i)
		case ent.Name != "":
			if ok, err := fs.Exists(ent.Name); err != nil {
				return errors.Wrapf(err, "%s", file)
			} else if !ok {
				return errors.Errorf("%s: test program '%s' does not exist", file, ent.Name)
			}
			names = []string{ent.Name}
		case ent.Glob != "":
			if names, err = glob(fs, absDir, ent.Glob, filepath.Base(file)); err != nil {
				return errors.Wrapf(err, "%s", file)
			}
		default:
			return errors.Errorf("%s: test program %d has neither name nor glob", file, i)
		}
		for _, name := range names {
			if err := l.add(fs, dir, name, suite, file); err != nil {
				return err
			}
		}
	}

	for _, inc := range def.Include {
		if abs, err := fs.IsAbsolute(inc); err != nil {
			return errors.Wrapf(err, "%s", file)
		} else if abs {
			return errors.Errorf("%s: cannot include absolute path %s", file, inc)
		}
		p, err := fs.Join(dir, inc)
		if err != nil {
			return errors.Wrapf(err, "%s", file)
		}
		if err := l.load(p); err != nil {
			return err
		}
	}
	return nil
}

func (l *loader) add(fs *fsquery.FS, dir, name, suite, file string) error {
	rel, err := fs.Join(dir, name)
	if err != nil {
		return errors.Wrapf(err, "%s", file)
	}
	if suite == "" {
		return errors.Errorf("%s: no test suite defined for test program '%s'", file, rel)
	}
	if l.seen[rel] {
		return nil
	}
	l.seen[rel] = true
	l.progs = append(l.progs, engine.NewTestProgram(rel, l.root, suite, l.opts...))
	return nil
}

// glob returns the sorted names of the regular files in dir matching
// pattern, leaving out self and other suite definition files. fs must have
// dir as its base.
func glob(fs *fsquery.FS, dir, pattern, self string) ([]string, error) {
	if _, err := filepath.Match(pattern, ""); err != nil {
		return nil, errors.Wrapf(err, "bad glob %q", pattern)
	}
	it, err := fs.Files(".")
	if err != nil {
		return nil, err
	}
	defer it.Close()

	var names []string
	for it.Next() {
		name := it.Name()
		if name == "." || name == ".." {
			continue
		}
		if ok, _ := filepath.Match(pattern, name); !ok || name == self || isDefinition(name) {
			continue
		}
		if fi, err := os.Stat(filepath.Join(dir, name)); err == nil && fi.Mode().IsRegular() {
			names = append(names, name)
		}
	}
	if err := it.Err(); err != nil {
		return nil, err
	}
	sort.Strings(names)
	return names, nil
}

// isDefinition reports whether name looks like a suite definition file.
func isDefinition(name string) bool {
	switch filepath.Ext(name) {
	case ".yaml", ".yml":
		return true
	}
	return false
}
