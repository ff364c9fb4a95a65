// Copyright 2026 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package fsquery provides the read-only filesystem queries available to
// suite definition files: path manipulation, existence checks and lazy
// directory listings.
//
// Relative paths given to an FS are interpreted relative to its base
// directory, normally the directory of the file being evaluated.
package fsquery

import (
	"io"
	"os"
	"path/filepath"

	"go.chromium.org/atfrun/errors"
)

// FS answers filesystem queries relative to a base directory.
type FS struct {
	base string
}

// New returns an FS resolving relative paths against base.
func New(base string) *FS {
	return &FS{base: base}
}

func checkPath(p string) error {
	if p == "" {
		return errors.Formatf("Invalid path '%s'", p)
	}
	return nil
}

func (fs *FS) resolve(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(fs.base, p)
}

// Basename returns the last component of p.
func (fs *FS) Basename(p string) (string, error) {
	if err := checkPath(p); err != nil {
		return "", err
	}
	return filepath.Base(p), nil
}

// Dirname returns p without its last component.
func (fs *FS) Dirname(p string) (string, error) {
	if err := checkPath(p); err != nil {
		return "", err
	}
	return filepath.Dir(filepath.Clean(p)), nil
}

// Exists reports whether p names an existing file. Broken symlinks do not
// exist.
func (fs *FS) Exists(p string) (bool, error) {
	if err := checkPath(p); err != nil {
		return false, err
	}
	_, err := os.Stat(fs.resolve(p))
	return err == nil, nil
}

// IsAbsolute reports whether p is absolute.
func (fs *FS) IsAbsolute(p string) (bool, error) {
	if err := checkPath(p); err != nil {
		return false, err
	}
	return filepath.IsAbs(p), nil
}

// Join appends the relative path b to a.
func (fs *FS) Join(a, b string) (string, error) {
	if err := checkPath(a); err != nil {
		return "", err
	}
	if err := checkPath(b); err != nil {
		return "", err
	}
	if filepath.IsAbs(b) {
		return "", errors.Formatf("Cannot join '%s' with '%s' because the latter is absolute", a, b)
	}
	return filepath.Join(a, b), nil
}

// Files opens the directory p for a lazy listing of its entries. The caller
// must close the returned iterator.
func (fs *FS) Files(p string) (*FileIter, error) {
	if err := checkPath(p); err != nil {
		return nil, err
	}
	f, err := os.Open(fs.resolve(p))
	if err == nil {
		var fi os.FileInfo
		if fi, err = f.Stat(); err == nil && !fi.IsDir() {
			err = errors.New("not a directory")
		}
		if err != nil {
			f.Close()
		}
	}
	if err != nil {
		return nil, errors.Wrapf(err, "Failed to open directory '%s'", p)
	}
	return &FileIter{f: f, pending: []string{".", ".."}}, nil
}

// readBatch is the number of entries read from the directory at a time.
const readBatch = 64

// FileIter iterates over the entry names of a directory, including "." and
// "..", in no particular order.
//
//	it, err := fs.Files("tests")
//	...
//	defer it.Close()
//	for it.Next() {
//		name := it.Name()
//	}
//	if err := it.Err(); err != nil { ... }
type FileIter struct {
	f       *os.File
	pending []string
	cur     string
	err     error
	eof     bool
}

// Next advances to the next entry and reports whether there is one.
func (it *FileIter) Next() bool {
	for len(it.pending) == 0 {
		if it.eof || it.err != nil {
			return false
		}
		names, err := it.f.Readdirnames(readBatch)
		it.pending = names
		if err == io.EOF {
			it.eof = true
		} else if err != nil {
			it.err = errors.Wrapf(err, "failed to read directory %s", it.f.Name())
		}
	}
	it.cur, it.pending = it.pending[0], it.pending[1:]
	return true
}

// Name returns the current entry name.
func (it *FileIter) Name() string {
	return it.cur
}

// Err returns the error that stopped the iteration, if any.
func (it *FileIter) Err() error {
	return it.err
}

// Close releases the directory.
func (it *FileIter) Close() error {
	return it.f.Close()
}
