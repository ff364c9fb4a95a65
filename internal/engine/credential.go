// Copyright 2026 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package engine

import (
	"os"
	"os/user"
	"strconv"
	"syscall"

	"go.chromium.org/atfrun/errors"
	"go.chromium.org/atfrun/internal/config"
	"go.chromium.org/atfrun/internal/metadata"
)

// credentialFor returns the credential test cases with metadata md run as, or
// nil to keep that of the current process. Privileges are dropped only for
// test cases requiring an unprivileged user while running as root.
func credentialFor(md *metadata.Metadata, cfg *config.Config) (*syscall.Credential, error) {
	if md.RequiredUser() != metadata.UserUnprivileged || os.Geteuid() != 0 {
		return nil, nil
	}
	name, ok := cfg.UnprivilegedUser()
	if !ok {
		return nil, errors.New("unprivileged_user is not defined")
	}
	u, err := user.Lookup(name)
	if err != nil {
		var idErr error
		if u, idErr = user.LookupId(name); idErr != nil {
			return nil, errors.Wrapf(err, "failed to look up user %s", name)
		}
	}
	uid, err := strconv.ParseUint(u.Uid, 10, 32)
	if err != nil {
		return nil, errors.Wrapf(err, "bad UID of user %s", name)
	}
	gid, err := strconv.ParseUint(u.Gid, 10, 32)
	if err != nil {
		return nil, errors.Wrapf(err, "bad GID of user %s", name)
	}
	return &syscall.Credential{Uid: uint32(uid), Gid: uint32(gid), Groups: []uint32{}}, nil
}

// chownTo gives paths to the user of cred.
func chownTo(cred *syscall.Credential, paths ...string) error {
	for _, p := range paths {
		if err := os.Chown(p, int(cred.Uid), int(cred.Gid)); err != nil {
			return errors.Wrap(err, "failed to change owner")
		}
	}
	return nil
}
