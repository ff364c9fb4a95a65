// Copyright 2026 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package process

import (
	"github.com/shirou/gopsutil/v3/process"
	"golang.org/x/sys/unix"
)

// maxSweeps bounds how many times the process table is scanned.
const maxSweeps = 3

// killSession sends sig to every live process of session sid other than
// zombies, and returns how many were signalled. Members that moved to another
// process group are found by scanning the process table. A sweep is repeated
// while it finds members, since a member may fork while being scanned.
func killSession(sid int, sig unix.Signal) int {
	total := 0
	for i := 0; i < maxSweeps; i++ {
		members := sessionMembers(sid)
		if len(members) == 0 {
			break
		}
		for _, pid := range members {
			if unix.Kill(pid, sig) == nil {
				total++
			}
		}
	}
	return total
}

// sessionMembers lists the live processes whose session ID is sid.
func sessionMembers(sid int) []int {
	pids, err := process.Pids()
	if err != nil {
		return nil
	}
	var members []int
	for _, pid := range pids {
		if s, err := unix.Getsid(int(pid)); err != nil || s != sid {
			continue
		}
		if isZombie(pid) {
			continue
		}
		members = append(members, int(pid))
	}
	return members
}

func isZombie(pid int32) bool {
	p, err := process.NewProcess(pid)
	if err != nil {
		return false
	}
	st, err := p.Status()
	if err != nil {
		return false
	}
	for _, s := range st {
		if s == process.Zombie {
			return true
		}
	}
	return false
}
