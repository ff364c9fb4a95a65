// Copyright 2026 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package main implements the atfrun executable, used to list and run the
// test cases of ATF test programs.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/subcommands"
	"golang.org/x/term"

	"go.chromium.org/atfrun/internal/logging"
)

const (
	signalChannelSize = 3 // capacity of channel used to intercept signals
)

// Version is the version info of this command. It is filled in at build time.
var Version = "<unknown>"

// newLogger creates a logger based on the supplied command-line flags.
func newLogger(verbose, logTime bool) logging.Logger {
	level := logging.LevelInfo
	if verbose {
		level = logging.LevelDebug
	}
	return logging.NewSinkLogger(level, logTime, logging.NewWriterSink(os.Stderr))
}

// installSignalHandler cancels the running command on the first SIGINT or
// SIGTERM so that test programs get terminated, and exits on the second.
func installSignalHandler(ctx context.Context, cancel context.CancelFunc) {
	var st *term.State
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		var err error
		if st, err = term.GetState(fd); err != nil {
			logging.Info(ctx, "Failed to get terminal state: ", err)
		}
	}

	sc := make(chan os.Signal, signalChannelSize)
	go func() {
		sig := <-sc
		logging.Infof(ctx, "Caught %v signal; terminating test programs", sig)
		cancel()
		sig = <-sc
		if st != nil {
			term.Restore(fd, st)
		}
		fmt.Fprintf(os.Stderr, "\nCaught %v signal; exiting\n", sig)
		os.Exit(1)
	}()
	signal.Notify(sc, syscall.SIGINT, syscall.SIGTERM)
}

// doMain implements the main body of the program. It's a separate function so
// that its deferred functions will run before os.Exit makes the program exit
// immediately.
func doMain() int {
	subcommands.Register(subcommands.HelpCommand(), "")
	subcommands.Register(subcommands.FlagsCommand(), "")
	subcommands.Register(subcommands.CommandsCommand(), "")
	subcommands.Register(newListCmd(os.Stdout), "")
	subcommands.Register(newRunCmd(os.Stdout), "")

	version := flag.Bool("version", false, "print version and exit")
	verbose := flag.Bool("verbose", false, "use verbose logging")
	logTime := flag.Bool("logtime", true, "include date/time headers in logs")
	flag.Parse()

	if *version {
		fmt.Printf("atfrun version %s\n", Version)
		return 0
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ctx = logging.AttachLogger(ctx, newLogger(*verbose, *logTime))

	installSignalHandler(ctx, cancel)

	return int(subcommands.Execute(ctx))
}

func main() {
	os.Exit(doMain())
}
