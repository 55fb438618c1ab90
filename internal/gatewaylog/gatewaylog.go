// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package gatewaylog provides the gateway's leveled logging convention:
// a thin wrapper over the standard library logger using the teacher's
// "<prog>: <level>: <message>" line shape instead of a structured logging
// framework the rest of the stack never adopted.
package gatewaylog

import (
	"fmt"
	"io"
	"log"
	"os"
)

var std = log.New(os.Stderr, "", log.LstdFlags)

// Prefix is prepended to every line, matching claudecli.go's "claude:"
// convention.
const Prefix = "claudegate"

func Infof(format string, args ...any) {
	std.Print(Prefix + ": info: " + fmt.Sprintf(format, args...))
}

func Warnf(format string, args ...any) {
	std.Print(Prefix + ": warn: " + fmt.Sprintf(format, args...))
}

func Errorf(format string, args ...any) {
	std.Print(Prefix + ": error: " + fmt.Sprintf(format, args...))
}

func Debugf(format string, args ...any) {
	if os.Getenv("CLAUDEGATE_DEBUG") == "" {
		return
	}
	std.Print(Prefix + ": debug: " + fmt.Sprintf(format, args...))
}

// SetOutput redirects the logger, used by tests to capture output.
func SetOutput(w io.Writer) {
	std.SetOutput(w)
}
