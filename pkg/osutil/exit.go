// SPDX-FileCopyrightText: Copyright The Lima Authors
// SPDX-License-Identifier: Apache-2.0

package osutil

import (
	"errors"
	"os"
	"os/exec"
)

// ExitStatuser is implemented by errors that decide the process exit status.
type ExitStatuser interface {
	ExitStatus() int
}

// ExitStatus returns the exit status for err: 0 for nil, the status chosen
// by an ExitStatuser or an *exec.ExitError in the chain, 1 otherwise.
func ExitStatus(err error) int {
	if err == nil {
		return 0
	}
	var statuser ExitStatuser
	if errors.As(err, &statuser) {
		return statuser.ExitStatus()
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && exitErr.ExitCode() > 0 {
		return exitErr.ExitCode()
	}
	return 1
}

// HandleExitError exits the process when err chooses a specific exit status.
// Other errors are left to the caller.
func HandleExitError(err error) {
	if err == nil {
		return
	}
	var statuser ExitStatuser
	var exitErr *exec.ExitError
	if errors.As(err, &statuser) || errors.As(err, &exitErr) {
		os.Exit(ExitStatus(err)) //nolint:revive // it's intentional to call os.Exit in this function
	}
}
