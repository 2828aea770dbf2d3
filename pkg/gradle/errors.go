// SPDX-FileCopyrightText: Copyright The Lima Authors
// SPDX-License-Identifier: Apache-2.0

package gradle

import (
	"errors"
	"fmt"

	"github.com/lima-vm/gradlemodel/pkg/model"
)

// ErrConnectionClosed is returned when a released connection is used or released again.
var ErrConnectionClosed = errors.New("connection is closed")

// ConnectionError means Gradle could not be started for the project,
// or the project directory is not usable.
type ConnectionError struct {
	ProjectDir string
	Err        error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("failed to connect to Gradle for project %q: %v", e.ProjectDir, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// ModelBuildError means Gradle started but did not produce the requested model.
type ModelBuildError struct {
	ProjectDir string
	Shape      model.Shape
	// ExitCode is the launcher's exit status, or -1 when it exited cleanly
	// or was killed by a signal.
	ExitCode int
	Err      error
}

func (e *ModelBuildError) Error() string {
	if e.ExitCode > 0 {
		return fmt.Sprintf("failed to build the %s model for project %q (exit status %d): %v",
			model.TypeName(e.Shape), e.ProjectDir, e.ExitCode, e.Err)
	}
	return fmt.Sprintf("failed to build the %s model for project %q: %v", model.TypeName(e.Shape), e.ProjectDir, e.Err)
}

func (e *ModelBuildError) Unwrap() error {
	return e.Err
}

const (
	// ExitStatusConnection is the process exit status for a ConnectionError.
	ExitStatusConnection = 2
	// ExitStatusModelBuild is the process exit status for a ModelBuildError.
	ExitStatusModelBuild = 3
)

func (e *ConnectionError) ExitStatus() int {
	return ExitStatusConnection
}

func (e *ModelBuildError) ExitStatus() int {
	return ExitStatusModelBuild
}
