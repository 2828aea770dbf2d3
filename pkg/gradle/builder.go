// SPDX-FileCopyrightText: Copyright The Lima Authors
// SPDX-License-Identifier: Apache-2.0

package gradle

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"al.essio.dev/pkg/shellescape"
	"github.com/sirupsen/logrus"

	"github.com/lima-vm/gradlemodel/pkg/model"
)

const (
	// ExportTask is the task registered by the init script.
	ExportTask = "gradlemodelExport"

	shapeProperty  = "gradlemodel.shape"
	outputProperty = "gradlemodel.output"
)

// ModelBuilder is a pending model request. The setters mirror the
// optional settings of a Gradle long running operation; anything left
// unset is up to Gradle.
type ModelBuilder struct {
	conn  *Connection
	shape model.Shape

	javaHome  *string
	jvmArgs   []string
	arguments []string

	stdout    io.Writer
	stderr    io.Writer
	listeners []func(description string)
}

// Shape returns the requested shape.
func (b *ModelBuilder) Shape() model.Shape {
	return b.shape
}

// SetJavaHome selects the JVM that runs the build.
func (b *ModelBuilder) SetJavaHome(dir string) *ModelBuilder {
	b.javaHome = &dir
	return b
}

// SetJVMArguments replaces the build JVM arguments.
func (b *ModelBuilder) SetJVMArguments(args ...string) *ModelBuilder {
	b.jvmArgs = append([]string{}, args...)
	return b
}

// WithArguments replaces the arguments passed to Gradle itself.
func (b *ModelBuilder) WithArguments(args ...string) *ModelBuilder {
	b.arguments = append([]string{}, args...)
	return b
}

func (b *ModelBuilder) SetStandardOutput(w io.Writer) *ModelBuilder {
	b.stdout = w
	return b
}

func (b *ModelBuilder) SetStandardError(w io.Writer) *ModelBuilder {
	b.stderr = w
	return b
}

// AddProgressListener registers fn for every progress description.
// fn runs on the goroutine copying the launcher's stdout, in the order
// Gradle emits the descriptions.
func (b *ModelBuilder) AddProgressListener(fn func(description string)) *ModelBuilder {
	b.listeners = append(b.listeners, fn)
	return b
}

func (b *ModelBuilder) outputPath() string {
	return filepath.Join(b.conn.scratchDir, "model-"+b.shape+".json")
}

// Args returns the launcher arguments, without the launcher itself.
func (b *ModelBuilder) Args() []string {
	// the init script registers build listeners, which the configuration cache rejects
	args := []string{"--console=plain", "-Dorg.gradle.configuration-cache=false"}
	if b.conn.GradleUserHome != "" {
		args = append(args, "-g", b.conn.GradleUserHome)
	}
	if b.javaHome != nil {
		args = append(args, "-Dorg.gradle.java.home="+*b.javaHome)
	}
	// an empty list keeps the project's own org.gradle.jvmargs
	if len(b.jvmArgs) > 0 {
		args = append(args, "-Dorg.gradle.jvmargs="+shellescape.QuoteCommand(b.jvmArgs))
	}
	args = append(args,
		"--init-script", filepath.Join(b.conn.scratchDir, initScriptName),
		"-P"+shapeProperty+"="+b.shape,
		"-P"+outputProperty+"="+b.outputPath(),
	)
	args = append(args, b.arguments...)
	return append(args, ExportTask)
}

// Get runs the launcher and blocks until the model is available or the build fails.
// The result is *model.HierarchicalProject or *model.EclipseProject.
func (b *ModelBuilder) Get(ctx context.Context) (any, error) {
	conn := b.conn
	if err := conn.checkOpen(); err != nil {
		return nil, err
	}
	out := b.outputPath()
	if err := os.RemoveAll(out); err != nil {
		return nil, err
	}

	cmd := exec.CommandContext(ctx, conn.Installation.Launcher, b.Args()...)
	cmd.Dir = conn.ProjectDir
	cmd.Env = os.Environ()
	if conn.GradleUserHome != "" {
		// the wrapper downloads distributions into the user home before -g is parsed
		cmd.Env = append(cmd.Env, "GRADLE_USER_HOME="+conn.GradleUserHome)
	}
	if b.javaHome != nil {
		cmd.Env = append(cmd.Env, "JAVA_HOME="+*b.javaHome)
	}
	pw := newProgressWriter(b.stdout, b.listeners)
	cmd.Stdout = pw
	cmd.Stderr = b.stderr
	if cmd.Stderr == nil {
		cmd.Stderr = io.Discard
	}
	logrus.Debugf("Executing %s", shellescape.QuoteCommand(cmd.Args))

	if err := cmd.Start(); err != nil {
		return nil, &ConnectionError{ProjectDir: conn.ProjectDir, Err: err}
	}
	waitErr := cmd.Wait()
	if err := pw.Flush(); err != nil {
		logrus.WithError(err).Warn("failed to flush the remaining standard output")
	}
	if waitErr != nil {
		buildErr := &ModelBuildError{ProjectDir: conn.ProjectDir, Shape: b.shape, ExitCode: -1, Err: waitErr}
		var exitErr *exec.ExitError
		if errors.As(waitErr, &exitErr) {
			buildErr.ExitCode = exitErr.ExitCode()
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			buildErr.Err = ctxErr
		}
		return nil, buildErr
	}

	data, err := os.ReadFile(out)
	if err != nil {
		return nil, &ModelBuildError{
			ProjectDir: conn.ProjectDir, Shape: b.shape, ExitCode: -1,
			Err: fmt.Errorf("%s did not write a model: %w", ExportTask, err),
		}
	}
	m, err := model.Decode(b.shape, data)
	if err != nil {
		return nil, &ModelBuildError{ProjectDir: conn.ProjectDir, Shape: b.shape, ExitCode: -1, Err: err}
	}
	return m, nil
}

func trimEOL(s string) string {
	return strings.TrimSuffix(strings.TrimSuffix(s, "\n"), "\r")
}
