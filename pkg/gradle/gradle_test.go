// SPDX-FileCopyrightText: Copyright The Lima Authors
// SPDX-License-Identifier: Apache-2.0

package gradle

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp/cmpopts"
	"gotest.tools/v3/assert"

	"github.com/lima-vm/gradlemodel/pkg/distribution"
	"github.com/lima-vm/gradlemodel/pkg/model"
	"github.com/lima-vm/gradlemodel/pkg/prefs"
	"github.com/lima-vm/gradlemodel/pkg/ptr"
)

// fakeGradle parses the properties passed by ModelBuilder into $shape and
// $out, records its arguments into $GRADLEMODEL_TEST_ARGS if set, then runs body.
const fakeGradle = `#!/bin/sh
shape=""
out=""
for a in "$@"; do
  case "$a" in
    -Pgradlemodel.shape=*) shape="${a#-Pgradlemodel.shape=}" ;;
    -Pgradlemodel.output=*) out="${a#-Pgradlemodel.output=}" ;;
  esac
done
if [ -n "$GRADLEMODEL_TEST_ARGS" ]; then
  printf '%s\n' "$@" > "$GRADLEMODEL_TEST_ARGS"
fi
`

const sampleModel = `{"name":"sample-project","path":":","projectDirectory":"/tmp/sample-project","children":[{"name":"core","path":":core","projectDirectory":"/tmp/sample-project/core"}]}`

func fakeInstallation(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake launchers are shell scripts")
	}
	home := filepath.Join(t.TempDir(), "gradle-8.10")
	assert.NilError(t, os.MkdirAll(filepath.Join(home, "bin"), 0o755))
	assert.NilError(t, os.WriteFile(filepath.Join(home, "bin", "gradle"), []byte(fakeGradle+body), 0o755))
	return home
}

func connect(t *testing.T, projectDir string, p *prefs.Preferences) *Connection {
	t.Helper()
	c := &Connector{Resolver: &distribution.Resolver{DistsDir: t.TempDir()}}
	conn, err := c.Connect(context.Background(), projectDir, p)
	assert.NilError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestGetProgressOrder(t *testing.T) {
	cases := map[string]int{
		"none": 0,
		"one":  1,
		"many": 25,
	}
	for name, n := range cases {
		t.Run(name, func(t *testing.T) {
			var body strings.Builder
			var want []string
			for i := 0; i < n; i++ {
				desc := "Configure project :p" + strings.Repeat("x", i)
				want = append(want, desc)
				body.WriteString("echo '" + ProgressMarker + " " + desc + "'\n")
				body.WriteString("echo 'line " + desc + "'\n")
			}
			body.WriteString("echo '" + sampleModel + "' > \"$out\"\n")
			home := fakeInstallation(t, body.String())

			conn := connect(t, t.TempDir(), &prefs.Preferences{Distribution: ptr.Of(home)})
			var got []string
			var stdout bytes.Buffer
			m, err := conn.Model(model.ShapeSummary).
				SetStandardOutput(&stdout).
				AddProgressListener(func(desc string) { got = append(got, desc) }).
				Get(context.Background())
			assert.NilError(t, err)
			assert.Assert(t, m != nil)
			assert.DeepEqual(t, got, want)
			assert.Assert(t, !strings.Contains(stdout.String(), ProgressMarker))
			assert.Equal(t, strings.Count(stdout.String(), "\n"), n)
		})
	}
}

func TestGetSummaryModel(t *testing.T) {
	home := fakeInstallation(t, `echo '`+sampleModel+`' > "$out"`+"\n")
	conn := connect(t, t.TempDir(), &prefs.Preferences{Distribution: ptr.Of(home)})
	m, err := conn.Model(model.ShapeSummary).Get(context.Background())
	assert.NilError(t, err)
	want := &model.HierarchicalProject{
		Name:             "sample-project",
		Path:             ":",
		ProjectDirectory: "/tmp/sample-project",
		Children: []model.HierarchicalProject{
			{Name: "core", Path: ":core", ProjectDirectory: "/tmp/sample-project/core"},
		},
	}
	assert.DeepEqual(t, m, want, cmpopts.EquateEmpty())
}

func TestGetFullModel(t *testing.T) {
	home := fakeInstallation(t, `[ "$shape" = full ] || exit 9
echo '{"name":"sample-project","path":":","projectDirectory":"/p","tasks":[{"name":"build","path":":build"}]}' > "$out"
`)
	conn := connect(t, t.TempDir(), &prefs.Preferences{Distribution: ptr.Of(home)})
	m, err := conn.Model(model.ShapeFull).Get(context.Background())
	assert.NilError(t, err)
	p, ok := m.(*model.EclipseProject)
	assert.Assert(t, ok)
	assert.Equal(t, p.Tasks[0].Path, ":build")
}

func TestGetBrokenBuild(t *testing.T) {
	home := fakeInstallation(t, `echo 'FAILURE: Build failed with an exception.'
echo 'A problem occurred evaluating root project' >&2
exit 1
`)
	conn := connect(t, t.TempDir(), &prefs.Preferences{Distribution: ptr.Of(home)})
	var stdout, stderr bytes.Buffer
	_, err := conn.Model(model.ShapeSummary).
		SetStandardOutput(&stdout).
		SetStandardError(&stderr).
		Get(context.Background())
	var buildErr *ModelBuildError
	assert.Assert(t, errors.As(err, &buildErr), "got %v", err)
	assert.Equal(t, buildErr.ExitCode, 1)
	assert.Equal(t, buildErr.Shape, model.ShapeSummary)
	assert.Equal(t, stdout.String(), "FAILURE: Build failed with an exception.\n")
	assert.Equal(t, stderr.String(), "A problem occurred evaluating root project\n")
}

func TestGetNoModelWritten(t *testing.T) {
	home := fakeInstallation(t, "exit 0\n")
	conn := connect(t, t.TempDir(), &prefs.Preferences{Distribution: ptr.Of(home)})
	_, err := conn.Model(model.ShapeFull).Get(context.Background())
	var buildErr *ModelBuildError
	assert.Assert(t, errors.As(err, &buildErr), "got %v", err)
	assert.ErrorContains(t, err, "did not write a model")
}

func TestConnectMissingProjectDir(t *testing.T) {
	home := fakeInstallation(t, "exit 0\n")
	missing := filepath.Join(t.TempDir(), "sample-project")
	c := &Connector{}
	_, err := c.Connect(context.Background(), missing, &prefs.Preferences{Distribution: ptr.Of(home)})
	var connErr *ConnectionError
	assert.Assert(t, errors.As(err, &connErr), "got %v", err)
	assert.Assert(t, errors.Is(err, os.ErrNotExist))
}

func TestConnectProjectDirIsFile(t *testing.T) {
	f := filepath.Join(t.TempDir(), "build.gradle")
	assert.NilError(t, os.WriteFile(f, nil, 0o644))
	_, err := (&Connector{}).Connect(context.Background(), f, nil)
	var connErr *ConnectionError
	assert.Assert(t, errors.As(err, &connErr), "got %v", err)
	assert.ErrorContains(t, err, "is not a directory")
}

func TestConnectUnsupportedVersion(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("fake launchers are shell scripts")
	}
	home := filepath.Join(t.TempDir(), "gradle-4.10.3")
	assert.NilError(t, os.MkdirAll(filepath.Join(home, "bin"), 0o755))
	assert.NilError(t, os.WriteFile(filepath.Join(home, "bin", "gradle"), []byte(fakeGradle), 0o755))
	_, err := (&Connector{}).Connect(context.Background(), t.TempDir(), &prefs.Preferences{Distribution: ptr.Of(home)})
	var connErr *ConnectionError
	assert.Assert(t, errors.As(err, &connErr), "got %v", err)
	assert.ErrorContains(t, err, "is not supported")
}

func TestConnectionCloseOnce(t *testing.T) {
	home := fakeInstallation(t, "exit 0\n")
	c := &Connector{}
	conn, err := c.Connect(context.Background(), t.TempDir(), &prefs.Preferences{Distribution: ptr.Of(home)})
	assert.NilError(t, err)
	scratch := conn.scratchDir
	_, err = os.Stat(filepath.Join(scratch, initScriptName))
	assert.NilError(t, err)

	assert.NilError(t, conn.Close())
	assert.Assert(t, conn.IsClosed())
	_, err = os.Stat(scratch)
	assert.Assert(t, errors.Is(err, os.ErrNotExist))
	assert.ErrorIs(t, conn.Close(), ErrConnectionClosed)

	_, err = conn.Model(model.ShapeSummary).Get(context.Background())
	assert.ErrorIs(t, err, ErrConnectionClosed)
}

func TestArgumentsVerbatim(t *testing.T) {
	home := fakeInstallation(t, `echo '{}' > "$out"`+"\n")
	argsFile := filepath.Join(t.TempDir(), "args")
	t.Setenv("GRADLEMODEL_TEST_ARGS", argsFile)
	userHome := t.TempDir()
	p := &prefs.Preferences{
		Distribution:     ptr.Of(home),
		GradleUserHome:   ptr.Of(userHome),
		JavaHome:         ptr.Of("/opt/jdk-17"),
		JVMArguments:     []string{"-Xmx1g", "-Dfoo=a b"},
		ProgramArguments: []string{"--offline", "-Pgreeting=hello world"},
	}
	conn := connect(t, t.TempDir(), p)
	b := conn.Model(model.ShapeSummary)
	ConfigureOperation(b, p)
	_, err := b.Get(context.Background())
	assert.NilError(t, err)

	data, err := os.ReadFile(argsFile)
	assert.NilError(t, err)
	got := strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
	want := []string{
		"--console=plain",
		"-Dorg.gradle.configuration-cache=false",
		"-g", userHome,
		"-Dorg.gradle.java.home=/opt/jdk-17",
		"-Dorg.gradle.jvmargs=-Xmx1g '-Dfoo=a b'",
		"--init-script", filepath.Join(conn.scratchDir, initScriptName),
		"-Pgradlemodel.shape=summary",
		"-Pgradlemodel.output=" + filepath.Join(conn.scratchDir, "model-summary.json"),
		"--offline",
		"-Pgreeting=hello world",
		ExportTask,
	}
	assert.DeepEqual(t, got, want)
}

func TestConfigureOperationAbsent(t *testing.T) {
	conn := &Connection{ProjectDir: "/p", scratchDir: "/s"}
	b := conn.Model(model.ShapeFull)
	ConfigureOperation(b, &prefs.Preferences{})
	want := []string{
		"--console=plain",
		"-Dorg.gradle.configuration-cache=false",
		"--init-script", filepath.Join("/s", initScriptName),
		"-Pgradlemodel.shape=full",
		"-Pgradlemodel.output=" + filepath.Join("/s", "model-full.json"),
		ExportTask,
	}
	assert.DeepEqual(t, b.Args(), want)

	// an empty JVM argument list leaves org.gradle.jvmargs to the project
	ConfigureOperation(b, &prefs.Preferences{JVMArguments: []string{}, ProgramArguments: []string{}})
	assert.DeepEqual(t, b.Args(), want)
}

func TestConfigurationCacheDisabled(t *testing.T) {
	home := fakeInstallation(t, `echo '{}' > "$out"`+"\n")
	argsFile := filepath.Join(t.TempDir(), "args")
	t.Setenv("GRADLEMODEL_TEST_ARGS", argsFile)
	projectDir := t.TempDir()
	assert.NilError(t, os.WriteFile(filepath.Join(projectDir, "gradle.properties"),
		[]byte("org.gradle.configuration-cache=true\n"), 0o644))
	conn := connect(t, projectDir, &prefs.Preferences{Distribution: ptr.Of(home)})
	_, err := conn.Model(model.ShapeFull).Get(context.Background())
	assert.NilError(t, err)

	data, err := os.ReadFile(argsFile)
	assert.NilError(t, err)
	assert.Assert(t, slices.Contains(strings.Split(string(data), "\n"), "-Dorg.gradle.configuration-cache=false"), string(data))
}

func TestProgressWriter(t *testing.T) {
	var out bytes.Buffer
	var got []string
	w := newProgressWriter(&out, []func(string){func(s string) { got = append(got, s) }})
	for _, chunk := range []string{
		"> Task :help\n##gradlemodel-pro",
		"gress Execute :help\r\n##gradlemodel-progressive line\n",
		"##gradlemodel-progress\n",
		"tail without newline",
	} {
		n, err := w.Write([]byte(chunk))
		assert.NilError(t, err)
		assert.Equal(t, n, len(chunk))
	}
	assert.NilError(t, w.Flush())
	assert.DeepEqual(t, got, []string{"Execute :help", ""})
	assert.Equal(t, out.String(), "> Task :help\n##gradlemodel-progressive line\ntail without newline")
}

func TestErrorMessages(t *testing.T) {
	err := &ModelBuildError{ProjectDir: "/p", Shape: model.ShapeFull, ExitCode: 1, Err: errors.New("boom")}
	assert.Error(t, err, `failed to build the EclipseProject model for project "/p" (exit status 1): boom`)
	connErr := &ConnectionError{ProjectDir: "/p", Err: distribution.ErrNoLauncher}
	assert.Assert(t, errors.Is(connErr, distribution.ErrNoLauncher))
}

func TestExitStatus(t *testing.T) {
	assert.Equal(t, (&ConnectionError{}).ExitStatus(), ExitStatusConnection)
	assert.Equal(t, (&ModelBuildError{}).ExitStatus(), ExitStatusModelBuild)
}
