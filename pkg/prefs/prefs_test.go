// SPDX-FileCopyrightText: Copyright The Lima Authors
// SPDX-License-Identifier: Apache-2.0

package prefs

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/opencontainers/go-digest"
	"gotest.tools/v3/assert"

	"github.com/lima-vm/gradlemodel/pkg/ptr"
)

func TestLoadEmpty(t *testing.T) {
	p, err := Load([]byte{}, "empty.yaml")
	assert.NilError(t, err)
	assert.DeepEqual(t, *p, Preferences{})
}

func TestLoad(t *testing.T) {
	s := `
distribution: https://services.gradle.org/distributions/gradle-8.5-bin.zip
distributionDigest: sha256:9d926787066a081739e8200858338b4a69e837c3a821a33aca9db09dd4a41026
javaHome: /usr/lib/jvm/java-17
jvmArguments: ["-Xmx2g", "-Dfile.encoding=UTF-8"]
programArguments: []
`
	p, err := Load([]byte(s), "prefs.yaml")
	assert.NilError(t, err)
	assert.Equal(t, *p.Distribution, "https://services.gradle.org/distributions/gradle-8.5-bin.zip")
	assert.Equal(t, *p.JavaHome, "/usr/lib/jvm/java-17")
	assert.Assert(t, p.GradleUserHome == nil)
	assert.DeepEqual(t, p.JVMArguments, []string{"-Xmx2g", "-Dfile.encoding=UTF-8"})
	assert.Assert(t, p.ProgramArguments != nil)
	assert.Equal(t, len(p.ProgramArguments), 0)
	assert.NilError(t, Validate(p))
}

func TestLoadDuplicateKey(t *testing.T) {
	_, err := Load([]byte("javaHome: /a\njavaHome: /b\n"), "dup.yaml")
	assert.ErrorContains(t, err, "failed to unmarshal YAML (dup.yaml)")
	assert.ErrorContains(t, err, "already defined")
}

func TestLoadError(t *testing.T) {
	_, err := Load([]byte("jdkHome: /a\n"), "unknown.yaml")
	assert.ErrorContains(t, err, "failed to unmarshal YAML (unknown.yaml)")
}

func TestLoadFile(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "prefs.yaml")
	p, err := LoadFile(missing, true)
	assert.NilError(t, err)
	assert.DeepEqual(t, *p, Preferences{})

	_, err = LoadFile(missing, false)
	assert.Assert(t, os.IsNotExist(err))
}

func TestMerge(t *testing.T) {
	base := Preferences{
		Distribution: ptr.Of("/opt/gradle-8.5"),
		JavaHome:     ptr.Of("/usr/lib/jvm/java-17"),
		JVMArguments: []string{"-Xmx1g"},
	}
	override := Preferences{
		JavaHome:         ptr.Of("/usr/lib/jvm/java-21"),
		ProgramArguments: []string{"--offline"},
	}
	got := Merge(base, override)
	assert.Equal(t, *got.Distribution, "/opt/gradle-8.5")
	assert.Equal(t, *got.JavaHome, "/usr/lib/jvm/java-21")
	assert.DeepEqual(t, got.JVMArguments, []string{"-Xmx1g"})
	assert.DeepEqual(t, got.ProgramArguments, []string{"--offline"})
}

func TestValidate(t *testing.T) {
	assert.NilError(t, Validate(&Preferences{}))

	err := Validate(&Preferences{Distribution: ptr.Of("")})
	assert.ErrorContains(t, err, "`distribution` must not be empty")

	err = Validate(&Preferences{JavaHome: ptr.Of("relative/jdk")})
	assert.ErrorContains(t, err, "`javaHome` must be an absolute path")

	d := digest.Digest("sha256:short")
	err = Validate(&Preferences{Distribution: ptr.Of("https://example.com/gradle.zip"), DistributionDigest: &d})
	assert.ErrorContains(t, err, "`distributionDigest` is invalid")

	good := digest.FromString("gradle")
	err = Validate(&Preferences{DistributionDigest: &good})
	assert.ErrorContains(t, err, "requires `distribution`")
}

func TestExpandPaths(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("unix paths")
	}
	home, err := os.UserHomeDir()
	assert.NilError(t, err)
	p := Preferences{
		Distribution:   ptr.Of("file:///opt/gradle-8.5"),
		GradleUserHome: ptr.Of("~/.gradle-alt"),
	}
	assert.NilError(t, ExpandPaths(&p))
	assert.Equal(t, *p.Distribution, "/opt/gradle-8.5")
	assert.Equal(t, *p.GradleUserHome, filepath.Join(home, ".gradle-alt"))
	assert.Assert(t, p.JavaHome == nil)

	remote := Preferences{Distribution: ptr.Of("https://services.gradle.org/distributions/gradle-8.5-bin.zip")}
	assert.NilError(t, ExpandPaths(&remote))
	assert.Equal(t, *remote.Distribution, "https://services.gradle.org/distributions/gradle-8.5-bin.zip")
}

func TestSplitArgs(t *testing.T) {
	args, err := SplitArgs(`-Xmx2g "-Dname=a b" '-Dq=x'`)
	assert.NilError(t, err)
	assert.DeepEqual(t, args, []string{"-Xmx2g", "-Dname=a b", "-Dq=x"})

	args, err = SplitArgs("")
	assert.NilError(t, err)
	assert.Assert(t, args != nil)
	assert.Equal(t, len(args), 0)

	_, err = SplitArgs(`"unterminated`)
	assert.ErrorContains(t, err, "failed to parse arguments")
}
