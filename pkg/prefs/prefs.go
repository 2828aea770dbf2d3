// SPDX-FileCopyrightText: Copyright The Lima Authors
// SPDX-License-Identifier: Apache-2.0

// Package prefs holds the connection preferences forwarded to Gradle.
//
// Every field is optional. An unset field means "let Gradle choose its own
// default": the corresponding launcher option is not passed at all.
package prefs

import (
	"github.com/opencontainers/go-digest"
)

type Preferences struct {
	// Distribution is either a local directory holding an unpacked Gradle
	// installation (plain path or file: URI), or a locator of a distribution
	// archive to fetch, e.g. https://services.gradle.org/distributions/gradle-8.5-bin.zip .
	Distribution *string `yaml:"distribution,omitempty" json:"distribution,omitempty" jsonschema:"nullable"`
	// DistributionDigest is the expected digest of a fetched distribution archive.
	DistributionDigest *digest.Digest `yaml:"distributionDigest,omitempty" json:"distributionDigest,omitempty" jsonschema:"nullable"`
	// GradleUserHome overrides the Gradle user home directory.
	GradleUserHome *string `yaml:"gradleUserHome,omitempty" json:"gradleUserHome,omitempty" jsonschema:"nullable"`
	// JavaHome overrides the Java installation used by the build.
	JavaHome *string `yaml:"javaHome,omitempty" json:"javaHome,omitempty" jsonschema:"nullable"`
	// JVMArguments replaces the build JVM arguments. nil leaves Gradle's default.
	JVMArguments []string `yaml:"jvmArguments,omitempty" json:"jvmArguments,omitempty" jsonschema:"nullable"`
	// ProgramArguments are appended to the Gradle command line verbatim.
	ProgramArguments []string `yaml:"programArguments,omitempty" json:"programArguments,omitempty" jsonschema:"nullable"`
}

// Merge returns base with every field that is set in override replaced.
func Merge(base, override Preferences) Preferences {
	res := base
	if override.Distribution != nil {
		res.Distribution = override.Distribution
	}
	if override.DistributionDigest != nil {
		res.DistributionDigest = override.DistributionDigest
	}
	if override.GradleUserHome != nil {
		res.GradleUserHome = override.GradleUserHome
	}
	if override.JavaHome != nil {
		res.JavaHome = override.JavaHome
	}
	if override.JVMArguments != nil {
		res.JVMArguments = override.JVMArguments
	}
	if override.ProgramArguments != nil {
		res.ProgramArguments = override.ProgramArguments
	}
	return res
}
