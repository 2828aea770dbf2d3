// SPDX-FileCopyrightText: Copyright The Lima Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"path/filepath"

	"github.com/opencontainers/go-digest"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/lima-vm/gradlemodel/pkg/dirnames"
	"github.com/lima-vm/gradlemodel/pkg/distribution"
	"github.com/lima-vm/gradlemodel/pkg/gradle"
	"github.com/lima-vm/gradlemodel/pkg/prefs"
	"github.com/lima-vm/gradlemodel/pkg/ptr"
)

// registerPrefsFlags registers the flags that override prefs.yaml.
func registerPrefsFlags(flags *pflag.FlagSet) {
	flags.String("prefs", "", "Preferences file (default: $GRADLEMODEL_HOME/prefs.yaml if it exists)")
	flags.String("distribution", "", "Gradle installation directory, or distribution archive to fetch")
	flags.String("distribution-digest", "", "Expected digest of the distribution archive, e.g. sha256:...")
	flags.String("gradle-user-home", "", "Gradle user home directory")
	flags.String("java-home", "", "Java installation used by the build")
	flags.String("jvm-args", "", "Build JVM arguments, as a shell-style string (replaces the default)")
	flags.String("args", "", "Arguments appended to the Gradle command line, as a shell-style string")
}

func prefsFromFlags(flags *pflag.FlagSet) (*prefs.Preferences, error) {
	var p prefs.Preferences
	stringFlag := func(name string) (*string, error) {
		if !flags.Changed(name) {
			return nil, nil
		}
		s, err := flags.GetString(name)
		if err != nil {
			return nil, err
		}
		return ptr.Of(s), nil
	}
	argsFlag := func(name string) ([]string, error) {
		s, err := stringFlag(name)
		if s == nil || err != nil {
			return nil, err
		}
		return prefs.SplitArgs(*s)
	}

	var err error
	if p.Distribution, err = stringFlag("distribution"); err != nil {
		return nil, err
	}
	if p.GradleUserHome, err = stringFlag("gradle-user-home"); err != nil {
		return nil, err
	}
	if p.JavaHome, err = stringFlag("java-home"); err != nil {
		return nil, err
	}
	if p.JVMArguments, err = argsFlag("jvm-args"); err != nil {
		return nil, err
	}
	if p.ProgramArguments, err = argsFlag("args"); err != nil {
		return nil, err
	}
	d, err := stringFlag("distribution-digest")
	if err != nil {
		return nil, err
	}
	if d != nil {
		parsed, err := digest.Parse(*d)
		if err != nil {
			return nil, err
		}
		p.DistributionDigest = &parsed
	}
	return &p, nil
}

// loadPreferences loads prefs.yaml, applies the flag overrides, expands and validates the result.
func loadPreferences(cmd *cobra.Command) (*prefs.Preferences, error) {
	flags := cmd.Flags()
	prefsFile, err := flags.GetString("prefs")
	if err != nil {
		return nil, err
	}
	optional := prefsFile == ""
	if optional {
		homeDir, err := dirnames.HomeDir()
		if err != nil {
			return nil, err
		}
		prefsFile = filepath.Join(homeDir, dirnames.PrefsFile)
	}
	base, err := prefs.LoadFile(prefsFile, optional)
	if err != nil {
		return nil, err
	}
	override, err := prefsFromFlags(flags)
	if err != nil {
		return nil, err
	}
	p := prefs.Merge(*base, *override)
	if err := prefs.ExpandPaths(&p); err != nil {
		return nil, err
	}
	if err := prefs.Validate(&p); err != nil {
		return nil, err
	}
	if logrus.IsLevelEnabled(logrus.DebugLevel) {
		if b, err := prefs.Marshal(&p); err == nil {
			logrus.Debugf("Effective preferences:\n%s", b)
		}
	}
	return &p, nil
}

func newResolver() (*distribution.Resolver, error) {
	cacheDir, err := dirnames.CacheDir()
	if err != nil {
		return nil, err
	}
	distsDir, err := dirnames.DistsDir()
	if err != nil {
		return nil, err
	}
	return &distribution.Resolver{CacheDir: cacheDir, DistsDir: distsDir}, nil
}

func newConnector() (*gradle.Connector, error) {
	resolver, err := newResolver()
	if err != nil {
		return nil, err
	}
	return &gradle.Connector{Resolver: resolver}, nil
}

func projectDirArg(args []string) string {
	if len(args) == 0 {
		return "."
	}
	return args[0]
}
