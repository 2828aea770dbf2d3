// SPDX-FileCopyrightText: Copyright The Lima Authors
// SPDX-License-Identifier: Apache-2.0

// Package distribution decides which Gradle launcher runs a build.
package distribution

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/coreos/go-semver/semver"
	"github.com/opencontainers/go-digest"
	"github.com/sirupsen/logrus"

	"github.com/lima-vm/gradlemodel/pkg/downloader"
	"github.com/lima-vm/gradlemodel/pkg/localpathutil"
)

type Kind = string

const (
	// KindInstallation is a pre-unpacked local installation directory.
	KindInstallation Kind = "installation"
	// KindDistribution is an archive fetched (or copied) into the cache and unpacked.
	KindDistribution Kind = "distribution"
	// KindWrapper is the project's own gradlew script.
	KindWrapper Kind = "wrapper"
	// KindPath is a `gradle` executable found in $PATH.
	KindPath Kind = "path"
)

// ErrNoLauncher is returned when no distribution is configured and neither
// a wrapper nor a gradle executable is available.
var ErrNoLauncher = errors.New("no Gradle wrapper in the project and no gradle executable in $PATH")

// MinimumVersion is the oldest Gradle release the model init script supports.
var MinimumVersion = semver.New("5.0.0")

type Installation struct {
	Kind Kind `json:"kind" yaml:"kind"`
	// Location is the configured distribution, or the wrapper/PATH lookup result.
	Location string `json:"location" yaml:"location"`
	// Home is the installation directory. Empty for KindWrapper and KindPath.
	Home     string `json:"home,omitempty" yaml:"home,omitempty"`
	Launcher string `json:"launcher" yaml:"launcher"`
	// Version is nil when it cannot be told without running Gradle.
	Version *semver.Version `json:"-" yaml:"-"`
}

// FetchFunc places a distribution archive on the local filesystem and returns its path.
type FetchFunc func(ctx context.Context, remote string, expectedDigest digest.Digest) (string, error)

type Resolver struct {
	// CacheDir holds downloaded archives.
	CacheDir string
	// DistsDir holds unpacked archives.
	DistsDir string
	// Fetch defaults to a cached download into CacheDir.
	Fetch FetchFunc
	// LookPath defaults to exec.LookPath.
	LookPath func(file string) (string, error)
}

// Resolve picks the launcher for projectDir.
//
//   - distribution unset: the project wrapper, then `gradle` in $PATH.
//   - distribution names an existing local directory: used as an installation, nothing is fetched.
//   - anything else: fetched as an archive, cached and unpacked.
func (r *Resolver) Resolve(ctx context.Context, projectDir string, distribution *string, expectedDigest *digest.Digest) (*Installation, error) {
	if distribution == nil {
		return r.resolveDefault(projectDir)
	}
	loc := *distribution
	if local, ok, err := localpathutil.FromLocation(loc); err == nil && ok {
		if st, err := os.Stat(local); err == nil && st.IsDir() {
			logrus.Debugf("using local Gradle installation %q", local)
			inst, err := FromHome(local)
			if err != nil {
				return nil, err
			}
			inst.Location = loc
			return inst, nil
		}
	}
	var d digest.Digest
	if expectedDigest != nil {
		d = *expectedDigest
	}
	return r.resolveArchive(ctx, loc, d)
}

func (r *Resolver) resolveDefault(projectDir string) (*Installation, error) {
	wrapper := filepath.Join(projectDir, executableName("gradlew"))
	if st, err := os.Stat(wrapper); err == nil && !st.IsDir() {
		inst := &Installation{
			Kind:     KindWrapper,
			Location: wrapper,
			Launcher: wrapper,
		}
		v, err := WrapperVersion(projectDir)
		if err != nil {
			logrus.WithError(err).Debug("cannot tell the wrapper's Gradle version")
		}
		inst.Version = v
		return inst, nil
	}
	lookPath := r.LookPath
	if lookPath == nil {
		lookPath = exec.LookPath
	}
	launcher, err := lookPath(executableName("gradle"))
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return nil, ErrNoLauncher
		}
		return nil, err
	}
	return &Installation{
		Kind:     KindPath,
		Location: launcher,
		Launcher: launcher,
	}, nil
}

func (r *Resolver) resolveArchive(ctx context.Context, remote string, expectedDigest digest.Digest) (*Installation, error) {
	fetch := r.Fetch
	if fetch == nil {
		fetch = r.download
	}
	archive, err := fetch(ctx, remote, expectedDigest)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch Gradle distribution %q: %w", remote, err)
	}
	if r.DistsDir == "" {
		return nil, errors.New("no directory configured for unpacking distributions")
	}
	home, err := Unpack(archive, filepath.Join(r.DistsDir, downloader.CacheKey(remote)))
	if err != nil {
		return nil, fmt.Errorf("failed to unpack Gradle distribution %q: %w", remote, err)
	}
	inst, err := FromHome(home)
	if err != nil {
		return nil, err
	}
	inst.Kind = KindDistribution
	inst.Location = remote
	if inst.Version == nil {
		inst.Version, _ = VersionFromLocation(remote)
	}
	return inst, nil
}

func (r *Resolver) download(ctx context.Context, remote string, expectedDigest digest.Digest) (string, error) {
	logrus.WithField("digest", expectedDigest).Infof("Attempting to download the Gradle distribution from %q", remote)
	res, err := downloader.Download(ctx, "", remote,
		downloader.WithCacheDir(r.CacheDir),
		downloader.WithExpectedDigest(expectedDigest),
		downloader.WithDescription("the Gradle distribution"),
	)
	if err != nil {
		return "", err
	}
	switch res.Status {
	case downloader.StatusDownloaded:
		logrus.Infof("Downloaded the Gradle distribution from %q", remote)
	case downloader.StatusUsedCache:
		logrus.Infof("Using cache %q", res.CachePath)
	default:
		logrus.Warnf("Unexpected result from downloader.Download(): %+v", res)
	}
	if res.CachePath == "" {
		// local archives are not cached
		local, ok, err := localpathutil.FromLocation(remote)
		if err != nil {
			return "", err
		}
		if !ok {
			return "", fmt.Errorf("cache did not contain %q", remote)
		}
		return local, nil
	}
	return res.CachePath, nil
}

// FromHome describes an unpacked installation directory.
func FromHome(home string) (*Installation, error) {
	launcher := filepath.Join(home, "bin", executableName("gradle"))
	if _, err := os.Stat(launcher); err != nil {
		return nil, fmt.Errorf("%q does not look like a Gradle installation: %w", home, err)
	}
	inst := &Installation{
		Kind:     KindInstallation,
		Location: home,
		Home:     home,
		Launcher: launcher,
	}
	inst.Version, _ = ParseVersion(trimGradlePrefix(filepath.Base(home)))
	return inst, nil
}

// CheckVersion fails when the version is known to be older than MinimumVersion.
func (inst *Installation) CheckVersion() error {
	if inst.Version == nil {
		return nil
	}
	if inst.Version.LessThan(*MinimumVersion) {
		return fmt.Errorf("Gradle %s is not supported (minimum: %s)", inst.Version, MinimumVersion)
	}
	return nil
}

func executableName(name string) string {
	if runtime.GOOS == "windows" {
		return name + ".bat"
	}
	return name
}
