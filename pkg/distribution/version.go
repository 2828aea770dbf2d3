// SPDX-FileCopyrightText: Copyright The Lima Authors
// SPDX-License-Identifier: Apache-2.0

package distribution

import (
	"fmt"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/coreos/go-semver/semver"
	"github.com/magiconair/properties"
)

var (
	// "8.5", "8.5.1", "8.6-rc-1", "7.0-milestone-2"
	versionRegexp = regexp.MustCompile(`^(\d+)\.(\d+)(?:\.(\d+))?(?:-(.+))?$`)
	// ".../gradle-8.5-bin.zip", ".../gradle-8.5-all.zip"
	archiveRegexp = regexp.MustCompile(`^gradle-(.+?)(?:-(?:bin|all))?\.zip$`)
)

// ParseVersion parses a Gradle version string into a semantic version.
// Gradle omits the patch component when it is zero.
func ParseVersion(s string) (*semver.Version, error) {
	m := versionRegexp.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return nil, fmt.Errorf("unrecognized Gradle version %q", s)
	}
	patch := m[3]
	if patch == "" {
		patch = "0"
	}
	v := fmt.Sprintf("%s.%s.%s", m[1], m[2], patch)
	if m[4] != "" {
		v += "-" + m[4]
	}
	return semver.NewVersion(v)
}

// VersionFromLocation extracts the version from a distribution archive name.
func VersionFromLocation(loc string) (*semver.Version, error) {
	m := archiveRegexp.FindStringSubmatch(path.Base(filepath.ToSlash(loc)))
	if m == nil {
		return nil, fmt.Errorf("unrecognized distribution name %q", loc)
	}
	return ParseVersion(m[1])
}

// WrapperVersion reads distributionUrl from gradle/wrapper/gradle-wrapper.properties.
func WrapperVersion(projectDir string) (*semver.Version, error) {
	propsPath := filepath.Join(projectDir, "gradle", "wrapper", "gradle-wrapper.properties")
	p, err := properties.LoadFile(propsPath, properties.UTF8)
	if err != nil {
		return nil, err
	}
	u := p.GetString("distributionUrl", "")
	if u == "" {
		return nil, fmt.Errorf("%q has no distributionUrl", propsPath)
	}
	return VersionFromLocation(u)
}

func trimGradlePrefix(name string) string {
	return strings.TrimPrefix(name, "gradle-")
}
