// SPDX-FileCopyrightText: Copyright The Lima Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"

	"github.com/lima-vm/gradlemodel/pkg/distribution"
)

type distributionInfo struct {
	Kind     string `json:"kind" yaml:"kind"`
	Location string `json:"location" yaml:"location"`
	Home     string `json:"home,omitempty" yaml:"home,omitempty"`
	Launcher string `json:"launcher" yaml:"launcher"`
	Version  string `json:"version,omitempty" yaml:"version,omitempty"`
	// Supported is false when the version is known to be too old.
	Supported bool `json:"supported" yaml:"supported"`
}

func newDistributionInfo(inst *distribution.Installation) distributionInfo {
	info := distributionInfo{
		Kind:      inst.Kind,
		Location:  inst.Location,
		Home:      inst.Home,
		Launcher:  inst.Launcher,
		Supported: inst.CheckVersion() == nil,
	}
	if inst.Version != nil {
		info.Version = inst.Version.String()
	}
	return info
}

func newDistributionCommand() *cobra.Command {
	distributionCommand := &cobra.Command{
		Use:   "distribution [PROJECT_DIR]",
		Short: "Show which Gradle launcher would run the build",
		Long: `Show which Gradle launcher would run the build, without running it.

A distribution archive is fetched and unpacked into the cache, so that its
launcher can be shown.`,
		Args:    WrapArgsError(cobra.MaximumNArgs(1)),
		RunE:    distributionAction,
		GroupID: basicCommand,
	}
	distributionCommand.Flags().String("format", "yaml", "Output format [yaml, json]")
	registerPrefsFlags(distributionCommand.Flags())
	return distributionCommand
}

func distributionAction(cmd *cobra.Command, args []string) error {
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return err
	}
	p, err := loadPreferences(cmd)
	if err != nil {
		return err
	}
	resolver, err := newResolver()
	if err != nil {
		return err
	}
	projectDir, err := filepath.Abs(projectDirArg(args))
	if err != nil {
		return err
	}
	inst, err := resolver.Resolve(cmd.Context(), projectDir, p.Distribution, p.DistributionDigest)
	if err != nil {
		return err
	}
	info := newDistributionInfo(inst)

	var b []byte
	switch format {
	case "yaml":
		b, err = yaml.Marshal(info)
	case "json":
		b, err = json.MarshalIndent(info, "", "  ")
		b = append(b, '\n')
	default:
		return fmt.Errorf("unsupported format: %q", format)
	}
	if err != nil {
		return err
	}
	_, err = cmd.OutOrStdout().Write(b)
	return err
}
