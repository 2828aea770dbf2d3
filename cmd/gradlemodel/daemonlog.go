// SPDX-FileCopyrightText: Copyright The Lima Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"os"
	"os/signal"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/lima-vm/gradlemodel/pkg/daemonlog"
	"github.com/lima-vm/gradlemodel/pkg/dirnames"
)

func newDaemonLogCommand() *cobra.Command {
	daemonLogCommand := &cobra.Command{
		Use:               "daemon-log",
		Short:             "Show the most recent Gradle daemon log",
		Args:              WrapArgsError(cobra.NoArgs),
		RunE:              daemonLogAction,
		ValidArgsFunction: cobra.NoFileCompletions,
		GroupID:           advancedCommand,
	}
	daemonLogCommand.Flags().BoolP("follow", "f", false, "Keep printing lines as they are appended")
	daemonLogCommand.Flags().Bool("path", false, "Print the path of the log instead of its content")
	registerPrefsFlags(daemonLogCommand.Flags())
	return daemonLogCommand
}

func daemonLogAction(cmd *cobra.Command, _ []string) error {
	follow, err := cmd.Flags().GetBool("follow")
	if err != nil {
		return err
	}
	pathOnly, err := cmd.Flags().GetBool("path")
	if err != nil {
		return err
	}
	p, err := loadPreferences(cmd)
	if err != nil {
		return err
	}
	var userHome string
	if p.GradleUserHome != nil {
		userHome = *p.GradleUserHome
	} else {
		userHome, err = dirnames.GradleUserHome()
		if err != nil {
			return err
		}
	}
	logPath, err := daemonlog.Latest(userHome)
	if err != nil {
		return err
	}
	if pathOnly {
		_, err = cmd.OutOrStdout().Write([]byte(logPath + "\n"))
		return err
	}
	if !follow {
		return daemonlog.Print(logPath, cmd.OutOrStdout())
	}
	logrus.Infof("Following %q", logPath)
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()
	return daemonlog.Follow(ctx, logPath, cmd.OutOrStdout())
}
