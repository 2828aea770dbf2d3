// SPDX-FileCopyrightText: Copyright The Lima Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/lima-vm/gradlemodel/pkg/downloader"
	"github.com/lima-vm/gradlemodel/pkg/osutil"
	"github.com/lima-vm/gradlemodel/pkg/version"
)

const (
	basicCommand    = "basic"
	advancedCommand = "advanced"
)

func main() {
	err := newApp().Execute()
	osutil.HandleExitError(err)
	if err != nil {
		logrus.Fatal(err)
	}
}

func processGlobalFlags(rootCmd *cobra.Command) error {
	// --log-level will override --debug
	if debug, _ := rootCmd.Flags().GetBool("debug"); debug {
		logrus.SetLevel(logrus.DebugLevel)
	}

	l, _ := rootCmd.Flags().GetString("log-level")
	if l != "" {
		lvl, err := logrus.ParseLevel(l)
		if err != nil {
			return err
		}
		logrus.SetLevel(lvl)
	}

	logFormat, _ := rootCmd.Flags().GetString("log-format")
	switch logFormat {
	case "json":
		formatter := new(logrus.JSONFormatter)
		logrus.StandardLogger().SetFormatter(formatter)
	case "text":
		// logrus use text format by default.
		if runtime.GOOS == "windows" && isatty.IsCygwinTerminal(os.Stderr.Fd()) {
			formatter := new(logrus.TextFormatter)
			// the default setting does not recognize cygwin on windows
			formatter.ForceColors = true
			logrus.StandardLogger().SetFormatter(formatter)
		}
	default:
		return fmt.Errorf("unsupported log-format: %q", logFormat)
	}
	return nil
}

func newApp() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "gradlemodel",
		Short:   "gradlemodel: query Gradle project models",
		Version: strings.TrimPrefix(version.Version, "v"),
		Example: `  Request the summary and the full model of the current project:
  $ gradlemodel model

  Request the full model with a specific Gradle distribution:
  $ gradlemodel model --shape=full --distribution=https://services.gradle.org/distributions/gradle-8.10-bin.zip ~/src/sample-project

  Show which Gradle would be used:
  $ gradlemodel distribution ~/src/sample-project`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		DisableAutoGenTag: true,
	}
	rootCmd.PersistentFlags().String("log-level", "", "Set the logging level [trace, debug, info, warn, error]")
	rootCmd.PersistentFlags().String("log-format", "text", "Set the logging format [text, json]")
	rootCmd.PersistentFlags().Bool("debug", false, "Debug mode")
	rootCmd.PersistentFlags().Bool("tty", isatty.IsTerminal(os.Stdout.Fd()), "Enable TUI interactions such as confirmation prompts and progress bars. Defaults to true when stdout is a terminal. Set to false for automation.")
	rootCmd.PersistentFlags().BoolP("yes", "y", false, "Alias of --tty=false")
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, _ []string) error {
		if err := processGlobalFlags(rootCmd); err != nil {
			return err
		}
		if cmd.Flags().Changed("yes") && cmd.Flags().Changed("tty") {
			return errors.New("cannot use both --tty and --yes flags at the same time")
		}
		if yes, _ := cmd.Flags().GetBool("yes"); yes {
			if err := cmd.Flags().Set("tty", "false"); err != nil {
				return err
			}
		}
		if tty, _ := cmd.Flags().GetBool("tty"); !tty {
			downloader.HideProgress = true
		}
		return nil
	}
	rootCmd.AddGroup(&cobra.Group{ID: basicCommand, Title: "Basic Commands:"})
	rootCmd.AddGroup(&cobra.Group{ID: advancedCommand, Title: "Advanced Commands:"})

	rootCmd.AddCommand(
		newModelCommand(),
		newDistributionCommand(),
		newCacheCommand(),
		newDaemonLogCommand(),
		newGenDocCommand(),
		newGenSchemaCommand(),
	)
	return rootCmd
}

// WrapArgsError annotates cobra args error with some context, so the error message is more user-friendly.
func WrapArgsError(argFn cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		err := argFn(cmd, args)
		if err == nil {
			return nil
		}

		return fmt.Errorf("%q %s.\nSee '%s --help'.\n\nUsage:  %s\n\n%s",
			cmd.CommandPath(), err.Error(),
			cmd.CommandPath(),
			cmd.UseLine(), cmd.Short,
		)
	}
}
