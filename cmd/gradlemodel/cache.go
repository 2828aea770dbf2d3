// SPDX-FileCopyrightText: Copyright The Lima Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/docker/go-units"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/lima-vm/gradlemodel/pkg/dirnames"
	"github.com/lima-vm/gradlemodel/pkg/downloader"
	"github.com/lima-vm/gradlemodel/pkg/uiutil"
)

func newCacheCommand() *cobra.Command {
	cacheCommand := &cobra.Command{
		Use:     "cache",
		Short:   "Manage downloaded and unpacked Gradle distributions",
		GroupID: advancedCommand,
	}
	cacheCommand.AddCommand(
		newCacheListCommand(),
		newCachePruneCommand(),
	)
	return cacheCommand
}

func newCacheListCommand() *cobra.Command {
	return &cobra.Command{
		Use:               "ls",
		Aliases:           []string{"list"},
		Short:             "List cached distributions",
		Args:              WrapArgsError(cobra.NoArgs),
		RunE:              cacheListAction,
		ValidArgsFunction: cobra.NoFileCompletions,
	}
}

func cacheListAction(cmd *cobra.Command, _ []string) error {
	cacheDir, err := dirnames.CacheDir()
	if err != nil {
		return err
	}
	distsDir, err := dirnames.DistsDir()
	if err != nil {
		return err
	}
	entries, err := downloader.CacheEntries(downloader.WithCacheDir(cacheDir))
	if err != nil {
		return err
	}
	keys := make([]string, 0, len(entries))
	for k := range entries {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 4, 8, 4, ' ', 0)
	fmt.Fprintln(w, "KEY\tSIZE\tUNPACKED\tURL")
	var total int64
	for _, k := range keys {
		dir := entries[k]
		url, err := os.ReadFile(filepath.Join(dir, "url"))
		if err != nil {
			logrus.WithError(err).Warnf("ignoring the cache entry %q", dir)
			continue
		}
		size, err := dirSize(dir)
		if err != nil {
			return err
		}
		unpacked, err := dirSize(filepath.Join(distsDir, k))
		if err != nil {
			return err
		}
		total += size + unpacked
		unpackedStr := "-"
		if unpacked > 0 {
			unpackedStr = units.BytesSize(float64(unpacked))
		}
		shortKey := k
		if len(shortKey) > 12 {
			shortKey = shortKey[:12]
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", shortKey, units.BytesSize(float64(size)), unpackedStr, strings.TrimSpace(string(url)))
	}
	if err := w.Flush(); err != nil {
		return err
	}
	logrus.Infof("Cache dir %q: %s", cacheDir, units.BytesSize(float64(total)))
	return nil
}

// dirSize returns the total size of the regular files under dir, or 0 if dir does not exist.
func dirSize(dir string) (int64, error) {
	var size int64
	err := filepath.WalkDir(dir, func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		size += info.Size()
		return nil
	})
	if errors.Is(err, os.ErrNotExist) {
		return 0, nil
	}
	return size, err
}

func newCachePruneCommand() *cobra.Command {
	return &cobra.Command{
		Use:               "prune",
		Short:             "Remove all cached distributions",
		Args:              WrapArgsError(cobra.NoArgs),
		RunE:              cachePruneAction,
		ValidArgsFunction: cobra.NoFileCompletions,
	}
}

func cachePruneAction(cmd *cobra.Command, _ []string) error {
	cacheDir, err := dirnames.CacheDir()
	if err != nil {
		return err
	}
	tty, err := cmd.Flags().GetBool("tty")
	if err != nil {
		return err
	}
	if tty {
		ans, err := uiutil.Confirm(fmt.Sprintf("Remove everything under %q?", cacheDir), false)
		if err != nil {
			return err
		}
		if !ans {
			logrus.Info("Aborted")
			return nil
		}
	}
	return downloader.RemoveAllCacheDir(downloader.WithCacheDir(cacheDir))
}
