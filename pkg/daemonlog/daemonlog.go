// SPDX-FileCopyrightText: Copyright The Lima Authors
// SPDX-License-Identifier: Apache-2.0

// Package daemonlog locates and follows Gradle daemon logs.
package daemonlog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/nxadm/tail"
	"github.com/sirupsen/logrus"
)

// ErrNoDaemonLog is returned when the Gradle user home holds no daemon log.
var ErrNoDaemonLog = errors.New("no Gradle daemon log found")

// Latest returns the most recently modified daemon log under gradleUserHome.
// Daemon logs live in <gradleUserHome>/daemon/<version>/daemon-<pid>.out.log.
func Latest(gradleUserHome string) (string, error) {
	matches, err := filepath.Glob(filepath.Join(gradleUserHome, "daemon", "*", "daemon-*.out.log"))
	if err != nil {
		return "", err
	}
	var (
		latest string
		newest int64
	)
	for _, m := range matches {
		st, err := os.Stat(m)
		if err != nil {
			logrus.WithError(err).Debugf("ignoring %q", m)
			continue
		}
		if mt := st.ModTime().UnixNano(); latest == "" || mt > newest {
			latest, newest = m, mt
		}
	}
	if latest == "" {
		return "", fmt.Errorf("%w under %q", ErrNoDaemonLog, gradleUserHome)
	}
	return latest, nil
}

// Print copies the log at path to w.
func Print(path string, w io.Writer) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = io.Copy(w, f)
	return err
}

// Follow writes the lines of the log at path to w as they are appended,
// until ctx is done. The existing content is written first.
func Follow(ctx context.Context, path string, w io.Writer) error {
	t, err := tail.TailFile(path,
		tail.Config{
			Follow:    true,
			ReOpen:    true,
			MustExist: true,
			Logger:    tail.DiscardingLogger,
		})
	if err != nil {
		return err
	}
	defer func() {
		_ = t.Stop()
		// Do NOT call t.Cleanup(), it prevents the process from ever tailing the file again
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-t.Lines:
			if !ok || line == nil {
				return t.Err()
			}
			if line.Err != nil {
				logrus.Error(line.Err)
				continue
			}
			if _, err := fmt.Fprintln(w, line.Text); err != nil {
				return err
			}
		}
	}
}
