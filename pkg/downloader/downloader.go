// SPDX-FileCopyrightText: Copyright The Lima Authors
// SPDX-License-Identifier: Apache-2.0

// Package downloader fetches remote files (Gradle distribution archives)
// into a content cache keyed by the SHA256 of the URL.
package downloader

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/containerd/continuity/fs"
	"github.com/opencontainers/go-digest"
	"github.com/sirupsen/logrus"

	"github.com/lima-vm/gradlemodel/pkg/httpclientutil"
	"github.com/lima-vm/gradlemodel/pkg/localpathutil"
	"github.com/lima-vm/gradlemodel/pkg/lockutil"
	"github.com/lima-vm/gradlemodel/pkg/progressbar"
)

// HideProgress is used only for testing.
var HideProgress bool

type Status = string

const (
	StatusUnknown    Status = ""
	StatusDownloaded Status = "downloaded"
	StatusSkipped    Status = "skipped"
	StatusUsedCache  Status = "used-cache"
)

type Result struct {
	Status          Status
	CachePath       string // "<CACHE>/download/by-url-sha256/<SHA256_OF_URL>/data"
	LastModified    time.Time
	ContentType     string
	ValidatedDigest bool
}

type options struct {
	cacheDir       string // default: empty (disables caching)
	description    string // default: url
	expectedDigest digest.Digest
	client         *http.Client
}

func (o *options) apply(opts []Opt) error {
	for _, f := range opts {
		if err := f(o); err != nil {
			return err
		}
	}
	if o.client == nil {
		o.client = http.DefaultClient
	}
	return nil
}

type Opt func(*options) error

// WithCacheDir enables caching using the specified dir.
// Empty value disables caching.
func WithCacheDir(cacheDir string) Opt {
	return func(o *options) error {
		o.cacheDir = cacheDir
		return nil
	}
}

// WithDescription adds a user description of the download.
func WithDescription(description string) Opt {
	return func(o *options) error {
		o.description = description
		return nil
	}
}

// WithHTTPClient replaces http.DefaultClient.
func WithHTTPClient(c *http.Client) Opt {
	return func(o *options) error {
		o.client = c
		return nil
	}
}

// WithExpectedDigest is used to validate the downloaded file against the expected digest.
//
// When the cache entry already carries an `<ALGO>.digest` file, the recorded
// digest string is compared instead of hashing the data again.
func WithExpectedDigest(expectedDigest digest.Digest) Opt {
	return func(o *options) error {
		if expectedDigest != "" {
			if !expectedDigest.Algorithm().Available() {
				return fmt.Errorf("expected digest algorithm %q is not available", expectedDigest.Algorithm())
			}
			if err := expectedDigest.Validate(); err != nil {
				return err
			}
		}
		o.expectedDigest = expectedDigest
		return nil
	}
}

// IsLocal reports whether s names the local filesystem.
func IsLocal(s string) bool {
	return !strings.Contains(s, "://") || strings.HasPrefix(s, "file://")
}

// Download fetches remote into local.
//
// When local already exists, Download returns StatusSkipped without
// touching the network. local may be empty for "caching only" mode, which
// requires WithCacheDir.
func Download(ctx context.Context, local, remote string, opts ...Opt) (*Result, error) {
	var o options
	if err := o.apply(opts); err != nil {
		return nil, err
	}

	var localPath string
	if local == "" {
		if o.cacheDir == "" {
			return nil, errors.New("caching-only mode requires the cache directory to be specified")
		}
	} else {
		var err error
		localPath, err = localpathutil.Expand(local)
		if err != nil {
			return nil, err
		}
		if _, err := os.Stat(localPath); err == nil {
			logrus.Debugf("file %q already exists, skipping downloading from %q (and skipping digest validation)", localPath, remote)
			return &Result{Status: StatusSkipped}, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
		if err := os.MkdirAll(filepath.Dir(localPath), 0o755); err != nil {
			return nil, err
		}
	}

	if IsLocal(remote) {
		if err := copyLocal(localPath, remote, o.expectedDigest); err != nil {
			return nil, err
		}
		return &Result{
			Status:          StatusDownloaded,
			ValidatedDigest: o.expectedDigest != "",
		}, nil
	}

	if o.cacheDir == "" {
		if err := downloadHTTP(ctx, o.client, localPath, nil, remote, o.description, o.expectedDigest); err != nil {
			return nil, err
		}
		return &Result{
			Status:          StatusDownloaded,
			ValidatedDigest: o.expectedDigest != "",
		}, nil
	}

	entry, err := newCacheEntry(o.cacheDir, remote, o.expectedDigest)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(entry.dir, 0o700); err != nil {
		return nil, err
	}

	var res *Result
	err = lockutil.WithDirLock(entry.dir, func() error {
		var err error
		res, err = getCached(ctx, localPath, remote, entry, o)
		if err != nil || res != nil {
			return err
		}
		res, err = fetch(ctx, localPath, remote, entry, o)
		return err
	})
	return res, err
}

// cacheEntry is the layout of one cached URL:
//   - "url" file contains the url
//   - "data" file contains the data
//   - "time" file contains the Last-Modified header
//   - "type" file contains the Content-Type header
//   - "<ALGO>.digest" contains the validated digest, if any
type cacheEntry struct {
	dir    string
	data   string
	url    string
	time   string
	ctype  string
	digest string
}

func newCacheEntry(cacheDir, remote string, expectedDigest digest.Digest) (*cacheEntry, error) {
	dir := cacheDirectoryPath(cacheDir, remote)
	e := &cacheEntry{
		dir:   dir,
		data:  filepath.Join(dir, "data"),
		url:   filepath.Join(dir, "url"),
		time:  filepath.Join(dir, "time"),
		ctype: filepath.Join(dir, "type"),
	}
	if expectedDigest != "" {
		algo := expectedDigest.Algorithm().String()
		if strings.ContainsAny(algo, `/\`) {
			return nil, fmt.Errorf("invalid digest algorithm %q", algo)
		}
		e.digest = filepath.Join(dir, algo+".digest")
	}
	return e, nil
}

func (e *cacheEntry) result(status Status, validated bool) *Result {
	return &Result{
		Status:          status,
		CachePath:       e.data,
		LastModified:    readTime(e.time),
		ContentType:     readFile(e.ctype),
		ValidatedDigest: validated,
	}
}

// getCached copies the cached data to localPath. It returns nil, nil when the
// entry is absent or stale.
func getCached(ctx context.Context, localPath, remote string, e *cacheEntry, o options) (*Result, error) {
	if _, err := os.Stat(e.data); err != nil {
		return nil, nil
	}
	logrus.Debugf("%q is cached as %q", remote, e.data)
	if e.digest != "" && fileExists(e.digest) {
		if err := validateCachedDigest(e.digest, o.expectedDigest); err != nil {
			return nil, err
		}
		if err := copyLocal(localPath, e.data, ""); err != nil {
			return nil, err
		}
		return e.result(StatusUsedCache, true), nil
	}
	match, lmCached, lmRemote, err := matchLastModified(ctx, o.client, e.time, remote)
	switch {
	case err != nil:
		logrus.WithError(err).Info("Failed to retrieve last-modified for cached digest-less distribution; using cached distribution.")
	case !match:
		logrus.Infof("Re-downloading digest-less distribution: last-modified mismatch (cached: %q, remote: %q)", lmCached, lmRemote)
		return nil, nil
	}
	if err := copyLocal(localPath, e.data, o.expectedDigest); err != nil {
		return nil, err
	}
	return e.result(StatusUsedCache, o.expectedDigest != ""), nil
}

// fetch downloads remote into the cache entry and copies it to localPath.
func fetch(ctx context.Context, localPath, remote string, e *cacheEntry, o options) (*Result, error) {
	if err := os.WriteFile(e.url, []byte(remote), 0o644); err != nil {
		return nil, err
	}
	hdr := &headerFiles{lastModified: e.time, contentType: e.ctype}
	if err := downloadHTTP(ctx, o.client, e.data, hdr, remote, o.description, o.expectedDigest); err != nil {
		return nil, err
	}
	if e.digest != "" {
		if err := os.WriteFile(e.digest, []byte(o.expectedDigest.String()), 0o644); err != nil {
			return nil, err
		}
	}
	if err := copyLocal(localPath, e.data, ""); err != nil {
		return nil, err
	}
	return e.result(StatusDownloaded, o.expectedDigest != ""), nil
}

// Cached checks if the remote resource is in the cache, validating the digest when given.
func Cached(remote string, opts ...Opt) (*Result, error) {
	var o options
	if err := o.apply(opts); err != nil {
		return nil, err
	}
	if o.cacheDir == "" {
		return nil, errors.New("caching-only mode requires the cache directory to be specified")
	}
	if IsLocal(remote) {
		return nil, errors.New("local files are not cached")
	}
	e, err := newCacheEntry(o.cacheDir, remote, o.expectedDigest)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(e.data); err != nil {
		return nil, err
	}
	err = lockutil.WithDirLock(e.dir, func() error {
		if e.digest != "" && fileExists(e.digest) {
			return validateCachedDigest(e.digest, o.expectedDigest)
		}
		return validateLocalFileDigest(e.data, o.expectedDigest)
	})
	if err != nil {
		return nil, err
	}
	return e.result(StatusUsedCache, o.expectedDigest != ""), nil
}

func cacheDirectoryPath(cacheDir, remote string) string {
	return filepath.Join(cacheDir, "download", "by-url-sha256", CacheKey(remote))
}

func copyLocal(dst, src string, expectedDigest digest.Digest) error {
	srcPath, ok, err := localpathutil.FromLocation(src)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("got non-local path: %q", src)
	}
	if expectedDigest != "" {
		logrus.Debugf("verifying digest of local file %q (%s)", srcPath, expectedDigest)
	}
	if err := validateLocalFileDigest(srcPath, expectedDigest); err != nil {
		return err
	}
	if dst == "" {
		// caching-only mode
		return nil
	}
	return fs.CopyFile(dst, srcPath)
}

func validateCachedDigest(digestPath string, expectedDigest digest.Digest) error {
	if expectedDigest == "" {
		return nil
	}
	b, err := os.ReadFile(digestPath)
	if err != nil {
		return err
	}
	if got := strings.TrimSpace(string(b)); got != expectedDigest.String() {
		return fmt.Errorf("expected digest %q, got %q", expectedDigest, got)
	}
	return nil
}

func validateLocalFileDigest(localPath string, expectedDigest digest.Digest) error {
	if localPath == "" {
		return errors.New("validateLocalFileDigest: got empty localPath")
	}
	if expectedDigest == "" {
		return nil
	}
	algo := expectedDigest.Algorithm()
	if !algo.Available() {
		return fmt.Errorf("expected digest algorithm %q is not available", algo)
	}
	r, err := os.Open(localPath)
	if err != nil {
		return err
	}
	defer r.Close()
	actual, err := algo.FromReader(r)
	if err != nil {
		return err
	}
	if actual != expectedDigest {
		return fmt.Errorf("expected digest %q, got %q", expectedDigest, actual)
	}
	return nil
}

// matchLastModified compares the cached Last-Modified value with the remote one.
func matchLastModified(ctx context.Context, c *http.Client, lastModifiedPath, url string) (matched bool, lmCached, lmRemote string, err error) {
	lmCached = readFile(lastModifiedPath)
	if lmCached == "" {
		return false, "<not cached>", "<not checked>", nil
	}
	resp, err := httpclientutil.Head(ctx, c, url)
	if err != nil {
		return false, lmCached, "<failed to fetch remote>", err
	}
	defer resp.Body.Close()
	lmRemote = resp.Header.Get("Last-Modified")
	if lmRemote == "" {
		return false, lmCached, "<missing Last-Modified header>", nil
	}
	cachedTime, errCached := time.Parse(http.TimeFormat, lmCached)
	remoteTime, errRemote := time.Parse(http.TimeFormat, lmRemote)
	switch {
	case errCached != nil && errRemote != nil:
		return lmCached == lmRemote, lmCached, lmRemote, nil
	case errCached == nil && errRemote == nil:
		return remoteTime.Equal(cachedTime), lmCached, lmRemote, nil
	}
	return false, lmCached, lmRemote, nil
}

type headerFiles struct {
	lastModified string
	contentType  string
}

func downloadHTTP(ctx context.Context, c *http.Client, localPath string, hdr *headerFiles, url, description string, expectedDigest digest.Digest) error {
	if localPath == "" {
		return errors.New("downloadHTTP: got empty localPath")
	}
	logrus.Debugf("downloading %q into %q", url, localPath)

	resp, err := httpclientutil.Get(ctx, c, url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if hdr != nil {
		if err := os.WriteFile(hdr.lastModified, []byte(resp.Header.Get("Last-Modified")), 0o644); err != nil {
			return err
		}
		if err := os.WriteFile(hdr.contentType, []byte(resp.Header.Get("Content-Type")), 0o644); err != nil {
			return err
		}
	}
	bar, err := progressbar.New(resp.ContentLength)
	if err != nil {
		return err
	}
	if HideProgress {
		bar.Hide()
	}

	tmp := perProcessTempfile(localPath)
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	defer f.Close()
	defer os.RemoveAll(tmp)

	writers := []io.Writer{f}
	var digester digest.Digester
	if expectedDigest != "" {
		algo := expectedDigest.Algorithm()
		if !algo.Available() {
			return fmt.Errorf("unsupported digest algorithm %q", algo)
		}
		digester = algo.Digester()
		writers = append(writers, digester.Hash())
	}

	if !HideProgress {
		if description == "" {
			description = url
		}
		// stderr corresponds to the progress bar output
		fmt.Fprintf(os.Stderr, "Downloading %s\n", description)
	}
	bar.Start()
	if _, err := io.Copy(io.MultiWriter(writers...), bar.NewProxyReader(resp.Body)); err != nil {
		return err
	}
	bar.Finish()

	if digester != nil {
		if actual := digester.Digest(); actual != expectedDigest {
			return fmt.Errorf("expected digest %q, got %q", expectedDigest, actual)
		}
	}
	if err := f.Sync(); err != nil {
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, localPath)
}

var tempfileCount atomic.Uint64

// perProcessTempfile allows parallel downloads into the same cache entry:
// renaming the temporary file to the final name is atomic on posix.
func perProcessTempfile(path string) string {
	return fmt.Sprintf("%s.tmp.%d.%d", path, os.Getpid(), tempfileCount.Add(1))
}

// CacheEntries returns the cache entries, keyed by the SHA256 of the URL.
func CacheEntries(opts ...Opt) (map[string]string, error) {
	entries := make(map[string]string)
	var o options
	if err := o.apply(opts); err != nil {
		return nil, err
	}
	if o.cacheDir == "" {
		return entries, nil
	}
	downloadDir := filepath.Join(o.cacheDir, "download", "by-url-sha256")
	dirEntries, err := os.ReadDir(downloadDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return entries, nil
		}
		return nil, err
	}
	for _, de := range dirEntries {
		if !de.IsDir() {
			continue
		}
		entries[de.Name()] = filepath.Join(downloadDir, de.Name())
	}
	return entries, nil
}

// CacheKey returns the key for a cache entry of the remote URL.
func CacheKey(remote string) string {
	return fmt.Sprintf("%x", sha256.Sum256([]byte(remote)))
}

// RemoveAllCacheDir removes the cache directory.
func RemoveAllCacheDir(opts ...Opt) error {
	var o options
	if err := o.apply(opts); err != nil {
		return err
	}
	if o.cacheDir == "" {
		return nil
	}
	logrus.Infof("Pruning %q", o.cacheDir)
	return os.RemoveAll(o.cacheDir)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func readFile(path string) string {
	b, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return string(b)
}

func readTime(path string) time.Time {
	t, err := time.Parse(http.TimeFormat, readFile(path))
	if err != nil {
		return time.Time{}
	}
	return t
}
