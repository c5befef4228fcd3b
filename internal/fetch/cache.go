package fetch

import (
	"context"
	"crypto/sha1"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// cachePath returns the on-disk path for rawURL's cached entry: the
// cache directory is content-addressed by the SHA-1 of the URL itself,
// not of the artifact, so a lookup never requires downloading anything.
func (f *Fetcher) cachePath(rawURL string) string {
	sum := sha1.Sum([]byte(rawURL))
	return filepath.Join(f.cacheDir, fmt.Sprintf("%x", sum))
}

func (f *Fetcher) cacheLookup(rawURL, hashAlg string) (*TempFile, bool) {
	path := f.cachePath(rawURL)
	info, err := os.Stat(path)
	if err != nil {
		return nil, false
	}

	tf := &TempFile{Path: path, Size: info.Size()}
	if hashAlg != "" {
		h, err := hashFile(path, hashAlg)
		if err != nil {
			return nil, false
		}
		tf.Hash = h
	}
	return tf, true
}

// cacheStore copies tf's content into the cache directory, keyed by
// rawURL. The Fetcher's own TempFile continues to point at its original
// temporary path; the cache entry is an independent copy so Download's
// caller remains free to delete its TempFile without evicting the cache.
func (f *Fetcher) cacheStore(rawURL string, tf *TempFile) {
	if err := os.MkdirAll(f.cacheDir, 0755); err != nil {
		return
	}

	src, err := os.Open(tf.Path)
	if err != nil {
		return
	}
	defer src.Close()

	dst, err := os.CreateTemp(f.cacheDir, "tmp-*")
	if err != nil {
		return
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(dst.Name())
		return
	}
	dst.Close()

	os.Rename(dst.Name(), f.cachePath(rawURL))
}

func hashFile(path, alg string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := newHasher(alg)
	if h == nil {
		return "", nil
	}
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hexSum(h), nil
}

// WatchCache watches cacheDir for externally triggered eviction (an
// operator running "rm -rf" on the cache by hand while a daemon is
// running) and calls onEvict with the removed entry's path. It blocks
// until ctx is cancelled.
func WatchCache(ctx context.Context, cacheDir string, onEvict func(path string)) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(cacheDir); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-w.Events:
			if !ok {
				return nil
			}
			if event.Has(fsnotify.Remove) {
				onEvict(event.Name)
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			if err != nil {
				return err
			}
		}
	}
}
