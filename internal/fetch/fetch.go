// Package fetch implements the download pipeline: a single artifact
// fetched over http://, https://, or a data: URI, with transparent gzip
// decoding, streaming hash computation, cache-aware reuse, and
// cooperative cancellation through the job tree.
package fetch

import (
	"compress/gzip"
	"context"
	"crypto/sha1"
	"encoding/base64"
	"fmt"
	"hash"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/npackd/npackd/internal/catalogerr"
	"github.com/npackd/npackd/internal/job"
)

// TempFile is the result of a successful Download: a file on disk, the
// number of decoded bytes it holds, and the hex-encoded hash computed
// over those decoded bytes (empty if hashAlg was empty).
type TempFile struct {
	Path string
	Size int64
	Hash string
}

// Close removes the underlying temporary file.
func (t *TempFile) Close() error {
	return os.Remove(t.Path)
}

// chunkSize is the buffer size used between cancellation polls, matching
// the granularity the job tree's ShouldProceed is meant to be checked at.
const chunkSize = 32 * 1024

// Fetcher downloads artifacts with an optional on-disk cache and a
// per-host circuit breaker, so a single chronically unreachable
// repository doesn't hold up every other repository's download during a
// refresh.
type Fetcher struct {
	client   *http.Client
	cacheDir string
	breakers *breakerSet
}

// NewFetcher returns a Fetcher. cacheDir may be empty, in which case
// useCache is always treated as false regardless of what callers pass to
// Download.
func NewFetcher(cacheDir string) *Fetcher {
	return &Fetcher{
		client: &http.Client{
			Transport: &http.Transport{
				DisableCompression: true, // we decode gzip ourselves, over the raw bytes
			},
		},
		cacheDir: cacheDir,
		breakers: newBreakerSet(),
	}
}

// Download fetches url, decodes it fully to a temporary file, and
// returns that file along with its decoded size and hash. hashAlg
// selects the hash algorithm; only "sha1" and "" (no hash) are
// supported, matching the one algorithm the catalog's detect-file and
// repository-document pinning ever uses. useCache first checks (and, on
// a miss, populates) the on-disk URL cache.
func (f *Fetcher) Download(ctx context.Context, j *job.Job, rawURL string, useCache bool, hashAlg string) (*TempFile, error) {
	if useCache && f.cacheDir != "" {
		if tf, ok := f.cacheLookup(rawURL, hashAlg); ok {
			j.CompleteWithProgress()
			return tf, nil
		}
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, &catalogerr.TransportError{URL: rawURL, Err: fmt.Errorf("parse url: %w", err)}
	}

	var tf *TempFile
	switch u.Scheme {
	case "http", "https":
		tf, err = f.downloadHTTP(ctx, j, rawURL, hashAlg)
	case "data":
		tf, err = downloadDataURI(rawURL, hashAlg)
	default:
		return nil, &catalogerr.TransportError{URL: rawURL, Err: fmt.Errorf("unsupported scheme %q", u.Scheme)}
	}
	if err != nil {
		return nil, err
	}

	if useCache && f.cacheDir != "" {
		f.cacheStore(rawURL, tf)
	}

	j.CompleteWithProgress()
	return tf, nil
}

func (f *Fetcher) downloadHTTP(ctx context.Context, j *job.Job, rawURL, hashAlg string) (*TempFile, error) {
	host := hostOf(rawURL)
	breaker := f.breakers.get(host)
	if !breaker.Ready() {
		return nil, &catalogerr.TransportError{URL: rawURL, Err: fmt.Errorf("circuit open for %s", host)}
	}

	var tf *TempFile
	err := breaker.Call(func() error {
		var callErr error
		tf, callErr = f.doHTTP(ctx, j, rawURL, hashAlg)
		return callErr
	}, 0)
	if err != nil {
		return nil, err
	}
	return tf, nil
}

func (f *Fetcher) doHTTP(ctx context.Context, j *job.Job, rawURL, hashAlg string) (*TempFile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, &catalogerr.TransportError{URL: rawURL, Err: err}
	}
	req.Header.Set("Accept-Encoding", "gzip")

	resp, err := doWithRetry(f.client, req)
	if err != nil {
		return nil, &catalogerr.TransportError{URL: rawURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, &catalogerr.TransportError{URL: rawURL, StatusCode: resp.StatusCode}
	}

	body := resp.Body
	if strings.EqualFold(resp.Header.Get("Content-Encoding"), "gzip") {
		gz, err := gzip.NewReader(body)
		if err != nil {
			return nil, &catalogerr.TransportError{URL: rawURL, Err: fmt.Errorf("gzip: %w", err)}
		}
		defer gz.Close()
		body = gz
	}

	contentLength := parseContentLength(resp.Header.Get("Content-Length"))
	return streamToTempFile(j, rawURL, body, contentLength, hashAlg)
}

// downloadDataURI decodes a "data:image/png;base64,..." URI in memory;
// no network, no job progress beyond completion, since the whole payload
// is already local.
func downloadDataURI(rawURL, hashAlg string) (*TempFile, error) {
	idx := strings.Index(rawURL, ",")
	if idx < 0 || !strings.Contains(rawURL[:idx], "base64") {
		return nil, &catalogerr.TransportError{URL: rawURL, Err: fmt.Errorf("unsupported data URI encoding")}
	}
	decoded, err := base64.StdEncoding.DecodeString(rawURL[idx+1:])
	if err != nil {
		return nil, &catalogerr.TransportError{URL: rawURL, Err: fmt.Errorf("decode data URI: %w", err)}
	}

	out, err := os.CreateTemp("", "npackd-fetch-*")
	if err != nil {
		return nil, &catalogerr.IOError{Path: "", Err: err}
	}
	defer out.Close()

	h := newHasher(hashAlg)
	var w io.Writer = out
	if h != nil {
		w = io.MultiWriter(out, h)
	}
	if _, err := w.Write(decoded); err != nil {
		os.Remove(out.Name())
		return nil, &catalogerr.IOError{Path: out.Name(), Err: err}
	}

	return &TempFile{Path: out.Name(), Size: int64(len(decoded)), Hash: hexSum(h)}, nil
}

// streamToTempFile copies src into a new temp file chunkSize bytes at a
// time, polling j.ShouldProceed between chunks and updating progress
// against contentLength when it is known.
func streamToTempFile(j *job.Job, rawURL string, src io.Reader, contentLength int64, hashAlg string) (*TempFile, error) {
	out, err := os.CreateTemp("", "npackd-fetch-*")
	if err != nil {
		return nil, &catalogerr.IOError{Path: "", Err: err}
	}
	defer out.Close()

	h := newHasher(hashAlg)
	var w io.Writer = out
	if h != nil {
		w = io.MultiWriter(out, h)
	}

	buf := make([]byte, chunkSize)
	var total int64
	for {
		if !j.ShouldProceed() {
			os.Remove(out.Name())
			return nil, &catalogerr.Cancelled{JobTitle: j.Title()}
		}

		n, readErr := src.Read(buf)
		if n > 0 {
			if _, werr := w.Write(buf[:n]); werr != nil {
				os.Remove(out.Name())
				return nil, &catalogerr.IOError{Path: out.Name(), Err: werr}
			}
			total += int64(n)
			if contentLength > 0 {
				j.SetProgress(float64(total) / float64(contentLength))
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			os.Remove(out.Name())
			return nil, &catalogerr.TransportError{URL: rawURL, Err: readErr}
		}
	}

	return &TempFile{Path: out.Name(), Size: total, Hash: hexSum(h)}, nil
}

func newHasher(alg string) hash.Hash {
	switch alg {
	case "sha1":
		return sha1.New()
	default:
		return nil
	}
}

func hexSum(h hash.Hash) string {
	if h == nil {
		return ""
	}
	return fmt.Sprintf("%x", h.Sum(nil))
}

func parseContentLength(s string) int64 {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return n
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return rawURL
	}
	return u.Host
}
