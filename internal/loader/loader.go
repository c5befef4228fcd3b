// Package loader implements the two-phase refresh: download every
// configured repository document in parallel, parse them sequentially
// in declared order into a scratch staging catalog, ask the
// installation oracle to refresh its own knowledge, recompute status,
// and finally swap the staging catalog onto the live one atomically.
package loader

import (
	"context"
	"crypto/sha1"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"golang.org/x/sync/errgroup"

	"github.com/npackd/npackd/internal/catalog"
	"github.com/npackd/npackd/internal/catalogerr"
	"github.com/npackd/npackd/internal/fetch"
	"github.com/npackd/npackd/internal/job"
	"github.com/npackd/npackd/internal/oracle"
	"github.com/npackd/npackd/internal/repodoc"
	"github.com/npackd/npackd/internal/version"
)

// maxParallelFetches bounds the download worker pool, mirroring the
// original's single shared thread pool for repository downloads.
const maxParallelFetches = 4

// Loader drives a refresh against a live catalog store, using fetcher to
// download repository documents and oc to probe what is installed
// locally.
type Loader struct {
	fetcher    *fetch.Fetcher
	oracle     oracle.Oracle
	stagingDir string
}

// New returns a Loader. stagingDir holds scratch catalog files for the
// duration of a single refresh; "" uses os.TempDir().
func New(fetcher *fetch.Fetcher, oc oracle.Oracle, stagingDir string) *Loader {
	return &Loader{fetcher: fetcher, oracle: oc, stagingDir: stagingDir}
}

type fetchResult struct {
	tf  *fetch.TempFile
	err error
}

// Refresh runs the full refresh-to-live procedure against live, fetching
// repoURLs in declared order (first repository wins on any key both
// declare, since ingestion uses replace=false).
func (l *Loader) Refresh(ctx context.Context, live *catalog.Store, repoURLs []string, useCache bool, j *job.Job) error {
	stagingPath := filepath.Join(l.stagingDirOrDefault(), fmt.Sprintf("npackd-staging-%s.sqlite", uuid.NewString()))
	defer os.Remove(stagingPath)

	staging, err := catalog.Open(stagingPath, false)
	if err != nil {
		return &catalogerr.IOError{Path: stagingPath, Err: err}
	}
	defer staging.Close()

	clearSub := j.NewSubJob(0.05, "clearing staging catalog")
	if err := staging.Clear(clearSub); err != nil {
		j.SetError(err.Error())
		return err
	}
	clearSub.CompleteWithProgress()

	repoIDs, err := staging.SetRepositories(repoURLs)
	if err != nil {
		j.SetError(err.Error())
		return err
	}

	fetchSub := j.NewSubJob(0.25, "downloading repositories")
	results, err := l.fetchAll(ctx, fetchSub, repoURLs, useCache)
	defer func() {
		for _, r := range results {
			if r.tf != nil {
				r.tf.Close()
			}
		}
	}()
	if err != nil {
		j.SetError(err.Error())
		return err
	}
	fetchSub.CompleteWithProgress()

	parseSub := j.NewSubJob(0.25, "parsing repository documents")
	if err := l.parseAll(staging, repoURLs, repoIDs, results); err != nil {
		j.SetError(err.Error())
		return err
	}
	parseSub.CompleteWithProgress()

	oracleSub := j.NewSubJob(0.25, "refreshing installation oracle")
	if err := l.oracle.Refresh(staging, oracleSub); err != nil {
		j.SetError(err.Error())
		return err
	}
	oracleSub.CompleteWithProgress()

	housekeepingSub := j.NewSubJob(0.05, "orphan cleanup and status recompute")
	if err := l.housekeep(staging); err != nil {
		housekeepingSub.SetError(err.Error())
		j.SetError(err.Error())
		return err
	}
	housekeepingSub.CompleteWithProgress()

	transferSub := j.NewSubJob(0.15, "swapping staging catalog onto live")
	if err := live.TransferFrom(transferSub, stagingPath); err != nil {
		j.SetError(err.Error())
		return err
	}
	transferSub.CompleteWithProgress()

	return nil
}

// fetchAll downloads every repository URL concurrently, bounded at
// maxParallelFetches, joining all of them before reporting back — a
// failing download does not cancel its siblings, so a multi-repository
// failure can name every repository that failed, not just the first.
func (l *Loader) fetchAll(ctx context.Context, j *job.Job, urls []string, useCache bool) ([]fetchResult, error) {
	results := make([]fetchResult, len(urls))

	var mu sync.Mutex
	var g errgroup.Group
	g.SetLimit(maxParallelFetches)

	weight := 1.0
	if len(urls) > 0 {
		weight = 1.0 / float64(len(urls))
	}

	for i, u := range urls {
		i, u := i, u
		sub := j.NewSubJob(weight, "downloading "+u)
		g.Go(func() error {
			tf, err := l.fetcher.Download(ctx, sub, u, useCache, "sha1")
			mu.Lock()
			results[i] = fetchResult{tf: tf, err: err}
			mu.Unlock()
			sub.CompleteWithProgress()
			return nil // errors are aggregated below, not propagated through the group
		})
	}
	g.Wait() //nolint:errcheck — workers never return a non-nil error themselves

	var merr *multierror.Error
	for i, r := range results {
		if r.err != nil {
			merr = multierror.Append(merr, fmt.Errorf("%s: %w", urls[i], r.err))
		}
	}
	// results is returned regardless of merr so the caller can still close
	// every temp file a successful sibling download produced.
	return results, merr.ErrorOrNil()
}

// parseAll ingests each downloaded document into staging, strictly in
// declared order, tagging every package row with its repository's ID. A parse
// failure aborts the whole refresh, matching the "stop on first
// ingestion error" rule.
func (l *Loader) parseAll(staging *catalog.Store, urls []string, repoIDs []int64, results []fetchResult) error {
	for i, r := range results {
		data, err := os.ReadFile(r.tf.Path)
		if err != nil {
			return &catalogerr.IOError{Path: r.tf.Path, Err: err}
		}

		data, err = repodoc.Unwrap(data)
		if err != nil {
			return err
		}

		target := &taggingRepository{target: staging, repositoryID: repoIDs[i]}
		if err := repodoc.Parse(urls[i], data, target, false); err != nil {
			return err
		}

		if err := staging.SetRepositorySHA1(repoIDs[i], hexSHA1(data)); err != nil {
			return err
		}
	}
	return nil
}

// housekeep deletes packages with zero versions and recomputes status
// for every package the oracle found an installed version of.
func (l *Loader) housekeep(staging *catalog.Store) error {
	if _, err := staging.DB().Exec(
		"DELETE FROM PACKAGE WHERE NAME NOT IN (SELECT DISTINCT PACKAGE FROM PACKAGE_VERSION)",
	); err != nil {
		return &catalogerr.SchemaError{Query: "delete orphan packages", Err: err}
	}

	installed, err := l.oracle.EnumerateInstalled()
	if err != nil {
		return err
	}
	byPackage := make(map[string][]version.Version)
	for _, ipv := range installed {
		byPackage[ipv.Package] = append(byPackage[ipv.Package], ipv.Version)
	}
	return staging.UpdateStatusForInstalled(byPackage)
}

func (l *Loader) stagingDirOrDefault() string {
	if l.stagingDir != "" {
		return l.stagingDir
	}
	return os.TempDir()
}

func hexSHA1(data []byte) string {
	sum := sha1.Sum(data)
	return fmt.Sprintf("%x", sum)
}

// taggingRepository wraps a catalog.RepositoryWriter so every upserted package
// is stamped with the repository it came from, without repodoc itself
// needing to know about repository IDs.
type taggingRepository struct {
	target       catalog.RepositoryWriter
	repositoryID int64
}

func (t *taggingRepository) UpsertPackage(p *catalog.Package, replace bool) error {
	p.Repository = t.repositoryID
	return t.target.UpsertPackage(p, replace)
}

func (t *taggingRepository) UpsertPackageVersion(pv *catalog.PackageVersion, replace bool) error {
	return t.target.UpsertPackageVersion(pv, replace)
}

func (t *taggingRepository) UpsertLicense(lic *catalog.License, replace bool) error {
	return t.target.UpsertLicense(lic, replace)
}

func (t *taggingRepository) InsertCategory(parent int64, level int, name string) (int64, error) {
	return t.target.InsertCategory(parent, level, name)
}

var _ catalog.RepositoryWriter = (*taggingRepository)(nil)
