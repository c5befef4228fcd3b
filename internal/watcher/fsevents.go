package watcher

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/npackd/npackd/internal/catalog"
	"github.com/npackd/npackd/internal/fetch"
	"github.com/npackd/npackd/internal/job"
	"github.com/npackd/npackd/internal/loader"
	"github.com/npackd/npackd/internal/oracle"
	"github.com/npackd/npackd/internal/version"
)

// Watcher periodically re-runs the loader's refresh against the live
// catalog, the polling counterpart to an on-demand one-shot refresh. It
// also, when installRoot/cacheDir are non-empty, runs two fsnotify
// watches alongside the ticker: one triggers a targeted oracle re-probe
// and status recompute on install/uninstall, without waiting for the
// next full tick; the other only logs when the download cache is cleared
// out from under a running daemon.
//
// Despite the file name carried over from the teacher (whose own
// "fsevents" watcher was in fact a plain ticker polling a log file, not
// a real filesystem-event API), the ticker loop here is still a plain
// ticker — it is the install-root and cache watches that use real
// fsnotify events.
type Watcher struct {
	store    *catalog.Store
	loader   *loader.Loader
	oracle   oracle.Oracle
	interval time.Duration
	repos    func() ([]string, error)

	installRoot string
	cacheDir    string
	logger      *slog.Logger

	stopCh      chan struct{}
	wg          sync.WaitGroup
	ticker      *time.Ticker
	cancelWatch context.CancelFunc
}

// New creates a Watcher that refreshes store through ld every interval,
// fetching the repository list to refresh from repos on each tick (so a
// concurrently edited repository list takes effect without a restart).
// oc is the same oracle instance ld was built with, so the targeted
// re-probe triggered by an install-root change shares its installed-set
// state with the ticker's full refreshes. installRoot and cacheDir are
// optional (pass "" to disable the corresponding watch).
func New(store *catalog.Store, ld *loader.Loader, oc oracle.Oracle, interval time.Duration, repos func() ([]string, error), installRoot, cacheDir string) (*Watcher, error) {
	if store == nil {
		return nil, fmt.Errorf("store cannot be nil")
	}
	if ld == nil {
		return nil, fmt.Errorf("loader cannot be nil")
	}
	return &Watcher{
		store:       store,
		loader:      ld,
		oracle:      oc,
		interval:    interval,
		repos:       repos,
		installRoot: installRoot,
		cacheDir:    cacheDir,
		logger:      slog.New(slog.NewTextHandler(os.Stderr, nil)),
		stopCh:      make(chan struct{}),
	}, nil
}

// Start runs an immediate refresh, then repeats it every interval until
// Stop is called. If installRoot/cacheDir were given to New, it also
// starts their fsnotify watches.
func (w *Watcher) Start() error {
	if err := w.refresh(); err != nil {
		fmt.Fprintf(os.Stderr, "watcher: initial refresh: %v\n", err)
	}

	w.ticker = time.NewTicker(w.interval)

	w.wg.Add(1)
	go w.run()

	ctx, cancel := context.WithCancel(context.Background())
	w.cancelWatch = cancel

	if w.oracle != nil && w.installRoot != "" {
		w.wg.Add(1)
		go w.watchInstallRoot(ctx)
	}
	if w.cacheDir != "" {
		w.wg.Add(1)
		go w.watchCache(ctx)
	}

	return nil
}

func (w *Watcher) run() {
	defer w.wg.Done()

	for {
		select {
		case <-w.ticker.C:
			if err := w.refresh(); err != nil {
				fmt.Fprintf(os.Stderr, "watcher: refresh error: %v\n", err)
			}
		case <-w.stopCh:
			return
		}
	}
}

func (w *Watcher) refresh() error {
	urls, err := w.repos()
	if err != nil {
		return err
	}
	j := job.New("scheduled refresh")
	return w.loader.Refresh(context.Background(), w.store, urls, true, j)
}

// watchInstallRoot runs oracle.Watch against installRoot for the
// lifetime of ctx, triggering a targeted re-probe on every create/remove
// so a manual install or uninstall is picked up without waiting for the
// next ticker refresh.
func (w *Watcher) watchInstallRoot(ctx context.Context) {
	defer w.wg.Done()

	err := oracle.Watch(ctx, w.installRoot, w.onInstallChange)
	if err != nil && ctx.Err() == nil {
		w.logger.Error("install root watch stopped", "error", err)
	}
}

// onInstallChange re-runs the oracle's probes and recomputes catalog
// status for whatever it finds installed, the same status-recompute step
// loader.housekeep runs after a full refresh, but without the network
// fetch or staging-to-live swap a full refresh requires.
func (w *Watcher) onInstallChange(path string) {
	j := job.New(fmt.Sprintf("re-probe: %s", path))
	if err := w.oracle.Refresh(w.store, j); err != nil {
		w.logger.Error("targeted re-probe failed", "path", path, "error", err)
		return
	}

	installed, err := w.oracle.EnumerateInstalled()
	if err != nil {
		w.logger.Error("enumerate installed after re-probe failed", "path", path, "error", err)
		return
	}

	byPackage := make(map[string][]version.Version)
	for _, ipv := range installed {
		byPackage[ipv.Package] = append(byPackage[ipv.Package], ipv.Version)
	}
	if err := w.store.UpdateStatusForInstalled(byPackage); err != nil {
		w.logger.Error("status recompute after re-probe failed", "path", path, "error", err)
	}
}

// watchCache runs fetch.WatchCache against cacheDir for the lifetime of
// ctx, so an operator clearing the cache by hand while a daemon is
// running shows up in the daemon's own log instead of going unnoticed.
func (w *Watcher) watchCache(ctx context.Context) {
	defer w.wg.Done()

	err := fetch.WatchCache(ctx, w.cacheDir, w.onCacheEvict)
	if err != nil && ctx.Err() == nil {
		w.logger.Error("cache watch stopped", "error", err)
	}
}

func (w *Watcher) onCacheEvict(path string) {
	w.logger.Info("cache entry evicted externally", "path", path)
}

// Stop halts the polling loop and any fsnotify watches. Any refresh
// already in progress is left to run to completion; Stop does not
// cancel it.
func (w *Watcher) Stop() error {
	close(w.stopCh)

	if w.ticker != nil {
		w.ticker.Stop()
	}
	if w.cancelWatch != nil {
		w.cancelWatch()
	}

	w.wg.Wait()
	return nil
}
