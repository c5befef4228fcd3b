// Package watcher drives a periodic catalog refresh, plus event-driven
// reactions to local filesystem changes between ticks.
//
// Watcher wraps a loader.Loader in a time.Ticker loop, re-running the
// two-phase refresh against a live catalog.Store on a fixed interval so a
// long-running daemon notices new repository releases without an
// operator re-invoking a one-shot refresh. Alongside the ticker, it
// watches the oracle's install root with oracle.Watch and the download
// cache with fetch.WatchCache: an install-root change triggers a
// targeted oracle re-probe and catalog status recompute immediately,
// rather than waiting for the next tick, and a cleared cache is logged
// rather than silently causing the next download to miss. Daemon mode
// forks the current executable, tracks it with a PID file, and shuts it
// down cleanly on SIGTERM/SIGINT.
//
// Example usage:
//
//	w, err := watcher.New(store, ld, oc, time.Hour, loadRepos, installRoot, cacheDir)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	// Foreground
//	if err := w.Start(); err != nil {
//		log.Fatal(err)
//	}
//	defer w.Stop()
//
//	// Or as a daemon
//	if err := w.StartDaemon("/tmp/npackd-watch.pid", "/tmp/npackd-watch.log"); err != nil {
//		log.Fatal(err)
//	}
package watcher
