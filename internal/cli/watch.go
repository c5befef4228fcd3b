package cli

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/npackd/npackd/internal/config"
	"github.com/npackd/npackd/internal/loader"
	"github.com/npackd/npackd/internal/watcher"
)

var (
	watchDaemon      bool
	watchDaemonChild bool
	watchStop        bool
	watchPIDFile     string
	watchLogFile     string
	watchInterval    time.Duration

	watchCmd = &cobra.Command{
		Use:   "watch",
		Short: "Refresh the catalog on a recurring interval",
		Long: `watch runs the same two-phase refresh as update, repeated on a
fixed interval, so a long-running process picks up new repository
releases without the operator re-invoking update by hand.`,
		Example: `  # Run in foreground (Ctrl+C to stop)
  npackdcl watch

  # Run as a background daemon
  npackdcl watch --daemon

  # Stop a running daemon
  npackdcl watch --stop`,
		RunE: runWatch,
	}
)

func init() {
	watchCmd.Flags().BoolVar(&watchDaemon, "daemon", false, "run as a background daemon")
	watchCmd.Flags().BoolVar(&watchDaemonChild, "daemon-child", false, "internal flag for the daemon child process")
	watchCmd.Flags().BoolVar(&watchStop, "stop", false, "stop a running daemon")
	watchCmd.Flags().StringVar(&watchPIDFile, "pid-file", "", "PID file path (default: <config-dir>/npackd/watch.pid)")
	watchCmd.Flags().StringVar(&watchLogFile, "log-file", "", "log file path (default: <config-dir>/npackd/watch.log)")
	watchCmd.Flags().DurationVar(&watchInterval, "interval", time.Hour, "refresh interval")

	watchCmd.Flags().MarkHidden("daemon-child")
}

func runWatch(cmd *cobra.Command, args []string) error {
	pidFile, logFile, err := watchPaths()
	if err != nil {
		return err
	}

	if watchStop {
		return watcher.StopDaemon(pidFile)
	}

	w, err := newWatcher()
	if err != nil {
		return err
	}

	if watchDaemonChild {
		return w.RunDaemon(pidFile)
	}

	if watchDaemon {
		if err := w.StartDaemon(pidFile, logFile); err != nil {
			return err
		}
		fmt.Printf("watch daemon started (PID file: %s)\n", pidFile)
		return nil
	}

	if err := w.Start(); err != nil {
		return err
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
	<-sigCh

	return w.Stop()
}

func newWatcher() (*watcher.Watcher, error) {
	store, err := openLiveStore()
	if err != nil {
		return nil, err
	}
	fetcher, err := newFetcher()
	if err != nil {
		return nil, err
	}
	oc, err := newOracle()
	if err != nil {
		return nil, err
	}
	staging, err := stagingDir()
	if err != nil {
		return nil, err
	}
	ld := loader.New(fetcher, oc, staging)

	installRoot, err := installRootPath()
	if err != nil {
		return nil, err
	}
	cacheDir, err := cacheDirPath()
	if err != nil {
		return nil, err
	}

	repos := func() ([]string, error) {
		dir, err := config.Dir()
		if err != nil {
			return nil, err
		}
		return config.LoadRepositories(dir)
	}

	return watcher.New(store, ld, oc, watchInterval, repos, installRoot, cacheDir)
}

func watchPaths() (pidFile, logFile string, err error) {
	dir, err := config.Dir()
	if err != nil {
		return "", "", err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", "", err
	}

	pidFile = watchPIDFile
	if pidFile == "" {
		pidFile = filepath.Join(dir, "watch.pid")
	}
	logFile = watchLogFile
	if logFile == "" {
		logFile = filepath.Join(dir, "watch.log")
	}
	return pidFile, logFile, nil
}
