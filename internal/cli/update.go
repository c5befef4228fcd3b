package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/npackd/npackd/internal/config"
	"github.com/npackd/npackd/internal/job"
	"github.com/npackd/npackd/internal/loader"
	"github.com/npackd/npackd/internal/progress"
)

var updateNoCache bool

var updateCmd = &cobra.Command{
	Use:     "update",
	Aliases: []string{"refresh"},
	Short:   "Download every configured repository and rebuild the catalog",
	Long: `update runs the two-phase catalog refresh: every configured
repository document is downloaded in parallel, parsed in declared order
(first repository wins on a conflicting package name), cross referenced
against the installation oracle, and swapped onto the live catalog
atomically. A failure in any repository aborts the refresh before the
live catalog is touched; every failing repository is reported, not just
the first.`,
	Example: `  # Refresh using cached downloads where available
  npackdcl update

  # Force a fresh download of every repository
  npackdcl update --no-cache`,
	RunE: runUpdate,
}

func init() {
	updateCmd.Flags().BoolVar(&updateNoCache, "no-cache", false, "bypass the on-disk download cache")
}

func runUpdate(cmd *cobra.Command, args []string) error {
	dir, err := config.Dir()
	if err != nil {
		return err
	}
	repos, err := config.LoadRepositories(dir)
	if err != nil {
		return fmt.Errorf("load repository list: %w", err)
	}
	if len(repos) == 0 {
		fmt.Println("no repositories configured — run 'npackdcl repo add <url>' first")
		return nil
	}

	store, err := openLiveStore()
	if err != nil {
		return err
	}
	defer store.Close()

	fetcher, err := newFetcher()
	if err != nil {
		return err
	}
	oc, err := newOracle()
	if err != nil {
		return err
	}
	staging, err := stagingDir()
	if err != nil {
		return err
	}

	ld := loader.New(fetcher, oc, staging)

	j := job.New("refresh")
	progress.NewReporter(j, os.Stdout, os.Stderr)

	if err := ld.Refresh(context.Background(), store, repos, !updateNoCache, j); err != nil {
		logger.Error("refresh failed", "error", err)
		return err
	}

	return nil
}
