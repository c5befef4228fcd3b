// Package cli wires cobra commands to the catalog core: every command
// constructor here owns its own *catalog.Store/*loader.Loader/oracle.Oracle
// handles rather than reaching for a package-level singleton, following
// SPEC_FULL's Design Note 9 resolution of the original's global
// Repository/WPMCPP instances.
package cli

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/npackd/npackd/internal/catalog"
	"github.com/npackd/npackd/internal/config"
	"github.com/npackd/npackd/internal/fetch"
	"github.com/npackd/npackd/internal/oracle"
)

var (
	dbPath string
	logger *slog.Logger

	// RootCmd is the root command for npackdcl.
	RootCmd = &cobra.Command{
		Use:   "npackdcl",
		Short: "Windows package management from the command line",
		Long: `npackdcl ingests one or more repository documents into a local
catalog, cross references it against what is actually installed, and
answers search/list/info queries against the result.

Quick Start:
  1. npackdcl repo add https://example.com/Rep.xml
  2. npackdcl update
  3. npackdcl search editor
  4. npackdcl info com.example.Editor

Examples:
  # Add a repository and refresh the catalog
  npackdcl repo add https://npackd.appspot.com/rep/recent-xml
  npackdcl update

  # Search for packages
  npackdcl search "text editor"

  # Show what is installed and what can be updated
  npackdcl list --status updateable

  # Run a recurring background refresh
  npackdcl watch --daemon`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

func init() {
	RootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "catalog database path (default: <config-dir>/npackd/catalog.db)")
	RootCmd.SuggestionsMinimumDistance = 2

	logger = slog.New(slog.NewTextHandler(os.Stderr, nil))

	RootCmd.AddCommand(updateCmd)
	RootCmd.AddCommand(searchCmd)
	RootCmd.AddCommand(listCmd)
	RootCmd.AddCommand(infoCmd)
	RootCmd.AddCommand(categoriesCmd)
	RootCmd.AddCommand(repoCmd)
	RootCmd.AddCommand(statusCmd)
	RootCmd.AddCommand(watchCmd)
}

// Execute runs the root command.
func Execute() error {
	return RootCmd.Execute()
}

// getDBPath returns the catalog database path, using the --db flag or the
// SPEC_FULL §6 default of <config-dir>/npackd/catalog.db.
func getDBPath() (string, error) {
	if dbPath != "" {
		return dbPath, nil
	}

	dir, err := config.Dir()
	if err != nil {
		return "", fmt.Errorf("resolve config directory: %w", err)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create config directory: %w", err)
	}
	return filepath.Join(dir, "catalog.db"), nil
}

// openLiveStore opens the live catalog store at the configured path,
// creating the schema on first use.
func openLiveStore() (*catalog.Store, error) {
	path, err := getDBPath()
	if err != nil {
		return nil, err
	}
	return catalog.Open(path, false)
}

// cacheDirPath returns the download cache directory, creating it if
// necessary.
func cacheDirPath() (string, error) {
	dir, err := config.Dir()
	if err != nil {
		return "", err
	}
	cacheDir := filepath.Join(dir, "cache")
	if err := os.MkdirAll(cacheDir, 0755); err != nil {
		return "", err
	}
	return cacheDir, nil
}

// newFetcher returns a Fetcher caching downloads under the config
// directory's "cache" subdirectory.
func newFetcher() (*fetch.Fetcher, error) {
	cacheDir, err := cacheDirPath()
	if err != nil {
		return nil, err
	}
	return fetch.NewFetcher(cacheDir), nil
}

// installRootPath returns the directory Generic treats as the current
// install root, creating it if necessary.
func installRootPath() (string, error) {
	dir, err := config.Dir()
	if err != nil {
		return "", err
	}
	installRoot := filepath.Join(dir, "installed")
	if err := os.MkdirAll(installRoot, 0755); err != nil {
		return "", err
	}
	return installRoot, nil
}

// newOracle returns the installation oracle for the current platform.
// Generic is always the base; platform build tags layer on top in
// platform_windows.go / platform_other.go (oracle.Windows embeds *Generic).
func newOracle() (oracle.Oracle, error) {
	dir, err := config.Dir()
	if err != nil {
		return nil, err
	}
	installRoot, err := installRootPath()
	if err != nil {
		return nil, err
	}
	ignore, err := config.LoadIgnore(dir)
	if err != nil {
		return nil, err
	}
	g := oracle.NewGeneric(installRoot, "", false, ignore)
	return newPlatformOracle(g), nil
}

// stagingDir returns the scratch directory for the loader's staging
// database and downloaded temp files.
func stagingDir() (string, error) {
	dir, err := config.Dir()
	if err != nil {
		return "", err
	}
	staging := filepath.Join(dir, "staging")
	if err := os.MkdirAll(staging, 0755); err != nil {
		return "", err
	}
	return staging, nil
}
