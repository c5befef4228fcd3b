package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/npackd/npackd/internal/catalog"
	"github.com/npackd/npackd/internal/output"
)

var searchStatus string

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search the catalog by title, description, and name",
	Long: `search matches query against every package's lowercased title,
description, and name (the catalog's FULLTEXT column), splitting the
query into whitespace-separated keywords that must all match.`,
	Example: `  npackdcl search editor
  npackdcl search --status installed ""`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().StringVar(&searchStatus, "status", "", "filter by status: installed, updateable, not-installed")
}

func runSearch(cmd *cobra.Command, args []string) error {
	var query string
	if len(args) == 1 {
		query = args[0]
	}

	filter := catalog.SearchFilter{Query: query, Cat0: -1, Cat1: -1}
	if searchStatus != "" {
		st, ok := parseStatus(searchStatus)
		if !ok {
			return fmt.Errorf("unknown --status %q (want installed, updateable, or not-installed)", searchStatus)
		}
		filter.FilterByStatus = true
		filter.Status = st
	}

	store, err := openLiveStore()
	if err != nil {
		return err
	}
	defer store.Close()

	packages, err := store.SearchPackages(filter)
	if err != nil {
		return err
	}

	fmt.Print(output.RenderCatalogPackageTable(packages))
	return nil
}

func parseStatus(s string) (catalog.Status, bool) {
	switch strings.ToLower(s) {
	case "not-installed", "not_installed":
		return catalog.NotInstalled, true
	case "installed":
		return catalog.Installed, true
	case "updateable", "updatable":
		return catalog.Updateable, true
	default:
		return 0, false
	}
}
