package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/npackd/npackd/internal/catalog"
	"github.com/npackd/npackd/internal/graph"
	"github.com/npackd/npackd/internal/job"
	"github.com/npackd/npackd/internal/output"
)

var (
	listStatus string
	listDirect bool
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List catalog packages, defaulting to what is installed",
	Long: `list shows every catalog package matching --status, defaulting
to "installed" so a bare 'npackdcl list' answers "what do I have". --direct
narrows that further to versions the user asked for, excluding ones the
oracle only detected already present on the system.`,
	Example: `  npackdcl list
  npackdcl list --status updateable
  npackdcl list --status any
  npackdcl list --direct`,
	RunE: runList,
}

func init() {
	listCmd.Flags().StringVar(&listStatus, "status", "installed", "filter by status: installed, updateable, not-installed, any")
	listCmd.Flags().BoolVar(&listDirect, "direct", false, "only show packages installed directly, excluding ones detected already present on the system")
}

func runList(cmd *cobra.Command, args []string) error {
	filter := catalog.SearchFilter{Cat0: -1, Cat1: -1}
	if listStatus != "any" {
		st, ok := parseStatus(listStatus)
		if !ok {
			return fmt.Errorf("unknown --status %q (want installed, updateable, not-installed, or any)", listStatus)
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

	if listDirect {
		packages, err = filterDirectlyInstalled(store, packages)
		if err != nil {
			return err
		}
	}

	fmt.Print(output.RenderCatalogPackageTable(packages))
	return nil
}

// filterDirectlyInstalled re-probes the oracle, materializes the
// installed-version graph from its snapshot, and keeps only the packages
// reachable from the graph's root — the ones the user installed directly,
// as opposed to versions the oracle found already present on the system.
func filterDirectlyInstalled(store *catalog.Store, packages []*catalog.Package) ([]*catalog.Package, error) {
	oc, err := newOracle()
	if err != nil {
		return nil, err
	}
	if err := oc.Refresh(store, job.New("list --direct install graph")); err != nil {
		return nil, err
	}
	installed, err := oc.EnumerateInstalled()
	if err != nil {
		return nil, err
	}

	g := graph.Build(installed)
	direct := make(map[string]bool)
	for _, id := range g.Dependents(graph.Root) {
		direct[g.Node(id).Package] = true
	}

	filtered := packages[:0]
	for _, p := range packages {
		if direct[p.Name] {
			filtered = append(filtered, p)
		}
	}
	return filtered, nil
}
