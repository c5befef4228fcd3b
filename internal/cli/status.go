package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/npackd/npackd/internal/catalog"
	"github.com/npackd/npackd/internal/config"
	"github.com/npackd/npackd/internal/output"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show catalog and repository configuration status",
	RunE:  runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	path, err := getDBPath()
	if err != nil {
		return err
	}

	dir, err := config.Dir()
	if err != nil {
		return err
	}
	urls, err := config.LoadRepositories(dir)
	if err != nil {
		return err
	}

	fmt.Printf("Catalog:      %s\n", path)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		fmt.Println("              not yet created — run 'npackdcl update'")
		fmt.Printf("Repositories: %s configured\n", output.FormatCount(len(urls)))
		return nil
	}

	store, err := openLiveStore()
	if err != nil {
		return err
	}
	defer store.Close()

	installed, err := store.SearchPackages(catalog.SearchFilter{FilterByStatus: true, Status: catalog.Installed, Cat0: -1, Cat1: -1})
	if err != nil {
		return err
	}
	updateable, err := store.SearchPackages(catalog.SearchFilter{FilterByStatus: true, Status: catalog.Updateable, Cat0: -1, Cat1: -1})
	if err != nil {
		return err
	}
	all, err := store.SearchPackages(catalog.SearchFilter{Cat0: -1, Cat1: -1})
	if err != nil {
		return err
	}

	fmt.Printf("Repositories: %s configured\n", output.FormatCount(len(urls)))
	fmt.Printf("Packages:     %s total, %s installed, %s updateable\n",
		output.FormatCount(len(all)), output.FormatCount(len(installed)), output.FormatCount(len(updateable)))

	return nil
}
