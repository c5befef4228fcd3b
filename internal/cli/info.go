package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/npackd/npackd/internal/output"
)

var infoCmd = &cobra.Command{
	Use:     "info <package>",
	Short:   "Show a package's details and every known version",
	Args:    cobra.ExactArgs(1),
	Example: `  npackdcl info com.example.Editor`,
	RunE:    runInfo,
}

func runInfo(cmd *cobra.Command, args []string) error {
	name := args[0]

	store, err := openLiveStore()
	if err != nil {
		return err
	}
	defer store.Close()

	pkg, err := store.FindPackage(name)
	if err != nil {
		return err
	}
	if pkg == nil {
		return fmt.Errorf("no such package: %s", name)
	}

	fmt.Printf("%s\n", pkg.Title)
	fmt.Printf("Name:        %s\n", pkg.Name)
	fmt.Printf("Status:      %s\n", pkg.Status)
	if pkg.URL != "" {
		fmt.Printf("URL:         %s\n", pkg.URL)
	}
	if pkg.License != "" {
		license, err := store.FindLicense(pkg.License)
		if err == nil && license != nil {
			fmt.Printf("License:     %s\n", license.Title)
		}
	}
	if pkg.Description != "" {
		fmt.Printf("\n%s\n", pkg.Description)
	}
	for _, l := range pkg.Links {
		fmt.Printf("%-12s %s\n", l.Rel+":", l.Href)
	}

	versions, err := store.GetPackageVersions(pkg.Name)
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Print(output.RenderVersionTable(versions))
	return nil
}
