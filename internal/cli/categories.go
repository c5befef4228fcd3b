package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/npackd/npackd/internal/catalog"
	"github.com/npackd/npackd/internal/output"
)

var categoriesLevel int

var categoriesCmd = &cobra.Command{
	Use:   "categories [query]",
	Short: "Break a search down by top-level category",
	Long: `categories runs the same search query list would, but returns a
per-category package count instead of individual packages — the rollup
used to build a category browser.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCategories,
}

func init() {
	categoriesCmd.Flags().IntVar(&categoriesLevel, "level", 0, "category level to roll up (0 or 1)")
}

func runCategories(cmd *cobra.Command, args []string) error {
	var query string
	if len(args) == 1 {
		query = args[0]
	}
	if categoriesLevel != 0 && categoriesLevel != 1 {
		return fmt.Errorf("--level must be 0 or 1, got %d", categoriesLevel)
	}

	store, err := openLiveStore()
	if err != nil {
		return err
	}
	defer store.Close()

	rows, err := store.FindCategories(catalog.SearchFilter{Query: query, Cat0: -1, Cat1: -1}, categoriesLevel)
	if err != nil {
		return err
	}

	fmt.Print(output.RenderCategoryTable(rows))
	return nil
}
