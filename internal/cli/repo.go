package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/npackd/npackd/internal/catalog"
	"github.com/npackd/npackd/internal/config"
	"github.com/npackd/npackd/internal/output"
)

var repoCmd = &cobra.Command{
	Use:   "repo",
	Short: "Manage the configured repository list",
}

var repoAddCmd = &cobra.Command{
	Use:   "add <url>",
	Short: "Add a repository URL, applied on the next update",
	Args:  cobra.ExactArgs(1),
	RunE:  runRepoAdd,
}

var repoRemoveCmd = &cobra.Command{
	Use:   "remove <url>",
	Short: "Remove a repository URL",
	Args:  cobra.ExactArgs(1),
	RunE:  runRepoRemove,
}

var repoListCmd = &cobra.Command{
	Use:   "list",
	Short: "List configured repositories and their last-fetched content hash",
	RunE:  runRepoList,
}

func init() {
	repoCmd.AddCommand(repoAddCmd)
	repoCmd.AddCommand(repoRemoveCmd)
	repoCmd.AddCommand(repoListCmd)
}

func runRepoAdd(cmd *cobra.Command, args []string) error {
	dir, err := config.Dir()
	if err != nil {
		return err
	}
	urls, err := config.LoadRepositories(dir)
	if err != nil {
		return err
	}
	for _, u := range urls {
		if u == args[0] {
			fmt.Printf("%s is already configured\n", u)
			return nil
		}
	}
	urls = append(urls, args[0])
	if err := config.SaveRepositories(dir, urls); err != nil {
		return err
	}
	fmt.Printf("added %s — run 'npackdcl update' to fetch it\n", args[0])
	return nil
}

func runRepoRemove(cmd *cobra.Command, args []string) error {
	dir, err := config.Dir()
	if err != nil {
		return err
	}
	urls, err := config.LoadRepositories(dir)
	if err != nil {
		return err
	}
	kept := urls[:0]
	removed := false
	for _, u := range urls {
		if u == args[0] {
			removed = true
			continue
		}
		kept = append(kept, u)
	}
	if !removed {
		return fmt.Errorf("%s is not configured", args[0])
	}
	if err := config.SaveRepositories(dir, kept); err != nil {
		return err
	}
	fmt.Printf("removed %s — run 'npackdcl update' to rebuild the catalog without it\n", args[0])
	return nil
}

func runRepoList(cmd *cobra.Command, args []string) error {
	dir, err := config.Dir()
	if err != nil {
		return err
	}
	urls, err := config.LoadRepositories(dir)
	if err != nil {
		return err
	}
	if len(urls) == 0 {
		fmt.Println("no repositories configured — run 'npackdcl repo add <url>'")
		return nil
	}

	store, err := openLiveStore()
	if err != nil {
		return err
	}
	defer store.Close()

	repos := make([]catalog.Repository, 0, len(urls))
	rows, err := store.DB().Query("SELECT ID, URL, SHA1 FROM REPOSITORY ORDER BY ID")
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var r catalog.Repository
		var sha1 *string
		if err := rows.Scan(&r.ID, &r.URL, &sha1); err != nil {
			return err
		}
		if sha1 != nil {
			r.SHA1 = *sha1
		}
		repos = append(repos, r)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	fmt.Print(output.RenderRepositoryTable(repos))
	return nil
}
