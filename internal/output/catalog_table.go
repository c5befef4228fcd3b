package output

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/npackd/npackd/internal/catalog"
)

// RenderCatalogPackageTable renders a table of catalog packages for
// `search`/`list`, sorted by name for stable output.
func RenderCatalogPackageTable(packages []*catalog.Package) string {
	if len(packages) == 0 {
		return "No packages found.\n"
	}

	sorted := make([]*catalog.Package, len(packages))
	copy(sorted, packages)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Name < sorted[j].Name
	})

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%-40s %-30s %-13s\n", "Package", "Title", "Status"))
	sb.WriteString(strings.Repeat("─", 86))
	sb.WriteString("\n")

	for _, p := range sorted {
		sb.WriteString(fmt.Sprintf("%-40s %-30s %s\n",
			truncate(p.Name, 40), truncate(p.Title, 30), colorizeStatus(p.Status)))
	}

	return sb.String()
}

// colorizeStatus pads a status to the table's fixed column width, then
// colors it: green for installed, yellow for updateable, gray for not
// installed. Padding happens before coloring since the ANSI codes are
// zero-width on screen but would otherwise throw off a width-padded %s.
func colorizeStatus(s catalog.Status) string {
	padded := fmt.Sprintf("%-13s", s.String())
	switch s {
	case catalog.Installed:
		return colorize(colorGreen, padded)
	case catalog.Updateable:
		return colorize(colorYellow, padded)
	default:
		return colorize(colorGray, padded)
	}
}

// RenderVersionTable renders a package's versions newest-first, the way
// `npackdcl info` lists what is available to install.
func RenderVersionTable(versions []*catalog.PackageVersion) string {
	if len(versions) == 0 {
		return "No versions found.\n"
	}

	sorted := make([]*catalog.PackageVersion, len(versions))
	copy(sorted, versions)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Version.Compare(sorted[j].Version) > 0
	})

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%-15s %-10s %s\n", "Version", "MSI", "Download URL"))
	sb.WriteString(strings.Repeat("─", 60))
	sb.WriteString("\n")

	for _, v := range sorted {
		msi := "no"
		if v.MSIGUID != "" {
			msi = "yes"
		}
		sb.WriteString(fmt.Sprintf("%-15s %-10s %s\n", v.Version.String(), msi, v.DownloadURL))
	}

	return sb.String()
}

// RenderCategoryTable renders a category rollup, the way `npackdcl
// categories` breaks search results down by category.
func RenderCategoryTable(rows []catalog.CategoryCount) string {
	if len(rows) == 0 {
		return "No categories found.\n"
	}

	sorted := make([]catalog.CategoryCount, len(rows))
	copy(sorted, rows)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Count > sorted[j].Count
	})

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%-30s %s\n", "Category", "Packages"))
	sb.WriteString(strings.Repeat("─", 45))
	sb.WriteString("\n")

	for _, r := range sorted {
		name := r.Name
		if name == "" {
			name = "(uncategorized)"
		}
		sb.WriteString(fmt.Sprintf("%-30s %d\n", truncate(name, 30), r.Count))
	}

	return sb.String()
}

// RenderRepositoryTable renders the configured repository list along with
// each repository's last-fetched content hash, for `npackdcl repo list`.
func RenderRepositoryTable(repos []catalog.Repository) string {
	if len(repos) == 0 {
		return "No repositories configured.\n"
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%-4s %-60s %s\n", "ID", "URL", "Content SHA-1"))
	sb.WriteString(strings.Repeat("─", 90))
	sb.WriteString("\n")

	for _, r := range repos {
		sha := r.SHA1
		if sha == "" {
			sha = "(never refreshed)"
		} else {
			sha = truncate(sha, 12)
		}
		sb.WriteString(fmt.Sprintf("%-4d %-60s %s\n", r.ID, truncate(r.URL, 60), sha))
	}

	return sb.String()
}

// FormatCount renders n with thousands separators, used for the package
// and repository counts in `npackdcl status`.
func FormatCount(n int) string {
	return humanize.Comma(int64(n))
}
