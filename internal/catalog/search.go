package catalog

import (
	"strings"

	"github.com/npackd/npackd/internal/catalogerr"
)

// SearchFilter parameterizes the faceted package search and its category
// rollup sibling. Cat0/Cat1 follow the convention: -1 = no filter, 0 =
// match rows where that level's category is NULL ("uncategorized"),
// positive N = match rows where the level's category ID equals N.
type SearchFilter struct {
	Query          string
	FilterByStatus bool
	Status         Status
	Cat0           int
	Cat1           int
}

// whereClause builds the shared WHERE clause and bind arguments for both
// SearchPackages and FindCategories. applyKeywordLengthFilter controls
// whether keywords of length 1 are dropped — the package search path
// drops them, the category-rollup path historically does not, and that
// asymmetry is preserved rather than "fixed" (see FindCategories).
func (s *Store) whereClause(f SearchFilter, applyKeywordLengthFilter bool) (string, []any) {
	var conds []string
	var args []any

	for _, kw := range splitKeywords(f.Query) {
		if applyKeywordLengthFilter && len(kw) < 2 {
			continue
		}
		conds = append(conds, "FULLTEXT LIKE ?")
		args = append(args, "%"+kw+"%")
	}

	if f.FilterByStatus {
		if f.Status == Installed {
			conds = append(conds, "STATUS >= ?")
			args = append(args, int(Installed))
		} else {
			conds = append(conds, "STATUS = ?")
			args = append(args, int(f.Status))
		}
	}

	conds = append(conds, categoryCond("CATEGORY0", f.Cat0, &args)...)
	conds = append(conds, categoryCond("CATEGORY1", f.Cat1, &args)...)

	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func categoryCond(column string, cat int, args *[]any) []string {
	switch {
	case cat == -1:
		return nil
	case cat == 0:
		return []string{column + " IS NULL"}
	default:
		*args = append(*args, cat)
		return []string{column + " = ?"}
	}
}

// SearchPackages runs the faceted free-text search over PACKAGE, applying
// the length->=2 keyword filter.
func (s *Store) SearchPackages(f SearchFilter) ([]*Package, error) {
	where, args := s.whereClause(f, true)
	query := `SELECT NAME, TITLE, URL, ICON, DESCRIPTION, LICENSE, STATUS, SHORT_NAME, REPOSITORY,
		CATEGORY0, CATEGORY1, CATEGORY2, CATEGORY3, CATEGORY4 FROM PACKAGE` + where + " ORDER BY NAME"

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, &catalogerr.SchemaError{Query: "search packages", Err: err}
	}
	defer rows.Close()

	var names []string
	var out []*Package
	for rows.Next() {
		p, err := scanPackage(rows)
		if err != nil {
			return nil, &catalogerr.SchemaError{Query: "scan searched package", Err: err}
		}
		out = append(out, p)
		names = append(names, p.Name)
	}
	if err := rows.Err(); err != nil {
		return nil, &catalogerr.SchemaError{Query: "iterate searched packages", Err: err}
	}

	for _, p := range out {
		links, err := s.linksForPackage(p.Name)
		if err != nil {
			return nil, err
		}
		p.Links = links
	}
	return out, nil
}
