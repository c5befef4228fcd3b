package catalog

import (
	"database/sql"

	"github.com/npackd/npackd/internal/catalogerr"
)

// CategoryCount is one row of a category rollup: the category's ID (nil
// for the synthetic "uncategorized" bucket), how many matching packages
// fall under it, and its display name ("" for uncategorized).
type CategoryCount struct {
	ID    *int64
	Count int
	Name  string
}

// categoryColumn maps a rollup level (0 or 1) to the PACKAGE column that
// carries it.
func categoryColumn(level int) string {
	if level == 1 {
		return "CATEGORY1"
	}
	return "CATEGORY0"
}

// FindCategories returns (id, count, name) rollup rows for the distinct
// values of the requested level among packages matching the same filter
// SearchPackages would use — except that, unlike SearchPackages, it does
// NOT drop length-1 keywords. This mirrors a long-standing inconsistency
// between the package-search and category-search code paths; it is kept
// rather than silently fixed, since fixing it would change which packages
// a user's single-letter search facets against.
func (s *Store) FindCategories(f SearchFilter, level int) ([]CategoryCount, error) {
	where, args := s.whereClause(f, false)
	column := categoryColumn(level)

	query := `SELECT ` + column + `, COUNT(*) FROM PACKAGE` + where + ` GROUP BY ` + column

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, &catalogerr.SchemaError{Query: "find categories", Err: err}
	}
	defer rows.Close()

	var out []CategoryCount
	var ids []int64
	for rows.Next() {
		var id sql.NullInt64
		var count int
		if err := rows.Scan(&id, &count); err != nil {
			return nil, &catalogerr.SchemaError{Query: "scan category rollup", Err: err}
		}
		cc := CategoryCount{Count: count}
		if id.Valid {
			v := id.Int64
			cc.ID = &v
			ids = append(ids, v)
		}
		out = append(out, cc)
	}
	if err := rows.Err(); err != nil {
		return nil, &catalogerr.SchemaError{Query: "iterate category rollup", Err: err}
	}

	names, err := s.GetCategories(ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[int64]string, len(ids))
	for i, id := range ids {
		byID[id] = names[i]
	}
	for i := range out {
		if out[i].ID != nil {
			out[i].Name = byID[*out[i].ID]
		}
	}
	return out, nil
}

// GetCategories converts CATEGORY.ID values into display titles, using
// the in-memory id->name cache built up by InsertCategory/lookups, falling
// back to the database for anything not yet cached.
func (s *Store) GetCategories(ids []int64) ([]string, error) {
	out := make([]string, len(ids))
	for i, id := range ids {
		name, err := s.categoryName(id)
		if err != nil {
			return nil, err
		}
		out[i] = name
	}
	return out, nil
}

func (s *Store) categoryName(id int64) (string, error) {
	for key, cachedID := range s.categoryIDs {
		if cachedID == id {
			return key.name, nil
		}
	}
	var name string
	err := s.db.QueryRow("SELECT NAME FROM CATEGORY WHERE ID = ?", id).Scan(&name)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", &catalogerr.SchemaError{Query: "find category name", Err: err}
	}
	return name, nil
}
