package catalog

import (
	"database/sql"
	"fmt"

	"github.com/npackd/npackd/internal/catalogerr"
	"github.com/npackd/npackd/internal/job"
	"github.com/npackd/npackd/internal/version"
)

// UpsertPackage inserts or updates p. On replace=false an existing row is
// left untouched (INSERT-IGNORE semantics); on replace=true it is
// overwritten. LINK rows are rewritten only when the PACKAGE row was
// actually affected, preserving existing links when an ignored insert was
// a no-op.
func (s *Store) UpsertPackage(p *Package, replace bool) error {
	var cats [5]sql.NullInt64
	ids, err := s.categoryPathIDs(p.CategoryPath)
	if err != nil {
		return err
	}
	for i := 0; i < len(ids) && i < 5; i++ {
		cats[i] = sql.NullInt64{Int64: ids[i], Valid: true}
	}

	verb := "INSERT OR IGNORE"
	if replace {
		verb = "INSERT OR REPLACE"
	}
	query := fmt.Sprintf(`%s INTO PACKAGE
		(NAME, TITLE, URL, ICON, DESCRIPTION, LICENSE, FULLTEXT, STATUS, SHORT_NAME, REPOSITORY,
		 CATEGORY0, CATEGORY1, CATEGORY2, CATEGORY3, CATEGORY4)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, verb)

	var repo sql.NullInt64
	if p.Repository != 0 {
		repo = sql.NullInt64{Int64: p.Repository, Valid: true}
	}

	res, err := s.db.Exec(query,
		p.Name, p.Title, p.URL, p.Icon, p.Description, p.License, p.FullText(), int(p.Status), p.ShortName, repo,
		cats[0], cats[1], cats[2], cats[3], cats[4])
	if err != nil {
		return &catalogerr.SchemaError{Query: "upsert package", Err: err}
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return &catalogerr.SchemaError{Query: "upsert package rows affected", Err: err}
	}
	if affected > 0 {
		if err := s.rewriteLinks(p.Name, p.Links); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) rewriteLinks(pkg string, links []Link) error {
	if _, err := s.db.Exec("DELETE FROM LINK WHERE PACKAGE = ?", pkg); err != nil {
		return &catalogerr.SchemaError{Query: "delete links", Err: err}
	}
	for i, l := range links {
		if _, err := s.db.Exec("INSERT INTO LINK (PACKAGE, INDEX_, REL, HREF) VALUES (?, ?, ?, ?)",
			pkg, i, l.Rel, l.Href); err != nil {
			return &catalogerr.SchemaError{Query: "insert link", Err: err}
		}
	}
	return nil
}

// UpsertPackageVersion inserts or updates pv with the given replace
// semantics; the XML blob is written verbatim.
func (s *Store) UpsertPackageVersion(pv *PackageVersion, replace bool) error {
	verb := "INSERT OR IGNORE"
	if replace {
		verb = "INSERT OR REPLACE"
	}
	query := fmt.Sprintf(`%s INTO PACKAGE_VERSION
		(NAME, PACKAGE, URL, CONTENT, MSIGUID, DETECT_FILE_COUNT)
		VALUES (?, ?, ?, ?, ?, ?)`, verb)

	msiguid := sql.NullString{String: pv.MSIGUID, Valid: pv.MSIGUID != ""}
	_, err := s.db.Exec(query, pv.Version.String(), pv.Package, pv.DownloadURL, pv.Content, msiguid, pv.DetectFileCount)
	if err != nil {
		return &catalogerr.SchemaError{Query: "upsert package version", Err: err}
	}
	return nil
}

// UpsertLicense inserts or updates l with the given replace semantics and
// purges any stale cache entry.
func (s *Store) UpsertLicense(l *License, replace bool) error {
	verb := "INSERT OR IGNORE"
	if replace {
		verb = "INSERT OR REPLACE"
	}
	query := fmt.Sprintf(`%s INTO LICENSE (NAME, TITLE, DESCRIPTION, URL) VALUES (?, ?, ?, ?)`, verb)
	if _, err := s.db.Exec(query, l.Name, l.Title, l.Description, l.URL); err != nil {
		return &catalogerr.SchemaError{Query: "upsert license", Err: err}
	}
	s.licenses.Remove(l.Name)
	return nil
}

// FindPackage returns the named package with its links populated, or nil
// if it does not exist.
func (s *Store) FindPackage(name string) (*Package, error) {
	pkgs, err := s.FindPackages([]string{name})
	if err != nil {
		return nil, err
	}
	if len(pkgs) == 0 {
		return nil, nil
	}
	return pkgs[0], nil
}

// FindPackages returns the named packages, in input order, skipping names
// that do not exist. Lookups are chunked in groups of 10 bound parameters.
func (s *Store) FindPackages(names []string) ([]*Package, error) {
	found := make(map[string]*Package, len(names))

	const chunkSize = 10
	for start := 0; start < len(names); start += chunkSize {
		end := start + chunkSize
		if end > len(names) {
			end = len(names)
		}
		chunk := names[start:end]

		placeholders := make([]string, len(chunk))
		args := make([]any, len(chunk))
		for i, n := range chunk {
			placeholders[i] = "?"
			args[i] = n
		}
		query := fmt.Sprintf(`SELECT NAME, TITLE, URL, ICON, DESCRIPTION, LICENSE, STATUS, SHORT_NAME, REPOSITORY,
			CATEGORY0, CATEGORY1, CATEGORY2, CATEGORY3, CATEGORY4
			FROM PACKAGE WHERE NAME IN (%s)`, joinPlaceholders(placeholders))

		rows, err := s.db.Query(query, args...)
		if err != nil {
			return nil, &catalogerr.SchemaError{Query: "find packages", Err: err}
		}
		err = func() error {
			defer rows.Close()
			for rows.Next() {
				p, err := scanPackage(rows)
				if err != nil {
					return err
				}
				found[p.Name] = p
			}
			return rows.Err()
		}()
		if err != nil {
			return nil, &catalogerr.SchemaError{Query: "scan packages", Err: err}
		}
	}

	result := make([]*Package, 0, len(names))
	for _, n := range names {
		p, ok := found[n]
		if !ok {
			continue
		}
		links, err := s.linksForPackage(p.Name)
		if err != nil {
			return nil, err
		}
		p.Links = links
		result = append(result, p)
	}
	return result, nil
}

func joinPlaceholders(ph []string) string {
	out := ph[0]
	for _, p := range ph[1:] {
		out += "," + p
	}
	return out
}

func scanPackage(rows *sql.Rows) (*Package, error) {
	var p Package
	var status int
	var repo sql.NullInt64
	var cats [5]sql.NullInt64
	if err := rows.Scan(&p.Name, &p.Title, &p.URL, &p.Icon, &p.Description, &p.License, &status, &p.ShortName, &repo,
		&cats[0], &cats[1], &cats[2], &cats[3], &cats[4]); err != nil {
		return nil, err
	}
	p.Status = Status(status)
	p.Repository = repo.Int64
	return &p, nil
}

func (s *Store) linksForPackage(pkg string) ([]Link, error) {
	rows, err := s.db.Query("SELECT REL, HREF FROM LINK WHERE PACKAGE = ? ORDER BY INDEX_", pkg)
	if err != nil {
		return nil, &catalogerr.SchemaError{Query: "find links", Err: err}
	}
	defer rows.Close()

	var links []Link
	for rows.Next() {
		var l Link
		if err := rows.Scan(&l.Rel, &l.Href); err != nil {
			return nil, &catalogerr.SchemaError{Query: "scan link", Err: err}
		}
		links = append(links, l)
	}
	return links, rows.Err()
}

// FindPackageVersion returns the exact (package, version) row, re-parsing
// its stored XML to confirm it is still well-formed.
func (s *Store) FindPackageVersion(pkg string, v version.Version) (*PackageVersion, error) {
	row := s.db.QueryRow(`SELECT NAME, PACKAGE, URL, CONTENT, MSIGUID, DETECT_FILE_COUNT
		FROM PACKAGE_VERSION WHERE PACKAGE = ? AND NAME = ?`, pkg, v.String())
	pv, err := scanPackageVersion(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := validateXML(pkg+" "+v.String(), pv.Content); err != nil {
		return nil, err
	}
	return pv, nil
}

func scanPackageVersion(row *sql.Row) (*PackageVersion, error) {
	var pv PackageVersion
	var versionStr string
	var msiguid sql.NullString
	if err := row.Scan(&versionStr, &pv.Package, &pv.DownloadURL, &pv.Content, &msiguid, &pv.DetectFileCount); err != nil {
		return nil, err
	}
	v, err := version.Parse(versionStr)
	if err != nil {
		return nil, &catalogerr.CorruptCatalog{Source: pv.Package, Err: err}
	}
	pv.Version = v
	pv.MSIGUID = msiguid.String
	return &pv, nil
}

// GetPackageVersions returns every version of pkg, sorted by version
// descending.
func (s *Store) GetPackageVersions(pkg string) ([]*PackageVersion, error) {
	rows, err := s.db.Query(`SELECT NAME, PACKAGE, URL, CONTENT, MSIGUID, DETECT_FILE_COUNT
		FROM PACKAGE_VERSION WHERE PACKAGE = ?`, pkg)
	if err != nil {
		return nil, &catalogerr.SchemaError{Query: "get package versions", Err: err}
	}
	defer rows.Close()

	var out []*PackageVersion
	for rows.Next() {
		var pv PackageVersion
		var versionStr string
		var msiguid sql.NullString
		if err := rows.Scan(&versionStr, &pv.Package, &pv.DownloadURL, &pv.Content, &msiguid, &pv.DetectFileCount); err != nil {
			return nil, &catalogerr.SchemaError{Query: "scan package version", Err: err}
		}
		v, err := version.Parse(versionStr)
		if err != nil {
			return nil, &catalogerr.CorruptCatalog{Source: pv.Package, Err: err}
		}
		pv.Version = v
		pv.MSIGUID = msiguid.String
		out = append(out, &pv)
	}
	if err := rows.Err(); err != nil {
		return nil, &catalogerr.SchemaError{Query: "iterate package versions", Err: err}
	}

	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j-1].Version.Less(out[j].Version); j-- {
			out[j-1], out[j] = out[j], out[j-1]
		}
	}
	return out, nil
}

// GetPackageVersionsWithDetectFiles returns every version carrying at
// least one detect-file entry, the set the installation oracle probes.
func (s *Store) GetPackageVersionsWithDetectFiles() ([]*PackageVersion, error) {
	rows, err := s.db.Query(`SELECT NAME, PACKAGE, URL, CONTENT, MSIGUID, DETECT_FILE_COUNT
		FROM PACKAGE_VERSION WHERE DETECT_FILE_COUNT > 0 ORDER BY PACKAGE, NAME`)
	if err != nil {
		return nil, &catalogerr.SchemaError{Query: "get package versions with detect files", Err: err}
	}
	defer rows.Close()

	var out []*PackageVersion
	for rows.Next() {
		var pv PackageVersion
		var versionStr string
		var msiguid sql.NullString
		if err := rows.Scan(&versionStr, &pv.Package, &pv.DownloadURL, &pv.Content, &msiguid, &pv.DetectFileCount); err != nil {
			return nil, &catalogerr.SchemaError{Query: "scan package version", Err: err}
		}
		v, err := version.Parse(versionStr)
		if err != nil {
			return nil, &catalogerr.CorruptCatalog{Source: pv.Package, Err: err}
		}
		pv.Version = v
		pv.MSIGUID = msiguid.String
		out = append(out, &pv)
	}
	return out, rows.Err()
}

// FindPackageVersionByMSIGUID returns the at-most-one package version with
// the given MSI product GUID.
func (s *Store) FindPackageVersionByMSIGUID(guid string) (*PackageVersion, error) {
	row := s.db.QueryRow(`SELECT NAME, PACKAGE, URL, CONTENT, MSIGUID, DETECT_FILE_COUNT
		FROM PACKAGE_VERSION WHERE MSIGUID = ?`, guid)
	pv, err := scanPackageVersion(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, &catalogerr.SchemaError{Query: "find package version by msiguid", Err: err}
	}
	return pv, nil
}

// FindPackagesByShortName returns every package whose short name matches,
// used to disambiguate user-typed short names.
func (s *Store) FindPackagesByShortName(name string) ([]*Package, error) {
	rows, err := s.db.Query(`SELECT NAME FROM PACKAGE WHERE SHORT_NAME = ?`, name)
	if err != nil {
		return nil, &catalogerr.SchemaError{Query: "find packages by short name", Err: err}
	}
	var names []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			rows.Close()
			return nil, &catalogerr.SchemaError{Query: "scan short name", Err: err}
		}
		names = append(names, n)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, &catalogerr.SchemaError{Query: "iterate short names", Err: err}
	}
	return s.FindPackages(names)
}

// FindLicense returns the named license, serving from the LRU cache when
// possible and cloning on every read so callers cannot mutate the cached
// entry.
func (s *Store) FindLicense(name string) (*License, error) {
	if cached, ok := s.licenses.Get(name); ok {
		return cached.Clone(), nil
	}

	row := s.db.QueryRow("SELECT NAME, TITLE, DESCRIPTION, URL FROM LICENSE WHERE NAME = ?", name)
	var l License
	if err := row.Scan(&l.Name, &l.Title, &l.Description, &l.URL); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, &catalogerr.SchemaError{Query: "find license", Err: err}
	}
	s.licenses.Add(name, &l)
	return l.Clone(), nil
}

// InsertCategory looks up the (parent, level, name) triple, inserting and
// returning a new ID only if it is absent.
func (s *Store) InsertCategory(parent int64, level int, name string) (int64, error) {
	key := categoryKey{parent: parent, level: level, name: name}
	if id, ok := s.categoryIDs[key]; ok {
		return id, nil
	}

	var id int64
	err := s.db.QueryRow("SELECT ID FROM CATEGORY WHERE PARENT = ? AND LEVEL = ? AND NAME = ?",
		parent, level, name).Scan(&id)
	if err == nil {
		s.categoryIDs[key] = id
		return id, nil
	}
	if err != sql.ErrNoRows {
		return 0, &catalogerr.SchemaError{Query: "find category", Err: err}
	}

	res, err := s.db.Exec("INSERT INTO CATEGORY (NAME, PARENT, LEVEL) VALUES (?, ?, ?)", name, parent, level)
	if err != nil {
		return 0, &catalogerr.SchemaError{Query: "insert category", Err: err}
	}
	id, err = res.LastInsertId()
	if err != nil {
		return 0, &catalogerr.SchemaError{Query: "insert category last insert id", Err: err}
	}
	s.categoryIDs[key] = id
	return id, nil
}

// categoryPathIDs resolves a "/"-separated category path (up to five
// levels) into CATEGORY.ID values, inserting nodes as needed.
func (s *Store) categoryPathIDs(path string) ([]int64, error) {
	if path == "" {
		return nil, nil
	}
	segments := splitPath(path)
	if len(segments) > 5 {
		segments = segments[:5]
	}
	ids := make([]int64, len(segments))
	var parent int64
	for i, seg := range segments {
		id, err := s.InsertCategory(parent, i, seg)
		if err != nil {
			return nil, err
		}
		ids[i] = id
		parent = id
	}
	return ids, nil
}

func splitPath(path string) []string {
	var out []string
	start := 0
	for i := 0; i < len(path); i++ {
		if path[i] == '/' {
			if i > start {
				out = append(out, path[start:i])
			}
			start = i + 1
		}
	}
	if start < len(path) {
		out = append(out, path[start:])
	}
	return out
}

// SetRepositories rewrites the REPOSITORY table from scratch, in the
// caller's declared order, and returns the freshly assigned IDs in the
// same order. Repository rows are rewritten atomically at the start of
// each refresh, per spec.
func (s *Store) SetRepositories(urls []string) ([]int64, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, &catalogerr.SchemaError{Query: "begin set repositories", Err: err}
	}
	if _, err := tx.Exec("DELETE FROM REPOSITORY"); err != nil {
		tx.Rollback()
		return nil, &catalogerr.SchemaError{Query: "clear repositories", Err: err}
	}

	ids := make([]int64, len(urls))
	for i, u := range urls {
		res, err := tx.Exec("INSERT INTO REPOSITORY (URL) VALUES (?)", u)
		if err != nil {
			tx.Rollback()
			return nil, &catalogerr.SchemaError{Query: "insert repository", Err: err}
		}
		id, err := res.LastInsertId()
		if err != nil {
			tx.Rollback()
			return nil, &catalogerr.SchemaError{Query: "insert repository last insert id", Err: err}
		}
		ids[i] = id
	}

	if err := tx.Commit(); err != nil {
		return nil, &catalogerr.SchemaError{Query: "commit set repositories", Err: err}
	}
	return ids, nil
}

// SetRepositorySHA1 records the last-seen content hash for a repository
// row after a successful fetch.
func (s *Store) SetRepositorySHA1(id int64, sha1 string) error {
	if _, err := s.db.Exec("UPDATE REPOSITORY SET SHA1 = ? WHERE ID = ?", sha1, id); err != nil {
		return &catalogerr.SchemaError{Query: "set repository sha1", Err: err}
	}
	return nil
}

// Clear deletes all rows from PACKAGE, PACKAGE_VERSION, LICENSE, LINK, and
// CATEGORY, in that order, reporting per-table progress through j. Weights
// mirror the proportions the original store's clear() job used: PACKAGE
// and PACKAGE_VERSION dominate the row counts.
func (s *Store) Clear(j *job.Job) error {
	tables := []struct {
		name   string
		weight float64
	}{
		{"PACKAGE", 0.13},
		{"PACKAGE_VERSION", 0.6},
		{"LICENSE", 0.1},
		{"LINK", 0.13},
		{"CATEGORY", 0.04},
	}
	for _, t := range tables {
		sub := j.NewSubJob(t.weight, "clearing "+t.name)
		if _, err := s.db.Exec("DELETE FROM " + t.name); err != nil {
			return &catalogerr.SchemaError{Query: "clear " + t.name, Err: err}
		}
		sub.CompleteWithProgress()
	}
	s.licenses.Purge()
	s.categoryIDs = map[categoryKey]int64{}
	return nil
}
